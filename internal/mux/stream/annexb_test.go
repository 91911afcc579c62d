package stream

import "testing"

func TestFindStartCodesDetects3And4ByteForms(t *testing.T) {
	data := []byte{0, 0, 1, 0x67, 0xAA, 0, 0, 0, 1, 0x68, 0xBB}
	starts := findStartCodes(data)
	if len(starts) != 2 {
		t.Fatalf("want 2 start codes, got %d", len(starts))
	}
	if starts[0].end != 3 || starts[1].end != 9 {
		t.Fatalf("unexpected offsets: %+v", starts)
	}
}

func TestAnnexBToAVCCSplitsNALs(t *testing.T) {
	data := []byte{0, 0, 0, 1, 0x67, 0xAA, 0xBB, 0, 0, 1, 0x68, 0xCC}
	nals := annexBToAVCC(data)
	if len(nals) != 2 {
		t.Fatalf("want 2 NALs, got %d", len(nals))
	}
	if nalType(nals[0]) != nalTypeSPS {
		t.Fatalf("want SPS nal type, got %d", nalType(nals[0]))
	}
	if nalType(nals[1]) != nalTypePPS {
		t.Fatalf("want PPS nal type, got %d", nalType(nals[1]))
	}
}

func TestLengthPrefixNALsEncodesBigEndianLength(t *testing.T) {
	nals := [][]byte{{0x65, 1, 2, 3}}
	out := lengthPrefixNALs(nals)
	if len(out) != 8 {
		t.Fatalf("want 8 bytes, got %d", len(out))
	}
	if out[0] != 0 || out[1] != 0 || out[2] != 0 || out[3] != 4 {
		t.Fatalf("want length prefix 4, got %v", out[:4])
	}
}

func TestAnnexBToAVCCEmptyInput(t *testing.T) {
	if got := annexBToAVCC(nil); got != nil {
		t.Fatalf("want nil, got %v", got)
	}
}

func TestAnnexBToAVCCTrimsTrailingZeroPadding(t *testing.T) {
	data := []byte{0, 0, 0, 1, 0x67, 0xAA, 0xBB, 0, 0, 0}
	nals := annexBToAVCC(data)
	if len(nals) != 1 {
		t.Fatalf("want 1 NAL, got %d", len(nals))
	}
	want := []byte{0x67, 0xAA, 0xBB}
	if len(nals[0]) != len(want) {
		t.Fatalf("want %d trimmed bytes, got %d (%v)", len(want), len(nals[0]), nals[0])
	}
	for i := range want {
		if nals[0][i] != want[i] {
			t.Fatalf("trimmed NAL mismatch: got %v want %v", nals[0], want)
		}
	}
}

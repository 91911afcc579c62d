package stream

import "testing"

func TestBuildAVCDecoderConfigurationRecord(t *testing.T) {
	sps := []byte{0x67, 0x42, 0x00, 0x1e, 0xAA, 0xBB}
	pps := []byte{0x68, 0xCE, 0x3C, 0x80}

	rec, err := buildAVCDecoderConfigurationRecord(sps, pps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec[0] != 1 {
		t.Fatalf("want configurationVersion=1, got %d", rec[0])
	}
	if rec[1] != sps[1] || rec[2] != sps[2] || rec[3] != sps[3] {
		t.Fatalf("profile/level bytes not copied from SPS")
	}
}

func TestBuildAVCDecoderConfigurationRecordRejectsShortSPS(t *testing.T) {
	_, err := buildAVCDecoderConfigurationRecord([]byte{1, 2}, []byte{3})
	if err == nil {
		t.Fatal("expected error for short SPS")
	}
}

func TestExtractSPSPPSFindsBoth(t *testing.T) {
	nals := [][]byte{{0x67, 1, 2, 3}, {0x68, 4, 5}, {0x65, 6, 7}}
	sps, pps, ok := extractSPSPPS(nals)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if sps[0] != 0x67 || pps[0] != 0x68 {
		t.Fatalf("wrong NALs selected: sps=%v pps=%v", sps, pps)
	}
}

func TestExtractSPSPPSMissingReturnsFalse(t *testing.T) {
	nals := [][]byte{{0x65, 1, 2}}
	_, _, ok := extractSPSPPS(nals)
	if ok {
		t.Fatal("expected ok=false without SPS/PPS")
	}
}

func TestValidateNoAnnexBInsideRejectsEmbeddedStartCode(t *testing.T) {
	nal := []byte{0x65, 0, 0, 1, 0xAA}
	if err := validateNoAnnexBInside(nal); err == nil {
		t.Fatal("expected error for embedded start code")
	}
}

func TestValidateNoAnnexBInsideAcceptsCleanNAL(t *testing.T) {
	nal := []byte{0x65, 0xAA, 0xBB, 0xCC}
	if err := validateNoAnnexBInside(nal); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuildAVCDecoderConfigurationRecordAppendsHighProfileExtension(t *testing.T) {
	// Hand-built SPS RBSP: seq_parameter_set_id=0 ("1"), chroma_format_idc=1
	// ("010"), bit_depth_luma_minus8=0 ("1"), bit_depth_chroma_minus8=0 ("1"),
	// then padded with a stop bit and zero bits.
	rbsp := []byte{0b1_010_1_1_1_0}
	sps := append([]byte{0x67, profileHigh, 0x00, 0x28}, rbsp...)
	pps := []byte{0x68, 0xCE, 0x3C, 0x80}

	rec, err := buildAVCDecoderConfigurationRecord(sps, pps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tail := rec[len(rec)-4:]
	if tail[0] != 0xfc|1 {
		t.Fatalf("want chroma_format_idc extension byte 0xfd, got 0x%02x", tail[0])
	}
	if tail[1] != 0xf8 || tail[2] != 0xf8 {
		t.Fatalf("want zero bit-depth-minus8 extension bytes, got %v", tail[1:3])
	}
	if tail[3] != 0x00 {
		t.Fatalf("want numOfSequenceParameterSetExt=0, got 0x%02x", tail[3])
	}
}

func TestBuildAVCDecoderConfigurationRecordBaselineProfileOmitsExtension(t *testing.T) {
	sps := []byte{0x67, 0x42, 0x00, 0x1e, 0xAA, 0xBB} // 0x42 = baseline, no extension tail
	pps := []byte{0x68, 0xCE, 0x3C, 0x80}

	rec, err := buildAVCDecoderConfigurationRecord(sps, pps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantLen := 11 + len(sps) + len(pps)
	if len(rec) != wantLen {
		t.Fatalf("want len %d (no extension tail), got %d", wantLen, len(rec))
	}
}

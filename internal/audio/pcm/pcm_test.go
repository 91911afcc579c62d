package pcm

import "testing"

func TestUnifiedFrameValid(t *testing.T) {
	f := UnifiedFrame{Samples: make([]float32, 4), Frames: 2}
	if !f.Valid() {
		t.Fatal("expected valid frame")
	}
	f.Frames = 3
	if f.Valid() {
		t.Fatal("expected invalid frame after mismatched length")
	}
}

func TestAudioPacketValid(t *testing.T) {
	p := AudioPacket{Payload: []byte{1}, PTS: 0}
	if !p.Valid() {
		t.Fatal("expected valid packet")
	}
	if (AudioPacket{PTS: 0}).Valid() {
		t.Fatal("empty payload must be invalid")
	}
	if (AudioPacket{Payload: []byte{1}, PTS: -1}).Valid() {
		t.Fatal("negative pts must be invalid")
	}
}

func TestAudioPacketCheckInvariants(t *testing.T) {
	cases := []struct {
		name string
		pkt  AudioPacket
		ok   bool
	}{
		{"ok", AudioPacket{PTS: 10, DTS: 10, Duration: 5}, true},
		{"negative pts", AudioPacket{PTS: -1, DTS: -1, Duration: 5}, false},
		{"dts after pts", AudioPacket{PTS: 5, DTS: 6, Duration: 5}, false},
		{"zero duration", AudioPacket{PTS: 5, DTS: 5, Duration: 0}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.pkt.CheckInvariants()
			if (err == nil) != c.ok {
				t.Fatalf("CheckInvariants() = %v, want ok=%v", err, c.ok)
			}
		})
	}
}

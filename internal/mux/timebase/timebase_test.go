package timebase

import "testing"

func TestRescaleSameTimebaseIsIdentity(t *testing.T) {
	tb := Rational{1, 48000}
	if got := Rescale(48000, tb, tb); got != 48000 {
		t.Fatalf("want 48000, got %d", got)
	}
}

func TestRescaleSamplesToMilliseconds(t *testing.T) {
	samples := Rational{1, 48000}
	ms := Rational{1, 1000}
	if got := Rescale(48000, samples, ms); got != 1000 {
		t.Fatalf("want 1000ms for 48000 samples at 48kHz, got %d", got)
	}
	if got := Rescale(24000, samples, ms); got != 500 {
		t.Fatalf("want 500ms, got %d", got)
	}
}

func TestRescaleFramesToMilliseconds(t *testing.T) {
	frames := Rational{1, 30}
	ms := Rational{1, 1000}
	if got := Rescale(30, frames, ms); got != 1000 {
		t.Fatalf("want 1000ms for 30 frames @30fps, got %d", got)
	}
	if got := Rescale(1, frames, ms); got != 33 {
		t.Fatalf("want ~33ms for 1 frame @30fps, got %d", got)
	}
}

func TestRescaleZero(t *testing.T) {
	if got := Rescale(0, Rational{1, 48000}, Rational{1, 1000}); got != 0 {
		t.Fatalf("want 0, got %d", got)
	}
}

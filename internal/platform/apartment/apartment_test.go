package apartment

import "testing"

func TestNewProbeReturnsValue(t *testing.T) {
	p := New()
	// On every non-Windows test runner this documents the portable stub's
	// contract rather than exercising real COM state.
	_ = p.IsSingleThreaded()
}

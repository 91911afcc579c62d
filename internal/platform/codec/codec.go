// Package codec is the narrow adapter over the external H.264/AAC codec
// library and the container/network I/O library (spec §1, §6). Everything
// above this package — timestamp authority, bitstream framing, backpressure
// — belongs to C7/C8/C9; this package only does find-encoder, open,
// push/pull/drain, and alloc-output-context/write-header/write-packet/
// write-trailer, exactly the operation set spec §6 allows the core to use.
//
// The concrete backend is github.com/asticode/go-astiav (Go bindings over
// libavcodec/libavformat), the only real encode+mux library present in the
// retrieval pack (grounded in e1z0-QAnotherRTSP's usage of FormatContext,
// CodecContext, Frame, and SoftwareScaleContext).
package codec

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
)

// drainPackets repeatedly calls ReceivePacket until the codec signals
// "need more input" (EAGAIN) or end-of-stream (EOF), the standard two-step
// ffmpeg send/receive protocol used throughout astiav.
func drainPackets(ctx *astiav.CodecContext, pkt *astiav.Packet, onPacket func(*astiav.Packet) error) error {
	for {
		err := ctx.ReceivePacket(pkt)
		if err != nil {
			if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
				return nil
			}
			return fmt.Errorf("codec: receive packet: %w", err)
		}
		if onPacket != nil {
			if cbErr := onPacket(pkt); cbErr != nil {
				pkt.Unref()
				return cbErr
			}
		}
		pkt.Unref()
	}
}

// sendEagainOK calls SendFrame/SendPacket and treats EAGAIN as non-fatal
// (the caller is expected to drain pending output first).
func sendEagainOK(err error) error {
	if err == nil || errors.Is(err, astiav.ErrEagain) {
		return nil
	}
	return err
}

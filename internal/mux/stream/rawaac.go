package stream

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/big21ray/ionia/internal/audio/pcm"
)

// RawAACWriter implements the "raw-aac" output kind (spec §6): each encoded
// AAC-LC frame is framed with its own 7-byte ADTS header and written
// straight to w, with no container, no PTS/DTS authority, and no video
// path at all.
type RawAACWriter struct {
	w                    io.Writer
	sampleRate, channels int
	packetCount          atomic.Int64
}

// NewRawAACWriter returns a writer that ADTS-frames every packet passed to
// WriteAudioPacket before writing it to w.
func NewRawAACWriter(w io.Writer, sampleRate, channels int) *RawAACWriter {
	return &RawAACWriter{w: w, sampleRate: sampleRate, channels: channels}
}

// WriteAudioPacket frames pkt with an ADTS header and writes it to the
// underlying writer.
func (r *RawAACWriter) WriteAudioPacket(pkt pcm.EncodedAudioPacket) error {
	framed, err := wrapADTS(r.sampleRate, r.channels, pkt.Payload)
	if err != nil {
		return fmt.Errorf("stream: wrap ADTS: %w", err)
	}
	if _, err := r.w.Write(framed); err != nil {
		return err
	}
	r.packetCount.Add(1)
	return nil
}

// PacketCount returns the running count of ADTS-framed packets written, for
// the scripting surface's get_statistics() (spec §6 audio_packets).
func (r *RawAACWriter) PacketCount() int64 {
	return r.packetCount.Load()
}

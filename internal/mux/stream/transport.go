package stream

import (
	"github.com/big21ray/ionia/internal/audio/pcm"
	"github.com/big21ray/ionia/internal/stream/buffer"
	"github.com/big21ray/ionia/internal/video/frame"
)

// PacedTransport adapts a Muxer to buffer.Transport so the C9 backpressure
// queue's Sender, rather than the encode-tick callbacks, is what actually
// calls into the muxer — decoupling bursty encode timing from the steady,
// real-time-paced writes a live RTMP viewer expects (spec §4.8, §4.9).
type PacedTransport struct {
	Muxer *Muxer
}

// Write dispatches pkt to the muxer's video or audio path based on its Kind.
func (p PacedTransport) Write(pkt buffer.Packet) error {
	if pkt.Kind == buffer.KindVideo {
		return p.Muxer.WriteVideoPacket(frame.Encoded{Payload: pkt.Payload, IsKeyframe: pkt.IsKeyframe}, pkt.Index)
	}
	return p.Muxer.WriteAudioPacket(pcm.EncodedAudioPacket{Payload: pkt.Payload, NumSamples: 1024}, pkt.Index)
}

package codec

import (
	"fmt"

	"github.com/asticode/go-astiav"
)

// AACEncoder wraps an astiav AAC-LC codec context. The 1024-sample framing
// contract (spec §4.3) is enforced by internal/audio/aacenc, which always
// calls EncodeFrame with exactly 1024 stereo frames; this adapter just
// shuttles planar float32 into the codec and drains packets.
type AACEncoder struct {
	ctx    *astiav.CodecContext
	frame  *astiav.Frame
	pkt    *astiav.Packet
	sr     int
	stereo bool
}

// NewAACLC opens an AAC-LC encoder at sampleRate/channels and bitrate bps.
func NewAACLC(sampleRate, channels int, bitRate int64) (*AACEncoder, error) {
	c := astiav.FindEncoder(astiav.CodecIDAac)
	if c == nil {
		return nil, fmt.Errorf("codec: AAC-LC encoder not available")
	}
	ctx := astiav.AllocCodecContext(c)
	if ctx == nil {
		return nil, fmt.Errorf("codec: allocate AAC context failed")
	}
	layout := astiav.ChannelLayoutMono
	if channels == 2 {
		layout = astiav.ChannelLayoutStereo
	}
	ctx.SetChannelLayout(layout)
	ctx.SetSampleRate(sampleRate)
	ctx.SetSampleFormat(astiav.SampleFormatFltp)
	ctx.SetBitRate(bitRate)
	ctx.SetTimeBase(astiav.NewRational(1, sampleRate))
	ctx.SetStrictStdCompliance(astiav.StrictStdComplianceExperimental)

	if err := ctx.Open(c, nil); err != nil {
		ctx.Free()
		return nil, fmt.Errorf("codec: open AAC-LC encoder: %w", err)
	}

	frame := astiav.AllocFrame()
	frame.SetSampleFormat(astiav.SampleFormatFltp)
	frame.SetChannelLayout(layout)
	frame.SetSampleRate(sampleRate)
	frame.SetNbSamples(1024)
	if err := frame.AllocBuffer(0); err != nil {
		ctx.Free()
		frame.Free()
		return nil, fmt.Errorf("codec: allocate AAC frame buffer: %w", err)
	}

	return &AACEncoder{ctx: ctx, frame: frame, pkt: astiav.AllocPacket(), sr: sampleRate, stereo: channels == 2}, nil
}

// EncodeFrame feeds exactly one 1024-sample frame, given as planar channel
// buffers (planar[0] = L, planar[1] = R when stereo), and returns zero or
// more encoded payloads.
func (a *AACEncoder) EncodeFrame(planar [][]float32) ([][]byte, error) {
	for ch, plane := range planar {
		if err := a.frame.SetFloat32Plane(ch, plane); err != nil {
			return nil, fmt.Errorf("codec: set AAC plane %d: %w", ch, err)
		}
	}

	if err := sendEagainOK(a.ctx.SendFrame(a.frame)); err != nil {
		return nil, fmt.Errorf("codec: send AAC frame: %w", err)
	}

	var out [][]byte
	err := drainPackets(a.ctx, a.pkt, func(p *astiav.Packet) error {
		data := p.Data()
		cp := make([]byte, len(data))
		copy(cp, data)
		out = append(out, cp)
		return nil
	})
	return out, err
}

// Flush sends the end-of-stream signal and drains remaining packets
// (spec §4.3 "send the end-of-stream signal to the codec to drain
// internal frames").
func (a *AACEncoder) Flush() ([][]byte, error) {
	if err := sendEagainOK(a.ctx.SendFrame(nil)); err != nil {
		return nil, err
	}
	var out [][]byte
	err := drainPackets(a.ctx, a.pkt, func(p *astiav.Packet) error {
		data := p.Data()
		cp := make([]byte, len(data))
		copy(cp, data)
		out = append(out, cp)
		return nil
	})
	return out, err
}

func (a *AACEncoder) Close() error {
	a.frame.Free()
	a.pkt.Free()
	a.ctx.Free()
	return nil
}

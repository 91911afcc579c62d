package codec

import (
	"fmt"

	"github.com/asticode/go-astiav"

	vframe "github.com/big21ray/ionia/internal/video/frame"
)

// VideoOptions configures an H.264 backend (spec §4.6).
type VideoOptions struct {
	Width, Height int
	FPS           int
	BitRate       int64
	GOPSize       int // default 2*fps
}

// H264Encoder wraps an astiav H.264 encoder context plus the BGRA->YUV420P
// software scaler. It satisfies internal/video/encoder.Backend.
type H264Encoder struct {
	name string
	ctx  *astiav.CodecContext
	sws  *astiav.SoftwareScaleContext
	src  *astiav.Frame // reusable BGRA source frame, refilled each Encode call
	yuv  *astiav.Frame
	pkt  *astiav.Packet
	pts  int64

	srcW, srcH int
}

// NewSoftwareH264 opens libx264 with the low-latency preset the spec
// mandates: veryfast, zerolatency, baseline profile, B-frames=0 (spec
// §4.6 step 2).
func NewSoftwareH264(opts VideoOptions) (*H264Encoder, error) {
	c := astiav.FindEncoderByName("libx264")
	if c == nil {
		return nil, fmt.Errorf("codec: software H.264 encoder (libx264) not available")
	}
	return newH264(c, "libx264", opts, true)
}

// NewHardwareH264 opens a named hardware H.264 encoder (e.g. h264_nvenc,
// h264_qsv, h264_videotoolbox), configured for low-latency constant
// bitrate (spec §4.6 step 1).
func NewHardwareH264(name string, opts VideoOptions) (*H264Encoder, error) {
	c := astiav.FindEncoderByName(name)
	if c == nil {
		return nil, fmt.Errorf("codec: hardware H.264 encoder %q not available", name)
	}
	return newH264(c, name, opts, false)
}

func newH264(c *astiav.Codec, name string, opts VideoOptions, lowLatencyPreset bool) (*H264Encoder, error) {
	if opts.GOPSize <= 0 {
		opts.GOPSize = 2 * opts.FPS
	}

	ctx := astiav.AllocCodecContext(c)
	if ctx == nil {
		return nil, fmt.Errorf("codec: allocate H.264 context for %q failed", name)
	}
	ctx.SetWidth(opts.Width)
	ctx.SetHeight(opts.Height)
	ctx.SetPixelFormat(astiav.PixelFormatYuv420P)
	ctx.SetTimeBase(astiav.NewRational(1, opts.FPS))
	ctx.SetFramerate(astiav.NewRational(opts.FPS, 1))
	ctx.SetGopSize(opts.GOPSize)
	ctx.SetMaxBFrames(0)
	if opts.BitRate > 0 {
		ctx.SetBitRate(opts.BitRate)
	}

	dict := astiav.NewDictionary()
	defer dict.Free()
	if lowLatencyPreset {
		dict.Set("preset", "veryfast", 0)
		dict.Set("tune", "zerolatency", 0)
		dict.Set("profile", "baseline", 0)
	} else {
		dict.Set("rc", "cbr", 0)
		dict.Set("preset", "ll", 0)
	}

	if err := ctx.Open(c, dict); err != nil {
		ctx.Free()
		return nil, fmt.Errorf("codec: open H.264 encoder %q: %w", name, err)
	}

	yuv := astiav.AllocFrame()
	yuv.SetWidth(opts.Width)
	yuv.SetHeight(opts.Height)
	yuv.SetPixelFormat(astiav.PixelFormatYuv420P)
	if err := yuv.AllocBuffer(1); err != nil {
		ctx.Free()
		yuv.Free()
		return nil, fmt.Errorf("codec: allocate YUV frame buffer: %w", err)
	}

	return &H264Encoder{
		name: name,
		ctx:  ctx,
		yuv:  yuv,
		pkt:  astiav.AllocPacket(),
		srcW: opts.Width,
		srcH: opts.Height,
	}, nil
}

// ensureScaler (re)creates the BGRA->YUV420P scaler and its source frame if
// the source dimensions changed, using a standard bilinear rescaler (spec
// §4.6).
func (h *H264Encoder) ensureScaler(w, hgt int) error {
	if h.sws != nil && w == h.srcW && hgt == h.srcH {
		return nil
	}
	if h.sws != nil {
		h.sws.Free()
	}
	if h.src != nil {
		h.src.Free()
	}
	sws, err := astiav.CreateSoftwareScaleContext(
		w, hgt, astiav.PixelFormatBgra,
		w, hgt, astiav.PixelFormatYuv420P,
		astiav.NewSoftwareScaleContextFlags(astiav.SoftwareScaleContextFlagBilinear),
	)
	if err != nil {
		return fmt.Errorf("codec: create scaler: %w", err)
	}
	src := astiav.AllocFrame()
	src.SetWidth(w)
	src.SetHeight(hgt)
	src.SetPixelFormat(astiav.PixelFormatBgra)
	if err := src.AllocBuffer(1); err != nil {
		sws.Free()
		src.Free()
		return fmt.Errorf("codec: allocate BGRA source frame: %w", err)
	}

	h.sws = sws
	h.src = src
	h.srcW, h.srcH = w, hgt
	return nil
}

// Encode converts bgra to YUV420P, pushes it to the encoder, and returns
// zero or more encoded NAL payloads (Annex-B from libx264; the stream
// muxer normalises to AVCC, see internal/mux/stream).
func (h *H264Encoder) Encode(bgra vframe.BGRA) ([]vframe.Encoded, error) {
	if len(bgra.Data) == 0 {
		return nil, nil
	}
	if err := h.ensureScaler(bgra.Width, bgra.Height); err != nil {
		return nil, err
	}
	if _, err := h.src.ImageCopyFromBuffer(bgra.Data, 1); err != nil {
		return nil, fmt.Errorf("codec: copy BGRA into source frame: %w", err)
	}
	if err := h.sws.ScaleFrame(h.src, h.yuv); err != nil {
		return nil, fmt.Errorf("codec: scale frame: %w", err)
	}
	h.yuv.SetPts(h.pts)
	h.pts++

	if err := sendEagainOK(h.ctx.SendFrame(h.yuv)); err != nil {
		return nil, fmt.Errorf("codec: send video frame: %w", err)
	}

	var out []vframe.Encoded
	err := drainPackets(h.ctx, h.pkt, func(p *astiav.Packet) error {
		data := p.Data()
		cp := make([]byte, len(data))
		copy(cp, data)
		out = append(out, vframe.Encoded{Payload: cp, IsKeyframe: p.Flags()&astiav.PacketFlagKey != 0})
		return nil
	})
	return out, err
}

// Flush sends the end-of-stream signal and drains remaining packets.
func (h *H264Encoder) Flush() ([]vframe.Encoded, error) {
	if err := sendEagainOK(h.ctx.SendFrame(nil)); err != nil {
		return nil, err
	}
	var out []vframe.Encoded
	err := drainPackets(h.ctx, h.pkt, func(p *astiav.Packet) error {
		data := p.Data()
		cp := make([]byte, len(data))
		copy(cp, data)
		out = append(out, vframe.Encoded{Payload: cp, IsKeyframe: p.Flags()&astiav.PacketFlagKey != 0})
		return nil
	})
	return out, err
}

// Extradata returns the encoder's avcC-ready SPS/PPS blob if the codec
// populated it at open time, or nil. The stream muxer does not use it: it
// always defers header emission until the first keyframe (spec §4.8).
func (h *H264Encoder) Extradata() []byte {
	return h.ctx.ExtraData()
}

func (h *H264Encoder) Name() string { return h.name }

func (h *H264Encoder) Close() error {
	if h.sws != nil {
		h.sws.Free()
	}
	if h.src != nil {
		h.src.Free()
	}
	h.yuv.Free()
	h.pkt.Free()
	h.ctx.Free()
	return nil
}

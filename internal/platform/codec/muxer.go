package codec

import (
	"fmt"

	"github.com/asticode/go-astiav"
)

// StreamParams describes one elementary stream to add to a container before
// WriteHeader (spec §4.7/§4.8: both the mp4 file muxer and the FLV stream
// muxer need exactly a video stream and an audio stream).
type StreamParams struct {
	Video      bool // true for H.264, false for AAC
	Width      int
	Height     int
	FPS        int
	SampleRate int
	Channels   int
	Extradata  []byte
}

// Container wraps an astiav output FormatContext, the common plumbing that
// both C7 (mp4 file) and C8 (FLV stream) build on: alloc, add streams,
// write header once, write interleaved packets, write trailer, free.
type Container struct {
	fc      *astiav.FormatContext
	io      *astiav.IOContext
	streams []*astiav.Stream
	headerWritten bool
	ownsIO  bool
	format  string
}

// NewFileContainer opens an mp4 (or flv) output context backed by a real
// file path (spec §4.7 "Created" state).
func NewFileContainer(format, path string) (*Container, error) {
	fc, err := astiav.AllocOutputFormatContext(nil, format, path)
	if err != nil || fc == nil {
		return nil, fmt.Errorf("codec: alloc output context for %q: %w", format, err)
	}
	ioFlags := astiav.NewIOContextFlags(astiav.IOContextFlagWrite)
	pb, err := astiav.OpenIOContext(path, ioFlags, nil, nil)
	if err != nil {
		fc.Free()
		return nil, fmt.Errorf("codec: open IO context for %q: %w", path, err)
	}
	fc.SetPb(pb)
	return &Container{fc: fc, io: pb, ownsIO: true, format: format}, nil
}

// AddStream registers one elementary stream and returns its index in the
// output container.
func (c *Container) AddStream(p StreamParams) (int, error) {
	s := c.fc.NewStream(nil)
	if s == nil {
		return 0, fmt.Errorf("codec: new stream failed")
	}
	par := s.CodecParameters()
	if p.Video {
		par.SetMediaType(astiav.MediaTypeVideo)
		par.SetCodecID(astiav.CodecIDH264)
		par.SetWidth(p.Width)
		par.SetHeight(p.Height)
		s.SetTimeBase(astiav.NewRational(1, p.FPS))
	} else {
		par.SetMediaType(astiav.MediaTypeAudio)
		par.SetCodecID(astiav.CodecIDAac)
		par.SetChannelLayout(channelLayoutFor(p.Channels))
		par.SetSampleRate(p.SampleRate)
		s.SetTimeBase(astiav.NewRational(1, p.SampleRate))
	}
	if len(p.Extradata) > 0 {
		par.SetExtraData(p.Extradata)
	}
	c.streams = append(c.streams, s)
	return s.Index(), nil
}

func channelLayoutFor(channels int) astiav.ChannelLayout {
	if channels == 1 {
		return astiav.ChannelLayoutMono
	}
	return astiav.ChannelLayoutStereo
}

// WriteHeader writes the container header; calls after the first are
// no-ops. WritePacket does not call it: a caller that defers the header
// until the first keyframe (spec §4.8) calls it itself before writing. mp4
// output additionally requests movflags=faststart (spec §6 "MP4 with
// faststart") so the moov atom is relocated to the front of the file,
// letting players start before the trailer is fully written.
func (c *Container) WriteHeader() error {
	if c.headerWritten {
		return nil
	}
	var dict *astiav.Dictionary
	if c.format == "mp4" {
		dict = astiav.NewDictionary()
		defer dict.Free()
		if err := dict.Set("movflags", "faststart", 0); err != nil {
			return fmt.Errorf("codec: set movflags: %w", err)
		}
	}
	if err := c.fc.WriteHeader(dict); err != nil {
		return fmt.Errorf("codec: write header: %w", err)
	}
	c.headerWritten = true
	return nil
}

// HeaderWritten reports whether WriteHeader has already run.
func (c *Container) HeaderWritten() bool { return c.headerWritten }

// WritePacket writes one interleaved packet to the given stream index with
// explicit PTS/DTS already expressed in that stream's timebase.
func (c *Container) WritePacket(streamIndex int, data []byte, pts, dts int64, keyframe bool) error {
	pkt := astiav.AllocPacket()
	defer pkt.Free()
	if err := pkt.FromData(data); err != nil {
		return fmt.Errorf("codec: load packet data: %w", err)
	}
	pkt.SetStreamIndex(streamIndex)
	pkt.SetPts(pts)
	pkt.SetDts(dts)
	if keyframe {
		pkt.SetFlags(pkt.Flags() | astiav.PacketFlagKey)
	}
	if err := c.fc.WriteInterleavedFrame(pkt); err != nil {
		return fmt.Errorf("codec: write interleaved frame: %w", err)
	}
	return nil
}

// WriteTrailer finalises the container (spec §4.7 "Finalizing" state).
func (c *Container) WriteTrailer() error {
	if !c.headerWritten {
		return nil
	}
	if err := c.fc.WriteTrailer(); err != nil {
		return fmt.Errorf("codec: write trailer: %w", err)
	}
	return nil
}

// Close releases the IO context (when owned) and the format context.
func (c *Container) Close() error {
	if c.ownsIO && c.io != nil {
		_ = c.io.Close()
		c.io.Free()
	}
	c.fc.Free()
	return nil
}

// Package file implements C7: the local MP4 file muxer. Unlike the live
// FLV muxer it writes its header eagerly, using the extradata the codecs
// already expose at open time, and is the timestamp authority for both
// streams: every packet's DTS must be monotonically increasing per stream
// or it is rejected outright rather than silently reordered (spec §4.7).
package file

import (
	"fmt"
	"sync"

	"github.com/big21ray/ionia/internal/audio/pcm"
	"github.com/big21ray/ionia/internal/platform/codec"
	"github.com/big21ray/ionia/internal/video/frame"
)

// Container is the narrow contract onto the codec package's output
// context, satisfied by *codec.Container.
type Container interface {
	AddStream(codec.StreamParams) (int, error)
	WriteHeader() error
	WritePacket(streamIndex int, data []byte, pts, dts int64, keyframe bool) error
	WriteTrailer() error
	Close() error
}

// Options configures the streams the muxer must add before the header is
// written.
type Options struct {
	Width, Height, FPS   int
	VideoExtradata       []byte
	SampleRate, Channels int
	AudioExtradata       []byte
}

// Muxer writes H.264 packets, as the encoder produced them (no Annex-B to
// AVCC conversion is done here), and raw AAC into an MP4 container.
type Muxer struct {
	mu sync.Mutex

	c Container

	videoStreamIdx int
	audioStreamIdx int

	audioSampleCount int64

	videoPacketCount int64
	audioPacketCount int64

	videoLastDTS int64
	audioLastDTS int64
	haveVideoDTS bool
	haveAudioDTS bool

	fps, sampleRate int
	finalized       bool
}

// New opens the container, adds both streams, and writes the header
// immediately (the file muxer, unlike the stream muxer, does not need to
// wait for a keyframe because the codecs' extradata is already known).
func New(c Container, opts Options) (*Muxer, error) {
	vIdx, err := c.AddStream(codec.StreamParams{
		Video: true, Width: opts.Width, Height: opts.Height, FPS: opts.FPS, Extradata: opts.VideoExtradata,
	})
	if err != nil {
		return nil, fmt.Errorf("file: add video stream: %w", err)
	}
	aIdx, err := c.AddStream(codec.StreamParams{
		Video: false, SampleRate: opts.SampleRate, Channels: opts.Channels, Extradata: opts.AudioExtradata,
	})
	if err != nil {
		return nil, fmt.Errorf("file: add audio stream: %w", err)
	}
	if err := c.WriteHeader(); err != nil {
		return nil, fmt.Errorf("file: write header: %w", err)
	}
	return &Muxer{c: c, videoStreamIdx: vIdx, audioStreamIdx: aIdx, fps: opts.FPS, sampleRate: opts.SampleRate}, nil
}

// WriteVideoPacket implements internal/video/engine.MuxWriter. frameIndex is
// the CFR frame number the video engine assigned; it is rescaled to the
// stream's 1/fps timebase, which for this muxer is just frameIndex itself.
func (m *Muxer) WriteVideoPacket(pkt frame.Encoded, frameIndex int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.haveVideoDTS && frameIndex <= m.videoLastDTS {
		return fmt.Errorf("file: non-monotonic video DTS: %d after %d", frameIndex, m.videoLastDTS)
	}
	m.videoLastDTS = frameIndex
	m.haveVideoDTS = true

	if err := m.c.WritePacket(m.videoStreamIdx, pkt.Payload, frameIndex, frameIndex, pkt.IsKeyframe); err != nil {
		return err
	}
	m.videoPacketCount++
	return nil
}

// WriteAudioPacket writes one encoded AAC frame, whose PTS/DTS in the
// audio stream's 1/sampleRate timebase is the running sample count before
// this frame (spec §4.7 "the number of samples already written is the
// packet's timestamp authority").
func (m *Muxer) WriteAudioPacket(pkt pcm.EncodedAudioPacket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pts := m.audioSampleCount
	if m.haveAudioDTS && pts <= m.audioLastDTS {
		return fmt.Errorf("file: non-monotonic audio DTS: %d after %d", pts, m.audioLastDTS)
	}
	m.audioLastDTS = pts
	m.haveAudioDTS = true
	m.audioSampleCount += pkt.NumSamples

	if err := m.c.WritePacket(m.audioStreamIdx, pkt.Payload, pts, pts, true); err != nil {
		return err
	}
	m.audioPacketCount++
	return nil
}

// Finalize writes the trailer and closes the container. Safe to call once;
// subsequent calls are no-ops.
func (m *Muxer) Finalize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finalized {
		return nil
	}
	m.finalized = true
	if err := m.c.WriteTrailer(); err != nil {
		return fmt.Errorf("file: write trailer: %w", err)
	}
	return m.c.Close()
}

// AudioSampleCount returns the running count of audio samples written.
func (m *Muxer) AudioSampleCount() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.audioSampleCount
}

// PacketCounts returns the running count of video and audio packets
// written, for the scripting surface's get_statistics() (spec §6
// video_packets/audio_packets).
func (m *Muxer) PacketCounts() (video, audio int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.videoPacketCount, m.audioPacketCount
}

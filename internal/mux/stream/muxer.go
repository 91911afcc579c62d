// Package stream implements C8: the live FLV-over-RTMP muxer. Unlike the
// file muxer (C7) it cannot write a header until it actually has codec
// configuration data (SPS/PPS, AudioSpecificConfig), so the header waits
// for the first video keyframe. Non-keyframe video arriving before that is
// dropped; audio arriving before that is buffered and written once the
// header exists (spec §4.8).
package stream

import (
	"fmt"
	"sync"

	"github.com/big21ray/ionia/internal/audio/pcm"
	"github.com/big21ray/ionia/internal/mux/timebase"
	"github.com/big21ray/ionia/internal/platform/codec"
	"github.com/big21ray/ionia/internal/video/frame"
)

// Container is the narrow contract onto the codec package's output context,
// satisfied by *codec.Container.
type Container interface {
	AddStream(codec.StreamParams) (int, error)
	WriteHeader() error
	WritePacket(streamIndex int, data []byte, pts, dts int64, keyframe bool) error
	WriteTrailer() error
	Close() error
}

// Muxer writes H.264 (AVCC) and AAC (ADTS-free, raw with ASC side data)
// packets into a live FLV container, gating on the first keyframe.
type Muxer struct {
	mu sync.Mutex

	c Container

	width, height, fps   int
	sampleRate, channels int

	videoStreamIdx int
	audioStreamIdx int

	gateOpen    bool
	videoLastDTS int64
	audioLastDTS int64
	haveVideoDTS bool
	haveAudioDTS bool

	videoFrames int64 // for timebase rescale to FLV millisecond timestamps

	videoPacketCount int64
	audioPacketCount int64

	pendingAudio []pendingAudioPacket // buffered until the gate opens; never dropped
}

// pendingAudioPacket holds an audio packet that arrived before the first
// keyframe, for replay once the deferred header is written.
type pendingAudioPacket struct {
	pkt         pcm.EncodedAudioPacket
	sampleIndex int64
}

// NewMuxer returns a Muxer writing into c (an already-opened FLV
// container); no stream is added and no header is written until the first
// keyframe.
func NewMuxer(c Container, width, height, fps, sampleRate, channels int) *Muxer {
	return &Muxer{c: c, width: width, height: height, fps: fps, sampleRate: sampleRate, channels: channels}
}

// WriteVideoPacket implements internal/video/engine.MuxWriter. The first
// keyframe seen opens the gate: it is parsed for SPS/PPS to build the avcC
// record, the audio ASC is derived from the configured sample rate/channel
// count, and the header is written before this (or any buffered) packet is
// emitted (spec §4.8 "defer muxer initialisation until the encoder produces
// its first keyframe").
func (m *Muxer) WriteVideoPacket(pkt frame.Encoded, frameIndex int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	nals := annexBToAVCC(pkt.Payload)
	if len(nals) == 0 {
		return nil
	}
	for _, n := range nals {
		if err := validateNoAnnexBInside(n); err != nil {
			return fmt.Errorf("stream: %w", err)
		}
	}

	if !m.gateOpen {
		if !pkt.IsKeyframe {
			return nil // drop everything before the first keyframe
		}
		sps, pps, ok := extractSPSPPS(nals)
		if !ok {
			return ErrNoSPSPPS
		}
		avcC, err := buildAVCDecoderConfigurationRecord(sps, pps)
		if err != nil {
			return fmt.Errorf("stream: build avcC: %w", err)
		}
		if err := m.openGate(avcC); err != nil {
			return err
		}
	}

	payload := lengthPrefixNALs(nals)
	dts := timebase.Rescale(frameIndex, timebase.Rational{Num: 1, Den: int64(m.fps)}, timebase.Rational{Num: 1, Den: 1000})
	if m.haveVideoDTS && dts <= m.videoLastDTS {
		dts = m.videoLastDTS + 1
	}
	m.videoLastDTS = dts
	m.haveVideoDTS = true

	if err := m.c.WritePacket(m.videoStreamIdx, payload, dts, dts, pkt.IsKeyframe); err != nil {
		return err
	}
	m.videoPacketCount++
	return nil
}

// WriteAudioPacket writes one AAC frame's worth of samples, gated behind
// the same keyframe barrier as video. Unlike video, audio arriving before
// the gate opens is never dropped: it is held in pendingAudio and flushed,
// in arrival order with strictly increasing DTS, the moment the deferred
// header is written (spec §4.8 "audio packets arriving before the header
// are NOT dropped").
func (m *Muxer) WriteAudioPacket(pkt pcm.EncodedAudioPacket, sampleIndex int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.gateOpen {
		m.pendingAudio = append(m.pendingAudio, pendingAudioPacket{pkt: pkt, sampleIndex: sampleIndex})
		return nil
	}
	return m.writeAudioLocked(pkt, sampleIndex)
}

// writeAudioLocked performs the actual timestamped write; callers must hold m.mu.
func (m *Muxer) writeAudioLocked(pkt pcm.EncodedAudioPacket, sampleIndex int64) error {
	dts := timebase.Rescale(sampleIndex, timebase.Rational{Num: 1, Den: int64(m.sampleRate)}, timebase.Rational{Num: 1, Den: 1000})
	if m.haveAudioDTS && dts <= m.audioLastDTS {
		dts = m.audioLastDTS + 1
	}
	m.audioLastDTS = dts
	m.haveAudioDTS = true

	if err := m.c.WritePacket(m.audioStreamIdx, pkt.Payload, dts, dts, true); err != nil {
		return err
	}
	m.audioPacketCount++
	return nil
}

func (m *Muxer) openGate(avcC []byte) error {
	vIdx, err := m.c.AddStream(codec.StreamParams{Video: true, Width: m.width, Height: m.height, FPS: m.fps, Extradata: avcC})
	if err != nil {
		return fmt.Errorf("stream: add video stream: %w", err)
	}
	asc, err := BuildAudioSpecificConfig(m.sampleRate, m.channels)
	if err != nil {
		return fmt.Errorf("stream: build ASC: %w", err)
	}
	aIdx, err := m.c.AddStream(codec.StreamParams{Video: false, SampleRate: m.sampleRate, Channels: m.channels, Extradata: asc})
	if err != nil {
		return fmt.Errorf("stream: add audio stream: %w", err)
	}
	if err := m.c.WriteHeader(); err != nil {
		return fmt.Errorf("stream: write header: %w", err)
	}
	m.videoStreamIdx = vIdx
	m.audioStreamIdx = aIdx
	m.gateOpen = true

	pending := m.pendingAudio
	m.pendingAudio = nil
	for _, p := range pending {
		if err := m.writeAudioLocked(p.pkt, p.sampleIndex); err != nil {
			return fmt.Errorf("stream: flush buffered audio: %w", err)
		}
	}
	return nil
}

// Close finalises the trailer (if the gate ever opened) and releases the
// container.
func (m *Muxer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gateOpen {
		if err := m.c.WriteTrailer(); err != nil {
			return err
		}
	}
	return m.c.Close()
}

// GateOpen reports whether the header has been written yet.
func (m *Muxer) GateOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gateOpen
}

// PacketCounts returns the running count of video and audio packets
// actually written to the container, for the scripting surface's
// get_statistics() (spec §6 video_packets/audio_packets).
func (m *Muxer) PacketCounts() (video, audio int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.videoPacketCount, m.audioPacketCount
}

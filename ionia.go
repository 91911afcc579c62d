// Package ionia is the public API facade (spec §6): Initialise, Start,
// Stop, IsRunning, GetStatistics, InjectFrame, SetDebugLogging and
// CheckApartmentMode wire every internal component into one running
// capture -> normalise -> encode -> mux pipeline.
package ionia

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/big21ray/ionia/internal/audio/aacenc"
	"github.com/big21ray/ionia/internal/audio/engine"
	"github.com/big21ray/ionia/internal/audio/format"
	"github.com/big21ray/ionia/internal/audio/normalize"
	"github.com/big21ray/ionia/internal/audio/pcm"
	"github.com/big21ray/ionia/internal/diag"
	"github.com/big21ray/ionia/internal/mux/file"
	"github.com/big21ray/ionia/internal/mux/stream"
	"github.com/big21ray/ionia/internal/pipeline"
	"github.com/big21ray/ionia/internal/platform/apartment"
	"github.com/big21ray/ionia/internal/platform/audiocapture"
	"github.com/big21ray/ionia/internal/platform/codec"
	"github.com/big21ray/ionia/internal/platform/videocapture"
	"github.com/big21ray/ionia/internal/stream/buffer"
	vencoder "github.com/big21ray/ionia/internal/video/encoder"
	vengine "github.com/big21ray/ionia/internal/video/engine"
	vframe "github.com/big21ray/ionia/internal/video/frame"
	"github.com/big21ray/ionia/internal/video/ring"
)

// Device describes one audio input device available for capture.
type Device struct {
	ID   int
	Name string
}

// SelfTestAudioCodecPath generates a synthetic 440 Hz tone and round-trips
// it through Opus, independent of the real AAC/H.264 capture path. A
// successful round trip confirms the native codec library linked and loaded
// correctly on this platform before attempting a real capture session.
func SelfTestAudioCodecPath() error {
	tone := diag.GenerateTone(960)
	if _, err := diag.RoundTripOpus(tone); err != nil {
		return fmt.Errorf("ionia: audio codec self-test: %w", err)
	}
	return nil
}

// ListAudioInputDevices enumerates available audio capture devices (spec
// §6), usable before constructing a Config to pick DesktopAudioDeviceID or
// MicDeviceID.
func ListAudioInputDevices() ([]Device, error) {
	devices, err := audiocapture.ListInputDevices()
	if err != nil {
		return nil, err
	}
	out := make([]Device, len(devices))
	for i, d := range devices {
		out[i] = Device{ID: d.ID, Name: d.Name}
	}
	return out, nil
}

// Stats is the public statistics snapshot returned by GetStatistics,
// covering every field of the scripting surface's get_statistics() (spec
// §6): video_frames, video_packets, audio_packets, audio_frames_received,
// audio_frames_encoded, dropped_video, dropped_audio, backpressure.
type Stats struct {
	State            string
	AudioFramesSent  int64
	VideoFrameNumber int64
	FramesDuplicated uint64

	VideoPackets        int64
	AudioPackets        int64
	AudioFramesReceived int64
	AudioFramesEncoded  int64

	AudioSamplesNormalizeDiscarded uint64
	DroppedVideo                   uint64
	DroppedAudio                   uint64
	Backpressure                   bool
}

// audioSink adapts one audiocapture.Capture device (desktop or mic) into
// the audio engine's ring buffer via the normaliser.
type audioSink struct {
	norm   *normalize.Normalizer
	eng    *engine.Engine
	source engine.Source
}

func (a *audioSink) Push(data []byte, frameCount int, f format.Format) {
	uf := a.norm.Normalize(data, frameCount, f)
	if uf.Valid() {
		a.eng.Feed(a.source, uf.Samples)
	}
}

// videoSink adapts the capture source into the video ring.
type videoSink struct{ r *ring.Ring }

func (v videoSink) Push(f vframe.BGRA) error { return v.r.Push(f) }

// queuedVideoSink implements vengine.MuxWriter by pushing encoded packets
// into the C9 backpressure queue instead of writing straight into the
// muxer; a Sender drains the queue on its own real-time-paced schedule
// (spec §4.9), decoupling the video engine's tick cadence from network
// write timing.
type queuedVideoSink struct {
	q   *buffer.Queue
	fps int
}

func (s *queuedVideoSink) WriteVideoPacket(pkt vframe.Encoded, frameIndex int64) error {
	dtsUS := frameIndex * 1_000_000 / int64(s.fps)
	s.q.Push(buffer.Packet{
		Kind: buffer.KindVideo, DTSMicros: dtsUS,
		Payload: pkt.Payload, IsKeyframe: pkt.IsKeyframe, Index: frameIndex,
	})
	return nil
}

// Pipeline is a fully wired capture-to-mux pipeline (one per Config).
type Pipeline struct {
	cfg Config

	audioEngine *engine.Engine
	aacAcc      *aacenc.Accumulator
	audioCodec  *codec.AACEncoder
	desktopNorm *normalize.Normalizer
	micNorm     *normalize.Normalizer

	videoRing   *ring.Ring
	videoEngine *vengine.Engine
	videoCodec  vencoder.Backend

	desktopCapture *audiocapture.Capture
	micCapture     *audiocapture.Capture
	videoSource    *videocapture.SoftwareSource

	container *codec.Container
	fileMux   *file.Muxer
	streamMux *stream.Muxer

	rawFile   *os.File
	rawWriter *stream.RawAACWriter

	queue      *buffer.Queue
	sender     *buffer.Sender
	senderStop context.CancelFunc
	senderDone chan struct{}

	pipe *pipeline.Pipeline

	probe apartment.Probe

	audioSamplesOut atomic.Int64
}

// New builds every component described by cfg but does not start capture.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	diag.SetDebug(cfg.DebugLogging)

	p := &Pipeline{cfg: cfg, probe: apartment.New()}

	if err := p.buildAudio(); err != nil {
		return nil, err
	}
	if err := p.buildVideo(); err != nil {
		return nil, err
	}
	if err := p.buildMuxer(); err != nil {
		return nil, err
	}
	p.buildPipeline()
	return p, nil
}

func (p *Pipeline) buildAudio() error {
	p.audioEngine = engine.New()

	ac, err := codec.NewAACLC(p.cfg.SampleRate, p.cfg.Channels, p.cfg.AudioBitRate)
	if err != nil {
		return fmt.Errorf("ionia: open AAC encoder: %w", err)
	}
	p.audioCodec = ac
	p.aacAcc = aacenc.New(ac)

	p.desktopNorm = normalize.New()
	desktopSink := &audioSink{norm: p.desktopNorm, eng: p.audioEngine, source: engine.SourceDesktop}
	desktopCap, err := audiocapture.NewCapture(p.cfg.DesktopAudioDeviceID, 960, desktopSink)
	if err != nil {
		return fmt.Errorf("ionia: open desktop audio capture: %w", err)
	}
	p.desktopCapture = desktopCap

	p.micNorm = normalize.New()
	micSink := &audioSink{norm: p.micNorm, eng: p.audioEngine, source: engine.SourceMic}
	micCap, err := audiocapture.NewCapture(p.cfg.MicDeviceID, 960, micSink)
	if err != nil {
		return fmt.Errorf("ionia: open mic audio capture: %w", err)
	}
	p.micCapture = micCap
	p.audioEngine.SetMicGain(p.cfg.MicGain)
	return nil
}

func (p *Pipeline) buildVideo() error {
	if p.cfg.Output == OutputRawAAC {
		return nil // spec §6 "raw-aac": audio-only output, no video path at all
	}
	p.videoRing = ring.New(ring.DefaultCapacity)

	opts := codec.VideoOptions{Width: p.cfg.Width, Height: p.cfg.Height, FPS: p.cfg.FPS, BitRate: p.cfg.VideoBitRate}

	var candidates []vencoder.Candidate
	if p.cfg.PreferHardwareH264 {
		if hw, err := codec.NewHardwareH264("h264_nvenc", opts); err == nil {
			candidates = append(candidates, vencoder.Candidate{Kind: vencoder.KindHardware, Backend: hw})
		}
	}
	sw, err := codec.NewSoftwareH264(opts)
	if err != nil {
		return fmt.Errorf("ionia: open software H.264 encoder: %w", err)
	}
	candidates = append(candidates, vencoder.Candidate{Kind: vencoder.KindSoftware, Backend: sw})

	backend, err := vencoder.Select(candidates, p.cfg.PreferHardwareH264, p.probe)
	if err != nil {
		return fmt.Errorf("ionia: select video encoder: %w", err)
	}
	p.videoCodec = backend

	p.videoSource = videocapture.NewSoftwareSource(p.cfg.Width, p.cfg.Height, p.cfg.FPS, videoSink{r: p.videoRing})
	return nil
}

func (p *Pipeline) buildMuxer() error {
	switch p.cfg.Output {
	case OutputFile:
		c, err := codec.NewFileContainer("mp4", p.cfg.FilePath)
		if err != nil {
			return fmt.Errorf("ionia: open mp4 container: %w", err)
		}
		p.container = c

		asc, err := stream.BuildAudioSpecificConfig(p.cfg.SampleRate, p.cfg.Channels)
		if err != nil {
			return fmt.Errorf("ionia: build ASC: %w", err)
		}
		mux, err := file.New(c, file.Options{
			Width: p.cfg.Width, Height: p.cfg.Height, FPS: p.cfg.FPS,
			VideoExtradata: p.videoCodec.Extradata(),
			SampleRate:     p.cfg.SampleRate, Channels: p.cfg.Channels,
			AudioExtradata: asc,
		})
		if err != nil {
			return fmt.Errorf("ionia: build file muxer: %w", err)
		}
		p.fileMux = mux
		p.videoEngine = vengine.New(p.cfg.FPS, p.videoRing, p.videoCodec, p.fileMux, p.cfg.Width, p.cfg.Height)

	case OutputRTMP:
		c, err := codec.NewFileContainer("flv", p.cfg.RTMPURL)
		if err != nil {
			return fmt.Errorf("ionia: open flv container: %w", err)
		}
		p.container = c
		p.streamMux = stream.NewMuxer(c, p.cfg.Width, p.cfg.Height, p.cfg.FPS, p.cfg.SampleRate, p.cfg.Channels)

		p.queue = buffer.New(buffer.Options{MaxSize: p.cfg.MaxQueueSize, MaxLatencyMS: p.cfg.MaxQueueLatencyMS})
		p.sender = buffer.NewSender(p.queue, stream.PacedTransport{Muxer: p.streamMux})

		p.videoEngine = vengine.New(p.cfg.FPS, p.videoRing, p.videoCodec, &queuedVideoSink{q: p.queue, fps: p.cfg.FPS}, p.cfg.Width, p.cfg.Height)

	case OutputRawAAC:
		f, err := os.Create(p.cfg.FilePath)
		if err != nil {
			return fmt.Errorf("ionia: create raw-aac output file: %w", err)
		}
		p.rawFile = f
		p.rawWriter = stream.NewRawAACWriter(f, p.cfg.SampleRate, p.cfg.Channels)
	}
	return nil
}

func (p *Pipeline) buildPipeline() {
	tickVideo := func() error { return nil } // raw-aac: no video engine to drive
	if p.videoEngine != nil {
		tickVideo = p.videoEngine.Tick
	}
	cfg := pipeline.Config{
		TickAudio: p.tickAudio,
		TickVideo: tickVideo,
		Finalize:  p.finalize,
		Stats:     p.stats,
	}
	p.pipe = pipeline.New(cfg)
}

func (p *Pipeline) tickAudio() error {
	pkt, ok := p.audioEngine.Tick()
	if !ok {
		return nil
	}
	encoded, err := p.aacAcc.Push(pkt)
	if err != nil {
		return err
	}
	for _, e := range encoded {
		if err := p.writeAudio(e); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) writeAudio(e pcm.EncodedAudioPacket) error {
	idx := p.audioSamplesOut.Load()
	p.audioSamplesOut.Add(e.NumSamples)
	switch {
	case p.fileMux != nil:
		return p.fileMux.WriteAudioPacket(e)
	case p.rawWriter != nil:
		return p.rawWriter.WriteAudioPacket(e)
	default:
		dtsUS := idx * 1_000_000 / int64(p.cfg.SampleRate)
		p.queue.Push(buffer.Packet{Kind: buffer.KindAudio, DTSMicros: dtsUS, Payload: e.Payload, Index: idx})
		return nil
	}
}

func (p *Pipeline) finalize() error {
	if encoded, err := p.aacAcc.Flush(); err == nil {
		for _, e := range encoded {
			idx := p.audioSamplesOut.Load()
			p.audioSamplesOut.Add(e.NumSamples)
			switch {
			case p.fileMux != nil:
				_ = p.fileMux.WriteAudioPacket(e)
			case p.rawWriter != nil:
				_ = p.rawWriter.WriteAudioPacket(e)
			default:
				_ = p.streamMux.WriteAudioPacket(e, idx)
			}
		}
	}
	if p.videoCodec != nil {
		if packets, err := p.videoCodec.Flush(); err == nil {
			frameIdx := p.videoEngine.FrameNumber()
			for _, pkt := range packets {
				if p.fileMux != nil {
					_ = p.fileMux.WriteVideoPacket(pkt, frameIdx)
				} else {
					_ = p.streamMux.WriteVideoPacket(pkt, frameIdx)
				}
				frameIdx++
			}
		}
		_ = p.videoCodec.Close()
	}
	_ = p.audioCodec.Close()

	switch {
	case p.fileMux != nil:
		return p.fileMux.Finalize()
	case p.rawWriter != nil:
		return p.rawFile.Close()
	default:
		return p.streamMux.Close()
	}
}

func (p *Pipeline) stats() pipeline.Stats {
	s := pipeline.Stats{AudioFramesSent: p.audioEngine.FramesSent()}
	if p.videoEngine != nil {
		s.VideoFrameNumber = p.videoEngine.FrameNumber()
		s.FramesDuplicated = p.videoEngine.FramesDuplicated()
	}
	return s
}

func (p *Pipeline) normalizeDiscarded() uint64 {
	return p.desktopNorm.Discarded() + p.micNorm.Discarded()
}

// droppedByClass reports the running per-class drop counters from the C9
// queue (spec §4.9 "Counters: added, dropped (per class)"); both are zero
// for file and raw-aac output, which have no stream buffer.
func (p *Pipeline) droppedByClass() (video, audio uint64) {
	if p.queue == nil {
		return 0, 0
	}
	_, droppedVideo, droppedAudio := p.queue.StatsByClass()
	return droppedVideo, droppedAudio
}

// packetCounts reports the running video/audio packet counts actually
// written to whichever output is active (spec §6 video_packets/
// audio_packets).
func (p *Pipeline) packetCounts() (video, audio int64) {
	switch {
	case p.fileMux != nil:
		return p.fileMux.PacketCounts()
	case p.streamMux != nil:
		return p.streamMux.PacketCounts()
	case p.rawWriter != nil:
		return 0, p.rawWriter.PacketCount()
	default:
		return 0, 0
	}
}

// isBackpressure reports the C9 queue's is_backpressure() signal (spec §7);
// always false for file output, which has no stream buffer.
func (p *Pipeline) isBackpressure() bool {
	if p.queue == nil {
		return false
	}
	return p.queue.IsBackpressure()
}

// Initialise validates readiness and transitions Created -> Initialised.
func (p *Pipeline) Initialise() error {
	return p.pipe.Initialise()
}

// Start begins capture and the encode/mux tick loops.
func (p *Pipeline) Start() error {
	if err := p.desktopCapture.Start(); err != nil {
		return err
	}
	if err := p.micCapture.Start(); err != nil {
		return err
	}
	if p.videoSource != nil {
		if err := p.videoSource.Start(); err != nil {
			return err
		}
	}
	p.audioEngine.Start()
	if p.videoEngine != nil {
		p.videoEngine.Start()
	}

	if p.sender != nil {
		ctx, cancel := context.WithCancel(context.Background())
		p.senderStop = cancel
		p.senderDone = make(chan struct{})
		go func() {
			defer close(p.senderDone)
			p.sender.Run(ctx)
		}()
	}

	return p.pipe.Start()
}

// Stop halts capture, joins workers, flushes encoders and finalises the
// container. The network sender is stopped before Finalize runs so the
// flushed tail packets can be written directly without racing the sender.
func (p *Pipeline) Stop(ctx context.Context) error {
	p.desktopCapture.Stop()
	p.micCapture.Stop()
	if p.videoSource != nil {
		p.videoSource.Stop()
	}

	if p.senderStop != nil {
		p.senderStop()
		<-p.senderDone
	}

	return p.pipe.Stop(ctx)
}

// IsRunning reports whether the pipeline is in the Running state.
func (p *Pipeline) IsRunning() bool {
	return p.pipe.State() == pipeline.StateRunning
}

// GetStatistics returns a snapshot of the pipeline's running counters.
func (p *Pipeline) GetStatistics() Stats {
	s := p.pipe.GetStatistics()
	videoPackets, audioPackets := p.packetCounts()
	droppedVideo, droppedAudio := p.droppedByClass()
	return Stats{
		State:                          s.State,
		AudioFramesSent:                s.AudioFramesSent,
		VideoFrameNumber:               s.VideoFrameNumber,
		FramesDuplicated:               s.FramesDuplicated,
		VideoPackets:                   videoPackets,
		AudioPackets:                   audioPackets,
		AudioFramesReceived:            p.audioEngine.FramesSent(),
		AudioFramesEncoded:             p.aacAcc.FramesEncoded(),
		AudioSamplesNormalizeDiscarded: p.normalizeDiscarded(),
		DroppedVideo:                   droppedVideo,
		DroppedAudio:                   droppedAudio,
		Backpressure:                   p.isBackpressure(),
	}
}

// InjectFrame pushes a frame directly into the video ring, bypassing the
// capture source (used for programmatic/screen-share style injection).
// Unavailable in OutputRawAAC mode, which has no video path.
func (p *Pipeline) InjectFrame(f vframe.BGRA) error {
	if p.videoRing == nil {
		return fmt.Errorf("ionia: InjectFrame unavailable: no video path (OutputRawAAC)")
	}
	return p.videoRing.Push(f)
}

// SetDebugLogging toggles the package-level debug log flag at runtime.
func (p *Pipeline) SetDebugLogging(enabled bool) {
	diag.SetDebug(enabled)
}

// CheckApartmentMode reports whether the current thread is single-threaded
// apartment (Windows COM STA), used by callers deciding whether the
// platform-wrapper H.264 backend would even be eligible.
func (p *Pipeline) CheckApartmentMode() bool {
	return p.probe.IsSingleThreaded()
}

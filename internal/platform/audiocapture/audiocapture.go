// Package audiocapture is C11's portaudio adapter: it opens an input device
// stream and pushes raw float32 frames to a sink, the same device-resolve
// and stream-open pattern used project-wide for capture, generalised here to
// run twice concurrently — once for the desktop loopback device, once for
// the microphone (spec §4.11, §6).
package audiocapture

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"github.com/big21ray/ionia/internal/audio/format"
)

// paStream abstracts a PortAudio stream for testing, mirroring the
// project's existing testability seam for native audio streams.
type paStream interface {
	Start() error
	Stop() error
	Close() error
	Read() error
}

// Sink receives raw captured samples plus the device's native format; the
// normaliser (C1) converts them to canonical stereo 48kHz float32.
type Sink interface {
	Push(data []byte, frameCount int, f format.Format)
}

// Device describes a capture-capable audio device, mirroring the project's
// existing device-listing shape.
type Device struct {
	ID   int
	Name string
}

// ListInputDevices returns every device with at least one input channel.
func ListInputDevices() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("audiocapture: list devices: %w", err)
	}
	var out []Device
	for i, d := range devices {
		if d.MaxInputChannels > 0 {
			out = append(out, Device{ID: i, Name: d.Name})
		}
	}
	return out, nil
}

// Capture opens one input device and streams frames to a Sink until Stop.
type Capture struct {
	mu     sync.Mutex
	stream paStream
	buf    []float32
	format format.Format
	sink   Sink

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewCapture opens deviceID (or the platform default input if deviceID<0)
// at the given frame size, pushing every buffer to sink.
func NewCapture(deviceID int, frameSize int, sink Sink) (*Capture, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("audiocapture: list devices: %w", err)
	}
	dev, err := resolveDevice(devices, deviceID)
	if err != nil {
		return nil, err
	}

	buf := make([]float32, frameSize*dev.MaxInputChannels)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: dev.MaxInputChannels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      dev.DefaultSampleRate,
		FramesPerBuffer: frameSize,
	}
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, fmt.Errorf("audiocapture: open stream: %w", err)
	}

	f := format.Format{
		SampleRate: int(dev.DefaultSampleRate),
		Channels:   dev.MaxInputChannels,
		Encoding:   format.EncodingF32,
	}
	return &Capture{stream: stream, buf: buf, format: f, sink: sink}, nil
}

func resolveDevice(devices []*portaudio.DeviceInfo, idx int) (*portaudio.DeviceInfo, error) {
	if idx >= 0 && idx < len(devices) {
		return devices[idx], nil
	}
	return portaudio.DefaultInputDevice()
}

// Start opens the stream and begins the capture loop.
func (c *Capture) Start() error {
	if !c.running.CompareAndSwap(false, true) {
		return nil
	}
	if err := c.stream.Start(); err != nil {
		c.running.Store(false)
		return fmt.Errorf("audiocapture: start stream: %w", err)
	}
	c.stopCh = make(chan struct{})
	c.wg.Add(1)
	go c.captureLoop()
	return nil
}

func (c *Capture) captureLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.stopCh:
			return
		default:
		}
		if err := c.stream.Read(); err != nil {
			continue // transient device hiccup; keep the engine fed with whatever arrives next
		}
		c.mu.Lock()
		data := floatsToBytes(c.buf)
		f := c.format
		c.mu.Unlock()
		c.sink.Push(data, len(c.buf)/maxInt(f.Channels, 1), f)
	}
}

// Stop halts capture and closes the native stream. The stream is stopped
// before the goroutine is joined so the blocking Read call returns.
func (c *Capture) Stop() {
	if !c.running.CompareAndSwap(true, false) {
		return
	}
	close(c.stopCh)
	c.stream.Stop()
	c.wg.Wait()
	c.stream.Close()
}

func floatsToBytes(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		bits := math.Float32bits(s)
		out[i*4] = byte(bits)
		out[i*4+1] = byte(bits >> 8)
		out[i*4+2] = byte(bits >> 16)
		out[i*4+3] = byte(bits >> 24)
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

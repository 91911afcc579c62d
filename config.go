package ionia

import "fmt"

// OutputMode selects where the muxed stream goes (spec §1: "either a local
// MP4 file or an FLV-over-RTMP live stream").
type OutputMode int

const (
	OutputFile OutputMode = iota
	OutputRTMP
	// OutputRawAAC captures audio only (spec §6 output_kind "raw-aac") and
	// writes each encoded AAC-LC frame, ADTS-framed, straight to FilePath;
	// there is no video capture, no container, and no PTS/DTS authority.
	OutputRawAAC
)

// Config is the typed configuration the public API accepts (spec §6).
type Config struct {
	// Output selects the mux target.
	Output OutputMode
	// FilePath is required when Output == OutputFile.
	FilePath string
	// RTMPURL is required when Output == OutputRTMP.
	RTMPURL string

	Width, Height, FPS int
	VideoBitRate       int64
	PreferHardwareH264 bool

	SampleRate, Channels int
	AudioBitRate         int64
	MicGain              float32

	DesktopAudioDeviceID int // -1 selects the platform default
	MicDeviceID          int

	MaxQueueSize      int
	MaxQueueLatencyMS int64

	DebugLogging bool
}

// DefaultConfig returns a Config with the spec's baseline values (spec §6).
func DefaultConfig() Config {
	return Config{
		Output:               OutputFile,
		Width:                1920,
		Height:               1080,
		FPS:                  30,
		VideoBitRate:         6_000_000,
		SampleRate:           48000,
		Channels:             2,
		AudioBitRate:         128_000,
		MicGain:              1.2,
		DesktopAudioDeviceID: -1,
		MicDeviceID:          -1,
		MaxQueueSize:         256,
		MaxQueueLatencyMS:    2000,
	}
}

// Validate reports a descriptive error for any configuration that cannot be
// turned into a running pipeline.
func (c Config) Validate() error {
	switch c.Output {
	case OutputFile:
		if c.FilePath == "" {
			return fmt.Errorf("ionia: FilePath required for OutputFile")
		}
	case OutputRTMP:
		if c.RTMPURL == "" {
			return fmt.Errorf("ionia: RTMPURL required for OutputRTMP")
		}
	case OutputRawAAC:
		if c.FilePath == "" {
			return fmt.Errorf("ionia: FilePath required for OutputRawAAC")
		}
	default:
		return fmt.Errorf("ionia: unknown output mode %d", c.Output)
	}
	if c.Output != OutputRawAAC && (c.Width <= 0 || c.Height <= 0 || c.FPS <= 0) {
		return fmt.Errorf("ionia: width, height and fps must be positive")
	}
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return fmt.Errorf("ionia: sample rate and channels must be positive")
	}
	return nil
}

// Command ionia captures desktop video and desktop/mic audio, encodes to
// H.264 + AAC, and muxes either to a local MP4 file or an FLV/RTMP live
// stream.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/big21ray/ionia"
)

func main() {
	outFile := flag.String("out", "", "write an MP4 file to this path")
	rtmpURL := flag.String("rtmp", "", "stream FLV to this rtmp:// URL")
	rawAACFile := flag.String("raw-aac", "", "write ADTS-framed raw AAC audio (no video) to this path")
	width := flag.Int("width", 1920, "capture width")
	height := flag.Int("height", 1080, "capture height")
	fps := flag.Int("fps", 30, "capture frame rate")
	videoBitRate := flag.Int64("video-bitrate", 6_000_000, "H.264 target bitrate in bits/sec")
	preferHW := flag.Bool("hw-encode", true, "prefer a hardware H.264 encoder when available")
	sampleRate := flag.Int("sample-rate", 48000, "audio sample rate")
	channels := flag.Int("channels", 2, "audio channel count")
	audioBitRate := flag.Int64("audio-bitrate", 128_000, "AAC target bitrate in bits/sec")
	micGain := flag.Float64("mic-gain", 1.2, "linear gain applied to the microphone stream before mixing")
	desktopAudioDevice := flag.Int("desktop-audio-device", -1, "portaudio device index for desktop/loopback audio (-1 for default)")
	micDevice := flag.Int("mic-device", -1, "portaudio device index for the microphone (-1 for default)")
	queueSize := flag.Int("queue-size", 256, "max packets buffered ahead of the network sender (RTMP only)")
	queueLatencyMS := flag.Int64("queue-latency-ms", 2000, "max DTS span of queued packets in ms before new packets are refused (RTMP only)")
	debugLogs := flag.Bool("debug", false, "enable verbose diagnostic logging")
	listDevices := flag.Bool("list-audio-devices", false, "print available audio input devices and exit")
	selfTestAudio := flag.Bool("self-test-audio", false, "round-trip a synthetic tone through the codec library and exit")
	flag.Parse()

	if *listDevices {
		runListDevices()
		return
	}
	if *selfTestAudio {
		if err := ionia.SelfTestAudioCodecPath(); err != nil {
			log.Fatalf("[ionia] self-test failed: %v", err)
		}
		log.Println("[ionia] audio codec self-test passed")
		return
	}

	cfg := ionia.DefaultConfig()
	cfg.Width, cfg.Height, cfg.FPS = *width, *height, *fps
	cfg.VideoBitRate = *videoBitRate
	cfg.PreferHardwareH264 = *preferHW
	cfg.SampleRate, cfg.Channels = *sampleRate, *channels
	cfg.AudioBitRate = *audioBitRate
	cfg.MicGain = float32(*micGain)
	cfg.DesktopAudioDeviceID = *desktopAudioDevice
	cfg.MicDeviceID = *micDevice
	cfg.MaxQueueSize = *queueSize
	cfg.MaxQueueLatencyMS = *queueLatencyMS
	cfg.DebugLogging = *debugLogs

	switch {
	case *rtmpURL != "":
		cfg.Output = ionia.OutputRTMP
		cfg.RTMPURL = *rtmpURL
	case *outFile != "":
		cfg.Output = ionia.OutputFile
		cfg.FilePath = *outFile
	case *rawAACFile != "":
		cfg.Output = ionia.OutputRawAAC
		cfg.FilePath = *rawAACFile
	default:
		log.Fatal("[ionia] one of -out, -rtmp or -raw-aac is required")
	}

	pipe, err := ionia.New(cfg)
	if err != nil {
		log.Fatalf("[ionia] %v", err)
	}
	if err := pipe.Initialise(); err != nil {
		log.Fatalf("[ionia] initialise: %v", err)
	}
	if err := pipe.Start(); err != nil {
		log.Fatalf("[ionia] start: %v", err)
	}
	log.Printf("[ionia] running (output=%s)", outputDescription(cfg))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-sigCh:
			log.Println("[ionia] shutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := pipe.Stop(ctx); err != nil {
				log.Printf("[ionia] stop: %v", err)
			}
			cancel()
			return
		case <-ticker.C:
			stats := pipe.GetStatistics()
			log.Printf("[ionia] state=%s audio_frames=%d video_frame=%d dup=%d video_packets=%d audio_packets=%d dropped_video=%d dropped_audio=%d backpressure=%t",
				stats.State, stats.AudioFramesSent, stats.VideoFrameNumber, stats.FramesDuplicated,
				stats.VideoPackets, stats.AudioPackets, stats.DroppedVideo, stats.DroppedAudio, stats.Backpressure)
		}
	}
}

func outputDescription(cfg ionia.Config) string {
	switch cfg.Output {
	case ionia.OutputRTMP:
		return "rtmp " + cfg.RTMPURL
	case ionia.OutputRawAAC:
		return "raw-aac " + cfg.FilePath
	default:
		return "file " + cfg.FilePath
	}
}

func runListDevices() {
	devices, err := ionia.ListAudioInputDevices()
	if err != nil {
		log.Fatalf("[ionia] list audio devices: %v", err)
	}
	for _, d := range devices {
		log.Printf("[ionia] device %d: %s", d.ID, d.Name)
	}
}

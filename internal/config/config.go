package config

import (
	"os"
	"strconv"
	"time"
)

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Analysis
	SampleRate int     // audio engine sample rate (Hz)
	FFTSize    int     // transform window; published spectra are FFTSize/2 long
	Smoothing  float64 // temporal smoothing constant for the spectrum, [0,1)
	TickHz     int     // analysis ticks per second

	// Playback
	ForceBuffered bool          // route every source through the decode-buffer strategy
	SpeakerBuffer time.Duration // speaker mixer buffer length
	MicBuffer     int           // microphone capture frames per buffer
	MicOffDelay   time.Duration // transitional delay when leaving mic mode
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		SampleRate: envInt("LUMENBEAT_SAMPLE_RATE", 44100),
		FFTSize:    envInt("LUMENBEAT_FFT_SIZE", 2048),
		Smoothing:  envFloat("LUMENBEAT_SMOOTHING", 0.8),
		TickHz:     envInt("LUMENBEAT_TICK_HZ", 60),

		ForceBuffered: envBool("LUMENBEAT_FORCE_BUFFERED", false),
		SpeakerBuffer: envDur("LUMENBEAT_SPEAKER_BUFFER", 100*time.Millisecond),
		MicBuffer:     envInt("LUMENBEAT_MIC_BUFFER", 1024),
		MicOffDelay:   envDur("LUMENBEAT_MIC_OFF_DELAY", 600*time.Millisecond),
	}
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

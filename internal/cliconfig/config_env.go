package cliconfig

import (
	"os"
	"time"
)

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "MORSEBRIDGE_"

// APIKeyEnv is read when no other layer supplies an API key.
const APIKeyEnv = "ANTHROPIC_API_KEY"

// ApplyEnvConfig applies configuration from environment variables (MORSEBRIDGE_*).
// It respects flags that have been explicitly set (changed map).
// An empty API key falls back to $ANTHROPIC_API_KEY once every other layer
// has been applied.
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(EnvPrefix + name) }

	s.setString("capture-port", env("CAPTURE_PORT"), &cfg.CapturePort)
	s.setString("display-port", env("DISPLAY_PORT"), &cfg.DisplayPort)
	s.setString("api-key", env("API_KEY"), &cfg.APIKey)
	s.setString("api-url", env("API_URL"), &cfg.APIURL)
	s.setString("model", env("MODEL"), &cfg.Model)
	s.setString("transcribe-prompt", env("TRANSCRIBE_PROMPT"), &cfg.TranscribePrompt)
	s.setString("interpret-prompt", env("INTERPRET_PROMPT"), &cfg.InterpretPrompt)
	s.setString("output-dir", env("OUTPUT_DIR"), &cfg.OutputDir)
	s.setString("state-dir", env("STATE_DIR"), &cfg.StateDir)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)

	durations := []struct {
		flag, name string
		dst        *time.Duration
	}{
		{"capture-timeout", "CAPTURE_TIMEOUT", &cfg.CaptureTimeout},
		{"display-timeout", "DISPLAY_TIMEOUT", &cfg.DisplayTimeout},
		{"timeout", "HTTP_TIMEOUT", &cfg.HTTPTimeout},
		{"poll", "POLL_INTERVAL", &cfg.PollInterval},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, env(d.name), d.dst); err != nil {
			return err
		}
	}

	ints := []struct {
		flag, name string
		dst        *int
		allowZero  bool
	}{
		{"capture-baud", "CAPTURE_BAUD", &cfg.CaptureBaud, false},
		{"display-baud", "DISPLAY_BAUD", &cfg.DisplayBaud, false},
		{"transcribe-max-tokens", "TRANSCRIBE_MAX_TOKENS", &cfg.TranscribeMaxTokens, false},
		{"interpret-max-tokens", "INTERPRET_MAX_TOKENS", &cfg.InterpretMaxTokens, false},
		{"jpeg-quality", "JPEG_QUALITY", &cfg.JPEGQuality, false},
		{"max-frame-bytes", "MAX_FRAME_BYTES", &cfg.MaxFrameBytes, false},
		{"cleanup-high-bytes", "CLEANUP_HIGH_BYTES", &cfg.CleanupHighBytes, true},
		{"cleanup-low-bytes", "CLEANUP_LOW_BYTES", &cfg.CleanupLowBytes, true},
	}
	for _, i := range ints {
		set := s.setIntFromString
		if i.allowZero {
			set = s.setSizeFromString
		}
		if err := set(i.flag, env(i.name), i.dst); err != nil {
			return err
		}
	}

	s.setBoolFromString("once", env("ONCE"), &cfg.Once)
	s.setBoolFromString("watch-config", env("WATCH_CONFIG"), &cfg.WatchConfig)

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(APIKeyEnv)
	}

	return nil
}

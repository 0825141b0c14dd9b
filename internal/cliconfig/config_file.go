package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	CapturePort    string `toml:"capture_port"`
	CaptureBaud    int    `toml:"capture_baud"`
	CaptureTimeout string `toml:"capture_timeout"`

	DisplayPort    string `toml:"display_port"`
	DisplayBaud    int    `toml:"display_baud"`
	DisplayTimeout string `toml:"display_timeout"`

	APIKey      string `toml:"api_key"`
	APIURL      string `toml:"api_url"`
	Model       string `toml:"model"`
	HTTPTimeout string `toml:"http_timeout"`

	TranscribePrompt    string `toml:"transcribe_prompt"`
	InterpretPrompt     string `toml:"interpret_prompt"`
	TranscribeMaxTokens int    `toml:"transcribe_max_tokens"`
	InterpretMaxTokens  int    `toml:"interpret_max_tokens"`

	OutputDir     string `toml:"output_dir"`
	StateDir      string `toml:"state_dir"`
	JPEGQuality   int    `toml:"jpeg_quality"`
	MaxFrameBytes int    `toml:"max_frame_bytes"`

	PollInterval string `toml:"poll_interval"`
	LogLevel     string `toml:"log_level"`
	Once         *bool  `toml:"once"`
	WatchConfig  *bool  `toml:"watch_config"`

	CleanupHighBytes int `toml:"cleanup_high_bytes"`
	CleanupLowBytes  int `toml:"cleanup_low_bytes"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.morsebridge/config.toml, or "" if the home
// directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".morsebridge", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("capture-port", fc.CapturePort, &cfg.CapturePort)
	s.setString("display-port", fc.DisplayPort, &cfg.DisplayPort)
	s.setString("api-key", fc.APIKey, &cfg.APIKey)
	s.setString("api-url", fc.APIURL, &cfg.APIURL)
	s.setString("model", fc.Model, &cfg.Model)
	s.setString("transcribe-prompt", fc.TranscribePrompt, &cfg.TranscribePrompt)
	s.setString("interpret-prompt", fc.InterpretPrompt, &cfg.InterpretPrompt)
	s.setString("output-dir", fc.OutputDir, &cfg.OutputDir)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("capture-timeout", fc.CaptureTimeout, &cfg.CaptureTimeout); err != nil {
		return err
	}
	if err := s.setDuration("display-timeout", fc.DisplayTimeout, &cfg.DisplayTimeout); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}
	if err := s.setDuration("poll", fc.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}

	s.setInt("capture-baud", fc.CaptureBaud, &cfg.CaptureBaud)
	s.setInt("display-baud", fc.DisplayBaud, &cfg.DisplayBaud)
	s.setInt("transcribe-max-tokens", fc.TranscribeMaxTokens, &cfg.TranscribeMaxTokens)
	s.setInt("interpret-max-tokens", fc.InterpretMaxTokens, &cfg.InterpretMaxTokens)
	s.setInt("jpeg-quality", fc.JPEGQuality, &cfg.JPEGQuality)
	s.setInt("max-frame-bytes", fc.MaxFrameBytes, &cfg.MaxFrameBytes)
	s.setInt("cleanup-high-bytes", fc.CleanupHighBytes, &cfg.CleanupHighBytes)
	s.setInt("cleanup-low-bytes", fc.CleanupLowBytes, &cfg.CleanupLowBytes)

	s.setBool("once", fc.Once, &cfg.Once)
	s.setBool("watch-config", fc.WatchConfig, &cfg.WatchConfig)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

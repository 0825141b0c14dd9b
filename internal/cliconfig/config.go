package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/morsebridge/internal/domain"
	"github.com/bft-labs/morsebridge/pkg/capture"
	"github.com/bft-labs/morsebridge/pkg/decoder"
	"github.com/bft-labs/morsebridge/pkg/imaging"
	"github.com/bft-labs/morsebridge/pkg/inference"
)

// Config holds CLI configuration for morsebridge.
type Config struct {
	CapturePort    string
	CaptureBaud    int
	CaptureTimeout time.Duration

	DisplayPort    string
	DisplayBaud    int
	DisplayTimeout time.Duration

	APIKey      string
	APIURL      string
	Model       string
	HTTPTimeout time.Duration

	TranscribePrompt    string
	InterpretPrompt     string
	TranscribeMaxTokens int
	InterpretMaxTokens  int

	OutputDir     string
	StateDir      string
	JPEGQuality   int
	MaxFrameBytes int

	PollInterval time.Duration
	LogLevel     string
	Once         bool
	WatchConfig  bool

	CleanupHighBytes int
	CleanupLowBytes  int

	// ConfigPath is the file the settings were loaded from, if any.
	ConfigPath string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		CaptureBaud:         115200,
		CaptureTimeout:      20 * time.Second,
		DisplayBaud:         9600,
		DisplayTimeout:      2 * time.Second,
		APIURL:              inference.DefaultBaseURL,
		Model:               inference.DefaultModel,
		HTTPTimeout:         inference.DefaultTimeout,
		TranscribeMaxTokens: decoder.DefaultTranscribeMaxTokens,
		InterpretMaxTokens:  decoder.DefaultInterpretMaxTokens,
		OutputDir:           imaging.DefaultDir,
		StateDir:            "", // Derived from OutputDir during Validate
		JPEGQuality:         imaging.DefaultQuality,
		MaxFrameBytes:       capture.DefaultMaxPayloadBytes,
		PollInterval:        5 * time.Second,
		LogLevel:            "info",
		WatchConfig:         true,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.CapturePort == "" {
		return invalid("capture-port is required")
	}
	if c.DisplayPort == "" {
		return invalid("display-port is required")
	}
	if c.CapturePort == c.DisplayPort {
		return invalid("capture-port and display-port must differ")
	}
	if c.CaptureBaud <= 0 || c.DisplayBaud <= 0 {
		return invalid("baud rates must be positive")
	}
	if c.CaptureTimeout <= 0 {
		return invalid("capture-timeout must be positive")
	}
	if c.DisplayTimeout <= 0 {
		return invalid("display-timeout must be positive")
	}

	if c.APIKey == "" {
		return invalid("api-key is required (or set ANTHROPIC_API_KEY)")
	}
	if c.APIURL == "" {
		c.APIURL = inference.DefaultBaseURL
	}
	c.APIURL = strings.TrimSuffix(c.APIURL, "/")
	if c.Model == "" {
		return invalid("model is required")
	}
	if c.HTTPTimeout <= 0 {
		return invalid("timeout must be positive")
	}
	if c.TranscribeMaxTokens <= 0 || c.InterpretMaxTokens <= 0 {
		return invalid("max tokens must be positive")
	}

	if c.OutputDir == "" {
		c.OutputDir = imaging.DefaultDir
	}
	if c.StateDir == "" {
		c.StateDir = c.OutputDir
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return invalid("jpeg-quality must be between 1 and 100")
	}
	if c.MaxFrameBytes <= 0 {
		return invalid("max-frame-bytes must be positive")
	}

	if c.PollInterval <= 0 {
		return invalid("poll interval must be positive")
	}

	if c.CleanupHighBytes < 0 || c.CleanupLowBytes < 0 {
		return invalid("cleanup watermarks must not be negative")
	}
	if c.CleanupHighBytes > 0 {
		if c.CleanupLowBytes == 0 {
			c.CleanupLowBytes = c.CleanupHighBytes / 10 * 8
		}
		if c.CleanupLowBytes >= c.CleanupHighBytes {
			return invalid("cleanup-low-bytes must be below cleanup-high-bytes")
		}
	}

	return nil
}

// Masked returns a copy safe to log.
func (c Config) Masked() Config {
	if c.APIKey != "" {
		c.APIKey = "*****"
	}
	return c
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, msg)
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setSizeFromString is setIntFromString for byte counts where 0 is a
// meaningful value (disabled). Negative values are ignored.
func (s *configSetter) setSizeFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i < 0 {
		return nil
	}
	*dst = i
	return nil
}

// setIntFromString parses an environment value and sets dst if positive.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}

package bridge

import (
	"fmt"
	"time"

	"github.com/bft-labs/morsebridge/internal/domain"
	"github.com/bft-labs/morsebridge/pkg/capture"
	"github.com/bft-labs/morsebridge/pkg/decoder"
	"github.com/bft-labs/morsebridge/pkg/imaging"
	"github.com/bft-labs/morsebridge/pkg/inference"
)

// Config holds the settings of one bridge.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config struct {
	// Capture framing.
	Capture capture.Config

	// Hosted model. Ignored when WithProvider is used.
	APIKey      string
	APIURL      string
	Model       string
	HTTPTimeout time.Duration

	// Prompts. Empty strings take the package defaults.
	TranscribePrompt    string
	InterpretPrompt     string
	TranscribeMaxTokens int
	InterpretMaxTokens  int

	// Storage.
	OutputDir   string
	StateDir    string // defaults to OutputDir
	JPEGQuality int

	// Loop.
	PollInterval time.Duration
	Once         bool

	// ConfigPath is the TOML file the bridge was configured from, if any.
	// Plugins read it; the bridge itself does not.
	ConfigPath string
}

// DefaultConfig returns a Config with sensible default values.
// APIKey must be set before New unless a provider is injected.
func DefaultConfig() Config {
	return Config{
		Capture:             capture.DefaultConfig(),
		APIURL:              inference.DefaultBaseURL,
		Model:               inference.DefaultModel,
		HTTPTimeout:         inference.DefaultTimeout,
		TranscribePrompt:    decoder.DefaultTranscribePrompt,
		InterpretPrompt:     decoder.DefaultInterpretPrompt,
		TranscribeMaxTokens: decoder.DefaultTranscribeMaxTokens,
		InterpretMaxTokens:  decoder.DefaultInterpretMaxTokens,
		OutputDir:           imaging.DefaultDir,
		JPEGQuality:         imaging.DefaultQuality,
		PollInterval:        5 * time.Second,
	}
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	d := DefaultConfig()
	if c.APIURL == "" {
		c.APIURL = d.APIURL
	}
	if c.Model == "" {
		c.Model = d.Model
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = d.HTTPTimeout
	}
	if c.TranscribeMaxTokens == 0 {
		c.TranscribeMaxTokens = d.TranscribeMaxTokens
	}
	if c.InterpretMaxTokens == 0 {
		c.InterpretMaxTokens = d.InterpretMaxTokens
	}
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	if c.StateDir == "" {
		c.StateDir = c.OutputDir
	}
	if c.JPEGQuality == 0 {
		c.JPEGQuality = d.JPEGQuality
	}
	if c.PollInterval == 0 {
		c.PollInterval = d.PollInterval
	}
}

// Validate checks values that SetDefaults cannot repair.
func (c *Config) Validate() error {
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("%w: jpeg quality %d out of range", domain.ErrInvalidConfig, c.JPEGQuality)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("%w: negative poll interval", domain.ErrInvalidConfig)
	}
	if c.TranscribeMaxTokens < 0 || c.InterpretMaxTokens < 0 {
		return fmt.Errorf("%w: negative max tokens", domain.ErrInvalidConfig)
	}
	return nil
}

// Package morsebridge relays Morse messages drawn in front of a camera to a
// text display.
//
// Example usage:
//
//	cfg := morsebridge.DefaultConfig()
//	cfg.CapturePort = "/dev/ttyUSB0"
//	cfg.DisplayPort = "/dev/ttyACM0"
//	cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
//	if err := morsebridge.Run(ctx, cfg, nil); err != nil {
//	    log.Fatal(err)
//	}
//
// For finer control, open the devices yourself and use pkg/bridge.
package morsebridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/bft-labs/morsebridge/internal/adapters/serial"
	"github.com/bft-labs/morsebridge/internal/cliconfig"
	"github.com/bft-labs/morsebridge/pkg/bridge"
	"github.com/bft-labs/morsebridge/pkg/capture"
	"github.com/bft-labs/morsebridge/pkg/log"
	"github.com/bft-labs/morsebridge/plugins/capturecleanup"
	"github.com/bft-labs/morsebridge/plugins/configwatcher"
)

// Config holds the settings of a bridge run, including the device names.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = cliconfig.Config

// ErrCrashed is returned by Run when the pipeline stopped abnormally.
var ErrCrashed = errors.New("morsebridge: bridge crashed")

// DefaultConfig returns a Config with sensible default values.
// At minimum, set CapturePort, DisplayPort and APIKey before calling Run.
func DefaultConfig() Config {
	return cliconfig.DefaultConfig()
}

// Run opens both serial devices, relays messages until ctx is canceled (or
// after one iteration when cfg.Once is set) and closes the devices on every
// exit path. A nil logger discards output.
func Run(ctx context.Context, cfg Config, logger log.Logger) error {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	capturePort, err := serial.Open(serial.Config{
		Name:        cfg.CapturePort,
		Baud:        cfg.CaptureBaud,
		ReadTimeout: cfg.CaptureTimeout,
	})
	if err != nil {
		return fmt.Errorf("open capture port: %w", err)
	}
	defer closePort(logger, "capture", capturePort)

	displayPort, err := serial.Open(serial.Config{
		Name:        cfg.DisplayPort,
		Baud:        cfg.DisplayBaud,
		ReadTimeout: cfg.DisplayTimeout,
	})
	if err != nil {
		return fmt.Errorf("open display port: %w", err)
	}
	defer closePort(logger, "display", displayPort)

	logger.Info("serial ports open",
		log.String("capture", cfg.CapturePort),
		log.String("display", cfg.DisplayPort))

	opts := append([]bridge.Option{bridge.WithLogger(logger)}, pluginOptions(cfg)...)
	b, err := bridge.New(bridgeConfig(cfg), capturePort, displayPort, opts...)
	if err != nil {
		return fmt.Errorf("create bridge: %w", err)
	}
	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("start bridge: %w", err)
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case <-b.Done():
	}

	if b.State() == bridge.StateCrashed {
		_ = b.Stop()
		return ErrCrashed
	}
	// A single-iteration run has already stopped itself.
	if err := b.Stop(); err != nil && !errors.Is(err, bridge.ErrNotRunning) {
		return fmt.Errorf("stop bridge: %w", err)
	}

	st := b.Status()
	logger.Info("bridge stopped",
		log.Int64("iterations", st.Iterations),
		log.Int64("emitted", st.Emitted),
		log.Int64("failures", st.Failures))
	return nil
}

// bridgeConfig maps the flat CLI settings onto the library config.
func bridgeConfig(cfg Config) bridge.Config {
	captureCfg := capture.DefaultConfig()
	captureCfg.MaxPayloadBytes = cfg.MaxFrameBytes

	return bridge.Config{
		Capture:             captureCfg,
		APIKey:              cfg.APIKey,
		APIURL:              cfg.APIURL,
		Model:               cfg.Model,
		HTTPTimeout:         cfg.HTTPTimeout,
		TranscribePrompt:    cfg.TranscribePrompt,
		InterpretPrompt:     cfg.InterpretPrompt,
		TranscribeMaxTokens: cfg.TranscribeMaxTokens,
		InterpretMaxTokens:  cfg.InterpretMaxTokens,
		OutputDir:           cfg.OutputDir,
		StateDir:            cfg.StateDir,
		JPEGQuality:         cfg.JPEGQuality,
		PollInterval:        cfg.PollInterval,
		Once:                cfg.Once,
		ConfigPath:          cfg.ConfigPath,
	}
}

// pluginOptions enables the plugins the settings ask for. The watcher needs
// an existing config file; cleanup needs a high watermark.
func pluginOptions(cfg Config) []bridge.Option {
	var opts []bridge.Option
	if cfg.WatchConfig && !cfg.Once && cfg.ConfigPath != "" && cliconfig.FileExists(cfg.ConfigPath) {
		opts = append(opts, configwatcher.WithDefaultConfigWatcher())
	}
	if cfg.CleanupHighBytes > 0 {
		c := capturecleanup.DefaultConfig()
		c.HighWatermark = int64(cfg.CleanupHighBytes)
		c.LowWatermark = int64(cfg.CleanupLowBytes)
		opts = append(opts, capturecleanup.WithCaptureCleanup(c))
	}
	return opts
}

func closePort(logger log.Logger, name string, p serial.Port) {
	if err := p.Close(); err != nil {
		logger.Warn("failed to close serial port", log.String("port", name), log.Err(err))
	}
}

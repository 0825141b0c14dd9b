package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bft-labs/morsebridge/internal/adapters/fs"
	"github.com/bft-labs/morsebridge/internal/app"
	"github.com/bft-labs/morsebridge/internal/domain"
	"github.com/bft-labs/morsebridge/pkg/capture"
	"github.com/bft-labs/morsebridge/pkg/decoder"
	"github.com/bft-labs/morsebridge/pkg/downlink"
	"github.com/bft-labs/morsebridge/pkg/imaging"
	"github.com/bft-labs/morsebridge/pkg/inference"
	"github.com/bft-labs/morsebridge/pkg/log"
)

// Errors returned by the bridge. They alias the domain errors so callers can
// check them with errors.Is without importing internal packages.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
)

// Status is the activity snapshot also written to bridge-status.json.
type Status = domain.Status

// Bridge relays Morse messages from a capture device to a display device.
// Use New() to create an instance, then Start() to begin.
type Bridge struct {
	config      Config
	lifecycle   *app.Lifecycle
	pipeline    *app.Pipeline
	transcriber *decoder.Transcriber
	interpreter *decoder.Interpreter
	logger      log.Logger

	plugins []Plugin
	active  []Plugin

	mu   sync.Mutex
	done chan struct{}
}

// New creates a bridge over the given device handles. The caller keeps
// ownership of both and closes them after Stop.
// The instance is created in StateStopped.
func New(cfg Config, captureStream io.Reader, display io.Writer, opts ...Option) (*Bridge, error) {
	if captureStream == nil || display == nil {
		return nil, fmt.Errorf("%w: capture and display streams are required", ErrInvalidConfig)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	provider := o.provider
	if provider == nil {
		client, err := inference.NewClient(
			inference.WithAPIKey(cfg.APIKey),
			inference.WithBaseURL(cfg.APIURL),
			inference.WithModel(cfg.Model),
			inference.WithTimeout(cfg.HTTPTimeout),
			inference.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		provider = client
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler, now: time.Now}

	transcriber := decoder.NewTranscriber(provider, cfg.TranscribePrompt, cfg.TranscribeMaxTokens, logger)
	interpreter := decoder.NewInterpreter(provider, cfg.InterpretPrompt, cfg.InterpretMaxTokens, logger)

	pipeline := app.NewPipeline(
		app.PipelineConfig{PollInterval: cfg.PollInterval, Once: cfg.Once},
		app.PipelinePorts{
			Receiver:    capture.NewReceiver(captureStream, cfg.Capture, logger),
			Processor:   imaging.NewProcessor(imaging.NewStore(cfg.OutputDir, cfg.JPEGQuality), logger),
			Transcriber: transcriber,
			Interpreter: interpreter,
			Emitter:     downlink.NewEmitter(display, logger),
			Status:      fs.NewStatusFile(cfg.StateDir),
		},
		logger,
		emitter,
	)

	return &Bridge{
		config:      cfg,
		lifecycle:   app.NewLifecycle(logger, emitter),
		pipeline:    pipeline,
		transcriber: transcriber,
		interpreter: interpreter,
		logger:      logger,
		plugins:     o.plugins,
	}, nil
}

// Start runs the pipeline in the background and returns immediately.
// The provided context bounds the lifetime of the run.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.lifecycle.CanStart() {
		return ErrAlreadyRunning
	}
	if err := b.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	// Plugins left over from a crashed run.
	if len(b.active) > 0 {
		b.shutdownPlugins()
	}

	runCtx, cancel := context.WithCancel(ctx)
	b.lifecycle.SetCancel(cancel)

	pluginCfg := PluginConfig{
		ConfigPath: b.config.ConfigPath,
		OutputDir:  b.config.OutputDir,
		StateDir:   b.config.StateDir,
		Logger:     b.logger,
		Tuner:      b,
	}
	for _, p := range b.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			b.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			cancel()
			b.shutdownPlugins()
			_ = b.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
		b.active = append(b.active, p)
		b.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}

	done := make(chan struct{})
	b.done = done

	b.lifecycle.AddWorker()
	go func() {
		defer b.lifecycle.WorkerDone()
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("pipeline panic", log.Any("panic", r))
				cancel()
				_ = b.lifecycle.TransitionTo(app.StateCrashed, fmt.Sprintf("panic: %v", r))
			}
		}()

		if err := b.lifecycle.TransitionTo(app.StateRunning, "pipeline starting"); err != nil {
			b.logger.Debug("pipeline not started", log.Err(err))
			return
		}

		err := b.pipeline.Run(runCtx)
		if err == nil {
			b.finishOnce(cancel)
			return
		}
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			b.logger.Error("pipeline error", log.Err(err))
			_ = b.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		}
	}()

	return nil
}

// Stop cancels the pipeline and waits up to 30 seconds for the in-flight
// iteration to finish. Plugins are shut down in reverse order.
// Returns nil on graceful shutdown, ErrShutdownTimeout if forced.
func (b *Bridge) Stop() error {
	b.mu.Lock()

	if !b.lifecycle.CanStop() {
		// A crashed bridge still owns its plugins.
		if b.lifecycle.State() == app.StateCrashed {
			b.shutdownPlugins()
		}
		b.mu.Unlock()
		return ErrNotRunning
	}

	if err := b.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		b.mu.Unlock()
		return err
	}
	b.lifecycle.Cancel()
	b.mu.Unlock()

	err := b.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	b.mu.Lock()
	b.shutdownPlugins()
	b.mu.Unlock()

	if err != nil {
		_ = b.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = b.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// finishOnce stops the bridge after a single iteration completed without
// error. A concurrent Stop that already moved to Stopping owns the rest of
// the shutdown.
func (b *Bridge) finishOnce(cancel context.CancelFunc) {
	if err := b.lifecycle.TransitionTo(app.StateStopping, "single iteration complete"); err != nil {
		return
	}
	cancel()

	b.mu.Lock()
	b.shutdownPlugins()
	b.mu.Unlock()

	_ = b.lifecycle.TransitionTo(app.StateStopped, "single iteration complete")
}

// shutdownPlugins shuts down initialized plugins in reverse order.
// Callers hold b.mu.
func (b *Bridge) shutdownPlugins() {
	ctx := context.Background()
	for i := len(b.active) - 1; i >= 0; i-- {
		p := b.active[i]
		if err := p.Shutdown(ctx); err != nil {
			b.logger.Error("plugin shutdown failed",
				log.String("plugin", p.Name()),
				log.Err(err))
		} else {
			b.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
		}
	}
	b.active = nil
}

// Done returns a channel closed when the pipeline goroutine of the current
// run exits: after a Once iteration, on cancellation or on a crash. It
// returns nil before the first Start. A Once run has already reached
// StateStopped and released its plugins when Done closes, so a later Stop
// returns ErrNotRunning.
func (b *Bridge) Done() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.done
}

// State returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (b *Bridge) State() State {
	return State(b.lifecycle.State())
}

// Status returns a copy of the activity counters and last results.
func (b *Bridge) Status() Status {
	return b.pipeline.Status()
}

// PollInterval returns the current delay between iterations.
func (b *Bridge) PollInterval() time.Duration {
	return b.pipeline.PollInterval()
}

// SetPollInterval implements Tuner.
func (b *Bridge) SetPollInterval(d time.Duration) {
	if d <= 0 || d == b.pipeline.PollInterval() {
		return
	}
	b.pipeline.SetPollInterval(d)
	b.logger.Info("poll interval updated", log.Duration("poll_interval", d))
}

// SetPrompts implements Tuner. An empty string leaves that prompt unchanged.
func (b *Bridge) SetPrompts(transcribe, interpret string) {
	if transcribe != "" && transcribe != b.transcriber.Prompt() {
		b.transcriber.SetPrompt(transcribe)
		b.logger.Info("transcription prompt updated")
	}
	if interpret != "" && interpret != b.interpreter.Prompt() {
		b.interpreter.SetPrompt(interpret)
		b.logger.Info("interpretation prompt updated")
	}
}

// Prompts returns the instructions currently sent to the model.
func (b *Bridge) Prompts() (transcribe, interpret string) {
	return b.transcriber.Prompt(), b.interpreter.Prompt()
}

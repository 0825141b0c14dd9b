package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/morsebridge/internal/domain"
	"github.com/bft-labs/morsebridge/internal/ports"
	"github.com/bft-labs/morsebridge/pkg/log"
)

// DefaultPollInterval is the pause between iterations.
const DefaultPollInterval = 5 * time.Second

// PipelineState is where the driver is within an iteration.
type PipelineState int32

const (
	// PipelineAwaitingFrame waits on the capture stream.
	PipelineAwaitingFrame PipelineState = iota

	// PipelineProcessing handles a received frame through emit.
	PipelineProcessing
)

// String returns a human-readable representation of the state.
func (s PipelineState) String() string {
	switch s {
	case PipelineAwaitingFrame:
		return "AwaitingFrame"
	case PipelineProcessing:
		return "Processing"
	default:
		return "Unknown"
	}
}

// Outcome summarizes one iteration.
type Outcome int

const (
	OutcomeNoData Outcome = iota
	OutcomeCaptureFailed
	OutcomeEmitFailed
	OutcomeEmitted
	OutcomeCanceled
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeNoData:
		return "no data"
	case OutcomeCaptureFailed:
		return "capture failed"
	case OutcomeEmitFailed:
		return "emit failed"
	case OutcomeEmitted:
		return "emitted"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Failure stages reported to PipelineEvents.OnCaptureFailed.
const (
	StageReceive    = "receive"
	StageProcess    = "process"
	StageTranscribe = "transcribe"
	StageEmit       = "emit"
)

// PipelineConfig contains configuration for the driver loop.
type PipelineConfig struct {
	PollInterval time.Duration
	Once         bool
}

// PipelinePorts are the driver's collaborators. Status may be nil.
type PipelinePorts struct {
	Receiver    ports.FrameReceiver
	Processor   ports.ImageProcessor
	Transcriber ports.Transcriber
	Interpreter ports.Interpreter
	Emitter     ports.Emitter
	Status      ports.StatusRepository
}

// PipelineEvents is notified about iteration results.
type PipelineEvents interface {
	OnCaptureFailed(stage string, err error)
	OnMessageEmitted(transcription string, msg domain.DecodedMessage)
}

// Pipeline runs receive, process, transcribe, interpret and emit in a
// single sequential loop.
type Pipeline struct {
	ports  PipelinePorts
	once   bool
	logger log.Logger
	events PipelineEvents
	now    func() time.Time

	poll  atomic.Int64
	state atomic.Int32

	mu     sync.Mutex
	status domain.Status
}

// NewPipeline creates a driver. A zero PollInterval takes the default.
func NewPipeline(cfg PipelineConfig, p PipelinePorts, logger log.Logger, events PipelineEvents) *Pipeline {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	pl := &Pipeline{
		ports:  p,
		once:   cfg.Once,
		logger: logger,
		events: events,
		now:    time.Now,
	}
	poll := cfg.PollInterval
	if poll == 0 {
		poll = DefaultPollInterval
	}
	pl.SetPollInterval(poll)
	return pl
}

// State returns the current pipeline state.
func (p *Pipeline) State() PipelineState {
	return PipelineState(p.state.Load())
}

func (p *Pipeline) setState(s PipelineState) {
	p.state.Store(int32(s))
}

// PollInterval returns the delay between iterations.
func (p *Pipeline) PollInterval() time.Duration {
	return time.Duration(p.poll.Load())
}

// SetPollInterval changes the delay used from the next iteration on.
// Negative values are ignored.
func (p *Pipeline) SetPollInterval(d time.Duration) {
	if d < 0 {
		return
	}
	p.poll.Store(int64(d))
}

// Status returns a copy of the activity snapshot.
func (p *Pipeline) Status() domain.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Run executes iterations until ctx is canceled, or once in Once mode.
// It returns ctx.Err() on cancellation and nil after a Once iteration.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.ports.Status != nil {
		prev, err := p.ports.Status.Load(ctx)
		if err != nil {
			p.logger.Warn("failed to load status, starting fresh", log.Err(err))
		} else {
			p.mu.Lock()
			p.status = prev
			p.mu.Unlock()
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		outcome := p.Step(ctx)
		if outcome == OutcomeCanceled {
			return ctx.Err()
		}
		if p.once {
			return nil
		}

		timer := time.NewTimer(p.PollInterval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Step runs one iteration. Failures are logged and reported, never
// returned.
func (p *Pipeline) Step(ctx context.Context) Outcome {
	p.setState(PipelineAwaitingFrame)

	frame, err := p.ports.Receiver.Next(ctx)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoFrame):
			p.logger.Debug("no frame available")
			p.record(ctx, func(s *domain.Status) { s.RecordNoData(p.now()) })
			return OutcomeNoData
		case ctx.Err() != nil:
			return OutcomeCanceled
		}
		p.captureFailed(ctx, StageReceive, err)
		return OutcomeCaptureFailed
	}

	p.setState(PipelineProcessing)
	defer p.setState(PipelineAwaitingFrame)

	logger := p.logger.With(log.String("trace_id", frame.TraceID))
	logger.Info("frame received", log.Int("bytes", frame.Size))

	img, err := p.ports.Processor.Process(frame)
	if err != nil {
		p.captureFailed(ctx, StageProcess, err)
		return OutcomeCaptureFailed
	}
	p.record(ctx, func(s *domain.Status) { s.RecordCapture(img) })

	raw, err := p.ports.Transcriber.Transcribe(ctx, img.Path)
	if err != nil {
		if ctx.Err() != nil {
			return OutcomeCanceled
		}
		p.captureFailed(ctx, StageTranscribe, err)
		return OutcomeCaptureFailed
	}
	logger.Info("transcription received", log.String("raw", raw))

	msg := p.ports.Interpreter.Interpret(ctx, raw)
	logger.Info("message decoded", log.String("text", msg.Text), log.Bool("sentinel", msg.Sentinel))

	if err := p.ports.Emitter.Emit(msg); err != nil {
		logger.Error("downstream write failed", log.Err(err))
		p.record(ctx, func(s *domain.Status) { s.RecordFailure(err, p.now()) })
		if p.events != nil {
			p.events.OnCaptureFailed(StageEmit, err)
		}
		return OutcomeEmitFailed
	}

	p.record(ctx, func(s *domain.Status) { s.RecordEmit(raw, msg, p.now()) })
	if p.events != nil {
		p.events.OnMessageEmitted(raw, msg)
	}
	return OutcomeEmitted
}

func (p *Pipeline) captureFailed(ctx context.Context, stage string, err error) {
	p.logger.Warn("capture failed", log.String("stage", stage), log.Err(err))
	p.record(ctx, func(s *domain.Status) { s.RecordFailure(err, p.now()) })
	if p.events != nil {
		p.events.OnCaptureFailed(stage, err)
	}
}

// record applies fn to the status and persists the result.
func (p *Pipeline) record(ctx context.Context, fn func(*domain.Status)) {
	p.mu.Lock()
	fn(&p.status)
	snapshot := p.status
	p.mu.Unlock()

	if p.ports.Status == nil {
		return
	}
	if err := p.ports.Status.Save(ctx, snapshot); err != nil {
		p.logger.Warn("failed to save status", log.Err(err))
	}
}

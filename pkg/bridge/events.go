package bridge

import (
	"time"

	"github.com/bft-labs/morsebridge/internal/app"
	"github.com/bft-labs/morsebridge/internal/domain"
)

// State is the lifecycle state of a Bridge.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	return app.State(s).String()
}

// StateChangeEvent is delivered on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// MessageEmittedEvent is delivered after a decoded message reached the
// display device.
type MessageEmittedEvent struct {
	Transcription string
	Message       string
	Sentinel      bool
	At            time.Time
}

// CaptureFailedEvent is delivered when an iteration was abandoned.
// Stage is one of "receive", "process", "transcribe" or "emit".
type CaptureFailedEvent struct {
	Stage string
	Error error
	At    time.Time
}

// EventHandler receives bridge notifications.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnMessageEmitted(event MessageEmittedEvent)
	OnCaptureFailed(event CaptureFailedEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to
// override only some methods.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)       {}
func (BaseEventHandler) OnMessageEmitted(MessageEmittedEvent) {}
func (BaseEventHandler) OnCaptureFailed(CaptureFailedEvent)   {}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
	now     func() time.Time
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: State(previous),
		Current:  State(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnMessageEmitted(transcription string, msg domain.DecodedMessage) {
	if e.handler == nil {
		return
	}
	e.handler.OnMessageEmitted(MessageEmittedEvent{
		Transcription: transcription,
		Message:       msg.Text,
		Sentinel:      msg.Sentinel,
		At:            e.now(),
	})
}

func (e *eventEmitterWrapper) OnCaptureFailed(stage string, err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnCaptureFailed(CaptureFailedEvent{
		Stage: stage,
		Error: err,
		At:    e.now(),
	})
}

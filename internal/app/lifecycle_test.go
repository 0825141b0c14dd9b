package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/morsebridge/internal/domain"
	"github.com/bft-labs/morsebridge/pkg/log"
)

// stateRecorder tracks state change events for testing.
type stateRecorder struct {
	mu     sync.Mutex
	events []stateChange
}

type stateChange struct {
	previous State
	current  State
	reason   string
}

func (r *stateRecorder) OnStateChange(previous, current State, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, stateChange{previous, current, reason})
}

func (r *stateRecorder) Events() []stateChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]stateChange{}, r.events...)
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateStopped, "Stopped"},
		{StateStarting, "Starting"},
		{StateRunning, "Running"},
		{StateStopping, "Stopping"},
		{StateCrashed, "Crashed"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestLifecycle_TransitionTo(t *testing.T) {
	all := []State{StateStopped, StateStarting, StateRunning, StateStopping, StateCrashed}
	valid := map[[2]State]bool{
		{StateStopped, StateStarting}:  true,
		{StateStarting, StateRunning}:  true,
		{StateStarting, StateStopping}: true,
		{StateStarting, StateCrashed}:  true,
		{StateRunning, StateStopping}:  true,
		{StateRunning, StateCrashed}:   true,
		{StateStopping, StateStopped}:  true,
		{StateStopping, StateCrashed}:  true,
		{StateCrashed, StateStarting}:  true,
	}

	for _, from := range all {
		for _, to := range all {
			l := NewLifecycle(log.NewNoopLogger(), nil)
			l.state = from
			err := l.TransitionTo(to, "test")

			if valid[[2]State{from, to}] {
				if err != nil {
					t.Errorf("%v -> %v: unexpected error %v", from, to, err)
				}
				if l.State() != to {
					t.Errorf("%v -> %v: state = %v", from, to, l.State())
				}
				continue
			}

			wantErr := domain.ErrAlreadyRunning
			if from == StateStopped || from == StateCrashed {
				wantErr = domain.ErrNotRunning
			}
			if !errors.Is(err, wantErr) {
				t.Errorf("%v -> %v: error = %v, want %v", from, to, err, wantErr)
			}
			if l.State() != from {
				t.Errorf("%v -> %v: state changed on invalid transition", from, to)
			}
		}
	}
}

func TestLifecycle_TransitionTo_EmitsEvents(t *testing.T) {
	rec := &stateRecorder{}
	l := NewLifecycle(nil, rec)

	_ = l.TransitionTo(StateStarting, "start")
	_ = l.TransitionTo(StateRunning, "started")
	_ = l.TransitionTo(StateStopped, "invalid")

	events := rec.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[1] != (stateChange{StateStarting, StateRunning, "started"}) {
		t.Errorf("event 1 = %+v", events[1])
	}
}

func TestLifecycle_CanStartCanStop(t *testing.T) {
	tests := []struct {
		state     State
		wantStart bool
		wantStop  bool
	}{
		{StateStopped, true, false},
		{StateStarting, false, true},
		{StateRunning, false, true},
		{StateStopping, false, false},
		{StateCrashed, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			l := NewLifecycle(nil, nil)
			l.state = tt.state
			if got := l.CanStart(); got != tt.wantStart {
				t.Errorf("CanStart() = %v, want %v", got, tt.wantStart)
			}
			if got := l.CanStop(); got != tt.wantStop {
				t.Errorf("CanStop() = %v, want %v", got, tt.wantStop)
			}
		})
	}
}

func TestLifecycle_Cancel(t *testing.T) {
	l := NewLifecycle(nil, nil)
	l.Cancel() // nil cancel is a no-op

	ctx, cancel := context.WithCancel(context.Background())
	l.SetCancel(cancel)
	l.Cancel()

	select {
	case <-ctx.Done():
	default:
		t.Error("context not canceled after Cancel()")
	}
}

func TestLifecycle_WaitWithTimeout(t *testing.T) {
	l := NewLifecycle(nil, nil)
	l.AddWorker()
	go func() {
		time.Sleep(10 * time.Millisecond)
		l.WorkerDone()
	}()
	if err := l.WaitWithTimeout(time.Second); err != nil {
		t.Errorf("WaitWithTimeout() = %v, want nil", err)
	}

	l.AddWorker()
	if err := l.WaitWithTimeout(10 * time.Millisecond); !errors.Is(err, domain.ErrShutdownTimeout) {
		t.Errorf("WaitWithTimeout() = %v, want ErrShutdownTimeout", err)
	}
	l.WorkerDone()
}

func TestLifecycle_Concurrency(t *testing.T) {
	l := NewLifecycle(nil, nil)
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = l.State()
				_ = l.CanStart()
				_ = l.CanStop()
			}
		}()
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.TransitionTo(StateStarting, "test")
			_ = l.TransitionTo(StateRunning, "test")
		}()
	}
	wg.Wait()

	if s := l.State(); s != StateRunning {
		t.Errorf("final state = %v, want Running", s)
	}
}

package bridge_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/morsebridge/pkg/bridge"
	"github.com/bft-labs/morsebridge/pkg/inference"
)

// syncBuffer is a display stream safe to read while the pipeline writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// blockingReader never returns until closed, like a port with no timeout.
type blockingReader struct {
	closed chan struct{}
}

func newBlockingReader() *blockingReader {
	return &blockingReader{closed: make(chan struct{})}
}

func (r *blockingReader) Read(p []byte) (int, error) {
	<-r.closed
	return 0, nil
}

func jpegFrame(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for x := 0; x < 4; x++ {
		img.Set(x, 1, color.Black)
	}
	var payload bytes.Buffer
	if err := jpeg.Encode(&payload, img, nil); err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "START_IMAGE\nSIZE:%d\n", payload.Len())
	b.Write(payload.Bytes())
	b.WriteString("END_IMAGE\n")
	return b.Bytes()
}

// morseModel answers transcription requests with marks and interpretation
// requests with text.
func morseModel(marks, text string) *inference.Mock {
	m := inference.NewMock()
	m.MessagesFunc = func(ctx context.Context, req *inference.Request) (*inference.Response, error) {
		if req.Messages[0].Content[0].Type == inference.BlockImage {
			return inference.TextResponse(marks), nil
		}
		return inference.TextResponse(text), nil
	}
	return m
}

func testConfig(t *testing.T) bridge.Config {
	t.Helper()
	cfg := bridge.DefaultConfig()
	cfg.OutputDir = filepath.Join(t.TempDir(), "captures")
	cfg.PollInterval = 10 * time.Millisecond
	cfg.Once = true
	return cfg
}

func waitDone(t *testing.T, b *bridge.Bridge) {
	t.Helper()
	select {
	case <-b.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not finish")
	}
}

type eventTracker struct {
	bridge.BaseEventHandler
	mu       sync.Mutex
	states   []bridge.StateChangeEvent
	messages []bridge.MessageEmittedEvent
	failures []bridge.CaptureFailedEvent
}

func (e *eventTracker) OnStateChange(ev bridge.StateChangeEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.states = append(e.states, ev)
}

func (e *eventTracker) OnMessageEmitted(ev bridge.MessageEmittedEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.messages = append(e.messages, ev)
}

func (e *eventTracker) OnCaptureFailed(ev bridge.CaptureFailedEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures = append(e.failures, ev)
}

func TestBridge_RelaysOneMessage(t *testing.T) {
	cfg := testConfig(t)
	display := &syncBuffer{}
	events := &eventTracker{}
	model := morseModel("...\n---\n...", "SOS")

	b, err := bridge.New(cfg, bytes.NewReader(jpegFrame(t)), display,
		bridge.WithProvider(model),
		bridge.WithEventHandler(events),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitDone(t, b)
	if b.State() != bridge.StateStopped {
		t.Fatalf("State() after single iteration = %v, want Stopped", b.State())
	}

	if got := display.String(); got != "SOS\n" {
		t.Errorf("display = %q, want %q", got, "SOS\n")
	}
	if n := model.CallCount("Messages"); n != 2 {
		t.Errorf("model calls = %d, want 2", n)
	}

	entries, err := os.ReadDir(cfg.OutputDir)
	if err != nil {
		t.Fatal(err)
	}
	var jpgs, statusFiles int
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".jpg"):
			jpgs++
		case e.Name() == "bridge-status.json":
			statusFiles++
		}
	}
	if jpgs != 1 || statusFiles != 1 {
		t.Errorf("output dir has %d images and %d status files", jpgs, statusFiles)
	}

	st := b.Status()
	if st.Emitted != 1 || st.LastMessage != "SOS" || st.LastTranscription != "...\n---\n..." {
		t.Errorf("Status() = %+v", st)
	}

	events.mu.Lock()
	defer events.mu.Unlock()
	if len(events.messages) != 1 || events.messages[0].Message != "SOS" {
		t.Errorf("message events = %+v", events.messages)
	}
	if len(events.failures) != 0 {
		t.Errorf("failure events = %+v", events.failures)
	}
	last := events.states[len(events.states)-1]
	if last.Current != bridge.StateStopped {
		t.Errorf("last state event = %v", last.Current)
	}
}

func TestBridge_ModelErrorEmitsSentinel(t *testing.T) {
	cfg := testConfig(t)
	display := &syncBuffer{}
	model := inference.NewMock()
	calls := 0
	model.MessagesFunc = func(ctx context.Context, req *inference.Request) (*inference.Response, error) {
		calls++
		if calls == 1 {
			return inference.TextResponse(".-"), nil
		}
		return nil, &inference.APIError{StatusCode: 529, Type: "overloaded_error", Message: "busy"}
	}

	b, err := bridge.New(cfg, bytes.NewReader(jpegFrame(t)), display, bridge.WithProvider(model))
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitDone(t, b)
	_ = b.Stop()

	if got := display.String(); got != "ERROR\n" {
		t.Errorf("display = %q, want ERROR line", got)
	}
}

func TestBridge_NoDataWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	display := &syncBuffer{}
	model := morseModel("", "")
	events := &eventTracker{}

	b, err := bridge.New(cfg, strings.NewReader("boot chatter\n"), display,
		bridge.WithProvider(model),
		bridge.WithEventHandler(events),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitDone(t, b)
	_ = b.Stop()

	if display.String() != "" {
		t.Errorf("display = %q, want nothing", display.String())
	}
	if model.CallCount("Messages") != 0 {
		t.Error("model called without a frame")
	}
	if st := b.Status(); st.NoData != 1 {
		t.Errorf("NoData = %d, want 1", st.NoData)
	}
}

func TestBridge_StopCancelsBlockedRead(t *testing.T) {
	cfg := testConfig(t)
	cfg.Once = false
	port := newBlockingReader()

	b, err := bridge.New(cfg, port, &syncBuffer{}, bridge.WithProvider(inference.NewMock()))
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)

	stopped := make(chan error, 1)
	go func() { stopped <- b.Stop() }()

	// The read returns once the port is closed, as a real port does.
	close(port.closed)

	select {
	case err := <-stopped:
		if err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() did not return")
	}
	if b.State() != bridge.StateStopped {
		t.Errorf("State() = %v, want Stopped", b.State())
	}
}

func TestBridge_StartStopErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Once = false

	b, err := bridge.New(cfg, strings.NewReader(""), &syncBuffer{}, bridge.WithProvider(inference.NewMock()))
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Stop(); !errors.Is(err, bridge.ErrNotRunning) {
		t.Errorf("Stop() before Start error = %v, want ErrNotRunning", err)
	}
	if err := b.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := b.Start(context.Background()); !errors.Is(err, bridge.ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}
	if err := b.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}

	// A stopped bridge can start again.
	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("restart error = %v", err)
	}
	if err := b.Stop(); err != nil {
		t.Errorf("Stop() after restart error = %v", err)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*bridge.Config)
		opts    []bridge.Option
		nilPort bool
	}{
		{name: "nil capture stream", nilPort: true, opts: []bridge.Option{bridge.WithProvider(inference.NewMock())}},
		{name: "bad quality", mutate: func(c *bridge.Config) { c.JPEGQuality = 500 }, opts: []bridge.Option{bridge.WithProvider(inference.NewMock())}},
		{name: "negative poll", mutate: func(c *bridge.Config) { c.PollInterval = -time.Second }, opts: []bridge.Option{bridge.WithProvider(inference.NewMock())}},
		{name: "no api key without provider", mutate: func(c *bridge.Config) { c.APIKey = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			var capture io.Reader = strings.NewReader("")
			if tt.nilPort {
				capture = nil
			}
			_, err := bridge.New(cfg, capture, &syncBuffer{}, tt.opts...)
			if !errors.Is(err, bridge.ErrInvalidConfig) {
				t.Errorf("New() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestNew_BuildsClientFromAPIKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.APIKey = "sk-test"
	if _, err := bridge.New(cfg, strings.NewReader(""), &syncBuffer{}); err != nil {
		t.Errorf("New() error = %v", err)
	}
}

func TestBridge_Tuner(t *testing.T) {
	cfg := testConfig(t)
	b, err := bridge.New(cfg, strings.NewReader(""), &syncBuffer{}, bridge.WithProvider(inference.NewMock()))
	if err != nil {
		t.Fatal(err)
	}

	b.SetPollInterval(2 * time.Second)
	if b.PollInterval() != 2*time.Second {
		t.Errorf("PollInterval() = %v", b.PollInterval())
	}
	b.SetPollInterval(0)
	if b.PollInterval() != 2*time.Second {
		t.Errorf("zero interval applied: %v", b.PollInterval())
	}

	b.SetPrompts("list marks", "decode marks")
	tp, ip := b.Prompts()
	if tp != "list marks" || ip != "decode marks" {
		t.Errorf("Prompts() = %q, %q", tp, ip)
	}

	b.SetPrompts("", "")
	tp, ip = b.Prompts()
	if tp != "list marks" || ip != "decode marks" {
		t.Errorf("empty prompts changed settings: %q, %q", tp, ip)
	}

	b.SetPrompts("", "read the marks")
	tp, ip = b.Prompts()
	if tp != "list marks" || ip != "read the marks" {
		t.Errorf("Prompts() after partial update = %q, %q", tp, ip)
	}
}

func TestBridge_OnceStopsItself(t *testing.T) {
	cfg := testConfig(t)
	plugins, order := newPlugins("a", "b")
	opts := []bridge.Option{bridge.WithProvider(morseModel(".", "E"))}
	for _, p := range plugins {
		opts = append(opts, bridge.WithPlugin(p))
	}

	// One frame per run; the receiver drops unread input after each frame.
	frames := io.MultiReader(bytes.NewReader(jpegFrame(t)), bytes.NewReader(jpegFrame(t)))
	b, err := bridge.New(cfg, frames, &syncBuffer{}, opts...)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitDone(t, b)

	if b.State() != bridge.StateStopped {
		t.Fatalf("State() = %v, want Stopped", b.State())
	}
	want := []string{"init:a", "init:b", "shutdown:b", "shutdown:a"}
	if strings.Join(*order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", *order, want)
	}
	if err := b.Stop(); !errors.Is(err, bridge.ErrNotRunning) {
		t.Errorf("Stop() after single iteration error = %v, want ErrNotRunning", err)
	}

	// The next Start runs another iteration without an explicit Stop.
	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	waitDone(t, b)
	if b.State() != bridge.StateStopped {
		t.Errorf("State() after second run = %v, want Stopped", b.State())
	}
	if st := b.Status(); st.Emitted != 2 {
		t.Errorf("Emitted = %d, want 2", st.Emitted)
	}
}

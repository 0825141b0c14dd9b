package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/morsebridge/internal/domain"
	"github.com/bft-labs/morsebridge/pkg/log"
)

// Default protocol settings.
const (
	DefaultStartToken      = "START_IMAGE"
	DefaultEndToken        = "END_IMAGE"
	DefaultSizePrefix      = "SIZE:"
	DefaultMaxPayloadBytes = 8 << 20 // 8MB
	DefaultMaxLineBytes    = 4096
	defaultReadChunk       = 4096
)

// InputResetter is implemented by ports that can drop bytes the OS has
// buffered but the process has not read yet. go.bug.st/serial ports do.
type InputResetter interface {
	ResetInputBuffer() error
}

// Config holds receiver settings.
type Config struct {
	StartToken      string
	EndToken        string
	SizePrefix      string
	MaxPayloadBytes int
	MaxLineBytes    int
}

// DefaultConfig returns the settings used by the capture firmware.
func DefaultConfig() Config {
	return Config{
		StartToken:      DefaultStartToken,
		EndToken:        DefaultEndToken,
		SizePrefix:      DefaultSizePrefix,
		MaxPayloadBytes: DefaultMaxPayloadBytes,
		MaxLineBytes:    DefaultMaxLineBytes,
	}
}

func (c *Config) setDefaults() {
	d := DefaultConfig()
	if c.StartToken == "" {
		c.StartToken = d.StartToken
	}
	if c.EndToken == "" {
		c.EndToken = d.EndToken
	}
	if c.SizePrefix == "" {
		c.SizePrefix = d.SizePrefix
	}
	if c.MaxPayloadBytes <= 0 {
		c.MaxPayloadBytes = d.MaxPayloadBytes
	}
	if c.MaxLineBytes <= 0 {
		c.MaxLineBytes = d.MaxLineBytes
	}
}

// Receiver reads frames from a byte stream. A read returning zero bytes is
// treated as the port's read timeout elapsing, which is how
// go.bug.st/serial reports it. io.EOF is treated the same way.
//
// A Receiver is not safe for concurrent use.
type Receiver struct {
	port    io.Reader
	cfg     Config
	logger  log.Logger
	now     func() time.Time
	pending []byte
	scratch []byte
}

// NewReceiver creates a receiver over port. If port implements
// InputResetter its OS buffer is flushed after every attempt.
func NewReceiver(port io.Reader, cfg Config, logger log.Logger) *Receiver {
	cfg.setDefaults()
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Receiver{
		port:    port,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		scratch: make([]byte, defaultReadChunk),
	}
}

// Next performs one receive attempt.
//
// It returns ErrNoData if no start marker arrived before a read timed out,
// a *ProtocolError for malformed frames, ctx.Err() if ctx is done between
// reads, or a wrapped I/O error from the port.
func (r *Receiver) Next(ctx context.Context) (domain.Frame, error) {
	defer r.resync()

	if err := r.awaitStart(ctx); err != nil {
		return domain.Frame{}, err
	}

	size, err := r.readSize()
	if err != nil {
		return domain.Frame{}, err
	}
	r.logger.Debug("receiving frame", log.Int("bytes", size))

	payload, err := r.readPayload(ctx, size)
	if err != nil {
		return domain.Frame{}, err
	}

	end, err := r.readLine()
	switch {
	case errors.Is(err, errReadTimeout):
		return domain.Frame{}, &ProtocolError{Kind: KindTimeout, Line: end}
	case errors.Is(err, errLineTooLong):
		return domain.Frame{}, &ProtocolError{Kind: KindLineTooLong}
	case err != nil:
		return domain.Frame{}, err
	}
	if end != r.cfg.EndToken {
		return domain.Frame{}, &ProtocolError{Kind: KindMissingEndMarker, Line: end}
	}

	return domain.Frame{
		Size:       size,
		Payload:    payload,
		ReceivedAt: r.now(),
		TraceID:    uuid.New().String(),
	}, nil
}

// awaitStart consumes lines until the start token.
func (r *Receiver) awaitStart(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := r.readLine()
		switch {
		case errors.Is(err, errReadTimeout):
			if line != "" {
				r.logger.Debug("device output", log.String("line", line))
			}
			return ErrNoData
		case errors.Is(err, errLineTooLong):
			return &ProtocolError{Kind: KindLineTooLong}
		case err != nil:
			return err
		}
		if line == r.cfg.StartToken {
			return nil
		}
		if line != "" {
			r.logger.Debug("device output", log.String("line", line))
		}
	}
}

func (r *Receiver) readSize() (int, error) {
	line, err := r.readLine()
	switch {
	case errors.Is(err, errReadTimeout):
		return 0, &ProtocolError{Kind: KindTimeout, Line: line}
	case errors.Is(err, errLineTooLong):
		return 0, &ProtocolError{Kind: KindLineTooLong}
	case err != nil:
		return 0, err
	}

	if !strings.HasPrefix(line, r.cfg.SizePrefix) {
		return 0, &ProtocolError{Kind: KindBadSize, Line: line}
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, r.cfg.SizePrefix)))
	if err != nil || n < 0 {
		return 0, &ProtocolError{Kind: KindBadSize, Line: line}
	}
	if n > r.cfg.MaxPayloadBytes {
		return 0, &ProtocolError{Kind: KindSizeTooLarge, Line: line, Got: n, Want: r.cfg.MaxPayloadBytes}
	}
	return n, nil
}

// readPayload accumulates exactly n bytes, never reading past them.
func (r *Receiver) readPayload(ctx context.Context, n int) ([]byte, error) {
	payload := make([]byte, 0, n)

	take := len(r.pending)
	if take > n {
		take = n
	}
	payload = append(payload, r.pending[:take]...)
	r.pending = r.pending[take:]

	for len(payload) < n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		buf := r.scratch
		if want := n - len(payload); want < len(buf) {
			buf = buf[:want]
		}
		m, err := r.read(buf)
		if err != nil {
			return nil, err
		}
		if m == 0 {
			return nil, &ProtocolError{Kind: KindTruncatedPayload, Got: len(payload), Want: n}
		}
		payload = append(payload, buf[:m]...)
	}
	return payload, nil
}

// readLine returns the next newline-terminated line with surrounding
// whitespace trimmed. On errReadTimeout the partial line read so far is
// returned alongside the error.
func (r *Receiver) readLine() (string, error) {
	for {
		if i := bytes.IndexByte(r.pending, '\n'); i >= 0 {
			line := strings.TrimSpace(string(r.pending[:i]))
			r.pending = r.pending[i+1:]
			return line, nil
		}
		if len(r.pending) > r.cfg.MaxLineBytes {
			return "", errLineTooLong
		}
		m, err := r.read(r.scratch)
		if err != nil {
			return "", err
		}
		if m == 0 {
			return strings.TrimSpace(string(r.pending)), errReadTimeout
		}
		r.pending = append(r.pending, r.scratch[:m]...)
	}
}

// read performs one port read into buf. Zero bytes with a nil error means
// the read timed out.
func (r *Receiver) read(buf []byte) (int, error) {
	n, err := r.port.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		return n, fmt.Errorf("capture: read: %w", err)
	}
	return n, nil
}

// resync discards everything not yet consumed, both in the receiver and in
// the OS input buffer.
func (r *Receiver) resync() {
	if n := len(r.pending); n > 0 {
		r.logger.Debug("discarding unread input", log.Int("bytes", n))
	}
	r.pending = r.pending[:0]
	if rs, ok := r.port.(InputResetter); ok {
		if err := rs.ResetInputBuffer(); err != nil {
			r.logger.Warn("reset input buffer failed", log.Err(err))
		}
	}
}

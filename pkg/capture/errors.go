package capture

import (
	"errors"
	"fmt"

	"github.com/bft-labs/morsebridge/internal/domain"
)

// ErrNoData is returned when no start marker arrived within the port's read
// timeout. It is the benign "no frame yet" outcome.
var ErrNoData = domain.ErrNoFrame

// errReadTimeout marks a read that returned zero bytes.
var errReadTimeout = errors.New("capture: read timeout")

// errLineTooLong marks a marker line that exceeded the configured limit.
var errLineTooLong = errors.New("capture: line too long")

// Kind classifies a malformed frame.
type Kind int

const (
	// KindBadSize means the line after START_IMAGE was not SIZE:<n>.
	KindBadSize Kind = iota + 1

	// KindSizeTooLarge means the declared size exceeds the receiver limit.
	KindSizeTooLarge

	// KindTruncatedPayload means the stream went quiet mid-payload.
	KindTruncatedPayload

	// KindMissingEndMarker means the line after the payload was not END_IMAGE.
	KindMissingEndMarker

	// KindTimeout means the stream went quiet while a marker line was expected.
	KindTimeout

	// KindLineTooLong means a marker line exceeded the receiver limit.
	KindLineTooLong
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindBadSize:
		return "bad size marker"
	case KindSizeTooLarge:
		return "size too large"
	case KindTruncatedPayload:
		return "truncated payload"
	case KindMissingEndMarker:
		return "missing end marker"
	case KindTimeout:
		return "marker timeout"
	case KindLineTooLong:
		return "line too long"
	default:
		return "unknown"
	}
}

// ProtocolError reports a malformed frame. The attempt is abandoned and the
// input buffer flushed; the caller should try again on the next iteration.
type ProtocolError struct {
	Kind Kind

	// Line is the offending marker line, when there was one.
	Line string

	// Got and Want are byte counts for KindTruncatedPayload and
	// KindSizeTooLarge.
	Got  int
	Want int
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	switch e.Kind {
	case KindTruncatedPayload:
		return fmt.Sprintf("capture: %s: got %d of %d bytes", e.Kind, e.Got, e.Want)
	case KindSizeTooLarge:
		return fmt.Sprintf("capture: %s: %d bytes exceeds limit of %d", e.Kind, e.Got, e.Want)
	}
	if e.Line != "" {
		return fmt.Sprintf("capture: %s: %q", e.Kind, e.Line)
	}
	return fmt.Sprintf("capture: %s", e.Kind)
}

// IsProtocolError reports whether err is a *ProtocolError, optionally of the
// given kinds.
func IsProtocolError(err error, kinds ...Kind) bool {
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		return false
	}
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if pe.Kind == k {
			return true
		}
	}
	return false
}

// Package downlink writes decoded messages to the display device.
//
// Each message is one newline-terminated UTF-8 line. The device reads up
// to DisplayWidth characters per line and sends nothing back.
package downlink

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/bft-labs/morsebridge/internal/domain"
	"github.com/bft-labs/morsebridge/pkg/log"
)

// DisplayWidth is how many characters the display device shows per message.
const DisplayWidth = 80

// Emitter writes messages to the downstream port.
type Emitter struct {
	w      io.Writer
	logger log.Logger
}

// NewEmitter creates an emitter writing to w.
func NewEmitter(w io.Writer, logger log.Logger) *Emitter {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Emitter{w: w, logger: logger}
}

// Line returns the bytes sent for text: surrounding whitespace trimmed and
// exactly one trailing newline.
func Line(text string) []byte {
	return []byte(strings.TrimSpace(text) + "\n")
}

// Emit writes msg as one line. There is no acknowledgement; a nil error
// only means the bytes were handed to the port.
func (e *Emitter) Emit(msg domain.DecodedMessage) error {
	line := Line(msg.Text)
	if n := utf8.RuneCount(line) - 1; n > DisplayWidth {
		e.logger.Warn("message longer than display",
			log.Int("chars", n),
			log.Int("display_width", DisplayWidth),
		)
	}
	if _, err := e.w.Write(line); err != nil {
		return fmt.Errorf("downlink: write: %w", err)
	}
	e.logger.Info("message sent",
		log.String("text", strings.TrimSuffix(string(line), "\n")),
		log.Bool("sentinel", msg.Sentinel),
	)
	return nil
}

package ports

import (
	"context"

	"github.com/bft-labs/morsebridge/internal/domain"
)

// Transcriber returns the raw dot/dash transcription of the image at path.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Interpreter converts a transcription into the final message. It never
// fails; failures surface as sentinel messages.
type Interpreter interface {
	Interpret(ctx context.Context, raw string) domain.DecodedMessage
}

// Emitter delivers a message downstream. No acknowledgement is expected.
type Emitter interface {
	Emit(msg domain.DecodedMessage) error
}

package ports

import (
	"context"

	"github.com/bft-labs/morsebridge/internal/domain"
)

// FrameReceiver performs one receive attempt on the capture stream.
// It returns domain.ErrNoFrame when the device was silent and a
// *capture.ProtocolError for malformed frames. Either way the next call
// starts on fresh input.
type FrameReceiver interface {
	Next(ctx context.Context) (domain.Frame, error)
}

// ImageProcessor turns a frame into a persisted image.
type ImageProcessor interface {
	Process(frame domain.Frame) (domain.CapturedImage, error)
}

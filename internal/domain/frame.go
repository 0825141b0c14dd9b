package domain

import (
	"image"
	"time"
)

// Frame is one length-prefixed image payload read from the capture device.
// Payload always holds exactly Size bytes.
type Frame struct {
	// Size is the byte count declared by the SIZE marker.
	Size int

	// Payload is the raw image data, treated opaquely until decode.
	Payload []byte

	// ReceivedAt is when the end marker was accepted.
	ReceivedAt time.Time

	// TraceID correlates log lines and status for this frame.
	TraceID string
}

// CapturedImage is a post-processed frame persisted to disk.
type CapturedImage struct {
	// Path is the file the oriented image was written to.
	Path string

	// Bounds are the pixel bounds of the saved image.
	Bounds image.Rectangle

	// CapturedAt is the timestamp used to name the file.
	CapturedAt time.Time

	// TraceID is copied from the frame the image came from.
	TraceID string
}

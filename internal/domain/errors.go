package domain

import "errors"

// Domain errors returned by the public API. Check them with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running bridge.
	ErrAlreadyRunning = errors.New("morsebridge: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped bridge.
	ErrNotRunning = errors.New("morsebridge: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("morsebridge: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("morsebridge: invalid configuration")

	// ErrNoFrame is returned by a frame receiver when the capture device
	// sent nothing within its read timeout.
	ErrNoFrame = errors.New("morsebridge: no frame available")
)

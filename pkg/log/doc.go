// Package log provides the logging abstraction used by morsebridge components.
//
// Components depend on the Logger interface only. The CLI wires in the
// zerolog adapter; library users and tests can pass their own implementation
// or the no-op logger:
//
//	logger := log.NewZerologAdapter(os.Stderr, "info")
//	capLog := logger.With(log.String("component", "capture"))
//	capLog.Info("frame received", log.Int("bytes", n))
//
// Implement Logger to route output into an existing logging setup.
package log

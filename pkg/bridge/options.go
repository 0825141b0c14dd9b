package bridge

import (
	"github.com/bft-labs/morsebridge/pkg/inference"
	"github.com/bft-labs/morsebridge/pkg/log"
)

// Option configures optional behavior of a Bridge.
type Option func(*options)

type options struct {
	logger       log.Logger
	provider     inference.Provider
	eventHandler EventHandler
	plugins      []Plugin
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithProvider replaces the hosted model client built from Config.
func WithProvider(p inference.Provider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithEventHandler sets a handler for bridge events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when the bridge starts.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

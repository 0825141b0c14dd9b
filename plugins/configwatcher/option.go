package configwatcher

import "github.com/bft-labs/morsebridge/pkg/bridge"

// WithConfigWatcher returns a bridge Option that enables config reloading.
// The bridge must be given a Config.ConfigPath.
//
// Usage:
//
//	b, err := bridge.New(cfg, capture, display,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        DebounceDelay: 250 * time.Millisecond,
//	    }),
//	)
func WithConfigWatcher(cfg Config) bridge.Option {
	return bridge.WithPlugin(New(cfg))
}

// WithDefaultConfigWatcher enables config reloading with a 100ms debounce.
func WithDefaultConfigWatcher() bridge.Option {
	return WithConfigWatcher(DefaultConfig())
}

package bridge

import (
	"context"
	"time"

	"github.com/bft-labs/morsebridge/pkg/log"
)

// Plugin extends a bridge with background behavior. Plugins never touch the
// serial devices.
type Plugin interface {
	// Name identifies the plugin in logs.
	Name() string

	// Initialize is called from Start. ctx is canceled when the bridge
	// stops. Returning an error aborts Start.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown is called from Stop, in reverse registration order.
	Shutdown(ctx context.Context) error
}

// PluginConfig is what a plugin can see of the bridge.
type PluginConfig struct {
	ConfigPath string
	OutputDir  string
	StateDir   string
	Logger     log.Logger
	Tuner      Tuner
}

// Tuner changes bridge settings while it runs. Changes apply from the next
// iteration. Zero values leave the current setting in place.
type Tuner interface {
	SetPollInterval(d time.Duration)
	SetPrompts(transcribe, interpret string)
}

// BasePlugin implements Plugin with no-ops. Embed it to override only some
// methods.
type BasePlugin struct{}

func (BasePlugin) Name() string                                   { return "base" }
func (BasePlugin) Initialize(context.Context, PluginConfig) error { return nil }
func (BasePlugin) Shutdown(context.Context) error                 { return nil }

// Package configwatcher reloads bridge tunables when the TOML config file
// changes. It applies poll_interval, transcribe_prompt and interpret_prompt
// without a restart; other keys need one.
package configwatcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/morsebridge/internal/cliconfig"
	"github.com/bft-labs/morsebridge/pkg/bridge"
	"github.com/bft-labs/morsebridge/pkg/log"
)

// Plugin watches the config file and pushes changes through a bridge.Tuner.
type Plugin struct {
	mu sync.Mutex

	debounceDelay time.Duration

	path     string
	tuner    bridge.Tuner
	logger   log.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
	reloads  int
}

// Config holds configuration options for the config watcher plugin.
type Config struct {
	// DebounceDelay is how long to wait after the last file event before
	// reloading. Editors often write a file in several steps.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{DebounceDelay: 100 * time.Millisecond}
}

// New creates a config watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Plugin{debounceDelay: cfg.DebounceDelay}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Initialize starts watching cfg.ConfigPath. Without a config path the
// plugin stays idle.
func (p *Plugin) Initialize(ctx context.Context, cfg bridge.PluginConfig) error {
	p.mu.Lock()
	p.path = cfg.ConfigPath
	p.tuner = cfg.Tuner
	p.logger = cfg.Logger
	if p.logger == nil {
		p.logger = log.NewNoopLogger()
	}
	p.mu.Unlock()

	if p.path == "" || p.tuner == nil {
		p.logger.Warn("config watcher disabled: no config file")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("configwatcher: create watcher: %w", err)
	}
	// The directory is watched so that atomic replace-by-rename is seen.
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("configwatcher: watch %s: %w", filepath.Dir(p.path), err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("config watcher plugin initialized", log.String("path", p.path))

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)

	return nil
}

// Shutdown stops the watcher and any pending reload.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.mu.Unlock()
	return nil
}

// Reloads returns how many times the file was applied.
func (p *Plugin) Reloads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reloads
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	name := filepath.Base(p.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			p.debounceReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("config watcher: watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceReload(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		if err := p.Reload(); err != nil {
			p.logger.Warn("config watcher: reload failed, keeping current settings", log.Err(err))
		}
	})
}

// Reload reads the config file and applies its tunables. Keys missing
// from the file leave the running values alone, so settings that came
// from flags or the environment survive a reload.
func (p *Plugin) Reload() error {
	p.mu.Lock()
	path, tuner := p.path, p.tuner
	p.mu.Unlock()

	fc, err := cliconfig.LoadFileConfig(path)
	if err != nil {
		return err
	}

	var poll time.Duration
	if fc.PollInterval != "" {
		poll, err = time.ParseDuration(fc.PollInterval)
		if err != nil {
			return fmt.Errorf("parse poll_interval: %w", err)
		}
		if poll <= 0 {
			return fmt.Errorf("poll_interval must be positive, got %s", fc.PollInterval)
		}
	}

	if poll > 0 {
		tuner.SetPollInterval(poll)
	}
	if fc.TranscribePrompt != "" || fc.InterpretPrompt != "" {
		tuner.SetPrompts(fc.TranscribePrompt, fc.InterpretPrompt)
	}

	p.mu.Lock()
	p.reloads++
	p.mu.Unlock()
	p.logger.Info("config reloaded", log.String("path", path))
	return nil
}

var _ bridge.Plugin = (*Plugin)(nil)

// Package capturecleanup keeps the capture directory of a bridge bounded.
// When the saved images exceed a high watermark it deletes the oldest ones
// until the total is under a low watermark.
package capturecleanup

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bft-labs/morsebridge/internal/adapters/fs"
	"github.com/bft-labs/morsebridge/pkg/bridge"
	"github.com/bft-labs/morsebridge/pkg/imaging"
	"github.com/bft-labs/morsebridge/pkg/log"
)

// Plugin periodically prunes old captures.
type Plugin struct {
	mu sync.RWMutex

	checkInterval time.Duration
	highWatermark int64
	lowWatermark  int64

	outputDir string
	stateDir  string
	logger    log.Logger
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Config holds configuration options for the cleanup plugin.
type Config struct {
	// CheckInterval is how often to measure the capture directory.
	// Default: 10 minutes
	CheckInterval time.Duration

	// HighWatermark is the size in bytes above which cleanup begins.
	// Default: 512 MiB
	HighWatermark int64

	// LowWatermark is the target size in bytes after cleanup.
	// Default: 80% of HighWatermark
	LowWatermark int64
}

const (
	defaultCheckInterval = 10 * time.Minute
	defaultHighWatermark = 512 << 20
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CheckInterval: defaultCheckInterval,
		HighWatermark: defaultHighWatermark,
		LowWatermark:  defaultHighWatermark / 10 * 8,
	}
}

// New creates a cleanup plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = defaultCheckInterval
	}
	if cfg.HighWatermark <= 0 {
		cfg.HighWatermark = defaultHighWatermark
	}
	if cfg.LowWatermark <= 0 || cfg.LowWatermark >= cfg.HighWatermark {
		cfg.LowWatermark = cfg.HighWatermark / 10 * 8
	}

	return &Plugin{
		checkInterval: cfg.CheckInterval,
		highWatermark: cfg.HighWatermark,
		lowWatermark:  cfg.LowWatermark,
	}
}

// WithCaptureCleanup returns a bridge Option that enables the plugin.
//
// Usage:
//
//	b, err := bridge.New(cfg, capture, display,
//	    capturecleanup.WithCaptureCleanup(capturecleanup.Config{
//	        HighWatermark: 1 << 30,
//	        LowWatermark:  768 << 20,
//	    }),
//	)
func WithCaptureCleanup(cfg Config) bridge.Option {
	return bridge.WithPlugin(New(cfg))
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "capturecleanup"
}

// Initialize starts the cleanup loop.
func (p *Plugin) Initialize(ctx context.Context, cfg bridge.PluginConfig) error {
	p.mu.Lock()
	p.outputDir = cfg.OutputDir
	p.stateDir = cfg.StateDir
	p.logger = cfg.Logger
	if p.logger == nil {
		p.logger = log.NewNoopLogger()
	}
	p.mu.Unlock()

	if p.outputDir == "" {
		p.logger.Warn("capture cleanup disabled: no output directory configured")
		return nil
	}

	cleanupCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("capture cleanup plugin initialized",
		log.Int64("high_watermark", p.highWatermark),
		log.Int64("low_watermark", p.lowWatermark))

	p.wg.Add(1)
	go p.cleanupLoop(cleanupCtx)

	return nil
}

// Shutdown stops the cleanup loop.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}

func (p *Plugin) cleanupLoop(ctx context.Context) {
	defer p.wg.Done()

	p.CleanupOnce(ctx)

	ticker := time.NewTicker(p.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.CleanupOnce(ctx)
		}
	}
}

// CleanupOnce runs a single check and returns the number of bytes freed.
// The most recent capture is never removed.
func (p *Plugin) CleanupOnce(ctx context.Context) int64 {
	p.mu.RLock()
	outputDir, stateDir, logger := p.outputDir, p.stateDir, p.logger
	p.mu.RUnlock()

	captures, err := listCaptures(outputDir)
	if err != nil {
		logger.Error("capture cleanup: list failed", log.Err(err))
		return 0
	}

	var curSize int64
	for _, c := range captures {
		curSize += c.size
	}
	if curSize <= p.highWatermark {
		return 0
	}

	protected := lastImagePath(stateDir)
	if len(captures) > 0 && protected == "" {
		protected = captures[len(captures)-1].path
	}

	var removed int64
	files := 0
	for _, c := range captures {
		if ctx.Err() != nil || curSize <= p.lowWatermark {
			break
		}
		if c.path == protected {
			continue
		}
		if err := os.Remove(c.path); err != nil {
			logger.Warn("capture cleanup: remove failed", log.String("path", c.path), log.Err(err))
			continue
		}
		curSize -= c.size
		removed += c.size
		files++
	}

	if removed > 0 {
		logger.Info("capture cleanup completed",
			log.Int("files", files),
			log.Int64("bytes_freed", removed),
			log.Int64("remaining_bytes", curSize))
	}
	return removed
}

type captureFile struct {
	path string
	size int64
}

// listCaptures returns capture files oldest first. Names embed the capture
// time, so lexical order is chronological.
func listCaptures(dir string) ([]captureFile, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []captureFile
	for _, e := range ents {
		if e.IsDir() || !imaging.IsCaptureFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, captureFile{path: filepath.Join(dir, e.Name()), size: info.Size()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out, nil
}

// lastImagePath reads the newest capture recorded in the status file.
func lastImagePath(stateDir string) string {
	if stateDir == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(stateDir, fs.StatusFileName))
	if err != nil {
		return ""
	}
	var st struct {
		LastImagePath string `json:"last_image_path"`
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return ""
	}
	return st.LastImagePath
}

package capturecleanup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/bft-labs/morsebridge/internal/adapters/fs"
	"github.com/bft-labs/morsebridge/internal/domain"
	"github.com/bft-labs/morsebridge/pkg/bridge"
	"github.com/bft-labs/morsebridge/pkg/log"
)

func writeCaptures(t *testing.T, dir string, n, size int) []string {
	t.Helper()
	var paths []string
	for i := 0; i < n; i++ {
		p := filepath.Join(dir, fmt.Sprintf("image_20250101_00000%d.jpg", i))
		if err := os.WriteFile(p, make([]byte, size), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return paths
}

func remaining(t *testing.T, dir string) []string {
	t.Helper()
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range ents {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func initialized(t *testing.T, cfg Config, outputDir string) *Plugin {
	t.Helper()
	p := New(cfg)
	p.outputDir = outputDir
	p.stateDir = outputDir
	p.logger = log.NewNoopLogger()
	return p
}

func TestCleanupOnce(t *testing.T) {
	tests := []struct {
		name      string
		protect   int // index protected through the status file, -1 for none
		wantFreed int64
		wantLeft  []string
	}{
		{
			name:      "removes oldest, keeps newest",
			protect:   -1,
			wantFreed: 300,
			wantLeft:  []string{"image_20250101_000003.jpg", "image_20250101_000004.jpg", "notes.txt"},
		},
		{
			name:      "keeps the capture named in the status file",
			protect:   0,
			wantFreed: 300,
			wantLeft:  []string{"bridge-status.json", "image_20250101_000000.jpg", "image_20250101_000004.jpg", "notes.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			paths := writeCaptures(t, dir, 5, 100)
			if err := os.WriteFile(filepath.Join(dir, "notes.txt"), make([]byte, 1000), 0o644); err != nil {
				t.Fatal(err)
			}
			if tt.protect >= 0 {
				st := domain.Status{LastImagePath: paths[tt.protect]}
				if err := fs.NewStatusFile(dir).Save(context.Background(), st); err != nil {
					t.Fatal(err)
				}
			}

			p := initialized(t, Config{HighWatermark: 300, LowWatermark: 200}, dir)
			if freed := p.CleanupOnce(context.Background()); freed != tt.wantFreed {
				t.Errorf("CleanupOnce() = %d, want %d", freed, tt.wantFreed)
			}

			got := remaining(t, dir)
			if fmt.Sprint(got) != fmt.Sprint(tt.wantLeft) {
				t.Errorf("remaining = %v, want %v", got, tt.wantLeft)
			}
		})
	}
}

func TestCleanupOnce_UnderWatermark(t *testing.T) {
	dir := t.TempDir()
	writeCaptures(t, dir, 3, 100)

	p := initialized(t, Config{HighWatermark: 1000, LowWatermark: 500}, dir)
	if freed := p.CleanupOnce(context.Background()); freed != 0 {
		t.Errorf("CleanupOnce() = %d, want 0", freed)
	}
	if n := len(remaining(t, dir)); n != 3 {
		t.Errorf("%d files left, want 3", n)
	}
}

func TestCleanupOnce_MissingDir(t *testing.T) {
	p := initialized(t, DefaultConfig(), filepath.Join(t.TempDir(), "absent"))
	if freed := p.CleanupOnce(context.Background()); freed != 0 {
		t.Errorf("CleanupOnce() = %d, want 0", freed)
	}
}

func TestNew_Defaults(t *testing.T) {
	p := New(Config{HighWatermark: 1000, LowWatermark: 5000})
	if p.lowWatermark != 800 {
		t.Errorf("lowWatermark = %d, want 800", p.lowWatermark)
	}
	if p.checkInterval != defaultCheckInterval {
		t.Errorf("checkInterval = %v", p.checkInterval)
	}
}

func TestPlugin_Lifecycle(t *testing.T) {
	dir := t.TempDir()
	writeCaptures(t, dir, 4, 100)

	p := New(Config{CheckInterval: time.Hour, HighWatermark: 150, LowWatermark: 100})
	err := p.Initialize(context.Background(), bridge.PluginConfig{
		OutputDir: dir,
		StateDir:  dir,
		Logger:    log.NewNoopLogger(),
	})
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	// The first check runs at startup.
	deadline := time.Now().Add(5 * time.Second)
	for len(remaining(t, dir)) != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if got := remaining(t, dir); len(got) != 1 || got[0] != "image_20250101_000003.jpg" {
		t.Errorf("remaining = %v, want only the newest capture", got)
	}
}

func TestPlugin_NoOutputDir(t *testing.T) {
	p := New(DefaultConfig())
	if err := p.Initialize(context.Background(), bridge.PluginConfig{}); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}

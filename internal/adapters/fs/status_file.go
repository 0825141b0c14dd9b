// Package fs holds filesystem adapters.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bft-labs/morsebridge/internal/domain"
)

// StatusFileName is the file written inside the state directory.
const StatusFileName = "bridge-status.json"

// StatusFile implements ports.StatusRepository with a JSON file.
type StatusFile struct {
	dir string
}

// NewStatusFile creates a repository writing into dir.
func NewStatusFile(dir string) *StatusFile {
	return &StatusFile{dir: dir}
}

// Path returns the full path to the status file.
func (r *StatusFile) Path() string {
	return filepath.Join(r.dir, StatusFileName)
}

// Load reads the last saved status. A missing file yields a zero Status.
func (r *StatusFile) Load(ctx context.Context) (domain.Status, error) {
	data, err := os.ReadFile(r.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Status{}, nil
	}
	if err != nil {
		return domain.Status{}, fmt.Errorf("read status: %w", err)
	}

	var status domain.Status
	if err := json.Unmarshal(data, &status); err != nil {
		return domain.Status{}, fmt.Errorf("parse status %s: %w", r.Path(), err)
	}
	return status, nil
}

// Save writes status to a temp file and renames it into place, so readers
// never see a partial file.
func (r *StatusFile) Save(ctx context.Context, status domain.Status) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	path := r.Path()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace status: %w", err)
	}
	return nil
}

package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// DefaultDir is the output directory used when none is configured.
	DefaultDir = "captured_images"

	// DefaultQuality is the JPEG quality used when none is configured.
	DefaultQuality = 75

	filePrefix   = "image_"
	fileExt      = ".jpg"
	fileTimeFmt  = "20060102_150405"
	maxCollision = 1000
)

// Store writes captured images into one directory.
type Store struct {
	dir     string
	quality int
}

// NewStore creates a store rooted at dir. A quality outside 1..100 falls
// back to DefaultQuality.
func NewStore(dir string, quality int) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	return &Store{dir: dir, quality: quality}
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// EnsureDir creates the output directory if it does not exist.
func (s *Store) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("imaging: create output dir: %w", err)
	}
	return nil
}

// FileName returns the base name for an image captured at t.
func FileName(t time.Time) string {
	return filePrefix + t.Format(fileTimeFmt) + fileExt
}

// IsCaptureFile reports whether name looks like a file written by Store.
func IsCaptureFile(name string) bool {
	return len(name) > len(filePrefix)+len(fileExt) &&
		name[:len(filePrefix)] == filePrefix &&
		filepath.Ext(name) == fileExt
}

// Save encodes img as JPEG under the name for t and returns the path.
// An existing file is never overwritten; a second capture within the same
// second gets a numeric suffix (image_..._1.jpg).
func (s *Store) Save(img image.Image, t time.Time) (string, error) {
	base := FileName(t)
	stem := base[:len(base)-len(fileExt)]

	for i := 0; i < maxCollision; i++ {
		name := base
		if i > 0 {
			name = stem + "_" + strconv.Itoa(i) + fileExt
		}
		path := filepath.Join(s.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("imaging: create %s: %w", path, err)
		}

		if err := jpeg.Encode(f, img, &jpeg.Options{Quality: s.quality}); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("imaging: encode %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", fmt.Errorf("imaging: close %s: %w", path, err)
		}
		return path, nil
	}
	return "", fmt.Errorf("imaging: no free file name for %s", base)
}

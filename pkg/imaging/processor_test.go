package imaging

import (
	"bytes"
	"errors"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bft-labs/morsebridge/internal/domain"
)

func jpegPayload(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gradient(w, h), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestProcessor_Process(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "captured_images")
	p := NewProcessor(NewStore(dir, 0), nil)
	at := time.Date(2025, 6, 1, 12, 30, 0, 0, time.Local)

	img, err := p.Process(domain.Frame{
		Size:       0,
		Payload:    jpegPayload(t, 8, 6),
		ReceivedAt: at,
		TraceID:    "trace-1",
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if want := filepath.Join(dir, "image_20250601_123000.jpg"); img.Path != want {
		t.Errorf("Path = %q, want %q", img.Path, want)
	}
	if img.Bounds.Dx() != 8 || img.Bounds.Dy() != 6 {
		t.Errorf("Bounds = %v, want 8x6", img.Bounds)
	}
	if !img.CapturedAt.Equal(at) {
		t.Errorf("CapturedAt = %v, want %v", img.CapturedAt, at)
	}
	if img.TraceID != "trace-1" {
		t.Errorf("TraceID = %q", img.TraceID)
	}

	data, err := os.ReadFile(img.Path)
	if err != nil {
		t.Fatalf("read saved image: %v", err)
	}
	if _, format, err := Decode(data); err != nil || format != "jpeg" {
		t.Errorf("saved file decode = %q, %v", format, err)
	}
}

func TestProcessor_Process_InvalidPayload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	p := NewProcessor(NewStore(dir, 0), nil)

	_, err := p.Process(domain.Frame{Size: 5, Payload: []byte("hello"), ReceivedAt: time.Now()})
	if err == nil {
		t.Fatal("Process() expected error for non-image payload")
	}
	if _, statErr := os.Stat(dir); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("output dir created for a failed decode")
	}
}

func TestProcessor_Process_ZeroTimeUsesClock(t *testing.T) {
	dir := t.TempDir()
	p := NewProcessor(NewStore(dir, 0), nil)
	fixed := time.Date(2024, 12, 31, 23, 59, 59, 0, time.Local)
	p.now = func() time.Time { return fixed }

	img, err := p.Process(domain.Frame{Payload: jpegPayload(t, 2, 2)})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if filepath.Base(img.Path) != "image_20241231_235959.jpg" {
		t.Errorf("Path = %q", img.Path)
	}
}

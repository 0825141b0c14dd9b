package decoder

import (
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

const defaultMediaType = "image/jpeg"

// EncodeFile reads the image at path and returns its media type and base64
// encoding. The media type comes from the file extension and falls back to
// image/jpeg.
func EncodeFile(path string) (mediaType, data string, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("decoder: read image: %w", err)
	}
	return MediaType(path), base64.StdEncoding.EncodeToString(raw), nil
}

// MediaType guesses an image media type from the file extension.
func MediaType(path string) string {
	t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	t = strings.TrimSpace(t)
	if !strings.HasPrefix(t, "image/") {
		return defaultMediaType
	}
	return t
}

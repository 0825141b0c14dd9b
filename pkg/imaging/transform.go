package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
)

// ErrEmptyPayload is returned by Decode for a zero-length payload.
var ErrEmptyPayload = errors.New("imaging: empty payload")

// Decode decodes a JPEG or PNG payload and reports its format name.
func Decode(payload []byte) (image.Image, string, error) {
	if len(payload) == 0 {
		return nil, "", ErrEmptyPayload
	}
	img, format, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("imaging: decode: %w", err)
	}
	return img, format, nil
}

// FlipHorizontal mirrors img left-to-right.
func FlipHorizontal(img image.Image) *image.RGBA {
	return remap(img, func(x, y, w, h int) (int, int) {
		return w - 1 - x, y
	})
}

// Rotate180 rotates img by half a turn.
func Rotate180(img image.Image) *image.RGBA {
	return remap(img, func(x, y, w, h int) (int, int) {
		return w - 1 - x, h - 1 - y
	})
}

// Orient applies the capture camera correction: FlipHorizontal followed by
// Rotate180. The combination is a top-to-bottom flip, so Orient is its own
// inverse.
func Orient(img image.Image) *image.RGBA {
	return Rotate180(FlipHorizontal(img))
}

// remap copies every pixel of img to the position returned by fn. The
// result is anchored at the origin.
func remap(img image.Image, fn func(x, y, w, h int) (int, int)) *image.RGBA {
	src := toRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := fn(x, y, w, h)
			si := src.PixOffset(x, y)
			di := dst.PixOffset(dx, dy)
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return dst
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

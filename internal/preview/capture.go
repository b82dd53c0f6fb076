package preview

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Preview surface defaults.
const (
	DefaultWidth   = 320
	DefaultHeight  = 180
	DefaultQuality = 90
)

// CropRect returns the source rectangle, relative to the frame's origin,
// that center-crops a srcW×srcH frame to the dstW:dstH aspect. A wider
// source loses columns on both sides, a taller source loses rows top and
// bottom, and a matching source is used whole.
func CropRect(srcW, srcH, dstW, dstH int) image.Rectangle {
	sourceRatio := float64(srcW) / float64(srcH)
	targetRatio := float64(dstW) / float64(dstH)

	sx, sy, sw, sh := 0, 0, srcW, srcH
	switch {
	case sourceRatio > targetRatio:
		sw = int(math.Round(float64(srcH) * targetRatio))
		sx = int(math.Round(float64(srcW-sw) / 2))
	case sourceRatio < targetRatio:
		sh = int(math.Round(float64(srcW) / targetRatio))
		sy = int(math.Round(float64(srcH-sh) / 2))
	}
	return image.Rect(sx, sy, sx+sw, sy+sh)
}

// Capture center-crops img to a width×height surface and encodes it as JPEG
// at the given quality. The crop is computed from the frame's live bounds;
// an empty frame falls back to the surface size and renders black.
func Capture(img image.Image, width, height, quality int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid capture surface %dx%d", width, height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))

	if img != nil {
		b := img.Bounds()
		srcW, srcH := b.Dx(), b.Dy()
		if srcW == 0 {
			srcW = width
		}
		if srcH == 0 {
			srcH = height
		}
		crop := CropRect(srcW, srcH, width, height).Add(b.Min).Intersect(b)
		if !crop.Empty() {
			draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, crop, draw.Src, nil)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

// Package background produces the opaque image every view is drawn over.
package background

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ftrvxmtrx/tga"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"multiview-renderer/internal/logging"
	"multiview-renderer/internal/resource"
)

// White is the default background color.
var White = color.RGBA{255, 255, 255, 255}

// Solid returns a w×h image filled with c.
func Solid(w, h int, c color.RGBA) *image.RGBA {
	c.A = 255
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// Load decodes a PNG, JPEG or TGA file and scales it to w×h. Transparent
// areas are flattened onto white so the result is opaque.
func Load(path string, w, h int) (*image.RGBA, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("background: read %s: %w", path, err)
	}

	src, err := decoderFor(path, raw)(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("background: decode %s: %w", path, err)
	}

	dst := Solid(w, h, White)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst, nil
}

// decoderFor picks a decoder by extension, then by magic bytes. The tga
// package registers itself with an empty magic that matches any input, so
// image.Decode cannot be trusted to dispatch.
func decoderFor(path string, raw []byte) func(io.Reader) (image.Image, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return png.Decode
	case ".jpg", ".jpeg":
		return jpeg.Decode
	case ".tga":
		return tga.Decode
	}
	switch {
	case bytes.HasPrefix(raw, []byte("\x89PNG\r\n\x1a\n")):
		return png.Decode
	case bytes.HasPrefix(raw, []byte{0xff, 0xd8}):
		return jpeg.Decode
	}
	return tga.Decode
}

// ParseColor parses "#rrggbb" or a named color ("white", "black").
func ParseColor(s string) (color.RGBA, error) {
	switch strings.ToLower(s) {
	case "white":
		return White, nil
	case "black":
		return color.RGBA{0, 0, 0, 255}, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("background: bad color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("background: bad color %q: %w", s, err)
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}, nil
}

// Resolve interprets value as empty (white), a color accepted by ParseColor,
// or an image path.
func Resolve(value string, w, h int) (*image.RGBA, error) {
	if value == "" {
		return Solid(w, h, White), nil
	}
	if c, err := ParseColor(value); err == nil {
		return Solid(w, h, c), nil
	}
	return Load(value, w, h)
}

// NewManager shares one decoded background between workers and drops it
// after idle with no holders. Holders must treat the image as read-only.
func NewManager(value string, w, h int, idle time.Duration, logger *zap.Logger) *resource.Manager[*image.RGBA] {
	log := logging.OrNop(logger).With(zap.String("component", "background"), zap.String("source", value))
	load := func(ctx context.Context) (*image.RGBA, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		img, err := Resolve(value, w, h)
		if err != nil {
			return nil, err
		}
		log.Debug("background loaded", zap.Int("width", w), zap.Int("height", h), zap.Duration("elapsed", time.Since(start)))
		return img, nil
	}
	return resource.NewManager(load, resource.Options[*image.RGBA]{
		IdleTimeout: idle,
		OnEvict: func(*image.RGBA) {
			log.Debug("background evicted")
		},
	})
}

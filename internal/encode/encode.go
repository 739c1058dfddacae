// Package encode serializes rendered views as PNG or WebP.
package encode

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/HugoSmits86/nativewebp"
)

// Format is an output image format.
type Format int

const (
	PNG Format = iota
	WebP
)

// ParseFormat accepts "png" or "webp" (case-insensitive). Empty means PNG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return PNG, nil
	case "webp":
		return WebP, nil
	}
	return 0, fmt.Errorf("encode: unknown format %q", s)
}

func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case WebP:
		return "webp"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Ext returns the file extension without the dot.
func (f Format) Ext() string { return f.String() }

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	var err error
	switch f {
	case PNG:
		err = png.Encode(w, img)
	case WebP:
		err = nativewebp.Encode(w, img, nil)
	default:
		return fmt.Errorf("encode: unsupported format %s", f)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", f, err)
	}
	return nil
}

// Bytes encodes img into memory.
func Bytes(img image.Image, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

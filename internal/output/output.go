// Package output writes rendered frames and their camera metadata to disk.
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"multiview-renderer/internal/render"
)

// DirSink writes each frame to Dir/<filename>.
type DirSink struct {
	Dir string
}

// WriteFrame implements render.Sink. The directory is created on demand.
func (s DirSink) WriteFrame(ctx context.Context, f render.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("output: create %s: %w", s.Dir, err)
	}
	path := filepath.Join(s.Dir, filepath.Base(f.Filename))
	if err := os.WriteFile(path, f.Data, 0644); err != nil {
		return fmt.Errorf("output: write %s: %w", path, err)
	}
	return nil
}

// PerspectivesName returns the metadata file name for a part.
func PerspectivesName(part string) string {
	return part + "_perspectives.json"
}

// WritePerspectives writes the camera list as an indented JSON array.
// A nil slice is written as [].
func WritePerspectives(path string, ps []render.Perspective) error {
	if ps == nil {
		ps = []render.Perspective{}
	}
	data, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return fmt.Errorf("output: marshal perspectives: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("output: create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("output: write %s: %w", path, err)
	}
	return nil
}

// ReadPerspectives loads a file written by WritePerspectives.
func ReadPerspectives(path string) ([]render.Perspective, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("output: read %s: %w", path, err)
	}
	var ps []render.Perspective
	if err := json.Unmarshal(data, &ps); err != nil {
		return nil, fmt.Errorf("output: parse %s: %w", path, err)
	}
	return ps, nil
}

package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Index maps part numbers (lowercase file stems) to input paths.
type Index struct {
	entries map[string]string
}

// BuildIndex walks dir for .stl files. When two files share a stem the
// lexically first path wins so the index is stable across runs.
func BuildIndex(dir string) (*Index, error) {
	idx := &Index{entries: make(map[string]string)}
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) != ".stl" {
			return nil
		}
		stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		if existing, ok := idx.entries[stem]; !ok || path < existing {
			idx.entries[stem] = path
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// ResolvePath returns the input path of a part number, or ("", false).
func (idx *Index) ResolvePath(part string) (string, bool) {
	path, ok := idx.entries[strings.ToLower(part)]
	return path, ok
}

// PartNumbers returns all indexed part numbers, sorted.
func (idx *Index) PartNumbers() []string {
	parts := make([]string, 0, len(idx.entries))
	for p := range idx.entries {
		parts = append(parts, p)
	}
	sort.Strings(parts)
	return parts
}

// Len returns the number of indexed inputs.
func (idx *Index) Len() int {
	return len(idx.entries)
}

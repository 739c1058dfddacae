package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Manifest summarizes a batch run.
type Manifest struct {
	RunID     string    `json:"run_id"`
	Generated time.Time `json:"generated"`
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Shapes    []Result  `json:"shapes"`
}

// NewManifest tallies results.
func NewManifest(runID string, results []Result) Manifest {
	m := Manifest{RunID: runID, Generated: time.Now().UTC(), Total: len(results), Shapes: results}
	if m.Shapes == nil {
		m.Shapes = []Result{}
	}
	for _, r := range results {
		if r.Success {
			m.Succeeded++
		} else {
			m.Failed++
		}
	}
	return m
}

// WriteManifest writes manifest.json to path.
func WriteManifest(path, runID string, results []Result) error {
	data, err := json.MarshalIndent(NewManifest(runID, results), "", "  ")
	if err != nil {
		return fmt.Errorf("batch: marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("batch: write %s: %w", path, err)
	}
	return nil
}

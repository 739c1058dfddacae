package batch

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"multiview-renderer/internal/edges"
	"multiview-renderer/internal/metrics"
	"multiview-renderer/internal/pipeline"
	"multiview-renderer/internal/render"
	stlfix "multiview-renderer/internal/testutil"
)

type fakeRunner struct {
	calls atomic.Int32
	fail  string
}

func (f *fakeRunner) Run(_ context.Context, job pipeline.Job) (*pipeline.Outcome, error) {
	f.calls.Add(1)
	time.Sleep(time.Millisecond)
	if job.PartNumber == f.fail {
		return nil, errors.New("bad geometry")
	}
	return &pipeline.Outcome{
		Success:    true,
		PartNumber: job.PartNumber,
		OutputDir:  filepath.Join(job.OutputDir, job.PartNumber),
		Images:     []string{job.PartNumber + "_view_000.png"},
	}, nil
}

func items(n int) []Item {
	out := make([]Item, n)
	for i := range out {
		out[i] = Item{PartNumber: string(rune('a' + i)), Path: string(rune('a'+i)) + ".stl"}
	}
	return out
}

func TestRunKeepsItemOrder(t *testing.T) {
	runner := &fakeRunner{fail: "c"}
	m := metrics.NewCollector()
	results := Run(context.Background(), Config{
		Runner:   runner,
		Template: pipeline.Job{OutputDir: "/out"},
		Workers:  4,
		Logger:   zap.NewNop(),
		Metrics:  m,
		Progress: time.Millisecond,
	}, items(10))

	require.Len(t, results, 10)
	assert.Equal(t, int32(10), runner.calls.Load())
	for i, r := range results {
		assert.Equal(t, string(rune('a'+i)), r.PartNumber)
		if r.PartNumber == "c" {
			assert.False(t, r.Success)
			assert.Equal(t, "bad geometry", r.Error)
			continue
		}
		assert.True(t, r.Success, r.PartNumber)
		assert.Equal(t, filepath.Join("/out", r.PartNumber), r.OutputDir)
	}

	series, err := testutil.GatherAndCount(m.Registry(), "multiview_shapes_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series)
	assert.Equal(t, 9.0, shapes(t, m, "ok"))
	assert.Equal(t, 1.0, shapes(t, m, "failed"))
}

func shapes(t *testing.T, m *metrics.Collector, status string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != "multiview_shapes_total" {
			continue
		}
		for _, metric := range fam.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "status" && l.GetValue() == status {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := &fakeRunner{}
	results := Run(ctx, Config{Runner: runner, Workers: 2}, items(3))
	assert.Zero(t, runner.calls.Load())
	for _, r := range results {
		assert.False(t, r.Success)
		assert.Equal(t, context.Canceled.Error(), r.Error)
	}
}

func TestDiscoverAndRenderEndToEnd(t *testing.T) {
	in := t.TempDir()
	stlfix.WriteSTLFile(t, in, "B2.stl", stlfix.UnitCube())
	sub := filepath.Join(in, "sub")
	require.NoError(t, os.MkdirAll(sub, 0755))
	stlfix.WriteSTLFile(t, sub, "a1.STL", stlfix.UnitCube())

	found, err := Discover(in)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "a1", found[0].PartNumber)
	assert.Equal(t, "b2", found[1].PartNumber)

	out := t.TempDir()
	results := Run(context.Background(), Config{
		Runner: pipeline.NewSTL(edges.DefaultFeatureAngle, render.New(nil, nil), nil, nil),
		Template: pipeline.Job{
			OutputDir: out, Mode: render.Wireframe, Views: 2, Width: 32, Height: 24,
		},
		Workers: 2,
	}, found)
	for _, r := range results {
		require.True(t, r.Success, r.Error)
		assert.Len(t, r.Images, 2)
		_, err := os.Stat(r.Perspectives)
		assert.NoError(t, err)
	}
}

func TestWriteManifest(t *testing.T) {
	runID := uuid.NewString()
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, WriteManifest(path, runID, []Result{
		{PartNumber: "a", Success: true, Images: []string{"a_view_000.png"}},
		{PartNumber: "b", Error: "boom"},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, runID, m.RunID)
	assert.Equal(t, 2, m.Total)
	assert.Equal(t, 1, m.Succeeded)
	assert.Equal(t, 1, m.Failed)
	assert.Equal(t, "boom", m.Shapes[1].Error)
	assert.False(t, m.Generated.IsZero())
}

func TestNewManifestEmpty(t *testing.T) {
	m := NewManifest("r", nil)
	assert.NotNil(t, m.Shapes)
	assert.Zero(t, m.Total)
}

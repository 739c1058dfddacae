package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"multiview-renderer/internal/camera"
	"multiview-renderer/internal/edges"
	"multiview-renderer/internal/mathutil"
	"multiview-renderer/internal/mesh"
	"multiview-renderer/internal/metrics"
	"multiview-renderer/internal/testutil"
)

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"shaded":            Shaded,
		"Wireframe":         Wireframe,
		"shaded_with_edges": ShadedWithEdges,
		"shaded-with-edges": ShadedWithEdges,
	}
	for in, want := range cases {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	for _, m := range Modes {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	_, err := ParseMode("hidden_line")
	assert.ErrorIs(t, err, ErrUnknownMode)
	assert.ErrorIs(t, Mode(7).Validate(), ErrUnknownMode)
	_, err = Mode(7).NeedsMesh()
	assert.ErrorIs(t, err, ErrUnknownMode)
	_, err = Mode(-1).NeedsAdjacency()
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestModeRequirements(t *testing.T) {
	for _, tc := range []struct {
		mode      Mode
		mesh, adj bool
	}{
		{Shaded, true, true},
		{Wireframe, false, false},
		{ShadedWithEdges, true, false},
	} {
		m, err := tc.mode.NeedsMesh()
		require.NoError(t, err)
		a, err := tc.mode.NeedsAdjacency()
		require.NoError(t, err)
		assert.Equal(t, tc.mesh, m, tc.mode.String())
		assert.Equal(t, tc.adj, a, tc.mode.String())
	}
}

func cubeEdges(opts edges.Options) *edges.Set {
	set, _ := edges.FromMesh(testutil.UnitCube(), opts)
	return set
}

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestWireframeFiveViews(t *testing.T) {
	sink := &MemorySink{}
	res, err := New(zap.NewNop(), nil).Render(context.Background(), Request{
		PartNumber: "bracket",
		Mode:       Wireframe,
		Edges:      cubeEdges(edges.Options{}),
		Views:      5,
		Width:      160,
		Height:     120,
		EdgeWidth:  2,
	}, sink)
	require.NoError(t, err)

	require.Len(t, sink.Frames, 5)
	require.Len(t, res.Perspectives, 5)
	require.Len(t, res.Images, 5)

	name := regexp.MustCompile(`^bracket_view_\d{3}_az\d{3}_el\d{3}\.png$`)
	white := color.RGBA{255, 255, 255, 255}
	black := color.RGBA{0, 0, 0, 255}
	for i, f := range sink.Frames {
		assert.Regexp(t, name, f.Filename)
		assert.Equal(t, f.Filename, res.Images[i])
		assert.Equal(t, i, res.Perspectives[i].Index)
		assert.Equal(t, f.Filename, res.Perspectives[i].Filename)

		img := decode(t, f.Data)
		assert.Equal(t, image.Rect(0, 0, 160, 120), img.Bounds())
		edgePixels := 0
		for y := 0; y < 120; y++ {
			for x := 0; x < 160; x++ {
				c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
				switch c {
				case white:
				case black:
					edgePixels++
				default:
					t.Fatalf("frame %d pixel (%d,%d) = %v", i, x, y, c)
				}
			}
		}
		assert.Positive(t, edgePixels, "frame %d draws edges", i)
	}
}

func TestShadedUsesSilhouettes(t *testing.T) {
	sink := &MemorySink{}
	res, err := New(nil, nil).Render(context.Background(), Request{
		PartNumber:   "cube",
		Mode:         Shaded,
		Mesh:         testutil.UnitCube(),
		Edges:        cubeEdges(edges.Options{IncludeSmooth: true, WithAdjacency: true}),
		Views:        3,
		Width:        96,
		Height:       72,
		EdgeColor:    [3]float64{1, 0, 0},
		Supersample:  2,
		Transparency: 1,
	}, sink)
	require.NoError(t, err)
	require.Len(t, res.Perspectives, 3)

	var red, shaded int
	for _, f := range sink.Frames {
		img := decode(t, f.Data)
		for y := 0; y < 72; y++ {
			for x := 0; x < 96; x++ {
				c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
				switch {
				case c == color.RGBA{255, 0, 0, 255}:
					red++
				case c.R != 255 || c.G != 255 || c.B != 255:
					shaded++
				}
			}
		}
	}
	assert.Positive(t, red)
	assert.Positive(t, shaded)
}

func TestZeroTransparencyShowsOnlyEdges(t *testing.T) {
	sink := &MemorySink{}
	_, err := New(nil, nil).Render(context.Background(), Request{
		PartNumber:   "cube",
		Mode:         ShadedWithEdges,
		Mesh:         testutil.UnitCube(),
		Edges:        cubeEdges(edges.Options{}),
		Views:        2,
		Width:        64,
		Height:       48,
		EdgeColor:    [3]float64{1, 0, 0},
		Supersample:  2,
		Transparency: 0,
	}, sink)
	require.NoError(t, err)
	require.Len(t, sink.Frames, 2)

	red := 0
	for i, f := range sink.Frames {
		img := decode(t, f.Data)
		for y := 0; y < 48; y++ {
			for x := 0; x < 64; x++ {
				c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
				if c.R != 255 || c.G != c.B {
					t.Fatalf("frame %d pixel (%d,%d) = %v is neither background nor edge", i, x, y, c)
				}
				if c.G < 255 {
					red++
				}
			}
		}
	}
	assert.Positive(t, red)
}

func TestShadedWithoutAdjacencyDrawsNoEdges(t *testing.T) {
	j := &job{Request: Request{Mode: Shaded}, segs: cubeEdges(edges.Options{}).Segments}
	segs, err := j.edgesFor(camera0())
	require.NoError(t, err)
	assert.Empty(t, segs)

	j.Mode = ShadedWithEdges
	segs, err = j.edgesFor(camera0())
	require.NoError(t, err)
	assert.Len(t, segs, 12)

	j.Mode = Mode(42)
	_, err = j.edgesFor(camera0())
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestShadedRequiresMesh(t *testing.T) {
	r := New(nil, nil)
	for _, m := range []Mode{Shaded, ShadedWithEdges} {
		_, err := r.Render(context.Background(), Request{Mode: m, Views: 1, Width: 10, Height: 10}, &MemorySink{})
		assert.ErrorIs(t, err, ErrMissingMesh, m.String())
	}
	_, err := r.Render(context.Background(), Request{
		Mode: Shaded, Mesh: &mesh.Mesh{}, Views: 1, Width: 10, Height: 10,
	}, &MemorySink{})
	assert.ErrorIs(t, err, ErrMissingMesh)
}

func TestEmptyResults(t *testing.T) {
	r := New(nil, nil)
	sink := &MemorySink{}

	res, err := r.Render(context.Background(), Request{
		PartNumber: "p", Mode: Wireframe, Edges: cubeEdges(edges.Options{}), Views: 0, Width: 10, Height: 10,
	}, sink)
	require.NoError(t, err)
	assert.Empty(t, res.Perspectives)

	res, err = r.Render(context.Background(), Request{
		PartNumber: "p", Mode: Wireframe, Edges: &edges.Set{}, Views: 4, Width: 10, Height: 10,
	}, sink)
	require.NoError(t, err)
	assert.Empty(t, res.Images)

	res, err = r.Render(context.Background(), Request{
		PartNumber: "p", Mode: Wireframe, Views: 4, Width: 10, Height: 10,
	}, sink)
	require.NoError(t, err)
	assert.Empty(t, res.Images)
	assert.Empty(t, sink.Frames)
}

func TestRejectsBadRequest(t *testing.T) {
	r := New(nil, nil)
	_, err := r.Render(context.Background(), Request{Mode: Mode(9), Width: 10, Height: 10}, &MemorySink{})
	assert.ErrorIs(t, err, ErrUnknownMode)

	_, err = r.Render(context.Background(), Request{Mode: Wireframe, Width: 0, Height: 10}, &MemorySink{})
	assert.ErrorIs(t, err, ErrBadSize)
}

func TestParallelMatchesSerial(t *testing.T) {
	req := Request{
		PartNumber:   "gear",
		Mode:         ShadedWithEdges,
		Mesh:         testutil.UnitCube(),
		Edges:        cubeEdges(edges.Options{}),
		Views:        7,
		Width:        64,
		Height:       48,
		Transparency: 0.7,
	}
	serial := &MemorySink{}
	_, err := New(nil, nil).Render(context.Background(), req, serial)
	require.NoError(t, err)

	req.Workers = 3
	parallel := &MemorySink{}
	res, err := New(nil, nil).Render(context.Background(), req, parallel)
	require.NoError(t, err)

	require.Len(t, parallel.Frames, 7)
	for i := range serial.Frames {
		assert.Equal(t, serial.Frames[i].Filename, parallel.Frames[i].Filename)
		assert.Equal(t, serial.Frames[i].Data, parallel.Frames[i].Data)
		assert.Equal(t, i, res.Perspectives[i].Index)
	}
}

type failingSink struct {
	after int
	n     int
}

var errDiskFull = errors.New("disk full")

func (s *failingSink) WriteFrame(context.Context, Frame) error {
	s.n++
	if s.n > s.after {
		return errDiskFull
	}
	return nil
}

func TestSinkFailureIsFatal(t *testing.T) {
	res, err := New(nil, nil).Render(context.Background(), Request{
		PartNumber: "p", Mode: Wireframe, Edges: cubeEdges(edges.Options{}), Views: 4, Width: 32, Height: 24,
		Workers: 2,
	}, &failingSink{after: 1})
	assert.ErrorIs(t, err, errDiskFull)
	assert.Nil(t, res)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil, nil).Render(ctx, Request{
		PartNumber: "p", Mode: Wireframe, Edges: cubeEdges(edges.Options{}), Views: 4, Width: 32, Height: 24,
	}, &MemorySink{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderRecordsMetrics(t *testing.T) {
	m := metrics.NewCollector()
	_, err := New(nil, m).Render(context.Background(), Request{
		PartNumber: "p", Mode: Wireframe, Edges: cubeEdges(edges.Options{}), Views: 2, Width: 32, Height: 24,
	}, &MemorySink{})
	require.NoError(t, err)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var views float64
	for _, fam := range families {
		if fam.GetName() == "multiview_views_rendered_total" {
			views = fam.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, views)
}

func TestPerspectiveJSON(t *testing.T) {
	data, err := json.Marshal(Perspective{
		Index: 3, Filename: "a.png", Azimuth: 10, Elevation: 20,
	})
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.ElementsMatch(t,
		[]string{"filename", "azimuth", "elevation", "camera_position", "camera_direction"},
		keys(fields))
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func camera0() camera.View {
	return camera.Generate(1, mathutil.Vec3{}, 3)[0]
}

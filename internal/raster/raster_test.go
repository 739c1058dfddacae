package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multiview-renderer/internal/camera"
	"multiview-renderer/internal/mathutil"
	"multiview-renderer/internal/testutil"
)

func TestMaskDrawLine(t *testing.T) {
	m := NewMask(8, 8)
	m.DrawLine(0, 0, 4, 0)
	assert.Equal(t, 5, m.Count())
	for x := 0; x <= 4; x++ {
		assert.True(t, m.At(x, 0), "x=%d", x)
	}

	m = NewMask(8, 8)
	m.DrawLine(7, 7, 0, 0)
	assert.Equal(t, 8, m.Count())
	assert.True(t, m.At(3, 3))

	m = NewMask(8, 8)
	m.DrawLine(2, 5, 2, 5)
	assert.Equal(t, 1, m.Count())
}

func TestMaskIgnoresOutOfBounds(t *testing.T) {
	m := NewMask(4, 4)
	m.DrawLine(-3, 1, 6, 1)
	assert.Equal(t, 4, m.Count())
	assert.False(t, m.At(-1, 1))
	assert.False(t, m.At(4, 1))
}

func TestMaskDilate(t *testing.T) {
	m := NewMask(9, 9)
	m.Set(4, 4)
	m.Dilate(1)
	assert.Equal(t, 5, m.Count())
	assert.False(t, m.At(3, 3), "cross, not square")

	m.Dilate(1)
	assert.Equal(t, 13, m.Count())

	corner := NewMask(5, 5)
	corner.Set(0, 0)
	corner.Dilate(1)
	assert.Equal(t, 3, corner.Count())

	none := NewMask(3, 3)
	none.Set(1, 1)
	none.Dilate(0)
	assert.Equal(t, 1, none.Count())
}

func TestShadeDoubleSided(t *testing.T) {
	lc := DefaultLightConfig()
	mat := DefaultMaterial(1)
	n := mathutil.Vec3{0.3, -0.4, 0.866}.Normalize()
	assert.Equal(t, lc.Shade(n, mat), lc.Shade(n.Neg(), mat))

	c := lc.Shade(mathutil.AxisZ, mat)
	assert.Less(t, c[0], uint8(255))
	assert.Greater(t, c[0], uint8(100))
	assert.GreaterOrEqual(t, c[2], c[0], "blue-tinted base color")
}

func TestDefaultMaterialClampsAlpha(t *testing.T) {
	assert.Equal(t, 1.0, DefaultMaterial(3).Alpha)
	assert.Equal(t, 0.0, DefaultMaterial(-1).Alpha)
}

func frontCamera(t *testing.T, ctx *Context) *CameraSlot {
	t.Helper()
	w, h := ctx.Size()
	pose := camera.LookAt(mathutil.Vec3{0, 0, 4}, mathutil.Vec3{}, mathutil.AxisY)
	slot, err := ctx.AcquireCamera(pose, camera.ProjectionFor(w, h, 4))
	require.NoError(t, err)
	return slot
}

func TestContextEmptySceneIsBackground(t *testing.T) {
	ctx := NewContext(32, 24, 2)
	bg := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for i := range bg.Pix {
		bg.Pix[i] = 77
	}
	require.NoError(t, ctx.SetScene(Scene{Background: bg}))

	slot := frontCamera(t, ctx)
	defer slot.Release()
	img, err := slot.Render()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 24), img.Bounds())
	assert.Equal(t, bg.Pix, img.Pix)

	img.Pix[0] = 1
	assert.Equal(t, uint8(77), bg.Pix[0], "render returns a copy")
}

func TestContextRendersMesh(t *testing.T) {
	ctx := NewContext(64, 48, 2)
	require.NoError(t, ctx.SetScene(Scene{Mesh: testutil.UnitCube(), Material: DefaultMaterial(1)}))

	slot := frontCamera(t, ctx)
	img, err := slot.Render()
	require.NoError(t, err)
	slot.Release()

	want := DefaultLightConfig().Shade(mathutil.AxisZ, DefaultMaterial(1))
	center := img.RGBAAt(32, 24)
	assert.InDelta(t, float64(want[0]), float64(center.R), 2)
	assert.InDelta(t, float64(want[2]), float64(center.B), 2)
	assert.Equal(t, uint8(255), center.A)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(63, 47))

	again := frontCamera(t, ctx)
	img2, err := again.Render()
	require.NoError(t, err)
	again.Release()
	assert.Equal(t, img.Pix, img2.Pix, "rendering is deterministic")
}

func TestContextTransparency(t *testing.T) {
	opaque := NewContext(64, 48, 1)
	require.NoError(t, opaque.SetScene(Scene{Mesh: testutil.UnitCube(), Material: DefaultMaterial(1)}))
	glass := NewContext(64, 48, 1)
	require.NoError(t, glass.SetScene(Scene{Mesh: testutil.UnitCube(), Material: DefaultMaterial(0.5)}))

	s1 := frontCamera(t, opaque)
	a, err := s1.Render()
	require.NoError(t, err)
	s2 := frontCamera(t, glass)
	b, err := s2.Render()
	require.NoError(t, err)

	ca, cb := a.RGBAAt(32, 24), b.RGBAAt(32, 24)
	assert.Greater(t, cb.R, ca.R)
	assert.Less(t, cb.R, uint8(255))
}

func TestCameraSlotLifecycle(t *testing.T) {
	ctx := NewContext(16, 16, 1)
	require.NoError(t, ctx.SetScene(Scene{}))

	slot := frontCamera(t, ctx)
	_, err := ctx.AcquireCamera(mathutil.Mat4Identity(), camera.ProjectionFor(16, 16, 1))
	assert.ErrorIs(t, err, ErrCameraBusy)

	slot.Release()
	slot.Release()
	_, err = slot.Render()
	assert.ErrorIs(t, err, ErrSlotReleased)

	next := frontCamera(t, ctx)
	next.Release()
}

func TestAcquireSingularPose(t *testing.T) {
	ctx := NewContext(16, 16, 1)
	_, err := ctx.AcquireCamera(mathutil.Mat4{}, camera.ProjectionFor(16, 16, 1))
	assert.ErrorIs(t, err, camera.ErrSingularPose)

	// A failed acquire leaves the context free.
	slot := frontCamera(t, ctx)
	slot.Release()
}

func TestSetSceneRejectsWrongBackground(t *testing.T) {
	ctx := NewContext(16, 16, 1)
	err := ctx.SetScene(Scene{Background: image.NewRGBA(image.Rect(0, 0, 8, 8))})
	assert.Error(t, err)
}

func setPixels(m *Mask) [][2]int {
	var out [][2]int
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.At(x, y) {
				out = append(out, [2]int{x, y})
			}
		}
	}
	return out
}

func TestMaskDrawLineTies(t *testing.T) {
	cases := []struct {
		x0, y0, x1, y1 int
		want           [][2]int
	}{
		{0, 0, 2, 1, [][2]int{{0, 0}, {1, 0}, {2, 1}}},
		{0, 0, 4, 2, [][2]int{{0, 0}, {1, 0}, {2, 1}, {3, 1}, {4, 2}}},
		{1, 1, 5, 3, [][2]int{{1, 1}, {2, 1}, {3, 2}, {4, 2}, {5, 3}}},
	}
	for _, tc := range cases {
		m := NewMask(8, 8)
		m.DrawLine(tc.x0, tc.y0, tc.x1, tc.y1)
		assert.Equal(t, tc.want, setPixels(m), "%d,%d -> %d,%d", tc.x0, tc.y0, tc.x1, tc.y1)
	}
}

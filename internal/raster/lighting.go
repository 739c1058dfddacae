package raster

import (
	"math"

	"multiview-renderer/internal/mathutil"
)

// DirectionalLight shines along Dir (unit, direction of travel).
type DirectionalLight struct {
	Dir       mathutil.Vec3
	Color     mathutil.Vec3
	Intensity float64
}

// LightConfig holds the fixed world-space light rig.
type LightConfig struct {
	Ambient  float64
	Lights   []DirectionalLight
	Exposure float64 // scales light intensity into display range
	InvGamma float64
}

// DefaultLightConfig returns a key/fill/rim rig of three directional lights
// placed at (3,-3,5), (-5,0,3) and (0,5,2) and aimed at the origin.
func DefaultLightConfig() LightConfig {
	aim := func(x, y, z float64) mathutil.Vec3 {
		return mathutil.Vec3{-x, -y, -z}.Normalize()
	}
	return LightConfig{
		Ambient: 0.3,
		Lights: []DirectionalLight{
			{Dir: aim(3, -3, 5), Color: mathutil.Vec3{1, 1, 1}, Intensity: 4.0},
			{Dir: aim(-5, 0, 3), Color: mathutil.Vec3{1, 1, 1}, Intensity: 2.5},
			{Dir: aim(0, 5, 2), Color: mathutil.Vec3{0.9, 0.9, 1.0}, Intensity: 1.5},
		},
		Exposure: 0.35,
		InvGamma: 1.0 / 2.2,
	}
}

// Material is a flat base color with an opacity.
type Material struct {
	BaseColor mathutil.Vec3 // linear RGB, 0..1
	Alpha     float64       // 0 transparent .. 1 opaque
}

// DefaultMaterial is the brushed-metal grey used for CAD parts.
func DefaultMaterial(alpha float64) Material {
	return Material{
		BaseColor: mathutil.Vec3{0.6, 0.6, 0.65},
		Alpha:     mathutil.Clamp01(alpha),
	}
}

// Shade returns the display (sRGB) color of a face with the given normal.
// Lighting is double-sided so inconsistent STL winding still renders.
func (lc LightConfig) Shade(normal mathutil.Vec3, m Material) [3]uint8 {
	var light mathutil.Vec3
	for _, l := range lc.Lights {
		ndl := math.Abs(normal.Dot(l.Dir))
		light = light.Add(l.Color.Scale(ndl * l.Intensity * lc.Exposure))
	}

	var out [3]uint8
	for c := 0; c < 3; c++ {
		lin := m.BaseColor[c] * (lc.Ambient + light[c])
		out[c] = clamp255(math.Pow(ACESTonemap(lin), lc.InvGamma) * 255)
	}
	return out
}

// ACESTonemap applies ACES Filmic tone mapping to a linear value.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// Package camera places cameras around a shape and maps world points to
// image pixels.
package camera

import (
	"fmt"
	"math"

	"multiview-renderer/internal/mathutil"
)

// poleLimit is the |z| of the sampling direction above which the world Z up
// vector would be nearly parallel to the view direction.
const poleLimit = 0.9

// View is one camera placement. Direction is a unit vector from Position
// toward the target centre.
type View struct {
	Index     int
	Name      string
	Position  mathutil.Vec3
	Direction mathutil.Vec3
	Up        mathutil.Vec3
	Azimuth   int // degrees, [0, 360)
	Elevation int // polar angle from +Z in degrees, [0, 180]
}

// Generate places numViews cameras at distance from center on a Fibonacci
// sphere. The result depends only on the arguments, so view i always maps
// to the same image across runs.
func Generate(numViews int, center mathutil.Vec3, distance float64) []View {
	if numViews <= 0 {
		return []View{}
	}
	views := make([]View, numViews)
	n := float64(numViews)
	for i := range views {
		theta := math.Acos(1 - 2*(float64(i)+0.5)/n)
		phi := 2 * math.Pi * float64(i) / mathutil.GoldenRatio

		dir := mathutil.Vec3{
			math.Sin(theta) * math.Cos(phi),
			math.Sin(theta) * math.Sin(phi),
			math.Cos(theta),
		}

		up := mathutil.AxisZ
		if math.Abs(dir[2]) > poleLimit {
			up = mathutil.AxisY
		}

		az := int(math.Mod(mathutil.Rad2Deg(phi), 360))
		el := int(mathutil.Rad2Deg(theta))

		views[i] = View{
			Index:     i,
			Name:      fmt.Sprintf("view_%03d_az%03d_el%03d", i, az, el),
			Position:  center.Add(dir.Scale(distance)),
			Direction: dir.Neg(),
			Up:        up,
			Azimuth:   az,
			Elevation: el,
		}
	}
	return views
}

package mathutil

import "math"

// GoldenRatio is (1+√5)/2, the azimuth step divisor of the Fibonacci sphere.
var GoldenRatio = (1 + math.Sqrt(5)) / 2

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(r float64) float64 {
	return r * 180 / math.Pi
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

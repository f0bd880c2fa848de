package scoring

import "math"

// KellyFraction returns edge / implied as an informational sizing figure.
// A non-positive or non-finite implied probability yields 0.
func KellyFraction(edge, implied float64) float64 {
	if implied <= 0 || math.IsNaN(implied) || math.IsInf(implied, 0) || math.IsNaN(edge) {
		return 0
	}
	return edge / implied
}

package geocode

import (
	"fmt"
	"math"
)

// Key is the canonical cache key: both coordinates at six decimals, so the
// same spot always maps to the same entry whatever its float representation.
func Key(lat, lon float64) string {
	return fmt.Sprintf("%.6f,%.6f", canonical(lat, 6), canonical(lon, 6))
}

// Placeholder is the raw-coordinate text shown before, or instead of, a
// resolved name.
func Placeholder(lat, lon float64) string {
	return fmt.Sprintf("%.4f, %.4f", canonical(lat, 4), canonical(lon, 4))
}

// canonical folds values that round to zero onto +0 so "-0.000000" never
// shows up as a separate key.
func canonical(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	if math.Abs(v)*p < 0.5 {
		return 0
	}
	return v
}

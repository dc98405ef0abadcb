package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// MegnoSlope fits <Y>(t) = alpha + beta*t by least squares. beta is the
// batch counterpart of the streaming Lyapunov estimate.
func MegnoSlope(times, megno []float64) (alpha, beta float64) {
	if len(times) < 2 || len(times) != len(megno) {
		return 0, 0
	}
	return stat.LinearRegression(times, megno, nil, false)
}

// Regime labels a final MEGNO value.
type Regime string

const (
	Regular   Regime = "regular"
	Chaotic   Regime = "chaotic"
	Unsettled Regime = "unsettled"
)

// RegularTolerance is the band around <Y> = 2 accepted as quasi-periodic.
const RegularTolerance = 0.1

// Classify maps <Y> to a regime. Values well below 2 mean the run is
// too short for <Y> to settle.
func Classify(megno float64) Regime {
	switch {
	case math.IsNaN(megno):
		return Unsettled
	case math.Abs(megno-2) <= RegularTolerance:
		return Regular
	case megno > 2+RegularTolerance:
		return Chaotic
	default:
		return Unsettled
	}
}

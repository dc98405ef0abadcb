package megno

import (
	"fmt"
	"math"

	"github.com/san-kum/orbsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// minChunk keeps small systems on one goroutine.
const minChunk = 16

// Accelerations overwrites Acc of every shadow with the gravitational
// acceleration linearized around the real bodies. Shadow k only reads
// shared state and writes its own entry. A shadow count other than zero
// or N is rejected with ErrDimensionMismatch.
func Accelerations(s *dynamo.Simulation) error {
	n := s.NMegno()
	if n == 0 {
		return nil
	}
	if n != s.N() {
		return fmt.Errorf("%w: %d shadows for %d bodies", dynamo.ErrDimensionMismatch, n, s.N())
	}
	bodies, shadows := s.Bodies, s.Shadows
	eps2 := s.Softening * s.Softening

	dynamo.ParallelFor(n, minChunk, func(start, end int) {
		for k := start; k < end; k++ {
			var da r3.Vec
			for j := 0; j < n; j++ {
				if j == k || bodies[j].Mass == 0 {
					continue
				}
				d := r3.Sub(bodies[k].Pos, bodies[j].Pos)
				dd := r3.Sub(shadows[k].Pos, shadows[j].Pos)

				r2 := r3.Dot(d, d) + eps2
				r := math.Sqrt(r2)
				r3inv := 1 / (r2 * r)
				r5inv := 3 * r3inv / r2

				Gm := s.G * bodies[j].Mass
				tidal := r3.Sub(r3.Scale(r5inv*r3.Dot(d, dd), d), r3.Scale(r3inv, dd))
				da = r3.Add(da, r3.Scale(Gm, tidal))
			}
			shadows[k].Acc = da
		}
	})
	return nil
}

// DeltadDelta2 returns the logarithmic growth rate of the shadow norm,
// sum(x.v + v.a) / sum(x.x + v.v), or 0 for a vanishing displacement.
func DeltadDelta2(shadows []dynamo.Body) float64 {
	deltad, delta2 := 0.0, 0.0
	for _, d := range shadows {
		deltad += r3.Dot(d.Vel, d.Pos) + r3.Dot(d.Acc, d.Vel)
		delta2 += r3.Dot(d.Pos, d.Pos) + r3.Dot(d.Vel, d.Vel)
	}
	if delta2 == 0 {
		return 0
	}
	return deltad / delta2
}

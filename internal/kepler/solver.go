package kepler

import (
	"fmt"
	"math"

	"github.com/san-kum/orbsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// MaxIterations caps the Newton iteration on the universal anomaly.
	MaxIterations = 50

	// MaxSubdivisions bounds how often a failed drift is retried as two
	// half drifts.
	MaxSubdivisions = 4

	// Tolerance is the relative change in X that ends the iteration.
	Tolerance = 1e-15

	// StallTolerance accepts X once Newton steps stop shrinking at the
	// rounding floor of the residual.
	StallTolerance = 1e-11
)

// ConvergenceError reports a Kepler solve that ran out of iterations or
// produced a non-finite anomaly.
type ConvergenceError struct {
	Dt         float64
	X          float64
	Step       float64
	Iterations int
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("kepler: no convergence after %d iterations (dt=%g, X=%g, dX=%g)",
		e.Iterations, e.Dt, e.X, e.Step)
}

func (e *ConvergenceError) Unwrap() error {
	return dynamo.ErrNoConvergence
}

// Solution is a converged universal anomaly together with G_0..G_5 at X.
type Solution struct {
	X          float64
	G          [6]float64
	Iterations int
}

// Solve finds X with r0 X + eta0 G2 + zeta0 G3 = dt. The residual is
// monotonic in X, so Newton steps are kept inside a sign bracket and
// replaced by bisection whenever they would leave it.
func Solve(r0, eta0, zeta0, beta, dt float64) (Solution, error) {
	eval := func(X float64) (s, sp float64, g [6]float64) {
		g = Gs(beta, X)
		s = r0*X + eta0*g[2] + zeta0*g[3] - dt
		sp = r0 + eta0*g[1] + zeta0*g[2]
		return s, sp, g
	}

	if dt == 0 {
		return Solution{G: Gs(beta, 0)}, nil
	}
	lo, hi, err := bracket(r0, beta, zeta0, dt, eval)
	if err != nil {
		return Solution{}, err
	}

	X := dt / r0
	if !(X > lo && X < hi) {
		X = 0.5 * (lo + hi)
	}
	prev := math.Inf(1)
	// sizes of the last two steps; a Newton step that does not beat half
	// of the older one is replaced by bisection
	last, older := hi-lo, hi-lo

	for it := 1; it <= MaxIterations; it++ {
		s, sp, g := eval(X)
		if math.IsNaN(s) || math.IsNaN(sp) {
			return Solution{}, &ConvergenceError{Dt: dt, X: X, Step: s, Iterations: it}
		}
		switch {
		case s < 0:
			lo = X
		case s > 0:
			hi = X
		default:
			return Solution{X: X, G: g, Iterations: it}, nil
		}

		next := X - s/sp
		if next == X {
			return finish(beta, X, dt, 0, it)
		}
		newton := next > lo && next < hi
		if newton {
			step := math.Abs(next - X)
			newton = step <= 0.5*older || step < StallTolerance*math.Abs(X)
		}
		if !newton {
			next = 0.5 * (lo + hi)
		}
		dX := next - X
		X = next

		step := math.Abs(dX)
		older, last = last, step
		converged := step < Tolerance*math.Abs(X) || (step < StallTolerance*math.Abs(X) && step >= prev)
		if newton && converged {
			return finish(beta, X, dt, dX, it)
		}
		if hi-lo <= Tolerance*math.Abs(X) {
			return finish(beta, X, dt, dX, it)
		}
		if newton {
			prev = step
		}
	}

	return Solution{}, &ConvergenceError{Dt: dt, X: X, Step: prev, Iterations: MaxIterations}
}

func finish(beta, X, dt, dX float64, it int) (Solution, error) {
	g := Gs(beta, X)
	for _, v := range g {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Solution{}, &ConvergenceError{Dt: dt, X: X, Step: dX, Iterations: it}
		}
	}
	return Solution{X: X, G: g, Iterations: it}, nil
}

// bracket returns lo < hi with s(lo) <= 0 <= s(hi). Bound orbits use the
// fact that s grows by one period for every 2 pi/sqrt(beta) of X.
func bracket(r0, beta, zeta0, dt float64, eval func(float64) (float64, float64, [6]float64)) (lo, hi float64, err error) {
	sign := 1.0
	if dt < 0 {
		sign = -1
	}
	M := zeta0 + beta*r0

	if beta > 0 {
		span := 2 * math.Pi / math.Sqrt(beta)
		period := 2 * math.Pi * M / (beta * math.Sqrt(beta))
		k := math.Floor(math.Abs(dt)/period) + 2
		if sign > 0 {
			return 0, k * span, nil
		}
		return -k * span, 0, nil
	}

	// X grows like ln(r)/sqrt(-beta) on a hyperbola, so the search starts
	// small and doubles instead of starting from dt/r0.
	inner, outer := 0.0, dt/r0
	if beta < 0 {
		outer = sign * math.Min(math.Abs(dt)/r0, 1/math.Sqrt(-beta))
	}
	for i := 0; i < 128; i++ {
		s, _, _ := eval(outer)
		if math.IsNaN(s) {
			// overflow past the root
			outer = 0.5 * (inner + outer)
			continue
		}
		if s*sign >= 0 {
			if sign > 0 {
				return inner, outer, nil
			}
			return outer, inner, nil
		}
		inner = outer
		outer *= 2
	}
	return 0, 0, &ConvergenceError{Dt: dt, X: outer, Step: math.NaN()}
}

// Drift advances the Jacobi state p over dt on a Kepler orbit with
// gravitational parameter M. When dp is non-nil it is advanced through
// the derivative of the same map. On error neither p nor dp is modified.
func Drift(p, dp *dynamo.Body, M, dt float64) error {
	if dt == 0 {
		return nil
	}
	return drift(p, dp, M, dt, 0)
}

func drift(p, dp *dynamo.Body, M, dt float64, depth int) error {
	err := driftOnce(p, dp, M, dt)
	if err == nil || depth >= MaxSubdivisions {
		return err
	}

	q := *p
	var dq *dynamo.Body
	if dp != nil {
		c := *dp
		dq = &c
	}
	for half := 0; half < 2; half++ {
		if err := drift(&q, dq, M, dt/2, depth+1); err != nil {
			return err
		}
	}
	*p = q
	if dp != nil {
		*dp = *dq
	}
	return nil
}

func driftOnce(p, dp *dynamo.Body, M, dt float64) error {
	x, v := p.Pos, p.Vel

	r0 := r3.Norm(x)
	v2 := r3.Dot(v, v)
	beta := 2*M/r0 - v2
	eta0 := r3.Dot(x, v)
	zeta0 := M - beta*r0

	sol, err := Solve(r0, eta0, zeta0, beta, dt)
	if err != nil {
		return err
	}
	X := sol.X
	G0, G1, G2, G3, G4, G5 := sol.G[0], sol.G[1], sol.G[2], sol.G[3], sol.G[4], sol.G[5]

	r := r0 + eta0*G1 + zeta0*G2
	f := 1 - M*G2/r0
	g := dt - M*G3
	fd := -M * G1 / (r0 * r)
	gd := 1 - M*G2/r

	if dp != nil {
		dx, dv := dp.Pos, dp.Vel

		dr0 := r3.Dot(dx, x) / r0
		dbeta := -2*M*dr0/(r0*r0) - 2*r3.Dot(dv, v)
		deta0 := r3.Dot(dx, v) + r3.Dot(x, dv)
		dzeta0 := -beta*dr0 - r0*dbeta

		G3beta := 0.5 * (3*G5 - X*G4)
		G2beta := 0.5 * (2*G4 - X*G3)
		G1beta := 0.5 * (G3 - X*G2)
		tbeta := eta0*G2beta + zeta0*G3beta

		dX := -1 / r * (X*dr0 + G2*deta0 + G3*dzeta0 + tbeta*dbeta)
		dG1 := G0*dX + G1beta*dbeta
		dG2 := G1*dX + G2beta*dbeta
		dG3 := G2*dX + G3beta*dbeta

		dr := dr0 + G1*deta0 + G2*dzeta0 + eta0*dG1 + zeta0*dG2
		df := M*G2*dr0/(r0*r0) - M*dG2/r0
		dg := -M * dG3
		dfd := -M*dG1/(r0*r) + M*G1*(dr0/r0+dr/r)/(r*r0)
		dgd := -M*dG2/r + M*G2*dr/(r*r)

		dp.Pos = r3.Vec{
			X: f*dx.X + g*dv.X + df*x.X + dg*v.X,
			Y: f*dx.Y + g*dv.Y + df*x.Y + dg*v.Y,
			Z: f*dx.Z + g*dv.Z + df*x.Z + dg*v.Z,
		}
		dp.Vel = r3.Vec{
			X: fd*dx.X + gd*dv.X + dfd*x.X + dgd*v.X,
			Y: fd*dx.Y + gd*dv.Y + dfd*x.Y + dgd*v.Y,
			Z: fd*dx.Z + gd*dv.Z + dfd*x.Z + dgd*v.Z,
		}
	}

	p.Pos = r3.Vec{X: f*x.X + g*v.X, Y: f*x.Y + g*v.Y, Z: f*x.Z + g*v.Z}
	p.Vel = r3.Vec{X: fd*x.X + gd*v.X, Y: fd*x.Y + gd*v.Y, Z: fd*x.Z + gd*v.Z}
	return nil
}

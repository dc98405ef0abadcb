package kepler

import (
	"math"
	"testing"
)

func TestCAtZero(t *testing.T) {
	if got := C(0, 0); got != 1 {
		t.Errorf("C(0,0) = %v, want 1", got)
	}
	if got := C(1, 0); got != 1 {
		t.Errorf("C(1,0) = %v, want 1", got)
	}

	factorial := 1.0
	for n := 0; n <= 10; n++ {
		if n > 0 {
			factorial *= float64(n)
		}
		want := 1 / factorial
		if got := C(n, 0); math.Abs(got-want) > 1e-16*want {
			t.Errorf("C(%d,0) = %v, want %v", n, got, want)
		}
	}
}

func TestQuarteringMatchesSeries(t *testing.T) {
	zs := []float64{0.51, 0.6, 1.0, 2.0, 3.5, -0.8, -2.0, -3.0}

	for _, z := range zs {
		for n := 0; n <= 5; n++ {
			quartered := C(n, z)
			series := Series(n, z)
			tol := 1e-14 * math.Max(1, math.Abs(series))
			if math.Abs(quartered-series) > tol {
				t.Errorf("C(%d,%g) = %.17g, series %.17g (diff %.3g)", n, z, quartered, series, quartered-series)
			}
		}
	}
}

func TestClosedForms(t *testing.T) {
	tests := []struct {
		z   float64
		tol float64
	}{
		{0.3, 1e-13},
		{1.7, 1e-12},
		{10, 1e-11},
		{40, 1e-9},
		{-0.3, 1e-13},
		{-1.7, 1e-12},
		{-10, 1e-11},
	}

	for _, tt := range tests {
		var c0, c1, c2 float64
		if tt.z > 0 {
			s := math.Sqrt(tt.z)
			c0 = math.Cos(s)
			c1 = math.Sin(s) / s
			c2 = (1 - math.Cos(s)) / tt.z
		} else {
			s := math.Sqrt(-tt.z)
			c0 = math.Cosh(s)
			c1 = math.Sinh(s) / s
			c2 = (1 - math.Cosh(s)) / tt.z
		}

		want := []float64{c0, c1, c2}
		for n, w := range want {
			got := C(n, tt.z)
			if math.Abs(got-w) > tt.tol*math.Max(1, math.Abs(w)) {
				t.Errorf("C(%d,%g) = %.17g, want %.17g", n, tt.z, got, w)
			}
		}
	}
}

func TestRecurrence(t *testing.T) {
	// c_n(z) = 1/n! - z c_{n+2}(z)
	for _, z := range []float64{0.2, 0.9, 5, -0.7, -4} {
		for n := 0; n <= 3; n++ {
			lhs := C(n, z)
			rhs := inverseFactorial(n) - z*C(n+2, z)
			if math.Abs(lhs-rhs) > 1e-13*math.Max(1, math.Abs(lhs)) {
				t.Errorf("recurrence n=%d z=%g: %.17g vs %.17g", n, z, lhs, rhs)
			}
		}
	}
}

func TestHighOrderUsesSeries(t *testing.T) {
	for _, z := range []float64{0.1, 2.0, -2.0} {
		if C(7, z) != Series(7, z) {
			t.Errorf("C(7,%g) should equal the series", z)
		}
	}
	if !math.IsNaN(C(-1, 1)) {
		t.Error("negative order should be NaN")
	}
}

func TestQuarteringDepthBound(t *testing.T) {
	for _, z := range []float64{1e300, -1e300, math.Inf(1), math.NaN()} {
		if got := C(0, z); !math.IsNaN(got) {
			t.Errorf("C(0,%g) = %v, want NaN", z, got)
		}
	}
}

func TestGsMatchesG(t *testing.T) {
	cases := []struct{ beta, X float64 }{
		{1.0, 0.3},
		{1.0, 2.5},
		{0.0, 1.2},
		{-0.5, 1.7},
		{2.3, -0.9},
	}

	for _, tc := range cases {
		gs := Gs(tc.beta, tc.X)
		for n := 0; n <= 5; n++ {
			want := G(n, tc.beta, tc.X)
			if math.Abs(gs[n]-want) > 1e-15*math.Max(1, math.Abs(want)) {
				t.Errorf("Gs(%g,%g)[%d] = %.17g, G = %.17g", tc.beta, tc.X, n, gs[n], want)
			}
		}
	}
}

func TestGParabolic(t *testing.T) {
	// beta = 0 reduces G_n to X^n/n!
	X := 1.3
	for n := 0; n <= 5; n++ {
		want := math.Pow(X, float64(n)) * inverseFactorial(n)
		if got := G(n, 0, X); math.Abs(got-want) > 1e-15*math.Max(1, want) {
			t.Errorf("G(%d,0,%g) = %v, want %v", n, X, got, want)
		}
	}
}

func BenchmarkC(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = C(2, 7.3)
	}
}

func BenchmarkGs(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Gs(1.1, 2.7)
	}
}

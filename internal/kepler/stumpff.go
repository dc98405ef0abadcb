package kepler

import "math"

const (
	seriesTerms    = 13
	seriesCutoff   = 1e-17
	quarterLimit   = 0.5
	maxQuarterings = 128
)

var invFactorial = [...]float64{
	1., 1., 1. / 2., 1. / 6., 1. / 24., 1. / 120., 1. / 720., 1. / 5040., 1. / 40320.,
	1. / 362880., 1. / 3628800., 1. / 39916800., 1. / 479001600., 1. / 6227020800.,
	1. / 87178291200., 1. / 1307674368000., 1. / 20922789888000., 1. / 355687428096000.,
	1. / 6402373705728000., 1. / 121645100408832000., 1. / 2432902008176640000.,
	1. / 51090942171709440000., 1. / 1124000727777607680000., 1. / 25852016738884976640000.,
	1. / 620448401733239439360000., 1. / 15511210043330985984000000.,
	1. / 403291461126605635584000000., 1. / 10888869450418352160768000000.,
	1. / 304888344611713860501504000000., 1. / 8841761993739701954543616000000.,
	1. / 265252859812191058636308480000000., 1. / 8222838654177922817725562880000000.,
	1. / 263130836933693530167218012160000000., 1. / 8683317618811886495518194401280000000.,
	1. / 295232799039604140847618609643520000000.,
}

func inverseFactorial(k int) float64 {
	if k < len(invFactorial) {
		return invFactorial[k]
	}
	return 1 / math.Gamma(float64(k)+1)
}

// Series sums c_n(z) = sum_j (-z)^j/(n+2j)! directly, whatever the size of z.
func Series(n int, z float64) float64 {
	cn := 0.0
	pow := 1.0
	for j := 0; j < seriesTerms; j++ {
		term := pow * inverseFactorial(n+2*j)
		cn += term
		if cn != 0 && math.Abs(term/cn) < seriesCutoff {
			break
		}
		pow *= -z
	}
	return cn
}

// C returns the normalized Stumpff function c_n(z). Orders 0..5 use
// argument quartering for |z| > 0.5; higher orders always sum the series.
func C(n int, z float64) float64 {
	if n < 0 {
		return math.NaN()
	}
	if n > 5 || math.Abs(z) <= quarterLimit {
		return Series(n, z)
	}
	cs := stumpff(z, 0)
	return cs[n]
}

// stumpff returns c_0..c_5 at z, reducing |z| by factors of four.
func stumpff(z float64, depth int) [6]float64 {
	var c [6]float64
	if math.Abs(z) <= quarterLimit {
		for n := range c {
			c[n] = Series(n, z)
		}
		return c
	}
	if depth >= maxQuarterings || math.IsNaN(z) || math.IsInf(z, 0) {
		for n := range c {
			c[n] = math.NaN()
		}
		return c
	}

	q := stumpff(z/4, depth+1)
	c[5] = (q[5] + q[4] + q[3]*q[2]) / 16
	c[4] = q[3] * (1 + q[1]) / 8
	c[3] = 1./6. - z*c[5]
	c[2] = 1./2. - z*c[4]
	c[1] = 1. - z*c[3]
	c[0] = 1. - z*c[2]
	return c
}

// G returns X^n c_n(beta X^2).
func G(n int, beta, X float64) float64 {
	return ipow(X, n) * C(n, beta*X*X)
}

// Gs returns G_0..G_5 for a single (beta, X) with one quartering pass.
func Gs(beta, X float64) [6]float64 {
	cs := stumpff(beta*X*X, 0)
	var g [6]float64
	xn := 1.0
	for n := range g {
		g[n] = xn * cs[n]
		xn *= X
	}
	return g
}

func ipow(base float64, exp int) float64 {
	result := 1.0
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		exp >>= 1
		base *= base
	}
	return result
}

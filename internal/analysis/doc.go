// Package analysis post-processes recorded series.
//
//   - [PowerSpectrum], [DominantFrequency]: spectra of element series
//   - [MegnoSlope]: batch fit of <Y> against t
//   - [Classify]: regular or chaotic from a final <Y>
//
// # Chaos Detection
//
// A quasi-periodic orbit settles at <Y> = 2, a chaotic one keeps growing:
//
//	if analysis.Classify(result.Megno) == analysis.Chaotic {
//	    // System is chaotic
//	}
package analysis

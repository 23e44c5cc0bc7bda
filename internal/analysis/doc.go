// Package analysis inspects recorded displacement series.
//
//   - [Spectrum]: magnitude spectrum of a uniformly sampled series
//   - [DominantFrequency]: angular frequency of the spectral peak
//   - [Summarize]: peak, RMS and dominant frequency in one pass
//
// A tuned damper should leave the dominant frequency of the primary
// building close to its natural frequency while cutting the peak:
//
//	wn, err := analysis.DominantFrequency(result.WithTMD, dt)
package analysis

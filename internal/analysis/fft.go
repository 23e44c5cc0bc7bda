package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

var ErrShortSeries = errors.New("analysis: series too short")

// Spectrum returns the magnitudes of the first half of the DFT of data
// after removing the mean. Bin k corresponds to k/(n·dt) Hz.
func Spectrum(data []float64) []float64 {
	n := len(data)
	if n == 0 {
		return nil
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)

	centered := make([]float64, n)
	for i, v := range data {
		centered[i] = v - mean
	}

	spectrum := fft.FFTReal(centered)
	ps := make([]float64, n/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantFrequency returns the angular frequency (rad/s) of the largest
// non-DC spectral bin, refined by parabolic interpolation over its
// neighbours.
func DominantFrequency(samples []float64, dt float64) (float64, error) {
	if len(samples) < 4 {
		return 0, ErrShortSeries
	}
	if dt <= 0 {
		return 0, errors.New("analysis: dt must be positive")
	}

	ps := Spectrum(samples)
	best := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[best] {
			best = k
		}
	}

	bin := float64(best)
	if best > 0 && best < len(ps)-1 {
		a, b, c := ps[best-1], ps[best], ps[best+1]
		if den := a - 2*b + c; den != 0 {
			bin += 0.5 * (a - c) / den
		}
	}

	hz := bin / (float64(len(samples)) * dt)
	return 2 * math.Pi * hz, nil
}

// Summary condenses one displacement series.
type Summary struct {
	Peak     float64
	RMS      float64
	Dominant float64 // rad/s
}

func Summarize(samples []float64, dt float64) (Summary, error) {
	var s Summary
	sumSq := 0.0
	for _, v := range samples {
		s.Peak = math.Max(s.Peak, math.Abs(v))
		sumSq += v * v
	}
	if len(samples) > 0 {
		s.RMS = math.Sqrt(sumSq / float64(len(samples)))
	}
	w, err := DominantFrequency(samples, dt)
	if err != nil {
		return s, err
	}
	s.Dominant = w
	return s, nil
}

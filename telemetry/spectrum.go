package telemetry

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// DominantPeriod estimates the strongest oscillation period, in samples, of a
// series from its power spectrum. Returns 0 for short or flat series.
func DominantPeriod(series []float64) float64 {
	n := len(series)
	if n < 4 {
		return 0
	}
	mean := stat.Mean(series, nil)
	centered := make([]float64, n)
	for i, v := range series {
		centered[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, centered)

	best, bestPower := 0, 0.0
	// Skip the DC term.
	for i := 1; i < len(coeffs); i++ {
		p := cmplx.Abs(coeffs[i])
		if p > bestPower {
			best, bestPower = i, p
		}
	}
	if best == 0 || bestPower < 1e-9 {
		return 0
	}
	return 1 / fft.Freq(best)
}

// LaggedCorrelation finds the lag, in samples, at which the follower series
// best correlates with the leader. Only lags in [0, maxLag] are tried.
func LaggedCorrelation(leader, follower []float64, maxLag int) (lag int, corr float64) {
	n := min(len(leader), len(follower))
	corr = math.NaN()
	for l := 0; l <= maxLag && n-l >= 3; l++ {
		x := leader[:n-l]
		y := follower[l:n]
		c := stat.Correlation(x, y, nil)
		if math.IsNaN(c) {
			continue
		}
		if math.IsNaN(corr) || c > corr {
			lag, corr = l, c
		}
	}
	if math.IsNaN(corr) {
		return 0, 0
	}
	return lag, corr
}

package waveform

import (
	"math"

	"gonum.org/v1/gonum/interp"
)

// Resample converts w from srcFS to dstFS by per-lead linear interpolation.
//
// The destination axis holds every multiple of 1/dstFS strictly below the last source
// timestamp, so the result never extrapolates and is always shorter than the source by at
// least one destination step. Equal rates are not short-circuited.
func Resample(w *Waveform, srcFS, dstFS float64) (*Waveform, error) {
	if !validRate(srcFS) || !validRate(dstFS) {
		return nil, newError("resample", "", ErrConfig, "sample rates must be positive, got %v Hz -> %v Hz", srcFS, dstFS)
	}

	n := w.Samples
	if n < 2 {
		return New(0, w.Leads, dstFS), nil
	}

	// t_i = i/srcFS, not i*(1/srcFS); the rounded reciprocal is off by an ulp at some indices.
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i) / srcFS
	}

	dstStep := 1 / dstFS
	m := destinationLength(times[n-1], dstStep)
	targets := make([]float64, m)
	for j := range targets {
		targets[j] = float64(j) * dstStep
	}

	out := New(m, w.Leads, dstFS)
	column := make([]float64, n)
	for lead := 0; lead < w.Leads; lead++ {
		column = w.Lead(lead, column)

		var pl interp.PiecewiseLinear
		if err := pl.Fit(times, column); err != nil {
			return nil, &Error{Op: "resample", Kind: ErrFormat, Err: err}
		}
		for j, t := range targets {
			out.Data[j*w.Leads+lead] = pl.Predict(t)
		}
	}
	return out, nil
}

// destinationLength counts the arange(0, last, step) targets, dropping trailing ones that
// rounding lands on or past last (e.g. 35/500 is an exact multiple of 1/200).
func destinationLength(last, step float64) int {
	m := int(math.Ceil(last / step))
	for m > 0 && float64(m-1)*step >= last {
		m--
	}
	return m
}

func validRate(fs float64) bool {
	return fs > 0 && !math.IsInf(fs, 0) && !math.IsNaN(fs)
}

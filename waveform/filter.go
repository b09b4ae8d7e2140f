package waveform

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// BandPass removes spectral content outside [Low, High] Hz. It is not part of the default
// pipeline and only runs when a caller asks for denoising.
type BandPass struct {
	Low  float64
	High float64
}

// DefaultBandPass trims baseline wander and mains-frequency noise.
var DefaultBandPass = BandPass{Low: 0.25, High: 60}

// Apply filters every lead of w, sampled at fs, in the frequency domain.
func (b BandPass) Apply(w *Waveform, fs float64) (*Waveform, error) {
	if !validRate(fs) {
		return nil, newError("filter", "", ErrConfig, "sample rate %v", fs)
	}
	if b.Low < 0 || b.High <= b.Low {
		return nil, newError("filter", "", ErrConfig, "band %v-%v Hz", b.Low, b.High)
	}

	out := w.Clone()
	n := w.Samples
	if n < 2 {
		return out, nil
	}

	fft := fourier.NewFFT(n)
	column := make([]float64, n)
	var coeff []complex128
	for lead := 0; lead < w.Leads; lead++ {
		column = w.Lead(lead, column)
		coeff = fft.Coefficients(coeff, column)
		for i := range coeff {
			f := fft.Freq(i) * fs
			if f < b.Low || f > b.High {
				coeff[i] = 0
			}
		}
		column = fft.Sequence(column, coeff)
		scale := 1 / float64(n)
		for i, v := range column {
			out.Data[i*w.Leads+lead] = v * scale
		}
	}
	return out, nil
}

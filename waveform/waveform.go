// Package waveform turns stored ECG recordings into fixed-shape, millivolt-scaled lead arrays
// for the viewer.
//
// The pipeline is Load → Resample → Window → Rescale → LeadsMajor. Every stage is a pure
// function of its inputs, so a Normalizer may be shared between goroutines.
package waveform

// Waveform is a (samples, leads) matrix stored row-major: Data[i*Leads+lead].
type Waveform struct {
	Samples int
	Leads   int
	FS      float64 // sample rate in Hz, 0 when unknown
	Data    []float64
}

// New allocates a zero-filled waveform.
func New(samples, leads int, fs float64) *Waveform {
	return &Waveform{
		Samples: samples,
		Leads:   leads,
		FS:      fs,
		Data:    make([]float64, samples*leads),
	}
}

// At returns the sample at row i of the given lead.
func (w *Waveform) At(i, lead int) float64 {
	return w.Data[i*w.Leads+lead]
}

// Set stores v at row i of the given lead.
func (w *Waveform) Set(i, lead int, v float64) {
	w.Data[i*w.Leads+lead] = v
}

// Lead copies one lead into dst, growing it when needed.
func (w *Waveform) Lead(lead int, dst []float64) []float64 {
	if cap(dst) < w.Samples {
		dst = make([]float64, w.Samples)
	}
	dst = dst[:w.Samples]
	for i := range dst {
		dst[i] = w.Data[i*w.Leads+lead]
	}
	return dst
}

// Clone returns a deep copy.
func (w *Waveform) Clone() *Waveform {
	c := *w
	c.Data = append([]float64(nil), w.Data...)
	return &c
}

// LeadsMajor transposes the waveform into one slice per lead.
func (w *Waveform) LeadsMajor() [][]float64 {
	out := make([][]float64, w.Leads)
	for lead := range out {
		out[lead] = w.Lead(lead, nil)
	}
	return out
}

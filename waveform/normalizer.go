package waveform

import (
	"errors"
	"math"
)

// Defaults for the viewer's fixed output tensor.
const (
	DefaultTargetFS    = 200
	DefaultLength      = 10
	DefaultTargetLeads = 12
	DefaultSourceFS    = 500
)

// Normalizer holds the explicit parameters of the normalization pipeline.
type Normalizer struct {
	TargetFS         float64 // output sample rate, Hz
	Length           float64 // output duration, seconds
	TargetLeads      int
	DefaultSourceFS  float64 // used when neither the caller nor the file supplies a rate
	AmplitudeScale   float64
	FillMissingLeads bool
}

// DefaultNormalizer returns the 12 x 2000 millivolt configuration.
func DefaultNormalizer() Normalizer {
	return Normalizer{
		TargetFS:        DefaultTargetFS,
		Length:          DefaultLength,
		TargetLeads:     DefaultTargetLeads,
		DefaultSourceFS: DefaultSourceFS,
		AmplitudeScale:  DefaultAmplitudeScale,
	}
}

// TargetSamples is the fixed per-lead output length.
func (n Normalizer) TargetSamples() int {
	return int(math.Round(n.TargetFS * n.Length))
}

// Validate reports whether the parameters can produce an output.
func (n Normalizer) Validate() error {
	switch {
	case !validRate(n.TargetFS):
		return newError("normalize", "", ErrConfig, "target rate %v", n.TargetFS)
	case n.TargetSamples() <= 0:
		return newError("normalize", "", ErrConfig, "length %v s at %v Hz", n.Length, n.TargetFS)
	case n.TargetLeads <= 0:
		return newError("normalize", "", ErrConfig, "target leads %d", n.TargetLeads)
	case n.DefaultSourceFS != 0 && !validRate(n.DefaultSourceFS):
		return newError("normalize", "", ErrConfig, "default source rate %v", n.DefaultSourceFS)
	case n.AmplitudeScale == 0:
		return newError("normalize", "", ErrConfig, "amplitude scale is zero")
	}
	return nil
}

// Source points at a stored recording.
type Source struct {
	Path   string
	Format Format  // empty: detect from Path
	FS     float64 // declared source rate, 0: use the file's own or the default
}

// Options toggle optional pipeline stages.
type Options struct {
	Denoise  bool
	BandPass BandPass // zero value: DefaultBandPass
}

// NormalizeFile loads src and runs the pipeline, returning (leads, samples) in millivolts.
func (n Normalizer) NormalizeFile(src Source, opts Options) ([][]float64, error) {
	raw, err := Load(src.Path, src.Format)
	if err != nil {
		return nil, err
	}

	fs := src.FS
	if fs == 0 {
		fs = raw.FS
	}
	if fs == 0 {
		fs = n.DefaultSourceFS
	}

	out, err := n.Normalize(raw, fs, opts)
	if err != nil {
		var e *Error
		if errors.As(err, &e) && e.Path == "" {
			e.Path = src.Path
		}
		return nil, err
	}
	return out, nil
}

// Normalize runs Resample, Window, Rescale and the transpose over an in-memory waveform
// sampled at srcFS.
func (n Normalizer) Normalize(raw *Waveform, srcFS float64, opts Options) ([][]float64, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	if !validRate(srcFS) {
		return nil, newError("normalize", "", ErrConfig, "source sample rate %v", srcFS)
	}

	w := raw
	if opts.Denoise {
		band := opts.BandPass
		if band == (BandPass{}) {
			band = DefaultBandPass
		}
		filtered, err := band.Apply(w, srcFS)
		if err != nil {
			return nil, err
		}
		w = filtered
	}

	resampled, err := Resample(w, srcFS, n.TargetFS)
	if err != nil {
		return nil, err
	}
	windowed, err := Window(resampled, n.TargetSamples(), n.TargetLeads, n.FillMissingLeads)
	if err != nil {
		return nil, err
	}
	scaled, err := Rescale(windowed, n.AmplitudeScale)
	if err != nil {
		return nil, err
	}
	return scaled.LeadsMajor(), nil
}

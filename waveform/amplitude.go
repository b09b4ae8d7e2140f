package waveform

import "math"

// DefaultAmplitudeScale converts raw device units (microvolts) to millivolts.
const DefaultAmplitudeScale = 1000

// Rescale returns a copy of w with every sample divided by divisor. No clamping is applied.
func Rescale(w *Waveform, divisor float64) (*Waveform, error) {
	if divisor == 0 || math.IsNaN(divisor) || math.IsInf(divisor, 0) {
		return nil, newError("scale", "", ErrConfig, "amplitude divisor %v", divisor)
	}
	out := w.Clone()
	for i, v := range out.Data {
		out.Data[i] = v / divisor
	}
	return out, nil
}

package waveform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowPadsShortSignals(t *testing.T) {
	t.Parallel()

	in := ramp(1200, 12)
	out, err := Window(in, 2000, 12, false)
	require.NoError(t, err)
	assert.Equal(t, 2000, out.Samples)
	assert.Equal(t, 12, out.Leads)

	for i := 0; i < 1200; i++ {
		for l := 0; l < 12; l++ {
			assert.Equal(t, in.At(i, l), out.At(i, l))
		}
	}
	for i := 1200; i < 2000; i++ {
		for l := 0; l < 12; l++ {
			require.Zero(t, out.At(i, l), "sample %d lead %d", i, l)
		}
	}
}

func TestWindowTruncatesFromStart(t *testing.T) {
	t.Parallel()

	in := ramp(2600, 12)
	out, err := Window(in, 2000, 12, false)
	require.NoError(t, err)
	assert.Equal(t, in.Data[:2000*12], out.Data)
}

func TestWindowLeadCount(t *testing.T) {
	t.Parallel()

	t.Run("FewerLeadsRejected", func(t *testing.T) {
		t.Parallel()
		_, err := Window(ramp(10, 8), 20, 12, false)
		require.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("FewerLeadsZeroFilled", func(t *testing.T) {
		t.Parallel()
		in := ramp(10, 8)
		out, err := Window(in, 20, 12, true)
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			for l := 0; l < 8; l++ {
				assert.Equal(t, in.At(i, l), out.At(i, l))
			}
			for l := 8; l < 12; l++ {
				assert.Zero(t, out.At(i, l))
			}
		}
	})

	t.Run("ExtraLeadsDropped", func(t *testing.T) {
		t.Parallel()
		in := ramp(5, 15)
		out, err := Window(in, 5, 12, false)
		require.NoError(t, err)
		assert.Equal(t, 12, out.Leads)
		assert.Equal(t, in.At(4, 11), out.At(4, 11))
	})

	t.Run("InvalidTarget", func(t *testing.T) {
		t.Parallel()
		_, err := Window(ramp(5, 12), 0, 12, false)
		require.ErrorIs(t, err, ErrConfig)
	})
}

func TestRescale(t *testing.T) {
	t.Parallel()

	in := &Waveform{Samples: 2, Leads: 2, Data: []float64{1000, -250, 3, 0}}
	out, err := Rescale(in, 1000)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -0.25, 3.0 / 1000, 0}, out.Data)
	assert.Equal(t, []float64{1000, -250, 3, 0}, in.Data, "input must not be modified")

	_, err = Rescale(in, 0)
	require.ErrorIs(t, err, ErrConfig)
	_, err = Rescale(in, math.NaN())
	require.ErrorIs(t, err, ErrConfig)
}

func TestLeadsMajor(t *testing.T) {
	t.Parallel()

	w := &Waveform{Samples: 3, Leads: 2, Data: []float64{1, 2, 3, 4, 5, 6}}
	assert.Equal(t, [][]float64{{1, 3, 5}, {2, 4, 6}}, w.LeadsMajor())
}

func TestBandPass(t *testing.T) {
	t.Parallel()

	const fs = 500.0
	n := 500
	in := New(n, 1, fs)
	for i := 0; i < n; i++ {
		tm := float64(i) / fs
		in.Set(i, 0, 5+math.Sin(2*math.Pi*10*tm)+0.5*math.Sin(2*math.Pi*100*tm))
	}

	out, err := DefaultBandPass.Apply(in, fs)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		tm := float64(i) / fs
		assert.InDelta(t, math.Sin(2*math.Pi*10*tm), out.At(i, 0), 1e-9)
	}

	_, err = BandPass{Low: 10, High: 5}.Apply(in, fs)
	require.ErrorIs(t, err, ErrConfig)
	_, err = DefaultBandPass.Apply(in, 0)
	require.ErrorIs(t, err, ErrConfig)
}

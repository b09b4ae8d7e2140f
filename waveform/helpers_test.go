package waveform

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeNPY writes a version 1.0 .npy file with the given dtype descriptor and raw payload.
func writeNPY(t *testing.T, dir, name, descr string, fortran bool, shape []int, payload []byte) string {
	t.Helper()

	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = fmt.Sprint(d)
	}
	shapeStr := "(" + strings.Join(dims, ", ")
	if len(shape) == 1 {
		shapeStr += ","
	}
	shapeStr += ")"

	order := "False"
	if fortran {
		order = "True"
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': %s, 'shape': %s, }", descr, order, shapeStr)
	// magic(6) + version(2) + length(2) + header + '\n' must be a multiple of 64
	total := 10 + len(header) + 1
	if pad := total % 64; pad != 0 {
		header += strings.Repeat(" ", 64-pad)
	}
	header += "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.Write([]byte{1, 0})
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(len(header))))
	buf.WriteString(header)
	buf.Write(payload)

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func float64Payload(values []float64) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, values)
	return buf.Bytes()
}

func int16Payload(values []int16) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, values)
	return buf.Bytes()
}

// syntheticECG builds a (samples, leads) row-major array where lead l holds a ramp offset by
// l*100, in raw microvolt-like units.
func syntheticECG(samples, leads int) []float64 {
	data := make([]float64, samples*leads)
	for i := 0; i < samples; i++ {
		for l := 0; l < leads; l++ {
			data[i*leads+l] = float64(i%500) + float64(l*100)
		}
	}
	return data
}

func writeDenseECG(t *testing.T, samples, leads int) string {
	t.Helper()
	return writeNPY(t, t.TempDir(), "ecg.npy", "<f8", false, []int{samples, leads}, float64Payload(syntheticECG(samples, leads)))
}

// writeWFDB12 writes a 12-lead format-16 record whose lead l holds value i+l at sample i.
func writeWFDB12(t *testing.T, samples int, fs float64) string {
	t.Helper()
	dir := t.TempDir()

	var hea strings.Builder
	fmt.Fprintf(&hea, "rec 12 %g %d\n", fs, samples)
	for l := 0; l < 12; l++ {
		fmt.Fprintf(&hea, "rec.dat 16 1000/mV 16 0 0 0 0 lead%d\n", l)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rec.hea"), []byte(hea.String()), 0o600))

	values := make([]int16, 0, samples*12)
	for i := 0; i < samples; i++ {
		for l := 0; l < 12; l++ {
			values = append(values, int16(i+l))
		}
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rec.dat"), int16Payload(values), 0o600))
	return filepath.Join(dir, "rec")
}

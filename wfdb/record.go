package wfdb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("wfdb: unsupported signal format")
	ErrTruncated         = errors.New("wfdb: signal file shorter than header")
)

// Record is a fully decoded record. Samples holds raw ADC values, indexed [sample][signal].
type Record struct {
	Header
	Samples [][]int
}

// ReadRecord loads a record by name. Both "data/100" and "data/100.hea" are accepted; signal
// files are resolved next to the header.
func ReadRecord(path string) (*Record, error) {
	base := strings.TrimSuffix(path, ".hea")
	f, err := os.Open(base + ".hea")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h, err := ParseHeader(f)
	if err != nil {
		return nil, err
	}
	return readSignals(h, filepath.Dir(base))
}

func readSignals(h *Header, dir string) (*Record, error) {
	rec := &Record{Header: *h}
	if h.NumSignals == 0 {
		return rec, nil
	}

	// Signals sharing a file are interleaved frame by frame in header order.
	type group struct {
		file    string
		format  int
		offset  int
		signals []int
	}
	var groups []*group
	byFile := map[string]*group{}
	for i, sig := range h.Signals {
		g, ok := byFile[sig.FileName]
		if !ok {
			g = &group{file: sig.FileName, format: sig.Format, offset: sig.ByteOffset}
			byFile[sig.FileName] = g
			groups = append(groups, g)
		}
		if sig.Format != g.format {
			return nil, fmt.Errorf("%w: mixed formats %d and %d in %s", ErrUnsupportedFormat, g.format, sig.Format, sig.FileName)
		}
		g.signals = append(g.signals, i)
	}

	frames := -1
	decoded := make([][]int, len(groups))
	for gi, g := range groups {
		if g.file == "~" {
			return nil, fmt.Errorf("%w: signal without file", ErrUnsupportedFormat)
		}
		raw, err := os.ReadFile(filepath.Join(dir, g.file))
		if err != nil {
			return nil, err
		}
		if g.offset > len(raw) {
			return nil, fmt.Errorf("%w: byte offset %d beyond %s", ErrTruncated, g.offset, g.file)
		}
		values, err := Decode(g.format, raw[g.offset:])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", g.file, err)
		}
		decoded[gi] = values

		n := len(values) / len(g.signals)
		if frames < 0 || n < frames {
			frames = n
		}
	}

	if h.NumSamples > 0 {
		if frames < h.NumSamples {
			return nil, fmt.Errorf("%w: %d of %d samples", ErrTruncated, frames, h.NumSamples)
		}
		frames = h.NumSamples
	}

	rec.Samples = make([][]int, frames)
	backing := make([]int, frames*h.NumSignals)
	for i := range rec.Samples {
		rec.Samples[i] = backing[i*h.NumSignals : (i+1)*h.NumSignals]
	}
	for gi, g := range groups {
		width := len(g.signals)
		values := decoded[gi]
		for i := 0; i < frames; i++ {
			for j, sigIdx := range g.signals {
				rec.Samples[i][sigIdx] = values[i*width+j]
			}
		}
	}
	if rec.NumSamples == 0 {
		rec.NumSamples = frames
	}
	return rec, nil
}

// Decode unpacks a signal byte stream into ADC values.
//
// Supported formats: 16 (little-endian int16), 212 (two 12-bit samples in three bytes) and
// 80 (8-bit offset binary).
func Decode(format int, data []byte) ([]int, error) {
	switch format {
	case 16:
		out := make([]int, len(data)/2)
		for i := range out {
			out[i] = int(int16(binary.LittleEndian.Uint16(data[2*i:])))
		}
		return out, nil
	case 212:
		out := make([]int, 0, len(data)*2/3)
		for i := 0; i+1 < len(data); i += 3 {
			out = append(out, signExtend12(int(data[i])|int(data[i+1]&0x0f)<<8))
			if i+2 < len(data) {
				out = append(out, signExtend12(int(data[i+2])|int(data[i+1]&0xf0)<<4))
			}
		}
		return out, nil
	case 80:
		out := make([]int, len(data))
		for i, b := range data {
			out[i] = int(b) - 128
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFormat, format)
	}
}

func signExtend12(v int) int {
	if v&0x800 != 0 {
		return v - 0x1000
	}
	return v
}

// ADC returns the raw samples as float64, indexed [sample][signal].
func (r *Record) ADC() [][]float64 {
	out := make([][]float64, len(r.Samples))
	for i, frame := range r.Samples {
		row := make([]float64, len(frame))
		for j, v := range frame {
			row[j] = float64(v)
		}
		out[i] = row
	}
	return out
}

// Physical converts the samples to physical units, (adc - baseline) / gain per signal.
func (r *Record) Physical() [][]float64 {
	out := make([][]float64, len(r.Samples))
	for i, frame := range r.Samples {
		row := make([]float64, len(frame))
		for j, v := range frame {
			sig := r.Signals[j]
			row[j] = float64(v-sig.Baseline) / sig.Gain
		}
		out[i] = row
	}
	return out
}

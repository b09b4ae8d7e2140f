// Package wfdb reads PhysioNet WFDB (MIT format) records: a text .hea header describing the
// signals and one or more binary signal files holding the ADC samples.
package wfdb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	defaultFS   = 250
	defaultGain = 200
)

var ErrInvalidHeader = errors.New("wfdb: invalid header")

// Header is the parsed content of a .hea file.
type Header struct {
	Name       string
	NumSignals int
	FS         float64
	NumSamples int // 0 when the header does not declare it
	Signals    []Signal
	Comments   []string
}

// Signal describes one channel of a record.
type Signal struct {
	FileName      string
	Format        int
	ByteOffset    int
	Gain          float64 // ADC units per physical unit
	Baseline      int
	Units         string
	ADCResolution int
	ADCZero       int
	InitValue     int
	Checksum      int
	BlockSize     int
	Description   string
}

// ParseHeader reads a record header.
func ParseHeader(r io.Reader) (*Header, error) {
	scanner := bufio.NewScanner(r)
	h := &Header{}
	recordSeen := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			h.Comments = append(h.Comments, strings.TrimSpace(strings.TrimPrefix(line, "#")))
			continue
		}

		if !recordSeen {
			if err := h.parseRecordLine(line); err != nil {
				return nil, err
			}
			recordSeen = true
			continue
		}

		if len(h.Signals) == h.NumSignals {
			// info strings after the signal block
			continue
		}
		sig, err := parseSignalLine(line)
		if err != nil {
			return nil, fmt.Errorf("%w: signal %d: %v", ErrInvalidHeader, len(h.Signals), err)
		}
		h.Signals = append(h.Signals, sig)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if !recordSeen {
		return nil, fmt.Errorf("%w: missing record line", ErrInvalidHeader)
	}
	if len(h.Signals) != h.NumSignals {
		return nil, fmt.Errorf("%w: declared %d signals, found %d", ErrInvalidHeader, h.NumSignals, len(h.Signals))
	}
	return h, nil
}

func (h *Header) parseRecordLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return fmt.Errorf("%w: record line %q", ErrInvalidHeader, line)
	}

	if strings.Contains(fields[0], "/") {
		return fmt.Errorf("%w: multi-segment records are not supported", ErrInvalidHeader)
	}
	h.Name = fields[0]

	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 0 {
		return fmt.Errorf("%w: signal count %q", ErrInvalidHeader, fields[1])
	}
	h.NumSignals = n

	h.FS = defaultFS
	if len(fields) > 2 {
		// fs[/counterfreq[(basecounter)]]
		fsField, _, _ := strings.Cut(fields[2], "/")
		fs, err := strconv.ParseFloat(fsField, 64)
		if err != nil || fs <= 0 {
			return fmt.Errorf("%w: sampling frequency %q", ErrInvalidHeader, fields[2])
		}
		h.FS = fs
	}

	if len(fields) > 3 {
		ns, err := strconv.Atoi(fields[3])
		if err != nil || ns < 0 {
			return fmt.Errorf("%w: sample count %q", ErrInvalidHeader, fields[3])
		}
		h.NumSamples = ns
	}
	return nil
}

func parseSignalLine(line string) (Signal, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Signal{}, fmt.Errorf("expected file name and format in %q", line)
	}

	sig := Signal{FileName: fields[0], Gain: defaultGain}

	format, offset, err := parseFormat(fields[1])
	if err != nil {
		return Signal{}, err
	}
	sig.Format, sig.ByteOffset = format, offset

	baselineSet := false
	if len(fields) > 2 {
		gain, baseline, hasBaseline, units, err := parseGain(fields[2])
		if err != nil {
			return Signal{}, err
		}
		if gain != 0 {
			sig.Gain = gain
		}
		sig.Baseline, baselineSet, sig.Units = baseline, hasBaseline, units
	}

	ints := []*int{&sig.ADCResolution, &sig.ADCZero, &sig.InitValue, &sig.Checksum, &sig.BlockSize}
	for i, dst := range ints {
		idx := 3 + i
		if idx >= len(fields) {
			break
		}
		v, err := strconv.Atoi(fields[idx])
		if err != nil {
			return Signal{}, fmt.Errorf("field %d %q: %v", idx, fields[idx], err)
		}
		*dst = v
	}
	if !baselineSet {
		sig.Baseline = sig.ADCZero
	}
	if len(fields) > 8 {
		sig.Description = strings.Join(fields[8:], " ")
	}
	return sig, nil
}

// parseFormat handles "212", "16+24" (byte offset) and rejects "212x2" (multiple samples per frame).
func parseFormat(field string) (format, offset int, err error) {
	if strings.ContainsAny(field, "x:") {
		return 0, 0, fmt.Errorf("format %q: samples-per-frame and skew are not supported", field)
	}
	fmtStr, offStr, hasOffset := strings.Cut(field, "+")
	format, err = strconv.Atoi(fmtStr)
	if err != nil {
		return 0, 0, fmt.Errorf("format %q: %v", field, err)
	}
	if hasOffset {
		offset, err = strconv.Atoi(offStr)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("byte offset %q", field)
		}
	}
	return format, offset, nil
}

// parseGain handles "200", "200(0)", "200/mV" and "200(-12)/mV".
func parseGain(field string) (gain float64, baseline int, hasBaseline bool, units string, err error) {
	value, units, _ := strings.Cut(field, "/")
	if open := strings.Index(value, "("); open >= 0 {
		closing := strings.Index(value, ")")
		if closing < open {
			return 0, 0, false, "", fmt.Errorf("gain %q: unbalanced baseline", field)
		}
		baseline, err = strconv.Atoi(value[open+1 : closing])
		if err != nil {
			return 0, 0, false, "", fmt.Errorf("baseline %q: %v", field, err)
		}
		hasBaseline = true
		value = value[:open]
	}
	gain, err = strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, 0, false, "", fmt.Errorf("gain %q: %v", field, err)
	}
	return gain, baseline, hasBaseline, units, nil
}

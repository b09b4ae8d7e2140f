package waveform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sbinet/npyio"

	"ecg-viewer/wfdb"
)

// Format identifies how a recording is stored on disk.
type Format string

const (
	FormatNPY  Format = "npy"
	FormatWFDB Format = "wfdb"
)

// DetectFormat guesses the format from the file name. Anything that is not a .npy file is
// treated as a WFDB record name.
func DetectFormat(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".npy") {
		return FormatNPY
	}
	return FormatWFDB
}

// ParseFormat validates a stored format name. The empty string means "detect from path".
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return "", nil
	case FormatNPY:
		return FormatNPY, nil
	case FormatWFDB, "mit":
		return FormatWFDB, nil
	default:
		return "", newError("load", "", ErrConfig, "unknown format %q", s)
	}
}

// Load reads a recording in the given format. An empty format is detected from the path.
// Dense arrays carry no sample rate, so the returned FS is 0 for FormatNPY.
func Load(path string, format Format) (*Waveform, error) {
	if format == "" {
		format = DetectFormat(path)
	}
	switch format {
	case FormatNPY:
		return LoadNPY(path)
	case FormatWFDB:
		return LoadWFDB(path)
	default:
		return nil, newError("load", path, ErrConfig, "unknown format %q", format)
	}
}

// LoadNPY reads a dense (samples[, leads]) array. One-dimensional arrays become a single lead.
func LoadNPY(path string) (*Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, openError(path, err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, &Error{Op: "load", Path: path, Kind: ErrFormat, Err: err}
	}

	descr := r.Header.Descr
	var samples, leads int
	switch len(descr.Shape) {
	case 1:
		samples, leads = descr.Shape[0], 1
	case 2:
		samples, leads = descr.Shape[0], descr.Shape[1]
	default:
		return nil, newError("load", path, ErrFormat, "expected 1 or 2 dimensions, got shape %v", descr.Shape)
	}

	values, err := readNPYValues(r)
	if err != nil {
		return nil, &Error{Op: "load", Path: path, Kind: ErrFormat, Err: err}
	}
	if len(values) != samples*leads {
		return nil, newError("load", path, ErrFormat, "shape %v does not match %d values", descr.Shape, len(values))
	}

	w := &Waveform{Samples: samples, Leads: leads, Data: values}
	if descr.Fortran && leads > 1 {
		w.Data = make([]float64, len(values))
		for i := 0; i < samples; i++ {
			for lead := 0; lead < leads; lead++ {
				w.Data[i*leads+lead] = values[lead*samples+i]
			}
		}
	}
	return w, nil
}

type npyNumber interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~float32 | ~float64
}

func readNPYValues(r *npyio.Reader) ([]float64, error) {
	dtype := strings.TrimLeft(r.Header.Descr.Type, "<>|=")
	switch dtype {
	case "f8":
		return readAs[float64](r)
	case "f4":
		return readAs[float32](r)
	case "i8":
		return readAs[int64](r)
	case "i4":
		return readAs[int32](r)
	case "i2":
		return readAs[int16](r)
	case "i1":
		return readAs[int8](r)
	case "u4":
		return readAs[uint32](r)
	case "u2":
		return readAs[uint16](r)
	case "u1":
		return readAs[uint8](r)
	default:
		return nil, fmt.Errorf("unsupported dtype %q", r.Header.Descr.Type)
	}
}

func readAs[T npyNumber](r *npyio.Reader) ([]float64, error) {
	var raw []T
	if err := r.Read(&raw); err != nil {
		return nil, err
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = float64(v)
	}
	return out, nil
}

// LoadWFDB reads an MIT-format record and returns its raw ADC values. The record's declared
// sample rate becomes FS.
func LoadWFDB(path string) (*Waveform, error) {
	rec, err := wfdb.ReadRecord(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, openError(path, err)
		}
		return nil, &Error{Op: "load", Path: path, Kind: ErrFormat, Err: err}
	}
	if rec.NumSignals == 0 {
		return nil, newError("load", path, ErrFormat, "record has no signals")
	}

	w := New(len(rec.Samples), rec.NumSignals, rec.FS)
	for i, frame := range rec.ADC() {
		for lead, v := range frame {
			w.Set(i, lead, v)
		}
	}
	return w, nil
}

func openError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &Error{Op: "load", Path: path, Kind: ErrNotFound, Err: err}
	}
	return &Error{Op: "load", Path: path, Kind: ErrFormat, Err: err}
}

package waveform

import (
	"errors"
	"fmt"
)

// Error kinds returned by the normalization pipeline. Match them with errors.Is.
var (
	ErrNotFound      = errors.New("waveform file not found")
	ErrFormat        = errors.New("invalid waveform data")
	ErrConfig        = errors.New("invalid waveform parameters")
	ErrShapeMismatch = errors.New("waveform shape mismatch")
	ErrTimeout       = errors.New("waveform processing timed out")
)

// Error describes a failed pipeline stage.
type Error struct {
	Op   string // load, resample, window, scale, filter, normalize
	Path string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op, path string, kind error, format string, args ...any) *Error {
	return &Error{Op: op, Path: path, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Category maps an error to a short label used in logs and metrics.
func Category(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not-found"
	case errors.Is(err, ErrFormat):
		return "file-parsing"
	case errors.Is(err, ErrConfig):
		return "configuration"
	case errors.Is(err, ErrShapeMismatch):
		return "validation"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "generic"
	}
}

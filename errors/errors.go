// Package errors defines the structured error taxonomy and the Status
// boundary type used throughout the module.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies failures for targeted handling and monitoring.
type Kind string

const (
	// KindValidation marks a query value outside its declared domain on a
	// field whose policy is reject rather than clamp.
	KindValidation Kind = "validation"
	// KindGeometry marks an arithmetic overflow or an impossible target size.
	KindGeometry Kind = "geometry"
	// KindUnsupportedFormat marks an output format incompatible with the
	// source capabilities (e.g. alpha requested on a format without alpha).
	KindUnsupportedFormat Kind = "unsupported_format"
	// KindStage marks an engine-level failure during a specific stage.
	KindStage Kind = "stage"
	// KindIO marks a source or target failure.
	KindIO Kind = "io"
	// KindInternal marks everything that escaped the other kinds.
	KindInternal Kind = "internal"
)

// PipelineError is the structured error type used throughout the module.
type PipelineError struct {
	Kind Kind
	Op   string // field key, stage name, or operation
	Err  error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Op, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// New creates a PipelineError.
func New(kind Kind, op string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Op: op, Err: err}
}

// Newf creates a PipelineError from a format string.
func Newf(kind Kind, op, format string, args ...interface{}) *PipelineError {
	return &PipelineError{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap wraps an existing error with kind and operation context.
// Returns nil when err is nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(kind, op, err)
}

// IsKind reports whether err belongs to the given kind.
func IsKind(err error, kind Kind) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}

// Sentinel errors for common failure modes.
var (
	ErrEmptyInput        = errors.New("empty input")
	ErrInvalidDimensions = errors.New("invalid dimensions")
	ErrOverflow          = errors.New("integer overflow")
	ErrUnsupportedSaver  = errors.New("no saver for format")
	ErrMissingEngine     = errors.New("no engine configured")
)

// Status is the uniform result of a whole request. Every failure, including
// unexpected lower-level faults, is converted into a Status at a single
// boundary so that no error escapes unclassified. The original query string
// is always carried for diagnosability.
type Status struct {
	Kind    Kind
	Op      string
	Message string
	Query   string
}

// OK reports whether the request succeeded.
func (s Status) OK() bool { return s.Kind == "" }

func (s Status) Error() string {
	if s.OK() {
		return "ok"
	}
	return fmt.Sprintf("[%s] %s: %s (query: %q)", s.Kind, s.Op, s.Message, s.Query)
}

// OKStatus is the success Status for a request.
func OKStatus() Status { return Status{} }

// StatusOf converts any error into a Status carrying the query string.
// This is the single boundary function of the error propagation policy.
func StatusOf(err error, query string) Status {
	if err == nil {
		return OKStatus()
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return Status{Kind: pe.Kind, Op: pe.Op, Message: pe.Err.Error(), Query: query}
	}
	return Status{Kind: KindInternal, Message: err.Error(), Query: query}
}

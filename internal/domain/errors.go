package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidConfig     = errors.New("invalid config")
	ErrMissingVar        = errors.New("missing variable")
	ErrExecution         = errors.New("execution error")
	ErrInsufficientData  = errors.New("insufficient data")
	ErrNotAscending      = errors.New("series is not in ascending time order")
	ErrInvalidLag        = errors.New("invalid lag")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrRowWidth          = errors.New("row width does not match column count")
	ErrInvalidOrder      = errors.New("invalid order")
	ErrUnknownInstrument = errors.New("unknown instrument")
	ErrOrderNotOpen      = errors.New("order is not open")
)

// ErrorKind is a coarse-grained categorization for errors.
type ErrorKind string

const (
	KindNotFound         ErrorKind = "not_found"
	KindInvalidConfig    ErrorKind = "invalid_config"
	KindMissingVar       ErrorKind = "missing_variable"
	KindExecution        ErrorKind = "execution"
	KindInsufficientData ErrorKind = "insufficient_data"
)

// OpError wraps an underlying error with operation context and a kind.
type OpError struct {
	Op   string
	Kind ErrorKind
	Path string // Optional: relevant file path
	Err  error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

// Unwrap returns the cause, or the sentinel of the kind when there is none,
// so errors.Is(err, ErrNotFound) holds for a bare not_found OpError.
func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	if e.Err != nil {
		return e.Err
	}
	return kindSentinels[e.Kind]
}

var kindSentinels = map[ErrorKind]error{
	KindNotFound:         ErrNotFound,
	KindInvalidConfig:    ErrInvalidConfig,
	KindMissingVar:       ErrMissingVar,
	KindExecution:        ErrExecution,
	KindInsufficientData: ErrInsufficientData,
}

// KindOf returns the kind of the outermost OpError in err's chain, or "".
func KindOf(err error) ErrorKind {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}

// IsKind helps callers classify errors without depending on infra packages.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

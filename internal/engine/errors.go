package engine

import (
	"errors"
	"fmt"
)

// InvalidArgumentError reports a precondition violation (bad threshold or
// batch size). It is a caller bug: the check fails fast, before any I/O.
type InvalidArgumentError struct {
	Argument string
	Message  string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Argument, e.Message)
}

// IsInvalidArgument returns true if err is (or wraps) an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var ie *InvalidArgumentError
	return errors.As(err, &ie)
}

// ExtractionError reports an unreadable or unsupported input file. It is a
// terminal condition for the run; the engine never retries extraction.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("fingerprint extraction failed for %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsExtractionError returns true if err is (or wraps) an ExtractionError.
func IsExtractionError(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}

// ComparisonError reports a similarity-scorer contract violation: a
// shape/type mismatch or a score outside [0,1]. It aborts the scan
// immediately; the engine never degrades to "assume unique".
type ComparisonError struct {
	Reason string
	Err    error
}

func (e *ComparisonError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fingerprint comparison failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("fingerprint comparison failed: %s", e.Reason)
}

func (e *ComparisonError) Unwrap() error {
	return e.Err
}

// IsComparisonError returns true if err is (or wraps) a ComparisonError.
func IsComparisonError(err error) bool {
	var ce *ComparisonError
	return errors.As(err, &ce)
}

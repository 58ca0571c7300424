package overrides

import (
	"errors"
	"fmt"
)

var (
	// ErrLifecycle is the root of every lifecycle misuse error.
	ErrLifecycle = errors.New("overrides: lifecycle violation")
	// ErrAlreadyInitialized is returned by a second Init call.
	ErrAlreadyInitialized = fmt.Errorf("%w: already initialized", ErrLifecycle)
	// ErrNotInitialized is returned by accessors used before Init completes.
	ErrNotInitialized = fmt.Errorf("%w: not initialized", ErrLifecycle)
	// ErrHostAlreadyBound is returned when BindHost is called twice.
	ErrHostAlreadyBound = fmt.Errorf("%w: host already bound", ErrLifecycle)
)

// ValidationError reports user input that does not match the base options
// shape. Diagnostic carries the validator's message.
type ValidationError struct {
	Diagnostic string
	Err        error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("overrides: invalid options: %s", e.Diagnostic)
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// OverrideShapeError reports a structurally malformed override.
type OverrideShapeError struct {
	Index  int
	Reason string
}

func (e *OverrideShapeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("overrides: override %d: %s", e.Index, e.Reason)
}

// DomainParseError wraps a parser rejection. Index is -1 for the base config
// and the override position otherwise.
type DomainParseError struct {
	Index int
	Err   error
}

func (e *DomainParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Index < 0 {
		return fmt.Sprintf("overrides: parse base config: %v", e.Err)
	}
	return fmt.Sprintf("overrides: parse override %d: %v", e.Index, e.Err)
}

func (e *DomainParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CriterionError wraps a failure raised by a custom criterion while resolving.
type CriterionError struct {
	Name  string
	Index int
	Err   error
}

func (e *CriterionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("overrides: criterion %q on override %d: %v", e.Name, e.Index, e.Err)
}

func (e *CriterionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

package protocol

import (
	"errors"
	"fmt"
)

// ProtocolError represents a mailbox command rejected by the SDM or lost in
// transit. Contains the status code returned for the command.
type ProtocolError struct {
	// Operation is the command that failed
	Operation string

	// StatusCode is the status reported for the command
	StatusCode Status

	// Err is the underlying driver error, if any
	Err error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s (0x%X): %v", e.Operation, e.StatusCode, uint32(e.StatusCode), e.Err)
	}
	return fmt.Sprintf("%s failed: %s (0x%X)", e.Operation, e.StatusCode, uint32(e.StatusCode))
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// PreconditionError is returned when a request is rejected before any
// flash command is issued.
type PreconditionError struct {
	Operation string
	Reason    string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operation, e.Reason)
}

// CorruptionError is returned when flash contents fail a structural check.
type CorruptionError struct {
	// Structure names the on-flash structure that failed to validate
	Structure string

	// Reason describes the failed check
	Reason string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("corrupt %s: %s", e.Structure, e.Reason)
}

// Class groups errors by how the caller is expected to react.
type Class int

const (
	// ClassNone is reported for nil errors and errors outside the taxonomy
	ClassNone Class = iota

	// ClassPrecondition means the request itself was invalid
	ClassPrecondition

	// ClassTransport means the SDM or driver failed the command
	ClassTransport

	// ClassCorruption means flash contents are unusable
	ClassCorruption
)

func (c Class) String() string {
	switch c {
	case ClassPrecondition:
		return "precondition"
	case ClassTransport:
		return "transport"
	case ClassCorruption:
		return "corruption"
	default:
		return "none"
	}
}

// Classifier is implemented by errors defined in other packages that belong
// to one of the classes.
type Classifier interface {
	ErrorClass() Class
}

// ClassOf returns the class of the first taxonomy error in err's chain.
func ClassOf(err error) Class {
	var cl Classifier
	var pe *PreconditionError
	var te *ProtocolError
	var ce *CorruptionError
	switch {
	case err == nil:
		return ClassNone
	case errors.As(err, &cl):
		return cl.ErrorClass()
	case errors.As(err, &pe):
		return ClassPrecondition
	case errors.As(err, &te):
		return ClassTransport
	case errors.As(err, &ce):
		return ClassCorruption
	default:
		return ClassNone
	}
}

// IsProtocolError returns true if err wraps a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// StatusOf returns the status carried by a ProtocolError in err's chain.
func StatusOf(err error) (Status, bool) {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.StatusCode, true
	}
	return StatusOK, false
}

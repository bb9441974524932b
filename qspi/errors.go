package qspi

import (
	"fmt"

	"github.com/moffa90/go-sdmflash/protocol"
)

// VerifyError indicates that flash contents differ from the expected data.
type VerifyError struct {
	// Address is the first mismatching byte address
	Address  uint32
	Expected byte
	Actual   byte
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("verify mismatch at 0x%08X: expected 0x%02X, got 0x%02X",
		e.Address, e.Expected, e.Actual)
}

// ErrorClass reports a verify mismatch as corrupted flash contents.
func (e *VerifyError) ErrorClass() protocol.Class {
	return protocol.ClassCorruption
}

func precondition(op, format string, args ...interface{}) error {
	return &protocol.PreconditionError{Operation: op, Reason: fmt.Sprintf(format, args...)}
}

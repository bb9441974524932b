package protocol

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestStatusCatalogue(t *testing.T) {
	tests := []struct {
		status Status
		name   string
	}{
		{StatusOK, "OK"},
		{StatusAuthenticationFail, "AUTHENTICATION_FAIL"},
		{StatusTimeout, "TIMEOUT"},
		{StatusHWNotReady, "HW_NOT_READY"},
		{StatusQSPIAlreadyOpen, "QSPI_ALREADY_OPEN"},
		{StatusDeviceBusy, "DEVICE_BUSY"},
		{StatusFlashAccessDenied, "FLASH_ACCESS_DENIED"},
		{StatusUDSEfuseError, "UDS_EFUSE_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if !tt.status.Known() {
				t.Error("Known() = false")
			}
			if tt.status.Description() == "" {
				t.Error("empty description")
			}
		})
	}
}

func TestStatusUnknownFallback(t *testing.T) {
	s := Status(0x1234)
	if s.Known() {
		t.Error("Known() = true for unknown code")
	}
	if got := s.Description(); got != "Unknown error." {
		t.Errorf("Description() = %q", got)
	}
	if !strings.Contains(s.String(), "1234") {
		t.Errorf("String() = %q, want code included", s.String())
	}
}

func TestClassOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"nil", nil, ClassNone},
		{"plain", errors.New("boom"), ClassNone},
		{"precondition", &PreconditionError{Operation: "erase", Reason: "misaligned"}, ClassPrecondition},
		{"transport", &ProtocolError{Operation: "QSPI_READ", StatusCode: StatusTimeout}, ClassTransport},
		{"corruption", &CorruptionError{Structure: "partition table", Reason: "missing"}, ClassCorruption},
		{"wrapped transport", fmt.Errorf("commit: %w", &ProtocolError{StatusCode: StatusHWError}), ClassTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassOf(tt.err); got != tt.want {
				t.Errorf("ClassOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProtocolErrorUnwrap(t *testing.T) {
	cause := errors.New("ioctl: no such device")
	err := &ProtocolError{Operation: "QSPI_OPEN", StatusCode: StatusNotStarted, Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is() did not find the driver error")
	}
	if !IsProtocolError(fmt.Errorf("wrapped: %w", err)) {
		t.Error("IsProtocolError() = false for wrapped error")
	}
	if !strings.Contains(err.Error(), "NOT_STARTED") {
		t.Errorf("Error() = %q", err.Error())
	}
}

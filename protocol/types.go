package protocol

import (
	"encoding/binary"
	"fmt"
)

// Status is the numeric result code returned by the SDM for a mailbox command.
type Status uint32

// String returns the symbolic name of the status code.
func (s Status) String() string {
	if e, ok := statusCatalogue[s]; ok {
		return e.name
	}
	return fmt.Sprintf("UNKNOWN_STATUS_0x%X", uint32(s))
}

// Description returns a human-readable explanation of the status code.
// The text is diagnostic only; callers must not branch on it.
func (s Status) Description() string {
	if e, ok := statusCatalogue[s]; ok {
		return e.description
	}
	return "Unknown error."
}

// Known reports whether the status code is part of the catalogue.
func (s Status) Known() bool {
	_, ok := statusCatalogue[s]
	return ok
}

type statusEntry struct {
	name        string
	description string
}

var statusCatalogue = map[Status]statusEntry{
	StatusOK:                  {"OK", "The command completed successfully."},
	StatusInvalidCommand:      {"INVALID_CMD", "The currently loaded boot ROM cannot decode or recognize the command code."},
	StatusUnknownBootROM:      {"UNKNOWN_BR", "The currently loaded boot ROM cannot decode or recognize the command code."},
	StatusUnknown:             {"UNKNOWN", "The currently loaded firmware cannot decode the command code."},
	StatusInvalidParams:       {"INVALID_COMMAND_PARAMS", "The command is incorrectly formatted."},
	StatusInvalidOnSource:     {"CMD_INVALID_ON_SOURCE", "The command is from a source for which it is not enabled."},
	StatusClientIDNoMatch:     {"CLIENT_ID_NO_MATCH", "The client ID does not match the client holding exclusive QSPI access."},
	StatusInvalidAddress:      {"INVALID_ADDRESS", "The address is invalid."},
	StatusAuthenticationFail:  {"AUTHENTICATION_FAIL", "The configuration bitstream signature authentication failed."},
	StatusTimeout:             {"TIMEOUT", "Command timed out."},
	StatusHWNotReady:          {"HW_NOT_READY", "The hardware is not ready due to an initialization or configuration problem."},
	StatusHWError:             {"HW_ERROR", "The command could not complete due to an unrecoverable hardware error."},
	StatusSyncLost:            {"SYNC_LOST", "The device is out of sync after recovery reset."},
	StatusFunctionNotSupport:  {"FUNCTION_NOT_SUPPORT", "The function is currently not supported."},
	StatusQSPIHWError:         {"QSPI_HW_ERROR", "QSPI flash error: chip select, initialization, reset or settings update problem."},
	StatusQSPIAlreadyOpen:     {"QSPI_ALREADY_OPEN", "The client's exclusive access to QSPI flash is already open."},
	StatusEfuseSystemFailure:  {"EFUSE_SYSTEM_FAILURE", "The eFuse cache pointer is invalid."},
	StatusNotConfigured:       {"NOT_CONFIGURED", "The device is not configured."},
	StatusDeviceBusy:          {"DEVICE_BUSY", "The device is busy (RSU transition failure or HPS reconfiguration/cold reset)."},
	StatusFlashAccessDenied:   {"FLASH_ACCESS_DENIED", "Flash access denied or no valid response available."},
	StatusResponseError:       {"RESPONSE_ERROR", "General error."},
	StatusPUFActivationFailed: {"INTEL_PUF_ACTIVATION_FAILED", "Intel PUF activation failed."},
	StatusPUFHelperReadError:  {"PUF_HELPER_FILE_READ_ERROR", "PUF helper data could not be read."},
	StatusPUFNotProvisioned:   {"NOT_PROVISIONED_TO_USE_INTEL_PUF", "The device is not provisioned to use the Intel PUF."},
	StatusPUFNotFused:         {"NOT_FUSED_FOR_INTEL_PUF", "The device is not fused for the Intel PUF."},
	StatusUDSEfuseError:       {"UDS_EFUSE_ERROR", "UDS eFuse error."},
	StatusNotStarted:          {"NOT_STARTED", "The request did not reach the SDM."},
}

// ChipSelect identifies the flash chip line and its access mode.
type ChipSelect struct {
	// ID is the chip select line (0-15)
	ID uint8

	// Mode selects the alternate access mode bit
	Mode bool

	// ContinuousAddress enables continuous addressing across chips
	ContinuousAddress bool
}

// Word decodes the little-endian word at byte offset off.
func Word(b []byte, off uint32) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+WordSize])
}

// PutWord encodes v as a little-endian word at byte offset off.
func PutWord(b []byte, off uint32, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+WordSize], v)
}

// WordAligned reports whether v is a multiple of the word size.
func WordAligned(v uint32) bool {
	return v%WordSize == 0
}

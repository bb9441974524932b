package protocol

// WordSize is the flash access granularity in bytes.
const WordSize = 4

// SDM mailbox command codes used for quad SPI flash access.
const (
	// CmdQSPIOpen requests exclusive access to the QSPI flash
	CmdQSPIOpen = 0x32

	// CmdQSPIClose releases exclusive access to the QSPI flash
	CmdQSPIClose = 0x33

	// CmdQSPISetCS selects the flash chip line
	CmdQSPISetCS = 0x34

	// CmdQSPIErase erases a range of flash
	CmdQSPIErase = 0x38

	// CmdQSPIWrite writes a range of flash
	CmdQSPIWrite = 0x39

	// CmdQSPIRead reads a range of flash
	CmdQSPIRead = 0x3A
)

// Transfer limits enforced by the SDM firmware.
const (
	// MaxTransferWords is the largest read or write a single command may carry (2048 bytes)
	MaxTransferWords = 0x200

	// EraseAlignment is the boundary erase addresses and sizes must be aligned to
	EraseAlignment = 0x1000

	// MaxChipSelect is the highest chip select line that fits in the 4-bit field
	MaxChipSelect = 0xF

	// MaxResponseSize is the size of the response buffer handed to the mailbox driver
	MaxResponseSize = 4096
)

// Bit positions inside the QSPI_SET_CS control word.
const (
	chipSelectShift         = 28
	chipSelectModeBit       = 27
	chipSelectContinuousBit = 26
)

// Status codes returned by the SDM mailbox.
const (
	StatusOK                  Status = 0x000
	StatusInvalidCommand      Status = 0x001
	StatusUnknownBootROM      Status = 0x002
	StatusUnknown             Status = 0x003
	StatusInvalidParams       Status = 0x004
	StatusInvalidOnSource     Status = 0x006
	StatusClientIDNoMatch     Status = 0x008
	StatusInvalidAddress      Status = 0x009
	StatusAuthenticationFail  Status = 0x00A
	StatusTimeout             Status = 0x00B
	StatusHWNotReady          Status = 0x00C
	StatusHWError             Status = 0x00D
	StatusSyncLost            Status = 0x00E
	StatusFunctionNotSupport  Status = 0x00F
	StatusQSPIHWError         Status = 0x080
	StatusQSPIAlreadyOpen     Status = 0x081
	StatusEfuseSystemFailure  Status = 0x082
	StatusNotConfigured       Status = 0x100
	StatusDeviceBusy          Status = 0x1FF
	StatusFlashAccessDenied   Status = 0x2FF
	StatusResponseError       Status = 0x3FF
	StatusPUFActivationFailed Status = 0x510
	StatusPUFHelperReadError  Status = 0x511
	StatusPUFNotProvisioned   Status = 0x512
	StatusPUFNotFused         Status = 0x513
	StatusUDSEfuseError       Status = 0x514
)

// StatusNotStarted is reported when the request never reached the SDM.
const StatusNotStarted Status = 0xFFFFFFFF

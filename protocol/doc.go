// Package protocol implements the SDM mailbox commands used for quad SPI flash access.
//
// Every flash operation is a mailbox request made of a command code and a
// little-endian word payload. The SDM answers with a numeric status and,
// for reads, the requested words.
//
// # Commands
//
//	QSPI_OPEN    (0x32) no payload
//	QSPI_CLOSE   (0x33) no payload
//	QSPI_SET_CS  (0x34) [CS(31:28)|MODE(27)|CA(26)]
//	QSPI_ERASE   (0x38) [ADDRESS][SIZE_IN_WORDS]
//	QSPI_WRITE   (0x39) [ADDRESS][SIZE_IN_WORDS][DATA...]
//	QSPI_READ    (0x3A) [ADDRESS][SIZE_IN_WORDS]
//
// # Command Builders
//
// Use the Build* functions to create validated commands:
//
//	cmd, err := protocol.BuildEraseCmd(0x100000, 0x2000)
//	cmd, err := protocol.BuildWriteCmd(0x100000, data)
//
// Builders reject misaligned or oversized requests with a PreconditionError
// before anything reaches the mailbox.
//
// # Error Handling
//
// Errors fall into three classes, reported by ClassOf:
//
//   - PreconditionError: the request was invalid
//   - ProtocolError: the SDM or driver failed the command; the status is kept
//   - CorruptionError: flash contents failed a structural check
//
// Status names and descriptions are diagnostic only:
//
//	err := &protocol.ProtocolError{Operation: "QSPI_OPEN", StatusCode: protocol.StatusQSPIAlreadyOpen}
//	// err.Error() returns: "QSPI_OPEN failed: QSPI_ALREADY_OPEN (0x81)"
package protocol

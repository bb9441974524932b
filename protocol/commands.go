package protocol

import (
	"encoding/binary"
	"fmt"
)

// Command is a single SDM mailbox request. Each command kind is its own type
// carrying its typed fields; Code and Payload give the wire form.
type Command interface {
	// Code returns the mailbox command code
	Code() uint32

	// Payload returns the little-endian command arguments
	Payload() []byte
}

// Open requests exclusive access to the QSPI flash.
type Open struct{}

// Code implements Command.
func (Open) Code() uint32 { return CmdQSPIOpen }

// Payload implements Command.
func (Open) Payload() []byte { return nil }

// Close releases exclusive access to the QSPI flash.
type Close struct{}

// Code implements Command.
func (Close) Code() uint32 { return CmdQSPIClose }

// Payload implements Command.
func (Close) Payload() []byte { return nil }

// SetChipSelect selects the flash chip line for subsequent operations.
type SetChipSelect struct {
	ChipSelect
}

// Code implements Command.
func (*SetChipSelect) Code() uint32 { return CmdQSPISetCS }

// Payload implements Command.
//
// Payload structure (1 word):
//
//	[CS(31:28)][MODE(27)][CA(26)][RESERVED(25:0)]
func (c *SetChipSelect) Payload() []byte {
	b := make([]byte, WordSize)
	binary.LittleEndian.PutUint32(b, c.ControlWord())
	return b
}

// ControlWord returns the packed 32-bit QSPI_SET_CS argument.
func (c *SetChipSelect) ControlWord() uint32 {
	w := uint32(c.ID) << chipSelectShift
	if c.Mode {
		w |= 1 << chipSelectModeBit
	}
	if c.ContinuousAddress {
		w |= 1 << chipSelectContinuousBit
	}
	return w
}

// Erase resets a flash range to all-ones.
type Erase struct {
	Address     uint32
	SizeInWords uint32
}

// Code implements Command.
func (*Erase) Code() uint32 { return CmdQSPIErase }

// Payload implements Command.
//
// Payload structure (2 words):
//
//	[ADDRESS][SIZE_IN_WORDS]
func (c *Erase) Payload() []byte {
	return addressAndSize(c.Address, c.SizeInWords)
}

// Read reads a flash range.
type Read struct {
	Address     uint32
	SizeInWords uint32
}

// Code implements Command.
func (*Read) Code() uint32 { return CmdQSPIRead }

// Payload implements Command.
//
// Payload structure (2 words):
//
//	[ADDRESS][SIZE_IN_WORDS]
func (c *Read) Payload() []byte {
	return addressAndSize(c.Address, c.SizeInWords)
}

// Write programs a flash range.
type Write struct {
	Address uint32
	Data    []byte
}

// Code implements Command.
func (*Write) Code() uint32 { return CmdQSPIWrite }

// SizeInWords returns the number of words carried by the command.
func (c *Write) SizeInWords() uint32 {
	return uint32(len(c.Data) / WordSize)
}

// Payload implements Command.
//
// Payload structure:
//
//	[ADDRESS][SIZE_IN_WORDS][DATA...]
func (c *Write) Payload() []byte {
	b := addressAndSize(c.Address, c.SizeInWords())
	return append(b, c.Data...)
}

func addressAndSize(address, sizeInWords uint32) []byte {
	b := make([]byte, 2*WordSize)
	binary.LittleEndian.PutUint32(b[0:4], address)
	binary.LittleEndian.PutUint32(b[4:8], sizeInWords)
	return b
}

// BuildSetChipSelectCmd constructs a QSPI_SET_CS command.
// The chip select must fit in 4 bits.
func BuildSetChipSelectCmd(cs ChipSelect) (*SetChipSelect, error) {
	if cs.ID > MaxChipSelect {
		return nil, &PreconditionError{
			Operation: "set chip select",
			Reason:    fmt.Sprintf("chip select %d does not fit in 4 bits", cs.ID),
		}
	}
	return &SetChipSelect{ChipSelect: cs}, nil
}

// BuildEraseCmd constructs a QSPI_ERASE command.
// Both the address and the size must sit on an EraseAlignment boundary.
func BuildEraseCmd(address, sizeInWords uint32) (*Erase, error) {
	if address%EraseAlignment != 0 {
		return nil, &PreconditionError{
			Operation: "erase",
			Reason:    fmt.Sprintf("address 0x%08X is not aligned to 0x%X", address, EraseAlignment),
		}
	}
	if sizeInWords == 0 || sizeInWords%EraseAlignment != 0 {
		return nil, &PreconditionError{
			Operation: "erase",
			Reason:    fmt.Sprintf("size 0x%X words is not a non-zero multiple of 0x%X", sizeInWords, EraseAlignment),
		}
	}
	return &Erase{Address: address, SizeInWords: sizeInWords}, nil
}

// BuildReadCmd constructs a QSPI_READ command for at most MaxTransferWords words.
func BuildReadCmd(address, sizeInWords uint32) (*Read, error) {
	if err := checkTransfer("read", address, sizeInWords); err != nil {
		return nil, err
	}
	return &Read{Address: address, SizeInWords: sizeInWords}, nil
}

// BuildWriteCmd constructs a QSPI_WRITE command.
// The data length must be a whole number of words, at most MaxTransferWords.
func BuildWriteCmd(address uint32, data []byte) (*Write, error) {
	if len(data)%WordSize != 0 {
		return nil, &PreconditionError{
			Operation: "write",
			Reason:    fmt.Sprintf("data length %d is not a multiple of %d", len(data), WordSize),
		}
	}
	if err := checkTransfer("write", address, uint32(len(data)/WordSize)); err != nil {
		return nil, err
	}
	return &Write{Address: address, Data: data}, nil
}

func checkTransfer(op string, address, sizeInWords uint32) error {
	if !WordAligned(address) {
		return &PreconditionError{
			Operation: op,
			Reason:    fmt.Sprintf("address 0x%08X is not word aligned", address),
		}
	}
	if sizeInWords == 0 || sizeInWords > MaxTransferWords {
		return &PreconditionError{
			Operation: op,
			Reason:    fmt.Sprintf("size %d words is outside 1..%d", sizeInWords, MaxTransferWords),
		}
	}
	return nil
}

// CommandName returns the mailbox name of a command code.
func CommandName(code uint32) string {
	switch code {
	case CmdQSPIOpen:
		return "QSPI_OPEN"
	case CmdQSPIClose:
		return "QSPI_CLOSE"
	case CmdQSPISetCS:
		return "QSPI_SET_CS"
	case CmdQSPIErase:
		return "QSPI_ERASE"
	case CmdQSPIWrite:
		return "QSPI_WRITE"
	case CmdQSPIRead:
		return "QSPI_READ"
	default:
		return fmt.Sprintf("0x%08x", code)
	}
}

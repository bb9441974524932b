package objdir

import (
	"fmt"

	"github.com/moffa90/go-sdmflash/protocol"
)

// Object directory partition geometry.
const (
	// BaseAddress is the partition start recorded in every header and the first probe address
	BaseAddress = 0x200000

	// ProbeStride is the distance between candidate header addresses
	ProbeStride = 0x8000

	// ProbeCount is the number of candidate header addresses
	ProbeCount = 8

	// BlockSize is the allocation unit for object payloads in bytes
	BlockSize = 512

	// BlockSizeWords is the allocation unit for object payloads in words
	BlockSizeWords = BlockSize / protocol.WordSize

	// HeaderSize is the size of the partition header in bytes
	HeaderSize = 64

	// HeaderWords is the size of the partition header in words
	HeaderWords = HeaderSize / protocol.WordSize

	// DirectoryMagic identifies a partition header
	DirectoryMagic = 0x00534F42

	// MaxEntries is the number of directory entries that fit in the header block
	MaxEntries = (BlockSizeWords - firstEntryWord) / entryWords
)

const (
	firstEntryWord = 4
	entryWords     = 4
	reservedValue  = 0xFFFFFFFF
)

// Header is the first four words of an object directory partition.
type Header struct {
	Magic        uint32
	StartAddress uint32
	// Size is the partition size in bytes
	Size     uint32
	Reserved uint32
}

// ParseHeader decodes the header at the start of b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < firstEntryWord*protocol.WordSize {
		return Header{}, &protocol.PreconditionError{
			Operation: "parse directory header",
			Reason:    fmt.Sprintf("got %d bytes, need %d", len(b), firstEntryWord*protocol.WordSize),
		}
	}
	return Header{
		Magic:        protocol.Word(b, 0),
		StartAddress: protocol.Word(b, 4),
		Size:         protocol.Word(b, 8),
		Reserved:     protocol.Word(b, 12),
	}, nil
}

// Valid reports whether the header describes a partition.
func (h Header) Valid() bool {
	return h.Magic == DirectoryMagic &&
		h.StartAddress == BaseAddress &&
		h.Size != 0 && h.Size != 0xFFFFFFFF &&
		h.Reserved == reservedValue
}

// SizeInWords returns the partition size in words.
func (h Header) SizeInWords() uint32 {
	return h.Size / protocol.WordSize
}

func newHeader(sizeInWords uint32) Header {
	return Header{
		Magic:        DirectoryMagic,
		StartAddress: BaseAddress,
		Size:         sizeInWords * protocol.WordSize,
		Reserved:     reservedValue,
	}
}

func (h Header) encode(b []byte) {
	protocol.PutWord(b, 0, h.Magic)
	protocol.PutWord(b, 4, h.StartAddress)
	protocol.PutWord(b, 8, h.Size)
	protocol.PutWord(b, 12, h.Reserved)
}

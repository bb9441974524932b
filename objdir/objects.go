package objdir

import (
	"fmt"

	"k8s.io/klog/v2"

	"github.com/moffa90/go-sdmflash/protocol"
)

// TypeID names the kind of object stored in the directory.
type TypeID uint32

// Object types.
const (
	TypeUDSIntelPUF TypeID = 0x00444850
	TypeUserIIDPUF  TypeID = 0x00444949
	TypeUDSIIDPUF   TypeID = 0x40444949
)

func (t TypeID) String() string {
	switch t {
	case TypeUDSIntelPUF:
		return "UDS_INTEL_PUF"
	case TypeUserIIDPUF:
		return "USER_IID_PUF"
	case TypeUDSIIDPUF:
		return "UDS_IID_PUF"
	default:
		return fmt.Sprintf("0x%08X", uint32(t))
	}
}

// empty reports whether the type id marks an unused directory slot.
func (t TypeID) empty() bool {
	return t == 0 || t == 0xFFFFFFFF
}

// Object is one directory entry together with its payload.
type Object struct {
	Type       TypeID
	StartBlock uint32
	// Size is the payload size in bytes
	Size uint32
	CRC  uint32
	// Data holds the Size payload bytes; it belongs to the caller
	Data []byte
}

// Blocks returns the number of 512-byte blocks the payload occupies.
func (o Object) Blocks() uint32 {
	return uint32((uint64(o.Size) + BlockSize - 1) / BlockSize)
}

// ParseObjects walks the directory of a partition image and returns the
// objects whose payload lies inside the first sizeInWords words. Empty
// slots are skipped. Each returned payload is a copy.
func ParseObjects(image []byte, sizeInWords uint32) ([]Object, error) {
	if sizeInWords < BlockSizeWords {
		return nil, &protocol.PreconditionError{
			Operation: "parse objects",
			Reason:    fmt.Sprintf("partition of %d words is smaller than the directory block", sizeInWords),
		}
	}
	if uint64(len(image)) < uint64(sizeInWords)*protocol.WordSize {
		return nil, &protocol.PreconditionError{
			Operation: "parse objects",
			Reason:    fmt.Sprintf("image holds %d bytes, partition is %d words", len(image), sizeInWords),
		}
	}

	var objects []Object
	for w := uint32(firstEntryWord); w < BlockSizeWords; w += entryWords {
		off := w * protocol.WordSize
		o := Object{
			Type:       TypeID(protocol.Word(image, off)),
			StartBlock: protocol.Word(image, off+4),
			Size:       protocol.Word(image, off+8),
			CRC:        protocol.Word(image, off+12),
		}
		if o.Type.empty() {
			continue
		}

		start := uint64(o.StartBlock) * BlockSizeWords
		end := start + uint64(o.Blocks())*BlockSizeWords
		if end > uint64(sizeInWords) {
			klog.V(1).InfoS("Skipping object outside partition",
				"type", o.Type.String(),
				"start_block", o.StartBlock,
				"size", o.Size,
			)
			continue
		}

		first := start * protocol.WordSize
		o.Data = make([]byte, o.Size)
		copy(o.Data, image[first:first+uint64(o.Size)])
		objects = append(objects, o)
	}
	return objects, nil
}

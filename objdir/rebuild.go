package objdir

import (
	"fmt"

	"github.com/moffa90/go-sdmflash/protocol"
)

// Rebuild produces a new partition image of sizeInWords words holding the
// existing objects with target's payload replaced, appended, or dropped
// when payload is empty. Objects are laid out in order from block 1 with
// no gaps. The returned objects describe the new layout.
//
// Rebuild does not modify existing.
func Rebuild(existing []Object, sizeInWords uint32, target TypeID, payload []byte) ([]byte, []Object, error) {
	if target.empty() {
		return nil, nil, &protocol.PreconditionError{
			Operation: "rebuild partition",
			Reason:    fmt.Sprintf("type id 0x%08X marks an empty slot", uint32(target)),
		}
	}
	if uint64(len(payload)) > 0xFFFFFFFF {
		return nil, nil, &protocol.PreconditionError{
			Operation: "rebuild partition",
			Reason:    "payload exceeds the 32-bit size field",
		}
	}

	var replacement *Object
	if len(payload) > 0 {
		replacement = &Object{
			Type: target,
			Size: uint32(len(payload)),
			CRC:  Checksum(payload),
			Data: payload,
		}
	}

	objects := make([]Object, 0, len(existing)+1)
	found := false
	for _, o := range existing {
		if o.Type == target {
			found = true
			if replacement == nil {
				continue
			}
			o = *replacement
		}
		objects = append(objects, o)
	}
	if !found && replacement != nil {
		objects = append(objects, *replacement)
	}

	image, err := layout(objects, sizeInWords)
	if err != nil {
		return nil, nil, err
	}
	return image, objects, nil
}

// Format returns an empty partition image of sizeInWords words.
func Format(sizeInWords uint32) ([]byte, error) {
	return layout(nil, sizeInWords)
}

// layout assigns start blocks to objects in place and encodes the image.
func layout(objects []Object, sizeInWords uint32) ([]byte, error) {
	if sizeInWords < BlockSizeWords {
		return nil, &protocol.PreconditionError{
			Operation: "rebuild partition",
			Reason:    fmt.Sprintf("partition of %d words is smaller than the directory block", sizeInWords),
		}
	}
	if len(objects) > MaxEntries {
		return nil, &protocol.PreconditionError{
			Operation: "rebuild partition",
			Reason:    fmt.Sprintf("%d objects, directory holds at most %d", len(objects), MaxEntries),
		}
	}

	next := uint64(1)
	for i := range objects {
		objects[i].StartBlock = uint32(next)
		next += uint64(objects[i].Blocks())
	}
	if next*BlockSizeWords > uint64(sizeInWords) {
		return nil, &protocol.PreconditionError{
			Operation: "rebuild partition",
			Reason: fmt.Sprintf("objects need %d blocks, partition holds %d",
				next, uint64(sizeInWords)/BlockSizeWords),
		}
	}

	image := make([]byte, uint64(sizeInWords)*protocol.WordSize)
	newHeader(sizeInWords).encode(image)

	for i, o := range objects {
		off := uint32(firstEntryWord+i*entryWords) * protocol.WordSize
		protocol.PutWord(image, off, uint32(o.Type))
		protocol.PutWord(image, off+4, o.StartBlock)
		protocol.PutWord(image, off+8, o.Size)
		protocol.PutWord(image, off+12, o.CRC)

		first := uint64(o.StartBlock) * BlockSize
		copy(image[first:first+uint64(o.Size)], o.Data)
	}
	return image, nil
}

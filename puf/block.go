package puf

import (
	"fmt"

	"github.com/moffa90/go-sdmflash/protocol"
)

// PUF data block geometry.
const (
	// BlockSizeWords is the size of one block copy in words
	BlockSizeWords = 0x2000

	// BlockSize is the size of one block copy in bytes
	BlockSize = BlockSizeWords * protocol.WordSize

	// SectionLimitWords is the largest payload a section accepts
	SectionLimitWords = 0x1000

	// Block0PointerOffset locates the block0 pointer relative to the configuration data base
	Block0PointerOffset = 0x1F90

	// Block1PointerOffset locates the block1 pointer relative to the configuration data base
	Block1PointerOffset = 0x1F98
)

// Section magic words.
const (
	MagicHelpData   = 0x4CF27941
	MagicWrappedKey = 0x4E110CCD
)

// erasedWord is the value of a never-written word.
const erasedWord = 0xFFFFFFFF

// sectionCountOffset is the allocation table word holding the section count.
const sectionCountOffset = 0x0

// Section is the byte offset of a fixed section slot inside the block.
type Section uint32

// Section slots.
const (
	SectionUserIIDHelpData   Section = 0x1000
	SectionUserIIDWrappedKey Section = 0x2000
	SectionUDSIIDHelpData    Section = 0x3000
	SectionUDSIIDWrappedKey  Section = 0x4000
)

// Sections lists the slots in layout order.
var Sections = []Section{
	SectionUserIIDHelpData,
	SectionUserIIDWrappedKey,
	SectionUDSIIDHelpData,
	SectionUDSIIDWrappedKey,
}

type sectionInfo struct {
	name  string
	magic uint32
	slot  uint32 // allocation table offset
}

var sectionTable = map[Section]sectionInfo{
	SectionUserIIDHelpData:   {"user IID help data", MagicHelpData, 0x8},
	SectionUserIIDWrappedKey: {"user IID wrapped key", MagicWrappedKey, 0xC},
	SectionUDSIIDHelpData:    {"UDS IID help data", MagicHelpData, 0x10},
	SectionUDSIIDWrappedKey:  {"UDS IID wrapped key", MagicWrappedKey, 0x14},
}

// Valid reports whether s is one of the four section slots.
func (s Section) Valid() bool {
	_, ok := sectionTable[s]
	return ok
}

// Magic returns the magic word expected at the start of the section.
func (s Section) Magic() uint32 {
	return sectionTable[s].magic
}

// String returns the section name.
func (s Section) String() string {
	if info, ok := sectionTable[s]; ok {
		return info.name
	}
	return fmt.Sprintf("section 0x%X", uint32(s))
}

func (s Section) check(op string) error {
	if !s.Valid() {
		return &protocol.PreconditionError{
			Operation: op,
			Reason:    fmt.Sprintf("unknown section offset 0x%X", uint32(s)),
		}
	}
	return nil
}

// Block is an in-memory image of one PUF data block copy.
type Block struct {
	data []byte
}

// NewBlock wraps a full block image. The block takes ownership of data.
func NewBlock(data []byte) (*Block, error) {
	if len(data) != BlockSize {
		return nil, &protocol.PreconditionError{
			Operation: "load block",
			Reason:    fmt.Sprintf("block image is %d bytes, want %d", len(data), BlockSize),
		}
	}
	return &Block{data: data}, nil
}

// Bytes returns the block image.
func (b *Block) Bytes() []byte {
	return b.data
}

// SectionCount returns the section counter. An erased counter reads as 0.
func (b *Block) SectionCount() uint32 {
	n := protocol.Word(b.data, sectionCountOffset)
	if n == erasedWord {
		return 0
	}
	return n
}

// AllocationSlot returns the allocation table value recorded for s.
func (b *Block) AllocationSlot(s Section) uint32 {
	return protocol.Word(b.data, sectionTable[s].slot)
}

// SectionMagic returns the word currently stored at the start of s.
func (b *Block) SectionMagic(s Section) uint32 {
	return protocol.Word(b.data, uint32(s))
}

// HasSection reports whether s starts with its expected magic.
func (b *Block) HasSection(s Section) bool {
	return s.Valid() && b.SectionMagic(s) == s.Magic()
}

// SectionData returns n bytes starting at the section offset.
func (b *Block) SectionData(s Section, n int) []byte {
	return b.data[uint32(s) : uint32(s)+uint32(n)]
}

// PatchSection overwrites the start of section s with data. Bytes past
// len(data) keep their previous value. If s does not already hold a section
// of its kind, the section counter is incremented and the allocation table
// slot is set to the section offset. Reports whether the section was created.
func (b *Block) PatchSection(s Section, data []byte) (bool, error) {
	if err := s.check("patch section"); err != nil {
		return false, err
	}
	if err := checkSectionSize(data); err != nil {
		return false, err
	}

	created := !b.HasSection(s)
	if created {
		protocol.PutWord(b.data, sectionCountOffset, b.SectionCount()+1)
		protocol.PutWord(b.data, sectionTable[s].slot, uint32(s))
	}
	copy(b.data[s:], data)
	return created, nil
}

func checkSectionSize(data []byte) error {
	if len(data) > SectionLimitWords*protocol.WordSize {
		return &protocol.PreconditionError{
			Operation: "patch section",
			Reason:    fmt.Sprintf("payload is %d bytes, limit is %d", len(data), SectionLimitWords*protocol.WordSize),
		}
	}
	return nil
}

// SectionSummary describes one section slot for inspection.
type SectionSummary struct {
	Section Section
	Present bool
	Magic   uint32
	Slot    uint32
}

// Summary returns the state of every section slot.
func (b *Block) Summary() []SectionSummary {
	out := make([]SectionSummary, 0, len(Sections))
	for _, s := range Sections {
		out = append(out, SectionSummary{
			Section: s,
			Present: b.HasSection(s),
			Magic:   b.SectionMagic(s),
			Slot:    b.AllocationSlot(s),
		})
	}
	return out
}

package puf

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/moffa90/go-sdmflash/protocol"
)

// Flash is the subset of the flash transport the manager needs.
// *qspi.Flash satisfies it.
type Flash interface {
	Erase(ctx context.Context, address, sizeInWords uint32) error
	ReadMultiple(ctx context.Context, address, sizeInWords uint32) ([]byte, error)
	WriteMultiple(ctx context.Context, address, sizeInWords uint32, buf []byte) error
}

// BlockPair holds the addresses of the two redundant block copies.
type BlockPair struct {
	// Base is the configuration data base address the pointers are relative to
	Base   uint32
	Block0 uint32
	Block1 uint32
}

// Manager locates, patches and commits the PUF data block pair.
// Every operation re-reads flash; nothing is cached between calls.
// Callers must hold an open flash session.
type Manager struct {
	flash Flash
}

// NewManager creates a Manager on top of flash.
func NewManager(flash Flash) *Manager {
	return &Manager{flash: flash}
}

// LocateConfigurationData reads sector 0 and returns the configuration data
// base address.
func (m *Manager) LocateConfigurationData(ctx context.Context) (uint32, error) {
	sector, err := m.flash.ReadMultiple(ctx, 0, SectorSize/protocol.WordSize)
	if err != nil {
		return 0, fmt.Errorf("read sector 0: %w", err)
	}

	if !HasSignature(sector) {
		klog.V(2).InfoS("No partition table, using base 0")
		return 0, nil
	}

	base, err := ConfigurationDataAddress(sector)
	if err != nil {
		klog.ErrorS(err, "Configuration data partition not found")
		return 0, err
	}
	klog.V(2).InfoS("Found configuration data partition", "base", fmt.Sprintf("0x%08X", base))
	return base, nil
}

// LocateBlockPair reads the block pointers stored relative to base and
// returns the block addresses. Pointers of 0 or 0xFFFFFFFF and blocks not
// exactly BlockSize apart are reported as corruption.
func (m *Manager) LocateBlockPair(ctx context.Context, base uint32) (BlockPair, error) {
	block0, err := m.blockAddress(ctx, base, Block0PointerOffset)
	if err != nil {
		return BlockPair{}, err
	}
	block1, err := m.blockAddress(ctx, base, Block1PointerOffset)
	if err != nil {
		return BlockPair{}, err
	}

	if block1 < block0 || block1-block0 != BlockSize {
		err := &protocol.CorruptionError{
			Structure: "PUF data block pointers",
			Reason: fmt.Sprintf("block0 0x%08X and block1 0x%08X are not 0x%X bytes apart",
				block0, block1, BlockSize),
		}
		klog.ErrorS(err, "Invalid PUF data block pair")
		return BlockPair{}, err
	}

	return BlockPair{Base: base, Block0: block0, Block1: block1}, nil
}

func (m *Manager) blockAddress(ctx context.Context, base, pointerOffset uint32) (uint32, error) {
	buf, err := m.flash.ReadMultiple(ctx, base+pointerOffset, 1)
	if err != nil {
		return 0, fmt.Errorf("read block pointer at 0x%08X: %w", base+pointerOffset, err)
	}

	ptr := protocol.Word(buf, 0)
	if ptr == 0 || ptr == erasedWord {
		err := &protocol.CorruptionError{
			Structure: "PUF data block pointers",
			Reason:    fmt.Sprintf("invalid pointer 0x%08X at 0x%08X", ptr, base+pointerOffset),
		}
		klog.ErrorS(err, "Invalid PUF data block pointer")
		return 0, err
	}

	addr := uint64(base) + uint64(ptr)
	if addr+BlockSize > 1<<32 {
		return 0, &protocol.CorruptionError{
			Structure: "PUF data block pointers",
			Reason:    fmt.Sprintf("pointer 0x%08X from base 0x%08X leaves the address space", ptr, base),
		}
	}
	return uint32(addr), nil
}

// Locate finds the configuration data base and the block pair behind it.
func (m *Manager) Locate(ctx context.Context) (BlockPair, error) {
	base, err := m.LocateConfigurationData(ctx)
	if err != nil {
		return BlockPair{}, err
	}
	return m.LocateBlockPair(ctx, base)
}

// ReadBlock reads one full block copy.
func (m *Manager) ReadBlock(ctx context.Context, address uint32) (*Block, error) {
	data, err := m.flash.ReadMultiple(ctx, address, BlockSizeWords)
	if err != nil {
		return nil, fmt.Errorf("read PUF data block at 0x%08X: %w", address, err)
	}
	return NewBlock(data)
}

// ReadBlockPair locates and reads both block copies.
// No copy is preferred over the other.
func (m *Manager) ReadBlockPair(ctx context.Context) (BlockPair, *Block, *Block, error) {
	pair, err := m.Locate(ctx)
	if err != nil {
		return BlockPair{}, nil, nil, err
	}
	b0, err := m.ReadBlock(ctx, pair.Block0)
	if err != nil {
		return pair, nil, nil, err
	}
	b1, err := m.ReadBlock(ctx, pair.Block1)
	if err != nil {
		return pair, nil, nil, err
	}
	return pair, b0, b1, nil
}

// Commit erases and rewrites block0, then block1, with the same image.
// The flash transport waits its settle delay before each erase. A failure
// stops the sequence and is returned; the copies may then differ.
func (m *Manager) Commit(ctx context.Context, pair BlockPair, block *Block) error {
	for i, addr := range []uint32{pair.Block0, pair.Block1} {
		klog.V(2).InfoS("Committing PUF data block", "copy", i, "address", fmt.Sprintf("0x%08X", addr))

		if err := m.flash.Erase(ctx, addr, BlockSizeWords); err != nil {
			return fmt.Errorf("erase block%d: %w", i, err)
		}
		if err := m.flash.WriteMultiple(ctx, addr, BlockSizeWords, block.Bytes()); err != nil {
			return fmt.Errorf("write block%d: %w", i, err)
		}
	}
	return nil
}

// UpdateSection reads block0, patches section s with data and commits both
// copies. Oversized payloads and unknown sections fail before any flash access.
func (m *Manager) UpdateSection(ctx context.Context, s Section, data []byte) error {
	if err := s.check("update section"); err != nil {
		return err
	}
	if err := checkSectionSize(data); err != nil {
		return err
	}

	pair, err := m.Locate(ctx)
	if err != nil {
		return err
	}
	block, err := m.ReadBlock(ctx, pair.Block0)
	if err != nil {
		return err
	}

	created, err := block.PatchSection(s, data)
	if err != nil {
		return err
	}
	klog.V(2).InfoS("Patched PUF data section",
		"section", s.String(),
		"bytes", len(data),
		"created", created,
		"sections", block.SectionCount(),
	)

	if err := m.Commit(ctx, pair, block); err != nil {
		return err
	}
	klog.InfoS("Updated PUF data block", "section", s.String(), "block0", fmt.Sprintf("0x%08X", pair.Block0),
		"block1", fmt.Sprintf("0x%08X", pair.Block1))
	return nil
}

// Initialize lays out an empty block pair on erased flash: an optional
// partition table pointing at mbrSector, and block pointers placing block0
// at base+blockOffset and block1 right after it.
// A zero mbrSector writes no partition table and uses base 0.
func (m *Manager) Initialize(ctx context.Context, mbrSector, blockOffset uint32) (BlockPair, error) {
	if blockOffset == 0 || blockOffset%protocol.EraseAlignment != 0 {
		return BlockPair{}, &protocol.PreconditionError{
			Operation: "initialize PUF data block",
			Reason:    fmt.Sprintf("block offset 0x%X is not a non-zero multiple of 0x%X", blockOffset, protocol.EraseAlignment),
		}
	}

	var base uint32
	if mbrSector != 0 {
		entry := Entry{Type: PartitionTypeConfigData, StartSector: mbrSector}
		addr, err := entry.Address()
		if err != nil {
			return BlockPair{}, err
		}
		base = addr

		sector, err := BuildPartitionTable(entry)
		if err != nil {
			return BlockPair{}, err
		}
		if err := m.flash.WriteMultiple(ctx, 0, SectorSize/protocol.WordSize, sector); err != nil {
			return BlockPair{}, fmt.Errorf("write partition table: %w", err)
		}
	}

	ptrs := []struct {
		offset uint32
		value  uint32
	}{
		{Block0PointerOffset, blockOffset},
		{Block1PointerOffset, blockOffset + BlockSize},
	}
	for _, p := range ptrs {
		buf := make([]byte, protocol.WordSize)
		protocol.PutWord(buf, 0, p.value)
		if err := m.flash.WriteMultiple(ctx, base+p.offset, 1, buf); err != nil {
			return BlockPair{}, fmt.Errorf("write block pointer at 0x%08X: %w", base+p.offset, err)
		}
	}

	return m.LocateBlockPair(ctx, base)
}

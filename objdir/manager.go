package objdir

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
	Verify(ctx context.Context, address, sizeInWords uint32, expected []byte) error
}

// Partition locates the two copies of an object directory partition.
type Partition struct {
	Block0      uint32
	Block1      uint32
	SizeInWords uint32
}

// Manager discovers, rebuilds and commits the object directory partition.
// Callers must hold an open flash session.
type Manager struct {
	flash Flash
}

// NewManager creates a Manager on top of flash.
func NewManager(flash Flash) *Manager {
	return &Manager{flash: flash}
}

// Discover probes the candidate header addresses in order and returns the
// first valid partition. Block1 follows Block0 by the partition size.
func (m *Manager) Discover(ctx context.Context) (Partition, error) {
	for i := 0; i < ProbeCount; i++ {
		addr := uint32(BaseAddress + i*ProbeStride)

		buf, err := m.flash.ReadMultiple(ctx, addr, HeaderWords)
		if err != nil {
			return Partition{}, fmt.Errorf("read directory header at 0x%08X: %w", addr, err)
		}
		h, err := ParseHeader(buf)
		if err != nil {
			return Partition{}, err
		}
		if !h.Valid() {
			klog.V(3).InfoS("No directory header", "address", fmt.Sprintf("0x%08X", addr))
			continue
		}
		if uint64(addr)+2*uint64(h.Size) > 1<<32 {
			klog.V(2).InfoS("Directory header size leaves the address space",
				"address", fmt.Sprintf("0x%08X", addr), "size", h.Size)
			continue
		}

		p := Partition{Block0: addr, Block1: addr + h.Size, SizeInWords: h.SizeInWords()}
		klog.V(2).InfoS("Found object directory",
			"block0", fmt.Sprintf("0x%08X", p.Block0),
			"block1", fmt.Sprintf("0x%08X", p.Block1),
			"words", p.SizeInWords,
		)
		return p, nil
	}

	err := &protocol.CorruptionError{
		Structure: "object directory",
		Reason: fmt.Sprintf("no valid header in %d candidates from 0x%08X",
			ProbeCount, BaseAddress),
	}
	klog.ErrorS(err, "Object directory not found")
	return Partition{}, err
}

// ReadObjects reads a partition copy and returns its objects.
func (m *Manager) ReadObjects(ctx context.Context, address, sizeInWords uint32) ([]Object, error) {
	image, err := m.flash.ReadMultiple(ctx, address, sizeInWords)
	if err != nil {
		return nil, fmt.Errorf("read object directory at 0x%08X: %w", address, err)
	}
	return ParseObjects(image, sizeInWords)
}

// Commit erases, writes and verifies block0, then block1. Any failure,
// including a verify mismatch on block0, stops the sequence.
func (m *Manager) Commit(ctx context.Context, p Partition, image []byte) error {
	for i, addr := range []uint32{p.Block0, p.Block1} {
		klog.V(2).InfoS("Committing object directory", "copy", i, "address", fmt.Sprintf("0x%08X", addr))

		if err := m.flash.Erase(ctx, addr, p.SizeInWords); err != nil {
			return fmt.Errorf("erase block%d: %w", i, err)
		}
		if err := m.flash.WriteMultiple(ctx, addr, p.SizeInWords, image); err != nil {
			return fmt.Errorf("write block%d: %w", i, err)
		}
		if err := m.flash.Verify(ctx, addr, p.SizeInWords, image); err != nil {
			klog.ErrorS(err, "Object directory verify failed", "copy", i)
			return fmt.Errorf("verify block%d: %w", i, err)
		}
	}
	return nil
}

// Update replaces, adds or, for an empty payload, removes the object of type
// t and commits both partition copies. Existing objects are read from block0.
func (m *Manager) Update(ctx context.Context, t TypeID, payload []byte) error {
	p, err := m.Discover(ctx)
	if err != nil {
		return err
	}
	existing, err := m.ReadObjects(ctx, p.Block0, p.SizeInWords)
	if err != nil {
		return err
	}

	image, objects, err := Rebuild(existing, p.SizeInWords, t, payload)
	if err != nil {
		return err
	}
	klog.V(2).InfoS("Rebuilt object directory", "type", t.String(), "bytes", len(payload), "objects", len(objects))

	if err := m.Commit(ctx, p, image); err != nil {
		return err
	}
	klog.InfoS("Updated object directory", "type", t.String(), "block0", fmt.Sprintf("0x%08X", p.Block0),
		"block1", fmt.Sprintf("0x%08X", p.Block1))
	return nil
}

// Remove drops the object of type t, shifting later objects down.
func (m *Manager) Remove(ctx context.Context, t TypeID) error {
	return m.Update(ctx, t, nil)
}

// Initialize commits an empty partition of sizeInWords words with block0 at
// address and block1 right after it.
func (m *Manager) Initialize(ctx context.Context, address, sizeInWords uint32) (Partition, error) {
	if uint64(address)+2*uint64(sizeInWords)*protocol.WordSize > 1<<32 {
		return Partition{}, &protocol.PreconditionError{
			Operation: "initialize object directory",
			Reason:    fmt.Sprintf("partition of %d words at 0x%08X leaves the address space", sizeInWords, address),
		}
	}
	image, err := Format(sizeInWords)
	if err != nil {
		return Partition{}, err
	}

	p := Partition{
		Block0:      address,
		Block1:      address + sizeInWords*protocol.WordSize,
		SizeInWords: sizeInWords,
	}
	if err := m.Commit(ctx, p, image); err != nil {
		return Partition{}, err
	}
	return p, nil
}

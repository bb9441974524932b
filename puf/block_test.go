package puf

import (
	"bytes"
	"testing"

	"github.com/moffa90/go-sdmflash/protocol"
)

func erasedBlock(t *testing.T) *Block {
	t.Helper()
	data := bytes.Repeat([]byte{0xFF}, BlockSize)
	b, err := NewBlock(data)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func section(magic uint32, n int) []byte {
	b := make([]byte, n)
	protocol.PutWord(b, 0, magic)
	for i := 4; i < n; i++ {
		b[i] = byte(i)
	}
	return b
}

func TestPatchSectionRoundTrip(t *testing.T) {
	for _, s := range Sections {
		t.Run(s.String(), func(t *testing.T) {
			b := erasedBlock(t)
			data := section(s.Magic(), 120)

			if _, err := b.PatchSection(s, data); err != nil {
				t.Fatalf("PatchSection: %v", err)
			}
			if got := b.SectionData(s, len(data)); !bytes.Equal(got, data) {
				t.Error("section content differs from payload")
			}
		})
	}
}

func TestPatchSectionCounter(t *testing.T) {
	b := erasedBlock(t)

	created, err := b.PatchSection(SectionUserIIDWrappedKey, section(MagicWrappedKey, 64))
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Error("first patch not reported as created")
	}
	if n := b.SectionCount(); n != 1 {
		t.Errorf("SectionCount() = %d, want 1 (erased counter counts as 0)", n)
	}
	if slot := b.AllocationSlot(SectionUserIIDWrappedKey); slot != 0x2000 {
		t.Errorf("allocation slot = 0x%X, want 0x2000", slot)
	}
	if w := protocol.Word(b.Bytes(), 0xC); w != 0x2000 {
		t.Errorf("allocation word at 0xC = 0x%X, want 0x2000", w)
	}

	created, err = b.PatchSection(SectionUserIIDWrappedKey, section(MagicWrappedKey, 64))
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("same-kind update reported as created")
	}
	if n := b.SectionCount(); n != 1 {
		t.Errorf("SectionCount() after update = %d, want 1", n)
	}

	if _, err := b.PatchSection(SectionUDSIIDHelpData, section(MagicHelpData, 64)); err != nil {
		t.Fatal(err)
	}
	if n := b.SectionCount(); n != 2 {
		t.Errorf("SectionCount() after second section = %d, want 2", n)
	}
	if w := protocol.Word(b.Bytes(), 0x10); w != 0x3000 {
		t.Errorf("allocation word at 0x10 = 0x%X, want 0x3000", w)
	}
}

func TestPatchSectionMagicMismatch(t *testing.T) {
	b := erasedBlock(t)
	protocol.PutWord(b.Bytes(), 0, 5)
	// A help data magic in a wrapped key slot is a different kind.
	protocol.PutWord(b.Bytes(), uint32(SectionUDSIIDWrappedKey), MagicHelpData)

	created, err := b.PatchSection(SectionUDSIIDWrappedKey, section(MagicWrappedKey, 16))
	if err != nil {
		t.Fatal(err)
	}
	if !created || b.SectionCount() != 6 {
		t.Errorf("created = %v, count = %d; want true, 6", created, b.SectionCount())
	}
}

func TestPatchSectionLeavesTail(t *testing.T) {
	b := erasedBlock(t)
	s := SectionUDSIIDHelpData

	b.PatchSection(s, section(MagicHelpData, 200))
	b.PatchSection(s, section(MagicHelpData, 40))

	tail := b.SectionData(s, 200)[40:]
	if !bytes.Equal(tail, section(MagicHelpData, 200)[40:]) {
		t.Error("bytes past the new payload were modified")
	}
}

func TestPatchSectionPreconditions(t *testing.T) {
	b := erasedBlock(t)
	before := append([]byte(nil), b.Bytes()...)

	tests := []struct {
		name    string
		section Section
		size    int
	}{
		{"oversized payload", SectionUserIIDHelpData, SectionLimitWords*protocol.WordSize + 1},
		{"unknown section", Section(0x5000), 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.PatchSection(tt.section, make([]byte, tt.size))
			if protocol.ClassOf(err) != protocol.ClassPrecondition {
				t.Errorf("expected precondition error, got %v", err)
			}
		})
	}
	if !bytes.Equal(before, b.Bytes()) {
		t.Error("rejected patch modified the block")
	}

	// The limit itself is accepted.
	if _, err := b.PatchSection(SectionUDSIIDWrappedKey, make([]byte, SectionLimitWords*protocol.WordSize)); err != nil {
		t.Errorf("payload at limit: %v", err)
	}
}

func TestNewBlockSize(t *testing.T) {
	if _, err := NewBlock(make([]byte, BlockSize-4)); err == nil {
		t.Error("short image: expected error")
	}
}

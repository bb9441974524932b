package puf

import (
	"errors"
	"fmt"

	"github.com/moffa90/go-sdmflash/protocol"
)

// Legacy partition table layout in sector 0.
const (
	// SectorSize is the size of sector 0 and the unit of partition start sectors
	SectorSize = 512

	// PartitionTypeConfigData marks the configuration data partition
	PartitionTypeConfigData = 0xA2

	partitionEntryOffset = 0x1BE
	partitionEntrySize   = 0x10
	partitionEntryCount  = 4
	partitionTypeOffset  = 0x4
	partitionStartOffset = 0x8
	signatureOffset      = 0x1FE
)

var signature = [2]byte{0x55, 0xAA}

// ErrNoPartitionTable is returned when sector 0 does not carry the table signature.
var ErrNoPartitionTable = errors.New("no partition table signature in sector 0")

// Entry is one of the four partition table entries.
type Entry struct {
	Type        byte
	StartSector uint32
}

// Address returns the byte address of the partition start.
func (e Entry) Address() (uint32, error) {
	addr := uint64(e.StartSector) * SectorSize
	if addr > 0xFFFFFFFF {
		return 0, &protocol.CorruptionError{
			Structure: "partition table",
			Reason:    fmt.Sprintf("start sector 0x%X is beyond the 32-bit address space", e.StartSector),
		}
	}
	return uint32(addr), nil
}

// PartitionTable is the legacy partition table stored in sector 0.
type PartitionTable struct {
	Entries [partitionEntryCount]Entry
}

// HasSignature reports whether sector carries the 0x55/0xAA trailer.
func HasSignature(sector []byte) bool {
	if len(sector) < SectorSize {
		return false
	}
	return sector[signatureOffset] == signature[0] && sector[signatureOffset+1] == signature[1]
}

// ParsePartitionTable decodes the partition table in sector.
// Returns ErrNoPartitionTable if the signature is missing.
func ParsePartitionTable(sector []byte) (*PartitionTable, error) {
	if len(sector) < SectorSize {
		return nil, &protocol.PreconditionError{
			Operation: "parse partition table",
			Reason:    fmt.Sprintf("sector holds %d bytes, need %d", len(sector), SectorSize),
		}
	}
	if !HasSignature(sector) {
		return nil, ErrNoPartitionTable
	}

	var t PartitionTable
	for i := range t.Entries {
		off := uint32(partitionEntryOffset + i*partitionEntrySize)
		t.Entries[i] = Entry{
			Type:        sector[off+partitionTypeOffset],
			StartSector: protocol.Word(sector, off+partitionStartOffset),
		}
	}
	return &t, nil
}

// Find returns the first entry of the given type.
func (t *PartitionTable) Find(partitionType byte) (Entry, bool) {
	for _, e := range t.Entries {
		if e.Type == partitionType {
			return e, true
		}
	}
	return Entry{}, false
}

// ConfigurationDataAddress returns the base address of the configuration
// data. Without a partition table the base is 0. A table without a
// configuration data entry is corrupt.
func ConfigurationDataAddress(sector []byte) (uint32, error) {
	t, err := ParsePartitionTable(sector)
	if errors.Is(err, ErrNoPartitionTable) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	e, ok := t.Find(PartitionTypeConfigData)
	if !ok {
		return 0, &protocol.CorruptionError{
			Structure: "partition table",
			Reason:    fmt.Sprintf("no configuration data partition (type 0x%02X)", PartitionTypeConfigData),
		}
	}
	return e.Address()
}

// BuildPartitionTable encodes a signed sector 0 holding up to four entries.
func BuildPartitionTable(entries ...Entry) ([]byte, error) {
	if len(entries) > partitionEntryCount {
		return nil, &protocol.PreconditionError{
			Operation: "build partition table",
			Reason:    fmt.Sprintf("%d entries, at most %d fit", len(entries), partitionEntryCount),
		}
	}

	sector := make([]byte, SectorSize)
	for i, e := range entries {
		off := uint32(partitionEntryOffset + i*partitionEntrySize)
		sector[off+partitionTypeOffset] = e.Type
		protocol.PutWord(sector, off+partitionStartOffset, e.StartSector)
	}
	sector[signatureOffset] = signature[0]
	sector[signatureOffset+1] = signature[1]
	return sector, nil
}

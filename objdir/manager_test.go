package objdir

import (
	"bytes"
	"context"
	"errors"
	"hash/crc32"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/moffa90/go-sdmflash/protocol"
	"github.com/moffa90/go-sdmflash/qspi"
	"github.com/moffa90/go-sdmflash/sdm"
)

const testFlashSize = BaseAddress + ProbeCount*ProbeStride

func noSleep(context.Context, time.Duration) error { return nil }

func newTestFlash(t *testing.T) (*qspi.Flash, *sdm.Simulator) {
	t.Helper()
	sim := sdm.NewSimulator(testFlashSize)
	flash := qspi.New(sim, qspi.WithSleep(noSleep), qspi.WithLogger(nil))
	if err := flash.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	return flash, sim
}

// newTestManager returns a manager over simulated flash holding an empty
// partition at the third probe address.
func newTestManager(t *testing.T) (*Manager, *sdm.Simulator, Partition) {
	t.Helper()
	flash, sim := newTestFlash(t)
	m := NewManager(flash)

	p, err := m.Initialize(context.Background(), BaseAddress+2*ProbeStride, testSizeInWords)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	sim.ResetLog()
	return m, sim, p
}

func TestDiscover(t *testing.T) {
	m, _, p := newTestManager(t)

	got, err := m.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := Partition{Block0: 0x210000, Block1: 0x214000, SizeInWords: testSizeInWords}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("partition mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(p, got); diff != "" {
		t.Errorf("discovered partition differs from initialized one (-init +found):\n%s", diff)
	}
}

func TestDiscoverNoHeader(t *testing.T) {
	flash, sim := newTestFlash(t)
	sim.ResetLog()
	m := NewManager(flash)

	_, err := m.Discover(context.Background())
	if protocol.ClassOf(err) != protocol.ClassCorruption {
		t.Fatalf("expected corruption error, got %v", err)
	}

	var probes []uint32
	for _, cmd := range sim.Commands() {
		if r, ok := cmd.(*protocol.Read); ok {
			probes = append(probes, r.Address)
		}
	}
	var want []uint32
	for i := 0; i < ProbeCount; i++ {
		want = append(want, uint32(BaseAddress+i*ProbeStride))
	}
	if diff := cmp.Diff(want, probes); diff != "" {
		t.Errorf("probe addresses mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	m, sim, p := newTestManager(t)
	data := payload(20, 7)

	if err := m.Update(ctx, TypeUDSIntelPUF, data); err != nil {
		t.Fatalf("Update: %v", err)
	}

	mem := sim.Memory()
	size := p.SizeInWords * protocol.WordSize
	copy0 := mem[p.Block0 : p.Block0+size]
	copy1 := mem[p.Block1 : p.Block1+size]
	if !bytes.Equal(copy0, copy1) {
		t.Error("partition copies differ")
	}

	objects, err := m.ReadObjects(ctx, p.Block1, p.SizeInWords)
	if err != nil {
		t.Fatal(err)
	}
	want := []Object{{
		Type:       TypeUDSIntelPUF,
		StartBlock: 1,
		Size:       20,
		CRC:        crc32.ChecksumIEEE(data),
		Data:       data,
	}}
	if diff := cmp.Diff(want, objects); diff != "" {
		t.Errorf("objects mismatch (-want +got):\n%s", diff)
	}

	if err := m.Update(ctx, TypeUserIIDPUF, payload(700, 3)); err != nil {
		t.Fatal(err)
	}
	if err := m.Remove(ctx, TypeUDSIntelPUF); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	objects, err = m.ReadObjects(ctx, p.Block0, p.SizeInWords)
	if err != nil {
		t.Fatal(err)
	}
	wantPlacement := []placement{{TypeUserIIDPUF, 1, 700}}
	if diff := cmp.Diff(wantPlacement, placements(objects)); diff != "" {
		t.Errorf("layout after remove mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdatePreconditionWritesNothing(t *testing.T) {
	m, sim, _ := newTestManager(t)

	err := m.Update(context.Background(), TypeUDSIntelPUF, make([]byte, testSizeInWords*protocol.WordSize))
	if protocol.ClassOf(err) != protocol.ClassPrecondition {
		t.Fatalf("expected precondition error, got %v", err)
	}
	for _, cmd := range sim.Commands() {
		switch cmd.(type) {
		case *protocol.Erase, *protocol.Write:
			t.Fatalf("flash modified: %s", protocol.CommandName(cmd.Code()))
		}
	}
}

// corruptingFlash flips one byte behind the transport's back after writing
// at target, so the following verify fails.
type corruptingFlash struct {
	*qspi.Flash
	sim    *sdm.Simulator
	target uint32
	offset uint32
}

func (f *corruptingFlash) WriteMultiple(ctx context.Context, address, sizeInWords uint32, buf []byte) error {
	if err := f.Flash.WriteMultiple(ctx, address, sizeInWords, buf); err != nil {
		return err
	}
	if address == f.target {
		f.sim.Memory()[address+f.offset] ^= 0xFF
	}
	return nil
}

func TestCommitVerifyFailureStopsBeforeBlock1(t *testing.T) {
	ctx := context.Background()
	_, sim, p := newTestManager(t)

	flash := qspi.New(sim, qspi.WithSleep(noSleep), qspi.WithLogger(nil))
	m := NewManager(&corruptingFlash{Flash: flash, sim: sim, target: p.Block0, offset: 600})

	image, _, err := Rebuild(nil, p.SizeInWords, TypeUDSIntelPUF, payload(100, 9))
	if err != nil {
		t.Fatal(err)
	}
	before := bytes.Clone(sim.Memory()[p.Block1 : p.Block1+p.SizeInWords*protocol.WordSize])

	err = m.Commit(ctx, p, image)
	if protocol.ClassOf(err) != protocol.ClassCorruption {
		t.Fatalf("expected corruption error, got %v", err)
	}
	var verr *qspi.VerifyError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *qspi.VerifyError, got %T", err)
	}
	if verr.Address != p.Block0+600 {
		t.Errorf("mismatch address = 0x%X, want 0x%X", verr.Address, p.Block0+600)
	}

	for _, cmd := range sim.Commands() {
		if e, ok := cmd.(*protocol.Erase); ok && e.Address == p.Block1 {
			t.Error("block1 erased after block0 verify failed")
		}
	}
	if !bytes.Equal(before, sim.Memory()[p.Block1:p.Block1+p.SizeInWords*protocol.WordSize]) {
		t.Error("block1 modified after block0 verify failed")
	}
}

func TestInitializeRejectsOverflow(t *testing.T) {
	flash, sim := newTestFlash(t)
	sim.ResetLog()
	m := NewManager(flash)

	_, err := m.Initialize(context.Background(), 0xFFFF0000, testSizeInWords*4)
	if protocol.ClassOf(err) != protocol.ClassPrecondition {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if n := len(sim.Commands()); n != 0 {
		t.Errorf("%d commands sent, want 0", n)
	}
}

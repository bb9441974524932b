package provision

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/moffa90/go-sdmflash/objdir"
	"github.com/moffa90/go-sdmflash/protocol"
	"github.com/moffa90/go-sdmflash/puf"
	"github.com/moffa90/go-sdmflash/qspi"
)

// Writer stores PUF activation data in QSPI flash. Each call runs in its own
// flash session.
type Writer struct {
	flash   *qspi.Flash
	puf     *puf.Manager
	objects *objdir.Manager
}

// NewWriter creates a Writer on top of flash.
func NewWriter(flash *qspi.Flash) *Writer {
	return &Writer{
		flash:   flash,
		puf:     puf.NewManager(flash),
		objects: objdir.NewManager(flash),
	}
}

// CheckWrappedKey reports whether a wrapped key of type t can be written,
// without touching flash.
func CheckWrappedKey(key []byte, t PufType) error {
	if _, err := wrappedKeySection(t); err != nil {
		return err
	}
	return checkPayload("write wrapped key", key)
}

func wrappedKeySection(t PufType) (puf.Section, error) {
	switch t {
	case UserIID:
		return puf.SectionUserIIDWrappedKey, nil
	case UDSIID:
		return puf.SectionUDSIIDWrappedKey, nil
	default:
		return 0, unsupported("write wrapped key", t)
	}
}

// WriteWrappedKey stores a wrapped key in both PUF data block copies.
// USER_IID keys go to section 0x2000, UDS_IID keys to section 0x4000.
func (w *Writer) WriteWrappedKey(ctx context.Context, key []byte, t PufType) error {
	if err := CheckWrappedKey(key, t); err != nil {
		return err
	}
	section, _ := wrappedKeySection(t)

	klog.V(1).InfoS("Writing wrapped key", "puf_type", t.String(), "bytes", len(key))
	return w.flash.Session(ctx, func(ctx context.Context) error {
		return w.puf.UpdateSection(ctx, section, key)
	})
}

// CheckHelperData reports whether helper data of type t can be written,
// without touching flash.
func CheckHelperData(data []byte, t PufType) error {
	if t != UDSIID && t != UDSIntel {
		return unsupported("write helper data", t)
	}
	return checkPayload("write helper data", data)
}

// WriteHelperData stores PUF helper data. UDS_IID helper data goes to
// section 0x3000 of the PUF data block; UDS_INTEL helper data becomes the
// UDS_INTEL_PUF object of the object directory.
func (w *Writer) WriteHelperData(ctx context.Context, data []byte, t PufType) error {
	if err := CheckHelperData(data, t); err != nil {
		return err
	}

	klog.V(1).InfoS("Writing helper data", "puf_type", t.String(), "bytes", len(data))
	return w.flash.Session(ctx, func(ctx context.Context) error {
		if t == UDSIntel {
			return w.objects.Update(ctx, objdir.TypeUDSIntelPUF, data)
		}
		return w.puf.UpdateSection(ctx, puf.SectionUDSIIDHelpData, data)
	})
}

// Report is a snapshot of the provisioning structures in flash.
type Report struct {
	Blocks    puf.BlockPair
	Block0    []puf.SectionSummary
	Block1    []puf.SectionSummary
	Count0    uint32
	Count1    uint32
	BlocksErr error

	Directory    objdir.Partition
	Objects      []objdir.Object
	DirectoryErr error
}

// Inspect reads both PUF data block copies and the object directory.
// Corrupt structures are recorded in the report; transport failures abort.
func (w *Writer) Inspect(ctx context.Context) (*Report, error) {
	r := &Report{}
	err := w.flash.Session(ctx, func(ctx context.Context) error {
		pair, b0, b1, err := w.puf.ReadBlockPair(ctx)
		switch {
		case err == nil:
			r.Blocks = pair
			r.Block0, r.Count0 = b0.Summary(), b0.SectionCount()
			r.Block1, r.Count1 = b1.Summary(), b1.SectionCount()
		case protocol.ClassOf(err) == protocol.ClassCorruption:
			r.BlocksErr = err
		default:
			return err
		}

		p, err := w.objects.Discover(ctx)
		if err != nil {
			if protocol.ClassOf(err) == protocol.ClassCorruption {
				r.DirectoryErr = err
				return nil
			}
			return err
		}
		r.Directory = p
		r.Objects, err = w.objects.ReadObjects(ctx, p.Block0, p.SizeInWords)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func checkPayload(op string, data []byte) error {
	if len(data) == 0 {
		return &protocol.PreconditionError{Operation: op, Reason: "payload is empty"}
	}
	return nil
}

func unsupported(op string, t PufType) error {
	err := &protocol.PreconditionError{
		Operation: op,
		Reason:    fmt.Sprintf("PUF type %s is not supported", t),
	}
	klog.ErrorS(err, "Unsupported PUF type", "puf_type", t.String())
	return err
}

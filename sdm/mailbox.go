package sdm

import (
	"context"
	"errors"
	"fmt"

	"github.com/moffa90/go-sdmflash/protocol"
)

// DefaultDevicePath is the character device exposed by the FPGA crypto service driver.
const DefaultDevicePath = "/dev/fcs"

// ErrUnsupportedPlatform is returned when a backend cannot run on the current OS.
var ErrUnsupportedPlatform = errors.New("sdm: backend not supported on this platform")

// Mailbox delivers a single command to the SDM and returns its answer.
//
// A non-nil error means the request could not be delivered (missing device,
// driver failure); status is then StatusNotStarted. Otherwise status is the
// code reported by the SDM and resp holds any response words.
type Mailbox interface {
	Send(ctx context.Context, cmd protocol.Command) (resp []byte, status protocol.Status, err error)
	Close() error
}

// Backend selects how mailbox commands reach the flash.
type Backend string

const (
	// BackendIoctl talks to the SDM through the Linux FCS driver
	BackendIoctl Backend = "ioctl"

	// BackendSimulator serves commands from a flash image file
	BackendSimulator Backend = "simulator"
)

// ParseBackend converts a backend name to a Backend.
func ParseBackend(name string) (Backend, error) {
	switch b := Backend(name); b {
	case BackendIoctl, BackendSimulator:
		return b, nil
	default:
		return "", fmt.Errorf("unknown backend %q (want %q or %q)", name, BackendIoctl, BackendSimulator)
	}
}

// Open returns the mailbox for backend. For BackendIoctl path is the driver
// device (DefaultDevicePath when empty); for BackendSimulator it is an
// existing flash image file.
func Open(backend Backend, path string) (Mailbox, error) {
	switch backend {
	case BackendIoctl:
		if path == "" {
			path = DefaultDevicePath
		}
		return openIoctl(path)
	case BackendSimulator:
		if path == "" {
			return nil, errors.New("simulator backend requires an image path")
		}
		return OpenImage(path)
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

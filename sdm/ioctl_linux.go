//go:build linux

package sdm

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
	"k8s.io/klog/v2"

	"github.com/moffa90/go-sdmflash/protocol"
)

// FCS driver ioctl constants from the Intel/Altera FCS UAPI header.
const (
	// fcsIoctlType is the FCS ioctl type number.
	fcsIoctlType = 0xC0

	// fcsMboxSendNr is the ALTERA_FCS_DEV_MBOX_SEND command number.
	fcsMboxSendNr = 2

	// ioctlFCSMboxSend encodes _IOWR(0xC0, 2, 256) where 256 is
	// sizeof(struct altera_fcs_dev_ioctl).
	//
	// Bit layout: direction(3=read|write) << 30 | size(256) << 16 | type(0xC0) << 8 | nr(2)
	ioctlFCSMboxSend = 0xC100C002
)

// fcsMboxSendCmd mirrors struct fcs_mbox_send_cmd on 64-bit kernels.
type fcsMboxSendCmd struct {
	mboxCmd   uint32
	urgent    uint8
	_         [3]byte
	cmdData   uint64
	cmdDataSz uint16
	_         [6]byte
	rspData   uint64
	rspDataSz uint16
	_         [6]byte
}

// fcsDevIoctl mirrors struct altera_fcs_dev_ioctl. The status word is
// followed by the parameter union, which starts on an 8-byte boundary.
type fcsDevIoctl struct {
	status   int32
	_        [4]byte
	mboxSend fcsMboxSendCmd
	_        [256 - 8 - unsafe.Sizeof(fcsMboxSendCmd{})]byte
}

type ioctlMailbox struct {
	mu   sync.Mutex
	fd   int
	path string
}

func openIoctl(path string) (Mailbox, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &ioctlMailbox{fd: fd, path: path}, nil
}

// Send implements Mailbox.
func (m *ioctlMailbox) Send(ctx context.Context, cmd protocol.Command) ([]byte, protocol.Status, error) {
	if err := ctx.Err(); err != nil {
		return nil, protocol.StatusNotStarted, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	payload := cmd.Payload()
	resp := make([]byte, protocol.MaxResponseSize)

	var req fcsDevIoctl
	req.status = -1
	req.mboxSend.mboxCmd = cmd.Code()
	if len(payload) > 0 {
		req.mboxSend.cmdData = uint64(uintptr(unsafe.Pointer(&payload[0])))
		req.mboxSend.cmdDataSz = uint16(len(payload))
	}
	req.mboxSend.rspData = uint64(uintptr(unsafe.Pointer(&resp[0])))
	req.mboxSend.rspDataSz = uint16(len(resp))

	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		uintptr(m.fd),
		uintptr(ioctlFCSMboxSend),
		uintptr(unsafe.Pointer(&req)),
	)
	runtime.KeepAlive(payload)
	runtime.KeepAlive(resp)
	if errno != 0 {
		return nil, protocol.StatusNotStarted,
			fmt.Errorf("fcs ioctl %s on %s: %w", protocol.CommandName(cmd.Code()), m.path, errno)
	}

	n := int(req.mboxSend.rspDataSz)
	if n > len(resp) {
		return nil, protocol.StatusNotStarted,
			fmt.Errorf("fcs ioctl %s: response size %d exceeds buffer of %d bytes",
				protocol.CommandName(cmd.Code()), n, len(resp))
	}

	status := protocol.Status(uint32(req.status))
	klog.V(4).InfoS("Mailbox command", "cmd", protocol.CommandName(cmd.Code()),
		"payload_bytes", len(payload), "response_bytes", n, "status", status)
	return resp[:n], status, nil
}

// Close implements Mailbox.
func (m *ioctlMailbox) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fd < 0 {
		return nil
	}
	err := unix.Close(m.fd)
	m.fd = -1
	return err
}

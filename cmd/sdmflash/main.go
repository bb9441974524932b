// Command sdmflash writes PUF activation data to the QSPI flash behind an
// FPGA secure device manager.
//
// Usage:
//
//	sdmflash write-key --puf-type USER_IID wrapped_key.bin
//	sdmflash write-helper --puf-type UDS_INTEL helper.hex
//	sdmflash show
//	sdmflash --backend simulator init-image qspi.img
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"k8s.io/klog/v2"

	"github.com/moffa90/go-sdmflash/protocol"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer klog.Flush()

	root := newRootCmd()
	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return 0
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if protocol.ClassOf(err) == protocol.ClassPrecondition {
		fmt.Fprintf(os.Stderr, "Run '%s --help' for usage.\n", cmd.CommandPath())
	}
	if status, ok := protocol.StatusOf(err); ok && status != protocol.StatusNotStarted {
		fmt.Fprintf(os.Stderr, "SDM status %s: %s\n", status, status.Description())
	}
	return 1
}

// Package qspi provides the flash transport used to reach QSPI flash behind the SDM.
//
// # Overview
//
// Flash turns logical operations into bounded mailbox commands:
//   - Open/Close acquire and release exclusive access
//   - Session brackets a sequence of operations and always closes
//   - SetChipSelect selects the chip line
//   - Erase resets an aligned range after a settle delay
//   - ReadMultiple/WriteMultiple split transfers into chunks of at most 0x200 words
//   - Verify re-reads a range and reports the first mismatching address
//
// # Basic Usage
//
//	mb, err := sdm.Open(sdm.BackendIoctl, "/dev/fcs")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mb.Close()
//
//	flash := qspi.New(mb)
//	err = flash.Session(ctx, func(ctx context.Context) error {
//	    if err := flash.Erase(ctx, addr, 0x2000); err != nil {
//	        return err
//	    }
//	    return flash.WriteMultiple(ctx, addr, 0x2000, image)
//	})
//
// # Configuration Options
//
//	flash := qspi.New(mb,
//	    qspi.WithChunkWords(0x100),
//	    qspi.WithEraseDelay(time.Second),
//	    qspi.WithLogger(myLogger),
//	    qspi.WithChipSelect(protocol.ChipSelect{ID: 1}),
//	)
//
// # Error Handling
//
// Misaligned or oversized requests fail with *protocol.PreconditionError
// before any command is sent. Rejected commands fail with
// *protocol.ProtocolError carrying the SDM status. Verify mismatches
// return *VerifyError.
//
//	if status, ok := protocol.StatusOf(err); ok {
//	    log.Printf("SDM status %s: %s", status, status.Description())
//	}
package qspi

package qspi

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-sdmflash/protocol"
	"github.com/moffa90/go-sdmflash/sdm"
)

// Flash turns logical flash operations into bounded SDM mailbox commands.
// Oversized transfers are split into chunks and misaligned requests are
// rejected before any command is sent.
//
// Flash is not safe for concurrent use; one provisioning attempt owns it.
type Flash struct {
	mailbox sdm.Mailbox
	config  Config
}

// New creates a new Flash on top of the given mailbox.
//
// Example:
//
//	mb, _ := sdm.Open(sdm.BackendIoctl, "")
//	flash := qspi.New(mb,
//	    qspi.WithProgressCallback(progressFunc),
//	    qspi.WithEraseDelay(500*time.Millisecond),
//	)
func New(mailbox sdm.Mailbox, opts ...Option) *Flash {
	if mailbox == nil {
		panic("mailbox cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Flash{
		mailbox: mailbox,
		config:  cfg,
	}
}

// Open acquires exclusive access to the flash.
// Fails with StatusQSPIAlreadyOpen when another client holds it.
func (f *Flash) Open(ctx context.Context) error {
	_, err := f.send(ctx, protocol.Open{})
	return err
}

// Close releases exclusive access to the flash.
func (f *Flash) Close(ctx context.Context) error {
	_, err := f.send(ctx, protocol.Close{})
	return err
}

// Session opens the flash, selects the configured chip, runs fn and closes
// the flash on every exit path. An error from fn takes precedence over a
// close failure; a close failure after a successful fn is returned.
//
// Example:
//
//	err := flash.Session(ctx, func(ctx context.Context) error {
//	    return flash.WriteMultiple(ctx, addr, words, data)
//	})
func (f *Flash) Session(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if err := f.Open(ctx); err != nil {
		return fmt.Errorf("open flash: %w", err)
	}
	defer func() {
		// Release the lock even if ctx was cancelled.
		if cerr := f.Close(context.WithoutCancel(ctx)); cerr != nil {
			f.logError("close flash failed", "error", cerr)
			if err == nil {
				err = fmt.Errorf("close flash: %w", cerr)
			}
		}
	}()

	if err := f.SetChipSelect(ctx, f.config.ChipSelect); err != nil {
		return fmt.Errorf("select chip %d: %w", f.config.ChipSelect.ID, err)
	}

	return fn(ctx)
}

// SetChipSelect selects the flash chip line for the following operations.
// Chip select IDs above 15 are rejected without sending a command.
func (f *Flash) SetChipSelect(ctx context.Context, cs protocol.ChipSelect) error {
	cmd, err := protocol.BuildSetChipSelectCmd(cs)
	if err != nil {
		return err
	}

	f.logDebug("select chip",
		"id", cs.ID,
		"mode", cs.Mode,
		"continuous_address", cs.ContinuousAddress,
	)

	_, err = f.send(ctx, cmd)
	return err
}

// Erase resets sizeInWords words starting at address to all-ones.
// Both values must be multiples of protocol.EraseAlignment. The configured
// erase delay elapses before the command is sent.
func (f *Flash) Erase(ctx context.Context, address, sizeInWords uint32) error {
	cmd, err := protocol.BuildEraseCmd(address, sizeInWords)
	if err != nil {
		return err
	}

	if err := f.config.Sleep(ctx, f.config.EraseDelay); err != nil {
		return fmt.Errorf("erase settle delay: %w", err)
	}

	startTime := time.Now()
	f.logDebug("erase",
		"address", fmt.Sprintf("0x%08X", address),
		"words", sizeInWords,
	)

	if _, err := f.send(ctx, cmd); err != nil {
		return err
	}

	f.reportProgress(Progress{
		Phase:       PhaseErasing,
		Address:     address,
		DoneWords:   sizeInWords,
		TotalWords:  sizeInWords,
		Percentage:  100,
		ElapsedTime: time.Since(startTime),
	})
	return nil
}

// ReadMultiple reads sizeInWords words starting at address, one chunk per
// command. The first failing chunk fails the whole call.
//
// Example:
//
//	sector, err := flash.ReadMultiple(ctx, 0, 128)
func (f *Flash) ReadMultiple(ctx context.Context, address, sizeInWords uint32) ([]byte, error) {
	return f.read(ctx, PhaseReading, address, sizeInWords)
}

func (f *Flash) read(ctx context.Context, phase string, address, sizeInWords uint32) ([]byte, error) {
	if err := checkRange("read", address, sizeInWords); err != nil {
		return nil, err
	}

	startTime := time.Now()
	out := make([]byte, 0, int(sizeInWords)*protocol.WordSize)

	for done := uint32(0); done < sizeInWords; {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("cancelled: %w", err)
		}

		n := min(sizeInWords-done, f.config.ChunkWords)
		addr := address + done*protocol.WordSize

		cmd, err := protocol.BuildReadCmd(addr, n)
		if err != nil {
			return nil, err
		}
		resp, err := f.send(ctx, cmd)
		if err != nil {
			return nil, fmt.Errorf("read chunk at 0x%08X: %w", addr, err)
		}
		data, err := protocol.ParseReadResponse(resp, n)
		if err != nil {
			return nil, &protocol.ProtocolError{
				Operation:  protocol.CommandName(cmd.Code()),
				StatusCode: protocol.StatusResponseError,
				Err:        err,
			}
		}
		out = append(out, data...)
		done += n

		f.reportTransfer(phase, address, done, sizeInWords, startTime)
	}

	return out, nil
}

// WriteMultiple writes the first sizeInWords words of buf starting at
// address, one chunk per command. The first failing chunk fails the whole
// call; earlier chunks stay written.
func (f *Flash) WriteMultiple(ctx context.Context, address, sizeInWords uint32, buf []byte) error {
	if err := checkRange("write", address, sizeInWords); err != nil {
		return err
	}
	if need := int(sizeInWords) * protocol.WordSize; len(buf) < need {
		return precondition("write", "buffer holds %d bytes, %d words need %d", len(buf), sizeInWords, need)
	}

	startTime := time.Now()
	f.logDebug("write",
		"address", fmt.Sprintf("0x%08X", address),
		"words", sizeInWords,
	)

	for done := uint32(0); done < sizeInWords; {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}

		n := min(sizeInWords-done, f.config.ChunkWords)
		addr := address + done*protocol.WordSize
		off := done * protocol.WordSize

		cmd, err := protocol.BuildWriteCmd(addr, buf[off:off+n*protocol.WordSize])
		if err != nil {
			return err
		}
		if _, err := f.send(ctx, cmd); err != nil {
			return fmt.Errorf("write chunk at 0x%08X: %w", addr, err)
		}
		done += n

		f.reportTransfer(PhaseWriting, address, done, sizeInWords, startTime)
	}

	return nil
}

// Verify re-reads sizeInWords words at address and compares them with
// expected. The size must be a multiple of 16 words. The first differing
// byte is reported as a *VerifyError.
func (f *Flash) Verify(ctx context.Context, address, sizeInWords uint32, expected []byte) error {
	if !protocol.WordAligned(address) {
		return precondition("verify", "address 0x%08X is not word aligned", address)
	}
	if sizeInWords == 0 || sizeInWords%16 != 0 {
		return precondition("verify", "size %d words is not a non-zero multiple of 16", sizeInWords)
	}
	need := int(sizeInWords) * protocol.WordSize
	if len(expected) == 0 || len(expected) < need {
		return precondition("verify", "expected data holds %d bytes, need %d", len(expected), need)
	}

	actual, err := f.read(ctx, PhaseVerifying, address, sizeInWords)
	if err != nil {
		return err
	}

	if bytes.Equal(actual, expected[:need]) {
		return nil
	}
	for i := range actual {
		if actual[i] != expected[i] {
			verr := &VerifyError{
				Address:  address + uint32(i),
				Expected: expected[i],
				Actual:   actual[i],
			}
			f.logError("verify failed", "address", fmt.Sprintf("0x%08X", verr.Address))
			return verr
		}
	}
	return nil
}

// send delivers one command and converts a delivery failure or non-OK
// status into a *protocol.ProtocolError.
func (f *Flash) send(ctx context.Context, cmd protocol.Command) ([]byte, error) {
	name := protocol.CommandName(cmd.Code())

	resp, status, err := f.mailbox.Send(ctx, cmd)
	if err != nil {
		return nil, &protocol.ProtocolError{
			Operation:  name,
			StatusCode: protocol.StatusNotStarted,
			Err:        err,
		}
	}
	if err := protocol.CheckStatus(cmd, status); err != nil {
		f.logError("mailbox command failed",
			"cmd", name,
			"status", fmt.Sprintf("0x%X", uint32(status)),
			"name", status.String(),
			"description", status.Description(),
		)
		return nil, err
	}
	return resp, nil
}

// checkRange validates a transfer before it is split into chunks.
func checkRange(op string, address, sizeInWords uint32) error {
	if !protocol.WordAligned(address) {
		return precondition(op, "address 0x%08X is not word aligned", address)
	}
	if sizeInWords == 0 {
		return precondition(op, "size must be at least one word")
	}
	if uint64(address)+uint64(sizeInWords)*protocol.WordSize > 1<<32 {
		return precondition(op, "range 0x%08X + %d words exceeds the 32-bit address space", address, sizeInWords)
	}
	return nil
}

func (f *Flash) reportTransfer(phase string, address, done, total uint32, startTime time.Time) {
	f.reportProgress(Progress{
		Phase:       phase,
		Address:     address,
		DoneWords:   done,
		TotalWords:  total,
		Percentage:  float64(done) / float64(total) * 100,
		ElapsedTime: time.Since(startTime),
	})
}

// reportProgress calls the progress callback if configured.
func (f *Flash) reportProgress(progress Progress) {
	if f.config.ProgressCallback != nil {
		f.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (f *Flash) logDebug(msg string, keysAndValues ...interface{}) {
	if f.config.Logger != nil {
		f.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (f *Flash) logError(msg string, keysAndValues ...interface{}) {
	if f.config.Logger != nil {
		f.config.Logger.Error(msg, keysAndValues...)
	}
}

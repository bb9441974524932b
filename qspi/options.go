package qspi

import (
	"context"
	"time"

	"github.com/moffa90/go-sdmflash/protocol"
)

// DefaultEraseDelay is the settle time inserted before every erase.
const DefaultEraseDelay = 500 * time.Millisecond

// Config holds the flash transport configuration.
type Config struct {
	// ProgressCallback is called after every chunk to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations. Default is KlogLogger.
	Logger Logger

	// ChunkWords is the maximum number of words per read or write command.
	// Default and maximum is protocol.MaxTransferWords.
	ChunkWords uint32

	// EraseDelay is the wait before each erase command
	EraseDelay time.Duration

	// Sleep waits for the given duration or until ctx is done
	Sleep func(ctx context.Context, d time.Duration) error

	// ChipSelect is selected at the start of every Session
	ChipSelect protocol.ChipSelect
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Logger:     KlogLogger{},
		ChunkWords: protocol.MaxTransferWords,
		EraseDelay: DefaultEraseDelay,
		Sleep:      sleepContext,
	}
}

// Option is a functional option for configuring the Flash.
type Option func(*Config)

// WithProgressCallback sets a callback function to track transfer progress.
//
// Example:
//
//	flash := qspi.New(mailbox,
//	    qspi.WithProgressCallback(func(p qspi.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the flash operations.
// Passing nil disables logging.
//
// Example:
//
//	flash := qspi.New(mailbox, qspi.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithChunkWords sets the maximum transfer size per command.
// Values outside 1..protocol.MaxTransferWords are ignored.
//
// Example:
//
//	flash := qspi.New(mailbox, qspi.WithChunkWords(0x100))
func WithChunkWords(words uint32) Option {
	return func(c *Config) {
		if words > 0 && words <= protocol.MaxTransferWords {
			c.ChunkWords = words
		}
	}
}

// WithEraseDelay sets the settle time before each erase.
//
// Example:
//
//	flash := qspi.New(mailbox, qspi.WithEraseDelay(time.Second))
func WithEraseDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.EraseDelay = d
		}
	}
}

// WithSleep replaces the function used to wait before erases.
// Tests use it to skip the settle delay.
//
// Example:
//
//	flash := qspi.New(mailbox, qspi.WithSleep(func(context.Context, time.Duration) error { return nil }))
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Config) {
		if sleep != nil {
			c.Sleep = sleep
		}
	}
}

// WithChipSelect sets the chip selected when a Session starts.
// Default is chip 0 with both mode bits clear.
//
// Example:
//
//	flash := qspi.New(mailbox, qspi.WithChipSelect(protocol.ChipSelect{ID: 1}))
func WithChipSelect(cs protocol.ChipSelect) Option {
	return func(c *Config) {
		c.ChipSelect = cs
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

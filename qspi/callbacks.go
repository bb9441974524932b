package qspi

import (
	"time"

	"k8s.io/klog/v2"
)

// Operation phases reported through Progress.
const (
	PhaseErasing   = "erasing"
	PhaseWriting   = "writing"
	PhaseReading   = "reading"
	PhaseVerifying = "verifying"
)

// Progress contains information about a running flash transfer.
// Passed to ProgressCallback after every chunk.
type Progress struct {
	// Phase describes the current operation:
	//   "erasing"   - Erasing a flash range
	//   "writing"   - Writing a flash range
	//   "reading"   - Reading a flash range
	//   "verifying" - Re-reading a range for comparison
	Phase string

	// Address is the start address of the whole transfer
	Address uint32

	// DoneWords is the number of words transferred so far
	DoneWords uint32

	// TotalWords is the size of the whole transfer in words
	TotalWords uint32

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// ElapsedTime is the time elapsed since the transfer started
	ElapsedTime time.Duration
}

// ProgressCallback is called after each chunk of a transfer.
// Implementations should return quickly to avoid stalling the flash session.
//
// Example:
//
//	flash := qspi.New(mailbox,
//	    qspi.WithProgressCallback(func(p qspi.Progress) {
//	        fmt.Printf("[%s] 0x%08X %.1f%%\n", p.Phase, p.Address, p.Percentage)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the flash transport.
// This allows integration with any logging framework.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	flash := qspi.New(mailbox, qspi.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

// KlogLogger sends log messages to klog. Debug messages are emitted at
// verbosity 2.
type KlogLogger struct{}

// Debug implements Logger.
func (KlogLogger) Debug(msg string, keysAndValues ...interface{}) {
	klog.V(2).InfoS(msg, keysAndValues...)
}

// Info implements Logger.
func (KlogLogger) Info(msg string, keysAndValues ...interface{}) {
	klog.InfoS(msg, keysAndValues...)
}

// Error implements Logger.
func (KlogLogger) Error(msg string, keysAndValues ...interface{}) {
	klog.ErrorS(nil, msg, keysAndValues...)
}

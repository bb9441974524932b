package sdm

import (
	"context"
	"sync"

	"github.com/moffa90/go-sdmflash/protocol"
)

// Simulator is a NOR flash behind an emulated SDM mailbox.
//
// Erase sets bytes to 0xFF and writes can only clear bits, like real NOR
// flash. Access is exclusive: a second QSPI_OPEN fails with
// StatusQSPIAlreadyOpen and I/O without an open session fails with
// StatusClientIDNoMatch. Ranges past the end of the flash fail with
// StatusInvalidAddress.
//
// Simulator is safe for concurrent use.
type Simulator struct {
	mu         sync.Mutex
	mem        []byte
	open       bool
	chipSelect protocol.ChipSelect
	log        []protocol.Command
	closer     func() error

	// Fault, when set, is consulted before each command is executed.
	// A non-OK status is returned to the caller and the command has no effect.
	Fault func(cmd protocol.Command) protocol.Status
}

// NewSimulator creates an erased in-memory flash of size bytes.
func NewSimulator(size int) *Simulator {
	mem := make([]byte, size)
	fill(mem, 0xFF)
	return &Simulator{mem: mem}
}

// Memory returns the live flash contents. Tests use it to seed or inspect
// flash directly, bypassing the mailbox.
func (s *Simulator) Memory() []byte {
	return s.mem
}

// Size returns the flash size in bytes.
func (s *Simulator) Size() int {
	return len(s.mem)
}

// Commands returns the commands received so far, in order.
func (s *Simulator) Commands() []protocol.Command {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]protocol.Command, len(s.log))
	copy(out, s.log)
	return out
}

// ResetLog clears the command log.
func (s *Simulator) ResetLog() {
	s.mu.Lock()
	s.log = nil
	s.mu.Unlock()
}

// IsOpen reports whether a client currently holds exclusive access.
func (s *Simulator) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// ChipSelect returns the last selected chip.
func (s *Simulator) ChipSelect() protocol.ChipSelect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chipSelect
}

// Send implements Mailbox.
func (s *Simulator) Send(ctx context.Context, cmd protocol.Command) ([]byte, protocol.Status, error) {
	if err := ctx.Err(); err != nil {
		return nil, protocol.StatusNotStarted, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.log = append(s.log, cmd)

	if s.Fault != nil {
		if st := s.Fault(cmd); st != protocol.StatusOK {
			return nil, st, nil
		}
	}

	switch c := cmd.(type) {
	case protocol.Open:
		if s.open {
			return nil, protocol.StatusQSPIAlreadyOpen, nil
		}
		s.open = true
		return nil, protocol.StatusOK, nil

	case protocol.Close:
		if !s.open {
			return nil, protocol.StatusClientIDNoMatch, nil
		}
		s.open = false
		return nil, protocol.StatusOK, nil

	case *protocol.SetChipSelect:
		if !s.open {
			return nil, protocol.StatusClientIDNoMatch, nil
		}
		s.chipSelect = c.ChipSelect
		return nil, protocol.StatusOK, nil

	case *protocol.Erase:
		start, end, st := s.span(c.Address, c.SizeInWords)
		if st != protocol.StatusOK {
			return nil, st, nil
		}
		fill(s.mem[start:end], 0xFF)
		return nil, protocol.StatusOK, nil

	case *protocol.Write:
		start, end, st := s.span(c.Address, c.SizeInWords())
		if st != protocol.StatusOK {
			return nil, st, nil
		}
		for i, b := range c.Data[:end-start] {
			s.mem[start+uint64(i)] &= b
		}
		return nil, protocol.StatusOK, nil

	case *protocol.Read:
		start, end, st := s.span(c.Address, c.SizeInWords)
		if st != protocol.StatusOK {
			return nil, st, nil
		}
		resp := make([]byte, end-start)
		copy(resp, s.mem[start:end])
		return resp, protocol.StatusOK, nil

	default:
		return nil, protocol.StatusInvalidCommand, nil
	}
}

// span checks access rights and bounds for a flash range.
func (s *Simulator) span(address, sizeInWords uint32) (uint64, uint64, protocol.Status) {
	if !s.open {
		return 0, 0, protocol.StatusClientIDNoMatch
	}
	start := uint64(address)
	end := start + uint64(sizeInWords)*protocol.WordSize
	if end > uint64(len(s.mem)) {
		return 0, 0, protocol.StatusInvalidAddress
	}
	return start, end, protocol.StatusOK
}

// Close releases the backing image, if any. An in-memory flash stays
// readable through Memory after Close.
func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closer == nil {
		return nil
	}
	err := s.closer()
	s.closer = nil
	s.mem = nil
	s.open = false
	return err
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}

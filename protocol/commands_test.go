package protocol

import (
	"bytes"
	"testing"
)

func TestBuildSetChipSelectCmd(t *testing.T) {
	tests := []struct {
		name    string
		cs      ChipSelect
		want    uint32
		wantErr bool
	}{
		{
			name: "chip 0 default mode",
			cs:   ChipSelect{},
			want: 0x00000000,
		},
		{
			name: "chip 1 with mode",
			cs:   ChipSelect{ID: 1, Mode: true},
			want: 0x18000000,
		},
		{
			name: "chip 15 with continuous addressing",
			cs:   ChipSelect{ID: 15, ContinuousAddress: true},
			want: 0xF4000000,
		},
		{
			name: "all bits",
			cs:   ChipSelect{ID: 15, Mode: true, ContinuousAddress: true},
			want: 0xFC000000,
		},
		{
			name:    "chip 16 does not fit",
			cs:      ChipSelect{ID: 16},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := BuildSetChipSelectCmd(tt.cs)

			if tt.wantErr {
				if ClassOf(err) != ClassPrecondition {
					t.Fatalf("expected precondition error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got := cmd.ControlWord(); got != tt.want {
				t.Errorf("ControlWord() = 0x%08X, want 0x%08X", got, tt.want)
			}
			payload := cmd.Payload()
			if len(payload) != WordSize {
				t.Fatalf("payload length = %d, want %d", len(payload), WordSize)
			}
			if got := Word(payload, 0); got != tt.want {
				t.Errorf("payload word = 0x%08X, want 0x%08X", got, tt.want)
			}
			if cmd.Code() != CmdQSPISetCS {
				t.Errorf("Code() = 0x%X, want 0x%X", cmd.Code(), CmdQSPISetCS)
			}
		})
	}
}

func TestBuildEraseCmd(t *testing.T) {
	tests := []struct {
		name    string
		address uint32
		words   uint32
		wantErr bool
	}{
		{name: "aligned block", address: 0x100000, words: 0x2000},
		{name: "aligned at zero", address: 0, words: 0x1000},
		{name: "misaligned address", address: 0x100004, words: 0x1000, wantErr: true},
		{name: "misaligned size", address: 0x100000, words: 0x1004, wantErr: true},
		{name: "zero size", address: 0x100000, words: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := BuildEraseCmd(tt.address, tt.words)

			if tt.wantErr {
				if ClassOf(err) != ClassPrecondition {
					t.Fatalf("expected precondition error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			payload := cmd.Payload()
			if Word(payload, 0) != tt.address {
				t.Errorf("address word = 0x%X, want 0x%X", Word(payload, 0), tt.address)
			}
			if Word(payload, 4) != tt.words {
				t.Errorf("size word = 0x%X, want 0x%X", Word(payload, 4), tt.words)
			}
		})
	}
}

func TestBuildReadCmd(t *testing.T) {
	tests := []struct {
		name    string
		address uint32
		words   uint32
		wantErr bool
	}{
		{name: "single word", address: 0x1000, words: 1},
		{name: "full chunk", address: 0x1000, words: MaxTransferWords},
		{name: "oversized", address: 0x1000, words: MaxTransferWords + 1, wantErr: true},
		{name: "empty", address: 0x1000, words: 0, wantErr: true},
		{name: "unaligned", address: 0x1001, words: 4, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := BuildReadCmd(tt.address, tt.words)
			if (err != nil) != tt.wantErr {
				t.Fatalf("BuildReadCmd() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cmd.Code() != CmdQSPIRead {
				t.Errorf("Code() = 0x%X, want 0x%X", cmd.Code(), CmdQSPIRead)
			}
			if len(cmd.Payload()) != 8 {
				t.Errorf("payload length = %d, want 8", len(cmd.Payload()))
			}
		})
	}
}

func TestBuildWriteCmd(t *testing.T) {
	data := []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88}

	cmd, err := BuildWriteCmd(0x2000, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []byte{
		0x00, 0x20, 0x00, 0x00, // address
		0x02, 0x00, 0x00, 0x00, // size in words
		0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88,
	}
	if got := cmd.Payload(); !bytes.Equal(got, want) {
		t.Errorf("Payload() = %X, want %X", got, want)
	}

	if _, err := BuildWriteCmd(0x2000, data[:7]); ClassOf(err) != ClassPrecondition {
		t.Errorf("partial word: expected precondition error, got %v", err)
	}
	if _, err := BuildWriteCmd(0x2000, make([]byte, (MaxTransferWords+1)*WordSize)); err == nil {
		t.Error("oversized write: expected error")
	}
}

func TestCommandName(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{Open{}, "QSPI_OPEN"},
		{Close{}, "QSPI_CLOSE"},
		{&SetChipSelect{}, "QSPI_SET_CS"},
		{&Erase{}, "QSPI_ERASE"},
		{&Write{}, "QSPI_WRITE"},
		{&Read{}, "QSPI_READ"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := CommandName(tt.cmd.Code()); got != tt.want {
				t.Errorf("CommandName() = %q, want %q", got, tt.want)
			}
		})
	}

	if got := CommandName(0x99); got != "0x00000099" {
		t.Errorf("CommandName(0x99) = %q", got)
	}
}

func BenchmarkBuildWriteCmd(b *testing.B) {
	data := make([]byte, MaxTransferWords*WordSize)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cmd, _ := BuildWriteCmd(0x100000, data)
		_ = cmd.Payload()
	}
}

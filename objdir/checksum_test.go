package objdir

import (
	"hash/crc32"
	"testing"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"single byte", []byte{0xA5}},
		{"check string", []byte("123456789")},
		{"one word", []byte{0x01, 0x02, 0x03, 0x04}},
		{"zeros", make([]byte, 512)},
		{"ones", []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := crc32.ChecksumIEEE(tt.data)
			if got := Checksum(tt.data); got != want {
				t.Errorf("Checksum() = 0x%08X, want 0x%08X", got, want)
			}
		})
	}
}

func TestChecksumCheckValue(t *testing.T) {
	if got := Checksum([]byte("123456789")); got != 0xCBF43926 {
		t.Errorf("Checksum(\"123456789\") = 0x%08X, want 0xCBF43926", got)
	}
}

package payload

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// Format selects how a payload file is decoded.
type Format int

// Payload file formats.
const (
	// FormatAuto picks FormatHex when the file holds only hex text, FormatBinary otherwise
	FormatAuto Format = iota

	// FormatBinary uses the file contents as is
	FormatBinary

	// FormatHex decodes hex digits; whitespace, commas, 0x prefixes and # comments are ignored
	FormatHex
)

var formatNames = []string{"auto", "binary", "hex"}

func (f Format) String() string {
	if int(f) >= 0 && int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat converts a format name ("auto", "binary", "bin", "hex").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "binary", "bin":
		return FormatBinary, nil
	case "hex", "text":
		return FormatHex, nil
	default:
		return FormatAuto, fmt.Errorf("unknown payload format %q (want auto, binary or hex)", s)
	}
}

// Payload is a decoded key or helper data file.
type Payload struct {
	// Data is the decoded payload
	Data []byte

	// Format is the format the file was decoded as, never FormatAuto
	Format Format
}

// Magic returns the first little-endian word of the payload, or 0 when the
// payload is shorter than a word.
func (p *Payload) Magic() uint32 {
	if len(p.Data) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(p.Data)
}

// isHexText reports whether data holds only characters accepted by FormatHex.
func isHexText(data []byte) bool {
	if len(bytes.TrimSpace(data)) == 0 {
		return false
	}
	inComment := false
	for _, c := range data {
		switch {
		case c == '\n':
			inComment = false
		case inComment:
		case c == '#':
			inComment = true
		case c == ' ', c == '\t', c == '\r', c == ',', c == 'x', c == 'X':
		case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
		default:
			return false
		}
	}
	return true
}

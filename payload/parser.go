package payload

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// MaxSize is the largest payload file accepted, in bytes.
const MaxSize = 1 << 20

// Parse reads and decodes the payload file at path.
//
// Example:
//
//	p, err := payload.Parse("wrapped_key.bin", payload.FormatAuto)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d bytes, magic 0x%08X\n", len(p.Data), p.Magic())
func Parse(path string, format Format) (*Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f, format)
}

// ParseReader decodes a payload from any io.Reader.
func ParseReader(r io.Reader, format Format) (*Payload, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	if len(raw) > MaxSize {
		return nil, fmt.Errorf("payload file exceeds %d bytes", MaxSize)
	}

	if format == FormatAuto {
		format = FormatBinary
		if isHexText(raw) {
			format = FormatHex
		}
	}

	var data []byte
	switch format {
	case FormatBinary:
		data = raw
	case FormatHex:
		data, err = parseHex(raw)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown payload format %v", format)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	return &Payload{Data: data, Format: format}, nil
}

// parseHex decodes hex text line by line.
//
// Each line may hold several tokens separated by spaces or commas; a token
// may carry a 0x prefix. Everything after '#' is a comment. Odd digit
// counts are only reported once the whole file is read, so a byte may be
// split across tokens.
func parseHex(raw []byte) ([]byte, error) {
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), MaxSize)

	var digits strings.Builder
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}

		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ' ' || r == '\t' || r == '\r' || r == ','
		})
		for _, tok := range fields {
			tok = strings.TrimPrefix(strings.TrimPrefix(tok, "0x"), "0X")
			for _, c := range tok {
				if !isHexDigit(c) {
					return nil, fmt.Errorf("line %d: invalid hex digit %q", lineNum, c)
				}
			}
			digits.WriteString(tok)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	if digits.Len()%2 != 0 {
		return nil, fmt.Errorf("odd number of hex digits (%d)", digits.Len())
	}
	data, err := hex.DecodeString(digits.String())
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}
	return data, nil
}

func isHexDigit(c rune) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

package protocol

import "fmt"

// ParseReadResponse validates the data of a QSPI_READ response.
// The response must hold exactly the requested number of words.
//
// Data format:
//
//	[WORD_0][WORD_1]...[WORD_n-1]
func ParseReadResponse(data []byte, sizeInWords uint32) ([]byte, error) {
	want := int(sizeInWords) * WordSize
	if len(data) != want {
		return nil, fmt.Errorf("invalid read response: got %d bytes, expected %d", len(data), want)
	}
	return data, nil
}

// CheckStatus converts a mailbox status into an error for the given command.
// Returns nil for StatusOK.
func CheckStatus(cmd Command, status Status) error {
	if status == StatusOK {
		return nil
	}
	return &ProtocolError{Operation: CommandName(cmd.Code()), StatusCode: status}
}

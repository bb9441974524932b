// Package payload loads wrapped key and helper data files.
//
// # File Formats
//
// Binary files are used byte for byte. Hex text files hold hex digits,
// optionally split into tokens by whitespace or commas:
//
//	# wrapped key, USER_IID
//	CD0C114E 00000000
//	0x01,0x02,0x03,0x04
//
// decodes to CD 0C 11 4E 00 00 00 00 01 02 03 04. FormatAuto treats a file
// as hex text when it contains nothing but the characters above.
//
// # Usage
//
//	p, err := payload.Parse("helper.hex", payload.FormatAuto)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Magic: 0x%08X\n", p.Magic())
package payload

package objdir

import "math/bits"

const (
	crcPolynomial = 0x04C11DB7
	crcSeed       = 0xFFFFFFFF
	crcFinalXOR   = 0xFFFFFFFF
)

// Checksum computes the CRC-32 of data one bit at a time.
//
// The register is shifted most significant bit first while the bits of each
// byte are fed least significant first. The final register is bit-reversed
// and inverted, which yields the standard (IEEE) CRC-32.
func Checksum(data []byte) uint32 {
	crc := uint32(crcSeed)
	for _, b := range data {
		for i := 0; i < 8; i++ {
			bit := uint32(b>>i&1) << 31
			if (crc^bit)&0x80000000 != 0 {
				crc = crc<<1 ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
	}
	return bits.Reverse32(crc) ^ crcFinalXOR
}

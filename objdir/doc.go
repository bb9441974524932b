// Package objdir manages the object directory partition: a 512-byte header
// block listing up to 31 objects, followed by their payloads in 512-byte
// blocks. Two copies are kept back to back and are always rewritten whole.
//
// A partition is found by probing eight candidate addresses from 0x200000.
// Rebuild lays objects out from block 1 without gaps, so replacing a payload
// with one of a different size moves every later object.
package objdir

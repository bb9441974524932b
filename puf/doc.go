// Package puf manages the fixed-layout PUF data block kept in QSPI flash.
//
// The block is 0x2000 words long and stored twice. Its copies are found
// through two pointer words at 0x1F90 and 0x1F98 relative to the
// configuration data base, which comes from the legacy partition table in
// sector 0 (type 0xA2) or is 0 when sector 0 is unsigned.
//
// Block layout:
//
//	0x0000  allocation table: [COUNT][RESERVED][UIID_HELP][UIID_KEY][UDS_HELP][UDS_KEY]
//	0x1000  user IID help data     (magic 0x4CF27941)
//	0x2000  user IID wrapped key   (magic 0x4E110CCD)
//	0x3000  UDS IID help data      (magic 0x4CF27941)
//	0x4000  UDS IID wrapped key    (magic 0x4E110CCD)
//
// UpdateSection re-reads block0, patches one section and rewrites block0
// and then block1. No rollback is attempted if the second copy fails.
package puf

// Package provision writes PUF wrapped keys and helper data to QSPI flash.
//
// Wrapped keys for USER_IID and UDS_IID, and UDS_IID helper data, live in
// the redundant PUF data block managed by package puf. UDS_INTEL helper data
// is an object in the directory partition managed by package objdir.
//
//	writer := provision.NewWriter(qspi.New(mailbox))
//	if err := writer.WriteWrappedKey(ctx, key, provision.UserIID); err != nil {
//	    log.Fatal(err)
//	}
//
// Unsupported PUF types and empty payloads fail before the flash is opened.
package provision

//go:build !linux

package sdm

func openIoctl(path string) (Mailbox, error) {
	return nil, ErrUnsupportedPlatform
}

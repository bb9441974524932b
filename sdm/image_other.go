//go:build !(darwin || linux)

package sdm

// OpenImage is not available on this platform.
func OpenImage(path string) (*Simulator, error) {
	return nil, ErrUnsupportedPlatform
}

// CreateImage is not available on this platform.
func CreateImage(path string, size int64) (*Simulator, error) {
	return nil, ErrUnsupportedPlatform
}

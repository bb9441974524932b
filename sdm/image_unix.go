//go:build darwin || linux

package sdm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// imageAlignment is the granularity of flash image sizes, one erase sector.
const imageAlignment = 0x1000

// OpenImage maps an existing flash image file and serves it through a
// Simulator. Writes land in the file through the shared mapping.
func OpenImage(path string) (*Simulator, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("opening flash image %s: %w", path, err)
	}

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("stating flash image: %w", err)
	}
	if stat.Size == 0 || stat.Size%imageAlignment != 0 {
		unix.Close(fd)
		return nil, fmt.Errorf("flash image %s is %d bytes, want a non-zero multiple of %d",
			path, stat.Size, imageAlignment)
	}

	return mapImage(fd, stat.Size)
}

// CreateImage creates a new erased flash image file of size bytes.
// An existing file at path is rejected.
func CreateImage(path string, size int64) (*Simulator, error) {
	if size <= 0 || size%imageAlignment != 0 {
		return nil, fmt.Errorf("flash image size must be a positive multiple of %d, got %d", imageAlignment, size)
	}

	fd, err := unix.Open(path, unix.O_CREAT|unix.O_EXCL|unix.O_RDWR|unix.O_CLOEXEC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating flash image %s: %w", path, err)
	}
	if err := unix.Ftruncate(fd, size); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("truncating flash image to %d bytes: %w", size, err)
	}

	sim, err := mapImage(fd, size)
	if err != nil {
		return nil, err
	}
	fill(sim.mem, 0xFF)
	return sim, nil
}

func mapImage(fd int, size int64) (*Simulator, error) {
	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("memory-mapping flash image: %w", err)
	}

	return &Simulator{
		mem: data,
		closer: func() error {
			var firstErr error
			if err := unix.Msync(data, unix.MS_SYNC); err != nil {
				firstErr = fmt.Errorf("syncing flash image: %w", err)
			}
			if err := unix.Munmap(data); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("unmapping flash image: %w", err)
			}
			if err := unix.Close(fd); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("closing flash image fd: %w", err)
			}
			return firstErr
		},
	}, nil
}

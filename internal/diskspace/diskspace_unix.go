//go:build !windows

package diskspace

import (
	"syscall"
)

// availableSpace returns the bytes available to the calling user on the
// filesystem containing dir. Returns 0 if the filesystem cannot be
// statted.
func availableSpace(dir string) int64 {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		return 0
	}

	// stat.Bavail = blocks available to non-root users
	// stat.Bsize = block size in bytes
	return int64(stat.Bavail) * int64(stat.Bsize)
}

func diskStats(path string) (DiskStats, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return DiskStats{}, err
	}

	bsize := int64(stat.Bsize)
	return DiskStats{
		TotalBytes:     int64(stat.Blocks) * bsize,
		FreeBytes:      int64(stat.Bfree) * bsize,
		AvailableBytes: int64(stat.Bavail) * bsize,
	}, nil
}

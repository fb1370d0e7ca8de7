//go:build windows

package diskspace

import (
	"errors"
	"syscall"
	"unsafe"
)

var (
	kernel32            = syscall.NewLazyDLL("kernel32.dll")
	getDiskFreeSpaceExW = kernel32.NewProc("GetDiskFreeSpaceExW")
)

// availableSpace uses the Windows API GetDiskFreeSpaceExW to get
// available disk space. Returns 0 if the call fails.
func availableSpace(dir string) int64 {
	var freeBytesAvailable, totalBytes, totalFreeBytes uint64

	pathPtr, err := syscall.UTF16PtrFromString(dir)
	if err != nil {
		return 0
	}

	ret, _, _ := getDiskFreeSpaceExW.Call(
		uintptr(unsafe.Pointer(pathPtr)),
		uintptr(unsafe.Pointer(&freeBytesAvailable)),
		uintptr(unsafe.Pointer(&totalBytes)),
		uintptr(unsafe.Pointer(&totalFreeBytes)),
	)

	if ret == 0 {
		return 0
	}

	return int64(freeBytesAvailable)
}

func diskStats(path string) (DiskStats, error) {
	var freeBytesAvailable, totalBytes, totalFreeBytes uint64

	pathPtr, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return DiskStats{}, err
	}

	ret, _, _ := getDiskFreeSpaceExW.Call(
		uintptr(unsafe.Pointer(pathPtr)),
		uintptr(unsafe.Pointer(&freeBytesAvailable)),
		uintptr(unsafe.Pointer(&totalBytes)),
		uintptr(unsafe.Pointer(&totalFreeBytes)),
	)

	if ret == 0 {
		return DiskStats{}, errors.New("GetDiskFreeSpaceExW failed")
	}

	return DiskStats{
		TotalBytes:     int64(totalBytes),
		FreeBytes:      int64(totalFreeBytes),
		AvailableBytes: int64(freeBytesAvailable),
	}, nil
}

package vdisk

import (
	"errors"
	"fmt"
)

// Common virtual disk operation errors
var (
	// ErrNotFound indicates the named file or directory does not exist
	ErrNotFound = errors.New("no such file or directory")
	// ErrAlreadyExists indicates the name is already taken
	ErrAlreadyExists = errors.New("already exists")
	// ErrFileOpen indicates the operation refuses to touch an open file
	ErrFileOpen = errors.New("file is open")
	// ErrNotOpen indicates the file is not currently open
	ErrNotOpen = errors.New("file is not open")
	// ErrBadMode indicates an open mode other than "r" or "w"
	ErrBadMode = errors.New("mode must be 'r' (read) or 'w' (write)")
	// ErrReadOnly indicates a mutation through a read-mode handle
	ErrReadOnly = errors.New("file not opened in write mode")
	// ErrNoSpace indicates no contiguous free block can hold the request
	ErrNoSpace = errors.New("not enough contiguous free space")
	// ErrInvalidRange indicates a negative offset, size or target
	ErrInvalidRange = errors.New("offset and size must be non-negative")
	// ErrClosed indicates the disk has been shut down
	ErrClosed = errors.New("disk is closed")
)

// NoSpaceError reports an allocation the free list could not satisfy.
// It matches ErrNoSpace under errors.Is.
type NoSpaceError struct {
	Requested   int64
	LargestFree int64
}

func (e *NoSpaceError) Error() string {
	return fmt.Sprintf("not enough contiguous free space: need %d bytes, largest free block is %d bytes",
		e.Requested, e.LargestFree)
}

func (e *NoSpaceError) Unwrap() error { return ErrNoSpace }

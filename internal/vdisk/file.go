package vdisk

import (
	"fmt"
	"sync"
)

// File is an open handle. Content lives in an in-memory buffer that is
// the single source of truth for the file's bytes; every mutation
// rewrites the buffer and flushes it through the disk, so positional
// writes and whole-file reads always agree. Two handles on the same
// name keep independent buffers; last flush wins.
//
// A File is safe for concurrent use. Flushes serialize through the
// disk's lock.
type File struct {
	disk *Disk

	name string
	mode string

	mu      sync.Mutex
	content []byte
}

// Name returns the file's name.
func (f *File) Name() string { return f.name }

// Mode returns the mode the handle was opened with.
func (f *File) Mode() string { return f.mode }

// Size returns the buffered content length in bytes.
func (f *File) Size() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.content))
}

// Read returns the full content.
func (f *File) Read() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.content)
}

// ReadAt returns up to size bytes starting at start. A start at or past
// the end yields the empty string; a range running past the end is
// clamped.
func (f *File) ReadAt(start, size int64) (string, error) {
	if start < 0 || size < 0 {
		return "", fmt.Errorf("read %q: %w", f.name, ErrInvalidRange)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	n := int64(len(f.content))
	if start >= n {
		return "", nil
	}
	end := start + size
	if end > n {
		end = n
	}
	return string(f.content[start:end]), nil
}

// Write appends text to the content and flushes.
func (f *File) Write(text string) error {
	if f.mode != ModeWrite {
		return fmt.Errorf("write %q: %w", f.name, ErrReadOnly)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.content = append(f.content, text...)
	return f.flush()
}

// WriteAt overlays text at pos, zero-filling any gap past the current
// end, and flushes.
func (f *File) WriteAt(pos int64, text string) error {
	if f.mode != ModeWrite {
		return fmt.Errorf("write %q: %w", f.name, ErrReadOnly)
	}
	if pos < 0 {
		return fmt.Errorf("write %q: %w", f.name, ErrInvalidRange)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	n := int64(len(f.content))
	if pos > n {
		f.content = append(f.content, make([]byte, pos-n)...)
		n = pos
	}
	end := pos + int64(len(text))
	if end > n {
		f.content = append(f.content[:pos], text...)
	} else {
		copy(f.content[pos:end], text)
	}

	return f.flush()
}

// MoveRange copies size bytes starting at start onto target within the
// file, growing it when the destination runs past the end. The source
// range is clamped to the file; a start past the end is a no-op.
func (f *File) MoveRange(start, size, target int64) error {
	if f.mode != ModeWrite {
		return fmt.Errorf("write %q: %w", f.name, ErrReadOnly)
	}
	if start < 0 || size < 0 || target < 0 {
		return fmt.Errorf("write %q: %w", f.name, ErrInvalidRange)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	n := int64(len(f.content))
	if start >= n {
		return nil
	}
	if start+size > n {
		size = n - start
	}

	chunk := make([]byte, size)
	copy(chunk, f.content[start:start+size])

	if target+size > n {
		f.content = append(f.content, make([]byte, target+size-n)...)
	}
	copy(f.content[target:target+size], chunk)

	return f.flush()
}

// Truncate shrinks the file to at most maxSize bytes, releasing the
// freed tail back to the disk. A file already within the limit is left
// alone.
func (f *File) Truncate(maxSize int64) error {
	if f.mode != ModeWrite {
		return fmt.Errorf("truncate %q: %w", f.name, ErrReadOnly)
	}
	if maxSize < 0 {
		return fmt.Errorf("truncate %q: %w", f.name, ErrInvalidRange)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if int64(len(f.content)) <= maxSize {
		return nil
	}
	f.content = f.content[:maxSize]
	return f.flush()
}

// Close removes the file from the disk's open registry.
func (f *File) Close() error {
	return f.disk.CloseFile(f.name)
}

// flush pushes the buffer to the disk image. Callers hold f.mu; the
// disk lock is taken second, and the disk never calls back into File.
func (f *File) flush() error {
	return f.disk.flushFile(f.name, f.content)
}

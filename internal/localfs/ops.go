package localfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Sentinel errors for filesystem operations. Callers branch on these
// with errors.Is; the wrapped message carries the offending path.
var (
	ErrNotFound         = errors.New("no such file or directory")
	ErrPermissionDenied = errors.New("permission denied")
	ErrAlreadyExists    = errors.New("file already exists")
)

// mapOSError translates OS-level errors into the package sentinels,
// preserving the original error text for anything unclassified.
func mapOSError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrPermissionDenied
	case errors.Is(err, fs.ErrExist):
		return ErrAlreadyExists
	default:
		return err
	}
}

// wrapPathError attaches an operation and path to a mapped sentinel so
// both errors.Is checks and log output stay useful.
func wrapPathError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s %s: %w", op, path, mapOSError(err))
}

// CreateFile creates a new file at path with the given content.
// Fails with ErrAlreadyExists if the path already exists, and with
// ErrNotFound if the parent directory is missing.
func CreateFile(path string, content []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return wrapPathError("create", path, err)
	}

	if _, err := f.Write(content); err != nil {
		f.Close()
		return wrapPathError("write", path, err)
	}

	if err := f.Close(); err != nil {
		return wrapPathError("close", path, err)
	}
	return nil
}

// CreateDir creates a single new directory at path.
// Fails with ErrAlreadyExists if the path already exists, and with
// ErrNotFound if the parent directory is missing.
func CreateDir(path string) error {
	if err := os.Mkdir(path, 0755); err != nil {
		return wrapPathError("mkdir", path, err)
	}
	return nil
}

// Delete removes the file or directory at path. Directories are removed
// recursively. Fails with ErrNotFound if the path does not exist.
func Delete(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return wrapPathError("delete", path, err)
	}

	if info.IsDir() {
		if err := os.RemoveAll(path); err != nil {
			return wrapPathError("delete", path, err)
		}
		return nil
	}

	if err := os.Remove(path); err != nil {
		return wrapPathError("delete", path, err)
	}
	return nil
}

// Move renames src to dst. Fails with ErrNotFound if src does not
// exist and with ErrAlreadyExists if dst is already present; an
// existing destination is never silently replaced.
func Move(src, dst string) error {
	if _, err := os.Lstat(src); err != nil {
		return wrapPathError("move", src, err)
	}

	if _, err := os.Lstat(dst); err == nil {
		return wrapPathError("move", dst, fs.ErrExist)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return wrapPathError("move", dst, err)
	}

	if err := os.Rename(src, dst); err != nil {
		return wrapPathError("move", src, err)
	}
	return nil
}

// Stat returns the FileEntry for a single path.
// Fails with ErrNotFound if the path does not exist.
func Stat(path string) (FileEntry, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return FileEntry{}, wrapPathError("stat", path, err)
	}

	return FileEntry{
		Path:    path,
		Name:    filepath.Base(path),
		Size:    info.Size(),
		IsDir:   info.IsDir(),
		ModTime: info.ModTime(),
		Mode:    info.Mode(),
	}, nil
}

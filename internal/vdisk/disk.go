// Package vdisk implements a small virtual disk: one data file holding
// every file's bytes in contiguous extents, plus a JSON metadata file
// tracking placement, directories and free space. Allocation is best
// fit over the free list; freed extents merge with their neighbors.
//
// File names are unique across the whole disk. Directories only group
// names for listing; a file's bytes and metadata are keyed by its bare
// name no matter where it lives.
package vdisk

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/veldtlabs/fsdrill/internal/constants"
	"github.com/veldtlabs/fsdrill/internal/diskspace"
	"github.com/veldtlabs/fsdrill/internal/validation"
)

// Open modes accepted by Disk.OpenFile.
const (
	ModeRead  = "r"
	ModeWrite = "w"
)

// Options configures where a disk lives and how large a fresh one is.
// Zero values fall back to the application defaults.
type Options struct {
	// Dir is the host directory holding the data and metadata files.
	Dir string
	// DataFile is the backing data file name.
	DataFile string
	// MetadataFile is the metadata document name.
	MetadataFile string
	// Capacity is the disk size in bytes for a newly created disk.
	// An existing metadata file's recorded size always wins.
	Capacity int64
}

// Disk is a virtual disk instance. All methods are safe for concurrent
// use; open handles returned by OpenFile serialize through the disk
// when they flush.
type Disk struct {
	mu sync.Mutex

	dir      string
	dataPath string
	metaPath string

	data *os.File
	meta *diskMeta

	openFiles   map[string]*File
	currentPath string
	closed      bool
}

// Open loads the disk at opts.Dir, creating a fresh one when no
// metadata file exists yet. The data file is sized to the recorded
// capacity; sparse regions read back as zeros.
func Open(opts Options) (*Disk, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	dataName := opts.DataFile
	if dataName == "" {
		dataName = constants.DiskDataFileName
	}
	metaName := opts.MetadataFile
	if metaName == "" {
		metaName = constants.DiskMetadataFileName
	}
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = constants.DiskDefaultCapacity
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create disk directory: %w", err)
	}

	metaPath := filepath.Join(dir, metaName)
	dataPath := filepath.Join(dir, dataName)

	var meta *diskMeta
	fresh := false
	if _, err := os.Stat(metaPath); err == nil {
		meta, err = loadDiskMeta(metaPath)
		if err != nil {
			return nil, err
		}
	} else if errors.Is(err, fs.ErrNotExist) {
		meta = newDiskMeta(capacity)
		fresh = true
	} else {
		return nil, fmt.Errorf("failed to stat metadata file: %w", err)
	}

	if fresh {
		// A fresh image can fill to its full capacity on the host.
		if err := diskspace.CheckAvailableSpace(dataPath, meta.MaxSize, 1.1); err != nil {
			return nil, err
		}
	}

	data, err := os.OpenFile(dataPath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	if fi, err := data.Stat(); err == nil && fi.Size() < meta.MaxSize {
		if err := data.Truncate(meta.MaxSize); err != nil {
			data.Close()
			return nil, fmt.Errorf("failed to size data file: %w", err)
		}
	}

	d := &Disk{
		dir:         dir,
		dataPath:    dataPath,
		metaPath:    metaPath,
		data:        data,
		meta:        meta,
		openFiles:   make(map[string]*File),
		currentPath: "/",
	}

	if fresh {
		if err := d.meta.save(d.metaPath); err != nil {
			data.Close()
			return nil, err
		}
	}

	return d, nil
}

// Close flushes metadata and releases the backing data file. Further
// operations on the disk or its handles return ErrClosed.
func (d *Disk) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	err := d.meta.save(d.metaPath)
	if cerr := d.data.Close(); err == nil {
		err = cerr
	}
	return err
}

// Create adds an empty file in the current directory. The name must be
// unused anywhere on the disk.
func (d *Disk) Create(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if _, err := d.createLocked(name); err != nil {
		return err
	}
	return d.persist()
}

// Delete removes a file and returns its extent to the free list. Open
// files cannot be deleted.
func (d *Disk) Delete(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	fm, ok := d.meta.Files[name]
	if !ok {
		return fmt.Errorf("file %q: %w", name, ErrNotFound)
	}
	if _, open := d.openFiles[name]; open {
		return fmt.Errorf("file %q: %w", name, ErrFileOpen)
	}

	d.meta.release(fm.StartPos, fm.Size)
	d.removeFromDirs(name)
	delete(d.meta.Files, name)

	return d.persist()
}

// Mkdir creates a subdirectory of the current directory.
func (d *Disk) Mkdir(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if err := validation.ValidateEntryName(name); err != nil {
		return fmt.Errorf("mkdir %s: %w", name, err)
	}

	path := joinPath(d.currentPath, name)
	if _, ok := d.meta.Directories[path]; ok {
		return fmt.Errorf("directory %q: %w", name, ErrAlreadyExists)
	}

	d.meta.Directories[path] = &dirMeta{
		Name:           name,
		CreationTime:   epochNow(),
		Files:          []string{},
		Subdirectories: []string{},
	}
	parent := d.meta.Directories[d.currentPath]
	parent.Subdirectories = append(parent.Subdirectories, name)

	return d.persist()
}

// Chdir changes the current directory. Accepts "/", ".", "..", a
// subdirectory name, or an absolute path.
func (d *Disk) Chdir(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	switch path {
	case "", ".":
		return nil
	case "/":
		d.currentPath = "/"
		return nil
	case "..":
		if d.currentPath == "/" {
			return nil
		}
		idx := strings.LastIndex(d.currentPath, "/")
		if idx <= 0 {
			d.currentPath = "/"
		} else {
			d.currentPath = d.currentPath[:idx]
		}
		return nil
	}

	target := path
	if !strings.HasPrefix(target, "/") {
		target = joinPath(d.currentPath, target)
	}
	target = strings.TrimRight(target, "/")
	if target == "" {
		target = "/"
	}
	if _, ok := d.meta.Directories[target]; !ok {
		return fmt.Errorf("directory %q: %w", path, ErrNotFound)
	}
	d.currentPath = target

	return nil
}

// Move relocates a file into targetDir, creating the directory chain
// when it does not exist yet. Only the directory listing changes; the
// file's extent and metadata key stay put. Open files cannot move.
func (d *Disk) Move(fileName, targetDir string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if _, ok := d.meta.Files[fileName]; !ok {
		return fmt.Errorf("file %q: %w", fileName, ErrNotFound)
	}
	if _, open := d.openFiles[fileName]; open {
		return fmt.Errorf("file %q: %w", fileName, ErrFileOpen)
	}

	target := targetDir
	if !strings.HasPrefix(target, "/") {
		target = joinPath(d.currentPath, target)
	}
	target = strings.TrimRight(target, "/")
	if target == "" {
		target = "/"
	}

	d.ensureDirChain(target)
	d.removeFromDirs(fileName)
	dir := d.meta.Directories[target]
	dir.Files = append(dir.Files, fileName)

	return d.persist()
}

// OpenFile opens a file for reading or writing. Opening a missing file
// in write mode creates it. The returned handle buffers content in
// memory; mutations flush back to the disk image as they happen.
// Reopening a name replaces the previous handle in the open registry.
func (d *Disk) OpenFile(name, mode string) (*File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if mode != ModeRead && mode != ModeWrite {
		return nil, fmt.Errorf("open %q mode %q: %w", name, mode, ErrBadMode)
	}

	fm, ok := d.meta.Files[name]
	if !ok {
		if mode == ModeRead {
			return nil, fmt.Errorf("file %q: %w", name, ErrNotFound)
		}
		var err error
		fm, err = d.createLocked(name)
		if err != nil {
			return nil, err
		}
		if err := d.persist(); err != nil {
			return nil, err
		}
	}

	content, err := d.readExtent(fm.StartPos, fm.Size)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", name, err)
	}
	content = bytes.TrimRight(content, "\x00")

	f := &File{disk: d, name: name, mode: mode, content: content}
	d.openFiles[name] = f

	return f, nil
}

// CloseFile removes a file from the open registry and persists
// metadata. The handle itself stays usable, matching a registry that
// tracks names rather than handles.
func (d *Disk) CloseFile(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if _, ok := d.openFiles[name]; !ok {
		return fmt.Errorf("file %q: %w", name, ErrNotOpen)
	}
	delete(d.openFiles, name)

	return d.persist()
}

// IsOpen reports whether name is in the open registry.
func (d *Disk) IsOpen(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.openFiles[name]
	return ok
}

// Handle returns the currently registered handle for name, if any.
func (d *Disk) Handle(name string) (*File, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	f, ok := d.openFiles[name]
	return f, ok
}

// CurrentPath returns the disk's current directory.
func (d *Disk) CurrentPath() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentPath
}

// DirEntry is one row of a directory listing.
type DirEntry struct {
	Name  string `json:"name" yaml:"name"`
	IsDir bool   `json:"is_dir" yaml:"is_dir"`
	Size  int64  `json:"size" yaml:"size"`
}

// ListDirectory returns the current directory's contents,
// subdirectories first, both in creation order.
func (d *Disk) ListDirectory() ([]DirEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}

	dir := d.meta.Directories[d.currentPath]
	entries := make([]DirEntry, 0, len(dir.Subdirectories)+len(dir.Files))
	for _, name := range dir.Subdirectories {
		entries = append(entries, DirEntry{Name: name, IsDir: true})
	}
	for _, name := range dir.Files {
		var size int64
		if fm, ok := d.meta.Files[name]; ok {
			size = fm.Size
		}
		entries = append(entries, DirEntry{Name: name, Size: size})
	}

	return entries, nil
}

// Extent is a file's placement in the memory map.
type Extent struct {
	Name  string `json:"name" yaml:"name"`
	Start int64  `json:"start" yaml:"start"`
	Size  int64  `json:"size" yaml:"size"`
}

// Block is a free region in the memory map.
type Block struct {
	Start int64 `json:"start" yaml:"start"`
	Size  int64 `json:"size" yaml:"size"`
}

// MemoryMap is a point-in-time snapshot of disk layout. Files are
// ordered by start offset, free blocks by start, open names
// alphabetically, so equal states render identically. LargestFree is
// the biggest contiguous run, the practical ceiling on the next
// allocation when free space is fragmented.
type MemoryMap struct {
	TotalSize   int64    `json:"total_size" yaml:"total_size"`
	UsedSize    int64    `json:"used_size" yaml:"used_size"`
	FreeSize    int64    `json:"free_size" yaml:"free_size"`
	LargestFree int64    `json:"largest_free" yaml:"largest_free"`
	Files       []Extent `json:"files" yaml:"files"`
	FreeBlocks  []Block  `json:"free_blocks" yaml:"free_blocks"`
	OpenFiles   []string `json:"open_files" yaml:"open_files"`
}

// MemoryMap captures the current allocation state.
func (d *Disk) MemoryMap() (*MemoryMap, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}

	m := &MemoryMap{
		TotalSize:   d.meta.MaxSize,
		UsedSize:    d.meta.UsedSize,
		FreeSize:    d.meta.MaxSize - d.meta.UsedSize,
		LargestFree: d.meta.largestFreeBlock(),
		Files:       make([]Extent, 0, len(d.meta.Files)),
		FreeBlocks:  make([]Block, 0, len(d.meta.FreeSpace)),
		OpenFiles:   make([]string, 0, len(d.openFiles)),
	}

	for _, fm := range d.meta.Files {
		m.Files = append(m.Files, Extent{Name: fm.Name, Start: fm.StartPos, Size: fm.Size})
	}
	sort.Slice(m.Files, func(i, j int) bool {
		if m.Files[i].Start != m.Files[j].Start {
			return m.Files[i].Start < m.Files[j].Start
		}
		return m.Files[i].Name < m.Files[j].Name
	})

	for _, block := range d.meta.FreeSpace {
		m.FreeBlocks = append(m.FreeBlocks, Block{Start: block[0], Size: block[1]})
	}

	for name := range d.openFiles {
		m.OpenFiles = append(m.OpenFiles, name)
	}
	sort.Strings(m.OpenFiles)

	return m, nil
}

// createLocked registers an empty file in the current directory.
// Callers hold d.mu and persist afterwards.
func (d *Disk) createLocked(name string) (*fileMeta, error) {
	if err := validation.ValidateEntryName(name); err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	if _, ok := d.meta.Files[name]; ok {
		return nil, fmt.Errorf("file %q: %w", name, ErrAlreadyExists)
	}

	start, err := d.meta.allocate(0)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}

	now := epochNow()
	fm := &fileMeta{
		Name:         name,
		CreationTime: now,
		ModifiedTime: now,
		StartPos:     start,
	}
	d.meta.Files[name] = fm
	dir := d.meta.Directories[d.currentPath]
	dir.Files = append(dir.Files, name)

	return fm, nil
}

// flushFile persists a handle's buffered content. Shrinking writes in
// place and releases the tail; growth extends in place when the block
// right after the extent is free, otherwise the content moves to a
// best-fit extent. New space is secured before old space is released,
// so a failed grow leaves the file unchanged.
func (d *Disk) flushFile(name string, content []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	fm, ok := d.meta.Files[name]
	if !ok {
		return fmt.Errorf("file %q: %w", name, ErrNotFound)
	}

	newLen := int64(len(content))
	switch {
	case newLen < fm.Size:
		if err := d.writeExtent(fm.StartPos, content); err != nil {
			return fmt.Errorf("write %q: %w", name, err)
		}
		d.meta.release(fm.StartPos+newLen, fm.Size-newLen)
		fm.Size = newLen

	case newLen > fm.Size:
		if d.meta.extendAt(fm.StartPos+fm.Size, newLen-fm.Size) {
			if err := d.writeExtent(fm.StartPos, content); err != nil {
				return fmt.Errorf("write %q: %w", name, err)
			}
			fm.Size = newLen
		} else {
			newStart, err := d.meta.allocate(newLen)
			if err != nil {
				return fmt.Errorf("write %q: %w", name, err)
			}
			if err := d.writeExtent(newStart, content); err != nil {
				d.meta.release(newStart, newLen)
				return fmt.Errorf("write %q: %w", name, err)
			}
			d.meta.release(fm.StartPos, fm.Size)
			fm.StartPos = newStart
			fm.Size = newLen
		}

	default:
		if err := d.writeExtent(fm.StartPos, content); err != nil {
			return fmt.Errorf("write %q: %w", name, err)
		}
	}

	fm.ModifiedTime = epochNow()
	return d.persist()
}

// ensureDirChain creates every missing directory along path, wiring
// each new one into its parent. Callers hold d.mu.
func (d *Disk) ensureDirChain(path string) {
	if path == "/" {
		return
	}
	cur := "/"
	for _, part := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		next := joinPath(cur, part)
		if _, ok := d.meta.Directories[next]; !ok {
			d.meta.Directories[next] = &dirMeta{
				Name:           part,
				CreationTime:   epochNow(),
				Files:          []string{},
				Subdirectories: []string{},
			}
			parent := d.meta.Directories[cur]
			parent.Subdirectories = append(parent.Subdirectories, part)
		}
		cur = next
	}
}

// removeFromDirs drops name from every directory listing. Callers hold
// d.mu.
func (d *Disk) removeFromDirs(name string) {
	for _, dir := range d.meta.Directories {
		for i, f := range dir.Files {
			if f == name {
				dir.Files = append(dir.Files[:i], dir.Files[i+1:]...)
				break
			}
		}
	}
}

// persist saves metadata. Callers hold d.mu.
func (d *Disk) persist() error {
	return d.meta.save(d.metaPath)
}

// readExtent reads size bytes at start from the data file. Callers
// hold d.mu.
func (d *Disk) readExtent(start, size int64) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	n, err := d.data.ReadAt(buf, start)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}

// writeExtent writes data at start in the data file. Callers hold d.mu.
func (d *Disk) writeExtent(start int64, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	_, err := d.data.WriteAt(data, start)
	return err
}

func joinPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

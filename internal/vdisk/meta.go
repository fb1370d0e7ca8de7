package vdisk

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// fileMeta describes a single file's placement on the disk image.
// Times are epoch seconds so the metadata file stays portable.
type fileMeta struct {
	Name         string  `json:"name"`
	Size         int64   `json:"size"`
	CreationTime float64 `json:"creation_time"`
	ModifiedTime float64 `json:"modified_time"`
	StartPos     int64   `json:"start_pos"`
	IsDirectory  bool    `json:"is_directory"`
}

// dirMeta describes a directory. Files and Subdirectories hold names,
// not full paths; directories themselves are keyed by absolute path in
// diskMeta.Directories.
type dirMeta struct {
	Name           string   `json:"name"`
	CreationTime   float64  `json:"creation_time"`
	Files          []string `json:"files"`
	Subdirectories []string `json:"subdirectories"`
}

// diskMeta is the on-disk metadata document. FreeSpace holds
// [start, size] pairs of unallocated extents, kept sorted by start.
type diskMeta struct {
	MaxSize     int64                `json:"max_size"`
	UsedSize    int64                `json:"used_size"`
	Files       map[string]*fileMeta `json:"files"`
	Directories map[string]*dirMeta  `json:"directories"`
	FreeSpace   [][2]int64           `json:"free_space"`
}

func newDiskMeta(capacity int64) *diskMeta {
	return &diskMeta{
		MaxSize: capacity,
		Files:   make(map[string]*fileMeta),
		Directories: map[string]*dirMeta{
			"/": {
				Name:           "/",
				CreationTime:   epochNow(),
				Files:          []string{},
				Subdirectories: []string{},
			},
		},
		FreeSpace: [][2]int64{{0, capacity}},
	}
}

func loadDiskMeta(path string) (*diskMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var m diskMeta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse metadata file: %w", err)
	}

	if m.Files == nil {
		m.Files = make(map[string]*fileMeta)
	}
	if m.Directories == nil {
		m.Directories = make(map[string]*dirMeta)
	}
	if _, ok := m.Directories["/"]; !ok {
		m.Directories["/"] = &dirMeta{
			Name:           "/",
			CreationTime:   epochNow(),
			Files:          []string{},
			Subdirectories: []string{},
		}
	}

	return &m, nil
}

// save writes the metadata document atomically: temp file first, then
// rename over the target.
func (m *diskMeta) save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	if err := os.Rename(tmpFile, path); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to replace metadata file: %w", err)
	}

	return nil
}

func epochNow() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

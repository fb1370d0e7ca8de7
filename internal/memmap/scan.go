// Package memmap builds point-in-time snapshots of a directory tree:
// every entry with its size and kind, plus filesystem totals. A
// snapshot is an immutable value; presentation layers render it
// without touching the scanned tree again.
package memmap

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/veldtlabs/fsdrill/internal/constants"
	"github.com/veldtlabs/fsdrill/internal/diskspace"
	"github.com/veldtlabs/fsdrill/internal/localfs"
)

// Entry is one file or directory in a snapshot. Path is relative to
// the snapshot root.
type Entry struct {
	Path string `json:"path" yaml:"path"`
	Size int64  `json:"size" yaml:"size"`
	Kind string `json:"kind" yaml:"kind"`
}

// Snapshot is a point-in-time view of a directory tree.
type Snapshot struct {
	Root       string              `json:"root" yaml:"root"`
	TakenAt    time.Time           `json:"taken_at" yaml:"taken_at"`
	Disk       diskspace.DiskStats `json:"disk" yaml:"disk"`
	Entries    []Entry             `json:"entries" yaml:"entries"`
	TotalFiles int                 `json:"total_files" yaml:"total_files"`
	TotalDirs  int                 `json:"total_dirs" yaml:"total_dirs"`
	TotalBytes int64               `json:"total_bytes" yaml:"total_bytes"`
}

// Options configures a scan.
type Options struct {
	// IncludeHidden includes dotfiles and hidden directories.
	IncludeHidden bool

	// Workers bounds the number of top-level subtrees scanned
	// concurrently. Zero or negative selects the default.
	Workers int

	// Progress, when non-nil, receives the running count of entries
	// visited, kept or not. Called from multiple goroutines; the
	// callback must be safe for concurrent use.
	Progress func(scanned int64)

	// Match, when non-nil, filters file entries by their root-relative
	// path. Directories always stay so the tree shape survives; totals
	// count only the entries kept.
	Match func(relPath string) bool
}

// Scan walks root and returns a snapshot of everything under it.
// Top-level subdirectories are scanned concurrently; entries come back
// sorted by path so identical trees produce identical snapshots.
func Scan(ctx context.Context, root string, opts Options) (*Snapshot, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = constants.DefaultScanWorkers
	}
	if workers > constants.MaxScanWorkers {
		workers = constants.MaxScanWorkers
	}

	top, err := localfs.ListDirectory(absRoot, localfs.ListOptions{IncludeHidden: opts.IncludeHidden})
	if err != nil {
		return nil, err
	}

	walkOpts := localfs.WalkOptions{
		IncludeHidden:  opts.IncludeHidden,
		SkipHiddenDirs: !opts.IncludeHidden,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var scanned int64
	tick := func() {
		if opts.Progress != nil {
			opts.Progress(atomic.AddInt64(&scanned, 1))
		}
	}

	results := make([][]Entry, len(top))
	for i, t := range top {
		if !t.IsDir {
			rel, err := filepath.Rel(absRoot, t.Path)
			if err != nil {
				continue
			}
			tick()
			if opts.Match != nil && !opts.Match(rel) {
				continue
			}
			results[i] = []Entry{{Path: rel, Size: t.Size, Kind: t.Kind()}}
			continue
		}

		g.Go(func() error {
			var entries []Entry
			err := localfs.Walk(t.Path, walkOpts, func(e localfs.FileEntry) error {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				rel, err := filepath.Rel(absRoot, e.Path)
				if err != nil {
					return nil
				}
				tick()
				if opts.Match != nil && !e.IsDir && !opts.Match(rel) {
					return nil
				}
				size := e.Size
				if e.IsDir {
					size = 0
				}
				entries = append(entries, Entry{Path: rel, Size: size, Kind: e.Kind()})
				return nil
			})
			if err != nil {
				return err
			}
			results[i] = entries
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Root:    absRoot,
		TakenAt: time.Now(),
	}

	for _, chunk := range results {
		snap.Entries = append(snap.Entries, chunk...)
	}

	sort.Slice(snap.Entries, func(i, j int) bool {
		return snap.Entries[i].Path < snap.Entries[j].Path
	})

	for _, e := range snap.Entries {
		switch e.Kind {
		case localfs.KindDir:
			snap.TotalDirs++
		default:
			snap.TotalFiles++
			snap.TotalBytes += e.Size
		}
	}

	// Disk stats are best effort; a failed statfs leaves them zero.
	if stats, err := diskspace.GetDiskStats(absRoot); err == nil {
		snap.Disk = stats
	}

	return snap, nil
}

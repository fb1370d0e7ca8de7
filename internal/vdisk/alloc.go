package vdisk

import "sort"

// allocate reserves size bytes from the free list using best fit: the
// smallest free block that can hold the request. Ties go to the block
// seen first, which is the lowest start because the list stays sorted.
// Returns the start offset of the reserved extent.
//
// A zero-size request still needs a free block to anchor the file's
// start position; a completely full disk refuses it with ErrNoSpace.
func (m *diskMeta) allocate(size int64) (int64, error) {
	bestIdx := -1
	bestSize := int64(-1)
	for i, block := range m.FreeSpace {
		if block[1] >= size && (bestIdx < 0 || block[1] < bestSize) {
			bestIdx = i
			bestSize = block[1]
		}
	}
	if bestIdx < 0 {
		return 0, &NoSpaceError{Requested: size, LargestFree: m.largestFreeBlock()}
	}

	start, free := m.FreeSpace[bestIdx][0], m.FreeSpace[bestIdx][1]
	if free == size {
		m.FreeSpace = append(m.FreeSpace[:bestIdx], m.FreeSpace[bestIdx+1:]...)
	} else {
		m.FreeSpace[bestIdx] = [2]int64{start + size, free - size}
	}
	m.UsedSize += size

	return start, nil
}

// release returns an extent to the free list, merging it with adjacent
// free blocks so fragmentation stays bounded by live allocations.
func (m *diskMeta) release(start, size int64) {
	if size <= 0 {
		return
	}

	m.FreeSpace = append(m.FreeSpace, [2]int64{start, size})
	sort.Slice(m.FreeSpace, func(i, j int) bool {
		return m.FreeSpace[i][0] < m.FreeSpace[j][0]
	})

	merged := m.FreeSpace[:0]
	for _, block := range m.FreeSpace {
		n := len(merged)
		if n > 0 && merged[n-1][0]+merged[n-1][1] == block[0] {
			merged[n-1][1] += block[1]
		} else {
			merged = append(merged, block)
		}
	}
	m.FreeSpace = merged
	m.UsedSize -= size
}

// extendAt consumes delta bytes from a free block starting exactly at
// offset, letting a file grow without relocating. Reports whether such
// a block existed.
func (m *diskMeta) extendAt(offset, delta int64) bool {
	if delta <= 0 {
		return false
	}
	for i, block := range m.FreeSpace {
		if block[0] != offset || block[1] < delta {
			continue
		}
		if block[1] == delta {
			m.FreeSpace = append(m.FreeSpace[:i], m.FreeSpace[i+1:]...)
		} else {
			m.FreeSpace[i] = [2]int64{offset + delta, block[1] - delta}
		}
		m.UsedSize += delta
		return true
	}
	return false
}

// largestFreeBlock reports the biggest contiguous run available.
func (m *diskMeta) largestFreeBlock() int64 {
	var largest int64
	for _, block := range m.FreeSpace {
		if block[1] > largest {
			largest = block[1]
		}
	}
	return largest
}

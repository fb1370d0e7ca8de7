package vdisk

import (
	"errors"
	"reflect"
	"testing"
)

func TestAllocateBestFit(t *testing.T) {
	m := &diskMeta{
		MaxSize:   1000,
		FreeSpace: [][2]int64{{0, 100}, {200, 50}, {400, 300}},
	}

	// Smallest block that fits wins, not the first one.
	start, err := m.allocate(40)
	if err != nil {
		t.Fatalf("allocate(40): %v", err)
	}
	if start != 200 {
		t.Errorf("start = %d, want 200", start)
	}
	want := [][2]int64{{0, 100}, {240, 10}, {400, 300}}
	if !reflect.DeepEqual(m.FreeSpace, want) {
		t.Errorf("free space = %v, want %v", m.FreeSpace, want)
	}
	if m.UsedSize != 40 {
		t.Errorf("used = %d, want 40", m.UsedSize)
	}
}

func TestAllocateExactFitRemovesBlock(t *testing.T) {
	m := &diskMeta{
		MaxSize:   1000,
		FreeSpace: [][2]int64{{0, 100}, {240, 10}},
	}

	start, err := m.allocate(10)
	if err != nil {
		t.Fatalf("allocate(10): %v", err)
	}
	if start != 240 {
		t.Errorf("start = %d, want 240", start)
	}
	want := [][2]int64{{0, 100}}
	if !reflect.DeepEqual(m.FreeSpace, want) {
		t.Errorf("free space = %v, want %v", m.FreeSpace, want)
	}
}

func TestAllocateNoSpace(t *testing.T) {
	m := &diskMeta{
		MaxSize:   100,
		FreeSpace: [][2]int64{{0, 60}, {70, 30}},
	}

	_, err := m.allocate(61)
	if !errors.Is(err, ErrNoSpace) {
		t.Errorf("allocate(61) = %v, want ErrNoSpace", err)
	}
	var nse *NoSpaceError
	if !errors.As(err, &nse) {
		t.Fatalf("allocate(61) = %T, want *NoSpaceError", err)
	}
	if nse.Requested != 61 || nse.LargestFree != 60 {
		t.Errorf("NoSpaceError = {%d, %d}, want {61, 60}", nse.Requested, nse.LargestFree)
	}
	// A full disk refuses even a zero-size anchor.
	m.FreeSpace = nil
	if _, err := m.allocate(0); !errors.Is(err, ErrNoSpace) {
		t.Errorf("allocate(0) on full disk = %v, want ErrNoSpace", err)
	}
}

func TestAllocateZeroAnchorsWithoutConsuming(t *testing.T) {
	m := &diskMeta{
		MaxSize:   1000,
		FreeSpace: [][2]int64{{0, 500}, {600, 20}},
	}

	start, err := m.allocate(0)
	if err != nil {
		t.Fatalf("allocate(0): %v", err)
	}
	if start != 600 {
		t.Errorf("start = %d, want 600 (smallest block)", start)
	}
	want := [][2]int64{{0, 500}, {600, 20}}
	if !reflect.DeepEqual(m.FreeSpace, want) {
		t.Errorf("free space changed: %v", m.FreeSpace)
	}
	if m.UsedSize != 0 {
		t.Errorf("used = %d, want 0", m.UsedSize)
	}
}

func TestReleaseMergesAdjacent(t *testing.T) {
	m := &diskMeta{
		MaxSize:   1000,
		UsedSize:  800,
		FreeSpace: [][2]int64{{0, 100}, {300, 100}},
	}

	m.release(100, 200)

	want := [][2]int64{{0, 400}}
	if !reflect.DeepEqual(m.FreeSpace, want) {
		t.Errorf("free space = %v, want %v", m.FreeSpace, want)
	}
	if m.UsedSize != 600 {
		t.Errorf("used = %d, want 600", m.UsedSize)
	}
}

func TestReleaseKeepsGaps(t *testing.T) {
	m := &diskMeta{
		MaxSize:   1000,
		UsedSize:  1000,
		FreeSpace: nil,
	}

	m.release(500, 50)
	m.release(0, 100)

	want := [][2]int64{{0, 100}, {500, 50}}
	if !reflect.DeepEqual(m.FreeSpace, want) {
		t.Errorf("free space = %v, want %v", m.FreeSpace, want)
	}
}

func TestReleaseZeroIsNoop(t *testing.T) {
	m := &diskMeta{MaxSize: 100, UsedSize: 100}

	m.release(10, 0)

	if len(m.FreeSpace) != 0 || m.UsedSize != 100 {
		t.Errorf("zero release changed state: free=%v used=%d", m.FreeSpace, m.UsedSize)
	}
}

func TestExtendAt(t *testing.T) {
	m := &diskMeta{
		MaxSize:   1000,
		FreeSpace: [][2]int64{{100, 50}},
	}

	if !m.extendAt(100, 20) {
		t.Fatal("extendAt(100, 20) = false, want true")
	}
	want := [][2]int64{{120, 30}}
	if !reflect.DeepEqual(m.FreeSpace, want) {
		t.Errorf("free space = %v, want %v", m.FreeSpace, want)
	}
	if m.UsedSize != 20 {
		t.Errorf("used = %d, want 20", m.UsedSize)
	}

	// No block starts at 130.
	if m.extendAt(130, 10) {
		t.Error("extendAt(130, 10) = true, want false")
	}

	// Consuming the whole block removes it.
	if !m.extendAt(120, 30) {
		t.Fatal("extendAt(120, 30) = false, want true")
	}
	if len(m.FreeSpace) != 0 {
		t.Errorf("free space = %v, want empty", m.FreeSpace)
	}
}

func TestLargestFreeBlock(t *testing.T) {
	m := &diskMeta{FreeSpace: [][2]int64{{0, 10}, {50, 200}, {300, 40}}}
	if got := m.largestFreeBlock(); got != 200 {
		t.Errorf("largestFreeBlock() = %d, want 200", got)
	}

	empty := &diskMeta{}
	if got := empty.largestFreeBlock(); got != 0 {
		t.Errorf("largestFreeBlock() on empty = %d, want 0", got)
	}
}

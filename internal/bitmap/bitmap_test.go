package bitmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAllocateBestFitSequenceThenDeallocate exercises best-fit allocation
// against a map whose free runs are [0..9] and [12..63], then a failing
// oversized request (larger than the 52-block run), then a deallocation.
func TestAllocateBestFitSequenceThenDeallocate(t *testing.T) {
	buf := make([]byte, 8) // 64 blocks, all free
	m := New(buf, 64)

	require.NoError(t, m.SetBit(10, true))
	require.NoError(t, m.SetBit(11, true))

	start, err := m.Allocate(4)
	require.NoError(t, err)
	require.Equal(t, 0, start)

	start, err = m.Allocate(2)
	require.NoError(t, err)
	require.Equal(t, 4, start)

	_, err = m.Allocate(53)
	require.Error(t, err)

	require.NoError(t, m.Deallocate(0, 4))
	require.Equal(t, byte(0x0C), buf[0]) // blocks 4,5 still allocated
	require.Equal(t, byte(0x30), buf[1]) // blocks 10,11
}

// TestAllocatePicksSmallestSufficientRun exercises a map with several free
// runs of varying length ({4..6}, {10..14}, {20..63}), all large enough for
// the request; the smallest one, at 4, is chosen.
func TestAllocatePicksSmallestSufficientRun(t *testing.T) {
	buf := make([]byte, 8) // 64 blocks
	m := New(buf, 64)

	allocated := []int{0, 1, 2, 3, 7, 8, 9, 15, 16, 17, 18, 19}
	for _, b := range allocated {
		require.NoError(t, m.SetBit(b, true))
	}

	start, err := m.Allocate(3)
	require.NoError(t, err)
	require.Equal(t, 4, start)
}

// TestAllocateSmallerRunBeatsLargerRun exercises a map whose free runs are
// {4,5,6} (length 3), {10..14} (length 5) and {20..63}: requesting 2 blocks
// must return the smallest sufficient run at 4, not a larger one, per the
// smallest-sufficient-run, earliest-start-on-a-tie algorithm.
func TestAllocateSmallerRunBeatsLargerRun(t *testing.T) {
	buf := make([]byte, 8)
	m := New(buf, 64)

	allocated := []int{0, 1, 2, 3, 7, 8, 9, 15, 16, 17, 18, 19}
	for _, b := range allocated {
		require.NoError(t, m.SetBit(b, true))
	}

	start, err := m.Allocate(2)
	require.NoError(t, err)
	require.Equal(t, 4, start)
}

func TestAllocateRejectsZero(t *testing.T) {
	m := New(make([]byte, 8), 64)
	_, err := m.Allocate(0)
	require.Error(t, err)
}

func TestDeallocateFailsWithoutMutatingOnDoubleFree(t *testing.T) {
	buf := make([]byte, 2)
	m := New(buf, 16)

	require.NoError(t, m.SetBit(0, true))
	require.NoError(t, m.SetBit(1, true))

	before := append([]byte(nil), buf...)
	err := m.Deallocate(0, 3) // block 2 is free -> should fail entirely
	require.Error(t, err)
	require.Equal(t, before, buf)
}

func TestCountFreeAndLargestFreeRun(t *testing.T) {
	buf := make([]byte, 2) // 16 blocks
	m := New(buf, 16)

	for _, b := range []int{0, 1, 2, 8, 9} {
		require.NoError(t, m.SetBit(b, true))
	}
	// Free runs: [3..7] len 5, [10..15] len 6.
	require.Equal(t, 11, m.CountFree())
	require.Equal(t, 6, m.LargestFreeRun())
}

func TestAllocateThenDeallocateRoundTrip(t *testing.T) {
	buf := make([]byte, 4) // 32 blocks
	m := New(buf, 32)

	start, err := m.Allocate(10)
	require.NoError(t, err)
	require.Equal(t, 0, start)
	for b := 0; b < 10; b++ {
		require.True(t, m.GetBit(b))
	}

	require.NoError(t, m.Deallocate(start, 10))
	require.Equal(t, 32, m.CountFree())
}

package carray

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingAllocator[T any] struct {
	allocs int
	frees  int
	fail   bool
}

func (c *countingAllocator[T]) Alloc(n int) ([]T, error) {
	if c.fail {
		return nil, errors.New("out of memory")
	}
	c.allocs++
	return make([]T, n), nil
}

func (c *countingAllocator[T]) Free([]T) { c.frees++ }

type element struct {
	constructed bool
	destructed  *int
}

func TestOwnedConstructAndRelease(t *testing.T) {
	alloc := &countingAllocator[element]{}
	destructed := 0

	a, err := NewOwned(4, alloc, func(e *element) {
		e.constructed = true
		e.destructed = &destructed
	})
	require.NoError(t, err)
	require.Equal(t, 4, a.Len())
	require.True(t, a.Owns())
	for i := 0; i < a.Len(); i++ {
		assert.True(t, a.At(i).constructed)
	}

	a.Release(func(e *element) { *e.destructed++ })
	assert.Equal(t, 4, destructed)
	assert.Equal(t, 1, alloc.allocs)
	assert.Equal(t, 1, alloc.frees)
	assert.Equal(t, 0, a.Len())

	// a second release must not free again
	a.Release(nil)
	assert.Equal(t, 1, alloc.frees)
}

func TestOwnedAllocationFailure(t *testing.T) {
	_, err := NewOwned[int](3, &countingAllocator[int]{fail: true}, nil)
	require.Error(t, err)

	_, err = NewOwned[int](3, nil, nil)
	require.ErrorIs(t, err, ErrAllocatorNotProvided)
}

func TestOwnedAtOutOfRangePanics(t *testing.T) {
	a, err := NewOwned[int](2, Heap[int]{}, nil)
	require.NoError(t, err)
	require.Panics(t, func() { a.At(2) })
	require.Panics(t, func() { a.At(-1) })
}

func TestShallowCopyDoesNotOwn(t *testing.T) {
	alloc := &countingAllocator[int]{}
	src, err := NewOwned[int](3, alloc, nil)
	require.NoError(t, err)
	*src.At(1) = 42

	var dst Owned[int]
	ShallowCopy(&dst, src)
	assert.False(t, dst.Owns())
	assert.Equal(t, 42, *dst.At(1))

	// writes are visible through both views
	*dst.At(0) = 7
	assert.Equal(t, 7, *src.At(0))

	dst.Release(nil)
	assert.Equal(t, 0, alloc.frees)
	src.Release(nil)
	assert.Equal(t, 1, alloc.frees)
}

func TestDeepCopyIsIndependent(t *testing.T) {
	alloc := &countingAllocator[int]{}
	src := []int{1, 2, 3}
	dst, err := DeepCopy(src, alloc)
	require.NoError(t, err)
	require.Equal(t, src, dst.Slice())

	*dst.At(0) = 100
	assert.Equal(t, 1, src[0])

	dst.Release(nil)
	assert.Equal(t, 1, alloc.allocs)
	assert.Equal(t, 1, alloc.frees)
}

func TestUnstableRemove(t *testing.T) {
	tests := []struct {
		name  string
		in    []int
		index int
		want  []int
	}{
		{name: "first", in: []int{1, 2, 3, 4}, index: 0, want: []int{4, 2, 3}},
		{name: "middle", in: []int{1, 2, 3, 4}, index: 1, want: []int{1, 4, 3}},
		{name: "last", in: []int{1, 2, 3, 4}, index: 3, want: []int{1, 2, 3}},
		{name: "single", in: []int{1}, index: 0, want: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnstableRemove(tt.in, tt.index)
			assert.Equal(t, tt.want, got)
		})
	}

	require.Panics(t, func() { UnstableRemove([]int{1}, 1) })
}

func TestOwnedUnstableRemoveKeepsOwnership(t *testing.T) {
	alloc := &countingAllocator[int]{}
	a, err := DeepCopy([]int{5, 6, 7}, alloc)
	require.NoError(t, err)

	a.UnstableRemove(0)
	assert.Equal(t, []int{7, 6}, a.Slice())
	a.Truncate(1)
	assert.Equal(t, []int{7}, a.Slice())

	a.Release(nil)
	assert.Equal(t, 1, alloc.frees)
}

// Package carray provides the array ownership conventions used by the
// database.
//
// A plain slice is the non-owning view: it is passed by value and never frees
// anything. Owned layers allocation, per element construction and release on
// top of a view for authoring code that builds arrays before they are
// serialized. The loaded database has no owned arrays of its own; its single
// block is obtained from, and returned to, an Allocator[byte].
package carray

import "errors"

var ErrAllocatorNotProvided = errors.New("carray: an allocator is required")

// Allocator is the capability used to obtain and return element storage.
// Implementations see exactly one Free for every successful Alloc.
type Allocator[T any] interface {
	Alloc(n int) ([]T, error)
	Free(s []T)
}

// Heap allocates from the Go heap. Free is a no-op.
type Heap[T any] struct{}

func (Heap[T]) Alloc(n int) ([]T, error) {
	if n < 0 {
		return nil, errors.New("carray: negative allocation size")
	}
	return make([]T, n), nil
}

func (Heap[T]) Free([]T) {}

// Owned is an array that holds the lifetime of its elements.
//
// The zero value is an empty array that owns nothing. An Owned produced by
// ShallowCopy aliases another array and releasing it frees nothing.
type Owned[T any] struct {
	data  []T
	alloc Allocator[T]
}

// NewOwned allocates n elements with alloc and calls ctor on each, in order.
// ctor may be nil, in which case elements are left at their zero value.
func NewOwned[T any](n int, alloc Allocator[T], ctor func(*T)) (*Owned[T], error) {
	if alloc == nil {
		return nil, ErrAllocatorNotProvided
	}
	data, err := alloc.Alloc(n)
	if err != nil {
		return nil, err
	}
	if ctor != nil {
		for i := range data {
			ctor(&data[i])
		}
	}
	return &Owned[T]{data: data, alloc: alloc}, nil
}

// Len returns the number of elements.
func (a *Owned[T]) Len() int { return len(a.data) }

// At returns a pointer to element i. Out of range is a programming error.
func (a *Owned[T]) At(i int) *T {
	if i < 0 || i >= len(a.data) {
		panic("carray: index out of range")
	}
	return &a.data[i]
}

// Slice returns the non-owning view of the elements.
func (a *Owned[T]) Slice() []T { return a.data }

// Owns reports whether releasing a frees storage.
func (a *Owned[T]) Owns() bool { return a.alloc != nil }

// Release calls dtor on each element, frees the storage once and leaves the
// array empty. dtor may be nil. Releasing an alias or an already released array only
// drops the view.
func (a *Owned[T]) Release(dtor func(*T)) {
	if a.alloc != nil {
		if dtor != nil {
			for i := range a.data {
				dtor(&a.data[i])
			}
		}
		a.alloc.Free(a.data)
	}
	a.data = nil
	a.alloc = nil
}

// Truncate shortens the array to n elements without reallocating.
func (a *Owned[T]) Truncate(n int) {
	if n < 0 || n > len(a.data) {
		panic("carray: truncate out of range")
	}
	a.data = a.data[:n]
}

// ShallowCopy makes dst alias the elements of src. dst does not take
// ownership: src remains the only array whose Release frees the storage, and
// src must outlive every use of dst.
func ShallowCopy[T any](dst, src *Owned[T]) {
	dst.data = src.data
	dst.alloc = nil
}

// DeepCopy allocates a new owned array with alloc and copies src into it
// element by element.
func DeepCopy[T any](src []T, alloc Allocator[T]) (*Owned[T], error) {
	dst, err := NewOwned[T](len(src), alloc, nil)
	if err != nil {
		return nil, err
	}
	copy(dst.data, src)
	return dst, nil
}

// UnstableRemove removes element i in O(1) by moving the last element into
// its slot. The order of the remaining elements changes. The shortened slice
// shares storage with s.
func UnstableRemove[T any](s []T, i int) []T {
	if i < 0 || i >= len(s) {
		panic("carray: remove index out of range")
	}
	last := len(s) - 1
	s[i] = s[last]
	var zero T
	s[last] = zero
	return s[:last]
}

// UnstableRemove removes element i from a, see the package level function.
func (a *Owned[T]) UnstableRemove(i int) {
	a.data = UnstableRemove(a.data, i)
}

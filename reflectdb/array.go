package reflectdb

import "iter"

// Array is a read-only run of references sorted by the name hash of their
// targets. The zero Array is empty.
type Array[T view] struct {
	t table
}

func (a Array[T]) Len() int { return a.t.len() }

// At returns element i. Out of range is a programming error.
func (a Array[T]) At(i int) T {
	if i < 0 || i >= a.t.len() {
		panic("reflectdb: array index out of range")
	}
	return asView[T](ref{mem: a.t.mem, off: a.t.record(i)})
}

// Index returns the position of an element with the hash, or -1.
func (a Array[T]) Index(hash uint32) int {
	return a.t.find(hash)
}

// Find returns an element with the hash.
func (a Array[T]) Find(hash uint32) (T, bool) {
	i := a.t.find(hash)
	if i < 0 {
		var zero T
		return zero, false
	}
	return a.At(i), true
}

// Range returns the sub-array of every element with the hash, which is empty
// when there are none.
func (a Array[T]) Range(hash uint32) Array[T] {
	lo, hi := EqualRange(a.t.len(), a.t.hash, a.t.find(hash))
	t := a.t
	t.off += uint32(lo) * t.stride
	t.n = uint32(hi - lo)
	return Array[T]{t}
}

// All iterates the elements in hash order.
func (a Array[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < a.t.len(); i++ {
			if !yield(i, a.At(i)) {
				return
			}
		}
	}
}

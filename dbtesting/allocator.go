package dbtesting

import (
	"errors"
	"sync"
)

var ErrAllocFailed = errors.New("dbtesting: allocation refused")

// CountingAllocator is a byte allocator that records every Alloc and Free.
// Set Fail to refuse allocations.
type CountingAllocator struct {
	mu     sync.Mutex
	Fail   bool
	allocs int
	frees  int
	live   int
}

func (a *CountingAllocator) Alloc(n int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Fail {
		return nil, ErrAllocFailed
	}
	a.allocs++
	a.live++
	return make([]byte, n), nil
}

func (a *CountingAllocator) Free(b []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frees++
	a.live--
}

func (a *CountingAllocator) Allocs() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocs
}

func (a *CountingAllocator) Frees() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frees
}

// Live is the number of blocks allocated and not yet freed.
func (a *CountingAllocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.live
}

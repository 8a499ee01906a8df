package reflectdb

import (
	"github.com/veraison/go-cose"

	"github.com/forestrie/go-reflectdb/carray"
)

// Options configures loading. Implementations outside this package only
// see it through the With* helpers.
type Options struct {
	alloc carray.Allocator[byte]

	// the loader checks every hash searched array is sorted unless this is
	// set
	noSortCheck bool

	// bloom sections are used when present unless this is set
	noBloom bool

	// when sealed is set, the stream digest must match the seal and the
	// seal must verify with verifier
	sealed   []byte
	verifier cose.Verifier
}

type Option func(*Options)

// NewOptions applies opts over the defaults.
func NewOptions(opts ...Option) Options {
	options := Options{alloc: carray.Heap[byte]{}}
	for _, o := range opts {
		o(&options)
	}
	return options
}

// WithAllocator provides the allocator for the database block. The
// allocator sees exactly one Alloc per successful load and one Free when
// the database is closed or the load fails.
func WithAllocator(alloc carray.Allocator[byte]) Option {
	return func(opts *Options) {
		opts.alloc = alloc
	}
}

// WithoutSortCheck trusts the writer to have sorted every array. Lookups in
// an unsorted array then silently miss.
func WithoutSortCheck() Option {
	return func(opts *Options) {
		opts.noSortCheck = true
	}
}

// WithoutBloom ignores any bloom section, so every lookup binary searches.
func WithoutBloom() Option {
	return func(opts *Options) {
		opts.noBloom = true
	}
}

// WithSeal requires the stream to match sealed, a COSE Sign1 message made
// by package seal, and the seal to verify with verifier.
func WithSeal(sealed []byte, verifier cose.Verifier) Option {
	return func(opts *Options) {
		opts.sealed = sealed
		opts.verifier = verifier
	}
}

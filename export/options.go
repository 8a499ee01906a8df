package export

import (
	"github.com/google/uuid"
	"github.com/veraison/go-cose"
)

const (
	DefaultBloomBitsPerElement = 10
	DefaultBloomK              = 7
)

type Options struct {
	buildID uuid.UUID

	bloom               bool
	bloomBitsPerElement uint64
	bloomK              uint8

	snappy bool
	signer cose.Signer
}

type Option func(*Options)

// WithBuildID sets the build id written to the header. By default a random
// id is generated for every export.
func WithBuildID(id uuid.UUID) Option {
	return func(opts *Options) {
		opts.buildID = id
	}
}

// WithBloom adds a bloom section sized for the largest hash searched table.
// Zero arguments select the defaults.
func WithBloom(bitsPerElement uint64, k uint8) Option {
	return func(opts *Options) {
		opts.bloom = true
		opts.bloomBitsPerElement = bitsPerElement
		opts.bloomK = k
		if opts.bloomBitsPerElement == 0 {
			opts.bloomBitsPerElement = DefaultBloomBitsPerElement
		}
		if opts.bloomK == 0 {
			opts.bloomK = DefaultBloomK
		}
	}
}

// WithSnappy compresses the file bytes. The stream and its seal are
// unchanged; readers decompress with source.Snappy.
func WithSnappy() Option {
	return func(opts *Options) {
		opts.snappy = true
	}
}

// WithSigner seals the stream, see package seal.
func WithSigner(signer cose.Signer) Option {
	return func(opts *Options) {
		opts.signer = signer
	}
}

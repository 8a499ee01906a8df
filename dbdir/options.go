package dbdir

import (
	"github.com/veraison/go-cose"

	"github.com/forestrie/go-reflectdb/reflectdb"
)

const (
	DefaultExtension = ".rfdb"
	SealExtension    = ".seal"
)

type Options struct {
	extension string
	lister    DirLister
	opener    Opener
	dbOpts    []reflectdb.Option

	// when set, every database must have a seal file beside it
	verifier cose.Verifier
}

type Option func(*Options)

// WithExtension selects the files considered databases when scanning a
// directory.
func WithExtension(ext string) Option {
	return func(o *Options) {
		o.extension = ext
	}
}

func WithDirLister(lister DirLister) Option {
	return func(o *Options) {
		o.lister = lister
	}
}

// WithOpener replaces the default opener, which reads files with package
// source.
func WithOpener(opener Opener) Option {
	return func(o *Options) {
		o.opener = opener
	}
}

// WithDatabaseOptions are passed to every database the cache loads.
func WithDatabaseOptions(opts ...reflectdb.Option) Option {
	return func(o *Options) {
		o.dbOpts = append(o.dbOpts, opts...)
	}
}

// WithSealVerifier requires each database file to have a seal file, named
// by appending SealExtension, that verifies with verifier.
func WithSealVerifier(verifier cose.Verifier) Option {
	return func(o *Options) {
		o.verifier = verifier
	}
}

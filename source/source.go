// Package source opens database streams from the places they are kept.
//
// Every source returned here has a Read method and a Size method reporting
// the full stream length, which is what reflectdb.Database.Load needs.
package source

import (
	"bytes"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/golang/snappy"
)

// Bytes serves a stream already in memory.
func Bytes(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}

// File is an open stream file. Close it once loaded.
type File struct {
	*os.File
	size int64
}

func (f *File) Size() int64 { return f.size }

// Open opens the stream file at path.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &File{File: f, size: fi.Size()}, nil
}

// Mapped is a read only memory mapping of a stream file.
type Mapped struct {
	*bytes.Reader
	m mmap.MMap
}

// Mmap maps the file at path. The loader still copies the stream into its
// own block, so the mapping can be closed as soon as the load returns.
func Mmap(path string) (*Mapped, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	// zero length files can not be mapped
	if fi.Size() == 0 {
		return &Mapped{Reader: bytes.NewReader(nil)}, nil
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}
	return &Mapped{Reader: bytes.NewReader(m), m: m}, nil
}

func (m *Mapped) Close() error {
	if m.m == nil {
		return nil
	}
	err := m.m.Unmap()
	m.m = nil
	m.Reader = bytes.NewReader(nil)
	return err
}

// Snappy decompresses a stream written with export.WithSnappy.
func Snappy(r io.Reader) (*bytes.Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	decoded, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(decoded), nil
}

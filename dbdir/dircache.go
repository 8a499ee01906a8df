// Package dbdir keeps the reflection databases found in local directories.
package dbdir

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/forestrie/go-reflectdb/format"
	"github.com/forestrie/go-reflectdb/reflectdb"
	"github.com/forestrie/go-reflectdb/source"
)

var (
	ErrFileNoMagic       = errors.New("the file is not recognized as a reflection database")
	ErrFileBadHeader     = errors.New("a database file header was too short or badly formed")
	ErrDuplicateBuildIDs = errors.New("database files with the same build id found in a single directory")
	ErrDatabaseNotFound  = errors.New("a database file with the build id was not found")
	ErrSealNotFound      = errors.New("a seal file for the database was not found")
)

type DirLister interface {
	// ListFiles returns list of absolute paths
	// to files (not subdirectories) in a directory
	ListFiles(string) ([]string, error)
}

// File is an open database file.
type File interface {
	io.ReadCloser
	Size() int64
}

type Opener interface {
	Open(string) (File, error)
}

// FileOpener reads database files with ordinary file reads.
type FileOpener struct{}

func (FileOpener) Open(path string) (File, error) {
	f, err := source.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// MmapOpener maps database files into memory to read them.
type MmapOpener struct{}

func (MmapOpener) Open(path string) (File, error) {
	m, err := source.Mmap(path)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// SuffixLister lists the regular files in a directory whose names end with
// Suffix.
type SuffixLister struct {
	Suffix string
}

func (l SuffixLister) ListFiles(directory string) ([]string, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), l.Suffix) {
			continue
		}
		path, err := filepath.Abs(filepath.Join(directory, e.Name()))
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Entry is one database file.
type Entry struct {
	Path   string
	Header format.Header
	db     *reflectdb.Database
}

// Loaded reports whether the database has been read since the file was
// found.
func (e *Entry) Loaded() bool { return e.db != nil && e.db.IsLoaded() }

// DirEntry holds the results of scanning one directory. An entry created by
// Open holds only the files opened so far until the directory is scanned.
type DirEntry struct {
	Directory string
	ByID      map[uuid.UUID]*Entry
	scanned   bool
}

func NewDirEntry(directory string) *DirEntry {
	return &DirEntry{Directory: directory, ByID: make(map[uuid.UUID]*Entry)}
}

// IDs returns the build ids found in the directory, in a stable order.
func (d *DirEntry) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(d.ByID))
	for id := range d.ByID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Cache caches the results of scanning directories for database files, and
// the databases loaded from them. Databases are only read when first asked
// for. The implementation assumes single threaded access; it is not go
// routine safe. The databases it returns are safe for concurrent queries.
type Cache struct {
	log     logger.Logger
	opts    Options
	entries map[string]*DirEntry
}

func New(log logger.Logger, opts ...Option) *Cache {
	c := &Cache{
		log:     log,
		entries: make(map[string]*DirEntry),
		opts: Options{
			extension: DefaultExtension,
			opener:    FileOpener{},
		},
	}
	for _, o := range opts {
		o(&c.opts)
	}
	if c.opts.lister == nil {
		c.opts.lister = SuffixLister{Suffix: c.opts.extension}
	}
	return c
}

// GetEntry returns an existing entry and true or nil and false if the
// directory has not been scanned.
func (c *Cache) GetEntry(directory string) (*DirEntry, bool) {
	d, ok := c.entries[absPath(directory)]
	return d, ok
}

// DeleteEntry closes the databases loaded from a directory and forgets the
// scan.
func (c *Cache) DeleteEntry(directory string) {
	directory = absPath(directory)
	d, ok := c.entries[directory]
	if !ok {
		return
	}
	for _, e := range d.ByID {
		c.closeEntry(e)
	}
	delete(c.entries, directory)
}

// FindFiles scans directory and reads the header of every candidate file.
// Files without the database magic are skipped.
func (c *Cache) FindFiles(directory string) error {
	dirEntry := c.getDirEntry(directory)

	paths, err := c.opts.lister.ListFiles(dirEntry.Directory)
	if err != nil {
		return err
	}
	for _, path := range paths {
		_, err := c.readEntry(dirEntry, path)
		if err != nil && !errors.Is(err, ErrFileNoMagic) {
			return err
		}
	}
	dirEntry.scanned = true
	return nil
}

// ReadDirEntry returns the entry for directory, scanning it first if it has
// not been scanned yet.
func (c *Cache) ReadDirEntry(directory string) (*DirEntry, error) {
	directory = absPath(directory)
	dirEntry, ok := c.entries[directory]
	if ok && dirEntry.scanned {
		return dirEntry, nil
	}
	if err := c.FindFiles(directory); err != nil {
		return nil, err
	}
	return c.entries[directory], nil
}

// Get returns the database with the build id from directory, loading it if
// needed. A directory is scanned the first time it is used.
func (c *Cache) Get(directory string, id uuid.UUID) (*reflectdb.Database, error) {
	dirEntry, err := c.ReadDirEntry(directory)
	if err != nil {
		return nil, err
	}
	e, ok := dirEntry.ByID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrDatabaseNotFound, id, directory)
	}
	return c.load(e)
}

// Open returns the database in the file at path, adding it to the entry for
// its directory.
func (c *Cache) Open(path string) (*reflectdb.Database, error) {
	path = absPath(path)
	e, err := c.readEntry(c.getDirEntry(filepath.Dir(path)), path)
	if err != nil {
		return nil, err
	}
	return c.load(e)
}

// CloseAll closes every loaded database. The scans are kept, so databases
// are read again on their next use.
func (c *Cache) CloseAll() error {
	var errs []error
	for _, d := range c.entries {
		for _, e := range d.ByID {
			errs = append(errs, c.closeEntry(e))
		}
	}
	return errors.Join(errs...)
}

func (c *Cache) closeEntry(e *Entry) error {
	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	return err
}

func (c *Cache) getDirEntry(directory string) *DirEntry {
	directory = absPath(directory)
	d, ok := c.entries[directory]
	if !ok {
		d = NewDirEntry(directory)
		c.entries[directory] = d
	}
	return d
}

// readEntry reads the header of the file at path and records it in d. A
// path already recorded is not read again, however it is spelled.
func (c *Cache) readEntry(d *DirEntry, path string) (*Entry, error) {
	path = absPath(path)
	for _, e := range d.ByID {
		if e.Path == path {
			return e, nil
		}
	}
	h, err := c.ReadHeader(path)
	if err != nil {
		return nil, err
	}
	if other, ok := d.ByID[h.BuildID]; ok {
		return nil, fmt.Errorf("%w: %s and %s", ErrDuplicateBuildIDs, other.Path, path)
	}
	e := &Entry{Path: path, Header: h}
	d.ByID[h.BuildID] = e
	return e, nil
}

// ReadHeader reads and checks the stream header at the start of path.
func (c *Cache) ReadHeader(path string) (format.Header, error) {
	f, err := c.opts.opener.Open(path)
	if err != nil {
		return format.Header{}, err
	}
	defer f.Close()

	var buf [format.HeaderBytes]byte
	if _, err = io.ReadFull(f, buf[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return format.Header{}, fmt.Errorf("%w: %s", ErrFileNoMagic, path)
		}
		return format.Header{}, err
	}
	h, err := format.DecodeHeader(buf[:])
	if errors.Is(err, format.ErrBadMagic) {
		return format.Header{}, fmt.Errorf("%w: %s", ErrFileNoMagic, path)
	}
	if err != nil {
		return format.Header{}, fmt.Errorf("%w: %s: %w", ErrFileBadHeader, path, err)
	}
	return h, nil
}

// absPath is the key used for directories and files. Paths that cannot be
// made absolute are only cleaned.
func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

func (c *Cache) load(e *Entry) (*reflectdb.Database, error) {
	if e.Loaded() {
		return e.db, nil
	}
	opts := c.opts.dbOpts
	if c.opts.verifier != nil {
		sealed, err := os.ReadFile(e.Path + SealExtension)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrSealNotFound, e.Path)
			}
			return nil, err
		}
		opts = append(append([]reflectdb.Option{}, opts...), reflectdb.WithSeal(sealed, c.opts.verifier))
	}

	f, err := c.opts.opener.Open(e.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	db := reflectdb.New(c.log, opts...)
	if err = db.Load(f); err != nil {
		return nil, fmt.Errorf("%s: %w", e.Path, err)
	}
	e.db = db
	c.log.Infof("dbdir: loaded %s (%s)", e.Path, humanize.IBytes(uint64(db.Stats().BlockBytes)))
	return db, nil
}

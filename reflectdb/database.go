package reflectdb

import (
	"fmt"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/forestrie/go-reflectdb/bloom"
	"github.com/forestrie/go-reflectdb/format"
	"github.com/forestrie/go-reflectdb/names"
)

// noCopy is picked up by go vet's copylocks check. A copied Database would
// free its block twice.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Database is the query facade over one loaded block.
//
// Queries on a loaded database are safe for concurrent use. Load and Close
// must not run concurrently with anything else. Querying a database that is
// not loaded is a programming error and panics.
type Database struct {
	noCopy noCopy

	log    logger.Logger
	opts   Options
	mem    *DatabaseMem
	header format.Header
}

// New creates an empty, not loaded, database.
func New(log logger.Logger, opts ...Option) *Database {
	return &Database{
		log:  log,
		opts: NewOptions(opts...),
	}
}

// Load reads the database from f. On failure the database stays not loaded
// and nothing remains allocated.
func (db *Database) Load(f File) error {
	if db.IsLoaded() {
		return ErrAlreadyLoaded
	}
	mem, header, err := load(f, db.opts)
	if err != nil {
		return err
	}
	db.mem = mem
	db.header = header
	db.log.Debugf("reflectdb: loaded %s, %s in %d sections",
		header.BuildID, humanize.IBytes(uint64(mem.Len())), header.SectionCount)
	return nil
}

func (db *Database) IsLoaded() bool {
	return db.mem != nil && db.mem.live
}

// Close releases the block. Views obtained from the database must not be
// used afterwards. Closing a database that is not loaded does nothing.
func (db *Database) Close() error {
	if !db.IsLoaded() {
		return nil
	}
	db.mem.free()
	db.mem = nil
	db.header = format.Header{}
	return nil
}

func (db *Database) loaded() *DatabaseMem {
	if !db.IsLoaded() {
		panic("reflectdb: database not loaded")
	}
	return db.mem
}

// maybe consults the bloom section. Without one every hash may be present.
func (db *Database) maybe(filter uint8, hash uint32) bool {
	m := db.mem
	sp := m.sections[format.SectionBloom]
	if !sp.present {
		return true
	}
	ok, err := bloom.MaybeContainsV1(m.bytes()[sp.off:sp.end()], filter, hash)
	return ok || err != nil
}

// ID returns the build id recorded by the writer.
func (db *Database) ID() uuid.UUID {
	db.loaded()
	return db.header.BuildID
}

// GetName returns the name with the hash, or the zero Name.
func (db *Database) GetName(hash uint32) Name {
	m := db.loaded()
	if hash == 0 || !db.maybe(bloom.FilterNames, hash) {
		return Name{}
	}
	t := m.nameTable()
	i := t.find(hash)
	if i < 0 {
		return Name{}
	}
	return Name{Hash: hash, Text: m.text(m.u32(t.record(i) + format.OffNameRecordText))}
}

// GetNameText returns the name with the text, or the zero Name. The stored
// text is compared, so a different text with a colliding hash is not found.
func (db *Database) GetNameText(text string) Name {
	m := db.loaded()
	hash := names.Hash(text)
	if hash == 0 || !db.maybe(bloom.FilterNames, hash) {
		return Name{}
	}
	t := m.nameTable()
	lo, hi := EqualRange(t.len(), t.hash, t.find(hash))
	for i := lo; i < hi; i++ {
		if m.textEqual(m.u32(t.record(i)+format.OffNameRecordText), text) {
			return Name{Hash: hash, Text: text}
		}
	}
	return Name{}
}

// GetType finds a type, enum, class or template instance by name hash.
func (db *Database) GetType(hash uint32) (Type, bool) {
	m := db.loaded()
	if !db.maybe(bloom.FilterTypes, hash) {
		return Type{}, false
	}
	return Array[Type]{m.refTable(format.SectionTypeIndex)}.Find(hash)
}

func (db *Database) GetNamespace(hash uint32) (Namespace, bool) {
	m := db.loaded()
	if !db.maybe(bloom.FilterNamespaces, hash) {
		return Namespace{}, false
	}
	return Array[Namespace]{m.recordTable(format.SectionNamespaces)}.Find(hash)
}

// GetFunction finds a function by name hash. When the name is overloaded any
// one overload is returned; see Overloads.
func (db *Database) GetFunction(hash uint32) (Function, bool) {
	m := db.loaded()
	if !db.maybe(bloom.FilterFunctions, hash) {
		return Function{}, false
	}
	return Array[Function]{m.recordTable(format.SectionFunctions)}.Find(hash)
}

// Overloads returns every function sharing the name hash.
func (db *Database) Overloads(hash uint32) Array[Function] {
	m := db.loaded()
	if !db.maybe(bloom.FilterFunctions, hash) {
		return Array[Function]{}
	}
	return Array[Function]{m.recordTable(format.SectionFunctions)}.Range(hash)
}

// GlobalNamespace returns the root of the containment tree.
func (db *Database) GlobalNamespace() Namespace {
	m := db.loaded()
	return Namespace{ref{mem: m, off: m.global}}
}

// Types iterates the type index in hash order.
func (db *Database) Types() Array[Type] {
	return Array[Type]{db.loaded().refTable(format.SectionTypeIndex)}
}

// Namespaces iterates every namespace but the global one in hash order.
func (db *Database) Namespaces() Array[Namespace] {
	return Array[Namespace]{db.loaded().recordTable(format.SectionNamespaces)}
}

// Functions iterates every function and method in hash order.
func (db *Database) Functions() Array[Function] {
	return Array[Function]{db.loaded().recordTable(format.SectionFunctions)}
}

// Stats summarises a loaded database.
type Stats struct {
	BlockBytes    int
	Names         int
	Types         int
	Enums         int
	Classes       int
	Templates     int
	TemplateTypes int
	Functions     int
	Fields        int
	Namespaces    int
	Attributes    int
	Bloom         bool
}

func (s Stats) String() string {
	return fmt.Sprintf("%s: %d names, %d types, %d classes, %d enums, %d functions, %d fields, %d namespaces",
		humanize.IBytes(uint64(s.BlockBytes)), s.Names, s.Types, s.Classes, s.Enums, s.Functions, s.Fields, s.Namespaces)
}

func (db *Database) Stats() Stats {
	m := db.loaded()
	count := func(s format.Section) int { return int(m.sections[s].count) }
	return Stats{
		BlockBytes:    m.Len(),
		Names:         count(format.SectionNames),
		Types:         count(format.SectionTypes),
		Enums:         count(format.SectionEnums),
		Classes:       count(format.SectionClasses),
		Templates:     count(format.SectionTemplates),
		TemplateTypes: count(format.SectionTemplateTypes),
		Functions:     count(format.SectionFunctions),
		Fields:        count(format.SectionFields),
		Namespaces:    count(format.SectionNamespaces),
		Attributes: count(format.SectionFlagAttributes) + count(format.SectionIntAttributes) +
			count(format.SectionFloatAttributes) + count(format.SectionNameAttributes) +
			count(format.SectionTextAttributes),
		Bloom: m.sections[format.SectionBloom].present,
	}
}

package reflectdb

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"io"
	"math"

	"github.com/forestrie/go-reflectdb/bloom"
	"github.com/forestrie/go-reflectdb/cursor"
	"github.com/forestrie/go-reflectdb/format"
	"github.com/forestrie/go-reflectdb/seal"
)

// File is a byte source holding one database stream. Size must report the
// full stream length before anything is read.
type File interface {
	io.Reader
	Size() int64
}

// loader reads one stream into one block. It is discarded once the block is
// fixed up.
type loader struct {
	opts   Options
	mem    *DatabaseMem
	header format.Header

	// stream offset of each section payload, parallel to mem.sections
	streamOff [format.NumSections]uint32
	present   []format.Section
}

// load reads f into a new block. On error nothing is left allocated.
func load(f File, opts Options) (*DatabaseMem, format.Header, error) {
	if opts.alloc == nil {
		opts.alloc = NewOptions().alloc
	}
	l := &loader{opts: opts}

	var r io.Reader = f
	var digest hash.Hash
	if opts.sealed != nil {
		digest = sha256.New()
		r = io.TeeReader(f, digest)
	}

	if err := l.readHeader(r, f.Size()); err != nil {
		return nil, format.Header{}, err
	}

	block, err := opts.alloc.Alloc(int(l.header.BlockSize))
	if err != nil {
		return nil, format.Header{}, fmt.Errorf("%w: %w", ErrAllocation, err)
	}
	l.mem = &DatabaseMem{block: block, alloc: opts.alloc, live: true}
	if len(block) != int(l.header.BlockSize) {
		l.mem.free()
		return nil, format.Header{}, fmt.Errorf(
			"%w: allocator returned %d bytes for %d", ErrAllocation, len(block), l.header.BlockSize)
	}

	err = l.readSections(r)
	if err == nil && digest != nil {
		_, err = seal.VerifyDigest(opts.verifier, opts.sealed, l.header.StreamSize(), digest.Sum(nil))
		if err != nil {
			err = fmt.Errorf("%w: %w: %w", ErrStream, ErrSealMismatch, err)
		}
	}
	if err == nil {
		err = l.fixup()
	}
	if err != nil {
		l.mem.free()
		return nil, format.Header{}, err
	}
	return l.mem, l.header, nil
}

func (l *loader) readHeader(r io.Reader, size int64) error {
	var buf [format.HeaderBytes]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return readErr(err, "header")
	}
	h, err := format.DecodeHeader(buf[:])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStream, err)
	}
	want := h.StreamSize()
	if want > math.MaxUint32 {
		return streamErr(ErrSizeMismatch, "stream size %d exceeds the pointer range", want)
	}
	if size < 0 || uint64(size) < want {
		return streamErr(ErrTruncated, "have %d bytes, header declares %d", size, want)
	}
	if uint64(size) > want {
		return streamErr(ErrSizeMismatch, "have %d bytes, header declares %d", size, want)
	}
	l.header = h
	return nil
}

// readSections copies every payload into the block back to back, in stream
// order.
func (l *loader) readSections(r io.Reader) error {
	var buf [format.SectionHeaderBytes]byte
	block := l.mem.block
	pos := uint32(0)

	for i := uint32(0); i < l.header.SectionCount; i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return readErr(err, "section descriptor %d", i)
		}
		sh, err := format.ReadSectionHeader(cursor.Wrap(buf[:]))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStream, err)
		}
		if l.mem.sections[sh.Section].present {
			return streamErr(ErrDuplicateSection, "%s", sh.Section)
		}
		if uint64(sh.Count)*uint64(sh.Section.Stride()) != uint64(sh.ByteLen) {
			return streamErr(ErrSectionLength, "%s: %d elements in %d bytes", sh.Section, sh.Count, sh.ByteLen)
		}
		if uint64(pos)+uint64(sh.ByteLen) > uint64(len(block)) {
			return streamErr(ErrSizeMismatch, "%s overruns the block", sh.Section)
		}
		if _, err := io.ReadFull(r, block[pos:pos+sh.ByteLen]); err != nil {
			return readErr(err, "%s payload", sh.Section)
		}

		l.mem.sections[sh.Section] = span{present: true, off: pos, count: sh.Count, bytes: sh.ByteLen}
		l.streamOff[sh.Section] = format.HeaderBytes + (i+1)*format.SectionHeaderBytes + pos
		l.present = append(l.present, sh.Section)
		pos += sh.ByteLen
	}
	if pos != uint32(len(block)) {
		return streamErr(ErrSizeMismatch, "sections hold %d bytes, header declares %d", pos, len(block))
	}
	return nil
}

func readErr(err error, what string, args ...any) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return streamErr(ErrTruncated, what, args...)
	}
	return fmt.Errorf("%w: reading "+what+": %w", append(append([]any{ErrStream}, args...), err)...)
}

// fixup validates the block and rewrites every stream offset in it as a
// block offset.
func (l *loader) fixup() error {
	m := l.mem
	global := m.sections[format.SectionGlobal]
	if !global.present || global.count != 1 {
		return streamErr(ErrMissingSection, "exactly one global namespace is required")
	}
	m.global = global.off

	if err := l.checkRecordKinds(); err != nil {
		return err
	}
	// Pool entries first: array fixups below check the kind of each target.
	if err := l.fixRefs(format.SectionRefs, format.AnyPrimitive); err != nil {
		return err
	}
	if err := l.fixRefs(format.SectionTypeIndex, format.TypeFamily); err != nil {
		return err
	}
	for _, s := range l.present {
		if s.RecordKind() == KindNone {
			continue
		}
		if err := l.fixRecords(s); err != nil {
			return err
		}
	}
	if err := l.fixNames(); err != nil {
		return err
	}

	if !l.opts.noSortCheck {
		for _, s := range []format.Section{format.SectionTypeIndex, format.SectionNamespaces, format.SectionFunctions} {
			var t table
			if s == format.SectionTypeIndex {
				t = m.refTable(s)
			} else {
				t = m.recordTable(s)
			}
			if !t.sorted() {
				return streamErr(ErrUnsorted, "%s", s)
			}
		}
	}

	if bs := m.sections[format.SectionBloom]; bs.present {
		if l.opts.noBloom {
			m.sections[format.SectionBloom] = span{}
		} else if err := bloom.CheckRegionV1(m.block[bs.off:bs.end()]); err != nil {
			return fmt.Errorf("%w: %w: %w", ErrStream, ErrBadBloom, err)
		}
	}
	return nil
}

func (l *loader) checkRecordKinds() error {
	m := l.mem
	for _, s := range l.present {
		kind := s.RecordKind()
		if kind == KindNone {
			continue
		}
		t := m.recordTable(s)
		for i := 0; i < t.len(); i++ {
			if got := m.kindAt(t.record(i)); got != kind {
				return streamErr(ErrBadKind, "%s record %d has kind %s", s, i, got)
			}
		}
	}
	return nil
}

func (l *loader) fixRefs(s format.Section, targets format.KindSet) error {
	sp := l.mem.sections[s]
	for at := sp.off; at < sp.end(); at += format.RefBytes {
		p := l.mem.u32(at)
		if p == format.NullOffset {
			return streamErr(ErrBadOffset, "null entry in %s", s)
		}
		b, err := l.pointer(p, targets)
		if err != nil {
			return err
		}
		l.put(at, b)
	}
	return nil
}

func (l *loader) fixRecords(s format.Section) error {
	m := l.mem
	kind := s.RecordKind()
	layout := format.Layout(kind)
	t := m.recordTable(s)

	for i := 0; i < t.len(); i++ {
		rec := t.record(i)
		for _, f := range layout.Pointers {
			b, err := l.pointer(m.u32(rec+f.Off), f.Targets)
			if err != nil {
				return fmt.Errorf("%w (%s record %d)", err, s, i)
			}
			l.put(rec+f.Off, b)
		}
		for _, f := range layout.Blobs {
			b, err := l.text(m.u32(rec+f.Off), f.Blob)
			if err != nil {
				return fmt.Errorf("%w (%s record %d)", err, s, i)
			}
			l.put(rec+f.Off, b)
		}
		for _, f := range layout.Arrays {
			if err := l.fixArray(rec+f.Off, f.Targets); err != nil {
				return fmt.Errorf("%w (%s record %d)", err, s, i)
			}
		}
	}
	return nil
}

// fixArray rewrites an inline (count, pointer) pair. The pool entries have
// already been rewritten, so the targets can be checked in place.
func (l *loader) fixArray(at uint32, targets format.KindSet) error {
	m := l.mem
	count := m.u32(at + format.OffArrayCount)
	p := m.u32(at + format.OffArrayPointer)
	if count == 0 {
		l.put(at+format.OffArrayPointer, format.NullOffset)
		return nil
	}

	s, b, ok := l.translate(p)
	refs := m.sections[format.SectionRefs]
	if !ok || s != format.SectionRefs || (b-refs.off)%format.RefBytes != 0 ||
		uint64(b)+uint64(count)*format.RefBytes > uint64(refs.end()) {
		return streamErr(ErrBadOffset, "array at %d does not address a run of refs", p)
	}
	l.put(at+format.OffArrayPointer, b)

	t := table{mem: m, off: b, n: count, stride: format.RefBytes, hashOff: format.OffNameHash, refs: true}
	for i := 0; i < t.len(); i++ {
		if k := m.kindAt(t.record(i)); !targets.Has(k) {
			return streamErr(ErrBadKind, "array entry %d has kind %s", i, k)
		}
	}
	if !l.opts.noSortCheck && !t.sorted() {
		return streamErr(ErrUnsorted, "array at %d", p)
	}
	return nil
}

func (l *loader) fixNames() error {
	m := l.mem
	t := m.nameTable()
	for i := 0; i < t.len(); i++ {
		at := t.record(i) + format.OffNameRecordText
		b, err := l.text(m.u32(at), format.SectionNameText)
		if err != nil {
			return fmt.Errorf("%w (name %d)", err, i)
		}
		l.put(at, b)
	}
	if !l.opts.noSortCheck && !t.sorted() {
		return streamErr(ErrUnsorted, "%s", format.SectionNames)
	}
	return nil
}

// translate maps a stream offset to the section holding it and the
// matching block offset.
func (l *loader) translate(p uint32) (format.Section, uint32, bool) {
	for _, s := range l.present {
		start := l.streamOff[s]
		sp := l.mem.sections[s]
		if p >= start && p-start < sp.bytes {
			return s, sp.off + (p - start), true
		}
	}
	return format.SectionNone, 0, false
}

// pointer translates a record pointer, which must land on a record boundary
// of a section holding one of the target kinds.
func (l *loader) pointer(p uint32, targets format.KindSet) (uint32, error) {
	if p == format.NullOffset {
		return format.NullOffset, nil
	}
	s, b, ok := l.translate(p)
	kind := s.RecordKind()
	if !ok || kind == KindNone || (b-l.mem.sections[s].off)%s.Stride() != 0 {
		return 0, streamErr(ErrBadOffset, "pointer %d", p)
	}
	if !targets.Has(kind) {
		return 0, streamErr(ErrBadKind, "pointer %d addresses a %s", p, kind)
	}
	return b, nil
}

// text translates a pointer into blob, which must be NUL terminated before
// the end of the blob.
func (l *loader) text(p uint32, blob format.Section) (uint32, error) {
	if p == format.NullOffset {
		return format.NullOffset, nil
	}
	s, b, ok := l.translate(p)
	if !ok || s != blob {
		return 0, streamErr(ErrBadText, "pointer %d is not in %s", p, blob)
	}
	if bytes.IndexByte(l.mem.block[b:l.mem.sections[s].end()], 0) < 0 {
		return 0, streamErr(ErrBadText, "text at %d is not terminated", p)
	}
	return b, nil
}

func (l *loader) put(at uint32, v uint32) {
	binary.LittleEndian.PutUint32(l.mem.block[at:], v)
}

package export

import (
	"io"
	"math"
	"slices"

	"github.com/golang/snappy"
	"github.com/google/uuid"

	"github.com/forestrie/go-reflectdb/bloom"
	"github.com/forestrie/go-reflectdb/cursor"
	"github.com/forestrie/go-reflectdb/format"
	"github.com/forestrie/go-reflectdb/names"
	"github.com/forestrie/go-reflectdb/seal"
)

// Output is one exported database.
type Output struct {
	// Stream is the uncompressed stream; the seal covers exactly these bytes.
	Stream  []byte
	Seal    []byte
	BuildID uuid.UUID
	// Snappy is set when Bytes returns the compressed form.
	Snappy bool
}

// Bytes returns the file contents: the stream, snappy compressed if
// requested.
func (o *Output) Bytes() []byte {
	if o.Snappy {
		return snappy.Encode(nil, o.Stream)
	}
	return o.Stream
}

func (o *Output) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(o.Bytes())
	return int64(n), err
}

// Marshal exports g and returns the file contents.
func Marshal(g *Graph, opts ...Option) ([]byte, error) {
	out, err := Export(g, opts...)
	if err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Export checks g and writes it as a stream.
func Export(g *Graph, opts ...Option) (*Output, error) {
	var options Options
	for _, o := range opts {
		o(&options)
	}
	if options.buildID == uuid.Nil {
		options.buildID = uuid.New()
	}

	c := newCollector()
	defer c.release()
	root, err := c.collect(g)
	if err != nil {
		return nil, err
	}

	w := newWriter(c, root, options)
	if err = w.layout(); err != nil {
		return nil, err
	}
	stream, err := w.encode()
	if err != nil {
		return nil, err
	}

	out := &Output{Stream: stream, BuildID: options.buildID, Snappy: options.snappy}
	if options.signer != nil {
		if out.Seal, err = seal.Sign1(options.signer, stream, options.buildID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// writer lays the collected nodes out in sections and encodes them.
type writer struct {
	opts Options
	root *node

	records [format.NumSections][]*node
	start   [format.NumSections]uint32
	count   [format.NumSections]uint32
	bytes   [format.NumSections]uint32
	order   []format.Section

	nameText  []byte
	nameAt    map[string]uint32
	nameOrder []uint32
	texts     map[uint32]string

	textAttr   []byte
	textAttrAt map[string]uint32

	refs      []*node
	typeIndex []*node

	bloomElems uint64
	size       uint64
}

func newWriter(c *collector, root *node, opts Options) *writer {
	w := &writer{
		opts:       opts,
		root:       root,
		nameAt:     make(map[string]uint32),
		texts:      c.texts,
		textAttrAt: make(map[string]uint32),
	}
	for _, n := range c.order {
		s := format.SectionForKind(n.kind)
		if n == root {
			s = format.SectionGlobal
		}
		n.section = s
		w.records[s] = append(w.records[s], n)
		if format.TypeFamily.Has(n.kind) {
			w.typeIndex = append(w.typeIndex, n)
		}
	}
	return w
}

// layout assigns every section its stream offset, every record its offset
// and every array its run in the refs pool.
func (w *writer) layout() error {
	for s := range w.records {
		slices.SortStableFunc(w.records[s], byHash)
		for i, n := range w.records[s] {
			n.index = i
		}
	}
	slices.SortStableFunc(w.typeIndex, byHash)

	// name table and blob, in hash order
	for h := range w.texts {
		w.nameOrder = append(w.nameOrder, h)
	}
	slices.Sort(w.nameOrder)
	for _, h := range w.nameOrder {
		text := w.texts[h]
		w.nameAt[text] = uint32(len(w.nameText))
		w.nameText = append(append(w.nameText, text...), 0)
	}
	for _, n := range w.records[format.SectionTextAttributes] {
		v := n.src.(*TextAttribute).Value
		if _, ok := w.textAttrAt[v]; !ok {
			w.textAttrAt[v] = uint32(len(w.textAttr))
			w.textAttr = append(append(w.textAttr, v...), 0)
		}
	}

	for s := format.Section(1); s < format.NumSections; s++ {
		if kind := s.RecordKind(); kind != format.KindNone {
			w.count[s] = uint32(len(w.records[s]))
		}
	}
	w.count[format.SectionNameText] = uint32(len(w.nameText))
	w.count[format.SectionTextAttr] = uint32(len(w.textAttr))
	w.count[format.SectionNames] = uint32(len(w.nameOrder))
	w.count[format.SectionTypeIndex] = uint32(len(w.typeIndex))

	var pool uint32
	for _, n := range w.allRecords() {
		for _, a := range n.arrays {
			pool += uint32(a.Len())
		}
	}
	w.count[format.SectionRefs] = pool

	if w.opts.bloom {
		w.bloomElems = uint64(max(w.count[format.SectionNames], w.count[format.SectionTypeIndex],
			w.count[format.SectionNamespaces], w.count[format.SectionFunctions], 1))
		_, region, err := bloom.SizeV1(w.bloomElems, w.opts.bloomBitsPerElement)
		if err != nil {
			return err
		}
		if region > math.MaxUint32 {
			return ErrTooLarge
		}
		w.count[format.SectionBloom] = uint32(region)
	}

	pos := uint64(format.HeaderBytes)
	for s := format.Section(1); s < format.NumSections; s++ {
		if w.count[s] == 0 && s != format.SectionGlobal {
			continue
		}
		n := uint64(w.count[s]) * uint64(s.Stride())
		pos += format.SectionHeaderBytes
		if pos+n > math.MaxUint32 {
			return ErrTooLarge
		}
		w.order = append(w.order, s)
		w.start[s] = uint32(pos)
		w.bytes[s] = uint32(n)
		pos += n
	}
	w.size = pos

	for _, n := range w.allRecords() {
		n.off = w.start[n.section] + uint32(n.index)*n.section.Stride()
		n.text = w.nameOffset(n.name)
	}

	// runs are handed out in record order so the pool reads like the records
	next := w.start[format.SectionRefs]
	for _, n := range w.allRecords() {
		n.runs = n.runs[:0]
		for _, a := range n.arrays {
			if a.Len() == 0 {
				n.runs = append(n.runs, format.NullOffset)
				continue
			}
			n.runs = append(n.runs, next)
			w.refs = append(w.refs, a.Slice()...)
			next += uint32(a.Len()) * format.RefBytes
		}
	}
	return nil
}

func (w *writer) allRecords() []*node {
	var all []*node
	for _, s := range w.recordSections() {
		all = append(all, w.records[s]...)
	}
	return all
}

func (w *writer) recordSections() []format.Section {
	var out []format.Section
	for s := format.Section(1); s < format.NumSections; s++ {
		if s.RecordKind() != format.KindNone {
			out = append(out, s)
		}
	}
	return out
}

func (w *writer) nameOffset(text string) uint32 {
	if text == "" {
		return format.NullOffset
	}
	return w.start[format.SectionNameText] + w.nameAt[text]
}

func (w *writer) encode() ([]byte, error) {
	c := cursor.New(int(w.size))
	var blockSize uint32
	for _, s := range w.order {
		blockSize += w.bytes[s]
	}
	hdr := make([]byte, format.HeaderBytes)
	if err := format.EncodeHeader(hdr, format.Header{
		Version:      format.VersionV1,
		SectionCount: uint32(len(w.order)),
		BlockSize:    blockSize,
		BuildID:      w.opts.buildID,
	}); err != nil {
		return nil, err
	}
	if err := c.Write(hdr); err != nil {
		return nil, err
	}

	for _, s := range w.order {
		err := format.WriteSectionHeader(c, format.SectionHeader{Section: s, Count: w.count[s], ByteLen: w.bytes[s]})
		if err != nil {
			return nil, err
		}
		if err = w.encodeSection(c, s); err != nil {
			return nil, err
		}
	}
	return c.Bytes(), nil
}

func (w *writer) encodeSection(c *cursor.Cursor, s format.Section) error {
	switch s {
	case format.SectionNameText:
		return c.Write(w.nameText)
	case format.SectionTextAttr:
		return c.Write(w.textAttr)
	case format.SectionNames:
		for _, h := range w.nameOrder {
			if err := writeU32s(c, h, w.nameOffset(w.texts[h])); err != nil {
				return err
			}
		}
		return nil
	case format.SectionRefs:
		return writeRefs(c, w.refs)
	case format.SectionTypeIndex:
		return writeRefs(c, w.typeIndex)
	case format.SectionBloom:
		return w.encodeBloom(c)
	}
	for _, n := range w.records[s] {
		if err := w.encodeRecord(c, n); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) encodeBloom(c *cursor.Cursor) error {
	start := c.Position()
	if err := c.WriteZeros(int(w.bytes[format.SectionBloom])); err != nil {
		return err
	}
	region := c.Bytes()[start : start+int(w.bytes[format.SectionBloom])]
	err := bloom.InitV1(region, w.bloomElems, w.opts.bloomBitsPerElement, w.opts.bloomK)
	if err != nil {
		return err
	}
	insert := func(filter uint8, hashes ...uint32) error {
		for _, h := range hashes {
			if err := bloom.InsertV1(region, filter, h); err != nil {
				return err
			}
		}
		return nil
	}
	if err = insert(bloom.FilterNames, w.nameOrder...); err != nil {
		return err
	}
	for _, set := range []struct {
		filter uint8
		nodes  []*node
	}{
		{bloom.FilterTypes, w.typeIndex},
		{bloom.FilterNamespaces, w.records[format.SectionNamespaces]},
		{bloom.FilterFunctions, w.records[format.SectionFunctions]},
	} {
		for _, n := range set.nodes {
			if err = insert(set.filter, n.hash); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *writer) encodeRecord(c *cursor.Cursor, n *node) error {
	parent := format.NullOffset
	if n.parent != nil {
		parent = n.parent.off
	}
	if err := writeU32s(c, uint32(n.kind), n.hash, n.text, parent); err != nil {
		return err
	}

	switch v := n.src.(type) {
	case *Type:
		return c.WriteU32(v.Size)
	case *EnumConstant:
		return c.WriteI32(v.Value)
	case *Enum:
		return w.writeTail(c, n, []uint32{v.Size}, n.flags)
	case *Field:
		if err := writeU32s(c, offsetOf(n.pointers[0])); err != nil {
			return err
		}
		var isConst uint8
		if v.Qualifier.IsConst {
			isConst = 1
		}
		if err := c.Write([]byte{uint8(v.Qualifier.Op), isConst, 0, 0}); err != nil {
			return err
		}
		return w.writeTail(c, n, []uint32{uint32(v.Offset), n.parentUID}, n.flags)
	case *Function:
		return w.writeTail(c, n, []uint32{v.Address, v.UniqueID, offsetOf(n.pointers[0])}, n.flags)
	case *TemplateType:
		if err := c.WriteU32(v.Size); err != nil {
			return err
		}
		for _, p := range n.pointers {
			if err := c.WriteU32(offsetOf(p)); err != nil {
				return err
			}
		}
		for _, isPtr := range v.Pointers {
			var b uint8
			if isPtr {
				b = 1
			}
			if err := c.WriteU8(b); err != nil {
				return err
			}
		}
		return nil
	case *Template:
		return w.writeArrays(c, n)
	case *Class:
		head := []uint32{v.Size}
		for _, p := range n.pointers {
			head = append(head, offsetOf(p))
		}
		return w.writeTail(c, n, head, n.flags)
	case *Namespace:
		return w.writeArrays(c, n)
	case *FlagAttribute:
		return nil
	case *IntAttribute:
		return c.WriteI32(v.Value)
	case *FloatAttribute:
		return c.WriteF32(v.Value)
	case *NameAttribute:
		return writeU32s(c, names.Hash(v.Value), w.nameOffset(v.Value))
	case *TextAttribute:
		return c.WriteU32(w.start[format.SectionTextAttr] + w.textAttrAt[v.Value])
	}
	return nil
}

// writeTail writes the scalar head, the arrays of n and the trailing flags.
func (w *writer) writeTail(c *cursor.Cursor, n *node, head []uint32, flags uint32) error {
	if err := writeU32s(c, head...); err != nil {
		return err
	}
	if err := w.writeArrays(c, n); err != nil {
		return err
	}
	return c.WriteU32(flags)
}

func (w *writer) writeArrays(c *cursor.Cursor, n *node) error {
	for i, a := range n.arrays {
		if err := writeU32s(c, uint32(a.Len()), n.runs[i]); err != nil {
			return err
		}
	}
	return nil
}

func writeRefs(c *cursor.Cursor, nodes []*node) error {
	for _, n := range nodes {
		if err := c.WriteU32(n.off); err != nil {
			return err
		}
	}
	return nil
}

func writeU32s(c *cursor.Cursor, values ...uint32) error {
	for _, v := range values {
		if err := c.WriteU32(v); err != nil {
			return err
		}
	}
	return nil
}

func offsetOf(n *node) uint32 {
	if n == nil {
		return format.NullOffset
	}
	return n.off
}

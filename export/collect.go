package export

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/forestrie/go-reflectdb/carray"
	"github.com/forestrie/go-reflectdb/format"
	"github.com/forestrie/go-reflectdb/names"
)

// node is the exporter's record for one authoring node.
type node struct {
	src    Node
	kind   format.Kind
	name   string
	hash   uint32
	parent *node

	// reference arrays, in format.Layout order, each sorted by hash
	arrays []*carray.Owned[*node]

	// resolved cross references, in format.Layout pointer order after the
	// parent
	pointers []*node

	flags     uint32
	parentUID uint32

	// assigned by the layout pass
	section format.Section
	index   int
	off     uint32
	text    uint32
	runs    []uint32
}

// collector walks the containment tree once, then resolves cross references
// against the set of nodes it found.
type collector struct {
	nodes map[Node]*node
	order []*node
	alloc carray.Allocator[*node]

	// name text by hash
	texts map[uint32]string
}

func newCollector() *collector {
	return &collector{
		nodes: make(map[Node]*node),
		alloc: carray.Heap[*node]{},
		texts: make(map[uint32]string),
	}
}

// release frees every array built during collection.
func (c *collector) release() {
	for _, n := range c.order {
		for _, a := range n.arrays {
			a.Release(nil)
		}
		n.arrays = nil
	}
}

func (c *collector) collect(g *Graph) (*node, error) {
	if g == nil || g.Global == nil {
		return nil, ErrNoGlobal
	}
	root, err := c.visit(g.Global, nil)
	if err != nil {
		return nil, err
	}
	for _, n := range c.order {
		if err := c.resolve(n); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func (c *collector) visit(src Node, parent *node) (*node, error) {
	if isNil(src) {
		return nil, fmt.Errorf("%w: under %q", ErrNilNode, parent.name)
	}
	if _, ok := c.nodes[src]; ok {
		return nil, fmt.Errorf("%w: %s %q", ErrNodeShared, src.kind(), src.nodeName())
	}
	n := &node{src: src, kind: src.kind(), name: src.nodeName(), parent: parent}
	if err := c.addName(n.name); err != nil {
		return nil, err
	}
	n.hash = names.Hash(n.name)
	c.nodes[src] = n
	c.order = append(c.order, n)

	var err error
	switch v := src.(type) {
	case *Namespace:
		err = c.arrays(n,
			children(v.Namespaces), children(v.Types), children(v.Enums),
			children(v.Classes), children(v.Functions), children(v.Templates))
	case *Enum:
		n.flags = flagBits(v.Attributes)
		err = c.arrays(n, children(v.Constants), children(v.Attributes))
	case *Field:
		n.flags = flagBits(v.Attributes)
		n.parentUID = v.ParentUniqueID
		err = c.arrays(n, children(v.Attributes))
	case *Function:
		n.flags = flagBits(v.Attributes)
		if v.Return != nil {
			var ret *node
			if ret, err = c.visit(v.Return, n); err == nil && ret.parentUID == 0 {
				ret.parentUID = v.UniqueID
			}
		}
		if err == nil {
			err = c.arrays(n, children(v.Parameters), children(v.Attributes))
		}
		if err == nil && v.UniqueID != 0 {
			for _, p := range n.arrays[0].Slice() {
				if p.parentUID == 0 {
					p.parentUID = v.UniqueID
				}
			}
		}
	case *Template:
		err = c.arrays(n, children(v.Instances))
	case *Class:
		n.flags = flagBits(v.Attributes)
		err = c.arrays(n,
			children(v.Enums), children(v.Classes), children(v.Methods),
			children(v.Fields), children(v.Attributes), children(v.Templates))
	case *NameAttribute:
		err = c.addName(v.Value)
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

// arrays visits each list of children and stores it, sorted by hash, as the
// next reference arrays of n.
func (c *collector) arrays(n *node, lists ...[]Node) error {
	for _, list := range lists {
		a, err := carray.NewOwned(len(list), c.alloc, nil)
		if err != nil {
			return err
		}
		n.arrays = append(n.arrays, a)
		for i, src := range list {
			child, err := c.visit(src, n)
			if err != nil {
				return err
			}
			*a.At(i) = child
		}
		slices.SortStableFunc(a.Slice(), byHash)
	}
	return nil
}

func (c *collector) resolve(n *node) error {
	var refs []Node
	switch v := n.src.(type) {
	case *Field:
		refs = []Node{v.Type}
	case *Function:
		refs = []Node{v.Return}
	case *TemplateType:
		for i, p := range v.Parameters {
			if i > 0 && isNil(v.Parameters[i-1]) && !isNil(p) {
				return fmt.Errorf("%w: %q", ErrTooManyArgs, v.Name)
			}
			refs = append(refs, p)
		}
	case *Class:
		refs = []Node{v.Base, v.Constructor, v.Destructor}
	}
	for _, r := range refs {
		if isNil(r) {
			n.pointers = append(n.pointers, nil)
			continue
		}
		target, ok := c.nodes[r]
		if !ok {
			return fmt.Errorf("%w: %s %q refers to %s %q", ErrDanglingReference, n.kind, n.name, r.kind(), r.nodeName())
		}
		n.pointers = append(n.pointers, target)
	}
	return nil
}

func (c *collector) addName(text string) error {
	if text == "" {
		return nil
	}
	h := names.Hash(text)
	if have, ok := c.texts[h]; ok && have != text {
		return fmt.Errorf("%w: %q and %q", ErrHashCollision, have, text)
	}
	c.texts[h] = text
	return nil
}

func byHash(a, b *node) int {
	return cmp.Compare(a.hash, b.hash)
}

func children[T Node](list []T) []Node {
	out := make([]Node, len(list))
	for i, v := range list {
		out[i] = v
	}
	return out
}

func flagBits(attrs []Attribute) uint32 {
	var flags uint32
	for _, a := range attrs {
		if f, ok := a.(*FlagAttribute); ok && f != nil {
			flags |= format.FlagBit(f.Name)
		}
	}
	return flags
}

// isNil also catches typed nil pointers held in a Node.
func isNil(n Node) bool {
	switch v := n.(type) {
	case nil:
		return true
	case *Namespace:
		return v == nil
	case *Type:
		return v == nil
	case *EnumConstant:
		return v == nil
	case *Enum:
		return v == nil
	case *Field:
		return v == nil
	case *Function:
		return v == nil
	case *TemplateType:
		return v == nil
	case *Template:
		return v == nil
	case *Class:
		return v == nil
	case *FlagAttribute:
		return v == nil
	case *IntAttribute:
		return v == nil
	case *FloatAttribute:
		return v == nil
	case *NameAttribute:
		return v == nil
	case *TextAttribute:
		return v == nil
	}
	return false
}

// Package export builds database streams from an authoring graph.
//
// A Graph is an ordinary pointer graph: containment is expressed by the
// slices of each node, cross references by pointers (a field's type, a
// class's base class and so on). Export checks the graph, derives every
// parent from containment, sorts every array by name hash and writes the
// stream that package reflectdb loads.
package export

import (
	"github.com/forestrie/go-reflectdb/carray"
	"github.com/forestrie/go-reflectdb/format"
)

// Node is implemented by every pointer type of the authoring graph.
type Node interface {
	kind() format.Kind
	nodeName() string
}

// TypeRef is a node usable as a type: *Type, *Enum, *Class or
// *TemplateType.
type TypeRef interface {
	Node
	typeSize() uint32
}

// Attribute is a node of the attribute family.
type Attribute interface {
	Node
	attribute()
}

// Graph is the authoring form of a database. Global is the unnamed root
// namespace.
type Graph struct {
	Global *Namespace
}

func NewGraph() *Graph {
	return &Graph{Global: &Namespace{}}
}

type Namespace struct {
	Name       string
	Namespaces []*Namespace
	Types      []*Type
	Enums      []*Enum
	Classes    []*Class
	Functions  []*Function
	Templates  []*Template
}

// Type is a type with no further structure, such as a builtin.
type Type struct {
	Name string
	Size uint32
}

type EnumConstant struct {
	Name  string
	Value int32
}

type Enum struct {
	Name       string
	Size       uint32
	Constants  []*EnumConstant
	Attributes []Attribute
}

// Field is a data member, parameter or return value.
type Field struct {
	Name      string
	Type      TypeRef
	Qualifier format.Qualifier
	// Offset is the byte offset in a class, or the parameter index in a
	// function. Return values conventionally use -1.
	Offset int32
	// ParentUniqueID is filled from the owning function when zero.
	ParentUniqueID uint32
	Attributes     []Attribute
}

type Function struct {
	Name       string
	Address    uint32
	UniqueID   uint32
	Return     *Field
	Parameters []*Field
	Attributes []Attribute
}

// TemplateType is one instance of a template, with up to
// format.MaxTemplateArgs type arguments.
type TemplateType struct {
	Name       string
	Size       uint32
	Parameters [format.MaxTemplateArgs]TypeRef
	Pointers   [format.MaxTemplateArgs]bool
}

type Template struct {
	Name      string
	Instances []*TemplateType
}

// Class is a class or struct. Constructor and Destructor must also be listed
// in Methods.
type Class struct {
	Name        string
	Size        uint32
	Base        *Class
	Constructor *Function
	Destructor  *Function
	Enums       []*Enum
	Classes     []*Class
	Methods     []*Function
	Fields      []*Field
	Templates   []*Template
	Attributes  []Attribute
}

type FlagAttribute struct{ Name string }

type IntAttribute struct {
	Name  string
	Value int32
}

type FloatAttribute struct {
	Name  string
	Value float32
}

// NameAttribute refers to another name; its value joins the name table.
type NameAttribute struct {
	Name  string
	Value string
}

type TextAttribute struct {
	Name  string
	Value string
}

func (n *Namespace) kind() format.Kind      { return format.KindNamespace }
func (n *Type) kind() format.Kind           { return format.KindType }
func (n *EnumConstant) kind() format.Kind   { return format.KindEnumConstant }
func (n *Enum) kind() format.Kind           { return format.KindEnum }
func (n *Field) kind() format.Kind          { return format.KindField }
func (n *Function) kind() format.Kind       { return format.KindFunction }
func (n *TemplateType) kind() format.Kind   { return format.KindTemplateType }
func (n *Template) kind() format.Kind       { return format.KindTemplate }
func (n *Class) kind() format.Kind          { return format.KindClass }
func (n *FlagAttribute) kind() format.Kind  { return format.KindFlagAttribute }
func (n *IntAttribute) kind() format.Kind   { return format.KindIntAttribute }
func (n *FloatAttribute) kind() format.Kind { return format.KindFloatAttribute }
func (n *NameAttribute) kind() format.Kind  { return format.KindNameAttribute }
func (n *TextAttribute) kind() format.Kind  { return format.KindTextAttribute }

func (n *Namespace) nodeName() string      { return n.Name }
func (n *Type) nodeName() string           { return n.Name }
func (n *EnumConstant) nodeName() string   { return n.Name }
func (n *Enum) nodeName() string           { return n.Name }
func (n *Field) nodeName() string          { return n.Name }
func (n *Function) nodeName() string       { return n.Name }
func (n *TemplateType) nodeName() string   { return n.Name }
func (n *Template) nodeName() string       { return n.Name }
func (n *Class) nodeName() string          { return n.Name }
func (n *FlagAttribute) nodeName() string  { return n.Name }
func (n *IntAttribute) nodeName() string   { return n.Name }
func (n *FloatAttribute) nodeName() string { return n.Name }
func (n *NameAttribute) nodeName() string  { return n.Name }
func (n *TextAttribute) nodeName() string  { return n.Name }

func (n *Type) typeSize() uint32         { return n.Size }
func (n *Enum) typeSize() uint32         { return n.Size }
func (n *Class) typeSize() uint32        { return n.Size }
func (n *TemplateType) typeSize() uint32 { return n.Size }

func (*FlagAttribute) attribute()  {}
func (*IntAttribute) attribute()   {}
func (*FloatAttribute) attribute() {}
func (*NameAttribute) attribute()  {}
func (*TextAttribute) attribute()  {}

// Remove detaches n from whichever container holds it. The order of the
// container's remaining children changes. It reports whether n was found.
//
// References to n from elsewhere in the graph are left in place and will
// fail Export as dangling.
func (g *Graph) Remove(n Node) bool {
	if g.Global == nil || n == nil {
		return false
	}
	return removeFromNamespace(g.Global, n)
}

func removeFromNamespace(ns *Namespace, n Node) bool {
	if removeNode(&ns.Namespaces, n) || removeNode(&ns.Types, n) || removeNode(&ns.Enums, n) ||
		removeNode(&ns.Classes, n) || removeNode(&ns.Functions, n) || removeNode(&ns.Templates, n) {
		return true
	}
	for _, child := range ns.Namespaces {
		if removeFromNamespace(child, n) {
			return true
		}
	}
	for _, c := range ns.Classes {
		if removeFromClass(c, n) {
			return true
		}
	}
	for _, e := range ns.Enums {
		if removeFromEnum(e, n) {
			return true
		}
	}
	for _, f := range ns.Functions {
		if removeFromFunction(f, n) {
			return true
		}
	}
	for _, t := range ns.Templates {
		if removeNode(&t.Instances, n) {
			return true
		}
	}
	return false
}

func removeFromClass(c *Class, n Node) bool {
	if removeNode(&c.Enums, n) || removeNode(&c.Classes, n) || removeNode(&c.Methods, n) ||
		removeNode(&c.Fields, n) || removeNode(&c.Templates, n) || removeNode(&c.Attributes, n) {
		return true
	}
	for _, child := range c.Classes {
		if removeFromClass(child, n) {
			return true
		}
	}
	for _, e := range c.Enums {
		if removeFromEnum(e, n) {
			return true
		}
	}
	for _, f := range c.Methods {
		if removeFromFunction(f, n) {
			return true
		}
	}
	for _, f := range c.Fields {
		if removeNode(&f.Attributes, n) {
			return true
		}
	}
	for _, t := range c.Templates {
		if removeNode(&t.Instances, n) {
			return true
		}
	}
	return false
}

func removeFromEnum(e *Enum, n Node) bool {
	return removeNode(&e.Constants, n) || removeNode(&e.Attributes, n)
}

func removeFromFunction(f *Function, n Node) bool {
	if f.Return != nil && Node(f.Return) == n {
		f.Return = nil
		return true
	}
	if removeNode(&f.Parameters, n) || removeNode(&f.Attributes, n) {
		return true
	}
	for _, p := range f.Parameters {
		if removeNode(&p.Attributes, n) {
			return true
		}
	}
	if f.Return != nil {
		return removeNode(&f.Return.Attributes, n)
	}
	return false
}

func removeNode[T Node](s *[]T, n Node) bool {
	for i, v := range *s {
		if Node(v) == n {
			*s = carray.UnstableRemove(*s, i)
			return true
		}
	}
	return false
}

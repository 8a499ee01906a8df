package reflectdb

import (
	"fmt"
	"math"

	"github.com/forestrie/go-reflectdb/format"
)

// ref addresses one record in a loaded block. Every view is a named
// struct{ ref }, which lets Array convert between them without allocating.
type ref struct {
	mem *DatabaseMem
	off uint32
}

// view is satisfied by every record view in this package.
type view interface {
	~struct{ ref }
}

func asView[T view](r ref) T {
	return T(struct{ ref }{r})
}

func refOf[T view](v T) ref {
	return struct{ ref }(v).ref
}

// Kind returns the concrete kind of the record.
func (r ref) Kind() Kind {
	return r.mem.kindAt(r.off)
}

// Hash returns the name hash of the record.
func (r ref) Hash() uint32 {
	return r.mem.hashAt(r.off)
}

// Name returns the name of the record with its text copied out of the block.
func (r ref) Name() Name {
	return Name{
		Hash: r.mem.hashAt(r.off),
		Text: r.mem.text(r.mem.u32(r.off + format.OffNameText)),
	}
}

// Parent returns the primitive that contains this one. Only the global
// namespace has no parent.
func (r ref) Parent() (Primitive, bool) {
	p, ok := r.pointer(format.OffParent)
	return Primitive{p}, ok
}

// Primitive returns the untyped view of the record.
func (r ref) Primitive() Primitive {
	return Primitive{r}
}

// Same reports whether two views address the same record of the same
// database.
func (r ref) Same(other Primitive) bool {
	return r.mem == other.mem && r.off == other.off
}

func (r ref) pointer(field uint32) (ref, bool) {
	off := r.mem.u32(r.off + field)
	if off == format.NullOffset {
		return ref{}, false
	}
	return ref{mem: r.mem, off: off}, true
}

func (r ref) array(field uint32) table {
	return table{
		mem:     r.mem,
		off:     r.mem.u32(r.off + field + format.OffArrayPointer),
		n:       r.mem.u32(r.off + field + format.OffArrayCount),
		stride:  format.RefBytes,
		hashOff: format.OffNameHash,
		refs:    true,
	}
}

func (r ref) must(kinds format.KindSet, want string) {
	if k := r.Kind(); !kinds.Has(k) {
		panic(fmt.Sprintf("reflectdb: %s is not %s", k, want))
	}
}

// Primitive is a record of any kind.
type Primitive struct{ ref }

func (p Primitive) AsType() Type {
	p.must(format.TypeFamily, "a type")
	return Type(p)
}

func (p Primitive) AsEnumConstant() EnumConstant {
	p.must(format.Kinds(KindEnumConstant), "an enum constant")
	return EnumConstant(p)
}

func (p Primitive) AsEnum() Enum {
	p.must(format.Kinds(KindEnum), "an enum")
	return Enum(p)
}

func (p Primitive) AsField() Field {
	p.must(format.Kinds(KindField), "a field")
	return Field(p)
}

func (p Primitive) AsFunction() Function {
	p.must(format.Kinds(KindFunction), "a function")
	return Function(p)
}

func (p Primitive) AsTemplateType() TemplateType {
	p.must(format.Kinds(KindTemplateType), "a template type")
	return TemplateType(p)
}

func (p Primitive) AsTemplate() Template {
	p.must(format.Kinds(KindTemplate), "a template")
	return Template(p)
}

func (p Primitive) AsClass() Class {
	p.must(format.Kinds(KindClass), "a class")
	return Class(p)
}

func (p Primitive) AsNamespace() Namespace {
	p.must(format.Kinds(KindNamespace), "a namespace")
	return Namespace(p)
}

func (p Primitive) AsAttribute() Attribute {
	p.must(format.AttributeFamily, "an attribute")
	return Attribute(p)
}

// Type is any member of the type family: a plain type, an enum, a class or
// a template instance.
type Type struct{ ref }

// Size is the size in bytes of an instance of the type.
func (t Type) Size() uint32 { return t.mem.u32(t.off + format.OffTypeSize) }

func (t Type) AsEnum() Enum {
	t.must(format.Kinds(KindEnum), "an enum")
	return Enum(t)
}

func (t Type) AsClass() Class {
	t.must(format.Kinds(KindClass), "a class")
	return Class(t)
}

func (t Type) AsTemplateType() TemplateType {
	t.must(format.Kinds(KindTemplateType), "a template type")
	return TemplateType(t)
}

// EnumConstant is one named value of an enum.
type EnumConstant struct{ ref }

func (c EnumConstant) Value() int32 {
	return int32(c.mem.u32(c.off + format.OffEnumConstantValue))
}

type Enum struct{ ref }

func (e Enum) Type() Type   { return Type(e) }
func (e Enum) Size() uint32 { return Type(e).Size() }

// Constants are sorted by name hash, not by value.
func (e Enum) Constants() Array[EnumConstant] {
	return Array[EnumConstant]{e.array(format.OffEnumConstants)}
}

func (e Enum) Attributes() Array[Attribute] {
	return Array[Attribute]{e.array(format.OffEnumAttributes)}
}

func (e Enum) Flags() uint32 { return e.mem.u32(e.off + format.OffEnumFlags) }

// Field is a data member of a class, or a parameter or return value of a
// function.
type Field struct{ ref }

// Type returns the field's type. It is absent for types the exporter could
// not describe.
func (f Field) Type() (Type, bool) {
	r, ok := f.pointer(format.OffFieldType)
	return Type{r}, ok
}

func (f Field) Qualifier() Qualifier {
	return Qualifier{
		Op:      Operator(f.mem.u8(f.off + format.OffFieldQualifierOp)),
		IsConst: f.mem.u8(f.off+format.OffFieldQualifierConst) != 0,
	}
}

// Offset is the byte offset within the parent class, or the parameter
// index within a function. A return value has index -1.
func (f Field) Offset() int32 { return int32(f.mem.u32(f.off + format.OffFieldOffset)) }

// ParentUniqueID identifies the owning function among overloads that share
// a name.
func (f Field) ParentUniqueID() uint32 { return f.mem.u32(f.off + format.OffFieldParentUniqueID) }

func (f Field) Attributes() Array[Attribute] {
	return Array[Attribute]{f.array(format.OffFieldAttributes)}
}

func (f Field) Flags() uint32 { return f.mem.u32(f.off + format.OffFieldFlags) }

// Function is a free function or a method.
type Function struct{ ref }

func (f Function) Address() uint32  { return f.mem.u32(f.off + format.OffFunctionAddress) }
func (f Function) UniqueID() uint32 { return f.mem.u32(f.off + format.OffFunctionUniqueID) }

func (f Function) ReturnParameter() (Field, bool) {
	r, ok := f.pointer(format.OffFunctionReturn)
	return Field{r}, ok
}

// Parameters are sorted by name hash; Offset gives the declaration order.
func (f Function) Parameters() Array[Field] {
	return Array[Field]{f.array(format.OffFunctionParameters)}
}

func (f Function) Attributes() Array[Attribute] {
	return Array[Attribute]{f.array(format.OffFunctionAttributes)}
}

func (f Function) Flags() uint32 { return f.mem.u32(f.off + format.OffFunctionFlags) }

// TemplateType is one instance of a template.
type TemplateType struct{ ref }

func (t TemplateType) Type() Type   { return Type(t) }
func (t TemplateType) Size() uint32 { return Type(t).Size() }

// Parameter returns the type argument in slot i.
func (t TemplateType) Parameter(i int) (Type, bool) {
	checkTemplateSlot(i)
	r, ok := t.pointer(format.OffTemplateTypeParams + uint32(i)*format.RefBytes)
	return Type{r}, ok
}

// IsPointer reports whether the argument in slot i is a pointer to its type.
func (t TemplateType) IsPointer(i int) bool {
	checkTemplateSlot(i)
	return t.mem.u8(t.off+format.OffTemplateTypePtrs+uint32(i)) != 0
}

// NumParameters counts the leading non-empty parameter slots.
func (t TemplateType) NumParameters() int {
	n := 0
	for n < MaxTemplateArgs && t.mem.u32(t.off+format.OffTemplateTypeParams+uint32(n)*format.RefBytes) != format.NullOffset {
		n++
	}
	return n
}

func checkTemplateSlot(i int) {
	if i < 0 || i >= MaxTemplateArgs {
		panic("reflectdb: template parameter index out of range")
	}
}

type Template struct{ ref }

func (t Template) Instances() Array[TemplateType] {
	return Array[TemplateType]{t.array(format.OffTemplateInstances)}
}

type Class struct{ ref }

func (c Class) Type() Type   { return Type(c) }
func (c Class) Size() uint32 { return Type(c).Size() }

func (c Class) BaseClass() (Class, bool) {
	r, ok := c.pointer(format.OffClassBase)
	return Class{r}, ok
}

func (c Class) Constructor() (Function, bool) {
	r, ok := c.pointer(format.OffClassConstructor)
	return Function{r}, ok
}

func (c Class) Destructor() (Function, bool) {
	r, ok := c.pointer(format.OffClassDestructor)
	return Function{r}, ok
}

func (c Class) Enums() Array[Enum]         { return Array[Enum]{c.array(format.OffClassEnums)} }
func (c Class) Classes() Array[Class]      { return Array[Class]{c.array(format.OffClassClasses)} }
func (c Class) Methods() Array[Function]   { return Array[Function]{c.array(format.OffClassMethods)} }
func (c Class) Fields() Array[Field]       { return Array[Field]{c.array(format.OffClassFields)} }
func (c Class) Templates() Array[Template] { return Array[Template]{c.array(format.OffClassTemplates)} }

func (c Class) Attributes() Array[Attribute] {
	return Array[Attribute]{c.array(format.OffClassAttributes)}
}

func (c Class) Flags() uint32 { return c.mem.u32(c.off + format.OffClassFlags) }

type Namespace struct{ ref }

func (n Namespace) Namespaces() Array[Namespace] {
	return Array[Namespace]{n.array(format.OffNamespaceNamespaces)}
}

func (n Namespace) Types() Array[Type]    { return Array[Type]{n.array(format.OffNamespaceTypes)} }
func (n Namespace) Enums() Array[Enum]    { return Array[Enum]{n.array(format.OffNamespaceEnums)} }
func (n Namespace) Classes() Array[Class] { return Array[Class]{n.array(format.OffNamespaceClasses)} }

func (n Namespace) Functions() Array[Function] {
	return Array[Function]{n.array(format.OffNamespaceFunctions)}
}

func (n Namespace) Templates() Array[Template] {
	return Array[Template]{n.array(format.OffNamespaceTemplates)}
}

// Attribute is any member of the attribute family. A flag attribute carries
// no value beyond its name.
type Attribute struct{ ref }

func (a Attribute) AsInt() IntAttribute {
	a.must(format.Kinds(KindIntAttribute), "an int attribute")
	return IntAttribute(a)
}

func (a Attribute) AsFloat() FloatAttribute {
	a.must(format.Kinds(KindFloatAttribute), "a float attribute")
	return FloatAttribute(a)
}

func (a Attribute) AsName() NameAttribute {
	a.must(format.Kinds(KindNameAttribute), "a name attribute")
	return NameAttribute(a)
}

func (a Attribute) AsText() TextAttribute {
	a.must(format.Kinds(KindTextAttribute), "a text attribute")
	return TextAttribute(a)
}

type IntAttribute struct{ ref }

func (a IntAttribute) Value() int32 {
	return int32(a.mem.u32(a.off + format.OffAttributeValue))
}

type FloatAttribute struct{ ref }

func (a FloatAttribute) Value() float32 {
	return math.Float32frombits(a.mem.u32(a.off + format.OffAttributeValue))
}

type NameAttribute struct{ ref }

func (a NameAttribute) Value() Name {
	return Name{
		Hash: a.mem.u32(a.off + format.OffAttributeValue),
		Text: a.mem.text(a.mem.u32(a.off + format.OffNameAttributeText)),
	}
}

type TextAttribute struct{ ref }

func (a TextAttribute) Value() string {
	return a.mem.text(a.mem.u32(a.off + format.OffAttributeValue))
}

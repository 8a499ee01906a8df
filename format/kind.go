package format

// Kind tags the concrete variant of every primitive record. The numbering is
// part of the wire format.
type Kind uint32

const (
	KindNone Kind = iota
	KindAttribute
	KindFlagAttribute
	KindIntAttribute
	KindFloatAttribute
	KindNameAttribute
	KindTextAttribute
	KindType
	KindEnumConstant
	KindEnum
	KindField
	KindFunction
	KindTemplateType
	KindTemplate
	KindClass
	KindNamespace
	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAttribute:
		return "attribute"
	case KindFlagAttribute:
		return "flag_attribute"
	case KindIntAttribute:
		return "int_attribute"
	case KindFloatAttribute:
		return "float_attribute"
	case KindNameAttribute:
		return "name_attribute"
	case KindTextAttribute:
		return "text_attribute"
	case KindType:
		return "type"
	case KindEnumConstant:
		return "enum_constant"
	case KindEnum:
		return "enum"
	case KindField:
		return "field"
	case KindFunction:
		return "function"
	case KindTemplateType:
		return "template_type"
	case KindTemplate:
		return "template"
	case KindClass:
		return "class"
	case KindNamespace:
		return "namespace"
	default:
		return "unknown"
	}
}

// Valid reports whether k is a kind a record may carry. KindNone and the
// abstract KindAttribute never appear on the wire.
func (k Kind) Valid() bool {
	return k > KindAttribute && k < kindCount
}

// KindSet is a bit set of kinds, used to constrain reference targets.
type KindSet uint32

func Kinds(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s |= 1 << k
	}
	return s
}

func (s KindSet) Has(k Kind) bool {
	return k < kindCount && s&(1<<k) != 0
}

var (
	TypeFamily      = Kinds(KindType, KindEnum, KindClass, KindTemplateType)
	AttributeFamily = Kinds(KindFlagAttribute, KindIntAttribute, KindFloatAttribute, KindNameAttribute, KindTextAttribute)
	AnyPrimitive    = AttributeFamily | TypeFamily | Kinds(KindEnumConstant, KindField, KindFunction, KindTemplate, KindNamespace)
)

// Operator is the value/pointer/reference part of a qualifier.
type Operator uint8

const (
	OpValue Operator = iota
	OpPointer
	OpReference
)

func (o Operator) String() string {
	switch o {
	case OpValue:
		return "value"
	case OpPointer:
		return "pointer"
	case OpReference:
		return "reference"
	default:
		return "unknown"
	}
}

// Qualifier records how a field refers to its type. Storing it separately
// avoids a distinct Type for "X", "const X", "X*" and so on.
type Qualifier struct {
	Op      Operator
	IsConst bool
}

// Bits mirrored into flag_attributes for frequently tested flag attributes.
const (
	// FlagTransient marks primitives ignored during serialisation ("transient").
	FlagTransient uint32 = 1
	// FlagNullStr marks a char pointer holding a NUL terminated string ("nullstr").
	FlagNullStr uint32 = 2
)

// FlagBit returns the flag_attributes bit for a well known flag attribute
// name, or 0.
func FlagBit(name string) uint32 {
	switch name {
	case "transient":
		return FlagTransient
	case "nullstr":
		return FlagNullStr
	default:
		return 0
	}
}

// MaxTemplateArgs is the number of parameter slots in a template type record.
const MaxTemplateArgs = 4

package reflectdb

import "github.com/forestrie/go-reflectdb/format"

// Kind tags the concrete variant of a primitive.
type Kind = format.Kind

const (
	KindNone           = format.KindNone
	KindAttribute      = format.KindAttribute
	KindFlagAttribute  = format.KindFlagAttribute
	KindIntAttribute   = format.KindIntAttribute
	KindFloatAttribute = format.KindFloatAttribute
	KindNameAttribute  = format.KindNameAttribute
	KindTextAttribute  = format.KindTextAttribute
	KindType           = format.KindType
	KindEnumConstant   = format.KindEnumConstant
	KindEnum           = format.KindEnum
	KindField          = format.KindField
	KindFunction       = format.KindFunction
	KindTemplateType   = format.KindTemplateType
	KindTemplate       = format.KindTemplate
	KindClass          = format.KindClass
	KindNamespace      = format.KindNamespace
)

type (
	Qualifier = format.Qualifier
	Operator  = format.Operator
)

const (
	OpValue     = format.OpValue
	OpPointer   = format.OpPointer
	OpReference = format.OpReference

	FlagTransient = format.FlagTransient
	FlagNullStr   = format.FlagNullStr

	MaxTemplateArgs = format.MaxTemplateArgs
)

// Name pairs a name hash with its text. The zero Name is returned when a
// name is not found.
//
// Text is copied out of the database, so a Name stays valid after Close.
type Name struct {
	Hash uint32
	Text string
}

// IsZero reports whether n is the not-found sentinel.
func (n Name) IsZero() bool { return n.Hash == 0 && n.Text == "" }

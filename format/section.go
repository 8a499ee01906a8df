package format

import (
	"errors"

	"github.com/forestrie/go-reflectdb/cursor"
)

// Section identifies one typed region of the stream. Every section appears at
// most once. The numbering is part of the wire format.
type Section uint32

const (
	SectionNone Section = iota
	SectionNameText
	SectionTextAttr
	SectionNames
	SectionTypes
	SectionEnumConstants
	SectionEnums
	SectionFields
	SectionFunctions
	SectionTemplateTypes
	SectionTemplates
	SectionClasses
	SectionNamespaces
	SectionFlagAttributes
	SectionIntAttributes
	SectionFloatAttributes
	SectionNameAttributes
	SectionTextAttributes
	SectionGlobal
	SectionRefs
	SectionTypeIndex
	SectionBloom
	NumSections
)

var ErrSectionUnknown = errors.New("format: unknown section kind")

// SectionHeaderBytes is the size of the descriptor preceding every payload.
//
//	| section | count | byte length | reserved |
//	| 0     3 | 4   7 | 8        11 | 12    15 |
const SectionHeaderBytes = 16

type SectionHeader struct {
	Section  Section
	Count    uint32
	ByteLen  uint32
	Reserved uint32
}

var sectionKinds = [NumSections]Kind{
	SectionTypes:           KindType,
	SectionEnumConstants:   KindEnumConstant,
	SectionEnums:           KindEnum,
	SectionFields:          KindField,
	SectionFunctions:       KindFunction,
	SectionTemplateTypes:   KindTemplateType,
	SectionTemplates:       KindTemplate,
	SectionClasses:         KindClass,
	SectionNamespaces:      KindNamespace,
	SectionFlagAttributes:  KindFlagAttribute,
	SectionIntAttributes:   KindIntAttribute,
	SectionFloatAttributes: KindFloatAttribute,
	SectionNameAttributes:  KindNameAttribute,
	SectionTextAttributes:  KindTextAttribute,
	SectionGlobal:          KindNamespace,
}

// RecordKind returns the primitive kind stored in a record section, or
// KindNone for blobs, the name table and the reference lists.
func (s Section) RecordKind() Kind {
	if s >= NumSections {
		return KindNone
	}
	return sectionKinds[s]
}

// IsBlob reports whether the section is raw NUL terminated text.
func (s Section) IsBlob() bool {
	return s == SectionNameText || s == SectionTextAttr
}

// Stride returns the fixed element width of the section. For blobs and the
// bloom region the element is a byte.
func (s Section) Stride() uint32 {
	switch s {
	case SectionNameText, SectionTextAttr, SectionBloom:
		return 1
	case SectionNames:
		return NameRecordBytes
	case SectionRefs, SectionTypeIndex:
		return RefBytes
	}
	return RecordBytes(s.RecordKind())
}

// SectionForKind returns the value section holding records of kind.
func SectionForKind(kind Kind) Section {
	for s, k := range sectionKinds {
		if k == kind && Section(s) != SectionGlobal {
			return Section(s)
		}
	}
	return SectionNone
}

var sectionNames = [NumSections]string{
	SectionNone:            "none",
	SectionNameText:        "name_text",
	SectionTextAttr:        "text_attr",
	SectionNames:           "names",
	SectionTypes:           "types",
	SectionEnumConstants:   "enum_constants",
	SectionEnums:           "enums",
	SectionFields:          "fields",
	SectionFunctions:       "functions",
	SectionTemplateTypes:   "template_types",
	SectionTemplates:       "templates",
	SectionClasses:         "classes",
	SectionNamespaces:      "namespaces",
	SectionFlagAttributes:  "flag_attributes",
	SectionIntAttributes:   "int_attributes",
	SectionFloatAttributes: "float_attributes",
	SectionNameAttributes:  "name_attributes",
	SectionTextAttributes:  "text_attributes",
	SectionGlobal:          "global",
	SectionRefs:            "refs",
	SectionTypeIndex:       "type_index",
	SectionBloom:           "bloom",
}

func (s Section) String() string {
	if s >= NumSections {
		return "unknown"
	}
	return sectionNames[s]
}

// WriteSectionHeader writes a descriptor at the cursor.
func WriteSectionHeader(c *cursor.Cursor, h SectionHeader) error {
	for _, v := range []uint32{uint32(h.Section), h.Count, h.ByteLen, h.Reserved} {
		if err := c.WriteU32(v); err != nil {
			return err
		}
	}
	return nil
}

// ReadSectionHeader reads a descriptor at the cursor. The section kind is
// checked, the count and length are left to the caller.
func ReadSectionHeader(c *cursor.Cursor) (SectionHeader, error) {
	var h SectionHeader
	var v [4]uint32
	for i := range v {
		x, err := c.ReadU32()
		if err != nil {
			return SectionHeader{}, err
		}
		v[i] = x
	}
	h.Section = Section(v[0])
	h.Count = v[1]
	h.ByteLen = v[2]
	h.Reserved = v[3]
	if h.Section == SectionNone || h.Section >= NumSections {
		return SectionHeader{}, ErrSectionUnknown
	}
	return h, nil
}

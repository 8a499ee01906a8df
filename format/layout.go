package format

// Record layouts
//
// Every primitive record starts with the same 16 byte base:
//
//	| kind | name hash | name text | parent |
//	| 0  3 | 4       7 | 8       11| 12  15 |
//
// name text points into the NameText blob and parent at any primitive record.
// Reference arrays are stored inline as an 8 byte (count, pointer) pair, the
// pointer addressing the first entry of a run in the Refs section.
//
// In the stream every pointer is an offset from the start of the stream. In a
// loaded block every pointer is an offset from the start of the block. Null is
// NullOffset in both.
const (
	NullOffset = ^uint32(0)

	RefBytes   = 4
	ArrayBytes = 8

	OffKind     = 0
	OffNameHash = 4
	OffNameText = 8
	OffParent   = 12
	BaseBytes   = 16

	// name table records
	OffNameRecordHash = 0
	OffNameRecordText = 4
	NameRecordBytes   = 8

	OffTypeSize = BaseBytes
	TypeBytes   = BaseBytes + 4

	OffEnumConstantValue = BaseBytes
	EnumConstantBytes    = BaseBytes + 4

	OffEnumConstants  = TypeBytes
	OffEnumAttributes = OffEnumConstants + ArrayBytes
	OffEnumFlags      = OffEnumAttributes + ArrayBytes
	EnumBytes         = OffEnumFlags + 4

	OffFieldType           = BaseBytes
	OffFieldQualifierOp    = OffFieldType + 4
	OffFieldQualifierConst = OffFieldQualifierOp + 1
	OffFieldOffset         = OffFieldQualifierOp + 4
	OffFieldParentUniqueID = OffFieldOffset + 4
	OffFieldAttributes     = OffFieldParentUniqueID + 4
	OffFieldFlags          = OffFieldAttributes + ArrayBytes
	FieldBytes             = OffFieldFlags + 4

	OffFunctionAddress    = BaseBytes
	OffFunctionUniqueID   = OffFunctionAddress + 4
	OffFunctionReturn     = OffFunctionUniqueID + 4
	OffFunctionParameters = OffFunctionReturn + 4
	OffFunctionAttributes = OffFunctionParameters + ArrayBytes
	OffFunctionFlags      = OffFunctionAttributes + ArrayBytes
	FunctionBytes         = OffFunctionFlags + 4

	OffTemplateTypeParams = TypeBytes
	OffTemplateTypePtrs   = OffTemplateTypeParams + MaxTemplateArgs*4
	TemplateTypeBytes     = OffTemplateTypePtrs + MaxTemplateArgs

	OffTemplateInstances = BaseBytes
	TemplateBytes        = OffTemplateInstances + ArrayBytes

	OffClassBase        = TypeBytes
	OffClassConstructor = OffClassBase + 4
	OffClassDestructor  = OffClassConstructor + 4
	OffClassEnums       = OffClassDestructor + 4
	OffClassClasses     = OffClassEnums + ArrayBytes
	OffClassMethods     = OffClassClasses + ArrayBytes
	OffClassFields      = OffClassMethods + ArrayBytes
	OffClassAttributes  = OffClassFields + ArrayBytes
	OffClassTemplates   = OffClassAttributes + ArrayBytes
	OffClassFlags       = OffClassTemplates + ArrayBytes
	ClassBytes          = OffClassFlags + 4

	OffNamespaceNamespaces = BaseBytes
	OffNamespaceTypes      = OffNamespaceNamespaces + ArrayBytes
	OffNamespaceEnums      = OffNamespaceTypes + ArrayBytes
	OffNamespaceClasses    = OffNamespaceEnums + ArrayBytes
	OffNamespaceFunctions  = OffNamespaceClasses + ArrayBytes
	OffNamespaceTemplates  = OffNamespaceFunctions + ArrayBytes
	NamespaceBytes         = OffNamespaceTemplates + ArrayBytes

	OffAttributeValue    = BaseBytes
	FlagAttributeBytes   = BaseBytes
	IntAttributeBytes    = BaseBytes + 4
	FloatAttributeBytes  = BaseBytes + 4
	OffNameAttributeText = OffAttributeValue + 4
	NameAttributeBytes   = BaseBytes + 8
	TextAttributeBytes   = BaseBytes + 4

	OffArrayCount   = 0
	OffArrayPointer = 4
)

// RecordBytes returns the fixed record width for kind, or 0 for kinds that
// have no records.
func RecordBytes(kind Kind) uint32 {
	switch kind {
	case KindFlagAttribute:
		return FlagAttributeBytes
	case KindIntAttribute:
		return IntAttributeBytes
	case KindFloatAttribute:
		return FloatAttributeBytes
	case KindNameAttribute:
		return NameAttributeBytes
	case KindTextAttribute:
		return TextAttributeBytes
	case KindType:
		return TypeBytes
	case KindEnumConstant:
		return EnumConstantBytes
	case KindEnum:
		return EnumBytes
	case KindField:
		return FieldBytes
	case KindFunction:
		return FunctionBytes
	case KindTemplateType:
		return TemplateTypeBytes
	case KindTemplate:
		return TemplateBytes
	case KindClass:
		return ClassBytes
	case KindNamespace:
		return NamespaceBytes
	default:
		return 0
	}
}

// PointerField is a single pointer embedded in a record.
type PointerField struct {
	Off     uint32
	Targets KindSet
}

// ArrayField is a reference array embedded in a record.
type ArrayField struct {
	Off     uint32
	Targets KindSet
}

// BlobField is a pointer into one of the text blobs.
type BlobField struct {
	Off  uint32
	Blob Section
}

// RecordLayout lists every field of a record that needs fixup on load. The
// base name text and parent fields are included.
type RecordLayout struct {
	Pointers []PointerField
	Arrays   []ArrayField
	Blobs    []BlobField
}

var baseBlobs = []BlobField{{Off: OffNameText, Blob: SectionNameText}}
var basePointers = []PointerField{{Off: OffParent, Targets: AnyPrimitive}}

func withBase(p ...PointerField) []PointerField {
	return append(append([]PointerField{}, basePointers...), p...)
}

var layouts = map[Kind]RecordLayout{
	KindFlagAttribute:  {Pointers: withBase(), Blobs: baseBlobs},
	KindIntAttribute:   {Pointers: withBase(), Blobs: baseBlobs},
	KindFloatAttribute: {Pointers: withBase(), Blobs: baseBlobs},
	KindNameAttribute: {
		Pointers: withBase(),
		Blobs:    append(append([]BlobField{}, baseBlobs...), BlobField{Off: OffNameAttributeText, Blob: SectionNameText}),
	},
	KindTextAttribute: {
		Pointers: withBase(),
		Blobs:    append(append([]BlobField{}, baseBlobs...), BlobField{Off: OffAttributeValue, Blob: SectionTextAttr}),
	},
	KindType:         {Pointers: withBase(), Blobs: baseBlobs},
	KindEnumConstant: {Pointers: withBase(), Blobs: baseBlobs},
	KindEnum: {
		Pointers: withBase(),
		Arrays: []ArrayField{
			{Off: OffEnumConstants, Targets: Kinds(KindEnumConstant)},
			{Off: OffEnumAttributes, Targets: AttributeFamily},
		},
		Blobs: baseBlobs,
	},
	KindField: {
		Pointers: withBase(PointerField{Off: OffFieldType, Targets: TypeFamily}),
		Arrays:   []ArrayField{{Off: OffFieldAttributes, Targets: AttributeFamily}},
		Blobs:    baseBlobs,
	},
	KindFunction: {
		Pointers: withBase(PointerField{Off: OffFunctionReturn, Targets: Kinds(KindField)}),
		Arrays: []ArrayField{
			{Off: OffFunctionParameters, Targets: Kinds(KindField)},
			{Off: OffFunctionAttributes, Targets: AttributeFamily},
		},
		Blobs: baseBlobs,
	},
	KindTemplateType: {
		Pointers: withBase(
			PointerField{Off: OffTemplateTypeParams, Targets: TypeFamily},
			PointerField{Off: OffTemplateTypeParams + 4, Targets: TypeFamily},
			PointerField{Off: OffTemplateTypeParams + 8, Targets: TypeFamily},
			PointerField{Off: OffTemplateTypeParams + 12, Targets: TypeFamily},
		),
		Blobs: baseBlobs,
	},
	KindTemplate: {
		Pointers: withBase(),
		Arrays:   []ArrayField{{Off: OffTemplateInstances, Targets: Kinds(KindTemplateType)}},
		Blobs:    baseBlobs,
	},
	KindClass: {
		Pointers: withBase(
			PointerField{Off: OffClassBase, Targets: Kinds(KindClass)},
			PointerField{Off: OffClassConstructor, Targets: Kinds(KindFunction)},
			PointerField{Off: OffClassDestructor, Targets: Kinds(KindFunction)},
		),
		Arrays: []ArrayField{
			{Off: OffClassEnums, Targets: Kinds(KindEnum)},
			{Off: OffClassClasses, Targets: Kinds(KindClass)},
			{Off: OffClassMethods, Targets: Kinds(KindFunction)},
			{Off: OffClassFields, Targets: Kinds(KindField)},
			{Off: OffClassAttributes, Targets: AttributeFamily},
			{Off: OffClassTemplates, Targets: Kinds(KindTemplate)},
		},
		Blobs: baseBlobs,
	},
	KindNamespace: {
		Pointers: withBase(),
		Arrays: []ArrayField{
			{Off: OffNamespaceNamespaces, Targets: Kinds(KindNamespace)},
			{Off: OffNamespaceTypes, Targets: Kinds(KindType)},
			{Off: OffNamespaceEnums, Targets: Kinds(KindEnum)},
			{Off: OffNamespaceClasses, Targets: Kinds(KindClass)},
			{Off: OffNamespaceFunctions, Targets: Kinds(KindFunction)},
			{Off: OffNamespaceTemplates, Targets: Kinds(KindTemplate)},
		},
		Blobs: baseBlobs,
	},
}

// Layout returns the fixup layout for kind. The returned slices are shared
// and must not be modified.
func Layout(kind Kind) RecordLayout {
	return layouts[kind]
}

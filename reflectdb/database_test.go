package reflectdb

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forestrie/go-reflectdb/dbtesting"
	"github.com/forestrie/go-reflectdb/export"
	"github.com/forestrie/go-reflectdb/names"
)

func TestDatabaseLoadGeneratedGraph(t *testing.T) {
	tc := newTestContext(t)
	gen := dbtesting.NewGenerator(&tc, dbtesting.SmallGraph)
	g := gen.Graph()
	db := mustLoad(t, tc, mustExport(t, g))

	require.True(t, db.IsLoaded())
	want := gen.Stats()
	stats := db.Stats()
	assert.Equal(t, want.Types, stats.Types)
	assert.Equal(t, want.Enums, stats.Enums)
	assert.Equal(t, want.Classes, stats.Classes)
	assert.Equal(t, want.Functions, stats.Functions)
	assert.Equal(t, want.Fields, stats.Fields)
	assert.Equal(t, want.Namespaces, stats.Namespaces)
	assert.Equal(t, want.Templates, stats.Templates)
	assert.Equal(t, want.TemplateTypes, stats.TemplateTypes)
	assert.False(t, stats.Bloom)
	assert.Positive(t, stats.BlockBytes)
	assert.Contains(t, stats.String(), "namespaces")

	global := db.GlobalNamespace()
	assert.Equal(t, KindNamespace, global.Kind())
	assert.True(t, global.Name().IsZero())
	_, hasParent := global.Parent()
	assert.False(t, hasParent)
	assert.Equal(t, len(g.Global.Namespaces), global.Namespaces().Len())
	assert.Equal(t, len(dbtesting.Builtins), global.Types().Len())

	assert.Equal(t, want.Types+want.Enums+want.Classes+want.TemplateTypes, db.Types().Len())
}

// The loaded database must mirror the authoring graph: same names, kinds,
// values, containment and cross references.
func TestDatabaseRoundTrip(t *testing.T) {
	tc := newTestContext(t)
	g := dbtesting.NewGenerator(&tc, dbtesting.SmallGraph).Graph()
	db := mustLoad(t, tc, mustExport(t, g))

	checkNamespace(t, g.Global, db.GlobalNamespace())

	for _, ns := range g.Global.Namespaces {
		got, ok := db.GetNamespace(names.Hash(ns.Name))
		require.True(t, ok)
		checkNamespace(t, ns, got)
	}
}

func checkName(t *testing.T, want string, got Name) {
	t.Helper()
	assert.Equal(t, want, got.Text)
	assert.Equal(t, names.Hash(want), got.Hash)
}

func checkParent[T view](t *testing.T, child T, parent Primitive) {
	t.Helper()
	p, ok := refOf(child).Parent()
	require.True(t, ok)
	assert.True(t, p.Same(parent))
}

func find[T view](t *testing.T, a Array[T], name string) T {
	t.Helper()
	v, ok := a.Find(names.Hash(name))
	require.True(t, ok, "%s not found", name)
	return v
}

func checkNamespace(t *testing.T, want *export.Namespace, got Namespace) {
	t.Helper()
	checkName(t, want.Name, got.Name())
	require.Equal(t, len(want.Namespaces), got.Namespaces().Len())
	require.Equal(t, len(want.Types), got.Types().Len())
	require.Equal(t, len(want.Enums), got.Enums().Len())
	require.Equal(t, len(want.Classes), got.Classes().Len())
	require.Equal(t, len(want.Functions), got.Functions().Len())
	require.Equal(t, len(want.Templates), got.Templates().Len())

	for _, ns := range want.Namespaces {
		child := find(t, got.Namespaces(), ns.Name)
		checkParent(t, child, got.Primitive())
		checkNamespace(t, ns, child)
	}
	for _, ty := range want.Types {
		child := find(t, got.Types(), ty.Name)
		checkParent(t, child, got.Primitive())
		assert.Equal(t, ty.Size, child.Size())
		assert.Equal(t, KindType, child.Kind())
	}
	for _, e := range want.Enums {
		child := find(t, got.Enums(), e.Name)
		checkParent(t, child, got.Primitive())
		checkEnum(t, e, child)
	}
	for _, c := range want.Classes {
		child := find(t, got.Classes(), c.Name)
		checkParent(t, child, got.Primitive())
		checkClass(t, c, child)
	}
	for _, f := range want.Functions {
		child := find(t, got.Functions(), f.Name)
		checkParent(t, child, got.Primitive())
		checkFunction(t, f, child)
	}
	for _, tmpl := range want.Templates {
		child := find(t, got.Templates(), tmpl.Name)
		checkParent(t, child, got.Primitive())
		checkTemplate(t, tmpl, child)
	}
}

func checkEnum(t *testing.T, want *export.Enum, got Enum) {
	t.Helper()
	checkName(t, want.Name, got.Name())
	assert.Equal(t, want.Size, got.Size())
	require.Equal(t, len(want.Constants), got.Constants().Len())
	for _, c := range want.Constants {
		child := find(t, got.Constants(), c.Name)
		checkParent(t, child, got.Primitive())
		assert.Equal(t, c.Value, child.Value())
	}
	checkAttributes(t, want.Attributes, got.Attributes(), got.Primitive())
}

func checkClass(t *testing.T, want *export.Class, got Class) {
	t.Helper()
	checkName(t, want.Name, got.Name())
	assert.Equal(t, want.Size, got.Size())

	base, ok := got.BaseClass()
	require.Equal(t, want.Base != nil, ok)
	if ok {
		checkName(t, want.Base.Name, base.Name())
	}
	ctor, ok := got.Constructor()
	require.Equal(t, want.Constructor != nil, ok)
	if ok {
		checkName(t, want.Constructor.Name, ctor.Name())
		_, inMethods := got.Methods().Find(ctor.Hash())
		assert.True(t, inMethods)
	}
	_, ok = got.Destructor()
	require.Equal(t, want.Destructor != nil, ok)

	require.Equal(t, len(want.Fields), got.Fields().Len())
	for _, f := range want.Fields {
		child := find(t, got.Fields(), f.Name)
		checkParent(t, child, got.Primitive())
		checkField(t, f, child)
	}
	require.Equal(t, len(want.Methods), got.Methods().Len())
	for _, m := range want.Methods {
		child := find(t, got.Methods(), m.Name)
		checkParent(t, child, got.Primitive())
		checkFunction(t, m, child)
	}
	require.Equal(t, len(want.Enums), got.Enums().Len())
	require.Equal(t, len(want.Classes), got.Classes().Len())
	require.Equal(t, len(want.Templates), got.Templates().Len())
	checkAttributes(t, want.Attributes, got.Attributes(), got.Primitive())
}

func checkField(t *testing.T, want *export.Field, got Field) {
	t.Helper()
	checkName(t, want.Name, got.Name())
	assert.Equal(t, want.Offset, got.Offset())
	assert.Equal(t, want.Qualifier, got.Qualifier())

	ty, ok := got.Type()
	require.Equal(t, want.Type != nil, ok)
	if ok {
		assert.Equal(t, names.Hash(typeName(want.Type)), ty.Hash())
	}
	checkAttributes(t, want.Attributes, got.Attributes(), got.Primitive())
}

func checkFunction(t *testing.T, want *export.Function, got Function) {
	t.Helper()
	checkName(t, want.Name, got.Name())
	assert.Equal(t, want.Address, got.Address())
	assert.Equal(t, want.UniqueID, got.UniqueID())

	ret, ok := got.ReturnParameter()
	require.Equal(t, want.Return != nil, ok)
	if ok {
		checkParent(t, ret, got.Primitive())
		checkField(t, want.Return, ret)
		assert.Equal(t, want.UniqueID, ret.ParentUniqueID())
	}
	require.Equal(t, len(want.Parameters), got.Parameters().Len())
	for _, p := range want.Parameters {
		child := find(t, got.Parameters(), p.Name)
		checkParent(t, child, got.Primitive())
		checkField(t, p, child)
		assert.Equal(t, want.UniqueID, child.ParentUniqueID())
	}
	checkAttributes(t, want.Attributes, got.Attributes(), got.Primitive())
}

func checkTemplate(t *testing.T, want *export.Template, got Template) {
	t.Helper()
	checkName(t, want.Name, got.Name())
	require.Equal(t, len(want.Instances), got.Instances().Len())
	for _, inst := range want.Instances {
		child := find(t, got.Instances(), inst.Name)
		checkParent(t, child, got.Primitive())
		assert.Equal(t, inst.Size, child.Size())
		for i := 0; i < MaxTemplateArgs; i++ {
			p, ok := child.Parameter(i)
			require.Equal(t, inst.Parameters[i] != nil, ok)
			if ok {
				assert.Equal(t, names.Hash(typeName(inst.Parameters[i])), p.Hash())
			}
			assert.Equal(t, inst.Pointers[i], child.IsPointer(i))
		}
	}
}

func checkAttributes(t *testing.T, want []export.Attribute, got Array[Attribute], parent Primitive) {
	t.Helper()
	require.Equal(t, len(want), got.Len())
	for _, a := range want {
		switch v := a.(type) {
		case *export.FlagAttribute:
			child := find(t, got, v.Name)
			assert.Equal(t, KindFlagAttribute, child.Kind())
			checkParent(t, child, parent)
		case *export.IntAttribute:
			assert.Equal(t, v.Value, find(t, got, v.Name).AsInt().Value())
		case *export.FloatAttribute:
			assert.Equal(t, v.Value, find(t, got, v.Name).AsFloat().Value())
		case *export.NameAttribute:
			checkName(t, v.Value, find(t, got, v.Name).AsName().Value())
		case *export.TextAttribute:
			assert.Equal(t, v.Value, find(t, got, v.Name).AsText().Value())
		}
	}
}

func typeName(t export.TypeRef) string {
	switch v := t.(type) {
	case *export.Type:
		return v.Name
	case *export.Enum:
		return v.Name
	case *export.Class:
		return v.Name
	case *export.TemplateType:
		return v.Name
	}
	return ""
}

func TestDatabaseNames(t *testing.T) {
	tc := newTestContext(t)
	g := dbtesting.NewGenerator(&tc, dbtesting.SmallGraph).Graph()
	db := mustLoad(t, tc, mustExport(t, g))

	for _, text := range []string{"int", "ns0", "ns0::Class1", "ns1::Class2::field0", "arg0", "transient", "ns0::Class0::Serialize"} {
		got := db.GetNameText(text)
		checkName(t, text, got)
		assert.Equal(t, got, db.GetName(names.Hash(text)))
	}

	assert.True(t, db.GetNameText("").IsZero())
	assert.True(t, db.GetName(0).IsZero())
	assert.True(t, db.GetNameText("not a name in the graph").IsZero())
	assert.True(t, db.GetName(names.Hash("not a name in the graph")).IsZero())
}

func TestDatabaseLookupsAreStable(t *testing.T) {
	tc := newTestContext(t)
	g := dbtesting.NewGenerator(&tc, dbtesting.SmallGraph).Graph()
	db := mustLoad(t, tc, mustExport(t, g))

	h := names.Hash("ns1::Class0")
	first, ok := db.GetType(h)
	require.True(t, ok)
	second, ok := db.GetType(h)
	require.True(t, ok)
	assert.True(t, first.Same(second.Primitive()))
	assert.Equal(t, first, second)

	fn, ok := db.GetFunction(names.Hash("func1"))
	require.True(t, ok)
	again, ok := db.GetFunction(names.Hash("func1"))
	require.True(t, ok)
	assert.True(t, fn.Same(again.Primitive()))

	_, ok = db.GetType(names.Hash("ns9::Missing"))
	assert.False(t, ok)
	_, ok = db.GetNamespace(names.Hash("ns9"))
	assert.False(t, ok)
	_, ok = db.GetFunction(names.Hash("missing"))
	assert.False(t, ok)
}

func TestDatabaseEmpty(t *testing.T) {
	tc := newTestContext(t)
	db := mustLoad(t, tc, mustExport(t, export.NewGraph()))

	_, ok := db.GetType(names.Hash("int"))
	assert.False(t, ok)
	_, ok = db.GetNamespace(names.Hash("ns0"))
	assert.False(t, ok)
	assert.Equal(t, 0, db.Types().Len())
	assert.Equal(t, 0, db.GlobalNamespace().Classes().Len())
	assert.True(t, db.GetNameText("int").IsZero())
}

func TestDatabaseEmptyClass(t *testing.T) {
	tc := newTestContext(t)
	db := mustLoad(t, tc, mustExport(t, emptyClassGraph()))

	ty, ok := db.GetType(names.Hash("Empty"))
	require.True(t, ok)
	assert.Equal(t, KindClass, ty.Kind())

	c := ty.AsClass()
	assert.Equal(t, 0, c.Fields().Len())
	assert.Equal(t, 0, c.Methods().Len())
	assert.Equal(t, 0, c.Attributes().Len())
	_, ok = c.BaseClass()
	assert.False(t, ok)
	_, ok = c.Fields().Find(names.Hash("anything"))
	assert.False(t, ok)

	assert.Panics(t, func() { ty.AsEnum() })
	assert.Panics(t, func() { ty.AsTemplateType() })
	assert.Panics(t, func() { c.Primitive().AsNamespace() })
}

func TestDatabaseIndependentFacades(t *testing.T) {
	tc := newTestContext(t)
	stream := mustExport(t, emptyClassGraph())
	alloc := &dbtesting.CountingAllocator{}

	a := New(tc.Log, WithAllocator(alloc))
	b := New(tc.Log, WithAllocator(alloc))
	require.NoError(t, a.Load(bytes.NewReader(stream)))
	require.NoError(t, b.Load(bytes.NewReader(stream)))
	assert.Equal(t, 2, alloc.Allocs())

	ta, ok := a.GetType(names.Hash("Empty"))
	require.True(t, ok)
	tb, ok := b.GetType(names.Hash("Empty"))
	require.True(t, ok)
	assert.False(t, ta.Same(tb.Primitive()))

	require.NoError(t, a.Close())
	assert.Equal(t, 1, alloc.Frees())
	// b is untouched by closing a
	assert.Equal(t, "Empty", tb.Name().Text)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	require.NoError(t, a.Close())
	assert.Equal(t, 2, alloc.Frees())
	assert.Equal(t, 0, alloc.Live())
}

func TestDatabaseLifecycle(t *testing.T) {
	tc := newTestContext(t)
	stream := mustExport(t, emptyClassGraph())

	db := New(tc.Log)
	assert.False(t, db.IsLoaded())
	assert.Panics(t, func() { db.GetName(1) })
	assert.Panics(t, func() { db.GlobalNamespace() })
	require.NoError(t, db.Close())

	require.NoError(t, db.Load(bytes.NewReader(stream)))
	require.ErrorIs(t, db.Load(bytes.NewReader(stream)), ErrAlreadyLoaded)

	ty, ok := db.GetType(names.Hash("Empty"))
	require.True(t, ok)
	name := ty.Name()

	require.NoError(t, db.Close())
	assert.False(t, db.IsLoaded())
	assert.Panics(t, func() { ty.Size() })
	assert.Panics(t, func() { db.GetType(names.Hash("Empty")) })
	// names are copies and outlive the database
	assert.Equal(t, "Empty", name.Text)

	// a closed database can be loaded again
	require.NoError(t, db.Load(bytes.NewReader(stream)))
	_, ok = db.GetType(names.Hash("Empty"))
	assert.True(t, ok)
	require.NoError(t, db.Close())
}

func TestDatabaseBuildID(t *testing.T) {
	tc := newTestContext(t)
	out, err := export.Export(emptyClassGraph())
	require.NoError(t, err)
	db := mustLoad(t, tc, out.Stream)
	assert.Equal(t, out.BuildID, db.ID())
}

func TestDatabaseOverloads(t *testing.T) {
	tc := newTestContext(t)
	g := export.NewGraph()
	g.Global.Functions = []*export.Function{
		{Name: "print", UniqueID: 1},
		{Name: "print", UniqueID: 2},
		{Name: "print", UniqueID: 3},
		{Name: "flush", UniqueID: 4},
	}
	db := mustLoad(t, tc, mustExport(t, g))

	overloads := db.Overloads(names.Hash("print"))
	require.Equal(t, 3, overloads.Len())
	seen := map[uint32]bool{}
	for _, f := range overloads.All() {
		seen[f.UniqueID()] = true
	}
	assert.Equal(t, map[uint32]bool{1: true, 2: true, 3: true}, seen)

	f, ok := db.GetFunction(names.Hash("print"))
	require.True(t, ok)
	assert.True(t, seen[f.UniqueID()])

	assert.Equal(t, 1, db.Overloads(names.Hash("flush")).Len())
	assert.Equal(t, 0, db.Overloads(names.Hash("missing")).Len())
	assert.Equal(t, 4, db.Functions().Len())
}

func TestDatabaseBloom(t *testing.T) {
	tc := newTestContext(t)
	g := dbtesting.NewGenerator(&tc, dbtesting.SmallGraph).Graph()
	stream := mustExport(t, g, export.WithBloom(0, 0))

	db := mustLoad(t, tc, stream)
	assert.True(t, db.Stats().Bloom)
	plain := mustLoad(t, tc, stream, WithoutBloom())
	assert.False(t, plain.Stats().Bloom)

	for _, text := range []string{"int", "ns0::Class0", "ns1::Enum0", "ns0::Vector<float>"} {
		a, ok := db.GetType(names.Hash(text))
		require.True(t, ok, text)
		b, ok := plain.GetType(names.Hash(text))
		require.True(t, ok, text)
		assert.Equal(t, a.Name(), b.Name())
	}
	_, ok := db.GetNamespace(names.Hash("ns1"))
	assert.True(t, ok)
	_, ok = db.GetFunction(names.Hash("ns1::func0"))
	assert.True(t, ok)
	checkName(t, "arg1", db.GetNameText("arg1"))

	_, ok = db.GetType(names.Hash("missing"))
	assert.False(t, ok)
	assert.True(t, db.GetNameText("missing").IsZero())
}

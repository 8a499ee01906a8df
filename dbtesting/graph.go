package dbtesting

import (
	"fmt"

	"github.com/forestrie/go-reflectdb/export"
	"github.com/forestrie/go-reflectdb/format"
	"github.com/forestrie/go-reflectdb/names"
)

type GraphConfig struct {
	Namespaces          int
	ClassesPerNamespace int
	EnumsPerNamespace   int
	FunctionsPerScope   int
	FieldsPerClass      int
	ConstantsPerEnum    int
	ParametersPerFunc   int
	// BaseCycle links the first two classes of the first namespace as each
	// other's base class.
	BaseCycle bool
	// Templates adds a template with one instance per builtin to every
	// namespace.
	Templates bool
}

// SmallGraph is a graph with a little of everything, small enough to check
// by eye.
var SmallGraph = GraphConfig{
	Namespaces:          2,
	ClassesPerNamespace: 3,
	EnumsPerNamespace:   1,
	FunctionsPerScope:   2,
	FieldsPerClass:      3,
	ConstantsPerEnum:    3,
	ParametersPerFunc:   2,
	BaseCycle:           true,
	Templates:           true,
}

// Builtins are added to the global namespace of every generated graph.
var Builtins = []struct {
	Name string
	Size uint32
}{
	{"bool", 1}, {"char", 1}, {"short", 2}, {"int", 4}, {"float", 4}, {"double", 8},
}

// GraphStats counts what a generator made, for comparing with a loaded
// database.
type GraphStats struct {
	Types         int
	Enums         int
	Classes       int
	Functions     int
	Fields        int
	Namespaces    int
	Templates     int
	TemplateTypes int
}

// Generator builds random but reproducible authoring graphs. Names are fully
// qualified, so every type, namespace and function name is distinct.
type Generator struct {
	ctx   *TestContext
	cfg   GraphConfig
	types []export.TypeRef
	stats GraphStats
	uid   uint32
}

func NewGenerator(ctx *TestContext, cfg GraphConfig) *Generator {
	return &Generator{ctx: ctx, cfg: cfg}
}

func (g *Generator) Stats() GraphStats { return g.stats }

// Graph generates a new graph. Types made earlier in the graph are used as
// field, parameter and template argument types later on.
func (g *Generator) Graph() *export.Graph {
	g.types = nil
	g.stats = GraphStats{}

	graph := export.NewGraph()
	for _, b := range Builtins {
		t := &export.Type{Name: b.Name, Size: b.Size}
		graph.Global.Types = append(graph.Global.Types, t)
		g.types = append(g.types, t)
		g.stats.Types++
	}

	var first []*export.Class
	for i := 0; i < g.cfg.Namespaces; i++ {
		ns := g.namespace(fmt.Sprintf("ns%d", i))
		graph.Global.Namespaces = append(graph.Global.Namespaces, ns)
		if i == 0 {
			first = ns.Classes
		}
	}
	graph.Global.Functions = g.functions("", g.cfg.FunctionsPerScope)

	if g.cfg.BaseCycle && len(first) >= 2 {
		first[0].Base = first[1]
		first[1].Base = first[0]
	}
	return graph
}

func (g *Generator) namespace(name string) *export.Namespace {
	g.stats.Namespaces++
	ns := &export.Namespace{Name: name}

	for i := 0; i < g.cfg.EnumsPerNamespace; i++ {
		ns.Enums = append(ns.Enums, g.enum(names.Qualify(name, fmt.Sprintf("Enum%d", i))))
	}
	for i := 0; i < g.cfg.ClassesPerNamespace; i++ {
		ns.Classes = append(ns.Classes, g.class(names.Qualify(name, fmt.Sprintf("Class%d", i))))
	}
	ns.Functions = g.functions(name, g.cfg.FunctionsPerScope)
	if g.cfg.Templates {
		ns.Templates = append(ns.Templates, g.template(names.Qualify(name, "Vector")))
	}
	return ns
}

func (g *Generator) enum(name string) *export.Enum {
	g.stats.Enums++
	e := &export.Enum{Name: name, Size: 4}
	for i := 0; i < g.cfg.ConstantsPerEnum; i++ {
		e.Constants = append(e.Constants, &export.EnumConstant{
			Name:  names.Qualify(name, fmt.Sprintf("Value%d", i)),
			Value: int32(g.ctx.Rand.Intn(1000) - 500),
		})
	}
	e.Attributes = []export.Attribute{&export.TextAttribute{Name: "description", Value: "generated " + name}}
	g.types = append(g.types, e)
	return e
}

func (g *Generator) class(name string) *export.Class {
	g.stats.Classes++
	c := &export.Class{Name: name}

	var offset int32
	for i := 0; i < g.cfg.FieldsPerClass; i++ {
		t := g.pickType()
		f := &export.Field{
			Name:      names.Qualify(name, fmt.Sprintf("field%d", i)),
			Type:      t,
			Qualifier: format.Qualifier{Op: format.Operator(g.ctx.Rand.Intn(3)), IsConst: g.ctx.Rand.Intn(2) == 0},
			Offset:    offset,
		}
		if i == 0 {
			f.Attributes = append(f.Attributes, &export.FlagAttribute{Name: "transient"})
		}
		offset += int32(sizeOf(t))
		c.Fields = append(c.Fields, f)
		g.stats.Fields++
	}
	c.Size = uint32(offset)

	c.Methods = g.functions(name, g.cfg.FunctionsPerScope)
	if len(c.Methods) > 0 {
		c.Constructor = c.Methods[0]
	}
	c.Attributes = []export.Attribute{
		&export.IntAttribute{Name: "version", Value: int32(g.ctx.Rand.Intn(10))},
		&export.FloatAttribute{Name: "weight", Value: 0.5},
		&export.NameAttribute{Name: "serializer", Value: names.Qualify(name, "Serialize")},
	}
	g.types = append(g.types, c)
	return c
}

func (g *Generator) functions(scope string, n int) []*export.Function {
	var fns []*export.Function
	for i := 0; i < n; i++ {
		name := names.Qualify(scope, fmt.Sprintf("func%d", i))
		g.uid++
		f := &export.Function{
			Name:     name,
			Address:  0x1000 + g.uid*0x10,
			UniqueID: names.Hash(fmt.Sprintf("%s#%d", name, g.uid)),
		}
		for p := 0; p < g.cfg.ParametersPerFunc; p++ {
			f.Parameters = append(f.Parameters, &export.Field{
				Name:   fmt.Sprintf("arg%d", p),
				Type:   g.pickType(),
				Offset: int32(p),
			})
			g.stats.Fields++
		}
		if g.ctx.Rand.Intn(2) == 0 {
			f.Return = &export.Field{Name: "return", Type: g.pickType(), Offset: -1}
			g.stats.Fields++
		}
		fns = append(fns, f)
		g.stats.Functions++
	}
	return fns
}

func (g *Generator) template(name string) *export.Template {
	g.stats.Templates++
	t := &export.Template{Name: name}
	for i, b := range Builtins {
		inst := &export.TemplateType{Name: fmt.Sprintf("%s<%s>", name, b.Name), Size: 24}
		inst.Parameters[0] = g.types[i]
		inst.Pointers[0] = i%2 == 1
		t.Instances = append(t.Instances, inst)
		g.stats.TemplateTypes++
	}
	return t
}

func (g *Generator) pickType() export.TypeRef {
	return g.types[g.ctx.Rand.Intn(len(g.types))]
}

func sizeOf(t export.TypeRef) uint32 {
	switch v := t.(type) {
	case *export.Type:
		return v.Size
	case *export.Enum:
		return v.Size
	case *export.Class:
		return v.Size
	case *export.TemplateType:
		return v.Size
	}
	return 0
}

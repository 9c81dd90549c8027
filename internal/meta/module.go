package meta

import (
	"fmt"
	"strings"
)

// Version is a four-part assembly version.
type Version [4]uint16

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v[0], v[1], v[2], v[3])
}

// AssemblyRef is one row of a module's assembly reference table.
type AssemblyRef struct {
	Name    string
	Version Version
}

// ImportTable holds the foreign references a module has interned.
type ImportTable struct {
	Types   []*TypeRef
	Methods []*MethodRef
	Fields  []*FieldRef
}

// Len returns the total number of rows.
func (t *ImportTable) Len() int {
	return len(t.Types) + len(t.Methods) + len(t.Fields)
}

// Module owns a type table, an assembly reference table and every entity
// reachable from them.
type Module struct {
	// Name is the file name the module was read from, e.g. Game.exe.
	Name string
	// Assembly is the scope name carried by the module's own definitions.
	Assembly     string
	AssemblyRefs []AssemblyRef
	Types        []*TypeDef
	Imports      ImportTable

	index map[string]*TypeDef
}

// NewModule constructs an empty module.
func NewModule(name, assembly string) *Module {
	return &Module{Name: name, Assembly: assembly}
}

// AddAssemblyRef appends an assembly reference row.
func (m *Module) AddAssemblyRef(name string, version Version) {
	m.AssemblyRefs = append(m.AssemblyRefs, AssemblyRef{Name: name, Version: version})
}

// HasAssemblyRef reports whether a row named name exists.
func (m *Module) HasAssemblyRef(name string) bool {
	for _, ref := range m.AssemblyRefs {
		if ref.Name == name {
			return true
		}
	}
	return false
}

// DefineType adds a top-level type definition.
func (m *Module) DefineType(namespace, name string) *TypeDef {
	ref := NewTypeRef(namespace, name, m.Assembly)
	ref.Module = m
	def := &TypeDef{Ref: ref}
	m.Types = append(m.Types, def)
	m.index = nil
	return def
}

// AttachType appends an already built definition (used by readers).
func (m *Module) AttachType(def *TypeDef) {
	m.Types = append(m.Types, def)
	m.index = nil
}

// GetType looks a definition up by full name; nested types use Outer/Inner.
func (m *Module) GetType(fullName string) *TypeDef {
	if m == nil {
		return nil
	}
	if m.index == nil {
		m.index = make(map[string]*TypeDef, len(m.Types))
		m.EachType(func(def *TypeDef) {
			m.index[def.FullName()] = def
		})
	}
	return m.index[fullName]
}

// EachType visits every definition depth-first, nested types after their parent.
func (m *Module) EachType(fn func(*TypeDef)) {
	var walk func(defs []*TypeDef)
	walk = func(defs []*TypeDef) {
		for _, def := range defs {
			fn(def)
			walk(def.Nested)
		}
	}
	walk(m.Types)
}

func (m *Module) String() string {
	if m == nil {
		return "<nil module>"
	}
	return m.Name
}

// TypeDef is a type defined by a module.
type TypeDef struct {
	Ref        *TypeRef
	BaseType   *TypeRef
	Interfaces []*TypeRef
	Fields     []*FieldDef
	Properties []*PropertyDef
	Methods    []*MethodDef
	Nested     []*TypeDef
}

// FullName of the definition.
func (d *TypeDef) FullName() string { return d.Ref.FullName() }

// Module returns the owning module.
func (d *TypeDef) Module() *Module { return d.Ref.Module }

// DefineNested adds a nested type definition.
func (d *TypeDef) DefineNested(name string) *TypeDef {
	ref := NewNestedTypeRef(d.Ref, name)
	ref.Module = d.Ref.Module
	nested := &TypeDef{Ref: ref}
	d.Nested = append(d.Nested, nested)
	if m := d.Ref.Module; m != nil {
		m.index = nil
	}
	return nested
}

// AddGenericParam declares a type-level generic parameter.
func (d *TypeDef) AddGenericParam(name string) *TypeRef {
	return d.Ref.AddGenericParam(name)
}

// DefineMethod adds a method; declaration order is preserved.
func (d *TypeDef) DefineMethod(name string, ret *TypeRef, params ...*TypeRef) *MethodDef {
	ref := NewMethodRef(name, d.Ref, ret, params...)
	ref.Module = d.Ref.Module
	md := &MethodDef{Ref: ref}
	d.Methods = append(d.Methods, md)
	return md
}

// DefineField adds a field.
func (d *TypeDef) DefineField(name string, fieldType *TypeRef) *FieldDef {
	ref := NewFieldRef(name, d.Ref, fieldType)
	ref.Module = d.Ref.Module
	fd := &FieldDef{Ref: ref}
	d.Fields = append(d.Fields, fd)
	return fd
}

// DefineProperty adds a property.
func (d *TypeDef) DefineProperty(name string, propType *TypeRef) *PropertyDef {
	pd := &PropertyDef{Name: name, Type: propType}
	d.Properties = append(d.Properties, pd)
	return pd
}

// FindField returns the first field named name.
func (d *TypeDef) FindField(name string) *FieldDef {
	for _, f := range d.Fields {
		if f.Ref.Name == name {
			return f
		}
	}
	return nil
}

// FindMethods returns every method named name in declaration order.
func (d *TypeDef) FindMethods(name string) []*MethodDef {
	var out []*MethodDef
	for _, md := range d.Methods {
		if md.Ref.Name == name {
			out = append(out, md)
		}
	}
	return out
}

// MethodDef is a method defined by a type.
type MethodDef struct {
	Ref        *MethodRef
	ParamNames []string
	Static     bool
	Body       *Body
}

// HasBody reports whether the method carries an instruction stream.
func (md *MethodDef) HasBody() bool { return md != nil && md.Body != nil }

// EnsureBody creates an empty body if missing.
func (md *MethodDef) EnsureBody() *Body {
	if md.Body == nil {
		md.Body = &Body{}
	}
	return md.Body
}

// AddGenericParam declares a method-level generic parameter.
func (md *MethodDef) AddGenericParam(name string) *TypeRef {
	return md.Ref.AddGenericParam(name)
}

// Name of the method.
func (md *MethodDef) Name() string { return md.Ref.Name }

// FieldDef is a field defined by a type.
type FieldDef struct {
	Ref    *FieldRef
	Static bool
}

// PropertyDef is a property defined by a type.
type PropertyDef struct {
	Name string
	Type *TypeRef
}

// SplitFullName splits "A.B.C" into namespace "A.B" and name "C". Nested
// names are not split.
func SplitFullName(fullName string) (namespace, name string) {
	if strings.Contains(fullName, "/") {
		return "", fullName
	}
	idx := strings.LastIndexByte(fullName, '.')
	if idx < 0 {
		return "", fullName
	}
	return fullName[:idx], fullName[idx+1:]
}

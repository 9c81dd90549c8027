package resolve

import (
	"strconv"
	"strings"

	"relink/internal/meta"
)

// Importer interns foreign references into one module. A reference is keyed
// by its structural identity, so importing two structurally equal
// references yields the same row, and the module's import table never holds
// duplicates.
type Importer struct {
	module  *meta.Module
	types   map[string]*meta.TypeRef
	methods map[string]*meta.MethodRef
	fields  map[string]*meta.FieldRef
}

// NewImporter creates the intern table for m, seeded with the rows m
// already imports.
func NewImporter(m *meta.Module) *Importer {
	im := &Importer{
		module:  m,
		types:   make(map[string]*meta.TypeRef, 64+len(m.Imports.Types)),
		methods: make(map[string]*meta.MethodRef, 64+len(m.Imports.Methods)),
		fields:  make(map[string]*meta.FieldRef, 16+len(m.Imports.Fields)),
	}
	for _, t := range m.Imports.Types {
		im.types[typeKey(t)] = t
	}
	for _, md := range m.Imports.Methods {
		im.methods[methodKey(md)] = md
	}
	for _, f := range m.Imports.Fields {
		im.fields[fieldKey(f)] = f
	}
	return im
}

// Module returns the module references are imported into.
func (im *Importer) Module() *meta.Module { return im.module }

// Type returns t if the module owns it already, else its interned copy.
func (im *Importer) Type(t *meta.TypeRef) *meta.TypeRef {
	if t == nil || t.Module == im.module {
		return t
	}
	key := typeKey(t)
	if got, ok := im.types[key]; ok {
		return got
	}
	cp := *t
	cp.Module = im.module
	cp.DeclaringType = im.Type(t.DeclaringType)
	cp.Elem = im.Type(t.Elem)
	cp.Args = im.typeList(t.Args)
	cp.GenericParams = im.typeList(t.GenericParams)
	im.types[key] = &cp
	im.module.Imports.Types = append(im.module.Imports.Types, &cp)
	return &cp
}

// Method returns m if the module owns it already, else its interned copy.
func (im *Importer) Method(m *meta.MethodRef) *meta.MethodRef {
	if m == nil || m.Module == im.module {
		return m
	}
	key := methodKey(m)
	if got, ok := im.methods[key]; ok {
		return got
	}
	cp := *m
	cp.Module = im.module
	cp.DeclaringType = im.Type(m.DeclaringType)
	cp.ReturnType = im.Type(m.ReturnType)
	cp.Params = im.typeList(m.Params)
	cp.GenericParams = im.typeList(m.GenericParams)
	cp.Elem = im.Method(m.Elem)
	cp.GenericArgs = im.typeList(m.GenericArgs)
	im.methods[key] = &cp
	im.module.Imports.Methods = append(im.module.Imports.Methods, &cp)
	return &cp
}

// Field returns f if the module owns it already, else its interned copy.
func (im *Importer) Field(f *meta.FieldRef) *meta.FieldRef {
	if f == nil || f.Module == im.module {
		return f
	}
	key := fieldKey(f)
	if got, ok := im.fields[key]; ok {
		return got
	}
	cp := *f
	cp.Module = im.module
	cp.DeclaringType = im.Type(f.DeclaringType)
	cp.FieldType = im.Type(f.FieldType)
	im.fields[key] = &cp
	im.module.Imports.Fields = append(im.module.Imports.Fields, &cp)
	return &cp
}

func (im *Importer) typeList(list []*meta.TypeRef) []*meta.TypeRef {
	if list == nil {
		return nil
	}
	out := make([]*meta.TypeRef, len(list))
	for i, t := range list {
		out[i] = im.Type(t)
	}
	return out
}

func typeKey(t *meta.TypeRef) string {
	var sb strings.Builder
	writeTypeKey(&sb, t)
	return sb.String()
}

func writeTypeKey(sb *strings.Builder, t *meta.TypeRef) {
	if t == nil {
		sb.WriteString("nil")
		return
	}
	switch t.Kind {
	case meta.KindSimple:
		sb.WriteString("T{")
		sb.WriteString(t.Scope)
		sb.WriteByte('}')
		sb.WriteString(t.FullName())
		if t.ValueType {
			sb.WriteByte('$')
		}
	case meta.KindArray:
		sb.WriteByte('A')
		sb.WriteString(strconv.Itoa(t.Rank))
		sb.WriteByte('[')
		writeTypeKey(sb, t.Elem)
		sb.WriteByte(']')
	case meta.KindByReference:
		sb.WriteString("B[")
		writeTypeKey(sb, t.Elem)
		sb.WriteByte(']')
	case meta.KindGenericInstance:
		sb.WriteString("G[")
		writeTypeKey(sb, t.Elem)
		sb.WriteByte('<')
		for i, a := range t.Args {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeTypeKey(sb, a)
		}
		sb.WriteString(">]")
	case meta.KindGenericParameter:
		sb.WriteByte('P')
		sb.WriteString(strconv.Itoa(int(t.Owner)))
		sb.WriteByte('.')
		sb.WriteString(strconv.Itoa(t.Position))
		sb.WriteByte(':')
		sb.WriteString(t.Name)
		sb.WriteByte('{')
		sb.WriteString(t.Scope)
		sb.WriteByte('}')
	default:
		sb.WriteString("?")
	}
}

func methodKey(m *meta.MethodRef) string {
	var sb strings.Builder
	writeMethodKey(&sb, m)
	return sb.String()
}

func writeMethodKey(sb *strings.Builder, m *meta.MethodRef) {
	if m.Elem != nil {
		sb.WriteString("I{")
		writeMethodKey(sb, m.Elem)
		sb.WriteString("}<")
		for i, a := range m.GenericArgs {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeTypeKey(sb, a)
		}
		sb.WriteByte('>')
		return
	}
	sb.WriteString("M{")
	writeTypeKey(sb, m.DeclaringType)
	sb.WriteByte('}')
	sb.WriteString(m.Name)
	sb.WriteByte('`')
	sb.WriteString(strconv.Itoa(len(m.GenericParams)))
	sb.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			sb.WriteByte(',')
		}
		writeTypeKey(sb, p)
	}
	sb.WriteString("):")
	writeTypeKey(sb, m.ReturnType)
	sb.WriteByte('#')
	sb.WriteString(strconv.Itoa(int(m.CallConv)))
	if m.HasThis {
		sb.WriteByte('h')
	}
	if m.ExplicitThis {
		sb.WriteByte('x')
	}
}

func fieldKey(f *meta.FieldRef) string {
	var sb strings.Builder
	sb.WriteString("F{")
	writeTypeKey(&sb, f.DeclaringType)
	sb.WriteByte('}')
	sb.WriteString(f.Name)
	sb.WriteByte(':')
	writeTypeKey(&sb, f.FieldType)
	return sb.String()
}

package metaio

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"relink/internal/meta"
)

// Decode reads a module from r. Every reference of the result is owned by
// the returned module.
func Decode(r io.Reader) (*meta.Module, error) {
	var doc document
	if err := msgpack.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if doc.Magic != Magic {
		return nil, ErrBadMagic
	}
	if doc.Schema != SchemaVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrSchema, doc.Schema, SchemaVersion)
	}
	d := &decoder{doc: &doc, m: meta.NewModule(doc.Name, doc.Assembly)}
	if err := d.run(); err != nil {
		return nil, err
	}
	return d.m, nil
}

type decoder struct {
	doc     *document
	m       *meta.Module
	types   []*meta.TypeRef
	methods []*meta.MethodRef
	fields  []*meta.FieldRef
}

func (d *decoder) run() error {
	for _, ref := range d.doc.AssemblyRefs {
		d.m.AddAssemblyRef(ref.Name, ref.Version)
	}
	for i, row := range d.doc.Types {
		t, err := d.decodeType(i, row)
		if err != nil {
			return err
		}
		d.types = append(d.types, t)
	}
	for i, row := range d.doc.Methods {
		m, err := d.decodeMethod(i, row)
		if err != nil {
			return err
		}
		d.methods = append(d.methods, m)
	}
	for i, row := range d.doc.Fields {
		f, err := d.decodeField(i, row)
		if err != nil {
			return err
		}
		d.fields = append(d.fields, f)
	}
	for _, row := range d.doc.Defs {
		def, err := d.def(row)
		if err != nil {
			return err
		}
		d.m.AttachType(def)
	}
	return d.imports()
}

func (d *decoder) decodeType(i int, row typeRow) (*meta.TypeRef, error) {
	t := &meta.TypeRef{
		Kind:      meta.TypeKind(row.Kind),
		Namespace: row.Namespace,
		Name:      row.Name,
		Scope:     row.Scope,
		Rank:      int(row.Rank),
		Position:  int(row.Position),
		Owner:     meta.GenericOwner(row.Owner),
		ValueType: row.ValueType,
		Module:    d.m,
	}
	if t.Kind == meta.KindInvalid || t.Kind > meta.KindGenericParameter {
		return nil, fmt.Errorf("%w: type row %d has kind %d", ErrCorrupt, i, row.Kind)
	}
	var err error
	if t.DeclaringType, err = d.earlierType(i, row.Declaring); err != nil {
		return nil, err
	}
	if t.Elem, err = d.earlierType(i, row.Elem); err != nil {
		return nil, err
	}
	if t.IsWrapper() && t.Elem == nil {
		return nil, fmt.Errorf("%w: type row %d of kind %d has no element type", ErrCorrupt, i, row.Kind)
	}
	if t.IsArray() && t.Rank < 1 {
		return nil, fmt.Errorf("%w: type row %d has array rank %d", ErrCorrupt, i, row.Rank)
	}
	if t.Args, err = d.earlierTypes(i, row.Args); err != nil {
		return nil, err
	}
	if t.GenericParams, err = d.earlierTypes(i, row.GenericParams); err != nil {
		return nil, err
	}
	return t, nil
}

func (d *decoder) decodeMethod(i int, row methodRow) (*meta.MethodRef, error) {
	m := &meta.MethodRef{
		Name:         row.Name,
		HasThis:      row.HasThis,
		ExplicitThis: row.ExplicitThis,
		CallConv:     meta.CallingConvention(row.CallConv),
		Module:       d.m,
	}
	var err error
	if m.DeclaringType, err = d.typeAt(row.Declaring); err != nil {
		return nil, err
	}
	if m.ReturnType, err = d.typeAt(row.Return); err != nil {
		return nil, err
	}
	if m.Params, err = d.earlierTypes(len(d.types), row.Params); err != nil {
		return nil, err
	}
	if m.GenericParams, err = d.earlierTypes(len(d.types), row.GenericParams); err != nil {
		return nil, err
	}
	if m.GenericArgs, err = d.earlierTypes(len(d.types), row.GenericArgs); err != nil {
		return nil, err
	}
	if row.Elem != 0 {
		if int(row.Elem) > i {
			return nil, fmt.Errorf("%w: method row %d points at row %d", ErrCorrupt, i, row.Elem-1)
		}
		m.Elem = d.methods[row.Elem-1]
	}
	return m, nil
}

func (d *decoder) decodeField(i int, row fieldRow) (*meta.FieldRef, error) {
	declaring, err := d.typeAt(row.Declaring)
	if err != nil {
		return nil, fmt.Errorf("field row %d: %w", i, err)
	}
	fieldType, err := d.typeAt(row.Type)
	if err != nil {
		return nil, fmt.Errorf("field row %d: %w", i, err)
	}
	f := meta.NewFieldRef(row.Name, declaring, fieldType)
	f.Module = d.m
	return f, nil
}

func (d *decoder) def(row defRow) (*meta.TypeDef, error) {
	self, err := d.typeAt(row.Self)
	if err != nil || self == nil {
		return nil, fmt.Errorf("%w: definition without a type row", ErrCorrupt)
	}
	def := &meta.TypeDef{Ref: self}
	if def.BaseType, err = d.typeAt(row.Base); err != nil {
		return nil, err
	}
	if def.Interfaces, err = d.earlierTypes(len(d.types), row.Interfaces); err != nil {
		return nil, err
	}
	for _, fr := range row.Fields {
		f, err := d.fieldAt(fr.Ref)
		if err != nil {
			return nil, err
		}
		def.Fields = append(def.Fields, &meta.FieldDef{Ref: f, Static: fr.Static})
	}
	for _, pr := range row.Properties {
		t, err := d.typeAt(pr.Type)
		if err != nil {
			return nil, err
		}
		def.Properties = append(def.Properties, &meta.PropertyDef{Name: pr.Name, Type: t})
	}
	for _, mr := range row.Methods {
		md, err := d.methodDef(mr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", self.FullName(), err)
		}
		def.Methods = append(def.Methods, md)
	}
	for _, nr := range row.Nested {
		nested, err := d.def(nr)
		if err != nil {
			return nil, err
		}
		def.Nested = append(def.Nested, nested)
	}
	return def, nil
}

func (d *decoder) methodDef(row methodDefRow) (*meta.MethodDef, error) {
	ref, err := d.methodAt(row.Ref)
	if err != nil || ref == nil {
		return nil, fmt.Errorf("%w: method definition without a method row", ErrCorrupt)
	}
	md := &meta.MethodDef{Ref: ref, ParamNames: row.ParamNames, Static: row.Static}
	if !row.HasBody {
		return md, nil
	}
	body := md.EnsureBody()
	if body.Locals, err = d.earlierTypes(len(d.types), row.Locals); err != nil {
		return nil, err
	}
	body.Instructions = make([]*meta.Instruction, 0, len(row.Code))
	for _, ir := range row.Code {
		ins, err := d.instruction(ir)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ref.Name, err)
		}
		body.Instructions = append(body.Instructions, ins)
	}
	return md, nil
}

func (d *decoder) instruction(row instructionRow) (*meta.Instruction, error) {
	ins := &meta.Instruction{Offset: int(row.Offset), OpCode: meta.OpCode(row.OpCode)}
	switch row.Operand {
	case operandNone:
	case operandType:
		t, err := d.typeAt(row.Ref)
		if err != nil {
			return nil, err
		}
		ins.Operand = meta.TypeOperand{Type: t}
	case operandMethod:
		m, err := d.methodAt(row.Ref)
		if err != nil {
			return nil, err
		}
		ins.Operand = meta.MethodOperand{Method: m}
	case operandField:
		f, err := d.fieldAt(row.Ref)
		if err != nil {
			return nil, err
		}
		ins.Operand = meta.FieldOperand{Field: f}
	case operandString:
		ins.Operand = meta.StringOperand{Value: row.Str}
	case operandOther:
		ins.Operand = meta.OtherOperand{Value: row.Imm}
	default:
		return nil, fmt.Errorf("%w: IL_%04x has operand kind %d", ErrCorrupt, row.Offset, row.Operand)
	}
	return ins, nil
}

func (d *decoder) imports() error {
	for _, idx := range d.doc.Imports.Types {
		t, err := d.typeAt(idx)
		if err != nil {
			return err
		}
		d.m.Imports.Types = append(d.m.Imports.Types, t)
	}
	for _, idx := range d.doc.Imports.Methods {
		m, err := d.methodAt(idx)
		if err != nil {
			return err
		}
		d.m.Imports.Methods = append(d.m.Imports.Methods, m)
	}
	for _, idx := range d.doc.Imports.Fields {
		f, err := d.fieldAt(idx)
		if err != nil {
			return err
		}
		d.m.Imports.Fields = append(d.m.Imports.Fields, f)
	}
	return nil
}

// earlierType resolves a component of type row i.
func (d *decoder) earlierType(i int, idx uint32) (*meta.TypeRef, error) {
	if idx == 0 {
		return nil, nil
	}
	if int(idx) > i {
		return nil, fmt.Errorf("%w: type row %d points at row %d", ErrCorrupt, i, idx-1)
	}
	return d.types[idx-1], nil
}

func (d *decoder) earlierTypes(i int, idx []uint32) ([]*meta.TypeRef, error) {
	if len(idx) == 0 {
		return nil, nil
	}
	out := make([]*meta.TypeRef, len(idx))
	for k, v := range idx {
		t, err := d.earlierType(i, v)
		if err != nil {
			return nil, err
		}
		out[k] = t
	}
	return out, nil
}

func (d *decoder) typeAt(idx uint32) (*meta.TypeRef, error) {
	return d.earlierType(len(d.types), idx)
}

func (d *decoder) methodAt(idx uint32) (*meta.MethodRef, error) {
	if idx == 0 {
		return nil, nil
	}
	if int(idx) > len(d.methods) {
		return nil, fmt.Errorf("%w: method row %d out of range", ErrCorrupt, idx-1)
	}
	return d.methods[idx-1], nil
}

func (d *decoder) fieldAt(idx uint32) (*meta.FieldRef, error) {
	if idx == 0 {
		return nil, nil
	}
	if int(idx) > len(d.fields) {
		return nil, fmt.Errorf("%w: field row %d out of range", ErrCorrupt, idx-1)
	}
	return d.fields[idx-1], nil
}

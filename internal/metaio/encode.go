package metaio

import (
	"fmt"
	"io"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"relink/internal/meta"
)

// Encode writes m to w.
func Encode(w io.Writer, m *meta.Module) error {
	e := newEncoder()
	doc := e.document(m)
	if e.err != nil {
		return fmt.Errorf("encode %s: %w", m.Name, e.err)
	}
	if err := msgpack.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode %s: %w", m.Name, err)
	}
	return nil
}

type encoder struct {
	doc     document
	types   map[*meta.TypeRef]uint32
	methods map[*meta.MethodRef]uint32
	fields  map[*meta.FieldRef]uint32
	err     error
}

func newEncoder() *encoder {
	return &encoder{
		types:   make(map[*meta.TypeRef]uint32),
		methods: make(map[*meta.MethodRef]uint32),
		fields:  make(map[*meta.FieldRef]uint32),
	}
}

func (e *encoder) document(m *meta.Module) *document {
	e.doc = document{
		Magic:    Magic,
		Schema:   SchemaVersion,
		Name:     m.Name,
		Assembly: m.Assembly,
	}
	for _, ref := range m.AssemblyRefs {
		e.doc.AssemblyRefs = append(e.doc.AssemblyRefs, assemblyRow{Name: ref.Name, Version: ref.Version})
	}
	for _, def := range m.Types {
		e.doc.Defs = append(e.doc.Defs, e.def(def))
	}
	for _, t := range m.Imports.Types {
		e.doc.Imports.Types = append(e.doc.Imports.Types, e.typ(t))
	}
	for _, md := range m.Imports.Methods {
		e.doc.Imports.Methods = append(e.doc.Imports.Methods, e.method(md))
	}
	for _, f := range m.Imports.Fields {
		e.doc.Imports.Fields = append(e.doc.Imports.Fields, e.field(f))
	}
	return &e.doc
}

func (e *encoder) def(def *meta.TypeDef) defRow {
	row := defRow{
		Self:       e.typ(def.Ref),
		Base:       e.typ(def.BaseType),
		Interfaces: e.typeList(def.Interfaces),
	}
	for _, f := range def.Fields {
		row.Fields = append(row.Fields, fieldDefRow{Ref: e.field(f.Ref), Static: f.Static})
	}
	for _, p := range def.Properties {
		row.Properties = append(row.Properties, propertyRow{Name: p.Name, Type: e.typ(p.Type)})
	}
	for _, md := range def.Methods {
		row.Methods = append(row.Methods, e.methodDef(md))
	}
	for _, nested := range def.Nested {
		row.Nested = append(row.Nested, e.def(nested))
	}
	return row
}

func (e *encoder) methodDef(md *meta.MethodDef) methodDefRow {
	row := methodDefRow{
		Ref:        e.method(md.Ref),
		ParamNames: md.ParamNames,
		Static:     md.Static,
		HasBody:    md.HasBody(),
	}
	if !md.HasBody() {
		return row
	}
	row.Locals = e.typeList(md.Body.Locals)
	row.Code = make([]instructionRow, 0, len(md.Body.Instructions))
	for _, ins := range md.Body.Instructions {
		row.Code = append(row.Code, e.instruction(ins))
	}
	return row
}

func (e *encoder) instruction(ins *meta.Instruction) instructionRow {
	row := instructionRow{Offset: e.conv(ins.Offset), OpCode: uint16(ins.OpCode)}
	switch op := ins.Operand.(type) {
	case nil:
		row.Operand = operandNone
	case meta.TypeOperand:
		row.Operand, row.Ref = operandType, e.typ(op.Type)
	case meta.MethodOperand:
		row.Operand, row.Ref = operandMethod, e.method(op.Method)
	case meta.FieldOperand:
		row.Operand, row.Ref = operandField, e.field(op.Field)
	case meta.StringOperand:
		row.Operand, row.Str = operandString, op.Value
	case meta.OtherOperand:
		row.Operand, row.Imm = operandOther, op.Value
	default:
		panic(fmt.Sprintf("metaio: unexpected operand %T", op))
	}
	return row
}

// typ returns the row of t, encoding its components first.
func (e *encoder) typ(t *meta.TypeRef) uint32 {
	if t == nil {
		return 0
	}
	if idx, ok := e.types[t]; ok {
		return idx
	}
	row := typeRow{
		Kind:          uint8(t.Kind),
		Namespace:     t.Namespace,
		Name:          t.Name,
		Scope:         t.Scope,
		Declaring:     e.typ(t.DeclaringType),
		Elem:          e.typ(t.Elem),
		Rank:          e.conv(t.Rank),
		Args:          e.typeList(t.Args),
		GenericParams: e.typeList(t.GenericParams),
		Position:      e.conv(t.Position),
		Owner:         uint8(t.Owner),
		ValueType:     t.ValueType,
	}
	e.doc.Types = append(e.doc.Types, row)
	idx := e.conv(len(e.doc.Types))
	e.types[t] = idx
	return idx
}

func (e *encoder) method(m *meta.MethodRef) uint32 {
	if m == nil {
		return 0
	}
	if idx, ok := e.methods[m]; ok {
		return idx
	}
	row := methodRow{
		Name:          m.Name,
		Declaring:     e.typ(m.DeclaringType),
		Return:        e.typ(m.ReturnType),
		Params:        e.typeList(m.Params),
		GenericParams: e.typeList(m.GenericParams),
		Elem:          e.method(m.Elem),
		GenericArgs:   e.typeList(m.GenericArgs),
		HasThis:       m.HasThis,
		ExplicitThis:  m.ExplicitThis,
		CallConv:      uint8(m.CallConv),
	}
	e.doc.Methods = append(e.doc.Methods, row)
	idx := e.conv(len(e.doc.Methods))
	e.methods[m] = idx
	return idx
}

func (e *encoder) field(f *meta.FieldRef) uint32 {
	if f == nil {
		return 0
	}
	if idx, ok := e.fields[f]; ok {
		return idx
	}
	row := fieldRow{
		Name:      f.Name,
		Declaring: e.typ(f.DeclaringType),
		Type:      e.typ(f.FieldType),
	}
	e.doc.Fields = append(e.doc.Fields, row)
	idx := e.conv(len(e.doc.Fields))
	e.fields[f] = idx
	return idx
}

func (e *encoder) typeList(list []*meta.TypeRef) []uint32 {
	if len(list) == 0 {
		return nil
	}
	out := make([]uint32, len(list))
	for i, t := range list {
		out[i] = e.typ(t)
	}
	return out
}

// conv narrows n, recording the first overflow.
func (e *encoder) conv(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil && e.err == nil {
		e.err = err
	}
	return v
}

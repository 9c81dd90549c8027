package meta

import "fmt"

// Visitor receives every reference a module stores in its metadata, together
// with a human readable site description. Nil callbacks are skipped.
type Visitor struct {
	Type   func(site string, t *TypeRef)
	Method func(site string, m *MethodRef)
	Field  func(site string, f *FieldRef)
}

// Walk enumerates the stored reference slots of m: base types, interfaces,
// field and property types, method signatures, locals and instruction
// operands. Components of composite references are not visited separately.
func Walk(m *Module, v Visitor) {
	m.EachType(func(def *TypeDef) {
		name := def.FullName()
		if def.BaseType != nil {
			v.visitType(name+" base", def.BaseType)
		}
		for i, iface := range def.Interfaces {
			v.visitType(fmt.Sprintf("%s interface #%d", name, i), iface)
		}
		for _, f := range def.Fields {
			v.visitType(name+"::"+f.Ref.Name, f.Ref.FieldType)
		}
		for _, p := range def.Properties {
			v.visitType(name+"::"+p.Name+" property", p.Type)
		}
		for _, md := range def.Methods {
			site := name + "::" + md.Ref.Name
			v.visitType(site+" return", md.Ref.ReturnType)
			for i, p := range md.Ref.Params {
				v.visitType(fmt.Sprintf("%s param #%d", site, i), p)
			}
			if !md.HasBody() {
				continue
			}
			for i, local := range md.Body.Locals {
				v.visitType(fmt.Sprintf("%s local #%d", site, i), local)
			}
			for _, ins := range md.Body.Instructions {
				insSite := fmt.Sprintf("%s IL_%04x", site, ins.Offset)
				switch op := ins.Operand.(type) {
				case nil, StringOperand, OtherOperand:
				case TypeOperand:
					v.visitType(insSite, op.Type)
				case MethodOperand:
					if v.Method != nil {
						v.Method(insSite, op.Method)
					}
				case FieldOperand:
					if v.Field != nil {
						v.Field(insSite, op.Field)
					}
				default:
					panic(fmt.Sprintf("meta: unexpected operand %T", op))
				}
			}
		}
	})
}

func (v Visitor) visitType(site string, t *TypeRef) {
	if v.Type != nil && t != nil {
		v.Type(site, t)
	}
}

// EachComponent visits t and every type reachable from it: elements,
// generic definitions and arguments, declaring types.
func EachComponent(t *TypeRef, fn func(*TypeRef)) {
	if t == nil {
		return
	}
	fn(t)
	EachComponent(t.DeclaringType, fn)
	EachComponent(t.Elem, fn)
	for _, a := range t.Args {
		EachComponent(a, fn)
	}
}

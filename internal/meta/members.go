package meta

import "strings"

// Member is anything that can serve as a generic context: a type or a method.
type Member interface {
	FullName() string
	Declaring() *TypeRef
}

// CallingConvention is the raw calling convention byte of a method signature.
type CallingConvention uint8

const (
	CallDefault CallingConvention = 0x0
	CallVarArg  CallingConvention = 0x5
	CallGeneric CallingConvention = 0x10
)

// MethodRef references a method by name and signature.
//
// A generic method instantiation keeps the instantiated method in Elem and
// its arguments in GenericArgs; name, declaring type, return and parameter
// types are shared with Elem.
type MethodRef struct {
	Name          string
	DeclaringType *TypeRef
	ReturnType    *TypeRef
	Params        []*TypeRef
	GenericParams []*TypeRef
	Elem          *MethodRef
	GenericArgs   []*TypeRef
	HasThis       bool
	ExplicitThis  bool
	CallConv      CallingConvention
	Module        *Module
}

// NewMethodRef describes a method signature declared on declaring.
func NewMethodRef(name string, declaring, ret *TypeRef, params ...*TypeRef) *MethodRef {
	return &MethodRef{
		Name:          name,
		DeclaringType: declaring,
		ReturnType:    ret,
		Params:        append([]*TypeRef(nil), params...),
	}
}

// NewGenericInstanceMethod instantiates elem with args.
func NewGenericInstanceMethod(elem *MethodRef, args ...*TypeRef) *MethodRef {
	return &MethodRef{
		Name:          elem.Name,
		DeclaringType: elem.DeclaringType,
		ReturnType:    elem.ReturnType,
		Params:        elem.Params,
		Elem:          elem,
		GenericArgs:   append([]*TypeRef(nil), args...),
		HasThis:       elem.HasThis,
		ExplicitThis:  elem.ExplicitThis,
		CallConv:      elem.CallConv,
	}
}

// IsGenericInstance reports whether m instantiates a generic method.
func (m *MethodRef) IsGenericInstance() bool { return m != nil && m.Elem != nil }

// HasGenericParams reports whether m is a generic method definition.
func (m *MethodRef) HasGenericParams() bool { return m != nil && len(m.GenericParams) > 0 }

// Definition strips generic method instantiations.
func (m *MethodRef) Definition() *MethodRef {
	cur := m
	for cur != nil && cur.Elem != nil {
		cur = cur.Elem
	}
	return cur
}

// Declaring implements Member.
func (m *MethodRef) Declaring() *TypeRef {
	if m == nil {
		return nil
	}
	return m.DeclaringType
}

// AddGenericParam appends a method-level generic parameter.
func (m *MethodRef) AddGenericParam(name string) *TypeRef {
	scope := ""
	if m.DeclaringType != nil {
		scope = m.DeclaringType.Scope
	}
	gp := NewGenericParam(name, len(m.GenericParams), OwnerMethod, scope)
	gp.Module = m.Module
	m.GenericParams = append(m.GenericParams, gp)
	if m.CallConv&CallGeneric == 0 {
		m.CallConv |= CallGeneric
	}
	return gp
}

// CopyCallingConvention copies the calling convention flags of other.
func (m *MethodRef) CopyCallingConvention(other *MethodRef) {
	m.HasThis = other.HasThis
	m.ExplicitThis = other.ExplicitThis
	m.CallConv = other.CallConv
}

// FullName renders "Ret Decl::Name<Args>(P1,P2)".
func (m *MethodRef) FullName() string {
	if m == nil {
		return "<nil>"
	}
	var sb strings.Builder
	if m.ReturnType != nil {
		m.ReturnType.writeFullName(&sb)
	} else {
		sb.WriteString("System.Void")
	}
	sb.WriteByte(' ')
	if m.DeclaringType != nil {
		m.DeclaringType.writeFullName(&sb)
		sb.WriteString("::")
	}
	sb.WriteString(m.Name)
	if len(m.GenericArgs) > 0 {
		sb.WriteByte('<')
		for i, a := range m.GenericArgs {
			if i > 0 {
				sb.WriteByte(',')
			}
			a.writeFullName(&sb)
		}
		sb.WriteByte('>')
	}
	sb.WriteByte('(')
	for i, p := range m.Params {
		if i > 0 {
			sb.WriteByte(',')
		}
		p.writeFullName(&sb)
	}
	sb.WriteByte(')')
	return sb.String()
}

func (m *MethodRef) String() string { return m.FullName() }

// FieldRef references a field by name on its declaring type.
type FieldRef struct {
	Name          string
	DeclaringType *TypeRef
	FieldType     *TypeRef
	Module        *Module
}

// NewFieldRef describes a field of declaring.
func NewFieldRef(name string, declaring, fieldType *TypeRef) *FieldRef {
	return &FieldRef{Name: name, DeclaringType: declaring, FieldType: fieldType}
}

// FullName renders "Type Decl::Name".
func (f *FieldRef) FullName() string {
	if f == nil {
		return "<nil>"
	}
	return f.FieldType.FullName() + " " + f.DeclaringType.FullName() + "::" + f.Name
}

func (f *FieldRef) String() string { return f.FullName() }

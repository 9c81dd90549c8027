package meta

import (
	"fmt"
	"strings"
)

// TypeKind enumerates the structural variants of a type reference.
type TypeKind uint8

const (
	KindInvalid TypeKind = iota
	KindSimple
	KindArray
	KindByReference
	KindGenericInstance
	KindGenericParameter
)

func (k TypeKind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindSimple:
		return "simple"
	case KindArray:
		return "array"
	case KindByReference:
		return "byref"
	case KindGenericInstance:
		return "generic-instance"
	case KindGenericParameter:
		return "generic-parameter"
	default:
		return fmt.Sprintf("TypeKind(%d)", k)
	}
}

// GenericOwner tells whether a generic parameter is declared by a type or by a method.
type GenericOwner uint8

const (
	OwnerNone GenericOwner = iota
	OwnerType
	OwnerMethod
)

// TypeRef identifies a type by full name plus owning scope.
//
// Variants compose recursively: Elem holds the element of arrays and
// by-reference types and the generic definition of a generic instance.
type TypeRef struct {
	Kind      TypeKind
	Namespace string
	Name      string
	// Scope is the assembly the reference points into.
	Scope         string
	DeclaringType *TypeRef // nested simple types only
	Elem          *TypeRef
	Rank          int        // arrays; 1 is a vector
	Args          []*TypeRef // generic instance arguments
	GenericParams []*TypeRef // own parameters of a generic definition
	Position      int        // generic parameters
	Owner         GenericOwner
	ValueType     bool
	// Module owns the reference. nil means the reference is detached and has
	// to be imported before a module may store it.
	Module *Module
}

// Descriptor helpers ---------------------------------------------------------

// NewTypeRef describes a top-level simple type living in scope.
func NewTypeRef(namespace, name, scope string) *TypeRef {
	return &TypeRef{Kind: KindSimple, Namespace: namespace, Name: name, Scope: scope}
}

// NewNestedTypeRef describes a type nested in declaring; the scope is inherited.
func NewNestedTypeRef(declaring *TypeRef, name string) *TypeRef {
	return &TypeRef{Kind: KindSimple, Name: name, Scope: declaring.Scope, DeclaringType: declaring}
}

// NewArray describes elem[] (rank 1) or a multi-dimensional array.
func NewArray(elem *TypeRef, rank int) *TypeRef {
	if rank < 1 {
		rank = 1
	}
	return &TypeRef{Kind: KindArray, Elem: elem, Rank: rank, Scope: elem.Scope}
}

// NewByReference describes elem&.
func NewByReference(elem *TypeRef) *TypeRef {
	return &TypeRef{Kind: KindByReference, Elem: elem, Scope: elem.Scope}
}

// NewGenericInstance describes def<args...>.
func NewGenericInstance(def *TypeRef, args ...*TypeRef) *TypeRef {
	return &TypeRef{Kind: KindGenericInstance, Elem: def, Args: append([]*TypeRef(nil), args...), Scope: def.Scope}
}

// NewGenericParam describes a generic parameter placeholder. The scope is the
// scope of the owning type or method's declaring type.
func NewGenericParam(name string, position int, owner GenericOwner, scope string) *TypeRef {
	if name == "" {
		name = PositionalName(owner, position)
	}
	return &TypeRef{Kind: KindGenericParameter, Name: name, Position: position, Owner: owner, Scope: scope}
}

// PositionalName renders the placeholder name !i (type) or !!i (method).
func PositionalName(owner GenericOwner, position int) string {
	if owner == OwnerMethod {
		return fmt.Sprintf("!!%d", position)
	}
	return fmt.Sprintf("!%d", position)
}

// Predicates -----------------------------------------------------------------

func (t *TypeRef) IsArray() bool            { return t != nil && t.Kind == KindArray }
func (t *TypeRef) IsByReference() bool      { return t != nil && t.Kind == KindByReference }
func (t *TypeRef) IsGenericInstance() bool  { return t != nil && t.Kind == KindGenericInstance }
func (t *TypeRef) IsGenericParameter() bool { return t != nil && t.Kind == KindGenericParameter }

// HasGenericParams reports whether t is a generic definition.
func (t *TypeRef) HasGenericParams() bool { return t != nil && len(t.GenericParams) > 0 }

// IsWrapper reports whether t wraps another type.
func (t *TypeRef) IsWrapper() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindArray, KindByReference, KindGenericInstance:
		return true
	}
	return false
}

// ElementType strips every array, by-reference and generic instance wrapper
// and returns the innermost type. Non-wrapping types return themselves.
func (t *TypeRef) ElementType() *TypeRef {
	cur := t
	for cur.IsWrapper() && cur.Elem != nil {
		cur = cur.Elem
	}
	return cur
}

// Declaring implements Member.
func (t *TypeRef) Declaring() *TypeRef {
	if t == nil {
		return nil
	}
	return t.DeclaringType
}

// AddGenericParam appends a type-level generic parameter to a definition reference.
func (t *TypeRef) AddGenericParam(name string) *TypeRef {
	gp := NewGenericParam(name, len(t.GenericParams), OwnerType, t.Scope)
	gp.Module = t.Module
	t.GenericParams = append(t.GenericParams, gp)
	return gp
}

// Rendering ------------------------------------------------------------------

// FullName renders the reference in the conventional textual form:
// Namespace.Name, Outer/Inner, Elem[], Elem[,], Elem&, Def<A,B>, T.
func (t *TypeRef) FullName() string {
	if t == nil {
		return "<nil>"
	}
	var sb strings.Builder
	t.writeFullName(&sb)
	return sb.String()
}

func (t *TypeRef) writeFullName(sb *strings.Builder) {
	switch t.Kind {
	case KindSimple:
		if t.DeclaringType != nil {
			t.DeclaringType.writeFullName(sb)
			sb.WriteByte('/')
		} else if t.Namespace != "" {
			sb.WriteString(t.Namespace)
			sb.WriteByte('.')
		}
		sb.WriteString(t.Name)
	case KindArray:
		t.Elem.writeFullName(sb)
		sb.WriteByte('[')
		for i := 1; i < t.Rank; i++ {
			sb.WriteByte(',')
		}
		sb.WriteByte(']')
	case KindByReference:
		t.Elem.writeFullName(sb)
		sb.WriteByte('&')
	case KindGenericInstance:
		t.Elem.writeFullName(sb)
		sb.WriteByte('<')
		for i, a := range t.Args {
			if i > 0 {
				sb.WriteByte(',')
			}
			a.writeFullName(sb)
		}
		sb.WriteByte('>')
	case KindGenericParameter:
		sb.WriteString(t.Name)
	default:
		sb.WriteString("<invalid>")
	}
}

func (t *TypeRef) String() string { return t.FullName() }

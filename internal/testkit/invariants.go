package testkit

import (
	"fmt"

	"relink/internal/meta"
)

// Claim marks every detached reference reachable from m as owned by m, the
// way a module reader does for the rows it decodes. References owned by
// another module are left alone.
func Claim(m *meta.Module) {
	eachReference(m, func(_ string, owner **meta.Module) {
		if *owner == nil {
			*owner = m
		}
	})
}

// CheckOwnership verifies the interning invariant on a patched module:
//  1. every reference stored in m's metadata is owned by m;
//  2. so is every component of a composite reference;
//  3. so is every row of m's import table.
//
// The first violation is returned together with the site it was found at.
func CheckOwnership(m *meta.Module) error {
	if m == nil {
		return fmt.Errorf("nil module")
	}
	var bad error
	eachReference(m, func(site string, owner **meta.Module) {
		if bad == nil && *owner != m {
			bad = fmt.Errorf("%s: reference owned by %s, want %s", site, *owner, m)
		}
	})
	return bad
}

// eachReference visits the owner slot of every reference reachable from m.
func eachReference(m *meta.Module, fn func(site string, owner **meta.Module)) {
	var visitType func(site string, t *meta.TypeRef)
	visitType = func(site string, t *meta.TypeRef) {
		meta.EachComponent(t, func(c *meta.TypeRef) {
			fn(site+" "+c.FullName(), &c.Module)
			for _, gp := range c.GenericParams {
				fn(site+" "+gp.FullName(), &gp.Module)
			}
		})
	}
	var visitMethod func(site string, md *meta.MethodRef)
	visitMethod = func(site string, md *meta.MethodRef) {
		if md == nil {
			return
		}
		fn(site+" "+md.FullName(), &md.Module)
		visitType(site, md.DeclaringType)
		visitType(site, md.ReturnType)
		for _, p := range md.Params {
			visitType(site, p)
		}
		for _, gp := range md.GenericParams {
			visitType(site, gp)
		}
		for _, a := range md.GenericArgs {
			visitType(site, a)
		}
		visitMethod(site, md.Elem)
	}
	visitField := func(site string, f *meta.FieldRef) {
		if f == nil {
			return
		}
		fn(site+" "+f.FullName(), &f.Module)
		visitType(site, f.DeclaringType)
		visitType(site, f.FieldType)
	}

	m.EachType(func(def *meta.TypeDef) {
		visitType(def.FullName(), def.Ref)
		for _, f := range def.Fields {
			visitField(def.FullName(), f.Ref)
		}
		for _, md := range def.Methods {
			visitMethod(def.FullName(), md.Ref)
		}
	})
	meta.Walk(m, meta.Visitor{
		Type:   visitType,
		Method: visitMethod,
		Field:  visitField,
	})
	for _, t := range m.Imports.Types {
		visitType("import", t)
	}
	for _, md := range m.Imports.Methods {
		visitMethod("import", md)
	}
	for _, f := range m.Imports.Fields {
		visitField("import", f)
	}
}

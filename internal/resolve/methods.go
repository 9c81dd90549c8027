package resolve

import (
	"fmt"

	"relink/internal/diag"
	"relink/internal/meta"
	"relink/internal/sig"
)

// ResolveMethod maps a legacy method reference onto the replacement library.
//
// The declaring type is resolved strictly and its methods are scanned in
// declaration order; the first whose normalized signature equals the one of
// m wins. Without a match a best-effort reference is synthesized from the
// resolved signature types, so a single unmapped call site never aborts the
// module.
func (c *Context) ResolveMethod(m *meta.MethodRef, ctx meta.Member) *meta.MethodRef {
	if m == nil || !c.Scopes.Method(m).Legacy() {
		return m
	}
	declRef, err := c.ResolveType(m.DeclaringType, ctx, false)
	// Methods of neutral definitions such as List`1<Vector2> are never
	// looked up in a replacement library, so missing them is not reported.
	report := err != nil || c.Scopes.Type(m.DeclaringType.ElementType()).Legacy()

	var declDef *meta.TypeDef
	if err == nil && !m.DeclaringType.IsArray() {
		declDef = c.definition(declRef)
	}
	if declDef != nil {
		want := sig.Key(m, declDef.Ref, "", "")
		for _, cand := range declDef.Methods {
			if sig.Key(cand.Ref, declDef.Ref, declDef.FullName(), declRef.FullName()) == want {
				return c.bindMethod(m, cand.Ref, declRef, ctx)
			}
		}
	}
	if report && !m.DeclaringType.IsArray() {
		c.reportUnresolvedMethod(m, declRef, declDef)
	}
	return c.synthesizeMethod(m, ctx)
}

// bindMethod turns a matched library method into the reference stored at
// the call site.
func (c *Context) bindMethod(m, found *meta.MethodRef, declRef *meta.TypeRef, ctx meta.Member) *meta.MethodRef {
	bound := found
	if m.DeclaringType.IsGenericInstance() {
		// A method of a generic definition cannot be bound to an instantiated
		// type as is: rebuild it on the instance.
		bound = c.rebuildMethod(m.Definition(), declRef)
	}
	bound = c.Importer.Method(bound)
	if m.IsGenericInstance() {
		bound = c.instantiate(bound, m.GenericArgs, ctx)
	}
	return bound
}

// synthesizeMethod builds a best-effort reference to a method named like m
// on the best available declaring type.
func (c *Context) synthesizeMethod(m *meta.MethodRef, ctx meta.Member) *meta.MethodRef {
	declRef := c.permissive(m.DeclaringType, ctx)
	fallback := c.Importer.Method(c.rebuildMethod(m.Definition(), declRef))
	if m.IsGenericInstance() {
		fallback = c.instantiate(fallback, m.GenericArgs, ctx)
	}
	return fallback
}

// rebuildMethod copies the signature of def onto declRef, resolving the
// return type against declRef and parameters against the new method.
func (c *Context) rebuildMethod(def *meta.MethodRef, declRef *meta.TypeRef) *meta.MethodRef {
	out := meta.NewMethodRef(def.Name, declRef, nil)
	out.CopyCallingConvention(def)
	out.ReturnType = c.permissive(def.ReturnType, declRef)
	for _, gp := range def.GenericParams {
		out.AddGenericParam(gp.Name)
	}
	out.Params = make([]*meta.TypeRef, len(def.Params))
	for i, p := range def.Params {
		out.Params[i] = c.permissive(p, out)
	}
	return out
}

// instantiate wraps elem in a generic method instantiation. Arguments are
// resolved in the caller's context first and against the new instantiation
// when that fails.
func (c *Context) instantiate(elem *meta.MethodRef, args []*meta.TypeRef, ctx meta.Member) *meta.MethodRef {
	inst := meta.NewGenericInstanceMethod(elem)
	for _, arg := range args {
		resolved, err := c.ResolveType(arg, ctx, false)
		if err != nil {
			resolved = c.permissive(arg, inst)
		}
		inst.GenericArgs = append(inst.GenericArgs, resolved)
	}
	return c.Importer.Method(inst)
}

func (c *Context) reportUnresolvedMethod(m *meta.MethodRef, declRef *meta.TypeRef, declDef *meta.TypeDef) {
	b := diag.ReportWarning(c.Reporter, diag.ResUnresolvedMethod, m.FullName(),
		"no matching method in replacement library; synthesized reference may not load")
	if declRef == nil {
		b.WithNote("declaring type", "unresolved")
		b.Emit()
		return
	}
	b.WithNote("declaring type", fmt.Sprintf("%s [%s]", declRef.FullName(), declRef.Scope))
	if declDef != nil {
		b.WithNote("looking for", sig.Key(m, declDef.Ref, "", ""))
		for i, cand := range declDef.Methods {
			b.WithNote(fmt.Sprintf("candidate %d/%d", i+1, len(declDef.Methods)),
				sig.Key(cand.Ref, declDef.Ref, declDef.FullName(), declRef.FullName()))
		}
	}
	b.Emit()
}

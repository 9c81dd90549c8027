package resolve

import (
	"fmt"

	"relink/internal/diag"
	"relink/internal/meta"
)

// ResolveType maps t into the replacement library. ctx is the member whose
// signature or body mentions t; it resolves generic parameter placeholders.
//
// Non-legacy references are returned unchanged. A legacy reference without
// a counterpart is reported; with allowFallback it is returned as is,
// otherwise ErrUnresolvedType is returned. Composite references are rebuilt
// from their resolved components, and strict mode fails if any component is
// still legacy afterwards.
func (c *Context) ResolveType(t *meta.TypeRef, ctx meta.Member, allowFallback bool) (*meta.TypeRef, error) {
	if t == nil {
		return nil, nil
	}
	class := c.Scopes.Type(t)
	if !class.Legacy() {
		return t, nil
	}

	var found *meta.TypeRef
	if t.Kind == meta.KindSimple {
		if lib := c.library(class); lib != nil {
			if def := lib.GetType(t.FullName()); def != nil {
				found = def.Ref
			}
		}
	}
	composite := false
	if found == nil {
		switch t.Kind {
		case meta.KindByReference:
			found = meta.NewByReference(c.permissive(t.Elem, ctx))
			composite = true
		case meta.KindArray:
			found = meta.NewArray(c.permissive(t.Elem, ctx), t.Rank)
			composite = true
		case meta.KindGenericParameter:
			if ctx != nil {
				if gp := resolveGenericParam(t, ctx); gp != t {
					found = gp
				}
			}
		case meta.KindGenericInstance:
			args := make([]*meta.TypeRef, len(t.Args))
			for i, arg := range t.Args {
				args[i] = c.permissive(arg, ctx)
			}
			found = meta.NewGenericInstance(c.permissive(t.Elem, ctx), args...)
			found.ValueType = t.ValueType
			composite = true
		}
	}

	if found == nil {
		diag.ReportWarning(c.Reporter, diag.ResUnresolvedType, t.FullName(),
			fmt.Sprintf("not found in %s", c.libraryName(class))).
			WithNote("scope", t.Scope).
			Emit()
		if allowFallback {
			return t, nil
		}
		return nil, fmt.Errorf("%s: %w", t.FullName(), ErrUnresolvedType)
	}
	if composite && !allowFallback && c.Scopes.Type(found).Legacy() {
		return nil, fmt.Errorf("%s: %w", t.FullName(), ErrUnresolvedType)
	}
	return c.Importer.Type(found), nil
}

// permissive resolves t falling back to the original reference.
func (c *Context) permissive(t *meta.TypeRef, ctx meta.Member) *meta.TypeRef {
	resolved, _ := c.ResolveType(t, ctx, true)
	return resolved
}

package resolve

import (
	"relink/internal/diag"
	"relink/internal/meta"
)

// ResolveField maps a legacy field reference by name. On a generic
// instantiation the field type is resolved against the instantiated
// declaring type instead of reusing the definition's field type.
func (c *Context) ResolveField(f *meta.FieldRef, ctx meta.Member) *meta.FieldRef {
	if f == nil || !c.Scopes.Field(f).Legacy() {
		return f
	}
	declRef, err := c.ResolveType(f.DeclaringType, ctx, false)
	if err == nil {
		if def := c.definition(declRef); def != nil {
			if fd := def.FindField(f.Name); fd != nil {
				found := fd.Ref
				if f.DeclaringType.IsGenericInstance() {
					found = meta.NewFieldRef(f.Name, declRef, c.permissive(f.FieldType, declRef))
				}
				return c.Importer.Field(found)
			}
		}
	}
	if c.Scopes.Type(f.DeclaringType).Legacy() {
		b := diag.ReportWarning(c.Reporter, diag.ResUnresolvedField, f.FullName(),
			"no field with this name in replacement library")
		if declRef != nil {
			b.WithNote("declaring type", declRef.FullName()+" ["+declRef.Scope+"]")
		}
		b.Emit()
	}
	declRef = c.permissive(f.DeclaringType, ctx)
	return c.Importer.Field(meta.NewFieldRef(f.Name, declRef, c.permissive(f.FieldType, ctx)))
}

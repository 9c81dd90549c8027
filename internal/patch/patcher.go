// Package patch rewrites a module so it references the replacement library.
//
// RewriteAssemblyRefs fixes the assembly reference table; a Patcher then
// walks the type tree and replaces every legacy reference stored in
// signatures, locals and instruction operands with its resolved, interned
// counterpart.
package patch

import (
	"fmt"

	"relink/internal/meta"
	"relink/internal/resolve"
)

// StringHook sees every string load of a method body. It returns the number
// of instructions it inserted after idx; the patcher skips over them.
type StringHook interface {
	RepairLiteral(c *resolve.Context, owner *meta.MethodDef, body *meta.Body, idx int) int
}

// Stats counts what a patch pass touched.
type Stats struct {
	Types        int
	Methods      int
	Instructions int
	// Rewritten counts stored slots whose reference changed.
	Rewritten int
	Inserted  int
}

func (s Stats) String() string {
	return fmt.Sprintf("%d types, %d methods, %d instructions, %d rewritten, %d inserted",
		s.Types, s.Methods, s.Instructions, s.Rewritten, s.Inserted)
}

// Patcher walks the module of a resolve.Context.
type Patcher struct {
	c       *resolve.Context
	strings StringHook
	stats   Stats
}

// New returns a patcher for c.Module. hook may be nil.
func New(c *resolve.Context, hook StringHook) *Patcher {
	return &Patcher{c: c, strings: hook}
}

// Run patches every type of the module and returns the pass statistics.
func (p *Patcher) Run() Stats {
	for _, def := range p.c.Module.Types {
		p.patchType(def)
	}
	return p.stats
}

// Stats returns the counters collected so far.
func (p *Patcher) Stats() Stats { return p.stats }

func (p *Patcher) patchType(def *meta.TypeDef) {
	for _, nested := range def.Nested {
		p.patchType(nested)
	}
	p.stats.Types++
	ctx := def.Ref

	def.BaseType = p.typ(def.BaseType, ctx)
	for i, iface := range def.Interfaces {
		def.Interfaces[i] = p.typ(iface, ctx)
	}
	for _, f := range def.Fields {
		if p.c.Scopes.Type(f.Ref.FieldType).Legacy() {
			f.Ref.FieldType = p.typ(f.Ref.FieldType, ctx)
		}
	}
	for _, prop := range def.Properties {
		if p.c.Scopes.Type(prop.Type).Legacy() {
			prop.Type = p.typ(prop.Type, ctx)
		}
	}
	for _, md := range def.Methods {
		p.patchMethod(md)
	}
}

func (p *Patcher) patchMethod(md *meta.MethodDef) {
	p.stats.Methods++
	ctx := md.Ref

	if md.HasBody() {
		for i, local := range md.Body.Locals {
			md.Body.Locals[i] = p.typ(local, ctx)
		}
	}
	for i, param := range md.Ref.Params {
		md.Ref.Params[i] = p.typ(param, ctx)
	}
	md.Ref.ReturnType = p.typ(md.Ref.ReturnType, ctx)

	if !md.HasBody() {
		return
	}
	body := md.Body
	for i := 0; i < len(body.Instructions); i++ {
		ins := body.Instructions[i]
		p.stats.Instructions++
		switch op := ins.Operand.(type) {
		case nil, meta.OtherOperand:
		case meta.StringOperand:
			if p.strings != nil {
				n := p.strings.RepairLiteral(p.c, md, body, i)
				p.stats.Inserted += n
				i += n
			}
		case meta.TypeOperand:
			ins.Operand = meta.TypeOperand{Type: p.typ(op.Type, ctx)}
		case meta.MethodOperand:
			resolved := p.c.Importer.Method(p.c.ResolveMethod(op.Method, ctx))
			if resolved != op.Method {
				p.stats.Rewritten++
			}
			ins.Operand = meta.MethodOperand{Method: resolved}
		case meta.FieldOperand:
			resolved := p.c.Importer.Field(p.c.ResolveField(op.Field, ctx))
			if resolved != op.Field {
				p.stats.Rewritten++
			}
			ins.Operand = meta.FieldOperand{Field: resolved}
		default:
			panic(fmt.Sprintf("patch: unexpected operand %T", op))
		}
	}
}

// typ resolves a stored type slot permissively and interns the result.
func (p *Patcher) typ(t *meta.TypeRef, ctx meta.Member) *meta.TypeRef {
	if t == nil {
		return nil
	}
	resolved, _ := p.c.ResolveType(t, ctx, true)
	resolved = p.c.Importer.Type(resolved)
	if resolved != t {
		p.stats.Rewritten++
	}
	return resolved
}

package resolve

import (
	"strconv"
	"strings"

	"relink/internal/meta"
)

// resolveGenericParam finds the parameter t stands for in ctx. Names are
// tried first, then positional placeholders; a type context defers !!i to
// its declaring type. The search climbs declaring types and returns t itself
// once exhausted.
func resolveGenericParam(t *meta.TypeRef, ctx meta.Member) *meta.TypeRef {
	for ctx != nil && !isNilMember(ctx) {
		switch cur := ctx.(type) {
		case *meta.MethodRef:
			def := cur.Definition()
			if gp := byName(def.GenericParams, t.Name); gp != nil {
				return gp
			}
			if idx, ok := placeholderIndex(t.Name, "!!"); ok && idx < len(def.GenericParams) {
				return def.GenericParams[idx]
			}
		case *meta.TypeRef:
			def := cur.ElementType()
			if gp := byName(def.GenericParams, t.Name); gp != nil {
				return gp
			}
			if strings.HasPrefix(t.Name, "!!") {
				return resolveGenericParam(t, asMember(cur.DeclaringType))
			}
			if idx, ok := placeholderIndex(t.Name, "!"); ok && idx < len(def.GenericParams) {
				return def.GenericParams[idx]
			}
		}
		ctx = asMember(ctx.Declaring())
	}
	return t
}

func byName(params []*meta.TypeRef, name string) *meta.TypeRef {
	for _, gp := range params {
		if gp.Name == name {
			return gp
		}
	}
	return nil
}

// placeholderIndex parses "!3" (prefix "!") or "!!3" (prefix "!!").
func placeholderIndex(name, prefix string) (int, bool) {
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	rest := name[len(prefix):]
	if strings.HasPrefix(rest, "!") {
		return 0, false
	}
	idx, err := strconv.Atoi(rest)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

func asMember(t *meta.TypeRef) meta.Member {
	if t == nil {
		return nil
	}
	return t
}

func isNilMember(m meta.Member) bool {
	switch v := m.(type) {
	case *meta.TypeRef:
		return v == nil
	case *meta.MethodRef:
		return v == nil
	}
	return false
}

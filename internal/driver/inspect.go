package driver

import (
	"fmt"
	"strings"

	"relink/internal/config"
	"relink/internal/meta"
	"relink/internal/metaio"
	"relink/internal/scope"
)

// LegacyCounts counts stored references per kind that still point into the
// source library.
type LegacyCounts struct {
	Types   int `json:"types"`
	Methods int `json:"methods"`
	Fields  int `json:"fields"`
}

// Total returns the sum over all kinds.
func (c LegacyCounts) Total() int { return c.Types + c.Methods + c.Fields }

// Inspection summarizes a module without modifying it.
type Inspection struct {
	Path         string             `json:"path"`
	Assembly     string             `json:"assembly"`
	AssemblyRefs []meta.AssemblyRef `json:"assembly_refs"`
	Types        int                `json:"types"`
	Primary      LegacyCounts       `json:"primary"`
	Secondary    LegacyCounts       `json:"secondary"`
	// Backslashes counts string literals that contain a backslash.
	Backslashes int `json:"backslash_literals"`
}

// Inspect reads path and classifies every stored reference. Secondary
// references are counted as secondary whenever the config names a secondary
// library, whether or not it exists.
func Inspect(path string, cfg config.Config) (*Inspection, error) {
	m, err := metaio.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, ErrMissingInputModule, err)
	}
	cls := scope.NewClassifier(cfg.Scopes(true))
	out := &Inspection{
		Path:         path,
		Assembly:     m.Assembly,
		AssemblyRefs: append([]meta.AssemblyRef(nil), m.AssemblyRefs...),
	}
	counts := func(c scope.Class) *LegacyCounts {
		switch c {
		case scope.Primary:
			return &out.Primary
		case scope.Secondary:
			return &out.Secondary
		}
		return nil
	}
	meta.Walk(m, meta.Visitor{
		Type: func(_ string, t *meta.TypeRef) {
			if c := counts(cls.Type(t)); c != nil {
				c.Types++
			}
		},
		Method: func(_ string, md *meta.MethodRef) {
			if c := counts(cls.Method(md)); c != nil {
				c.Methods++
			}
		},
		Field: func(_ string, f *meta.FieldRef) {
			if c := counts(cls.Field(f)); c != nil {
				c.Fields++
			}
		},
	})
	m.EachType(func(def *meta.TypeDef) {
		out.Types++
		for _, md := range def.Methods {
			if !md.HasBody() {
				continue
			}
			for _, ins := range md.Body.Instructions {
				if s, ok := ins.Operand.(meta.StringOperand); ok && strings.Contains(s.Value, `\`) {
					out.Backslashes++
				}
			}
		}
	})
	return out, nil
}

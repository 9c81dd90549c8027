// Package scope decides whether a reference belongs to the Source Library
// namespace (primary or secondary extension) or is neutral.
//
// A composite reference is legacy as soon as any transitively reachable
// component is; leaving such a reference unresolved would leave a pointer to
// a removed library behind.
package scope

import (
	"fmt"
	"strings"

	"relink/internal/meta"
)

// Class is the outcome of classification. Higher values take precedence
// when components of a composite disagree.
type Class uint8

const (
	// Neutral references never touch the Source Library.
	Neutral Class = iota
	// Primary references touch the main Source Library namespace.
	Primary
	// Secondary references touch the optional extension namespace.
	Secondary
)

func (c Class) String() string {
	switch c {
	case Neutral:
		return "neutral"
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	default:
		return fmt.Sprintf("Class(%d)", uint8(c))
	}
}

// Legacy reports whether the class is Primary or Secondary.
func (c Class) Legacy() bool { return c != Neutral }

// Config holds namespace fragments matched against scope names.
type Config struct {
	Primary   []string
	Secondary []string
	// SecondaryEnabled is set only when the secondary replacement library was
	// actually loaded. While it is false, references into the secondary
	// namespace classify as Neutral and are left alone.
	SecondaryEnabled bool
}

// Classifier classifies type, method and field references.
type Classifier struct {
	cfg Config
}

// NewClassifier constructs a classifier for cfg.
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Config returns the configuration the classifier was built with.
func (c *Classifier) Config() Config { return c.cfg }

// ScopeName classifies a bare scope name. Secondary fragments are checked
// first since they are usually more specific than the primary ones.
func (c *Classifier) ScopeName(name string) Class {
	if name == "" {
		return Neutral
	}
	if matchAny(name, c.cfg.Secondary) {
		if c.cfg.SecondaryEnabled {
			return Secondary
		}
		return Neutral
	}
	if matchAny(name, c.cfg.Primary) {
		return Primary
	}
	return Neutral
}

// Type classifies a type reference, propagating from element types and
// generic arguments.
func (c *Classifier) Type(t *meta.TypeRef) Class {
	if t == nil {
		return Neutral
	}
	class := Neutral
	if t.IsWrapper() && t.Elem != nil {
		class = c.Type(t.Elem)
	}
	if t.IsGenericInstance() {
		for _, arg := range t.Args {
			class = max(class, c.Type(arg))
		}
	}
	return max(class, c.ScopeName(t.Scope))
}

// Method classifies a method reference from its declaring type, return
// type, parameter types and generic arguments.
func (c *Classifier) Method(m *meta.MethodRef) Class {
	if m == nil {
		return Neutral
	}
	class := Neutral
	for _, arg := range m.GenericArgs {
		class = max(class, c.Type(arg))
	}
	for _, p := range m.Params {
		class = max(class, c.Type(p))
	}
	class = max(class, c.Type(m.DeclaringType))
	return max(class, c.Type(m.ReturnType))
}

// Field classifies a field reference from its declaring and field type.
func (c *Classifier) Field(f *meta.FieldRef) Class {
	if f == nil {
		return Neutral
	}
	return max(c.Type(f.DeclaringType), c.Type(f.FieldType))
}

func matchAny(name string, fragments []string) bool {
	for _, frag := range fragments {
		if frag != "" && strings.Contains(name, frag) {
			return true
		}
	}
	return false
}

// Package resolve maps references into the Source Library onto their
// structurally equivalent counterparts in the Target Library.
//
// All state of one migration lives in a Context: the classifier, the lookup
// libraries, the module being patched with its intern table, and the
// diagnostics sink. Lookup libraries are only read; the patched module only
// ever receives interned copies of what the resolver finds.
package resolve

import (
	"errors"

	"relink/internal/diag"
	"relink/internal/meta"
	"relink/internal/scope"
)

// ErrUnresolvedType is returned by strict type resolution when a legacy
// reference has no counterpart in the replacement library.
var ErrUnresolvedType = errors.New("type not found in replacement library")

// Libraries are the read-only lookup modules of a run.
type Libraries struct {
	Target *meta.Module
	// Secondary is nil unless the secondary replacement library was loaded.
	Secondary *meta.Module
}

// Context carries everything a resolution step needs.
type Context struct {
	Scopes   *scope.Classifier
	Libs     Libraries
	Module   *meta.Module
	Importer *Importer
	Reporter diag.Reporter
}

// NewContext prepares the migration of m. Diagnostics are deduplicated so an
// unresolved type is reported once per module.
func NewContext(cls *scope.Classifier, libs Libraries, m *meta.Module, r diag.Reporter) *Context {
	if r == nil {
		r = diag.NopReporter{}
	}
	return &Context{
		Scopes:   cls,
		Libs:     libs,
		Module:   m,
		Importer: NewImporter(m),
		Reporter: diag.NewDedupReporter(r),
	}
}

// library returns the lookup module for a class, or nil.
func (c *Context) library(class scope.Class) *meta.Module {
	switch class {
	case scope.Primary:
		return c.Libs.Target
	case scope.Secondary:
		return c.Libs.Secondary
	default:
		return nil
	}
}

// definition finds the library definition a resolved reference points at.
// Arrays and generic parameters never have one.
func (c *Context) definition(t *meta.TypeRef) *meta.TypeDef {
	if t == nil || t.IsArray() || t.IsByReference() || t.IsGenericParameter() {
		return nil
	}
	if t.IsGenericInstance() {
		t = t.Elem
	}
	for _, lib := range []*meta.Module{c.Libs.Target, c.Libs.Secondary} {
		if lib != nil && lib.Assembly == t.Scope {
			return lib.GetType(t.FullName())
		}
	}
	return nil
}

func (c *Context) libraryName(class scope.Class) string {
	if lib := c.library(class); lib != nil {
		return lib.Assembly
	}
	return "replacement library"
}

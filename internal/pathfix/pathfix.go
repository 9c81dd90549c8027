// Package pathfix repairs resource path literals of a patched module.
//
// Games written against the legacy library ran on a case-insensitive file
// system with backslash separators. A Repairer fixes both problems where it
// can: it wraps string loads that use backslashes in a call to a helper that
// converts the separator at run time, and it rewrites literals whose case
// does not match the on-disk resource tree.
//
// Repair never fails: literals it cannot settle are left unchanged and
// reported.
package pathfix

import (
	"fmt"
	"path/filepath"
	"strings"

	"relink/internal/diag"
	"relink/internal/meta"
	"relink/internal/resolve"
)

// Helper names the static method that converts separators at run time. The
// method takes and returns a string.
type Helper struct {
	Assembly string
	Type     string
	Method   string
}

// Config controls a Repairer.
type Config struct {
	// Fix enables rewriting. Without it problems are only reported.
	Fix bool
	// Content is the resource directory the content loader reads from.
	Content string
	// Suffix is the compiled-resource extension dropped from rewritten
	// literals.
	Suffix string
	// Separator is the separator of the platform the game will run on.
	Separator byte
	Helper    Helper
}

// DefaultConfig returns the settings of the reference setup.
func DefaultConfig() Config {
	return Config{
		Content:   "Content",
		Suffix:    ".xnb",
		Separator: filepath.Separator,
		Helper: Helper{
			Assembly: "RelinkHelper",
			Type:     "Relink.PathHelper",
			Method:   "PatchPath",
		},
	}
}

// Repairer inspects string loads. It is bound to one resource tree and may
// be reused for every module of a run.
type Repairer struct {
	cfg  Config
	tree *Tree
}

// New returns a repairer resolving literals against tree.
func New(tree *Tree, cfg Config) *Repairer {
	if cfg.Separator == 0 {
		cfg.Separator = filepath.Separator
	}
	return &Repairer{cfg: cfg, tree: tree}
}

// Config returns the effective configuration.
func (r *Repairer) Config() Config { return r.cfg }

// RepairLiteral examines the string load at body.Instructions[idx] and
// returns the number of instructions inserted after it.
func (r *Repairer) RepairLiteral(c *resolve.Context, owner *meta.MethodDef, body *meta.Body, idx int) int {
	ins := body.Instructions[idx]
	op, ok := ins.Operand.(meta.StringOperand)
	if !ok {
		return 0
	}
	site := fmt.Sprintf("%s IL_%04x", owner.Ref.FullName(), ins.Offset)
	inserted := 0

	if r.needsWrap(op.Value, body.Next(idx)) && r.cfg.Fix {
		call := &meta.Instruction{OpCode: meta.OpCall, Operand: meta.MethodOperand{Method: r.helperRef(c)}}
		body.InsertAfter(idx, call)
		inserted++
		diag.ReportInfo(c.Reporter, diag.PathWrapped, site, fmt.Sprintf("%q", op.Value)).Emit()
	}

	if r.tree != nil {
		if fixed, changed := r.repairCase(c.Reporter, site, op.Value); changed {
			ins.Operand = meta.StringOperand{Value: fixed}
		}
	}
	return inserted
}

// needsWrap reports whether a literal relies on backslash separators and is
// not already converted. Literals below the content directory are left to
// the content loader, which converts separators itself.
func (r *Repairer) needsWrap(lit string, next *meta.Instruction) bool {
	if r.cfg.Separator == '\\' || !strings.Contains(lit, `\`) {
		return false
	}
	contentDir := r.cfg.Content + `\`
	if strings.HasPrefix(lit, contentDir) && lit != contentDir {
		return false
	}
	return !r.isHelperCall(next)
}

func (r *Repairer) isHelperCall(ins *meta.Instruction) bool {
	if ins == nil || ins.OpCode != meta.OpCall {
		return false
	}
	op, ok := ins.Operand.(meta.MethodOperand)
	return ok && op.Method != nil && op.Method.Name == r.cfg.Helper.Method
}

// helperRef interns a reference to the helper method and makes sure the
// module references the helper assembly.
func (r *Repairer) helperRef(c *resolve.Context) *meta.MethodRef {
	h := r.cfg.Helper
	if !c.Module.HasAssemblyRef(h.Assembly) {
		c.Module.AddAssemblyRef(h.Assembly, meta.Version{1, 0, 0, 0})
	}
	ns, name := meta.SplitFullName(h.Type)
	str := meta.NewTypeRef("System", "String", "mscorlib")
	m := meta.NewMethodRef(h.Method, meta.NewTypeRef(ns, name, h.Assembly), str, str)
	return c.Importer.Method(m)
}

// repairCase looks lit up in the resource tree and returns the literal with
// the on-disk spelling when it differs.
func (r *Repairer) repairCase(rep diag.Reporter, site, lit string) (string, bool) {
	res := r.tree.Locate(lit, r.cfg.Content, r.cfg.Suffix)
	switch res.Status {
	case StatusSkipped, StatusMatch:
		return lit, false
	case StatusMissing, StatusAmbiguous:
		b := diag.ReportWarning(rep, diag.PathAmbiguous, site, fmt.Sprintf("%q: %s", lit, res.Status))
		if res.Component != "" {
			b.WithNote("component", res.Component)
		}
		if res.Found != "" {
			b.WithNote("found so far", res.Found)
		}
		b.Emit()
		return lit, false
	}

	fixed := res.Found
	if r.cfg.Separator != '/' {
		fixed = strings.ReplaceAll(fixed, "/", string(r.cfg.Separator))
	}
	if !r.cfg.Fix {
		diag.ReportWarning(rep, diag.PathBroken, site, fmt.Sprintf("%q", lit)).
			WithNote("on disk", fixed).
			Emit()
		return lit, false
	}
	diag.ReportInfo(rep, diag.PathFixed, site, fmt.Sprintf("%q -> %q", lit, fixed)).Emit()
	return fixed, true
}

package patch

import (
	"fmt"
	"strings"

	"relink/internal/diag"
	"relink/internal/meta"
)

// TargetVersion is the version stamped on rewritten assembly references.
var TargetVersion = meta.Version{0, 0, 0, 1}

// AssemblyPlan describes how a module's assembly reference table changes.
type AssemblyPlan struct {
	// Source is the name of the discontinued library. References named
	// exactly Source are replaced; references named Source+".<anything>"
	// are removed.
	Source string
	Target string
	// Secondary and SecondaryTarget are honoured only when
	// SecondaryLoaded is set.
	Secondary       string
	SecondaryTarget string
	SecondaryLoaded bool
}

// AssemblyStats counts the outcome of RewriteAssemblyRefs.
type AssemblyStats struct {
	Replaced int
	Removed  int
}

// RewriteAssemblyRefs applies plan to m's assembly reference table in place.
// Rows are visited in order; a removed row does not skip its successor.
func RewriteAssemblyRefs(m *meta.Module, plan AssemblyPlan, r diag.Reporter) AssemblyStats {
	if r == nil {
		r = diag.NopReporter{}
	}
	var stats AssemblyStats
	prefix := plan.Source + "."
	refs := m.AssemblyRefs
	remove := func(i int, reason string) {
		name := refs[i].Name
		refs = append(refs[:i], refs[i+1:]...)
		stats.Removed++
		diag.ReportInfo(r, diag.AsmRemoved, name, reason).Emit()
	}
	for i := 0; i < len(refs); i++ {
		name := refs[i].Name
		target := ""
		switch {
		case name == plan.Source:
			target = plan.Target
		case plan.SecondaryLoaded && plan.Secondary != "" && name == plan.Secondary:
			target = plan.SecondaryTarget
		case strings.HasPrefix(name, prefix):
			remove(i, "sub-library of "+plan.Source)
			i--
			continue
		default:
			continue
		}
		if hasOtherRef(refs, i, target) {
			remove(i, "module already references "+target)
			i--
			continue
		}
		refs[i] = meta.AssemblyRef{Name: target, Version: TargetVersion}
		stats.Replaced++
		diag.ReportInfo(r, diag.AsmReplaced, name, fmt.Sprintf("replaced with %s %s", target, TargetVersion)).Emit()
	}
	m.AssemblyRefs = refs
	return stats
}

func hasOtherRef(refs []meta.AssemblyRef, skip int, name string) bool {
	for i, ref := range refs {
		if i != skip && ref.Name == name {
			return true
		}
	}
	return false
}

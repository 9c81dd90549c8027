// Package sig canonicalizes rendered method signatures so that two
// independently built libraries can be compared textually.
//
// The libraries are not guaranteed to expose identical generic parameter
// names or identical arity rendering, so the comparison key replaces
// generic argument lists by their count, flattens array rank markers and
// rewrites generic parameter names into positional placeholders (!i for
// type-level parameters, !!i for method-level ones).
package sig

import (
	"strconv"
	"strings"

	"relink/internal/meta"
)

// tokenBounds delimit a generic parameter name inside a parameter list.
const tokenBounds = "(),[&<>"

// Key renders the comparison key of m: its full name without the return
// type, with a leading declaring type name from rewritten to to, normalized
// against the generic parameters of declaring. Two methods are the same
// member iff their keys are equal.
func Key(m *meta.MethodRef, declaring *meta.TypeRef, from, to string) string {
	full := m.FullName()
	full = full[strings.IndexByte(full, ' ')+1:]
	if from != "" && strings.HasPrefix(full, from+"::") {
		full = to + full[len(from):]
	}
	return Normalize(full, m, declaring)
}

// Normalize applies the find-friendly rules to a rendered signature
// ("Decl::Name<...>(P1,P2)") of method m.
func Normalize(s string, m *meta.MethodRef, declaring *meta.TypeRef) string {
	m = m.Definition()
	dc := strings.Index(s, "::")
	nameStart := dc + 2
	if dc < 0 {
		dc, nameStart = 0, 0
	}
	openArgs := indexFrom(s, "(", dc)

	var genParams []string

	// Generic argument list after the name: keep only the count.
	if open := indexFrom(s, "<", dc+1); open > -1 && open < openArgs {
		closing := open
		for c := indexFrom(s, ">", open+1); c > -1 && c < openArgs; c = indexFrom(s, ">", c+1) {
			closing = c
		}
		n := len(m.GenericParams)
		if n == 0 {
			n = countGenericArgs(s[open:closing])
			genParams = inferGenericNames(m, n)
		}
		if closing > open {
			s = s[:open+1] + strconv.Itoa(n) + s[closing:]
		}
		openArgs = indexFrom(s, "(", dc)
	}

	// Generic definitions are rendered without the marker: add it.
	if open := indexFrom(s, "<", dc); (open < 0 || openArgs < open) && m.HasGenericParams() {
		pos := min(nameStart+len(m.Name), len(s))
		s = s[:pos] + "<" + strconv.Itoa(len(m.GenericParams)) + ">" + s[pos:]
		openArgs = indexFrom(s, "(", dc)
	}

	// Multi-dimensional rank markers before the name: keep only the rank.
	if open := strings.IndexByte(s, '['); open > -1 && open < dc {
		if closing := indexFrom(s, "]", open); closing > open {
			rank := 1 + strings.Count(s[open:closing], ",")
			s = s[:open+1] + strconv.Itoa(rank) + s[closing:]
			dc = strings.Index(s, "::")
			openArgs = indexFrom(s, "(", dc)
		}
	}

	if m.HasGenericParams() {
		genParams = make([]string, len(m.GenericParams))
		for i, gp := range m.GenericParams {
			genParams[i] = gp.Name
		}
	}

	if openArgs > -1 {
		closing := indexFrom(s, ")", openArgs)
		if closing < 0 {
			closing = len(s) - 1
		}
		s = s[:openArgs] + placeholders(s[openArgs:closing+1], declaring, genParams) + s[closing+1:]
	}
	return s
}

// placeholders rewrites generic parameter names inside a parameter list.
func placeholders(params string, declaring *meta.TypeRef, genParams []string) string {
	if declaring != nil {
		for i, gp := range declaring.GenericParams {
			params = replaceToken(params, gp.Name, "!"+strconv.Itoa(i))
		}
	}
	for i, name := range genParams {
		params = replaceToken(params, name, "!!"+strconv.Itoa(i))
	}
	return params
}

// replaceToken replaces name where it occurs as a whole token bounded by
// tokenBounds on both sides, so T never matches inside TKey.
func replaceToken(s, name, repl string) string {
	if name == "" || name == repl {
		return s
	}
	var sb strings.Builder
	i := 0
	for i < len(s) {
		j := strings.Index(s[i:], name)
		if j < 0 {
			break
		}
		j += i
		end := j + len(name)
		left := j > 0 && strings.IndexByte(tokenBounds, s[j-1]) >= 0
		right := end < len(s) && strings.IndexByte(tokenBounds, s[end]) >= 0
		if left && right {
			sb.WriteString(s[i:j])
			sb.WriteString(repl)
		} else {
			sb.WriteString(s[i:end])
		}
		i = end
	}
	if i == 0 {
		return s
	}
	sb.WriteString(s[i:])
	return sb.String()
}

// countGenericArgs counts the top-level arguments of "<A,B<C,D>" style
// segments; nested lists are not expanded.
func countGenericArgs(seg string) int {
	n := 1
	level := 0
	for i := 0; i < len(seg); i++ {
		switch seg[i] {
		case '<':
			level++
		case '>':
			level--
		case ',':
			if level == 1 {
				n++
			}
		}
	}
	return n
}

// inferGenericNames approximates the method generic parameter names from
// the parameters, assuming they appear there in declaration order.
func inferGenericNames(m *meta.MethodRef, n int) []string {
	names := make([]string, 0, n)
	for _, p := range m.Params {
		if len(names) == n {
			break
		}
		for p != nil && (p.IsArray() || p.IsByReference()) {
			p = p.Elem
		}
		if p.IsGenericParameter() {
			names = append(names, p.Name)
		}
	}
	return names
}

func indexFrom(s, sub string, from int) int {
	if from < 0 {
		from = 0
	}
	if from > len(s) {
		return -1
	}
	idx := strings.Index(s[from:], sub)
	if idx < 0 {
		return -1
	}
	return idx + from
}

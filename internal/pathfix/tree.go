package pathfix

import (
	"io/fs"
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Status is the outcome of a lookup in the resource tree.
type Status uint8

const (
	// StatusSkipped means the literal does not look like a relative path.
	StatusSkipped Status = iota
	// StatusMatch means the literal names an existing entry as written.
	StatusMatch
	// StatusBroken means the entry exists with a different spelling.
	StatusBroken
	// StatusMissing means a component has no case-insensitive match.
	StatusMissing
	// StatusAmbiguous means a component matches more than one entry.
	StatusAmbiguous
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusMatch:
		return "match"
	case StatusBroken:
		return "broken"
	case StatusMissing:
		return "component not found case-insensitively"
	case StatusAmbiguous:
		return "component matches several entries"
	default:
		return "unknown"
	}
}

// Result describes a lookup. Found uses forward slashes.
type Result struct {
	Status    Status
	Found     string
	Component string
}

// Tree answers case-insensitive lookups below a resource root. Directory
// listings are cached, so a Tree must not outlive changes to the files it
// reads. It is not safe for concurrent use.
type Tree struct {
	fsys  fs.FS
	fold  cases.Caser
	cache map[string][]fs.DirEntry
}

// NewTree returns a tree reading fsys.
func NewTree(fsys fs.FS) *Tree {
	return &Tree{
		fsys:  fsys,
		fold:  cases.Fold(),
		cache: make(map[string][]fs.DirEntry),
	}
}

// Locate resolves lit below the root. A literal not starting with the
// content directory is looked up inside it first. Entries named like the
// last component plus suffix match too; the suffix is not part of Found.
func (t *Tree) Locate(lit, content, suffix string) Result {
	p := strings.ReplaceAll(lit, `\`, "/")
	if !strings.Contains(p, "/") {
		return Result{Status: StatusSkipped}
	}
	lead, parts := splitPath(p)
	if len(parts) == 0 {
		return Result{Status: StatusSkipped}
	}
	rel := strings.Join(parts, "/")
	if t.exists(rel) || (content != "" && t.exists(path.Join(content, rel))) {
		return Result{Status: StatusMatch}
	}

	var res Result
	if content != "" && !t.equal(parts[0], content) {
		res = t.walk(append([]string{content}, parts...), suffix)
		if res.Status == StatusBroken {
			_, res.Found, _ = strings.Cut(res.Found, "/")
		}
		if res.Status != StatusMissing {
			return finish(res, lead, rel)
		}
	}
	return finish(t.walk(parts, suffix), lead, rel)
}

func finish(res Result, lead, rel string) Result {
	if res.Status != StatusBroken {
		return res
	}
	if res.Found == rel {
		return Result{Status: StatusMatch}
	}
	res.Found = lead + res.Found
	return res
}

// walk matches parts one level at a time starting from the root.
func (t *Tree) walk(parts []string, suffix string) Result {
	dir := "."
	found := make([]string, 0, len(parts))
	for i, part := range parts {
		last := i == len(parts)-1
		entries, err := t.readDir(dir)
		if err != nil {
			return Result{Status: StatusMissing, Component: dir, Found: strings.Join(found, "/")}
		}
		matches := t.match(entries, part, suffix, last)
		switch len(matches) {
		case 0:
			return Result{Status: StatusMissing, Component: part, Found: strings.Join(found, "/")}
		case 1:
		default:
			return Result{Status: StatusAmbiguous, Component: part, Found: strings.Join(found, "/")}
		}
		found = append(found, matches[0])
		dir = path.Join(dir, matches[0])
	}
	return Result{Status: StatusBroken, Found: strings.Join(found, "/")}
}

// match returns the distinct spellings of part among entries. Exact
// case-folded names win over names carrying the suffix.
func (t *Tree) match(entries []fs.DirEntry, part, suffix string, last bool) []string {
	var exact, suffixed []string
	for _, e := range entries {
		name := e.Name()
		if !last && !e.IsDir() {
			continue
		}
		switch {
		case t.equal(name, part):
			exact = append(exact, name)
		case last && suffix != "" && !e.IsDir() && t.equal(name, part+suffix):
			suffixed = append(suffixed, name[:len(name)-len(suffix)])
		}
	}
	if len(exact) > 0 {
		return exact
	}
	return suffixed
}

func (t *Tree) equal(a, b string) bool {
	return t.fold.String(norm.NFC.String(a)) == t.fold.String(norm.NFC.String(b))
}

func (t *Tree) exists(name string) bool {
	_, err := fs.Stat(t.fsys, name)
	return err == nil
}

func (t *Tree) readDir(dir string) ([]fs.DirEntry, error) {
	if entries, ok := t.cache[dir]; ok {
		return entries, nil
	}
	entries, err := fs.ReadDir(t.fsys, dir)
	if err != nil {
		return nil, err
	}
	t.cache[dir] = entries
	return entries, nil
}

// splitPath separates a leading "./" or "/" from the components of p.
// Paths climbing above the root yield no components.
func splitPath(p string) (lead string, parts []string) {
	switch {
	case strings.HasPrefix(p, "./"):
		lead = "./"
	case strings.HasPrefix(p, "/"):
		lead = "/"
	}
	for _, part := range strings.Split(p, "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			return lead, nil
		}
		parts = append(parts, part)
	}
	return lead, parts
}

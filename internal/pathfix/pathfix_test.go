package pathfix

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"relink/internal/diag"
	"relink/internal/meta"
	"relink/internal/resolve"
	"relink/internal/scope"
	"relink/internal/testkit"
)

func contentTree() fstest.MapFS {
	return fstest.MapFS{
		"Content/Sprites/Hero.xnb":     {},
		"Content/Sprites/Enemy.xnb":    {},
		"Content/Audio/Theme.ogg":      {},
		"Content/Maps/dup/a.xnb":       {},
		"Content/Maps/DUP/a.xnb":       {},
		"Data/Levels/One.txt":          {},
		"Content/Fonts/Ünïcode.xnb":    {},
		"Content/Sprites/Hero.xnb.bak": {},
	}
}

func TestTreeLocate(t *testing.T) {
	tree := NewTree(contentTree())
	cases := []struct {
		lit    string
		status Status
		found  string
	}{
		{"hello", StatusSkipped, ""},
		{"../etc/passwd", StatusSkipped, ""},
		{`Sprites\Hero`, StatusMatch, ""},
		{`sprites\hero`, StatusBroken, "Sprites/Hero"},
		{`content\SPRITES\enemy`, StatusBroken, "Content/Sprites/Enemy"},
		{"./audio/theme.ogg", StatusBroken, "./Audio/Theme.ogg"},
		{`Audio\Theme.ogg`, StatusMatch, ""},
		{`data\levels\one.txt`, StatusBroken, "Data/Levels/One.txt"},
		{`Sprites\Missing`, StatusMissing, ""},
		{`maps\dup\a`, StatusAmbiguous, ""},
		{`fonts\ÜNÏCODE`, StatusBroken, "Fonts/Ünïcode"},
	}
	for _, tc := range cases {
		res := tree.Locate(tc.lit, "Content", ".xnb")
		if res.Status != tc.status {
			t.Errorf("Locate(%q) status = %s, want %s", tc.lit, res.Status, tc.status)
			continue
		}
		if tc.found != "" && res.Found != tc.found {
			t.Errorf("Locate(%q) found = %q, want %q", tc.lit, res.Found, tc.found)
		}
	}
}

func TestTreeReadsDisk(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Content", "Textures")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Grass.xnb"), nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	res := NewTree(os.DirFS(root)).Locate(`TEXTURES\grass`, "Content", ".xnb")
	// A case-insensitive host file system reports the literal as a match.
	if res.Status != StatusBroken && res.Status != StatusMatch {
		t.Fatalf("status = %s", res.Status)
	}
	if res.Status == StatusBroken && res.Found != "Textures/Grass" {
		t.Fatalf("found = %q", res.Found)
	}
}

type fixture struct {
	ctx  *resolve.Context
	bag  *diag.Bag
	md   *meta.MethodDef
	body *meta.Body
}

func newFixture(lits ...string) fixture {
	m := meta.NewModule("Game.exe", testkit.GameAssembly)
	def := m.DefineType("Game", "Loader")
	md := def.DefineMethod("Load", testkit.Void())
	body := md.EnsureBody()
	for _, lit := range lits {
		body.Append(meta.OpLdstr, meta.StringOperand{Value: lit})
		body.Append(meta.OpPop, nil)
	}
	body.Append(meta.OpRet, nil)
	bag := diag.NewBag(0)
	cls := scope.NewClassifier(scope.Config{Primary: []string{testkit.Namespace}})
	ctx := resolve.NewContext(cls, resolve.Libraries{Target: testkit.TargetLibrary()}, m, diag.BagReporter{Bag: bag, Module: m.Name})
	return fixture{ctx: ctx, bag: bag, md: md, body: body}
}

func literal(t *testing.T, ins *meta.Instruction) string {
	t.Helper()
	op, ok := ins.Operand.(meta.StringOperand)
	if !ok {
		t.Fatalf("%s: not a string load", ins)
	}
	return op.Value
}

func TestRepairWrapsBackslashLiterals(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fix = true
	cfg.Separator = '/'
	r := New(nil, cfg)

	f := newFixture(`Saves\slot1.dat`)
	if n := r.RepairLiteral(f.ctx, f.md, f.body, 0); n != 1 {
		t.Fatalf("inserted %d instructions, want 1", n)
	}
	call, ok := f.body.Instructions[1].Operand.(meta.MethodOperand)
	if !ok || f.body.Instructions[1].OpCode != meta.OpCall {
		t.Fatalf("expected helper call after the load, got %s", f.body.Instructions[1])
	}
	if call.Method.Name != "PatchPath" || call.Method.Module != f.ctx.Module {
		t.Fatalf("helper call not interned: %s", call.Method)
	}
	if !f.ctx.Module.HasAssemblyRef("RelinkHelper") {
		t.Fatalf("helper assembly reference missing")
	}
	// An already wrapped load is left alone.
	if n := r.RepairLiteral(f.ctx, f.md, f.body, 0); n != 0 {
		t.Fatalf("wrapped twice")
	}
	if f.bag.Count(diag.PathWrapped) != 1 {
		t.Fatalf("expected one %s", diag.PathWrapped.ID())
	}
}

func TestRepairSkipsWrapping(t *testing.T) {
	cases := []struct {
		name string
		lit  string
		sep  byte
		fix  bool
	}{
		{"content loader", `Content\Sprites\Hero`, '/', true},
		{"native backslash", `Saves\slot1.dat`, '\\', true},
		{"no backslash", "Saves/slot1.dat", '/', true},
		{"report only", `Saves\slot1.dat`, '/', false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Fix = tc.fix
			cfg.Separator = tc.sep
			f := newFixture(tc.lit)
			if n := New(nil, cfg).RepairLiteral(f.ctx, f.md, f.body, 0); n != 0 {
				t.Fatalf("inserted %d instructions", n)
			}
		})
	}
	// The bare content directory is still wrapped.
	cfg := DefaultConfig()
	cfg.Fix = true
	cfg.Separator = '/'
	f := newFixture(`Content\`)
	if n := New(nil, cfg).RepairLiteral(f.ctx, f.md, f.body, 0); n != 1 {
		t.Fatalf(`Content\ should be wrapped`)
	}
}

func TestRepairRewritesCase(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Fix = true
	cfg.Separator = '/'
	r := New(NewTree(contentTree()), cfg)

	f := newFixture("sprites/hero", "maps/dup/a")
	r.RepairLiteral(f.ctx, f.md, f.body, 0)
	r.RepairLiteral(f.ctx, f.md, f.body, 2)

	if got := literal(t, f.body.Instructions[0]); got != "Sprites/Hero" {
		t.Fatalf("literal = %q, want Sprites/Hero", got)
	}
	if got := literal(t, f.body.Instructions[2]); got != "maps/dup/a" {
		t.Fatalf("ambiguous literal rewritten to %q", got)
	}
	if f.bag.Count(diag.PathFixed) != 1 || f.bag.Count(diag.PathAmbiguous) != 1 {
		t.Fatalf("unexpected diagnostics:\n%s", diag.FormatShort(f.bag.Items(), true))
	}
}

func TestRepairReportOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Separator = '/'
	r := New(NewTree(contentTree()), cfg)

	f := newFixture(`sprites\hero`)
	if n := r.RepairLiteral(f.ctx, f.md, f.body, 0); n != 0 {
		t.Fatalf("report mode inserted instructions")
	}
	if got := literal(t, f.body.Instructions[0]); got != `sprites\hero` {
		t.Fatalf("report mode rewrote literal to %q", got)
	}
	if f.bag.Count(diag.PathBroken) != 1 {
		t.Fatalf("expected one %s, got:\n%s", diag.PathBroken.ID(), diag.FormatShort(f.bag.Items(), true))
	}
}

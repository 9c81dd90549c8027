package resolve

import (
	"errors"
	"strings"
	"testing"

	"relink/internal/diag"
	"relink/internal/meta"
	"relink/internal/scope"
	"relink/internal/testkit"
)

var refs testkit.Refs

func newContext(t *testing.T, secondary bool) (*Context, *diag.Bag) {
	t.Helper()
	cfg := scope.Config{
		Primary:   []string{testkit.Namespace},
		Secondary: []string{testkit.NetNamespace},
	}
	libs := Libraries{Target: testkit.TargetLibrary()}
	if secondary {
		libs.Secondary = testkit.SecondaryReplacement()
		cfg.SecondaryEnabled = true
	}
	m := testkit.GameModule()
	bag := diag.NewBag(0)
	return NewContext(scope.NewClassifier(cfg), libs, m, diag.BagReporter{Bag: bag, Module: m.Name}), bag
}

func mustResolve(t *testing.T, c *Context, ref *meta.TypeRef) *meta.TypeRef {
	t.Helper()
	got, err := c.ResolveType(ref, nil, false)
	if err != nil {
		t.Fatalf("ResolveType(%s): %v", ref, err)
	}
	return got
}

func TestResolveTypeSameName(t *testing.T) {
	c, bag := newContext(t, false)
	for _, ref := range []*meta.TypeRef{refs.Vector2(), refs.Foo(), refs.Game(), refs.Clock(), refs.Texture2D()} {
		got := mustResolve(t, c, ref)
		if got.FullName() != ref.FullName() {
			t.Errorf("full name changed: %s -> %s", ref, got)
		}
		if got.Scope != testkit.TargetAssembly {
			t.Errorf("%s resolved into scope %q", ref, got.Scope)
		}
		if got.Module != c.Module {
			t.Errorf("%s is not owned by the patched module", got)
		}
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", diag.FormatShort(bag.Items(), true))
	}
}

func TestResolveTypeIdempotent(t *testing.T) {
	c, _ := newContext(t, false)
	inputs := []*meta.TypeRef{
		refs.Vector2(),
		refs.List(refs.Vector2()),
		meta.NewArray(refs.Vector2(), 2),
		testkit.System("Int32"),
	}
	for _, ref := range inputs {
		once := mustResolve(t, c, ref)
		twice := mustResolve(t, c, once)
		if once != twice {
			t.Errorf("resolving %s twice changed the result: %s -> %s", ref, once, twice)
		}
	}
}

func TestResolveTypeComposites(t *testing.T) {
	c, _ := newContext(t, false)
	vec := mustResolve(t, c, refs.Vector2())

	arr := mustResolve(t, c, meta.NewArray(refs.Vector2(), 1))
	if !arr.IsArray() || arr.Rank != 1 || arr.Elem != vec {
		t.Fatalf("array not rebuilt around the resolved element: %s (elem %p, want %p)", arr, arr.Elem, vec)
	}
	grid := mustResolve(t, c, meta.NewArray(refs.Vector2(), 3))
	if grid.Rank != 3 || grid.FullName() != "Microsoft.Xna.Framework.Vector2[,,]" {
		t.Fatalf("rank not preserved: %s", grid)
	}
	byref := mustResolve(t, c, meta.NewByReference(refs.Vector2()))
	if !byref.IsByReference() || byref.Elem != vec {
		t.Fatalf("by-reference not rebuilt: %s", byref)
	}
}

func TestResolveGenericInstanceArgumentWise(t *testing.T) {
	c, _ := newContext(t, false)
	vec := mustResolve(t, c, refs.Vector2())

	got := mustResolve(t, c, refs.List(refs.Vector2()))
	if !got.IsGenericInstance() {
		t.Fatalf("expected generic instance, got %s", got)
	}
	if got.Elem.Scope != testkit.TargetAssembly || got.Elem.FullName() != "Microsoft.Xna.Framework.List`1" {
		t.Fatalf("definition not resolved: %s [%s]", got.Elem, got.Elem.Scope)
	}
	if len(got.Args) != 1 || got.Args[0] != vec {
		t.Fatalf("argument not resolved: %v", got.Args)
	}

	// A neutral definition keeps its scope while its arguments move.
	sysList := meta.NewGenericInstance(meta.NewTypeRef("System.Collections.Generic", "List`1", testkit.CoreAssembly), refs.Vector2())
	mixed := mustResolve(t, c, sysList)
	if mixed.Elem.Scope != testkit.CoreAssembly || mixed.Args[0] != vec {
		t.Fatalf("mixed instance resolved wrongly: %s [%s]", mixed, mixed.Elem.Scope)
	}
}

func TestResolveTypeUnresolved(t *testing.T) {
	c, bag := newContext(t, false)
	ref := refs.StorageDevice()

	got, err := c.ResolveType(ref, nil, true)
	if err != nil || got != ref {
		t.Fatalf("permissive resolution should return the original, got %v, %v", got, err)
	}
	_, err = c.ResolveType(ref, nil, false)
	if !errors.Is(err, ErrUnresolvedType) {
		t.Fatalf("strict resolution error = %v, want ErrUnresolvedType", err)
	}
	_, err = c.ResolveType(meta.NewArray(refs.StorageDevice(), 1), nil, false)
	if !errors.Is(err, ErrUnresolvedType) {
		t.Fatalf("strict resolution of a composite with a missing element = %v", err)
	}
	if n := bag.Count(diag.ResUnresolvedType); n != 1 {
		t.Fatalf("expected a single RES5001, got %d:\n%s", n, diag.FormatShort(bag.Items(), false))
	}
}

func TestResolveGenericParam(t *testing.T) {
	method := meta.NewMethodRef("Frob", testkit.System("Object"), testkit.Void())
	mT := method.AddGenericParam("TValue")

	outer := meta.NewTypeRef("Game", "Outer`1", testkit.GameAssembly)
	oT := outer.AddGenericParam("TKey")
	inner := meta.NewNestedTypeRef(outer, "Inner")
	onInner := meta.NewMethodRef("Run", inner, testkit.Void())

	cases := []struct {
		name string
		t    *meta.TypeRef
		ctx  meta.Member
		want *meta.TypeRef
	}{
		{"method by name", meta.NewGenericParam("TValue", 0, meta.OwnerMethod, testkit.LegacyAssembly), method, mT},
		{"method by position", meta.NewGenericParam("", 0, meta.OwnerMethod, testkit.LegacyAssembly), method, mT},
		{"type by position", meta.NewGenericParam("", 0, meta.OwnerType, testkit.LegacyAssembly), outer, oT},
		{"declaring type of method", meta.NewGenericParam("!0", 0, meta.OwnerType, testkit.LegacyAssembly), onInner, oT},
		{"declaring type by name", meta.NewGenericParam("TKey", 0, meta.OwnerType, testkit.LegacyAssembly), inner, oT},
	}
	for _, tc := range cases {
		if got := resolveGenericParam(tc.t, tc.ctx); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}

	missing := meta.NewGenericParam("", 3, meta.OwnerMethod, testkit.LegacyAssembly)
	if got := resolveGenericParam(missing, method); got != missing {
		t.Fatalf("exhausted search should return the placeholder, got %v", got)
	}
}

func TestResolveMethodOverloadByArity(t *testing.T) {
	c, bag := newContext(t, false)
	for arity := 1; arity <= 2; arity++ {
		got := c.ResolveMethod(refs.Bar(arity), nil)
		if len(got.Params) != arity {
			t.Fatalf("Bar/%d bound to %s", arity, got)
		}
		if got.DeclaringType.Scope != testkit.TargetAssembly || got.Module != c.Module {
			t.Fatalf("Bar/%d not bound to the replacement library: %s [%s]", arity, got, got.DeclaringType.Scope)
		}
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", diag.FormatShort(bag.Items(), true))
	}
}

func TestResolveMethodIgnoresGenericParamNames(t *testing.T) {
	c, bag := newContext(t, false)
	got := c.ResolveMethod(refs.Find(refs.Vector2()), nil)
	if !got.IsGenericInstance() {
		t.Fatalf("expected generic instance method, got %s", got)
	}
	def := got.Definition()
	if len(def.GenericParams) != 1 || def.GenericParams[0].Name != "TItem" {
		t.Fatalf("not bound to the replacement declaration: %s", def)
	}
	if arg := got.GenericArgs[0]; arg.Scope != testkit.TargetAssembly {
		t.Fatalf("generic argument not resolved: %s [%s]", arg, arg.Scope)
	}
	if bag.Count(diag.ResUnresolvedMethod) != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", diag.FormatShort(bag.Items(), true))
	}
}

func TestResolveGenericMethodInstance(t *testing.T) {
	c, bag := newContext(t, false)
	got := c.ResolveMethod(refs.Load(refs.Texture2D()), nil)
	if !got.IsGenericInstance() || got.Elem.DeclaringType.Scope != testkit.TargetAssembly {
		t.Fatalf("Load not rebound: %s", got)
	}
	if arg := got.GenericArgs[0]; arg.FullName() != "Microsoft.Xna.Framework.Graphics.Texture2D" || arg.Scope != testkit.TargetAssembly {
		t.Fatalf("bad generic argument %s [%s]", arg, arg.Scope)
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", diag.FormatShort(bag.Items(), true))
	}
}

func TestResolveMethodOnGenericInstance(t *testing.T) {
	c, bag := newContext(t, false)
	got := c.ResolveMethod(refs.ListAdd(refs.Vector2()), nil)
	decl := got.DeclaringType
	if !decl.IsGenericInstance() || decl.Elem.Scope != testkit.TargetAssembly || decl.Args[0].Scope != testkit.TargetAssembly {
		t.Fatalf("declaring type not resolved: %s", decl)
	}
	if len(got.Params) != 1 {
		t.Fatalf("params lost: %s", got)
	}
	p := got.Params[0]
	if !p.IsGenericParameter() || p.Name != "T" || p.Scope != testkit.TargetAssembly {
		t.Fatalf("param should be the replacement's T, got %s [%s]", p, p.Scope)
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", diag.FormatShort(bag.Items(), true))
	}
}

func TestResolveMethodFallback(t *testing.T) {
	c, bag := newContext(t, false)
	got := c.ResolveMethod(refs.FooLegacy(), nil)
	if got.Name != "Legacy" || got.DeclaringType.Scope != testkit.TargetAssembly {
		t.Fatalf("fallback should rebuild the method on the resolved type, got %s", got)
	}
	if got.Module != c.Module {
		t.Fatalf("fallback reference is not interned")
	}
	items := bag.Items()
	if len(items) != 1 || items[0].Code != diag.ResUnresolvedMethod {
		t.Fatalf("expected one RES5002, got:\n%s", diag.FormatShort(items, true))
	}
	candidates := 0
	for _, n := range items[0].Notes {
		if strings.HasPrefix(n.Subject, "candidate") {
			candidates++
		}
	}
	if candidates != 3 {
		t.Fatalf("expected every Foo method as candidate, got %d notes", candidates)
	}
}

func TestResolveMethodSilentSynthesis(t *testing.T) {
	c, bag := newContext(t, false)

	getter := meta.NewMethodRef("Get", meta.NewArray(refs.Vector2(), 2), refs.Vector2(), testkit.System("Int32"), testkit.System("Int32"))
	got := c.ResolveMethod(getter, nil)
	if !got.DeclaringType.IsArray() || got.DeclaringType.Elem.Scope != testkit.TargetAssembly || got.ReturnType.Scope != testkit.TargetAssembly {
		t.Fatalf("array method not rebuilt: %s", got)
	}

	console := meta.NewTypeRef("System", "Console", testkit.CoreAssembly)
	write := meta.NewMethodRef("WriteLine", console, testkit.Void(), refs.Vector2())
	got = c.ResolveMethod(write, nil)
	if got.DeclaringType.FullName() != "System.Console" || got.Params[0].Scope != testkit.TargetAssembly {
		t.Fatalf("neutral declaring type method not rebuilt: %s", got)
	}
	if bag.Count(diag.ResUnresolvedMethod) != 0 {
		t.Fatalf("array and neutral declaring types should not be reported:\n%s", diag.FormatShort(bag.Items(), true))
	}
}

func TestResolveMethodOnNeutralGenericDefinition(t *testing.T) {
	c, bag := newContext(t, false)
	sysList := meta.NewTypeRef("System.Collections.Generic", "List`1", testkit.CoreAssembly)
	sysList.AddGenericParam("T")
	inst := meta.NewGenericInstance(sysList, refs.Vector2())
	add := meta.NewMethodRef("Add", inst, testkit.Void(), meta.NewGenericParam("!0", 0, meta.OwnerType, testkit.CoreAssembly))

	got := c.ResolveMethod(add, nil)
	decl := got.DeclaringType
	if !decl.IsGenericInstance() || decl.Elem.Scope != testkit.CoreAssembly || decl.Args[0].Scope != testkit.TargetAssembly {
		t.Fatalf("declaring type not rebuilt: %s", decl)
	}
	if got.Name != "Add" || len(got.Params) != 1 {
		t.Fatalf("method not rebuilt: %s", got)
	}
	if n := bag.Count(diag.ResUnresolvedMethod); n != 0 {
		t.Fatalf("neutral generic definition reported %d times:\n%s", n, diag.FormatShort(bag.Items(), true))
	}
}

func TestResolveNeutralFastPath(t *testing.T) {
	c, _ := newContext(t, false)
	console := meta.NewTypeRef("System", "Console", testkit.CoreAssembly)
	write := meta.NewMethodRef("WriteLine", console, testkit.Void(), testkit.System("Object"))
	if got := c.ResolveMethod(write, nil); got != write {
		t.Fatalf("neutral method should pass through, got %s", got)
	}
	f := meta.NewFieldRef("Empty", testkit.System("String"), testkit.System("String"))
	if got := c.ResolveField(f, nil); got != f {
		t.Fatalf("neutral field should pass through, got %s", got)
	}
	if c.Module.Imports.Len() != 0 {
		t.Fatalf("fast path must not import anything")
	}
}

func TestResolveFieldOnGenericInstance(t *testing.T) {
	c, bag := newContext(t, false)
	got := c.ResolveField(refs.ContainerItems(refs.Vector2()), nil)
	decl := got.DeclaringType
	if !decl.IsGenericInstance() || decl.Elem.Scope != testkit.TargetAssembly || decl.Args[0].Scope != testkit.TargetAssembly {
		t.Fatalf("declaring type not instantiated on the replacement: %s", decl)
	}
	ft := got.FieldType
	if !ft.IsArray() || !ft.Elem.IsGenericParameter() || ft.Elem.Scope != testkit.TargetAssembly {
		t.Fatalf("field type should be re-resolved against the instance, got %s [%s]", ft, ft.Elem.Scope)
	}
	if got.Module != c.Module {
		t.Fatalf("field not interned")
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", diag.FormatShort(bag.Items(), true))
	}
}

func TestResolveFieldByName(t *testing.T) {
	c, bag := newContext(t, false)
	got := c.ResolveField(refs.Vector2X(), nil)
	if got.DeclaringType.Scope != testkit.TargetAssembly || got.FieldType.FullName() != "System.Single" {
		t.Fatalf("field resolved wrongly: %s", got)
	}

	missing := meta.NewFieldRef("Gone", refs.Vector2(), testkit.System("Int32"))
	got = c.ResolveField(missing, nil)
	if got.Name != "Gone" || got.DeclaringType.Scope != testkit.TargetAssembly {
		t.Fatalf("missing field not synthesized: %s", got)
	}
	if bag.Count(diag.ResUnresolvedField) != 1 {
		t.Fatalf("expected RES5003:\n%s", diag.FormatShort(bag.Items(), true))
	}
}

func TestResolveSecondary(t *testing.T) {
	disabled, _ := newContext(t, false)
	update := refs.SessionUpdate()
	if got := disabled.ResolveMethod(update, nil); got != update {
		t.Fatalf("secondary references must be left alone when the library is missing")
	}

	enabled, bag := newContext(t, true)
	got := enabled.ResolveMethod(refs.SessionUpdate(), nil)
	if got.DeclaringType.Scope != testkit.SecondaryReplacementAssembly {
		t.Fatalf("secondary method not rebound: %s [%s]", got, got.DeclaringType.Scope)
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", diag.FormatShort(bag.Items(), true))
	}
}

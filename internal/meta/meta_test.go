package meta

import (
	"testing"
)

func TestFullNameRendering(t *testing.T) {
	vec := NewTypeRef("Ns", "Vector2", "Lib")
	list := NewTypeRef("Ns", "List`1", "Lib")
	outer := NewTypeRef("Ns", "Game", "Lib")

	cases := []struct {
		t    *TypeRef
		want string
	}{
		{vec, "Ns.Vector2"},
		{NewTypeRef("", "Global", "Lib"), "Global"},
		{NewNestedTypeRef(outer, "Clock"), "Ns.Game/Clock"},
		{NewArray(vec, 1), "Ns.Vector2[]"},
		{NewArray(vec, 3), "Ns.Vector2[,,]"},
		{NewByReference(NewArray(vec, 1)), "Ns.Vector2[]&"},
		{NewGenericInstance(list, NewGenericInstance(list, vec)), "Ns.List`1<Ns.List`1<Ns.Vector2>>"},
		{NewGenericParam("", 2, OwnerMethod, "Lib"), "!!2"},
		{NewGenericParam("", 1, OwnerType, "Lib"), "!1"},
	}
	for _, tc := range cases {
		if got := tc.t.FullName(); got != tc.want {
			t.Errorf("FullName = %q, want %q", got, tc.want)
		}
	}
}

func TestMethodFullName(t *testing.T) {
	vec := NewTypeRef("Ns", "Vector2", "Lib")
	single := NewTypeRef("System", "Single", "mscorlib")
	ctor := NewMethodRef(".ctor", vec, nil, single, single)
	if got, want := ctor.FullName(), "System.Void Ns.Vector2::.ctor(System.Single,System.Single)"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	load := NewMethodRef("Load", NewTypeRef("Ns", "Content", "Lib"), nil, NewTypeRef("System", "String", "mscorlib"))
	load.ReturnType = load.AddGenericParam("")
	if load.CallConv&CallGeneric == 0 {
		t.Fatalf("generic methods carry the generic calling convention")
	}
	inst := NewGenericInstanceMethod(load, vec)
	if got, want := inst.FullName(), "!!0 Ns.Content::Load<Ns.Vector2>(System.String)"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if inst.Definition() != load || !inst.IsGenericInstance() {
		t.Fatalf("Definition should strip the instantiation")
	}

	f := NewFieldRef("X", vec, single)
	if got, want := f.FullName(), "System.Single Ns.Vector2::X"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestModuleGetTypeNested(t *testing.T) {
	m := NewModule("Lib.dll", "Lib")
	game := m.DefineType("Ns", "Game")
	game.DefineNested("Clock")
	if m.GetType("Ns.Game/Clock") == nil {
		t.Fatalf("nested type not indexed")
	}
	m.DefineType("Ns", "Late")
	if m.GetType("Ns.Late") == nil {
		t.Fatalf("index not refreshed after DefineType")
	}
	if m.GetType("Ns.Missing") != nil {
		t.Fatalf("unexpected hit")
	}
	if d := m.GetType("Ns.Game"); d.Module() != m || d.Ref.Scope != "Lib" {
		t.Fatalf("definition not owned by its module")
	}
}

func TestBodyInsertAfter(t *testing.T) {
	var b Body
	b.Append(OpLdstr, StringOperand{Value: "a\\b"})
	b.Append(OpPop, nil)
	b.Append(OpRet, nil)
	call := &Instruction{OpCode: OpCall}
	b.InsertAfter(0, call)
	if len(b.Instructions) != 4 || b.Instructions[1] != call || b.Next(0) != call {
		t.Fatalf("instruction not inserted after position 0")
	}
	if call.Offset != b.Instructions[0].Offset {
		t.Fatalf("inserted instruction should share its predecessor offset")
	}
	if b.Instructions[2].OpCode != OpPop || b.Next(3) != nil {
		t.Fatalf("following instructions shifted incorrectly")
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("out of range insert should panic")
		}
	}()
	b.InsertAfter(9, &Instruction{})
}

func TestWalkVisitsEverySlot(t *testing.T) {
	m := NewModule("Game.exe", "Game")
	vec := NewTypeRef("Ns", "Vector2", "Lib")
	def := m.DefineType("Game", "Player")
	def.BaseType = NewTypeRef("Ns", "Game", "Lib")
	def.Interfaces = []*TypeRef{NewTypeRef("Ns", "IUpdateable", "Lib")}
	def.DefineField("Pos", vec)
	def.DefineProperty("Vel", vec)
	md := def.DefineMethod("Update", vec, vec)
	body := md.EnsureBody()
	body.Locals = []*TypeRef{vec}
	body.Append(OpBox, TypeOperand{Type: vec})
	body.Append(OpCall, MethodOperand{Method: NewMethodRef("Foo", vec, nil)})
	body.Append(OpLdfld, FieldOperand{Field: NewFieldRef("X", vec, vec)})
	body.Append(OpLdstr, StringOperand{Value: "x"})

	var types, methods, fields int
	Walk(m, Visitor{
		Type:   func(string, *TypeRef) { types++ },
		Method: func(string, *MethodRef) { methods++ },
		Field:  func(string, *FieldRef) { fields++ },
	})
	// base, interface, field, property, return, param, local, box operand
	if types != 8 || methods != 1 || fields != 1 {
		t.Fatalf("visited types=%d methods=%d fields=%d", types, methods, fields)
	}
}

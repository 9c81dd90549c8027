package testkit

import (
	"relink/internal/meta"
)

// Scope names used by the fixtures.
const (
	CoreAssembly                 = "mscorlib"
	LegacyAssembly               = "Microsoft.Xna.Framework"
	LegacyGameAssembly           = "Microsoft.Xna.Framework.Game"
	LegacyGraphicsAssembly       = "Microsoft.Xna.Framework.Graphics"
	LegacyStorageAssembly        = "Microsoft.Xna.Framework.Storage"
	TargetAssembly               = "FNA"
	SecondaryAssembly            = "Microsoft.Xna.Framework.Net"
	SecondaryReplacementAssembly = "MonoGame.Framework.Net"
	GameAssembly                 = "Game"

	Namespace         = "Microsoft.Xna.Framework"
	GraphicsNamespace = "Microsoft.Xna.Framework.Graphics"
	StorageNamespace  = "Microsoft.Xna.Framework.Storage"
	NetNamespace      = "Microsoft.Xna.Framework.Net"
	ContentNamespace  = "Microsoft.Xna.Framework.Content"
)

// System returns a fresh reference to System.name.
func System(name string) *meta.TypeRef {
	return meta.NewTypeRef("System", name, CoreAssembly)
}

// Void returns a fresh reference to System.Void.
func Void() *meta.TypeRef { return System("Void") }

// LegacyLibrary builds the Source Library lookup module.
func LegacyLibrary() *meta.Module { return buildLibrary(LegacyAssembly, false) }

// TargetLibrary builds the replacement library. It mirrors the legacy one
// except that Foo.Legacy and StorageDevice are missing, overloads are
// declared in a different order and generic parameters are named
// differently.
func TargetLibrary() *meta.Module { return buildLibrary(TargetAssembly, true) }

// SecondaryLibrary builds the legacy extension library.
func SecondaryLibrary() *meta.Module { return buildSecondary(SecondaryAssembly) }

// SecondaryReplacement builds the replacement of the extension library.
func SecondaryReplacement() *meta.Module { return buildSecondary(SecondaryReplacementAssembly) }

func buildLibrary(assembly string, replacement bool) *meta.Module {
	lib := meta.NewModule(assembly+".dll", assembly)

	vec := lib.DefineType(Namespace, "Vector2")
	vec.Ref.ValueType = true
	vec.DefineField("X", System("Single"))
	vec.DefineField("Y", System("Single"))
	ctor := vec.DefineMethod(".ctor", Void(), System("Single"), System("Single"))
	ctor.Ref.HasThis = true
	ctor1 := vec.DefineMethod(".ctor", Void(), System("Single"))
	ctor1.Ref.HasThis = true
	vec.DefineMethod("Add", vec.Ref, vec.Ref, vec.Ref).Static = true
	vec.DefineProperty("Length", System("Single"))

	foo := lib.DefineType(Namespace, "Foo")
	bar1 := func() { foo.DefineMethod("Bar", Void(), System("Int32")).Ref.HasThis = true }
	bar2 := func() { foo.DefineMethod("Bar", Void(), System("Int32"), System("Int32")).Ref.HasThis = true }
	if replacement {
		bar1()
		bar2()
	} else {
		bar2()
		bar1()
		foo.DefineMethod("Legacy", Void()).Static = true
	}
	foo.DefineMethod("Baz", vec.Ref, vec.Ref).Static = true

	list := lib.DefineType(Namespace, "List`1")
	lt := list.AddGenericParam("T")
	list.DefineField("Items", meta.NewArray(lt, 1))
	list.DefineMethod(".ctor", Void()).Ref.HasThis = true
	list.DefineMethod("Add", Void(), lt).Ref.HasThis = true
	list.DefineMethod("Get", lt, System("Int32")).Ref.HasThis = true

	container := lib.DefineType(Namespace, "Container`1")
	contT := container.AddGenericParam("T")
	container.DefineField("Items", meta.NewArray(contT, 1))
	container.DefineField("Count", System("Int32"))

	game := lib.DefineType(Namespace, "Game")
	game.DefineMethod("Run", Void()).Ref.HasThis = true
	clock := game.DefineNested("Clock")
	clock.DefineMethod("Tick", Void()).Ref.HasThis = true

	tex := lib.DefineType(GraphicsNamespace, "Texture2D")
	tex.DefineMethod("Dispose", Void()).Ref.HasThis = true

	content := lib.DefineType(ContentNamespace, "ContentManager")
	load := content.DefineMethod("Load", Void(), System("String"))
	load.Ref.HasThis = true
	load.Ref.ReturnType = load.AddGenericParam("T")
	itemName := "T"
	if replacement {
		itemName = "TItem"
	}
	find := content.DefineMethod("Find", System("Boolean"))
	find.Ref.HasThis = true
	item := find.AddGenericParam(itemName)
	find.Ref.Params = []*meta.TypeRef{item, meta.NewGenericInstance(list.Ref, item)}

	if !replacement {
		storage := lib.DefineType(StorageNamespace, "StorageDevice")
		storage.DefineMethod(".ctor", Void()).Ref.HasThis = true
	}

	Claim(lib)
	return lib
}

func buildSecondary(assembly string) *meta.Module {
	lib := meta.NewModule(assembly+".dll", assembly)
	session := lib.DefineType(NetNamespace, "NetworkSession")
	session.DefineMethod("Update", Void()).Ref.HasThis = true
	session.DefineField("IsHost", System("Boolean"))
	Claim(lib)
	return lib
}

// Refs builds detached references into the legacy libraries, the way a
// compiled game module stores them.
type Refs struct{}

func (Refs) Vector2() *meta.TypeRef {
	t := meta.NewTypeRef(Namespace, "Vector2", LegacyAssembly)
	t.ValueType = true
	return t
}

func (Refs) Foo() *meta.TypeRef { return meta.NewTypeRef(Namespace, "Foo", LegacyAssembly) }

func (Refs) Game() *meta.TypeRef { return meta.NewTypeRef(Namespace, "Game", LegacyGameAssembly) }

func (r Refs) Clock() *meta.TypeRef { return meta.NewNestedTypeRef(r.Game(), "Clock") }

func (Refs) Texture2D() *meta.TypeRef {
	return meta.NewTypeRef(GraphicsNamespace, "Texture2D", LegacyGraphicsAssembly)
}

func (Refs) ContentManager() *meta.TypeRef {
	return meta.NewTypeRef(ContentNamespace, "ContentManager", LegacyAssembly)
}

func (Refs) StorageDevice() *meta.TypeRef {
	return meta.NewTypeRef(StorageNamespace, "StorageDevice", LegacyStorageAssembly)
}

func (Refs) NetworkSession() *meta.TypeRef {
	return meta.NewTypeRef(NetNamespace, "NetworkSession", SecondaryAssembly)
}

// List returns Microsoft.Xna.Framework.List`1<arg>.
func (Refs) List(arg *meta.TypeRef) *meta.TypeRef {
	def := meta.NewTypeRef(Namespace, "List`1", LegacyAssembly)
	return meta.NewGenericInstance(def, arg)
}

// Container returns Microsoft.Xna.Framework.Container`1<arg>.
func (Refs) Container(arg *meta.TypeRef) *meta.TypeRef {
	def := meta.NewTypeRef(Namespace, "Container`1", LegacyAssembly)
	return meta.NewGenericInstance(def, arg)
}

// TypeParam returns the positional placeholder !i in the legacy scope.
func (Refs) TypeParam(i int) *meta.TypeRef {
	return meta.NewGenericParam("", i, meta.OwnerType, LegacyAssembly)
}

func (r Refs) Vector2Ctor() *meta.MethodRef {
	m := meta.NewMethodRef(".ctor", r.Vector2(), Void(), System("Single"), System("Single"))
	m.HasThis = true
	return m
}

func (r Refs) Bar(arity int) *meta.MethodRef {
	params := make([]*meta.TypeRef, arity)
	for i := range params {
		params[i] = System("Int32")
	}
	m := meta.NewMethodRef("Bar", r.Foo(), Void(), params...)
	m.HasThis = true
	return m
}

func (r Refs) FooLegacy() *meta.MethodRef {
	return meta.NewMethodRef("Legacy", r.Foo(), Void())
}

func (r Refs) ListAdd(arg *meta.TypeRef) *meta.MethodRef {
	m := meta.NewMethodRef("Add", r.List(arg), Void(), r.TypeParam(0))
	m.HasThis = true
	return m
}

// Load returns ContentManager::Load<arg>(System.String).
func (r Refs) Load(arg *meta.TypeRef) *meta.MethodRef {
	elem := meta.NewMethodRef("Load", r.ContentManager(), nil, System("String"))
	elem.HasThis = true
	elem.ReturnType = elem.AddGenericParam("")
	return meta.NewGenericInstanceMethod(elem, arg)
}

// Find returns ContentManager::Find<arg>(!!0,List`1<!!0>).
func (r Refs) Find(arg *meta.TypeRef) *meta.MethodRef {
	elem := meta.NewMethodRef("Find", r.ContentManager(), System("Boolean"))
	elem.HasThis = true
	gp := elem.AddGenericParam("")
	elem.Params = []*meta.TypeRef{gp, r.List(gp)}
	return meta.NewGenericInstanceMethod(elem, arg)
}

func (r Refs) ContainerItems(arg *meta.TypeRef) *meta.FieldRef {
	return meta.NewFieldRef("Items", r.Container(arg), meta.NewArray(r.TypeParam(0), 1))
}

func (r Refs) Vector2X() *meta.FieldRef {
	return meta.NewFieldRef("X", r.Vector2(), System("Single"))
}

func (r Refs) ClockTick() *meta.MethodRef {
	m := meta.NewMethodRef("Tick", r.Clock(), Void())
	m.HasThis = true
	return m
}

func (r Refs) StorageCtor() *meta.MethodRef {
	m := meta.NewMethodRef(".ctor", r.StorageDevice(), Void())
	m.HasThis = true
	return m
}

func (r Refs) SessionUpdate() *meta.MethodRef {
	m := meta.NewMethodRef("Update", r.NetworkSession(), Void())
	m.HasThis = true
	return m
}

// GameModule builds Game.exe, a module using every shape of legacy
// reference the relinker handles:
//
//   - Game.Player derives from Microsoft.Xna.Framework.Game, stores vectors
//     in fields, a property and a nested type;
//   - Game.Foo.Bar(Vector2) -> Vector2 constructs a vector, calls overloads,
//     generic methods, a generic instance method, a method missing from the
//     replacement library, a missing type, the secondary library, fields on
//     generic instances and loads string literals.
func GameModule() *meta.Module {
	var r Refs
	m := meta.NewModule("Game.exe", GameAssembly)
	m.AddAssemblyRef(CoreAssembly, meta.Version{4, 0, 0, 0})
	m.AddAssemblyRef(LegacyAssembly, meta.Version{4, 0, 0, 0})
	m.AddAssemblyRef(LegacyGameAssembly, meta.Version{4, 0, 0, 0})
	m.AddAssemblyRef(LegacyGraphicsAssembly, meta.Version{4, 0, 0, 0})
	m.AddAssemblyRef(SecondaryAssembly, meta.Version{4, 0, 0, 0})
	m.AddAssemblyRef(LegacyStorageAssembly, meta.Version{4, 0, 0, 0})

	player := m.DefineType("Game", "Player")
	player.BaseType = r.Game()
	player.DefineField("Position", r.Vector2())
	player.DefineField("Trail", r.List(r.Vector2()))
	player.DefineField("Name", System("String"))
	player.DefineProperty("Velocity", r.Vector2())
	state := player.DefineNested("State")
	state.DefineField("History", meta.NewArray(r.Vector2(), 1))
	state.DefineField("Grid", meta.NewArray(r.Vector2(), 2))
	update := player.DefineMethod("Update", Void(), meta.NewByReference(r.Vector2()))
	update.Ref.HasThis = true
	ub := update.EnsureBody()
	ub.Locals = []*meta.TypeRef{r.Clock()}
	ub.Append(meta.OpLdloc, meta.OtherOperand{Value: 0})
	ub.Append(meta.OpCall, meta.MethodOperand{Method: r.ClockTick()})
	ub.Append(meta.OpRet, nil)

	foo := m.DefineType("Game", "Foo")
	bar := foo.DefineMethod("Bar", r.Vector2(), r.Vector2())
	bar.ParamNames = []string{"v"}
	bar.Static = true
	body := bar.EnsureBody()
	body.Locals = []*meta.TypeRef{r.Vector2(), r.List(r.Vector2()), r.Texture2D()}
	body.Append(meta.OpLdcI4, meta.OtherOperand{Value: 1})
	body.Append(meta.OpLdcI4, meta.OtherOperand{Value: 2})
	body.Append(meta.OpNewobj, meta.MethodOperand{Method: r.Vector2Ctor()})
	body.Append(meta.OpStloc, meta.OtherOperand{Value: 0})
	body.Append(meta.OpCall, meta.MethodOperand{Method: r.Bar(2)})
	body.Append(meta.OpCall, meta.MethodOperand{Method: r.Bar(1)})
	body.Append(meta.OpLdstr, meta.StringOperand{Value: "Sprites\\Hero"})
	body.Append(meta.OpCallvirt, meta.MethodOperand{Method: r.Load(r.Texture2D())})
	body.Append(meta.OpCallvirt, meta.MethodOperand{Method: r.Find(r.Vector2())})
	body.Append(meta.OpCallvirt, meta.MethodOperand{Method: r.ListAdd(r.Vector2())})
	body.Append(meta.OpLdfld, meta.FieldOperand{Field: r.ContainerItems(r.Vector2())})
	body.Append(meta.OpLdfld, meta.FieldOperand{Field: r.Vector2X()})
	body.Append(meta.OpCall, meta.MethodOperand{Method: r.FooLegacy()})
	body.Append(meta.OpNewobj, meta.MethodOperand{Method: r.StorageCtor()})
	body.Append(meta.OpCallvirt, meta.MethodOperand{Method: r.SessionUpdate()})
	body.Append(meta.OpBox, meta.TypeOperand{Type: r.Vector2()})
	body.Append(meta.OpLdstr, meta.StringOperand{Value: "hello"})
	body.Append(meta.OpLdloc, meta.OtherOperand{Value: 0})
	body.Append(meta.OpRet, nil)

	Claim(m)
	return m
}

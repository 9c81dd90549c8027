package metaio

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"relink/internal/meta"
	"relink/internal/testkit"
)

// listing renders every stored reference slot of m.
func listing(m *meta.Module) []string {
	var out []string
	meta.Walk(m, meta.Visitor{
		Type:   func(site string, t *meta.TypeRef) { out = append(out, site+" = "+t.FullName()+" ["+t.Scope+"]") },
		Method: func(site string, md *meta.MethodRef) { out = append(out, site+" = "+md.FullName()) },
		Field:  func(site string, f *meta.FieldRef) { out = append(out, site+" = "+f.FullName()) },
	})
	for _, ref := range m.AssemblyRefs {
		out = append(out, "assembly "+ref.Name+" "+ref.Version.String())
	}
	return out
}

func roundTrip(t *testing.T, m *meta.Module) *meta.Module {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, m); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return got
}

func TestRoundTripPreservesGraph(t *testing.T) {
	m := testkit.GameModule()
	got := roundTrip(t, m)

	if got.Name != m.Name || got.Assembly != m.Assembly {
		t.Fatalf("header = %s/%s", got.Name, got.Assembly)
	}
	if want, have := listing(m), listing(got); !reflect.DeepEqual(want, have) {
		t.Fatalf("listing differs:\nwant %q\nhave %q", want, have)
	}
	if err := testkit.CheckOwnership(got); err != nil {
		t.Fatalf("decoded module: %v", err)
	}

	bar := got.GetType("Game.Foo").FindMethods("Bar")[0]
	if !bar.Static || bar.ParamNames[0] != "v" {
		t.Fatalf("method attributes lost: %+v", bar)
	}
	if bar.Ref.DeclaringType != got.GetType("Game.Foo").Ref {
		t.Fatalf("declaring type of a definition should be the definition's row")
	}
	state := got.GetType("Game.Player/State")
	if state == nil || state.Ref.DeclaringType != got.GetType("Game.Player").Ref {
		t.Fatalf("nested type lost its parent")
	}
}

func TestRoundTripKeepsSharing(t *testing.T) {
	m := meta.NewModule("Lib.dll", "Lib")
	def := m.DefineType("Lib", "Box`1")
	tp := def.AddGenericParam("T")
	def.DefineField("Value", tp)
	md := def.DefineMethod("Get", tp)
	md.Ref.HasThis = true
	inst := meta.NewGenericInstanceMethod(md.Ref, testkit.System("Int32"))
	inst.Module = m
	m.Imports.Methods = append(m.Imports.Methods, inst)

	got := roundTrip(t, m)
	box := got.GetType("Lib.Box`1")
	gp := box.Ref.GenericParams[0]
	if box.Fields[0].Ref.FieldType != gp || box.Methods[0].Ref.ReturnType != gp {
		t.Fatalf("generic parameter row not shared")
	}
	imported := got.Imports.Methods[0]
	if imported.Elem != box.Methods[0].Ref || !imported.HasThis {
		t.Fatalf("generic instance lost its element method: %s", imported)
	}
}

func TestDecodeRejects(t *testing.T) {
	encode := func(doc document) []byte {
		data, err := msgpack.Marshal(&doc)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return data
	}
	cases := []struct {
		name string
		data []byte
		want error
	}{
		{"magic", encode(document{Magic: "ELF!", Schema: SchemaVersion}), ErrBadMagic},
		{"schema", encode(document{Magic: Magic, Schema: SchemaVersion + 1}), ErrSchema},
		{"forward reference", encode(document{
			Magic: Magic, Schema: SchemaVersion,
			Types: []typeRow{{Kind: uint8(meta.KindArray), Elem: 1, Rank: 1}},
		}), ErrCorrupt},
		{"array without element", encode(document{
			Magic: Magic, Schema: SchemaVersion,
			Types: []typeRow{{Kind: uint8(meta.KindArray), Rank: 1}},
		}), ErrCorrupt},
		{"by-reference without element", encode(document{
			Magic: Magic, Schema: SchemaVersion,
			Types: []typeRow{{Kind: uint8(meta.KindByReference)}},
		}), ErrCorrupt},
		{"generic instance without definition", encode(document{
			Magic: Magic, Schema: SchemaVersion,
			Types: []typeRow{{Kind: uint8(meta.KindGenericInstance)}},
		}), ErrCorrupt},
		{"array without rank", encode(document{
			Magic: Magic, Schema: SchemaVersion,
			Types: []typeRow{
				{Kind: uint8(meta.KindSimple), Namespace: "System", Name: "Int32", Scope: "mscorlib"},
				{Kind: uint8(meta.KindArray), Elem: 1},
			},
		}), ErrCorrupt},
		{"bad kind", encode(document{
			Magic: Magic, Schema: SchemaVersion,
			Types: []typeRow{{Kind: 99}},
		}), ErrCorrupt},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tc.data))
			if !errors.Is(err, tc.want) {
				t.Fatalf("Decode error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Game.exe")

	if _, err := ReadFile(path); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("ReadFile of a missing file = %v", err)
	}
	m := testkit.GameModule()
	if err := WriteFile(m, path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !reflect.DeepEqual(listing(m), listing(got)) {
		t.Fatalf("file round trip changed the module")
	}

	// Overwriting in place leaves no temporary files behind.
	if err := WriteFile(got, path); err != nil {
		t.Fatalf("WriteFile over existing: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("directory holds %d entries, want 1", len(entries))
	}
}

package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"relink/internal/diag"
)

func sampleBag() *diag.Bag {
	bag := diag.NewBag(10)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.ResUnresolvedMethod,
		Module:   "Game.exe",
		Subject:  "System.Void Microsoft.Xna.Framework.Foo::Legacy()",
		Message:  "no matching method in replacement library",
		Notes:    []diag.Note{{Subject: "candidate 1/3", Msg: "Microsoft.Xna.Framework.Foo::Bar(System.Int32)"}},
	})
	bag.Add(diag.New(diag.SevError, diag.IOMissingInputModule, "Missing.exe", "file does not exist"))
	return bag
}

func TestPretty(t *testing.T) {
	tests := []struct {
		name     string
		opts     PrettyOpts
		contains []string
		absent   []string
	}{
		{
			name:     "plain",
			opts:     PrettyOpts{},
			contains: []string{"Game.exe: WARNING RES5002 System.Void Microsoft.Xna.Framework.Foo::Legacy(): no matching", "ERROR IO4003 Missing.exe: file does not exist"},
			absent:   []string{"note:", "\x1b["},
		},
		{
			name:     "notes",
			opts:     PrettyOpts{ShowNotes: true},
			contains: []string{"  note: candidate 1/3: Microsoft.Xna.Framework.Foo::Bar(System.Int32)"},
		},
		{
			name:     "max and summary",
			opts:     PrettyOpts{Max: 1, Summary: true},
			contains: []string{"1 error, 1 warning (1 not shown)"},
			absent:   []string{"IO4003"},
		},
		{
			name:     "color",
			opts:     PrettyOpts{Color: true},
			contains: []string{"\x1b["},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Pretty(&buf, sampleBag(), tt.opts); err != nil {
				t.Fatalf("Pretty: %v", err)
			}
			out := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("output does not contain %q:\n%s", want, out)
				}
			}
			for _, bad := range tt.absent {
				if strings.Contains(out, bad) {
					t.Errorf("output contains %q:\n%s", bad, out)
				}
			}
		})
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleBag(), JSONOpts{IncludeNotes: true}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 2 || out.Diagnostics[0].Code != "RES5002" || out.Diagnostics[1].Severity != "ERROR" {
		t.Fatalf("unexpected output: %+v", out)
	}
	if len(out.Diagnostics[0].Notes) != 1 || out.Diagnostics[0].Notes[0].Subject != "candidate 1/3" {
		t.Fatalf("notes missing: %+v", out.Diagnostics[0])
	}

	trimmed := BuildDiagnosticsOutput(sampleBag(), JSONOpts{Max: 1})
	if trimmed.Count != 1 || trimmed.Diagnostics[0].Notes != nil {
		t.Fatalf("Max/IncludeNotes not honoured: %+v", trimmed)
	}
}

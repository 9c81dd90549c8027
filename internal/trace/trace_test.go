package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"off", LevelOff, false},
		{"", LevelOff, false},
		{"PHASE", LevelPhase, false},
		{"detail", LevelDetail, false},
		{"debug", LevelDebug, false},
		{"verbose", LevelOff, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level   Level
		scope   Scope
		emit    bool
		retains bool
	}{
		{LevelPhase, ScopePass, true, true},
		{LevelPhase, ScopeModule, false, false},
		{LevelDetail, ScopeModule, true, true},
		{LevelDetail, ScopeReference, false, false},
		{LevelDebug, ScopeReference, true, true},
		{LevelError, ScopeDriver, false, true},
		{LevelError, ScopeReference, false, false},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.emit {
			t.Errorf("%v.ShouldEmit(%v) = %v", tt.level, tt.scope, got)
		}
		if got := tt.level.Retains(tt.scope); got != tt.retains {
			t.Errorf("%v.Retains(%v) = %v", tt.level, tt.scope, got)
		}
	}
}

func TestStreamText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)

	root := Begin(tr, ScopeDriver, "patch", 0)
	mod := Begin(tr, ScopeModule, "module:Game.exe", root.ID())
	Begin(tr, ScopeReference, "Microsoft.Xna.Framework.Vector2", mod.ID()).End("")
	mod.WithExtra("rewritten", "12").WithExtra("inserted", "1").End("ok")
	root.End("")

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[2], "← module:Game.exe (ok) {inserted=1, rewritten=12}") {
		t.Errorf("module end line = %q", lines[2])
	}
	if strings.Contains(out, "Vector2") {
		t.Errorf("reference scope leaked at detail level:\n%s", out)
	}
}

func TestStreamNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatNDJSON)
	span := Begin(tr, ScopePass, "read", 7)
	span.End("3 modules")

	dec := json.NewDecoder(&buf)
	var kinds []string
	for dec.More() {
		var ev jsonEvent
		if err := dec.Decode(&ev); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if ev.Scope != "pass" || ev.ParentID != 7 || ev.SpanID != span.ID() {
			t.Errorf("unexpected event %+v", ev)
		}
		kinds = append(kinds, ev.Kind)
	}
	if strings.Join(kinds, ",") != "begin,end" {
		t.Fatalf("kinds = %v", kinds)
	}
}

func TestRingWrapsAndDumps(t *testing.T) {
	ring := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		Point(ring, ScopeReference, name, "", 0)
	}
	snap := ring.Snapshot()
	if len(snap) != 3 || snap[0].Name != "c" || snap[2].Name != "e" {
		t.Fatalf("snapshot = %+v", snap)
	}
	var buf bytes.Buffer
	if err := ring.Dump(&buf, FormatText); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if strings.Count(buf.String(), "• ") != 3 {
		t.Fatalf("dump:\n%s", buf.String())
	}
}

func TestNewModes(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		name     string
		cfg      Config
		wantRing bool
		stream   bool
	}{
		{"off", Config{Level: LevelOff}, false, false},
		{"error forces ring", Config{Level: LevelError, Mode: ModeStream, Output: &buf}, true, false},
		{"stream", Config{Level: LevelPhase, Mode: ModeStream, Output: &buf}, false, true},
		{"both", Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tr, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if got := RingOf(tr) != nil; got != tt.wantRing {
				t.Errorf("ring present = %v", got)
			}
			Begin(tr, ScopeDriver, "run", 0).End("")
			if got := buf.Len() > 0; got != tt.stream {
				t.Errorf("streamed = %v", got)
			}
			if err := tr.Close(); err != nil {
				t.Errorf("Close: %v", err)
			}
		})
	}
}

func TestContext(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("empty context should yield Nop")
	}
	ring := NewRingTracer(16, LevelDebug)
	ctx := WithTracer(context.Background(), ring)
	if FromContext(ctx) != ring {
		t.Fatalf("tracer not found in context")
	}

	root, ctx := Start(ctx, ScopeDriver, "patch", "")
	mod, mctx := Start(ctx, ScopeModule, "module:Game.exe", "Game.exe")
	if sc := CurrentSpan(mctx); sc.SpanID != mod.ID() || sc.Module != "Game.exe" {
		t.Fatalf("module span context = %+v", sc)
	}
	Mark(mctx, ScopeReference, "RES5002 Foo::Legacy()", "no match")
	mod.End("")
	root.End("")

	snap := ring.Snapshot()
	if len(snap) != 5 {
		t.Fatalf("got %d events, want 5", len(snap))
	}
	mark := snap[2]
	if mark.Kind != KindPoint || mark.ParentID != mod.ID() || mark.Module != "Game.exe" {
		t.Fatalf("mark = %+v", mark)
	}
	if snap[0].Module != "" || snap[4].Module != "" {
		t.Fatalf("run span tagged with a module: %+v", snap[0])
	}
}

func TestStartUnderFilteredSpan(t *testing.T) {
	ring := NewRingTracer(16, LevelPhase)
	ctx := WithTracer(context.Background(), ring)
	root, ctx := Start(ctx, ScopeDriver, "patch", "")
	mod, mctx := Start(ctx, ScopeModule, "module:Game.exe", "Game.exe")
	if mod.ID() != 0 {
		t.Fatalf("module span should be filtered at phase level")
	}
	pass, _ := Start(mctx, ScopePass, "write", "")
	pass.End("")
	root.End("")

	snap := ring.Snapshot()
	if len(snap) != 4 || snap[1].ParentID != root.ID() || snap[1].Module != "Game.exe" {
		t.Fatalf("pass span not attached to the run: %+v", snap)
	}
}

func TestRingDumpModule(t *testing.T) {
	ring := NewRingTracer(4, LevelDebug)
	point(ring, ScopePass, "load-libraries", "", 0, "")
	point(ring, ScopeReference, "a", "", 0, "Title.exe")
	point(ring, ScopeReference, "b", "", 0, "Game.exe")
	point(ring, ScopeReference, "c", "", 0, "Title.exe")
	point(ring, ScopeReference, "d", "", 0, "Game.exe")

	if ring.Dropped() != 1 {
		t.Fatalf("Dropped = %d, want 1", ring.Dropped())
	}
	var buf bytes.Buffer
	if err := ring.DumpModule(&buf, FormatText, "Game.exe"); err != nil {
		t.Fatalf("DumpModule: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "(1 earlier events dropped)\n") {
		t.Errorf("missing drop note:\n%s", out)
	}
	if strings.Contains(out, "• a") || strings.Contains(out, "• c") || !strings.Contains(out, "• b") || !strings.Contains(out, "• d") {
		t.Errorf("events of other modules leaked:\n%s", out)
	}

	buf.Reset()
	if err := ring.DumpModule(&buf, FormatNDJSON, "Game.exe"); err != nil {
		t.Fatalf("DumpModule: %v", err)
	}
	var ev jsonEvent
	if err := json.NewDecoder(&buf).Decode(&ev); err != nil || ev.Module != "Game.exe" {
		t.Fatalf("first NDJSON event = %+v, %v", ev, err)
	}
}

func TestMultiTracer(t *testing.T) {
	var buf bytes.Buffer
	stream := NewStreamTracer(&buf, LevelPhase, FormatText)
	ring := NewRingTracer(8, LevelDebug)
	m := NewMultiTracer(stream, Nop, nil, ring)
	if m.Level() != LevelDebug || m.Ring() != ring {
		t.Fatalf("level = %v, ring = %v", m.Level(), m.Ring())
	}
	Point(m, ScopeReference, "Vector2", "", 0)
	if buf.Len() != 0 || len(ring.Snapshot()) != 1 {
		t.Fatalf("children did not filter on their own levels")
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

package ui

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"relink/internal/pipeline"
)

func TestApplyEvent(t *testing.T) {
	events := make(chan pipeline.Event)
	m := NewProgressModel("relink", []string{"Game.exe", "Engine.dll"}, events).(*progressModel)

	m.applyEvent(pipeline.Event{Stage: pipeline.StageLoad, Status: pipeline.StatusWorking})
	m.applyEvent(pipeline.Event{Module: "Game.exe", Stage: pipeline.StagePatch, Status: pipeline.StatusWorking})
	m.applyEvent(pipeline.Event{Module: "Engine.dll", Stage: pipeline.StageWrite, Status: pipeline.StatusDone})
	m.applyEvent(pipeline.Event{Module: "Other.dll", Stage: pipeline.StageRead, Status: pipeline.StatusWorking})

	if m.stageLabel != "loading" {
		t.Errorf("stage label = %q", m.stageLabel)
	}
	if m.items[0].status != "patching" || m.items[1].status != "done" {
		t.Errorf("items = %+v", m.items)
	}
	if got := m.fraction(); got != 0.75 {
		t.Errorf("fraction = %v, want 0.75", got)
	}
	view := m.View()
	if !strings.Contains(view, "relink (loading)") || !strings.Contains(view, "Engine.dll") {
		t.Errorf("view:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"Game.exe", 20, "Game.exe"},
		{"/very/long/install/path/Game.exe", 20, "/very/lo.../Game.exe"},
		{"abcdefgh", 3, "abc"},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.width)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
		if runewidth.StringWidth(got) > tt.width {
			t.Errorf("truncate(%q, %d) is %d cells wide", tt.in, tt.width, runewidth.StringWidth(got))
		}
	}
}

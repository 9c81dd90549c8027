package main

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"relink/internal/driver"
	"relink/internal/pipeline"
	"relink/internal/ui"
)

// progressUI reads --ui. auto shows the progress display only when the
// pretty output goes to a terminal and --quiet is off.
func progressUI(value string, quiet bool, format string, out io.Writer) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on":
		if format == "json" {
			return false, errors.New("--ui=on cannot be combined with --format json")
		}
		return true, nil
	case "off":
		return false, nil
	case "", "auto":
		f, ok := out.(*os.File)
		return ok && !quiet && format == "pretty" && isTerminal(f), nil
	}
	return false, errInvalidFlag("--ui", value, "auto|on|off")
}

type runOutcome struct {
	result *driver.Result
	err    error
}

// runWithUI runs req on a goroutine while the progress UI renders its events.
func runWithUI(ctx context.Context, out io.Writer, title string, req driver.Request) (*driver.Result, error) {
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		reqCopy := req
		reqCopy.Progress = pipeline.ChannelSink{Ch: events}
		res, err := driver.Run(ctx, reqCopy)
		outcomeCh <- runOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, req.Modules, events)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithInput(nil))
	_, uiErr := program.Run()
	// the driver must never block on a UI that has gone away
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}

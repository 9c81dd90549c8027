// Package pipeline describes the progress of a relink run as a stream of
// events.
package pipeline

import "time"

// Stage describes one step of processing a module.
type Stage string

const (
	// StageLoad loads the replacement libraries. Events for it carry no module.
	StageLoad Stage = "load"
	// StageRead reads a module from disk.
	StageRead Stage = "read"
	// StageReferences rewrites the assembly reference table.
	StageReferences Stage = "references"
	// StagePatch retargets the type tree.
	StagePatch Stage = "patch"
	// StageWrite writes the module back.
	StageWrite Stage = "write"
)

// Stages lists the per-module stages in execution order.
var Stages = []Stage{StageRead, StageReferences, StagePatch, StageWrite}

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the module is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the stage is running.
	StatusWorking Status = "working"
	// StatusDone indicates the module is finished.
	StatusDone Status = "done"
	// StatusError indicates the module failed.
	StatusError Status = "error"
)

// Event reports progress for a module (or for the whole run when Module is empty).
type Event struct {
	Module  string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// Timings holds stage durations of one module.
type Timings struct {
	stages map[Stage]time.Duration
}

// Add accumulates a duration for the given stage.
func (t *Timings) Add(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
	t.stages[stage] += dur
}

// Has reports whether a duration for stage is recorded.
func (t Timings) Has(stage Stage) bool {
	_, ok := t.stages[stage]
	return ok
}

// Duration returns the recorded duration for stage.
func (t Timings) Duration(stage Stage) time.Duration {
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages, or across
// all stages when none are given.
func (t Timings) Sum(stages ...Stage) time.Duration {
	if len(stages) == 0 {
		stages = Stages
	}
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}

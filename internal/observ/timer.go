package observ

import (
	"fmt"
	"strings"
	"time"

	"relink/internal/pipeline"
)

// Phase is one timed stage. Module is empty for run-wide stages such as
// loading the replacement libraries.
type Phase struct {
	Stage  pipeline.Stage
	Module string
	Start  time.Time
	Dur    time.Duration
	Failed bool
}

// Name renders the phase as "<stage> <module>".
func (p Phase) Name() string {
	if p.Module == "" {
		return string(p.Stage)
	}
	return string(p.Stage) + " " + p.Module
}

// Timer records the stages of a run in the order they began.
type Timer struct {
	phases []Phase
}

// NewTimer creates an empty Timer.
func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 1+4*len(pipeline.Stages))} }

// Begin starts timing stage for module and returns the phase index.
func (t *Timer) Begin(stage pipeline.Stage, module string) int {
	t.phases = append(t.phases, Phase{Stage: stage, Module: module, Start: time.Now()})
	return len(t.phases) - 1
}

// End stops the phase at idx and returns its duration. A non-nil err marks
// the phase failed. Unknown indices are ignored.
func (t *Timer) End(idx int, err error) time.Duration {
	if idx < 0 || idx >= len(t.phases) {
		return 0
	}
	p := &t.phases[idx]
	p.Dur = time.Since(p.Start)
	p.Failed = err != nil
	return p.Dur
}

// Stage sums the time spent in stage over all modules.
func (t *Timer) Stage(stage pipeline.Stage) time.Duration {
	var total time.Duration
	for _, p := range t.phases {
		if p.Stage == stage {
			total += p.Dur
		}
	}
	return total
}

// Len returns the number of recorded phases.
func (t *Timer) Len() int { return len(t.phases) }

// Summary renders one line per phase followed by per-stage totals.
func (t *Timer) Summary() string {
	report := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range report.Phases {
		name := p.Stage
		if p.Module != "" {
			name += " " + p.Module
		}
		fmt.Fprintf(&sb, "  %-28s %7.2f ms", name, p.DurationMS)
		if p.Failed {
			sb.WriteString("  // failed")
		}
		sb.WriteByte('\n')
	}
	for _, st := range append([]pipeline.Stage{pipeline.StageLoad}, pipeline.Stages...) {
		if ms, ok := report.Stages[st]; ok {
			fmt.Fprintf(&sb, "  %-28s %7.2f ms\n", "all "+string(st), ms)
		}
	}
	fmt.Fprintf(&sb, "  %-28s %7.2f ms\n", "total", report.TotalMS)
	return sb.String()
}

// PhaseReport is the serializable form of a Phase.
type PhaseReport struct {
	Stage      string  `json:"stage"`
	Module     string  `json:"module,omitempty"`
	DurationMS float64 `json:"duration_ms"`
	Failed     bool    `json:"failed,omitempty"`
}

// Report is the serializable form of a Timer.
type Report struct {
	TotalMS float64                    `json:"total_ms"`
	Stages  map[pipeline.Stage]float64 `json:"stages,omitempty"`
	Phases  []PhaseReport              `json:"phases"`
}

// Report lists the phases with durations in milliseconds and totals them
// per stage.
func (t *Timer) Report() Report {
	if len(t.phases) == 0 {
		return Report{}
	}
	report := Report{
		Stages: make(map[pipeline.Stage]float64),
		Phases: make([]PhaseReport, len(t.phases)),
	}
	var total time.Duration
	for i, p := range t.phases {
		total += p.Dur
		ms := millis(p.Dur)
		report.Stages[p.Stage] += ms
		report.Phases[i] = PhaseReport{
			Stage:      string(p.Stage),
			Module:     p.Module,
			DurationMS: ms,
			Failed:     p.Failed,
		}
	}
	report.TotalMS = millis(total)
	return report
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

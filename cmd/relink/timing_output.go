package main

import (
	"fmt"
	"io"
	"time"

	"relink/internal/driver"
	"relink/internal/pipeline"
)

// printStageTimings prints one line per module with its stage durations,
// then the per-stage totals when more than one module ran.
func printStageTimings(out io.Writer, res *driver.Result) {
	for _, mr := range res.Modules {
		fmt.Fprintf(out, "%s:", mr.Path)
		for _, stage := range pipeline.Stages {
			if mr.Timings.Has(stage) {
				fmt.Fprintf(out, " %s %.1f ms", stage, toMillis(mr.Timings.Duration(stage)))
			}
		}
		fmt.Fprintf(out, " (total %.1f ms)\n", toMillis(mr.Timings.Sum()))
	}
	if len(res.Modules) < 2 || res.Timer == nil {
		return
	}
	fmt.Fprint(out, "all modules:")
	for _, stage := range pipeline.Stages {
		fmt.Fprintf(out, " %s %.1f ms", stage, toMillis(res.Timer.Stage(stage)))
	}
	fmt.Fprintln(out)
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

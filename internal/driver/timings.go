package driver

import (
	"encoding/json"
	"fmt"

	"relink/internal/diag"
	"relink/internal/observ"
)

type timingPayload struct {
	Kind string `json:"kind"`
	observ.Report
}

// appendTimingDiagnostic stores the timer report as an info diagnostic whose
// note carries the JSON form.
func appendTimingDiagnostic(bag *diag.Bag, timer *observ.Timer, kind string) {
	if bag == nil || timer == nil || timer.Len() == 0 {
		return
	}
	report := timer.Report()
	payload := timingPayload{Kind: kind, Report: report}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	bag.Add(diag.New(diag.SevInfo, diag.ObsTimings, "", fmt.Sprintf("timings (%s): total %.2f ms", kind, report.TotalMS)).
		WithNote("", string(data)))
}

package export

import (
	"fmt"
	"strings"

	"github.com/rfielding/checkpoint-ctl/kernel"
)

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

// VerdictTable generates a markdown table of offline CTL verdicts.
func VerdictTable(verdicts []kernel.TraceVerdict) string {
	var sb strings.Builder
	sb.WriteString("| Property | CTL Formula | Holds |\n")
	sb.WriteString("|----------|-------------|-------|\n")

	for _, v := range verdicts {
		sb.WriteString(fmt.Sprintf("| %s | `%s` | %s |\n", v.Name, v.Expr, mark(v.Holds)))
	}

	return sb.String()
}

// LivenessTable generates a markdown table of liveness results.
func LivenessTable(report kernel.LivenessReport) string {
	var sb strings.Builder
	sb.WriteString("| Property | Formula | Status | Witness Tick |\n")
	sb.WriteString("|----------|---------|--------|--------------|\n")

	for _, r := range report.Results {
		witness := "-"
		if r.Status == kernel.Confirmed {
			witness = fmt.Sprint(r.WitnessTick)
		}
		sb.WriteString(fmt.Sprintf("| %s | `%s` | %s | %s |\n", r.Formula, r.Expr, r.Status, witness))
	}

	return sb.String()
}

// ViolationTable generates a markdown table of safety violations.
func ViolationTable(violations []kernel.Violation) string {
	var sb strings.Builder
	sb.WriteString("| Tick | Property | Offenders | Detail |\n")
	sb.WriteString("|------|----------|-----------|--------|\n")

	for _, v := range violations {
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n",
			v.Tick, v.Formula, joinInts(v.Offenders), v.Detail))
	}

	return sb.String()
}

// Summary renders a complete markdown report of res, including the offline
// CTL verdicts over its trace when the trace is not empty.
func Summary(res *kernel.Result) (string, error) {
	var sb strings.Builder
	cfg := res.Config

	sb.WriteString("# Checkpoint Run\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Nodes | %d |\n", cfg.TotalNodes))
	sb.WriteString(fmt.Sprintf("| Seed | %d |\n", cfg.Seed))
	sb.WriteString(fmt.Sprintf("| Violation mode | %s |\n", cfg.ViolationMode))
	sb.WriteString(fmt.Sprintf("| Ticks | %d |\n", len(res.Trace)))
	sb.WriteString(fmt.Sprintf("| Stop reason | %s |\n", res.StopReason))
	if res.Committed {
		sb.WriteString(fmt.Sprintf("| Commit tick | %d |\n", res.CommitTick))
	}
	d := res.Diagnostics
	sb.WriteString(fmt.Sprintf("| Clamp events | %d |\n", d.ClampEvents))
	sb.WriteString(fmt.Sprintf("| Bus floor events | %d |\n", d.FloorEvents))
	sb.WriteString(fmt.Sprintf("| Destabilizations | %d |\n", d.Destabilizations))
	sb.WriteString(fmt.Sprintf("| Knock-backs | %d |\n", d.KnockBacks))
	sb.WriteString(fmt.Sprintf("| Misattachments | %d |\n", d.Misattachments))
	if len(d.MisattachedNodes) > 0 {
		sb.WriteString(fmt.Sprintf("| Misattached nodes | %s |\n", joinInts(d.MisattachedNodes)))
	}
	if d.ArrestedAt > 0 {
		sb.WriteString(fmt.Sprintf("| Arrested at | %d |\n", d.ArrestedAt))
	}

	sb.WriteString("\n## Liveness\n\n")
	sb.WriteString(LivenessTable(res.Liveness))

	sb.WriteString("\n## Safety\n\n")
	if len(res.Violations) == 0 {
		sb.WriteString("No violations.\n")
	} else {
		sb.WriteString(ViolationTable(res.Violations))
	}

	if len(res.Trace) > 0 {
		verdicts, err := kernel.CheckTrace(res.Trace)
		if err != nil {
			return "", err
		}
		sb.WriteString("\n## Trace Model Check\n\n")
		sb.WriteString(VerdictTable(verdicts))
	}
	return sb.String(), nil
}

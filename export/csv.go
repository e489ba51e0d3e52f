package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rfielding/checkpoint-ctl/kernel"
)

var (
	traceHeader     = []string{"tick", "level", "inflow", "committed", "ready", "not_ready"}
	violationHeader = []string{"formula", "tick", "offenders", "detail"}
)

// WriteTraceCSV writes one row per tick. Per-node states are summarized as
// the ready count and the space-separated ids of the nodes not yet ready.
func WriteTraceCSV(w io.Writer, trace []kernel.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(traceHeader); err != nil {
		return err
	}
	for i := range trace {
		s := &trace[i]
		row := []string{
			strconv.Itoa(s.Tick),
			formatFloat(s.Level),
			formatFloat(s.Inflow),
			strconv.FormatBool(s.Committed),
			strconv.Itoa(s.ReadyCount()),
			joinInts(s.NotReady()),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteViolationsCSV writes one row per recorded violation.
func WriteViolationsCSV(w io.Writer, violations []kernel.Violation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(violationHeader); err != nil {
		return err
	}
	for _, v := range violations {
		row := []string{v.Formula, strconv.Itoa(v.Tick), joinInts(v.Offenders), v.Detail}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, " ")
}

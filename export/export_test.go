package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rfielding/checkpoint-ctl/kernel"
)

// forcedRun commits at tick 3 while node 2 is stuck, so it carries one
// quorum violation.
func forcedRun(t *testing.T) *kernel.Result {
	t.Helper()
	cfg := kernel.DefaultConfig()
	cfg.TotalNodes = 3
	cfg.AttachProbability = 1
	cfg.TensionThreshold = 0.1
	cfg.TensionIncrement = 1
	cfg.ActivationThreshold = 1
	cfg.DecayRate = 0.5
	cfg.ArrestTick = 0
	cfg.Faults = map[int]kernel.Fault{2: kernel.FaultStuck}

	sim, err := kernel.NewSimulation(cfg, kernel.WithPolicy(kernel.ForcedCommitPolicy{AtTick: 3}))
	require.NoError(t, err)
	res, err := sim.Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestReportRoundTrip(t *testing.T) {
	res := forcedRun(t)

	path := filepath.Join(t.TempDir(), "report.json")
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, res))
	require.Contains(t, buf.String(), `"states": [`)
	require.Contains(t, buf.String(), `"READY"`)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	got, err := LoadReport(path)
	require.NoError(t, err)
	require.Equal(t, res, got)
}

func TestReadReportRejectsGarbage(t *testing.T) {
	_, err := ReadReport(strings.NewReader(`{"trace": [{"states": ["DETACHED"]}]}`))
	require.ErrorIs(t, err, kernel.ErrUnknownNodeState)
}

func TestTraceJSONL(t *testing.T) {
	res := forcedRun(t)

	var buf bytes.Buffer
	require.NoError(t, WriteTraceJSONL(&buf, res.Trace))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var last kernel.Snapshot
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &last))
	require.Equal(t, 3, last.Tick)
	require.True(t, last.Committed)
}

func TestTraceCSV(t *testing.T) {
	res := forcedRun(t)

	var buf bytes.Buffer
	require.NoError(t, WriteTraceCSV(&buf, res.Trace))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	require.Equal(t, traceHeader, rows[0])
	// tick 1: nodes 0 and 1 ready, node 2 stuck and signalling into an empty bus
	require.Equal(t, []string{"1", "1", "1", "false", "2", "2"}, rows[1])
	require.Equal(t, "true", rows[3][3])
}

func TestViolationsCSV(t *testing.T) {
	res := forcedRun(t)

	var buf bytes.Buffer
	require.NoError(t, WriteViolationsCSV(&buf, res.Violations))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, kernel.QuorumSafetyName, rows[1][0])
	require.Equal(t, "3", rows[1][1])
	require.Equal(t, "2", rows[1][2])
}

func TestSummary(t *testing.T) {
	md, err := Summary(forcedRun(t))
	require.NoError(t, err)

	require.Contains(t, md, "| Stop reason | committed |")
	require.Contains(t, md, "| Commit tick | 3 |")
	require.Contains(t, md, "| Misattachments | 0 |")
	require.NotContains(t, md, "Misattached nodes")
	require.Contains(t, md, "| 3 | quorum-safety | 2 |")
	require.Contains(t, md, "| quorum-safety | `AG (!all_ready -> !committed)` | ✗ |")
	require.Contains(t, md, "| eventual-commit | `F(committed)` | confirmed | 3 |")
}

func TestVerdictTable(t *testing.T) {
	table := VerdictTable([]kernel.TraceVerdict{{Name: "p", Expr: "AF q", Holds: true}})
	require.Equal(t, "| Property | CTL Formula | Holds |\n|----------|-------------|-------|\n| p | `AF q` | ✓ |\n", table)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rfielding/checkpoint-ctl/kernel"
	"github.com/rfielding/checkpoint-ctl/scenario"
	"github.com/rfielding/checkpoint-ctl/sweep"
)

const (
	RunsKey        = "runs"
	ParallelismKey = "parallelism"
	SweepOutKey    = "out"
)

func (a *app) sweepCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "sweep",
		Short: "Runs the same configuration over consecutive seeds",
		Long: "Runs --runs simulations with seeds --seed, --seed+1, ... concurrently and\n" +
			"reports the commit rate and the commit tick distribution.",
		Args: cobra.NoArgs,
		RunE: a.sweepFunc,
	}
	flags := c.Flags()
	AddSimFlags(flags)
	flags.Int(RunsKey, 100, "Number of simulations")
	flags.Int(ParallelismKey, 0, "Concurrent simulations (0 = GOMAXPROCS)")
	flags.String(SweepOutKey, "", "Write the JSON sweep report to this file (- for stdout)")
	flags.String(MetricsKey, "", "Write Prometheus metrics in text format")
	c.MarkFlagsMutuallyExclusive(ConfigKey, ScenarioKey)
	return c
}

func (a *app) sweepFunc(c *cobra.Command, _ []string) error {
	flags := c.Flags()
	setup, err := ParseSimFlags(flags)
	if err != nil {
		return err
	}
	runs, err := flags.GetInt(RunsKey)
	if err != nil {
		return err
	}
	parallelism, err := flags.GetInt(ParallelismKey)
	if err != nil {
		return err
	}
	outPath, err := flags.GetString(SweepOutKey)
	if err != nil {
		return err
	}
	metricsPath, err := flags.GetString(MetricsKey)
	if err != nil {
		return err
	}
	reg, metrics, err := newMetrics(metricsPath)
	if err != nil {
		return err
	}

	opts := sweep.Options{
		Runs:        runs,
		FirstSeed:   setup.Config.Seed,
		Parallelism: parallelism,
		Logger:      a.log,
		Metrics:     metrics,
	}
	if setup.Scenario != "" {
		s, err := scenario.Lookup(setup.Scenario)
		if err != nil {
			return err
		}
		opts.SimOptions = func(int64) []kernel.Option { return s.Options() }
	}

	report, sweepErr := sweep.Run(c.Context(), setup.Config, opts)
	if report == nil {
		return sweepErr
	}

	stdout := c.OutOrStdout()
	if outPath != "" {
		err := writeTo(stdout, outPath, func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		})
		if err != nil {
			return err
		}
	}
	if err := dumpMetrics(stdout, metricsPath, reg); err != nil {
		return err
	}
	if outPath != "-" && metricsPath != "-" {
		fmt.Fprint(stdout, sweepTable(report))
	}
	if sweepErr != nil {
		return sweepErr
	}
	if report.Violating > 0 {
		return fmt.Errorf("%w: %d of %d runs", kernel.ErrSafetyViolation, report.Violating, len(report.Runs))
	}
	return nil
}

// sweepTable renders the sweep summary and the stop reason histogram as
// markdown.
func sweepTable(r *sweep.Report) string {
	var sb strings.Builder
	st := r.CommitTick
	sb.WriteString("| Runs | Committed | Commit Rate | Violating | Arrested |\n")
	sb.WriteString("|------|-----------|-------------|-----------|----------|\n")
	sb.WriteString(fmt.Sprintf("| %d | %d | %.3f | %d | %d |\n",
		len(r.Runs), r.Committed, r.CommitRate, r.Violating, r.Arrested))

	sb.WriteString("\n| Commit Tick | Mean | StdDev | Min | Median | P95 | Max |\n")
	sb.WriteString("|-------------|------|--------|-----|--------|-----|-----|\n")
	sb.WriteString(fmt.Sprintf("| | %.2f | %.2f | %.0f | %.0f | %.0f | %.0f |\n",
		st.Mean, st.StdDev, st.Min, st.Median, st.P95, st.Max))

	reasons := make(map[kernel.StopReason]int)
	for _, run := range r.Runs {
		reasons[run.StopReason]++
	}
	keys := make([]string, 0, len(reasons))
	for k := range reasons {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	sb.WriteString("\n| Stop Reason | Runs |\n")
	sb.WriteString("|-------------|------|\n")
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", k, reasons[kernel.StopReason(k)]))
	}
	return sb.String()
}

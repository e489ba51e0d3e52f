package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/rfielding/checkpoint-ctl/export"
	"github.com/rfielding/checkpoint-ctl/kernel"
)

const (
	ReportKey        = "report"
	TraceJSONLKey    = "trace-jsonl"
	TraceCSVKey      = "trace-csv"
	ViolationsCSVKey = "violations-csv"
	MetricsKey       = "metrics"
)

type runOutputs struct {
	Report        string
	TraceJSONL    string
	TraceCSV      string
	ViolationsCSV string
	Metrics       string
}

func addRunOutputFlags(flags *pflag.FlagSet) {
	flags.String(ReportKey, "", "Write the JSON report to this file (- for stdout)")
	flags.String(TraceJSONLKey, "", "Write the trace as JSON Lines")
	flags.String(TraceCSVKey, "", "Write the trace as CSV")
	flags.String(ViolationsCSVKey, "", "Write violations as CSV")
	flags.String(MetricsKey, "", "Write Prometheus metrics in text format")
}

func parseRunOutputs(flags *pflag.FlagSet) (*runOutputs, error) {
	var (
		o   runOutputs
		err error
	)
	for key, dst := range map[string]*string{
		ReportKey:        &o.Report,
		TraceJSONLKey:    &o.TraceJSONL,
		TraceCSVKey:      &o.TraceCSV,
		ViolationsCSVKey: &o.ViolationsCSV,
		MetricsKey:       &o.Metrics,
	} {
		if *dst, err = flags.GetString(key); err != nil {
			return nil, err
		}
	}
	return &o, nil
}

func (a *app) runCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "run",
		Short: "Runs one simulation and prints a markdown summary",
		Long: "Runs one simulation until commit, the tick budget, interruption or, in\n" +
			"fail_fast mode, the first safety violation. Exits non-zero when any safety\n" +
			"property was violated.",
		Args: cobra.NoArgs,
		RunE: a.runFunc,
	}
	flags := c.Flags()
	AddSimFlags(flags)
	addRunOutputFlags(flags)
	c.MarkFlagsMutuallyExclusive(ConfigKey, ScenarioKey)
	return c
}

func (a *app) runFunc(c *cobra.Command, _ []string) error {
	flags := c.Flags()
	setup, err := ParseSimFlags(flags)
	if err != nil {
		return err
	}
	out, err := parseRunOutputs(flags)
	if err != nil {
		return err
	}
	reg, metrics, err := newMetrics(out.Metrics)
	if err != nil {
		return err
	}

	opts := append([]kernel.Option{
		kernel.WithLogger(a.log),
		kernel.WithMetrics(metrics),
	}, setup.Options...)
	sim, err := kernel.NewSimulation(setup.Config, opts...)
	if err != nil {
		return err
	}
	res, runErr := sim.Run(c.Context())
	if runErr != nil && !errors.Is(runErr, kernel.ErrSafetyViolation) {
		return runErr
	}

	stdout := c.OutOrStdout()
	writes := []struct {
		path  string
		write func(io.Writer) error
	}{
		{out.Report, func(w io.Writer) error { return export.WriteReport(w, res) }},
		{out.TraceJSONL, func(w io.Writer) error { return export.WriteTraceJSONL(w, res.Trace) }},
		{out.TraceCSV, func(w io.Writer) error { return export.WriteTraceCSV(w, res.Trace) }},
		{out.ViolationsCSV, func(w io.Writer) error { return export.WriteViolationsCSV(w, res.Violations) }},
	}
	toStdout := false
	for _, wr := range writes {
		if wr.path == "" {
			continue
		}
		toStdout = toStdout || wr.path == "-"
		if err := writeTo(stdout, wr.path, wr.write); err != nil {
			return err
		}
	}
	if err := dumpMetrics(stdout, out.Metrics, reg); err != nil {
		return err
	}
	if !toStdout && out.Metrics != "-" {
		summary, err := export.Summary(res)
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, summary)
	}

	a.log.Info("run complete",
		zap.String("stop_reason", string(res.StopReason)),
		zap.Int("violations", len(res.Violations)),
	)
	if len(res.Violations) > 0 {
		return fmt.Errorf("%w: %d recorded, first: %s", kernel.ErrSafetyViolation, len(res.Violations), res.Violations[0])
	}
	return nil
}

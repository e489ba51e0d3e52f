package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rfielding/checkpoint-ctl/export"
	"github.com/rfielding/checkpoint-ctl/kernel"
)

func verifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify REPORT.json",
		Short: "Model-checks the trace of an exported report with the CTL engine",
		Long: "Rebuilds the trace of a JSON report as a Kripke structure and checks\n" +
			"quorum safety, commit monotonicity and eventual commit. Fails when a\n" +
			"safety property does not hold or when the offline verdict disagrees with\n" +
			"the violations recorded online.",
		Args: cobra.ExactArgs(1),
		RunE: verifyFunc,
	}
}

func verifyFunc(c *cobra.Command, args []string) error {
	res, err := export.LoadReport(args[0])
	if err != nil {
		return err
	}
	verdicts, err := kernel.CheckTrace(res.Trace)
	if err != nil {
		return err
	}
	fmt.Fprint(c.OutOrStdout(), export.VerdictTable(verdicts))

	recorded := make(map[string]bool)
	for _, v := range res.Violations {
		recorded[v.Formula] = true
	}
	for _, v := range verdicts {
		if v.Name == kernel.EventualCommitName {
			continue
		}
		if !v.Holds && !recorded[v.Name] {
			return fmt.Errorf("%s fails offline but no violation was recorded online", v.Name)
		}
		if !v.Holds {
			return fmt.Errorf("%w: %s", kernel.ErrSafetyViolation, v.Name)
		}
		if recorded[v.Name] {
			return fmt.Errorf("%s holds offline but a violation was recorded online", v.Name)
		}
	}
	return nil
}

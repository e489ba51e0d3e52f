package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rfielding/checkpoint-ctl/scenario"
)

func scenariosCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "Lists the named scenario presets",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			var sb strings.Builder
			sb.WriteString("| Scenario | Description | Expected |\n")
			sb.WriteString("|----------|-------------|----------|\n")
			for _, s := range scenario.All() {
				sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", s.Name, s.Description, s.Expect))
			}
			_, err := fmt.Fprint(c.OutOrStdout(), sb.String())
			return err
		},
	}
}

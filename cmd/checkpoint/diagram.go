package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rfielding/checkpoint-ctl/kernel"
	"github.com/rfielding/checkpoint-ctl/kripke"
)

const FormatKey = "format"

func diagramCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "diagram",
		Short: "Prints the node state machine enabled by a configuration",
		Long: "Prints the node state machine as a Mermaid or Graphviz diagram, or the\n" +
			"whole protocol as a TLA+ module.",
		Args: cobra.NoArgs,
		RunE: diagramFunc,
	}
	flags := c.Flags()
	AddSimFlags(flags)
	flags.String(FormatKey, "mermaid", "Output format (mermaid, dot or tla)")
	c.MarkFlagsMutuallyExclusive(ConfigKey, ScenarioKey)
	return c
}

func diagramFunc(c *cobra.Command, _ []string) error {
	flags := c.Flags()
	setup, err := ParseSimFlags(flags)
	if err != nil {
		return err
	}
	format, err := flags.GetString(FormatKey)
	if err != nil {
		return err
	}

	if format == "tla" {
		_, err := fmt.Fprint(c.OutOrStdout(), kernel.TLASpec(setup.Config, "Checkpoint"))
		return err
	}

	g := kernel.NodeStateGraph(setup.Config)
	opts := []kripke.DiagramOption{
		kripke.WithEdgeLabeler(kernel.NodeEdgeLabel),
		kripke.WithPropositions(),
	}
	switch format {
	case "mermaid":
		return kripke.WriteMermaid(g, c.OutOrStdout(), opts...)
	case "dot":
		return kripke.WriteGraphviz(g, c.OutOrStdout(), opts...)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

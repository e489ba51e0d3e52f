// Command checkpoint runs the checkpoint consensus engine: single runs,
// seed sweeps, offline verification of exported reports and diagrams of the
// node state machine.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries state shared by every subcommand.
type app struct {
	log *zap.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{log: zap.NewNop()}
	root := &cobra.Command{
		Use:           "checkpoint",
		Short:         "Checkpoint consensus engine with an online runtime verifier",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			log, err := newLogger(c.Flags())
			if err != nil {
				return err
			}
			a.log = log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.log.Sync()
		},
	}
	addLogFlags(root.PersistentFlags())

	root.AddCommand(
		a.runCommand(),
		a.sweepCommand(),
		verifyCommand(),
		diagramCommand(),
		scenariosCommand(),
	)
	return root
}

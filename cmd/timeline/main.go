// Command timeline evaluates interaction sequence scripts from the command
// line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "timeline",
		Short: "Evaluate interaction timeline scripts",
		Long: `timeline loads YAML or JSON interaction scripts and prints the display
state of a sequence at chosen frames as JSON.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level for stderr (debug, info, warn, error)")

	root.AddCommand(evalCmd(&logLevel), renderCmd(&logLevel), checkCmd(&logLevel))
	return root
}

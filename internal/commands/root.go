package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dkronst/israel-crypto-tax/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "cryptotax",
		Short:   "FIFO cost-basis capital gains calculator for crypto exchange exports",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newCalcCommand())
	rootCmd.AddCommand(newInspectCommand())

	return rootCmd
}

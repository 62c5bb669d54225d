package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dkronst/israel-crypto-tax/internal/logging"
)

func newInspectCommand() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "inspect [format:path ...]",
		Short: "Print the normalized, augmented, merged transaction stream without taxing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			logging.Init(cfg.LogLevel)

			sources, err := resolveSources(cfg, args)
			if err != nil {
				return err
			}

			store, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			merged, err := buildStream(sources, newResolver(store, cmd.InOrStdin(), cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tTYPE\tAMOUNT\tBASE\tTARGET\tRATE\tPROVENANCE")
			for _, tx := range merged {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					tx.Date.Format(time.DateOnly), tx.Type, tx.Amount,
					tx.AssetBase, tx.AssetTgt, tx.Rate, tx.Augmented)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", defaultConfigPath, "config file")

	return cmd
}

package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/dkronst/israel-crypto-tax/internal/config"
	"github.com/dkronst/israel-crypto-tax/internal/engine"
	"github.com/dkronst/israel-crypto-tax/internal/logging"
	"github.com/dkronst/israel-crypto-tax/internal/report"
)

func newCalcCommand() *cobra.Command {
	var cfgPath string
	var taxRate float64
	var initialLosses float64
	var yearStart string
	var traceOut string
	var assumeZeroBasis bool

	cmd := &cobra.Command{
		Use:   "calc [format:path ...]",
		Short: "Compute the fiscal year's net tax liability from exchange exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("tax-rate") {
				cfg.TaxRate = taxRate
			}
			if cmd.Flags().Changed("losses") {
				cfg.InitialLosses = initialLosses
			}
			if cmd.Flags().Changed("year-start") {
				cfg.YearStart = yearStart
			}
			logging.Init(cfg.LogLevel)

			sources, err := resolveSources(cfg, args)
			if err != nil {
				return err
			}

			tax, err := runCalc(cfg, sources, calcOptions{
				traceOut:        traceOut,
				assumeZeroBasis: assumeZeroBasis,
			}, cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Net tax liability: %s %s\n", tax.StringFixed(2), "USD")
			return nil
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", defaultConfigPath, "config file")
	cmd.Flags().Float64Var(&taxRate, "tax-rate", 0.25, "capital gains tax rate")
	cmd.Flags().Float64Var(&initialLosses, "losses", 0, "initial loss carry")
	cmd.Flags().StringVar(&yearStart, "year-start", "", "fiscal window start date (YYYY-MM-DD, UTC)")
	cmd.Flags().StringVar(&traceOut, "trace-out", "", "write per-transaction diagnostics CSV to this path")
	cmd.Flags().BoolVar(&assumeZeroBasis, "assume-zero-basis", false,
		"on cost-basis exhaustion, warn and assume zero cost instead of prompting")

	return cmd
}

type calcOptions struct {
	traceOut        string
	assumeZeroBasis bool
}

// runCalc wires the full pipeline: price store, resolver chain,
// normalize/augment/merge, then the FIFO engine.
func runCalc(cfg *config.Config, sources []config.Source, opts calcOptions, in io.Reader, out io.Writer) (decimal.Decimal, error) {
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer closeStore()

	merged, err := buildStream(sources, newResolver(store, in, out))
	if err != nil {
		return decimal.Decimal{}, err
	}

	windowStart, err := cfg.WindowStart()
	if err != nil {
		return decimal.Decimal{}, err
	}

	trace := &report.Log{}
	engCfg := engine.Config{
		TaxRate:       decimal.NewFromFloat(cfg.TaxRate),
		InitialLosses: decimal.NewFromFloat(cfg.InitialLosses),
		WindowStart:   windowStart,
		Trace:         trace,
	}
	if !opts.assumeZeroBasis {
		engCfg.OnMissingBasis = confirmMissingBasis(in, out)
	}

	tax, err := engine.New(engCfg).Run(merged)
	if err != nil {
		return decimal.Decimal{}, err
	}

	if opts.traceOut != "" {
		if err := trace.WriteFile(opts.traceOut); err != nil {
			return decimal.Decimal{}, err
		}
	}
	return tax, nil
}

// confirmMissingBasis asks the operator whether to proceed with a
// zero-cost basis when a sell has no matching lots.
func confirmMissingBasis(in io.Reader, out io.Writer) engine.MissingBasisFunc {
	scanner := bufio.NewScanner(in)
	return func(asset string, quantity, rate decimal.Decimal) error {
		fmt.Fprintf(out,
			"Sell of %s %s at %s exceeds all recorded lots (history may be incomplete).\n"+
				"Assume zero cost basis and continue? [y/N]: ",
			quantity, asset, rate)
		if !scanner.Scan() {
			return fmt.Errorf("no cost basis for %s and no confirmation", asset)
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "y", "yes":
			return nil
		default:
			return fmt.Errorf("aborted: no cost basis for %s %s", quantity, asset)
		}
	}
}

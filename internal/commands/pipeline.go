package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/dkronst/israel-crypto-tax/internal/augment"
	"github.com/dkronst/israel-crypto-tax/internal/config"
	"github.com/dkronst/israel-crypto-tax/internal/importer"
	"github.com/dkronst/israel-crypto-tax/internal/model"
	"github.com/dkronst/israel-crypto-tax/internal/prices"
	"github.com/dkronst/israel-crypto-tax/internal/stream"
)

// loadConfig reads the config file, or falls back to defaults when the
// default path simply does not exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) && path == defaultConfigPath {
		return config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

const defaultConfigPath = "cryptotax.yaml"

// resolveSources turns "format:path" arguments into sources, defaulting
// to the config's source list.
func resolveSources(cfg *config.Config, args []string) ([]config.Source, error) {
	if len(args) == 0 {
		if len(cfg.Sources) == 0 {
			return nil, errors.New("no transaction sources: pass format:path arguments or list sources in the config")
		}
		return cfg.Sources, nil
	}

	sources := make([]config.Source, 0, len(args))
	for _, arg := range args {
		format, path, ok := strings.Cut(arg, ":")
		if !ok || format == "" || path == "" {
			return nil, fmt.Errorf("malformed source %q, want format:path", arg)
		}
		sources = append(sources, config.Source{Format: format, Path: path})
	}
	return sources, nil
}

// openStore selects the price store backend from the config: SQLite when
// a database path is set, the CSV directory otherwise.
func openStore(cfg *config.Config) (prices.Store, func(), error) {
	if cfg.PriceDatabase != "" {
		s, err := prices.OpenSQLite(cfg.PriceDatabase)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	}
	if _, err := os.Stat(cfg.PriceHistoryDir); err != nil && cfg.PriceHistoryDir != "" {
		// Missing history directory is not fatal: lookups fall back to
		// manual entry.
		fmt.Fprintf(os.Stderr, "note: price history directory %s not found\n", cfg.PriceHistoryDir)
	}
	return prices.NewDirStore(cfg.PriceHistoryDir), func() {}, nil
}

// newResolver builds the standard resolver chain: persisted tables first,
// interactive manual entry as the fallback.
func newResolver(store prices.Store, in io.Reader, out io.Writer) prices.Resolver {
	return prices.Fallback{
		Primary:   prices.NewTableResolver(store),
		Secondary: prices.NewPromptResolver(in, out),
	}
}

// buildStream runs normalize -> augment -> merge/dedup/sort over all
// sources and returns the single chronological stream the engine consumes.
func buildStream(sources []config.Source, resolver prices.Resolver) ([]model.Transaction, error) {
	reg := importer.DefaultRegistry()
	aug := augment.New(resolver)

	perSource := make([][]model.Transaction, 0, len(sources))
	for _, src := range sources {
		txns, err := reg.ParseFile(src.Format, src.Path)
		if err != nil {
			return nil, err
		}
		legs, err := aug.ExpandAll(txns)
		if err != nil {
			return nil, fmt.Errorf("augmenting %s: %w", src.Path, err)
		}
		perSource = append(perSource, legs)
	}

	return stream.Merge(perSource...), nil
}

package prices

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/dkronst/israel-crypto-tax/internal/logging"
)

// Resolver resolves an asset's opening USD price on a date.
type Resolver interface {
	Lookup(asset string, date time.Time) (decimal.Decimal, error)
}

// TableResolver answers lookups from a Store, memoizing each loaded table
// for the lifetime of the resolver. The cache is keyed by asset symbol and
// never invalidated within a run.
type TableResolver struct {
	store  Store
	tables *cache.Cache
}

// NewTableResolver creates a TableResolver over store.
func NewTableResolver(store Store) *TableResolver {
	return &TableResolver{
		store:  store,
		tables: cache.New(cache.NoExpiration, cache.NoExpiration),
	}
}

// Lookup returns the opening USD price for asset on date.
func (r *TableResolver) Lookup(asset string, date time.Time) (decimal.Decimal, error) {
	if v, ok := r.tables.Get(asset); ok {
		return v.(Table).Open(date)
	}
	table, err := r.store.LoadTable(asset)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("loading price table for %s: %w", asset, err)
	}
	r.tables.Set(asset, table, cache.NoExpiration)
	logging.L.Debugw("loaded price table", "asset", asset, "entries", len(table))
	return table.Open(date)
}

// PromptResolver asks the operator to enter a price by hand. It is the
// fallback when no persisted history covers an asset/date pair.
type PromptResolver struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPromptResolver creates a PromptResolver reading quotes from in and
// writing prompts to out.
func NewPromptResolver(in io.Reader, out io.Writer) *PromptResolver {
	return &PromptResolver{in: bufio.NewScanner(in), out: out}
}

// Lookup prompts for the asset's opening USD price on date.
func (r *PromptResolver) Lookup(asset string, date time.Time) (decimal.Decimal, error) {
	fmt.Fprintf(r.out, "Enter opening USD price for %s on %s: ", asset, date.Format(DayFormat))
	if !r.in.Scan() {
		if err := r.in.Err(); err != nil {
			return decimal.Decimal{}, fmt.Errorf("reading manual quote: %w", err)
		}
		return decimal.Decimal{}, fmt.Errorf("reading manual quote for %s on %s: no input", asset, date.Format(DayFormat))
	}
	price, err := decimal.NewFromString(strings.TrimSpace(r.in.Text()))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parsing manual quote %q: %w", r.in.Text(), err)
	}
	return price, nil
}

// Fallback tries Primary and, on any failure, escalates to Secondary.
type Fallback struct {
	Primary   Resolver
	Secondary Resolver
}

// Lookup resolves via Primary, falling back to Secondary.
func (f Fallback) Lookup(asset string, date time.Time) (decimal.Decimal, error) {
	price, err := f.Primary.Lookup(asset, date)
	if err == nil {
		return price, nil
	}
	logging.L.Warnw("price lookup failed, escalating",
		"asset", asset, "date", date.Format(DayFormat), "error", err)
	return f.Secondary.Lookup(asset, date)
}

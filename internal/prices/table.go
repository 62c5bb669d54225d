package prices

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoPrice indicates that no historical price exists for an asset/date
// pair. Callers fall back to another Resolver or fail the computation.
var ErrNoPrice = errors.New("no historical price")

// DayFormat is the key format of a Table: one entry per calendar day.
const DayFormat = "2006-01-02"

// Table holds one asset's historical opening USD prices keyed by day.
type Table map[string]decimal.Decimal

// Open returns the opening USD price on the given date.
func (t Table) Open(date time.Time) (decimal.Decimal, error) {
	day := date.Format(DayFormat)
	p, ok := t[day]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w for %s", ErrNoPrice, day)
	}
	return p, nil
}

// Store loads per-asset price history from persistent storage.
type Store interface {
	LoadTable(asset string) (Table, error)
}

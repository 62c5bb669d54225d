package prices

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Header is the CSV header for <asset>-history.csv files.
const Header = "date,open"

const (
	numFields = 2
	colDate   = 0
	colOpen   = 1
)

// DirStore reads per-asset history files named <asset>-history.csv
// (asset lowercased) from a single directory.
type DirStore struct {
	dir string
}

// NewDirStore creates a DirStore rooted at dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

// LoadTable reads the history file for asset. A missing file maps to
// ErrNoPrice so callers can fall back to manual entry.
func (s *DirStore) LoadTable(asset string) (Table, error) {
	path := filepath.Join(s.dir, strings.ToLower(asset)+"-history.csv")
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no history file for %s", ErrNoPrice, asset)
	}
	if err != nil {
		return nil, fmt.Errorf("opening history %s: %w", path, err)
	}
	defer f.Close()

	table, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("reading history %s: %w", path, err)
	}
	return table, nil
}

// ReadTable reads a price table from a history CSV reader.
func ReadTable(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading history CSV: %w", err)
	}
	if len(records) == 0 {
		return Table{}, nil
	}

	// Skip header row.
	table := make(Table, len(records)-1)
	for i, rec := range records[1:] {
		day, open, err := unmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		table[day] = open
	}
	return table, nil
}

// WriteTable writes a price table to a history CSV writer (with header),
// in ascending day order.
func WriteTable(w io.Writer, table Table) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	days := make([]string, 0, len(table))
	for day := range table {
		days = append(days, day)
	}
	sort.Strings(days)

	for _, day := range days {
		if err := cw.Write([]string{day, table[day].String()}); err != nil {
			return fmt.Errorf("writing row %s: %w", day, err)
		}
	}
	return cw.Error()
}

func unmarshalRow(rec []string) (string, decimal.Decimal, error) {
	if _, err := time.Parse(DayFormat, rec[colDate]); err != nil {
		return "", decimal.Decimal{}, fmt.Errorf("parsing date %q: %w", rec[colDate], err)
	}
	open, err := decimal.NewFromString(rec[colOpen])
	if err != nil {
		return "", decimal.Decimal{}, fmt.Errorf("parsing open %q: %w", rec[colOpen], err)
	}
	return rec[colDate], open, nil
}

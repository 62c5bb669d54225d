package prices

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const createPricesTable = `
CREATE TABLE IF NOT EXISTS asset_prices (
	asset TEXT NOT NULL,
	date TEXT NOT NULL,
	open REAL NOT NULL,
	PRIMARY KEY (asset, date)
);`

// SQLiteStore reads per-asset price history from a SQLite database with a
// single asset_prices(asset, date, open) table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a price-history database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening price database %s: %w", path, err)
	}
	if _, err := db.Exec(createPricesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating asset_prices table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LoadTable reads all price rows for asset. An asset with no rows maps to
// ErrNoPrice so callers can fall back to manual entry.
func (s *SQLiteStore) LoadTable(asset string) (Table, error) {
	rows, err := s.db.Query(`SELECT date, open FROM asset_prices WHERE asset = ?`, asset)
	if err != nil {
		return nil, fmt.Errorf("querying prices for %s: %w", asset, err)
	}
	defer rows.Close()

	table := Table{}
	for rows.Next() {
		var day string
		var open float64
		if err := rows.Scan(&day, &open); err != nil {
			return nil, fmt.Errorf("scanning price row for %s: %w", asset, err)
		}
		table[day] = decimal.NewFromFloat(open)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading prices for %s: %w", asset, err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: no rows for %s", ErrNoPrice, asset)
	}
	return table, nil
}

// Put inserts or replaces one opening price. Used by history imports.
func (s *SQLiteStore) Put(asset string, date time.Time, open decimal.Decimal) error {
	openF, _ := open.Float64()
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO asset_prices (asset, date, open) VALUES (?, ?, ?)`,
		asset, date.Format(DayFormat), openF,
	)
	if err != nil {
		return fmt.Errorf("storing price for %s: %w", asset, err)
	}
	return nil
}

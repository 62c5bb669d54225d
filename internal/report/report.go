// Package report records per-transaction diagnostics from a tax
// computation and persists them as a CSV trace for operator review.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dkronst/israel-crypto-tax/internal/model"
)

// Entry is one diagnostic row: the state of the engine right after a
// transaction was applied.
type Entry struct {
	Date          time.Time
	Asset         string
	Type          model.TradeType
	Quantity      decimal.Decimal
	Rate          decimal.Decimal
	Profit        decimal.Decimal
	RunningLosses decimal.Decimal
	QueueDepth    int
}

// Header is the CSV header for the trace file.
const Header = "date,asset,type,quantity,rate,profit,running_losses,queue_depth"

const (
	numFields  = 8
	dateFormat = "2006-01-02"
	colDate    = 0
	colAsset   = 1
	colType    = 2
	colQty     = 3
	colRate    = 4
	colProfit  = 5
	colLosses  = 6
	colDepth   = 7
)

// Log accumulates entries during a run.
type Log struct {
	entries []Entry
}

// Add appends one entry.
func (l *Log) Add(e Entry) {
	l.entries = append(l.entries, e)
}

// Entries returns the accumulated entries in insertion order.
func (l *Log) Entries() []Entry {
	return l.entries
}

// WriteFile writes the trace to path, header included.
func (l *Log) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating trace file: %w", err)
	}
	defer f.Close()
	return Write(f, l.entries)
}

// Write writes entries as CSV (including header).
func Write(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, e := range entries {
		if err := cw.Write(marshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// Read reads all entries from a trace CSV reader.
func Read(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading trace CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := unmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func marshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colDate] = e.Date.Format(dateFormat)
	row[colAsset] = e.Asset
	row[colType] = string(e.Type)
	row[colQty] = e.Quantity.String()
	row[colRate] = e.Rate.String()
	row[colProfit] = e.Profit.String()
	row[colLosses] = e.RunningLosses.String()
	row[colDepth] = strconv.Itoa(e.QueueDepth)
	return row
}

func unmarshalEntry(rec []string) (Entry, error) {
	date, err := time.Parse(dateFormat, rec[colDate])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing date %q: %w", rec[colDate], err)
	}
	qty, err := decimal.NewFromString(rec[colQty])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing quantity %q: %w", rec[colQty], err)
	}
	rate, err := decimal.NewFromString(rec[colRate])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing rate %q: %w", rec[colRate], err)
	}
	profit, err := decimal.NewFromString(rec[colProfit])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing profit %q: %w", rec[colProfit], err)
	}
	losses, err := decimal.NewFromString(rec[colLosses])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing running_losses %q: %w", rec[colLosses], err)
	}
	depth, err := strconv.Atoi(rec[colDepth])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing queue_depth %q: %w", rec[colDepth], err)
	}
	return Entry{
		Date:          date,
		Asset:         rec[colAsset],
		Type:          model.TradeType(rec[colType]),
		Quantity:      qty,
		Rate:          rate,
		Profit:        profit,
		RunningLosses: losses,
		QueueDepth:    depth,
	}, nil
}

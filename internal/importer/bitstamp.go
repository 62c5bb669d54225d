package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dkronst/israel-crypto-tax/internal/logging"
	"github.com/dkronst/israel-crypto-tax/internal/model"
)

// BitstampParser parses Bitstamp transaction CSV exports.
type BitstampParser struct{}

const (
	bstDateFormat = "Jan. 02, 2006, 03:04 PM"
	bstNumFields  = 8
	bstColType    = 0
	bstColDate    = 1
	bstColAmount  = 3
	bstColValue   = 4
	bstColRate    = 5
	bstColSubType = 7
)

// Format returns the parser name.
func (p *BitstampParser) Format() string { return "bitstamp" }

// Parse reads a Bitstamp CSV and returns normalized Transactions.
func (p *BitstampParser) Parse(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading bitstamp CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var txns []model.Transaction
	// Skip header row.
	for i, rec := range records[1:] {
		if len(rec) != bstNumFields {
			logging.L.Debugw("skipping malformed bitstamp row", "row", i+2, "fields", len(rec))
			continue
		}
		txn, ok := parseBitstampRow(rec)
		if !ok {
			continue
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// parseBitstampRow normalizes one export row. Market trades and USD
// deposits are kept; everything else is dropped.
func parseBitstampRow(rec []string) (model.Transaction, bool) {
	date, err := time.Parse(bstDateFormat, strings.TrimSpace(rec[bstColDate]))
	if err != nil {
		logging.L.Debugw("skipping bitstamp row with bad date", "value", rec[bstColDate], "error", err)
		return model.Transaction{}, false
	}

	rowType := strings.ToLower(strings.TrimSpace(rec[bstColType]))
	switch rowType {
	case "market":
	case "deposit":
		return parseBitstampDeposit(rec, date)
	default:
		return model.Transaction{}, false
	}

	_, amountAsset, err := splitValueUnit(rec[bstColAmount])
	if err != nil {
		logging.L.Debugw("skipping bitstamp row with bad amount", "value", rec[bstColAmount], "error", err)
		return model.Transaction{}, false
	}

	value, valueAsset, err := splitValueUnit(rec[bstColValue])
	if err != nil {
		logging.L.Debugw("skipping bitstamp row with bad value", "value", rec[bstColValue], "error", err)
		return model.Transaction{}, false
	}

	rate, _, err := splitValueUnit(rec[bstColRate])
	if err != nil || rate.IsZero() {
		logging.L.Debugw("skipping bitstamp row with bad rate", "value", rec[bstColRate], "error", err)
		return model.Transaction{}, false
	}

	var txType model.TradeType
	switch strings.ToLower(strings.TrimSpace(rec[bstColSubType])) {
	case "buy":
		txType = model.Buy
	case "sell":
		txType = model.Sell
	default:
		logging.L.Debugw("skipping bitstamp row with unknown sub type", "value", rec[bstColSubType])
		return model.Transaction{}, false
	}

	return model.Transaction{
		AssetBase: valueAsset,
		AssetTgt:  amountAsset,
		Type:      txType,
		Amount:    value.Abs(),
		Rate:      rate,
		Date:      date,
		UnixTime:  date.Unix(),
		Augmented: model.Original,
	}, true
}

func parseBitstampDeposit(rec []string, date time.Time) (model.Transaction, bool) {
	amount, asset, err := splitValueUnit(rec[bstColAmount])
	if err != nil || asset != model.Fiat || !amount.IsPositive() {
		return model.Transaction{}, false
	}
	return model.Transaction{
		AssetBase: model.Fiat,
		AssetTgt:  model.Fiat,
		Type:      model.Buy,
		Amount:    amount,
		Rate:      decimal.NewFromInt(1),
		Date:      date,
		UnixTime:  date.Unix(),
		Augmented: model.Deposit,
	}, true
}

// splitValueUnit parses Bitstamp's "0.50000000 BTC" value fields.
func splitValueUnit(s string) (decimal.Decimal, string, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 2 {
		return decimal.Decimal{}, "", fmt.Errorf("expected \"<number> <unit>\", got %q", s)
	}
	d, err := decimal.NewFromString(fields[0])
	if err != nil {
		return decimal.Decimal{}, "", fmt.Errorf("parsing %q: %w", fields[0], err)
	}
	return d, fields[1], nil
}

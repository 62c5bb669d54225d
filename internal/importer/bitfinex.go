package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dkronst/israel-crypto-tax/internal/logging"
	"github.com/dkronst/israel-crypto-tax/internal/model"
)

// BitfinexParser parses Bitfinex ledger CSV exports. Ledger rows are
// newest-first; the parser returns them in chronological order.
type BitfinexParser struct{}

const (
	bfxDateFormat  = "2006-01-02 15:04:05"
	bfxNumFields   = 6
	bfxColCurrency = 0
	bfxColAmount   = 1
	bfxColDesc     = 3
	bfxColUnix     = 4
	bfxColDate     = 5
)

// bfxNonExchange lists ledger entry kinds that are not trades.
var bfxNonExchange = []string{"transfer", "deposit", "withdrawal"}

// Format returns the parser name.
func (p *BitfinexParser) Format() string { return "bitfinex" }

// Parse reads a Bitfinex ledger CSV and returns normalized Transactions.
func (p *BitfinexParser) Parse(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading bitfinex CSV: %w", err)
	}

	var txns []model.Transaction
	// Export order is newest-first; walk backwards for chronological output.
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		if len(rec) != bfxNumFields {
			logging.L.Debugw("skipping malformed bitfinex row", "row", i+1, "fields", len(rec))
			continue
		}
		txn, ok := parseBitfinexRow(rec)
		if !ok {
			continue
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// parseBitfinexRow normalizes one ledger row. Rows that are neither
// exchanges nor USD deposits report ok=false and are dropped.
func parseBitfinexRow(rec []string) (model.Transaction, bool) {
	desc := strings.TrimSpace(rec[bfxColDesc])

	unixF, err := strconv.ParseFloat(strings.TrimSpace(rec[bfxColUnix]), 64)
	if err != nil {
		logging.L.Debugw("skipping bitfinex row with bad timestamp", "value", rec[bfxColUnix], "error", err)
		return model.Transaction{}, false
	}
	unix := int64(unixF)

	date, err := time.Parse(bfxDateFormat, strings.TrimSpace(rec[bfxColDate]))
	if err != nil {
		date = time.Unix(unix, 0).UTC()
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(rec[bfxColAmount]))
	if err != nil {
		logging.L.Debugw("skipping bitfinex row with bad amount", "value", rec[bfxColAmount], "error", err)
		return model.Transaction{}, false
	}

	if !strings.HasPrefix(desc, "Exchange") {
		currency := strings.TrimSpace(rec[bfxColCurrency])
		return parseBitfinexNonExchange(desc, currency, amount, date, unix)
	}

	// "Exchange 0.5 DASH for BTC @ 0.032"
	details := strings.Fields(desc)
	if len(details) < 5 {
		logging.L.Debugw("skipping unrecognized bitfinex exchange row", "description", desc)
		return model.Transaction{}, false
	}
	assetTgt := details[2]
	assetBase := details[4]

	rateFields := strings.Fields(desc[strings.LastIndex(desc, "@")+1:])
	if len(rateFields) == 0 {
		logging.L.Debugw("skipping bitfinex row without a rate", "description", desc)
		return model.Transaction{}, false
	}
	rate, err := decimal.NewFromString(rateFields[0])
	if err != nil || rate.IsZero() {
		logging.L.Debugw("skipping bitfinex row with bad rate", "description", desc, "error", err)
		return model.Transaction{}, false
	}

	// A negative ledger amount means the row's currency was spent, i.e.
	// the target asset was bought.
	txType := model.Sell
	if amount.IsNegative() {
		txType = model.Buy
	}

	return model.Transaction{
		AssetBase: assetBase,
		AssetTgt:  assetTgt,
		Type:      txType,
		Amount:    amount.Abs(),
		Rate:      rate,
		Date:      date,
		UnixTime:  unix,
		Augmented: model.Original,
	}, true
}

// parseBitfinexNonExchange converts USD deposits into deposit
// transactions and drops the rest of the non-trade ledger kinds.
func parseBitfinexNonExchange(desc, currency string, amount decimal.Decimal, date time.Time, unix int64) (model.Transaction, bool) {
	lower := strings.ToLower(desc)
	known := false
	for _, kind := range bfxNonExchange {
		if strings.HasPrefix(lower, kind) {
			known = true
			break
		}
	}
	if !known {
		logging.L.Debugw("skipping unrecognized bitfinex row", "description", desc)
		return model.Transaction{}, false
	}

	if strings.HasPrefix(lower, "deposit") && currency == model.Fiat && amount.IsPositive() {
		return model.Transaction{
			AssetBase: model.Fiat,
			AssetTgt:  model.Fiat,
			Type:      model.Buy,
			Amount:    amount,
			Rate:      decimal.NewFromInt(1),
			Date:      date,
			UnixTime:  unix,
			Augmented: model.Deposit,
		}, true
	}
	return model.Transaction{}, false
}

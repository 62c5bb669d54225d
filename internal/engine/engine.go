// Package engine implements FIFO cost-basis lot matching over a
// chronological transaction stream, realizing capital gains and losses
// and producing the net tax liability for one fiscal window.
package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dkronst/israel-crypto-tax/internal/logging"
	"github.com/dkronst/israel-crypto-tax/internal/model"
	"github.com/dkronst/israel-crypto-tax/internal/report"
)

// YearSeconds is the length of the fiscal window.
const YearSeconds = 365 * 24 * 3600

// DefaultEpoch is 2017-01-01T00:00:00Z. The default fiscal window is the
// first full year after it.
const DefaultEpoch = 1483228800

// DefaultTaxRate is the capital-gains rate applied when none is configured.
var DefaultTaxRate = decimal.NewFromFloat(0.25)

// MissingBasisFunc is called when a sell's quantity exceeds every recorded
// lot for the asset. The shortfall is then treated as acquired at zero
// cost; the callback lets the operator confirm or abort, since this
// usually means the transaction history is incomplete. Returning an error
// aborts the run.
type MissingBasisFunc func(asset string, quantity, rate decimal.Decimal) error

// Config parameterizes one computation run.
type Config struct {
	// TaxRate scales the final netted gain. Zero means DefaultTaxRate.
	TaxRate decimal.Decimal
	// InitialLosses seeds the loss carry before any transaction is seen.
	InitialLosses decimal.Decimal
	// WindowStart is the fiscal window's start in unix seconds. Zero means
	// the first full year after DefaultEpoch.
	WindowStart int64
	// OnMissingBasis handles cost-basis exhaustion. Nil logs a warning and
	// proceeds.
	OnMissingBasis MissingBasisFunc
	// Trace, when non-nil, collects per-transaction diagnostics.
	Trace *report.Log
}

// Engine owns the per-asset lot queues and the gain/loss accumulators.
// It is single-run: create a new Engine per computation.
type Engine struct {
	cfg     Config
	queues  map[string][]model.Lot
	gains   decimal.Decimal
	losses  decimal.Decimal
	entered bool // window-entry loss reset already performed
}

// New creates an Engine for one run.
func New(cfg Config) *Engine {
	if cfg.TaxRate.IsZero() {
		cfg.TaxRate = DefaultTaxRate
	}
	if cfg.WindowStart == 0 {
		cfg.WindowStart = DefaultEpoch + YearSeconds
	}
	if cfg.OnMissingBasis == nil {
		cfg.OnMissingBasis = warnMissingBasis
	}
	return &Engine{
		cfg:    cfg,
		queues: make(map[string][]model.Lot),
		losses: cfg.InitialLosses,
	}
}

func warnMissingBasis(asset string, quantity, rate decimal.Decimal) error {
	logging.L.Warnw("sell exceeds recorded lots, assuming zero cost basis",
		"asset", asset, "quantity", quantity, "rate", rate)
	return nil
}

// Run consumes the merged chronological stream and returns the net tax
// liability: (taxable gains - carried losses) * tax rate, scaled once at
// the end. Processing stops at the first transaction past the window end;
// later events do not affect the result or the positions.
func (e *Engine) Run(txns []model.Transaction) (decimal.Decimal, error) {
	windowEnd := e.cfg.WindowStart + YearSeconds

	sawPreWindow := false
	for _, tx := range txns {
		if tx.UnixTime > windowEnd {
			logging.L.Debugw("transaction past fiscal window, stopping",
				"unixTime", tx.UnixTime, "windowEnd", windowEnd)
			break
		}
		if tx.UnixTime < e.cfg.WindowStart {
			sawPreWindow = true
		}

		// Entering the window after pre-window activity discards losses
		// accumulated outside it, exactly once per run. A seeded carry
		// with no pre-window transactions survives untouched.
		if !e.entered && sawPreWindow && tx.UnixTime >= e.cfg.WindowStart {
			e.entered = true
			if !e.losses.IsZero() {
				logging.L.Infow("entering fiscal window, discarding pre-window losses",
					"losses", e.losses)
			}
			e.losses = decimal.Zero
		}

		switch tx.Type {
		case model.Buy:
			e.applyBuy(tx)
		case model.Sell:
			if err := e.applySellTx(tx); err != nil {
				return decimal.Decimal{}, err
			}
		}
	}

	tax := e.gains.Sub(e.losses).Mul(e.cfg.TaxRate)
	logging.L.Infow("computation finished",
		"taxableGains", e.gains, "losses", e.losses, "tax", tax)
	return tax, nil
}

// Losses returns the current carried-loss accumulator.
func (e *Engine) Losses() decimal.Decimal { return e.losses }

// TaxableGains returns the in-window realized-gain accumulator.
func (e *Engine) TaxableGains() decimal.Decimal { return e.gains }

// Position returns the lots currently held for asset, oldest first.
func (e *Engine) Position(asset string) []model.Lot {
	return append([]model.Lot(nil), e.queues[asset]...)
}

func (e *Engine) applyBuy(tx model.Transaction) {
	lot := model.Lot{Quantity: tx.Quantity(), UnitCost: tx.Rate}
	e.queues[tx.AssetTgt] = append(e.queues[tx.AssetTgt], lot)
	logging.L.Debugw("buy",
		"asset", tx.AssetTgt, "quantity", lot.Quantity, "unitCost", lot.UnitCost,
		"queueDepth", len(e.queues[tx.AssetTgt]))
	e.trace(tx, lot.Quantity, decimal.Zero)
}

func (e *Engine) applySellTx(tx model.Transaction) error {
	profit, err := e.applySell(tx)
	if err != nil {
		return err
	}

	if profit.IsNegative() {
		e.losses = e.losses.Add(profit.Neg())
		logging.L.Infow("realized loss",
			"asset", tx.AssetTgt, "loss", profit.Neg(), "runningLosses", e.losses,
			"date", tx.Date.Format(time.DateOnly))
	} else if e.inTaxWindow(tx.UnixTime) {
		e.gains = e.gains.Add(profit)
		logging.L.Infow("realized taxable gain",
			"asset", tx.AssetTgt, "profit", profit, "runningGains", e.gains,
			"date", tx.Date.Format(time.DateOnly))
	}

	e.trace(tx, tx.Quantity(), profit)
	return nil
}

// applySell consumes lots from the asset's FIFO queue, oldest first, and
// returns the realized profit. A partially consumed head lot is pushed
// back unless its remainder is within PracticallyZero of empty.
func (e *Engine) applySell(tx model.Transaction) (decimal.Decimal, error) {
	fifo := e.queues[tx.AssetTgt]
	a := tx.Quantity()
	r := tx.Rate
	profit := decimal.Zero

	logging.L.Debugw("sell",
		"asset", tx.AssetTgt, "quantity", a, "rate", r, "queueDepth", len(fifo))

	for len(fifo) > 0 && a.GreaterThan(fifo[0].Quantity) {
		head := fifo[0]
		fifo = fifo[1:]
		profit = profit.Add(head.Quantity.Mul(r.Sub(head.UnitCost)))
		a = a.Sub(head.Quantity)
	}

	switch {
	case len(fifo) > 0:
		head := fifo[0]
		fifo = fifo[1:]
		profit = profit.Add(a.Mul(r.Sub(head.UnitCost)))
		head.Quantity = head.Quantity.Sub(a)
		if head.Quantity.GreaterThan(model.PracticallyZero) {
			fifo = append([]model.Lot{head}, fifo...)
		}
	case a.IsPositive():
		// No cost basis left for the remainder.
		if err := e.cfg.OnMissingBasis(tx.AssetTgt, a, r); err != nil {
			return decimal.Decimal{}, err
		}
		profit = profit.Add(a.Mul(r))
	}

	e.queues[tx.AssetTgt] = fifo
	return profit, nil
}

// inTaxWindow reports whether a realization at t is taxable:
// (start, start+YearSeconds].
func (e *Engine) inTaxWindow(t int64) bool {
	return t > e.cfg.WindowStart && t <= e.cfg.WindowStart+YearSeconds
}

func (e *Engine) trace(tx model.Transaction, qty, profit decimal.Decimal) {
	if e.cfg.Trace == nil {
		return
	}
	e.cfg.Trace.Add(report.Entry{
		Date:          tx.Date,
		Asset:         tx.AssetTgt,
		Type:          tx.Type,
		Quantity:      qty,
		Rate:          tx.Rate,
		Profit:        profit,
		RunningLosses: e.losses,
		QueueDepth:    len(e.queues[tx.AssetTgt]),
	})
}

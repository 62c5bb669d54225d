package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fiat is the reporting currency. All cost bases and realized gains are
// denominated in it.
const Fiat = "USD"

// TradeType is the direction of a transaction relative to AssetTgt.
type TradeType string

const (
	Buy  TradeType = "buy"
	Sell TradeType = "sell"
)

// Provenance tags how a transaction entered the stream.
type Provenance string

const (
	// Original marks a transaction parsed directly from an exchange export.
	Original Provenance = "original"
	// BuySwapLeg marks a synthetic fiat leg produced by decomposing a buy
	// whose base asset was not fiat.
	BuySwapLeg Provenance = "buy-swap"
	// SellSwapLeg is the same for a decomposed sell.
	SellSwapLeg Provenance = "sell-swap"
	// Deposit marks a fiat deposit converted to a transaction.
	Deposit Provenance = "deposit"
)

// Transaction is one normalized trade or deposit event.
//
// AssetBase is the asset given up (the fiat unit for a deposit), AssetTgt
// the asset received. Amount is the quantity of AssetBase involved, always
// non-negative; direction is carried by Type. Rate is the price of one unit
// of AssetTgt expressed in AssetBase, so Amount/Rate is the transacted
// quantity of AssetTgt.
type Transaction struct {
	AssetBase string
	AssetTgt  string
	Type      TradeType
	Amount    decimal.Decimal
	Rate      decimal.Decimal
	Date      time.Time
	UnixTime  int64
	Augmented Provenance
}

// Quantity returns Amount/Rate, the transacted quantity of AssetTgt.
// Rate must be non-zero; parsers reject rows that would violate that.
func (t Transaction) Quantity() decimal.Decimal {
	return t.Amount.Div(t.Rate)
}

package model

import "github.com/shopspring/decimal"

// PracticallyZero is the quantity below which a lot counts as exhausted.
// Lot quantities accumulate rounding residue as they are partially
// consumed; comparing against this threshold instead of exact zero keeps
// dust lots from lingering in a queue forever.
var PracticallyZero = decimal.NewFromFloat(1e-9)

// Lot is a discrete quantity of an asset acquired at a specific unit cost,
// tracked until fully consumed by sells.
type Lot struct {
	Quantity decimal.Decimal
	UnitCost decimal.Decimal // USD per unit at acquisition
}

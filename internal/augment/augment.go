// Package augment decomposes trades between two non-fiat assets into
// synthetic fiat-denominated legs, so the tax engine only ever sees
// USD-based transactions.
package augment

import (
	"fmt"

	"github.com/dkronst/israel-crypto-tax/internal/logging"
	"github.com/dkronst/israel-crypto-tax/internal/model"
	"github.com/dkronst/israel-crypto-tax/internal/prices"
)

// Augmenter expands non-USD-based trades into fiat legs using a price
// resolver for the base asset's opening USD price.
type Augmenter struct {
	prices prices.Resolver
}

// New creates an Augmenter over the given resolver.
func New(r prices.Resolver) *Augmenter {
	return &Augmenter{prices: r}
}

// Expand returns the fiat-legged replacement for tx. A USD-based
// transaction passes through unmodified; any other trade becomes exactly
// two legs, economically equivalent to selling the base asset for USD and
// transacting the target asset with that USD. Both legs inherit the
// original timestamp, so this must run before chronological merging.
func (g *Augmenter) Expand(tx model.Transaction) ([]model.Transaction, error) {
	if tx.AssetBase == model.Fiat {
		return []model.Transaction{tx}, nil
	}

	basePrice, err := g.prices.Lookup(tx.AssetBase, tx.Date)
	if err != nil {
		return nil, fmt.Errorf("pricing %s for %s/%s swap on %s: %w",
			tx.AssetBase, tx.AssetBase, tx.AssetTgt, tx.Date.Format(prices.DayFormat), err)
	}

	usdAmount := tx.Amount.Mul(basePrice)

	var sellLeg, buyLeg model.Transaction
	switch tx.Type {
	case model.Buy:
		// Sell the base asset for USD, then buy the target with the USD.
		sellLeg = model.Transaction{
			AssetBase: model.Fiat,
			AssetTgt:  tx.AssetBase,
			Type:      model.Sell,
			Amount:    usdAmount,
			Rate:      basePrice,
			Date:      tx.Date,
			UnixTime:  tx.UnixTime,
			Augmented: model.BuySwapLeg,
		}
		buyLeg = model.Transaction{
			AssetBase: model.Fiat,
			AssetTgt:  tx.AssetTgt,
			Type:      model.Buy,
			Amount:    usdAmount,
			Rate:      basePrice.Mul(tx.Rate),
			Date:      tx.Date,
			UnixTime:  tx.UnixTime,
			Augmented: model.BuySwapLeg,
		}
	case model.Sell:
		// Sell the target asset for USD, then buy back the base asset.
		sellLeg = model.Transaction{
			AssetBase: model.Fiat,
			AssetTgt:  tx.AssetTgt,
			Type:      model.Sell,
			Amount:    usdAmount,
			Rate:      basePrice.Mul(tx.Rate),
			Date:      tx.Date,
			UnixTime:  tx.UnixTime,
			Augmented: model.SellSwapLeg,
		}
		buyLeg = model.Transaction{
			AssetBase: model.Fiat,
			AssetTgt:  tx.AssetBase,
			Type:      model.Buy,
			Amount:    usdAmount,
			Rate:      basePrice,
			Date:      tx.Date,
			UnixTime:  tx.UnixTime,
			Augmented: model.SellSwapLeg,
		}
	default:
		return nil, fmt.Errorf("unknown transaction type %q", tx.Type)
	}

	logging.L.Debugw("augmented swap",
		"base", tx.AssetBase, "target", tx.AssetTgt, "type", tx.Type,
		"basePrice", basePrice, "usdAmount", usdAmount)

	return []model.Transaction{sellLeg, buyLeg}, nil
}

// ExpandAll expands every transaction in a stream, preserving order.
func (g *Augmenter) ExpandAll(txns []model.Transaction) ([]model.Transaction, error) {
	out := make([]model.Transaction, 0, len(txns))
	for _, tx := range txns {
		legs, err := g.Expand(tx)
		if err != nil {
			return nil, err
		}
		out = append(out, legs...)
	}
	return out, nil
}

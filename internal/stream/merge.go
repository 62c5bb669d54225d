// Package stream combines transaction streams from multiple sources into
// one chronological, duplicate-free sequence.
package stream

import (
	"sort"

	"github.com/dkronst/israel-crypto-tax/internal/model"
)

// Merge concatenates the source streams, stably sorts by unix time (ties
// keep their original relative order), and suppresses consecutive
// duplicates. Overlapping exports from the same account yield
// byte-identical rows, so this is what makes re-importing safe.
func Merge(sources ...[]model.Transaction) []model.Transaction {
	var merged []model.Transaction
	for _, s := range sources {
		merged = append(merged, s...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].UnixTime < merged[j].UnixTime
	})
	return Dedup(merged)
}

// Dedup removes each record whose unix time and type both match the
// immediately preceding kept record. Matching on (unix_time, type) rather
// than full equality tolerates formatting drift between exports while
// keeping a buy and a sell that share a timestamp, such as swap legs.
// Dedup is idempotent.
func Dedup(txns []model.Transaction) []model.Transaction {
	if len(txns) == 0 {
		return nil
	}
	out := make([]model.Transaction, 0, len(txns))
	for _, tx := range txns {
		if n := len(out); n > 0 && out[n-1].UnixTime == tx.UnixTime && out[n-1].Type == tx.Type {
			continue
		}
		out = append(out, tx)
	}
	return out
}

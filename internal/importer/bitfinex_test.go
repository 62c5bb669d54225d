package importer

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkronst/israel-crypto-tax/internal/model"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

// Ledger order is newest-first, as Bitfinex exports it.
const bitfinexSample = `BTC,-0.3,0.2,Exchange 10.0 DASH for BTC @ 0.03,1496534400.0,2017-06-04 00:00:00
USD,1250.0,1050.0,Exchange 0.5 BTC for USD @ 2500.0,1496448000.0,2017-06-03 00:00:00
USD,-1200.0,-200.0,Exchange 0.5 BTC for USD @ 2400.0,1496361600.0,2017-06-02 00:00:00
BTC,-0.1,0.5,Withdrawal #441 to wallet,1496310000.0,2017-06-01 09:40:00
USD,1000.0,1000.0,Deposit (wire transfer) #123,1496275200.0,2017-06-01 00:00:00
`

func TestBitfinexParse(t *testing.T) {
	txns, err := (&BitfinexParser{}).Parse(strings.NewReader(bitfinexSample))
	require.NoError(t, err)
	require.Len(t, txns, 4, "withdrawal row is dropped")

	// Chronological output despite newest-first input.
	deposit := txns[0]
	assert.Equal(t, model.Deposit, deposit.Augmented)
	assert.Equal(t, model.Fiat, deposit.AssetBase)
	assert.Equal(t, model.Fiat, deposit.AssetTgt)
	assert.Equal(t, model.Buy, deposit.Type)
	assert.True(t, deposit.Amount.Equal(dec("1000")))
	assert.True(t, deposit.Rate.Equal(dec("1")))
	assert.Equal(t, int64(1496275200), deposit.UnixTime)

	buy := txns[1]
	assert.Equal(t, model.Buy, buy.Type, "negative ledger amount means the target was bought")
	assert.Equal(t, model.Fiat, buy.AssetBase)
	assert.Equal(t, "BTC", buy.AssetTgt)
	assert.True(t, buy.Amount.Equal(dec("1200")))
	assert.True(t, buy.Rate.Equal(dec("2400")))
	assert.Equal(t, model.Original, buy.Augmented)

	sellTx := txns[2]
	assert.Equal(t, model.Sell, sellTx.Type)
	assert.True(t, sellTx.Amount.Equal(dec("1250")))
	assert.True(t, sellTx.Rate.Equal(dec("2500")))

	swap := txns[3]
	assert.Equal(t, "BTC", swap.AssetBase)
	assert.Equal(t, "DASH", swap.AssetTgt)
	assert.Equal(t, model.Buy, swap.Type)
	assert.True(t, swap.Amount.Equal(dec("0.3")))
	assert.True(t, swap.Rate.Equal(dec("0.03")))
	assert.True(t, swap.Quantity().Equal(dec("10")))
}

func TestBitfinexParse_SkipsMalformedRows(t *testing.T) {
	sample := `USD,1250.0,1050.0,Exchange 0.5 BTC for USD @ 2500.0,1496448000.0,2017-06-03 00:00:00
short,row
USD,not-a-number,0,Exchange 0.5 BTC for USD @ 2500.0,1496448000.0,2017-06-03 00:00:00
USD,100.0,100.0,Exchange 0.5 BTC for USD @ zero,1496448000.0,2017-06-03 00:00:00
`
	txns, err := (&BitfinexParser{}).Parse(strings.NewReader(sample))
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestBitfinexParse_CryptoDepositDropped(t *testing.T) {
	sample := `BTC,0.5,0.5,Deposit #99,1496275200.0,2017-06-01 00:00:00
`
	txns, err := (&BitfinexParser{}).Parse(strings.NewReader(sample))
	require.NoError(t, err)
	assert.Empty(t, txns, "crypto deposits carry no USD cost basis to record")
}

func TestBitfinexParse_Empty(t *testing.T) {
	txns, err := (&BitfinexParser{}).Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, txns)
}

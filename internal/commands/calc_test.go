package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkronst/israel-crypto-tax/internal/config"
	"github.com/dkronst/israel-crypto-tax/internal/report"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

// Ledger order is newest-first, as Bitfinex exports it. The stream holds
// a USD deposit, a BTC buy, a DASH-for-BTC swap and a partial BTC sell.
const bitfinexFixture = `USD,520.0,320.0,Exchange 0.2 BTC for USD @ 2600.0,1496620800.0,2017-06-05 00:00:00
BTC,-0.3,0.2,Exchange 10.0 DASH for BTC @ 0.03,1496534400.0,2017-06-04 00:00:00
USD,-1200.0,-200.0,Exchange 0.5 BTC for USD @ 2400.0,1496361600.0,2017-06-02 00:00:00
USD,1000.0,1000.0,Deposit (wire transfer) #123,1496275200.0,2017-06-01 00:00:00
`

func fixtureConfig(t *testing.T) (*config.Config, []config.Source) {
	t.Helper()
	dir := t.TempDir()

	exportPath := filepath.Join(dir, "ledger.csv")
	require.NoError(t, os.WriteFile(exportPath, []byte(bitfinexFixture), 0o644))

	pricesDir := filepath.Join(dir, "prices")
	require.NoError(t, os.MkdirAll(pricesDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(pricesDir, "btc-history.csv"),
		[]byte("date,open\n2017-06-04,2500\n"), 0o644))

	cfg := &config.Config{
		TaxRate:         0.25,
		YearStart:       "2017-01-01",
		PriceHistoryDir: pricesDir,
	}
	sources := []config.Source{{Format: "bitfinex", Path: exportPath}}
	return cfg, sources
}

func TestRunCalc_EndToEnd(t *testing.T) {
	cfg, sources := fixtureConfig(t)

	// Swap sell leg: 0.3 BTC * (2500 - 2400) = 30.
	// Final sell: 0.2 BTC * (2600 - 2400) = 40.
	tax, err := runCalc(cfg, sources, calcOptions{}, strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, tax.Equal(dec("17.5")), "(30+40)*0.25, got %s", tax)
}

func TestRunCalc_TraceFile(t *testing.T) {
	cfg, sources := fixtureConfig(t)
	tracePath := filepath.Join(t.TempDir(), "trace.csv")

	_, err := runCalc(cfg, sources, calcOptions{traceOut: tracePath},
		strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, err)

	f, err := os.Open(tracePath)
	require.NoError(t, err)
	defer f.Close()

	entries, err := report.Read(f)
	require.NoError(t, err)
	// Deposit, BTC buy, two swap legs, final sell.
	assert.Len(t, entries, 5)
}

func TestRunCalc_ManualQuoteFallback(t *testing.T) {
	cfg, sources := fixtureConfig(t)
	// Point at an empty directory so the BTC lookup must prompt.
	cfg.PriceHistoryDir = t.TempDir()

	var out bytes.Buffer
	tax, err := runCalc(cfg, sources, calcOptions{}, strings.NewReader("2500\n"), &out)
	require.NoError(t, err)
	assert.True(t, tax.Equal(dec("17.5")), "tax = %s", tax)
	assert.Contains(t, out.String(), "BTC")
}

func TestRunCalc_MissingBasisDeclined(t *testing.T) {
	dir := t.TempDir()
	exportPath := filepath.Join(dir, "ledger.csv")
	// A sell with no prior buys exhausts the (empty) BTC queue.
	fixture := "USD,1250.0,1250.0,Exchange 0.5 BTC for USD @ 2500.0,1496448000.0,2017-06-03 00:00:00\n"
	require.NoError(t, os.WriteFile(exportPath, []byte(fixture), 0o644))

	cfg := &config.Config{TaxRate: 0.25, YearStart: "2017-01-01", PriceHistoryDir: dir}
	sources := []config.Source{{Format: "bitfinex", Path: exportPath}}

	_, err := runCalc(cfg, sources, calcOptions{}, strings.NewReader("n\n"), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cost basis")
}

func TestRunCalc_MissingBasisConfirmed(t *testing.T) {
	dir := t.TempDir()
	exportPath := filepath.Join(dir, "ledger.csv")
	fixture := "USD,1250.0,1250.0,Exchange 0.5 BTC for USD @ 2500.0,1496448000.0,2017-06-03 00:00:00\n"
	require.NoError(t, os.WriteFile(exportPath, []byte(fixture), 0o644))

	cfg := &config.Config{TaxRate: 0.25, YearStart: "2017-01-01", PriceHistoryDir: dir}
	sources := []config.Source{{Format: "bitfinex", Path: exportPath}}

	tax, err := runCalc(cfg, sources, calcOptions{}, strings.NewReader("y\n"), &bytes.Buffer{})
	require.NoError(t, err)
	// 0.5 BTC at $2500 with a zero cost basis.
	assert.True(t, tax.Equal(dec("312.5")), "tax = %s", tax)
}

func TestResolveSources(t *testing.T) {
	cfg := &config.Config{Sources: []config.Source{{Format: "bitstamp", Path: "a.csv"}}}

	sources, err := resolveSources(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg.Sources, sources)

	sources, err = resolveSources(cfg, []string{"bitfinex:exports/ledger.csv"})
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "bitfinex", sources[0].Format)
	assert.Equal(t, "exports/ledger.csv", sources[0].Path)

	_, err = resolveSources(&config.Config{}, nil)
	require.Error(t, err)

	_, err = resolveSources(cfg, []string{"just-a-path.csv"})
	require.Error(t, err)
}

func TestConfirmMissingBasis(t *testing.T) {
	fn := confirmMissingBasis(strings.NewReader("yes\n"), &bytes.Buffer{})
	require.NoError(t, fn("BTC", dec("1"), dec("2500")))

	fn = confirmMissingBasis(strings.NewReader("\n"), &bytes.Buffer{})
	require.Error(t, fn("BTC", dec("1"), dec("2500")))
}

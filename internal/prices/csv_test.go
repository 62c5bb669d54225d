package prices

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

const btcHistory = `date,open
2017-06-01,2400.5
2017-06-02,2450
2017-06-04,2500
`

func TestDirStore_LoadTable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "btc-history.csv"), []byte(btcHistory), 0o644))

	table, err := NewDirStore(dir).LoadTable("BTC")
	require.NoError(t, err)
	require.Len(t, table, 3)

	open, err := table.Open(date(2017, 6, 1))
	require.NoError(t, err)
	assert.True(t, open.Equal(dec("2400.5")))

	// Intraday timestamps map to the day's opening price.
	open, err = table.Open(time.Date(2017, 6, 2, 15, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, open.Equal(dec("2450")))
}

func TestDirStore_MissingFile(t *testing.T) {
	_, err := NewDirStore(t.TempDir()).LoadTable("DASH")
	require.ErrorIs(t, err, ErrNoPrice)
}

func TestTable_MissingDay(t *testing.T) {
	table, err := ReadTable(strings.NewReader(btcHistory))
	require.NoError(t, err)

	_, err = table.Open(date(2017, 6, 3))
	require.ErrorIs(t, err, ErrNoPrice)
}

func TestReadTable_BadRow(t *testing.T) {
	_, err := ReadTable(strings.NewReader("date,open\nnot-a-date,2400\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestWriteTable_RoundTrip(t *testing.T) {
	table := Table{
		"2017-06-01": dec("2400.5"),
		"2017-06-02": dec("2450"),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, table))

	got, err := ReadTable(&buf)
	require.NoError(t, err)
	assert.Equal(t, table, got)
}

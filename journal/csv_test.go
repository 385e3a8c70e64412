package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCSV(t *testing.T) (*CSVJournal, string, string) {
	t.Helper()

	dir := t.TempDir()
	tp := filepath.Join(dir, "trades.csv")
	ep := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tp, ep)
	require.NoError(t, err)

	return j, tp, ep
}

func readAll(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVHeadersWritten(t *testing.T) {
	t.Parallel()

	j, tp, ep := newTestCSV(t)
	require.NoError(t, j.Close())

	trades := readAll(t, tp)
	require.Len(t, trades, 1)
	assert.Equal(t, "position_id", trades[0][0])

	equity := readAll(t, ep)
	require.Len(t, equity, 1)
	assert.Equal(t, []string{"time", "capital"}, equity[0])
}

func TestCSVRecordTrade(t *testing.T) {
	t.Parallel()

	j, tp, _ := newTestCSV(t)

	rec := TradeRecord{
		PositionID:   "P1",
		Instrument:   "NSE:NIFTY24SEP24500CE",
		Quantity:     75,
		EntryPremium: 120,
		ExitPremium:  95,
		OpenTime:     time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC),
		CloseTime:    time.Date(2024, 9, 4, 14, 0, 0, 0, time.UTC),
		RealizedPL:   -4500,
		Reason:       "StopLoss",
	}
	require.NoError(t, j.RecordTrade(rec))
	require.NoError(t, j.Close())

	rows := readAll(t, tp)
	require.Len(t, rows, 2)
	assert.Equal(t, "P1", rows[1][0])
	assert.Equal(t, "-4500.00", rows[1][7])
	assert.Equal(t, "StopLoss", rows[1][8])
}

func TestCSVAppendAcrossRestart(t *testing.T) {
	t.Parallel()

	j, tp, ep := newTestCSV(t)
	require.NoError(t, j.RecordEquity(EquitySnapshot{Time: time.Now(), Capital: 100000}))
	require.NoError(t, j.Close())

	// Reopening must append, not truncate or re-write headers.
	j2, err := NewCSV(tp, ep)
	require.NoError(t, err)
	require.NoError(t, j2.RecordEquity(EquitySnapshot{Time: time.Now(), Capital: 95500}))
	require.NoError(t, j2.Close())

	rows := readAll(t, ep)
	require.Len(t, rows, 3)
	assert.Equal(t, "100000.00", rows[1][1])
	assert.Equal(t, "95500.00", rows[2][1])
}

package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

// NewCSV opens (or creates) the two CSV files in append mode so that a
// restart keeps extending the same audit trail. Headers are written
// only when the file is new.
func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, tnew, err := openAppend(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, enew, err := openAppend(equityPath)
	if err != nil {
		return nil, err
	}

	tw := csv.NewWriter(tf)
	ew := csv.NewWriter(ef)

	if tnew {
		if err := tw.Write([]string{"position_id", "instrument", "quantity", "entry_premium", "exit_premium", "open_time", "close_time", "realized_pl", "reason"}); err != nil {
			return nil, err
		}
		tw.Flush()
		if err := tw.Error(); err != nil {
			return nil, err
		}
	}
	if enew {
		if err := ew.Write([]string{"time", "capital"}); err != nil {
			return nil, err
		}
		ew.Flush()
		if err := ew.Error(); err != nil {
			return nil, err
		}
	}

	return &CSVJournal{tw, ew, tf, ef}, nil
}

func openAppend(path string) (*os.File, bool, error) {
	st, err := os.Stat(path)
	fresh := err != nil || st.Size() == 0

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, false, err
	}
	return f, fresh, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.PositionID,
		t.Instrument,
		f(t.Quantity),
		f(t.EntryPremium),
		f(t.ExitPremium),
		t.OpenTime.Format(time.RFC3339),
		t.CloseTime.Format(time.RFC3339),
		f(t.RealizedPL),
		t.Reason,
	})
	if err != nil {
		return err
	}

	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	err := j.equity.Write([]string{
		e.Time.Format(time.RFC3339),
		f(e.Capital),
	})
	if err != nil {
		return err
	}

	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}

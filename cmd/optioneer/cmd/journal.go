package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"optioneer/journal"
)

var journalDBPath string

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the trade journal",
}

var journalTradesCSV bool

var journalTradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "List recorded trades",
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := journal.NewSQLite(journalDBPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer j.Close()

		trades, err := j.ListTrades()
		if err != nil {
			return err
		}

		if journalTradesCSV {
			return writeTradesCSV(trades)
		}

		if len(trades) == 0 {
			fmt.Println("no trades recorded")
			return nil
		}

		var total float64
		fmt.Printf("%-28s %-24s %8s %10s %10s %12s %s\n",
			"ID", "INSTRUMENT", "QTY", "ENTRY", "EXIT", "P&L", "CLOSED")
		for _, t := range trades {
			total += t.RealizedPL
			fmt.Printf("%-28s %-24s %8.0f %10.2f %10.2f %12.2f %s\n",
				t.PositionID, t.Instrument, t.Quantity, t.EntryPremium,
				t.ExitPremium, t.RealizedPL, t.CloseTime.Format(time.RFC3339))
		}
		fmt.Printf("\n%d trades, net P&L %.2f\n", len(trades), total)
		return nil
	},
}

func writeTradesCSV(trades []journal.TradeRecord) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write([]string{
		"position_id", "instrument", "quantity", "entry_premium",
		"exit_premium", "open_time", "close_time", "realized_pl", "reason",
	}); err != nil {
		return err
	}
	for _, t := range trades {
		if err := w.Write([]string{
			t.PositionID,
			t.Instrument,
			strconv.FormatFloat(t.Quantity, 'f', -1, 64),
			strconv.FormatFloat(t.EntryPremium, 'f', 2, 64),
			strconv.FormatFloat(t.ExitPremium, 'f', 2, 64),
			t.OpenTime.Format(time.RFC3339),
			t.CloseTime.Format(time.RFC3339),
			strconv.FormatFloat(t.RealizedPL, 'f', 2, 64),
			t.Reason,
		}); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	journalCmd.PersistentFlags().StringVar(&journalDBPath, "db", "./journal.db", "path to the SQLite journal")
	journalTradesCmd.Flags().BoolVar(&journalTradesCSV, "csv", false, "emit CSV on stdout instead of a table")

	journalCmd.AddCommand(journalTradesCmd)
	rootCmd.AddCommand(journalCmd)
}

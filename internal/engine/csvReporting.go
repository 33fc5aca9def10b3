package engine

import (
	"barsim/types"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"
)

// WriteTradesCSVFile writes the trade log to a CSV file at the given path.
func WriteTradesCSVFile(path string, trades []types.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trades file: %w", err)
	}
	defer f.Close()

	return WriteTradesCSV(f, trades)
}

// WriteTradesCSV writes trades to any io.Writer as CSV, one row per fill in
// execution order.
func WriteTradesCSV(w io.Writer, trades []types.Trade) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"trade_id",
		"ticker",
		"side", // "BUY" or "SELL"
		"shares",
		"price",
		"value",
		"time", // RFC3339
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, t := range trades {
		if err := writeTradeRow(cw, t); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	return nil
}

func writeTradeRow(cw *csv.Writer, t types.Trade) error {
	record := []string{
		t.ID,
		t.Ticker,
		string(t.Side),
		t.Shares.String(),
		t.Price.String(),
		t.Value().String(),
		t.Time.Format(time.RFC3339),
	}

	if err := cw.Write(record); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// WriteEquityCSVFile writes the equity curve to a CSV file at the given path.
func WriteEquityCSVFile(path string, equity []types.EquityPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create equity file: %w", err)
	}
	defer f.Close()

	return WriteEquityCSV(f, equity)
}

func WriteEquityCSV(w io.Writer, equity []types.EquityPoint) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"time", "value"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range equity {
		if err := cw.Write([]string{p.Time.Format(time.RFC3339), p.Value.String()}); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

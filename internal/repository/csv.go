package repository

import (
	"barsim/types"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var csvColumns = []string{"date", "open", "high", "low", "close", "volume"}

// ReadCandlesCSVFile opens path and parses it with ReadCandlesCSV.
func ReadCandlesCSVFile(path, ticker string, interval types.Interval) ([]types.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candles file: %w", err)
	}
	defer f.Close()

	return ReadCandlesCSV(f, ticker, interval)
}

// ReadCandlesCSV parses a Date,Open,High,Low,Close,Volume file. Column order
// follows the header, names are case-insensitive and Volume may be left out.
// Dates are either 2006-01-02 or RFC3339. Rows keep their file order.
func ReadCandlesCSV(r io.Reader, ticker string, interval types.Interval) ([]types.Candle, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoCandles
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range csvColumns[:5] {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: header is missing %q", ErrMalformedRow, col)
		}
	}

	var candles []types.Candle
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRow, line, err)
		}

		c, err := parseCSVRow(record, idx)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRow, line, err)
		}
		c.Ticker = ticker
		c.Interval = interval
		candles = append(candles, c)
	}
	if len(candles) == 0 {
		return nil, ErrNoCandles
	}
	return candles, nil
}

func parseCSVRow(record []string, idx map[string]int) (types.Candle, error) {
	field := func(name string) (string, error) {
		i, ok := idx[name]
		if !ok {
			return "", nil
		}
		if i >= len(record) || strings.TrimSpace(record[i]) == "" {
			return "", fmt.Errorf("empty %s", name)
		}
		return strings.TrimSpace(record[i]), nil
	}
	num := func(name string) (decimal.Decimal, error) {
		s, err := field(name)
		if err != nil {
			return decimal.Zero, err
		}
		if s == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s: %q is not a number", name, s)
		}
		return d, nil
	}

	var c types.Candle
	date, err := field("date")
	if err != nil {
		return c, err
	}
	if c.Timestamp, err = parseDate(date); err != nil {
		return c, err
	}
	if c.Open, err = num("open"); err != nil {
		return c, err
	}
	if c.High, err = num("high"); err != nil {
		return c, err
	}
	if c.Low, err = num("low"); err != nil {
		return c, err
	}
	if c.Close, err = num("close"); err != nil {
		return c, err
	}
	if c.Volume, err = num("volume"); err != nil {
		return c, err
	}
	return c, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("date %q is neither 2006-01-02 nor RFC3339", s)
}

package repository

import (
	"barsim/types"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
)

// CandleRecord is the Parquet schema for bar data.
type CandleRecord struct {
	Ticker    string  `parquet:"ticker"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// ParquetStore reads and writes bar series as single Parquet files.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a ParquetStore resolving relative paths against dataDir.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

func (s *ParquetStore) resolve(path string) string {
	if filepath.IsAbs(path) || s.DataDir == "" {
		return path
	}
	return filepath.Join(s.DataDir, path)
}

// WriteCandles writes candles to path in the order given.
func (s *ParquetStore) WriteCandles(path string, candles []types.Candle) error {
	records := make([]CandleRecord, len(candles))
	for i, c := range candles {
		records[i] = CandleRecord{
			Ticker:    c.Ticker,
			Timestamp: c.Timestamp.UnixMilli(),
			Open:      c.Open.InexactFloat64(),
			High:      c.High.InexactFloat64(),
			Low:       c.Low.InexactFloat64(),
			Close:     c.Close.InexactFloat64(),
			Volume:    c.Volume.InexactFloat64(),
		}
	}

	path = s.resolve(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("writing candles to %s: %w", path, err)
	}
	return nil
}

// ReadCandles reads the bars for ticker from path. Records of other tickers
// are skipped; an empty ticker keeps everything.
func (s *ParquetStore) ReadCandles(path, ticker string, interval types.Interval) ([]types.Candle, error) {
	path = s.resolve(path)
	records, err := parquet.ReadFile[CandleRecord](path)
	if err != nil {
		return nil, fmt.Errorf("reading candles from %s: %w", path, err)
	}

	candles := make([]types.Candle, 0, len(records))
	for _, r := range records {
		if ticker != "" && r.Ticker != ticker {
			continue
		}
		candles = append(candles, types.Candle{
			Ticker:    r.Ticker,
			Open:      decimal.NewFromFloat(r.Open),
			High:      decimal.NewFromFloat(r.High),
			Low:       decimal.NewFromFloat(r.Low),
			Close:     decimal.NewFromFloat(r.Close),
			Volume:    decimal.NewFromFloat(r.Volume),
			Interval:  interval,
			Timestamp: time.UnixMilli(r.Timestamp).UTC(),
		})
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%s in %s: %w", ticker, path, ErrNoCandles)
	}
	return candles, nil
}

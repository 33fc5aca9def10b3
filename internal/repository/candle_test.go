package repository

import (
	"barsim/types"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var testInterval = types.OneMinute
var startTime = time.UnixMilli(0)
var endTime = startTime.Add(time.Minute * 5)

type mockCandlesRepository struct {
	sqlError error
	empty    bool
	lastArg  *aggregatesParams
}

func TestDatabase_GetAggregates(t *testing.T) {
	type args struct {
		assetId  int
		interval types.Interval
		start    time.Time
		end      time.Time
	}
	tests := []struct {
		name    string
		args    args
		want    []types.Candle
		empty   bool
		sqlErr  error
		wantErr error
	}{
		{"should throw ErrNoCandles on empty result", args{999, testInterval, startTime, endTime}, nil, true, nil, ErrNoCandles},
		{"should throw ErrNoCandles on no rows", args{999, testInterval, startTime, endTime}, nil, false, pgx.ErrNoRows, ErrNoCandles},
		{"should throw ErrIntervalNotSupported", args{999, types.Month, startTime, endTime}, nil, false, nil, ErrIntervalNotSupported},
		{"should return candles", args{999, testInterval, startTime, endTime}, mockCandles(999, startTime, endTime), false, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockCandlesRepository{sqlError: tt.sqlErr, empty: tt.empty}
			db := &Database{candles: repo}
			got, err := db.GetAggregates(context.Background(), tt.args.assetId, "AAPL", tt.args.interval, tt.args.start, tt.args.end)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("GetAggregates() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetAggregates() unexpected error = %v", err)
			}
			if repo.lastArg == nil || repo.lastArg.TimeBucket != "1 minute" {
				t.Errorf("GetAggregates() bucket arg = %+v", repo.lastArg)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("GetAggregates() len = %d, want %d", len(got), len(tt.want))
			}
			for i := 0; i < len(tt.want); i++ {
				if got[i].AssetId != tt.args.assetId {
					t.Errorf("GetAggregates() %s assetId got = %v, want %v", got[i].Timestamp, got[i].AssetId, tt.want[i].AssetId)
					break
				}
				if got[i].Ticker != "AAPL" {
					t.Errorf("GetAggregates() %s ticker got = %v", got[i].Timestamp, got[i].Ticker)
					break
				}
				if got[i].Interval != tt.args.interval {
					t.Errorf("GetAggregates() %s interval got = %v, want %v", got[i].Timestamp, got[i].Interval, tt.want[i].Interval)
					break
				}
				if !got[i].High.Equal(tt.want[i].High) {
					t.Errorf("GetAggregates() %s high got = %v, want %v", got[i].Timestamp, got[i].High, tt.want[i].High)
					break
				}
				if !got[i].Timestamp.Equal(tt.want[i].Timestamp) {
					t.Errorf("GetAggregates() timestamp got = %v, want %v", got[i].Timestamp, tt.want[i].Timestamp)
					break
				}
			}
		})
	}
}

func TestDatabase_LoadCandles(t *testing.T) {
	db := &Database{
		assets:  mockAssetsRepository{},
		candles: &mockCandlesRepository{},
	}
	got, err := db.LoadCandles(context.Background(), "AAPL", testInterval, startTime, endTime)
	if err != nil {
		t.Fatalf("LoadCandles() error = %v", err)
	}
	if len(got) != 5 || got[0].AssetId != 1 {
		t.Errorf("LoadCandles() = %d candles, asset %d", len(got), got[0].AssetId)
	}

	db.assets = mockAssetsRepository{sqlError: pgx.ErrNoRows}
	if _, err := db.LoadCandles(context.Background(), "NOPE", testInterval, startTime, endTime); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("LoadCandles() error = %v, want %v", err, ErrAssetNotFound)
	}
}

func (m *mockCandlesRepository) GetAggregates(_ context.Context, arg aggregatesParams) ([]aggregateRow, error) {
	m.lastArg = &arg
	if m.sqlError != nil {
		return []aggregateRow{}, m.sqlError
	}
	if m.empty {
		return nil, nil
	}
	var candles []aggregateRow
	i := arg.Starttime
	for i.Before(arg.Endtime) {
		candles = append(candles, aggregateRow{
			Bucket:  i,
			AssetID: arg.AssetID,
			Open:    decimal.NewFromInt(i.UnixMilli()),
			High:    decimal.NewFromInt(i.UnixMilli()),
			Low:     decimal.NewFromInt(i.UnixMilli()),
			Close:   decimal.NewFromInt(i.UnixMilli()),
			Volume:  decimal.NewFromInt(i.UnixMilli()),
		})
		i = i.Add(types.IntervalToTime[testInterval])
	}
	return candles, nil
}

func mockCandles(assetId int, start, end time.Time) []types.Candle {
	var candles []types.Candle
	i := start
	for i.Before(end) {
		candles = append(candles, types.Candle{
			Timestamp: i,
			Ticker:    "AAPL",
			Interval:  testInterval,
			AssetId:   assetId,
			Open:      decimal.NewFromInt(i.UnixMilli()),
			High:      decimal.NewFromInt(i.UnixMilli()),
			Low:       decimal.NewFromInt(i.UnixMilli()),
			Close:     decimal.NewFromInt(i.UnixMilli()),
			Volume:    decimal.NewFromInt(i.UnixMilli()),
		})
		i = i.Add(types.IntervalToTime[testInterval])
	}
	return candles
}

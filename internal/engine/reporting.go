package engine

import (
	"barsim/types"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Report struct {
	// Meta / period info
	StartDate   time.Time     `json:"startDate"`
	EndDate     time.Time     `json:"endDate"`
	TotalPeriod time.Duration `json:"totalPeriod"`
	TotalTrades int           `json:"totalRoundTrips"`

	// Absolute performance
	NetProfit            decimal.Decimal `json:"netProfit"`
	NetAvgProfitPerTrade decimal.Decimal `json:"netAvgProfitPerTrade"`
	CAGR                 decimal.Decimal `json:"cagr"`

	// Trade-level distribution metrics
	AvgWin  decimal.Decimal `json:"avgWin"`
	AvgLoss decimal.Decimal `json:"avgLoss"`

	// Drawdown & loss streak metrics
	MaxDrawdown          decimal.Decimal `json:"maxDrawdownAbs"`
	MaxDrawdownPercent   decimal.Decimal `json:"maxDrawdownPct"`
	MaxDrawdownDuration  time.Duration   `json:"maxDrawdownDuration"`
	MaxConsecutiveLosses int             `json:"maxConsecutiveLosses"`

	// Risk-adjusted metrics
	SharpeRatio  decimal.Decimal `json:"sharpeRatio"`
	SortinoRatio decimal.Decimal `json:"sortinoRatio"`
	ProfitFactor decimal.Decimal `json:"profitFactor"`
}

// generateResult turns a finished run into a Result. It only reads its inputs.
func generateResult(initialCapital decimal.Decimal, equity []types.EquityPoint, trades []types.Trade, cfg ReportingConfig) *Result {
	roundTrips := buildRoundTrips(trades)
	closed := closedRoundTrips(roundTrips)
	returns := pctChange(equity)

	finalEquity := initialCapital
	if len(equity) > 0 {
		finalEquity = equity[len(equity)-1].Value
	}

	report := Report{}
	if len(equity) > 0 {
		report.StartDate = equity[0].Time
		report.EndDate = equity[len(equity)-1].Time
		report.TotalPeriod = report.EndDate.Sub(report.StartDate)
	}
	report.TotalTrades = len(closed)

	var maxDrawdown decimal.Decimal
	var wins, losses int

	var wg sync.WaitGroup
	wg.Add(9)
	go func() {
		report.NetProfit = calcNetProfit(closed, &wg)
	}()
	go func() {
		report.NetAvgProfitPerTrade = calcNetAvgProfitPerTrade(closed, &wg)
	}()
	go func() {
		report.AvgWin, report.AvgLoss = calcAvgWinLossPerTrade(closed, &wg)
	}()
	go func() {
		report.CAGR = calcCAGR(equity, &wg)
	}()
	go func() {
		maxDrawdown, report.MaxDrawdown, report.MaxDrawdownDuration = calcDrawdownMetrics(equity, &wg)
	}()
	go func() {
		report.MaxConsecutiveLosses = calcMaxConsecutiveLosses(closed, &wg)
	}()
	go func() {
		report.SharpeRatio = calcSharpeRatio(returns, cfg.annualizationFactor, cfg.sharpeRiskFreeRate, &wg)
	}()
	go func() {
		report.SortinoRatio = calcSortinoRatio(returns, cfg.annualizationFactor, cfg.sharpeRiskFreeRate, &wg)
	}()
	go func() {
		wins, losses = countWinsLosses(closed)
		report.ProfitFactor = calcProfitFactor(closed, &wg)
	}()
	wg.Wait()
	report.MaxDrawdownPercent = maxDrawdown.Mul(hundred)

	winRate := decimal.Zero
	if len(closed) > 0 {
		winRate = decimal.NewFromInt(int64(wins)).Div(decimal.NewFromInt(int64(len(closed)))).Mul(hundred)
	}

	return &Result{
		InitialCapital: initialCapital,
		FinalEquity:    finalEquity,
		TotalReturnPct: finalEquity.Sub(initialCapital).Div(initialCapital).Mul(hundred),
		SharpeRatio:    report.SharpeRatio,
		MaxDrawdown:    maxDrawdown,
		EquityCurve:    equity,
		Trades:         trades,
		RoundTrips:     roundTrips,
		TotalTrades:    len(trades),
		WinningTrades:  wins,
		LosingTrades:   losses,
		WinRatePct:     winRate,
		Report:         report,
	}
}

// pctChange returns the per-step returns of the equity curve, one fewer than
// the number of points. A step from zero equity has no defined return and is
// left out.
func pctChange(equity []types.EquityPoint) []float64 {
	if len(equity) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev.IsZero() {
			continue
		}
		r := equity[i].Value.Sub(prev).Div(prev)
		returns = append(returns, r.InexactFloat64())
	}
	return returns
}

func countWinsLosses(closed []RoundTrip) (int, int) {
	wins, losses := 0, 0
	for _, rt := range closed {
		switch {
		case rt.PnL.IsPositive():
			wins++
		case rt.PnL.IsNegative():
			losses++
		}
	}
	return wins, losses
}

func calcNetProfit(closed []RoundTrip, wg *sync.WaitGroup) decimal.Decimal {
	defer wg.Done()

	net := decimal.Zero
	for _, rt := range closed {
		net = net.Add(rt.PnL)
	}
	return net
}

func calcNetAvgProfitPerTrade(closed []RoundTrip, wg *sync.WaitGroup) decimal.Decimal {
	defer wg.Done()

	if len(closed) == 0 {
		return decimal.Zero
	}
	net := decimal.Zero
	for _, rt := range closed {
		net = net.Add(rt.PnL)
	}
	return net.Div(decimal.NewFromInt(int64(len(closed))))
}

func calcAvgWinLossPerTrade(closed []RoundTrip, wg *sync.WaitGroup) (decimal.Decimal, decimal.Decimal) {
	defer wg.Done()

	sumWins := decimal.Zero
	sumLosses := decimal.Zero // store absolute loss amounts
	winCount := 0
	lossCount := 0

	for _, rt := range closed {
		switch {
		case rt.PnL.GreaterThan(decimal.Zero):
			sumWins = sumWins.Add(rt.PnL)
			winCount++
		case rt.PnL.LessThan(decimal.Zero):
			sumLosses = sumLosses.Add(rt.PnL.Abs())
			lossCount++
		}
	}

	avgWin := decimal.Zero
	avgLoss := decimal.Zero

	if winCount > 0 {
		avgWin = sumWins.Div(decimal.NewFromInt(int64(winCount)))
	}
	if lossCount > 0 {
		avgLoss = sumLosses.Div(decimal.NewFromInt(int64(lossCount)))
	}

	return avgWin, avgLoss
}

// calcProfitFactor is gross profit over gross loss, zero when nothing was lost.
func calcProfitFactor(closed []RoundTrip, wg *sync.WaitGroup) decimal.Decimal {
	defer wg.Done()

	grossProfit := decimal.Zero
	grossLoss := decimal.Zero
	for _, rt := range closed {
		if rt.PnL.IsPositive() {
			grossProfit = grossProfit.Add(rt.PnL)
		} else {
			grossLoss = grossLoss.Add(rt.PnL.Abs())
		}
	}
	if grossLoss.IsZero() {
		return decimal.Zero
	}
	return grossProfit.Div(grossLoss)
}

func calcCAGR(equity []types.EquityPoint, wg *sync.WaitGroup) decimal.Decimal {
	defer wg.Done()
	if len(equity) < 2 {
		return decimal.Zero
	}

	start := equity[0]
	end := equity[len(equity)-1]

	// If starting value is <= 0, CAGR is not well-defined
	if !start.Value.GreaterThan(decimal.Zero) {
		return decimal.Zero
	}

	// time difference in years (using 365.25 days to account for leap years)
	duration := end.Time.Sub(start.Time)
	if duration <= 0 {
		return decimal.Zero
	}
	years := duration.Hours() / (24.0 * 365.25)

	ratio := end.Value.Div(start.Value)
	if !ratio.GreaterThan(decimal.Zero) {
		return decimal.Zero
	}

	cagrFloat := math.Pow(ratio.InexactFloat64(), 1.0/years) - 1.0
	if math.IsInf(cagrFloat, 0) || math.IsNaN(cagrFloat) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(cagrFloat)
}

// calcDrawdownMetrics walks the equity curve against its running peak. It
// returns the deepest drawdown as a non-positive fraction of the peak, the same
// drawdown in currency, and how long after the peak it was reached.
func calcDrawdownMetrics(equity []types.EquityPoint, wg *sync.WaitGroup) (decimal.Decimal, decimal.Decimal, time.Duration) {
	defer wg.Done()

	if len(equity) == 0 {
		return decimal.Zero, decimal.Zero, 0
	}

	peak := equity[0].Value
	peakTime := equity[0].Time

	maxDDPct := decimal.Zero
	maxDD := decimal.Zero
	var maxDDDuration time.Duration

	for _, p := range equity {
		if p.Value.GreaterThan(peak) {
			peak = p.Value
			peakTime = p.Time
		}
		if !peak.IsPositive() {
			continue
		}

		dd := p.Value.Sub(peak).Div(peak)
		if dd.LessThan(maxDDPct) {
			maxDDPct = dd
			maxDD = peak.Sub(p.Value)
			maxDDDuration = p.Time.Sub(peakTime)
		}
	}

	return maxDDPct, maxDD, maxDDDuration
}

func calcMaxConsecutiveLosses(closed []RoundTrip, wg *sync.WaitGroup) int {
	defer wg.Done()

	maxLossStreak := 0
	currentStreak := 0

	for _, rt := range closed {
		if rt.PnL.LessThan(decimal.Zero) {
			currentStreak++
			if currentStreak > maxLossStreak {
				maxLossStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}

	return maxLossStreak
}

// perPeriodRiskFree converts an annual rate to the rate of one period:
// rf_period = (1 + rf_annual)^(1/periods) - 1
func perPeriodRiskFree(annualRiskFree decimal.Decimal, periodsPerYear int) float64 {
	if annualRiskFree.IsZero() {
		return 0
	}
	return math.Pow(1.0+annualRiskFree.InexactFloat64(), 1.0/float64(periodsPerYear)) - 1.0
}

// calcSharpeRatio annualizes mean excess return over its sample standard
// deviation. Fewer than two returns, or a flat series, give zero.
func calcSharpeRatio(returns []float64, periodsPerYear int, annualRiskFree decimal.Decimal, wg *sync.WaitGroup) decimal.Decimal {
	defer wg.Done()
	if len(returns) < 2 {
		return decimal.Zero
	}

	rf := perPeriodRiskFree(annualRiskFree, periodsPerYear)
	excess := make([]float64, len(returns))
	var sum float64
	flat := true
	for i, r := range returns {
		excess[i] = r - rf
		sum += excess[i]
		flat = flat && excess[i] == excess[0]
	}
	if flat {
		return decimal.Zero
	}
	mean := sum / float64(len(excess))

	var varianceSum float64
	for _, x := range excess {
		diff := x - mean
		varianceSum += diff * diff
	}
	std := math.Sqrt(varianceSum / float64(len(excess)-1))
	if std == 0 {
		return decimal.Zero
	}

	return decimal.NewFromFloat(mean / std * math.Sqrt(float64(periodsPerYear)))
}

// calcSortinoRatio is the Sharpe ratio with only below-target returns in the
// denominator.
func calcSortinoRatio(returns []float64, periodsPerYear int, annualRiskFree decimal.Decimal, wg *sync.WaitGroup) decimal.Decimal {
	defer wg.Done()
	if len(returns) < 2 {
		return decimal.Zero
	}

	rf := perPeriodRiskFree(annualRiskFree, periodsPerYear)
	var sum, downside float64
	for _, r := range returns {
		x := r - rf
		sum += x
		if x < 0 {
			downside += x * x
		}
	}
	if downside == 0 {
		return decimal.Zero
	}
	mean := sum / float64(len(returns))
	dd := math.Sqrt(downside / float64(len(returns)-1))
	if dd == 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(mean / dd * math.Sqrt(float64(periodsPerYear)))
}

// PrintReport writes a human readable summary of r to w.
func PrintReport(w io.Writer, r *Result) {
	report := r.Report

	fmt.Fprintln(w, "===== Trading Report =====")
	fmt.Fprintf(w, "Strategy:              %s\n", r.Strategy)
	fmt.Fprintf(w, "Ticker:                %s\n", r.Ticker)
	fmt.Fprintf(w, "Start Date:            %s\n", report.StartDate.Format("2006-01-02"))
	fmt.Fprintf(w, "Total Period:          %d days\n", report.TotalPeriod/(24*time.Hour))
	fmt.Fprintf(w, "Fills:                 %d\n", r.TotalTrades)
	fmt.Fprintf(w, "Round Trips:           %d\n", report.TotalTrades)

	fmt.Fprintln(w, "\n-- Absolute Performance --")
	fmt.Fprintf(w, "Initial Capital:       %s\n", r.InitialCapital.StringFixed(2))
	fmt.Fprintf(w, "Final Equity:          %s\n", r.FinalEquity.StringFixed(2))
	fmt.Fprintf(w, "Total Return %%:        %s\n", r.TotalReturnPct.StringFixed(2))
	fmt.Fprintf(w, "Net Profit:            %s\n", report.NetProfit.StringFixed(2))
	fmt.Fprintf(w, "Avg Profit/Trade:      %s\n", report.NetAvgProfitPerTrade.StringFixed(2))
	fmt.Fprintf(w, "CAGR:                  %s\n", report.CAGR.StringFixed(4))

	fmt.Fprintln(w, "\n-- Trade-Level Metrics --")
	fmt.Fprintf(w, "Winning / Losing:      %d / %d\n", r.WinningTrades, r.LosingTrades)
	fmt.Fprintf(w, "Win Rate %%:            %s\n", r.WinRatePct.StringFixed(2))
	fmt.Fprintf(w, "Avg Win:               %s\n", report.AvgWin.StringFixed(2))
	fmt.Fprintf(w, "Avg Loss:              %s\n", report.AvgLoss.StringFixed(2))

	fmt.Fprintln(w, "\n-- Drawdown Metrics --")
	fmt.Fprintf(w, "Max Drawdown:          %s\n", report.MaxDrawdown.StringFixed(2))
	fmt.Fprintf(w, "Max Drawdown %%:        %s\n", report.MaxDrawdownPercent.StringFixed(2))
	fmt.Fprintf(w, "Max Drawdown Duration: %v\n", report.MaxDrawdownDuration)
	fmt.Fprintf(w, "Max Consecutive Losses:%d\n", report.MaxConsecutiveLosses)

	fmt.Fprintln(w, "\n-- Risk-Adjusted Metrics --")
	fmt.Fprintf(w, "Sharpe Ratio:          %s\n", report.SharpeRatio.StringFixed(2))
	fmt.Fprintf(w, "Sortino Ratio:         %s\n", report.SortinoRatio.StringFixed(2))
	fmt.Fprintf(w, "Profit Factor:         %s\n", report.ProfitFactor.StringFixed(2))

	fmt.Fprintln(w, "==========================")
}

package backtest

import (
	"context"
	"io"
	"log"
	"math"
	"reflect"
	"testing"
	"time"

	"gold-trading-lab/internal/aggregate"
	"gold-trading-lab/internal/domain"
	"gold-trading-lab/internal/risk"
	"gold-trading-lab/internal/strategy"
)

var testStart = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testRiskConfig() risk.Config {
	return risk.Config{
		RiskPercent:     1.0,
		Ceiling:         2.0,
		RiskRewardRatio: 2.0,
		DefaultStopPct:  0.01,
		TickValue:       1.0,
		MinIncrement:    0.01,
	}
}

// flatBar builds a bar whose high/low stay within 1 of the close, so it
// never crosses a percentage stop at gold price levels.
func flatBar(ts time.Time, close float64) domain.Bar {
	return domain.Bar{
		Timestamp: ts,
		Open:      close,
		High:      close + 1,
		Low:       close - 1,
		Close:     close,
		Volume:    1000,
	}
}

func testConfig(runID string, strategies []strategy.Strategy, weights map[string]float64) Config {
	return Config{
		RunID:      runID,
		Instrument: "XAUUSD",
		Strategies: strategies,
		Weights:    weights,
		Method:     aggregate.MethodWeightedVote,
		Threshold:  0.25,
		Risk:       testRiskConfig(),
		Account:    domain.AccountState{Balance: 10000, Currency: "USD"},
	}
}

func TestEngine_OpensAndClosesTrade(t *testing.T) {
	ctx := context.Background()

	bars := []domain.Bar{
		flatBar(testStart, 1890),
		flatBar(testStart.Add(1*time.Hour), 1895),
		flatBar(testStart.Add(2*time.Hour), 1900.50),
		{Timestamp: testStart.Add(3 * time.Hour), Open: 1905, High: 1920, Low: 1890, Close: 1910},
		{Timestamp: testStart.Add(4 * time.Hour), Open: 1912, High: 1940, Low: 1908, Close: 1935},
	}

	// Buy at the third bar; the repeat buy at the fourth must be a no-op
	// while the position is open.
	script := map[int64]domain.Direction{
		bars[2].Timestamp.UnixMilli(): domain.DirectionBuy,
		bars[3].Timestamp.UnixMilli(): domain.DirectionBuy,
	}
	scripted := newScriptedStrategy("scripted", 0.9, script)

	engine, err := NewEngine(testConfig("run-1", []strategy.Strategy{scripted}, map[string]float64{"scripted": 1.0}), testLogger())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	results, err := engine.Run(ctx, bars)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if results.Bars != 5 || results.Decisions != 5 {
		t.Fatalf("expected 5 bars and 5 decisions, got %d/%d", results.Bars, results.Decisions)
	}
	if results.TradesOpened != 1 {
		t.Fatalf("expected 1 trade opened, got %d", results.TradesOpened)
	}
	if len(results.Trades) != 1 {
		t.Fatalf("expected 1 closed trade, got %d", len(results.Trades))
	}
	if results.Open != nil {
		t.Fatalf("expected flat end of run, got open trade %s", results.Open.ID)
	}

	trade := results.Trades[0]
	if trade.Direction != domain.DirectionBuy {
		t.Errorf("expected BUY trade, got %s", trade.Direction)
	}
	if trade.EntryPrice != 1900.50 {
		t.Errorf("expected entry 1900.50, got %f", trade.EntryPrice)
	}
	if math.Abs(trade.StopLoss-1881.495) > 1e-9 {
		t.Errorf("expected stop loss 1881.495, got %f", trade.StopLoss)
	}
	if math.Abs(trade.TakeProfit-1938.51) > 1e-9 {
		t.Errorf("expected take profit 1938.51, got %f", trade.TakeProfit)
	}
	if math.Abs(trade.Size-5.26) > 1e-9 {
		t.Errorf("expected size 5.26, got %f", trade.Size)
	}
	if trade.CloseReason != domain.CloseReasonTakeProfit {
		t.Errorf("expected take-profit close, got %s", trade.CloseReason)
	}
	if trade.ExitPrice == nil || math.Abs(*trade.ExitPrice-1938.51) > 1e-9 {
		t.Errorf("expected exit at take profit boundary, got %v", trade.ExitPrice)
	}
	if trade.Outcome != domain.OutcomeWin {
		t.Errorf("expected WIN, got %s", trade.Outcome)
	}
	if !trade.CloseTime.Equal(bars[4].Timestamp) {
		t.Errorf("expected close at the crossing bar, got %s", trade.CloseTime)
	}

	wantPnL := (1938.51 - 1900.50) * 5.26
	if trade.PnL == nil || math.Abs(*trade.PnL-wantPnL) > 1e-6 {
		t.Errorf("expected pnl %f, got %v", wantPnL, trade.PnL)
	}
	if results.Window.TotalTrades != 1 || results.Window.Wins != 1 {
		t.Errorf("performance window did not pick up the trade: %+v", results.Window)
	}
	if math.Abs(results.Window.TotalPnL-wantPnL) > 1e-6 {
		t.Errorf("expected window pnl %f, got %f", wantPnL, results.Window.TotalPnL)
	}
}

func TestEngine_ResidualOpenTrade(t *testing.T) {
	ctx := context.Background()

	bars := []domain.Bar{
		flatBar(testStart, 1900),
		flatBar(testStart.Add(1*time.Hour), 1901),
		flatBar(testStart.Add(2*time.Hour), 1902),
	}
	script := map[int64]domain.Direction{
		bars[1].Timestamp.UnixMilli(): domain.DirectionSell,
	}
	scripted := newScriptedStrategy("scripted", 0.9, script)

	engine, err := NewEngine(testConfig("run-1", []strategy.Strategy{scripted}, map[string]float64{"scripted": 1.0}), testLogger())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	results, err := engine.Run(ctx, bars)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(results.Trades) != 0 {
		t.Fatalf("expected no closed trades, got %d", len(results.Trades))
	}
	if results.Open == nil {
		t.Fatal("expected a residual open trade")
	}
	if results.Open.Direction != domain.DirectionSell || results.Open.Status != domain.TradeStatusOpen {
		t.Errorf("unexpected residual trade: %+v", results.Open)
	}
}

func TestEngine_StrategiesOnlySeeBarPrefix(t *testing.T) {
	ctx := context.Background()

	bars := make([]domain.Bar, 6)
	for i := range bars {
		bars[i] = flatBar(testStart.Add(time.Duration(i)*time.Hour), 1900+float64(i))
	}

	recorder := newPrefixRecorder("recorder")
	engine, err := NewEngine(testConfig("run-1", []strategy.Strategy{recorder}, map[string]float64{"recorder": 1.0}), testLogger())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if _, err := engine.Run(ctx, bars); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []int{1, 2, 3, 4, 5, 6}
	if !reflect.DeepEqual(recorder.lengths, want) {
		t.Errorf("expected window lengths %v, got %v", want, recorder.lengths)
	}
}

func TestEngine_RejectsUnorderedBars(t *testing.T) {
	bars := []domain.Bar{
		flatBar(testStart.Add(time.Hour), 1900),
		flatBar(testStart, 1901),
	}
	scripted := newScriptedStrategy("scripted", 0.9, nil)
	engine, err := NewEngine(testConfig("run-1", []strategy.Strategy{scripted}, map[string]float64{"scripted": 1.0}), testLogger())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if _, err := engine.Run(context.Background(), bars); err == nil {
		t.Fatal("expected error for unordered bar series")
	}
}

// goldSeries builds a deterministic oscillating price series wide enough to
// cross stops and take profits.
func goldSeries(n int) []domain.Bar {
	bars := make([]domain.Bar, n)
	for i := 0; i < n; i++ {
		close := 1900 + 25*math.Sin(float64(i)*0.35) + 3*math.Cos(float64(i)*1.7)
		bars[i] = domain.Bar{
			Timestamp: testStart.Add(time.Duration(i) * time.Hour),
			Open:      close - 1,
			High:      close + 4,
			Low:       close - 4,
			Close:     close,
			Volume:    1000 + float64(i),
		}
	}
	return bars
}

func fullStack(t *testing.T) ([]strategy.Strategy, map[string]float64) {
	t.Helper()

	ma := &strategy.MACrossoverStrategy{ShortPeriod: 5, LongPeriod: 10}
	rsi := &strategy.RSIStrategy{Period: 14, Overbought: 70, Oversold: 30}
	cls := &strategy.ClassifierStrategy{Lookback: 20, Seed: 42}

	weights := map[string]float64{
		ma.ID():  1.0,
		rsi.ID(): 1.0,
		cls.ID(): 1.0,
	}
	return []strategy.Strategy{ma, rsi, cls}, weights
}

func TestEngine_Deterministic(t *testing.T) {
	ctx := context.Background()
	bars := goldSeries(80)

	run := func() *Results {
		strategies, weights := fullStack(t)
		cfg := testConfig("determinism", strategies, weights)
		cfg.Threshold = 0.05
		engine, err := NewEngine(cfg, testLogger())
		if err != nil {
			t.Fatalf("NewEngine failed: %v", err)
		}
		results, err := engine.Run(ctx, bars)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		return results
	}

	first := run()
	second := run()

	if !reflect.DeepEqual(first.Trades, second.Trades) {
		t.Error("reruns produced different trade lists")
	}
	if !reflect.DeepEqual(first.Window, second.Window) {
		t.Error("reruns produced different performance windows")
	}
	if first.Decisions != second.Decisions || first.TradesOpened != second.TradesOpened {
		t.Errorf("rerun counters diverged: %d/%d vs %d/%d",
			first.Decisions, first.TradesOpened, second.Decisions, second.TradesOpened)
	}

	// Trade IDs are a pure function of instrument, run ID and open time.
	for i, trade := range first.Trades {
		if trade.ID != second.Trades[i].ID {
			t.Errorf("trade %d id mismatch: %s vs %s", i, trade.ID, second.Trades[i].ID)
		}
	}
}

package reporting

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"gold-trading-lab/internal/domain"
	"gold-trading-lab/internal/storage/memory"
)

var reportClock = time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)

func insertClosedTrade(t *testing.T, store *memory.TradeStore, id string, closeTime time.Time, pnl float64) {
	t.Helper()

	exit := 1900 + pnl
	p := pnl
	trade := &domain.Trade{
		ID:          id,
		Instrument:  "XAUUSD",
		OpenTime:    closeTime.Add(-time.Hour),
		EntryPrice:  1900,
		Direction:   domain.DirectionBuy,
		Size:        1,
		StopLoss:    1880,
		TakeProfit:  1940,
		Status:      domain.TradeStatusClosed,
		CloseTime:   &closeTime,
		ExitPrice:   &exit,
		PnL:         &p,
		Outcome:     domain.ClassifyOutcome(pnl),
		CloseReason: domain.CloseReasonTakeProfit,
	}
	if err := store.Insert(context.Background(), trade); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
}

func setupHistory(t *testing.T) *memory.TradeStore {
	store := memory.NewTradeStore()
	insertClosedTrade(t, store, "t1", time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC), 100)
	insertClosedTrade(t, store, "t2", time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC), -50)
	insertClosedTrade(t, store, "t3", time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC), 60)
	return store
}

func TestGenerator_Generate(t *testing.T) {
	store := setupHistory(t)
	gen := NewGenerator(store).WithClock(func() time.Time { return reportClock })

	report, err := gen.Generate(context.Background(), domain.PeriodDaily)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !report.GeneratedAt.Equal(reportClock) {
		t.Errorf("expected injected clock time, got %s", report.GeneratedAt)
	}
	if report.TotalTrades != 3 {
		t.Errorf("expected 3 trades, got %d", report.TotalTrades)
	}
	if len(report.Windows) != 2 {
		t.Fatalf("expected 2 daily windows, got %d", len(report.Windows))
	}
	if report.Windows[0].TotalTrades != 2 || report.Windows[1].TotalTrades != 1 {
		t.Errorf("unexpected window split: %d/%d", report.Windows[0].TotalTrades, report.Windows[1].TotalTrades)
	}

	if report.Overall.TotalTrades != 3 {
		t.Errorf("overall window missed trades: %d", report.Overall.TotalTrades)
	}
	if math.Abs(report.Overall.TotalPnL-110) > 0.001 {
		t.Errorf("expected overall pnl 110, got %f", report.Overall.TotalPnL)
	}
	if math.Abs(report.Overall.ProfitFactor-3.2) > 0.001 {
		t.Errorf("expected overall profit factor 3.2, got %f", report.Overall.ProfitFactor)
	}
}

func TestGenerator_EmptyHistory(t *testing.T) {
	gen := NewGenerator(memory.NewTradeStore()).WithClock(func() time.Time { return reportClock })

	report, err := gen.Generate(context.Background(), domain.PeriodWeekly)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if report.TotalTrades != 0 || len(report.Windows) != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}

	md := RenderMarkdown(report)
	if !strings.Contains(md, "No closed trades.") {
		t.Error("markdown should state there are no trades")
	}
}

func TestRenderMarkdown(t *testing.T) {
	store := setupHistory(t)
	gen := NewGenerator(store).WithClock(func() time.Time { return reportClock })
	report, err := gen.Generate(context.Background(), domain.PeriodDaily)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	md := RenderMarkdown(report)

	for _, want := range []string{
		"# Trading Performance Report",
		"Generated: 2025-03-20T12:00:00Z",
		"Period: daily | Closed trades: 3",
		"| 2025-03-10 | 2 |",
		"| 2025-03-11 | 1 |",
		"66.7%",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestRenderWindowsCSV(t *testing.T) {
	windows := []domain.PerformanceWindow{
		{
			PeriodStart:  time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			PeriodEnd:    time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
			TotalTrades:  2,
			Wins:         1,
			Losses:       1,
			Winrate:      0.5,
			TotalPnL:     50,
			ProfitFactor: 2.0,
			MaxDrawdown:  -50,
		},
		{
			PeriodStart:  time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
			PeriodEnd:    time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
			TotalTrades:  1,
			Wins:         1,
			Winrate:      1,
			TotalPnL:     60,
			ProfitFactor: math.Inf(1),
		},
	}

	csv := RenderWindowsCSV(windows)
	lines := strings.Split(strings.TrimRight(csv, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "period_start,period_end,total_trades") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "2025-03-10T00:00:00Z") {
		t.Errorf("row missing period start: %s", lines[1])
	}
	if !strings.Contains(lines[2], ",inf,") {
		t.Errorf("profit factor sentinel should render as inf: %s", lines[2])
	}
}

func TestRenderTradesCSV_SkipsOpenTrades(t *testing.T) {
	store := setupHistory(t)
	trades, err := store.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	trades = append(trades, &domain.Trade{
		ID:         "open-1",
		Instrument: "XAUUSD",
		Status:     domain.TradeStatusOpen,
		Outcome:    domain.OutcomePending,
	})

	csv := RenderTradesCSV(trades)
	lines := strings.Split(strings.TrimRight(csv, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 closed trades, got %d lines", len(lines))
	}
	if strings.Contains(csv, "open-1") {
		t.Error("open trade must not appear in the CSV")
	}
	if !strings.Contains(lines[1], "t1,XAUUSD,BUY") {
		t.Errorf("unexpected first row: %s", lines[1])
	}
}

func TestRenderRiskPlanText(t *testing.T) {
	decision := domain.Decision{
		Timestamp:  reportClock,
		Direction:  domain.DirectionBuy,
		Confidence: 0.8,
		ContributingSignals: []domain.Signal{
			{StrategyID: "MA_CROSSOVER_10_20", Direction: domain.DirectionBuy, Confidence: 0.8},
		},
	}
	plan := domain.RiskPlan{
		EntryPrice:      1900.50,
		StopLoss:        1881.495,
		TakeProfit:      1938.51,
		PositionSize:    5.26,
		MaxLossAmount:   100,
		RiskPercentUsed: 1,
	}

	text := RenderRiskPlanText("XAUUSD", decision, plan)
	for _, want := range []string{"BUY XAUUSD", "Entry: 1900.50", "Stop Loss: 1881.50", "Take Profit: 1938.51", "Size: 5.26", "MA_CROSSOVER_10_20"} {
		if !strings.Contains(text, want) {
			t.Errorf("risk text missing %q:\n%s", want, text)
		}
	}
}

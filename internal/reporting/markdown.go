package reporting

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gold-trading-lab/internal/domain"
)

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Trading Performance Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Period: %s | Closed trades: %d\n\n", r.Period, r.TotalTrades))

	sb.WriteString("## Overall\n\n")
	if r.Overall.TotalTrades == 0 {
		sb.WriteString("No closed trades.\n\n")
	} else {
		writeWindowTable(&sb, []domain.PerformanceWindow{r.Overall})
	}

	sb.WriteString(fmt.Sprintf("## Breakdown by %s window\n\n", r.Period))
	if len(r.Windows) == 0 {
		sb.WriteString("No windows to report.\n")
	} else {
		writeWindowTable(&sb, r.Windows)
	}

	return sb.String()
}

func writeWindowTable(sb *strings.Builder, windows []domain.PerformanceWindow) {
	sb.WriteString("| Window Start | Trades | Wins | Losses | Winrate | PnL | Profit Factor | Max DD | Largest Win | Largest Loss |\n")
	sb.WriteString("|--------------|--------|------|--------|---------|-----|---------------|--------|-------------|-------------|\n")
	for _, w := range windows {
		sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %.1f%% | %+.2f | %s | %.2f | %.2f | %.2f |\n",
			w.PeriodStart.Format("2006-01-02"),
			w.TotalTrades, w.Wins, w.Losses,
			w.Winrate*100, w.TotalPnL,
			formatProfitFactor(w.ProfitFactor),
			w.MaxDrawdown, w.LargestWin, w.LargestLoss))
	}
	sb.WriteString("\n")
}

// formatProfitFactor renders the +Inf sentinel as "inf".
func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", pf)
}

// RenderRiskPlanText renders a decision and its sized plan for
// notifications.
func RenderRiskPlanText(instrument string, decision domain.Decision, plan domain.RiskPlan) string {
	contributing := make([]string, 0, len(decision.ContributingSignals))
	for _, sig := range decision.ContributingSignals {
		contributing = append(contributing, fmt.Sprintf("%s %s %.2f", sig.StrategyID, sig.Direction, sig.Confidence))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*%s %s* (confidence %.2f)\n\n", decision.Direction, instrument, decision.Confidence))
	sb.WriteString(fmt.Sprintf("Entry: %.2f\n", plan.EntryPrice))
	sb.WriteString(fmt.Sprintf("Stop Loss: %.2f\n", plan.StopLoss))
	sb.WriteString(fmt.Sprintf("Take Profit: %.2f\n", plan.TakeProfit))
	sb.WriteString(fmt.Sprintf("Size: %.2f\n", plan.PositionSize))
	sb.WriteString(fmt.Sprintf("Max Loss: %.2f (%.2f%% risk)\n", plan.MaxLossAmount, plan.RiskPercentUsed))
	if len(contributing) > 0 {
		sb.WriteString("\nSignals:\n")
		for _, line := range contributing {
			sb.WriteString("- " + line + "\n")
		}
	}
	return sb.String()
}

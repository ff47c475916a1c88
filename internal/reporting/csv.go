package reporting

import (
	"fmt"
	"strings"
	"time"

	"gold-trading-lab/internal/domain"
)

// RenderWindowsCSV renders performance windows as a CSV string.
func RenderWindowsCSV(windows []domain.PerformanceWindow) string {
	var sb strings.Builder

	sb.WriteString("period_start,period_end,total_trades,wins,losses,breakevens,winrate,total_pnl,")
	sb.WriteString("profit_factor,max_drawdown,avg_win,avg_loss,largest_win,largest_loss,")
	sb.WriteString("max_consecutive_wins,max_consecutive_losses\n")

	for _, w := range windows {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%d,%d,%d,%.6f,%.6f,%s,%.6f,%.6f,%.6f,%.6f,%.6f,%d,%d\n",
			w.PeriodStart.Format(time.RFC3339),
			w.PeriodEnd.Format(time.RFC3339),
			w.TotalTrades,
			w.Wins,
			w.Losses,
			w.Breakevens,
			w.Winrate,
			w.TotalPnL,
			formatProfitFactor(w.ProfitFactor),
			w.MaxDrawdown,
			w.AvgWin,
			w.AvgLoss,
			w.LargestWin,
			w.LargestLoss,
			w.MaxConsecutiveWins,
			w.MaxConsecutiveLosses,
		))
	}

	return sb.String()
}

// RenderTradesCSV renders the closed-trade list as a CSV string. Open
// trades are skipped.
func RenderTradesCSV(trades []*domain.Trade) string {
	var sb strings.Builder

	sb.WriteString("trade_id,instrument,direction,open_time,close_time,entry_price,exit_price,")
	sb.WriteString("stop_loss,take_profit,size,pnl,outcome,close_reason\n")

	for _, t := range trades {
		if t == nil || t.Status != domain.TradeStatusClosed || t.CloseTime == nil || t.ExitPrice == nil || t.PnL == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%s,%s\n",
			t.ID,
			t.Instrument,
			t.Direction,
			t.OpenTime.Format(time.RFC3339),
			t.CloseTime.Format(time.RFC3339),
			t.EntryPrice,
			*t.ExitPrice,
			t.StopLoss,
			t.TakeProfit,
			t.Size,
			*t.PnL,
			t.Outcome,
			t.CloseReason,
		))
	}

	return sb.String()
}

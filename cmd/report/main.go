// Package main renders performance reports from the trade history.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"gold-trading-lab/internal/domain"
	"gold-trading-lab/internal/notify"
	"gold-trading-lab/internal/reporting"
	"gold-trading-lab/internal/storage"
	"gold-trading-lab/internal/storage/jsonl"
	pgstore "gold-trading-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	tradeLog := flag.String("trade-log", "trades.jsonl", "JSONL trade log path")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides --trade-log)")
	periodStr := flag.String("period", "daily", "Window period: daily, weekly, monthly")
	format := flag.String("format", "markdown", "Output format: markdown, csv, trades-csv")
	outputPath := flag.String("output", "", "Output file (default stdout)")
	telegramToken := flag.String("telegram-token", "", "Send the report to Telegram with this bot token")
	telegramChatID := flag.Int64("telegram-chat-id", 0, "Telegram chat ID for --telegram-token")
	flag.Parse()

	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	period := domain.Period(*periodStr)
	switch period {
	case domain.PeriodDaily, domain.PeriodWeekly, domain.PeriodMonthly:
	default:
		logger.Fatalf("Invalid period: %s. Must be daily, weekly, or monthly", *periodStr)
	}

	ctx := context.Background()

	tradeStore, closeStore, err := openStore(ctx, *postgresDSN, *tradeLog)
	if err != nil {
		logger.Fatalf("trade store: %v", err)
	}
	defer closeStore()

	report, err := reporting.NewGenerator(tradeStore).Generate(ctx, period)
	if err != nil {
		logger.Fatalf("generate: %v", err)
	}

	rendered, err := render(ctx, report, tradeStore, *format)
	if err != nil {
		logger.Fatalf("render: %v", err)
	}

	if *outputPath != "" {
		if err := os.WriteFile(*outputPath, []byte(rendered), 0o644); err != nil {
			logger.Fatalf("write %s: %v", *outputPath, err)
		}
		logger.Printf("wrote %s", *outputPath)
	} else {
		fmt.Print(rendered)
	}

	if *telegramToken != "" && *telegramChatID != 0 {
		tg, err := notify.NewTelegramNotifier(*telegramToken, *telegramChatID, logger)
		if err != nil {
			logger.Fatalf("telegram: %v", err)
		}
		if err := tg.Send(reporting.RenderMarkdown(report)); err != nil {
			logger.Fatalf("telegram send: %v", err)
		}
		logger.Println("report sent to telegram")
	}
}

func openStore(ctx context.Context, postgresDSN, tradeLog string) (storage.TradeStore, func(), error) {
	if postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return pgstore.NewTradeStore(pool), pool.Close, nil
	}

	store, err := jsonl.Open(tradeLog)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

func render(ctx context.Context, report *reporting.Report, tradeStore storage.TradeStore, format string) (string, error) {
	switch format {
	case "markdown":
		return reporting.RenderMarkdown(report), nil
	case "csv":
		return reporting.RenderWindowsCSV(report.Windows), nil
	case "trades-csv":
		trades, err := tradeStore.GetAll(ctx)
		if err != nil {
			return "", err
		}
		return reporting.RenderTradesCSV(trades), nil
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
}

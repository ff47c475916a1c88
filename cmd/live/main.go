// Package main runs the live evaluation loop: fetch bars, evaluate
// strategies, combine signals, size and record trades, notify.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gold-trading-lab/config"
	"gold-trading-lab/internal/aggregate"
	"gold-trading-lab/internal/domain"
	"gold-trading-lab/internal/engine"
	"gold-trading-lab/internal/ledger"
	"gold-trading-lab/internal/marketdata"
	"gold-trading-lab/internal/notify"
	"gold-trading-lab/internal/observability"
	"gold-trading-lab/internal/risk"
	"gold-trading-lab/internal/sentiment"
	"gold-trading-lab/internal/storage"
	"gold-trading-lab/internal/storage/jsonl"
	"gold-trading-lab/internal/storage/migrations"
	pgstore "gold-trading-lab/internal/storage/postgres"
	"gold-trading-lab/internal/strategy"
)

func main() {
	logger := log.New(os.Stderr, "[live] ", log.LstdFlags)
	cfg := config.Load()

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	timeframe := domain.Timeframe(cfg.Timeframe)

	provider, closeStream, err := buildProvider(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("market data: %v", err)
	}
	defer closeStream()

	analyzer := buildAnalyzer(cfg, logger)

	strategies := buildStrategies(cfg, provider, analyzer)
	weights := make(map[string]float64, len(strategies))
	for _, s := range strategies {
		weights[s.ID()] = 1.0
	}

	combiner, err := aggregate.NewCombiner(cfg.CombineMethod, cfg.CombineThreshold, logger)
	if err != nil {
		logger.Fatalf("combiner: %v", err)
	}

	sizer, err := risk.NewSizer(risk.Config{
		RiskPercent:     cfg.RiskPercent,
		Ceiling:         cfg.RiskCeiling,
		RiskRewardRatio: cfg.RiskRewardRatio,
		DefaultStopPct:  cfg.DefaultStopPct,
		TickValue:       cfg.TickValue,
		MinIncrement:    cfg.MinIncrement,
	})
	if err != nil {
		logger.Fatalf("risk sizer: %v", err)
	}

	tradeStore, closeStore, err := buildTradeStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("trade store: %v", err)
	}
	defer closeStore()

	book := ledger.New(tradeStore, ledger.UUIDGenerator(), logger)
	notifier := buildNotifier(cfg, logger)

	// Metrics endpoint. Failure to bind is fatal: a live process without
	// observability is not worth running.
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	metricsSrv := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: mux}
	go func() {
		logger.Printf("metrics listening on %s", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("metrics server: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	eng, err := engine.New(engine.Config{
		Instrument: cfg.Instrument,
		Timeframe:  timeframe,
		Lookback:   cfg.Lookback,
		Weights:    weights,
		Account:    domain.AccountState{Balance: cfg.AccountBalance, Currency: cfg.AccountCurrency},
		Interval:   cfg.CycleInterval,
	}, engine.Deps{
		Provider:   provider,
		Strategies: strategies,
		Combiner:   combiner,
		Sizer:      sizer,
		Ledger:     book,
		Notifier:   notifier,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatalf("engine: %v", err)
	}

	logger.Printf("running %s/%s every %s with %d strategies",
		cfg.Instrument, cfg.Timeframe, cfg.CycleInterval, len(strategies))

	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("engine stopped: %v", err)
	}
	logger.Println("shutdown complete")
}

// buildProvider assembles the failover chain: websocket stream first when
// configured, then the HTTP feeds in order.
func buildProvider(ctx context.Context, cfg *config.Config, logger *log.Logger) (marketdata.Provider, func(), error) {
	var sources []marketdata.Provider
	closeStream := func() {}

	if cfg.StreamURL != "" {
		stream, err := marketdata.NewStreamSource(ctx, cfg.StreamURL, nil, logger)
		if err != nil {
			// The stream is an optimization; the HTTP feeds still serve.
			logger.Printf("stream source unavailable, continuing with HTTP feeds: %v", err)
		} else {
			if err := stream.Subscribe(cfg.Instrument, domain.Timeframe(cfg.Timeframe)); err != nil {
				logger.Printf("stream subscribe failed: %v", err)
			}
			sources = append(sources, stream)
			closeStream = func() { stream.Close() }
		}
	}
	if cfg.PrimaryFeedURL != "" {
		sources = append(sources, marketdata.NewHTTPSource("primary", cfg.PrimaryFeedURL, cfg.FeedAPIKey))
	}
	if cfg.SecondaryFeedURL != "" {
		sources = append(sources, marketdata.NewHTTPSource("secondary", cfg.SecondaryFeedURL, cfg.FeedAPIKey))
	}
	if len(sources) == 0 {
		return nil, nil, errors.New("no market data sources configured")
	}

	return marketdata.NewChain(marketdata.DefaultRetryPolicy(), logger, sources...), closeStream, nil
}

// buildAnalyzer assembles the sentiment chain: remote analyzers first,
// the offline lexicon as the always-available fallback.
func buildAnalyzer(cfg *config.Config, logger *log.Logger) *sentiment.Chain {
	var analyzers []sentiment.Analyzer
	if cfg.SentimentPrimaryURL != "" {
		analyzers = append(analyzers, sentiment.NewRemoteAnalyzer("primary", cfg.SentimentPrimaryURL, cfg.SentimentAPIKey))
	}
	if cfg.SentimentSecondaryURL != "" {
		analyzers = append(analyzers, sentiment.NewRemoteAnalyzer("secondary", cfg.SentimentSecondaryURL, cfg.SentimentAPIKey))
	}
	analyzers = append(analyzers, sentiment.NewLexiconAnalyzer())
	return sentiment.NewChain(logger, analyzers...)
}

func buildStrategies(cfg *config.Config, news strategy.NewsSource, analyzer strategy.Analyzer) []strategy.Strategy {
	return []strategy.Strategy{
		strategy.NewMACrossoverStrategy(10, 30),
		strategy.NewRSIStrategy(14, 70, 30),
		strategy.NewMACDStrategy(12, 26, 9),
		strategy.NewBollingerStrategy(20, 2.0),
		strategy.NewSentimentStrategy(cfg.Instrument, news, analyzer),
	}
}

func buildTradeStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (storage.TradeStore, func(), error) {
	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Println("trade store: postgres")
		return pgstore.NewTradeStore(pool), pool.Close, nil
	}

	store, err := jsonl.Open(cfg.TradeLogPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Printf("trade store: jsonl %s", cfg.TradeLogPath)
	return store, func() { _ = store.Close() }, nil
}

func buildNotifier(cfg *config.Config, logger *log.Logger) notify.Notifier {
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID, logger)
		if err != nil {
			logger.Printf("telegram unavailable, falling back to log notifier: %v", err)
			return notify.NewLogNotifier(logger)
		}
		return tg
	}
	return notify.NewLogNotifier(logger)
}

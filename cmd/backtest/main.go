// Package main runs deterministic backtests over stored bar series.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gold-trading-lab/internal/backtest"
	"gold-trading-lab/internal/domain"
	"gold-trading-lab/internal/reporting"
	"gold-trading-lab/internal/risk"
	chstore "gold-trading-lab/internal/storage/clickhouse"
	"gold-trading-lab/internal/strategy"
)

func main() {
	// Parse flags
	runID := flag.String("run-id", "backtest", "Run ID seeding deterministic trade IDs")
	instrument := flag.String("instrument", "XAUUSD", "Instrument to backtest")
	timeframe := flag.String("timeframe", "1h", "Bar timeframe: 1m, 5m, 15m, 1h, 4h, 1d")

	// Bar source: a JSON file or a ClickHouse range
	barsFile := flag.String("bars-file", "", "JSON file with the bar series")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	fromStr := flag.String("from", "", "Range start, RFC3339 (ClickHouse source)")
	toStr := flag.String("to", "", "Range end, RFC3339 (ClickHouse source)")

	// Strategy selection and parameters
	strategyList := flag.String("strategies", "ma_crossover,rsi,macd,bollinger", "Comma-separated strategies: ma_crossover, rsi, macd, bollinger, stochastic, classifier")
	maShort := flag.Int("ma-short", 10, "MA crossover short period")
	maLong := flag.Int("ma-long", 30, "MA crossover long period")
	rsiPeriod := flag.Int("rsi-period", 14, "RSI period")
	rsiOverbought := flag.Float64("rsi-overbought", 70, "RSI overbought level")
	rsiOversold := flag.Float64("rsi-oversold", 30, "RSI oversold level")
	macdFast := flag.Int("macd-fast", 12, "MACD fast period")
	macdSlow := flag.Int("macd-slow", 26, "MACD slow period")
	macdSignal := flag.Int("macd-signal", 9, "MACD signal period")
	bollWindow := flag.Int("boll-window", 20, "Bollinger window")
	bollStd := flag.Float64("boll-std", 2.0, "Bollinger standard deviations")
	stochK := flag.Int("stoch-k", 14, "Stochastic %K period")
	stochD := flag.Int("stoch-d", 3, "Stochastic %D period")
	classifierLookback := flag.Int("classifier-lookback", 20, "Window classifier lookback")
	classifierSeed := flag.Int64("classifier-seed", 42, "Window classifier seed")

	// Aggregation
	method := flag.String("method", "weighted_vote", "Combine method: weighted_vote, majority")
	threshold := flag.Float64("threshold", 0.2, "Decision threshold")
	weightSpec := flag.String("weights", "", "Weight sets, e.g. \"ID=1.0,ID2=0.5;ID=2.0,ID2=0.5\"; empty weights every strategy 1.0; multiple sets run as a sweep")

	// Risk
	riskPct := flag.Float64("risk-pct", 1.0, "Risk percent per trade")
	riskCeiling := flag.Float64("risk-ceiling", 2.0, "Risk percent ceiling")
	riskReward := flag.Float64("risk-reward", 2.0, "Risk/reward ratio")
	stopPct := flag.Float64("stop-pct", 0.01, "Default stop distance as a fraction of entry")
	tickValue := flag.Float64("tick-value", 1.0, "Account value of one price unit per size unit")
	minIncrement := flag.Float64("min-increment", 0.01, "Smallest position size step")
	balance := flag.Float64("balance", 10000, "Account balance")
	currency := flag.String("currency", "USD", "Account currency")

	// Execution and output
	workers := flag.Int("workers", 0, "Sweep worker pool size (0 = default)")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	tf := domain.Timeframe(*timeframe)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	bars, err := loadBars(ctx, *barsFile, *clickhouseDSN, *instrument, tf, *fromStr, *toStr)
	if err != nil {
		logger.Fatalf("load bars: %v", err)
	}
	logger.Printf("loaded %d bars for %s/%s", len(bars), *instrument, tf)

	strategies, err := buildStrategies(*strategyList, strategyParams{
		maShort: *maShort, maLong: *maLong,
		rsiPeriod: *rsiPeriod, rsiOverbought: *rsiOverbought, rsiOversold: *rsiOversold,
		macdFast: *macdFast, macdSlow: *macdSlow, macdSignal: *macdSignal,
		bollWindow: *bollWindow, bollStd: *bollStd,
		stochK: *stochK, stochD: *stochD,
		classifierLookback: *classifierLookback, classifierSeed: *classifierSeed,
	})
	if err != nil {
		logger.Fatalf("strategies: %v", err)
	}

	weightSets, err := parseWeightSets(*weightSpec, strategies)
	if err != nil {
		logger.Fatalf("weights: %v", err)
	}

	baseCfg := backtest.Config{
		RunID:      *runID,
		Instrument: *instrument,
		Strategies: strategies,
		Method:     *method,
		Threshold:  *threshold,
		Risk: risk.Config{
			RiskPercent:     *riskPct,
			Ceiling:         *riskCeiling,
			RiskRewardRatio: *riskReward,
			DefaultStopPct:  *stopPct,
			TickValue:       *tickValue,
			MinIncrement:    *minIncrement,
		},
		Account: domain.AccountState{Balance: *balance, Currency: *currency},
	}

	var results []*backtest.Results
	if len(weightSets) == 1 {
		baseCfg.Weights = weightSets[0]
		eng, err := backtest.NewEngine(baseCfg, logger)
		if err != nil {
			logger.Fatalf("engine: %v", err)
		}
		res, err := eng.Run(ctx, bars)
		if err != nil {
			logger.Fatalf("run: %v", err)
		}
		results = []*backtest.Results{res}
	} else {
		runner := backtest.NewRunner(*workers, logger)
		results, err = runner.RunAll(ctx, backtest.Sweep(baseCfg, bars, weightSets))
		if err != nil {
			logger.Fatalf("sweep: %v", err)
		}
	}

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			logger.Fatalf("encode: %v", err)
		}
		return
	}
	for _, res := range results {
		printResults(res)
	}
}

type strategyParams struct {
	maShort, maLong                int
	rsiPeriod                      int
	rsiOverbought, rsiOversold     float64
	macdFast, macdSlow, macdSignal int
	bollWindow                     int
	bollStd                        float64
	stochK, stochD                 int
	classifierLookback             int
	classifierSeed                 int64
}

// strategyConfig maps a selection name onto the factory config carrying
// the flag values as its parameters.
func (p strategyParams) strategyConfig(name string) (domain.StrategyConfig, error) {
	switch name {
	case "ma_crossover":
		return domain.StrategyConfig{
			StrategyType: domain.StrategyTypeMACrossover,
			ShortPeriod:  &p.maShort,
			LongPeriod:   &p.maLong,
		}, nil
	case "rsi":
		return domain.StrategyConfig{
			StrategyType: domain.StrategyTypeRSI,
			Period:       &p.rsiPeriod,
			Overbought:   &p.rsiOverbought,
			Oversold:     &p.rsiOversold,
		}, nil
	case "macd":
		return domain.StrategyConfig{
			StrategyType: domain.StrategyTypeMACD,
			FastPeriod:   &p.macdFast,
			SlowPeriod:   &p.macdSlow,
			SignalPeriod: &p.macdSignal,
		}, nil
	case "bollinger":
		return domain.StrategyConfig{
			StrategyType: domain.StrategyTypeBollinger,
			Window:       &p.bollWindow,
			NumStd:       &p.bollStd,
		}, nil
	case "stochastic":
		return domain.StrategyConfig{
			StrategyType: domain.StrategyTypeStochastic,
			KPeriod:      &p.stochK,
			DPeriod:      &p.stochD,
			Overbought:   &p.rsiOverbought,
			Oversold:     &p.rsiOversold,
		}, nil
	case "classifier":
		return domain.StrategyConfig{
			StrategyType: domain.StrategyTypeWindowClassifier,
			Lookback:     &p.classifierLookback,
			Seed:         &p.classifierSeed,
		}, nil
	default:
		return domain.StrategyConfig{}, fmt.Errorf("unknown strategy %q", name)
	}
}

func buildStrategies(list string, p strategyParams) ([]strategy.Strategy, error) {
	var strategies []strategy.Strategy
	for _, name := range strings.Split(list, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		cfg, err := p.strategyConfig(name)
		if err != nil {
			return nil, err
		}
		s, err := strategy.FromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", name, err)
		}
		strategies = append(strategies, s)
	}
	if len(strategies) == 0 {
		return nil, fmt.Errorf("no strategies selected")
	}
	return strategies, nil
}

// parseWeightSets parses "ID=W,ID=W;ID=W,ID=W" into one weight map per
// semicolon-separated set. An empty spec weights every strategy at 1.0.
func parseWeightSets(spec string, strategies []strategy.Strategy) ([]map[string]float64, error) {
	if strings.TrimSpace(spec) == "" {
		weights := make(map[string]float64, len(strategies))
		for _, s := range strategies {
			weights[s.ID()] = 1.0
		}
		return []map[string]float64{weights}, nil
	}

	known := make(map[string]bool, len(strategies))
	for _, s := range strategies {
		known[s.ID()] = true
	}

	var sets []map[string]float64
	for _, setSpec := range strings.Split(spec, ";") {
		weights := make(map[string]float64)
		for _, pair := range strings.Split(setSpec, ",") {
			id, raw, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok {
				return nil, fmt.Errorf("malformed weight %q, want ID=W", pair)
			}
			if !known[id] {
				return nil, fmt.Errorf("weight for unknown strategy %q", id)
			}
			w, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("weight for %s: %w", id, err)
			}
			weights[id] = w
		}
		// Strategies without an explicit weight vote at 1.0.
		for id := range known {
			if _, ok := weights[id]; !ok {
				weights[id] = 1.0
			}
		}
		sets = append(sets, weights)
	}
	return sets, nil
}

func loadBars(ctx context.Context, barsFile, dsn, instrument string, tf domain.Timeframe, fromStr, toStr string) ([]domain.Bar, error) {
	if barsFile != "" {
		data, err := os.ReadFile(barsFile)
		if err != nil {
			return nil, err
		}
		var bars []domain.Bar
		if err := json.Unmarshal(data, &bars); err != nil {
			return nil, fmt.Errorf("parse %s: %w", barsFile, err)
		}
		if err := domain.ValidateSeries(bars); err != nil {
			return nil, err
		}
		return bars, nil
	}

	if dsn == "" {
		return nil, fmt.Errorf("either --bars-file or --clickhouse-dsn is required")
	}
	if fromStr == "" || toStr == "" {
		return nil, fmt.Errorf("--from and --to are required with --clickhouse-dsn")
	}
	from, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		return nil, fmt.Errorf("parse --from: %w", err)
	}
	to, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		return nil, fmt.Errorf("parse --to: %w", err)
	}

	conn, err := chstore.NewConn(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return chstore.NewBarStore(conn).GetRange(ctx, instrument, tf, from, to)
}

func printResults(res *backtest.Results) {
	fmt.Printf("=== Run %s (%s) ===\n", res.RunID, res.Instrument)
	fmt.Printf("Bars: %d  Decisions: %d  Trades opened: %d\n", res.Bars, res.Decisions, res.TradesOpened)
	if res.Open != nil {
		fmt.Printf("Residual open position: %s %s @ %.2f\n", res.Open.Direction, res.Open.Instrument, res.Open.EntryPrice)
	}
	fmt.Println()
	fmt.Print(reporting.RenderWindowsCSV([]domain.PerformanceWindow{res.Window}))
	fmt.Println()
	if len(res.Trades) > 0 {
		fmt.Print(reporting.RenderTradesCSV(res.Trades))
		fmt.Println()
	}
}

package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process configuration loaded from the environment.
type Config struct {
	// Instrument and data
	Instrument    string
	Timeframe     string
	Lookback      int
	CycleInterval time.Duration

	// Market data sources, in failover order
	PrimaryFeedURL   string
	SecondaryFeedURL string
	FeedAPIKey       string
	StreamURL        string

	// Sentiment providers
	SentimentPrimaryURL   string
	SentimentSecondaryURL string
	SentimentAPIKey       string

	// Aggregation
	CombineMethod    string
	CombineThreshold float64

	// Risk
	RiskPercent     float64
	RiskCeiling     float64
	RiskRewardRatio float64
	DefaultStopPct  float64
	TickValue       float64
	MinIncrement    float64
	AccountBalance  float64
	AccountCurrency string

	// Storage
	PostgresDSN   string
	ClickhouseDSN string
	TradeLogPath  string

	// Telegram
	TelegramToken  string
	TelegramChatID int64

	// Observability
	MetricsPort string
}

// Load reads configuration from .env and the environment, applying
// defaults for everything optional.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	return &Config{
		Instrument:    envString("INSTRUMENT", "XAUUSD"),
		Timeframe:     envString("TIMEFRAME", "1h"),
		Lookback:      envInt("LOOKBACK", 200),
		CycleInterval: envDuration("CYCLE_INTERVAL", time.Hour),

		PrimaryFeedURL:   os.Getenv("PRIMARY_FEED_URL"),
		SecondaryFeedURL: os.Getenv("SECONDARY_FEED_URL"),
		FeedAPIKey:       os.Getenv("FEED_API_KEY"),
		StreamURL:        os.Getenv("STREAM_URL"),

		SentimentPrimaryURL:   os.Getenv("SENTIMENT_PRIMARY_URL"),
		SentimentSecondaryURL: os.Getenv("SENTIMENT_SECONDARY_URL"),
		SentimentAPIKey:       os.Getenv("SENTIMENT_API_KEY"),

		CombineMethod:    envString("COMBINE_METHOD", "weighted_vote"),
		CombineThreshold: envFloat("COMBINE_THRESHOLD", 0.2),

		RiskPercent:     envFloat("RISK_PERCENT", 1.0),
		RiskCeiling:     envFloat("RISK_CEILING", 2.0),
		RiskRewardRatio: envFloat("RISK_REWARD_RATIO", 2.0),
		DefaultStopPct:  envFloat("DEFAULT_STOP_PCT", 0.01),
		TickValue:       envFloat("TICK_VALUE", 1.0),
		MinIncrement:    envFloat("MIN_INCREMENT", 0.01),
		AccountBalance:  envFloat("ACCOUNT_BALANCE", 10000),
		AccountCurrency: envString("ACCOUNT_CURRENCY", "USD"),

		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		ClickhouseDSN: os.Getenv("CLICKHOUSE_DSN"),
		TradeLogPath:  envString("TRADE_LOG_PATH", "trades.jsonl"),

		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID: envInt64("TELEGRAM_CHAT_ID", 0),

		MetricsPort: envString("METRICS_PORT", "9091"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
		log.Printf("Warning: invalid %s=%q, using %d", key, v, fallback)
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return parsed
		}
		log.Printf("Warning: invalid %s=%q, using %d", key, v, fallback)
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
		log.Printf("Warning: invalid %s=%q, using %f", key, v, fallback)
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
		log.Printf("Warning: invalid %s=%q, using %s", key, v, fallback)
	}
	return fallback
}

package strategy

import (
	"errors"

	"gold-trading-lab/internal/domain"
)

// Factory errors
var (
	ErrUnknownStrategyType = errors.New("unknown strategy type")
	ErrMissingMAPeriods    = errors.New("MA_CROSSOVER requires ShortPeriod and LongPeriod")
	ErrInvalidMAPeriods    = errors.New("MA_CROSSOVER requires 0 < ShortPeriod < LongPeriod")
	ErrMissingRSIParams    = errors.New("RSI requires Period, Overbought and Oversold")
	ErrMissingBollinger    = errors.New("BOLLINGER requires Window and NumStd")
	ErrMissingMACDPeriods  = errors.New("MACD requires FastPeriod, SlowPeriod and SignalPeriod")
	ErrMissingStochastic   = errors.New("STOCHASTIC requires KPeriod, DPeriod, Overbought and Oversold")
	ErrMissingClassifier   = errors.New("WINDOW_CLASSIFIER requires Lookback and Seed")
)

// FromConfig creates a Strategy from domain.StrategyConfig.
// Validates required parameters per strategy type.
// Returns clear errors for missing/invalid params.
//
// SentimentStrategy is not built here: it needs live collaborators
// (news source, analyzer chain) that configuration alone cannot supply.
func FromConfig(cfg domain.StrategyConfig) (Strategy, error) {
	switch cfg.StrategyType {
	case domain.StrategyTypeMACrossover:
		return fromMACrossoverConfig(cfg)
	case domain.StrategyTypeRSI:
		return fromRSIConfig(cfg)
	case domain.StrategyTypeBollinger:
		return fromBollingerConfig(cfg)
	case domain.StrategyTypeMACD:
		return fromMACDConfig(cfg)
	case domain.StrategyTypeStochastic:
		return fromStochasticConfig(cfg)
	case domain.StrategyTypeWindowClassifier:
		return fromClassifierConfig(cfg)
	default:
		return nil, ErrUnknownStrategyType
	}
}

func fromMACrossoverConfig(cfg domain.StrategyConfig) (*MACrossoverStrategy, error) {
	if cfg.ShortPeriod == nil || cfg.LongPeriod == nil {
		return nil, ErrMissingMAPeriods
	}
	if *cfg.ShortPeriod <= 0 || *cfg.ShortPeriod >= *cfg.LongPeriod {
		return nil, ErrInvalidMAPeriods
	}

	return NewMACrossoverStrategy(*cfg.ShortPeriod, *cfg.LongPeriod), nil
}

func fromRSIConfig(cfg domain.StrategyConfig) (*RSIStrategy, error) {
	if cfg.Period == nil || cfg.Overbought == nil || cfg.Oversold == nil {
		return nil, ErrMissingRSIParams
	}

	return NewRSIStrategy(*cfg.Period, *cfg.Overbought, *cfg.Oversold), nil
}

func fromBollingerConfig(cfg domain.StrategyConfig) (*BollingerStrategy, error) {
	if cfg.Window == nil || cfg.NumStd == nil {
		return nil, ErrMissingBollinger
	}

	return NewBollingerStrategy(*cfg.Window, *cfg.NumStd), nil
}

func fromMACDConfig(cfg domain.StrategyConfig) (*MACDStrategy, error) {
	if cfg.FastPeriod == nil || cfg.SlowPeriod == nil || cfg.SignalPeriod == nil {
		return nil, ErrMissingMACDPeriods
	}

	return NewMACDStrategy(*cfg.FastPeriod, *cfg.SlowPeriod, *cfg.SignalPeriod), nil
}

func fromStochasticConfig(cfg domain.StrategyConfig) (*StochasticStrategy, error) {
	if cfg.KPeriod == nil || cfg.DPeriod == nil || cfg.Overbought == nil || cfg.Oversold == nil {
		return nil, ErrMissingStochastic
	}

	return NewStochasticStrategy(*cfg.KPeriod, *cfg.DPeriod, *cfg.Overbought, *cfg.Oversold), nil
}

func fromClassifierConfig(cfg domain.StrategyConfig) (*ClassifierStrategy, error) {
	if cfg.Lookback == nil || cfg.Seed == nil {
		return nil, ErrMissingClassifier
	}

	return NewClassifierStrategy(*cfg.Lookback, *cfg.Seed), nil
}

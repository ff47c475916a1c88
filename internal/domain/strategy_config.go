package domain

// StrategyConfig parameterizes one strategy instance for the factory.
// Pointer fields are required only for the strategy types that use them.
type StrategyConfig struct {
	StrategyType string // "MA_CROSSOVER" | "RSI" | "BOLLINGER" | "MACD" | "STOCHASTIC" | "WINDOW_CLASSIFIER"

	// MA_CROSSOVER parameters
	ShortPeriod *int
	LongPeriod  *int

	// RSI / STOCHASTIC parameters
	Period     *int
	Overbought *float64
	Oversold   *float64

	// BOLLINGER parameters
	Window *int
	NumStd *float64

	// MACD parameters
	FastPeriod   *int
	SlowPeriod   *int
	SignalPeriod *int

	// STOCHASTIC parameters
	KPeriod *int
	DPeriod *int

	// WINDOW_CLASSIFIER parameters
	Lookback *int
	Seed     *int64
}

// Strategy type constants
const (
	StrategyTypeMACrossover      = "MA_CROSSOVER"
	StrategyTypeRSI              = "RSI"
	StrategyTypeBollinger        = "BOLLINGER"
	StrategyTypeMACD             = "MACD"
	StrategyTypeStochastic       = "STOCHASTIC"
	StrategyTypeWindowClassifier = "WINDOW_CLASSIFIER"
)

// Package risk converts a decision into a bounded position under a risk budget.
package risk

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"gold-trading-lab/internal/domain"
)

// ErrInvalidRiskConfig marks a malformed risk configuration or a risk
// budget the account cannot support. No partial RiskPlan is ever returned.
var ErrInvalidRiskConfig = errors.New("invalid risk config")

// Config holds the immutable risk parameters of a Sizer.
type Config struct {
	// RiskPercent is the fraction of the balance risked per trade, in
	// percent. Clamped to Ceiling.
	RiskPercent float64

	// Ceiling is the hard upper bound on RiskPercent.
	Ceiling float64

	// RiskRewardRatio scales the take-profit distance off the stop distance.
	RiskRewardRatio float64

	// DefaultStopPct is the stop distance as a fraction of the entry price,
	// used when the caller supplies no stop-distance hint.
	DefaultStopPct float64

	// TickValue is the account-currency value of one price unit per unit
	// of position size.
	TickValue float64

	// MinIncrement is the smallest tradable position-size step; computed
	// sizes are floored to a multiple of it.
	MinIncrement float64
}

// Validate checks the static parameters.
func (c Config) Validate() error {
	if c.RiskPercent <= 0 {
		return fmt.Errorf("%w: risk percent %f must be > 0", ErrInvalidRiskConfig, c.RiskPercent)
	}
	if c.Ceiling <= 0 {
		return fmt.Errorf("%w: ceiling %f must be > 0", ErrInvalidRiskConfig, c.Ceiling)
	}
	if c.RiskRewardRatio <= 0 {
		return fmt.Errorf("%w: risk/reward ratio %f must be > 0", ErrInvalidRiskConfig, c.RiskRewardRatio)
	}
	if c.DefaultStopPct <= 0 {
		return fmt.Errorf("%w: default stop pct %f must be > 0", ErrInvalidRiskConfig, c.DefaultStopPct)
	}
	if c.TickValue <= 0 {
		return fmt.Errorf("%w: tick value %f must be > 0", ErrInvalidRiskConfig, c.TickValue)
	}
	if c.MinIncrement <= 0 {
		return fmt.Errorf("%w: min increment %f must be > 0", ErrInvalidRiskConfig, c.MinIncrement)
	}
	return nil
}

// Sizer sizes positions under a fixed risk configuration.
type Sizer struct {
	cfg Config
}

// NewSizer creates a Sizer, validating the configuration up front.
func NewSizer(cfg Config) (*Sizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Sizer{cfg: cfg}, nil
}

// Size produces a RiskPlan for an actionable decision at entryPrice.
//
// stopDistanceHint, when positive, overrides the default percentage stop
// (callers derive it from recent volatility). The position size is floored
// to the configured minimum increment; a size that floors to zero is an
// error, never a silent zero-size plan.
func (s *Sizer) Size(decision domain.Decision, account domain.AccountState, entryPrice, stopDistanceHint float64) (domain.RiskPlan, error) {
	if !decision.Actionable() {
		return domain.RiskPlan{}, fmt.Errorf("%w: decision %s is not actionable", ErrInvalidRiskConfig, decision.Direction)
	}
	if entryPrice <= 0 {
		return domain.RiskPlan{}, fmt.Errorf("%w: entry price %f must be > 0", ErrInvalidRiskConfig, entryPrice)
	}
	if account.Balance <= 0 {
		return domain.RiskPlan{}, fmt.Errorf("%w: account balance %f must be > 0", ErrInvalidRiskConfig, account.Balance)
	}

	stopDistance := stopDistanceHint
	if stopDistance <= 0 {
		stopDistance = s.cfg.DefaultStopPct * entryPrice
	}

	riskPercent := s.cfg.RiskPercent
	if riskPercent > s.cfg.Ceiling {
		riskPercent = s.cfg.Ceiling
	}

	maxLoss := account.Balance * riskPercent / 100

	var stopLoss, takeProfit float64
	profitDistance := stopDistance * s.cfg.RiskRewardRatio
	if decision.Direction == domain.DirectionBuy {
		stopLoss = entryPrice - stopDistance
		takeProfit = entryPrice + profitDistance
	} else {
		stopLoss = entryPrice + stopDistance
		takeProfit = entryPrice - profitDistance
	}

	size := flooredSize(maxLoss, stopDistance, s.cfg.TickValue, s.cfg.MinIncrement)
	if size <= 0 {
		return domain.RiskPlan{}, fmt.Errorf(
			"%w: position size floors to zero (balance %.2f, stop distance %.4f)",
			ErrInvalidRiskConfig, account.Balance, stopDistance)
	}

	return domain.RiskPlan{
		EntryPrice:      entryPrice,
		StopLoss:        stopLoss,
		TakeProfit:      takeProfit,
		PositionSize:    size,
		MaxLossAmount:   maxLoss,
		RiskPercentUsed: riskPercent,
	}, nil
}

// flooredSize computes maxLoss / (stopDistance * tickValue) floored to a
// multiple of minIncrement, in decimal arithmetic so the flooring is exact
// for broker-style increments like 0.01.
func flooredSize(maxLoss, stopDistance, tickValue, minIncrement float64) float64 {
	loss := decimal.NewFromFloat(maxLoss)
	denom := decimal.NewFromFloat(stopDistance).Mul(decimal.NewFromFloat(tickValue))
	if denom.IsZero() {
		return 0
	}

	inc := decimal.NewFromFloat(minIncrement)
	raw := loss.Div(denom)
	steps := raw.Div(inc).Floor()

	size, _ := steps.Mul(inc).Float64()
	return size
}

package domain

// RiskPlan is a sized, bounded trade proposal derived from a Decision.
//
// Invariants: StopLoss and TakeProfit lie on opposite sides of EntryPrice
// according to the direction, MaxLossAmount never exceeds
// RiskPercentUsed/100 of the account balance, and RiskPercentUsed never
// exceeds the configured ceiling.
type RiskPlan struct {
	EntryPrice      float64
	StopLoss        float64
	TakeProfit      float64
	PositionSize    float64
	MaxLossAmount   float64
	RiskPercentUsed float64
}

// AccountState is the explicit account snapshot passed into the risk sizer
// on each call. There is no process-wide mutable balance.
type AccountState struct {
	Balance  float64
	Currency string
}

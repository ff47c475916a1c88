package ledger

import (
	"time"

	"github.com/google/uuid"

	"gold-trading-lab/internal/idhash"
)

// UUIDGenerator mints random trade IDs for live trading.
func UUIDGenerator() IDGenerator {
	return func(_ string, _ time.Time) string {
		return uuid.NewString()
	}
}

// DeterministicGenerator mints content-derived trade IDs for backtests:
// the same run over the same bars reproduces the same IDs.
func DeterministicGenerator(runID string) IDGenerator {
	return func(instrument string, openTime time.Time) string {
		return idhash.ComputeTradeID(instrument, runID, openTime.UnixMilli())
	}
}

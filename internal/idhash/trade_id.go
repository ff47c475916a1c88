package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade ID using SHA256.
// Formula: SHA256(instrument|run_id|open_time_unix_ms)
// Returns hex-encoded hash (64 characters).
//
// Backtests use this instead of random IDs so that re-running with
// identical inputs produces byte-identical trade lists.
func ComputeTradeID(instrument, runID string, openTimeMs int64) string {
	data := fmt.Sprintf("%s|%s|%d", instrument, runID, openTimeMs)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

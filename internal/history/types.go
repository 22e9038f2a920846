package history

import "time"

// #region rating-entry
// Entry is a single row in the rating_history table: one committed
// mu/sigma for one policy during one rank-update cycle.
type Entry struct {
	CycleID   string
	Name      string
	Mu        float64
	Sigma     float64
	Samples   int // outcome samples flushed for this name in the cycle
	CreatedAt time.Time
}

// #endregion rating-entry

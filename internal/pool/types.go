package pool

import (
	"errors"

	"github.com/tkardas/selfplay-pool/internal/model"
)

// ErrBadConfig is returned when pool construction parameters are inconsistent.
var ErrBadConfig = errors.New("invalid pool configuration")

// #region config

// Config holds the orchestrator construction parameters.
type Config struct {
	// EvaluationBatchSize is the number of simultaneous environment
	// interactions partitioned across the roster. Must be evenly divisible
	// by the sum of SampleWeights.
	EvaluationBatchSize int

	// NumActivePolicies is the roster length; slot 0 is always the learner.
	NumActivePolicies int

	// SampleWeights gives each slot's integer share of the batch, in slot
	// order. Length must equal NumActivePolicies.
	SampleWeights []int

	// SnapshotRoot is the directory where policy snapshots are persisted.
	SnapshotRoot string

	// Default skill estimates for newly added policies.
	Mu       float64
	AnchorMu float64
	Sigma    float64

	// Seed drives roster sampling so tests can fix roster membership.
	Seed int64
}

// DefaultConfig mirrors the conventional tournament defaults.
func DefaultConfig() Config {
	return Config{
		NumActivePolicies: 4,
		SnapshotRoot:      "pool",
		Mu:                1000,
		AnchorMu:          1000,
		Sigma:             100.0 / 3,
		Seed:              1,
	}
}

// #endregion config

// #region active-policy

// ActivePolicy is one roster slot: a policy name bound to a freshly
// materialized runnable instance of its persisted snapshot.
type ActivePolicy struct {
	Name  string
	Model model.Model
}

// #endregion active-policy

// #region add-options

// AddOptions control policy registration. Nil Mu/Sigma fall back to the
// pool's configured defaults.
type AddOptions struct {
	Tenured   bool
	Anchor    bool
	Overwrite bool
	Mu        *float64
	Sigma     *float64
}

// #endregion add-options

package policy

import "errors"

// #region errors
var (
	// ErrNotFound is returned when a named policy does not exist in the store.
	ErrNotFound = errors.New("policy not found")

	// ErrNameConflict is returned when inserting a policy whose name is
	// already taken and overwriting is disallowed.
	ErrNameConflict = errors.New("policy name already exists")
)

// #endregion errors

// #region metadata

// Metadata is the open key/value bag attached to every policy record.
// It must at minimum carry a "tenured" field coercible to boolean.
type Metadata map[string]any

// Tenured reports the boolean coercion of the "tenured" metadata field.
// JSON round-trips may store it as bool, number, or string.
func (m Metadata) Tenured() bool {
	switch v := m["tenured"].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case string:
		return v == "true" || v == "1"
	default:
		return false
	}
}

// #endregion metadata

// #region record

// Record is one named, versioned snapshot of a trainable policy together
// with its current skill estimate.
type Record struct {
	ID              int64
	Name            string
	SnapshotPath    string
	ArchitectureTag string
	Mu              float64
	Sigma           float64
	Episodes        int
	Metadata        Metadata
}

// #endregion record

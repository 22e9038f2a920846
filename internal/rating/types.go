package rating

// #region rating
// Rating is one policy's live skill estimate.
type Rating struct {
	Mu    float64
	Sigma float64
}

// #endregion rating

// #region engine-interface

// Engine is the rating tournament capability consumed by the pool. Ratings
// returns the live mutable mapping so callers can seed initial values after
// registration. Update recomputes estimates from batches of per-name outcome
// samples in one call, not pairwise.
type Engine interface {
	AddPolicy(name string)
	SetAnchor(name string)
	Ratings() map[string]*Rating
	Update(names []string, outcomes [][]float64)
}

// #endregion engine-interface

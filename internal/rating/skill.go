package rating

import "math"

// #region skill-struct

// Skill is a batched Elo-style rating engine. Each update ranks the scored
// policies by mean outcome, moves every competitor toward its observed rank
// score, and shrinks uncertainty. Anchors are fixed reference points that
// never move.
type Skill struct {
	mu       float64 // default mu for new competitors
	anchorMu float64 // fixed mu assigned to anchors
	sigma    float64 // default sigma for new competitors

	ratings map[string]*Rating
	anchors map[string]bool
}

// Update tuning. Scale matches classic Elo expectations on a mu≈1000 base.
const (
	eloScale   = 400.0
	sigmaDecay = 0.97
)

// NewSkill creates an engine with the given default estimates.
func NewSkill(mu, anchorMu, sigma float64) *Skill {
	return &Skill{
		mu:       mu,
		anchorMu: anchorMu,
		sigma:    sigma,
		ratings:  make(map[string]*Rating),
		anchors:  make(map[string]bool),
	}
}

// #endregion skill-struct

// #region registration

// AddPolicy registers a new competitor at the default estimate. Re-adding an
// existing name is a no-op.
func (s *Skill) AddPolicy(name string) {
	if _, ok := s.ratings[name]; ok {
		return
	}
	s.ratings[name] = &Rating{Mu: s.mu, Sigma: s.sigma}
}

// SetAnchor registers name as a fixed reference point that never updates.
func (s *Skill) SetAnchor(name string) {
	s.ratings[name] = &Rating{Mu: s.anchorMu, Sigma: s.sigma}
	s.anchors[name] = true
}

// Ratings returns the live estimate mapping. Entries are directly settable
// to seed initial values after registration.
func (s *Skill) Ratings() map[string]*Rating {
	return s.ratings
}

// #endregion registration

// #region update

// Update recomputes estimates from one batch of per-name outcome samples.
// names[i] pairs with outcomes[i]. Names with no samples are ignored; with
// fewer than two scored names there is no relative information and the call
// is a no-op.
func (s *Skill) Update(names []string, outcomes [][]float64) {
	var scored []string
	means := make(map[string]float64)
	for i, name := range names {
		if i >= len(outcomes) || len(outcomes[i]) == 0 {
			continue
		}
		var sum float64
		for _, v := range outcomes[i] {
			sum += v
		}
		s.AddPolicy(name)
		scored = append(scored, name)
		means[name] = sum / float64(len(outcomes[i]))
	}
	if len(scored) < 2 {
		return
	}

	// Observed rank score in [0,1]: fraction of opponents outperformed,
	// ties counted half.
	actual := make(map[string]float64, len(scored))
	expected := make(map[string]float64, len(scored))
	for _, a := range scored {
		var wins, exp float64
		for _, b := range scored {
			if a == b {
				continue
			}
			switch {
			case means[a] > means[b]:
				wins += 1
			case means[a] == means[b]:
				wins += 0.5
			}
			exp += expectScore(s.ratings[a].Mu, s.ratings[b].Mu)
		}
		n := float64(len(scored) - 1)
		actual[a] = wins / n
		expected[a] = exp / n
	}

	for _, name := range scored {
		if s.anchors[name] {
			continue
		}
		r := s.ratings[name]
		r.Mu += r.Sigma * (actual[name] - expected[name])
		r.Sigma = math.Max(s.sigma/10, r.Sigma*sigmaDecay)
	}
}

// expectScore is the Elo win expectation of a against b.
func expectScore(muA, muB float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (muB-muA)/eloScale))
}

// #endregion update

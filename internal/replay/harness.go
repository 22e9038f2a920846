package replay

import (
	"sort"

	"github.com/tkardas/selfplay-pool/internal/rating"
)

// #region types

// CycleResult snapshots the ratings after one replayed round.
type CycleResult struct {
	Round   int
	Ratings map[string]rating.Rating
}

// Summary aggregates a full replay run.
type Summary struct {
	TotalRounds int
	Final       map[string]rating.Rating
}

// #endregion types

// #region replay

// Replay drives the recorded rounds through a fresh rating engine in order.
// Names within a round are flushed in sorted order, mirroring the pool's
// rank-update cycle, so identical fixtures always produce identical ratings.
func Replay(f *Fixture) ([]CycleResult, Summary) {
	engine := rating.NewSkill(f.Mu, f.AnchorMu, f.Sigma)
	for _, name := range f.Anchors {
		engine.SetAnchor(name)
	}

	results := make([]CycleResult, 0, len(f.Rounds))
	for i, round := range f.Rounds {
		names := make([]string, 0, len(round.Scores))
		for name := range round.Scores {
			names = append(names, name)
		}
		sort.Strings(names)

		outcomes := make([][]float64, len(names))
		for j, name := range names {
			outcomes[j] = round.Scores[name]
		}
		engine.Update(names, outcomes)

		results = append(results, CycleResult{Round: i, Ratings: snapshot(engine)})
	}

	return results, Summary{
		TotalRounds: len(f.Rounds),
		Final:       snapshot(engine),
	}
}

func snapshot(engine rating.Engine) map[string]rating.Rating {
	out := make(map[string]rating.Rating, len(engine.Ratings()))
	for name, r := range engine.Ratings() {
		out[name] = *r
	}
	return out
}

// #endregion replay

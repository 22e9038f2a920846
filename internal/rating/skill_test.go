package rating

import (
	"math"
	"testing"
)

func TestAddPolicyAndSeeding(t *testing.T) {
	e := NewSkill(1000, 1000, 100.0/3)
	e.AddPolicy("learner")

	r := e.Ratings()["learner"]
	if r == nil || r.Mu != 1000 || math.Abs(r.Sigma-100.0/3) > 1e-12 {
		t.Fatalf("unexpected default rating: %+v", r)
	}

	// Live map entries are directly settable.
	r.Mu = 1200
	r.Sigma = 20
	if e.Ratings()["learner"].Mu != 1200 {
		t.Fatal("expected seeded mu to stick")
	}

	// Re-adding must not reset the seeded estimate.
	e.AddPolicy("learner")
	if e.Ratings()["learner"].Mu != 1200 {
		t.Fatal("re-adding an existing name reset its rating")
	}
}

func TestUpdateMovesWinnerUpLoserDown(t *testing.T) {
	e := NewSkill(1000, 1000, 100.0/3)
	e.AddPolicy("winner")
	e.AddPolicy("loser")

	e.Update(
		[]string{"winner", "loser"},
		[][]float64{{3, 4, 5}, {0, 1, 2}},
	)

	w := e.Ratings()["winner"]
	l := e.Ratings()["loser"]
	if w.Mu <= 1000 {
		t.Fatalf("winner mu did not increase: %f", w.Mu)
	}
	if l.Mu >= 1000 {
		t.Fatalf("loser mu did not decrease: %f", l.Mu)
	}
	if w.Sigma >= 100.0/3 || l.Sigma >= 100.0/3 {
		t.Fatal("sigma did not shrink after an update")
	}
}

func TestAnchorNeverMoves(t *testing.T) {
	e := NewSkill(1000, 1500, 100.0/3)
	e.SetAnchor("anchor")
	e.AddPolicy("challenger")

	if e.Ratings()["anchor"].Mu != 1500 {
		t.Fatalf("anchor not pinned to anchor mu: %f", e.Ratings()["anchor"].Mu)
	}

	for i := 0; i < 5; i++ {
		e.Update(
			[]string{"anchor", "challenger"},
			[][]float64{{0}, {10}},
		)
	}

	if e.Ratings()["anchor"].Mu != 1500 {
		t.Fatalf("anchor moved: %f", e.Ratings()["anchor"].Mu)
	}
	if e.Ratings()["challenger"].Mu <= 1000 {
		t.Fatalf("challenger should have climbed against the anchor: %f", e.Ratings()["challenger"].Mu)
	}
}

func TestUpdateSingleNameNoOp(t *testing.T) {
	e := NewSkill(1000, 1000, 100.0/3)
	e.AddPolicy("solo")

	e.Update([]string{"solo"}, [][]float64{{1, 2, 3}})
	r := e.Ratings()["solo"]
	if r.Mu != 1000 || math.Abs(r.Sigma-100.0/3) > 1e-12 {
		t.Fatalf("single-name update must be a no-op, got %+v", r)
	}
}

func TestUpdateEmptySamplesIgnored(t *testing.T) {
	e := NewSkill(1000, 1000, 100.0/3)
	e.AddPolicy("a")
	e.AddPolicy("b")

	// b has no samples, so only one scored name remains: no-op.
	e.Update([]string{"a", "b"}, [][]float64{{1}, {}})
	if e.Ratings()["a"].Mu != 1000 || e.Ratings()["b"].Mu != 1000 {
		t.Fatal("update with a single scored name must not move ratings")
	}
}

func TestUpdateRegistersUnknownNames(t *testing.T) {
	e := NewSkill(1000, 1000, 100.0/3)

	e.Update(
		[]string{"fresh-a", "fresh-b"},
		[][]float64{{2}, {1}},
	)
	if e.Ratings()["fresh-a"] == nil || e.Ratings()["fresh-b"] == nil {
		t.Fatal("update should register unseen names")
	}
	if e.Ratings()["fresh-a"].Mu <= e.Ratings()["fresh-b"].Mu {
		t.Fatal("higher-scoring fresh name should rank above the lower")
	}
}

func TestUpdateDeterministic(t *testing.T) {
	run := func() (float64, float64, float64) {
		e := NewSkill(1000, 1000, 100.0/3)
		for i := 0; i < 3; i++ {
			e.Update(
				[]string{"a", "b", "c"},
				[][]float64{{5, 6}, {1, 2}, {3, 3}},
			)
		}
		return e.Ratings()["a"].Mu, e.Ratings()["b"].Mu, e.Ratings()["c"].Mu
	}

	a1, b1, c1 := run()
	a2, b2, c2 := run()
	if a1 != a2 || b1 != b2 || c1 != c2 {
		t.Fatal("identical update sequences diverged")
	}
	if !(a1 > c1 && c1 > b1) {
		t.Fatalf("expected ordering a > c > b, got a=%f c=%f b=%f", a1, c1, b1)
	}
}

func TestSigmaFloor(t *testing.T) {
	e := NewSkill(1000, 1000, 30)
	e.AddPolicy("a")
	e.AddPolicy("b")

	for i := 0; i < 500; i++ {
		e.Update([]string{"a", "b"}, [][]float64{{1}, {0}})
	}
	if e.Ratings()["a"].Sigma < 3 {
		t.Fatalf("sigma fell below its floor: %f", e.Ratings()["a"].Sigma)
	}
}

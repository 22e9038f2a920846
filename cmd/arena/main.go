package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"

	"github.com/tkardas/selfplay-pool/internal/model"
	"github.com/tkardas/selfplay-pool/internal/policy"
	"github.com/tkardas/selfplay-pool/internal/pool"
	"github.com/tkardas/selfplay-pool/internal/rating"
	"github.com/tkardas/selfplay-pool/internal/replay"
	"github.com/tkardas/selfplay-pool/internal/report"
)

const (
	obsDim    = 8
	actDim    = 4
	numEnvs   = 4
	agentsPer = 4
)

// #region main
func main() {
	dbPath := flag.String("db", envOr("POOL_DB", "pool.db"), "path to the policy store")
	snapshots := flag.String("snapshots", envOr("POOL_SNAPSHOTS", "pool"), "snapshot directory")
	rounds := flag.Int("rounds", envOrInt("POOL_ROUNDS", 200), "number of evaluation rounds")
	rankEvery := flag.Int("rank-every", 10, "rounds between rank updates and roster rotations")
	seed := flag.Int64("seed", 1, "seed for roster sampling and the toy environment")
	record := flag.String("record", "", "write flushed score rounds to a replay fixture")
	flag.Parse()

	store, err := policy.NewStore(*dbPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	cfg := pool.DefaultConfig()
	cfg.EvaluationBatchSize = numEnvs * agentsPer
	cfg.SampleWeights = []int{1, 1, 1, 1}
	cfg.SnapshotRoot = *snapshots
	cfg.Seed = *seed

	model.RegisterLinear(obsDim, actDim)
	rng := rand.New(rand.NewSource(*seed))

	learner := model.NewLinear(obsDim, actDim)
	learner.Jitter(rng, 0.5)

	engine := rating.NewSkill(cfg.Mu, cfg.AnchorMu, cfg.Sigma)
	p, err := pool.New(cfg, store, engine, learner, "learner")
	if err != nil {
		log.Fatalf("failed to build pool: %v", err)
	}

	// Seed the tournament with jittered frozen variants of the learner plus
	// one anchor that pins the rating scale.
	for _, name := range []string{"rival-a", "rival-b"} {
		variant := learner.Clone().(*model.Linear)
		variant.Jitter(rng, 0.5)
		if err := p.AddPolicy(variant, name, pool.AddOptions{Overwrite: true}); err != nil {
			log.Fatalf("failed to add %s: %v", name, err)
		}
	}
	anchor := learner.Clone().(*model.Linear)
	anchor.Jitter(rng, 0.5)
	if err := p.AddPolicy(anchor, "anchor", pool.AddOptions{Tenured: true, Anchor: true, Overwrite: true}); err != nil {
		log.Fatalf("failed to add anchor: %v", err)
	}
	if err := p.UpdateActivePolicies(); err != nil {
		log.Fatalf("failed to rotate roster: %v", err)
	}

	fmt.Println("Self-play arena ready.")
	fmt.Printf("  DB: %s | Snapshots: %s | Batch: %d\n", *dbPath, *snapshots, cfg.EvaluationBatchSize)

	var fixture *replay.Fixture
	if *record != "" {
		fixture = &replay.Fixture{
			Description: "arena run",
			Mu:          cfg.Mu,
			AnchorMu:    cfg.AnchorMu,
			Sigma:       cfg.Sigma,
			Anchors:     []string{"anchor"},
		}
	}

	env := newToyEnv(rng)
	for round := 1; round <= *rounds; round++ {
		obs := env.observe(cfg.EvaluationBatchSize)
		actions, _, _, _, err := p.Forward(obs, nil, nil)
		if err != nil {
			log.Fatalf("forward round %d: %v", round, err)
		}

		infos := env.step(obs, actions)
		p.UpdateScores(infos, "episode_return")

		if round%*rankEvery == 0 {
			if fixture != nil {
				fixture.Rounds = append(fixture.Rounds, replay.Round{Scores: p.Ledger()})
			}
			if err := p.UpdateRanks(); err != nil {
				log.Fatalf("rank update round %d: %v", round, err)
			}
			if err := p.UpdateActivePolicies(); err != nil {
				log.Fatalf("rotation round %d: %v", round, err)
			}
		}
	}

	if fixture != nil {
		if err := replay.SaveFixture(*record, fixture); err != nil {
			log.Fatalf("failed to record fixture: %v", err)
		}
		fmt.Printf("recorded %d rounds to %s\n", len(fixture.Rounds), *record)
	}

	rows, err := report.Build(store, p.Ratings())
	if err != nil {
		log.Fatalf("failed to build leaderboard: %v", err)
	}
	fmt.Println()
	if err := report.Render(os.Stdout, rows); err != nil {
		log.Fatalf("failed to render leaderboard: %v", err)
	}
}

// #endregion main

// #region toy-env

// toyEnv is a bandit-style environment: each observation hides a best arm,
// and an agent's episode return is 1 for picking it plus small noise. It
// exists only to give the tournament a skill gradient to discover.
type toyEnv struct {
	rng *rand.Rand
}

func newToyEnv(rng *rand.Rand) *toyEnv {
	return &toyEnv{rng: rng}
}

func (e *toyEnv) observe(batch int) [][]float64 {
	obs := make([][]float64, batch)
	for i := range obs {
		row := make([]float64, obsDim)
		for j := range row {
			row[j] = e.rng.NormFloat64()
		}
		obs[i] = row
	}
	return obs
}

func (e *toyEnv) step(obs [][]float64, actions []int) [][]map[string]float64 {
	infos := make([][]map[string]float64, numEnvs)
	for env := 0; env < numEnvs; env++ {
		agents := make([]map[string]float64, agentsPer)
		for a := 0; a < agentsPer; a++ {
			idx := env*agentsPer + a
			ret := e.rng.NormFloat64() * 0.1
			if actions[idx] == bestArm(obs[idx]) {
				ret += 1
			}
			agents[a] = map[string]float64{"episode_return": ret}
		}
		infos[env] = agents
	}
	return infos
}

func bestArm(row []float64) int {
	best := 0
	for j := 1; j < actDim; j++ {
		if row[j] > row[best] {
			best = j
		}
	}
	return best
}

// #endregion toy-env

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// #endregion helpers

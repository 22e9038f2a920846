package pool

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"github.com/tkardas/selfplay-pool/internal/history"
	"github.com/tkardas/selfplay-pool/internal/model"
	"github.com/tkardas/selfplay-pool/internal/policy"
	"github.com/tkardas/selfplay-pool/internal/rating"
)

// #region pool-struct

// Pool owns the active roster, the batch-partition table, and the score
// ledger, and drives the add/activate/forward/score/rank cycle. One logical
// caller drives the full cycle per round; the pool is not safe for
// concurrent use.
type Pool struct {
	cfg         Config
	store       *policy.Store
	engine      rating.Engine
	learner     model.Model
	learnerName string

	part   *Partition
	active []ActivePolicy
	rng    *rand.Rand

	scores    map[string][]float64 // ledger: policy name → outcome samples
	numScores int

	// Output buffers, lazily sized on the first Forward call.
	allocated bool
	actions   []int
	logProbs  []float64
	values    []float64
	stateH    [][]float64
	stateC    [][]float64
}

// #endregion pool-struct

// #region constructor

// New builds a fully wired pool: validates the partition configuration,
// registers the learner as a tenured policy, and performs the initial
// roster rotation.
func New(cfg Config, store *policy.Store, engine rating.Engine, learner model.Model, learnerName string) (*Pool, error) {
	if len(cfg.SampleWeights) != cfg.NumActivePolicies {
		return nil, fmt.Errorf("%d sample weights for %d active policies: %w",
			len(cfg.SampleWeights), cfg.NumActivePolicies, ErrBadConfig)
	}
	part, err := NewPartition(cfg.EvaluationBatchSize, cfg.SampleWeights)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.SnapshotRoot, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot root %s: %w", cfg.SnapshotRoot, err)
	}

	p := &Pool{
		cfg:         cfg,
		store:       store,
		engine:      engine,
		learner:     learner,
		learnerName: learnerName,
		part:        part,
		rng:         rand.New(rand.NewSource(cfg.Seed)),
		scores:      make(map[string][]float64),
	}

	if err := p.AddPolicy(learner, learnerName, AddOptions{Tenured: true, Overwrite: true}); err != nil {
		return nil, fmt.Errorf("register learner: %w", err)
	}
	if err := p.UpdateActivePolicies(); err != nil {
		return nil, fmt.Errorf("initial rotation: %w", err)
	}
	return p, nil
}

// #endregion constructor

// #region accessors

// Ratings exposes the rating engine's live estimate mapping.
func (p *Pool) Ratings() map[string]*rating.Rating {
	return p.engine.Ratings()
}

// Active returns the current roster in slot order.
func (p *Pool) Active() []ActivePolicy {
	return p.active
}

// LearnerMask marks the batch indices owned by the learner's slot.
func (p *Pool) LearnerMask() []bool {
	return p.part.LearnerMask()
}

// Partition returns the immutable batch-partition table.
func (p *Pool) Partition() *Partition {
	return p.part
}

// Ledger returns a copy of the pending score ledger. The next UpdateRanks
// call will flush exactly these samples.
func (p *Pool) Ledger() map[string][]float64 {
	out := make(map[string][]float64, len(p.scores))
	for name, samples := range p.scores {
		out[name] = append([]float64(nil), samples...)
	}
	return out
}

// #endregion accessors

// #region add-policy

// AddPolicy snapshots an independent copy of the model under
// SnapshotRoot/name, inserts its record, and registers the name with the
// rating engine. An existing name fails with ErrNameConflict unless
// overwriting is allowed.
func (p *Pool) AddPolicy(m model.Model, name string, opt AddOptions) error {
	snapshotPath := filepath.Join(p.cfg.SnapshotRoot, name)

	// Check the name before touching the snapshot file so a rejected add
	// leaves the prior policy's snapshot intact.
	_, err := p.store.GetByName(name)
	switch {
	case err == nil:
		if !opt.Overwrite {
			return fmt.Errorf("add policy %q: %w", name, policy.ErrNameConflict)
		}
	case !errors.Is(err, policy.ErrNotFound):
		return fmt.Errorf("add policy %q: %w", name, err)
	}

	mu := p.cfg.Mu
	if opt.Mu != nil {
		mu = *opt.Mu
	}
	sigma := p.cfg.Sigma
	if opt.Sigma != nil {
		sigma = *opt.Sigma
	}

	// Snapshot by value: later mutation of the caller's live model must
	// never alter the persisted parameters.
	frozen := m.Clone()
	if err := frozen.Save(snapshotPath); err != nil {
		return fmt.Errorf("add policy %q: %w", name, err)
	}

	rec := policy.Record{
		Name:            name,
		SnapshotPath:    snapshotPath,
		ArchitectureTag: frozen.Arch(),
		Mu:              mu,
		Sigma:           sigma,
		Episodes:        0,
		Metadata:        policy.Metadata{"tenured": opt.Tenured},
	}
	if err := p.store.Add(rec, opt.Overwrite); err != nil {
		return fmt.Errorf("add policy %q: %w", name, err)
	}

	if opt.Anchor {
		p.engine.SetAnchor(name)
	} else {
		p.engine.AddPolicy(name)
		r := p.engine.Ratings()[name]
		r.Mu = mu
		r.Sigma = sigma
	}

	log.Printf("[POOL] added policy %q (tenured=%v anchor=%v mu=%.1f sigma=%.1f)",
		name, opt.Tenured, opt.Anchor, mu, sigma)
	return nil
}

// AddPolicyCopy registers newName starting from sourceName's persisted
// snapshot and current skill estimate.
func (p *Pool) AddPolicyCopy(sourceName, newName string, tenured, anchor bool) error {
	src, err := p.store.GetByName(sourceName)
	if err != nil {
		return fmt.Errorf("copy policy %q: %w", sourceName, err)
	}
	inst, err := p.materialize(src)
	if err != nil {
		return fmt.Errorf("copy policy %q: %w", sourceName, err)
	}
	return p.AddPolicy(inst, newName, AddOptions{
		Tenured:   tenured,
		Anchor:    anchor,
		Overwrite: true,
		Mu:        &src.Mu,
		Sigma:     &src.Sigma,
	})
}

// #endregion add-policy

// #region rotation

// UpdateActivePolicies rebuilds the roster: slot 0 is the learner's record,
// the remaining slots are drawn uniformly with replacement from the full
// store. Every slot gets a fresh instance loaded from its own snapshot; the
// persisted snapshots are never mutated.
func (p *Pool) UpdateActivePolicies() error {
	learnerRec, err := p.store.GetByName(p.learnerName)
	if err != nil {
		return fmt.Errorf("learner record: %w", err)
	}
	all, err := p.store.GetAll()
	if err != nil {
		return fmt.Errorf("list policies: %w", err)
	}

	roster := make([]policy.Record, 0, p.cfg.NumActivePolicies)
	roster = append(roster, learnerRec)
	for i := 1; i < p.cfg.NumActivePolicies; i++ {
		roster = append(roster, all[p.rng.Intn(len(all))])
	}

	active := make([]ActivePolicy, len(roster))
	for i, rec := range roster {
		m, err := p.materialize(rec)
		if err != nil {
			return err
		}
		active[i] = ActivePolicy{Name: rec.Name, Model: m}
	}
	p.active = active

	names := make([]string, len(active))
	for i, ap := range active {
		names[i] = ap.Name
	}
	log.Printf("[POOL] rotated roster: %v", names)
	return nil
}

// materialize allocates an instance shaped for the record's architecture and
// loads the record's persisted parameters into it. The learner's own
// architecture is satisfied by cloning the live learner; anything else goes
// through the architecture registry.
func (p *Pool) materialize(rec policy.Record) (model.Model, error) {
	var m model.Model
	if rec.ArchitectureTag == p.learner.Arch() {
		m = p.learner.Clone()
	} else {
		var err error
		m, err = model.New(rec.ArchitectureTag)
		if err != nil {
			return nil, fmt.Errorf("materialize %q: %w", rec.Name, err)
		}
	}
	if err := m.Load(rec.SnapshotPath); err != nil {
		return nil, fmt.Errorf("materialize %q: %w", rec.Name, err)
	}
	return m, nil
}

// #endregion rotation

// #region forward

// Forward partitions the observation batch across the roster, dispatches
// each slice to its slot's model, and scatters the results into shared
// full-batch buffers. When recurrent state is supplied, each slot's portion
// is read before dispatch and overwritten in place with the model's
// returned state after dispatch.
func (p *Pool) Forward(obs [][]float64, state *model.LSTMState, dones []bool) ([]int, []float64, []float64, *model.LSTMState, error) {
	if len(obs) != p.cfg.EvaluationBatchSize {
		return nil, nil, nil, nil, fmt.Errorf("forward: batch size %d, want %d",
			len(obs), p.cfg.EvaluationBatchSize)
	}

	for si, ap := range p.active {
		idxs := p.part.Slot(si)

		subObs := make([][]float64, len(idxs))
		for k, idx := range idxs {
			subObs[k] = obs[idx]
		}

		var subState *model.LSTMState
		var subDones []bool
		if state != nil {
			subState = &model.LSTMState{
				H: make([][]float64, len(idxs)),
				C: make([][]float64, len(idxs)),
			}
			for k, idx := range idxs {
				subState.H[k] = state.H[idx]
				subState.C[k] = state.C[idx]
			}
			if dones != nil {
				subDones = make([]bool, len(idxs))
				for k, idx := range idxs {
					subDones[k] = dones[idx]
				}
			}
		}

		res, err := ap.Model.Act(subObs, subState, subDones)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("forward slot %d (%s): %w", si, ap.Name, err)
		}

		if !p.allocated {
			p.actions = make([]int, len(obs))
			p.logProbs = make([]float64, len(obs))
			p.values = make([]float64, len(obs))
			if state != nil {
				p.stateH = make([][]float64, len(obs))
				p.stateC = make([][]float64, len(obs))
			}
			p.allocated = true
		}

		for k, idx := range idxs {
			p.actions[idx] = res.Actions[k]
			p.logProbs[idx] = res.LogProbs[k]
			p.values[idx] = res.Values[k]
		}
		if state != nil && res.State != nil {
			for k, idx := range idxs {
				state.H[idx] = res.State.H[k]
				state.C[idx] = res.State.C[k]
				p.stateH[idx] = res.State.H[k]
				p.stateC[idx] = res.State.C[k]
			}
		}
	}

	if state != nil {
		return p.actions, p.logProbs, p.values, &model.LSTMState{H: p.stateH, C: p.stateC}, nil
	}
	return p.actions, p.logProbs, p.values, nil, nil
}

// #endregion forward

// #region update-scores

// UpdateScores flattens per-environment agent infos into batch order and
// folds each slot's slice into the ledger under the slot's policy name, so
// slots sharing a name merge into one entry. Agent entries missing
// metricKey are silently skipped. Returns the per-policy grouped infos.
func (p *Pool) UpdateScores(infos [][]map[string]float64, metricKey string) map[string][]map[string]float64 {
	var flat []map[string]float64
	for _, env := range infos {
		flat = append(flat, env...)
	}

	grouped := make(map[string][]map[string]float64)
	for si, ap := range p.active {
		for _, idx := range p.part.Slot(si) {
			if idx >= len(flat) {
				continue
			}
			entry := flat[idx]
			grouped[ap.Name] = append(grouped[ap.Name], entry)
			if entry == nil {
				continue
			}
			if v, ok := entry[metricKey]; ok {
				p.scores[ap.Name] = append(p.scores[ap.Name], v)
				p.numScores++
			}
		}
	}
	return grouped
}

// #endregion update-scores

// #region update-ranks

// UpdateRanks flushes the whole ledger to the rating engine in one batched
// call, writes the recomputed estimates back to the store for every name
// still present, and clears the ledger. Ledger names that vanished from the
// store are skipped without error. A storage failure aborts the cycle with
// the ledger left intact.
func (p *Pool) UpdateRanks() error {
	if len(p.scores) == 0 {
		return nil
	}

	names := make([]string, 0, len(p.scores))
	for name := range p.scores {
		names = append(names, name)
	}
	sort.Strings(names)
	outcomes := make([][]float64, len(names))
	for i, name := range names {
		outcomes[i] = p.scores[name]
	}

	p.engine.Update(names, outcomes)

	cycleID := history.NewCycleID()
	ratings := p.engine.Ratings()
	committed := 0
	for i, name := range names {
		rec, err := p.store.GetByName(name)
		if errors.Is(err, policy.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("rank update %q: %w", name, err)
		}

		r := ratings[name]
		rec.Mu = r.Mu
		rec.Sigma = r.Sigma
		rec.Episodes += len(outcomes[i])
		if err := p.store.Update(rec); err != nil {
			if errors.Is(err, policy.ErrNotFound) {
				continue
			}
			return fmt.Errorf("rank update %q: %w", name, err)
		}
		committed++

		entry := history.Entry{
			CycleID: cycleID,
			Name:    name,
			Mu:      r.Mu,
			Sigma:   r.Sigma,
			Samples: len(outcomes[i]),
		}
		if err := history.LogRating(p.store.DB(), entry); err != nil {
			log.Printf("[POOL] failed to record rating history: %v", err)
		}
	}

	p.scores = make(map[string][]float64)
	p.numScores = 0

	log.Printf("[POOL] rank update %s: %d scored, %d committed", cycleID, len(names), committed)
	return nil
}

// #endregion update-ranks

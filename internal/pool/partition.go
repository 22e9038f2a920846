package pool

import "fmt"

// #region partition-struct

// Partition is the precomputed assignment of each batch index to exactly one
// roster slot. Assignment interleaves in fixed-size cycles rather than
// contiguous blocks, so positional correlation in the incoming batch spreads
// evenly across slots. Immutable once built.
type Partition struct {
	batchSize int
	slots     [][]int
}

// #endregion partition-struct

// #region constructor

// NewPartition derives the assignment from integer sample weights: a
// length-sum(weights) pattern repeats slot i weights[i] times in slot order,
// and index idx maps to pattern[idx mod sum(weights)].
func NewPartition(batchSize int, weights []int) (*Partition, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size %d: %w", batchSize, ErrBadConfig)
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("empty sample weights: %w", ErrBadConfig)
	}

	chunk := 0
	for i, w := range weights {
		if w <= 0 {
			return nil, fmt.Errorf("sample weight %d at slot %d: %w", w, i, ErrBadConfig)
		}
		chunk += w
	}
	if batchSize%chunk != 0 {
		return nil, fmt.Errorf("batch size %d not divisible by weight sum %d: %w",
			batchSize, chunk, ErrBadConfig)
	}

	pattern := make([]int, 0, chunk)
	for i, w := range weights {
		for n := 0; n < w; n++ {
			pattern = append(pattern, i)
		}
	}

	slots := make([][]int, len(weights))
	for i, w := range weights {
		slots[i] = make([]int, 0, batchSize*w/chunk)
	}
	for idx := 0; idx < batchSize; idx++ {
		s := pattern[idx%chunk]
		slots[s] = append(slots[s], idx)
	}

	return &Partition{batchSize: batchSize, slots: slots}, nil
}

// #endregion constructor

// #region accessors

// NumSlots returns the roster length the partition was built for.
func (p *Partition) NumSlots() int {
	return len(p.slots)
}

// Slot returns the batch indices assigned to roster slot i.
func (p *Partition) Slot(i int) []int {
	return p.slots[i]
}

// BatchSize returns the partitioned batch size.
func (p *Partition) BatchSize() int {
	return p.batchSize
}

// LearnerMask marks the indices owned by slot 0. Trainers use it to select
// learner-only transitions out of the mixed evaluation batch.
func (p *Partition) LearnerMask() []bool {
	mask := make([]bool, p.batchSize)
	for _, idx := range p.slots[0] {
		mask[idx] = true
	}
	return mask
}

// #endregion accessors

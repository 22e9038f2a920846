package pool

import (
	"errors"
	"reflect"
	"testing"
)

func TestPartitionInterleavedPattern(t *testing.T) {
	// weights [3,1], batch 8 → pattern [0,0,0,1] repeated twice.
	p, err := NewPartition(8, []int{3, 1})
	if err != nil {
		t.Fatalf("NewPartition: %v", err)
	}

	if got := p.Slot(0); !reflect.DeepEqual(got, []int{0, 1, 2, 4, 5, 6}) {
		t.Fatalf("slot 0 indices: %v", got)
	}
	if got := p.Slot(1); !reflect.DeepEqual(got, []int{3, 7}) {
		t.Fatalf("slot 1 indices: %v", got)
	}
}

func TestPartitionCoversEveryIndexOnce(t *testing.T) {
	cases := []struct {
		batch   int
		weights []int
	}{
		{8, []int{3, 1}},
		{12, []int{1, 1, 1}},
		{24, []int{2, 1, 1}},
		{6, []int{6}},
		{30, []int{1, 2, 3, 4, 5}},
	}

	for _, c := range cases {
		p, err := NewPartition(c.batch, c.weights)
		if err != nil {
			t.Fatalf("NewPartition(%d, %v): %v", c.batch, c.weights, err)
		}

		sum := 0
		for _, w := range c.weights {
			sum += w
		}

		seen := make(map[int]int)
		for i := range c.weights {
			idxs := p.Slot(i)
			want := c.batch * c.weights[i] / sum
			if len(idxs) != want {
				t.Errorf("batch=%d weights=%v slot %d: %d indices, want %d",
					c.batch, c.weights, i, len(idxs), want)
			}
			for _, idx := range idxs {
				seen[idx]++
			}
		}

		if len(seen) != c.batch {
			t.Errorf("batch=%d weights=%v: %d distinct indices covered", c.batch, c.weights, len(seen))
		}
		for idx, n := range seen {
			if n != 1 {
				t.Errorf("batch=%d weights=%v: index %d assigned %d times", c.batch, c.weights, idx, n)
			}
		}
	}
}

func TestPartitionConfigErrors(t *testing.T) {
	cases := []struct {
		batch   int
		weights []int
	}{
		{0, []int{1}},
		{8, nil},
		{8, []int{3, 0}},
		{8, []int{-1, 2}},
		{10, []int{3, 1}}, // 10 % 4 != 0
	}
	for _, c := range cases {
		if _, err := NewPartition(c.batch, c.weights); !errors.Is(err, ErrBadConfig) {
			t.Errorf("NewPartition(%d, %v): expected ErrBadConfig, got %v", c.batch, c.weights, err)
		}
	}
}

func TestLearnerMask(t *testing.T) {
	p, err := NewPartition(8, []int{3, 1})
	if err != nil {
		t.Fatalf("NewPartition: %v", err)
	}

	mask := p.LearnerMask()
	if len(mask) != 8 {
		t.Fatalf("mask length %d", len(mask))
	}
	ones := 0
	for _, m := range mask {
		if m {
			ones++
		}
	}
	if ones != 6 {
		t.Fatalf("expected 6 learner indices, got %d", ones)
	}
	for _, idx := range []int{3, 7} {
		if mask[idx] {
			t.Fatalf("index %d belongs to slot 1 but is marked as learner", idx)
		}
	}
}

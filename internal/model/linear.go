package model

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// #region linear-struct

// Linear is a stateless linear-softmax policy with a linear value head.
// Weights live in named dense matrices: "w" (act×obs), "b" (act×1),
// "v" (1×obs), "vb" (1×1).
type Linear struct {
	obsDim  int
	actDim  int
	weights map[string]*mat.Dense
}

// NewLinear allocates a zero-initialized linear policy.
func NewLinear(obsDim, actDim int) *Linear {
	return &Linear{
		obsDim: obsDim,
		actDim: actDim,
		weights: map[string]*mat.Dense{
			"w":  mat.NewDense(actDim, obsDim, nil),
			"b":  mat.NewDense(actDim, 1, nil),
			"v":  mat.NewDense(1, obsDim, nil),
			"vb": mat.NewDense(1, 1, nil),
		},
	}
}

// Arch identifies the architecture this model's snapshots belong to.
func (l *Linear) Arch() string {
	return fmt.Sprintf("linear-%dx%d", l.obsDim, l.actDim)
}

// Weights exposes the live weight matrices.
func (l *Linear) Weights() map[string]*mat.Dense {
	return l.weights
}

// Jitter perturbs every weight with Gaussian noise. Used to derive
// distinguishable frozen variants from one learner.
func (l *Linear) Jitter(rng *rand.Rand, scale float64) {
	for _, m := range l.weights {
		r, c := m.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				m.Set(i, j, m.At(i, j)+rng.NormFloat64()*scale)
			}
		}
	}
}

// #endregion linear-struct

// #region act

// Act runs the greedy linear-softmax policy over a batch of observations.
// Linear is stateless: recurrent state and done flags are ignored and the
// returned State is nil.
func (l *Linear) Act(obs [][]float64, state *LSTMState, dones []bool) (StepResult, error) {
	res := StepResult{
		Actions:  make([]int, len(obs)),
		LogProbs: make([]float64, len(obs)),
		Values:   make([]float64, len(obs)),
	}

	for i, row := range obs {
		if len(row) != l.obsDim {
			return StepResult{}, fmt.Errorf("act: sample %d has %d features, want %d", i, len(row), l.obsDim)
		}
		v := mat.NewVecDense(l.obsDim, row)

		var logitsVec mat.VecDense
		logitsVec.MulVec(l.weights["w"], v)

		logits := make([]float64, l.actDim)
		for a := 0; a < l.actDim; a++ {
			logits[a] = logitsVec.AtVec(a) + l.weights["b"].At(a, 0)
		}

		action, logProb := argmaxLogSoftmax(logits)
		res.Actions[i] = action
		res.LogProbs[i] = logProb
		res.Values[i] = mat.Dot(l.weights["v"].RowView(0), v) + l.weights["vb"].At(0, 0)
	}

	return res, nil
}

// argmaxLogSoftmax returns the greedy action and its log-probability.
func argmaxLogSoftmax(logits []float64) (int, float64) {
	best := 0
	for a, x := range logits {
		if x > logits[best] {
			best = a
		}
	}
	// log-sum-exp shifted by the max for stability
	var sum float64
	for _, x := range logits {
		sum += math.Exp(x - logits[best])
	}
	return best, -math.Log(sum)
}

// #endregion act

// #region clone

// Clone deep-copies the model. Mutating the clone's weights never affects
// the receiver.
func (l *Linear) Clone() Model {
	w := make(map[string]*mat.Dense, len(l.weights))
	for k, m := range l.weights {
		w[k] = mat.DenseCopyOf(m)
	}
	return &Linear{obsDim: l.obsDim, actDim: l.actDim, weights: w}
}

// #endregion clone

// #region snapshot-codec

// Snapshot layout, little-endian throughout:
//   uint32 matrix count, then per matrix (sorted by name):
//   uint32 name length, name bytes, uint64 blob length, gonum binary blob.

// Save persists the weight matrices to path.
func (l *Linear) Save(path string) error {
	names := make([]string, 0, len(l.weights))
	for k := range l.weights {
		names = append(names, k)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(len(names)))
	for _, name := range names {
		blob, err := l.weights[name].MarshalBinary()
		if err != nil {
			return fmt.Errorf("marshal %q: %w", name, err)
		}
		binary.Write(&buf, binary.LittleEndian, uint32(len(name)))
		buf.WriteString(name)
		binary.Write(&buf, binary.LittleEndian, uint64(len(blob)))
		buf.Write(blob)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}

// Load replaces the weight matrices with the snapshot at path and re-derives
// the model dimensions from the policy head.
func (l *Linear) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", path, err)
	}
	buf := bytes.NewReader(data)

	var count uint32
	if err := binary.Read(buf, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("snapshot %s: header: %w", path, err)
	}

	weights := make(map[string]*mat.Dense, count)
	for i := uint32(0); i < count; i++ {
		var nameLen uint32
		if err := binary.Read(buf, binary.LittleEndian, &nameLen); err != nil {
			return fmt.Errorf("snapshot %s: name length: %w", path, err)
		}
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(buf, name); err != nil {
			return fmt.Errorf("snapshot %s: name: %w", path, err)
		}
		var blobLen uint64
		if err := binary.Read(buf, binary.LittleEndian, &blobLen); err != nil {
			return fmt.Errorf("snapshot %s: blob length: %w", path, err)
		}
		blob := make([]byte, blobLen)
		if _, err := io.ReadFull(buf, blob); err != nil {
			return fmt.Errorf("snapshot %s: blob: %w", path, err)
		}
		var m mat.Dense
		if err := m.UnmarshalBinary(blob); err != nil {
			return fmt.Errorf("snapshot %s: unmarshal %q: %w", path, string(name), err)
		}
		weights[string(name)] = &m
	}

	for _, required := range []string{"w", "b", "v", "vb"} {
		if _, ok := weights[required]; !ok {
			return fmt.Errorf("snapshot %s: missing matrix %q", path, required)
		}
	}

	actDim, obsDim := weights["w"].Dims()
	l.obsDim = obsDim
	l.actDim = actDim
	l.weights = weights
	return nil
}

// #endregion snapshot-codec

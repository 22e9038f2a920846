package model

// #region lstm-state
// LSTMState holds recurrent state as per-sample rows so roster slicing is a
// row gather. H and C always have equal length (the batch size).
type LSTMState struct {
	H [][]float64
	C [][]float64
}

// NewLSTMState allocates zeroed recurrent state for a batch.
func NewLSTMState(batchSize, hiddenSize int) *LSTMState {
	s := &LSTMState{
		H: make([][]float64, batchSize),
		C: make([][]float64, batchSize),
	}
	for i := 0; i < batchSize; i++ {
		s.H[i] = make([]float64, hiddenSize)
		s.C[i] = make([]float64, hiddenSize)
	}
	return s
}

// #endregion lstm-state

// #region step-result
// StepResult is the per-batch output of one Act call.
type StepResult struct {
	Actions  []int
	LogProbs []float64
	Values   []float64
	State    *LSTMState // nil for stateless models
}

// #endregion step-result

// #region model-interface

// Model is the policy model capability consumed by the pool: batched
// action selection plus parameter snapshot round-trips. Clone must yield an
// independently mutable instance, including its internal parameters.
type Model interface {
	Act(obs [][]float64, state *LSTMState, dones []bool) (StepResult, error)
	Save(path string) error
	Load(path string) error
	Clone() Model
	Arch() string
}

// #endregion model-interface

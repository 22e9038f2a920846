package replay

import (
	"encoding/json"
	"fmt"
	"os"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a rating replay: the engine
// defaults, the anchor set, and the recorded score rounds in order.
type Fixture struct {
	Description string   `json:"description"`
	Mu          float64  `json:"mu"`
	AnchorMu    float64  `json:"anchor_mu"`
	Sigma       float64  `json:"sigma"`
	Anchors     []string `json:"anchors,omitempty"`
	Rounds      []Round  `json:"rounds"`
}

// Round is one flushed score ledger: policy name → outcome samples.
type Round struct {
	Scores map[string][]float64 `json:"scores"`
}

// #endregion fixture-types

// #region fixture-io

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return &f, nil
}

// SaveFixture writes a fixture as indented JSON.
func SaveFixture(path string, f *Fixture) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("fixture: %w", err)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// Validate checks structural invariants before a replay run.
func (f *Fixture) Validate() error {
	if f.Sigma <= 0 {
		return fmt.Errorf("sigma must be positive, got %f", f.Sigma)
	}
	if len(f.Rounds) == 0 {
		return fmt.Errorf("fixture has no rounds")
	}
	for i, round := range f.Rounds {
		if len(round.Scores) == 0 {
			return fmt.Errorf("round %d has no scores", i)
		}
	}
	return nil
}

// #endregion fixture-io

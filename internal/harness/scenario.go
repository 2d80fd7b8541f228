package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance scenario for the uniqueness engine.
// Each step submits or checks a scripted recording and states the outcome
// it expects; the run fails on any mismatch.
type Scenario struct {
	// Name uniquely identifies this scenario; it is also the golden
	// file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Threshold is the similarity cutoff for the approximate scan.
	Threshold float64 `yaml:"threshold"`

	// BatchSize bounds the scan's working set. Defaults to 100.
	BatchSize int `yaml:"batch_size,omitempty"`

	// Steps run in order against a single fresh ledger.
	Steps []Step `yaml:"steps"`
}

// Step is one scripted submission or check.
type Step struct {
	// Op is "submit" (classify and register when unique) or "check"
	// (classify only). Defaults to "submit".
	Op string `yaml:"op,omitempty"`

	// File labels the recording; the scripted extractor resolves it to
	// the fingerprint below.
	File string `yaml:"file"`

	// Duration is the recording length in seconds.
	Duration float64 `yaml:"duration"`

	// Fingerprint is the scripted acoustic fingerprint for this file.
	Fingerprint []int32 `yaml:"fingerprint"`

	// SourceLink is the contribution's origin pointer. Defaults to a
	// synthetic per-step link so fingerprint collisions stay isolated
	// from source-link collisions.
	SourceLink string `yaml:"source_link,omitempty"`

	// Expect is the outcome this step must produce: "unique",
	// "exact_duplicate" or "similar_duplicate".
	Expect string `yaml:"expect"`
}

const (
	OpSubmit = "submit"
	OpCheck  = "check"
)

var validOutcomes = map[string]bool{
	"unique":            true,
	"exact_duplicate":   true,
	"similar_duplicate": true,
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly instead of silently skipping a step.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Threshold < 0 || s.Threshold > 1 {
		return fmt.Errorf("threshold must be in [0,1], got %v", s.Threshold)
	}
	if s.BatchSize < 0 {
		return fmt.Errorf("batch_size must be non-negative, got %d", s.BatchSize)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	files := make(map[string][]int32)
	for i, step := range s.Steps {
		if step.Op != "" && step.Op != OpSubmit && step.Op != OpCheck {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if step.File == "" {
			return fmt.Errorf("steps[%d]: file is required", i)
		}
		if step.Duration <= 0 {
			return fmt.Errorf("steps[%d]: duration must be positive", i)
		}
		if len(step.Fingerprint) == 0 {
			return fmt.Errorf("steps[%d]: fingerprint is required and must be non-empty", i)
		}
		if !validOutcomes[step.Expect] {
			return fmt.Errorf("steps[%d]: unknown expected outcome %q", i, step.Expect)
		}

		// The same file label must carry the same fingerprint throughout:
		// the extractor is a function of the file, not of the step.
		if prev, ok := files[step.File]; ok {
			if !equalFingerprints(prev, step.Fingerprint) {
				return fmt.Errorf("steps[%d]: file %q redefined with a different fingerprint", i, step.File)
			}
		} else {
			files[step.File] = step.Fingerprint
		}
	}

	return nil
}

func equalFingerprints(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

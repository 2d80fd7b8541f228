package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioGoldens(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, matches, "no scenario files found")

	for _, path := range matches {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, "loading %s", path)

		t.Run(scenario.Name, func(t *testing.T) {
			RunWithGolden(t, scenario)
		})
	}
}

func TestRunReportsMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "wrong expectation is reported, not fatal",
		Threshold:   0.8,
		Steps: []Step{
			{File: "a.ogg", Duration: 10.5, Fingerprint: []int32{1, 2, 3, 4}, Expect: "exact_duplicate"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected exact_duplicate, got unique")
}

func TestRunCheckDoesNotRegister(t *testing.T) {
	scenario := &Scenario{
		Name:        "check-only",
		Description: "checks leave the ledger empty",
		Threshold:   0.8,
		Steps: []Step{
			{Op: OpCheck, File: "a.ogg", Duration: 10.5, Fingerprint: []int32{1, 2, 3, 4}, Expect: "unique"},
			{Op: OpCheck, File: "a.ogg", Duration: 10.5, Fingerprint: []int32{1, 2, 3, 4}, Expect: "unique"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Equal(t, int64(0), result.Contributions)
}

func TestLoadScenarioRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typo.yaml")
	content := `
name: typo
description: has a misspelled key
threshold: 0.8
stepz:
  - file: a.ogg
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenarioValidation(t *testing.T) {
	valid := func() *Scenario {
		return &Scenario{
			Name:        "valid",
			Description: "a valid scenario",
			Threshold:   0.8,
			Steps: []Step{
				{File: "a.ogg", Duration: 10.5, Fingerprint: []int32{1}, Expect: "unique"},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Scenario)
		wantErr string
	}{
		{"missing name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"missing description", func(s *Scenario) { s.Description = "" }, "description is required"},
		{"threshold out of range", func(s *Scenario) { s.Threshold = 1.5 }, "threshold"},
		{"negative batch size", func(s *Scenario) { s.BatchSize = -1 }, "batch_size"},
		{"no steps", func(s *Scenario) { s.Steps = nil }, "steps"},
		{"bad op", func(s *Scenario) { s.Steps[0].Op = "delete" }, "unknown op"},
		{"missing file", func(s *Scenario) { s.Steps[0].File = "" }, "file is required"},
		{"zero duration", func(s *Scenario) { s.Steps[0].Duration = 0 }, "duration"},
		{"empty fingerprint", func(s *Scenario) { s.Steps[0].Fingerprint = nil }, "fingerprint"},
		{"bad outcome", func(s *Scenario) { s.Steps[0].Expect = "maybe" }, "unknown expected outcome"},
		{
			"conflicting fingerprints for one file",
			func(s *Scenario) {
				s.Steps = append(s.Steps, Step{
					File: "a.ogg", Duration: 10.5, Fingerprint: []int32{9}, Expect: "unique",
				})
			},
			"redefined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			require.NoError(t, validateScenario(s), "base scenario must be valid")
			tt.mutate(s)
			err := validateScenario(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

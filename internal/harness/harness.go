// Package harness provides a conformance harness for the uniqueness
// engine.
//
// Scenarios are YAML files: an ordered list of scripted submissions, each
// with the fingerprint the extractor should produce and the outcome the
// engine must return. Every scenario runs against a fresh in-memory
// ledger with the real codec, store and bit scorer; only the acoustic
// extractor is scripted, since tests cannot shell out to Chromaprint.
// Traces are compared against golden files for regression coverage.
package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/audata/audproof/internal/acoustic"
	"github.com/audata/audproof/internal/engine"
	"github.com/audata/audproof/internal/store"
	"github.com/audata/audproof/internal/testutil"
)

const defaultBatchSize = 100

// TraceEvent records one step's observed behavior.
type TraceEvent struct {
	Step       int    `json:"step"`
	Op         string `json:"op"`
	File       string `json:"file"`
	Outcome    string `json:"outcome"`
	Registered bool   `json:"registered,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step produced its expected outcome.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists expectation mismatches. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Contributions is the final ledger row count.
	Contributions int64 `json:"contributions"`
}

// AddError records an expectation mismatch and marks the result failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run executes a scenario against a fresh in-memory ledger and returns
// the result. Engine faults (as opposed to expectation mismatches) abort
// the run with an error.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	extractor := testutil.NewScriptedExtractor()
	for _, step := range scenario.Steps {
		extractor.Script(step.File, engine.Extraction{
			Duration:    step.Duration,
			Fingerprint: step.Fingerprint,
		})
	}

	eng := engine.New(engine.NewStoreIndex(st), extractor, acoustic.BitScorer{},
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	batchSize := scenario.BatchSize
	if batchSize == 0 {
		batchSize = defaultBatchSize
	}

	ctx := context.Background()
	result := &Result{Pass: true, Trace: []TraceEvent{}}

	for i, step := range scenario.Steps {
		op := step.Op
		if op == "" {
			op = OpSubmit
		}

		event := TraceEvent{Step: i + 1, Op: op, File: step.File}

		switch op {
		case OpCheck:
			outcome, err := eng.CheckUniqueness(ctx, step.File, scenario.Threshold, batchSize)
			if err != nil {
				return nil, fmt.Errorf("step %d (%s): %w", i+1, step.File, err)
			}
			event.Outcome = outcome.String()

		case OpSubmit:
			link := step.SourceLink
			if link == "" {
				link = fmt.Sprintf("scenario://%s/%d", scenario.Name, i+1)
			}
			res, err := eng.Submit(ctx, step.File, link, scenario.Threshold, batchSize)
			if err != nil {
				return nil, fmt.Errorf("step %d (%s): %w", i+1, step.File, err)
			}
			event.Outcome = res.Outcome.String()
			event.Registered = res.Contribution != nil
		}

		if event.Outcome != step.Expect {
			result.AddError(fmt.Sprintf("step %d (%s): expected %s, got %s",
				i+1, step.File, step.Expect, event.Outcome))
		}
		result.Trace = append(result.Trace, event)
	}

	count, err := st.CountContributions(ctx)
	if err != nil {
		return nil, fmt.Errorf("count contributions: %w", err)
	}
	result.Contributions = count

	return result, nil
}

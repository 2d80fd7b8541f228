// Package proof sequences the four contribution checks - ownership,
// uniqueness, authenticity, quality - and folds their outcomes into a
// single verdict.
//
// All four checks run unconditionally: a failed check zeroes its score but
// never short-circuits the run, because partial results are still
// reported. Faults are different - an integrity, comparison or extraction
// error aborts the whole run; those are data problems, not content-quality
// findings, and must never be folded into a 0 score.
package proof

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/audata/audproof/internal/engine"
	"github.com/audata/audproof/internal/store"
)

// AuthenticityChecker is the anti-spoofing collaborator: 1 authentic,
// 0 tampered.
type AuthenticityChecker interface {
	Check(ctx context.Context, path string) (int, error)
}

// QualityScorer is the speech-quality collaborator: score in [0,1].
type QualityScorer interface {
	Score(ctx context.Context, path string) (float64, error)
}

// Policy carries the per-deployment constants of the proof contract.
type Policy struct {
	// SimilarityThreshold is the uniqueness engine's duplicate cutoff.
	SimilarityThreshold float64

	// ScanBatchSize bounds the engine's working set during the
	// approximate scan.
	ScanBatchSize int

	// QualityThreshold is the strict lower bound quality must exceed for
	// a valid proof. The default contract is 0.5.
	QualityThreshold float64

	// BanAfterFailedChecks bans a user once their failed-authenticity
	// count reaches this value; 0 disables banning.
	BanAfterFailedChecks int

	// DLPID identifies the data liquidity pool in proof metadata.
	DLPID int
}

// DefaultPolicy returns the contract defaults.
func DefaultPolicy() Policy {
	return Policy{
		SimilarityThreshold:  0.8,
		ScanBatchSize:        100,
		QualityThreshold:     0.5,
		BanAfterFailedChecks: 0,
	}
}

// Submission is one proof run's input: exactly one recording.
type Submission struct {
	Path       string
	Identity   string
	SourceLink string
}

// Orchestrator owns one proof run end to end.
type Orchestrator struct {
	store   *store.Store
	engine  *engine.Engine
	auth    AuthenticityChecker
	quality QualityScorer
	policy  Policy
	logger  *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator's logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator wires the four checks over an explicitly passed store
// handle; there is no ambient singleton to reach for.
func NewOrchestrator(s *store.Store, e *engine.Engine, auth AuthenticityChecker, quality QualityScorer, policy Policy, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:   s,
		engine:  e,
		auth:    auth,
		quality: quality,
		policy:  policy,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate runs the four checks and composes the verdict. Any error aborts
// the run; the partially filled verdict is discarded.
func (o *Orchestrator) Generate(ctx context.Context, sub Submission) (*Verdict, error) {
	o.logger.Info("starting proof generation",
		"file", sub.Path, "identity", sub.Identity)

	v := &Verdict{
		Attributes: map[string]any{},
		Metadata:   map[string]any{"dlp_id": o.policy.DLPID},
	}

	// Ownership.
	user, err := o.store.FindOrCreateUser(ctx, sub.Identity)
	if err != nil {
		return nil, fmt.Errorf("ownership check: %w", err)
	}
	if user.IsBanned {
		o.logger.Warn("submission from banned user", "identity", sub.Identity)
		v.Ownership = 0
	} else {
		v.Ownership = 1
	}

	// Uniqueness. The accepted contribution is registered here, after the
	// engine confirms uniqueness; a lost insert race comes back as an
	// exact-duplicate outcome, not an error.
	res, err := o.engine.Submit(ctx, sub.Path, sub.SourceLink,
		o.policy.SimilarityThreshold, o.policy.ScanBatchSize)
	if err != nil {
		return nil, fmt.Errorf("uniqueness check: %w", err)
	}
	if res.Outcome == engine.OutcomeUnique {
		v.Uniqueness = 1
	}
	v.Attributes["uniqueness_outcome"] = res.Outcome.String()
	v.Attributes["duration_seconds"] = res.Extraction.Duration
	v.Attributes["fingerprint_digest"] = res.Digest
	if res.Contribution != nil {
		v.Attributes["contribution_id"] = res.Contribution.ID
	}

	// Authenticity.
	authentic, err := o.auth.Check(ctx, sub.Path)
	if err != nil {
		return nil, fmt.Errorf("authenticity check: %w", err)
	}
	v.Authenticity = authentic
	if authentic == 0 {
		if _, err := o.store.RecordFailedAuthenticity(ctx, sub.Identity, o.policy.BanAfterFailedChecks); err != nil {
			return nil, fmt.Errorf("authenticity check: %w", err)
		}
	}

	// Quality.
	q, err := o.quality.Score(ctx, sub.Path)
	if err != nil {
		return nil, fmt.Errorf("quality check: %w", err)
	}
	v.Quality = q

	v.OverallValid = v.Ownership == 1 &&
		v.Uniqueness == 1 &&
		v.Authenticity == 1 &&
		v.Quality > o.policy.QualityThreshold

	o.logger.Info("proof generation complete",
		"ownership", v.Ownership,
		"uniqueness", v.Uniqueness,
		"authenticity", v.Authenticity,
		"quality", v.Quality,
		"valid", v.OverallValid)

	return v, nil
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/audata/audproof/internal/codec"
	"github.com/audata/audproof/internal/store"
)

// Extraction is the acoustic extractor's output for one recording.
// Similarity is scored on the (duration, fingerprint) pair, never on the
// fingerprint alone.
type Extraction struct {
	Duration    float64
	Fingerprint codec.Fingerprint
}

// Extractor produces an Extraction from an audio file.
// Failures are reported as *ExtractionError.
type Extractor interface {
	Extract(ctx context.Context, path string) (Extraction, error)
}

// Scorer computes pairwise fingerprint similarity in [0,1].
// Contract violations are reported as *ComparisonError.
type Scorer interface {
	Compare(ctx context.Context, a, b Extraction) (float64, error)
}

// Index is the persistent contribution store handle injected at
// construction. The engine has read+insert access only.
type Index interface {
	BeginRead(ctx context.Context) (ReadSession, error)
	Insert(ctx context.Context, c *store.Contribution) error
	LookupByDigest(ctx context.Context, digest string) (*store.Contribution, error)
}

// ReadSession is a snapshot-consistent read session over the ledger.
type ReadSession interface {
	LookupByDigest(ctx context.Context, digest string) (*store.Contribution, error)
	Scan(ctx context.Context, afterSeq int64, limit int) ([]store.Contribution, error)
	Close() error
}

// storeIndex adapts *store.Store to the Index interface.
type storeIndex struct {
	s *store.Store
}

func (x storeIndex) BeginRead(ctx context.Context) (ReadSession, error) {
	return x.s.BeginRead(ctx)
}

func (x storeIndex) Insert(ctx context.Context, c *store.Contribution) error {
	return x.s.InsertContribution(ctx, c)
}

func (x storeIndex) LookupByDigest(ctx context.Context, digest string) (*store.Contribution, error) {
	return x.s.LookupByDigest(ctx, digest)
}

// NewStoreIndex wraps a SQLite store as the engine's Index.
func NewStoreIndex(s *store.Store) Index {
	return storeIndex{s: s}
}

// Engine orchestrates exact-match lookup and the bounded approximate scan.
type Engine struct {
	index     Index
	extractor Extractor
	scorer    Scorer
	cache     *DigestCache
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithDigestCache enables the LRU fast path over confirmed digests.
func WithDigestCache(c *DigestCache) Option {
	return func(e *Engine) { e.cache = c }
}

// New creates an Engine over the given store handle and collaborators.
func New(index Index, extractor Extractor, scorer Scorer, opts ...Option) *Engine {
	e := &Engine{
		index:     index,
		extractor: extractor,
		scorer:    scorer,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of a full Submit: the classification, the
// extraction it was based on, and the inserted contribution when the
// submission was accepted.
type Result struct {
	Outcome      Outcome
	Extraction   Extraction
	Digest       string
	Contribution *store.Contribution
}

// CheckUniqueness classifies the recording at path against the corpus.
// It performs reads only; accepting the submission is Register's job.
//
// Preconditions are validated before any I/O: threshold must lie in
// [0,1] and batchSize must be >= 1.
func (e *Engine) CheckUniqueness(ctx context.Context, path string, threshold float64, batchSize int) (Outcome, error) {
	if err := validateArgs(threshold, batchSize); err != nil {
		return 0, err
	}

	ext, err := e.extractor.Extract(ctx, path)
	if err != nil {
		return 0, err
	}

	outcome, _, err := e.classify(ctx, ext, threshold, batchSize)
	return outcome, err
}

// Submit runs the full accept path: extract, classify, and - only when the
// submission is unique - register it in the ledger. A lost insert race is
// reclassified as OutcomeExactDuplicate, never surfaced as an error.
func (e *Engine) Submit(ctx context.Context, path, sourceLink string, threshold float64, batchSize int) (Result, error) {
	if err := validateArgs(threshold, batchSize); err != nil {
		return Result{}, err
	}

	ext, err := e.extractor.Extract(ctx, path)
	if err != nil {
		return Result{}, err
	}

	outcome, digest, err := e.classify(ctx, ext, threshold, batchSize)
	if err != nil {
		return Result{}, err
	}
	if outcome != OutcomeUnique {
		return Result{Outcome: outcome, Extraction: ext, Digest: digest}, nil
	}

	regOutcome, c, err := e.Register(ctx, ext, sourceLink)
	if err != nil {
		return Result{}, err
	}
	return Result{Outcome: regOutcome, Extraction: ext, Digest: digest, Contribution: c}, nil
}

// Register appends a contribution for an extraction already classified as
// unique. The store's uniqueness constraint is the race guard: on a
// constraint violation the exact-match phase is re-run and the submission
// is reclassified as OutcomeExactDuplicate (someone else just accepted the
// same content).
func (e *Engine) Register(ctx context.Context, ext Extraction, sourceLink string) (Outcome, *store.Contribution, error) {
	encoded, digest, err := codec.Encode(ext.Fingerprint)
	if err != nil {
		return 0, nil, err
	}

	c := &store.Contribution{
		FingerprintEncoded: encoded,
		FingerprintDigest:  digest,
		SourceLink:         sourceLink,
		SourceLinkDigest:   codec.LinkDigest(sourceLink),
		DurationSeconds:    ext.Duration,
	}

	if err := e.index.Insert(ctx, c); err != nil {
		if !store.IsDuplicate(err) {
			return 0, nil, err
		}

		e.logger.Info("lost insert race, reclassifying",
			"digest", digest, "source_link", sourceLink)

		// Re-run the exact-match phase to classify correctly. The conflict
		// may be on the source-link digest instead of the fingerprint
		// digest; either way the content pointer is already contributed.
		_, lerr := e.index.LookupByDigest(ctx, digest)
		switch {
		case lerr == nil:
			e.cache.Add(digest)
		case errors.Is(lerr, store.ErrNotFound):
			// Source-link conflict: nothing to cache.
		default:
			return 0, nil, lerr
		}
		return OutcomeExactDuplicate, nil, nil
	}

	e.cache.Add(digest)
	e.logger.Info("contribution registered",
		"id", c.ID, "seq", c.Seq, "digest", digest, "duration_seconds", ext.Duration)
	return OutcomeUnique, c, nil
}

// classify runs the exact-match phase and, if needed, the batched
// approximate scan, inside a single read session.
func (e *Engine) classify(ctx context.Context, ext Extraction, threshold float64, batchSize int) (Outcome, string, error) {
	_, digest, err := codec.Encode(ext.Fingerprint)
	if err != nil {
		return 0, "", err
	}

	if e.cache.Contains(digest) {
		e.logger.Debug("exact duplicate (digest cache)", "digest", digest)
		return OutcomeExactDuplicate, digest, nil
	}

	session, err := e.index.BeginRead(ctx)
	if err != nil {
		return 0, "", err
	}
	defer session.Close()

	// Exact-match phase.
	match, err := session.LookupByDigest(ctx, digest)
	switch {
	case err == nil:
		e.cache.Add(digest)
		e.logger.Info("exact duplicate found", "digest", digest, "contribution", match.ID)
		return OutcomeExactDuplicate, digest, nil
	case errors.Is(err, store.ErrNotFound):
		// No exact match; fall through to the approximate scan.
	default:
		return 0, "", err
	}

	// Approximate-match phase: first score at or above threshold wins.
	var afterSeq int64
	var scanned int
	for {
		batch, err := session.Scan(ctx, afterSeq, batchSize)
		if err != nil {
			return 0, "", err
		}

		for _, row := range batch {
			scanned++
			fp, err := codec.Decode(row.FingerprintEncoded)
			if err != nil {
				return 0, "", fmt.Errorf("contribution %s: %w", row.ID, err)
			}

			score, err := e.scorer.Compare(ctx, ext, Extraction{
				Duration:    row.DurationSeconds,
				Fingerprint: fp,
			})
			if err != nil {
				if IsComparisonError(err) {
					return 0, "", err
				}
				return 0, "", &ComparisonError{Reason: "scorer failed", Err: err}
			}
			if math.IsNaN(score) || score < 0.0 || score > 1.0 {
				return 0, "", &ComparisonError{
					Reason: fmt.Sprintf("score %v outside [0,1] for contribution %s", score, row.ID),
				}
			}

			if score >= threshold {
				e.logger.Info("similar duplicate found",
					"contribution", row.ID, "score", score, "threshold", threshold, "scanned", scanned)
				return OutcomeSimilarDuplicate, digest, nil
			}
		}

		if len(batch) < batchSize {
			break
		}
		afterSeq = batch[len(batch)-1].Seq
	}

	e.logger.Debug("no duplicate found", "digest", digest, "scanned", scanned)
	return OutcomeUnique, digest, nil
}

func validateArgs(threshold float64, batchSize int) error {
	if math.IsNaN(threshold) || threshold < 0.0 || threshold > 1.0 {
		return &InvalidArgumentError{
			Argument: "similarity_threshold",
			Message:  fmt.Sprintf("must be in [0.0, 1.0], got %v", threshold),
		}
	}
	if batchSize < 1 {
		return &InvalidArgumentError{
			Argument: "scan_batch_size",
			Message:  fmt.Sprintf("must be >= 1, got %d", batchSize),
		}
	}
	return nil
}

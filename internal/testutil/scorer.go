package testutil

import (
	"context"

	"github.com/audata/audproof/internal/engine"
)

// FixedScorer scores every pair with the same similarity.
//
// A score at the threshold classifies everything as a similar duplicate; a
// score of 0 classifies nothing. Tests pick the side of the threshold they
// need without constructing acoustically related fingerprints.
//
// Thread-safety: FixedScorer is stateless and safe for concurrent use.
type FixedScorer struct {
	Score float64
}

// Compare implements engine.Scorer.
func (s FixedScorer) Compare(ctx context.Context, a, b engine.Extraction) (float64, error) {
	return s.Score, nil
}

package acoustic

import (
	"context"
	"fmt"
	"math"
	"math/bits"

	"github.com/audata/audproof/internal/engine"
)

// BitScorer scores pairwise fingerprint similarity by bit agreement over
// aligned sub-fingerprints, discounted for length and duration mismatch.
// Identical (duration, fingerprint) pairs score 1.0.
type BitScorer struct{}

// Compare returns a similarity in [0,1]. Degenerate input (an empty
// fingerprint or a non-positive duration) is a ComparisonError: the shape
// contract was violated upstream and the scan must abort rather than
// guess.
func (BitScorer) Compare(ctx context.Context, a, b engine.Extraction) (float64, error) {
	if err := validateSample("first", a); err != nil {
		return 0, err
	}
	if err := validateSample("second", b); err != nil {
		return 0, err
	}

	overlap := len(a.Fingerprint)
	if len(b.Fingerprint) < overlap {
		overlap = len(b.Fingerprint)
	}
	longer := len(a.Fingerprint)
	if len(b.Fingerprint) > longer {
		longer = len(b.Fingerprint)
	}

	var agreeing int
	for i := 0; i < overlap; i++ {
		agreeing += 32 - bits.OnesCount32(uint32(a.Fingerprint[i])^uint32(b.Fingerprint[i]))
	}

	bitSimilarity := float64(agreeing) / float64(overlap*32)
	lengthRatio := float64(overlap) / float64(longer)

	// min/max keeps the ratio bit-identical regardless of argument order.
	durationRatio := math.Min(a.Duration, b.Duration) / math.Max(a.Duration, b.Duration)

	return bitSimilarity * lengthRatio * durationRatio, nil
}

func validateSample(which string, e engine.Extraction) error {
	if len(e.Fingerprint) == 0 {
		return &engine.ComparisonError{
			Reason: fmt.Sprintf("%s fingerprint is empty", which),
		}
	}
	if e.Duration <= 0 {
		return &engine.ComparisonError{
			Reason: fmt.Sprintf("%s duration %v is not positive", which, e.Duration),
		}
	}
	return nil
}

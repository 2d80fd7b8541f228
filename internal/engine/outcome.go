package engine

import "fmt"

// Outcome classifies a submission against the corpus of accepted
// contributions. It is a value, not an error: duplicate detection is an
// expected result of a successful check.
type Outcome int

const (
	// OutcomeUnique: no stored contribution matches exactly or crosses the
	// similarity threshold.
	OutcomeUnique Outcome = iota

	// OutcomeExactDuplicate: a stored contribution has the same
	// fingerprint digest.
	OutcomeExactDuplicate

	// OutcomeSimilarDuplicate: some stored contribution's similarity score
	// meets or exceeds the threshold without being an exact digest match.
	OutcomeSimilarDuplicate
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnique:
		return "unique"
	case OutcomeExactDuplicate:
		return "exact_duplicate"
	case OutcomeSimilarDuplicate:
		return "similar_duplicate"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

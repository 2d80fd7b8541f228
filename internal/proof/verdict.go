package proof

// Verdict is the composed outcome of all four checks for one submission
// run. It is constructed fresh per run and handed off immutable; this core
// never persists it (serialization for the on-chain registry is the
// caller's concern).
type Verdict struct {
	// Ownership is 1 when the submitting identity is in good standing
	// (not banned; unknown identities are bootstrapped with grace).
	Ownership int `json:"ownership"`

	// Uniqueness is 1 when the content fingerprint engine classified the
	// recording as unique.
	Uniqueness int `json:"uniqueness"`

	// Authenticity is the anti-spoofing service's verdict, passed through
	// unmodified.
	Authenticity int `json:"authenticity"`

	// Quality is the speech-quality score in [0,1], passed through
	// unmodified.
	Quality float64 `json:"quality"`

	// OverallValid is the strict conjunction of the four checks:
	// ownership, uniqueness and authenticity must be 1 and quality must
	// strictly exceed the configured threshold.
	OverallValid bool `json:"overall_valid"`

	// Attributes are public properties of the submission included in the
	// proof output.
	Attributes map[string]any `json:"attributes"`

	// Metadata is written alongside the proof on-chain.
	Metadata map[string]any `json:"metadata"`
}

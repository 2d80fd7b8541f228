// Package engine implements the content fingerprint uniqueness engine.
//
// The engine decides whether a submitted recording duplicates, or is
// suspiciously similar to, any previously accepted contribution. A check
// runs in two phases against the persistent store:
//
//  1. Exact-match phase: indexed lookup of the submission's 128-bit
//     fingerprint digest. A hit short-circuits to ExactDuplicate without
//     touching the similarity scorer (an exact match is definitionally
//     maximal similarity). More than one hit is a store-integrity fault.
//  2. Approximate-match phase: stream the whole corpus in batches of a
//     caller-chosen size (bounded working-set memory over an unbounded
//     corpus), score each stored fingerprint against the submission, and
//     return SimilarDuplicate on the first score at or above the
//     threshold. Scan order is insertion sequence ascending, so the first
//     match is reproducible across runs.
//
// Classification is a typed Outcome value, never an error: error types are
// reserved for faults (extraction, comparison, codec, store integrity).
//
// Insertion of an accepted contribution is a separate, explicit step
// (Register). It leans on the store's uniqueness constraint as the race
// guard: of two concurrent submissions of the same content, one insert
// succeeds and the loser is reclassified as ExactDuplicate.
//
// The full scan is inherently O(corpus size) per submission. That is the
// known scalability ceiling of this approach; an approximate
// nearest-neighbor index over fingerprint embeddings would replace the
// scan phase, not this engine's contract.
package engine

// Package codec canonicalizes acoustic fingerprints for storage and indexing.
//
// A raw fingerprint is a sequence of 32-bit sub-fingerprints produced by the
// acoustic extractor. The codec maps it to:
//   - an encoded form: storage-prefixed hex of the canonical byte
//     serialization (4-byte big-endian per sub-fingerprint)
//   - a digest: 128-bit BLAKE3 hash of the canonical serialization with
//     domain separation, used for O(1) exact-duplicate lookup
//
// # Storage prefix
//
// The encoded form carries the fixed-width prefix `\x` (an escape/radix
// marker inherited from the bytea representation of the originating store).
// Decode strips exactly this prefix before interpreting the payload. The
// prefix is an explicit, tested constant: silently mis-stripping it corrupts
// every subsequent similarity comparison.
//
// Both Encode and Decode are pure; two calls with bit-identical input yield
// identical output.
package codec

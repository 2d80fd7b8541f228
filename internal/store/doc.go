// Package store provides SQLite-backed durable storage for accepted audio
// contributions and submitter records.
//
// The contributions table is an append-only ledger:
//   - Rows are created exactly once when a submission is accepted.
//   - Rows are never updated and never deleted (the dedup index depends on
//     the full audit trail).
//   - UNIQUE indexes on fingerprint_digest and source_link_digest are the
//     sole concurrency-correctness mechanism for the insert-after-unique
//     race: of two concurrent inserts of the same content, exactly one
//     succeeds and the other observes a constraint violation.
//
// Scan ordering is deterministic: every scan orders by seq ASC (insertion
// sequence), so "first match" is reproducible across runs and across
// storage engines.
//
// # Database Configuration
//
//   - WAL mode: concurrent readers during writes, snapshot-consistent
//     read transactions
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON
package store

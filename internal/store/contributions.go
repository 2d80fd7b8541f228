package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Contribution is one accepted submission in the append-only ledger.
type Contribution struct {
	// Seq is the insertion sequence, assigned by the store. Scans order by
	// Seq ascending so "first match" is deterministic.
	Seq int64

	// ID is an opaque unique identifier assigned at creation.
	ID string

	// FingerprintEncoded is the codec's storable encoded form.
	FingerprintEncoded string

	// FingerprintDigest is the 128-bit digest used for exact-match lookup.
	// UNIQUE across all rows, enforced by the store.
	FingerprintDigest string

	// SourceLink is the provenance pointer; SourceLinkDigest follows the
	// same uniqueness discipline as the fingerprint digest.
	SourceLink       string
	SourceLinkDigest string

	// DurationSeconds is the source recording length, required for
	// similarity scoring (similarity is not computed on fingerprints alone).
	DurationSeconds float64

	// UploadedAt is server-assigned at insert, never mutated.
	UploadedAt time.Time
}

// querier is satisfied by both *sql.DB and *sql.Tx so that lookups and
// scans work identically inside and outside a read transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const contributionColumns = `seq, id, fingerprint, fingerprint_digest, source_link, source_link_digest, duration_seconds, uploaded_at`

// InsertContribution appends a contribution to the ledger. The store
// assigns Seq and UploadedAt; a missing ID is filled with a UUIDv7.
//
// A uniqueness-constraint violation (same fingerprint or source link
// already accepted) is returned as a DuplicateError; use IsDuplicate to
// recover. The constraint is the race guard for concurrent submissions -
// there is no application-level pre-check to bypass it.
func (s *Store) InsertContribution(ctx context.Context, c *Contribution) error {
	if c.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("insert contribution: generate id: %w", err)
		}
		c.ID = id.String()
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO contributions
		(id, fingerprint, fingerprint_digest, source_link, source_link_digest, duration_seconds)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING seq, uploaded_at
	`,
		c.ID,
		c.FingerprintEncoded,
		c.FingerprintDigest,
		c.SourceLink,
		c.SourceLinkDigest,
		c.DurationSeconds,
	)

	var uploadedAt string
	if err := row.Scan(&c.Seq, &uploadedAt); err != nil {
		return wrapInsertError("contributions", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, uploadedAt); err == nil {
		c.UploadedAt = t
	}

	return nil
}

// LookupByDigest performs the indexed exact-match lookup outside a read
// session. Returns ErrNotFound for zero matches and IntegrityError if the
// uniqueness invariant on fingerprint_digest turns out to be violated.
func (s *Store) LookupByDigest(ctx context.Context, digest string) (*Contribution, error) {
	return lookupByDigest(ctx, s.db, digest)
}

// CountContributions returns the ledger size.
func (s *Store) CountContributions(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contributions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count contributions: %w", err)
	}
	return n, nil
}

// LookupByDigest is the snapshot-consistent variant used during a
// uniqueness check.
func (r *ReadTx) LookupByDigest(ctx context.Context, digest string) (*Contribution, error) {
	return lookupByDigest(ctx, r.tx, digest)
}

// Scan returns up to limit contributions with Seq greater than afterSeq,
// ordered by Seq ascending. Callers page through the ledger by passing the
// last row's Seq back in; each call materializes at most limit rows, which
// bounds working-set memory regardless of corpus size.
func (r *ReadTx) Scan(ctx context.Context, afterSeq int64, limit int) ([]Contribution, error) {
	if limit < 1 {
		return nil, fmt.Errorf("scan: limit must be >= 1, got %d", limit)
	}

	rows, err := r.tx.QueryContext(ctx, `
		SELECT `+contributionColumns+`
		FROM contributions
		WHERE seq > ?
		ORDER BY seq ASC
		LIMIT ?
	`, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("scan contributions: %w", err)
	}
	defer rows.Close()

	batch := make([]Contribution, 0, limit)
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		batch = append(batch, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contributions: %w", err)
	}

	return batch, nil
}

func lookupByDigest(ctx context.Context, q querier, digest string) (*Contribution, error) {
	// LIMIT 2 is deliberate: one row is the answer, a second row proves the
	// uniqueness invariant is broken and must surface as IntegrityError.
	rows, err := q.QueryContext(ctx, `
		SELECT `+contributionColumns+`
		FROM contributions
		WHERE fingerprint_digest = ?
		ORDER BY seq ASC
		LIMIT 2
	`, digest)
	if err != nil {
		return nil, fmt.Errorf("lookup by digest: %w", err)
	}
	defer rows.Close()

	var matches []Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate digest matches: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &matches[0], nil
	default:
		return nil, &IntegrityError{
			Table:  "contributions",
			Column: "fingerprint_digest",
			Value:  digest,
			Rows:   len(matches),
		}
	}
}

func scanContribution(rows *sql.Rows) (Contribution, error) {
	var c Contribution
	var uploadedAt string
	err := rows.Scan(
		&c.Seq,
		&c.ID,
		&c.FingerprintEncoded,
		&c.FingerprintDigest,
		&c.SourceLink,
		&c.SourceLinkDigest,
		&c.DurationSeconds,
		&uploadedAt,
	)
	if err != nil {
		return Contribution{}, fmt.Errorf("scan contribution row: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, uploadedAt); err == nil {
		c.UploadedAt = t
	}
	return c, nil
}

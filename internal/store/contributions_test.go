package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func testContribution(n int) *Contribution {
	return &Contribution{
		FingerprintEncoded: fmt.Sprintf(`\x%08x`, n),
		FingerprintDigest:  fmt.Sprintf("fp-digest-%04d", n),
		SourceLink:         fmt.Sprintf("https://example.org/audio-%d.ogg", n),
		SourceLinkDigest:   fmt.Sprintf("link-digest-%04d", n),
		DurationSeconds:    30.0,
	}
}

func TestInsertContribution_Basic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c := testContribution(1)
	if err := s.InsertContribution(ctx, c); err != nil {
		t.Fatalf("InsertContribution() failed: %v", err)
	}

	if c.ID == "" {
		t.Error("ID not assigned")
	}
	if c.Seq == 0 {
		t.Error("Seq not assigned")
	}
	if c.UploadedAt.IsZero() {
		t.Error("UploadedAt not assigned")
	}

	got, err := s.LookupByDigest(ctx, c.FingerprintDigest)
	if err != nil {
		t.Fatalf("LookupByDigest() failed: %v", err)
	}
	if got.ID != c.ID {
		t.Errorf("id = %q, want %q", got.ID, c.ID)
	}
	if got.FingerprintEncoded != c.FingerprintEncoded {
		t.Errorf("fingerprint = %q, want %q", got.FingerprintEncoded, c.FingerprintEncoded)
	}
	if got.DurationSeconds != 30.0 {
		t.Errorf("duration = %v, want 30.0", got.DurationSeconds)
	}
}

func TestLookupByDigest_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LookupByDigest(context.Background(), "no-such-digest")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestInsertContribution_DuplicateFingerprintDigest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InsertContribution(ctx, testContribution(1)); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	dup := testContribution(1)
	dup.SourceLink = "https://example.org/other.ogg"
	dup.SourceLinkDigest = "link-digest-other"

	err := s.InsertContribution(ctx, dup)
	if !IsDuplicate(err) {
		t.Fatalf("err = %v, want DuplicateError", err)
	}
}

func TestInsertContribution_DuplicateSourceLinkDigest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InsertContribution(ctx, testContribution(1)); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	dup := testContribution(2)
	dup.SourceLinkDigest = "link-digest-0001"

	err := s.InsertContribution(ctx, dup)
	if !IsDuplicate(err) {
		t.Fatalf("err = %v, want DuplicateError", err)
	}
}

func TestInsertContribution_ConcurrentRace(t *testing.T) {
	// Two concurrent inserts of the same digest: exactly one succeeds, the
	// loser observes a constraint violation. The UNIQUE index is the only
	// concurrency mechanism in play.
	s := openTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := testContribution(1)
			c.SourceLinkDigest = fmt.Sprintf("race-link-%d", i)
			errs[i] = s.InsertContribution(ctx, c)
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case IsDuplicate(err):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || dup != 1 {
		t.Fatalf("got %d successes and %d duplicates, want exactly 1 of each", ok, dup)
	}
}

func TestLookupByDigest_IntegrityViolation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InsertContribution(ctx, testContribution(1)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	// Simulate a corrupted store: drop the guard and force a second row
	// with the same digest.
	if _, err := s.DB().Exec(`DROP INDEX idx_contributions_fingerprint_digest`); err != nil {
		t.Fatalf("drop index: %v", err)
	}
	rogue := testContribution(1)
	rogue.SourceLinkDigest = "link-digest-rogue"
	if err := s.InsertContribution(ctx, rogue); err != nil {
		t.Fatalf("rogue insert failed: %v", err)
	}

	_, err := s.LookupByDigest(ctx, "fp-digest-0001")
	if !IsIntegrityError(err) {
		t.Fatalf("err = %v, want IntegrityError", err)
	}
}

func TestScan_BatchedAndOrdered(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	const total = 7
	for i := 0; i < total; i++ {
		if err := s.InsertContribution(ctx, testContribution(i)); err != nil {
			t.Fatalf("insert %d failed: %v", i, err)
		}
	}

	tx, err := s.BeginRead(ctx)
	if err != nil {
		t.Fatalf("BeginRead() failed: %v", err)
	}
	defer tx.Close()

	const batchSize = 3
	var all []Contribution
	var afterSeq int64
	for {
		batch, err := tx.Scan(ctx, afterSeq, batchSize)
		if err != nil {
			t.Fatalf("Scan() failed: %v", err)
		}
		if len(batch) > batchSize {
			t.Fatalf("batch has %d rows, want at most %d", len(batch), batchSize)
		}
		all = append(all, batch...)
		if len(batch) < batchSize {
			break
		}
		afterSeq = batch[len(batch)-1].Seq
	}

	if len(all) != total {
		t.Fatalf("scanned %d rows, want %d", len(all), total)
	}
	// Insertion order, ascending, no gaps in coverage.
	for i := 1; i < len(all); i++ {
		if all[i].Seq <= all[i-1].Seq {
			t.Fatalf("scan out of order at %d: seq %d after %d", i, all[i].Seq, all[i-1].Seq)
		}
	}
	for i, c := range all {
		if want := fmt.Sprintf("fp-digest-%04d", i); c.FingerprintDigest != want {
			t.Errorf("row %d digest = %q, want %q", i, c.FingerprintDigest, want)
		}
	}
}

func TestScan_InvalidLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tx, err := s.BeginRead(ctx)
	if err != nil {
		t.Fatalf("BeginRead() failed: %v", err)
	}
	defer tx.Close()

	if _, err := tx.Scan(ctx, 0, 0); err == nil {
		t.Fatal("Scan with limit 0 succeeded, want error")
	}
}

func TestScan_RestartablePerCall(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if err := s.InsertContribution(ctx, testContribution(i)); err != nil {
			t.Fatalf("insert %d failed: %v", i, err)
		}
	}

	tx, err := s.BeginRead(ctx)
	if err != nil {
		t.Fatalf("BeginRead() failed: %v", err)
	}
	defer tx.Close()

	first, err := tx.Scan(ctx, 0, 10)
	if err != nil {
		t.Fatalf("first Scan() failed: %v", err)
	}
	second, err := tx.Scan(ctx, 0, 10)
	if err != nil {
		t.Fatalf("second Scan() failed: %v", err)
	}
	if len(first) != 4 || len(second) != 4 {
		t.Fatalf("scans returned %d and %d rows, want 4 and 4", len(first), len(second))
	}
	for i := range first {
		if first[i].Seq != second[i].Seq {
			t.Fatalf("restarted scan diverged at row %d", i)
		}
	}
}

func TestCountContributions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.InsertContribution(ctx, testContribution(i)); err != nil {
			t.Fatalf("insert %d failed: %v", i, err)
		}
	}

	n, err := s.CountContributions(ctx)
	if err != nil {
		t.Fatalf("CountContributions() failed: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}

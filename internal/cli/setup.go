package cli

import (
	"fmt"

	"github.com/audata/audproof/internal/acoustic"
	"github.com/audata/audproof/internal/config"
	"github.com/audata/audproof/internal/engine"
	"github.com/audata/audproof/internal/proof"
	"github.com/audata/audproof/internal/scoring"
	"github.com/audata/audproof/internal/store"
)

// collaborators are the external services a proof run depends on. Unset
// fields fall back to the configured defaults; tests inject fakes here.
type collaborators struct {
	Extractor    engine.Extractor
	Scorer       engine.Scorer
	Authenticity proof.AuthenticityChecker
	Quality      proof.QualityScorer
}

// buildEngine wires the uniqueness engine over an open store.
func buildEngine(cfg config.Config, st *store.Store, c collaborators) (*engine.Engine, error) {
	extractor := c.Extractor
	if extractor == nil {
		extractor = &acoustic.FpcalcExtractor{Binary: cfg.FpcalcBinary}
	}
	scorer := c.Scorer
	if scorer == nil {
		scorer = acoustic.BitScorer{}
	}

	opts := []engine.Option{}
	if cfg.DigestCacheSize > 0 {
		cache, err := engine.NewDigestCache(cfg.DigestCacheSize)
		if err != nil {
			return nil, fmt.Errorf("build engine: %w", err)
		}
		opts = append(opts, engine.WithDigestCache(cache))
	}

	return engine.New(engine.NewStoreIndex(st), extractor, scorer, opts...), nil
}

// buildScoringCollaborators resolves the authenticity and quality
// collaborators: HTTP clients when service URLs are configured, static
// pass-through values otherwise.
func buildScoringCollaborators(cfg config.Config, c collaborators) (proof.AuthenticityChecker, proof.QualityScorer) {
	auth := c.Authenticity
	if auth == nil {
		if cfg.AuthenticityURL != "" {
			auth = scoring.NewAuthenticityClient(cfg.AuthenticityURL, 0)
		} else {
			auth = scoring.StaticAuthenticity(cfg.StaticAuthenticity)
		}
	}

	quality := c.Quality
	if quality == nil {
		if cfg.QualityURL != "" {
			quality = scoring.NewQualityClient(cfg.QualityURL, 0)
		} else {
			quality = scoring.StaticQuality(cfg.StaticQuality)
		}
	}

	return auth, quality
}

func policyFromConfig(cfg config.Config) proof.Policy {
	return proof.Policy{
		SimilarityThreshold:  cfg.SimilarityThreshold,
		ScanBatchSize:        cfg.ScanBatchSize,
		QualityThreshold:     cfg.QualityThreshold,
		BanAfterFailedChecks: cfg.BanAfterFailedChecks,
		DLPID:                cfg.DLPID,
	}
}

// Package testutil provides deterministic engine collaborators for tests.
//
// The real extractor shells out to Chromaprint and the real scorer depends
// on actual acoustic content; neither is reproducible in CI. These
// substitutes make a test's inputs fully scripted, so the same scenario
// produces byte-identical results on every run.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/audata/audproof/internal/engine"
)

// ScriptedExtractor maps file paths to fixed extractions.
//
// Unscripted paths are an *engine.ExtractionError, matching what the real
// extractor returns for an unreadable file.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type ScriptedExtractor struct {
	mu          sync.Mutex
	extractions map[string]engine.Extraction
}

// NewScriptedExtractor creates an extractor with no scripted files.
func NewScriptedExtractor() *ScriptedExtractor {
	return &ScriptedExtractor{extractions: make(map[string]engine.Extraction)}
}

// Script registers the extraction returned for path.
func (e *ScriptedExtractor) Script(path string, ext engine.Extraction) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.extractions[path] = ext
}

// Extract implements engine.Extractor.
func (e *ScriptedExtractor) Extract(ctx context.Context, path string) (engine.Extraction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ext, ok := e.extractions[path]
	if !ok {
		return engine.Extraction{}, &engine.ExtractionError{
			Path: path,
			Err:  fmt.Errorf("file not scripted"),
		}
	}
	return ext, nil
}

// Package acoustic provides the default fingerprint collaborators: a
// Chromaprint (fpcalc) based extractor and a bit-overlap similarity scorer.
//
// Both satisfy the engine's Extractor and Scorer interfaces. The engine
// treats them as opaque; tests substitute fakes.
package acoustic

package acoustic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/audata/audproof/internal/codec"
	"github.com/audata/audproof/internal/engine"
)

// DefaultFpcalcBinary is the Chromaprint fingerprinter looked up on PATH
// when no explicit binary is configured.
const DefaultFpcalcBinary = "fpcalc"

// FpcalcExtractor shells out to Chromaprint's fpcalc for the raw
// fingerprint and duration of an audio file.
type FpcalcExtractor struct {
	// Binary is the fpcalc executable; defaults to DefaultFpcalcBinary.
	Binary string
}

// fpcalcOutput mirrors `fpcalc -raw -json` output.
type fpcalcOutput struct {
	Duration    float64  `json:"duration"`
	Fingerprint []uint32 `json:"fingerprint"`
}

// Extract runs fpcalc on path. Any failure - missing file, unsupported
// format, fpcalc not installed, malformed output - is an ExtractionError:
// a terminal condition for the run, never retried here.
func (x *FpcalcExtractor) Extract(ctx context.Context, path string) (engine.Extraction, error) {
	if _, err := os.Stat(path); err != nil {
		return engine.Extraction{}, &engine.ExtractionError{Path: path, Err: err}
	}

	bin := x.Binary
	if bin == "" {
		bin = DefaultFpcalcBinary
	}

	cmd := exec.CommandContext(ctx, bin, "-raw", "-json", path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return engine.Extraction{}, &engine.ExtractionError{Path: path, Err: err}
	}

	var parsed fpcalcOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return engine.Extraction{}, &engine.ExtractionError{
			Path: path, Err: fmt.Errorf("malformed fpcalc output: %w", err),
		}
	}
	if len(parsed.Fingerprint) == 0 {
		return engine.Extraction{}, &engine.ExtractionError{
			Path: path, Err: fmt.Errorf("fpcalc produced an empty fingerprint"),
		}
	}
	if parsed.Duration <= 0 {
		return engine.Extraction{}, &engine.ExtractionError{
			Path: path, Err: fmt.Errorf("fpcalc reported non-positive duration %v", parsed.Duration),
		}
	}

	fp := make(codec.Fingerprint, len(parsed.Fingerprint))
	for i, v := range parsed.Fingerprint {
		fp[i] = int32(v)
	}

	return engine.Extraction{Duration: parsed.Duration, Fingerprint: fp}, nil
}

package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/audata/audproof/internal/engine"
)

// contentExtractor derives a fingerprint from the file's bytes, so files
// with identical content collide and distinct content stays distinct. It
// stands in for the Chromaprint binary, which tests cannot depend on.
type contentExtractor struct{}

func (contentExtractor) Extract(ctx context.Context, path string) (engine.Extraction, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return engine.Extraction{}, &engine.ExtractionError{Path: path, Err: err}
	}
	fp := make([]int32, 0, len(raw)+1)
	fp = append(fp, int32(len(raw)))
	for _, b := range raw {
		fp = append(fp, int32(b))
	}
	return engine.Extraction{Duration: 30.5, Fingerprint: fp}, nil
}

func writeAudioFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

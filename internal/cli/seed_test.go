package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audata/audproof/internal/testutil"
)

func newTestSeedCommand(buf *bytes.Buffer) *cobra.Command {
	opts := &SeedOptions{
		RootOptions: &RootOptions{Format: "text"},
		collaborators: collaborators{
			Extractor: contentExtractor{},
			Scorer:    testutil.FixedScorer{Score: 0},
		},
	}
	cmd := newSeedCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	return cmd
}

func TestSeedRegistersDistinctRecordings(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	dir := t.TempDir()
	writeAudioFile(t, dir, "a.ogg", "recording a")
	writeAudioFile(t, dir, "b.ogg", "recording b")
	writeAudioFile(t, dir, "c.wav", "recording c")

	buf := &bytes.Buffer{}
	cmd := newTestSeedCommand(buf)
	cmd.SetArgs([]string{"--db", dbPath, dir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "registered 3 contributions")
}

func TestSeedSkipsDuplicatesOnRerun(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	dir := t.TempDir()
	writeAudioFile(t, dir, "a.ogg", "recording a")
	writeAudioFile(t, dir, "b.ogg", "recording b")

	first := &bytes.Buffer{}
	cmd := newTestSeedCommand(first)
	cmd.SetArgs([]string{"--db", dbPath, dir})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, first.String(), "registered 2 contributions")

	second := &bytes.Buffer{}
	cmd = newTestSeedCommand(second)
	cmd.SetArgs([]string{"--db", dbPath, dir})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, second.String(), "registered 0 contributions (2 duplicates skipped)")
}

func TestSeedCountLimit(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	dir := t.TempDir()
	writeAudioFile(t, dir, "a.ogg", "recording a")
	writeAudioFile(t, dir, "b.ogg", "recording b")
	writeAudioFile(t, dir, "c.ogg", "recording c")

	buf := &bytes.Buffer{}
	cmd := newTestSeedCommand(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--count", "2", dir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "registered 2 contributions")
}

func TestSeedEmptyDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	buf := &bytes.Buffer{}
	cmd := newTestSeedCommand(buf)
	cmd.SetArgs([]string{"--db", dbPath, t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

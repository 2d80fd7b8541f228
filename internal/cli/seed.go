package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/audata/audproof/internal/config"
	"github.com/audata/audproof/internal/engine"
	"github.com/audata/audproof/internal/inputs"
	"github.com/audata/audproof/internal/store"
)

// SeedOptions holds the flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Database   string
	ConfigPath string
	Count      int

	collaborators
}

// NewSeedCommand creates the seed command: bulk-register the recordings in
// a directory so a fresh ledger has a corpus to scan against.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return newSeedCommand(&SeedOptions{RootOptions: rootOpts})
}

func newSeedCommand(opts *SeedOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <audio-dir>",
		Short: "Register a directory of recordings into the ledger",
		Long: "Extracts a fingerprint from every audio file in the directory\n" +
			"and registers each unique one as a contribution with a synthetic\n" +
			"source link. Duplicates are skipped, not errors.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the contribution database (overrides config)")
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to the YAML configuration file")
	cmd.Flags().IntVar(&opts.Count, "count", 0, "maximum number of files to register (0 = all)")

	return cmd
}

func runSeed(cmd *cobra.Command, opts *SeedOptions, dir string) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "load configuration", err)
	}
	if opts.Database != "" {
		cfg.DatabasePath = opts.Database
	}

	files, err := inputs.CollectAudio(dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "collect audio files", err)
	}
	if opts.Count > 0 && len(files) > opts.Count {
		files = files[:opts.Count]
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer st.Close()

	eng, err := buildEngine(cfg, st, opts.collaborators)
	if err != nil {
		return WrapExitError(ExitCommandError, "build engine", err)
	}

	ctx := cmd.Context()
	var registered, skipped int
	for i, path := range files {
		res, err := eng.Submit(ctx, path, fmt.Sprintf("seed://%d/%s", i, filepath.Base(path)),
			cfg.SimilarityThreshold, cfg.ScanBatchSize)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("seed %s", path), err)
		}
		if res.Outcome == engine.OutcomeUnique {
			registered++
		} else {
			skipped++
			slog.Debug("skipping duplicate", "file", path, "outcome", res.Outcome)
		}
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return formatter.Success(map[string]int{"registered": registered, "skipped": skipped})
	}
	return formatter.Success(fmt.Sprintf("registered %d contributions (%d duplicates skipped)", registered, skipped))
}

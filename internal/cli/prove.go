package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/audata/audproof/internal/config"
	"github.com/audata/audproof/internal/inputs"
	"github.com/audata/audproof/internal/proof"
	"github.com/audata/audproof/internal/store"
)

// ProveOptions holds the flags for the prove command.
type ProveOptions struct {
	*RootOptions
	Database   string
	ConfigPath string
	Identity   string
	SourceLink string
	Timeout    time.Duration

	collaborators
}

// NewProveCommand creates the prove command: run the full proof-of-
// contribution pipeline for one recording and emit the verdict.
func NewProveCommand(rootOpts *RootOptions) *cobra.Command {
	return newProveCommand(&ProveOptions{RootOptions: rootOpts})
}

// newProveCommand builds the command around explicit options; tests use it
// to inject fake collaborators.
func newProveCommand(opts *ProveOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prove <audio-file-or-input-dir>",
		Short: "Generate a proof of contribution for a recording",
		Long: "Runs the four contribution checks (ownership, uniqueness,\n" +
			"authenticity, quality) for the given recording and prints the\n" +
			"composed verdict. A directory argument is treated as a submission\n" +
			"inbox: archives are expanded and the first audio file is proved.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProve(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the contribution database (overrides config)")
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to the YAML configuration file")
	cmd.Flags().StringVar(&opts.Identity, "identity", "", "contributor identity (wallet or account id)")
	cmd.Flags().StringVar(&opts.SourceLink, "source-link", "", "origin pointer for the recording (defaults to the file path)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "overall deadline for the proof run (0 = none)")
	_ = cmd.MarkFlagRequired("identity")

	return cmd
}

func runProve(cmd *cobra.Command, opts *ProveOptions, input string) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "load configuration", err)
	}
	if opts.Database != "" {
		cfg.DatabasePath = opts.Database
	}

	path, err := resolveInput(input)
	if err != nil {
		return WrapExitError(ExitCommandError, "resolve input", err)
	}

	sourceLink := opts.SourceLink
	if sourceLink == "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "resolve input", err)
		}
		sourceLink = "file://" + abs
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
	auth, quality := buildScoringCollaborators(cfg, opts.collaborators)
	orch := proof.NewOrchestrator(st, eng, auth, quality, policyFromConfig(cfg))

	ctx := cmd.Context()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	verdict, err := orch.Generate(ctx, proof.Submission{
		Path:       path,
		Identity:   opts.Identity,
		SourceLink: sourceLink,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "proof run failed", err)
	}

	if cfg.OutputDir != "" {
		if err := writeResults(cfg.OutputDir, verdict); err != nil {
			return WrapExitError(ExitCommandError, "write results", err)
		}
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return formatter.Success(verdict)
	}
	return formatter.Success(verdictSummary(verdict))
}

// resolveInput turns the command argument into a single recording path.
// A directory is treated as a submission inbox: archives are expanded in
// place and the first audio file in name order is selected.
func resolveInput(input string) (string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return input, nil
	}

	if err := inputs.Unzip(input); err != nil {
		return "", err
	}
	files, err := inputs.CollectAudio(input)
	if err != nil {
		return "", err
	}
	if len(files) > 1 {
		slog.Warn("multiple audio files in inbox, proving the first",
			"count", len(files), "selected", files[0])
	}
	return files[0], nil
}

// writeResults drops the verdict as results.json in the output directory.
func writeResults(dir string, v *proof.Verdict) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "results.json"), raw, 0o644)
}

func verdictSummary(v *proof.Verdict) string {
	status := "INVALID"
	if v.OverallValid {
		status = "VALID"
	}
	return fmt.Sprintf("proof %s: ownership=%d uniqueness=%d authenticity=%d quality=%.2f",
		status, v.Ownership, v.Uniqueness, v.Authenticity, v.Quality)
}

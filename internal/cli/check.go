package cli

import (
	"github.com/spf13/cobra"

	"github.com/audata/audproof/internal/config"
	"github.com/audata/audproof/internal/engine"
	"github.com/audata/audproof/internal/store"
)

// CheckOptions holds the flags for the check command.
type CheckOptions struct {
	*RootOptions
	Database   string
	ConfigPath string
	Threshold  float64
	BatchSize  int

	collaborators
}

// NewCheckCommand creates the check command: classify a recording against
// the contribution ledger without registering it.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return newCheckCommand(&CheckOptions{RootOptions: rootOpts})
}

func newCheckCommand(opts *CheckOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <audio-file>",
		Short: "Check a recording for uniqueness without registering it",
		Long: "Classifies the recording against the contribution ledger:\n" +
			"unique, exact_duplicate or similar_duplicate. The ledger is not\n" +
			"modified. Exits 0 when unique, 1 when a duplicate is found.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the contribution database (overrides config)")
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to the YAML configuration file")
	cmd.Flags().Float64Var(&opts.Threshold, "threshold", -1, "similarity threshold in [0,1] (overrides config)")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 0, "scan batch size (overrides config)")

	return cmd
}

func runCheck(cmd *cobra.Command, opts *CheckOptions, path string) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "load configuration", err)
	}
	if opts.Database != "" {
		cfg.DatabasePath = opts.Database
	}
	if opts.Threshold >= 0 {
		cfg.SimilarityThreshold = opts.Threshold
	}
	if opts.BatchSize > 0 {
		cfg.ScanBatchSize = opts.BatchSize
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

	outcome, err := eng.CheckUniqueness(cmd.Context(), path,
		cfg.SimilarityThreshold, cfg.ScanBatchSize)
	if err != nil {
		return WrapExitError(ExitCommandError, "uniqueness check failed", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	var result any = outcome.String()
	if opts.Format == "json" {
		result = map[string]string{"outcome": outcome.String()}
	}
	if err := formatter.Success(result); err != nil {
		return err
	}

	if outcome != engine.OutcomeUnique {
		return &ExitError{Code: ExitFailure, Message: "content is not unique"}
	}
	return nil
}

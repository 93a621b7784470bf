package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Wysakm/weather-app-backend-sub001/internal/cli/prompt"
	"github.com/Wysakm/weather-app-backend-sub001/internal/logger"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/config"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/imagesync"
)

// runFlags are shared by the run commands. Each command binds its own copy.
type runFlags struct {
	noDryRun bool
	yes      bool
	cleanup  bool
}

var (
	analyzeFlags   runFlags
	repairFlags    runFlags
	cleanupFlags   runFlags
	reconcileFlags runFlags
)

var analyzeCmd = &cobra.Command{
	Use:     "analyze",
	Aliases: []string{"check", "debug"},
	Short:   "Report broken references and orphan objects",
	Long: `Compare the image references in the database with the objects in the
bucket and print a summary of every discrepancy. Nothing is changed.

With --cleanup, orphan objects are reclaimed as by "imgsync cleanup".

Examples:
  # Print a summary table
  imgsync analyze

  # Machine-readable output
  imgsync check -o json

  # Delete orphans
  imgsync analyze --cleanup --no-dry-run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if analyzeFlags.cleanup {
			return runMode(cmd, imagesync.ModeCleanup, analyzeFlags)
		}
		if analyzeFlags.noDryRun {
			logger.Warn("--no-dry-run has no effect without --cleanup")
		}
		return runMode(cmd, imagesync.ModeAnalyze, analyzeFlags)
	},
}

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Repair broken image references",
	Long: `Point every broken image reference at the uploaded object whose name
matches, or clear the reference when no object matches.

Runs as a dry run unless --no-dry-run is given.

Examples:
  # Show what would change
  imgsync repair

  # Apply without prompting
  imgsync repair --no-dry-run --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode(cmd, imagesync.ModeRepair, repairFlags)
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete objects no post refers to",
	Long: `Delete every object under the storage prefix that no image reference
points at.

Runs as a dry run unless --no-dry-run is given.

Examples:
  # List orphans
  imgsync cleanup

  # Delete them
  imgsync cleanup --no-dry-run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode(cmd, imagesync.ModeCleanup, cleanupFlags)
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Repair broken references, then delete orphans",
	Long: `Run repair and cleanup against one snapshot. Objects adopted by a repair
are not deleted.

Runs as a dry run unless --no-dry-run is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode(cmd, imagesync.ModeReconcile, reconcileFlags)
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeFlags.cleanup, "cleanup", false, "Reclaim orphan objects")
	for cmd, flags := range map[*cobra.Command]*runFlags{
		analyzeCmd:   &analyzeFlags,
		repairCmd:    &repairFlags,
		cleanupCmd:   &cleanupFlags,
		reconcileCmd: &reconcileFlags,
	} {
		cmd.Flags().BoolVar(&flags.noDryRun, "no-dry-run", false, "Apply changes instead of reporting them")
		cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "Skip the confirmation prompt")
	}
}

// runMode executes one run and prints its report. Only configuration and
// listing failures are returned; per-item failures are part of the report.
func runMode(cmd *cobra.Command, mode imagesync.Mode, flags runFlags) error {
	printer, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger.Debug("Configuration loaded", "source", getConfigSource(GetConfigFile()))

	dryRun := mode == imagesync.ModeAnalyze || !flags.noDryRun

	// Ctrl+C cancels the run; the partial report is still printed.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := initTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownTelemetry()

	engine, stores, err := newEngine(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer closeStores(stores)

	if !dryRun {
		ok, err := confirmExecute(ctx, cfg, engine, mode, flags.yes)
		if err != nil {
			return err
		}
		if !ok {
			printer.Warning("Aborted. Nothing was changed.")
			return nil
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, cfg.Reconcile.Timeout)
	defer cancel()

	report, err := engine.Run(runCtx, mode, dryRun)
	if err != nil {
		return runError(err)
	}
	return printer.PrintReport(report)
}

// confirmExecute previews the run and asks before mutating anything.
func confirmExecute(ctx context.Context, cfg *config.Config, engine *imagesync.Engine, mode imagesync.Mode, yes bool) (bool, error) {
	if yes {
		return true, nil
	}

	previewCtx, cancel := context.WithTimeout(ctx, cfg.Reconcile.Timeout)
	defer cancel()

	preview, err := engine.Analyze(previewCtx)
	if err != nil {
		return false, runError(err)
	}

	label := executeLabel(mode, preview, cfg)
	if label == "" {
		return true, nil
	}

	ok, err := prompt.ConfirmWithForce(label, false)
	if errors.Is(err, prompt.ErrAborted) {
		return false, nil
	}
	return ok, err
}

// executeLabel describes what an executing run will touch, or "" when it
// will touch nothing.
func executeLabel(mode imagesync.Mode, preview *imagesync.Report, cfg *config.Config) string {
	repairs := preview.BrokenCount
	deletions := preview.OrphanCount

	switch mode {
	case imagesync.ModeRepair:
		deletions = 0
	case imagesync.ModeCleanup:
		repairs = 0
	}

	switch {
	case repairs == 0 && deletions == 0:
		return ""
	case deletions == 0:
		return fmt.Sprintf("Rewrite up to %d image references in %q", repairs, cfg.Database.Table)
	case repairs == 0:
		return fmt.Sprintf("Delete up to %d objects from bucket %q", deletions, cfg.Storage.Bucket)
	default:
		return fmt.Sprintf("Rewrite up to %d image references in %q and delete up to %d objects from bucket %q",
			repairs, cfg.Database.Table, deletions, cfg.Storage.Bucket)
	}
}

// runError makes listing failures readable on the command line.
func runError(err error) error {
	var collab *imagesync.CollaboratorError
	if errors.As(err, &collab) {
		return fmt.Errorf("cannot read %s, no changes were made: %w", collab.Source, collab.Err)
	}
	return err
}

package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Wysakm/weather-app-backend-sub001/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the imgsync configuration.

Checks for syntax errors, missing required fields, and invalid values. The
environment and .env overrides are applied first, as they are at run time.

Examples:
  # Validate default config
  imgsync config validate

  # Validate specific config file
  imgsync config validate --config /etc/imgsync/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if warnings := configWarnings(cfg); len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Database:      %s (table %s)\n", cfg.Database.Type, cfg.Database.Table)
	_, _ = fmt.Fprintf(out, "  Storage:       %s (%s/%s)\n", cfg.Storage.Type, cfg.Storage.Bucket, cfg.Storage.Prefix)
	_, _ = fmt.Fprintf(out, "  Locator host:  %s\n", cfg.Storage.Host)
	_, _ = fmt.Fprintf(out, "  Log level:     %s\n", cfg.Logging.Level)
	return nil
}

// configWarnings lists settings that are valid but probably unintended.
func configWarnings(cfg *config.Config) []string {
	var warnings []string
	if cfg.Storage.Type == config.StorageMemory {
		warnings = append(warnings, "storage.type is memory: the bucket starts empty on every run")
	}
	if cfg.Database.AutoMigrate {
		warnings = append(warnings, "database.auto_migrate is enabled; use it for development only")
	}
	if cfg.Reconcile.MaxDeletions == 0 {
		warnings = append(warnings, "reconcile.max_deletions is 0 (unlimited)")
	}
	return warnings
}

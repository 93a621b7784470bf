package config

import (
	"github.com/spf13/cobra"

	"github.com/Wysakm/weather-app-backend-sub001/internal/cli/output"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/config"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Display the configuration after file, environment and defaults have been
merged. Secrets are masked.

Outputs YAML unless --output json is given.

Examples:
  # Show default config as YAML
  imgsync config show

  # Show as JSON
  imgsync config show -o json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}
	redact(cfg)

	outputFlag, _ := cmd.Flags().GetString("output")
	format, err := output.ParseFormat(outputFlag)
	if err != nil {
		return err
	}

	if format == output.FormatJSON {
		return output.PrintJSON(cmd.OutOrStdout(), cfg)
	}
	return output.PrintYAML(cmd.OutOrStdout(), cfg)
}

const masked = "********"

// redact masks credentials in place.
func redact(cfg *config.Config) {
	for _, s := range []*string{
		&cfg.Database.Postgres.Password,
		&cfg.Database.MySQL.Password,
		&cfg.Storage.S3.SecretAccessKey,
	} {
		if *s != "" {
			*s = masked
		}
	}
	if cfg.Database.URL != "" {
		cfg.Database.URL = redactURL(cfg.Database.URL)
	}
}

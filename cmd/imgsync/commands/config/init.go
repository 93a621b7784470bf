package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Wysakm/weather-app-backend-sub001/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a default imgsync configuration file.

By default the file is created at $XDG_CONFIG_HOME/imgsync/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  imgsync config init

  # Initialize with custom path
  imgsync config init --config /etc/imgsync/config.yaml

  # Overwrite an existing file
  imgsync config init --force`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	var err error
	if configPath != "" {
		err = config.InitConfigToPath(configPath, initForce)
	} else {
		configPath, err = config.InitConfig(initForce)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Set storage.bucket and the database connection")
	_, _ = fmt.Fprintln(out, "  2. Check connectivity with: imgsync doctor")
	_, _ = fmt.Fprintln(out, "  3. Review discrepancies with: imgsync analyze")
	return nil
}

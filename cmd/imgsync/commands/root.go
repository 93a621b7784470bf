// Package commands implements the imgsync command line.
package commands

import (
	"github.com/spf13/cobra"

	configcmd "github.com/Wysakm/weather-app-backend-sub001/cmd/imgsync/commands/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "imgsync",
	Short: "Keep post images and the storage bucket consistent",
	Long: `imgsync reconciles the image URLs stored in the posts table with the
objects in the upload bucket.

It reports broken references (URLs pointing at missing objects) and orphan
objects (uploads no post refers to), repairs broken references by matching
file names, and deletes orphans. Every mutating command is a dry run unless
--no-dry-run is given.

Use "imgsync [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/imgsync/config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level (DEBUG|INFO|WARN|ERROR)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configcmd.Cmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)

	// Hide the default completion command (we provide our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}

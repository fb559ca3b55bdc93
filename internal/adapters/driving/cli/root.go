// Package cli wires the cobra command tree for the openinbox binary.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/open-inbox/openinbox-cli/internal/config"
	"github.com/open-inbox/openinbox-cli/internal/logger"
)

var version = "dev"

var (
	cfgPath     string
	verboseFlag bool

	// cfg is populated before any subcommand runs.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "openinbox",
	Short: "Turn document sets into a browsable email archive",
	Long: `openinbox ingests loosely structured documents from DocumentCloud,
extracts email-style metadata, and indexes the results into a chunked
collection that a static mailbox viewer can browse.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logger.SetVerbose(verboseFlag)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "openinbox.toml", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string shown by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

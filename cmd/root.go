package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "spt-mod-manager",
	Short: "Manage SPT mods installed from GitHub releases",
	Long: `spt-mod-manager keeps a profile of mods hosted on GitHub, resolves
the latest release compatible with your SPT version, and installs the
downloaded archives into the game directory.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package cli

import (
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "pubpulse",
	Short:   "Measure CMS publish latency with synthetic content operations",
	Version: version,
	Long: `Pubpulse probes a content management system's publish pipeline. It
creates, updates and deletes content nodes through the authoring API,
polls the public delivery surface until each mutation shows up, and
reports how long the pipeline took end to end.`,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print help
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	// Add subcommands to root command
	RootCmd.AddCommand(runCmd)
}

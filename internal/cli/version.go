package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information - typically set via ldflags at build time
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of coffee-symbols",
	Run: func(cmd *cobra.Command, args []string) {
		w := out(cmd)
		fmt.Fprintf(w, "coffee-symbols %s\n", Version)
		fmt.Fprintf(w, "Git commit: %s\n", GitCommit)
		fmt.Fprintf(w, "Build date: %s\n", BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

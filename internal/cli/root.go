package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "coffee-symbols",
	Short: "Symbol index for CoffeeScript projects",
	Long: `coffee-symbols extracts declarations from CoffeeScript sources, keeps them
in a searchable index and serves them to editors over the Language Server
Protocol.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !verbose {
			log.SetFlags(0)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .coffee-symbols/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// debugf logs only with --verbose.
func debugf(format string, args ...interface{}) {
	if verbose {
		log.Printf(format, args...)
	}
}

// out returns the command's stdout, which tests can redirect.
func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}

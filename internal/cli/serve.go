package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/coffee-symbols/internal/lsp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the language server on stdin/stdout",
	Long: `Serve speaks the Language Server Protocol on stdin and stdout. Logs go to
stderr. Besides document and workspace symbols it accepts the custom
requests custom/indexFiles and custom/removeFiles with {"files": [...]}.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment("", false)
		if err != nil {
			return err
		}
		defer env.Close()

		server, err := lsp.NewServer(env.service, lsp.Options{
			Name:           "coffee-symbols",
			Version:        Version,
			CacheSize:      env.cfg.LSP.CacheSize,
			CodePatterns:   env.cfg.Paths.Code,
			IgnorePatterns: env.cfg.Paths.Ignore,
		})
		if err != nil {
			return fmt.Errorf("failed to start language server: %w", err)
		}
		defer server.Close()

		ctx, cancel := signalContext()
		defer cancel()
		err = server.Serve(ctx, lsp.Stdio(os.Stdin, os.Stdout))
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/coffee-symbols/internal/storage"
	"github.com/mvp-joe/coffee-symbols/internal/watcher"
)

var (
	quietFlag bool
	watchFlag bool
	forceFlag bool
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the CoffeeScript sources of the current project",
	Long: `Index discovers CoffeeScript files under the current directory, extracts
their symbols and stores them in .coffee-symbols/symbols.db. Files whose
content is unchanged since the last run are skipped, and files that no longer
exist are dropped from the index.

Examples:
  # Index the current directory
  coffee-symbols index

  # Re-index every file, ignoring content hashes
  coffee-symbols index --force

  # Keep the index current while files change
  coffee-symbols index --watch
`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
	indexCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch for file changes and reindex incrementally")
	indexCmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Re-index files even when their content is unchanged")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	env, err := openEnvironment("", forceFlag)
	if err != nil {
		return err
	}
	defer env.Close()

	if env.cfg.Storage.Backend == storage.BackendMemory && !watchFlag {
		log.Println("Warning: the memory backend keeps nothing after this run")
	}

	if err := indexProject(ctx, env, out(cmd), quietFlag); err != nil {
		return err
	}

	if !watchFlag {
		return nil
	}
	if !quietFlag {
		log.Println("Starting watch mode...")
	}
	if err := watchProject(ctx, env); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch mode failed: %w", err)
	}
	if !quietFlag {
		log.Println("Watch mode stopped")
	}
	return nil
}

// indexProject syncs the store with the files discovered under the project
// root and reports per-file failures.
func indexProject(ctx context.Context, env *environment, w io.Writer, quiet bool) error {
	fd, err := env.cfg.ToFileDiscovery(env.rootDir)
	if err != nil {
		return fmt.Errorf("invalid path patterns: %w", err)
	}

	progress := NewCLIProgressReporter(w, quiet)
	env.service.SetProgressReporter(progress)
	defer env.service.SetProgressReporter(nil)

	result, err := env.service.SyncWorkspace(ctx, fd)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("indexing cancelled")
	}

	for _, f := range result.Failures {
		log.Printf("Warning: %v", f)
	}
	if result.Removed > 0 && !quiet {
		fmt.Fprintf(w, "  Removed:   %s\n", formatNumber(result.Removed))
	}
	if quiet {
		fmt.Fprintf(w, "Indexing complete: %d indexed, %d unchanged, %d removed, %d failed in %.2fs\n",
			result.Indexed, result.Unchanged, result.Removed, len(result.Failures), result.Duration.Seconds())
	}
	return nil
}

// watchProject routes file changes into the service until ctx ends.
func watchProject(ctx context.Context, env *environment) error {
	fd, err := env.cfg.ToFileDiscovery(env.rootDir)
	if err != nil {
		return fmt.Errorf("invalid path patterns: %w", err)
	}

	fw, err := watcher.NewFileWatcher(env.rootDir, watcher.Options{
		Debounce: env.cfg.Debounce(),
		Match:    fd.MatchesPath,
		SkipDir:  fd.IgnoresDir,
	})
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	return watcher.NewRouter(fw, env.service).Run(ctx)
}

// signalContext is cancelled on Ctrl+C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

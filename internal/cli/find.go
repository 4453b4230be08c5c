package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/coffee-symbols/internal/storage"
)

var (
	findLimit int
	findJSON  bool
)

var findCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Search indexed symbols by name",
	Long: `Find lists indexed symbols whose name contains the query, ignoring case.
Run "coffee-symbols index" first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment("", false)
		if err != nil {
			return err
		}
		defer env.Close()

		ctx, cancel := signalContext()
		defer cancel()
		return findSymbols(ctx, env, args[0], findLimit, findJSON, out(cmd))
	},
}

func init() {
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().IntVarP(&findLimit, "limit", "n", 0, "Maximum number of results (0 for all)")
	findCmd.Flags().BoolVar(&findJSON, "json", false, "Print results as JSON")
}

func findSymbols(ctx context.Context, env *environment, query string, limit int, asJSON bool, w io.Writer) error {
	records, err := env.service.FindN(ctx, query, limit)
	if err != nil {
		return fmt.Errorf("failed to find symbols: %w", err)
	}
	if asJSON {
		return writeJSON(w, records)
	}
	return writeRecords(w, records)
}

func writeRecords(w io.Writer, records []storage.SymbolRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Symbol.Kind, r.Symbol.Name, r.Symbol.ContainerName, r.Location)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

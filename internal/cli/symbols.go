package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/coffee-symbols/internal/symbols"
)

var (
	symbolsExported bool
	symbolsTree     bool
	symbolsJSON     bool
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols <file>",
	Short: "Print the symbols of one CoffeeScript file",
	Long: `Symbols parses a single file and prints its declarations, including
locals inside function bodies. The index is not touched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		cfg, err := loadConfig(wd)
		if err != nil {
			return err
		}
		opts := cfg.ToIndexerOptions().Symbols
		opts.IncludeClosures = true
		return printSymbols(symbols.NewParser(opts), args[0], symbolsView{
			exported: symbolsExported,
			tree:     symbolsTree,
			json:     symbolsJSON,
		}, out(cmd))
	},
}

func init() {
	rootCmd.AddCommand(symbolsCmd)
	symbolsCmd.Flags().BoolVar(&symbolsExported, "exported", false, "Only print the module's export surface")
	symbolsCmd.Flags().BoolVar(&symbolsTree, "tree", false, "Print symbols nested under their containers")
	symbolsCmd.Flags().BoolVar(&symbolsJSON, "json", false, "Print symbols as JSON")
}

// symbolsView selects what printSymbols prints.
type symbolsView struct {
	exported bool
	tree     bool
	json     bool
}

func printSymbols(parser *symbols.Parser, path string, view symbolsView, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	syms, err := parser.Symbols(string(data), view.exported)
	if err != nil {
		return err
	}

	if view.tree {
		tree, err := symbols.BuildOutline(syms)
		if err != nil {
			return err
		}
		if view.json {
			return writeJSON(w, tree)
		}
		writeOutline(w, tree, 0)
		return nil
	}

	if view.json {
		return writeJSON(w, syms)
	}
	for _, s := range syms {
		fmt.Fprintf(w, "%d:%d\t%s\t%s\n", s.Range.Start.Line+1, s.Range.Start.Character+1, s.Kind, s.QualifiedName())
	}
	return nil
}

func writeOutline(w io.Writer, nodes []*symbols.OutlineNode, depth int) {
	for _, n := range nodes {
		fmt.Fprintf(w, "%s%s (%s)\n", strings.Repeat("  ", depth), n.Symbol.Name, n.Symbol.Kind)
		writeOutline(w, n.Children, depth+1)
	}
}

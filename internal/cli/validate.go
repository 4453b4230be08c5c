package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/coffee-symbols/internal/symbols"
)

// errInvalidSource makes validate exit non-zero.
var errInvalidSource = errors.New("syntax errors found")

var validateCmd = &cobra.Command{
	Use:   "validate <files...>",
	Short: "Report CoffeeScript syntax errors",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateFiles(symbols.NewParser(symbols.DefaultOptions()), args, out(cmd))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// validateFiles prints one line per diagnostic in file:line:col form.
func validateFiles(parser *symbols.Parser, paths []string, w io.Writer) error {
	failed := false
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		for _, d := range parser.Validate(string(data)) {
			failed = true
			fmt.Fprintf(w, "%s:%d:%d: %s\n", path, d.Range.Start.Line+1, d.Range.Start.Character+1, d.Message)
		}
	}
	if failed {
		return errInvalidSource
	}
	return nil
}

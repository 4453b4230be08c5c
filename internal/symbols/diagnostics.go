package symbols

import (
	"errors"
	"fmt"

	"github.com/mvp-joe/coffee-symbols/internal/coffee"
)

// DiagnosticSource tags every diagnostic produced by this package.
const DiagnosticSource = "coffee"

// Severity follows the LSP DiagnosticSeverity values.
type Severity int

const (
	SeverityError       Severity = 1
	SeverityWarning     Severity = 2
	SeverityInformation Severity = 3
	SeverityHint        Severity = 4
)

// Diagnostic is a problem report for a source range.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Range    Range    `json:"range"`
	Message  string   `json:"message"`
	Source   string   `json:"source"`
}

// diagnosticFromError converts a parse failure into a Diagnostic. Errors
// without a location are reported at the start of the file.
func diagnosticFromError(err error) Diagnostic {
	var syntaxErr *coffee.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return Diagnostic{
			Severity: SeverityError,
			Range:    NewRange(0, 0, 0, 0),
			Message:  fmt.Sprintf("1:1 %s", err.Error()),
			Source:   DiagnosticSource,
		}
	}

	loc := syntaxErr.Location
	r := NewRange(loc.StartLine, loc.StartColumn, loc.EndLine, loc.EndColumn)
	return Diagnostic{
		Severity: SeverityError,
		Range:    r,
		Message:  fmt.Sprintf("%d:%d %s", r.Start.Line+1, r.Start.Character+1, syntaxErr.Message),
		Source:   DiagnosticSource,
	}
}

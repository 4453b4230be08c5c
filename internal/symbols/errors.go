package symbols

import "fmt"

// ExtractionError reports a panic raised while walking a syntax tree.
type ExtractionError struct {
	Cause any
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("symbol extraction panicked: %v", e.Cause)
}

package coffee

import "fmt"

// SyntaxError is returned by Parse when the source cannot be parsed.
// Location.EndLine is -1 when the error has no known end, which is the case
// for errors at the end of input.
type SyntaxError struct {
	Message  string
	Location Location
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d %s", e.Location.StartLine+1, e.Location.StartColumn+1, e.Message)
}

// bailout carries a *SyntaxError through panics inside the lexer and parser.
type bailout struct {
	err *SyntaxError
}

func errorAt(loc Location, format string, args ...any) *SyntaxError {
	return &SyntaxError{Message: fmt.Sprintf(format, args...), Location: loc}
}

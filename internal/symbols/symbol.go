// Package symbols derives named, kinded and located symbols from CoffeeScript
// syntax trees.
package symbols

import (
	"fmt"
	"strings"

	"github.com/mvp-joe/coffee-symbols/internal/coffee"
)

// Kind is the inferred kind of a symbol. Values match the LSP SymbolKind
// enumeration so they can be sent to editors unchanged.
type Kind int

const (
	KindNamespace   Kind = 3
	KindPackage     Kind = 4
	KindClass       Kind = 5
	KindMethod      Kind = 6
	KindProperty    Kind = 7
	KindConstructor Kind = 9
	KindFunction    Kind = 12
	KindVariable    Kind = 13
)

var kindNames = map[Kind]string{
	KindNamespace:   "namespace",
	KindPackage:     "package",
	KindClass:       "class",
	KindMethod:      "method",
	KindProperty:    "property",
	KindConstructor: "constructor",
	KindFunction:    "function",
	KindVariable:    "variable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown symbol kind %q", name)
}

// Position is a zero-based line and character offset.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a half-open source span.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// NewRange builds a Range. A negative end line means the end is unknown and
// collapses to the start line.
func NewRange(startLine, startChar, endLine, endChar int) Range {
	if endLine < 0 {
		endLine = startLine
	}
	return Range{
		Start: Position{Line: startLine, Character: startChar},
		End:   Position{Line: endLine, Character: endChar},
	}
}

func rangeOf(loc coffee.Location) Range {
	return NewRange(loc.StartLine, loc.StartColumn, loc.EndLine, loc.EndColumn)
}

// Before reports whether a starts before b.
func (r Range) Before(b Range) bool {
	if r.Start.Line != b.Start.Line {
		return r.Start.Line < b.Start.Line
	}
	return r.Start.Character < b.Start.Character
}

// Symbol is one extracted declaration. ContainerName is empty for top-level
// symbols.
type Symbol struct {
	Name          string `json:"name"`
	Kind          Kind   `json:"kind"`
	Range         Range  `json:"range"`
	ContainerName string `json:"containerName,omitempty"`
}

// QualifiedName is the name children of this symbol use as their container.
func (s Symbol) QualifiedName() string {
	if s.ContainerName == "" {
		return s.Name
	}
	return s.ContainerName + "." + s.Name
}

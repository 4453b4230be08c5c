package lsp

import (
	"strings"
	"unicode/utf16"

	"go.lsp.dev/protocol"

	"github.com/mvp-joe/coffee-symbols/internal/storage"
	"github.com/mvp-joe/coffee-symbols/internal/symbols"
)

// lines converts positions, whose columns count runes, into LSP positions,
// whose columns count UTF-16 code units. A nil lines leaves columns as they
// are.
type lines []string

func splitLines(text string) lines {
	return strings.Split(text, "\n")
}

func (ls lines) position(p symbols.Position) protocol.Position {
	line, col := max(p.Line, 0), max(p.Character, 0)
	if line < len(ls) {
		col = utf16Column(ls[line], col)
	}
	return protocol.Position{Line: uint32(line), Character: uint32(col)}
}

func (ls lines) toRange(r symbols.Range) protocol.Range {
	return protocol.Range{Start: ls.position(r.Start), End: ls.position(r.End)}
}

// utf16Column returns the UTF-16 offset of the rune column col in line.
// Columns past the end of the line count one unit per missing rune.
func utf16Column(line string, col int) int {
	units := 0
	for _, r := range line {
		if col == 0 {
			return units
		}
		if n := utf16.RuneLen(r); n > 0 {
			units += n
		} else {
			units++
		}
		col--
	}
	return units + col
}

func toSymbolInformation(uri protocol.DocumentURI, ls lines, s symbols.Symbol) protocol.SymbolInformation {
	return protocol.SymbolInformation{
		Name:          s.Name,
		Kind:          protocol.SymbolKind(s.Kind),
		Location:      protocol.Location{URI: uri, Range: ls.toRange(s.Range)},
		ContainerName: s.ContainerName,
	}
}

// recordsToSymbolInformation converts stored records, reading each file's
// text once through text.
func recordsToSymbolInformation(records []storage.SymbolRecord, text func(protocol.DocumentURI) (string, bool)) []protocol.SymbolInformation {
	byURI := make(map[protocol.DocumentURI]lines)
	out := make([]protocol.SymbolInformation, 0, len(records))
	for _, r := range records {
		uri := protocol.DocumentURI(r.URI)
		ls, seen := byURI[uri]
		if !seen {
			if t, ok := text(uri); ok {
				ls = splitLines(t)
			}
			byURI[uri] = ls
		}
		out = append(out, toSymbolInformation(uri, ls, r.Symbol))
	}
	return out
}

func toDiagnostics(text string, diags []symbols.Diagnostic) []protocol.Diagnostic {
	ls := splitLines(text)
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, protocol.Diagnostic{
			Range:    ls.toRange(d.Range),
			Severity: protocol.DiagnosticSeverity(d.Severity),
			Source:   d.Source,
			Message:  d.Message,
		})
	}
	return out
}

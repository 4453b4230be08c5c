package symbols

import (
	"log"

	"github.com/mvp-joe/coffee-symbols/internal/coffee"
)

// ASTProvider turns source text into a syntax tree.
type ASTProvider interface {
	Parse(src string) (*coffee.Block, error)
}

// CoffeeProvider is the ASTProvider backed by the coffee package.
type CoffeeProvider struct{}

// Parse implements ASTProvider.
func (CoffeeProvider) Parse(src string) (*coffee.Block, error) {
	return coffee.Parse(src)
}

// Parser is the entry point for single-file symbol work: outlines, export
// surfaces and syntax validation.
type Parser struct {
	provider ASTProvider
	opts     Options
}

// NewParser creates a Parser using the built-in CoffeeScript front end.
func NewParser(opts Options) *Parser {
	return NewParserWithProvider(CoffeeProvider{}, opts)
}

// NewParserWithProvider creates a Parser with a custom AST provider.
func NewParserWithProvider(provider ASTProvider, opts Options) *Parser {
	return &Parser{provider: provider, opts: opts}
}

// Options returns the extraction options.
func (p *Parser) Options() Options {
	return p.opts
}

// DocumentSymbols returns every symbol in src. Syntax errors and extraction
// failures are logged and yield an empty list.
func (p *Parser) DocumentSymbols(src string) []Symbol {
	symbols, err := p.extract(src)
	if err != nil {
		log.Printf("Warning: failed to extract symbols: %v", err)
		return []Symbol{}
	}
	return symbols
}

// ExportedSymbols returns the export surface of src, or an empty list when it
// cannot be parsed.
func (p *Parser) ExportedSymbols(src string) []Symbol {
	symbols, err := p.extract(src)
	if err != nil {
		log.Printf("Warning: failed to extract exported symbols: %v", err)
		return []Symbol{}
	}
	return FilterExported(symbols)
}

// Symbols is DocumentSymbols that reports the parse error instead of logging
// it. The index service uses it to record per-file failures.
func (p *Parser) Symbols(src string, exportsOnly bool) ([]Symbol, error) {
	symbols, err := p.extract(src)
	if err != nil {
		return nil, err
	}
	if exportsOnly {
		return FilterExported(symbols), nil
	}
	return symbols, nil
}

// Validate returns one error diagnostic when src does not parse and an empty
// slice otherwise.
func (p *Parser) Validate(src string) []Diagnostic {
	if _, err := p.provider.Parse(src); err != nil {
		return []Diagnostic{diagnosticFromError(err)}
	}
	return []Diagnostic{}
}

func (p *Parser) extract(src string) (symbols []Symbol, err error) {
	defer func() {
		if r := recover(); r != nil {
			symbols, err = nil, &ExtractionError{Cause: r}
		}
	}()

	root, err := p.provider.Parse(src)
	if err != nil {
		return nil, err
	}
	return Extract(root, p.opts), nil
}

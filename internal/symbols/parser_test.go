package symbols

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/coffee-symbols/internal/coffee"
)

// Test Plan for Parser:
// - DocumentSymbols returns every symbol, honoring the configured options
// - ExportedSymbols applies the export filter
// - Syntax errors yield empty (non-nil) symbol lists
// - Symbols reports the parse error to the caller
// - Validate returns one positioned diagnostic per failing source, none otherwise
// - Provider errors without a location are reported at 1:1
// - Panics raised while walking are recovered as ExtractionError

type stubProvider struct {
	root *coffee.Block
	err  error
}

func (s stubProvider) Parse(string) (*coffee.Block, error) {
	return s.root, s.err
}

func TestParser_DocumentSymbols(t *testing.T) {
	t.Parallel()

	p := NewParser(DefaultOptions())
	symbols := p.DocumentSymbols("class Foo")

	assert.Equal(t, []Symbol{{Name: "Foo", Kind: KindClass, Range: NewRange(0, 0, 0, 9)}}, symbols)
	assert.Equal(t, DefaultOptions(), p.Options())
}

func TestParser_ExportedSymbols(t *testing.T) {
	t.Parallel()

	p := NewParser(DefaultOptions())
	exported := p.ExportedSymbols(readFixture(t, "export-1.coffee"))

	require.Len(t, exported, 4)
	assert.Equal(t, "Foo", exported[0].Name)
	assert.Equal(t, "module.exports.Bar = Bar", exported[3].Name)
}

func TestParser_SyntaxErrorYieldsEmpty(t *testing.T) {
	t.Parallel()

	p := NewParser(DefaultOptions())

	symbols := p.DocumentSymbols("a =")
	assert.NotNil(t, symbols)
	assert.Empty(t, symbols)

	exported := p.ExportedSymbols("foo(")
	assert.NotNil(t, exported)
	assert.Empty(t, exported)
}

func TestParser_Symbols(t *testing.T) {
	t.Parallel()

	p := NewParser(DefaultOptions())

	all, err := p.Symbols(readFixture(t, "export-1.coffee"), false)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	exported, err := p.Symbols(readFixture(t, "export-1.coffee"), true)
	require.NoError(t, err)
	assert.Len(t, exported, 4)

	_, err = p.Symbols("a =", false)
	var syntaxErr *coffee.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, "unexpected end of input", syntaxErr.Message)
}

func TestParser_Validate(t *testing.T) {
	t.Parallel()

	p := NewParser(DefaultOptions())

	t.Run("unexpected end of input", func(t *testing.T) {
		t.Parallel()
		diags := p.Validate("a =")
		require.Len(t, diags, 1)
		assert.Equal(t, Diagnostic{
			Severity: SeverityError,
			Range:    NewRange(0, 3, 0, 3),
			Message:  "1:4 unexpected end of input",
			Source:   DiagnosticSource,
		}, diags[0])
	})

	t.Run("valid source", func(t *testing.T) {
		t.Parallel()
		diags := p.Validate("class Annoymous")
		assert.NotNil(t, diags)
		assert.Empty(t, diags)
	})

	t.Run("second line", func(t *testing.T) {
		t.Parallel()
		diags := p.Validate("a = 1\nb = 2)")
		require.Len(t, diags, 1)
		assert.Equal(t, "2:6 unexpected )", diags[0].Message)
		assert.Equal(t, NewRange(1, 5, 1, 6), diags[0].Range)
	})
}

func TestParser_ProviderErrorWithoutLocation(t *testing.T) {
	t.Parallel()

	p := NewParserWithProvider(stubProvider{err: errors.New("boom")}, DefaultOptions())

	diags := p.Validate("anything")
	require.Len(t, diags, 1)
	assert.Equal(t, "1:1 boom", diags[0].Message)
	assert.Equal(t, NewRange(0, 0, 0, 0), diags[0].Range)
	assert.Empty(t, p.DocumentSymbols("anything"))
}

func TestParser_RecoversExtractionPanic(t *testing.T) {
	t.Parallel()

	// An Assign whose Value is a nil *Code makes the walker dereference nil.
	var code *coffee.Code
	root := &coffee.Block{Expressions: []coffee.Node{
		&coffee.Assign{
			Variable: &coffee.Value{Base: &coffee.Literal{Kind: coffee.LitIdentifier, Value: "f"}},
			Value:    code,
		},
	}}
	p := NewParserWithProvider(stubProvider{root: root}, DefaultOptions())

	_, err := p.Symbols("", false)
	var extractionErr *ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Empty(t, p.DocumentSymbols(""))
	assert.Empty(t, p.ExportedSymbols(""))
}

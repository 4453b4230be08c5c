package coffee

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the lexer:
// - Plain expressions produce value and punctuator tokens
// - Deeper indentation emits INDENT, dedent emits OUTDENT then TERMINATOR
// - Lines ending in an operator or starting with an accessor continue silently
// - Keywords used as object keys or after accessors are identifiers
// - or= and and= lex as compound assignment operators
// - Slash is a regex after operators and division after values
// - Comments and blank lines produce no tokens
// - Unterminated strings fail with a "missing" message

type tokSketch struct {
	kind  tokenKind
	value string
}

func sketch(toks []token) []tokSketch {
	out := make([]tokSketch, 0, len(toks))
	for _, t := range toks {
		out = append(out, tokSketch{t.kind, t.value})
	}
	return out
}

func TestTokenize_SimpleAssignment(t *testing.T) {
	t.Parallel()

	toks := tokenize("a = 1")
	assert.Equal(t, []tokSketch{
		{tokIdentifier, "a"},
		{tokPunct, "="},
		{tokNumber, "1"},
		{tokEOF, ""},
	}, sketch(toks))

	assert.Equal(t, Location{0, 0, 0, 1}, toks[0].loc)
	assert.Equal(t, Location{0, 4, 0, 5}, toks[2].loc)
	assert.True(t, toks[1].spaceBefore)
	assert.True(t, toks[0].newLine)
}

func TestTokenize_Indentation(t *testing.T) {
	t.Parallel()

	toks := tokenize("foo\n  bar\nbaz")
	assert.Equal(t, []tokSketch{
		{tokIdentifier, "foo"},
		{tokIndent, ""},
		{tokIdentifier, "bar"},
		{tokOutdent, ""},
		{tokTerminator, ""},
		{tokIdentifier, "baz"},
		{tokEOF, ""},
	}, sketch(toks))
}

func TestTokenize_ClosesIndentationAtEOF(t *testing.T) {
	t.Parallel()

	toks := tokenize("foo ->\n  bar\n")
	assert.Equal(t, []tokSketch{
		{tokIdentifier, "foo"},
		{tokPunct, "->"},
		{tokIndent, ""},
		{tokIdentifier, "bar"},
		{tokOutdent, ""},
		{tokEOF, ""},
	}, sketch(toks))
}

func TestTokenize_Continuations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want []tokSketch
	}{
		{
			name: "trailing operator",
			src:  "a = b +\n  c",
			want: []tokSketch{{tokIdentifier, "a"}, {tokPunct, "="}, {tokIdentifier, "b"}, {tokPunct, "+"}, {tokIdentifier, "c"}, {tokEOF, ""}},
		},
		{
			name: "leading accessor",
			src:  "x = foo\n  .bar()",
			want: []tokSketch{{tokIdentifier, "x"}, {tokPunct, "="}, {tokIdentifier, "foo"}, {tokPunct, "."}, {tokIdentifier, "bar"}, {tokPunct, "("}, {tokPunct, ")"}, {tokEOF, ""}},
		},
		{
			name: "trailing comma",
			src:  "foo a,\n  b\nc",
			want: []tokSketch{{tokIdentifier, "foo"}, {tokIdentifier, "a"}, {tokPunct, ","}, {tokIdentifier, "b"}, {tokTerminator, ""}, {tokIdentifier, "c"}, {tokEOF, ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, sketch(tokenize(tt.src)))
		})
	}
}

func TestTokenize_KeywordsAsNames(t *testing.T) {
	t.Parallel()

	toks := tokenize("class: a.new")
	assert.Equal(t, []tokSketch{
		{tokIdentifier, "class"},
		{tokPunct, ":"},
		{tokIdentifier, "a"},
		{tokPunct, "."},
		{tokIdentifier, "new"},
		{tokEOF, ""},
	}, sketch(toks))

	toks = tokenize("class A")
	assert.Equal(t, tokKeyword, toks[0].kind)
}

func TestTokenize_WordAssignments(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []tokSketch{
		{tokIdentifier, "a"}, {tokPunct, "||="}, {tokIdentifier, "b"},
		{tokTerminator, ""},
		{tokIdentifier, "c"}, {tokPunct, "&&="}, {tokIdentifier, "d"},
		{tokEOF, ""},
	}, sketch(tokenize("a or= b\nc and= d")))
}

func TestTokenize_RegexVersusDivision(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []tokSketch{
		{tokIdentifier, "x"}, {tokPunct, "="}, {tokRegex, "/ab+c/g"}, {tokEOF, ""},
	}, sketch(tokenize("x = /ab+c/g")))

	assert.Equal(t, []tokSketch{
		{tokIdentifier, "a"}, {tokPunct, "/"}, {tokIdentifier, "b"}, {tokEOF, ""},
	}, sketch(tokenize("a / b")))

	assert.Equal(t, []tokSketch{
		{tokIdentifier, "r"}, {tokPunct, "="}, {tokRegex, "///\n  a b\n///"}, {tokEOF, ""},
	}, sketch(tokenize("r = ///\n  a b\n///")))
}

func TestTokenize_CommentsAndBlankLines(t *testing.T) {
	t.Parallel()

	src := "# leading comment\n\nfoo = 1 # trailing\n\n###\nblock\n###\nbar = 2\n"
	assert.Equal(t, []tokSketch{
		{tokIdentifier, "foo"}, {tokPunct, "="}, {tokNumber, "1"},
		{tokTerminator, ""},
		{tokIdentifier, "bar"}, {tokPunct, "="}, {tokNumber, "2"},
		{tokEOF, ""},
	}, sketch(tokenize(src)))
}

func TestTokenize_Strings(t *testing.T) {
	t.Parallel()

	toks := tokenize(`s = "a #{b + "c"} d"`)
	require.Len(t, toks, 4)
	assert.Equal(t, tokString, toks[2].kind)
	assert.Equal(t, `"a #{b + "c"} d"`, toks[2].value)

	toks = tokenize("s = '''\nmulti\n'''")
	require.Len(t, toks, 4)
	assert.Equal(t, tokString, toks[2].kind)
	assert.Equal(t, Location{0, 4, 2, 3}, toks[2].loc)
}

func TestTokenize_UnterminatedString(t *testing.T) {
	t.Parallel()

	_, err := Parse(`x = "abc`)
	require.Error(t, err)

	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, `missing "`, syntaxErr.Message)
	assert.Equal(t, 0, syntaxErr.Location.StartLine)
	assert.Equal(t, 4, syntaxErr.Location.StartColumn)
}

func TestTokenize_EOFLocation(t *testing.T) {
	t.Parallel()

	toks := tokenize("a =\n\n# trailing comment\n")
	last := toks[len(toks)-1]
	assert.Equal(t, tokEOF, last.kind)
	assert.Equal(t, Position{Line: 0, Column: 3}, last.loc.Start())
}

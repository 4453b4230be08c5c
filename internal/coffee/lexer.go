package coffee

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdentifier
	tokNumber
	tokString
	tokRegex
	tokJS
	tokKeyword
	tokPunct
	tokIndent
	tokOutdent
	tokTerminator
)

type token struct {
	kind        tokenKind
	value       string
	loc         Location
	spaceBefore bool
	newLine     bool
}

func (t token) isLayout() bool {
	return t.kind == tokIndent || t.kind == tokOutdent || t.kind == tokTerminator
}

func (t token) describe() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokIdentifier:
		return "identifier"
	case tokNumber:
		return "number"
	case tokString:
		return "string"
	case tokRegex:
		return "regex"
	case tokJS:
		return "embedded JavaScript"
	case tokIndent:
		return "indentation"
	case tokOutdent:
		return "outdent"
	case tokTerminator:
		return "newline"
	}
	return t.value
}

var keywords = map[string]bool{
	"true": true, "false": true, "yes": true, "no": true, "on": true, "off": true,
	"null": true, "undefined": true, "this": true, "super": true,
	"new": true, "delete": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"return": true, "throw": true, "break": true, "continue": true, "debugger": true,
	"yield": true, "await": true,
	"if": true, "else": true, "unless": true, "then": true,
	"switch": true, "when": true,
	"for": true, "while": true, "until": true, "loop": true, "by": true,
	"do": true, "try": true, "catch": true, "finally": true,
	"class": true, "extends": true,
	"import": true, "export": true,
	"and": true, "or": true, "is": true, "isnt": true, "not": true,
}

// Longest operators first.
var punctuators = []string{
	">>>=",
	"...", "?::", "**=", "//=", "%%=", "<<=", ">>=", ">>>", "&&=", "||=",
	"->", "=>", "?.", "::", "..", "**", "//", "%%", "==", "!=", "<=", ">=", "<<", ">>",
	"&&", "||", "++", "--", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "?=",
	"+", "-", "*", "/", "%", "<", ">", "=", "!", "~", "&", "|", "^", "?", ":",
	".", ",", ";", "(", ")", "[", "]", "{", "}", "@",
}

// A line ending in one of these continues on the next line.
var continuationPunct = map[string]bool{
	".": true, "?.": true, "::": true, "?::": true, ",": true,
	"(": true, "[": true, "{": true,
	"+": true, "-": true, "*": true, "/": true, "%": true, "**": true, "//": true, "%%": true,
	"<<": true, ">>": true, ">>>": true, "&": true, "|": true, "^": true, "&&": true, "||": true,
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
}

var continuationKeywords = map[string]bool{
	"and": true, "or": true, "is": true, "isnt": true, "instanceof": true, "not": true,
}

type indentLevel struct {
	size int
	soft bool
}

type lexer struct {
	src       []rune
	pos       int
	line      int
	col       int
	tokens    []token
	indents   []indentLevel
	spaced    bool
	lineStart bool
	lastReal  Position
	nesting   int // open string interpolations
}

// tokenize converts source text into tokens, including INDENT, OUTDENT and
// TERMINATOR layout tokens. Errors are raised as bailout panics.
func tokenize(src string) []token {
	l := &lexer{
		src:       []rune(strings.ReplaceAll(src, "\r\n", "\n")),
		indents:   []indentLevel{{size: 0}},
		lineStart: true,
	}
	l.run()
	return l.tokens
}

func (l *lexer) run() {
	if indent, ok := l.scanIndentation(); ok {
		l.indents[0].size = indent
	}
	for !l.eof() {
		c := l.peek()
		switch {
		case c == '\n':
			l.newline()
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			l.advance()
			l.spaced = true
		case c == '\\' && l.peekAt(1) == '\n':
			l.advance()
			l.advance()
			for !l.eof() && (l.peek() == ' ' || l.peek() == '\t') {
				l.advance()
			}
			l.spaced = true
		case c == '#':
			if l.startsWith("###") && !l.startsWith("####") {
				l.blockComment()
			} else {
				l.lineComment()
			}
		case isIdentStart(c):
			l.identifier()
		case isDigit(c) || (c == '.' && isDigit(l.peekAt(1)) && !l.prevIsValue()):
			l.number()
		case c == '"' || c == '\'':
			l.stringLiteral()
		case c == '`':
			l.javascript()
		case c == '/' && l.regexAllowed():
			if !l.regex() {
				l.punctuator()
			}
		default:
			l.punctuator()
		}
	}
	for len(l.indents) > 1 {
		lvl := l.indents[len(l.indents)-1]
		l.indents = l.indents[:len(l.indents)-1]
		if !lvl.soft {
			l.emitLayout(tokOutdent, l.lastReal)
		}
	}
	l.tokens = append(l.tokens, token{
		kind: tokEOF,
		loc:  span(l.lastReal, l.lastReal),
	})
}

func (l *lexer) eof() bool { return l.pos >= len(l.src) }

func (l *lexer) peek() rune { return l.peekAt(0) }

func (l *lexer) peekAt(n int) rune {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *lexer) startsWith(s string) bool {
	i := l.pos
	for _, r := range s {
		if i >= len(l.src) || l.src[i] != r {
			return false
		}
		i++
	}
	return true
}

func (l *lexer) advance() {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

func (l *lexer) advanceN(n int) {
	for i := 0; i < n && !l.eof(); i++ {
		l.advance()
	}
}

func (l *lexer) here() Position { return Position{Line: l.line, Column: l.col} }

func (l *lexer) fail(at Position, format string, args ...any) {
	panic(bailout{errorAt(span(at, Position{Line: at.Line, Column: at.Column + 1}), format, args...)})
}

func (l *lexer) last() *token {
	if len(l.tokens) == 0 {
		return nil
	}
	return &l.tokens[len(l.tokens)-1]
}

func (l *lexer) emit(kind tokenKind, start Position) {
	end := l.here()
	value := string(l.src[l.offsetOf(start):l.pos])
	l.tokens = append(l.tokens, token{
		kind:        kind,
		value:       value,
		loc:         span(start, end),
		spaceBefore: l.spaced,
		newLine:     l.lineStart,
	})
	l.spaced = false
	l.lineStart = false
	l.lastReal = end
}

func (l *lexer) emitValue(kind tokenKind, value string, start Position) {
	l.emit(kind, start)
	l.tokens[len(l.tokens)-1].value = value
}

// offsetOf maps a position on the current line back to a rune offset. Tokens
// that span lines (strings, heredocs) record their start offset separately.
func (l *lexer) offsetOf(start Position) int {
	if start.Line == l.line {
		return l.pos - (l.col - start.Column)
	}
	line, off := 0, 0
	for off < len(l.src) && line < start.Line {
		if l.src[off] == '\n' {
			line++
		}
		off++
	}
	return off + start.Column
}

func (l *lexer) emitLayout(kind tokenKind, at Position) {
	l.tokens = append(l.tokens, token{kind: kind, loc: span(at, at)})
}

func (l *lexer) emitTerminator() {
	last := l.last()
	if last == nil || last.kind == tokTerminator || last.kind == tokIndent {
		return
	}
	l.emitLayout(tokTerminator, l.lastReal)
}

// scanIndentation skips blank and comment-only lines and returns the
// indentation of the next line with content. ok is false at end of input.
func (l *lexer) scanIndentation() (indent int, ok bool) {
	for {
		indent = 0
		for !l.eof() && (l.peek() == ' ' || l.peek() == '\t') {
			l.advance()
			indent++
		}
		if l.eof() {
			return 0, false
		}
		switch c := l.peek(); {
		case c == '\n':
			l.advance()
			continue
		case c == '\r':
			l.advance()
			continue
		case c == '#' && l.startsWith("###") && !l.startsWith("####"):
			l.blockComment()
			for !l.eof() && (l.peek() == ' ' || l.peek() == '\t') {
				l.advance()
			}
			if l.eof() {
				return 0, false
			}
			if l.peek() == '\n' {
				l.advance()
				continue
			}
			return indent, true
		case c == '#':
			l.lineComment()
			if l.eof() {
				return 0, false
			}
			l.advance()
			continue
		}
		return indent, true
	}
}

func (l *lexer) newline() {
	l.advance()
	indent, ok := l.scanIndentation()
	if !ok {
		return
	}
	l.spaced = true
	l.lineStart = true

	last := l.last()
	continued := l.unfinished(last) || l.continuesLine()
	top := l.indents[len(l.indents)-1]

	if indent > top.size {
		l.indents = append(l.indents, indentLevel{size: indent, soft: continued})
		if !continued {
			l.emitLayout(tokIndent, l.here())
		}
		return
	}

	trailingComma := last != nil && last.is(tokPunct, ",")
	closed := false
	for len(l.indents) > 1 && l.indents[len(l.indents)-1].size > indent {
		lvl := l.indents[len(l.indents)-1]
		l.indents = l.indents[:len(l.indents)-1]
		if !lvl.soft {
			l.emitLayout(tokOutdent, l.lastReal)
			closed = true
		}
	}
	// A trailing comma that closes an indented block still ends the
	// statement around it.
	if closed && trailingComma && !l.continuesLine() {
		continued = false
	}

	if top := l.indents[len(l.indents)-1]; indent > top.size {
		l.indents = append(l.indents, indentLevel{size: indent, soft: continued})
		if !continued {
			l.emitLayout(tokIndent, l.here())
		}
		return
	}

	if !continued {
		l.emitTerminator()
	}
}

func (l *lexer) unfinished(last *token) bool {
	if last == nil {
		return false
	}
	switch last.kind {
	case tokPunct:
		return continuationPunct[last.value]
	case tokKeyword:
		return continuationKeywords[last.value]
	}
	return false
}

// continuesLine reports whether the upcoming line starts with a chained
// accessor or a comma.
func (l *lexer) continuesLine() bool {
	switch {
	case l.startsWith("?::"), l.startsWith("::"), l.startsWith("?."), l.startsWith(","):
		return true
	case l.peek() == '.':
		next := l.peekAt(1)
		return next != '.' && !isDigit(next)
	}
	return false
}

func (l *lexer) lineComment() {
	for !l.eof() && l.peek() != '\n' {
		l.advance()
	}
}

func (l *lexer) blockComment() {
	start := l.here()
	l.advanceN(3)
	for {
		if l.eof() {
			l.fail(start, "missing ###")
		}
		if l.startsWith("###") {
			l.advanceN(3)
			return
		}
		l.advance()
	}
}

func (l *lexer) identifier() {
	start := l.here()
	begin := l.pos
	for !l.eof() && isIdentPart(l.peek()) {
		l.advance()
	}
	word := string(l.src[begin:l.pos])

	prev := l.last()
	afterAccessor := false
	if prev != nil && prev.kind == tokPunct {
		switch prev.value {
		case ".", "?.", "::", "?::":
			afterAccessor = true
		case "@":
			afterAccessor = !l.spaced
		}
	}

	if keywords[word] && !afterAccessor && !l.colonFollows() {
		if (word == "or" || word == "and") && l.peek() == '=' && l.peekAt(1) != '=' {
			l.advance()
			op := "||="
			if word == "and" {
				op = "&&="
			}
			l.emitValue(tokPunct, op, start)
			return
		}
		l.emit(tokKeyword, start)
		return
	}
	l.emit(tokIdentifier, start)
}

// colonFollows reports whether the next non-blank character is a single colon,
// which makes the preceding word an object key.
func (l *lexer) colonFollows() bool {
	i := l.pos
	for i < len(l.src) && (l.src[i] == ' ' || l.src[i] == '\t') {
		i++
	}
	return i < len(l.src) && l.src[i] == ':' && (i+1 >= len(l.src) || l.src[i+1] != ':')
}

func (l *lexer) prevIsValue() bool {
	prev := l.last()
	if prev == nil {
		return false
	}
	switch prev.kind {
	case tokIdentifier, tokNumber, tokString, tokRegex, tokJS:
		return true
	case tokPunct:
		return prev.value == ")" || prev.value == "]" || prev.value == "}"
	}
	return false
}

func (l *lexer) number() {
	start := l.here()
	if l.peek() == '0' && strings.ContainsRune("xXbBoO", l.peekAt(1)) {
		l.advanceN(2)
		for !l.eof() && (isHexDigit(l.peek()) || l.peek() == '_') {
			l.advance()
		}
	} else {
		for !l.eof() && (isDigit(l.peek()) || l.peek() == '_') {
			l.advance()
		}
		if l.peek() == '.' && isDigit(l.peekAt(1)) {
			l.advance()
			for !l.eof() && (isDigit(l.peek()) || l.peek() == '_') {
				l.advance()
			}
		}
		if (l.peek() == 'e' || l.peek() == 'E') && (isDigit(l.peekAt(1)) || ((l.peekAt(1) == '+' || l.peekAt(1) == '-') && isDigit(l.peekAt(2)))) {
			l.advanceN(2)
			for !l.eof() && isDigit(l.peek()) {
				l.advance()
			}
		}
	}
	if l.peek() == 'n' {
		l.advance()
	}
	l.emit(tokNumber, start)
}

func (l *lexer) stringLiteral() {
	start := l.here()
	begin := l.pos
	q := l.peek()
	delim := string(q)
	if l.startsWith(strings.Repeat(delim, 3)) {
		delim = strings.Repeat(delim, 3)
	}
	l.skipString(delim)
	l.tokens = append(l.tokens, token{
		kind:        tokString,
		value:       string(l.src[begin:l.pos]),
		loc:         span(start, l.here()),
		spaceBefore: l.spaced,
		newLine:     l.lineStart,
	})
	l.spaced = false
	l.lineStart = false
	l.lastReal = l.here()
}

func (l *lexer) skipString(delim string) {
	start := l.here()
	l.advanceN(len([]rune(delim)))
	interpolate := delim[0] == '"'
	for {
		if l.eof() {
			l.fail(start, "missing %s", delim)
		}
		if l.startsWith(delim) {
			l.advanceN(len([]rune(delim)))
			return
		}
		c := l.peek()
		switch {
		case c == '\\':
			l.advance()
			if !l.eof() {
				l.advance()
			}
		case interpolate && c == '#' && l.peekAt(1) == '{':
			l.advanceN(2)
			l.skipInterpolation()
		default:
			l.advance()
		}
	}
}

func (l *lexer) skipInterpolation() {
	start := l.here()
	l.nesting++
	if l.nesting > maxNesting {
		l.fail(start, "nesting too deep")
	}
	defer func() { l.nesting-- }()
	depth := 1
	for {
		if l.eof() {
			l.fail(start, "missing }")
		}
		c := l.peek()
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				l.advance()
				return
			}
		case '"', '\'':
			delim := string(c)
			if l.startsWith(strings.Repeat(delim, 3)) {
				delim = strings.Repeat(delim, 3)
			}
			l.skipString(delim)
			continue
		}
		l.advance()
	}
}

func (l *lexer) javascript() {
	start := l.here()
	begin := l.pos
	delim := "`"
	if l.startsWith("```") {
		delim = "```"
	}
	l.advanceN(len(delim))
	for {
		if l.eof() {
			l.fail(start, "missing %s", delim)
		}
		if l.startsWith(delim) {
			l.advanceN(len(delim))
			break
		}
		if l.peek() == '\\' {
			l.advance()
		}
		if !l.eof() {
			l.advance()
		}
	}
	l.tokens = append(l.tokens, token{
		kind:        tokJS,
		value:       string(l.src[begin:l.pos]),
		loc:         span(start, l.here()),
		spaceBefore: l.spaced,
		newLine:     l.lineStart,
	})
	l.spaced = false
	l.lineStart = false
	l.lastReal = l.here()
}

func (l *lexer) regexAllowed() bool {
	prev := l.last()
	if prev == nil {
		return true
	}
	switch prev.kind {
	case tokNumber, tokString, tokRegex, tokJS:
		return false
	case tokIdentifier:
		if !l.spaced {
			return false
		}
		next := l.peekAt(1)
		return next != ' ' && next != '\t' && next != '='
	case tokKeyword:
		switch prev.value {
		case "this", "super", "true", "false", "yes", "no", "on", "off", "null", "undefined":
			return false
		}
		return true
	case tokPunct:
		switch prev.value {
		case ")", "]", "}", "++", "--", "@":
			return false
		}
	}
	return true
}

// regex lexes /.../flags or ///.../// and reports false when the slash
// should be read as an operator instead.
func (l *lexer) regex() bool {
	start := l.here()
	if l.startsWith("///") {
		l.advanceN(3)
		for {
			if l.eof() {
				l.fail(start, "missing /// (unclosed heregex)")
			}
			if l.startsWith("///") {
				l.advanceN(3)
				break
			}
			switch {
			case l.peek() == '\\':
				l.advanceN(2)
			case l.peek() == '#' && l.peekAt(1) == '{':
				l.advanceN(2)
				l.skipInterpolation()
			default:
				l.advance()
			}
		}
		for !l.eof() && isIdentPart(l.peek()) {
			l.advance()
		}
		l.emitMultiline(tokRegex, start)
		return true
	}
	if l.peekAt(1) == '/' || l.peekAt(1) == '\n' || l.peekAt(1) == 0 {
		return false
	}

	savedPos, savedCol := l.pos, l.col
	l.advance()
	inClass := false
	for {
		if l.eof() || l.peek() == '\n' {
			l.pos, l.col = savedPos, savedCol
			return false
		}
		c := l.peek()
		if c == '\\' {
			l.advance()
			if !l.eof() && l.peek() != '\n' {
				l.advance()
			}
			continue
		}
		if c == '[' {
			inClass = true
		} else if c == ']' {
			inClass = false
		} else if c == '/' && !inClass {
			l.advance()
			break
		}
		l.advance()
	}
	for !l.eof() && isIdentPart(l.peek()) {
		l.advance()
	}
	l.emit(tokRegex, start)
	return true
}

func (l *lexer) emitMultiline(kind tokenKind, start Position) {
	begin := l.offsetOf(start)
	l.tokens = append(l.tokens, token{
		kind:        kind,
		value:       string(l.src[begin:l.pos]),
		loc:         span(start, l.here()),
		spaceBefore: l.spaced,
		newLine:     l.lineStart,
	})
	l.spaced = false
	l.lineStart = false
	l.lastReal = l.here()
}

func (l *lexer) punctuator() {
	start := l.here()
	for _, p := range punctuators {
		if l.startsWith(p) {
			l.advanceN(len(p))
			l.emit(tokPunct, start)
			return
		}
	}
	l.fail(start, "unexpected character")
}

func isIdentStart(c rune) bool {
	return c == '_' || c == '$' || unicode.IsLetter(c)
}

func isIdentPart(c rune) bool {
	return isIdentStart(c) || unicode.IsDigit(c)
}

func isDigit(c rune) bool { return c >= '0' && c <= '9' }

func isHexDigit(c rune) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

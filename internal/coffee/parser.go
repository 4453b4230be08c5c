package coffee

// Parse parses CoffeeScript source into a Block. Errors are *SyntaxError.
func Parse(src string) (root *Block, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			root, err = nil, b.err
		}
	}()

	toks := tokenize(src)
	p := &parser{toks: toks, closers: matchBrackets(toks)}
	return p.parseRoot(), nil
}

// maxNesting bounds recursion so pathological input fails with a
// SyntaxError instead of exhausting the goroutine stack.
const maxNesting = 1000

type parser struct {
	toks    []token
	pos     int
	lastEnd Position
	depth   int

	// closers maps the index of each opening bracket to the index of its
	// closing bracket, or -1 when it is never closed.
	closers []int

	// noIndentCall disables "callee INDENT key:" implicit object calls while
	// parsing conditions and class parents, where INDENT opens a body.
	noIndentCall bool
}

// matchBrackets pairs (), [] and {} tokens.
func matchBrackets(toks []token) []int {
	closers := make([]int, len(toks))
	var open []int
	for i, t := range toks {
		closers[i] = -1
		if t.kind != tokPunct {
			continue
		}
		switch t.value {
		case "(", "[", "{":
			open = append(open, i)
		case ")", "]", "}":
			if n := len(open); n > 0 {
				closers[open[n-1]] = i
				open = open[:n-1]
			}
		}
	}
	return closers
}

// enter counts one level of recursion; callers defer the returned func.
func (p *parser) enter() func() {
	p.depth++
	if p.depth > maxNesting {
		panic(bailout{errorAt(p.peek().loc, "nesting too deep")})
	}
	return p.leave
}

func (p *parser) leave() { p.depth-- }

func (p *parser) peek() token { return p.peekN(0) }

func (p *parser) peekN(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	if !t.isLayout() && t.kind != tokEOF {
		p.lastEnd = t.loc.End()
	}
	return t
}

func (t token) is(kind tokenKind, value string) bool {
	return t.kind == kind && t.value == value
}

func (p *parser) atPunct(v string) bool   { return p.peek().is(tokPunct, v) }
func (p *parser) atKeyword(v string) bool { return p.peek().is(tokKeyword, v) }

func (p *parser) atKind(kind tokenKind) bool { return p.peek().kind == kind }

func (p *parser) unexpected(t token) {
	switch t.kind {
	case tokEOF:
		loc := Location{
			StartLine:   t.loc.StartLine,
			StartColumn: t.loc.StartColumn,
			EndLine:     -1,
			EndColumn:   t.loc.StartColumn,
		}
		panic(bailout{errorAt(loc, "unexpected end of input")})
	default:
		panic(bailout{errorAt(t.loc, "unexpected %s", t.describe())})
	}
}

func (p *parser) expectPunct(v string) token {
	if !p.atPunct(v) {
		p.unexpected(p.peek())
	}
	return p.next()
}

// expectClose consumes closer, reporting a missing closer at the opening
// token when input ends first.
func (p *parser) expectClose(open token, closer string) {
	if p.atPunct(closer) {
		p.next()
		return
	}
	if p.atKind(tokEOF) {
		panic(bailout{errorAt(open.loc, "missing %s", closer)})
	}
	p.unexpected(p.peek())
}

func (p *parser) locFrom(start Position) Location {
	return span(start, p.lastEnd)
}

func (p *parser) withIndentCalls(enabled bool, fn func() Node) Node {
	saved := p.noIndentCall
	p.noIndentCall = !enabled
	defer func() { p.noIndentCall = saved }()
	return fn()
}

func blockOf(nodes ...Node) *Block {
	b := &Block{Expressions: nodes}
	if len(nodes) > 0 {
		first, last := nodes[0].Loc(), nodes[len(nodes)-1].Loc()
		b.Location = span(first.Start(), last.End())
	}
	return b
}

func (p *parser) parseRoot() *Block {
	exprs := p.parseStatements(func(t token) bool { return t.kind == tokEOF })
	if !p.atKind(tokEOF) {
		p.unexpected(p.peek())
	}
	return blockOf(exprs...)
}

// parseStatements parses a separator-delimited statement list up to a token
// for which stop returns true. The stop token is not consumed.
func (p *parser) parseStatements(stop func(token) bool) []Node {
	var exprs []Node
	for {
		for p.atKind(tokTerminator) || p.atPunct(";") {
			p.next()
		}
		if stop(p.peek()) {
			return exprs
		}
		exprs = append(exprs, p.parseStatement())
		t := p.peek()
		if t.kind == tokTerminator || t.is(tokPunct, ";") {
			continue
		}
		if stop(t) {
			return exprs
		}
		p.unexpected(t)
	}
}

func (p *parser) parseIndentedBlock() *Block {
	if !p.atKind(tokIndent) {
		p.unexpected(p.peek())
	}
	open := p.next()
	saved := p.noIndentCall
	p.noIndentCall = false
	exprs := p.parseStatements(func(t token) bool { return t.kind == tokOutdent || t.kind == tokEOF })
	p.noIndentCall = saved
	if !p.atKind(tokOutdent) {
		p.unexpected(p.peek())
	}
	p.next()
	b := blockOf(exprs...)
	if len(exprs) == 0 {
		b.Location = open.loc
	}
	return b
}

// parseBody parses either an indented block or, after an optional `then`,
// a single inline statement.
func (p *parser) parseBody(allowThen bool) *Block {
	if p.atKind(tokIndent) {
		return p.parseIndentedBlock()
	}
	if allowThen {
		if !p.atKeyword("then") {
			p.unexpected(p.peek())
		}
		p.next()
		if p.atKind(tokIndent) {
			return p.parseIndentedBlock()
		}
	}
	return blockOf(p.parseStatement())
}

func (p *parser) parseStatement() Node {
	return p.parsePostfix(p.parseExpression())
}

// parsePostfix applies trailing if/unless/while/until/for modifiers.
func (p *parser) parsePostfix(n Node) Node {
	for {
		t := p.peek()
		if t.kind != tokKeyword {
			return n
		}
		start := n.Loc().Start()
		switch t.value {
		case "if", "unless":
			p.next()
			cond := p.parseExpression()
			n = &If{
				base:      base{Location: p.locFrom(start)},
				Condition: cond,
				Body:      blockOf(n),
				Unless:    t.value == "unless",
				Postfix:   true,
			}
		case "while", "until":
			p.next()
			cond := p.parseExpression()
			w := &While{Condition: cond, Body: blockOf(n), Until: t.value == "until", Postfix: true}
			if p.atKeyword("when") {
				p.next()
				w.Guard = p.parseExpression()
			}
			w.Location = p.locFrom(start)
			n = w
		case "for":
			n = p.parseFor(start, blockOf(n))
		default:
			return n
		}
	}
}

func (p *parser) parseIf() Node {
	kw := p.next()
	start := kw.loc.Start()
	cond := p.withIndentCalls(false, p.parseExpression)
	node := &If{Condition: cond, Unless: kw.value == "unless"}
	node.Body = p.parseBody(true)

	if p.atKind(tokTerminator) && p.peekN(1).is(tokKeyword, "else") {
		p.next()
	}
	if p.atKeyword("else") {
		p.next()
		if p.atKeyword("if") || p.atKeyword("unless") {
			node.Else = blockOf(p.parseIf())
		} else {
			node.Else = p.parseBody(false)
		}
	}
	node.Location = p.locFrom(start)
	return node
}

func (p *parser) parseWhile() Node {
	kw := p.next()
	start := kw.loc.Start()
	w := &While{Until: kw.value == "until"}
	if kw.value != "loop" {
		w.Condition = p.withIndentCalls(false, p.parseExpression)
		if p.atKeyword("when") {
			p.next()
			w.Guard = p.withIndentCalls(false, p.parseExpression)
		}
		w.Body = p.parseBody(true)
	} else {
		w.Body = p.parseBody(false)
	}
	w.Location = p.locFrom(start)
	return w
}

// parseFor parses a for loop. body is nil for the prefix form and holds the
// comprehension expression for the postfix form.
func (p *parser) parseFor(start Position, body *Block) Node {
	p.next()
	f := &For{Body: body, Postfix: body != nil}
	if t := p.peek(); t.is(tokIdentifier, "own") && p.peekN(1).kind == tokIdentifier {
		p.next()
		f.Own = true
	}
	if !p.atKeyword("in") && !p.atKeyword("of") && !p.peek().is(tokIdentifier, "from") {
		f.Name = p.parseLoopVariable()
		if p.atPunct(",") {
			p.next()
			f.Index = p.parseLoopVariable()
		}
	}
	switch t := p.peek(); {
	case t.is(tokKeyword, "in"):
	case t.is(tokKeyword, "of"):
		f.Object = true
	case t.is(tokIdentifier, "from"):
		f.From = true
	default:
		p.unexpected(t)
	}
	p.next()
	f.Source = p.withIndentCalls(false, p.parseExpression)
	for {
		switch {
		case p.atKeyword("by"):
			p.next()
			f.Step = p.withIndentCalls(false, p.parseExpression)
			continue
		case p.atKeyword("when"):
			p.next()
			f.Guard = p.withIndentCalls(false, p.parseExpression)
			continue
		}
		break
	}
	if body == nil {
		f.Body = p.parseBody(true)
	}
	f.Location = p.locFrom(start)
	return f
}

func (p *parser) parseLoopVariable() Node {
	t := p.peek()
	switch {
	case t.kind == tokIdentifier:
		p.next()
		return &Literal{base: base{Location: t.loc}, Kind: LitIdentifier, Value: t.value}
	case t.is(tokPunct, "@"), t.is(tokPunct, "{"), t.is(tokPunct, "["):
		return p.parsePrimary()
	}
	p.unexpected(t)
	return nil
}

func (p *parser) parseSwitch() Node {
	kw := p.next()
	start := kw.loc.Start()
	s := &Switch{}
	if !p.atKind(tokIndent) {
		s.Subject = p.withIndentCalls(false, p.parseExpression)
	}
	if !p.atKind(tokIndent) {
		p.unexpected(p.peek())
	}
	p.next()
	for {
		for p.atKind(tokTerminator) {
			p.next()
		}
		switch {
		case p.atKeyword("when"):
			p.next()
			var c SwitchCase
			for {
				c.Conditions = append(c.Conditions, p.withIndentCalls(false, p.parseExpression))
				if !p.atPunct(",") {
					break
				}
				p.next()
			}
			c.Body = p.parseBody(true)
			s.Cases = append(s.Cases, c)
			continue
		case p.atKeyword("else"):
			p.next()
			s.Otherwise = p.parseBody(false)
			continue
		case p.atKind(tokOutdent):
			p.next()
		default:
			p.unexpected(p.peek())
		}
		break
	}
	if len(s.Cases) == 0 {
		p.unexpected(p.peek())
	}
	s.Location = p.locFrom(start)
	return s
}

func (p *parser) parseTry() Node {
	kw := p.next()
	start := kw.loc.Start()
	t := &Try{Attempt: p.parseBody(false)}

	if p.atKind(tokTerminator) && p.peekN(1).is(tokKeyword, "catch") {
		p.next()
	}
	if p.atKeyword("catch") {
		p.next()
		if !p.atKind(tokIndent) && !p.atKeyword("then") {
			t.ErrorVar = p.withIndentCalls(false, p.parseLoopVariable)
		}
		if p.atKind(tokIndent) || p.atKeyword("then") {
			t.Recovery = p.parseBody(true)
		}
	}
	if p.atKind(tokTerminator) && p.peekN(1).is(tokKeyword, "finally") {
		p.next()
	}
	if p.atKeyword("finally") {
		p.next()
		t.Ensure = p.parseBody(false)
	}
	t.Location = p.locFrom(start)
	return t
}

func (p *parser) parseClass() Node {
	kw := p.next()
	start := kw.loc.Start()
	c := &Class{}
	if t := p.peek(); t.kind == tokIdentifier || t.is(tokPunct, "@") {
		c.Variable = p.parseClassName()
	}
	if p.atKeyword("extends") {
		p.next()
		c.Parent = p.withIndentCalls(false, p.parseExpression)
	}
	if p.atKind(tokIndent) {
		c.Body = p.parseIndentedBlock()
	} else {
		c.Body = &Block{base: base{Location: span(p.lastEnd, p.lastEnd)}}
	}
	c.Location = p.locFrom(start)
	return c
}

// parseClassName parses an identifier or @name followed by accessors only.
func (p *parser) parseClassName() *Value {
	start := p.peek().loc.Start()
	var v *Value
	if p.atPunct("@") {
		v = p.parseThis()
	} else {
		t := p.next()
		v = &Value{Base: &Literal{base: base{Location: t.loc}, Kind: LitIdentifier, Value: t.value}}
	}
	for p.atPunct(".") || p.atPunct("::") {
		p.parseAccessor(v)
	}
	v.Location = p.locFrom(start)
	return v
}

func (p *parser) parseModule() Node {
	kw := p.next()
	start := kw.loc.Start()
	m := &ModuleDeclaration{Keyword: kw.value}
	switch {
	case kw.value == "export" && p.peek().is(tokIdentifier, "default"):
		p.next()
		m.Expression = p.parseExpression()
	case kw.value == "export" && !p.atPunct("{") && !p.atPunct("*"):
		m.Expression = p.parseExpression()
	default:
		p.skipModuleClause()
	}
	m.Location = p.locFrom(start)
	return m
}

// skipModuleClause consumes import/export specifiers up to the end of the
// statement.
func (p *parser) skipModuleClause() {
	depth := 0
	for {
		t := p.peek()
		switch {
		case t.kind == tokEOF:
			if depth > 0 {
				p.unexpected(t)
			}
			return
		case depth == 0 && (t.kind == tokTerminator || t.kind == tokOutdent || t.is(tokPunct, ";")):
			return
		case t.is(tokPunct, "{"):
			depth++
		case t.is(tokPunct, "}"):
			depth--
		}
		p.next()
	}
}

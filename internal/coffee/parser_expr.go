package coffee

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"**=": true, "//=": true, "%%=": true, "<<=": true, ">>=": true, ">>>=": true,
	"&=": true, "|=": true, "^=": true, "&&=": true, "||=": true, "?=": true,
}

// Binary operator precedence, higher binds tighter.
var binaryPrec = map[string]int{
	"?":  1,
	"||": 2, "or": 2,
	"&&": 3, "and": 3,
	"|":  4,
	"^":  5,
	"&":  6,
	"==": 7, "!=": 7, "is": 7, "isnt": 7, "<": 7, ">": 7, "<=": 7, ">=": 7,
	"in": 8, "of": 8, "instanceof": 8,
	"<<": 9, ">>": 9, ">>>": 9,
	"+": 10, "-": 10,
	"*": 11, "/": 11, "%": 11, "//": 11, "%%": 11,
	"**": 12,
}

var canonicalOps = map[string]string{
	"or": "||", "and": "&&", "is": "===", "isnt": "!==", "==": "===", "!=": "!==",
}

// parseExpression parses an assignment, an implicit object or a binary
// expression.
func (p *parser) parseExpression() Node {
	defer p.enter()()
	if p.isKeyStart(p.pos) {
		return p.parseImplicitObject()
	}
	start := p.peek().loc.Start()
	left := p.parseBinary(0)
	if t := p.peek(); t.kind == tokPunct && assignOps[t.value] {
		p.next()
		right := p.parseAssignValue()
		a := &Assign{Variable: left, Value: right}
		if t.value != "=" {
			a.Context = t.value
		}
		a.Location = p.locFrom(start)
		return a
	}
	return left
}

// parseAssignValue parses the right side of `=` or `:`, which may be an
// indented block holding a single expression.
func (p *parser) parseAssignValue() Node {
	if !p.atKind(tokIndent) {
		return p.parseExpression()
	}
	p.next()
	saved := p.noIndentCall
	p.noIndentCall = false
	v := p.parseStatement()
	p.noIndentCall = saved
	if !p.atKind(tokOutdent) {
		p.unexpected(p.peek())
	}
	p.next()
	return v
}

func (p *parser) binaryOp(t token) (string, int, bool) {
	switch t.kind {
	case tokPunct:
		if t.value == "?" && !t.spaceBefore {
			return "", 0, false
		}
		prec, ok := binaryPrec[t.value]
		return t.value, prec, ok
	case tokKeyword:
		if t.value == "not" {
			next := p.peekN(1)
			if next.kind == tokKeyword && (next.value == "in" || next.value == "of" || next.value == "instanceof") {
				return "not " + next.value, binaryPrec[next.value], true
			}
			return "", 0, false
		}
		prec, ok := binaryPrec[t.value]
		return t.value, prec, ok
	}
	return "", 0, false
}

func (p *parser) parseBinary(minPrec int) Node {
	start := p.peek().loc.Start()
	left := p.parseUnary()
	for {
		op, prec, ok := p.binaryOp(p.peek())
		if !ok || prec < minPrec {
			return left
		}
		p.next()
		if len(op) > 4 && op[:4] == "not " {
			p.next()
		}
		nextMin := prec + 1
		if op == "**" {
			nextMin = prec
		}
		right := p.parseBinary(nextMin)
		if c, ok := canonicalOps[op]; ok {
			op = c
		}
		left = &Op{base: base{Location: p.locFrom(start)}, Operator: op, First: left, Second: right}
	}
}

func (p *parser) parseUnary() Node {
	defer p.enter()()
	t := p.peek()
	start := t.loc.Start()
	switch {
	case t.kind == tokPunct:
		switch t.value {
		case "!", "~", "-", "+", "++", "--":
			p.next()
			operand := p.parseUnary()
			return &Op{base: base{Location: p.locFrom(start)}, Operator: t.value, First: operand}
		}
	case t.kind == tokKeyword:
		switch t.value {
		case "not", "typeof", "delete":
			p.next()
			operand := p.parseUnary()
			op := t.value
			if op == "not" {
				op = "!"
			}
			return &Op{base: base{Location: p.locFrom(start)}, Operator: op, First: operand}
		case "yield", "await":
			p.next()
			y := &Yield{Keyword: t.value}
			if p.peek().is(tokIdentifier, "from") && t.value == "yield" {
				p.next()
				y.Keyword = "yield from"
			}
			if p.canStartExpression(p.peek()) {
				y.Expression = p.parseExpression()
			}
			y.Location = p.locFrom(start)
			return y
		case "new":
			return p.parseNew()
		case "do":
			p.next()
			target := p.parseUnary()
			call := &Call{base: base{Location: p.locFrom(start)}, Variable: target, Do: true}
			v := &Value{base: base{Location: call.Location}, Base: call}
			return p.parseChain(v, start)
		}
	}
	n := p.parseValue()
	if t := p.peek(); (t.is(tokPunct, "++") || t.is(tokPunct, "--")) && !t.spaceBefore {
		p.next()
		return &Op{base: base{Location: p.locFrom(start)}, Operator: t.value, First: n, Postfix: true}
	}
	return n
}

func (p *parser) parseNew() Node {
	kw := p.next()
	start := kw.loc.Start()
	var callee *Value
	switch n := p.parsePrimary().(type) {
	case *Value:
		callee = n
	default:
		callee = &Value{base: base{Location: n.Loc()}, Base: n}
	}
	for {
		t := p.peek()
		if t.is(tokPunct, ".") || t.is(tokPunct, "?.") || t.is(tokPunct, "::") || t.is(tokPunct, "?::") ||
			(t.is(tokPunct, "[") && !t.spaceBefore) {
			p.parseAccessor(callee)
			continue
		}
		break
	}
	callee.Location = p.locFrom(start)

	call := &Call{Variable: callee, IsNew: true}
	switch {
	case p.atPunct("(") && !p.peek().spaceBefore:
		call.Args = p.parseArgs()
	case p.startsImplicitArg(p.peek()):
		call.Args = p.parseImplicitArgs()
	}
	call.Location = p.locFrom(start)
	v := &Value{base: base{Location: call.Location}, Base: call}
	return p.parseChain(v, start)
}

// parseValue parses a primary and its accessor/call chain.
func (p *parser) parseValue() Node {
	start := p.peek().loc.Start()
	n := p.parsePrimary()
	v, ok := n.(*Value)
	if !ok {
		if !chainable(n) {
			return n
		}
		v = &Value{base: base{Location: n.Loc()}, Base: n}
	}
	return p.parseChain(v, start)
}

func chainable(n Node) bool {
	switch n.(type) {
	case *Literal, *Obj, *Arr, *Range, *Parens, *Call:
		return true
	}
	return false
}

func callable(v *Value) bool {
	if len(v.Properties) > 0 {
		return true
	}
	switch b := v.Base.(type) {
	case *Literal:
		return b.Kind == LitIdentifier || b.Kind == LitSuper
	case *Call, *Parens:
		return true
	}
	return false
}

// parseChain extends v with accessors, indexes, explicit and implicit calls.
// Every call produces a new Value wrapping the Call.
func (p *parser) parseChain(v *Value, start Position) Node {
	for {
		t := p.peek()
		switch {
		case t.is(tokPunct, "."), t.is(tokPunct, "?."), t.is(tokPunct, "::"), t.is(tokPunct, "?::"):
			p.parseAccessor(v)
		case t.is(tokPunct, "[") && !t.spaceBefore:
			p.parseAccessor(v)
		case t.is(tokPunct, "(") && !t.spaceBefore && callable(v):
			v = p.wrapCall(v, start, p.parseArgs(), false)
			continue
		case t.is(tokPunct, "?") && !t.spaceBefore:
			next := p.peekN(1)
			switch {
			case next.is(tokPunct, "(") && !next.spaceBefore:
				p.next()
				v = p.wrapCall(v, start, p.parseArgs(), true)
				continue
			case next.is(tokPunct, "[") && !next.spaceBefore:
				p.next()
				p.parseAccessor(v)
				if idx, ok := v.Properties[len(v.Properties)-1].(*Index); ok {
					idx.Soak = true
				}
			default:
				p.next()
				return &Existence{base: base{Location: p.locFrom(start)}, Expression: v}
			}
		case callable(v) && p.startsImplicitArg(t):
			v = p.wrapCall(v, start, p.parseImplicitArgs(), false)
			continue
		case callable(v) && t.kind == tokIndent && !p.noIndentCall && p.isKeyStart(p.pos+1):
			p.next()
			obj := p.parseImplicitObject()
			if !p.atKind(tokOutdent) {
				p.unexpected(p.peek())
			}
			p.next()
			v = p.wrapCall(v, start, []Node{obj}, false)
			continue
		default:
			return v
		}
		v.Location = p.locFrom(start)
	}
}

func (p *parser) wrapCall(callee *Value, start Position, args []Node, soak bool) *Value {
	call := &Call{base: base{Location: p.locFrom(start)}, Variable: callee, Args: args, Soak: soak}
	return &Value{base: base{Location: call.Location}, Base: call}
}

// parseAccessor appends one .name, ::name or [index] to v.
func (p *parser) parseAccessor(v *Value) {
	t := p.next()
	switch t.value {
	case ".", "?.":
		name := p.peek()
		if name.kind != tokIdentifier {
			p.unexpected(name)
		}
		p.next()
		v.Properties = append(v.Properties, &Access{
			base: base{Location: span(t.loc.Start(), name.loc.End())},
			Name: &Literal{base: base{Location: name.loc}, Kind: LitProperty, Value: name.value},
			Soak: t.value == "?.",
		})
	case "::", "?::":
		v.Properties = append(v.Properties, &Access{
			base:      base{Location: t.loc},
			Name:      &Literal{base: base{Location: t.loc}, Kind: LitProperty, Value: "prototype"},
			Soak:      t.value == "?::",
			Shorthand: true,
		})
		if name := p.peek(); name.kind == tokIdentifier && !name.spaceBefore {
			p.next()
			v.Properties = append(v.Properties, &Access{
				base: base{Location: name.loc},
				Name: &Literal{base: base{Location: name.loc}, Kind: LitProperty, Value: name.value},
			})
		}
	case "[":
		idx := &Index{}
		p.skipLayout()
		if p.atPunct("..") || p.atPunct("...") {
			r := &Range{Exclusive: p.next().value == "..."}
			p.skipLayout()
			if !p.atPunct("]") {
				r.To = p.parseExpression()
			}
			r.Location = p.locFrom(t.loc.Start())
			idx.Index = r
		} else {
			from := p.parseExpression()
			if p.atPunct("..") || p.atPunct("...") {
				r := &Range{From: from, Exclusive: p.next().value == "..."}
				p.skipLayout()
				if !p.atPunct("]") {
					r.To = p.parseExpression()
				}
				r.Location = p.locFrom(from.Loc().Start())
				idx.Index = r
			} else {
				idx.Index = from
			}
		}
		p.skipLayout()
		p.expectClose(t, "]")
		idx.Location = p.locFrom(t.loc.Start())
		v.Properties = append(v.Properties, idx)
	default:
		p.unexpected(t)
	}
}

// skipLayout skips separators inside brackets.
func (p *parser) skipLayout() {
	for p.atKind(tokTerminator) || p.atKind(tokIndent) || p.atKind(tokOutdent) {
		p.next()
	}
}

// startsImplicitArg reports whether t, following a callable value, opens the
// argument list of an implicit call.
func (p *parser) startsImplicitArg(t token) bool {
	if !t.spaceBefore || t.newLine {
		return false
	}
	switch t.kind {
	case tokIdentifier, tokNumber, tokString, tokRegex, tokJS:
		return true
	case tokKeyword:
		switch t.value {
		case "this", "super", "true", "false", "yes", "no", "on", "off", "null", "undefined",
			"new", "typeof", "delete", "do", "class", "switch", "try", "yield", "await":
			return true
		case "not":
			next := p.peekN(1)
			return !(next.kind == tokKeyword && (next.value == "in" || next.value == "of" || next.value == "instanceof"))
		}
		return false
	case tokPunct:
		switch t.value {
		case "@", "(", "[", "{", "->", "=>", "!", "~", "...", "++", "--":
			return true
		case "-", "+":
			return !p.peekN(1).spaceBefore && !p.peekN(1).isLayout() && p.peekN(1).kind != tokEOF
		}
	}
	return false
}

func (p *parser) parseImplicitArgs() []Node {
	var args []Node
	for {
		args = append(args, p.parseArg())
		if !p.atPunct(",") {
			return args
		}
		p.next()
	}
}

func (p *parser) parseArg() Node {
	t := p.peek()
	if t.is(tokPunct, "...") {
		p.next()
		name := p.parseExpression()
		return &Splat{base: base{Location: p.locFrom(t.loc.Start())}, Name: name}
	}
	n := p.parseExpression()
	if p.atPunct("...") && p.closesItem(p.peekN(1)) {
		p.next()
		return &Splat{base: base{Location: p.locFrom(n.Loc().Start())}, Name: n}
	}
	return n
}

func (p *parser) closesItem(t token) bool {
	return t.is(tokPunct, ",") || t.is(tokPunct, ")") || t.is(tokPunct, "]") || t.is(tokPunct, "}") ||
		t.isLayout() || t.kind == tokEOF
}

// parseArgs parses a parenthesized argument list.
func (p *parser) parseArgs() []Node {
	open := p.next()
	saved := p.noIndentCall
	p.noIndentCall = false
	defer func() { p.noIndentCall = saved }()

	var args []Node
	for {
		p.skipSeparators()
		if p.atPunct(")") || p.atKind(tokEOF) {
			break
		}
		args = append(args, p.parseArg())
		if !p.atPunct(",") && !p.peek().isLayout() && !p.atPunct(")") {
			p.unexpected(p.peek())
		}
	}
	p.expectClose(open, ")")
	return args
}

func (p *parser) skipSeparators() {
	for p.atPunct(",") || p.peek().isLayout() {
		p.next()
	}
}

// isKeyStart reports whether the tokens at i begin an object key: a name,
// string or number followed by a colon, @name followed by a colon, or a
// bracketed computed key followed by a colon.
func (p *parser) isKeyStart(i int) bool {
	at := func(n int) token {
		if n >= len(p.toks) {
			return p.toks[len(p.toks)-1]
		}
		return p.toks[n]
	}
	t := at(i)
	switch t.kind {
	case tokIdentifier, tokString, tokNumber:
		return at(i+1).is(tokPunct, ":")
	case tokPunct:
		switch t.value {
		case "@":
			name := at(i + 1)
			return name.kind == tokIdentifier && !name.spaceBefore && at(i+2).is(tokPunct, ":")
		case "[":
			if i >= len(p.closers) || p.closers[i] < 0 {
				return false
			}
			return at(p.closers[i]+1).is(tokPunct, ":")
		}
	}
	return false
}

// parseImplicitObject parses brace-less key: value pairs. Pairs continue
// after a comma, or on a following line that starts at the first key's
// column. A comma may end a line, including the last line of the object.
func (p *parser) parseImplicitObject() Node {
	start := p.peek().loc.Start()
	obj := &Obj{Implicit: true}
	alignedKey := func(i int) bool {
		return p.isKeyStart(p.pos+i) && p.peekN(i).loc.StartColumn == start.Column
	}
	for {
		obj.Properties = append(obj.Properties, p.parseKeyValue())
		// A comma alone on its line separates objects instead.
		if p.atPunct(",") && !p.peek().newLine {
			next := p.peekN(1)
			switch {
			case p.isKeyStart(p.pos+1) && (!next.newLine || alignedKey(1)):
				p.next()
				continue
			case next.kind == tokOutdent || next.kind == tokEOF:
				p.next()
			}
		}
		// A trailing comma suppresses the terminator, so the next key may
		// follow the OUTDENT of a nested value directly.
		if p.atKind(tokTerminator) && alignedKey(1) ||
			p.peek().newLine && p.toks[p.pos-1].kind == tokOutdent && alignedKey(0) {
			if p.atKind(tokTerminator) {
				p.next()
			}
			continue
		}
		break
	}
	obj.Location = p.locFrom(start)
	return &Value{base: base{Location: obj.Location}, Base: obj}
}

func (p *parser) parseKeyValue() Node {
	start := p.peek().loc.Start()
	key := p.parseObjectKey()
	p.expectPunct(":")
	value := p.parseAssignValue()
	return &Assign{base: base{Location: p.locFrom(start)}, Variable: key, Value: value, Context: "object"}
}

func (p *parser) parseObjectKey() *Value {
	t := p.peek()
	switch t.kind {
	case tokIdentifier:
		p.next()
		return &Value{base: base{Location: t.loc}, Base: &Literal{base: base{Location: t.loc}, Kind: LitProperty, Value: t.value}}
	case tokString:
		p.next()
		return &Value{base: base{Location: t.loc}, Base: &Literal{base: base{Location: t.loc}, Kind: LitString, Value: t.value}}
	case tokNumber:
		p.next()
		return &Value{base: base{Location: t.loc}, Base: &Literal{base: base{Location: t.loc}, Kind: LitNumber, Value: t.value}}
	case tokPunct:
		switch t.value {
		case "@":
			return p.parseThis()
		case "[":
			return p.parseComputedKey()
		}
	}
	p.unexpected(t)
	return nil
}

// parseComputedKey parses [expr] in key position.
func (p *parser) parseComputedKey() *Value {
	open := p.next()
	p.skipLayout()
	expr := p.parseExpression()
	p.skipLayout()
	p.expectClose(open, "]")
	loc := p.locFrom(open.loc.Start())
	return &Value{base: base{Location: loc}, Base: &ComputedKey{base: base{Location: loc}, Expression: expr}}
}

// parseThis parses @ or @name.
func (p *parser) parseThis() *Value {
	at := p.next()
	this := &Literal{base: base{Location: at.loc}, Kind: LitThis, Value: "this"}
	v := &Value{base: base{Location: at.loc}, Base: this}
	if name := p.peek(); name.kind == tokIdentifier && !name.spaceBefore {
		p.next()
		v.Properties = append(v.Properties, &Access{
			base: base{Location: name.loc},
			Name: &Literal{base: base{Location: name.loc}, Kind: LitProperty, Value: name.value},
		})
		v.Location = span(at.loc.Start(), name.loc.End())
	}
	return v
}

func (p *parser) canStartExpression(t token) bool {
	switch t.kind {
	case tokEOF, tokIndent, tokOutdent, tokTerminator:
		return false
	case tokPunct:
		switch t.value {
		case ")", "]", "}", ",", ";", ":", "=", ".", "?.", "::", "?::", "..", "?":
			return false
		}
		return !assignOps[t.value]
	case tokKeyword:
		switch t.value {
		case "then", "else", "when", "catch", "finally", "by", "in", "of", "and", "or",
			"is", "isnt", "instanceof", "extends", "if", "unless", "while", "until", "for":
			return false
		}
	}
	return true
}

func (p *parser) parsePrimary() Node {
	t := p.peek()
	start := t.loc.Start()
	switch t.kind {
	case tokIdentifier:
		p.next()
		kind := LitIdentifier
		switch t.value {
		case "Infinity":
			kind = LitInfinity
		case "NaN":
			kind = LitNaN
		}
		return &Literal{base: base{Location: t.loc}, Kind: kind, Value: t.value}
	case tokNumber:
		p.next()
		return &Literal{base: base{Location: t.loc}, Kind: LitNumber, Value: t.value}
	case tokString:
		p.next()
		return &Literal{base: base{Location: t.loc}, Kind: LitString, Value: t.value}
	case tokRegex:
		p.next()
		return &Literal{base: base{Location: t.loc}, Kind: LitRegex, Value: t.value}
	case tokJS:
		p.next()
		return &Literal{base: base{Location: t.loc}, Kind: LitJS, Value: t.value}
	case tokKeyword:
		switch t.value {
		case "true", "false", "yes", "no", "on", "off":
			p.next()
			return &Literal{base: base{Location: t.loc}, Kind: LitBool, Value: t.value}
		case "null":
			p.next()
			return &Literal{base: base{Location: t.loc}, Kind: LitNull, Value: t.value}
		case "undefined":
			p.next()
			return &Literal{base: base{Location: t.loc}, Kind: LitUndefined, Value: t.value}
		case "this":
			p.next()
			return &Literal{base: base{Location: t.loc}, Kind: LitThis, Value: t.value}
		case "super":
			p.next()
			return &Literal{base: base{Location: t.loc}, Kind: LitSuper, Value: t.value}
		case "class":
			return p.parseClass()
		case "if", "unless":
			return p.parseIf()
		case "while", "until", "loop":
			return p.parseWhile()
		case "for":
			return p.parseFor(start, nil)
		case "switch":
			return p.parseSwitch()
		case "try":
			return p.parseTry()
		case "return":
			p.next()
			r := &Return{}
			if p.atKind(tokIndent) {
				r.Expression = p.parseAssignValue()
			} else if p.canStartExpression(p.peek()) {
				r.Expression = p.parseExpression()
			}
			r.Location = p.locFrom(start)
			return r
		case "throw":
			p.next()
			expr := p.parseExpression()
			return &Throw{base: base{Location: p.locFrom(start)}, Expression: expr}
		case "break", "continue", "debugger":
			p.next()
			return &StatementLiteral{base: base{Location: t.loc}, Value: t.value}
		case "import", "export":
			return p.parseModule()
		case "new", "do", "not", "typeof", "delete", "yield", "await":
			return p.parseUnary()
		}
	case tokPunct:
		switch t.value {
		case "@":
			return p.parseThis()
		case "(":
			if p.isParamList() {
				return p.parseCode()
			}
			return p.parseParens()
		case "->", "=>":
			return p.parseCode()
		case "[":
			return p.parseArray()
		case "{":
			return p.parseObject()
		}
	}
	p.unexpected(t)
	return nil
}

func (p *parser) parseParens() Node {
	open := p.next()
	saved := p.noIndentCall
	p.noIndentCall = false
	depth := 0
	var exprs []Node
	for {
		for {
			switch {
			case p.atKind(tokTerminator), p.atPunct(";"):
				p.next()
				continue
			case p.atKind(tokIndent):
				depth++
				p.next()
				continue
			case p.atKind(tokOutdent) && depth > 0:
				depth--
				p.next()
				continue
			}
			break
		}
		if p.atPunct(")") || p.atKind(tokEOF) {
			break
		}
		exprs = append(exprs, p.parseStatement())
		if t := p.peek(); !t.isLayout() && !t.is(tokPunct, ";") && !t.is(tokPunct, ")") {
			p.unexpected(t)
		}
	}
	p.expectClose(open, ")")
	p.noIndentCall = saved
	if len(exprs) == 0 {
		p.unexpected(p.toks[p.pos-1])
	}
	return &Parens{base: base{Location: p.locFrom(open.loc.Start())}, Body: blockOf(exprs...)}
}

// isParamList reports whether the `(` at the current position is followed,
// after its matching `)`, by a function arrow.
func (p *parser) isParamList() bool {
	depth := 0
	for i := p.pos; i < len(p.toks); i++ {
		t := p.toks[i]
		if t.kind == tokEOF {
			return false
		}
		if t.kind != tokPunct {
			continue
		}
		switch t.value {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
			if depth == 0 {
				if i+1 >= len(p.toks) {
					return false
				}
				next := p.toks[i+1]
				return next.is(tokPunct, "->") || next.is(tokPunct, "=>")
			}
		}
	}
	return false
}

func (p *parser) parseCode() Node {
	start := p.peek().loc.Start()
	code := &Code{}
	if p.atPunct("(") {
		code.Params = p.parseParams()
	}
	arrow := p.next()
	code.Bound = arrow.value == "=>"

	saved := p.noIndentCall
	p.noIndentCall = false
	switch {
	case p.atKind(tokIndent):
		code.Body = p.parseIndentedBlock()
	case p.canStartExpression(p.peek()) || p.atKeyword("if") || p.atKeyword("unless") ||
		p.atKeyword("while") || p.atKeyword("until") || p.atKeyword("for"):
		code.Body = blockOf(p.parseStatement())
	default:
		code.Body = &Block{base: base{Location: span(p.lastEnd, p.lastEnd)}}
	}
	p.noIndentCall = saved
	code.Location = p.locFrom(start)
	return code
}

func (p *parser) parseParams() []*Param {
	open := p.next()
	var params []*Param
	for {
		p.skipSeparators()
		if p.atPunct(")") || p.atKind(tokEOF) {
			break
		}
		params = append(params, p.parseParam())
		if !p.atPunct(",") && !p.peek().isLayout() && !p.atPunct(")") {
			p.unexpected(p.peek())
		}
	}
	p.expectClose(open, ")")
	return params
}

func (p *parser) parseParam() *Param {
	start := p.peek().loc.Start()
	param := &Param{}
	if p.atPunct("...") {
		p.next()
		param.Splat = true
	}
	t := p.peek()
	switch {
	case t.kind == tokIdentifier:
		p.next()
		param.Name = &Literal{base: base{Location: t.loc}, Kind: LitIdentifier, Value: t.value}
	case t.is(tokPunct, "@"):
		param.Name = p.parseThis()
	case t.is(tokPunct, "{"):
		param.Name = p.parseObject()
	case t.is(tokPunct, "["):
		param.Name = p.parseArray()
	default:
		p.unexpected(t)
	}
	if p.atPunct("...") {
		p.next()
		param.Splat = true
	}
	if p.atPunct("=") {
		p.next()
		param.Value = p.parseExpression()
	}
	param.Location = p.locFrom(start)
	return param
}

func (p *parser) parseArray() Node {
	open := p.next()
	saved := p.noIndentCall
	p.noIndentCall = false
	defer func() { p.noIndentCall = saved }()

	p.skipLayout()
	if p.atPunct("]") {
		p.next()
		return &Arr{base: base{Location: p.locFrom(open.loc.Start())}}
	}
	first := p.parseArg()
	if p.atPunct("..") || p.atPunct("...") {
		r := &Range{From: first, Exclusive: p.next().value == "..."}
		r.To = p.parseExpression()
		p.skipLayout()
		p.expectClose(open, "]")
		r.Location = p.locFrom(open.loc.Start())
		return r
	}
	arr := &Arr{Objects: []Node{first}}
	for {
		p.skipSeparators()
		if p.atPunct("]") || p.atKind(tokEOF) {
			break
		}
		arr.Objects = append(arr.Objects, p.parseArg())
		if !p.atPunct(",") && !p.peek().isLayout() && !p.atPunct("]") {
			p.unexpected(p.peek())
		}
	}
	p.expectClose(open, "]")
	arr.Location = p.locFrom(open.loc.Start())
	return arr
}

func (p *parser) parseObject() Node {
	open := p.next()
	saved := p.noIndentCall
	p.noIndentCall = false
	defer func() { p.noIndentCall = saved }()

	obj := &Obj{}
	for {
		p.skipSeparators()
		if p.atPunct("}") || p.atKind(tokEOF) {
			break
		}
		obj.Properties = append(obj.Properties, p.parseObjectProperty())
		if !p.atPunct(",") && !p.peek().isLayout() && !p.atPunct("}") {
			p.unexpected(p.peek())
		}
	}
	p.expectClose(open, "}")
	obj.Location = p.locFrom(open.loc.Start())
	return obj
}

func (p *parser) parseObjectProperty() Node {
	t := p.peek()
	start := t.loc.Start()
	if t.is(tokPunct, "...") {
		p.next()
		name := p.parseExpression()
		return &Splat{base: base{Location: p.locFrom(start)}, Name: name}
	}
	if t.is(tokPunct, "[") {
		key := p.parseComputedKey()
		p.expectPunct(":")
		value := p.parseAssignValue()
		return &Assign{base: base{Location: p.locFrom(start)}, Variable: key, Value: value, Context: "object"}
	}
	key := p.parseObjectKey()
	if p.atPunct(":") {
		p.next()
		value := p.parseAssignValue()
		return &Assign{base: base{Location: p.locFrom(start)}, Variable: key, Value: value, Context: "object"}
	}
	if p.atPunct("=") {
		p.next()
		value := p.parseExpression()
		return &Assign{base: base{Location: p.locFrom(start)}, Variable: key, Value: value}
	}
	if lit, ok := key.Base.(*Literal); ok && lit.Kind == LitProperty {
		lit.Kind = LitIdentifier
	}
	return key
}

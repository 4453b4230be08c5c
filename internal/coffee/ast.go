package coffee

// Position is a zero-based line/column pair. Columns count runes.
type Position struct {
	Line   int
	Column int
}

// Location is a half-open source span. EndLine is -1 when the producer could
// not determine it; consumers treat that as StartLine.
type Location struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

// Start returns the first position of the span.
func (l Location) Start() Position { return Position{Line: l.StartLine, Column: l.StartColumn} }

// End returns the position just past the span.
func (l Location) End() Position { return Position{Line: l.EndLine, Column: l.EndColumn} }

func span(start, end Position) Location {
	return Location{StartLine: start.Line, StartColumn: start.Column, EndLine: end.Line, EndColumn: end.Column}
}

// Node is implemented by every AST node. The set of implementations is closed
// to this package.
type Node interface {
	Loc() Location
	node()
}

type base struct {
	Location Location
}

func (b *base) Loc() Location { return b.Location }
func (b *base) node()         {}

// LiteralKind distinguishes the literal variants.
type LiteralKind int

const (
	LitIdentifier LiteralKind = iota
	LitProperty
	LitThis
	LitSuper
	LitNumber
	LitString
	LitRegex
	LitBool
	LitNull
	LitUndefined
	LitInfinity
	LitNaN
	LitJS
)

// Literal is a leaf value: identifiers, property names, this, and constants.
type Literal struct {
	base
	Kind  LiteralKind
	Value string
}

// Block is an ordered list of expressions.
type Block struct {
	base
	Expressions []Node
}

// Value wraps a base node with a chain of accessors.
type Value struct {
	base
	Base       Node
	Properties []Node // *Access or *Index
}

// Access is a property access. a::b is represented as Access(prototype), Access(b).
type Access struct {
	base
	Name      *Literal
	Soak      bool
	Shorthand bool
}

// Index is a bracketed lookup or slice.
type Index struct {
	base
	Index Node
	Soak  bool
}

// Obj is an object literal. Properties are *Assign nodes with Context "object"
// for key/value pairs, or *Value / *Splat for shorthand entries.
type Obj struct {
	base
	Properties []Node
	Implicit   bool
}

// ComputedKey is a bracketed object key, as in {[name]: value}.
type ComputedKey struct {
	base
	Expression Node
}

// Arr is an array literal.
type Arr struct {
	base
	Objects []Node
}

// Range is [from..to] or [from...to]; also used for slices.
type Range struct {
	base
	From      Node
	To        Node
	Exclusive bool
}

// Call is an invocation. Variable is nil for bare super calls.
type Call struct {
	base
	Variable Node
	Args     []Node
	Soak     bool
	IsNew    bool
	Do       bool
}

// Param is a function parameter. Name is a *Literal identifier, a *Value for
// this-parameters, or an *Obj/*Arr for destructuring.
type Param struct {
	base
	Name  Node
	Value Node
	Splat bool
}

// Code is a function literal.
type Code struct {
	base
	Params []*Param
	Body   *Block
	Bound  bool
}

// Assign is lhs = rhs. Context is empty for plain assignment, the operator for
// compound assignment, or "object" for object literal properties.
type Assign struct {
	base
	Variable Node
	Value    Node
	Context  string
}

// Class is a class declaration or expression. Variable is nil for anonymous
// classes.
type Class struct {
	base
	Variable *Value
	Parent   Node
	Body     *Block
}

// Op is a unary or binary operation. Second is nil for unary operators.
type Op struct {
	base
	Operator string
	First    Node
	Second   Node
	Postfix  bool
}

// Existence is the postfix a? check.
type Existence struct {
	base
	Expression Node
}

// Parens is a parenthesized block.
type Parens struct {
	base
	Body *Block
}

// Splat is ...x in arguments, arrays and objects.
type Splat struct {
	base
	Name Node
}

// If covers if/unless, postfix conditionals and ternary-style inline ifs.
type If struct {
	base
	Condition Node
	Body      *Block
	Else      *Block
	Unless    bool
	Postfix   bool
}

// While covers while/until/loop and their postfix forms.
type While struct {
	base
	Condition Node
	Guard     Node
	Body      *Block
	Until     bool
	Postfix   bool
}

// For covers for-in, for-of and for-from loops and comprehensions.
type For struct {
	base
	Name    Node
	Index   Node
	Source  Node
	Step    Node
	Guard   Node
	Body    *Block
	Object  bool
	From    bool
	Own     bool
	Postfix bool
}

// SwitchCase is one when-clause.
type SwitchCase struct {
	Conditions []Node
	Body       *Block
}

// Switch is a switch/when/else expression.
type Switch struct {
	base
	Subject   Node
	Cases     []SwitchCase
	Otherwise *Block
}

// Try is try/catch/finally.
type Try struct {
	base
	Attempt  *Block
	ErrorVar Node
	Recovery *Block
	Ensure   *Block
}

// Return is a return statement.
type Return struct {
	base
	Expression Node
}

// Throw is a throw statement.
type Throw struct {
	base
	Expression Node
}

// StatementLiteral is break, continue or debugger.
type StatementLiteral struct {
	base
	Value string
}

// Yield covers yield, yield from and await.
type Yield struct {
	base
	Keyword    string
	Expression Node
}

// ModuleDeclaration is an import or export statement. Exports keep the
// exported expression.
type ModuleDeclaration struct {
	base
	Keyword    string
	Expression Node
}

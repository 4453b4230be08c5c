package symbols

import (
	"github.com/mvp-joe/coffee-symbols/internal/coffee"
)

// ConstructorRule selects how functions assigned to `constructor` are kinded.
type ConstructorRule int

const (
	// ConstructorByName kinds any function assigned to a bare `constructor`
	// key as a Constructor.
	ConstructorByName ConstructorRule = iota
	// ConstructorAsMethod applies the container rule: Method inside a class,
	// Function elsewhere.
	ConstructorAsMethod
)

// Options controls extraction.
type Options struct {
	// IncludeClosures walks function bodies for local declarations. Class
	// bodies are always walked.
	IncludeClosures bool
	Constructors    ConstructorRule
	// AssignmentSuffix appends " = Name" when the right side is a bare
	// identifier or a class. Export alias expansion relies on it: with the
	// suffix, `module.exports.Foo = Foo` also exports the symbols named Foo;
	// without it, only the export assignment itself is exported.
	AssignmentSuffix bool
}

// DefaultOptions returns the options used for document outlines: closures
// walked, constructors kinded by name and the assignment suffix on.
func DefaultOptions() Options {
	return Options{
		IncludeClosures:  true,
		Constructors:     ConstructorByName,
		AssignmentSuffix: true,
	}
}

// container is the enclosing symbol during the walk. The zero value means
// top level.
type container struct {
	name string
	kind Kind
}

type extractor struct {
	opts    Options
	symbols []Symbol
}

// Extract walks root and returns its symbols in document order.
func Extract(root *coffee.Block, opts Options) []Symbol {
	e := &extractor{opts: opts, symbols: []Symbol{}}
	e.block(root, container{})
	return e.symbols
}

func (e *extractor) emit(s Symbol) {
	e.symbols = append(e.symbols, s)
}

func (e *extractor) block(b *coffee.Block, c container) {
	if b == nil {
		return
	}
	if !e.opts.IncludeClosures && c.name != "" && c.kind != KindClass {
		return
	}

	for _, expr := range b.Expressions {
		switch n := expr.(type) {
		case *coffee.Value:
			switch base := n.Base.(type) {
			case *coffee.Call:
				for _, arg := range base.Args {
					if obj := objectOf(arg); obj != nil {
						e.object(obj, c)
					}
				}
			case *coffee.Obj:
				e.object(base, c)
			}
		case *coffee.Assign:
			e.assign(n, c)
		case *coffee.Class:
			e.class(n)
		}
	}
}

func objectOf(n coffee.Node) *coffee.Obj {
	v, ok := n.(*coffee.Value)
	if !ok {
		return nil
	}
	obj, _ := v.Base.(*coffee.Obj)
	return obj
}

func (e *extractor) class(c *coffee.Class) {
	name := className(c)
	e.emit(Symbol{Name: name, Kind: KindClass, Range: rangeOf(c.Loc())})
	e.block(c.Body, container{name: name, kind: KindClass})
}

func (e *extractor) object(obj *coffee.Obj, c container) {
	if c.name == "" {
		c = container{name: AnonymousContainer, kind: KindNamespace}
	}
	for _, prop := range obj.Properties {
		if a, ok := prop.(*coffee.Assign); ok {
			e.assign(a, c)
		}
	}
}

func (e *extractor) assign(a *coffee.Assign, c container) {
	lhs, ok := a.Variable.(*coffee.Value)
	if !ok {
		return
	}
	if _, ok := lhs.Base.(*coffee.Literal); !ok {
		return
	}

	name, kind := e.describe(lhs, a.Value, c)
	e.emit(Symbol{Name: name, Kind: kind, Range: rangeOf(a.Loc()), ContainerName: c.name})

	next := container{name: name, kind: kind}
	if c.name != "" {
		next.name = c.name + "." + name
	}

	switch rhs := a.Value.(type) {
	case *coffee.Value:
		if obj, ok := rhs.Base.(*coffee.Obj); ok {
			e.object(obj, next)
		}
	case *coffee.Code:
		e.block(rhs.Body, next)
	}
}

// describe infers the display name and kind of an assignment from the shapes
// of both sides.
func (e *extractor) describe(lhs *coffee.Value, rhs coffee.Node, c container) (string, Kind) {
	switch r := rhs.(type) {
	case *coffee.Value:
		name := formatAssignee(lhs, r, e.opts.AssignmentSuffix)
		switch base := r.Base.(type) {
		case *coffee.Obj:
			return name, KindNamespace
		case *coffee.Call:
			if isRequire(base) {
				return name, KindPackage
			}
		}
		if thisBased(lhs) {
			return name, KindProperty
		}
		return name, KindVariable

	case *coffee.Code:
		name := formatAssignee(lhs, nil, false) + "(" + formatParams(r.Params) + ")"
		switch {
		case e.opts.Constructors == ConstructorByName && isBareName(lhs, "constructor"):
			return name, KindConstructor
		case c.kind == KindClass:
			return name, KindMethod
		}
		return name, KindFunction

	case *coffee.Class:
		return formatAssignee(lhs, r, e.opts.AssignmentSuffix), KindVariable
	}
	return formatAssignee(lhs, nil, false), KindVariable
}

func isRequire(call *coffee.Call) bool {
	callee, ok := call.Variable.(*coffee.Value)
	if !ok {
		return false
	}
	lit, ok := callee.Base.(*coffee.Literal)
	return ok && lit.Kind == coffee.LitIdentifier && lit.Value == "require"
}

func thisBased(v *coffee.Value) bool {
	lit, ok := v.Base.(*coffee.Literal)
	return ok && lit.Kind == coffee.LitThis
}

func isBareName(v *coffee.Value, name string) bool {
	if len(v.Properties) != 0 {
		return false
	}
	lit, ok := v.Base.(*coffee.Literal)
	return ok && lit.Value == name
}

package symbols

import (
	"strings"

	"github.com/mvp-joe/coffee-symbols/internal/coffee"
)

const (
	// AnonymousContainer names the container of object literals that are not
	// assigned to anything.
	AnonymousContainer = "[anonymous]"

	// AnonymousClass names classes declared without a name.
	AnonymousClass = "(Anonymous Class)"
)

// formatAssignee renders an assignment target. `this` renders as @ and a
// prototype access as ::, other segments are joined with dots. When suffix is
// set, a bare identifier or class on the right is appended as " = Name".
func formatAssignee(v *coffee.Value, rhs coffee.Node, suffix bool) string {
	var segments []*coffee.Literal
	if lit, ok := v.Base.(*coffee.Literal); ok {
		segments = append(segments, lit)
	}
	for _, prop := range v.Properties {
		if access, ok := prop.(*coffee.Access); ok && access.Name != nil {
			segments = append(segments, access.Name)
		}
	}

	var b strings.Builder
	prev := ""
	for i, lit := range segments {
		var tok string
		switch {
		case lit.Kind == coffee.LitThis:
			tok = "@"
		case lit.Value == "prototype":
			tok = "::"
		default:
			if i != 0 && prev != "@" && prev != "::" {
				b.WriteByte('.')
			}
			tok = lit.Value
		}
		b.WriteString(tok)
		prev = tok
	}

	if suffix {
		switch r := rhs.(type) {
		case *coffee.Value:
			if lit, ok := r.Base.(*coffee.Literal); ok && lit.Kind == coffee.LitIdentifier && len(r.Properties) == 0 {
				b.WriteString(" = ")
				b.WriteString(lit.Value)
			}
		case *coffee.Class:
			b.WriteString(" = ")
			b.WriteString(className(r))
		}
	}
	return b.String()
}

func formatParams(params []*coffee.Param) string {
	names := make([]string, 0, len(params))
	for _, p := range params {
		names = append(names, formatParam(p))
	}
	return strings.Join(names, ", ")
}

func formatParam(p *coffee.Param) string {
	switch name := p.Name.(type) {
	case *coffee.Literal:
		if name.Kind == coffee.LitIdentifier {
			return name.Value
		}
	case *coffee.Value:
		return formatAssignee(name, nil, false)
	}
	return "???"
}

// className is the last accessed name of the class variable, else its base
// name.
func className(c *coffee.Class) string {
	if c.Variable == nil {
		return AnonymousClass
	}
	for i := len(c.Variable.Properties) - 1; i >= 0; i-- {
		if access, ok := c.Variable.Properties[i].(*coffee.Access); ok && access.Name != nil {
			return access.Name.Value
		}
	}
	if lit, ok := c.Variable.Base.(*coffee.Literal); ok {
		return lit.Value
	}
	return AnonymousClass
}

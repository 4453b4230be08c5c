package symbols

import (
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"
)

// OutlineNode is a symbol with its nested children, for hierarchical
// document outlines.
type OutlineNode struct {
	Symbol   Symbol         `json:"symbol"`
	Children []*OutlineNode `json:"children,omitempty"`
}

type outlineVertex struct {
	id     int
	symbol Symbol
}

const outlineRoot = 0

// BuildOutline nests a flat symbol list. A symbol's parent is the closest
// earlier symbol whose qualified name equals its container name. Symbols in
// anonymous object literals hang under a synthetic namespace node; other
// unresolved containers fall back to the top level.
func BuildOutline(symbols []Symbol) ([]*OutlineNode, error) {
	g := graph.New(func(v *outlineVertex) int { return v.id }, graph.Directed(), graph.Acyclic())
	if err := g.AddVertex(&outlineVertex{id: outlineRoot}); err != nil {
		return nil, fmt.Errorf("failed to add outline root: %w", err)
	}

	vertices := make(map[int]*outlineVertex, len(symbols))
	latest := make(map[string]int)
	anonymous := -1

	for i, s := range symbols {
		id := i + 1
		v := &outlineVertex{id: id, symbol: s}
		vertices[id] = v
		if err := g.AddVertex(v); err != nil {
			return nil, fmt.Errorf("failed to add symbol %s: %w", s.Name, err)
		}

		parent := outlineRoot
		switch {
		case s.ContainerName == "":
		case latest[s.ContainerName] != 0:
			parent = latest[s.ContainerName]
		case s.ContainerName == AnonymousContainer:
			if anonymous < 0 {
				anonymous = len(symbols) + 1
				placeholder := &outlineVertex{id: anonymous, symbol: Symbol{
					Name:  AnonymousContainer,
					Kind:  KindNamespace,
					Range: s.Range,
				}}
				vertices[anonymous] = placeholder
				if err := g.AddVertex(placeholder); err != nil {
					return nil, fmt.Errorf("failed to add anonymous container: %w", err)
				}
				if err := g.AddEdge(outlineRoot, anonymous); err != nil {
					return nil, fmt.Errorf("failed to link anonymous container: %w", err)
				}
			}
			parent = anonymous
		}

		if err := g.AddEdge(parent, id); err != nil {
			return nil, fmt.Errorf("failed to link symbol %s: %w", s.Name, err)
		}
		latest[s.QualifiedName()] = id
	}

	adjacency, err := g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("failed to read outline graph: %w", err)
	}

	var build func(id int) []*OutlineNode
	build = func(id int) []*OutlineNode {
		children := make([]int, 0, len(adjacency[id]))
		for child := range adjacency[id] {
			children = append(children, child)
		}
		sort.Slice(children, func(a, b int) bool {
			ra, rb := vertices[children[a]].symbol.Range, vertices[children[b]].symbol.Range
			if ra.Start != rb.Start {
				return ra.Before(rb)
			}
			return children[a] < children[b]
		})

		nodes := make([]*OutlineNode, 0, len(children))
		for _, child := range children {
			nodes = append(nodes, &OutlineNode{
				Symbol:   vertices[child].symbol,
				Children: build(child),
			})
		}
		return nodes
	}
	return build(outlineRoot), nil
}

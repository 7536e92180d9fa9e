package graph

import (
	"context"
	"fmt"
)

// End is the terminal transition target.
const End = "end"

// NodeFunc is one processing step. It receives the current state and
// returns a partial update to merge into it.
type NodeFunc func(ctx context.Context, s State) (Update, error)

// BranchFunc picks the next node name from the state after a
// conditional node ran.
type BranchFunc func(s State) string

// Graph is a compiled state machine: named nodes connected by fixed or
// conditional edges, starting at a single entry node. A compiled Graph
// is immutable and safe for concurrent Run calls.
type Graph struct {
	nodes    map[string]NodeFunc
	edges    map[string]string
	branches map[string]BranchFunc
	entry    string
}

// Builder assembles a Graph.
type Builder struct {
	nodes    map[string]NodeFunc
	edges    map[string]string
	branches map[string]BranchFunc
	entry    string
	err      error
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		nodes:    make(map[string]NodeFunc),
		edges:    make(map[string]string),
		branches: make(map[string]BranchFunc),
	}
}

// AddNode registers a named step. Names must be unique and not End.
func (b *Builder) AddNode(name string, fn NodeFunc) *Builder {
	switch {
	case b.err != nil:
	case name == End:
		b.err = fmt.Errorf("node name %q is reserved", End)
	case fn == nil:
		b.err = fmt.Errorf("node %q has nil func", name)
	default:
		if _, dup := b.nodes[name]; dup {
			b.err = fmt.Errorf("duplicate node %q", name)
			return b
		}
		b.nodes[name] = fn
	}
	return b
}

// AddEdge sets the unconditional successor of from.
func (b *Builder) AddEdge(from, to string) *Builder {
	if b.err == nil {
		b.edges[from] = to
	}
	return b
}

// AddConditionalEdge makes from transition to whatever node branch
// returns at run time.
func (b *Builder) AddConditionalEdge(from string, branch BranchFunc) *Builder {
	if b.err == nil {
		b.branches[from] = branch
	}
	return b
}

// SetEntry names the first node to run.
func (b *Builder) SetEntry(name string) *Builder {
	if b.err == nil {
		b.entry = name
	}
	return b
}

// Compile validates the assembled graph. Every node must have exactly
// one outgoing edge (fixed or conditional) and every fixed edge target
// must exist.
func (b *Builder) Compile() (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	if _, ok := b.nodes[b.entry]; !ok {
		return nil, fmt.Errorf("entry node %q not registered", b.entry)
	}
	for name := range b.nodes {
		_, fixed := b.edges[name]
		_, cond := b.branches[name]
		if fixed == cond {
			return nil, fmt.Errorf("node %q needs exactly one outgoing edge", name)
		}
	}
	for from, to := range b.edges {
		if _, ok := b.nodes[from]; !ok {
			return nil, fmt.Errorf("edge from unknown node %q", from)
		}
		if to != End {
			if _, ok := b.nodes[to]; !ok {
				return nil, fmt.Errorf("edge %q -> %q targets unknown node", from, to)
			}
		}
	}
	for from := range b.branches {
		if _, ok := b.nodes[from]; !ok {
			return nil, fmt.Errorf("conditional edge from unknown node %q", from)
		}
	}
	return &Graph{nodes: b.nodes, edges: b.edges, branches: b.branches, entry: b.entry}, nil
}

// Run executes the graph from the entry node until End, merging each
// node's update into the state. The first node error aborts the run and
// is returned alongside the state as of that point. Context
// cancellation is checked before each step.
func (g *Graph) Run(ctx context.Context, s State) (State, error) {
	current := g.entry
	for current != End {
		if err := ctx.Err(); err != nil {
			return s, fmt.Errorf("turn aborted before %q: %w", current, err)
		}

		update, err := g.nodes[current](ctx, s)
		if err != nil {
			return s, fmt.Errorf("node %q: %w", current, err)
		}
		s = Apply(s, update)

		if branch, ok := g.branches[current]; ok {
			next := branch(s)
			if next != End {
				if _, known := g.nodes[next]; !known {
					return s, fmt.Errorf("branch from %q chose unknown node %q", current, next)
				}
			}
			current = next
			continue
		}
		current = g.edges[current]
	}
	return s, nil
}

package layout

import (
	"context"
	"slices"

	"github.com/gridorganize/gridorganize/pkg/graph"
)

// Chains enumerates every directed path from a root (no inputs) to a leaf
// (no outputs). Paths are not merged or memoized: a node with multiple
// children yields one chain per branch, so the result is exponential in
// branching factor. Workflow graphs are small enough that this is acceptable,
// and the column assigner needs every longest chain, not a deduplicated set.
//
// A graph with no roots (a cycle with no entry) yields zero chains. The
// context is checked on every expansion step so callers can bound pathological
// inputs with a timeout.
func Chains(ctx context.Context, adj *Adjacency) ([][]graph.ID, error) {
	type frame struct {
		id   graph.ID
		path []graph.ID
	}

	var chains [][]graph.ID
	var stack []frame
	for _, root := range adj.Roots() {
		stack = append(stack, frame{id: root})
	}
	// Roots were appended in input order; reverse so the first root is
	// expanded first and chain order matches input order.
	slices.Reverse(stack)

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		path := append(slices.Clone(f.path), f.id)
		children := adj.Children(f.id)
		if len(children) == 0 {
			chains = append(chains, path)
			continue
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: children[i], path: path})
		}
	}
	return chains, nil
}

// longestChains returns every chain tied for maximum length, preserving
// enumeration order.
func longestChains(chains [][]graph.ID) [][]graph.ID {
	maxLen := 0
	for _, c := range chains {
		if len(c) > maxLen {
			maxLen = len(c)
		}
	}
	var longest [][]graph.ID
	for _, c := range chains {
		if len(c) == maxLen {
			longest = append(longest, c)
		}
	}
	return longest
}

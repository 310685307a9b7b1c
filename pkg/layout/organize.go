package layout

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/gridorganize/gridorganize/pkg/graph"
)

// StatusSuccess is the status carried by every non-error Result, including
// degenerate-input outcomes such as "nothing to organize".
const StatusSuccess = "success"

// Result is the outcome of one organize run. Positions and Sizes hold an
// entry for every connected node that was processed; unconnected nodes are
// simply absent and must be left untouched by the caller. Heights in Sizes
// are always the input heights; only widths are rewritten to match columns.
type Result struct {
	Status    string                  `json:"status" bson:"status"`
	Message   string                  `json:"message" bson:"message"`
	Positions map[graph.ID][2]float64 `json:"positions" bson:"positions"`
	Sizes     map[graph.ID][2]float64 `json:"sizes,omitempty" bson:"sizes,omitempty"`
}

// Option configures an organize run.
type Option func(*options)

type options struct {
	trace *log.Logger
}

// WithTrace directs human-readable diagnostic lines to the given logger at
// debug level. The default is no tracing.
func WithTrace(l *log.Logger) Option {
	return func(o *options) { o.trace = l }
}

func tracef(l *log.Logger, format string, args ...any) {
	if l != nil {
		l.Debugf(format, args...)
	}
}

// Organize computes the column layout for one graph snapshot. The input is
// never mutated. Degenerate input (no connected nodes, no chains) produces a
// success Result with empty positions; the only error is context
// cancellation.
func Organize(ctx context.Context, g graph.Graph, opts ...Option) (*Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	nodes := g.ConnectedNodes()
	tracef(o.trace, "organize: %d/%d nodes connected, %d links", len(nodes), len(g.Nodes), len(g.Links))

	if len(nodes) == 0 {
		return &Result{
			Status:    StatusSuccess,
			Message:   "No workflow nodes to organize",
			Positions: map[graph.ID][2]float64{},
		}, nil
	}

	components := Components(nodes, g.Links)
	tracef(o.trace, "organize: %d component(s)", len(components))

	if len(components) == 1 {
		return organizeComponent(ctx, nodes, g.Links, 0, o.trace)
	}
	return organizeStacked(ctx, nodes, g.Links, components, o.trace)
}

// organizeComponent lays out one connected component starting at the given Y.
func organizeComponent(ctx context.Context, nodes []graph.Node, links []graph.Link, startY float64, trace *log.Logger) (*Result, error) {
	if len(nodes) == 0 {
		return &Result{
			Status:    StatusSuccess,
			Message:   "No nodes to organize",
			Positions: map[graph.ID][2]float64{},
			Sizes:     map[graph.ID][2]float64{},
		}, nil
	}

	adj := NewAdjacency(nodes, links)
	chains, err := Chains(ctx, adj)
	if err != nil {
		return nil, err
	}
	if len(chains) == 0 {
		// No roots: the component is cyclic with no entry point. Leave it
		// unpositioned rather than guessing.
		tracef(trace, "no complete chains found; nodes may be isolated or circular")
		return &Result{
			Status:    StatusSuccess,
			Message:   "No chains to organize",
			Positions: map[graph.ID][2]float64{},
		}, nil
	}

	org := newOrganizer(adj, links, startY, trace)
	org.anchorChains(longestChains(chains))
	org.placeRemaining()
	org.correctLeftward()
	indices, members := org.compact()
	positions := org.sortColumns(indices, members)

	sizes := make(map[graph.ID][2]float64, len(org.nodeCol))
	for id, c := range org.nodeCol {
		n, _ := adj.Node(id)
		sizes[id] = [2]float64{org.colW[c], n.Size[1]}
	}

	return &Result{
		Status:    StatusSuccess,
		Message:   fmt.Sprintf("Complete - positioned %d nodes", len(positions)),
		Positions: positions,
		Sizes:     sizes,
	}, nil
}

// organizeStacked lays out each component in isolation (from the left margin,
// Y = 0) and stacks them vertically, shortest component first.
func organizeStacked(ctx context.Context, nodes []graph.Node, links []graph.Link, components [][]graph.ID, trace *log.Logger) (*Result, error) {
	type componentResult struct {
		positions map[graph.ID][2]float64
		sizes     map[graph.ID][2]float64
		height    float64
	}

	nodeByID := graph.NodeMap(nodes)
	var results []componentResult

	for i, ids := range components {
		member := make(map[graph.ID]struct{}, len(ids))
		for _, id := range ids {
			member[id] = struct{}{}
		}
		var compNodes []graph.Node
		for _, n := range nodes {
			if _, ok := member[n.ID]; ok {
				compNodes = append(compNodes, n)
			}
		}
		var compLinks []graph.Link
		for _, l := range links {
			if _, ok := member[l.OriginID]; !ok {
				continue
			}
			if _, ok := member[l.TargetID]; !ok {
				continue
			}
			compLinks = append(compLinks, l)
		}

		tracef(trace, "component %d/%d: %d nodes", i+1, len(components), len(compNodes))

		res, err := organizeComponent(ctx, compNodes, compLinks, 0, trace)
		if err != nil {
			return nil, err
		}
		if len(res.Positions) == 0 {
			continue
		}

		minY, maxY := boundsY(res.Positions, nodeByID)
		results = append(results, componentResult{
			positions: res.Positions,
			sizes:     res.Sizes,
			height:    maxY - minY,
		})
	}

	// Shortest component on top; stable so equal heights keep input order.
	sort.SliceStable(results, func(i, j int) bool { return results[i].height < results[j].height })

	positions := make(map[graph.ID][2]float64)
	sizes := make(map[graph.ID][2]float64)
	offset := 0.0

	for _, comp := range results {
		minY, _ := boundsY(comp.positions, nodeByID)
		for id, pos := range comp.positions {
			positions[id] = [2]float64{pos[0], pos[1] - minY + offset}
		}
		for id, size := range comp.sizes {
			sizes[id] = size
		}
		offset += comp.height + componentSpacing
	}

	return &Result{
		Status:    StatusSuccess,
		Message:   fmt.Sprintf("Complete - positioned %d nodes in %d components", len(positions), len(results)),
		Positions: positions,
		Sizes:     sizes,
	}, nil
}

// boundsY returns the minimum node top and maximum node bottom across the
// positioned nodes, using input heights.
func boundsY(positions map[graph.ID][2]float64, nodeByID map[graph.ID]graph.Node) (minY, maxY float64) {
	first := true
	for id, pos := range positions {
		top := pos[1]
		bottom := pos[1] + nodeByID[id].Size[1]
		if first {
			minY, maxY = top, bottom
			first = false
			continue
		}
		if top < minY {
			minY = top
		}
		if bottom > maxY {
			maxY = bottom
		}
	}
	return minY, maxY
}

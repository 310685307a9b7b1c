package layout

import "github.com/gridorganize/gridorganize/pkg/graph"

// Adjacency is the directed adjacency view of one component: an id-keyed node
// table plus children/parents lists. Every node gets an entry in both lists
// even when empty. Links referencing unknown node ids are dropped silently.
type Adjacency struct {
	order    []graph.ID
	nodes    map[graph.ID]graph.Node
	children map[graph.ID][]graph.ID
	parents  map[graph.ID][]graph.ID
}

// NewAdjacency builds the adjacency view for the given nodes and links.
// Iteration helpers preserve node input order so layout output is
// deterministic for a given snapshot.
func NewAdjacency(nodes []graph.Node, links []graph.Link) *Adjacency {
	a := &Adjacency{
		order:    make([]graph.ID, 0, len(nodes)),
		nodes:    make(map[graph.ID]graph.Node, len(nodes)),
		children: make(map[graph.ID][]graph.ID, len(nodes)),
		parents:  make(map[graph.ID][]graph.ID, len(nodes)),
	}
	for _, n := range nodes {
		a.order = append(a.order, n.ID)
		a.nodes[n.ID] = n
		a.children[n.ID] = nil
		a.parents[n.ID] = nil
	}
	for _, l := range links {
		if _, ok := a.nodes[l.OriginID]; !ok {
			continue
		}
		if _, ok := a.nodes[l.TargetID]; !ok {
			continue
		}
		a.children[l.OriginID] = append(a.children[l.OriginID], l.TargetID)
		a.parents[l.TargetID] = append(a.parents[l.TargetID], l.OriginID)
	}
	return a
}

// Node returns the node with the given id and whether it exists.
func (a *Adjacency) Node(id graph.ID) (graph.Node, bool) {
	n, ok := a.nodes[id]
	return n, ok
}

// Children returns the ids this node links to. Read-only view.
func (a *Adjacency) Children(id graph.ID) []graph.ID { return a.children[id] }

// Parents returns the ids that link to this node. Read-only view.
func (a *Adjacency) Parents(id graph.ID) []graph.ID { return a.parents[id] }

// IDs returns all node ids in input order. Read-only view.
func (a *Adjacency) IDs() []graph.ID { return a.order }

// Roots returns the ids of nodes with no parents, in input order.
func (a *Adjacency) Roots() []graph.ID {
	var roots []graph.ID
	for _, id := range a.order {
		if len(a.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

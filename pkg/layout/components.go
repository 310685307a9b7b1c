package layout

import "github.com/gridorganize/gridorganize/pkg/graph"

// Components partitions the nodes into maximal connected subgraphs, treating
// links as undirected. Components are returned in first-seen node order;
// within a component, ids appear in depth-first discovery order. Nodes with
// no links form singleton components.
func Components(nodes []graph.Node, links []graph.Link) [][]graph.ID {
	present := make(map[graph.ID]struct{}, len(nodes))
	for _, n := range nodes {
		present[n.ID] = struct{}{}
	}

	adjacency := make(map[graph.ID][]graph.ID, len(nodes))
	for _, l := range links {
		if _, ok := present[l.OriginID]; !ok {
			continue
		}
		if _, ok := present[l.TargetID]; !ok {
			continue
		}
		adjacency[l.OriginID] = append(adjacency[l.OriginID], l.TargetID)
		adjacency[l.TargetID] = append(adjacency[l.TargetID], l.OriginID)
	}

	visited := make(map[graph.ID]struct{}, len(nodes))
	var components [][]graph.ID

	// Explicit stack instead of recursion; adversarial graphs can be deep.
	for _, n := range nodes {
		if _, seen := visited[n.ID]; seen {
			continue
		}
		var component []graph.ID
		stack := []graph.ID{n.ID}
		visited[n.ID] = struct{}{}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, id)
			for _, neighbor := range adjacency[id] {
				if _, seen := visited[neighbor]; !seen {
					visited[neighbor] = struct{}{}
					stack = append(stack, neighbor)
				}
			}
		}
		components = append(components, component)
	}
	return components
}

package layout

import (
	"math"
	"sort"

	"github.com/gridorganize/gridorganize/pkg/graph"
)

// sortColumns orders the members of each finalized column by the Y positions
// of the ports they connect to and stacks them vertically. Positions are
// rebuilt column by column, left to right, so a node's sort key only sees
// ports of nodes in columns already placed; the leftmost column is sorted in
// input order and then re-sorted against its children's input ports, which
// by that point are all placed.
func (o *organizer) sortColumns(indices []int, members map[int][]graph.ID) map[graph.ID][2]float64 {
	final := make(map[graph.ID][2]float64, len(o.nodeCol))

	for _, idx := range indices {
		ids := append([]graph.ID(nil), members[idx]...)
		keys := make(map[graph.ID][]float64, len(ids))
		for _, id := range ids {
			keys[id] = o.connectedPortYs(id, final)
		}
		sort.SliceStable(ids, func(i, j int) bool {
			return comparePortKeys(keys[ids[i]], keys[ids[j]]) < 0
		})

		o.stackColumn(idx, ids, final)
		members[idx] = ids
	}

	// Re-pass for the first column: order it by where its outputs land.
	if len(indices) >= 2 {
		first := indices[0]
		ids := append([]graph.ID(nil), members[first]...)
		keys := make(map[graph.ID][]float64, len(ids))
		for _, id := range ids {
			keys[id] = o.childInputPortYs(id, final)
		}
		sort.SliceStable(ids, func(i, j int) bool {
			return comparePortKeys(keys[ids[i]], keys[ids[j]]) < 0
		})
		o.stackColumn(first, ids, final)
		members[first] = ids
	}

	return final
}

// stackColumn positions ids top to bottom at the column's final X, advancing
// by node height plus the vertical gap.
func (o *organizer) stackColumn(idx int, ids []graph.ID, out map[graph.ID][2]float64) {
	x := o.colX[idx]
	y := o.startY
	for _, id := range ids {
		n, _ := o.adj.Node(id)
		out[id] = [2]float64{x, y}
		y += n.Size[1] + nodeVerticalGap
	}
}

// connectedPortYs returns the Y positions of every port this node connects
// to, ascending: output ports of placed parents and input ports of placed
// children. Unplaced endpoints contribute nothing.
func (o *organizer) connectedPortYs(id graph.ID, placed map[graph.ID][2]float64) []float64 {
	var ys []float64
	for _, l := range o.links {
		if l.TargetID == id {
			if p, ok := placed[l.OriginID]; ok {
				ys = append(ys, portY(p[1], l.OriginSlot))
			}
		}
		if l.OriginID == id {
			if p, ok := placed[l.TargetID]; ok {
				ys = append(ys, portY(p[1], l.TargetSlot))
			}
		}
	}
	sort.Float64s(ys)
	return ys
}

// childInputPortYs returns the Y positions of the input ports this node's
// outputs feed, ascending.
func (o *organizer) childInputPortYs(id graph.ID, placed map[graph.ID][2]float64) []float64 {
	var ys []float64
	for _, l := range o.links {
		if l.OriginID != id {
			continue
		}
		if p, ok := placed[l.TargetID]; ok {
			ys = append(ys, portY(p[1], l.TargetSlot))
		}
	}
	sort.Float64s(ys)
	return ys
}

// portY approximates a port's Y position from its node's Y and slot index.
func portY(nodeY float64, slot int) float64 {
	return nodeY + portBaseOffset + float64(slot)*portSpacing
}

// comparePortKeys compares two ascending port-Y lists lexicographically,
// treating missing entries as +Inf so nodes with fewer connections sort
// after nodes with more. Returns -1, 0, or 1.
func comparePortKeys(a, b []float64) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		av, bv := math.Inf(1), math.Inf(1)
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	}
	return 0
}

package layout

import (
	"sort"

	"github.com/charmbracelet/log"

	"github.com/gridorganize/gridorganize/pkg/graph"
)

// Layout constants. The port offsets approximate editor geometry (a 30px
// title bar, 20px between ports); they are heuristics, not UI metrics.
const (
	startX          = 100.0 // X of the first column
	columnSpacing   = 100.0 // horizontal gap between columns
	nodeVerticalGap = 60.0  // vertical gap between nodes in a column
	portBaseOffset  = 30.0  // first port's offset from the node top
	portSpacing     = 20.0  // vertical distance between ports

	componentSpacing = 200.0 // vertical gap between stacked components

	// leftwardPassLimit caps the leftward-link correction loop. The fix-up is
	// a heuristic fixed-point search with no convergence guarantee; on cap
	// the best-effort assignment is accepted.
	leftwardPassLimit = 20
)

// organizer holds the working state for laying out one connected component.
// Columns are an ephemeral grouping: an integer index, an X coordinate, and a
// width; indices may be sparse until compaction.
type organizer struct {
	adj    *Adjacency
	links  []graph.Link
	startY float64
	trace  *log.Logger

	colX    map[int]float64
	colW    map[int]float64
	nodeCol map[graph.ID]int
}

func newOrganizer(adj *Adjacency, links []graph.Link, startY float64, trace *log.Logger) *organizer {
	return &organizer{
		adj:     adj,
		links:   links,
		startY:  startY,
		trace:   trace,
		colX:    make(map[int]float64),
		colW:    make(map[int]float64),
		nodeCol: make(map[graph.ID]int),
	}
}

// anchorChains assigns column indices from the longest chains: a node's
// 0-based position within the chain is its column, first assignment wins.
// Column X coordinates accumulate left to right from the start margin.
func (o *organizer) anchorChains(chains [][]graph.ID) {
	for _, chain := range chains {
		for idx, id := range chain {
			if _, assigned := o.nodeCol[id]; assigned {
				continue
			}
			o.nodeCol[id] = idx
			n, _ := o.adj.Node(id)
			if n.Size[0] > o.colW[idx] {
				o.colW[idx] = n.Size[0]
			}
		}
	}

	x := startX
	for _, idx := range o.sortedColumns() {
		o.colX[idx] = x
		x += o.colW[idx] + columnSpacing
	}

	tracef(o.trace, "anchored %d nodes across %d columns from %d longest chains",
		len(o.nodeCol), len(o.colW), len(chains))
}

// placeRemaining assigns a column to every node not on a longest chain.
// Nodes with positioned parents go right of the rightmost parent. Nodes with
// positioned children and no inputs at all go left of the leftmost child
// (clamped at column 0). A node whose only positioned neighbors are children
// but which still has real, unpositioned inputs is deferred to a fresh end
// column instead, as is a node with no positioned neighbors.
func (o *organizer) placeRemaining() {
	for _, id := range o.adj.IDs() {
		if _, assigned := o.nodeCol[id]; assigned {
			continue
		}
		n, _ := o.adj.Node(id)

		parentCols := o.assignedColumns(o.adj.Parents(id))
		childCols := o.assignedColumns(o.adj.Children(id))

		var target int
		switch {
		case len(parentCols) > 0:
			target = maxInt(parentCols) + 1
		case len(childCols) > 0 && len(o.adj.Parents(id)) == 0:
			target = minInt(childCols) - 1
			if target < 0 {
				target = 0
			}
		default:
			target = o.maxColumn() + 1
		}

		o.ensureColumn(target, n.Size[0])
		o.nodeCol[id] = target
		tracef(o.trace, "placed %s(%s) in column %d", n.Type, id, target)
	}
}

// correctLeftward repeatedly searches for links whose target column starts
// left of the origin column's right edge and pulls the targets rightward.
// Stops early once a pass finds no leftward links, otherwise accepts the
// assignment after leftwardPassLimit passes.
func (o *organizer) correctLeftward() {
	for pass := 0; pass < leftwardPassLimit; pass++ {
		o.recomputeWidths()
		offenders := o.leftwardLinks()
		if len(offenders) == 0 {
			tracef(o.trace, "leftward correction converged after %d passes", pass)
			return
		}
		for _, id := range o.adj.IDs() {
			if links := offenders[id]; len(links) > 0 {
				o.pullRight(id, links)
			}
		}
	}
	tracef(o.trace, "leftward correction reached the %d-pass cap; keeping best effort", leftwardPassLimit)
}

// leftwardLinks groups the currently-leftward links by target node.
func (o *organizer) leftwardLinks() map[graph.ID][]graph.Link {
	offenders := make(map[graph.ID][]graph.Link)
	for _, l := range o.links {
		oc, ok := o.nodeCol[l.OriginID]
		if !ok {
			continue
		}
		tc, ok := o.nodeCol[l.TargetID]
		if !ok {
			continue
		}
		if o.colX[tc] < o.colX[oc]+o.colW[oc] {
			offenders[l.TargetID] = append(offenders[l.TargetID], l)
		}
	}
	return offenders
}

// pullRight moves the shared target of the given leftward links to the first
// column beyond the minimum viable index that would not create a new
// leftward link to the node's own children, allocating a fresh column just
// right of the rightmost origin when none fits.
func (o *organizer) pullRight(id graph.ID, links []graph.Link) {
	n, _ := o.adj.Node(id)

	minCol := 0
	maxOriginRight := 0.0
	for _, l := range links {
		oc := o.nodeCol[l.OriginID]
		if oc+1 > minCol {
			minCol = oc + 1
		}
		if right := o.colX[oc] + o.colW[oc]; right > maxOriginRight {
			maxOriginRight = right
		}
	}

	chosen, found := -1, false
	for _, c := range o.sortedColumns() {
		if c <= minCol {
			continue
		}
		if o.wouldBeLeftwardToChildren(id, c, n.Size[0]) {
			continue
		}
		chosen, found = c, true
		break
	}
	if !found {
		chosen = minCol + 1
		for {
			if _, exists := o.colX[chosen]; !exists {
				break
			}
			chosen++
		}
		o.colX[chosen] = maxOriginRight + columnSpacing
		o.colW[chosen] = n.Size[0]
	}

	tracef(o.trace, "leftward target %s(%s): column %d -> %d", n.Type, id, o.nodeCol[id], chosen)
	o.nodeCol[id] = chosen
	if n.Size[0] > o.colW[chosen] {
		o.colW[chosen] = n.Size[0]
	}
}

// wouldBeLeftwardToChildren reports whether parking the node in column c
// would put any of its positioned children at or left of c's right edge.
func (o *organizer) wouldBeLeftwardToChildren(id graph.ID, c int, nodeWidth float64) bool {
	width := o.colW[c]
	if nodeWidth > width {
		width = nodeWidth
	}
	right := o.colX[c] + width
	for _, child := range o.adj.Children(id) {
		cc, ok := o.nodeCol[child]
		if !ok {
			continue
		}
		if o.colX[cc] < right {
			return true
		}
	}
	return false
}

// compact removes empty columns, recomputes widths from actual members, and
// re-spaces surviving columns by cumulative width from the left margin.
// Returns the surviving indices in ascending order and their members in node
// input order.
func (o *organizer) compact() ([]int, map[int][]graph.ID) {
	members := make(map[int][]graph.ID)
	for _, id := range o.adj.IDs() {
		if c, ok := o.nodeCol[id]; ok {
			members[c] = append(members[c], id)
		}
	}

	for idx := range o.colX {
		if len(members[idx]) == 0 {
			delete(o.colX, idx)
			delete(o.colW, idx)
		}
	}

	indices := make([]int, 0, len(members))
	for idx := range members {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	x := startX
	for _, idx := range indices {
		width := 0.0
		for _, id := range members[idx] {
			n, _ := o.adj.Node(id)
			if n.Size[0] > width {
				width = n.Size[0]
			}
		}
		o.colW[idx] = width
		o.colX[idx] = x
		x += width + columnSpacing
	}
	return indices, members
}

// recomputeWidths rebuilds every column's width from its current members.
func (o *organizer) recomputeWidths() {
	for idx := range o.colW {
		o.colW[idx] = 0
	}
	for id, c := range o.nodeCol {
		n, _ := o.adj.Node(id)
		if n.Size[0] > o.colW[c] {
			o.colW[c] = n.Size[0]
		}
	}
}

// ensureColumn creates the column at idx if missing, continuing the
// cumulative-width X chain, or widens it for the new member.
func (o *organizer) ensureColumn(idx int, width float64) {
	if _, exists := o.colX[idx]; exists {
		if width > o.colW[idx] {
			o.colW[idx] = width
		}
		return
	}
	x := startX
	if last := o.maxColumn(); last >= 0 {
		x = o.colX[last] + o.colW[last] + columnSpacing
	}
	o.colX[idx] = x
	o.colW[idx] = width
}

// assignedColumns returns the columns of the ids that already have one.
func (o *organizer) assignedColumns(ids []graph.ID) []int {
	var cols []int
	for _, id := range ids {
		if c, ok := o.nodeCol[id]; ok {
			cols = append(cols, c)
		}
	}
	return cols
}

// maxColumn returns the highest existing column index, or -1 if none exist.
func (o *organizer) maxColumn() int {
	max := -1
	for idx := range o.colX {
		if idx > max {
			max = idx
		}
	}
	return max
}

// sortedColumns returns the existing column indices in ascending order.
func (o *organizer) sortedColumns() []int {
	indices := make([]int, 0, len(o.colW))
	for idx := range o.colW {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices
}

func maxInt(vals []int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minInt(vals []int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Package overlap detects workflow links whose straight-line path crosses
// unrelated nodes and proposes reroute waypoints around them.
//
// Detection is independent of the column layout: it consumes the same graph
// snapshot, approximates each link as a straight segment between its origin
// output port and target input port, and tests that segment against every
// other connected node's bounding box. Links that do overlap get a reroute
// plan: a direction (above or below the obstructing row), a vertical lane
// that is shared only between links whose horizontal spans do not collide,
// and two waypoint positions bracketing the obstruction.
package overlap

import (
	"fmt"
	"math"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/gridorganize/gridorganize/pkg/graph"
)

// Port approximation and reroute geometry. The port offsets mirror the layout
// engine's estimates of editor node geometry.
const (
	portBaseOffset = 30.0 // first port's offset from the node top
	portSpacing    = 20.0 // vertical distance between ports

	laneBaseOffset = 50.0 // first reroute lane's clearance from the row
	laneStep       = 20.0 // clearance added per extra lane
	waypointInset  = 50.0 // waypoint distance from the origin/target edge
)

// StatusSuccess is the status of every non-error Result, whether or not any
// overlaps were found.
const StatusSuccess = "success"

// NodeRef describes one node a link passes through.
type NodeRef struct {
	NodeID   graph.ID   `json:"node_id" bson:"node_id"`
	NodeType string     `json:"node_type" bson:"node_type"`
	NodePos  [2]float64 `json:"node_pos" bson:"node_pos"`
}

// Overlap is the reroute plan for one obstructed link. The extreme nodes are
// the topmost and bottommost nodes across the link's whole horizontal span,
// not just the ones it crosses: the reroute must clear the entire row.
type Overlap struct {
	LinkID           graph.ID   `json:"link_id" bson:"link_id"`
	OriginID         graph.ID   `json:"origin_id" bson:"origin_id"`
	OriginType       string     `json:"origin_type" bson:"origin_type"`
	TargetID         graph.ID   `json:"target_id" bson:"target_id"`
	TargetType       string     `json:"target_type" bson:"target_type"`
	OverlappingNodes []NodeRef  `json:"overlapping_nodes" bson:"overlapping_nodes"`
	RerouteDirection string     `json:"reroute_direction" bson:"reroute_direction"`
	Reroute1Pos      [2]float64 `json:"reroute1_pos" bson:"reroute1_pos"`
	Reroute2Pos      [2]float64 `json:"reroute2_pos" bson:"reroute2_pos"`
	RerouteY         float64    `json:"reroute_y" bson:"reroute_y"`
	UpDistance       float64    `json:"up_distance" bson:"up_distance"`
	DownDistance     float64    `json:"down_distance" bson:"down_distance"`
	HighestNodeID    graph.ID   `json:"highest_node_id" bson:"highest_node_id"`
	HighestNodeType  string     `json:"highest_node_type" bson:"highest_node_type"`
	HighestNodeTop   float64    `json:"highest_node_top" bson:"highest_node_top"`
	LowestNodeID     graph.ID   `json:"lowest_node_id" bson:"lowest_node_id"`
	LowestNodeType   string     `json:"lowest_node_type" bson:"lowest_node_type"`
	LowestNodeBottom float64    `json:"lowest_node_bottom" bson:"lowest_node_bottom"`
}

// Result is the outcome of one detection run.
type Result struct {
	Status   string    `json:"status" bson:"status"`
	Message  string    `json:"message" bson:"message"`
	Overlaps []Overlap `json:"overlaps" bson:"overlaps"`
}

// Option configures a detection run.
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

// =============================================================================
// Detection
// =============================================================================

// candidate is an obstructed link awaiting a reroute decision.
type candidate struct {
	link           graph.Link
	origin, target graph.Node
	from, to       Point
	crossed        []NodeRef
	length         float64
}

// Detect finds every link whose straight segment crosses another connected
// node and plans a reroute for it. The input is never mutated. A graph with
// no links or no connected nodes yields an empty success Result.
func Detect(g graph.Graph, opts ...Option) *Result {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	nodes := g.ConnectedNodes()
	tracef(o.trace, "detect: %d link(s) against %d connected node(s)", len(g.Links), len(nodes))

	if len(g.Links) == 0 || len(nodes) == 0 {
		return &Result{
			Status:   StatusSuccess,
			Message:  "No links to analyze",
			Overlaps: []Overlap{},
		}
	}

	nodeByID := graph.NodeMap(nodes)

	var candidates []candidate
	for _, l := range g.Links {
		origin, ok := nodeByID[l.OriginID]
		if !ok {
			continue
		}
		target, ok := nodeByID[l.TargetID]
		if !ok {
			continue
		}

		from := Point{X: origin.Right(), Y: portY(origin.Pos[1], l.OriginSlot)}
		to := Point{X: target.Pos[0], Y: portY(target.Pos[1], l.TargetSlot)}

		var crossed []NodeRef
		for _, n := range spanNodes(nodes, l, from, to) {
			box := Rect{X: n.Pos[0], Y: n.Pos[1], W: n.Size[0], H: n.Size[1]}
			if SegmentIntersectsRect(from, to, box) {
				crossed = append(crossed, NodeRef{
					NodeID:   n.ID,
					NodeType: n.Type,
					NodePos:  [2]float64{n.Pos[0], n.Pos[1]},
				})
			}
		}
		if len(crossed) == 0 {
			continue
		}

		tracef(o.trace, "link %s crosses %d node(s)", l.ID, len(crossed))
		candidates = append(candidates, candidate{
			link:    l,
			origin:  origin,
			target:  target,
			from:    from,
			to:      to,
			crossed: crossed,
			length:  math.Hypot(to.X-from.X, to.Y-from.Y),
		})
	}

	// Short local reroutes claim lanes before long ones contend for them.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].length < candidates[j].length
	})

	var up, down laneAllocator
	overlaps := make([]Overlap, 0, len(candidates))
	for _, c := range candidates {
		overlaps = append(overlaps, planReroute(nodes, c, &up, &down, o.trace))
	}

	return &Result{
		Status:   StatusSuccess,
		Message:  fmt.Sprintf("Found %d overlapping links", len(overlaps)),
		Overlaps: overlaps,
	}
}

// planReroute picks the direction and lane for one obstructed link and builds
// its Overlap record.
func planReroute(nodes []graph.Node, c candidate, up, down *laneAllocator, trace *log.Logger) Overlap {
	ov := Overlap{
		LinkID:           c.link.ID,
		OriginID:         c.origin.ID,
		OriginType:       c.origin.Type,
		TargetID:         c.target.ID,
		TargetType:       c.target.Type,
		OverlappingNodes: c.crossed,
	}

	// A crossed node is always inside the span, so the extremes exist.
	first := true
	for _, n := range spanNodes(nodes, c.link, c.from, c.to) {
		if first || n.Pos[1] < ov.HighestNodeTop {
			ov.HighestNodeID = n.ID
			ov.HighestNodeType = n.Type
			ov.HighestNodeTop = n.Pos[1]
		}
		if first || n.Bottom() > ov.LowestNodeBottom {
			ov.LowestNodeID = n.ID
			ov.LowestNodeType = n.Type
			ov.LowestNodeBottom = n.Bottom()
		}
		first = false
	}

	s := span{min: math.Min(c.from.X, c.to.X), max: math.Max(c.from.X, c.to.X)}
	upOffset := up.peek(s)
	downOffset := down.peek(s)
	upY := ov.HighestNodeTop - upOffset
	downY := ov.LowestNodeBottom + downOffset

	ov.UpDistance = math.Abs(c.from.Y-upY) + math.Abs(c.to.Y-upY)
	ov.DownDistance = math.Abs(c.from.Y-downY) + math.Abs(c.to.Y-downY)

	if ov.UpDistance < ov.DownDistance {
		ov.RerouteDirection = "up"
		ov.RerouteY = upY
		up.claim(s, upOffset)
	} else {
		ov.RerouteDirection = "down"
		ov.RerouteY = downY
		down.claim(s, downOffset)
	}

	ov.Reroute1Pos = [2]float64{c.from.X + waypointInset, ov.RerouteY}
	ov.Reroute2Pos = [2]float64{c.to.X - waypointInset, ov.RerouteY}

	tracef(trace, "link %s rerouted %s at y=%.1f (up %.1f, down %.1f)",
		c.link.ID, ov.RerouteDirection, ov.RerouteY, ov.UpDistance, ov.DownDistance)
	return ov
}

// spanNodes returns the nodes whose horizontal extent intersects the link's
// span, excluding the link's own endpoints.
func spanNodes(nodes []graph.Node, l graph.Link, from, to Point) []graph.Node {
	minX := math.Min(from.X, to.X)
	maxX := math.Max(from.X, to.X)

	var spanned []graph.Node
	for _, n := range nodes {
		if n.ID == l.OriginID || n.ID == l.TargetID {
			continue
		}
		if n.Right() < minX || n.Pos[0] > maxX {
			continue
		}
		spanned = append(spanned, n)
	}
	return spanned
}

func portY(nodeY float64, slot int) float64 {
	return nodeY + portBaseOffset + float64(slot)*portSpacing
}

// =============================================================================
// Lane Allocation
// =============================================================================

// span is a closed horizontal interval on the canvas.
type span struct {
	min, max float64
}

func (s span) intersects(o span) bool {
	return s.min <= o.max && o.min <= s.max
}

// lane is one reserved vertical clearance level and the horizontal spans of
// the links already routed on it.
type lane struct {
	offset float64
	spans  []span
}

func (l lane) conflicts(s span) bool {
	for _, claimed := range l.spans {
		if claimed.intersects(s) {
			return true
		}
	}
	return false
}

// laneAllocator hands out clearance offsets for one direction. Lanes are
// ordered nearest first; a lane is reusable for a link whose span does not
// collide with any span already routed on it.
type laneAllocator struct {
	lanes []lane
}

// peek returns the offset the span would be routed at, without claiming it.
func (a *laneAllocator) peek(s span) float64 {
	for _, l := range a.lanes {
		if !l.conflicts(s) {
			return l.offset
		}
	}
	return laneBaseOffset + float64(len(a.lanes))*laneStep
}

// claim records the span on the lane with the given offset, creating the lane
// if it is new.
func (a *laneAllocator) claim(s span, offset float64) {
	for i := range a.lanes {
		if a.lanes[i].offset == offset {
			a.lanes[i].spans = append(a.lanes[i].spans, s)
			return
		}
	}
	a.lanes = append(a.lanes, lane{offset: offset, spans: []span{s}})
}

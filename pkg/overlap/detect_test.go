package overlap

import (
	"context"
	"testing"

	"github.com/gridorganize/gridorganize/pkg/graph"
	"github.com/gridorganize/gridorganize/pkg/layout"
)

func node(id graph.ID, x, y, w, h float64) graph.Node {
	return graph.Node{ID: id, Type: "op/" + string(id), Pos: [2]float64{x, y}, Size: [2]float64{w, h}}
}

func link(id, origin graph.ID, oslot int, target graph.ID, tslot int) graph.Link {
	return graph.Link{ID: id, OriginID: origin, OriginSlot: oslot, TargetID: target, TargetSlot: tslot}
}

func TestDetectNoLinks(t *testing.T) {
	res := Detect(graph.Graph{Nodes: []graph.Node{node("a", 0, 0, 50, 50)}})

	if res.Status != StatusSuccess {
		t.Errorf("status = %q, want %q", res.Status, StatusSuccess)
	}
	if res.Message != "No links to analyze" {
		t.Errorf("message = %q", res.Message)
	}
	if res.Overlaps == nil || len(res.Overlaps) != 0 {
		t.Errorf("overlaps = %v, want empty", res.Overlaps)
	}
}

func TestDetectNoOverlaps(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{
			node("a", 0, 0, 50, 50),
			node("b", 200, 0, 50, 50),
		},
		Links: []graph.Link{link("1", "a", 0, "b", 0)},
	}

	res := Detect(g)

	if res.Message != "Found 0 overlapping links" {
		t.Errorf("message = %q", res.Message)
	}
	if len(res.Overlaps) != 0 {
		t.Errorf("overlaps = %v, want none", res.Overlaps)
	}
}

// A straight link from a to c passes through b sitting between them.
func TestDetectObstructedLink(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{
			node("a", 0, 0, 50, 50),
			node("b", 150, 0, 50, 50),
			node("c", 300, 0, 50, 50),
		},
		Links: []graph.Link{
			link("1", "a", 0, "c", 0),
			link("2", "b", 0, "c", 1), // keeps b connected; clear of everything
		},
	}

	res := Detect(g)

	if res.Status != StatusSuccess {
		t.Fatalf("status = %q, want %q", res.Status, StatusSuccess)
	}
	if res.Message != "Found 1 overlapping links" {
		t.Errorf("message = %q", res.Message)
	}
	if len(res.Overlaps) != 1 {
		t.Fatalf("got %d overlaps, want 1", len(res.Overlaps))
	}

	ov := res.Overlaps[0]
	if ov.LinkID != "1" || ov.OriginID != "a" || ov.TargetID != "c" {
		t.Errorf("overlap identifies link %s: %s -> %s", ov.LinkID, ov.OriginID, ov.TargetID)
	}
	if len(ov.OverlappingNodes) != 1 || ov.OverlappingNodes[0].NodeID != "b" {
		t.Fatalf("overlapping nodes = %v, want [b]", ov.OverlappingNodes)
	}
	if ov.OverlappingNodes[0].NodePos != [2]float64{150, 0} {
		t.Errorf("b position = %v", ov.OverlappingNodes[0].NodePos)
	}

	// Ports sit at y=30; routing up clears b's top at -50 (travel 160),
	// routing down clears its bottom at 100 (travel 140). Down wins.
	if ov.UpDistance != 160 || ov.DownDistance != 140 {
		t.Errorf("distances up=%v down=%v, want 160/140", ov.UpDistance, ov.DownDistance)
	}
	if ov.RerouteDirection != "down" || ov.RerouteY != 100 {
		t.Errorf("reroute %s at y=%v, want down at 100", ov.RerouteDirection, ov.RerouteY)
	}
	if ov.Reroute1Pos != [2]float64{100, 100} {
		t.Errorf("reroute1 = %v, want [100 100]", ov.Reroute1Pos)
	}
	if ov.Reroute2Pos != [2]float64{250, 100} {
		t.Errorf("reroute2 = %v, want [250 100]", ov.Reroute2Pos)
	}
	if ov.HighestNodeID != "b" || ov.HighestNodeTop != 0 {
		t.Errorf("highest = %s at %v", ov.HighestNodeID, ov.HighestNodeTop)
	}
	if ov.LowestNodeID != "b" || ov.LowestNodeBottom != 50 {
		t.Errorf("lowest = %s at %v", ov.LowestNodeID, ov.LowestNodeBottom)
	}
}

// Unconnected elements are not obstacles: the same geometry with b
// disconnected reports nothing.
func TestDetectIgnoresUnconnectedNodes(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{
			node("a", 0, 0, 50, 50),
			node("b", 150, 0, 50, 50),
			node("c", 300, 0, 50, 50),
		},
		Links: []graph.Link{link("1", "a", 0, "c", 0)},
	}

	res := Detect(g)

	if len(res.Overlaps) != 0 {
		t.Errorf("overlaps = %v, want none", res.Overlaps)
	}
}

// Two links crossing the same tall node contend for the same direction: the
// second gets the next lane out.
func TestDetectLaneEscalationOnSpanConflict(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{
			node("a", 0, 0, 50, 50),
			node("b", 150, -150, 50, 400),
			node("c", 300, 0, 50, 50),
			node("a2", 0, -100, 50, 50),
			node("c2", 300, -100, 50, 50),
		},
		Links: []graph.Link{
			link("1", "a", 0, "c", 0),
			link("2", "a2", 0, "c2", 0),
			link("3", "b", 0, "c", 1), // keeps b connected
		},
	}

	res := Detect(g)

	if len(res.Overlaps) != 2 {
		t.Fatalf("got %d overlaps, want 2", len(res.Overlaps))
	}
	first, second := res.Overlaps[0], res.Overlaps[1]
	if first.LinkID != "1" || second.LinkID != "2" {
		t.Fatalf("order = %s, %s; want 1, 2", first.LinkID, second.LinkID)
	}

	// Both prefer up. Link 1 claims the 50-offset lane (y = -150 - 50);
	// link 2's span collides with it and escalates to the 70-offset lane.
	if first.RerouteDirection != "up" || first.RerouteY != -200 {
		t.Errorf("link 1 rerouted %s at y=%v, want up at -200", first.RerouteDirection, first.RerouteY)
	}
	if second.RerouteDirection != "up" || second.RerouteY != -220 {
		t.Errorf("link 2 rerouted %s at y=%v, want up at -220", second.RerouteDirection, second.RerouteY)
	}
}

// Obstructed links in distant corridors reuse the same lane offset, and the
// shorter link is planned (and reported) first regardless of input order.
func TestDetectLaneReuseAndShortestFirst(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{
			node("d", 1000, 0, 50, 50),
			node("e", 1150, 0, 50, 50),
			node("f", 1400, 0, 50, 50),
			node("a", 0, 0, 50, 50),
			node("b", 150, 0, 50, 50),
			node("c", 300, 0, 50, 50),
		},
		Links: []graph.Link{
			link("long", "d", 0, "f", 0),
			link("4", "e", 0, "f", 1),
			link("short", "a", 0, "c", 0),
			link("5", "b", 0, "c", 1),
		},
	}

	res := Detect(g)

	if len(res.Overlaps) != 2 {
		t.Fatalf("got %d overlaps, want 2", len(res.Overlaps))
	}
	if res.Overlaps[0].LinkID != "short" || res.Overlaps[1].LinkID != "long" {
		t.Fatalf("order = %s, %s; want short, long", res.Overlaps[0].LinkID, res.Overlaps[1].LinkID)
	}

	// Disjoint spans share the first down lane, so both route at y=100.
	for _, ov := range res.Overlaps {
		if ov.RerouteDirection != "down" || ov.RerouteY != 100 {
			t.Errorf("link %s rerouted %s at y=%v, want down at 100", ov.LinkID, ov.RerouteDirection, ov.RerouteY)
		}
	}
}

// Feeding a computed layout back through detection must never create new
// overlaps: the column layout separates origin and target columns, so every
// pre-existing obstruction is resolved or at worst carried over.
func TestDetectAfterLayoutDoesNotGainOverlaps(t *testing.T) {
	g := graph.Graph{
		Nodes: []graph.Node{
			node("a", 0, 0, 50, 50),
			node("b", 150, 0, 50, 50),
			node("c", 300, 0, 50, 50),
			node("d", 600, 300, 50, 50),
		},
		Links: []graph.Link{
			link("1", "a", 0, "c", 0),
			link("2", "b", 0, "c", 1),
			link("3", "c", 0, "d", 0),
		},
	}

	before := Detect(g)
	if len(before.Overlaps) != 1 {
		t.Fatalf("overlaps before layout = %d, want 1", len(before.Overlaps))
	}

	res, err := layout.Organize(context.Background(), g)
	if err != nil {
		t.Fatalf("Organize error: %v", err)
	}

	organized := graph.Graph{Links: g.Links}
	for _, n := range g.Nodes {
		if pos, ok := res.Positions[n.ID]; ok {
			n.Pos = pos
		}
		if size, ok := res.Sizes[n.ID]; ok {
			n.Size = size
		}
		organized.Nodes = append(organized.Nodes, n)
	}

	after := Detect(organized)
	if len(after.Overlaps) > len(before.Overlaps) {
		t.Errorf("overlaps after layout = %d, want at most %d", len(after.Overlaps), len(before.Overlaps))
	}
	if len(after.Overlaps) != 0 {
		t.Errorf("overlaps after layout = %d, want 0 for this graph", len(after.Overlaps))
	}
}

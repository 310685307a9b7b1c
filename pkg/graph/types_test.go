package graph

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ID
	}{
		{name: "Number", input: `7`, want: "7"},
		{name: "String", input: `"7"`, want: "7"},
		{name: "StringID", input: `"a-b"`, want: "a-b"},
		{name: "LargeNumber", input: `123456789012345678`, want: "123456789012345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			if err := json.Unmarshal([]byte(tt.input), &id); err != nil {
				t.Fatalf("unmarshal %s: %v", tt.input, err)
			}
			if id != tt.want {
				t.Errorf("id = %q, want %q", id, tt.want)
			}
		})
	}
}

func TestIDUnmarshalInvalid(t *testing.T) {
	var id ID
	if err := json.Unmarshal([]byte(`{}`), &id); err == nil {
		t.Error("expected error for object id")
	}
}

func TestConnectedNodes(t *testing.T) {
	g := Graph{
		Nodes: []Node{
			{ID: "a", Size: [2]float64{100, 50}},
			{ID: "note", Size: [2]float64{200, 80}},
			{ID: "b", Size: [2]float64{100, 50}},
		},
		Links: []Link{
			{ID: "1", OriginID: "a", TargetID: "b"},
		},
	}

	got := g.ConnectedNodes()
	if len(got) != 2 {
		t.Fatalf("connected = %d nodes, want 2", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("connected = [%s %s], want [a b]", got[0].ID, got[1].ID)
	}
}

func TestConnectedNodesEmpty(t *testing.T) {
	g := Graph{Nodes: []Node{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	if got := g.ConnectedNodes(); len(got) != 0 {
		t.Errorf("connected = %d nodes, want 0", len(got))
	}
}

func TestReadGraph(t *testing.T) {
	input := `{
		"nodes": [
			{"id": 1, "type": "Loader", "pos": [0, 0], "size": [210, 90]},
			{"id": 2, "type": "Sampler", "pos": [400, 20], "size": [240, 120]}
		],
		"links": [
			{"id": 10, "origin_id": 1, "origin_slot": 0, "target_id": 2, "target_slot": 1}
		]
	}`

	g, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(g.Nodes) != 2 || len(g.Links) != 1 {
		t.Fatalf("got %d nodes, %d links", len(g.Nodes), len(g.Links))
	}
	if g.Nodes[0].ID != "1" || g.Links[0].TargetID != "2" {
		t.Errorf("numeric ids not normalized: node=%q target=%q", g.Nodes[0].ID, g.Links[0].TargetID)
	}
	if g.Links[0].TargetSlot != 1 {
		t.Errorf("target_slot = %d, want 1", g.Links[0].TargetSlot)
	}

	if n := g.Nodes[1]; n.Right() != 640 || n.Bottom() != 140 {
		t.Errorf("edges = (%v, %v), want (640, 140)", n.Right(), n.Bottom())
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	g := Graph{
		Nodes: []Node{{ID: "a", Type: "X", Pos: [2]float64{1, 2}, Size: [2]float64{3, 4}}},
		Links: []Link{{ID: "l", OriginID: "a", TargetID: "a"}},
	}
	data, err := Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := Read(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(back.Nodes) != 1 || back.Nodes[0] != g.Nodes[0] {
		t.Errorf("round trip node = %+v, want %+v", back.Nodes[0], g.Nodes[0])
	}
}

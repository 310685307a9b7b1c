// Package graph defines the wire model for workflow graph snapshots.
//
// A snapshot is the full node/link state of an external graph editor at the
// moment it requests a layout: nodes carry positions and sizes, links connect
// node ports (slot-indexed inputs and outputs). The model is the canonical
// serialization format for API requests, CLI input files, and cached
// responses, so every type carries both json and bson tags.
package graph

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// ID - Node/Link Identifier
// =============================================================================

// ID identifies a node or link. Graph editors serialize ids either as JSON
// numbers or as strings; ID accepts both and normalizes to a string.
type ID string

// String returns the id as a plain string.
func (id ID) String() string { return string(id) }

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty id")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// =============================================================================
// Node
// =============================================================================

// Node is a unit in the workflow graph. Type is an opaque display/category
// label; the layout algorithms never interpret it. Pos is the top-left corner
// [x, y] and Size is [width, height].
type Node struct {
	ID   ID         `json:"id" bson:"id"`
	Type string     `json:"type" bson:"type"`
	Pos  [2]float64 `json:"pos" bson:"pos"`
	Size [2]float64 `json:"size" bson:"size"`
}

// Right returns the x coordinate of the node's right edge.
func (n Node) Right() float64 { return n.Pos[0] + n.Size[0] }

// Bottom returns the y coordinate of the node's bottom edge.
func (n Node) Bottom() float64 { return n.Pos[1] + n.Size[1] }

// =============================================================================
// Link
// =============================================================================

// Link is a directed, slot-addressed connection from an output port on the
// origin node to an input port on the target node.
type Link struct {
	ID         ID  `json:"id" bson:"id"`
	OriginID   ID  `json:"origin_id" bson:"origin_id"`
	OriginSlot int `json:"origin_slot" bson:"origin_slot"`
	TargetID   ID  `json:"target_id" bson:"target_id"`
	TargetSlot int `json:"target_slot" bson:"target_slot"`
}

// =============================================================================
// Graph
// =============================================================================

// Graph is one full editor snapshot: all nodes and all links. Links whose
// endpoints are missing from Nodes are tolerated and dropped by consumers.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Links []Link `json:"links" bson:"links"`
}

// ConnectedNodes returns the nodes that participate in at least one link,
// preserving input order. Notes, groups, and other unconnected elements are
// excluded from all layout processing.
func (g Graph) ConnectedNodes() []Node {
	connected := make(map[ID]struct{}, len(g.Nodes))
	for _, l := range g.Links {
		connected[l.OriginID] = struct{}{}
		connected[l.TargetID] = struct{}{}
	}
	var nodes []Node
	for _, n := range g.Nodes {
		if _, ok := connected[n.ID]; ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// NodeMap returns an id-keyed lookup table for the given nodes.
func NodeMap(nodes []Node) map[ID]Node {
	m := make(map[ID]Node, len(nodes))
	for _, n := range nodes {
		m[n.ID] = n
	}
	return m
}

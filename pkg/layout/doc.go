// Package layout computes a column-based layout for directed workflow graphs.
//
// The engine is a stateless request-scoped computation: given a graph
// snapshot it returns new node positions and resized widths, never mutating
// the input. Disconnected nodes are excluded entirely, disjoint subgraphs are
// laid out independently and stacked vertically, and within one component the
// column structure is anchored on the longest root-to-leaf chains.
//
// # Pipeline
//
// [Organize] runs the full pipeline for a snapshot:
//
//  1. Filter to connected nodes and split into components ([Components]).
//  2. Per component, enumerate all root-to-leaf chains ([Chains]) and anchor
//     columns on the longest ones.
//  3. Place remaining nodes next to their positioned neighbors, then
//     iteratively pull targets of leftward links rightward until no link
//     points backward (or the pass cap is reached).
//  4. Compact columns, space them by cumulative width, and order nodes
//     within each column by the ports they connect to.
//  5. Stack components bottom-up by height, shortest first.
//
// # Degenerate input
//
// Empty snapshots, all-disconnected nodes, and rootless (cyclic) graphs are
// not errors: they produce a success [Result] with empty positions and an
// explanatory message. The only error the pipeline returns is context
// cancellation, which is checked inside the chain enumeration because full
// path enumeration is exponential in branching factor.
package layout

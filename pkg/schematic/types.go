// Package schematic defines the domain records of the metering diagram:
// meters (nodes), their per-diagram placements, directed parent/child
// connections, and the persisted polyline segments that render them.
package schematic

import (
	"fmt"

	"github.com/voltaic-labs/meterboard/pkg/geometry"
)

// LineKind tags the purpose of a persisted line segment.
type LineKind string

const (
	// LineKindConnection marks segments belonging to a meter connection
	// polyline. Other kinds (annotations, guides) belong to sibling editors
	// and are ignored here.
	LineKindConnection LineKind = "connection"
)

// Default rendering attributes for connection segments.
const (
	DefaultSegmentColor   = "#1f6feb"
	DefaultStrokeWidth    = 2.0
	DefaultNodeCardWidth  = 120.0
	DefaultNodeCardHeight = 60.0
)

// Node is a physical or virtual metering point. Identity is immutable once
// created and nodes are never deleted by the editor; removing a node from a
// diagram only removes its NodePosition.
type Node struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	ShopName   string `json:"shop_name,omitempty"`
	ShopNumber string `json:"shop_number,omitempty"`
	Color      string `json:"color,omitempty"`
	FileRef    string `json:"file_ref,omitempty"`
}

// NodePosition places a node on one specific diagram. X and Y are percentages
// of the diagram's pixel dimensions, so placements are stable under resize.
// At most one position may exist per (node, diagram) pair; the store has no
// uniqueness constraint, so writers must probe before inserting.
type NodePosition struct {
	NodeID    string  `json:"node_id"`
	DiagramID string  `json:"diagram_id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	ScaleX    float64 `json:"scale_x,omitempty"`
	ScaleY    float64 `json:"scale_y,omitempty"`
}

// Validate checks the percentage range invariant.
func (p NodePosition) Validate() error {
	if p.NodeID == "" {
		return fmt.Errorf("node position missing node id")
	}
	if p.X < 0 || p.X > 100 || p.Y < 0 || p.Y > 100 {
		return fmt.Errorf("position for node %s out of percent range: (%v, %v)", p.NodeID, p.X, p.Y)
	}
	return nil
}

// Percent returns the position as a percent-space point.
func (p NodePosition) Percent() geometry.Point {
	return geometry.Point{X: p.X, Y: p.Y}
}

// Edge is a directed parent -> child connection: the parent meter is
// electrically upstream of the child. Edges are project-scoped and shared
// across all diagrams of the project.
type Edge struct {
	ParentID  string `json:"parent_id"`
	ChildID   string `json:"child_id"`
	ProjectID string `json:"project_id"`
}

// Key returns the identifying (parent, child) pair.
func (e Edge) Key() EdgeKey {
	return EdgeKey{ParentID: e.ParentID, ChildID: e.ChildID}
}

// EdgeKey identifies an edge and groups its line segments.
type EdgeKey struct {
	ParentID string `json:"parent_id"`
	ChildID  string `json:"child_id"`
}

func (k EdgeKey) String() string {
	return k.ParentID + "->" + k.ChildID
}

// SegmentMeta ties a line segment back to its owning edge and orders it
// within the polyline.
type SegmentMeta struct {
	ParentID string `json:"parent_id"`
	ChildID  string `json:"child_id"`
	Index    int    `json:"index"`
}

// Key returns the edge key the segment belongs to.
func (m SegmentMeta) Key() EdgeKey {
	return EdgeKey{ParentID: m.ParentID, ChildID: m.ChildID}
}

// LineSegment is one straight sub-segment of an edge's rendered polyline,
// diagram-scoped, with endpoints in percent coordinates. An edge drawn with W
// waypoints persists as W+1 segments sharing the same edge key, ordered by
// Meta.Index from 0.
type LineSegment struct {
	ID          string         `json:"id"`
	DiagramID   string         `json:"diagram_id"`
	From        geometry.Point `json:"from"`
	To          geometry.Point `json:"to"`
	Kind        LineKind       `json:"kind"`
	Color       string         `json:"color"`
	StrokeWidth float64        `json:"stroke_width"`
	Meta        SegmentMeta    `json:"meta"`
}

// Diagram is one schematic canvas scoped to a project. Published is the
// toggle surfaced in the page chrome; flipping it writes through to the
// store and rolls back on failure.
type Diagram struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Published bool   `json:"published"`
}

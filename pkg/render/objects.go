// Package render projects the graph's percent-space records into pixel-space
// canvas objects and reconciles drag mutations back into the graph.
package render

import (
	"github.com/voltaic-labs/meterboard/pkg/geometry"
	"github.com/voltaic-labs/meterboard/pkg/schematic"
)

// Object is a canvas primitive. It is a closed set of variants; consumers
// type-switch exhaustively instead of probing ad hoc flags.
type Object interface {
	isRenderObject()
}

// NodeCard is a placed meter's card on the canvas.
type NodeCard struct {
	NodeID    string
	Label     string
	ShopName  string
	Color     string
	Box       geometry.Box
	Draggable bool
	Selected  bool
}

// Segment is one committed polyline segment of a connection.
type Segment struct {
	Key         schematic.EdgeKey
	Index       int
	From        geometry.Point
	To          geometry.Point
	Color       string
	StrokeWidth float64
}

// WaypointMarker is the draggable handle at an interior polyline joint.
// Joint n sits between segment n-1 and segment n; endpoints of the polyline
// are not markers, they belong to the node cards.
type WaypointMarker struct {
	Key       schematic.EdgeKey
	Joint     int
	At        geometry.Point
	Draggable bool
}

// Guide is a transient dashed line: the live preview from the session's last
// committed point to the pointer.
type Guide struct {
	From geometry.Point
	To   geometry.Point
}

// SnapHighlight is the transient ring over a snap point within threshold of
// the pointer, plus the origin marker of an active session.
type SnapHighlight struct {
	NodeID string
	Side   geometry.Side
	At     geometry.Point
}

func (NodeCard) isRenderObject()       {}
func (Segment) isRenderObject()        {}
func (WaypointMarker) isRenderObject() {}
func (Guide) isRenderObject()          {}
func (SnapHighlight) isRenderObject()  {}

// Layers are pure render filters over the same underlying data; toggling one
// never mutates the graph.
type Layers struct {
	Nodes       bool
	Connections bool
	Background  bool
}

// AllLayers returns every layer visible.
func AllLayers() Layers {
	return Layers{Nodes: true, Connections: true, Background: true}
}

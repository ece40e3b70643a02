// Package editor routes user input to the canvas, the drawing session and
// the graph. It owns the active tool mode and the in-flight drag state; it
// holds no schematic data of its own.
package editor

import (
	"fmt"

	"github.com/voltaic-labs/meterboard/pkg/drawing"
	"github.com/voltaic-labs/meterboard/pkg/geometry"
	"github.com/voltaic-labs/meterboard/pkg/graph"
	"github.com/voltaic-labs/meterboard/pkg/render"
	"github.com/voltaic-labs/meterboard/pkg/schematic"
)

// Mode is the active tool.
type Mode string

const (
	ModeSelect    Mode = "select"
	ModePlaceNode Mode = "place-node"
	ModeConnect   Mode = "connect"
)

// DefaultWaypointHitRadius is the pixel radius for grabbing a joint marker.
const DefaultWaypointHitRadius = 10.0

// PlacementHandler is called when a place-node click lands on empty canvas.
// The point is in percent space. The host decides which meter the new card
// represents (typically via a picker over unplaced nodes) and writes the
// position; the controller refreshes the canvas afterwards.
type PlacementHandler func(at geometry.Point) error

// Event is a user input routed through Dispatch.
type Event interface{ isEditorEvent() }

// PointerDown is a press on the canvas, in pixel coordinates. AxisSnap and
// Snap45 carry the state of the modifier keys at press time.
type PointerDown struct {
	At       geometry.Point
	AxisSnap bool
	Snap45   bool
}

// PointerMove is pointer motion, pressed or not.
type PointerMove struct {
	At       geometry.Point
	AxisSnap bool
	Snap45   bool
}

// PointerUp is the release ending a drag.
type PointerUp struct {
	At geometry.Point
}

// DeletePressed is the Delete or Backspace key.
type DeletePressed struct{}

func (PointerDown) isEditorEvent()   {}
func (PointerMove) isEditorEvent()   {}
func (PointerUp) isEditorEvent()     {}
func (DeletePressed) isEditorEvent() {}

// Controller is the single entry point for canvas input. One controller per
// open diagram; not safe for concurrent use, same as the canvas it drives.
type Controller struct {
	mode    Mode
	canvas  *render.Canvas
	graph   *graph.Graph
	session *drawing.Session
	place   PlacementHandler

	snapThreshold  float64
	axisThreshold  float64
	waypointRadius float64
	dragNodeID     string
	dragKey        schematic.EdgeKey
	dragJoint      int
	draggingJoint  bool
}

// NewController starts in select mode with the stock snap thresholds.
func NewController(c *render.Canvas, g *graph.Graph, place PlacementHandler) *Controller {
	return &Controller{
		mode:           ModeSelect,
		canvas:         c,
		graph:          g,
		session:        drawing.NewSession(),
		place:          place,
		snapThreshold:  geometry.DefaultSnapThreshold,
		axisThreshold:  geometry.DefaultAxisThreshold,
		waypointRadius: DefaultWaypointHitRadius,
	}
}

// Mode returns the active tool.
func (ct *Controller) Mode() Mode { return ct.mode }

// Session exposes the drawing session for rendering transients.
func (ct *Controller) Session() *drawing.Session { return ct.session }

// SetMode switches tools. Any in-flight connection gesture or drag is
// cancelled; half-drawn connections never survive a tool change.
func (ct *Controller) SetMode(m Mode) {
	if m == ct.mode {
		return
	}
	ct.session.Cancel()
	ct.canvas.ClearHover()
	ct.dragNodeID = ""
	ct.draggingJoint = false
	ct.mode = m
}

// Dispatch routes one input event according to the active tool. Errors are
// advisory: the controller is already back in a consistent state when one is
// returned, the caller only needs to surface it.
func (ct *Controller) Dispatch(ev Event) error {
	switch ct.mode {
	case ModeConnect:
		return ct.dispatchConnect(ev)
	case ModePlaceNode:
		return ct.dispatchPlace(ev)
	default:
		return ct.dispatchSelect(ev)
	}
}

func (ct *Controller) dispatchConnect(ev Event) error {
	switch e := ev.(type) {
	case PointerDown:
		return ct.connectClick(e)
	case PointerMove:
		if ct.session.Active() {
			ct.session.PointerMoved(ct.adjust(e.At, ct.session.OriginID(), e.AxisSnap, e.Snap45))
		}
		ct.trackHover(e.At)
		return nil
	case DeletePressed:
		ct.session.Cancel()
		return nil
	default:
		return nil
	}
}

func (ct *Controller) connectClick(e PointerDown) error {
	at := ct.adjust(e.At, ct.session.OriginID(), e.AxisSnap, e.Snap45)
	snap, onSnap := geometry.NearestSnapPoint(e.At, ct.canvas.SnapCandidates(), ct.snapThreshold)

	if !ct.session.Active() {
		if !onSnap {
			// Clicks on empty canvas before a gesture starts do nothing.
			return nil
		}
		return ct.session.Start(snap.NodeID, snap.Point)
	}

	if !onSnap {
		return ct.session.AddWaypoint(at)
	}

	result, err := ct.session.Complete(snap.NodeID, snap.Point)
	if err != nil {
		// Self-loop attempt: the session stays routable.
		return err
	}

	vp := ct.canvas.Viewport()
	percent := make([]geometry.Point, len(result.Points))
	for i, p := range result.Points {
		percent[i] = vp.ToPercent(p)
	}
	if err := ct.graph.AddEdgeWithSegments(result.ParentID, result.ChildID, percent); err != nil {
		return fmt.Errorf("failed to create connection: %w", err)
	}
	ct.canvas.Refresh()
	return nil
}

func (ct *Controller) dispatchPlace(ev Event) error {
	e, ok := ev.(PointerDown)
	if !ok {
		return nil
	}
	if _, hit := ct.canvas.NodeAt(e.At); hit {
		// Placing on top of an existing card is ignored.
		return nil
	}
	if ct.place == nil {
		return nil
	}
	if err := ct.place(ct.canvas.Viewport().ToPercent(e.At)); err != nil {
		return fmt.Errorf("failed to place node: %w", err)
	}
	ct.canvas.Refresh()
	return nil
}

func (ct *Controller) dispatchSelect(ev Event) error {
	switch e := ev.(type) {
	case PointerDown:
		if key, joint, ok := ct.canvas.WaypointAt(e.At, ct.waypointRadius); ok {
			ct.dragKey = key
			ct.dragJoint = joint
			ct.draggingJoint = true
			return nil
		}
		if id, ok := ct.canvas.NodeAt(e.At); ok {
			ct.canvas.Select(id)
			ct.dragNodeID = id
			return nil
		}
		ct.canvas.Select("")
		return nil

	case PointerMove:
		if ct.draggingJoint {
			return ct.canvas.MoveWaypoint(ct.dragKey, ct.dragJoint, ct.adjust(e.At, "", e.AxisSnap, false))
		}
		if ct.dragNodeID != "" {
			return ct.canvas.MoveNode(ct.dragNodeID, ct.adjust(e.At, ct.dragNodeID, e.AxisSnap, false))
		}
		return nil

	case PointerUp:
		if ct.draggingJoint {
			ct.draggingJoint = false
			return nil
		}
		if id := ct.dragNodeID; id != "" {
			ct.dragNodeID = ""
			if err := ct.canvas.ReleaseNode(id); err != nil {
				return fmt.Errorf("failed to save position: %w", err)
			}
		}
		return nil

	case DeletePressed:
		id := ct.canvas.Selected()
		if id == "" {
			return nil
		}
		if err := ct.canvas.RemoveNode(id); err != nil {
			return fmt.Errorf("failed to remove node: %w", err)
		}
		return nil

	default:
		return nil
	}
}

// SaveWaypoints persists pending joint edits. Waypoint drags only touch the
// canvas working copy until this is called.
func (ct *Controller) SaveWaypoints() error {
	return ct.canvas.CommitWaypoints()
}

// RemoveConnection deletes a connection and its polyline.
func (ct *Controller) RemoveConnection(key schematic.EdgeKey) error {
	if err := ct.graph.RemoveEdge(key.ParentID, key.ChildID); err != nil {
		return err
	}
	ct.canvas.Refresh()
	return nil
}

// trackHover keeps the highlight ring on whichever snap point the raw
// pointer is within threshold of, and clears it otherwise.
func (ct *Controller) trackHover(at geometry.Point) {
	if snap, ok := geometry.NearestSnapPoint(at, ct.canvas.SnapCandidates(), ct.snapThreshold); ok {
		ct.canvas.SetHover(snap)
	} else {
		ct.canvas.ClearHover()
	}
}

// adjust applies the optional drafting aids to a pointer point. Axis
// alignment pulls each axis independently onto nearby card centers; Snap45
// constrains the segment from the session's last committed point to 45
// degree increments. excludeID keeps a dragged card from aligning to itself.
func (ct *Controller) adjust(p geometry.Point, excludeID string, axisSnap, snap45 bool) geometry.Point {
	out := p
	if axisSnap {
		out = geometry.NearestAxisAlignment(out, ct.canvas.NodeCenters(), excludeID, ct.axisThreshold)
	}
	if snap45 {
		if anchor, ok := ct.session.Anchor(); ok {
			out = geometry.Snap45(anchor, out)
		}
	}
	return out
}

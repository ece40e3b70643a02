package render

import (
	"fmt"
	"sort"

	"github.com/voltaic-labs/meterboard/pkg/drawing"
	"github.com/voltaic-labs/meterboard/pkg/geometry"
	"github.com/voltaic-labs/meterboard/pkg/graph"
	"github.com/voltaic-labs/meterboard/pkg/schematic"
)

// Canvas is the pixel-space working state for one diagram: projected node
// boxes plus a working copy of every polyline. Waypoint drags mutate only the
// working copy; coordinates flow back to the graph (and asynchronously to the
// store) on explicit save, never per drag frame.
type Canvas struct {
	graph    *graph.Graph
	viewport geometry.Viewport
	layers   Layers

	boxes    map[string]geometry.Box
	lines    map[schematic.EdgeKey][]schematic.LineSegment // pixel-space copies
	dirty    map[schematic.EdgeKey]bool
	selected string

	hover    geometry.SnapPoint
	hasHover bool
}

// NewCanvas builds a canvas over a loaded graph.
func NewCanvas(g *graph.Graph, vp geometry.Viewport) *Canvas {
	c := &Canvas{
		graph:    g,
		viewport: vp,
		layers:   AllLayers(),
	}
	c.Refresh()
	return c
}

// Refresh rebuilds the pixel-space working state from the graph, discarding
// any unsaved waypoint edits.
func (c *Canvas) Refresh() {
	c.boxes = make(map[string]geometry.Box)
	for _, pos := range c.graph.Positions() {
		px := c.viewport.ToPixels(pos.Percent())
		w := schematic.DefaultNodeCardWidth
		h := schematic.DefaultNodeCardHeight
		if pos.ScaleX > 0 {
			w *= pos.ScaleX
		}
		if pos.ScaleY > 0 {
			h *= pos.ScaleY
		}
		c.boxes[pos.NodeID] = geometry.Box{
			Left:   px.X - w/2,
			Top:    px.Y - h/2,
			Width:  w,
			Height: h,
		}
	}

	c.lines = make(map[schematic.EdgeKey][]schematic.LineSegment)
	for _, edge := range c.graph.Edges() {
		segs := c.graph.Segments(edge.Key())
		if len(segs) == 0 {
			continue
		}
		pixel := make([]schematic.LineSegment, len(segs))
		for i, seg := range segs {
			p := seg
			p.From = c.viewport.ToPixels(seg.From)
			p.To = c.viewport.ToPixels(seg.To)
			pixel[i] = p
		}
		c.lines[edge.Key()] = pixel
	}
	c.dirty = make(map[schematic.EdgeKey]bool)
}

// Resize reprojects the canvas for new pixel dimensions. Percent storage
// makes this lossless.
func (c *Canvas) Resize(vp geometry.Viewport) {
	c.viewport = vp
	c.Refresh()
}

// Viewport returns the current pixel dimensions.
func (c *Canvas) Viewport() geometry.Viewport { return c.viewport }

// SetLayers replaces the visibility filters.
func (c *Canvas) SetLayers(l Layers) { c.layers = l }

// Layers returns the current visibility filters.
func (c *Canvas) Layers() Layers { return c.layers }

// SetHover marks the snap point currently under the pointer. The highlight
// ring renders over it until the hover is cleared or moves elsewhere.
func (c *Canvas) SetHover(sp geometry.SnapPoint) {
	c.hover = sp
	c.hasHover = true
}

// ClearHover drops the hover highlight.
func (c *Canvas) ClearHover() {
	c.hover = geometry.SnapPoint{}
	c.hasHover = false
}

// Select marks one node card selected; empty clears the selection.
func (c *Canvas) Select(nodeID string) { c.selected = nodeID }

// Selected returns the selected node id, or "".
func (c *Canvas) Selected() string { return c.selected }

// NodeBox returns a placed node's pixel bounding box.
func (c *Canvas) NodeBox(nodeID string) (geometry.Box, bool) {
	b, ok := c.boxes[nodeID]
	return b, ok
}

// placedNodeIDs returns placed node ids in stable order. Snap-point searches
// depend on this ordering for deterministic tie-breaks.
func (c *Canvas) placedNodeIDs() []string {
	ids := make([]string, 0, len(c.boxes))
	for id := range c.boxes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SnapCandidates returns every snap point of every placed node, in stable
// node order then top/right/bottom/left.
func (c *Canvas) SnapCandidates() []geometry.SnapPoint {
	var out []geometry.SnapPoint
	for _, id := range c.placedNodeIDs() {
		pts := geometry.SnapPoints(id, c.boxes[id])
		out = append(out, pts[:]...)
	}
	return out
}

// NodeCenters returns every placed node's center for axis-alignment search.
func (c *Canvas) NodeCenters() []geometry.NodeCenter {
	var out []geometry.NodeCenter
	for _, id := range c.placedNodeIDs() {
		out = append(out, geometry.NodeCenter{NodeID: id, Point: c.boxes[id].Center()})
	}
	return out
}

// NodeAt returns the placed node whose card contains the pixel point.
func (c *Canvas) NodeAt(p geometry.Point) (string, bool) {
	for _, id := range c.placedNodeIDs() {
		b := c.boxes[id]
		if p.X >= b.Left && p.X <= b.Left+b.Width && p.Y >= b.Top && p.Y <= b.Top+b.Height {
			return id, true
		}
	}
	return "", false
}

// WaypointAt returns the interior joint marker within threshold of the pixel
// point.
func (c *Canvas) WaypointAt(p geometry.Point, threshold float64) (schematic.EdgeKey, int, bool) {
	keys := make([]schematic.EdgeKey, 0, len(c.lines))
	for key := range c.lines {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	for _, key := range keys {
		segs := c.lines[key]
		for joint := 1; joint < len(segs); joint++ {
			if geometry.Distance(p, segs[joint].From) <= threshold {
				return key, joint, true
			}
		}
	}
	return schematic.EdgeKey{}, 0, false
}

// MoveWaypoint drags interior joint n of an edge's polyline: only the two
// adjacent segments' shared endpoint moves, and only in the working copy.
func (c *Canvas) MoveWaypoint(key schematic.EdgeKey, joint int, to geometry.Point) error {
	segs, ok := c.lines[key]
	if !ok {
		return fmt.Errorf("no polyline for connection %s", key)
	}
	if joint < 1 || joint >= len(segs) {
		return fmt.Errorf("joint %d out of range for connection %s", joint, key)
	}
	segs[joint-1].To = to
	segs[joint].From = to
	c.dirty[key] = true
	return nil
}

// CommitWaypoints converts every edited polyline back to percent space and
// writes it through the graph. This is the explicit save path.
func (c *Canvas) CommitWaypoints() error {
	keys := make([]schematic.EdgeKey, 0, len(c.dirty))
	for key := range c.dirty {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	for _, key := range keys {
		pixel := c.lines[key]
		percent := make([]schematic.LineSegment, len(pixel))
		for i, seg := range pixel {
			p := seg
			p.From = c.viewport.ToPercent(seg.From)
			p.To = c.viewport.ToPercent(seg.To)
			percent[i] = p
		}
		if err := c.graph.UpdateSegments(key, percent); err != nil {
			return err
		}
		delete(c.dirty, key)
	}
	return nil
}

// DirtyWaypoints reports whether unsaved waypoint edits exist.
func (c *Canvas) DirtyWaypoints() bool { return len(c.dirty) > 0 }

// MoveNode updates a card's pixel position during a live drag. Store state is
// untouched until ReleaseNode.
func (c *Canvas) MoveNode(nodeID string, center geometry.Point) error {
	b, ok := c.boxes[nodeID]
	if !ok {
		return fmt.Errorf("node %s is not placed", nodeID)
	}
	b.Left = center.X - b.Width/2
	b.Top = center.Y - b.Height/2
	c.boxes[nodeID] = b
	return nil
}

// ReleaseNode finishes a card drag: the pixel center converts back to
// percent and upserts through the graph.
func (c *Canvas) ReleaseNode(nodeID string) error {
	b, ok := c.boxes[nodeID]
	if !ok {
		return fmt.Errorf("node %s is not placed", nodeID)
	}
	pct := c.viewport.ToPercent(b.Center())
	return c.graph.UpsertPosition(nodeID, pct.X, pct.Y)
}

// RemoveNode drops a card from the canvas and its position from the graph.
func (c *Canvas) RemoveNode(nodeID string) error {
	if err := c.graph.RemovePosition(nodeID); err != nil {
		return err
	}
	delete(c.boxes, nodeID)
	if c.selected == nodeID {
		c.selected = ""
	}
	return nil
}

// Objects projects the canvas into render objects: committed state first,
// then the transient artifacts of an in-progress drawing session. Hidden
// layers are filtered here and only here.
func (c *Canvas) Objects(sess *drawing.Session, nodesDraggable bool) []Object {
	var out []Object

	if c.layers.Nodes {
		for _, id := range c.placedNodeIDs() {
			node, _ := c.graph.Node(id)
			out = append(out, NodeCard{
				NodeID:    id,
				Label:     node.Label,
				ShopName:  node.ShopName,
				Color:     node.Color,
				Box:       c.boxes[id],
				Draggable: nodesDraggable,
				Selected:  id == c.selected,
			})
		}
	}

	if c.layers.Connections {
		keys := make([]schematic.EdgeKey, 0, len(c.lines))
		for key := range c.lines {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

		for _, key := range keys {
			segs := c.lines[key]
			for _, seg := range segs {
				out = append(out, Segment{
					Key:         key,
					Index:       seg.Meta.Index,
					From:        seg.From,
					To:          seg.To,
					Color:       seg.Color,
					StrokeWidth: seg.StrokeWidth,
				})
			}
			for joint := 1; joint < len(segs); joint++ {
				out = append(out, WaypointMarker{
					Key:       key,
					Joint:     joint,
					At:        segs[joint].From,
					Draggable: nodesDraggable,
				})
			}
		}
	}

	if sess != nil && sess.Active() {
		if from, to, ok := sess.Preview(); ok {
			out = append(out, Guide{From: from, To: to})
		}
		if anchor, ok := sess.Anchor(); ok && len(sess.Waypoints()) == 0 {
			// Origin marker while no waypoint is committed yet.
			out = append(out, SnapHighlight{NodeID: sess.OriginID(), At: anchor})
		}
	}

	if c.hasHover {
		out = append(out, SnapHighlight{NodeID: c.hover.NodeID, At: c.hover.Point})
	}

	return out
}

// Package graph holds the in-memory mirror of one diagram's schematic
// collections and keeps it synchronized with the persistence store. Mutations
// apply optimistically for immediate canvas feedback and flow to the store
// through a Syncer in gesture-completion order.
//
// The Graph is mutated only from the UI event loop; the Syncer goroutine
// touches the store, never the in-memory collections.
package graph

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"

	"github.com/voltaic-labs/meterboard/pkg/geometry"
	"github.com/voltaic-labs/meterboard/pkg/schematic"
	"github.com/voltaic-labs/meterboard/pkg/store"
)

var (
	// ErrDuplicateEdge signals that a (parent, child) connection already
	// exists; the store is left untouched.
	ErrDuplicateEdge = errors.New("connection already exists")

	// ErrSelfLoop signals an attempt to connect a meter to itself.
	ErrSelfLoop = errors.New("cannot connect a meter to itself")

	// ErrTooFewPoints signals a polyline with fewer than two points.
	ErrTooFewPoints = errors.New("connection needs at least two points")

	// ErrUnknownEdge signals a delete for a connection that does not exist.
	ErrUnknownEdge = errors.New("connection not found")

	// ErrUnknownPosition signals a removal for a node that is not placed on
	// the diagram.
	ErrUnknownPosition = errors.New("node is not placed on this diagram")
)

// Store is the persistence surface the graph consumes. *store.Store satisfies
// it; tests substitute fakes.
type Store interface {
	ListNodes(ctx context.Context) ([]schematic.Node, error)
	ListPositions(ctx context.Context, diagramID string) ([]schematic.NodePosition, error)
	ListEdges(ctx context.Context, projectID string) ([]schematic.Edge, error)
	ListSegments(ctx context.Context, diagramID string) ([]schematic.LineSegment, error)
	GetDiagram(ctx context.Context, id string) (schematic.Diagram, error)

	GetPosition(ctx context.Context, nodeID, diagramID string) (schematic.NodePosition, error)
	InsertPosition(ctx context.Context, p schematic.NodePosition) error
	UpdatePosition(ctx context.Context, p schematic.NodePosition) error
	DeletePosition(ctx context.Context, nodeID, diagramID string) error

	InsertEdge(ctx context.Context, e schematic.Edge) error
	DeleteEdge(ctx context.Context, parentID, childID string) error

	InsertSegments(ctx context.Context, segments []schematic.LineSegment) error
	UpdateSegmentEndpoints(ctx context.Context, seg schematic.LineSegment) error

	SetPublished(ctx context.Context, diagramID string, published bool) error
	AppendEdit(ctx context.Context, e store.EditEntry) error
}

// Graph mirrors the four schematic collections for one open diagram.
type Graph struct {
	diagramID string
	projectID string

	nodes     map[string]schematic.Node
	positions map[string]schematic.NodePosition
	edges     map[schematic.EdgeKey]schematic.Edge
	segments  map[schematic.EdgeKey][]schematic.LineSegment
	diagram   schematic.Diagram

	store    Store
	syncer   *Syncer
	notifier Notifier
}

// New creates an empty graph for the given diagram. Call Load to rehydrate.
func New(s Store, syncer *Syncer, notifier Notifier, diagramID, projectID string) *Graph {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Graph{
		diagramID: diagramID,
		projectID: projectID,
		nodes:     make(map[string]schematic.Node),
		positions: make(map[string]schematic.NodePosition),
		edges:     make(map[schematic.EdgeKey]schematic.Edge),
		segments:  make(map[schematic.EdgeKey][]schematic.LineSegment),
		store:     s,
		syncer:    syncer,
		notifier:  notifier,
	}
}

// Load replaces every in-memory collection with the store's current contents.
// It is both the open-diagram path and the desynchronization recovery path.
func (g *Graph) Load(ctx context.Context) error {
	nodes, err := g.store.ListNodes(ctx)
	if err != nil {
		return fmt.Errorf("failed to load nodes: %w", err)
	}
	positions, err := g.store.ListPositions(ctx, g.diagramID)
	if err != nil {
		return fmt.Errorf("failed to load positions: %w", err)
	}
	edges, err := g.store.ListEdges(ctx, g.projectID)
	if err != nil {
		return fmt.Errorf("failed to load edges: %w", err)
	}
	segments, err := g.store.ListSegments(ctx, g.diagramID)
	if err != nil {
		return fmt.Errorf("failed to load segments: %w", err)
	}
	diagram, err := g.store.GetDiagram(ctx, g.diagramID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to load diagram: %w", err)
	}

	g.nodes = make(map[string]schematic.Node, len(nodes))
	for _, n := range nodes {
		g.nodes[n.ID] = n
	}
	g.positions = make(map[string]schematic.NodePosition, len(positions))
	for _, p := range positions {
		g.positions[p.NodeID] = p
	}
	g.edges = make(map[schematic.EdgeKey]schematic.Edge, len(edges))
	for _, e := range edges {
		g.edges[e.Key()] = e
	}
	g.segments = make(map[schematic.EdgeKey][]schematic.LineSegment)
	for _, seg := range segments {
		if seg.Kind != schematic.LineKindConnection {
			continue
		}
		key := seg.Meta.Key()
		g.segments[key] = append(g.segments[key], seg)
	}
	for key := range g.segments {
		group := g.segments[key]
		sort.Slice(group, func(i, j int) bool { return group[i].Meta.Index < group[j].Meta.Index })
	}
	g.diagram = diagram

	updateCollectionGauges(g.diagramID, len(g.positions), len(g.edges))
	return nil
}

// Reload is Load under its recovery name.
func (g *Graph) Reload(ctx context.Context) error {
	return g.Load(ctx)
}

// DiagramID returns the open diagram's id.
func (g *Graph) DiagramID() string { return g.diagramID }

// Diagram returns the open diagram record.
func (g *Graph) Diagram() schematic.Diagram { return g.diagram }

// Node returns a meter by id.
func (g *Graph) Node(id string) (schematic.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all meters, ordered by id.
func (g *Graph) Nodes() []schematic.Node {
	out := make([]schematic.Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Position returns a node's placement on this diagram.
func (g *Graph) Position(nodeID string) (schematic.NodePosition, bool) {
	p, ok := g.positions[nodeID]
	return p, ok
}

// Positions returns all placements, ordered by node id.
func (g *Graph) Positions() []schematic.NodePosition {
	out := make([]schematic.NodePosition, 0, len(g.positions))
	for _, p := range g.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}

// Edges returns all connections, ordered by key.
func (g *Graph) Edges() []schematic.Edge {
	out := make([]schematic.Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().String() < out[j].Key().String() })
	return out
}

// HasEdge reports whether a (parent, child) connection exists.
func (g *Graph) HasEdge(parentID, childID string) bool {
	_, ok := g.edges[schematic.EdgeKey{ParentID: parentID, ChildID: childID}]
	return ok
}

// Segments returns one edge's polyline, ordered by segment index.
func (g *Graph) Segments(key schematic.EdgeKey) []schematic.LineSegment {
	return g.segments[key]
}

// AllSegments returns every polyline segment on the diagram, grouped by edge
// key in key order.
func (g *Graph) AllSegments() []schematic.LineSegment {
	keys := make([]schematic.EdgeKey, 0, len(g.segments))
	for key := range g.segments {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	var out []schematic.LineSegment
	for _, key := range keys {
		out = append(out, g.segments[key]...)
	}
	return out
}

// UpsertPosition places or moves a node on the diagram. Idempotent: an
// existing placement is overwritten, a missing one created. The remote write
// probes the store before choosing insert or update, because the backing
// table has no uniqueness constraint on (node, diagram).
func (g *Graph) UpsertPosition(nodeID string, x, y float64) error {
	pos := schematic.NodePosition{NodeID: nodeID, DiagramID: g.diagramID, X: x, Y: y}
	if err := pos.Validate(); err != nil {
		return err
	}
	if prev, ok := g.positions[nodeID]; ok {
		pos.ScaleX, pos.ScaleY = prev.ScaleX, prev.ScaleY
	}
	g.positions[nodeID] = pos

	positionsSaved.Inc()
	updateCollectionGauges(g.diagramID, len(g.positions), len(g.edges))

	g.enqueue(fmt.Sprintf("save position of %s", nodeID), func(ctx context.Context, s Store) error {
		_, err := s.GetPosition(ctx, nodeID, g.diagramID)
		switch {
		case err == nil:
			err = s.UpdatePosition(ctx, pos)
		case errors.Is(err, store.ErrNotFound):
			err = s.InsertPosition(ctx, pos)
		}
		if err != nil {
			return err
		}
		return s.AppendEdit(ctx, store.EditEntry{
			Action:    store.EditActionPositionSaved,
			DiagramID: g.diagramID,
			Detail:    fmt.Sprintf("%s at (%.1f%%, %.1f%%)", nodeID, pos.X, pos.Y),
		})
	})
	return nil
}

// AddEdgeWithSegments commits a completed connection gesture: one Edge plus
// one LineSegment per consecutive point pair, indices contiguous from 0.
// Points are in percent coordinates. Refuses duplicates and self-loops
// without touching any collection.
func (g *Graph) AddEdgeWithSegments(parentID, childID string, points []geometry.Point) error {
	if parentID == childID {
		return ErrSelfLoop
	}
	key := schematic.EdgeKey{ParentID: parentID, ChildID: childID}
	if _, exists := g.edges[key]; exists {
		return ErrDuplicateEdge
	}
	if len(points) < 2 {
		return ErrTooFewPoints
	}

	edge := schematic.Edge{ParentID: parentID, ChildID: childID, ProjectID: g.projectID}
	segments := make([]schematic.LineSegment, 0, len(points)-1)
	for i := 0; i < len(points)-1; i++ {
		segments = append(segments, schematic.LineSegment{
			ID:          newSegmentID(),
			DiagramID:   g.diagramID,
			From:        points[i],
			To:          points[i+1],
			Kind:        schematic.LineKindConnection,
			Color:       schematic.DefaultSegmentColor,
			StrokeWidth: schematic.DefaultStrokeWidth,
			Meta:        schematic.SegmentMeta{ParentID: parentID, ChildID: childID, Index: i},
		})
	}

	g.edges[key] = edge
	g.segments[key] = segments

	edgesCreated.Inc()
	updateCollectionGauges(g.diagramID, len(g.positions), len(g.edges))

	if schematic.HasCycle(g.Edges()) {
		g.notifier.Notify(LevelWarn, fmt.Sprintf("connection %s introduces a cycle in the meter hierarchy", key))
	}

	g.enqueue(fmt.Sprintf("create connection %s", key), func(ctx context.Context, s Store) error {
		if err := s.InsertEdge(ctx, edge); err != nil {
			return err
		}
		if err := s.InsertSegments(ctx, segments); err != nil {
			return err
		}
		return s.AppendEdit(ctx, store.EditEntry{
			Action:    store.EditActionEdgeCreated,
			DiagramID: g.diagramID,
			Detail:    fmt.Sprintf("%s (%d segments)", key, len(segments)),
		})
	})
	return nil
}

// RemoveEdge deletes a connection and its whole polyline.
func (g *Graph) RemoveEdge(parentID, childID string) error {
	key := schematic.EdgeKey{ParentID: parentID, ChildID: childID}
	if _, exists := g.edges[key]; !exists {
		return ErrUnknownEdge
	}
	delete(g.edges, key)
	delete(g.segments, key)

	edgesDeleted.Inc()
	updateCollectionGauges(g.diagramID, len(g.positions), len(g.edges))

	g.enqueue(fmt.Sprintf("delete connection %s", key), func(ctx context.Context, s Store) error {
		if err := s.DeleteEdge(ctx, parentID, childID); err != nil {
			return err
		}
		return s.AppendEdit(ctx, store.EditEntry{
			Action:    store.EditActionEdgeDeleted,
			DiagramID: g.diagramID,
			Detail:    key.String(),
		})
	})
	return nil
}

// RemovePosition removes a node's placement from the diagram. The meter and
// its connections survive; edges referencing an unplaced node simply stop
// rendering until the node is placed again.
func (g *Graph) RemovePosition(nodeID string) error {
	if _, exists := g.positions[nodeID]; !exists {
		return ErrUnknownPosition
	}
	delete(g.positions, nodeID)

	updateCollectionGauges(g.diagramID, len(g.positions), len(g.edges))

	g.enqueue(fmt.Sprintf("remove %s from diagram", nodeID), func(ctx context.Context, s Store) error {
		if err := s.DeletePosition(ctx, nodeID, g.diagramID); err != nil {
			return err
		}
		return s.AppendEdit(ctx, store.EditEntry{
			Action:    store.EditActionPositionRemoved,
			DiagramID: g.diagramID,
			Detail:    nodeID,
		})
	})
	return nil
}

// UpdateSegments overwrites one edge's polyline coordinates after a waypoint
// save. The segment set (count, ids, indices) must be unchanged; only
// endpoints move.
func (g *Graph) UpdateSegments(key schematic.EdgeKey, segments []schematic.LineSegment) error {
	current, ok := g.segments[key]
	if !ok {
		return ErrUnknownEdge
	}
	if len(segments) != len(current) {
		return fmt.Errorf("waypoint save cannot change segment count for %s", key)
	}
	g.segments[key] = segments

	g.enqueue(fmt.Sprintf("save waypoints of %s", key), func(ctx context.Context, s Store) error {
		for _, seg := range segments {
			if err := s.UpdateSegmentEndpoints(ctx, seg); err != nil {
				return err
			}
		}
		return nil
	})
	return nil
}

// SetPublished flips the diagram's published toggle. Unlike the gesture
// writes this is synchronous: on remote failure the local value rolls back so
// the chrome never shows state the backend refused.
func (g *Graph) SetPublished(ctx context.Context, published bool) error {
	prev := g.diagram.Published
	g.diagram.Published = published

	if err := g.store.SetPublished(ctx, g.diagramID, published); err != nil {
		g.diagram.Published = prev
		g.notifier.Notify(LevelError, fmt.Sprintf("failed to update published state: %v", err))
		return err
	}

	_ = g.store.AppendEdit(ctx, store.EditEntry{
		Action:    store.EditActionPublishToggled,
		DiagramID: g.diagramID,
		Detail:    fmt.Sprintf("published=%v", published),
	})
	return nil
}

func (g *Graph) enqueue(desc string, apply func(ctx context.Context, s Store) error) {
	if g.syncer == nil {
		// No syncer wired (tests, tooling): apply synchronously.
		if err := apply(context.Background(), g.store); err != nil {
			syncFailures.Inc()
			g.notifier.Notify(LevelError, fmt.Sprintf("failed to %s: %v", desc, err))
		}
		return
	}
	g.syncer.Enqueue(Op{Desc: desc, Apply: apply})
}

func newSegmentID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("failed to read random bytes: %v", err))
	}
	return "seg-" + hex.EncodeToString(buf)
}

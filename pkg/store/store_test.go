package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/voltaic-labs/meterboard/pkg/geometry"
	"github.com/voltaic-labs/meterboard/pkg/schematic"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "meterboard-store-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	s, err := NewStore(filepath.Join(tmpDir, "meterboard.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStoreCreatesSchema(t *testing.T) {
	s := newTestStore(t)

	tables := []string{"nodes", "node_positions", "edges", "line_segments", "diagrams", "edit_log"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Fatalf("expected table %s to exist: %v", table, err)
		}
	}
}

func TestPositionProbeThenWrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetPosition(ctx, "m-1", "d-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before insert, got %v", err)
	}

	pos := schematic.NodePosition{NodeID: "m-1", DiagramID: "d-1", X: 10, Y: 10}
	if err := s.InsertPosition(ctx, pos); err != nil {
		t.Fatalf("InsertPosition failed: %v", err)
	}

	pos.X, pos.Y = 25, 40
	if err := s.UpdatePosition(ctx, pos); err != nil {
		t.Fatalf("UpdatePosition failed: %v", err)
	}

	got, err := s.GetPosition(ctx, "m-1", "d-1")
	if err != nil {
		t.Fatalf("GetPosition failed: %v", err)
	}
	if got.X != 25 || got.Y != 40 {
		t.Errorf("expected (25, 40), got (%v, %v)", got.X, got.Y)
	}

	// Default scale factors come back as 1.
	if got.ScaleX != 1 || got.ScaleY != 1 {
		t.Errorf("expected default scale 1, got (%v, %v)", got.ScaleX, got.ScaleY)
	}
}

func TestUpdatePositionMissingRow(t *testing.T) {
	s := newTestStore(t)
	pos := schematic.NodePosition{NodeID: "ghost", DiagramID: "d-1", X: 1, Y: 1}
	if err := s.UpdatePosition(context.Background(), pos); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertPositionRejectsOutOfRange(t *testing.T) {
	s := newTestStore(t)
	pos := schematic.NodePosition{NodeID: "m-1", DiagramID: "d-1", X: 150, Y: 10}
	if err := s.InsertPosition(context.Background(), pos); err == nil {
		t.Error("expected validation error for x=150")
	}
}

func TestDeleteEdgeCascadesToSegments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	edge := schematic.Edge{ParentID: "main", ChildID: "shop-1", ProjectID: "p-1"}
	if err := s.InsertEdge(ctx, edge); err != nil {
		t.Fatalf("InsertEdge failed: %v", err)
	}

	segments := []schematic.LineSegment{
		{
			ID: "seg-0", DiagramID: "d-1",
			From: geometry.Point{X: 10, Y: 10}, To: geometry.Point{X: 40, Y: 30},
			Kind: schematic.LineKindConnection, StrokeWidth: 2,
			Meta: schematic.SegmentMeta{ParentID: "main", ChildID: "shop-1", Index: 0},
		},
		{
			ID: "seg-1", DiagramID: "d-1",
			From: geometry.Point{X: 40, Y: 30}, To: geometry.Point{X: 80, Y: 10},
			Kind: schematic.LineKindConnection, StrokeWidth: 2,
			Meta: schematic.SegmentMeta{ParentID: "main", ChildID: "shop-1", Index: 1},
		},
	}
	if err := s.InsertSegments(ctx, segments); err != nil {
		t.Fatalf("InsertSegments failed: %v", err)
	}

	got, err := s.ListSegments(ctx, "d-1")
	if err != nil {
		t.Fatalf("ListSegments failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(got))
	}
	if got[0].Meta.Index != 0 || got[1].Meta.Index != 1 {
		t.Errorf("segments not ordered by index: %d, %d", got[0].Meta.Index, got[1].Meta.Index)
	}

	if err := s.DeleteEdge(ctx, "main", "shop-1"); err != nil {
		t.Fatalf("DeleteEdge failed: %v", err)
	}

	edges, err := s.ListEdges(ctx, "p-1")
	if err != nil {
		t.Fatalf("ListEdges failed: %v", err)
	}
	if len(edges) != 0 {
		t.Errorf("expected edge gone, got %d edges", len(edges))
	}

	got, err = s.ListSegments(ctx, "d-1")
	if err != nil {
		t.Fatalf("ListSegments failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected segments gone with edge, got %d", len(got))
	}
}

func TestDiagramPublishedToggle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := schematic.Diagram{ID: "d-1", ProjectID: "p-1", Name: "Main switchboard"}
	if err := s.PutDiagram(ctx, d); err != nil {
		t.Fatalf("PutDiagram failed: %v", err)
	}

	if err := s.SetPublished(ctx, "d-1", true); err != nil {
		t.Fatalf("SetPublished failed: %v", err)
	}

	got, err := s.GetDiagram(ctx, "d-1")
	if err != nil {
		t.Fatalf("GetDiagram failed: %v", err)
	}
	if !got.Published {
		t.Error("expected diagram published")
	}

	if err := s.SetPublished(ctx, "missing", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing diagram, got %v", err)
	}
}

func TestEditLogNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	actions := []EditAction{EditActionPositionSaved, EditActionEdgeCreated, EditActionEdgeDeleted}
	for _, a := range actions {
		if err := s.AppendEdit(ctx, EditEntry{Action: a, DiagramID: "d-1"}); err != nil {
			t.Fatalf("AppendEdit failed: %v", err)
		}
	}

	entries, err := s.RecentEdits(ctx, 2)
	if err != nil {
		t.Fatalf("RecentEdits failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Action != EditActionEdgeDeleted {
		t.Errorf("expected newest entry first, got %s", entries[0].Action)
	}
}

func TestNodesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n := schematic.Node{ID: "m-7", Label: "Shop 12 sub-meter", ShopName: "Bakery", ShopNumber: "12"}
	if err := s.PutNode(ctx, n); err != nil {
		t.Fatalf("PutNode failed: %v", err)
	}

	got, err := s.GetNode(ctx, "m-7")
	if err != nil {
		t.Fatalf("GetNode failed: %v", err)
	}
	if got != n {
		t.Errorf("node mismatch: got %+v want %+v", got, n)
	}

	if _, err := s.GetNode(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

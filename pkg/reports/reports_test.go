package reports

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/voltaic-labs/meterboard/pkg/schematic"
	"github.com/voltaic-labs/meterboard/pkg/store"
)

type mockReportStore struct {
	nodes     []schematic.Node
	edges     []schematic.Edge
	positions []schematic.NodePosition
	edits     []store.EditEntry
}

func (m *mockReportStore) ListNodes(ctx context.Context) ([]schematic.Node, error) {
	return m.nodes, nil
}

func (m *mockReportStore) ListEdges(ctx context.Context, projectID string) ([]schematic.Edge, error) {
	return m.edges, nil
}

func (m *mockReportStore) ListPositions(ctx context.Context, diagramID string) ([]schematic.NodePosition, error) {
	return m.positions, nil
}

func (m *mockReportStore) RecentEdits(ctx context.Context, limit int) ([]store.EditEntry, error) {
	if limit < len(m.edits) {
		return m.edits[:limit], nil
	}
	return m.edits, nil
}

// main -> shop1 -> sub1, main -> shop2; "spare" has no placement and no
// edges.
func hierarchyFixture() *mockReportStore {
	return &mockReportStore{
		nodes: []schematic.Node{
			{ID: "main", Label: "Main board"},
			{ID: "shop1", Label: "Shop 1", ShopName: "Bakery"},
			{ID: "shop2", Label: "Shop 2", ShopName: "Laundry"},
			{ID: "sub1", Label: "Sub meter 1"},
			{ID: "spare", Label: "Spare"},
		},
		edges: []schematic.Edge{
			{ParentID: "main", ChildID: "shop1"},
			{ParentID: "main", ChildID: "shop2"},
			{ParentID: "shop1", ChildID: "sub1"},
		},
		positions: []schematic.NodePosition{
			{NodeID: "main", DiagramID: "d-1", X: 50, Y: 10},
			{NodeID: "shop1", DiagramID: "d-1", X: 25, Y: 50},
			{NodeID: "shop2", DiagramID: "d-1", X: 75, Y: 50},
			{NodeID: "sub1", DiagramID: "d-1", X: 25, Y: 90},
		},
	}
}

func TestHierarchyReportCSV(t *testing.T) {
	gen, err := NewReportGenerator(ReportTypeHierarchy, hierarchyFixture())
	if err != nil {
		t.Fatalf("NewReportGenerator failed: %v", err)
	}

	out, err := gen.Generate(context.Background(), ReportParams{ProjectID: "p-1", DiagramID: "d-1"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	records, err := csv.NewReader(out).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV: %v", err)
	}
	if len(records) != 6 {
		t.Fatalf("expected header + 5 rows, got %d records", len(records))
	}
	if records[0][0] != "meter_id" {
		t.Errorf("unexpected header: %v", records[0])
	}

	byID := make(map[string][]string)
	for _, rec := range records[1:] {
		byID[rec[0]] = rec
	}

	// meter_id, label, shop_name, parent_ids, child_count, depth, placed
	if rec := byID["main"]; rec[4] != "2" || rec[5] != "0" || rec[6] != "true" {
		t.Errorf("main row wrong: %v", rec)
	}
	if rec := byID["shop1"]; rec[2] != "Bakery" || rec[3] != "main" || rec[5] != "1" {
		t.Errorf("shop1 row wrong: %v", rec)
	}
	if rec := byID["sub1"]; rec[3] != "shop1" || rec[5] != "2" {
		t.Errorf("sub1 row wrong: %v", rec)
	}
	if rec := byID["spare"]; rec[5] != "0" || rec[6] != "false" {
		t.Errorf("spare row wrong: %v", rec)
	}

	// Roots come first, then depth ascending.
	if records[1][0] != "main" && records[1][0] != "spare" {
		t.Errorf("expected a root meter first, got %v", records[1][0])
	}
}

func TestHierarchyReportJSON(t *testing.T) {
	gen := NewHierarchyReport(hierarchyFixture())

	out, err := gen.Generate(context.Background(), ReportParams{Format: ReportFormatJSON})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var rows []HierarchyRow
	if err := json.NewDecoder(out).Decode(&rows); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.MeterID == "shop2" {
			if len(row.ParentIDs) != 1 || row.ParentIDs[0] != "main" {
				t.Errorf("shop2 parents wrong: %v", row.ParentIDs)
			}
			if row.Depth != 1 {
				t.Errorf("shop2 depth = %d, want 1", row.Depth)
			}
		}
	}
}

func TestHierarchyReportCycleDepth(t *testing.T) {
	// a <-> b with no root: both unreachable from a root, depth -1.
	s := &mockReportStore{
		nodes: []schematic.Node{{ID: "a"}, {ID: "b"}},
		edges: []schematic.Edge{
			{ParentID: "a", ChildID: "b"},
			{ParentID: "b", ChildID: "a"},
		},
	}
	gen := NewHierarchyReport(s)

	out, err := gen.Generate(context.Background(), ReportParams{Format: ReportFormatJSON})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	var rows []HierarchyRow
	if err := json.NewDecoder(out).Decode(&rows); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	for _, row := range rows {
		if row.Depth != -1 {
			t.Errorf("meter %s in rootless cycle has depth %d, want -1", row.MeterID, row.Depth)
		}
	}
}

func TestActivityReport(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	s := &mockReportStore{
		edits: []store.EditEntry{
			{Ts: now, Action: store.EditActionEdgeCreated, DiagramID: "d-1", Detail: "main->shop1"},
			{Ts: now.Add(-time.Hour), Action: store.EditActionPositionSaved, DiagramID: "d-1", Detail: "main"},
			{Ts: now.Add(-2 * time.Hour), Action: store.EditActionPositionSaved, DiagramID: "d-2", Detail: "other"},
		},
	}
	gen, err := NewReportGenerator(ReportTypeActivity, s)
	if err != nil {
		t.Fatalf("NewReportGenerator failed: %v", err)
	}

	out, err := gen.Generate(context.Background(), ReportParams{DiagramID: "d-1"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	records, err := csv.NewReader(out).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows for d-1, got %d records", len(records))
	}
	if records[1][1] != string(store.EditActionEdgeCreated) {
		t.Errorf("expected newest entry first, got %v", records[1])
	}

	// Time window trims the older entry.
	out, err = gen.Generate(context.Background(), ReportParams{DiagramID: "d-1", Start: now.Add(-time.Minute)})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	records, err = csv.NewReader(out).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected header + 1 row in window, got %d records", len(records))
	}
}

func TestUnknownReportType(t *testing.T) {
	if _, err := NewReportGenerator(ReportType("bogus"), &mockReportStore{}); err == nil {
		t.Fatal("expected error for unknown report type")
	}
}

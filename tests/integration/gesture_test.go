package integration_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/voltaic-labs/meterboard/pkg/editor"
	"github.com/voltaic-labs/meterboard/pkg/geometry"
	"github.com/voltaic-labs/meterboard/pkg/graph"
	"github.com/voltaic-labs/meterboard/pkg/render"
	"github.com/voltaic-labs/meterboard/pkg/schematic"
	"github.com/voltaic-labs/meterboard/pkg/store"
)

// The full connection flow on a real store: a 1400x900 canvas, meter A at
// (10%, 10%) and meter B at (80%, 10%), drawn A-right-snap -> waypoint at
// (600, 300) -> B-left-snap, through the interaction controller and the
// async syncer, then reloaded cold from sqlite.
func TestConnectionGestureRoundTrip(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "meterboard-integration-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "gesture_test.db")
	st, err := store.NewStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.PutDiagram(ctx, schematic.Diagram{ID: "d-1", ProjectID: "p-1", Name: "roof"}); err != nil {
		t.Fatalf("PutDiagram failed: %v", err)
	}
	for _, n := range []schematic.Node{
		{ID: "a", Label: "Main board"},
		{ID: "b", Label: "Shop 1"},
	} {
		if err := st.PutNode(ctx, n); err != nil {
			t.Fatalf("PutNode failed: %v", err)
		}
	}

	syncer := graph.NewSyncer(st, nil)
	syncCtx, stopSync := context.WithCancel(ctx)
	defer stopSync()
	go syncer.Run(syncCtx)

	g := graph.New(st, syncer, nil, "d-1", "p-1")
	if err := g.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	canvas := render.NewCanvas(g, geometry.Viewport{Width: 1400, Height: 900})

	// Place both meters through the place tool.
	placements := map[string]geometry.Point{}
	var queue []string
	ct := editor.NewController(canvas, g, func(at geometry.Point) error {
		id := queue[0]
		queue = queue[1:]
		placements[id] = at
		return g.UpsertPosition(id, at.X, at.Y)
	})
	ct.SetMode(editor.ModePlaceNode)

	queue = []string{"a"}
	if err := ct.Dispatch(editor.PointerDown{At: geometry.Point{X: 140, Y: 90}}); err != nil {
		t.Fatalf("place a failed: %v", err)
	}
	queue = []string{"b"}
	if err := ct.Dispatch(editor.PointerDown{At: geometry.Point{X: 1120, Y: 90}}); err != nil {
		t.Fatalf("place b failed: %v", err)
	}
	if got := placements["a"]; math.Abs(got.X-10) > 1e-9 || math.Abs(got.Y-10) > 1e-9 {
		t.Fatalf("a placed at (%v%%, %v%%), want (10%%, 10%%)", got.X, got.Y)
	}

	// Draw the connection: A's right snap point is (200, 90), B's left snap
	// point is (1060, 90).
	ct.SetMode(editor.ModeConnect)
	for _, click := range []geometry.Point{
		{X: 198, Y: 92},
		{X: 600, Y: 300},
		{X: 1062, Y: 88},
	} {
		if err := ct.Dispatch(editor.PointerDown{At: click}); err != nil {
			t.Fatalf("click at %+v failed: %v", click, err)
		}
	}

	// In-memory state is immediate.
	if !g.HasEdge("a", "b") {
		t.Fatal("edge a->b missing from graph")
	}
	key := schematic.EdgeKey{ParentID: "a", ChildID: "b"}
	segs := g.Segments(key)
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if err := schematic.ValidateSegmentGroup(segs); err != nil {
		t.Fatalf("segment group invalid: %v", err)
	}

	// Drain the write queue, then reload cold from disk.
	syncer.Flush()

	g2 := graph.New(st, nil, nil, "d-1", "p-1")
	if err := g2.Load(ctx); err != nil {
		t.Fatalf("cold Load failed: %v", err)
	}
	if len(g2.Positions()) != 2 {
		t.Fatalf("expected 2 persisted positions, got %d", len(g2.Positions()))
	}
	if !g2.HasEdge("a", "b") {
		t.Fatal("edge a->b missing after reload")
	}
	segs2 := g2.Segments(key)
	if len(segs2) != 2 {
		t.Fatalf("expected 2 persisted segments, got %d", len(segs2))
	}
	for i := range segs {
		if segs2[i].Meta.Index != i {
			t.Errorf("segment %d has index %d after reload", i, segs2[i].Meta.Index)
		}
	}

	// The snapped endpoints survived the percent round trip.
	vp := geometry.Viewport{Width: 1400, Height: 900}
	start := vp.ToPixels(segs2[0].From)
	joint := vp.ToPixels(segs2[0].To)
	end := vp.ToPixels(segs2[1].To)
	if math.Abs(start.X-200) > 1e-6 || math.Abs(start.Y-90) > 1e-6 {
		t.Errorf("start at (%v, %v), want (200, 90)", start.X, start.Y)
	}
	if math.Abs(joint.X-600) > 1e-6 || math.Abs(joint.Y-300) > 1e-6 {
		t.Errorf("waypoint at (%v, %v), want (600, 300)", joint.X, joint.Y)
	}
	if math.Abs(end.X-1060) > 1e-6 || math.Abs(end.Y-90) > 1e-6 {
		t.Errorf("end at (%v, %v), want (1060, 90)", end.X, end.Y)
	}

	// The edit log recorded the gesture.
	edits, err := st.RecentEdits(ctx, 10)
	if err != nil {
		t.Fatalf("RecentEdits failed: %v", err)
	}
	var sawEdge, sawPosition bool
	for _, e := range edits {
		switch e.Action {
		case store.EditActionEdgeCreated:
			sawEdge = true
		case store.EditActionPositionSaved:
			sawPosition = true
		}
	}
	if !sawEdge || !sawPosition {
		t.Errorf("edit log incomplete: edge=%v position=%v", sawEdge, sawPosition)
	}
}

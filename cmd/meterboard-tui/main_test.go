package main

import (
	"context"
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

func newTestEditor(t *testing.T) (*editor.Controller, *render.Canvas) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "meterboard-tui-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	s, err := store.NewStore(filepath.Join(tmpDir, "meterboard.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	if err := s.PutDiagram(ctx, schematic.Diagram{ID: "d-1", ProjectID: "p-1", Name: "test"}); err != nil {
		t.Fatalf("PutDiagram failed: %v", err)
	}
	if err := s.PutNode(ctx, schematic.Node{ID: "a", Label: "Main board"}); err != nil {
		t.Fatalf("PutNode failed: %v", err)
	}
	if err := s.InsertPosition(ctx, schematic.NodePosition{NodeID: "a", DiagramID: "d-1", X: 50, Y: 50}); err != nil {
		t.Fatalf("InsertPosition failed: %v", err)
	}

	g := graph.New(s, nil, nil, "d-1", "p-1")
	if err := g.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	canvas := render.NewCanvas(g, geometry.Viewport{Width: 1400, Height: 900})
	return editor.NewController(canvas, g, nil), canvas
}

func TestCardsDraggableFollowsToolMode(t *testing.T) {
	ct, canvas := newTestEditor(t)

	cardDraggable := func() bool {
		for _, obj := range canvas.Objects(ct.Session(), cardsDraggable(ct)) {
			if card, ok := obj.(render.NodeCard); ok {
				return card.Draggable
			}
		}
		t.Fatal("no card rendered")
		return false
	}

	if !cardDraggable() {
		t.Error("card not draggable in select mode")
	}

	ct.SetMode(editor.ModeConnect)
	if cardDraggable() {
		t.Error("card draggable in connect mode")
	}

	ct.SetMode(editor.ModePlaceNode)
	if cardDraggable() {
		t.Error("card draggable in place mode")
	}
}

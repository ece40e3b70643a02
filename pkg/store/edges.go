package store

import (
	"context"
	"fmt"

	"github.com/voltaic-labs/meterboard/pkg/schematic"
)

// ListEdges returns every connection in the project.
func (s *Store) ListEdges(ctx context.Context, projectID string) ([]schematic.Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT parent_id, child_id, project_id
		FROM edges WHERE project_id = ? ORDER BY parent_id, child_id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	var edges []schematic.Edge
	for rows.Next() {
		var e schematic.Edge
		if err := rows.Scan(&e.ParentID, &e.ChildID, &e.ProjectID); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// InsertEdge creates a connection row.
func (s *Store) InsertEdge(ctx context.Context, e schematic.Edge) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO edges (parent_id, child_id, project_id) VALUES (?, ?, ?)
	`, e.ParentID, e.ChildID, e.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to insert edge %s: %w", e.Key(), err)
	}
	return nil
}

// DeleteEdge removes a connection and every line segment carrying its key,
// in one transaction so the caller sees all-or-nothing.
func (s *Store) DeleteEdge(ctx context.Context, parentID, childID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM edges WHERE parent_id = ? AND child_id = ?
	`, parentID, childID); err != nil {
		return fmt.Errorf("failed to delete edge %s->%s: %w", parentID, childID, err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM line_segments WHERE parent_id = ? AND child_id = ?
	`, parentID, childID); err != nil {
		return fmt.Errorf("failed to delete segments for %s->%s: %w", parentID, childID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit edge delete: %w", err)
	}
	return nil
}

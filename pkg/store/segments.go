package store

import (
	"context"
	"fmt"

	"github.com/voltaic-labs/meterboard/pkg/schematic"
)

// ListSegments returns every line segment on a diagram, grouped by edge key
// and ordered by segment index so polylines reassemble without resorting.
func (s *Store) ListSegments(ctx context.Context, diagramID string) ([]schematic.LineSegment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, diagram_id, from_x, from_y, to_x, to_y, kind,
		       COALESCE(color, ''), stroke_width, parent_id, child_id, seg_index
		FROM line_segments
		WHERE diagram_id = ?
		ORDER BY parent_id, child_id, seg_index
	`, diagramID)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	var segments []schematic.LineSegment
	for rows.Next() {
		var seg schematic.LineSegment
		if err := rows.Scan(
			&seg.ID, &seg.DiagramID,
			&seg.From.X, &seg.From.Y, &seg.To.X, &seg.To.Y,
			&seg.Kind, &seg.Color, &seg.StrokeWidth,
			&seg.Meta.ParentID, &seg.Meta.ChildID, &seg.Meta.Index,
		); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// InsertSegments writes a batch of segments in one transaction. Used when a
// connection gesture completes: either the whole polyline lands or none of
// it does.
func (s *Store) InsertSegments(ctx context.Context, segments []schematic.LineSegment) error {
	if len(segments) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO line_segments
			(id, diagram_id, from_x, from_y, to_x, to_y, kind, color, stroke_width, parent_id, child_id, seg_index)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare segment insert: %w", err)
	}
	defer stmt.Close()

	for _, seg := range segments {
		if _, err := stmt.ExecContext(ctx,
			seg.ID, seg.DiagramID,
			seg.From.X, seg.From.Y, seg.To.X, seg.To.Y,
			seg.Kind, seg.Color, seg.StrokeWidth,
			seg.Meta.ParentID, seg.Meta.ChildID, seg.Meta.Index,
		); err != nil {
			return fmt.Errorf("failed to insert segment %d of %s: %w", seg.Meta.Index, seg.Meta.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit segment batch: %w", err)
	}
	return nil
}

// UpdateSegmentEndpoints overwrites the coordinates of one segment. Used by
// the explicit waypoint save; drag frames never write through.
func (s *Store) UpdateSegmentEndpoints(ctx context.Context, seg schematic.LineSegment) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE line_segments SET from_x = ?, from_y = ?, to_x = ?, to_y = ?
		WHERE id = ?
	`, seg.From.X, seg.From.Y, seg.To.X, seg.To.Y, seg.ID)
	if err != nil {
		return fmt.Errorf("failed to update segment %s: %w", seg.ID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSegmentsByEdge removes every segment carrying the given edge key.
func (s *Store) DeleteSegmentsByEdge(ctx context.Context, parentID, childID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM line_segments WHERE parent_id = ? AND child_id = ?
	`, parentID, childID)
	if err != nil {
		return fmt.Errorf("failed to delete segments for %s->%s: %w", parentID, childID, err)
	}
	return nil
}

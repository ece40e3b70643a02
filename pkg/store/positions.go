package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/voltaic-labs/meterboard/pkg/schematic"
)

// GetPosition returns the placement of a node on a diagram, or ErrNotFound.
// Because the table has no uniqueness constraint, callers use this probe
// before deciding between InsertPosition and UpdatePosition.
func (s *Store) GetPosition(ctx context.Context, nodeID, diagramID string) (schematic.NodePosition, error) {
	var p schematic.NodePosition
	err := s.db.QueryRowContext(ctx, `
		SELECT node_id, diagram_id, x, y, scale_x, scale_y
		FROM node_positions WHERE node_id = ? AND diagram_id = ?
	`, nodeID, diagramID).Scan(&p.NodeID, &p.DiagramID, &p.X, &p.Y, &p.ScaleX, &p.ScaleY)
	if err == sql.ErrNoRows {
		return schematic.NodePosition{}, ErrNotFound
	}
	if err != nil {
		return schematic.NodePosition{}, fmt.Errorf("failed to get position for node %s: %w", nodeID, err)
	}
	return p, nil
}

// ListPositions returns all placements on one diagram.
func (s *Store) ListPositions(ctx context.Context, diagramID string) ([]schematic.NodePosition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT node_id, diagram_id, x, y, scale_x, scale_y
		FROM node_positions WHERE diagram_id = ? ORDER BY node_id
	`, diagramID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []schematic.NodePosition
	for rows.Next() {
		var p schematic.NodePosition
		if err := rows.Scan(&p.NodeID, &p.DiagramID, &p.X, &p.Y, &p.ScaleX, &p.ScaleY); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// InsertPosition creates a new placement row.
func (s *Store) InsertPosition(ctx context.Context, p schematic.NodePosition) error {
	if err := p.Validate(); err != nil {
		return err
	}
	scaleX, scaleY := p.ScaleX, p.ScaleY
	if scaleX == 0 {
		scaleX = 1
	}
	if scaleY == 0 {
		scaleY = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO node_positions (node_id, diagram_id, x, y, scale_x, scale_y)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.NodeID, p.DiagramID, p.X, p.Y, scaleX, scaleY)
	if err != nil {
		return fmt.Errorf("failed to insert position for node %s: %w", p.NodeID, err)
	}
	return nil
}

// UpdatePosition overwrites the coordinates of an existing placement.
// Last-write-wins: the row is fully replaced, never partially merged.
func (s *Store) UpdatePosition(ctx context.Context, p schematic.NodePosition) error {
	if err := p.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE node_positions SET x = ?, y = ?
		WHERE node_id = ? AND diagram_id = ?
	`, p.X, p.Y, p.NodeID, p.DiagramID)
	if err != nil {
		return fmt.Errorf("failed to update position for node %s: %w", p.NodeID, err)
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

// DeletePosition removes a node's placement from a diagram. The node record
// and any edges referencing it are left intact.
func (s *Store) DeletePosition(ctx context.Context, nodeID, diagramID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM node_positions WHERE node_id = ? AND diagram_id = ?
	`, nodeID, diagramID)
	if err != nil {
		return fmt.Errorf("failed to delete position for node %s: %w", nodeID, err)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/voltaic-labs/meterboard/pkg/schematic"
)

// GetDiagram returns one diagram record.
func (s *Store) GetDiagram(ctx context.Context, id string) (schematic.Diagram, error) {
	var d schematic.Diagram
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, name, published FROM diagrams WHERE id = ?
	`, id).Scan(&d.ID, &d.ProjectID, &d.Name, &d.Published)
	if err == sql.ErrNoRows {
		return schematic.Diagram{}, ErrNotFound
	}
	if err != nil {
		return schematic.Diagram{}, fmt.Errorf("failed to get diagram %s: %w", id, err)
	}
	return d, nil
}

// PutDiagram inserts or replaces a diagram record.
func (s *Store) PutDiagram(ctx context.Context, d schematic.Diagram) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO diagrams (id, project_id, name, published)
		VALUES (?, ?, ?, ?)
	`, d.ID, d.ProjectID, d.Name, d.Published)
	if err != nil {
		return fmt.Errorf("failed to put diagram %s: %w", d.ID, err)
	}
	return nil
}

// SetPublished flips the published toggle on a diagram.
func (s *Store) SetPublished(ctx context.Context, diagramID string, published bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE diagrams SET published = ? WHERE id = ?
	`, published, diagramID)
	if err != nil {
		return fmt.Errorf("failed to set published on diagram %s: %w", diagramID, err)
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

// AppendEdit records one mutation in the edit log.
func (s *Store) AppendEdit(ctx context.Context, e EditEntry) error {
	ts := e.Ts
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO edit_log (ts, action, diagram_id, detail) VALUES (?, ?, ?, ?)
	`, ts, e.Action, e.DiagramID, e.Detail)
	if err != nil {
		return fmt.Errorf("failed to append edit log entry: %w", err)
	}
	return nil
}

// RecentEdits returns the most recent edit log entries, newest first.
func (s *Store) RecentEdits(ctx context.Context, limit int) ([]EditEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, action, COALESCE(diagram_id, ''), COALESCE(detail, '')
		FROM edit_log ORDER BY ts DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query edit log: %w", err)
	}
	defer rows.Close()

	var entries []EditEntry
	for rows.Next() {
		var e EditEntry
		if err := rows.Scan(&e.Ts, &e.Action, &e.DiagramID, &e.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan edit log entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

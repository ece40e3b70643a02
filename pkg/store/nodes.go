package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/voltaic-labs/meterboard/pkg/schematic"
)

// ListNodes returns every meter record, ordered by id for stable iteration.
func (s *Store) ListNodes(ctx context.Context) ([]schematic.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, COALESCE(shop_name, ''), COALESCE(shop_number, ''),
		       COALESCE(color, ''), COALESCE(file_ref, '')
		FROM nodes ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []schematic.Node
	for rows.Next() {
		var n schematic.Node
		if err := rows.Scan(&n.ID, &n.Label, &n.ShopName, &n.ShopNumber, &n.Color, &n.FileRef); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// GetNode returns a single meter record.
func (s *Store) GetNode(ctx context.Context, id string) (schematic.Node, error) {
	var n schematic.Node
	err := s.db.QueryRowContext(ctx, `
		SELECT id, label, COALESCE(shop_name, ''), COALESCE(shop_number, ''),
		       COALESCE(color, ''), COALESCE(file_ref, '')
		FROM nodes WHERE id = ?
	`, id).Scan(&n.ID, &n.Label, &n.ShopName, &n.ShopNumber, &n.Color, &n.FileRef)
	if err == sql.ErrNoRows {
		return schematic.Node{}, ErrNotFound
	}
	if err != nil {
		return schematic.Node{}, fmt.Errorf("failed to get node %s: %w", id, err)
	}
	return n, nil
}

// PutNode inserts or replaces a meter record. The editor itself treats nodes
// as read-only; this is the import path.
func (s *Store) PutNode(ctx context.Context, n schematic.Node) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO nodes (id, label, shop_name, shop_number, color, file_ref)
		VALUES (?, ?, ?, ?, ?, ?)
	`, n.ID, n.Label, n.ShopName, n.ShopNumber, n.Color, n.FileRef)
	if err != nil {
		return fmt.Errorf("failed to put node %s: %w", n.ID, err)
	}
	return nil
}

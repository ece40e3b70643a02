package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voltaic-labs/meterboard/pkg/schematic"
	"github.com/voltaic-labs/meterboard/pkg/store"
)

// importCmd loads meters from a CSV of id,label,shop_name,color. Header row
// optional; existing meters are overwritten by ID.
func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <meters.csv>",
		Short: "Import meters from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			reader := csv.NewReader(f)
			reader.FieldsPerRecord = -1

			imported := 0
			for {
				record, err := reader.Read()
				if err == io.EOF {
					break
				}
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", args[0], err)
				}
				if len(record) == 0 || strings.TrimSpace(record[0]) == "" {
					continue
				}
				if imported == 0 && strings.EqualFold(strings.TrimSpace(record[0]), "id") {
					continue
				}

				n := schematic.Node{ID: strings.TrimSpace(record[0])}
				if len(record) > 1 {
					n.Label = strings.TrimSpace(record[1])
				}
				if len(record) > 2 {
					n.ShopName = strings.TrimSpace(record[2])
				}
				if len(record) > 3 {
					n.Color = strings.TrimSpace(record[3])
				}
				if n.Label == "" {
					n.Label = n.ID
				}

				if err := s.PutNode(cmd.Context(), n); err != nil {
					return fmt.Errorf("failed to import meter %s: %w", n.ID, err)
				}
				if err := s.AppendEdit(cmd.Context(), store.EditEntry{
					Action:    store.EditActionNodeImported,
					DiagramID: cfg.Diagram.DiagramID,
					Detail:    n.ID,
				}); err != nil {
					return fmt.Errorf("failed to log import: %w", err)
				}
				imported++
			}

			uiGood.Printf("imported %d meters into %s\n", imported, cfg.Store.DBPath)
			return nil
		},
	}
	return cmd
}

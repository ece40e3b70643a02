package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voltaic-labs/meterboard/pkg/schematic"
)

func initCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the database and the configured diagram",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if name == "" {
				name = cfg.Diagram.DiagramID
			}
			d := schematic.Diagram{
				ID:        cfg.Diagram.DiagramID,
				ProjectID: cfg.Diagram.ProjectID,
				Name:      name,
			}
			if err := s.PutDiagram(cmd.Context(), d); err != nil {
				return fmt.Errorf("failed to create diagram: %w", err)
			}

			uiGood.Printf("initialized %s\n", cfg.Store.DBPath)
			uiSubtle.Printf("  project %s, diagram %s (%q)\n", d.ProjectID, d.ID, d.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name for the diagram")
	return cmd
}

package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/voltaic-labs/meterboard/pkg/graph"
	"github.com/voltaic-labs/meterboard/pkg/mcp"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the diagram over the Model Context Protocol on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, s, g, err := loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if cfg.Metrics.Addr != "" {
				go func() {
					if err := graph.ServeMetrics(cfg.Metrics.Addr); err != nil {
						log.Printf("Failed to serve metrics: %v", err)
					}
				}()
			}

			srv := mcp.NewServer(g, s, cfg.Diagram.ProjectID, cfg.Diagram.DiagramID)
			return srv.Serve()
		},
	}
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/voltaic-labs/meterboard/pkg/export"
)

func exportNeo4jCmd() *cobra.Command {
	var (
		uri      string
		username string
		password string
		database string
	)

	cmd := &cobra.Command{
		Use:   "export-neo4j",
		Short: "Mirror the meter hierarchy into Neo4j as (:Meter)-[:FEEDS]->(:Meter)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if uri == "" {
				uri = cfg.Neo4j.URI
			}
			if username == "" {
				username = cfg.Neo4j.Username
			}
			if password == "" {
				password = cfg.Neo4j.Password
			}
			if database == "" {
				database = cfg.Neo4j.Database
			}

			ctx := cmd.Context()
			runner, err := export.NewDriverRunner(ctx, uri, username, password, database)
			if err != nil {
				return err
			}
			defer runner.Close(ctx)

			if err := export.NewExporter(s, runner).Export(ctx, cfg.Diagram.ProjectID); err != nil {
				return err
			}
			uiGood.Printf("exported hierarchy to %s\n", uri)
			return nil
		},
	}

	cmd.Flags().StringVar(&uri, "uri", "", "Neo4j URI (default from config)")
	cmd.Flags().StringVar(&username, "username", "", "Neo4j username")
	cmd.Flags().StringVar(&password, "password", "", "Neo4j password")
	cmd.Flags().StringVar(&database, "database", "", "Neo4j database name")
	return cmd
}

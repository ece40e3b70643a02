package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voltaic-labs/meterboard/pkg/graph"
	"github.com/voltaic-labs/meterboard/pkg/schematic"
	"github.com/voltaic-labs/meterboard/pkg/store"
)

var (
	Version   = "v1.0.0"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "meterboard",
	Short: "meterboard is a schematic editor for meter hierarchies",
	Long: "meterboard manages solar project schematics: meter cards on a canvas,\n" +
		"drawn feed connections, and the hierarchy graph behind them.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "meterboard.toml", "path to TOML config file")

	rootCmd.AddCommand(
		initCmd(),
		importCmd(),
		reportCmd(),
		exportNeo4jCmd(),
		demoCmd(),
		mcpCmd(),
		versionCmd(),
	)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("meterboard %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		},
	}
}

// openStore loads config and opens the sqlite store. Callers own Close.
func openStore() (Config, *store.Store, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return Config{}, nil, err
	}
	s, err := store.NewStore(cfg.Store.DBPath)
	if err != nil {
		return Config{}, nil, fmt.Errorf("failed to open store: %w", err)
	}
	return cfg, s, nil
}

// loadGraph opens the store and hydrates the diagram graph, creating the
// diagram row on first use.
func loadGraph(ctx context.Context) (Config, *store.Store, *graph.Graph, error) {
	cfg, s, err := openStore()
	if err != nil {
		return Config{}, nil, nil, err
	}

	if _, err := s.GetDiagram(ctx, cfg.Diagram.DiagramID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.Close()
			return Config{}, nil, nil, fmt.Errorf("failed to read diagram: %w", err)
		}
		d := schematic.Diagram{
			ID:        cfg.Diagram.DiagramID,
			ProjectID: cfg.Diagram.ProjectID,
			Name:      cfg.Diagram.DiagramID,
		}
		if err := s.PutDiagram(ctx, d); err != nil {
			s.Close()
			return Config{}, nil, nil, fmt.Errorf("failed to create diagram: %w", err)
		}
	}

	g := graph.New(s, nil, nil, cfg.Diagram.DiagramID, cfg.Diagram.ProjectID)
	if err := g.Load(ctx); err != nil {
		s.Close()
		return Config{}, nil, nil, fmt.Errorf("failed to load diagram: %w", err)
	}
	return cfg, s, g, nil
}

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/voltaic-labs/meterboard/pkg/reports"
)

func reportCmd() *cobra.Command {
	var (
		format string
		limit  int
		out    string
	)

	cmd := &cobra.Command{
		Use:   "report <hierarchy|activity>",
		Short: "Generate a report over the meter hierarchy or the edit log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			gen, err := reports.NewReportGenerator(reports.ReportType(args[0]), s)
			if err != nil {
				return err
			}

			params := reports.ReportParams{
				ProjectID: cfg.Diagram.ProjectID,
				DiagramID: cfg.Diagram.DiagramID,
				Format:    reports.ReportFormat(format),
				Limit:     limit,
			}
			body, err := gen.Generate(cmd.Context(), params)
			if err != nil {
				return err
			}

			w := io.Writer(os.Stdout)
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			if _, err := io.Copy(w, body); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			if out != "" {
				uiGood.Printf("wrote %s\n", out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "output format: csv|json")
	cmd.Flags().IntVar(&limit, "limit", 100, "max edit log entries for the activity report")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to file instead of stdout")
	return cmd
}

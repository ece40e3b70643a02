package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voltaic-labs/meterboard/pkg/geometry"
	"github.com/voltaic-labs/meterboard/pkg/render"
	"github.com/voltaic-labs/meterboard/pkg/script"
)

// demoCmd replays a gesture script against the configured diagram and
// reports the outcome. Scripts go through the same pointer paths as the
// interactive editor.
func demoCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "demo <script.json>",
		Short: "Replay a gesture script against the diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := script.Load(args[0])
			if err != nil {
				return err
			}

			cfg, st, g, err := loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			canvas := render.NewCanvas(g, geometry.Viewport{
				Width:  cfg.Canvas.Width,
				Height: cfg.Canvas.Height,
			})
			res := script.NewRunner(g, canvas).Run(s)

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			if res.Success {
				uiGood.Printf("script %s passed (%d steps)\n", res.ScriptName, res.StepsRun)
			} else {
				uiBad.Printf("script %s failed\n", res.ScriptName)
			}
			for _, e := range res.StepErrors {
				uiWarn.Printf("  %s\n", e)
			}
			for _, c := range res.Checks {
				mark := uiGood.Sprint("ok")
				if !c.Passed {
					mark = uiBad.Sprint("FAIL")
				}
				fmt.Printf("  [%s] %s: expected %s, got %s\n", mark, c.Kind, c.Expected, c.Actual)
			}
			if !res.Success {
				return fmt.Errorf("script %s failed", res.ScriptName)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")
	return cmd
}

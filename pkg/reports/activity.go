package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/voltaic-labs/meterboard/pkg/store"
)

// ActivityReport exports the diagram edit log.
type ActivityReport struct {
	store ReportStore
}

// NewActivityReport creates a new ActivityReport generator.
func NewActivityReport(s ReportStore) *ActivityReport {
	return &ActivityReport{store: s}
}

// Generate writes the edit log, newest first, filtered to the params window.
func (r *ActivityReport) Generate(ctx context.Context, params ReportParams) (io.Reader, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 100
	}
	entries, err := r.store.RecentEdits(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query edit log: %w", err)
	}

	filtered := make([]store.EditEntry, 0, len(entries))
	for _, e := range entries {
		if params.DiagramID != "" && e.DiagramID != params.DiagramID {
			continue
		}
		if !params.Start.IsZero() && e.Ts.Before(params.Start) {
			continue
		}
		if !params.End.IsZero() && e.Ts.After(params.End) {
			continue
		}
		filtered = append(filtered, e)
	}

	if params.Format == ReportFormatJSON {
		buf := &bytes.Buffer{}
		enc := json.NewEncoder(buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(filtered); err != nil {
			return nil, fmt.Errorf("failed to encode report: %w", err)
		}
		return buf, nil
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	headers := []string{"ts", "action", "diagram_id", "detail"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	for _, e := range filtered {
		row := []string{
			e.Ts.Format(time.RFC3339),
			string(e.Action),
			e.DiagramID,
			e.Detail,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush writer: %w", err)
	}

	return buf, nil
}

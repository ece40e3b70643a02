package reports

import (
	"context"
	"io"
	"time"

	"github.com/voltaic-labs/meterboard/pkg/schematic"
	"github.com/voltaic-labs/meterboard/pkg/store"
)

type ReportType string

const (
	ReportTypeHierarchy ReportType = "hierarchy"
	ReportTypeActivity  ReportType = "activity"
)

type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatJSON ReportFormat = "json"
)

type ReportParams struct {
	ProjectID string
	DiagramID string
	Format    ReportFormat
	Start     time.Time
	End       time.Time
	Limit     int
}

// ReportStore defines the interface for data access required by reports.
type ReportStore interface {
	ListNodes(ctx context.Context) ([]schematic.Node, error)
	ListEdges(ctx context.Context, projectID string) ([]schematic.Edge, error)
	ListPositions(ctx context.Context, diagramID string) ([]schematic.NodePosition, error)
	RecentEdits(ctx context.Context, limit int) ([]store.EditEntry, error)
}

type Generator interface {
	Generate(ctx context.Context, params ReportParams) (io.Reader, error)
}

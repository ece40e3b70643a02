package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/voltaic-labs/meterboard/pkg/schematic"
)

// HierarchyRow is one meter in the feed hierarchy.
type HierarchyRow struct {
	MeterID    string   `json:"meter_id"`
	Label      string   `json:"label"`
	ShopName   string   `json:"shop_name,omitempty"`
	ParentIDs  []string `json:"parent_ids"`
	ChildCount int      `json:"child_count"`
	Depth      int      `json:"depth"`
	Placed     bool     `json:"placed"`
}

// HierarchyReport reports every meter with its feed relationships and depth.
type HierarchyReport struct {
	store ReportStore
}

// NewHierarchyReport creates a new HierarchyReport generator.
func NewHierarchyReport(s ReportStore) *HierarchyReport {
	return &HierarchyReport{store: s}
}

// Generate builds the hierarchy report in the requested format. Depth is the
// shortest hop count from a root meter (one with no parents); meters only
// reachable through a cycle report depth -1.
func (r *HierarchyReport) Generate(ctx context.Context, params ReportParams) (io.Reader, error) {
	rows, err := r.rows(ctx, params)
	if err != nil {
		return nil, err
	}

	if params.Format == ReportFormatJSON {
		buf := &bytes.Buffer{}
		enc := json.NewEncoder(buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return nil, fmt.Errorf("failed to encode report: %w", err)
		}
		return buf, nil
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	headers := []string{"meter_id", "label", "shop_name", "parent_ids", "child_count", "depth", "placed"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.MeterID,
			row.Label,
			row.ShopName,
			strings.Join(row.ParentIDs, ";"),
			strconv.Itoa(row.ChildCount),
			strconv.Itoa(row.Depth),
			strconv.FormatBool(row.Placed),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush writer: %w", err)
	}

	return buf, nil
}

func (r *HierarchyReport) rows(ctx context.Context, params ReportParams) ([]HierarchyRow, error) {
	nodes, err := r.store.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list meters: %w", err)
	}
	edges, err := r.store.ListEdges(ctx, params.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list edges: %w", err)
	}
	positions, err := r.store.ListPositions(ctx, params.DiagramID)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	parents := make(map[string][]string)
	childCount := make(map[string]int)
	children := make(map[string][]string)
	for _, e := range edges {
		parents[e.ChildID] = append(parents[e.ChildID], e.ParentID)
		children[e.ParentID] = append(children[e.ParentID], e.ChildID)
		childCount[e.ParentID]++
	}

	placed := make(map[string]bool)
	for _, p := range positions {
		placed[p.NodeID] = true
	}

	depth := bfsDepths(nodes, parents, children)

	rows := make([]HierarchyRow, 0, len(nodes))
	for _, n := range nodes {
		p := parents[n.ID]
		sort.Strings(p)
		rows = append(rows, HierarchyRow{
			MeterID:    n.ID,
			Label:      n.Label,
			ShopName:   n.ShopName,
			ParentIDs:  p,
			ChildCount: childCount[n.ID],
			Depth:      depth[n.ID],
			Placed:     placed[n.ID],
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Depth != rows[j].Depth {
			return depthOrder(rows[i].Depth) < depthOrder(rows[j].Depth)
		}
		return rows[i].MeterID < rows[j].MeterID
	})
	return rows, nil
}

// depthOrder sorts unreachable meters (depth -1) after every reachable one.
func depthOrder(d int) int {
	if d < 0 {
		return int(^uint(0) >> 1)
	}
	return d
}

func bfsDepths(nodes []schematic.Node, parents, children map[string][]string) map[string]int {
	depth := make(map[string]int, len(nodes))
	var queue []string
	for _, n := range nodes {
		if len(parents[n.ID]) == 0 {
			depth[n.ID] = 0
			queue = append(queue, n.ID)
		} else {
			depth[n.ID] = -1
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range children[id] {
			if d, ok := depth[child]; ok && d >= 0 {
				continue
			}
			depth[child] = depth[id] + 1
			queue = append(queue, child)
		}
	}
	return depth
}

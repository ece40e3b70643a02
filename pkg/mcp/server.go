// Package mcp exposes a diagram over the Model Context Protocol, so agents
// can inspect and edit the meter hierarchy through the same graph the
// interactive editor uses.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/voltaic-labs/meterboard/pkg/geometry"
	"github.com/voltaic-labs/meterboard/pkg/graph"
	"github.com/voltaic-labs/meterboard/pkg/reports"
	"github.com/voltaic-labs/meterboard/pkg/schematic"
)

// Server adapts an open diagram to the Model Context Protocol.
type Server struct {
	mcpServer *server.MCPServer
	graph     *graph.Graph
	store     reports.ReportStore
	projectID string
	diagramID string
}

// NewServer creates a new MCP server instance over an already loaded graph.
func NewServer(g *graph.Graph, st reports.ReportStore, projectID, diagramID string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"meterboard",
			"1.0.0",
		),
		graph:     g,
		store:     st,
		projectID: projectID,
		diagramID: diagramID,
	}
	s.registerResources()
	s.registerTools()
	s.registerPrompts()
	return s
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// --- Resources ---

func (s *Server) registerResources() {
	// meterboard://diagram
	s.mcpServer.AddResource(mcp.NewResource(
		"meterboard://diagram",
		"Schematic Diagram",
		mcp.WithResourceDescription("Meters, placements, feed connections and their polylines for the open diagram"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadDiagram)

	// meterboard://activity
	s.mcpServer.AddResource(mcp.NewResource(
		"meterboard://activity",
		"Diagram Edit Log",
		mcp.WithResourceDescription("Recent edits to the open diagram, newest first"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadActivity)
}

// --- Tools ---

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"place_node",
		mcp.WithDescription("Place a meter card on the diagram at a percent coordinate. Updates the position if the meter is already placed."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("The meter to place")),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Horizontal position, 0-100")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Vertical position, 0-100")),
	), s.handlePlaceNode)

	s.mcpServer.AddTool(mcp.NewTool(
		"connect_nodes",
		mcp.WithDescription("Create a feed connection from a parent meter to a child meter. Both must be placed. Optional waypoints route the line."),
		mcp.WithString("parent_id", mcp.Required(), mcp.Description("The feeding meter")),
		mcp.WithString("child_id", mcp.Required(), mcp.Description("The fed meter")),
		mcp.WithString("waypoints", mcp.Description("Optional routing points as 'x,y;x,y' in percent coordinates")),
	), s.handleConnectNodes)

	s.mcpServer.AddTool(mcp.NewTool(
		"delete_connection",
		mcp.WithDescription("Remove a feed connection and its drawn line."),
		mcp.WithString("parent_id", mcp.Required(), mcp.Description("The feeding meter")),
		mcp.WithString("child_id", mcp.Required(), mcp.Description("The fed meter")),
	), s.handleDeleteConnection)

	s.mcpServer.AddTool(mcp.NewTool(
		"hierarchy_report",
		mcp.WithDescription("Generate the meter hierarchy report (parents, child counts, depth, placement)."),
		mcp.WithString("format", mcp.Description("'csv' or 'json' (default csv)")),
	), s.handleHierarchyReport)
}

// --- Prompts ---

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(mcp.NewPrompt(
		"meterboard-aware",
		mcp.WithPromptDescription("Provides context about schematic concepts (meters, placements, feed connections)"),
	), s.handleGetPrompt)
}

// --- Handlers ---

type diagramSnapshot struct {
	Diagram   schematic.Diagram        `json:"diagram"`
	Nodes     []schematic.Node         `json:"nodes"`
	Positions []schematic.NodePosition `json:"positions"`
	Edges     []schematic.Edge         `json:"edges"`
	Segments  []schematic.LineSegment  `json:"segments"`
}

func (s *Server) handleReadDiagram(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	snap := diagramSnapshot{
		Diagram:   s.graph.Diagram(),
		Nodes:     s.graph.Nodes(),
		Positions: s.graph.Positions(),
		Edges:     s.graph.Edges(),
		Segments:  s.graph.AllSegments(),
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal diagram: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleReadActivity(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	entries, err := s.store.RecentEdits(ctx, 50)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch edit log: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal edit log: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handlePlaceNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeID := mcp.ParseString(request, "node_id", "")
	x := mcp.ParseFloat64(request, "x", -1)
	y := mcp.ParseFloat64(request, "y", -1)

	if err := s.graph.UpsertPosition(nodeID, x, y); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("place failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("placed %s at (%.1f%%, %.1f%%)", nodeID, x, y)), nil
}

func (s *Server) handleConnectNodes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parentID := mcp.ParseString(request, "parent_id", "")
	childID := mcp.ParseString(request, "child_id", "")

	parentPos, ok := s.graph.Position(parentID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("meter %s is not placed", parentID)), nil
	}
	childPos, ok := s.graph.Position(childID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("meter %s is not placed", childID)), nil
	}

	waypoints, err := parseWaypoints(mcp.ParseString(request, "waypoints", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	points := make([]geometry.Point, 0, len(waypoints)+2)
	points = append(points, parentPos.Percent())
	points = append(points, waypoints...)
	points = append(points, childPos.Percent())

	if err := s.graph.AddEdgeWithSegments(parentID, childID, points); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("connect failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("connected %s -> %s with %d segments", parentID, childID, len(points)-1)), nil
}

func (s *Server) handleDeleteConnection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parentID := mcp.ParseString(request, "parent_id", "")
	childID := mcp.ParseString(request, "child_id", "")

	if err := s.graph.RemoveEdge(parentID, childID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted connection %s -> %s", parentID, childID)), nil
}

func (s *Server) handleHierarchyReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format := reports.ReportFormatCSV
	if mcp.ParseString(request, "format", "csv") == "json" {
		format = reports.ReportFormatJSON
	}

	gen := reports.NewHierarchyReport(s.store)
	out, err := gen.Generate(ctx, reports.ReportParams{
		ProjectID: s.projectID,
		DiagramID: s.diagramID,
		Format:    format,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("report failed: %v", err)), nil
	}
	body, err := io.ReadAll(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("report failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

func (s *Server) handleGetPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	if name != "meterboard-aware" {
		return nil, fmt.Errorf("prompt not found: %s", name)
	}

	promptText := `You are interacting with Meterboard, a schematic editor for meter hierarchies.

Concepts:
- Meter (node): a physical or virtual metering point, e.g. a main board or a shop meter.
- Placement: a meter's card position on a diagram, in percent coordinates (0-100 on both axes).
- Feed connection (edge): parent -> child means the parent meter feeds the child. Connections are drawn as polylines with optional waypoints.
- Diagram: one canvas of placements and connections belonging to a project.

Use 'place_node' before 'connect_nodes': both ends of a connection must be placed.
Self-loops and duplicate connections are rejected. Cycles are allowed but flagged.
`

	return mcp.NewGetPromptResult(
		"meterboard-aware",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(promptText)),
		},
	), nil
}

func parseWaypoints(raw string) ([]geometry.Point, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var points []geometry.Point
	for _, pair := range strings.Split(raw, ";") {
		parts := strings.Split(strings.TrimSpace(pair), ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("bad waypoint %q, want 'x,y'", pair)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("bad waypoint x in %q: %w", pair, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("bad waypoint y in %q: %w", pair, err)
		}
		points = append(points, geometry.Point{X: x, Y: y})
	}
	return points, nil
}

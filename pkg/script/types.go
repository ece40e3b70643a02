// Package script replays scripted editing gestures against a diagram. A
// script is a deterministic sequence of pointer-level operations plus a set
// of expectations on the resulting graph, used for demos and regression
// scenarios.
package script

import (
	"encoding/json"
	"fmt"
	"os"
)

type StepOp string

const (
	// OpPlace places a meter card at a percent coordinate.
	OpPlace StepOp = "place"
	// OpConnect draws a connection from parent to child, optionally routed
	// through waypoints given in percent coordinates.
	OpConnect StepOp = "connect"
	// OpMove drags an already placed card to a new percent coordinate.
	OpMove StepOp = "move"
	// OpDeleteNode removes a card from the canvas. The meter record and its
	// hierarchy edges survive.
	OpDeleteNode StepOp = "delete_node"
	// OpDeleteConnection removes a connection and its polyline.
	OpDeleteConnection StepOp = "delete_connection"
)

// PointSpec is a percent coordinate in a script. Scripts stay resolution
// independent; the runner converts through the canvas viewport.
type PointSpec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Step struct {
	Op        StepOp      `json:"op"`
	NodeID    string      `json:"node_id,omitempty"`
	ParentID  string      `json:"parent_id,omitempty"`
	ChildID   string      `json:"child_id,omitempty"`
	At        *PointSpec  `json:"at,omitempty"`
	Waypoints []PointSpec `json:"waypoints,omitempty"`
}

type ExpectationKind string

const (
	ExpectPositionCount ExpectationKind = "position_count"
	ExpectEdgeCount     ExpectationKind = "edge_count"
	ExpectHasEdge       ExpectationKind = "has_edge"
	ExpectSegmentCount  ExpectationKind = "segment_count"
)

type Expectation struct {
	Kind     ExpectationKind `json:"kind"`
	ParentID string          `json:"parent_id,omitempty"`
	ChildID  string          `json:"child_id,omitempty"`
	Value    int             `json:"value,omitempty"`
}

type Script struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Steps       []Step        `json:"steps"`
	Expect      []Expectation `json:"expect,omitempty"`
}

// CheckResult captures one evaluated expectation for reporting.
type CheckResult struct {
	Kind     ExpectationKind `json:"kind"`
	Expected string          `json:"expected"`
	Actual   string          `json:"actual"`
	Passed   bool            `json:"passed"`
}

// Result is the outcome of a script run.
type Result struct {
	ScriptName string        `json:"script_name"`
	StepsRun   int           `json:"steps_run"`
	StepErrors []string      `json:"step_errors,omitempty"`
	Checks     []CheckResult `json:"checks,omitempty"`
	Success    bool          `json:"success"`
}

// Load reads a script from a JSON file.
func Load(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("failed to read script: %w", err)
	}
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("failed to parse script %s: %w", path, err)
	}
	if s.Name == "" {
		return Script{}, fmt.Errorf("script %s has no name", path)
	}
	return s, nil
}

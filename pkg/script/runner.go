package script

import (
	"fmt"
	"log"
	"strconv"

	"github.com/voltaic-labs/meterboard/pkg/editor"
	"github.com/voltaic-labs/meterboard/pkg/geometry"
	"github.com/voltaic-labs/meterboard/pkg/graph"
	"github.com/voltaic-labs/meterboard/pkg/render"
	"github.com/voltaic-labs/meterboard/pkg/schematic"
)

// Runner replays scripts through the interaction controller, so every step
// goes down the same pointer-event path a user's gesture would.
type Runner struct {
	graph      *graph.Graph
	canvas     *render.Canvas
	controller *editor.Controller

	// meter the next place-mode click stands for
	pendingNode string
}

func NewRunner(g *graph.Graph, canvas *render.Canvas) *Runner {
	r := &Runner{graph: g, canvas: canvas}
	r.controller = editor.NewController(canvas, g, r.placePending)
	return r
}

func (r *Runner) placePending(at geometry.Point) error {
	if r.pendingNode == "" {
		return fmt.Errorf("no meter queued for placement")
	}
	id := r.pendingNode
	r.pendingNode = ""
	return r.graph.UpsertPosition(id, at.X, at.Y)
}

// Run executes every step in order, collecting step errors rather than
// stopping, then evaluates the expectations.
func (r *Runner) Run(s Script) Result {
	log.Printf("running script: %s (%d steps)", s.Name, len(s.Steps))

	res := Result{ScriptName: s.Name}
	for i, step := range s.Steps {
		res.StepsRun++
		if err := r.runStep(step); err != nil {
			res.StepErrors = append(res.StepErrors, fmt.Sprintf("step %d (%s): %v", i, step.Op, err))
		}
	}

	res.Checks = r.evaluate(s.Expect)
	res.Success = len(res.StepErrors) == 0
	for _, c := range res.Checks {
		if !c.Passed {
			res.Success = false
		}
	}
	return res
}

func (r *Runner) runStep(step Step) error {
	switch step.Op {
	case OpPlace:
		return r.place(step)
	case OpConnect:
		return r.connect(step)
	case OpMove:
		return r.move(step)
	case OpDeleteNode:
		return r.deleteNode(step)
	case OpDeleteConnection:
		return r.controller.RemoveConnection(schematic.EdgeKey{ParentID: step.ParentID, ChildID: step.ChildID})
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

func (r *Runner) place(step Step) error {
	if step.NodeID == "" || step.At == nil {
		return fmt.Errorf("place needs node_id and at")
	}
	r.controller.SetMode(editor.ModePlaceNode)
	r.pendingNode = step.NodeID
	ev := editor.PointerDown{At: r.pixel(*step.At)}
	if err := r.controller.Dispatch(ev); err != nil {
		r.pendingNode = ""
		return err
	}
	if r.pendingNode != "" {
		r.pendingNode = ""
		return fmt.Errorf("placement click at (%v%%, %v%%) landed on an existing card", step.At.X, step.At.Y)
	}
	return nil
}

func (r *Runner) connect(step Step) error {
	if step.ParentID == "" || step.ChildID == "" {
		return fmt.Errorf("connect needs parent_id and child_id")
	}
	r.controller.SetMode(editor.ModeConnect)

	first := r.stepTarget(step)
	start, err := r.snapNear(step.ParentID, first)
	if err != nil {
		return err
	}
	if err := r.controller.Dispatch(editor.PointerDown{At: start}); err != nil {
		return err
	}

	last := start
	for _, wp := range step.Waypoints {
		last = r.pixel(wp)
		if err := r.controller.Dispatch(editor.PointerDown{At: last}); err != nil {
			r.controller.Session().Cancel()
			return err
		}
	}

	end, err := r.snapNear(step.ChildID, last)
	if err != nil {
		r.controller.Session().Cancel()
		return err
	}
	if err := r.controller.Dispatch(editor.PointerDown{At: end}); err != nil {
		r.controller.Session().Cancel()
		return err
	}
	return nil
}

func (r *Runner) move(step Step) error {
	if step.NodeID == "" || step.At == nil {
		return fmt.Errorf("move needs node_id and at")
	}
	box, ok := r.canvas.NodeBox(step.NodeID)
	if !ok {
		return fmt.Errorf("meter %s is not placed", step.NodeID)
	}
	r.controller.SetMode(editor.ModeSelect)
	if err := r.controller.Dispatch(editor.PointerDown{At: box.Center()}); err != nil {
		return err
	}
	target := r.pixel(*step.At)
	if err := r.controller.Dispatch(editor.PointerMove{At: target}); err != nil {
		return err
	}
	return r.controller.Dispatch(editor.PointerUp{At: target})
}

func (r *Runner) deleteNode(step Step) error {
	if step.NodeID == "" {
		return fmt.Errorf("delete_node needs node_id")
	}
	box, ok := r.canvas.NodeBox(step.NodeID)
	if !ok {
		return fmt.Errorf("meter %s is not placed", step.NodeID)
	}
	r.controller.SetMode(editor.ModeSelect)
	if err := r.controller.Dispatch(editor.PointerDown{At: box.Center()}); err != nil {
		return err
	}
	if err := r.controller.Dispatch(editor.PointerUp{At: box.Center()}); err != nil {
		return err
	}
	return r.controller.Dispatch(editor.DeletePressed{})
}

func (r *Runner) pixel(p PointSpec) geometry.Point {
	return r.canvas.Viewport().ToPixels(geometry.Point{X: p.X, Y: p.Y})
}

// stepTarget is the pixel point the gesture heads for after starting: the
// first waypoint if any, otherwise the child card's center.
func (r *Runner) stepTarget(step Step) geometry.Point {
	if len(step.Waypoints) > 0 {
		return r.pixel(step.Waypoints[0])
	}
	if box, ok := r.canvas.NodeBox(step.ChildID); ok {
		return box.Center()
	}
	return geometry.Point{}
}

// snapNear picks the node's snap point closest to a target, mimicking where
// a user would aim the click.
func (r *Runner) snapNear(nodeID string, target geometry.Point) (geometry.Point, error) {
	var best geometry.Point
	bestDist := -1.0
	for _, c := range r.canvas.SnapCandidates() {
		if c.NodeID != nodeID {
			continue
		}
		d := geometry.Distance(target, c.Point)
		if bestDist < 0 || d < bestDist {
			best = c.Point
			bestDist = d
		}
	}
	if bestDist < 0 {
		return geometry.Point{}, fmt.Errorf("meter %s is not placed", nodeID)
	}
	return best, nil
}

func (r *Runner) evaluate(expects []Expectation) []CheckResult {
	checks := make([]CheckResult, 0, len(expects))
	for _, e := range expects {
		var c CheckResult
		c.Kind = e.Kind
		switch e.Kind {
		case ExpectPositionCount:
			actual := len(r.graph.Positions())
			c.Expected = strconv.Itoa(e.Value)
			c.Actual = strconv.Itoa(actual)
			c.Passed = actual == e.Value
		case ExpectEdgeCount:
			actual := len(r.graph.Edges())
			c.Expected = strconv.Itoa(e.Value)
			c.Actual = strconv.Itoa(actual)
			c.Passed = actual == e.Value
		case ExpectHasEdge:
			has := r.graph.HasEdge(e.ParentID, e.ChildID)
			c.Expected = fmt.Sprintf("edge %s->%s", e.ParentID, e.ChildID)
			c.Actual = strconv.FormatBool(has)
			c.Passed = has
		case ExpectSegmentCount:
			actual := len(r.graph.Segments(schematic.EdgeKey{ParentID: e.ParentID, ChildID: e.ChildID}))
			c.Expected = strconv.Itoa(e.Value)
			c.Actual = strconv.Itoa(actual)
			c.Passed = actual == e.Value
		default:
			c.Expected = "known expectation kind"
			c.Actual = string(e.Kind)
			c.Passed = false
		}
		checks = append(checks, c)
	}
	return checks
}

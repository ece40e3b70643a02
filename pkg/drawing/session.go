// Package drawing implements the connection-drawing gesture: a small state
// machine that collects an origin snap point, zero or more waypoints, and a
// destination snap point, then hands the finished polyline to the graph.
//
// A Session is an explicitly owned object handed to the event dispatcher on
// every event. Handlers read the current state from it directly, never from
// captured snapshots, so a long-lived closure can never observe stale
// session state.
package drawing

import (
	"errors"

	"github.com/voltaic-labs/meterboard/pkg/geometry"
)

// State is the lifecycle phase of a drawing session.
type State string

const (
	// StateIdle: no gesture in progress.
	StateIdle State = "idle"
	// StateStarted: origin snap point recorded, no waypoints yet.
	StateStarted State = "started"
	// StateRouting: at least one waypoint placed.
	StateRouting State = "routing"
)

var (
	// ErrSelfLoop rejects completing a connection on the node that started
	// it. The session does not advance.
	ErrSelfLoop = errors.New("connection cannot end on its own origin meter")

	// ErrNotActive rejects gesture input while no session is in progress.
	ErrNotActive = errors.New("no drawing session in progress")

	// ErrAlreadyActive rejects starting a session while one is active.
	ErrAlreadyActive = errors.New("a drawing session is already in progress")
)

// Result is the completed gesture: the ordered pixel polyline from the
// origin snap point through every waypoint to the destination snap point.
type Result struct {
	ParentID string
	ChildID  string
	Points   []geometry.Point
}

// Session is one connection-drawing gesture. All coordinates are canvas
// pixels; conversion to percent happens when the result is committed.
type Session struct {
	state     State
	originID  string
	origin    geometry.Point
	waypoints []geometry.Point
	pointer   geometry.Point
	hasPtr    bool
}

// NewSession returns an idle session.
func NewSession() *Session {
	return &Session{state: StateIdle}
}

// State returns the current lifecycle phase.
func (s *Session) State() State { return s.state }

// Active reports whether a gesture is in progress.
func (s *Session) Active() bool { return s.state != StateIdle }

// OriginID returns the node the session started on, or "" when idle.
func (s *Session) OriginID() string { return s.originID }

// Waypoints returns the user-placed intermediate points so far.
func (s *Session) Waypoints() []geometry.Point {
	return append([]geometry.Point(nil), s.waypoints...)
}

// Start begins a gesture at a node's snap point and renders the transient
// origin marker.
func (s *Session) Start(nodeID string, at geometry.Point) error {
	if s.state != StateIdle {
		return ErrAlreadyActive
	}
	s.state = StateStarted
	s.originID = nodeID
	s.origin = at
	s.waypoints = nil
	s.pointer = at
	s.hasPtr = false
	return nil
}

// AddWaypoint appends a routing point on empty canvas.
// Started -> Routing on the first waypoint, Routing -> Routing after.
func (s *Session) AddWaypoint(at geometry.Point) error {
	switch s.state {
	case StateStarted, StateRouting:
		s.waypoints = append(s.waypoints, at)
		s.state = StateRouting
		return nil
	default:
		return ErrNotActive
	}
}

// Complete finishes the gesture on a different node's snap point and returns
// the full ordered point list. Completing on the origin node is rejected and
// the session stays where it was.
func (s *Session) Complete(nodeID string, at geometry.Point) (Result, error) {
	switch s.state {
	case StateStarted, StateRouting:
	default:
		return Result{}, ErrNotActive
	}
	if nodeID == s.originID {
		return Result{}, ErrSelfLoop
	}

	points := make([]geometry.Point, 0, len(s.waypoints)+2)
	points = append(points, s.origin)
	points = append(points, s.waypoints...)
	points = append(points, at)

	result := Result{ParentID: s.originID, ChildID: nodeID, Points: points}
	s.reset()
	return result, nil
}

// Cancel discards the gesture and every transient artifact. Valid from any
// state; cancelling an idle session is a no-op.
func (s *Session) Cancel() {
	s.reset()
}

// PointerMoved records the live pointer position for the dashed preview.
func (s *Session) PointerMoved(at geometry.Point) {
	if s.state == StateIdle {
		return
	}
	s.pointer = at
	s.hasPtr = true
}

// Preview returns the dashed preview segment from the last committed point
// (origin or last waypoint) to the current pointer, if the pointer has moved
// since the session advanced.
func (s *Session) Preview() (from, to geometry.Point, ok bool) {
	if s.state == StateIdle || !s.hasPtr {
		return geometry.Point{}, geometry.Point{}, false
	}
	return s.lastCommitted(), s.pointer, true
}

// Anchor returns the last committed point of the in-progress polyline.
func (s *Session) Anchor() (geometry.Point, bool) {
	if s.state == StateIdle {
		return geometry.Point{}, false
	}
	return s.lastCommitted(), true
}

func (s *Session) lastCommitted() geometry.Point {
	if len(s.waypoints) > 0 {
		return s.waypoints[len(s.waypoints)-1]
	}
	return s.origin
}

func (s *Session) reset() {
	s.state = StateIdle
	s.originID = ""
	s.origin = geometry.Point{}
	s.waypoints = nil
	s.pointer = geometry.Point{}
	s.hasPtr = false
}

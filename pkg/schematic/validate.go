package schematic

import (
	"fmt"
	"sort"
)

// ValidateSegmentGroup checks that the segments of one edge form a contiguous
// polyline: indices 0..n-1 with no gaps or duplicates, all sharing the same
// edge key, and each segment starting where the previous one ended.
func ValidateSegmentGroup(segments []LineSegment) error {
	if len(segments) == 0 {
		return fmt.Errorf("empty segment group")
	}

	ordered := make([]LineSegment, len(segments))
	copy(ordered, segments)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Meta.Index < ordered[j].Meta.Index
	})

	key := ordered[0].Meta.Key()
	for i, seg := range ordered {
		if seg.Meta.Key() != key {
			return fmt.Errorf("segment group mixes edges %s and %s", key, seg.Meta.Key())
		}
		if seg.Meta.Index != i {
			return fmt.Errorf("segment indices for %s not contiguous: expected %d, got %d", key, i, seg.Meta.Index)
		}
		if i > 0 && ordered[i-1].To != seg.From {
			return fmt.Errorf("segment %d of %s does not start where segment %d ends", i, key, i-1)
		}
	}
	return nil
}

// HasCycle reports whether the directed edge set contains a cycle. The editor
// never blocks on this: multiple logical parents are permitted, so a cycle is
// surfaced as an advisory warning only.
func HasCycle(edges []Edge) bool {
	adj := make(map[string][]string)
	for _, e := range edges {
		adj[e.ParentID] = append(adj[e.ParentID], e.ChildID)
	}

	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[string]int)

	var visit func(id string) bool
	visit = func(id string) bool {
		state[id] = inStack
		for _, next := range adj[id] {
			switch state[next] {
			case inStack:
				return true
			case unvisited:
				if visit(next) {
					return true
				}
			}
		}
		state[id] = done
		return false
	}

	for id := range adj {
		if state[id] == unvisited && visit(id) {
			return true
		}
	}
	return false
}

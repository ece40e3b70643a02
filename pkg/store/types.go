package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// EditAction is the kind of mutation recorded in the edit log.
type EditAction string

const (
	EditActionNodeImported    EditAction = "node_imported"
	EditActionPositionSaved   EditAction = "position_saved"
	EditActionPositionRemoved EditAction = "position_removed"
	EditActionEdgeCreated     EditAction = "edge_created"
	EditActionEdgeDeleted     EditAction = "edge_deleted"
	EditActionPublishToggled  EditAction = "publish_toggled"
)

// EditEntry is one row of the append-only edit log. The log is an audit
// trail for the activity pane and reports; it is never replayed to rebuild
// state.
type EditEntry struct {
	Ts        time.Time  `json:"ts"`
	Action    EditAction `json:"action"`
	DiagramID string     `json:"diagram_id"`
	Detail    string     `json:"detail"`
}

package syncer

import (
	"time"

	"github.com/goliatone/go-docsync/pkg/interfaces"
)

// Action names what the driver did with an artifact.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionReused  Action = "reused"
	ActionPlanned Action = "planned"
)

// LogEntry identifies one failed item.
type LogEntry struct {
	Item  string                  `json:"item"`
	Kind  interfaces.ArtifactKind `json:"kind"`
	Error string                  `json:"error"`
	Err   error                   `json:"-"`
}

// ItemResult records one successfully synced artifact.
type ItemResult struct {
	Name   string                  `json:"name"`
	Kind   interfaces.ArtifactKind `json:"kind"`
	ID     int                     `json:"id,omitempty"`
	Action Action                  `json:"action"`
}

// Outcome aggregates a run. Failed items never remove successful ones.
type Outcome struct {
	RunID          string       `json:"run_id"`
	Document       string       `json:"document"`
	Mode           string       `json:"mode"`
	DryRun         bool         `json:"dry_run"`
	Total          int          `json:"total"`
	ItemsProcessed int          `json:"items_processed"`
	ErrorCount     int          `json:"error_count"`
	Created        int          `json:"created"`
	Updated        int          `json:"updated"`
	Reused         int          `json:"reused"`
	Attachments    int          `json:"attachments"`
	Items          []ItemResult `json:"items,omitempty"`
	Log            []LogEntry   `json:"log,omitempty"`
	StartedAt      time.Time    `json:"started_at"`
	FinishedAt     time.Time    `json:"finished_at"`
}

func (o *Outcome) succeed(item ItemResult) {
	o.ItemsProcessed++
	switch item.Action {
	case ActionCreated:
		o.Created++
	case ActionUpdated:
		o.Updated++
	case ActionReused:
		o.Reused++
	}
	o.Items = append(o.Items, item)
}

func (o *Outcome) fail(name string, kind interfaces.ArtifactKind, err error) {
	o.ErrorCount++
	o.Log = append(o.Log, LogEntry{Item: name, Kind: kind, Error: err.Error(), Err: err})
}

package types

import "time"

// ActionType is the operation performed against a runtime resource
type ActionType string

const (
	ActionStart   ActionType = "start"
	ActionStop    ActionType = "stop"
	ActionRestart ActionType = "restart"
	ActionRemove  ActionType = "remove"
	ActionCreate  ActionType = "create"
	ActionPrune   ActionType = "prune"
)

// ResourceType is the kind of runtime resource an action targets
type ResourceType string

const (
	ResourceContainer ResourceType = "container"
	ResourceImage     ResourceType = "image"
	ResourceNetwork   ResourceType = "network"
	ResourceVolume    ResourceType = "volume"
)

// ActionRecord is an append-only log entry for an action executed against the runtime
type ActionRecord struct {
	ID           string       `db:"id" json:"id"`
	OperationID  string       `db:"operation_id" json:"operation_id"`
	Action       ActionType   `db:"action" json:"action"`
	ResourceType ResourceType `db:"resource_type" json:"resource_type"`
	ResourceID   string       `db:"resource_id" json:"resource_id"`
	Success      bool         `db:"success" json:"success"`
	ErrorMessage *string      `db:"error_message" json:"error_message,omitempty"`
	Actor        string       `db:"actor" json:"actor"`
	Metadata     Metadata     `db:"metadata" json:"metadata,omitempty"`
	ExecutedAt   time.Time    `db:"executed_at" json:"executed_at"`
}

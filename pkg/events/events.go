// Package events defines the notifications produced by flow lifecycle operations.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every flow lifecycle event.
const Topic = "flowforge.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	FlowSavedEvent     EventType = "flow.saved"
	FlowPublishedEvent EventType = "flow.published"
	FlowDeletedEvent   EventType = "flow.deleted"

	FlowEnableChangedEvent EventType = "flow.enable_changed"
)

type BaseEvent struct {
	ID               string         `json:"id"`
	Type             EventType      `json:"type"`
	Timestamp        time.Time      `json:"timestamp"`
	FlowCode         string         `json:"flow_code"`
	OrganizationCode string         `json:"organization_code,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// FlowSaved is published after a flow is created or its draft graph is saved.
type FlowSaved struct {
	BaseEvent

	Created  bool   `json:"created"`
	Modifier string `json:"modifier"`
}

func (f FlowSaved) GetType() EventType {
	return FlowSavedEvent
}

// FlowPublished is published after a publish or a rollback moved the flow's version pointer.
type FlowPublished struct {
	BaseEvent

	VersionCode string `json:"version_code"`
	Enabled     bool   `json:"enabled"`
	Rollback    bool   `json:"rollback"`
	Modifier    string `json:"modifier"`
}

func (f FlowPublished) GetType() EventType {
	return FlowPublishedEvent
}

// FlowEnableChanged is published after the enabled flag of a flow flipped.
type FlowEnableChanged struct {
	BaseEvent

	VersionCode string `json:"version_code,omitempty"`
	Enabled     bool   `json:"enabled"`
}

func (f FlowEnableChanged) GetType() EventType {
	return FlowEnableChangedEvent
}

// FlowDeleted is published after a flow is removed.
type FlowDeleted struct {
	BaseEvent
}

func (f FlowDeleted) GetType() EventType {
	return FlowDeletedEvent
}

func NewBaseEvent(eventType EventType, flowCode, organizationCode string) BaseEvent {
	return BaseEvent{
		ID:               uuid.New().String(),
		Type:             eventType,
		Timestamp:        time.Now().UTC(),
		FlowCode:         flowCode,
		OrganizationCode: organizationCode,
		Metadata:         make(map[string]any),
	}
}

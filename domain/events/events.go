// Package events defines the domain events emitted after graph
// mutations have been persisted.
package events

import "time"

// Source identifies this service on the event bus.
const Source = "archflow.backend"

// EventTypeGraphUpdated is the detail type consumers subscribe to.
const EventTypeGraphUpdated = "graph.updated"

// DomainEvent is the base interface for all domain events
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregateId"`
	EventType   string    `json:"eventType"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

// GraphUpdated is raised after a project's graph has been replaced with
// new contents, whether by a chat mutation or a direct edit.
type GraphUpdated struct {
	BaseEvent
	ProjectID string `json:"projectId"`
	Summary   string `json:"summary"`
	NodeCount int    `json:"nodeCount"`
	EdgeCount int    `json:"edgeCount"`
}

// NewGraphUpdated creates a GraphUpdated event
func NewGraphUpdated(projectID, summary string, nodeCount, edgeCount int, at time.Time) GraphUpdated {
	return GraphUpdated{
		BaseEvent: BaseEvent{
			AggregateID: projectID,
			EventType:   EventTypeGraphUpdated,
			Timestamp:   at,
		},
		ProjectID: projectID,
		Summary:   summary,
		NodeCount: nodeCount,
		EdgeCount: edgeCount,
	}
}

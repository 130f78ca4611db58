package dto

import "github.com/relocrm/leadstack/internal/enum"

// Event is the envelope of every message on the broker. Listeners are routed by
// Event.EventType, the Go type name of the payload in Event.Data.
type Event struct {
	Event    EventDetails  `json:"event"`
	Metadata EventMetadata `json:"metadata"`
}

type EventDetails struct {
	Id         string          `json:"id"`
	EntityId   string          `json:"entityId,omitempty"`
	EntityType enum.EntityType `json:"entityType"`
	EventType  string          `json:"eventType"`
	Data       interface{}     `json:"data"`
}

// EventMetadata carries the publisher's trace and caller so listeners act on
// behalf of the same user.
type EventMetadata struct {
	UberTraceId string `json:"uber-trace-id"`
	AppSource   string `json:"appSource,omitempty"`
	UserId      string `json:"userId,omitempty"`
	UserEmail   string `json:"userEmail,omitempty"`
	Timestamp   string `json:"timestamp"`
}

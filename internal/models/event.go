package models

import "time"

type EventKind string

const (
	EventCreated       EventKind = "created"
	EventStatusChanged EventKind = "status_changed"
)

// ReportEvent is what gets fanned out to streams, Kafka and alerting.
type ReportEvent struct {
	Kind           EventKind    `json:"kind"`
	Report         HazardReport `json:"report"`
	PreviousStatus Status       `json:"previousStatus,omitempty"`
	At             time.Time    `json:"at"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType names what happened to a runner record.
type EventType string

const (
	EventFinish       EventType = "finish"
	EventDelayedStart EventType = "delayed_start"
	EventCheckIn      EventType = "check_in"
	EventDelete       EventType = "delete"
	EventClear        EventType = "clear"
)

// TimingEvent is emitted after every successful write to the store.
type TimingEvent struct {
	ID         uuid.UUID `json:"eventId"`
	Type       EventType `json:"eventType"`
	Bib        int       `json:"numero_corredor,omitempty"`
	Monitor    string    `json:"monitor"`
	Time       string    `json:"hora,omitempty"`
	OccurredAt time.Time `json:"timestamp"`
}

// NewTimingEvent stamps a new event with a random ID.
func NewTimingEvent(t EventType, bib int, monitor, hora string, at time.Time) TimingEvent {
	return TimingEvent{
		ID:         uuid.New(),
		Type:       t,
		Bib:        bib,
		Monitor:    monitor,
		Time:       hora,
		OccurredAt: at.UTC(),
	}
}

package amqp

import (
	"encoding/json"
	"time"
)

// AppointmentEvent is published on appointment creation and deletion.
// It carries enough data for the notifier to compose a reminder without
// a database round trip.
type AppointmentEvent struct {
	Kind         string    `json:"kind"` // "created" or "deleted"
	ID           string    `json:"id"`
	StaffID      string    `json:"staff_id"`
	CustomerName string    `json:"customer_name"`
	Phone        string    `json:"phone,omitempty"`
	Service      string    `json:"service"`
	StartsAt     time.Time `json:"starts_at"`
	Timestamp    time.Time `json:"timestamp"`
}

const (
	EventCreated = "created"
	EventDeleted = "deleted"
)

// NewCreatedEvent builds the event for a freshly booked appointment.
func NewCreatedEvent(id, staffID, customer, phone, service string, startsAt time.Time) *AppointmentEvent {
	return &AppointmentEvent{
		Kind:         EventCreated,
		ID:           id,
		StaffID:      staffID,
		CustomerName: customer,
		Phone:        phone,
		Service:      service,
		StartsAt:     startsAt,
		Timestamp:    time.Now(),
	}
}

// NewDeletedEvent builds the event for a removed appointment.
func NewDeletedEvent(id string) *AppointmentEvent {
	return &AppointmentEvent{
		Kind:      EventDeleted,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *AppointmentEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON parses an event from JSON bytes.
func EventFromJSON(data []byte) (*AppointmentEvent, error) {
	var e AppointmentEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

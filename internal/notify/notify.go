// Package notify delivers best-effort lifecycle notifications (email, SMS, log).
// Delivery never blocks or fails the operation that triggered it.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crucial707/remote-inspect/internal/models"
)

// EventType names a lifecycle event.
type EventType string

const (
	EventDispatched    EventType = "inspection_dispatched"
	EventStatusChanged EventType = "status_changed"
)

// Event is the payload handed to every Notifier.
type Event struct {
	Type           EventType
	InspectionID   int
	InternalNumber string
	Address        string
	InspectorName  string
	InspectorEmail string
	InspectorPhone string
	OldStatus      models.Status
	NewStatus      models.Status
	Comment        string
	At             time.Time
}

// NewEvent builds an event from the current state of ins.
func NewEvent(t EventType, ins models.Inspection) Event {
	return Event{
		Type:           t,
		InspectionID:   ins.ID,
		InternalNumber: ins.InternalNumber,
		Address:        ins.Address,
		InspectorName:  ins.InspectorName,
		InspectorEmail: ins.InspectorEmail,
		InspectorPhone: ins.InspectorPhone,
		NewStatus:      ins.Status,
		At:             ins.UpdatedAt,
	}
}

// Subject is a one-line summary used for mail subjects and SMS bodies.
func (e Event) Subject() string {
	switch e.Type {
	case EventDispatched:
		return fmt.Sprintf("Inspection %s assigned: %s", e.InternalNumber, e.Address)
	case EventStatusChanged:
		return fmt.Sprintf("Inspection %s is now %s", e.InternalNumber, e.NewStatus)
	}
	return fmt.Sprintf("Inspection %s updated", e.InternalNumber)
}

// Notifier delivers one event over one channel.
type Notifier interface {
	Channel() string
	Notify(ctx context.Context, ev Event) error
}

// LogNotifier writes events to the structured log. Used when no real channel is configured.
type LogNotifier struct{}

func (LogNotifier) Channel() string { return "log" }

func (LogNotifier) Notify(_ context.Context, ev Event) error {
	slog.Info("notification",
		"event", ev.Type,
		"inspection_id", ev.InspectionID,
		"internal_number", ev.InternalNumber,
		"old_status", ev.OldStatus,
		"new_status", ev.NewStatus)
	return nil
}

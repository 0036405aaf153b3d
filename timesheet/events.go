package timesheet

import (
	"context"
	"time"

	"github.com/warp/timesheet-engine/generic"
)

// EventType names a timesheet lifecycle event.
type EventType string

const (
	EventSubmitted EventType = "timesheet.submitted"
	EventApproved  EventType = "timesheet.approved"
	EventRejected  EventType = "timesheet.rejected"
)

// Event is emitted after a lifecycle change has been stored.
type Event struct {
	Type       EventType
	UserID     generic.UserID
	WeekStart  generic.Date
	Total      generic.Hours
	Target     generic.Hours
	ReviewedBy generic.UserID
	Reason     string
	At         time.Time
}

// Notifier receives lifecycle events. Delivery is best effort: a failing
// notifier logs and moves on, it never undoes the stored change.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) {}

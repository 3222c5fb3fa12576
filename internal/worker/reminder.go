// Package worker runs the appointment reminder loop for the notifier.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"salon/internal/amqp"
	"salon/internal/backend"
	"salon/internal/core"
	"salon/internal/sms"
)

const (
	// DefaultInterval is how often the worker scans for upcoming appointments.
	DefaultInterval = 60 * time.Second
	// DefaultLookahead is how far ahead of the start time a reminder goes out.
	DefaultLookahead = 10 * time.Minute
)

// ReminderWorker sends an SMS shortly before each scheduled appointment.
// Deleted appointments observed on the event stream are suppressed so a
// customer never hears about a booking that no longer exists.
type ReminderWorker struct {
	lister    backend.AppointmentLister
	sender    sms.Sender
	salonName string
	interval  time.Duration
	lookahead time.Duration

	now func() time.Time

	mu       sync.Mutex
	reminded map[string]bool
	removed  map[string]bool
}

func NewReminderWorker(lister backend.AppointmentLister, sender sms.Sender, salonName string, interval, lookahead time.Duration) *ReminderWorker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if lookahead <= 0 {
		lookahead = DefaultLookahead
	}
	return &ReminderWorker{
		lister:    lister,
		sender:    sender,
		salonName: salonName,
		interval:  interval,
		lookahead: lookahead,
		now:       time.Now,
		reminded:  make(map[string]bool),
		removed:   make(map[string]bool),
	}
}

// Run scans on a fixed interval until ctx ends.
func (w *ReminderWorker) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Starting reminder worker",
		"interval", w.interval,
		"lookahead", w.lookahead)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping reminder worker", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.Scan(ctx); err != nil {
				slog.ErrorContext(ctx, "Reminder scan failed", "error", err)
			}
		}
	}
}

// Scan sends one reminder per appointment starting within the lookahead
// window. Already-started and already-reminded appointments are skipped.
func (w *ReminderWorker) Scan(ctx context.Context) error {
	appointments, err := w.lister.ListAppointments(ctx)
	if err != nil {
		return fmt.Errorf("list appointments: %w", err)
	}

	now := w.now()
	deadline := now.Add(w.lookahead)

	for _, a := range appointments {
		if a.Status != core.StatusScheduled || len(a.Phone) < 10 {
			continue
		}
		if !a.StartsAt.After(now) || a.StartsAt.After(deadline) {
			continue
		}
		if w.seen(a.ID) {
			continue
		}

		msg := fmt.Sprintf("Sayın %s, saat %s'deki %s randevunuz yaklaşıyor. %s",
			a.CustomerName, a.StartsAt.Format("15:04"), a.Service, w.salonName)
		if err := w.sender.Send(ctx, a.Phone, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to send reminder SMS",
				"id", a.ID, "provider", w.sender.ProviderID(), "error", err)
			continue
		}

		w.markReminded(a.ID)
		slog.InfoContext(ctx, "Sent appointment reminder",
			"id", a.ID, "starts_at", a.StartsAt.Format(time.RFC3339))
	}

	return nil
}

// HandleEvent consumes appointment lifecycle events from the broker.
func (w *ReminderWorker) HandleEvent(ctx context.Context, event *amqp.AppointmentEvent) error {
	switch event.Kind {
	case amqp.EventCreated:
		slog.InfoContext(ctx, "Appointment booked",
			"id", event.ID, "starts_at", event.StartsAt.Format(time.RFC3339))
		return nil
	case amqp.EventDeleted:
		w.markRemoved(event.ID)
		slog.InfoContext(ctx, "Appointment removed, reminder suppressed", "id", event.ID)
		return nil
	default:
		return fmt.Errorf("unknown event kind %q", event.Kind)
	}
}

func (w *ReminderWorker) seen(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reminded[id] || w.removed[id]
}

func (w *ReminderWorker) markReminded(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reminded[id] = true
}

func (w *ReminderWorker) markRemoved(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.removed[id] = true
}

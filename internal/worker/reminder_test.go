package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"salon/internal/amqp"
	"salon/internal/core"
)

type fakeLister struct {
	appointments []core.Appointment
	err          error
}

func (f *fakeLister) ListAppointments(context.Context) ([]core.Appointment, error) {
	return f.appointments, f.err
}

type fakeSender struct {
	to  []string
	err error
}

func (f *fakeSender) Send(_ context.Context, to, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.to = append(f.to, to)
	return nil
}

func (f *fakeSender) ProviderID() string { return "fake" }

func appt(id string, startsAt time.Time, status core.Status) core.Appointment {
	return core.Appointment{
		ID:           id,
		StaffID:      "s1",
		CustomerName: "Ayşe",
		Phone:        "05551234567",
		Service:      "cut",
		StartsAt:     startsAt,
		Status:       status,
	}
}

func newTestWorker(lister *fakeLister, sender *fakeSender, now time.Time) *ReminderWorker {
	w := NewReminderWorker(lister, sender, "Salon Elit", time.Minute, 10*time.Minute)
	w.now = func() time.Time { return now }
	return w
}

func TestScanRemindsWithinLookahead(t *testing.T) {
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	lister := &fakeLister{appointments: []core.Appointment{
		appt("soon", now.Add(5*time.Minute), core.StatusScheduled),
		appt("later", now.Add(30*time.Minute), core.StatusScheduled),
		appt("past", now.Add(-5*time.Minute), core.StatusScheduled),
		appt("done", now.Add(5*time.Minute), core.StatusDone),
	}}
	sender := &fakeSender{}
	w := newTestWorker(lister, sender, now)

	if err := w.Scan(context.Background()); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(sender.to) != 1 {
		t.Fatalf("sent %d reminders, want 1", len(sender.to))
	}
}

func TestScanRemindsOnlyOnce(t *testing.T) {
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	lister := &fakeLister{appointments: []core.Appointment{
		appt("a1", now.Add(5*time.Minute), core.StatusScheduled),
	}}
	sender := &fakeSender{}
	w := newTestWorker(lister, sender, now)

	for i := 0; i < 3; i++ {
		if err := w.Scan(context.Background()); err != nil {
			t.Fatalf("scan %d: %v", i, err)
		}
	}
	if len(sender.to) != 1 {
		t.Fatalf("sent %d reminders, want 1", len(sender.to))
	}
}

func TestScanSkipsAppointmentWithoutPhone(t *testing.T) {
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	a := appt("a1", now.Add(5*time.Minute), core.StatusScheduled)
	a.Phone = ""
	lister := &fakeLister{appointments: []core.Appointment{a}}
	sender := &fakeSender{}
	w := newTestWorker(lister, sender, now)

	if err := w.Scan(context.Background()); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(sender.to) != 0 {
		t.Fatal("appointment without phone must be skipped")
	}
}

func TestDeletedEventSuppressesReminder(t *testing.T) {
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	lister := &fakeLister{appointments: []core.Appointment{
		appt("a1", now.Add(5*time.Minute), core.StatusScheduled),
	}}
	sender := &fakeSender{}
	w := newTestWorker(lister, sender, now)

	if err := w.HandleEvent(context.Background(), amqp.NewDeletedEvent("a1")); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if err := w.Scan(context.Background()); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(sender.to) != 0 {
		t.Fatal("deleted appointment must not be reminded")
	}
}

func TestHandleEventUnknownKind(t *testing.T) {
	w := newTestWorker(&fakeLister{}, &fakeSender{}, time.Now())
	event := &amqp.AppointmentEvent{Kind: "mystery", ID: "a1"}
	if err := w.HandleEvent(context.Background(), event); err == nil {
		t.Fatal("unknown event kind must error")
	}
}

func TestScanSendFailureRetriesNextScan(t *testing.T) {
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	lister := &fakeLister{appointments: []core.Appointment{
		appt("a1", now.Add(5*time.Minute), core.StatusScheduled),
	}}
	sender := &fakeSender{err: errors.New("provider down")}
	w := newTestWorker(lister, sender, now)

	if err := w.Scan(context.Background()); err != nil {
		t.Fatalf("scan: %v", err)
	}

	sender.err = nil
	if err := w.Scan(context.Background()); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(sender.to) != 1 {
		t.Fatalf("reminder must be retried after a failed send, got %d", len(sender.to))
	}
}

func TestScanListErrorSurfaced(t *testing.T) {
	lister := &fakeLister{err: errors.New("db down")}
	w := newTestWorker(lister, &fakeSender{}, time.Now())
	if err := w.Scan(context.Background()); err == nil {
		t.Fatal("list error must be surfaced")
	}
}

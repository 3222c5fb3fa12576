package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"salon/internal/amqp"
	"salon/internal/core"
)

type fakeStore struct {
	inserted  []core.Appointment
	deleted   []string
	insertErr error
	deleteErr error
}

func (f *fakeStore) InsertAppointment(_ context.Context, a core.Appointment) (string, error) {
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.inserted = append(f.inserted, a)
	return a.ID, nil
}

func (f *fakeStore) DeleteAppointment(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakePublisher struct {
	events []*amqp.AppointmentEvent
	err    error
}

func (f *fakePublisher) PublishEvent(_ context.Context, e *amqp.AppointmentEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

type fakeSender struct {
	to   []string
	body []string
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, message string) error {
	if f.err != nil {
		return f.err
	}
	f.to = append(f.to, to)
	f.body = append(f.body, message)
	return nil
}

func (f *fakeSender) ProviderID() string { return "fake" }

func validParams() CreateParams {
	return CreateParams{
		StaffID:      "s1",
		CustomerName: "Ayşe Yılmaz",
		Phone:        "05551234567",
		Service:      "Saç kesimi",
		Price:        500,
		Cost:         100,
		StartsAt:     time.Date(2025, 3, 12, 14, 30, 0, 0, time.UTC),
		DurationMin:  45,
	}
}

func TestCreateValidAppointment(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := NewAppointmentService(store, store, pub, &fakeSender{}, "Salon Elit")

	appt, err := svc.Create(context.Background(), validParams())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if appt.ID == "" {
		t.Fatal("expected a generated ID")
	}
	if appt.Status != core.StatusScheduled {
		t.Fatalf("status = %s, want %s", appt.Status, core.StatusScheduled)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("inserted %d appointments, want 1", len(store.inserted))
	}
	if len(pub.events) != 1 || pub.events[0].Kind != amqp.EventCreated {
		t.Fatalf("expected one created event, got %+v", pub.events)
	}
}

func TestCreateInvalidParamsNotPersisted(t *testing.T) {
	store := &fakeStore{}
	svc := NewAppointmentService(store, store, nil, nil, "Salon Elit")

	p := validParams()
	p.CustomerName = ""
	if _, err := svc.Create(context.Background(), p); !errors.Is(err, core.ErrEmptyCustomer) {
		t.Fatalf("err = %v, want ErrEmptyCustomer", err)
	}
	if len(store.inserted) != 0 {
		t.Fatal("invalid appointment must not be persisted")
	}
}

func TestCreateInsertErrorSurfaced(t *testing.T) {
	store := &fakeStore{insertErr: errors.New("db down")}
	pub := &fakePublisher{}
	svc := NewAppointmentService(store, store, pub, nil, "Salon Elit")

	if _, err := svc.Create(context.Background(), validParams()); err == nil {
		t.Fatal("insert error must fail the booking")
	}
	if len(pub.events) != 0 {
		t.Fatal("no event on failed insert")
	}
}

func TestCreateSendsSMSWhenRequested(t *testing.T) {
	store := &fakeStore{}
	sender := &fakeSender{}
	svc := NewAppointmentService(store, store, nil, sender, "Salon Elit")

	p := validParams()
	p.SendSMS = true
	if _, err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(sender.to) != 1 || sender.to[0] != "05551234567" {
		t.Fatalf("SMS recipients = %v", sender.to)
	}
	body := sender.body[0]
	for _, want := range []string{"Ayşe Yılmaz", "2025-03-12", "14:30", "Saç kesimi", "Salon Elit"} {
		if !strings.Contains(body, want) {
			t.Fatalf("SMS body %q missing %q", body, want)
		}
	}
}

func TestCreateSkipsSMSForShortPhone(t *testing.T) {
	store := &fakeStore{}
	sender := &fakeSender{}
	svc := NewAppointmentService(store, store, nil, sender, "Salon Elit")

	p := validParams()
	p.SendSMS = true
	p.Phone = "0555123"
	if _, err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(sender.to) != 0 {
		t.Fatal("short phone must not trigger SMS")
	}
}

func TestCreateSMSFailureDoesNotFailBooking(t *testing.T) {
	store := &fakeStore{}
	sender := &fakeSender{err: errors.New("twilio down")}
	svc := NewAppointmentService(store, store, nil, sender, "Salon Elit")

	p := validParams()
	p.SendSMS = true
	if _, err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("SMS failure must not fail the booking: %v", err)
	}
	if len(store.inserted) != 1 {
		t.Fatal("booking must still be persisted")
	}
}

func TestCreatePublishFailureDoesNotFailBooking(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewAppointmentService(store, store, pub, nil, "Salon Elit")

	if _, err := svc.Create(context.Background(), validParams()); err != nil {
		t.Fatalf("publish failure must not fail the booking: %v", err)
	}
}

func TestDelete(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := NewAppointmentService(store, store, pub, nil, "Salon Elit")

	if err := svc.Delete(context.Background(), "a1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "a1" {
		t.Fatalf("deleted = %v", store.deleted)
	}
	if len(pub.events) != 1 || pub.events[0].Kind != amqp.EventDeleted {
		t.Fatalf("expected one deleted event, got %+v", pub.events)
	}
}

func TestDeleteErrorNoEvent(t *testing.T) {
	store := &fakeStore{deleteErr: errors.New("not found")}
	pub := &fakePublisher{}
	svc := NewAppointmentService(store, store, pub, nil, "Salon Elit")

	if err := svc.Delete(context.Background(), "a1"); err == nil {
		t.Fatal("delete error must be surfaced")
	}
	if len(pub.events) != 0 {
		t.Fatal("no event on failed delete")
	}
}

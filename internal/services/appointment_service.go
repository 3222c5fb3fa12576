// Package services provides business logic and orchestration above the
// storage and messaging layers.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"salon/internal/amqp"
	"salon/internal/backend"
	"salon/internal/core"
	applog "salon/internal/log"
	"salon/internal/sms"
)

// EventPublisher is the slice of the AMQP client the service needs.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *amqp.AppointmentEvent) error
}

// AppointmentService orchestrates appointment mutations: validation,
// persistence, event publication, and best-effort SMS confirmation.
type AppointmentService struct {
	writer    backend.AppointmentWriter
	deleter   backend.AppointmentDeleter
	publisher EventPublisher
	sender    sms.Sender
	salonName string
	logs      *applog.StructuredLogger
}

func NewAppointmentService(writer backend.AppointmentWriter, deleter backend.AppointmentDeleter, publisher EventPublisher, sender sms.Sender, salonName string) *AppointmentService {
	return &AppointmentService{
		writer:    writer,
		deleter:   deleter,
		publisher: publisher,
		sender:    sender,
		salonName: salonName,
		logs:      applog.NewStructuredLogger(applog.NewFromEnv(applog.ComponentBooking)),
	}
}

// CreateParams is the booking-form input.
type CreateParams struct {
	StaffID      string
	CustomerName string
	Phone        string
	Service      string
	Price        int64
	Cost         int64
	StartsAt     time.Time
	DurationMin  int
	SendSMS      bool
}

// Create books the appointment. The SMS confirmation and the event
// publication are side channels: their failure is logged and never
// fails the booking.
func (s *AppointmentService) Create(ctx context.Context, p CreateParams) (core.Appointment, error) {
	appt := core.Appointment{
		ID:           uuid.NewString(),
		StaffID:      p.StaffID,
		CustomerName: p.CustomerName,
		Phone:        p.Phone,
		Service:      p.Service,
		Price:        core.Money{Amount: p.Price},
		Cost:         core.Money{Amount: p.Cost},
		StartsAt:     p.StartsAt,
		DurationMin:  p.DurationMin,
		Status:       core.StatusScheduled,
	}
	if err := appt.Validate(); err != nil {
		return core.Appointment{}, err
	}

	id, err := s.writer.InsertAppointment(ctx, appt)
	if err != nil {
		return core.Appointment{}, fmt.Errorf("save appointment: %w", err)
	}
	if id != "" {
		appt.ID = id
	}
	s.logs.LogAppointmentBooked(ctx, appt.ID, appt.StaffID, appt.CustomerName, appt.Service, appt.Price.Amount)

	s.publishEvent(ctx, amqp.NewCreatedEvent(appt.ID, appt.StaffID, appt.CustomerName, appt.Phone, appt.Service, appt.StartsAt))
	s.sendConfirmation(ctx, appt, p.SendSMS)

	return appt, nil
}

// Delete removes the appointment and publishes a deleted event.
func (s *AppointmentService) Delete(ctx context.Context, id string) error {
	if err := s.deleter.DeleteAppointment(ctx, id); err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	s.publishEvent(ctx, amqp.NewDeletedEvent(id))
	return nil
}

func (s *AppointmentService) publishEvent(ctx context.Context, event *amqp.AppointmentEvent) {
	if s.publisher == nil {
		return
	}
	op := applog.OpCreate
	if event.Kind == amqp.EventDeleted {
		op = applog.OpDelete
	}
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		s.logs.LogError(ctx, "Failed to publish appointment event", err,
			applog.ComponentAMQP, op,
			applog.LogFields{"id": event.ID, "kind": event.Kind})
	}
}

// sendConfirmation sends the booking SMS when the toggle is on and the
// customer left a usable phone number.
func (s *AppointmentService) sendConfirmation(ctx context.Context, a core.Appointment, requested bool) {
	if !requested || len(a.Phone) < 10 || s.sender == nil {
		return
	}
	msg := fmt.Sprintf("Sayın %s, %s tarihinde saat %s'de %s randevunuz oluşturuldu. %s",
		a.CustomerName,
		a.StartsAt.Format("2006-01-02"),
		a.StartsAt.Format("15:04"),
		a.Service,
		s.salonName)
	if err := s.sender.Send(ctx, a.Phone, msg); err != nil {
		s.logs.LogError(ctx, "Failed to send confirmation SMS", err,
			applog.ComponentSMS, applog.OpCreate,
			applog.LogFields{"id": a.ID, "provider": s.sender.ProviderID()})
	}
}

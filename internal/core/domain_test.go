package core

import (
	"testing"
	"time"
)

func validAppointment() Appointment {
	return Appointment{
		ID:           "a1",
		StaffID:      "s1",
		CustomerName: "Talha Eren",
		Phone:        "05551234567",
		Service:      "Haircut",
		Price:        Money{Amount: 100},
		Cost:         Money{Amount: 20},
		StartsAt:     time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		DurationMin:  30,
		Status:       StatusScheduled,
	}
}

func TestAppointmentValidate(t *testing.T) {
	if err := validAppointment().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Appointment)
		want   error
	}{
		{"all staff scope", func(a *Appointment) { a.StaffID = AllStaff }, ErrNoStaff},
		{"blank staff", func(a *Appointment) { a.StaffID = " " }, ErrNoStaff},
		{"empty customer", func(a *Appointment) { a.CustomerName = "  " }, ErrEmptyCustomer},
		{"empty service", func(a *Appointment) { a.Service = "" }, ErrEmptyService},
		{"zero price", func(a *Appointment) { a.Price = Money{} }, ErrInvalidPrice},
		{"negative cost", func(a *Appointment) { a.Cost = Money{Amount: -1} }, ErrInvalidCost},
		{"letters in phone", func(a *Appointment) { a.Phone = "055x123" }, ErrInvalidPhone},
		{"phone too long", func(a *Appointment) { a.Phone = "055512345678" }, ErrInvalidPhone},
		{"zero start", func(a *Appointment) { a.StartsAt = time.Time{} }, ErrZeroStart},
		{"unknown status", func(a *Appointment) { a.Status = "pending" }, ErrInvalidStatus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := validAppointment()
			tc.mutate(&a)
			if err := a.Validate(); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAppointmentValidateOptionalPhone(t *testing.T) {
	a := validAppointment()
	a.Phone = ""
	if err := a.Validate(); err != nil {
		t.Fatalf("phone is optional, got %v", err)
	}
}

func TestFilterByStaff(t *testing.T) {
	appts := []Appointment{
		{ID: "1", StaffID: "s1"},
		{ID: "2", StaffID: "s2"},
		{ID: "3", StaffID: "s1"},
	}

	all := FilterByStaff(appts, AllStaff)
	if len(all) != 3 {
		t.Fatalf("ALL scope should keep everything, got %d", len(all))
	}

	one := FilterByStaff(appts, "s1")
	if len(one) != 2 || one[0].ID != "1" || one[1].ID != "3" {
		t.Fatalf("filter must keep order, got %+v", one)
	}

	none := FilterByStaff(appts, "s9")
	if len(none) != 0 {
		t.Fatalf("expected empty result, got %d", len(none))
	}
}

package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	StatusScheduled Status = "scheduled"
	StatusCanceled  Status = "canceled"
	StatusDone      Status = "done"
)

// AllStaff is the pseudo staff scope meaning "no staff filter".
const AllStaff = "ALL"

type (
	Status string

	// Money is an exact whole-currency amount. Services are priced in
	// whole units, so there is no fractional component.
	Money struct {
		Amount int64
	}

	Staff struct {
		ID     string
		Name   string
		Active bool
	}

	Appointment struct {
		ID           string
		StaffID      string
		CustomerName string
		Phone        string // optional, digits only
		Service      string
		Price        Money
		Cost         Money
		StartsAt     time.Time
		DurationMin  int
		Status       Status
	}
)

var (
	ErrEmptyCustomer = errors.New("empty customer name")
	ErrEmptyService  = errors.New("empty service")
	ErrNoStaff       = errors.New("appointment requires a concrete staff member")
	ErrInvalidPrice  = errors.New("invalid price")
	ErrInvalidCost   = errors.New("invalid cost")
	ErrInvalidPhone  = errors.New("invalid phone number")
	ErrZeroStart     = errors.New("start time cannot be zero")
	ErrInvalidStatus = errors.New("invalid status")
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCanceled, StatusDone:
		return true
	default:
		return false
	}
}

func (m Money) String() string {
	return fmt.Sprintf("%d ₺", m.Amount)
}

func (m Money) Validate() error {
	if m.Amount < 0 {
		return ErrInvalidPrice
	}
	return nil
}

func (a Appointment) Validate() error {
	if strings.TrimSpace(a.StaffID) == "" || a.StaffID == AllStaff {
		return ErrNoStaff
	}
	if len(strings.TrimSpace(a.CustomerName)) == 0 {
		return ErrEmptyCustomer
	}
	if len(a.CustomerName) > 200 {
		return errors.New("customer name too long (max 200 characters)")
	}
	if strings.TrimSpace(a.Service) == "" {
		return ErrEmptyService
	}
	if a.Price.Amount <= 0 {
		return ErrInvalidPrice
	}
	if a.Cost.Amount < 0 {
		return ErrInvalidCost
	}
	if a.Phone != "" {
		if err := ValidatePhone(a.Phone); err != nil {
			return err
		}
	}
	if a.StartsAt.IsZero() {
		return ErrZeroStart
	}
	if !a.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// ValidatePhone accepts local digit-only numbers up to 11 digits.
func ValidatePhone(phone string) error {
	if len(phone) > 11 {
		return ErrInvalidPhone
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return ErrInvalidPhone
		}
	}
	return nil
}

// FilterByStaff returns the appointments assigned to staffID, or the
// input unchanged for the AllStaff scope. Order is preserved.
func FilterByStaff(appts []Appointment, staffID string) []Appointment {
	if staffID == AllStaff || staffID == "" {
		return appts
	}
	out := make([]Appointment, 0, len(appts))
	for _, a := range appts {
		if a.StaffID == staffID {
			out = append(out, a)
		}
	}
	return out
}

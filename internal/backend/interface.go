package backend

import (
	"context"
	"time"

	"salon/internal/core"
)

// Ports for the data/auth collaborators.
type (
	AppointmentWriter interface {
		// InsertAppointment persists the appointment and returns its identifier.
		InsertAppointment(ctx context.Context, a core.Appointment) (string, error)
	}

	AppointmentDeleter interface {
		DeleteAppointment(ctx context.Context, id string) error
	}

	// AppointmentLister returns the full collection ordered by ascending
	// start time. Mutations are fire-and-refetch, so callers reload via
	// this port after every insert or delete.
	AppointmentLister interface {
		ListAppointments(ctx context.Context) ([]core.Appointment, error)
	}

	// StaffLister returns active staff ordered by name.
	StaffLister interface {
		ListStaff(ctx context.Context) ([]core.Staff, error)
	}

	// Auth is the authentication collaborator. A nil *Session with a nil
	// error means "not signed in".
	Auth interface {
		GetSession(ctx context.Context) (*Session, error)
		SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
		SignOut(ctx context.Context) error
	}
)

// Session describes a live backend session.
type Session struct {
	AccessToken string
	Email       string
	ExpiresAt   time.Time
}

// Backend is the unified interface a fully configured backend provides.
type Backend interface {
	AppointmentWriter
	AppointmentDeleter
	AppointmentLister
	StaffLister
	Auth
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result contains the backend instance and optional cleanup function.
type Result struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Type selects the backend implementation.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	RESTBackend   Type = "rest"
	MemoryBackend Type = "memory"
)

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, RESTBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// GuardAuth bridges an Auth port to the session guard, which only needs
// existence checks and sign-out.
type GuardAuth struct {
	Auth Auth
}

func (g GuardAuth) HasSession(ctx context.Context) (bool, error) {
	s, err := g.Auth.GetSession(ctx)
	if err != nil {
		return false, err
	}
	return s != nil, nil
}

func (g GuardAuth) SignOut(ctx context.Context) error {
	return g.Auth.SignOut(ctx)
}

package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"salon/internal/backend"
	"salon/internal/core"
)

// Store is an in-memory backend for demo runs and tests. It implements
// the full backend surface, including a single-user auth stub.
type Store struct {
	mu      sync.Mutex
	staff   []core.Staff
	appts   []core.Appointment
	nextID  int
	session *backend.Session
}

var _ backend.Backend = (*Store)(nil)

// NewStore seeds staff from the given display names.
func NewStore(staffNames []string) *Store {
	s := &Store{}
	for i, name := range staffNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		s.staff = append(s.staff, core.Staff{
			ID:     fmt.Sprintf("staff-%d", i+1),
			Name:   name,
			Active: true,
		})
	}
	sort.Slice(s.staff, func(i, j int) bool { return s.staff[i].Name < s.staff[j].Name })
	return s
}

// InsertAppointment stores the appointment and returns its identifier.
func (s *Store) InsertAppointment(_ context.Context, a core.Appointment) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		s.nextID++
		a.ID = fmt.Sprintf("mem-%d", s.nextID)
	}
	s.appts = append(s.appts, a)
	return a.ID, nil
}

func (s *Store) DeleteAppointment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.appts {
		if a.ID == id {
			s.appts = append(s.appts[:i], s.appts[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("appointment %s not found", id)
}

// ListAppointments returns a copy ordered by ascending start time.
func (s *Store) ListAppointments(_ context.Context) ([]core.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Appointment(nil), s.appts...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

// ListStaff returns the active staff ordered by name.
func (s *Store) ListStaff(_ context.Context) ([]core.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Staff, 0, len(s.staff))
	for _, m := range s.staff {
		if m.Active {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) GetSession(_ context.Context) (*backend.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, nil
}

// SignInWithPassword accepts any non-empty credentials; the memory
// backend exists for demos, not security.
func (s *Store) SignInWithPassword(_ context.Context, email, password string) (*backend.Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, errors.New("email and password are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = &backend.Session{
		AccessToken: fmt.Sprintf("mem-token-%d", time.Now().UnixNano()),
		Email:       email,
		ExpiresAt:   time.Now().Add(24 * time.Hour),
	}
	return s.session, nil
}

func (s *Store) SignOut(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}

package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/bcrypt"

	"salon/internal/backend"
	"salon/internal/core"

	_ "modernc.org/sqlite"
)

// ErrInvalidCredentials is returned for a wrong email/password pair.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Repository is the local SQLite backend for standalone deployments.
type Repository struct {
	db *sql.DB
}

var _ backend.Backend = (*Repository)(nil)

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InsertAppointment implements backend.AppointmentWriter.
func (r *Repository) InsertAppointment(ctx context.Context, a core.Appointment) (string, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO appointments
			(id, staff_id, customer_name, phone, service, price, cost, starts_at, duration_min, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.StaffID, a.CustomerName, a.Phone, a.Service,
		a.Price.Amount, a.Cost.Amount, a.StartsAt.UTC().Format(time.RFC3339), a.DurationMin, string(a.Status))
	if err != nil {
		return "", fmt.Errorf("insert appointment: %w", err)
	}

	slog.InfoContext(ctx, "Appointment saved to SQLite",
		"id", a.ID,
		"staff_id", a.StaffID,
		"customer", a.CustomerName,
		"starts_at", a.StartsAt)

	return a.ID, nil
}

// DeleteAppointment implements backend.AppointmentDeleter.
func (r *Repository) DeleteAppointment(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("appointment %s not found", id)
	}
	slog.InfoContext(ctx, "Appointment deleted", "id", id)
	return nil
}

// ListAppointments implements backend.AppointmentLister. Rows come back
// ordered by ascending start time.
func (r *Repository) ListAppointments(ctx context.Context) ([]core.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, staff_id, customer_name, phone, service, price, cost, starts_at, duration_min, status
		FROM appointments
		ORDER BY starts_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	var out []core.Appointment
	for rows.Next() {
		var a core.Appointment
		var startsAt string
		if err := rows.Scan(&a.ID, &a.StaffID, &a.CustomerName, &a.Phone, &a.Service,
			&a.Price.Amount, &a.Cost.Amount, &startsAt, &a.DurationMin, (*string)(&a.Status)); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		t, err := time.Parse(time.RFC3339, startsAt)
		if err != nil {
			return nil, fmt.Errorf("parse starts_at %q: %w", startsAt, err)
		}
		a.StartsAt = t
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListStaff implements backend.StaffLister.
func (r *Repository) ListStaff(ctx context.Context) ([]core.Staff, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, active FROM staff WHERE active = 1 ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query staff: %w", err)
	}
	defer rows.Close()

	var out []core.Staff
	for rows.Next() {
		var s core.Staff
		if err := rows.Scan(&s.ID, &s.Name, &s.Active); err != nil {
			return nil, fmt.Errorf("scan staff: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetSession implements backend.Auth. The salon runs single-team on a
// shared device, so the latest stored session is the ambient one.
func (r *Repository) GetSession(ctx context.Context) (*backend.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT token, email, created_at FROM sessions ORDER BY created_at DESC LIMIT 1`)

	var s backend.Session
	var createdAt string
	if err := row.Scan(&s.AccessToken, &s.Email, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query session: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		s.ExpiresAt = t.Add(24 * time.Hour)
	}
	return &s, nil
}

// SignInWithPassword implements backend.Auth against the local users
// table using bcrypt hashes.
func (r *Repository) SignInWithPassword(ctx context.Context, email, password string) (*backend.Session, error) {
	var hash string
	err := r.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE email = ?`, email).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, email, created_at) VALUES (?, ?, ?)`, token, email, now); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	slog.InfoContext(ctx, "User signed in", "email", email)
	return &backend.Session{AccessToken: token, Email: email, ExpiresAt: time.Now().Add(24 * time.Hour)}, nil
}

// SignOut implements backend.Auth by dropping all stored sessions.
func (r *Repository) SignOut(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}

// EnsureUser creates the user when missing. Used at startup to seed the
// admin account from the environment.
func (r *Repository) EnsureUser(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&n); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, string(hash)); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	slog.InfoContext(ctx, "Seeded admin user", "email", email)
	return nil
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

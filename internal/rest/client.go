// Package rest talks to the hosted backend-as-a-service: row storage
// under /rest/v1 and password auth under /auth/v1. Any non-2xx answer
// is surfaced to the caller as an error; there are no retries.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"salon/internal/backend"
	"salon/internal/core"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client

	mu      sync.Mutex
	session *backend.Session
}

var _ backend.Backend = (*Client)(nil)

func NewClient(baseURL, apiKey string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("missing backend base URL")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid backend base URL: %w", err)
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}, nil
}

type apptRow struct {
	ID           string `json:"id,omitempty"`
	EmployeeID   string `json:"employee_id"`
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	Service      string `json:"service"`
	Price        int64  `json:"price"`
	Cost         int64  `json:"cost"`
	StartsAt     string `json:"starts_at"`
	DurationMin  int    `json:"duration_min"`
	Status       string `json:"status"`
}

type staffRow struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"is_active"`
}

func (r apptRow) toCore() (core.Appointment, error) {
	t, err := time.Parse(time.RFC3339, r.StartsAt)
	if err != nil {
		return core.Appointment{}, fmt.Errorf("parse starts_at %q: %w", r.StartsAt, err)
	}
	return core.Appointment{
		ID:           r.ID,
		StaffID:      r.EmployeeID,
		CustomerName: r.CustomerName,
		Phone:        r.Phone,
		Service:      r.Service,
		Price:        core.Money{Amount: r.Price},
		Cost:         core.Money{Amount: r.Cost},
		StartsAt:     t,
		DurationMin:  r.DurationMin,
		Status:       core.Status(r.Status),
	}, nil
}

func rowFromCore(a core.Appointment) apptRow {
	return apptRow{
		ID:           a.ID,
		EmployeeID:   a.StaffID,
		CustomerName: a.CustomerName,
		Phone:        a.Phone,
		Service:      a.Service,
		Price:        a.Price.Amount,
		Cost:         a.Cost.Amount,
		StartsAt:     a.StartsAt.UTC().Format(time.RFC3339),
		DurationMin:  a.DurationMin,
		Status:       string(a.Status),
	}
}

// InsertAppointment implements backend.AppointmentWriter.
func (c *Client) InsertAppointment(ctx context.Context, a core.Appointment) (string, error) {
	body, err := json.Marshal(rowFromCore(a))
	if err != nil {
		return "", fmt.Errorf("marshal appointment: %w", err)
	}
	if err := c.do(ctx, http.MethodPost, "/rest/v1/appointments", body, nil); err != nil {
		return "", err
	}
	return a.ID, nil
}

// DeleteAppointment implements backend.AppointmentDeleter.
func (c *Client) DeleteAppointment(ctx context.Context, id string) error {
	path := "/rest/v1/appointments?id=eq." + url.QueryEscape(id)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// ListAppointments implements backend.AppointmentLister.
func (c *Client) ListAppointments(ctx context.Context) ([]core.Appointment, error) {
	var rows []apptRow
	if err := c.do(ctx, http.MethodGet, "/rest/v1/appointments?order=starts_at.asc", nil, &rows); err != nil {
		return nil, err
	}
	out := make([]core.Appointment, 0, len(rows))
	for _, r := range rows {
		a, err := r.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// ListStaff implements backend.StaffLister.
func (c *Client) ListStaff(ctx context.Context) ([]core.Staff, error) {
	var rows []staffRow
	if err := c.do(ctx, http.MethodGet, "/rest/v1/staff?is_active=eq.true&order=name.asc", nil, &rows); err != nil {
		return nil, err
	}
	out := make([]core.Staff, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.Staff{ID: r.ID, Name: r.Name, Active: r.Active})
	}
	return out, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	User        struct {
		Email string `json:"email"`
	} `json:"user"`
}

// SignInWithPassword implements backend.Auth.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*backend.Session, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, fmt.Errorf("marshal credentials: %w", err)
	}
	var tok tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", body, &tok); err != nil {
		return nil, err
	}
	s := &backend.Session{
		AccessToken: tok.AccessToken,
		Email:       tok.User.Email,
		ExpiresAt:   time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second),
	}
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	return s, nil
}

// GetSession implements backend.Auth. The cached token is verified
// against the auth endpoint; a rejected token means "no session".
func (c *Client) GetSession(ctx context.Context) (*backend.Session, error) {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil {
		return nil, nil
	}
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", nil, nil); err != nil {
		c.mu.Lock()
		c.session = nil
		c.mu.Unlock()
		return nil, nil
	}
	return s, nil
}

// SignOut implements backend.Auth.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	had := c.session != nil
	c.mu.Unlock()
	if !had {
		return nil
	}
	err := c.do(ctx, http.MethodPost, "/auth/v1/logout", nil, nil)
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	c.mu.Lock()
	if c.session != nil {
		req.Header.Set("Authorization", "Bearer "+c.session.AccessToken)
	}
	c.mu.Unlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: backend returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

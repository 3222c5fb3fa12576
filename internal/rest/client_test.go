package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSignInAndGetSession(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok-123",
				"expires_in":   3600,
				"user":         map[string]string{"email": "owner@salon.example"},
			})
		case "/auth/v1/user":
			gotAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cli, err := NewClient(srv.URL, "key")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	s, err := cli.SignInWithPassword(context.Background(), "owner@salon.example", "pw")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if s.AccessToken != "tok-123" || s.Email != "owner@salon.example" {
		t.Fatalf("session mismatch: %+v", s)
	}

	got, err := cli.GetSession(context.Background())
	if err != nil || got == nil {
		t.Fatalf("get session: %v %v", got, err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("token must be forwarded, got %q", gotAuth)
	}
}

func TestGetSessionRejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			json.NewEncoder(w).Encode(map[string]any{"access_token": "t", "expires_in": 60})
		case "/auth/v1/user":
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	cli, _ := NewClient(srv.URL, "")
	if _, err := cli.SignInWithPassword(context.Background(), "a@b", "pw"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	s, err := cli.GetSession(context.Background())
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if s != nil {
		t.Fatal("revoked token must yield no session")
	}
}

func TestGetSessionWithoutSignIn(t *testing.T) {
	cli, _ := NewClient("http://localhost:9", "")
	s, err := cli.GetSession(context.Background())
	if err != nil || s != nil {
		t.Fatalf("no cached session must mean nil, nil; got %v %v", s, err)
	}
}

func TestListAppointments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/appointments" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("order") != "starts_at.asc" {
			t.Errorf("listing must request ascending start order, got %q", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{
				"id": "a1", "employee_id": "s1", "customer_name": "Talha",
				"phone": "", "service": "cut", "price": 100, "cost": 20,
				"starts_at": "2025-03-12T09:00:00Z", "duration_min": 30, "status": "scheduled",
			},
		})
	}))
	defer srv.Close()

	cli, _ := NewClient(srv.URL, "")
	appts, err := cli.ListAppointments(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(appts) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(appts))
	}
	a := appts[0]
	if a.StaffID != "s1" || a.Price.Amount != 100 ||
		!a.StartsAt.Equal(time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("row mapping mismatch: %+v", a)
	}
}

func TestBackendErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "row level security violation", http.StatusForbidden)
	}))
	defer srv.Close()

	cli, _ := NewClient(srv.URL, "")
	if _, err := cli.ListAppointments(context.Background()); err == nil {
		t.Fatal("non-2xx must surface as an error")
	}
}

func TestDeleteAppointmentFilter(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cli, _ := NewClient(srv.URL, "")
	if err := cli.DeleteAppointment(context.Background(), "a1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if gotQuery != "id=eq.a1" {
		t.Fatalf("delete must filter by id, got %q", gotQuery)
	}
}

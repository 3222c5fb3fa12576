package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct{ in, want string }{
		{"05551234567", "+905551234567"},
		{"+905551234567", "+905551234567"},
		{"5551234567", "5551234567"},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.in); got != tc.want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewSenderSelectsDemoMode(t *testing.T) {
	s := NewSender(Config{})
	if s.ProviderID() != "demo" {
		t.Fatalf("missing credentials must select demo mode, got %s", s.ProviderID())
	}
	if err := s.Send(context.Background(), "0555", "hi"); err != nil {
		t.Fatalf("demo send must succeed: %v", err)
	}

	s = NewSender(Config{AccountSID: "AC1", AuthToken: "tok", FromNumber: "+1000"})
	if s.ProviderID() != "twilio" {
		t.Fatalf("full credentials must select twilio, got %s", s.ProviderID())
	}
}

func TestTwilioSenderSend(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2010-04-01/Accounts/AC1/Messages.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "AC1" || pass != "tok" {
			t.Errorf("basic auth mismatch: %s %s", user, pass)
		}
		r.ParseForm()
		gotForm = map[string]string{
			"To":   r.PostForm.Get("To"),
			"From": r.PostForm.Get("From"),
			"Body": r.PostForm.Get("Body"),
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewTwilioSender(Config{AccountSID: "AC1", AuthToken: "tok", FromNumber: "+1000"})
	s.baseURL = srv.URL

	if err := s.Send(context.Background(), "05551234567", "Randevunuz oluşturuldu"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotForm["To"] != "+905551234567" || gotForm["From"] != "+1000" {
		t.Fatalf("form mismatch: %v", gotForm)
	}
}

func TestTwilioSenderProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid number", http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewTwilioSender(Config{AccountSID: "AC1", AuthToken: "tok", FromNumber: "+1000"})
	s.baseURL = srv.URL

	if err := s.Send(context.Background(), "0555", "x"); err == nil {
		t.Fatal("provider error must be returned")
	}
}

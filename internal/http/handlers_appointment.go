package http

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"salon/internal/core"
	"salon/internal/services"
)

// validationMessages maps domain validation errors to the inline form
// messages shown next to the booking form.
var validationMessages = []struct {
	err error
	msg string
}{
	{core.ErrNoStaff, "Personel seçin"},
	{core.ErrEmptyCustomer, "Müşteri adı gerekli"},
	{core.ErrEmptyService, "Hizmet gerekli"},
	{core.ErrInvalidPrice, "Geçerli bir ücret girin"},
	{core.ErrInvalidCost, "Geçerli bir maliyet girin"},
	{core.ErrInvalidPhone, "Geçerli bir telefon numarası girin"},
	{core.ErrZeroStart, "Randevu zamanı gerekli"},
}

func validationMessage(err error) string {
	for _, vm := range validationMessages {
		if errors.Is(err, vm.err) {
			return vm.msg
		}
	}
	return "Geçersiz randevu bilgisi"
}

// handleCreateAppointment books a new appointment from the dashboard
// form. Responses are htmx fragments; a successful booking triggers a
// client-side refetch of the calendar and KPI partials.
func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Geçersiz istek</div>`))
		return
	}

	price, err := parseAmount(r.Form.Get("price"))
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Geçerli bir ücret girin</div>`))
		return
	}
	cost := int64(0)
	if v := strings.TrimSpace(r.Form.Get("cost")); v != "" {
		cost, err = parseAmount(v)
		if err != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`<div class="error">Geçerli bir maliyet girin</div>`))
			return
		}
	}

	startsAt, err := time.ParseInLocation("2006-01-02T15:04", strings.TrimSpace(r.Form.Get("starts_at")), time.Local)
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Randevu zamanı gerekli</div>`))
		return
	}

	duration := 30
	if v := strings.TrimSpace(r.Form.Get("duration")); v != "" {
		if d, err := strconv.Atoi(v); err == nil && d > 0 {
			duration = d
		}
	}

	params := services.CreateParams{
		StaffID:      strings.TrimSpace(r.Form.Get("staff_id")),
		CustomerName: sanitizeInput(r.Form.Get("customer_name")),
		Phone:        strings.TrimSpace(r.Form.Get("phone")),
		Service:      sanitizeInput(r.Form.Get("service")),
		Price:        price,
		Cost:         cost,
		StartsAt:     startsAt,
		DurationMin:  duration,
		SendSMS:      r.Form.Get("send_sms") == "on",
	}

	appt, err := s.appointments.Create(r.Context(), params)
	if err != nil {
		if isValidationError(err) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`<div class="error">` + template.HTMLEscapeString(validationMessage(err)) + `</div>`))
			return
		}
		slog.ErrorContext(r.Context(), "Appointment create error", "error", err, "customer", params.CustomerName)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Randevu kaydedilemedi</div>`))
		return
	}

	w.Header().Set("HX-Trigger", `{"appointment:created": {"id": "`+template.JSEscapeString(appt.ID)+`"}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Randevu oluşturuldu: ` +
		template.HTMLEscapeString(appt.CustomerName) + ` — ` +
		template.HTMLEscapeString(appt.Service) + ` (` +
		template.HTMLEscapeString(appt.StartsAt.Format("02.01.2006 15:04")) + `)</div>`))
}

// handleDeleteAppointment removes an appointment and triggers a
// client-side refetch.
func (s *Server) handleDeleteAppointment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Geçersiz istek</div>`))
		return
	}

	id := strings.TrimSpace(r.Form.Get("id"))
	if id == "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Randevu bulunamadı</div>`))
		return
	}

	if err := s.appointments.Delete(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Appointment delete error", "error", err, "id", id)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Randevu silinemedi</div>`))
		return
	}

	w.Header().Set("HX-Trigger", `{"appointment:deleted": {"id": "`+template.JSEscapeString(id)+`"}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Randevu silindi</div>`))
}

func isValidationError(err error) bool {
	for _, vm := range validationMessages {
		if errors.Is(err, vm.err) {
			return true
		}
	}
	return errors.Is(err, core.ErrInvalidStatus)
}

// parseAmount parses a whole-lira amount from form input.
func parseAmount(v string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
}

// sanitizeInput removes potentially dangerous characters and trims whitespace
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	// Remove control characters except tab, newline, carriage return
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

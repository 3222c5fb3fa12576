package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"salon/internal/core"
	"salon/internal/export"
)

// handleExportCSV streams the full appointment list as a CSV download.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	appts, err := s.loadAppointments(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "CSV export error", "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	scoped := core.FilterByStaff(appts, parseStaffScope(r))

	names, err := s.staffNames(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Staff list error", "error", err)
		names = map[string]string{}
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, scoped, names); err != nil {
		slog.ErrorContext(r.Context(), "CSV render error", "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="randevular.csv"`)
	_, _ = w.Write(buf.Bytes())
}

// handleExportPDF streams a monthly report PDF for the requested month.
func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year, month := parseYearMonth(r, now)

	appts, err := s.loadAppointments(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "PDF export error", "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	scoped := core.FilterByStaff(appts, parseStaffScope(r))

	window := core.MonthWindow(time.Date(year, month, 1, 0, 0, 0, 0, time.Local))
	var monthly []core.Appointment
	for _, a := range scoped {
		if window.Contains(a.StartsAt) {
			monthly = append(monthly, a)
		}
	}
	kpi := core.SumWindow(scoped, window)

	names, err := s.staffNames(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Staff list error", "error", err)
		names = map[string]string{}
	}

	period := fmt.Sprintf("%s %d", turkishMonths[month], year)
	report := export.PDFReport{SalonName: s.salonName}

	var buf bytes.Buffer
	if err := report.Write(&buf, period, monthly, names, kpi); err != nil {
		slog.ErrorContext(r.Context(), "PDF render error", "error", err, "year", year, "month", int(month))
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="rapor-%04d-%02d.pdf"`, year, int(month)))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) staffNames(r *http.Request) (map[string]string, error) {
	staff, err := s.listStaff(r.Context())
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(staff))
	for _, st := range staff {
		names[st.ID] = st.Name
	}
	return names, nil
}

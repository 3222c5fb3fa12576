package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"salon/internal/core"
)

var turkishMonths = map[time.Month]string{
	time.January:   "Ocak",
	time.February:  "Şubat",
	time.March:     "Mart",
	time.April:     "Nisan",
	time.May:       "Mayıs",
	time.June:      "Haziran",
	time.July:      "Temmuz",
	time.August:    "Ağustos",
	time.September: "Eylül",
	time.October:   "Ekim",
	time.November:  "Kasım",
	time.December:  "Aralık",
}

var weekdayHeaders = []string{"Paz", "Pzt", "Sal", "Çar", "Per", "Cum", "Cmt"}

type staffOption struct {
	ID       string
	Name     string
	Color    string
	Selected bool
}

// parseStaffScope returns the staff filter from the query, defaulting
// to the all-staff scope.
func parseStaffScope(r *http.Request) string {
	v := strings.TrimSpace(r.URL.Query().Get("staff"))
	if v == "" {
		return core.AllStaff
	}
	return v
}

// parseYearMonth returns the requested calendar position, falling back
// to now for missing or out-of-range values.
func parseYearMonth(r *http.Request, now time.Time) (int, time.Month) {
	year := now.Year()
	month := now.Month()
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y >= 2000 && y <= 2100 {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			month = time.Month(m)
		} else {
			slog.WarnContext(r.Context(), "Invalid month parameter", "value", v)
		}
	}
	return year, month
}

func (s *Server) loadAppointments(ctx context.Context) ([]core.Appointment, error) {
	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	appts, err := s.backend.ListAppointments(cctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

func (s *Server) staffOptions(ctx context.Context, selected string) ([]staffOption, map[string]string, error) {
	staff, err := s.listStaff(ctx)
	if err != nil {
		return nil, nil, err
	}
	colors := core.StaffColors(staff)
	options := make([]staffOption, 0, len(staff))
	for _, st := range staff {
		options = append(options, staffOption{
			ID:       st.ID,
			Name:     st.Name,
			Color:    colors[st.ID],
			Selected: st.ID == selected,
		})
	}
	return options, colors, nil
}

// handleDashboard renders the main page shell. The KPI and calendar
// sections load themselves over htmx.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	selected := parseStaffScope(r)
	options, _, err := s.staffOptions(r.Context(), selected)
	if err != nil {
		slog.ErrorContext(r.Context(), "Staff list error", "error", err)
	}

	now := time.Now()
	data := struct {
		SalonName string
		Staff     []staffOption
		StaffID   string
		AllStaff  string
		Year      int
		Month     int
		Today     string
	}{
		SalonName: s.salonName,
		Staff:     options,
		StaffID:   selected,
		AllStaff:  core.AllStaff,
		Year:      now.Year(),
		Month:     int(now.Month()),
		Today:     now.Format("2006-01-02T15:04"),
	}

	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Dashboard template execution failed", "error", err, "template", "dashboard.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type kpiRow struct {
	Label   string
	Income  string
	Expense string
	Net     string
}

// handleKPI renders the KPI partial for the selected staff scope.
func (s *Server) handleKPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	appts, err := s.loadAppointments(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "KPI load error", "error", err)
		_, _ = w.Write([]byte(`<section id="kpi" class="kpi"><div class="placeholder">Rapor yüklenemedi</div></section>`))
		return
	}

	scoped := core.FilterByStaff(appts, parseStaffScope(r))
	report := core.ComputeKPI(scoped, time.Now())

	data := struct {
		StaffID string
		Rows    []kpiRow
	}{
		StaffID: parseStaffScope(r),
		Rows: []kpiRow{
			{Label: "Bugün", Income: report.Day.Income.String(), Expense: report.Day.Expense.String(), Net: report.Day.Net.String()},
			{Label: "Bu Hafta", Income: report.Week.Income.String(), Expense: report.Week.Expense.String(), Net: report.Week.Net.String()},
			{Label: "Bu Ay", Income: report.Month.Income.String(), Expense: report.Month.Expense.String(), Net: report.Month.Net.String()},
			{Label: "Bu Yıl", Income: report.Year.Income.String(), Expense: report.Year.Expense.String(), Net: report.Year.Net.String()},
		},
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="kpi" class="kpi"><div class="placeholder">Net: ` + report.Month.Net.String() + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "kpi.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "kpi.html")
		_, _ = w.Write([]byte(`<section id="kpi" class="kpi"><div class="placeholder">Rapor gösterilemedi</div></section>`))
	}
}

type calendarAppt struct {
	ID       string
	Time     string
	Customer string
	Service  string
	Color    string
}

type calendarCell struct {
	Blank        bool
	Day          int
	IsToday      bool
	Appointments []calendarAppt
}

// handleCalendar renders the month grid partial.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	now := time.Now()
	year, month := parseYearMonth(r, now)
	staffID := parseStaffScope(r)

	appts, err := s.loadAppointments(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Calendar load error", "error", err, "year", year, "month", int(month))
		_, _ = w.Write([]byte(`<section id="calendar" class="calendar"><div class="placeholder">Takvim yüklenemedi</div></section>`))
		return
	}

	_, colors, err := s.staffOptions(r.Context(), staffID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Staff list error", "error", err)
		colors = map[string]string{}
	}

	grid := core.ProjectMonth(year, month, appts, staffID, now)

	cells := make([]calendarCell, 0, len(grid.Cells))
	for _, c := range grid.Cells {
		cell := calendarCell{Blank: c.Blank, Day: c.Day, IsToday: c.IsToday}
		for _, a := range c.Appointments {
			cell.Appointments = append(cell.Appointments, calendarAppt{
				ID:       a.ID,
				Time:     a.StartsAt.Format("15:04"),
				Customer: a.CustomerName,
				Service:  a.Service,
				Color:    colors[a.StaffID],
			})
		}
		cells = append(cells, cell)
	}

	prev := time.Date(year, month, 1, 0, 0, 0, 0, time.Local).AddDate(0, -1, 0)
	next := time.Date(year, month, 1, 0, 0, 0, 0, time.Local).AddDate(0, 1, 0)

	data := struct {
		Year      int
		MonthName string
		StaffID   string
		Weekdays  []string
		Cells     []calendarCell
		PrevYear  int
		PrevMonth int
		NextYear  int
		NextMonth int
	}{
		Year:      year,
		MonthName: turkishMonths[month],
		StaffID:   staffID,
		Weekdays:  weekdayHeaders,
		Cells:     cells,
		PrevYear:  prev.Year(),
		PrevMonth: int(prev.Month()),
		NextYear:  next.Year(),
		NextMonth: int(next.Month()),
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="calendar" class="calendar"><div class="placeholder">` + data.MonthName + ` ` + strconv.Itoa(year) + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "calendar.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "calendar.html", "year", year, "month", int(month))
		_, _ = w.Write([]byte(`<section id="calendar" class="calendar"><div class="placeholder">Takvim gösterilemedi</div></section>`))
	}
}

type appointmentRow struct {
	ID       string
	Date     string
	Time     string
	Staff    string
	Customer string
	Service  string
	Price    string
	Status   string
}

// handleAppointmentList renders the upcoming-appointment table partial.
func (s *Server) handleAppointmentList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	appts, err := s.loadAppointments(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Appointment list error", "error", err)
		_, _ = w.Write([]byte(`<section id="appointments" class="appointments"><div class="placeholder">Randevular yüklenemedi</div></section>`))
		return
	}

	staffID := parseStaffScope(r)
	scoped := core.FilterByStaff(appts, staffID)

	names, err := s.staffNames(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Staff list error", "error", err)
		names = map[string]string{}
	}

	rows := make([]appointmentRow, 0, len(scoped))
	for _, a := range scoped {
		name := names[a.StaffID]
		if name == "" {
			name = a.StaffID
		}
		rows = append(rows, appointmentRow{
			ID:       a.ID,
			Date:     a.StartsAt.Format("02.01.2006"),
			Time:     a.StartsAt.Format("15:04"),
			Staff:    name,
			Customer: a.CustomerName,
			Service:  a.Service,
			Price:    a.Price.String(),
			Status:   string(a.Status),
		})
	}

	data := struct {
		StaffID string
		Rows    []appointmentRow
	}{StaffID: staffID, Rows: rows}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="appointments" class="appointments"><div class="placeholder">` + strconv.Itoa(len(rows)) + ` randevu</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "appointments.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "appointments.html")
		_, _ = w.Write([]byte(`<section id="appointments" class="appointments"><div class="placeholder">Randevular gösterilemedi</div></section>`))
	}
}

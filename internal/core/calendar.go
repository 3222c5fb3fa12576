package core

import "time"

// StaffPalette is the fixed set of colors assigned to staff members in
// the calendar view. Assignment wraps modulo the palette size.
var StaffPalette = []string{"#c9a24d", "#4a90d9", "#27ae60", "#e74c3c", "#9b59b6"}

// DayCell is one cell of the month grid. Blank cells pad the grid up to
// the weekday of the 1st; they carry a zero Date and no appointments.
type DayCell struct {
	Blank        bool
	Date         time.Time
	Day          int
	IsToday      bool
	Appointments []Appointment
}

// MonthGrid is the calendar projection of one month.
type MonthGrid struct {
	Year  int
	Month time.Month
	Cells []DayCell
}

// ProjectMonth maps appointments onto a month grid: leading blank cells
// for the weekdays before the 1st (week starts Sunday), then one cell
// per calendar day. Appointments are pre-filtered by staff scope and
// bucketed by calendar day; their relative order is preserved, so a
// chronologically sorted input stays sorted within each cell.
func ProjectMonth(year int, month time.Month, appts []Appointment, staffID string, today time.Time) MonthGrid {
	filtered := FilterByStaff(appts, staffID)

	first := time.Date(year, month, 1, 0, 0, 0, 0, today.Location())
	daysInMonth := first.AddDate(0, 1, -1).Day()

	grid := MonthGrid{Year: year, Month: month}
	grid.Cells = make([]DayCell, 0, int(first.Weekday())+daysInMonth)

	for i := 0; i < int(first.Weekday()); i++ {
		grid.Cells = append(grid.Cells, DayCell{Blank: true})
	}

	for day := 1; day <= daysInMonth; day++ {
		date := time.Date(year, month, day, 0, 0, 0, 0, today.Location())
		cell := DayCell{
			Date:    date,
			Day:     day,
			IsToday: SameDay(date, today),
		}
		for _, a := range filtered {
			if SameDay(a.StartsAt, date) {
				cell.Appointments = append(cell.Appointments, a)
			}
		}
		grid.Cells = append(grid.Cells, cell)
	}
	return grid
}

// SameDay reports calendar-day equality ignoring the time of day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// StaffColors assigns each staff member a palette color by position.
// The mapping is stable for a given staff ordering.
func StaffColors(staff []Staff) map[string]string {
	colors := make(map[string]string, len(staff))
	for i, s := range staff {
		colors[s.ID] = StaffPalette[i%len(StaffPalette)]
	}
	return colors
}

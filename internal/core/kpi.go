package core

import "time"

// KPI is an income/expense/net triple for a single reporting window.
type KPI struct {
	Income  Money
	Expense Money
	Net     Money
}

// KPIReport holds the four rolling reporting windows.
type KPIReport struct {
	Day   KPI
	Week  KPI
	Month KPI
	Year  KPI
}

// Window is a half-open [Start, End) interval.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the half-open window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// DayWindow covers now's calendar day in now's location.
func DayWindow(now time.Time) Window {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}

// WeekWindow covers the week starting on the most recent Monday 00:00
// on or before now.
func WeekWindow(now time.Time) Window {
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, -daysSinceMonday)
	return Window{Start: start, End: start.AddDate(0, 0, 7)}
}

// MonthWindow covers now's calendar month.
func MonthWindow(now time.Time) Window {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}

// YearWindow covers now's calendar year.
func YearWindow(now time.Time) Window {
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	return Window{Start: start, End: start.AddDate(1, 0, 0)}
}

// ComputeKPI aggregates price into income and cost into expense for the
// four rolling windows around now. Canceled appointments never
// contribute. An empty collection yields all-zero windows.
func ComputeKPI(appts []Appointment, now time.Time) KPIReport {
	return KPIReport{
		Day:   SumWindow(appts, DayWindow(now)),
		Week:  SumWindow(appts, WeekWindow(now)),
		Month: SumWindow(appts, MonthWindow(now)),
		Year:  SumWindow(appts, YearWindow(now)),
	}
}

// SumWindow totals the non-canceled appointments whose start instant
// falls inside the window.
func SumWindow(appts []Appointment, w Window) KPI {
	var income, expense int64
	for _, a := range appts {
		if a.Status == StatusCanceled {
			continue
		}
		if !w.Contains(a.StartsAt) {
			continue
		}
		income += a.Price.Amount
		expense += a.Cost.Amount
	}
	return KPI{
		Income:  Money{Amount: income},
		Expense: Money{Amount: expense},
		Net:     Money{Amount: income - expense},
	}
}

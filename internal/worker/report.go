package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"salon/internal/backend"
	"salon/internal/core"
)

// ReportAppender receives one KPI summary row per period.
type ReportAppender interface {
	AppendReport(ctx context.Context, period string, kpi core.KPI) error
}

// BookkeepingWorker appends the previous day's revenue summary to the
// external spreadsheet once per day.
type BookkeepingWorker struct {
	lister   backend.AppointmentLister
	appender ReportAppender
	interval time.Duration

	now func() time.Time
}

func NewBookkeepingWorker(lister backend.AppointmentLister, appender ReportAppender) *BookkeepingWorker {
	return &BookkeepingWorker{
		lister:   lister,
		appender: appender,
		interval: 24 * time.Hour,
		now:      time.Now,
	}
}

// Run appends one report per interval until ctx ends. The first row is
// written immediately so a fresh deployment is not a day behind.
func (w *BookkeepingWorker) Run(ctx context.Context) error {
	if err := w.AppendDaily(ctx); err != nil {
		slog.ErrorContext(ctx, "Daily report append failed", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.AppendDaily(ctx); err != nil {
				slog.ErrorContext(ctx, "Daily report append failed", "error", err)
			}
		}
	}
}

// AppendDaily computes yesterday's KPI and appends it as one row.
func (w *BookkeepingWorker) AppendDaily(ctx context.Context) error {
	appts, err := w.lister.ListAppointments(ctx)
	if err != nil {
		return fmt.Errorf("list appointments: %w", err)
	}

	yesterday := w.now().AddDate(0, 0, -1)
	window := core.DayWindow(yesterday)
	kpi := core.SumWindow(appts, window)

	period := window.Start.Format("2006-01-02")
	if err := w.appender.AppendReport(ctx, period, kpi); err != nil {
		return fmt.Errorf("append report: %w", err)
	}

	slog.InfoContext(ctx, "Appended daily report",
		"period", period,
		"income", kpi.Income.Amount,
		"expense", kpi.Expense.Amount,
		"net", kpi.Net.Amount)
	return nil
}

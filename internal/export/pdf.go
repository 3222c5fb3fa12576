package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"salon/internal/core"
)

// PDFReport renders a monthly appointment report with a KPI summary.
type PDFReport struct {
	SalonName string
}

// Write renders the report to w. Period is a human-readable label such
// as "Mart 2025".
func (r PDFReport) Write(w io.Writer, period string, appointments []core.Appointment, staffNames map[string]string, kpi core.KPI) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	// Windows-1254 covers the Turkish characters in names and services.
	// Unmappable runes become the encoding's substitute byte instead of
	// failing the render.
	enc := encoding.ReplaceUnsupported(charmap.Windows1254.NewEncoder())
	tr := func(s string) string {
		out, err := enc.String(s)
		if err != nil {
			return s
		}
		return out
	}
	pdf.SetTitle(tr(fmt.Sprintf("%s - %s", r.SalonName, period)), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(r.SalonName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("Randevu Raporu - %s", period)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{22, 14, 30, 40, 40, 22, 22}
	headers := []string{"Tarih", "Saat", "Personel", "Müşteri", "Hizmet", "Ücret", "Maliyet"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, a := range appointments {
		cols := []string{
			a.StartsAt.Format("02.01.2006"),
			a.StartsAt.Format("15:04"),
			staffName(staffNames, a.StaffID),
			a.CustomerName,
			a.Service,
			fmt.Sprintf("%d", a.Price.Amount),
			fmt.Sprintf("%d", a.Cost.Amount),
		}
		for i, col := range cols {
			pdf.CellFormat(widths[i], 6, tr(col), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, tr("Özet"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	// Windows-1254 has no lira sign, so amounts are suffixed with "TL" here.
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Gelir: %d TL", kpi.Income.Amount)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Gider: %d TL", kpi.Expense.Amount)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Net: %d TL", kpi.Net.Amount)), "", 1, "L", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// Package export renders appointment data as CSV, PDF, and Google
// Sheets rows for download and bookkeeping.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"salon/internal/core"
)

var csvHeader = []string{"Tarih", "Saat", "Personel", "Müşteri", "Telefon", "Hizmet", "Ücret", "Maliyet", "Durum"}

// WriteCSV writes the appointment list in the order given. Staff IDs
// are resolved through staffNames; unknown IDs fall back to the raw ID.
func WriteCSV(w io.Writer, appointments []core.Appointment, staffNames map[string]string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, a := range appointments {
		row := []string{
			a.StartsAt.Format("2006-01-02"),
			a.StartsAt.Format("15:04"),
			staffName(staffNames, a.StaffID),
			a.CustomerName,
			a.Phone,
			a.Service,
			fmt.Sprintf("%d", a.Price.Amount),
			fmt.Sprintf("%d", a.Cost.Amount),
			string(a.Status),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func staffName(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}

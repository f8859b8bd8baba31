// Package export writes review reports as xlsx workbooks.
package export

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/billed/bill-review/internal/application/port"
	"github.com/billed/bill-review/internal/domain/entity"
	"github.com/billed/bill-review/internal/domain/ordering"
)

// SheetNames maps each status to its worksheet, in workbook order
var SheetNames = []struct {
	Status entity.Status
	Name   string
}{
	{entity.StatusPending, "En attente"},
	{entity.StatusAccepted, "Validé"},
	{entity.StatusRefused, "Refusé"},
}

var header = []interface{}{
	"ID", "Date", "Employé", "Type", "Nom", "Montant TTC", "TVA", "%", "Commentaire", "Commentaire admin", "Justificatif",
}

// ReportWriter implements port.ReportWriter with one sheet per status.
// Bills with an unknown status are left out.
type ReportWriter struct {
	logger *zap.Logger
}

// NewReportWriter creates a ReportWriter
func NewReportWriter(logger *zap.Logger) *ReportWriter {
	return &ReportWriter{logger: logger}
}

// Write renders bills in the order given and streams the workbook to w
func (r *ReportWriter) Write(ctx context.Context, w io.Writer, bills []entity.Bill) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			r.logger.Error("Failed to close workbook", zap.Error(err))
		}
	}()

	defaultSheet := f.GetSheetName(0)

	for i, sheet := range SheetNames {
		if err := ctx.Err(); err != nil {
			return err
		}

		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet.Name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet.Name, err)
		}

		if err := f.SetSheetRow(sheet.Name, "A1", &header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}

		row := 2
		for _, b := range bills {
			if b.Status != sheet.Status {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			values := billRow(b)
			if err := f.SetSheetRow(sheet.Name, cell, &values); err != nil {
				return fmt.Errorf("write bill %s: %w", b.ID, err)
			}
			row++
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	r.logger.Info("Review report exported", zap.Int("bills", len(bills)))
	return nil
}

func billRow(b entity.Bill) []interface{} {
	return []interface{}{
		b.ID,
		ordering.Display(b.Date),
		b.Email,
		b.Type,
		b.Name,
		number(b.Amount),
		number(b.VAT),
		number(b.Pct),
		b.Commentary,
		b.CommentAdmin,
		b.FileName,
	}
}

// number leaves absent values as empty cells
func number(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

var _ port.ReportWriter = (*ReportWriter)(nil)

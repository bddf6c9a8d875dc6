// Package export builds Excel workbooks for the "export" bot command.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mietbot/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// InvoiceSource is the slice of the repository the exporter needs.
type InvoiceSource interface {
	GetAllInvoices(ctx context.Context) ([]*models.Invoice, error)
}

type Exporter struct {
	repo   InvoiceSource
	path   string
	logger *zerolog.Logger
}

func NewExporter(repo InvoiceSource, path string, logger *zerolog.Logger) *Exporter {
	if path == "" {
		path = "exports"
	}
	return &Exporter{
		repo:   repo,
		path:   path,
		logger: logger,
	}
}

// InvoicesWorkbook writes all invoices into an xlsx file and returns
// its path.
func (e *Exporter) InvoicesWorkbook(ctx context.Context) (string, error) {
	// Создаем папку для экспорта, если не существует
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	invoices, err := e.repo.GetAllInvoices(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting invoices: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Rechnungen"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"Rechnungs-Nr.", "Gast", "Anreise", "Abreise", "Betrag", "Bezahlt", "Rechnungsdatum"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheetName, "A1", lastHeader, headerStyle)

	for i, inv := range invoices {
		row := i + 2
		paid := "Nein"
		if inv.IsPaid {
			paid = "Ja"
		}

		values := []interface{}{
			inv.InvoiceNumber,
			inv.GuestName,
			inv.Arrival,
			inv.Departure,
			inv.TotalAmount,
			paid,
			inv.InvoiceDate,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, value)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "B", 22)
	_ = f.SetColWidth(sheetName, "C", "G", 16)
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("rechnungen_%s.xlsx", time.Now().Format("2006-01-02"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("invoices", len(invoices)).Msg("Excel file created")
	return filePath, nil
}

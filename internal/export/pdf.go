package export

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
)

// SheetSource supplies the formatted cell values of a sheet.
type SheetSource interface {
	Rows(sheet string) ([][]string, error)
}

const (
	pageWidth  = 215.9 // US Letter, mm
	pageHeight = 279.4
	margin     = 8.0
	titleSize  = 10.0
	cellSize   = 6.0
	maxRowH    = 4.5
)

// PDF renders each sheet onto its own Letter page and writes the document
// to path, creating the parent directory.
func PDF(src SheetSource, path string, sheets []string) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets to export")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, sheet := range sheets {
		rows, err := src.Rows(sheet)
		if err != nil {
			return fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		renderSheet(pdf, tr, sheet, rows)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	log.Printf("export: wrote %d sheets to %s", len(sheets), path)
	return nil
}

func renderSheet(pdf *fpdf.Fpdf, tr func(string) string, sheet string, rows [][]string) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.Text(margin, margin+3, tr(sheet))

	cols := maxColumns(rows)
	if cols == 0 {
		return
	}
	colW := (pageWidth - 2*margin) / float64(cols)
	rowH := (pageHeight - 2*margin - 6) / float64(len(rows))
	if rowH > maxRowH {
		rowH = maxRowH
	}

	pdf.SetFont("Helvetica", "", cellSize)
	top := margin + 8
	for r, row := range rows {
		y := top + float64(r+1)*rowH
		for c, v := range row {
			if v == "" {
				continue
			}
			pdf.Text(margin+float64(c)*colW, y, tr(v))
		}
	}
}

func maxColumns(rows [][]string) int {
	n := 0
	for _, row := range rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

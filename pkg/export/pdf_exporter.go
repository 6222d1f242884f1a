package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// ScheduleSheet renders a landscape PDF with the schedule grid followed by
// the cost-breakdown table. The breakdown section is skipped when empty, so
// the same sheet serves plain schedule prints.
func ScheduleSheet(title string, schedule, breakdown Dataset) ([]byte, error) {
	if len(schedule.Headers) == 0 {
		return nil, fmt.Errorf("export: schedule dataset has no headers")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(12, 14, 12)
	pdf.SetAutoPageBreak(true, 16)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 15)
		pdf.CellFormat(0, 9, title, "", 1, "L", false, 0, "")
		pdf.Ln(3)
	}

	sheetTable(pdf, schedule)

	if len(breakdown.Rows) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Cost Breakdown", "", 1, "L", false, 0, "")
		sheetTable(pdf, breakdown)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("export: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetTable draws one dataset as a bordered grid with a shaded header row,
// columns divided evenly across the printable width.
func sheetTable(pdf *gofpdf.Fpdf, data Dataset) {
	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colWidth := (pageWidth - left - right) / float64(len(data.Headers))

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(229, 231, 235)
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 7, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, record := range data.records()[1:] {
		for _, value := range record {
			pdf.CellFormat(colWidth, 6, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

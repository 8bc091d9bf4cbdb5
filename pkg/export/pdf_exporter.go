package export

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfRowHeight    = 6.5
	pdfHeaderHeight = 8.0
	pdfMinColumn    = 14.0
	pdfMaxChars     = 48
)

// PDFExporter renders datasets as a paginated table. The header row repeats
// on every page and wide tables switch to landscape.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates the document. title is printed above the table when set.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, errors.New("pdf export needs at least one column")
	}
	orientation, usable := "P", 190.0
	if len(data.Headers) > 5 {
		orientation, usable = "L", 277.0
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 14)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	widths := columnWidths(data, usable)

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(226, 232, 240)
		for i, h := range data.Headers {
			pdf.CellFormat(widths[i], pdfHeaderHeight, tr(clip(h)), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8.5)
		pdf.SetFillColor(248, 250, 252)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Helvetica", "I", 7.5)
		pdf.CellFormat(0, 5, fmt.Sprintf("%d rows, page %d/{nb}", len(data.Rows), pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AliasNbPages("")
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 9, tr(title), "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}
	header()
	for n, row := range data.Rows {
		fill := n%2 == 1
		for i, h := range data.Headers {
			pdf.CellFormat(widths[i], pdfRowHeight, tr(clip(row[h])), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths shares the usable width in proportion to the longest cell of
// each column, with a floor so short columns stay readable.
func columnWidths(data Dataset, usable float64) []float64 {
	weights := make([]float64, len(data.Headers))
	total := 0.0
	for i, h := range data.Headers {
		longest := utf8.RuneCountInString(clip(h))
		for _, row := range data.Rows {
			if n := utf8.RuneCountInString(clip(row[h])); n > longest {
				longest = n
			}
		}
		weights[i] = float64(longest) + 2
		total += weights[i]
	}
	widths := make([]float64, len(weights))
	remaining, flexible := usable, 0.0
	for i, w := range weights {
		if share := usable * w / total; share < pdfMinColumn {
			widths[i] = pdfMinColumn
			remaining -= pdfMinColumn
			continue
		}
		flexible += w
	}
	for i, w := range weights {
		if widths[i] == 0 {
			widths[i] = remaining * w / flexible
		}
	}
	return widths
}

func clip(s string) string {
	if utf8.RuneCountInString(s) <= pdfMaxChars {
		return s
	}
	r := []rune(s)
	return string(r[:pdfMaxChars-1]) + "…"
}

package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// PurchaseOrderDoc carries everything the PO PDF needs.
type PurchaseOrderDoc struct {
	Number       string
	SupplierName string
	Spec         string
	Price        decimal.Decimal
	Currency     string
	LeadTime     string // already formatted, e.g. "3 weeks"; empty when unknown
}

// PDFGenerator renders purchase-order PDFs into a storage directory.
type PDFGenerator struct {
	storagePath string
}

func NewPDFGenerator(storagePath string) *PDFGenerator {
	return &PDFGenerator{storagePath: storagePath}
}

// RenderPurchaseOrder writes the PO as a single-page PDF and returns its path.
func (g *PDFGenerator) RenderPurchaseOrder(doc PurchaseOrderDoc) (string, error) {
	if err := os.MkdirAll(g.storagePath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 12, "PURCHASE ORDER")
	pdf.Ln(16)

	pdf.SetFont("Helvetica", "", 11)
	rows := [][2]string{
		{"PO Number", doc.Number},
		{"Date", time.Now().Format("2006-01-02")},
		{"Supplier", doc.SupplierName},
		{"Specification", doc.Spec},
		{"Agreed Price", fmt.Sprintf("%s%s", doc.Currency, doc.Price.StringFixed(2))},
	}
	if doc.LeadTime != "" {
		rows = append(rows, [2]string{"Lead Time", doc.LeadTime})
	}
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(45, 8, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 8, row[1], "", "L", false)
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "This purchase order confirms acceptance of your quoted price. Please reference the PO number on all correspondence and shipping documents.", "", "L", false)

	path := filepath.Join(g.storagePath, doc.Number+".pdf")
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("pdf: write %s: %w", path, err)
	}
	return path, nil
}

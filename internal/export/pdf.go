package export

import (
	"bytes"
	"fmt"

	"invoicedesk/internal/model"

	"github.com/jung-kurt/gofpdf"
)

// PDF renders a printable A4 invoice.
func PDF(inv *model.Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr("Invoice "+inv.InvoiceNumber))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	contractor := inv.ContractorData.Data()
	for _, line := range []string{
		"Issue date: " + inv.IssueDate.Format("2006-01-02"),
		"Sale date: " + inv.SaleDate.Format("2006-01-02"),
		"Due date: " + inv.DueDate.Format("2006-01-02"),
		"Payment method: " + inv.PaymentMethod,
		"Seller: " + sellerName(inv) + " (NIP " + sellerNIP(inv) + ")",
		"Buyer: " + contractor.Name + " (NIP " + contractor.NIP + ")",
		"       " + contractor.Address.Street + ", " + contractor.Address.PostalCode + " " + contractor.Address.City,
	} {
		pdf.Cell(0, 6, tr(line))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	widths := []float64{10, 70, 20, 15, 25, 15, 25}
	pdf.SetFont("Arial", "B", 9)
	for i, h := range []string{"#", "Name", "Qty", "Unit", "Net price", "VAT %", "Net"} {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for i, it := range inv.Items {
		cells := []string{
			fmt.Sprintf("%d", i+1),
			tr(it.Name),
			it.Quantity.String(),
			tr(it.Unit),
			it.NetPrice.StringFixed(2),
			it.VATRate.String(),
			it.NetAmount.StringFixed(2),
		}
		for j, c := range cells {
			align := "R"
			if j == 1 || j == 3 {
				align = "L"
			}
			pdf.CellFormat(widths[j], 7, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	for _, line := range []string{
		"Net total: " + inv.NetTotal.StringFixed(2) + " " + inv.Currency,
		"VAT total: " + inv.VATTotal.StringFixed(2) + " " + inv.Currency,
		"Gross total: " + inv.GrossTotal.StringFixed(2) + " " + inv.Currency,
	} {
		pdf.Cell(0, 6, line)
		pdf.Ln(6)
	}

	if inv.UPO != "" {
		pdf.SetFont("Arial", "I", 8)
		pdf.Cell(0, 6, "KSeF UPO: "+inv.UPO)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

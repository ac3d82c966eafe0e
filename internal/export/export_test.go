package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"invoicedesk/internal/draft"
	"invoicedesk/internal/model"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
)

func sampleInvoice() *model.Invoice {
	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	return &model.Invoice{
		InvoiceNumber: "FV/2026/03/001",
		IssueDate:     day,
		SaleDate:      day,
		DueDate:       day.AddDate(0, 0, 14),
		PaymentMethod: draft.PaymentTransfer,
		ContractorNIP: "1234567890",
		ContractorData: datatypes.NewJSONType(draft.ContractorData{
			NIP:  "1234567890",
			Name: "Acme",
			Address: draft.Address{
				Street: "Prosta 1", City: "Warszawa", PostalCode: "00-001", Country: "PL",
			},
		}),
		Items: datatypes.JSONSlice[model.InvoiceItem]{
			{Name: "A", Quantity: decimal.NewFromInt(2), Unit: "szt.", NetPrice: decimal.NewFromInt(100),
				VATRate: decimal.NewFromInt(23), NetAmount: decimal.NewFromInt(200), VATAmount: decimal.NewFromInt(46)},
			{Name: "B", Quantity: decimal.NewFromInt(1), Unit: "szt.", NetPrice: decimal.NewFromInt(50),
				VATRate: decimal.NewFromInt(8), NetAmount: decimal.NewFromInt(50), VATAmount: decimal.NewFromInt(4)},
		},
		NetTotal:   decimal.NewFromInt(250),
		VATTotal:   decimal.NewFromInt(50),
		GrossTotal: decimal.NewFromInt(300),
		Currency:   "PLN",
		KSeFStatus: model.KSeFAccepted,
		UPO:        "UPO-TEST-FV/2026/03/001-001",
		Company:    &model.Company{NIP: "5260250274", Name: "Seller"},
	}
}

func TestCSV(t *testing.T) {
	out, err := CSV(sampleInvoice())
	if err != nil {
		t.Fatalf("CSV() error = %v", err)
	}
	want := "invoice_number,issue_date,seller_nip,buyer_nip,net,vat,gross,lines\n" +
		"FV/2026/03/001,2026-03-02,5260250274,1234567890,250.00,50.00,300.00,A: 2 x 100.00;B: 1 x 50.00\n"
	if string(out) != want {
		t.Errorf("CSV() =\n%s\nwant\n%s", out, want)
	}
}

func TestXLSX(t *testing.T) {
	out, err := XLSX(sampleInvoice())
	if err != nil {
		t.Fatalf("XLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	if got, _ := f.GetCellValue(invoiceSheet, "B1"); got != "FV/2026/03/001" {
		t.Errorf("B1 = %q", got)
	}
	if got, _ := f.GetCellValue(invoiceSheet, "B11"); got != "A" {
		t.Errorf("B11 = %q, want first item name", got)
	}
	if got, _ := f.GetCellValue(invoiceSheet, "A16"); got != "Gross total" {
		t.Errorf("A16 = %q", got)
	}
}

func TestPDF(t *testing.T) {
	out, err := PDF(sampleInvoice())
	if err != nil {
		t.Fatalf("PDF() error = %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Errorf("output does not look like a PDF: %q", out[:8])
	}
}

func TestRender(t *testing.T) {
	inv := sampleInvoice()

	tests := []struct {
		format      string
		name        string
		contentType string
	}{
		{"csv", "invoice-FV-2026-03-001.csv", "text/csv"},
		{"XLSX", "invoice-FV-2026-03-001.xlsx", "spreadsheetml"},
		{"pdf", "invoice-FV-2026-03-001.pdf", "application/pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			f, err := Render(inv, tt.format)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if f.Name != tt.name || !strings.Contains(f.ContentType, tt.contentType) || len(f.Data) == 0 {
				t.Errorf("file = %s %s (%d bytes)", f.Name, f.ContentType, len(f.Data))
			}
		})
	}

	if _, err := Render(inv, "docx"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Render(docx) error = %v", err)
	}
}

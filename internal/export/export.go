// Package export renders stored invoices as files: a Fakturownia-compatible
// CSV, an XLSX workbook and a printable PDF.
package export

import (
	"errors"
	"fmt"
	"strings"

	"invoicedesk/internal/model"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// File is a rendered export ready to be served.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Render produces the requested format for inv. inv.Company should be loaded
// so the seller appears on the document.
func Render(inv *model.Invoice, format string) (File, error) {
	base := fileBase(inv.InvoiceNumber)

	switch strings.ToLower(format) {
	case FormatCSV:
		data, err := CSV(inv)
		if err != nil {
			return File{}, err
		}
		return File{Name: base + ".csv", ContentType: "text/csv; charset=utf-8", Data: data}, nil
	case FormatXLSX:
		data, err := XLSX(inv)
		if err != nil {
			return File{}, err
		}
		return File{Name: base + ".xlsx", ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Data: data}, nil
	case FormatPDF:
		data, err := PDF(inv)
		if err != nil {
			return File{}, err
		}
		return File{Name: base + ".pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		return File{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// fileBase turns an invoice number such as "FV/2026/03/001" into a safe file name.
func fileBase(number string) string {
	r := strings.NewReplacer("/", "-", "\\", "-", " ", "_", ":", "-")
	name := r.Replace(number)
	if name == "" {
		return "invoice"
	}
	return "invoice-" + name
}

func sellerNIP(inv *model.Invoice) string {
	if inv.Company == nil {
		return ""
	}
	return inv.Company.NIP
}

func sellerName(inv *model.Invoice) string {
	if inv.Company == nil {
		return ""
	}
	return inv.Company.Name
}

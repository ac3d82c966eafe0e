package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"invoicedesk/internal/model"
)

var fakturowniaHeader = []string{"invoice_number", "issue_date", "seller_nip", "buyer_nip", "net", "vat", "gross", "lines"}

// CSV renders the Fakturownia minimal import: one header row and one invoice
// row whose last cell lists the lines as "name: qty x price" joined by ";".
func CSV(inv *model.Invoice) ([]byte, error) {
	lines := make([]string, 0, len(inv.Items))
	for _, it := range inv.Items {
		lines = append(lines, fmt.Sprintf("%s: %s x %s", it.Name, it.Quantity.String(), it.NetPrice.StringFixed(2)))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(fakturowniaHeader)
	_ = w.Write([]string{
		inv.InvoiceNumber,
		inv.IssueDate.Format("2006-01-02"),
		sellerNIP(inv),
		inv.ContractorNIP,
		inv.NetTotal.StringFixed(2),
		inv.VATTotal.StringFixed(2),
		inv.GrossTotal.StringFixed(2),
		strings.Join(lines, ";"),
	})
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

package export

import (
	"fmt"

	"invoicedesk/internal/model"

	"github.com/xuri/excelize/v2"
)

const invoiceSheet = "Invoice"

// XLSX renders a single-sheet workbook: header block, item table, totals.
func XLSX(inv *model.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", invoiceSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	contractor := inv.ContractorData.Data()
	header := [][]interface{}{
		{"Invoice number", inv.InvoiceNumber},
		{"Issue date", inv.IssueDate.Format("2006-01-02")},
		{"Sale date", inv.SaleDate.Format("2006-01-02")},
		{"Due date", inv.DueDate.Format("2006-01-02")},
		{"Payment method", inv.PaymentMethod},
		{"Seller", sellerName(inv), sellerNIP(inv)},
		{"Buyer", contractor.Name, contractor.NIP},
		{"KSeF status", inv.KSeFStatus, inv.UPO},
	}

	row := 1
	for _, values := range header {
		if err := setRow(f, row, values); err != nil {
			return nil, err
		}
		row++
	}

	row++
	if err := setRow(f, row, []interface{}{"#", "Name", "Quantity", "Unit", "Net price", "VAT %", "Net", "VAT"}); err != nil {
		return nil, err
	}
	row++

	for i, it := range inv.Items {
		qty, _ := it.Quantity.Float64()
		price, _ := it.NetPrice.Float64()
		rate, _ := it.VATRate.Float64()
		net, _ := it.NetAmount.Float64()
		vat, _ := it.VATAmount.Float64()
		if err := setRow(f, row, []interface{}{i + 1, it.Name, qty, it.Unit, price, rate, net, vat}); err != nil {
			return nil, err
		}
		row++
	}

	row++
	netTotal, _ := inv.NetTotal.Float64()
	vatTotal, _ := inv.VATTotal.Float64()
	grossTotal, _ := inv.GrossTotal.Float64()
	for _, values := range [][]interface{}{
		{"Net total", netTotal},
		{"VAT total", vatTotal},
		{"Gross total", grossTotal},
	} {
		if err := setRow(f, row, values); err != nil {
			return nil, err
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(invoiceSheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

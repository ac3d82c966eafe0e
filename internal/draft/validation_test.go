package draft

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

func validInvoice() Invoice {
	return Invoice{
		CompanyID:     "6f1c2b1e-8d4a-4c3e-9a57-2f0d3c8b9e10",
		InvoiceNumber: "FV/2026/03/001",
		IssueDate:     "2026-03-02",
		SaleDate:      "2026-03-02",
		DueDate:       "2026-03-16",
		PaymentMethod: PaymentTransfer,
		ContractorData: ContractorData{
			NIP:  "1234567890",
			Name: "Acme Sp. z o.o.",
			Address: Address{
				Street:     "Prosta 1",
				City:       "Warszawa",
				PostalCode: "00-001",
				Country:    "PL",
			},
		},
		Items: []LineItem{item("Consulting", "2", "100", "23")},
	}
}

func TestValidate_AcceptsValidInvoice(t *testing.T) {
	if errs := Validate(validInvoice()); len(errs) != 0 {
		t.Fatalf("Validate() = %v, want no errors", errs)
	}
}

func TestValidate_Idempotent(t *testing.T) {
	inv := validInvoice()
	for i := 0; i < 3; i++ {
		if errs := Validate(inv); len(errs) != 0 {
			t.Fatalf("run %d: Validate() = %v", i, errs)
		}
	}
}

func TestValidate_FieldRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Invoice)
		path   string
		want   string
	}{
		{"short nip", func(inv *Invoice) { inv.ContractorData.NIP = "12345" }, "contractor_data.nip", "NIP must be 10 digits"},
		{"nip with letters", func(inv *Invoice) { inv.ContractorData.NIP = "12345678AB" }, "contractor_data.nip", "NIP must be 10 digits"},
		{"postal code without hyphen", func(inv *Invoice) { inv.ContractorData.Address.PostalCode = "00001" }, "contractor_data.address.postal_code", "postal code must be in format XX-XXX"},
		{"missing company", func(inv *Invoice) { inv.CompanyID = "" }, "company_id", "select a company"},
		{"company not a uuid", func(inv *Invoice) { inv.CompanyID = "acme" }, "company_id", "select a company"},
		{"missing number", func(inv *Invoice) { inv.InvoiceNumber = "" }, "invoice_number", "invoice number is required"},
		{"missing contractor name", func(inv *Invoice) { inv.ContractorData.Name = "" }, "contractor_data.name", "contractor name is required"},
		{"missing street", func(inv *Invoice) { inv.ContractorData.Address.Street = "" }, "contractor_data.address.street", "street is required"},
		{"missing city", func(inv *Invoice) { inv.ContractorData.Address.City = "" }, "contractor_data.address.city", "city is required"},
		{"missing payment method", func(inv *Invoice) { inv.PaymentMethod = "" }, "payment_method", "payment method is required"},
		{"bad issue date", func(inv *Invoice) { inv.IssueDate = "02.03.2026" }, "issue_date", "issue date must be in format YYYY-MM-DD"},
		{"zero quantity", func(inv *Invoice) { inv.Items[0].Quantity = decimal.Zero }, "items[0].quantity", "quantity must be greater than 0"},
		{"negative price", func(inv *Invoice) { inv.Items[0].NetPrice = decimal.NewFromInt(-5) }, "items[0].net_price", "net price must be greater than 0"},
		{"vat above range", func(inv *Invoice) { inv.Items[0].VATRate = decimal.NewFromInt(24) }, "items[0].vat_rate", "VAT rate must be between 0 and 23"},
		{"vat below range", func(inv *Invoice) { inv.Items[0].VATRate = decimal.NewFromInt(-1) }, "items[0].vat_rate", "VAT rate must be between 0 and 23"},
		{"missing unit", func(inv *Invoice) { inv.Items[0].Unit = "" }, "items[0].unit", "unit is required"},
		{"no items", func(inv *Invoice) { inv.Items = nil }, "items", "add at least one item"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := validInvoice()
			tt.mutate(&inv)
			errs := Validate(inv)
			if got := errs[tt.path]; got != tt.want {
				t.Errorf("errs[%q] = %q, want %q (all: %v)", tt.path, got, tt.want, errs)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	inv := validInvoice()
	inv.CompanyID = ""
	inv.ContractorData.NIP = "12345"
	inv.ContractorData.Address.PostalCode = "00001"
	inv.Items = append(inv.Items, item("Second", "0", "10", "23"))

	errs := Validate(inv)
	want := []string{
		"company_id",
		"contractor_data.address.postal_code",
		"contractor_data.nip",
		"items[1].quantity",
	}
	got := errs.Paths()
	if len(got) != len(want) {
		t.Fatalf("Paths() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Paths()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestValidate_VATRateRangeNotSet(t *testing.T) {
	inv := validInvoice()
	inv.Items[0].VATRate = decimal.NewFromInt(7)

	if errs := Validate(inv); len(errs) != 0 {
		t.Errorf("Validate() = %v, want a rate inside 0..23 accepted", errs)
	}
	errs := ValidateStrict(inv)
	if errs["items[0].vat_rate"] != MsgVATRateNotAllowed {
		t.Errorf("ValidateStrict() = %v, want vat_rate rejected", errs)
	}
}

func TestValidateStrict_DueBeforeIssue(t *testing.T) {
	inv := validInvoice()
	inv.DueDate = "2026-03-01"

	if errs := Validate(inv); len(errs) != 0 {
		t.Errorf("Validate() = %v, want the date order left to the server", errs)
	}
	if got := ValidateStrict(inv)["due_date"]; got != MsgDueBeforeIssue {
		t.Errorf("ValidateStrict()[due_date] = %q, want %q", got, MsgDueBeforeIssue)
	}

	inv.DueDate = inv.IssueDate
	if errs := ValidateStrict(inv); len(errs) != 0 {
		t.Errorf("due on the issue day: ValidateStrict() = %v", errs)
	}
}

func TestErrorMap_Reindex(t *testing.T) {
	errs := ErrorMap{
		"items[0].net_price":  "net price must be greater than 0",
		"items[1].unit":       "unit is required",
		"items":               "add at least one item",
		"contractor_data.nip": "NIP must be 10 digits",
	}

	got := errs.Reindex([]int{1, 3})
	want := ErrorMap{
		"items[1].net_price":  "net price must be greater than 0",
		"items[3].unit":       "unit is required",
		"items":               "add at least one item",
		"contractor_data.nip": "NIP must be 10 digits",
	}
	if len(got) != len(want) {
		t.Fatalf("Reindex() = %v, want %v", got, want)
	}
	for path, msg := range want {
		if got[path] != msg {
			t.Errorf("Reindex()[%q] = %q, want %q (all: %v)", path, got[path], msg, got)
		}
	}
}

func TestDraftValidate_ReportsRowPositions(t *testing.T) {
	d := FromInvoice(validInvoice())
	d.Items = NewItemCollection(NewLineItem(), item("Widget", "1", "0", "23"), NewLineItem(), item("Gadget", "1", "10", "23"))
	if err := d.Items.Update(3, FieldUnit, ""); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	errs := d.Validate()
	if got := errs["items[1].net_price"]; got != "net price must be greater than 0" {
		t.Errorf("items[1].net_price = %q (all: %v)", got, errs)
	}
	if got := errs["items[3].unit"]; got != "unit is required" {
		t.Errorf("items[3].unit = %q (all: %v)", got, errs)
	}
	for _, blank := range []string{"items[0].net_price", "items[0].unit", "items[2].unit"} {
		if _, ok := errs[blank]; ok {
			t.Errorf("error reported on blank row: %s (all: %v)", blank, errs)
		}
	}
	if len(errs) != 2 {
		t.Errorf("Validate() = %v, want exactly the two row errors", errs)
	}
}

func TestValidateStrict_AllowedRates(t *testing.T) {
	for _, rate := range AllowedVATRates {
		t.Run(rate.String(), func(t *testing.T) {
			inv := validInvoice()
			inv.Items[0].VATRate = rate
			if errs := ValidateStrict(inv); len(errs) != 0 {
				t.Errorf("ValidateStrict() = %v", errs)
			}
		})
	}
}

func TestDraftInvoice_AllBlankRows(t *testing.T) {
	d := FromInvoice(validInvoice())
	d.Items = NewItemCollection(NewLineItem(), NewLineItem())

	inv := d.Invoice()
	if len(inv.Items) != 0 {
		t.Fatalf("blank rows survived filtering: %+v", inv.Items)
	}
	errs := Validate(inv)
	if errs["items"] != "add at least one item" {
		t.Errorf("errs[items] = %q, want add at least one item (all: %v)", errs["items"], errs)
	}
}

func TestDraftInvoice_DropsBlankRowsBeforeValidation(t *testing.T) {
	d := FromInvoice(validInvoice())
	d.Items.Add()

	if errs := Validate(d.Invoice()); len(errs) != 0 {
		t.Errorf("trailing blank row should not fail validation: %v", errs)
	}
}

func TestNew_Defaults(t *testing.T) {
	d := New(fixedNow)

	if d.IssueDate != "2026-03-02" || d.SaleDate != "2026-03-02" {
		t.Errorf("issue/sale = %s/%s, want today", d.IssueDate, d.SaleDate)
	}
	if d.DueDate != "2026-03-16" {
		t.Errorf("due = %s, want 2026-03-16", d.DueDate)
	}
	if d.PaymentMethod != PaymentTransfer {
		t.Errorf("payment method = %s", d.PaymentMethod)
	}
	if d.ContractorData.Address.Country != DefaultCountry {
		t.Errorf("country = %q", d.ContractorData.Address.Country)
	}
	if d.Items.Len() != 1 {
		t.Errorf("items = %d, want one blank row", d.Items.Len())
	}
}

func TestPrepare_DefaultsCountry(t *testing.T) {
	inv := validInvoice()
	inv.ContractorData.Address.Country = ""
	inv.Items = append(inv.Items, NewLineItem())

	got := Prepare(inv)
	if got.ContractorData.Address.Country != DefaultCountry {
		t.Errorf("country = %q, want %s", got.ContractorData.Address.Country, DefaultCountry)
	}
	if len(got.Items) != 1 {
		t.Errorf("items = %d, want 1", len(got.Items))
	}
}

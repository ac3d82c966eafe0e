// Package draft holds the invoice draft model: the editable item list, the
// totals derived from it, the validation rules run before submission and the
// controller that turns a valid draft into a creation request.
package draft

import "time"

// Payment methods offered by the selector.
const (
	PaymentTransfer = "transfer"
	PaymentCash     = "cash"
	PaymentCard     = "card"
)

const (
	DateLayout     = "2006-01-02"
	DefaultCountry = "PL"
	// DefaultPaymentTerm is the gap between the issue date and the default due date.
	DefaultPaymentTerm = 14 * 24 * time.Hour
)

type Address struct {
	Street     string `json:"street" yaml:"street" validate:"required"`
	City       string `json:"city" yaml:"city" validate:"required"`
	PostalCode string `json:"postal_code" yaml:"postal_code" validate:"required,postal_code_pl"`
	Country    string `json:"country" yaml:"country"`
}

type ContractorData struct {
	NIP     string  `json:"nip" yaml:"nip" validate:"required,nip" jsonschema:"pattern=^\\d{10}$"`
	Name    string  `json:"name" yaml:"name" validate:"required"`
	Address Address `json:"address" yaml:"address"`
}

// Invoice is the assembled draft as sent to POST /invoices.
type Invoice struct {
	CompanyID      string         `json:"company_id" yaml:"company_id" validate:"required,uuid_string" jsonschema:"format=uuid"`
	InvoiceNumber  string         `json:"invoice_number" yaml:"invoice_number" validate:"required"`
	IssueDate      string         `json:"issue_date" yaml:"issue_date" validate:"required,datetime=2006-01-02"`
	SaleDate       string         `json:"sale_date" yaml:"sale_date" validate:"required,datetime=2006-01-02"`
	DueDate        string         `json:"due_date" yaml:"due_date" validate:"required,datetime=2006-01-02"`
	PaymentMethod  string         `json:"payment_method" yaml:"payment_method" validate:"required" jsonschema:"enum=transfer,enum=cash,enum=card"`
	ContractorData ContractorData `json:"contractor_data" yaml:"contractor_data"`
	Items          []LineItem     `json:"items" yaml:"items" validate:"min=1,dive"`
}

// Draft is the invoice being composed. Header fields are edited directly;
// rows go through Items.
type Draft struct {
	CompanyID      string
	InvoiceNumber  string
	IssueDate      string
	SaleDate       string
	DueDate        string
	PaymentMethod  string
	ContractorData ContractorData
	Items          *ItemCollection
}

// New returns an empty draft dated at now: issue and sale today, due in 14
// days, paid by transfer, with one blank row.
func New(now time.Time) *Draft {
	today := now.Format(DateLayout)
	return &Draft{
		IssueDate:     today,
		SaleDate:      today,
		DueDate:       now.Add(DefaultPaymentTerm).Format(DateLayout),
		PaymentMethod: PaymentTransfer,
		ContractorData: ContractorData{
			Address: Address{Country: DefaultCountry},
		},
		Items: NewItemCollection(NewLineItem()),
	}
}

// FromInvoice loads a previously saved snapshot back into an editable draft.
func FromInvoice(inv Invoice) *Draft {
	return &Draft{
		CompanyID:      inv.CompanyID,
		InvoiceNumber:  inv.InvoiceNumber,
		IssueDate:      inv.IssueDate,
		SaleDate:       inv.SaleDate,
		DueDate:        inv.DueDate,
		PaymentMethod:  inv.PaymentMethod,
		ContractorData: inv.ContractorData,
		Items:          NewItemCollection(inv.Items...),
	}
}

// Snapshot captures the draft as is, blank rows included.
func (d *Draft) Snapshot() Invoice {
	return Invoice{
		CompanyID:      d.CompanyID,
		InvoiceNumber:  d.InvoiceNumber,
		IssueDate:      d.IssueDate,
		SaleDate:       d.SaleDate,
		DueDate:        d.DueDate,
		PaymentMethod:  d.PaymentMethod,
		ContractorData: d.ContractorData,
		Items:          d.Items.Items(),
	}
}

// Invoice assembles the submission payload: the snapshot with blank rows
// filtered out and the contractor country defaulted.
func (d *Draft) Invoice() Invoice {
	inv := d.Snapshot()
	inv.Items = d.Items.Submittable()
	if inv.ContractorData.Address.Country == "" {
		inv.ContractorData.Address.Country = DefaultCountry
	}
	return inv
}

// Validate checks the submission payload and reports item errors at the
// row's position in the draft, blank rows included.
func (d *Draft) Validate() ErrorMap {
	return Validate(d.Invoice()).Reindex(d.Items.SubmittablePositions())
}

// Totals recomputes the display totals from the current rows.
func (d *Draft) Totals() Totals {
	return CalculateTotals(d.Items.Items())
}

// Prepare applies the pre-submission transform to an already assembled
// payload, the same way Draft.Invoice does.
func Prepare(inv Invoice) Invoice {
	return FromInvoice(inv).Invoice()
}

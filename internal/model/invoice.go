package model

import (
	"time"

	"invoicedesk/internal/draft"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// KSeF status values
const (
	KSeFPending   = "pending"
	KSeFSubmitted = "submitted"
	KSeFAccepted  = "accepted"
	KSeFRejected  = "rejected"
)

// InvoiceItem is a stored line with its computed amounts.
type InvoiceItem struct {
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit"`
	NetPrice  decimal.Decimal `json:"net_price"`
	VATRate   decimal.Decimal `json:"vat_rate"`
	NetAmount decimal.Decimal `json:"net_amount"`
	VATAmount decimal.Decimal `json:"vat_amount"`
}

// Invoice is a sales invoice issued by a company and forwarded to KSeF.
// The pair (company_id, invoice_number) is unique.
type Invoice struct {
	ID             uuid.UUID                                `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CompanyID      uuid.UUID                                `gorm:"type:uuid;not null;uniqueIndex:idx_invoices_company_number" json:"company_id"`
	Company        *Company                                 `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	CreatedBy      *uuid.UUID                               `gorm:"type:uuid;index" json:"created_by"`
	InvoiceNumber  string                                   `gorm:"type:varchar(64);not null;uniqueIndex:idx_invoices_company_number" json:"invoice_number"`
	IssueDate      time.Time                                `gorm:"type:date;not null;index" json:"issue_date"`
	SaleDate       time.Time                                `gorm:"type:date;not null" json:"sale_date"`
	DueDate        time.Time                                `gorm:"type:date;not null" json:"due_date"`
	PaymentMethod  string                                   `gorm:"type:varchar(20);not null" json:"payment_method"`
	ContractorNIP  string                                   `gorm:"type:varchar(10);not null;index" json:"contractor_nip"`
	ContractorData datatypes.JSONType[draft.ContractorData] `gorm:"type:jsonb;not null" json:"contractor_data"`
	Items          datatypes.JSONSlice[InvoiceItem]         `gorm:"type:jsonb;not null" json:"items"`
	NetTotal       decimal.Decimal                          `gorm:"type:decimal(18,2);not null" json:"net_total"`
	VATTotal       decimal.Decimal                          `gorm:"type:decimal(18,2);not null" json:"vat_total"`
	GrossTotal     decimal.Decimal                          `gorm:"type:decimal(18,2);not null" json:"gross_total"`
	Currency       string                                   `gorm:"type:varchar(3);not null;default:'PLN'" json:"currency"`
	KSeFStatus     string                                   `gorm:"column:ksef_status;type:varchar(20);not null;default:'pending';index" json:"ksef_status"`
	KSeFNumber     string                                   `gorm:"column:ksef_number;type:varchar(64)" json:"ksef_number"`
	UPO            string                                   `gorm:"column:upo;type:varchar(128)" json:"upo"`
	KSeFError      string                                   `gorm:"column:ksef_error;type:text" json:"ksef_error"`
	SubmittedAt    *time.Time                               `json:"submitted_at"`
	CreatedAt      time.Time                                `json:"created_at"`
	UpdatedAt      time.Time                                `json:"updated_at"`
}

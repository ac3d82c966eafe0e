package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"invoicedesk/internal/draft"
	"invoicedesk/internal/ksef"
	"invoicedesk/internal/model"
	"invoicedesk/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// --- DTOs ---

type InvoiceFilter struct {
	CompanyID  string // empty for every company of the caller
	From       string // YYYY-MM-DD
	To         string // YYYY-MM-DD
	KSeFStatus string
	Page       int
	Limit      int
}

type InvoiceItemResponse struct {
	Name      string `json:"name"`
	Quantity  string `json:"quantity"`
	Unit      string `json:"unit"`
	NetPrice  string `json:"net_price"`
	VATRate   string `json:"vat_rate"`
	NetAmount string `json:"net_amount"`
	VATAmount string `json:"vat_amount"`
}

type InvoiceResponse struct {
	ID             string                `json:"id"`
	CompanyID      string                `json:"company_id"`
	InvoiceNumber  string                `json:"invoice_number"`
	IssueDate      string                `json:"issue_date"`
	SaleDate       string                `json:"sale_date"`
	DueDate        string                `json:"due_date"`
	PaymentMethod  string                `json:"payment_method"`
	ContractorData draft.ContractorData  `json:"contractor_data"`
	Items          []InvoiceItemResponse `json:"items"`
	NetTotal       string                `json:"net_total"`
	VATTotal       string                `json:"vat_total"`
	GrossTotal     string                `json:"gross_total"`
	Currency       string                `json:"currency"`
	KSeFStatus     string                `json:"ksef_status"`
	KSeFNumber     string                `json:"ksef_number,omitempty"`
	UPO            string                `json:"upo,omitempty"`
	KSeFError      string                `json:"ksef_error,omitempty"`
	SubmittedAt    *string               `json:"submitted_at"`
	CreatedAt      string                `json:"created_at"`
}

// ValidationIssue is one entry of a validation report.
type ValidationIssue struct {
	Path     string `json:"path"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// ValidationReport is the FA(3) pre-check of a draft.
type ValidationReport struct {
	IsValid  bool              `json:"is_valid"`
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
}

const (
	SeverityError   = "error"
	SeverityWarning = "warning"

	CodeFieldInvalid    = "field_invalid"
	CodeNIPChecksum     = "nip_checksum"
	MsgNIPChecksumFails = "contractor NIP checksum does not match"
)

// Enqueuer hands a stored invoice over to KSeF forwarding.
type Enqueuer interface {
	Enqueue(id uuid.UUID) error
}

// --- Interface ---

type InvoiceService interface {
	Create(ctx context.Context, userID string, req draft.Invoice) (InvoiceResponse, error)
	Get(ctx context.Context, userID, id string) (InvoiceResponse, error)
	List(ctx context.Context, userID string, filter InvoiceFilter) ([]InvoiceResponse, int64, error)
	ValidateFA3(req draft.Invoice) ValidationReport
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	companyRepo repository.CompanyRepository
	companies   CompanyService
	audit       AuditService
	queue       Enqueuer
	txManager   repository.TransactionManager
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	companyRepo repository.CompanyRepository,
	companies CompanyService,
	audit AuditService,
	queue Enqueuer,
	txManager repository.TransactionManager,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		companyRepo: companyRepo,
		companies:   companies,
		audit:       audit,
		queue:       queue,
		txManager:   txManager,
	}
}

func toInvoiceResponse(inv *model.Invoice) InvoiceResponse {
	items := make([]InvoiceItemResponse, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, InvoiceItemResponse{
			Name:      it.Name,
			Quantity:  it.Quantity.String(),
			Unit:      it.Unit,
			NetPrice:  it.NetPrice.StringFixed(2),
			VATRate:   it.VATRate.String(),
			NetAmount: it.NetAmount.StringFixed(2),
			VATAmount: it.VATAmount.StringFixed(2),
		})
	}

	var submittedAt *string
	if inv.SubmittedAt != nil {
		s := inv.SubmittedAt.Format(time.RFC3339)
		submittedAt = &s
	}

	return InvoiceResponse{
		ID:             inv.ID.String(),
		CompanyID:      inv.CompanyID.String(),
		InvoiceNumber:  inv.InvoiceNumber,
		IssueDate:      inv.IssueDate.Format(draft.DateLayout),
		SaleDate:       inv.SaleDate.Format(draft.DateLayout),
		DueDate:        inv.DueDate.Format(draft.DateLayout),
		PaymentMethod:  inv.PaymentMethod,
		ContractorData: inv.ContractorData.Data(),
		Items:          items,
		NetTotal:       inv.NetTotal.StringFixed(2),
		VATTotal:       inv.VATTotal.StringFixed(2),
		GrossTotal:     inv.GrossTotal.StringFixed(2),
		Currency:       inv.Currency,
		KSeFStatus:     inv.KSeFStatus,
		KSeFNumber:     inv.KSeFNumber,
		UPO:            inv.UPO,
		KSeFError:      inv.KSeFError,
		SubmittedAt:    submittedAt,
		CreatedAt:      inv.CreatedAt.Format(time.RFC3339),
	}
}

// --- Implementation ---

func (s *invoiceService) Create(ctx context.Context, userID string, req draft.Invoice) (InvoiceResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return InvoiceResponse{}, ErrInvalidID
	}

	inv := draft.Prepare(req)
	if errs := draft.ValidateStrict(inv); len(errs) > 0 {
		return InvoiceResponse{}, &ValidationFailedError{Errors: errs}
	}

	// Validation guarantees the id and the dates parse.
	companyID, _ := uuid.Parse(inv.CompanyID)
	issue, _ := time.Parse(draft.DateLayout, inv.IssueDate)
	sale, _ := time.Parse(draft.DateLayout, inv.SaleDate)
	due, _ := time.Parse(draft.DateLayout, inv.DueDate)

	if _, err := s.companies.RequireAccess(ctx, uid, companyID); err != nil {
		return InvoiceResponse{}, err
	}

	exists, err := s.invoiceRepo.NumberExists(ctx, companyID, inv.InvoiceNumber)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("failed to check invoice number: %w", err)
	}
	if exists {
		return InvoiceResponse{}, ErrDuplicateInvoiceNumber
	}

	items := make([]model.InvoiceItem, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, model.InvoiceItem{
			Name:      it.Name,
			Quantity:  it.Quantity,
			Unit:      it.Unit,
			NetPrice:  it.NetPrice,
			VATRate:   it.VATRate,
			NetAmount: it.NetAmount().Round(2),
			VATAmount: it.VATAmount().Round(2),
		})
	}
	net, vat := draft.Amounts(inv.Items)
	net, vat = net.Round(2), vat.Round(2)

	invoice := &model.Invoice{
		CompanyID:      companyID,
		CreatedBy:      &uid,
		InvoiceNumber:  inv.InvoiceNumber,
		IssueDate:      issue,
		SaleDate:       sale,
		DueDate:        due,
		PaymentMethod:  inv.PaymentMethod,
		ContractorNIP:  inv.ContractorData.NIP,
		ContractorData: datatypes.NewJSONType(inv.ContractorData),
		Items:          datatypes.JSONSlice[model.InvoiceItem](items),
		NetTotal:       net,
		VATTotal:       vat,
		GrossTotal:     net.Add(vat),
		Currency:       "PLN",
		KSeFStatus:     model.KSeFPending,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.Create(txCtx, invoice); err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		s.audit.Record(txCtx, &uid, model.ActionCreateInvoice, "invoice", invoice.ID.String(), map[string]string{
			"invoice_number": invoice.InvoiceNumber,
			"gross_total":    invoice.GrossTotal.StringFixed(2),
		})
		return nil
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	// The invoice exists either way; a full queue leaves it pending.
	if err := s.queue.Enqueue(invoice.ID); err != nil {
		log.Printf("ksef: invoice %s not queued: %v", invoice.ID, err)
	}

	return toInvoiceResponse(invoice), nil
}

func (s *invoiceService) Get(ctx context.Context, userID, id string) (InvoiceResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return InvoiceResponse{}, ErrInvalidID
	}
	invID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, ErrInvoiceNotFound
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, invID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return InvoiceResponse{}, ErrInvoiceNotFound
		}
		return InvoiceResponse{}, fmt.Errorf("failed to load invoice: %w", err)
	}

	if _, err := s.companies.RequireAccess(ctx, uid, invoice.CompanyID); err != nil {
		return InvoiceResponse{}, err
	}
	return toInvoiceResponse(invoice), nil
}

func (s *invoiceService) List(ctx context.Context, userID string, filter InvoiceFilter) ([]InvoiceResponse, int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, ErrInvalidID
	}

	repoFilter := repository.InvoiceListFilter{
		KSeFStatus: filter.KSeFStatus,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}

	if filter.CompanyID != "" {
		companyID, err := uuid.Parse(filter.CompanyID)
		if err != nil {
			return nil, 0, ErrCompanyNotFound
		}
		if _, err := s.companies.RequireAccess(ctx, uid, companyID); err != nil {
			return nil, 0, err
		}
		repoFilter.CompanyIDs = []uuid.UUID{companyID}
	} else {
		owned, err := s.companyRepo.ListForUser(ctx, uid)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list companies: %w", err)
		}
		if len(owned) == 0 {
			return []InvoiceResponse{}, 0, nil
		}
		for _, c := range owned {
			repoFilter.CompanyIDs = append(repoFilter.CompanyIDs, c.ID)
		}
	}

	if repoFilter.From, err = parseDateFilter(filter.From); err != nil {
		return nil, 0, fmt.Errorf("invalid from date: %w", err)
	}
	if repoFilter.To, err = parseDateFilter(filter.To); err != nil {
		return nil, 0, fmt.Errorf("invalid to date: %w", err)
	}

	invoices, total, err := s.invoiceRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}

	res := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		res = append(res, toInvoiceResponse(&invoices[i]))
	}
	return res, total, nil
}

func parseDateFilter(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(draft.DateLayout, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *invoiceService) ValidateFA3(req draft.Invoice) ValidationReport {
	inv := draft.Prepare(req)
	report := ValidationReport{
		Errors:   []ValidationIssue{},
		Warnings: []ValidationIssue{},
	}

	errs := draft.ValidateStrict(inv)
	for _, path := range errs.Paths() {
		report.Errors = append(report.Errors, ValidationIssue{
			Path:     path,
			Code:     CodeFieldInvalid,
			Message:  errs[path],
			Severity: SeverityError,
		})
	}

	if _, bad := errs["contractor_data.nip"]; !bad && !ksef.ValidNIPChecksum(inv.ContractorData.NIP) {
		report.Warnings = append(report.Warnings, ValidationIssue{
			Path:     "contractor_data.nip",
			Code:     CodeNIPChecksum,
			Message:  MsgNIPChecksumFails,
			Severity: SeverityWarning,
		})
	}

	report.IsValid = len(report.Errors) == 0
	return report
}

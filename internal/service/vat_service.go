package service

import (
	"context"
	"fmt"
	"time"

	"invoicedesk/internal/draft"
	"invoicedesk/internal/model"
	"invoicedesk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VATDeadlineDay is the day of the following month the return is due.
const VATDeadlineDay = 25

// Statuses counted towards the VAT due of a period.
var vatStatuses = []string{model.KSeFAccepted, model.KSeFPending, model.KSeFSubmitted}

type VATSummary struct {
	CompanyID     string `json:"company_id"`
	Period        string `json:"period"`
	InvoiceCount  int64  `json:"invoice_count"`
	NetTotal      string `json:"net_total"`
	GrossTotal    string `json:"gross_total"`
	VATDue        string `json:"vat_due"`
	VATDeductible string `json:"vat_deductible"`
	NetVAT        string `json:"net_vat"`
	Deadline      string `json:"deadline"`
}

type VATService interface {
	Summary(ctx context.Context, userID, companyID, period string) (VATSummary, error)
}

type vatService struct {
	invoiceRepo repository.InvoiceRepository
	companies   CompanyService
}

func NewVATService(invoiceRepo repository.InvoiceRepository, companies CompanyService) VATService {
	return &vatService{invoiceRepo: invoiceRepo, companies: companies}
}

func (s *vatService) Summary(ctx context.Context, userID, companyID, period string) (VATSummary, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return VATSummary{}, ErrInvalidID
	}
	cid, err := uuid.Parse(companyID)
	if err != nil {
		return VATSummary{}, ErrCompanyNotFound
	}

	from, err := time.Parse("2006-01", period)
	if err != nil {
		return VATSummary{}, ErrInvalidPeriod
	}
	to := from.AddDate(0, 1, 0)

	if _, err := s.companies.RequireAccess(ctx, uid, cid); err != nil {
		return VATSummary{}, err
	}

	agg, err := s.invoiceRepo.SumVAT(ctx, cid, from, to, vatStatuses)
	if err != nil {
		return VATSummary{}, fmt.Errorf("failed to sum VAT: %w", err)
	}

	// Purchase invoices are not tracked, so nothing is deductible.
	deductible := decimal.Zero
	deadline := time.Date(to.Year(), to.Month(), VATDeadlineDay, 0, 0, 0, 0, time.UTC)

	return VATSummary{
		CompanyID:     cid.String(),
		Period:        from.Format("2006-01"),
		InvoiceCount:  agg.Count,
		NetTotal:      agg.NetTotal.StringFixed(2),
		GrossTotal:    agg.GrossTotal.StringFixed(2),
		VATDue:        agg.VATTotal.StringFixed(2),
		VATDeductible: deductible.StringFixed(2),
		NetVAT:        agg.VATTotal.Sub(deductible).StringFixed(2),
		Deadline:      deadline.Format(draft.DateLayout),
	}, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"invoicedesk/internal/export"
	"invoicedesk/internal/model"
	"invoicedesk/internal/repository"

	"github.com/google/uuid"
)

type ExportService interface {
	Export(ctx context.Context, userID, invoiceID, format string) (export.File, error)
}

type exportService struct {
	invoiceRepo repository.InvoiceRepository
	companies   CompanyService
	audit       AuditService
}

func NewExportService(invoiceRepo repository.InvoiceRepository, companies CompanyService, audit AuditService) ExportService {
	return &exportService{invoiceRepo: invoiceRepo, companies: companies, audit: audit}
}

func (s *exportService) Export(ctx context.Context, userID, invoiceID, format string) (export.File, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return export.File{}, ErrInvalidID
	}
	id, err := uuid.Parse(invoiceID)
	if err != nil {
		return export.File{}, ErrInvoiceNotFound
	}

	invoice, err := s.invoiceRepo.FindByIDWithCompany(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return export.File{}, ErrInvoiceNotFound
		}
		return export.File{}, fmt.Errorf("failed to load invoice: %w", err)
	}
	if _, err := s.companies.RequireAccess(ctx, uid, invoice.CompanyID); err != nil {
		return export.File{}, err
	}

	file, err := export.Render(invoice, format)
	if err != nil {
		return export.File{}, err
	}

	s.audit.Record(ctx, &uid, model.ActionExportInvoice, "invoice", invoice.ID.String(), map[string]string{
		"format": format,
		"file":   file.Name,
	})
	return file, nil
}

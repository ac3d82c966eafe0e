package repository

import (
	"context"
	"time"

	"invoicedesk/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceListFilter narrows List. Zero values mean "any".
type InvoiceListFilter struct {
	CompanyIDs []uuid.UUID
	From       *time.Time
	To         *time.Time
	KSeFStatus string
	Page       int
	Limit      int
}

// KSeFUpdate carries the gateway outcome stored on an invoice.
type KSeFUpdate struct {
	Status      string
	KSeFNumber  string
	UPO         string
	Error       string
	SubmittedAt *time.Time
}

// VATAggregate sums the invoices of one company in a date range.
type VATAggregate struct {
	Count      int64
	NetTotal   decimal.Decimal
	VATTotal   decimal.Decimal
	GrossTotal decimal.Decimal
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindByIDWithCompany(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	List(ctx context.Context, filter InvoiceListFilter) ([]model.Invoice, int64, error)
	NumberExists(ctx context.Context, companyID uuid.UUID, number string) (bool, error)
	UpdateKSeF(ctx context.Context, id uuid.UUID, update KSeFUpdate) error
	SumVAT(ctx context.Context, companyID uuid.UUID, from, to time.Time, statuses []string) (VATAggregate, error)
	PendingIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Create(invoice).Error
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByIDWithCompany(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).Preload("Company").First(&invoice, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &invoice, nil
}

func (r *invoiceRepository) applyFilter(query *gorm.DB, filter InvoiceListFilter) *gorm.DB {
	if len(filter.CompanyIDs) > 0 {
		query = query.Where("company_id IN ?", filter.CompanyIDs)
	}
	if filter.From != nil {
		query = query.Where("issue_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("issue_date <= ?", *filter.To)
	}
	if filter.KSeFStatus != "" {
		query = query.Where("ksef_status = ?", filter.KSeFStatus)
	}
	return query
}

func (r *invoiceRepository) List(ctx context.Context, filter InvoiceListFilter) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64

	db := GetDB(ctx, r.db)
	if err := r.applyFilter(db.Model(&model.Invoice{}), filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := r.applyFilter(db.Model(&model.Invoice{}), filter).
		Order("issue_date DESC, created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&invoices).Error
	if err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

func (r *invoiceRepository) NumberExists(ctx context.Context, companyID uuid.UUID, number string) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Invoice{}).
		Where("company_id = ? AND invoice_number = ?", companyID, number).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *invoiceRepository) UpdateKSeF(ctx context.Context, id uuid.UUID, update KSeFUpdate) error {
	fields := map[string]interface{}{
		"ksef_status": update.Status,
		"ksef_number": update.KSeFNumber,
		"upo":         update.UPO,
		"ksef_error":  update.Error,
	}
	if update.SubmittedAt != nil {
		fields["submitted_at"] = *update.SubmittedAt
	}

	res := GetDB(ctx, r.db).Model(&model.Invoice{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *invoiceRepository) SumVAT(ctx context.Context, companyID uuid.UUID, from, to time.Time, statuses []string) (VATAggregate, error) {
	query := `
		SELECT
			COUNT(*) AS invoice_count,
			COALESCE(SUM(i.net_total), 0) AS net_total,
			COALESCE(SUM(i.vat_total), 0) AS vat_total,
			COALESCE(SUM(i.gross_total), 0) AS gross_total
		FROM invoices i
		WHERE i.company_id = ?
		  AND i.issue_date >= ?
		  AND i.issue_date < ?
		  AND i.ksef_status IN ?
	`

	type rawResult struct {
		InvoiceCount int64           `gorm:"column:invoice_count"`
		NetTotal     decimal.Decimal `gorm:"column:net_total"`
		VATTotal     decimal.Decimal `gorm:"column:vat_total"`
		GrossTotal   decimal.Decimal `gorm:"column:gross_total"`
	}

	var row rawResult
	if err := GetDB(ctx, r.db).Raw(query, companyID, from, to, statuses).Scan(&row).Error; err != nil {
		return VATAggregate{}, err
	}

	return VATAggregate{
		Count:      row.InvoiceCount,
		NetTotal:   row.NetTotal,
		VATTotal:   row.VATTotal,
		GrossTotal: row.GrossTotal,
	}, nil
}

// PendingIDs returns the oldest invoices still waiting for KSeF.
func (r *invoiceRepository) PendingIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := GetDB(ctx, r.db).Model(&model.Invoice{}).
		Where("ksef_status = ?", model.KSeFPending).
		Order("created_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

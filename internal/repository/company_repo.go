package repository

import (
	"context"

	"invoicedesk/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CompanyRepository interface {
	Create(ctx context.Context, company *model.Company) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error)
	FindByNIP(ctx context.Context, nip string) (*model.Company, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Company, error)
	GrantAccess(ctx context.Context, link *model.UserCompany) error
	HasAccess(ctx context.Context, userID, companyID uuid.UUID) (bool, error)
}

type companyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) Create(ctx context.Context, company *model.Company) error {
	return GetDB(ctx, r.db).Create(company).Error
}

func (r *companyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	var company model.Company
	if err := GetDB(ctx, r.db).First(&company, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &company, nil
}

func (r *companyRepository) FindByNIP(ctx context.Context, nip string) (*model.Company, error) {
	var company model.Company
	if err := GetDB(ctx, r.db).First(&company, "nip = ?", nip).Error; err != nil {
		return nil, translate(err)
	}
	return &company, nil
}

func (r *companyRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Company, error) {
	var companies []model.Company
	err := GetDB(ctx, r.db).
		Joins("JOIN user_companies uc ON uc.company_id = companies.id").
		Where("uc.user_id = ? AND companies.is_active = ?", userID, true).
		Order("companies.name ASC").
		Find(&companies).Error
	if err != nil {
		return nil, err
	}
	return companies, nil
}

func (r *companyRepository) GrantAccess(ctx context.Context, link *model.UserCompany) error {
	return GetDB(ctx, r.db).Create(link).Error
}

func (r *companyRepository) HasAccess(ctx context.Context, userID, companyID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.UserCompany{}).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

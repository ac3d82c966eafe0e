package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"invoicedesk/internal/draft"
	"invoicedesk/internal/model"
	"invoicedesk/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var companyNIPPattern = regexp.MustCompile(`^\d{10}$`)

// --- DTOs ---

type CreateCompanyRequest struct {
	NIP             string        `json:"nip" binding:"required"`
	Name            string        `json:"name" binding:"required"`
	Address         draft.Address `json:"address"`
	KSeFEnvironment string        `json:"ksef_environment" binding:"omitempty,oneof=test demo production"`
	KSeFToken       string        `json:"ksef_token"`
}

type CompanyResponse struct {
	ID              string        `json:"id"`
	NIP             string        `json:"nip"`
	Name            string        `json:"name"`
	Address         draft.Address `json:"address"`
	KSeFEnvironment string        `json:"ksef_environment"`
	CreatedAt       string        `json:"created_at"`
}

// --- Interface ---

type CompanyService interface {
	ListForUser(ctx context.Context, userID string) ([]CompanyResponse, error)
	Create(ctx context.Context, userID string, req CreateCompanyRequest) (CompanyResponse, error)
	// RequireAccess loads a company the user may work with.
	RequireAccess(ctx context.Context, userID, companyID uuid.UUID) (*model.Company, error)
}

type companyService struct {
	repo      repository.CompanyRepository
	audit     AuditService
	txManager repository.TransactionManager
}

func NewCompanyService(repo repository.CompanyRepository, audit AuditService, txManager repository.TransactionManager) CompanyService {
	return &companyService{repo: repo, audit: audit, txManager: txManager}
}

func toCompanyResponse(c *model.Company) CompanyResponse {
	return CompanyResponse{
		ID:              c.ID.String(),
		NIP:             c.NIP,
		Name:            c.Name,
		Address:         c.Address.Data(),
		KSeFEnvironment: c.KSeFEnvironment,
		CreatedAt:       c.CreatedAt.Format(time.RFC3339),
	}
}

// --- Implementation ---

func (s *companyService) ListForUser(ctx context.Context, userID string) ([]CompanyResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrInvalidID
	}

	companies, err := s.repo.ListForUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	res := make([]CompanyResponse, 0, len(companies))
	for i := range companies {
		res = append(res, toCompanyResponse(&companies[i]))
	}
	return res, nil
}

func (s *companyService) Create(ctx context.Context, userID string, req CreateCompanyRequest) (CompanyResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return CompanyResponse{}, ErrInvalidID
	}

	nip := strings.TrimSpace(req.NIP)
	if !companyNIPPattern.MatchString(nip) {
		return CompanyResponse{}, &ValidationFailedError{Errors: draft.ErrorMap{"nip": "NIP must be 10 digits"}}
	}

	if _, err := s.repo.FindByNIP(ctx, nip); err == nil {
		return CompanyResponse{}, ErrCompanyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return CompanyResponse{}, fmt.Errorf("failed to check NIP: %w", err)
	}

	env := req.KSeFEnvironment
	if env == "" {
		env = model.KSeFEnvTest
	}
	addr := req.Address
	if addr.Country == "" {
		addr.Country = draft.DefaultCountry
	}

	company := &model.Company{
		NIP:             nip,
		Name:            strings.TrimSpace(req.Name),
		Address:         datatypes.NewJSONType(addr),
		KSeFEnvironment: env,
		KSeFToken:       req.KSeFToken,
		IsActive:        true,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, company); err != nil {
			return fmt.Errorf("failed to create company: %w", err)
		}
		return s.repo.GrantAccess(txCtx, &model.UserCompany{
			UserID:    uid,
			CompanyID: company.ID,
			Role:      model.CompanyRoleOwner,
		})
	})
	if err != nil {
		return CompanyResponse{}, err
	}

	s.audit.Record(ctx, &uid, model.ActionCreateCompany, "company", company.ID.String(), map[string]string{
		"nip":  company.NIP,
		"name": company.Name,
	})
	return toCompanyResponse(company), nil
}

func (s *companyService) RequireAccess(ctx context.Context, userID, companyID uuid.UUID) (*model.Company, error) {
	company, err := s.repo.FindByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to load company: %w", err)
	}

	ok, err := s.repo.HasAccess(ctx, userID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to check company access: %w", err)
	}
	if !ok {
		return nil, ErrCompanyAccessDenied
	}
	return company, nil
}

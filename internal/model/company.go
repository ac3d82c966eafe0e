package model

import (
	"time"

	"invoicedesk/internal/draft"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// KSeF environments a company can be bound to
const (
	KSeFEnvTest       = "test"
	KSeFEnvDemo       = "demo"
	KSeFEnvProduction = "production"
)

// Roles of a user within a company
const (
	CompanyRoleOwner      = "owner"
	CompanyRoleAccountant = "accountant"
	CompanyRoleViewer     = "viewer"
)

// Company is an invoice issuer (the seller on every invoice it owns).
type Company struct {
	ID              uuid.UUID                         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	NIP             string                            `gorm:"type:varchar(10);uniqueIndex;not null" json:"nip"`
	Name            string                            `gorm:"type:varchar(255);not null" json:"name"`
	Address         datatypes.JSONType[draft.Address] `gorm:"type:jsonb" json:"address"`
	KSeFEnvironment string                            `gorm:"column:ksef_environment;type:varchar(20);not null;default:'test'" json:"ksef_environment"`
	KSeFToken       string                            `gorm:"column:ksef_token;type:text" json:"-"`
	IsActive        bool                              `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time                         `json:"created_at"`
	UpdatedAt       time.Time                         `json:"updated_at"`
	DeletedAt       gorm.DeletedAt                    `gorm:"index" json:"-"`
}

// UserCompany grants a user access to a company's invoices.
type UserCompany struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	CompanyID uuid.UUID `gorm:"type:uuid;primaryKey" json:"company_id"`
	Company   Company   `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE" json:"-"`
	Role      string    `gorm:"type:varchar(20);not null;default:'owner'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ActionCreateCompany = "company.create"
	ActionCreateInvoice = "invoice.create"
	ActionExportInvoice = "invoice.export"
	ActionKSeFSubmitted = "ksef.submitted"
	ActionKSeFAccepted  = "ksef.accepted"
	ActionKSeFRejected  = "ksef.rejected"
	ActionRegisterUser  = "user.register"
)

// AuditLog tracks who did what to which entity and when
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"` // nil for background jobs
	User       *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string         `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityType string         `gorm:"type:varchar(50);not null;index" json:"entity_type"`
	EntityID   string         `gorm:"type:varchar(50);index" json:"entity_id"`
	Details    datatypes.JSON `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

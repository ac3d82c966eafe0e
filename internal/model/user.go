package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// System roles carried in the access token
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// User is an operator who issues invoices on behalf of one or more companies.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FullName  string         `gorm:"type:varchar(255)" json:"full_name"`
	Password  string         `gorm:"type:varchar(255);not null" json:"-"`
	Role      string         `gorm:"type:varchar(50);not null;default:'operator'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

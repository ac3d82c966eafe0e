package repository

import (
	"context"

	"invoicedesk/internal/model"

	"gorm.io/gorm"
)

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	ListForEntity(ctx context.Context, entityType, entityID string) ([]model.AuditLog, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) ListForEntity(ctx context.Context, entityType, entityID string) ([]model.AuditLog, error) {
	var logs []model.AuditLog
	err := GetDB(ctx, r.db).Preload("User").
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at asc").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

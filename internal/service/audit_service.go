package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"invoicedesk/internal/model"
	"invoicedesk/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuditLogResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	UserEmail string          `json:"user_email"`
	Action    string          `json:"action"`
	EntityID  string          `json:"entity_id"`
	Details   json.RawMessage `json:"details"`
	CreatedAt string          `json:"created_at"`
}

type AuditService interface {
	// Record stores an audit entry. Failures are logged and never returned.
	Record(ctx context.Context, userID *uuid.UUID, action, entityType, entityID string, details any)
	History(ctx context.Context, entityType, entityID string) ([]AuditLogResponse, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) Record(ctx context.Context, userID *uuid.UUID, action, entityType, entityID string, details any) {
	payload, err := json.Marshal(details)
	if err != nil {
		log.Printf("audit: failed to encode details for %s %s: %v", action, entityID, err)
		payload = []byte("{}")
	}

	entry := &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    datatypes.JSON(payload),
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		log.Printf("audit: failed to write %s for %s %s: %v", action, entityType, entityID, err)
	}
}

func (s *auditService) History(ctx context.Context, entityType, entityID string) ([]AuditLogResponse, error) {
	logs, err := s.repo.ListForEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		userID, email := "", "system"
		if l.UserID != nil {
			userID = l.UserID.String()
		}
		if l.User != nil {
			email = l.User.Email
		}
		res = append(res, AuditLogResponse{
			ID:        l.ID.String(),
			UserID:    userID,
			UserEmail: email,
			Action:    l.Action,
			EntityID:  l.EntityID,
			Details:   json.RawMessage(l.Details),
			CreatedAt: l.CreatedAt.Format(time.RFC3339),
		})
	}
	return res, nil
}

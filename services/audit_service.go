package services

import (
	"context"

	"coursepilot/models"

	"gorm.io/gorm"
)

// Actor identifies who performed a state-changing action
type Actor struct {
	ID    uint
	Name  string
	OrgID uint
}

// AuditService is the append-only governance log. It exposes no update or
// delete operations; retention is enforced by an external sweeper.
type AuditService struct {
	DB *gorm.DB
}

// NewAuditService creates a new audit service
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{DB: db}
}

// Record appends one audit entry
func (s *AuditService) Record(ctx context.Context, actor Actor, action, entityType string, entityID uint) error {
	entry := models.AuditLog{
		OrgID:      actor.OrgID,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}
	return s.DB.WithContext(ctx).Create(&entry).Error
}

// List returns the most recent entries for an organization, newest first
func (s *AuditService) List(ctx context.Context, orgID uint, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.AuditLog
	err := s.DB.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at desc").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

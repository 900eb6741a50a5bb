package services

import (
	"context"

	"coursepilot/models"

	"gorm.io/gorm"
)

// RosterProvider supplies the learner roster and org taxonomy. Read-only
// from the enrollment and analytics subsystems' perspective.
type RosterProvider interface {
	ListMembers(ctx context.Context, orgID uint) ([]models.Member, error)
	ListDepartments(ctx context.Context, orgID uint) ([]models.Department, error)
	ListTeams(ctx context.Context, orgID uint) ([]models.Team, error)
}

// RosterService is the database-backed RosterProvider
type RosterService struct {
	DB *gorm.DB
}

// NewRosterService creates a new roster service
func NewRosterService(db *gorm.DB) *RosterService {
	return &RosterService{DB: db}
}

// ListMembers returns all live members for an organization
func (s *RosterService) ListMembers(ctx context.Context, orgID uint) ([]models.Member, error) {
	var members []models.Member
	err := s.DB.WithContext(ctx).
		Where("org_id = ? AND is_deleted = ?", orgID, false).
		Order("id asc").
		Find(&members).Error
	return members, err
}

// ListDepartments returns the organization's departments
func (s *RosterService) ListDepartments(ctx context.Context, orgID uint) ([]models.Department, error) {
	var departments []models.Department
	err := s.DB.WithContext(ctx).
		Where("org_id = ? AND is_deleted = ?", orgID, false).
		Order("name asc").
		Find(&departments).Error
	return departments, err
}

// ListTeams returns the organization's teams
func (s *RosterService) ListTeams(ctx context.Context, orgID uint) ([]models.Team, error) {
	var teams []models.Team
	err := s.DB.WithContext(ctx).
		Where("org_id = ? AND is_deleted = ?", orgID, false).
		Order("name asc").
		Find(&teams).Error
	return teams, err
}

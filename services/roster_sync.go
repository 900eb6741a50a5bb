package services

import (
	"context"
	"fmt"
	"log"

	"coursepilot/config"
	"coursepilot/models"

	"github.com/go-resty/resty/v2"
	"gorm.io/gorm"
)

// hrisMember is one member row from the external HRIS API
type hrisMember struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
	Team       string `json:"team"`
	Active     bool   `json:"active"`
}

type hrisResponse struct {
	Members []hrisMember `json:"members"`
}

// RosterSyncService pulls the member roster from the external HRIS and
// upserts it into the local roster tables. Departments and teams are created
// on first sight by name.
type RosterSyncService struct {
	DB     *gorm.DB
	Client *resty.Client
	Audit  *AuditService
}

// NewRosterSyncService creates a sync service against the configured HRIS
func NewRosterSyncService(db *gorm.DB, audit *AuditService) *RosterSyncService {
	client := resty.New()
	if config.AppConfig != nil && config.AppConfig.RosterSyncApiKey != "" {
		client.SetHeader("Authorization", "Bearer "+config.AppConfig.RosterSyncApiKey)
	}
	return &RosterSyncService{DB: db, Client: client, Audit: audit}
}

// Sync fetches the HRIS roster for an organization and upserts members by
// email. Returns the number of members written. Cancellation of ctx aborts
// the HTTP call.
func (s *RosterSyncService) Sync(ctx context.Context, orgID uint, actor Actor) (int, error) {
	if config.AppConfig == nil || config.AppConfig.RosterSyncURL == "" {
		return 0, &ValidationError{Field: "roster_sync_url", Message: "roster sync is not configured"}
	}

	var payload hrisResponse
	resp, err := s.Client.R().
		SetContext(ctx).
		SetQueryParam("org_id", fmt.Sprintf("%d", orgID)).
		SetResult(&payload).
		Get(config.AppConfig.RosterSyncURL)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode() != 200 {
		return 0, fmt.Errorf("HRIS sync failed: status %d", resp.StatusCode())
	}

	written := 0
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, hm := range payload.Members {
			if hm.Email == "" {
				continue
			}

			var deptID, teamID *uint
			if hm.Department != "" {
				id, err := s.ensureDepartment(tx, orgID, hm.Department)
				if err != nil {
					return err
				}
				deptID = &id
			}
			if hm.Team != "" {
				id, err := s.ensureTeam(tx, orgID, hm.Team, deptID)
				if err != nil {
					return err
				}
				teamID = &id
			}

			status := models.MemberStatusActive
			if !hm.Active {
				status = models.MemberStatusInactive
			}

			var member models.Member
			err := tx.Where("org_id = ? AND email = ?", orgID, hm.Email).First(&member).Error
			if err == gorm.ErrRecordNotFound {
				member = models.Member{
					OrgID:        orgID,
					Email:        hm.Email,
					Name:         hm.Name,
					Role:         hm.Role,
					DepartmentID: deptID,
					TeamID:       teamID,
					Status:       status,
				}
				if err := tx.Create(&member).Error; err != nil {
					return err
				}
			} else if err != nil {
				return err
			} else {
				updates := map[string]interface{}{
					"name":          hm.Name,
					"role":          hm.Role,
					"department_id": deptID,
					"team_id":       teamID,
					"status":        status,
					"is_deleted":    false,
				}
				if err := tx.Model(&member).Updates(updates).Error; err != nil {
					return err
				}
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("Roster sync for org %d: %d members written", orgID, written)
	if s.Audit != nil {
		s.Audit.Record(ctx, actor, models.ActionRosterSynced, "organization", orgID)
	}
	return written, nil
}

func (s *RosterSyncService) ensureDepartment(tx *gorm.DB, orgID uint, name string) (uint, error) {
	var dept models.Department
	err := tx.Where("org_id = ? AND name = ? AND is_deleted = ?", orgID, name, false).First(&dept).Error
	if err == gorm.ErrRecordNotFound {
		dept = models.Department{OrgID: orgID, Name: name}
		if err := tx.Create(&dept).Error; err != nil {
			return 0, err
		}
		return dept.ID, nil
	}
	if err != nil {
		return 0, err
	}
	return dept.ID, nil
}

func (s *RosterSyncService) ensureTeam(tx *gorm.DB, orgID uint, name string, deptID *uint) (uint, error) {
	var team models.Team
	err := tx.Where("org_id = ? AND name = ? AND is_deleted = ?", orgID, name, false).First(&team).Error
	if err == gorm.ErrRecordNotFound {
		team = models.Team{OrgID: orgID, Name: name, DepartmentID: deptID}
		if err := tx.Create(&team).Error; err != nil {
			return 0, err
		}
		return team.ID, nil
	}
	if err != nil {
		return 0, err
	}
	return team.ID, nil
}

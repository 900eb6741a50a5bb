package models

import "gorm.io/gorm"

// Member statuses
const (
	MemberStatusActive   = "ACTIVE"
	MemberStatusInactive = "INACTIVE"
)

// Member is a learner in an organization's roster. Synced from the external
// HRIS; read-only for the pipeline and enrollment subsystems.
type Member struct {
	gorm.Model
	OrgID        uint   `json:"org_id" gorm:"index;not null"`
	UserID       *uint  `json:"user_id" gorm:"index"` // set once the member has a platform account
	Name         string `json:"name"`
	Email        string `json:"email" gorm:"index"`
	Role         string `json:"role"`
	DepartmentID *uint  `json:"department_id" gorm:"index"`
	TeamID       *uint  `json:"team_id" gorm:"index"`
	Status       string `json:"status" gorm:"default:'ACTIVE'"` // ACTIVE, INACTIVE
	IsDeleted    bool   `gorm:"default:false"`
}

// Department is an organizational unit members belong to
type Department struct {
	gorm.Model
	OrgID     uint   `json:"org_id" gorm:"index;not null"`
	Name      string `json:"name"`
	IsDeleted bool   `gorm:"default:false"`
}

// Team is a sub-unit within a department
type Team struct {
	gorm.Model
	OrgID        uint   `json:"org_id" gorm:"index;not null"`
	DepartmentID *uint  `json:"department_id" gorm:"index"`
	Name         string `json:"name"`
	IsDeleted    bool   `gorm:"default:false"`
}

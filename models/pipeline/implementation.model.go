package pipeline

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Enrollment rule types
const (
	RuleTypeAll        = "ALL"
	RuleTypeDepartment = "DEPARTMENT"
	RuleTypeTeam       = "TEAM"
	RuleTypeRole       = "ROLE"
	RuleTypeIndividual = "INDIVIDUAL"
)

// ImplementationRecord is the implement-phase record. It owns the ordered
// rule list and the launch counters. Counters are incremented after each
// launch, never recomputed from the enrollment table: they must stay correct
// even when that table is unavailable to the analytics query path.
type ImplementationRecord struct {
	gorm.Model
	ProjectID uint           `json:"project_id" gorm:"uniqueIndex;not null"`
	Payload   datatypes.JSON `json:"payload"`

	EnrolledCount   int `json:"enrolled_count" gorm:"default:0"`
	InProgressCount int `json:"in_progress_count" gorm:"default:0"`
	CompletedCount  int `json:"completed_count" gorm:"default:0"`
	NotStartedCount int `json:"not_started_count" gorm:"default:0"`
	OverdueCount    int `json:"overdue_count" gorm:"default:0"`

	LastLaunchedAt *time.Time `json:"last_launched_at"`
	IsDeleted      bool       `gorm:"default:false"`
}

// EnrollmentRule targets a slice of the roster for enrollment. Rules form an
// ordered sequence per implementation: Position only ever grows, and removal
// leaves the remaining positions untouched, so earlier rules keep their
// claim precedence.
type EnrollmentRule struct {
	gorm.Model
	ImplementationID uint       `json:"implementation_id" gorm:"index;not null"`
	Type             string     `json:"type" gorm:"not null"` // ALL, DEPARTMENT, TEAM, ROLE, INDIVIDUAL
	TargetID         uint       `json:"target_id"`
	TargetName       string     `json:"target_name"`
	Priority         string     `json:"priority" gorm:"default:'REQUIRED'"` // REQUIRED, RECOMMENDED, OPTIONAL
	AutoEnroll       bool       `json:"auto_enroll" gorm:"default:true"`
	DueDate          *time.Time `json:"due_date"`
	Position         int        `json:"position" gorm:"index;not null"`
	IsDeleted        bool       `gorm:"default:false"`
}

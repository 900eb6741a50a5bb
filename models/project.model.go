package models

import (
	"time"

	"gorm.io/gorm"
)

// Pipeline phases in fixed order
const (
	PhaseIngest      = "ingest"
	PhaseAnalyze     = "analyze"
	PhaseDesign      = "design"
	PhaseDevelop     = "develop"
	PhaseImplement   = "implement"
	PhaseEvaluate    = "evaluate"
	PhasePersonalize = "personalize"
	PhasePortal      = "portal"
	PhaseGovern      = "govern"
)

// PhaseOrder is the canonical ordering of pipeline phases. A phase may only
// become active once its predecessor here is completed.
var PhaseOrder = []string{
	PhaseIngest,
	PhaseAnalyze,
	PhaseDesign,
	PhaseDevelop,
	PhaseImplement,
	PhaseEvaluate,
	PhasePersonalize,
	PhasePortal,
	PhaseGovern,
}

// PhaseIndex returns the position of phase in PhaseOrder, or -1 if unknown
func PhaseIndex(phase string) int {
	for i, p := range PhaseOrder {
		if p == phase {
			return i
		}
	}
	return -1
}

// Phase statuses
const (
	PhasePending    = "PENDING"
	PhaseInProgress = "IN_PROGRESS"
	PhaseCompleted  = "COMPLETED"
)

// Project statuses
const (
	ProjectDraft     = "DRAFT"
	ProjectActive    = "ACTIVE"
	ProjectCompleted = "COMPLETED"
	ProjectArchived  = "ARCHIVED"
)

// Project is a course-authoring effort moving through the pipeline
type Project struct {
	gorm.Model
	OrgID        uint   `json:"org_id" gorm:"index;not null"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Status       string `json:"status" gorm:"default:'DRAFT'"` // DRAFT, ACTIVE, COMPLETED, ARCHIVED
	CurrentPhase string `json:"current_phase" gorm:"default:'ingest'"`
	CourseID     *uint  `json:"course_id" gorm:"index"` // linked catalog course, set during develop
	CreatedBy    uint   `json:"created_by" gorm:"index"`
	Version      int    `json:"version" gorm:"default:0"` // optimistic concurrency guard
	IsDeleted    bool   `gorm:"default:false"`
}

// PhaseState tracks one phase's lifecycle for a project. Nine rows are
// seeded on project creation; CurrentPhase on the project is always derived
// from these rows, never set directly.
type PhaseState struct {
	gorm.Model
	ProjectID   uint       `json:"project_id" gorm:"index;not null"`
	Phase       string     `json:"phase" gorm:"index;not null"`
	Status      string     `json:"status" gorm:"default:'PENDING'"` // PENDING, IN_PROGRESS, COMPLETED
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment statuses
const (
	EnrollmentNotStarted = "NOT_STARTED"
	EnrollmentInProgress = "IN_PROGRESS"
	EnrollmentCompleted  = "COMPLETED"
	EnrollmentOverdue    = "OVERDUE"
)

// Enrollment priorities, carried over from the rule that created it
const (
	PriorityRequired    = "REQUIRED"
	PriorityRecommended = "RECOMMENDED"
	PriorityOptional    = "OPTIONAL"
)

// Enrollment tracks a member's enrollment in a course with progress
type Enrollment struct {
	gorm.Model
	MemberID    uint       `json:"member_id" gorm:"index;not null"`
	CourseID    uint       `json:"course_id" gorm:"index;not null"`
	Status      string     `json:"status" gorm:"default:'NOT_STARTED'"`
	Priority    string     `json:"priority" gorm:"default:'REQUIRED'"`
	Progress    float64    `json:"progress" gorm:"default:0"` // completion percentage (0-100)
	Score       float64    `json:"score" gorm:"default:0"`
	DueDate     *time.Time `json:"due_date"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	BatchRef    string     `json:"batch_ref" gorm:"index"` // launch batch that created this row
	IsDeleted   bool       `gorm:"default:false"`
}

package services

import (
	"context"
	"time"

	"coursepilot/models"

	"gorm.io/gorm"
)

// EnrollmentOptions carries per-batch settings from the rule that resolved
// the members being enrolled.
type EnrollmentOptions struct {
	DueDate  *time.Time
	Priority string
	BatchRef string
}

// EnrollmentStore creates and reads enrollment records. BulkCreate is atomic
// for the whole batch: a launch that fails one rule's batch must not leave
// part of that batch behind.
type EnrollmentStore interface {
	BulkCreate(ctx context.Context, memberIDs []uint, courseID uint, opts EnrollmentOptions) ([]models.Enrollment, error)
	ListByCourse(ctx context.Context, courseID uint) ([]models.Enrollment, error)
}

// GormEnrollmentStore is the database-backed EnrollmentStore
type GormEnrollmentStore struct {
	DB *gorm.DB
}

// NewGormEnrollmentStore creates a new enrollment store
func NewGormEnrollmentStore(db *gorm.DB) *GormEnrollmentStore {
	return &GormEnrollmentStore{DB: db}
}

// BulkCreate inserts one enrollment per member in a single transaction
func (s *GormEnrollmentStore) BulkCreate(ctx context.Context, memberIDs []uint, courseID uint, opts EnrollmentOptions) ([]models.Enrollment, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}

	priority := opts.Priority
	if priority == "" {
		priority = models.PriorityRequired
	}

	enrollments := make([]models.Enrollment, len(memberIDs))
	for i, memberID := range memberIDs {
		enrollments[i] = models.Enrollment{
			MemberID: memberID,
			CourseID: courseID,
			Status:   models.EnrollmentNotStarted,
			Priority: priority,
			DueDate:  opts.DueDate,
			BatchRef: opts.BatchRef,
		}
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&enrollments).Error
	})
	if err != nil {
		return nil, err
	}
	return enrollments, nil
}

// ListByCourse returns all live enrollments for a course
func (s *GormEnrollmentStore) ListByCourse(ctx context.Context, courseID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	err := s.DB.WithContext(ctx).
		Where("course_id = ? AND is_deleted = ?", courseID, false).
		Find(&enrollments).Error
	return enrollments, err
}

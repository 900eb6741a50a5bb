package services

import (
	"context"
	"encoding/json"
	"time"

	"coursepilot/models"
	"coursepilot/models/pipeline"

	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// TrendPoint is one day of the completion trend
type TrendPoint struct {
	Date      string `json:"date"` // YYYY-MM-DD
	Completed int    `json:"completed"`
}

// DepartmentStats is the per-department completion breakdown
type DepartmentStats struct {
	DepartmentID   uint    `json:"department_id"`
	Name           string  `json:"name"`
	Enrolled       int     `json:"enrolled"`
	CompletionRate float64 `json:"completion_rate"`
}

// AnalyticsSnapshot is a point-in-time view derived entirely from the
// current enrollment records. It is never a source of truth: recomputing it
// at any moment with unchanged inputs yields an identical result.
type AnalyticsSnapshot struct {
	TotalLearners         int               `json:"total_learners"`
	ActiveLearners        int               `json:"active_learners"`
	CompletionRate        float64           `json:"completion_rate"`
	AverageScore          float64           `json:"average_score"`
	AverageTimeToComplete float64           `json:"average_time_to_complete"` // minutes
	DropoutRate           float64           `json:"dropout_rate"`
	Trend                 []TrendPoint      `json:"trend"`
	Departments           []DepartmentStats `json:"departments"`
}

// AnalyticsService computes course metrics from the enrollment store. It
// never writes to the store; its only persisted output is the snapshot cache
// on the project's analytics record, which is always safe to overwrite.
type AnalyticsService struct {
	DB     *gorm.DB
	Store  EnrollmentStore
	Roster RosterProvider
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(db *gorm.DB, store EnrollmentStore, roster RosterProvider) *AnalyticsService {
	return &AnalyticsService{DB: db, Store: store, Roster: roster}
}

// Snapshot computes current metrics for a course
func (s *AnalyticsService) Snapshot(ctx context.Context, orgID, courseID uint) (*AnalyticsSnapshot, error) {
	return s.SnapshotAt(ctx, orgID, courseID, time.Now())
}

// SnapshotAt computes metrics as of a reference time. The reference time
// only anchors the 7-day trend window.
func (s *AnalyticsService) SnapshotAt(ctx context.Context, orgID, courseID uint, asOf time.Time) (*AnalyticsSnapshot, error) {
	enrollments, err := s.Store.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	members, err := s.Roster.ListMembers(ctx, orgID)
	if err != nil {
		return nil, err
	}
	departments, err := s.Roster.ListDepartments(ctx, orgID)
	if err != nil {
		return nil, err
	}

	snapshot := &AnalyticsSnapshot{}
	snapshot.TotalLearners = len(enrollments)

	completed := 0
	notStarted := 0
	scoreSum := 0.0
	scored := 0
	minutesSum := 0.0
	timed := 0

	for _, e := range enrollments {
		switch e.Status {
		case models.EnrollmentCompleted:
			completed++
		case models.EnrollmentNotStarted:
			notStarted++
		}
		if e.Status != models.EnrollmentNotStarted {
			snapshot.ActiveLearners++
		}
		if e.Status == models.EnrollmentCompleted {
			// Unscored completions are excluded from the average, not
			// counted as zero.
			if e.Score > 0 {
				scoreSum += e.Score
				scored++
			}
			if e.StartedAt != nil && e.CompletedAt != nil {
				minutesSum += e.CompletedAt.Sub(*e.StartedAt).Minutes()
				timed++
			}
		}
	}

	if snapshot.TotalLearners > 0 {
		snapshot.CompletionRate = float64(completed) / float64(snapshot.TotalLearners) * 100
		snapshot.DropoutRate = float64(notStarted) / float64(snapshot.TotalLearners) * 100
	}
	if scored > 0 {
		snapshot.AverageScore = scoreSum / float64(scored)
	}
	if timed > 0 {
		snapshot.AverageTimeToComplete = minutesSum / float64(timed)
	}

	snapshot.Trend = completionTrend(enrollments, asOf)
	snapshot.Departments = departmentBreakdown(enrollments, members, departments)

	return snapshot, nil
}

// RefreshCache recomputes the snapshot for a project's course and persists
// it into the project's analytics record.
func (s *AnalyticsService) RefreshCache(ctx context.Context, projectID uint) error {
	var project models.Project
	if err := s.DB.WithContext(ctx).Where("id = ? AND is_deleted = ?", projectID, false).First(&project).Error; err != nil {
		return &NotFoundError{Entity: "project", ID: projectID}
	}
	if project.CourseID == nil {
		return &PreconditionNotMetError{Phase: models.PhaseEvaluate, Missing: "linked course"}
	}

	snapshot, err := s.Snapshot(ctx, project.OrgID, *project.CourseID)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	nowTime := time.Now()
	var record pipeline.AnalyticsRecord
	err = s.DB.WithContext(ctx).Where("project_id = ?", projectID).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		record = pipeline.AnalyticsRecord{ProjectID: projectID, Snapshot: raw, RefreshedAt: &nowTime}
		return s.DB.WithContext(ctx).Create(&record).Error
	}
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Model(&record).
		Updates(map[string]interface{}{"snapshot": raw, "refreshed_at": nowTime}).Error
}

// completionTrend counts completions per calendar day over the last 7 days,
// oldest first.
func completionTrend(enrollments []models.Enrollment, asOf time.Time) []TrendPoint {
	trend := make([]TrendPoint, 7)
	dayStart := now.New(asOf).BeginningOfDay()
	for i := 0; i < 7; i++ {
		day := dayStart.AddDate(0, 0, i-6)
		trend[i] = TrendPoint{Date: day.Format("2006-01-02")}
		for _, e := range enrollments {
			if e.CompletedAt == nil {
				continue
			}
			completedDay := now.New(*e.CompletedAt).BeginningOfDay()
			if completedDay.Equal(day) {
				trend[i].Completed++
			}
		}
	}
	return trend
}

// departmentBreakdown groups enrollments by the member's department.
// Departments with zero enrollments are omitted.
func departmentBreakdown(enrollments []models.Enrollment, members []models.Member, departments []models.Department) []DepartmentStats {
	memberDept := make(map[uint]uint, len(members))
	for _, m := range members {
		if m.DepartmentID != nil {
			memberDept[m.ID] = *m.DepartmentID
		}
	}

	enrolledBy := make(map[uint]int)
	completedBy := make(map[uint]int)
	for _, e := range enrollments {
		deptID, ok := memberDept[e.MemberID]
		if !ok {
			continue
		}
		enrolledBy[deptID]++
		if e.Status == models.EnrollmentCompleted {
			completedBy[deptID]++
		}
	}

	var stats []DepartmentStats
	for _, d := range departments {
		enrolled := enrolledBy[d.ID]
		if enrolled == 0 {
			continue
		}
		stats = append(stats, DepartmentStats{
			DepartmentID:   d.ID,
			Name:           d.Name,
			Enrolled:       enrolled,
			CompletionRate: float64(completedBy[d.ID]) / float64(enrolled) * 100,
		})
	}
	return stats
}

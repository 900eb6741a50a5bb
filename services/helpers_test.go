package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"coursepilot/models"
	"coursepilot/models/pipeline"
	"coursepilot/services"

	"gorm.io/gorm"
)

var testActor = services.Actor{ID: 7, Name: "Priya Nair", OrgID: 1}

func ptrUint(v uint) *uint { return &v }

func ptrTime(v time.Time) *time.Time { return &v }

func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("failed to create %T: %v", value, err)
	}
}

func seedCourse(t *testing.T, db *gorm.DB, orgID uint, title string) models.Course {
	t.Helper()
	course := models.Course{OrgID: orgID, Title: title, Status: "ACTIVE"}
	mustCreate(t, db, &course)
	return course
}

func seedDepartment(t *testing.T, db *gorm.DB, orgID uint, name string) models.Department {
	t.Helper()
	dept := models.Department{OrgID: orgID, Name: name}
	mustCreate(t, db, &dept)
	return dept
}

func seedMember(t *testing.T, db *gorm.DB, orgID uint, name, role string, deptID, teamID *uint) models.Member {
	t.Helper()
	m := models.Member{
		OrgID:        orgID,
		Name:         name,
		Email:        fmt.Sprintf("%s@corp.test", name),
		Role:         role,
		DepartmentID: deptID,
		TeamID:       teamID,
		Status:       models.MemberStatusActive,
	}
	mustCreate(t, db, &m)
	return m
}

// member builds an in-memory roster entry for pure resolution tests
func member(id uint, name, role string, deptID, teamID *uint) models.Member {
	return models.Member{
		Model:        gorm.Model{ID: id},
		OrgID:        1,
		Name:         name,
		Email:        fmt.Sprintf("user%d@corp.test", id),
		Role:         role,
		DepartmentID: deptID,
		TeamID:       teamID,
		Status:       models.MemberStatusActive,
	}
}

// seedPhaseArtifact creates whatever the given phase needs before it can
// complete.
func seedPhaseArtifact(t *testing.T, db *gorm.DB, project *models.Project, phase string) {
	t.Helper()
	switch phase {
	case models.PhaseIngest:
		var n int64
		db.Model(&pipeline.ContentItem{}).Where("project_id = ?", project.ID).Count(&n)
		if n == 0 {
			mustCreate(t, db, &pipeline.ContentItem{ProjectID: project.ID, Title: "Compliance basics deck"})
		}
	case models.PhaseAnalyze:
		mustCreate(t, db, &pipeline.AnalysisRecord{ProjectID: project.ID})
	case models.PhaseDesign:
		// analysis record already present from the analyze phase
	case models.PhaseDevelop:
		mustCreate(t, db, &pipeline.DesignRecord{ProjectID: project.ID})
	case models.PhaseImplement:
		mustCreate(t, db, &pipeline.ImplementationRecord{ProjectID: project.ID})
	case models.PhaseEvaluate:
		if project.CourseID == nil {
			course := seedCourse(t, db, project.OrgID, "Published course")
			if err := db.Model(&models.Project{}).Where("id = ?", project.ID).
				Update("course_id", course.ID).Error; err != nil {
				t.Fatalf("failed to link course: %v", err)
			}
			project.CourseID = &course.ID
		}
	}
}

// advanceTo starts and completes every phase before target, seeding the
// required artifacts along the way. An empty target completes all phases.
func advanceTo(t *testing.T, db *gorm.DB, svc *services.PipelineService, project *models.Project, target string) *models.Project {
	t.Helper()
	ctx := context.Background()
	for _, phase := range models.PhaseOrder {
		if phase == target {
			return project
		}
		seedPhaseArtifact(t, db, project, phase)
		if _, err := svc.StartPhase(ctx, project.ID, phase, testActor); err != nil {
			t.Fatalf("failed to start %s: %v", phase, err)
		}
		updated, err := svc.CompletePhase(ctx, project.ID, phase, testActor)
		if err != nil {
			t.Fatalf("failed to complete %s: %v", phase, err)
		}
		project = updated
	}
	return project
}

// fakeRoster serves a fixed roster without touching the database
type fakeRoster struct {
	members     []models.Member
	departments []models.Department
	teams       []models.Team
}

func (f *fakeRoster) ListMembers(_ context.Context, _ uint) ([]models.Member, error) {
	return f.members, nil
}

func (f *fakeRoster) ListDepartments(_ context.Context, _ uint) ([]models.Department, error) {
	return f.departments, nil
}

func (f *fakeRoster) ListTeams(_ context.Context, _ uint) ([]models.Team, error) {
	return f.teams, nil
}

// fakeEnrollments is a read-only EnrollmentStore over a fixed list
type fakeEnrollments struct {
	list []models.Enrollment
}

func (f *fakeEnrollments) BulkCreate(_ context.Context, _ []uint, _ uint, _ services.EnrollmentOptions) ([]models.Enrollment, error) {
	return nil, errors.New("read-only store")
}

func (f *fakeEnrollments) ListByCourse(_ context.Context, _ uint) ([]models.Enrollment, error) {
	return f.list, nil
}

// failingStore fails any batch containing the designated member
type failingStore struct {
	services.EnrollmentStore
	failMember uint
}

func (s *failingStore) BulkCreate(ctx context.Context, memberIDs []uint, courseID uint, opts services.EnrollmentOptions) ([]models.Enrollment, error) {
	for _, id := range memberIDs {
		if id == s.failMember {
			return nil, errors.New("constraint violation")
		}
	}
	return s.EnrollmentStore.BulkCreate(ctx, memberIDs, courseID, opts)
}

// captureNotifier records launch notifications for assertion
type notifiedBatch struct {
	members []models.Member
	course  models.Course
	dueDate *time.Time
}

type captureNotifier struct {
	calls chan notifiedBatch
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{calls: make(chan notifiedBatch, 8)}
}

func (n *captureNotifier) NotifyEnrollments(members []models.Member, course models.Course, dueDate *time.Time) {
	n.calls <- notifiedBatch{members: members, course: course, dueDate: dueDate}
}

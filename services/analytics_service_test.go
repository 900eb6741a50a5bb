package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"coursepilot/database"
	"coursepilot/models"
	"coursepilot/models/pipeline"
	"coursepilot/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// analyticsFixture: five enrollments, two completed (scores 80 and 90),
// three untouched.
func analyticsFixture(asOf time.Time) (*fakeEnrollments, *fakeRoster) {
	store := &fakeEnrollments{list: []models.Enrollment{
		{
			MemberID: 1, CourseID: 1, Status: models.EnrollmentCompleted, Score: 80,
			StartedAt:   ptrTime(asOf.Add(-2 * time.Hour)),
			CompletedAt: ptrTime(asOf.Add(-1 * time.Hour)),
		},
		{
			MemberID: 2, CourseID: 1, Status: models.EnrollmentCompleted, Score: 90,
			StartedAt:   ptrTime(asOf.Add(-3 * time.Hour)),
			CompletedAt: ptrTime(asOf.Add(-1 * time.Hour)),
		},
		{MemberID: 3, CourseID: 1, Status: models.EnrollmentNotStarted},
		{MemberID: 4, CourseID: 1, Status: models.EnrollmentNotStarted},
		{MemberID: 5, CourseID: 1, Status: models.EnrollmentNotStarted},
	}}

	eng := ptrUint(10)
	sales := ptrUint(20)
	roster := &fakeRoster{
		members: []models.Member{
			member(1, "alice", "engineer", eng, nil),
			member(2, "bob", "engineer", eng, nil),
			member(3, "carol", "rep", sales, nil),
			member(4, "dave", "rep", sales, nil),
			member(5, "erin", "rep", sales, nil),
		},
		departments: []models.Department{
			{Model: gorm.Model{ID: 10}, OrgID: 1, Name: "Engineering"},
			{Model: gorm.Model{ID: 20}, OrgID: 1, Name: "Sales"},
			{Model: gorm.Model{ID: 30}, OrgID: 1, Name: "HR"},
		},
	}
	return store, roster
}

func TestSnapshotMetrics(t *testing.T) {
	asOf := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	store, roster := analyticsFixture(asOf)
	svc := services.NewAnalyticsService(nil, store, roster)

	snapshot, err := svc.SnapshotAt(context.Background(), 1, 1, asOf)
	require.NoError(t, err)

	assert.Equal(t, 5, snapshot.TotalLearners)
	assert.Equal(t, 2, snapshot.ActiveLearners)
	assert.InDelta(t, 40.0, snapshot.CompletionRate, 0.001)
	assert.InDelta(t, 60.0, snapshot.DropoutRate, 0.001)
	assert.InDelta(t, 85.0, snapshot.AverageScore, 0.001)
	assert.InDelta(t, 90.0, snapshot.AverageTimeToComplete, 0.001)
}

func TestSnapshotEmptyCourse(t *testing.T) {
	svc := services.NewAnalyticsService(nil, &fakeEnrollments{}, &fakeRoster{})

	snapshot, err := svc.SnapshotAt(context.Background(), 1, 1, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, snapshot.TotalLearners)
	assert.Zero(t, snapshot.CompletionRate)
	assert.Zero(t, snapshot.DropoutRate)
	assert.Len(t, snapshot.Trend, 7)
}

func TestSnapshotExcludesUnscoredCompletions(t *testing.T) {
	asOf := time.Now()
	store := &fakeEnrollments{list: []models.Enrollment{
		{MemberID: 1, CourseID: 1, Status: models.EnrollmentCompleted, Score: 70},
		{MemberID: 2, CourseID: 1, Status: models.EnrollmentCompleted}, // ungraded
	}}
	svc := services.NewAnalyticsService(nil, store, &fakeRoster{})

	snapshot, err := svc.SnapshotAt(context.Background(), 1, 1, asOf)
	require.NoError(t, err)
	assert.InDelta(t, 70.0, snapshot.AverageScore, 0.001)
}

func TestSnapshotIsDeterministic(t *testing.T) {
	asOf := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	store, roster := analyticsFixture(asOf)
	svc := services.NewAnalyticsService(nil, store, roster)

	first, err := svc.SnapshotAt(context.Background(), 1, 1, asOf)
	require.NoError(t, err)
	second, err := svc.SnapshotAt(context.Background(), 1, 1, asOf)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSnapshotCompletionTrend(t *testing.T) {
	asOf := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	store := &fakeEnrollments{list: []models.Enrollment{
		{MemberID: 1, Status: models.EnrollmentCompleted, CompletedAt: ptrTime(asOf.Add(-1 * time.Hour))},
		{MemberID: 2, Status: models.EnrollmentCompleted, CompletedAt: ptrTime(asOf.Add(-1 * time.Hour))},
		{MemberID: 3, Status: models.EnrollmentCompleted, CompletedAt: ptrTime(asOf.AddDate(0, 0, -2))},
		{MemberID: 4, Status: models.EnrollmentCompleted, CompletedAt: ptrTime(asOf.AddDate(0, 0, -30))}, // outside the window
	}}
	svc := services.NewAnalyticsService(nil, store, &fakeRoster{})

	snapshot, err := svc.SnapshotAt(context.Background(), 1, 1, asOf)
	require.NoError(t, err)
	require.Len(t, snapshot.Trend, 7)

	assert.Equal(t, "2026-03-08", snapshot.Trend[0].Date)
	assert.Equal(t, "2026-03-14", snapshot.Trend[6].Date)
	assert.Equal(t, 2, snapshot.Trend[6].Completed)
	assert.Equal(t, 1, snapshot.Trend[4].Completed)
	assert.Equal(t, 0, snapshot.Trend[0].Completed)
}

func TestSnapshotDepartmentBreakdown(t *testing.T) {
	asOf := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	store, roster := analyticsFixture(asOf)
	svc := services.NewAnalyticsService(nil, store, roster)

	snapshot, err := svc.SnapshotAt(context.Background(), 1, 1, asOf)
	require.NoError(t, err)

	// HR has no enrollments and is omitted
	require.Len(t, snapshot.Departments, 2)
	assert.Equal(t, "Engineering", snapshot.Departments[0].Name)
	assert.Equal(t, 2, snapshot.Departments[0].Enrolled)
	assert.InDelta(t, 100.0, snapshot.Departments[0].CompletionRate, 0.001)
	assert.Equal(t, "Sales", snapshot.Departments[1].Name)
	assert.Equal(t, 3, snapshot.Departments[1].Enrolled)
	assert.Zero(t, snapshot.Departments[1].CompletionRate)
}

func TestRefreshCachePersistsSnapshot(t *testing.T) {
	ctx := context.Background()
	db := database.ConnectTestDb(t)

	course := seedCourse(t, db, 1, "Security Awareness 101")
	project := models.Project{OrgID: 1, Name: "Security training", CourseID: &course.ID}
	mustCreate(t, db, &project)

	m := seedMember(t, db, 1, "alice", "engineer", nil, nil)
	mustCreate(t, db, &models.Enrollment{MemberID: m.ID, CourseID: course.ID, Status: models.EnrollmentNotStarted})

	svc := services.NewAnalyticsService(db, services.NewGormEnrollmentStore(db), services.NewRosterService(db))
	require.NoError(t, svc.RefreshCache(ctx, project.ID))

	var record pipeline.AnalyticsRecord
	require.NoError(t, db.Where("project_id = ?", project.ID).First(&record).Error)
	require.NotNil(t, record.RefreshedAt)

	var cached services.AnalyticsSnapshot
	require.NoError(t, json.Unmarshal(record.Snapshot, &cached))
	assert.Equal(t, 1, cached.TotalLearners)

	// A second refresh overwrites in place
	require.NoError(t, svc.RefreshCache(ctx, project.ID))
	var count int64
	require.NoError(t, db.Model(&pipeline.AnalyticsRecord{}).Where("project_id = ?", project.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRefreshCacheRequiresLinkedCourse(t *testing.T) {
	db := database.ConnectTestDb(t)

	project := models.Project{OrgID: 1, Name: "Unlinked"}
	mustCreate(t, db, &project)

	svc := services.NewAnalyticsService(db, services.NewGormEnrollmentStore(db), services.NewRosterService(db))
	err := svc.RefreshCache(context.Background(), project.ID)
	var pErr *services.PreconditionNotMetError
	require.ErrorAs(t, err, &pErr)
}

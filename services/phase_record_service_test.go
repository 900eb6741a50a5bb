package services_test

import (
	"context"
	"testing"

	"coursepilot/database"
	"coursepilot/models"
	"coursepilot/models/pipeline"
	"coursepilot/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newRecordService(t *testing.T) (*gorm.DB, *services.PipelineService, *services.PhaseRecordService, *services.ChangeHub) {
	t.Helper()
	db := database.ConnectTestDb(t)
	pipelineSvc := services.NewPipelineService(db, nil)
	hub := services.NewChangeHub()
	return db, pipelineSvc, services.NewPhaseRecordService(db, pipelineSvc, nil, hub), hub
}

func TestCreateOrUpdateRejectsUnreachablePhase(t *testing.T) {
	ctx := context.Background()
	_, pipelineSvc, svc, _ := newRecordService(t)

	project, err := pipelineSvc.CreateProject(ctx, 1, "Security training", "", testActor)
	require.NoError(t, err)

	_, err = svc.CreateOrUpdate(ctx, project.ID, models.PhaseDesign, datatypes.JSON(`{}`), testActor)
	var pErr *services.PreconditionNotMetError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, models.PhaseDesign, pErr.Phase)
}

func TestCreateOrUpdateCreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	_, pipelineSvc, svc, hub := newRecordService(t)

	project, err := pipelineSvc.CreateProject(ctx, 1, "Security training", "", testActor)
	require.NoError(t, err)

	events, cancel := hub.Subscribe(project.ID)
	defer cancel()

	created, err := svc.CreateOrUpdate(ctx, project.ID, models.PhaseIngest, datatypes.JSON(`{"sources":1}`), testActor)
	require.NoError(t, err)
	record, ok := created.(*pipeline.ContentRecord)
	require.True(t, ok)
	assert.Equal(t, project.ID, record.ProjectID)

	event := <-events
	assert.Equal(t, models.ActionRecordCreated, event.Action)
	assert.Equal(t, models.PhaseIngest, event.Phase)

	_, err = svc.CreateOrUpdate(ctx, project.ID, models.PhaseIngest, datatypes.JSON(`{"sources":2}`), testActor)
	require.NoError(t, err)
	event = <-events
	assert.Equal(t, models.ActionRecordUpdated, event.Action)

	fetched, err := svc.Get(ctx, project.ID, models.PhaseIngest)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sources":2}`, string(fetched.(*pipeline.ContentRecord).Payload))
}

func TestGetMissingRecord(t *testing.T) {
	ctx := context.Background()
	_, pipelineSvc, svc, _ := newRecordService(t)

	project, err := pipelineSvc.CreateProject(ctx, 1, "Security training", "", testActor)
	require.NoError(t, err)

	_, err = svc.Get(ctx, project.ID, models.PhaseIngest)
	var nfErr *services.NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestRecordlessPhasesRejectWrites(t *testing.T) {
	ctx := context.Background()
	_, pipelineSvc, svc, _ := newRecordService(t)

	project, err := pipelineSvc.CreateProject(ctx, 1, "Security training", "", testActor)
	require.NoError(t, err)

	_, err = svc.CreateOrUpdate(ctx, project.ID, models.PhasePersonalize, datatypes.JSON(`{}`), testActor)
	var vErr *services.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestAddContentItemAndList(t *testing.T) {
	ctx := context.Background()
	_, pipelineSvc, svc, _ := newRecordService(t)

	project, err := pipelineSvc.CreateProject(ctx, 1, "Security training", "", testActor)
	require.NoError(t, err)

	item, err := svc.AddContentItem(ctx, project.ID, pipeline.ContentItem{
		Title: "Phishing slides", SourceType: "SLIDES", SourceURL: "https://drive.corp.test/deck",
	}, testActor)
	require.NoError(t, err)
	assert.Equal(t, project.ID, item.ProjectID)

	_, err = svc.AddContentItem(ctx, project.ID, pipeline.ContentItem{Title: "Policy PDF"}, testActor)
	require.NoError(t, err)

	items, err := svc.ListContentItems(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Phishing slides", items[0].Title)

	// First item created the content record lazily
	_, err = svc.Get(ctx, project.ID, models.PhaseIngest)
	require.NoError(t, err)
}

func TestAddContentItemRequiresTitle(t *testing.T) {
	ctx := context.Background()
	_, pipelineSvc, svc, _ := newRecordService(t)

	project, err := pipelineSvc.CreateProject(ctx, 1, "Security training", "", testActor)
	require.NoError(t, err)

	_, err = svc.AddContentItem(ctx, project.ID, pipeline.ContentItem{}, testActor)
	var vErr *services.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "title", vErr.Field)
}

func TestSetRetention(t *testing.T) {
	ctx := context.Background()
	db, pipelineSvc, svc, _ := newRecordService(t)

	project, err := pipelineSvc.CreateProject(ctx, 1, "Security training", "", testActor)
	require.NoError(t, err)

	// Govern is not reachable until everything before it completed
	err = svc.SetRetention(ctx, project.ID, 90, testActor)
	var pErr *services.PreconditionNotMetError
	require.ErrorAs(t, err, &pErr)

	project = advanceTo(t, db, pipelineSvc, project, models.PhaseGovern)
	require.NoError(t, svc.SetRetention(ctx, project.ID, 90, testActor))

	var record pipeline.GovernanceRecord
	require.NoError(t, db.Where("project_id = ?", project.ID).First(&record).Error)
	assert.Equal(t, 90, record.AuditRetentionDays)

	require.NoError(t, svc.SetRetention(ctx, project.ID, 30, testActor))
	require.NoError(t, db.Where("project_id = ?", project.ID).First(&record).Error)
	assert.Equal(t, 30, record.AuditRetentionDays)
}

func TestSetRetentionRejectsNegativeDays(t *testing.T) {
	ctx := context.Background()
	_, pipelineSvc, svc, _ := newRecordService(t)

	project, err := pipelineSvc.CreateProject(ctx, 1, "Security training", "", testActor)
	require.NoError(t, err)

	err = svc.SetRetention(ctx, project.ID, -1, testActor)
	var vErr *services.ValidationError
	require.ErrorAs(t, err, &vErr)
}

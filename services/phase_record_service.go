package services

import (
	"context"
	"time"

	"coursepilot/models"
	"coursepilot/models/pipeline"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PhaseRecordService manages the one-per-phase records of a project. Records
// are created lazily on first write, and only once their phase is reachable.
// Change notifications go through the hub off the write path.
type PhaseRecordService struct {
	DB       *gorm.DB
	Pipeline *PipelineService
	Audit    *AuditService
	Hub      *ChangeHub
}

// NewPhaseRecordService creates a new phase record service
func NewPhaseRecordService(db *gorm.DB, pipelineService *PipelineService, audit *AuditService, hub *ChangeHub) *PhaseRecordService {
	return &PhaseRecordService{DB: db, Pipeline: pipelineService, Audit: audit, Hub: hub}
}

// recordModel returns an empty record struct for a phase, or nil for phases
// without a backing record (personalize, portal).
func recordModel(phase string) interface{} {
	switch phase {
	case models.PhaseIngest:
		return &pipeline.ContentRecord{}
	case models.PhaseAnalyze:
		return &pipeline.AnalysisRecord{}
	case models.PhaseDesign:
		return &pipeline.DesignRecord{}
	case models.PhaseDevelop:
		return &pipeline.GenerationRecord{}
	case models.PhaseImplement:
		return &pipeline.ImplementationRecord{}
	case models.PhaseEvaluate:
		return &pipeline.AnalyticsRecord{}
	case models.PhaseGovern:
		return &pipeline.GovernanceRecord{}
	}
	return nil
}

// Get returns the project's record for a phase
func (s *PhaseRecordService) Get(ctx context.Context, projectID uint, phase string) (interface{}, error) {
	record := recordModel(phase)
	if record == nil {
		return nil, &ValidationError{Field: "phase", Message: "phase " + phase + " has no record"}
	}
	err := s.DB.WithContext(ctx).Where("project_id = ? AND is_deleted = ?", projectID, false).First(record).Error
	if err == gorm.ErrRecordNotFound {
		return nil, &NotFoundError{Entity: phase + " record", ID: projectID}
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// CreateOrUpdate writes a phase record's payload, creating the record on
// first write. Writes are rejected while the phase is unreachable.
func (s *PhaseRecordService) CreateOrUpdate(ctx context.Context, projectID uint, phase string, payload datatypes.JSON, actor Actor) (interface{}, error) {
	if recordModel(phase) == nil {
		return nil, &ValidationError{Field: "phase", Message: "phase " + phase + " has no record"}
	}

	reachable, err := s.Pipeline.PhaseReachable(ctx, projectID, phase)
	if err != nil {
		return nil, err
	}
	if !reachable {
		return nil, &PreconditionNotMetError{Phase: phase, Missing: "phase not yet reached"}
	}

	action := models.ActionRecordUpdated
	record := recordModel(phase)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("project_id = ? AND is_deleted = ?", projectID, false).First(record).Error
		if err == gorm.ErrRecordNotFound {
			action = models.ActionRecordCreated
			record = newRecord(phase, projectID, payload)
			return tx.Create(record).Error
		}
		if err != nil {
			return err
		}
		column := "payload"
		if phase == models.PhaseEvaluate {
			column = "snapshot"
		}
		return tx.Model(record).Update(column, payload).Error
	})
	if err != nil {
		return nil, err
	}

	if s.Audit != nil {
		s.Audit.Record(ctx, actor, action, "record:"+phase, projectID)
	}
	s.notify(projectID, phase, action)
	return record, nil
}

// AddContentItem registers one ingested source under the project's content
// record, creating the record lazily.
func (s *PhaseRecordService) AddContentItem(ctx context.Context, projectID uint, item pipeline.ContentItem, actor Actor) (*pipeline.ContentItem, error) {
	reachable, err := s.Pipeline.PhaseReachable(ctx, projectID, models.PhaseIngest)
	if err != nil {
		return nil, err
	}
	if !reachable {
		return nil, &PreconditionNotMetError{Phase: models.PhaseIngest, Missing: "phase not yet reached"}
	}
	if item.Title == "" {
		return nil, &ValidationError{Field: "title", Message: "content item title is required"}
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record pipeline.ContentRecord
		err := tx.Where("project_id = ? AND is_deleted = ?", projectID, false).First(&record).Error
		if err == gorm.ErrRecordNotFound {
			record = pipeline.ContentRecord{ProjectID: projectID}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		item.ProjectID = projectID
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}

	if s.Audit != nil {
		s.Audit.Record(ctx, actor, models.ActionRecordUpdated, "record:"+models.PhaseIngest, projectID)
	}
	s.notify(projectID, models.PhaseIngest, models.ActionRecordUpdated)
	return &item, nil
}

// ListContentItems returns the project's live ingested items
func (s *PhaseRecordService) ListContentItems(ctx context.Context, projectID uint) ([]pipeline.ContentItem, error) {
	var items []pipeline.ContentItem
	err := s.DB.WithContext(ctx).
		Where("project_id = ? AND is_deleted = ?", projectID, false).
		Order("id asc").
		Find(&items).Error
	return items, err
}

// SetRetention updates the project's governance retention window
func (s *PhaseRecordService) SetRetention(ctx context.Context, projectID uint, days int, actor Actor) error {
	if days < 0 {
		return &ValidationError{Field: "audit_retention_days", Message: "must not be negative"}
	}

	reachable, err := s.Pipeline.PhaseReachable(ctx, projectID, models.PhaseGovern)
	if err != nil {
		return err
	}
	if !reachable {
		return &PreconditionNotMetError{Phase: models.PhaseGovern, Missing: "phase not yet reached"}
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record pipeline.GovernanceRecord
		err := tx.Where("project_id = ? AND is_deleted = ?", projectID, false).First(&record).Error
		if err == gorm.ErrRecordNotFound {
			record = pipeline.GovernanceRecord{ProjectID: projectID, AuditRetentionDays: days}
			return tx.Create(&record).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&record).Update("audit_retention_days", days).Error
	})
	if err != nil {
		return err
	}

	if s.Audit != nil {
		s.Audit.Record(ctx, actor, models.ActionRecordUpdated, "record:"+models.PhaseGovern, projectID)
	}
	s.notify(projectID, models.PhaseGovern, models.ActionRecordUpdated)
	return nil
}

func (s *PhaseRecordService) notify(projectID uint, phase, action string) {
	if s.Hub == nil {
		return
	}
	s.Hub.Publish(PhaseEvent{ProjectID: projectID, Phase: phase, Action: action, At: time.Now()})
}

func newRecord(phase string, projectID uint, payload datatypes.JSON) interface{} {
	switch phase {
	case models.PhaseIngest:
		return &pipeline.ContentRecord{ProjectID: projectID, Payload: payload}
	case models.PhaseAnalyze:
		return &pipeline.AnalysisRecord{ProjectID: projectID, Payload: payload}
	case models.PhaseDesign:
		return &pipeline.DesignRecord{ProjectID: projectID, Payload: payload}
	case models.PhaseDevelop:
		return &pipeline.GenerationRecord{ProjectID: projectID, Payload: payload}
	case models.PhaseImplement:
		return &pipeline.ImplementationRecord{ProjectID: projectID, Payload: payload}
	case models.PhaseEvaluate:
		return &pipeline.AnalyticsRecord{ProjectID: projectID, Snapshot: payload}
	case models.PhaseGovern:
		return &pipeline.GovernanceRecord{ProjectID: projectID, Payload: payload}
	}
	return nil
}

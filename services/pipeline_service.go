package services

import (
	"context"
	"time"

	"coursepilot/models"
	"coursepilot/models/pipeline"

	"gorm.io/gorm"
)

// PipelineService owns project phase transitions. Per-phase statuses are the
// single source of truth; Project.CurrentPhase is recomputed from them on
// every completed transition and never written directly.
type PipelineService struct {
	DB    *gorm.DB
	Audit *AuditService
}

// NewPipelineService creates a new pipeline service
func NewPipelineService(db *gorm.DB, audit *AuditService) *PipelineService {
	return &PipelineService{DB: db, Audit: audit}
}

// CreateProject creates a project with all nine phases pending
func (s *PipelineService) CreateProject(ctx context.Context, orgID uint, name, description string, actor Actor) (*models.Project, error) {
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "project name is required"}
	}

	project := models.Project{
		OrgID:        orgID,
		Name:         name,
		Description:  description,
		Status:       models.ProjectDraft,
		CurrentPhase: models.PhaseIngest,
		CreatedBy:    actor.ID,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		states := make([]models.PhaseState, len(models.PhaseOrder))
		for i, phase := range models.PhaseOrder {
			states[i] = models.PhaseState{ProjectID: project.ID, Phase: phase, Status: models.PhasePending}
		}
		return tx.Create(&states).Error
	})
	if err != nil {
		return nil, err
	}

	if s.Audit != nil {
		s.Audit.Record(ctx, actor, models.ActionProjectCreated, "project", project.ID)
	}
	return &project, nil
}

// GetProject returns a project with its phase states in pipeline order
func (s *PipelineService) GetProject(ctx context.Context, projectID uint) (*models.Project, []models.PhaseState, error) {
	var project models.Project
	if err := s.DB.WithContext(ctx).Where("id = ? AND is_deleted = ?", projectID, false).First(&project).Error; err != nil {
		return nil, nil, &NotFoundError{Entity: "project", ID: projectID}
	}

	states, err := s.phaseStates(ctx, s.DB, projectID)
	if err != nil {
		return nil, nil, err
	}
	return &project, states, nil
}

// ListProjects returns all live projects for an organization
func (s *PipelineService) ListProjects(ctx context.Context, orgID uint) ([]models.Project, error) {
	var projects []models.Project
	err := s.DB.WithContext(ctx).
		Where("org_id = ? AND is_deleted = ?", orgID, false).
		Order("created_at desc").
		Find(&projects).Error
	return projects, err
}

// LinkCourse attaches a catalog course to the project
func (s *PipelineService) LinkCourse(ctx context.Context, projectID, courseID uint, actor Actor) error {
	var course models.Course
	if err := s.DB.WithContext(ctx).Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return &NotFoundError{Entity: "course", ID: courseID}
	}

	res := s.DB.WithContext(ctx).Model(&models.Project{}).
		Where("id = ? AND is_deleted = ?", projectID, false).
		Update("course_id", courseID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "project", ID: projectID}
	}
	return nil
}

// ArchiveProject soft-deletes a project from active use
func (s *PipelineService) ArchiveProject(ctx context.Context, projectID uint, actor Actor) error {
	res := s.DB.WithContext(ctx).Model(&models.Project{}).
		Where("id = ? AND is_deleted = ?", projectID, false).
		Update("status", models.ProjectArchived)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "project", ID: projectID}
	}
	if s.Audit != nil {
		s.Audit.Record(ctx, actor, models.ActionProjectArchived, "project", projectID)
	}
	return nil
}

// StartPhase moves a phase to in_progress. The immediate predecessor must be
// completed; ingest is always enterable. Calling it again while the phase is
// in progress is a no-op, as is calling it on an already completed phase
// (completed phases stay editable without reverting the pipeline).
func (s *PipelineService) StartPhase(ctx context.Context, projectID uint, phase string, actor Actor) (*models.PhaseState, error) {
	idx := models.PhaseIndex(phase)
	if idx < 0 {
		return nil, &ValidationError{Field: "phase", Message: "unknown phase " + phase}
	}

	var started *models.PhaseState
	transitioned := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		states, err := s.phaseStates(ctx, tx, projectID)
		if err != nil {
			return err
		}
		if len(states) == 0 {
			return &NotFoundError{Entity: "project", ID: projectID}
		}

		state := stateFor(states, phase)
		if state == nil {
			return &NotFoundError{Entity: "phase state", ID: projectID}
		}
		if state.Status != models.PhasePending {
			started = state
			return nil
		}

		if idx > 0 {
			prev := stateFor(states, models.PhaseOrder[idx-1])
			if prev == nil || prev.Status != models.PhaseCompleted {
				return &PreconditionNotMetError{Phase: phase, Missing: "completed " + models.PhaseOrder[idx-1] + " phase"}
			}
		}

		nowTime := time.Now()
		res := tx.Model(&models.PhaseState{}).
			Where("id = ? AND status = ?", state.ID, models.PhasePending).
			Updates(map[string]interface{}{"status": models.PhaseInProgress, "started_at": nowTime})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &ConflictError{Resource: "phase state"}
		}

		state.Status = models.PhaseInProgress
		state.StartedAt = &nowTime
		started = state
		transitioned = true

		// First phase start activates a draft project
		return tx.Model(&models.Project{}).
			Where("id = ? AND status = ?", projectID, models.ProjectDraft).
			Update("status", models.ProjectActive).Error
	})
	if err != nil {
		return nil, err
	}

	if s.Audit != nil && transitioned {
		s.Audit.Record(ctx, actor, models.ActionPhaseStarted, "phase:"+phase, projectID)
	}
	return started, nil
}

// CompletePhase marks a phase completed and advances CurrentPhase. The phase
// must be in progress and its artifact preconditions must hold. A losing
// concurrent completion returns ConflictError.
func (s *PipelineService) CompletePhase(ctx context.Context, projectID uint, phase string, actor Actor) (*models.Project, error) {
	if models.PhaseIndex(phase) < 0 {
		return nil, &ValidationError{Field: "phase", Message: "unknown phase " + phase}
	}

	var project models.Project
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND is_deleted = ?", projectID, false).First(&project).Error; err != nil {
			return &NotFoundError{Entity: "project", ID: projectID}
		}

		states, err := s.phaseStates(ctx, tx, projectID)
		if err != nil {
			return err
		}
		state := stateFor(states, phase)
		if state == nil {
			return &NotFoundError{Entity: "phase state", ID: projectID}
		}
		if state.Status != models.PhaseInProgress {
			return &PreconditionNotMetError{Phase: phase, Missing: "phase in progress (call start first)"}
		}

		if err := s.completionPrecondition(ctx, tx, &project, phase); err != nil {
			return err
		}

		nowTime := time.Now()
		res := tx.Model(&models.PhaseState{}).
			Where("id = ? AND status = ?", state.ID, models.PhaseInProgress).
			Updates(map[string]interface{}{"status": models.PhaseCompleted, "completed_at": nowTime})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &ConflictError{Resource: "phase state"}
		}
		state.Status = models.PhaseCompleted
		state.CompletedAt = &nowTime

		next := currentPhaseOf(states)
		updates := map[string]interface{}{
			"current_phase": next,
			"version":       project.Version + 1,
		}
		if allCompleted(states) {
			updates["status"] = models.ProjectCompleted
		}
		res = tx.Model(&models.Project{}).
			Where("id = ? AND version = ?", projectID, project.Version).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &ConflictError{Resource: "project"}
		}
		project.CurrentPhase = next
		project.Version++
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Audit != nil {
		s.Audit.Record(ctx, actor, models.ActionPhaseCompleted, "phase:"+phase, projectID)
	}
	return &project, nil
}

// ReopenPhase reverts a completed phase to in_progress. This is an explicit,
// audited admin operation; it refuses when any later phase has been started,
// so the pipeline never moves backward under live work.
func (s *PipelineService) ReopenPhase(ctx context.Context, projectID uint, phase string, actor Actor) (*models.Project, error) {
	idx := models.PhaseIndex(phase)
	if idx < 0 {
		return nil, &ValidationError{Field: "phase", Message: "unknown phase " + phase}
	}

	var project models.Project
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND is_deleted = ?", projectID, false).First(&project).Error; err != nil {
			return &NotFoundError{Entity: "project", ID: projectID}
		}

		states, err := s.phaseStates(ctx, tx, projectID)
		if err != nil {
			return err
		}
		state := stateFor(states, phase)
		if state == nil || state.Status != models.PhaseCompleted {
			return &PreconditionNotMetError{Phase: phase, Missing: "completed phase to reopen"}
		}
		for _, st := range states {
			if models.PhaseIndex(st.Phase) > idx && st.Status != models.PhasePending {
				return &PreconditionNotMetError{Phase: phase, Missing: "no started later phases (found " + st.Phase + ")"}
			}
		}

		res := tx.Model(&models.PhaseState{}).
			Where("id = ? AND status = ?", state.ID, models.PhaseCompleted).
			Updates(map[string]interface{}{"status": models.PhaseInProgress, "completed_at": nil})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &ConflictError{Resource: "phase state"}
		}
		state.Status = models.PhaseInProgress
		state.CompletedAt = nil

		res = tx.Model(&models.Project{}).
			Where("id = ? AND version = ?", projectID, project.Version).
			Updates(map[string]interface{}{
				"current_phase": currentPhaseOf(states),
				"status":        models.ProjectActive,
				"version":       project.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &ConflictError{Resource: "project"}
		}
		project.CurrentPhase = currentPhaseOf(states)
		project.Version++
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Audit != nil {
		s.Audit.Record(ctx, actor, models.ActionPhaseReopened, "phase:"+phase, projectID)
	}
	return &project, nil
}

// PhaseReachable reports whether phase-record writes for the given phase are
// allowed: the phase is at or before the project's current position, or was
// already completed.
func (s *PipelineService) PhaseReachable(ctx context.Context, projectID uint, phase string) (bool, error) {
	idx := models.PhaseIndex(phase)
	if idx < 0 {
		return false, &ValidationError{Field: "phase", Message: "unknown phase " + phase}
	}

	states, err := s.phaseStates(ctx, s.DB, projectID)
	if err != nil {
		return false, err
	}
	if len(states) == 0 {
		return false, &NotFoundError{Entity: "project", ID: projectID}
	}

	state := stateFor(states, phase)
	if state != nil && state.Status != models.PhasePending {
		return true, nil
	}
	return models.PhaseIndex(currentPhaseOf(states)) >= idx, nil
}

func (s *PipelineService) phaseStates(ctx context.Context, tx *gorm.DB, projectID uint) ([]models.PhaseState, error) {
	var states []models.PhaseState
	if err := tx.WithContext(ctx).Where("project_id = ?", projectID).Find(&states).Error; err != nil {
		return nil, err
	}
	// Return in pipeline order regardless of insert order
	ordered := make([]models.PhaseState, 0, len(states))
	for _, phase := range models.PhaseOrder {
		if st := stateFor(states, phase); st != nil {
			ordered = append(ordered, *st)
		}
	}
	return ordered, nil
}

// completionPrecondition checks the per-phase artifact requirements
func (s *PipelineService) completionPrecondition(ctx context.Context, tx *gorm.DB, project *models.Project, phase string) error {
	countItems := func() (int64, error) {
		var n int64
		err := tx.WithContext(ctx).Model(&pipeline.ContentItem{}).
			Where("project_id = ? AND is_deleted = ?", project.ID, false).Count(&n).Error
		return n, err
	}
	recordExists := func(model interface{}) (bool, error) {
		var n int64
		err := tx.WithContext(ctx).Model(model).
			Where("project_id = ? AND is_deleted = ?", project.ID, false).Count(&n).Error
		return n > 0, err
	}

	switch phase {
	case models.PhaseIngest:
		n, err := countItems()
		if err != nil {
			return err
		}
		if n == 0 {
			return &PreconditionNotMetError{Phase: phase, Missing: "at least one ingested content item"}
		}
	case models.PhaseAnalyze:
		n, err := countItems()
		if err != nil {
			return err
		}
		if n == 0 {
			return &PreconditionNotMetError{Phase: phase, Missing: "at least one ingested content item"}
		}
		ok, err := recordExists(&pipeline.AnalysisRecord{})
		if err != nil {
			return err
		}
		if !ok {
			return &PreconditionNotMetError{Phase: phase, Missing: "analysis record"}
		}
	case models.PhaseDesign:
		ok, err := recordExists(&pipeline.AnalysisRecord{})
		if err != nil {
			return err
		}
		if !ok {
			return &PreconditionNotMetError{Phase: phase, Missing: "analysis record"}
		}
	case models.PhaseDevelop:
		ok, err := recordExists(&pipeline.DesignRecord{})
		if err != nil {
			return err
		}
		if !ok {
			return &PreconditionNotMetError{Phase: phase, Missing: "design record"}
		}
	case models.PhaseImplement:
		ok, err := recordExists(&pipeline.ImplementationRecord{})
		if err != nil {
			return err
		}
		if !ok {
			return &PreconditionNotMetError{Phase: phase, Missing: "implementation record"}
		}
	case models.PhaseEvaluate, models.PhasePersonalize, models.PhasePortal:
		if project.CourseID == nil {
			return &PreconditionNotMetError{Phase: phase, Missing: "linked course"}
		}
	case models.PhaseGovern:
		// No artifact requirement
	}
	return nil
}

func stateFor(states []models.PhaseState, phase string) *models.PhaseState {
	for i := range states {
		if states[i].Phase == phase {
			return &states[i]
		}
	}
	return nil
}

// currentPhaseOf derives the active phase: the first phase not yet
// completed, or the last phase when everything is done.
func currentPhaseOf(states []models.PhaseState) string {
	for _, phase := range models.PhaseOrder {
		st := stateFor(states, phase)
		if st == nil || st.Status != models.PhaseCompleted {
			return phase
		}
	}
	return models.PhaseOrder[len(models.PhaseOrder)-1]
}

func allCompleted(states []models.PhaseState) bool {
	for _, phase := range models.PhaseOrder {
		st := stateFor(states, phase)
		if st == nil || st.Status != models.PhaseCompleted {
			return false
		}
	}
	return true
}

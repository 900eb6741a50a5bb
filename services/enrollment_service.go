package services

import (
	"context"
	"log"
	"time"

	"coursepilot/models"
	"coursepilot/models/pipeline"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LaunchNotifier is told about newly created enrollments after a launch.
// Notification happens off the write path; a slow or absent notifier never
// delays or fails the launch.
type LaunchNotifier interface {
	NotifyEnrollments(members []models.Member, course models.Course, dueDate *time.Time)
}

// EnrollmentService resolves targeting rules against the roster and commits
// launches. Rule resolution is first-match-wins in stored rule order: a
// member matched by two rules is attributed to the earlier one.
type EnrollmentService struct {
	DB       *gorm.DB
	Roster   RosterProvider
	Store    EnrollmentStore
	Audit    *AuditService
	Notifier LaunchNotifier
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(db *gorm.DB, roster RosterProvider, store EnrollmentStore, audit *AuditService) *EnrollmentService {
	return &EnrollmentService{DB: db, Roster: roster, Store: store, Audit: audit}
}

// RulePreview is one rule's share of a preview
type RulePreview struct {
	RuleID          uint     `json:"rule_id"`
	Type            string   `json:"type"`
	TargetName      string   `json:"target_name"`
	Priority        string   `json:"priority"`
	MatchedCount    int      `json:"matched_count"`    // raw matches before dedup
	UniqueCount     int      `json:"unique_count"`     // contribution after cross-rule dedup
	DuplicateCount  int      `json:"duplicate_count"`  // claimed by an earlier rule
	AlreadyEnrolled int      `json:"already_enrolled"` // of the unique contribution, already in the course
	SampleNames     []string `json:"sample_names"`     // up to 5 display names
}

// EnrollmentPreview is the aggregate dry-run of a launch. Not persisted.
type EnrollmentPreview struct {
	Rules        []RulePreview `json:"rules"`
	TotalUnique  int           `json:"total_unique"`
	TotalMatched int           `json:"total_matched"`
}

// RuleFailure reports one rule batch that did not commit
type RuleFailure struct {
	RuleID uint   `json:"rule_id"`
	Error  string `json:"error"`
}

// LaunchResult is the structured outcome of a launch. Failures being
// non-empty means partial success: batches for the listed rules did not
// commit, everything else did.
type LaunchResult struct {
	BatchRef       string        `json:"batch_ref"`
	Created        int           `json:"created"`
	RulesAttempted int           `json:"rules_attempted"`
	RulesApplied   int           `json:"rules_applied"`
	Failures       []RuleFailure `json:"failures,omitempty"`
}

// PreviewRow is one line of the flat, deduplicated export view
type PreviewRow struct {
	MemberID   uint   `json:"member_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department"`
	Team       string `json:"team"`
	MatchedVia string `json:"matched_via"`
}

// ResolveTargets filters the roster to active members matching the rule
func ResolveTargets(rule pipeline.EnrollmentRule, roster []models.Member) []models.Member {
	var matched []models.Member
	for _, m := range roster {
		if m.Status != models.MemberStatusActive || m.IsDeleted {
			continue
		}
		switch rule.Type {
		case pipeline.RuleTypeAll:
			matched = append(matched, m)
		case pipeline.RuleTypeDepartment:
			if m.DepartmentID != nil && *m.DepartmentID == rule.TargetID {
				matched = append(matched, m)
			}
		case pipeline.RuleTypeTeam:
			if m.TeamID != nil && *m.TeamID == rule.TargetID {
				matched = append(matched, m)
			}
		case pipeline.RuleTypeRole:
			if m.Role == rule.TargetName {
				matched = append(matched, m)
			}
		case pipeline.RuleTypeIndividual:
			if m.ID == rule.TargetID || (m.UserID != nil && *m.UserID == rule.TargetID) {
				matched = append(matched, m)
			}
		}
	}
	return matched
}

// BuildPreview processes rules in stored order with first-match-wins
// claiming: members claimed by an earlier rule count as duplicates for later
// rules. enrolled marks members who already hold an enrollment in the target
// course; it only feeds the informational AlreadyEnrolled count and does not
// reduce the headline numbers.
func BuildPreview(rules []pipeline.EnrollmentRule, roster []models.Member, enrolled map[uint]bool) EnrollmentPreview {
	preview := EnrollmentPreview{Rules: make([]RulePreview, 0, len(rules))}
	claimed := make(map[uint]bool)

	for _, rule := range rules {
		targets := ResolveTargets(rule, roster)
		rp := RulePreview{
			RuleID:     rule.ID,
			Type:       rule.Type,
			TargetName: rule.TargetName,
			Priority:   rule.Priority,
		}
		rp.MatchedCount = len(targets)
		preview.TotalMatched += len(targets)

		for _, m := range targets {
			if claimed[m.ID] {
				rp.DuplicateCount++
				continue
			}
			claimed[m.ID] = true
			rp.UniqueCount++
			if enrolled[m.ID] {
				rp.AlreadyEnrolled++
			}
			if len(rp.SampleNames) < 5 {
				rp.SampleNames = append(rp.SampleNames, m.Name)
			}
		}
		preview.Rules = append(preview.Rules, rp)
	}

	preview.TotalUnique = len(claimed)
	return preview
}

// AddRule appends a rule to the implementation's ordered sequence
func (s *EnrollmentService) AddRule(ctx context.Context, implementationID uint, rule pipeline.EnrollmentRule, actor Actor) (*pipeline.EnrollmentRule, error) {
	switch rule.Type {
	case pipeline.RuleTypeAll:
		// No target needed
	case pipeline.RuleTypeDepartment, pipeline.RuleTypeTeam, pipeline.RuleTypeIndividual:
		if rule.TargetID == 0 {
			return nil, &ValidationError{Field: "target_id", Message: "required for " + rule.Type + " rules"}
		}
	case pipeline.RuleTypeRole:
		if rule.TargetName == "" {
			return nil, &ValidationError{Field: "target_name", Message: "required for ROLE rules"}
		}
	default:
		return nil, &ValidationError{Field: "type", Message: "unknown rule type " + rule.Type}
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var impl pipeline.ImplementationRecord
		if err := tx.Where("id = ? AND is_deleted = ?", implementationID, false).First(&impl).Error; err != nil {
			return &NotFoundError{Entity: "implementation", ID: implementationID}
		}

		// Append at the end; removals never compact positions, so max+1
		// keeps the sequence stable.
		var maxPos int
		row := tx.Model(&pipeline.EnrollmentRule{}).
			Where("implementation_id = ?", implementationID).
			Select("COALESCE(MAX(position), 0)").Row()
		if err := row.Scan(&maxPos); err != nil {
			return err
		}

		rule.ImplementationID = implementationID
		rule.Position = maxPos + 1
		return tx.Create(&rule).Error
	})
	if err != nil {
		return nil, err
	}

	if s.Audit != nil {
		s.Audit.Record(ctx, actor, models.ActionRuleAdded, "enrollment_rule", rule.ID)
	}
	return &rule, nil
}

// RemoveRule soft-deletes a rule; remaining rules keep their positions
func (s *EnrollmentService) RemoveRule(ctx context.Context, ruleID uint, actor Actor) error {
	res := s.DB.WithContext(ctx).Model(&pipeline.EnrollmentRule{}).
		Where("id = ? AND is_deleted = ?", ruleID, false).
		Update("is_deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "enrollment rule", ID: ruleID}
	}
	if s.Audit != nil {
		s.Audit.Record(ctx, actor, models.ActionRuleRemoved, "enrollment_rule", ruleID)
	}
	return nil
}

// ListRules returns the implementation's live rules in stored order
func (s *EnrollmentService) ListRules(ctx context.Context, implementationID uint) ([]pipeline.EnrollmentRule, error) {
	var rules []pipeline.EnrollmentRule
	err := s.DB.WithContext(ctx).
		Where("implementation_id = ? AND is_deleted = ?", implementationID, false).
		Order("position asc").
		Find(&rules).Error
	return rules, err
}

// Preview computes the dry-run resolution for an implementation
func (s *EnrollmentService) Preview(ctx context.Context, implementationID uint) (*EnrollmentPreview, error) {
	rules, roster, _, enrolled, err := s.loadResolutionInputs(ctx, implementationID)
	if err != nil {
		return nil, err
	}
	preview := BuildPreview(rules, roster, enrolled)
	return &preview, nil
}

// PreviewRows flattens the preview into deduplicated export rows, ordered by
// claiming rule and then member id.
func (s *EnrollmentService) PreviewRows(ctx context.Context, implementationID uint) ([]PreviewRow, error) {
	rules, roster, project, _, err := s.loadResolutionInputs(ctx, implementationID)
	if err != nil {
		return nil, err
	}

	departments, err := s.Roster.ListDepartments(ctx, project.OrgID)
	if err != nil {
		return nil, err
	}
	teams, err := s.Roster.ListTeams(ctx, project.OrgID)
	if err != nil {
		return nil, err
	}
	deptNames := make(map[uint]string, len(departments))
	for _, d := range departments {
		deptNames[d.ID] = d.Name
	}
	teamNames := make(map[uint]string, len(teams))
	for _, t := range teams {
		teamNames[t.ID] = t.Name
	}

	rows := make([]PreviewRow, 0)
	claimed := make(map[uint]bool)
	for _, rule := range rules {
		for _, m := range ResolveTargets(rule, roster) {
			if claimed[m.ID] {
				continue
			}
			claimed[m.ID] = true
			row := PreviewRow{
				MemberID:   m.ID,
				Name:       m.Name,
				Email:      m.Email,
				Role:       m.Role,
				MatchedVia: ruleLabel(rule),
			}
			if m.DepartmentID != nil {
				row.Department = deptNames[*m.DepartmentID]
			}
			if m.TeamID != nil {
				row.Team = teamNames[*m.TeamID]
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// Launch commits the resolution: creates enrollments for every claimed,
// auto-enroll, not-yet-enrolled member, one atomic batch per rule. Batches
// already committed are not rolled back when a later batch fails; the result
// reports which rules applied. Stats increments cover committed batches only.
func (s *EnrollmentService) Launch(ctx context.Context, implementationID uint, actor Actor) (*LaunchResult, error) {
	var impl pipeline.ImplementationRecord
	if err := s.DB.WithContext(ctx).Where("id = ? AND is_deleted = ?", implementationID, false).First(&impl).Error; err != nil {
		return nil, &NotFoundError{Entity: "implementation", ID: implementationID}
	}
	var project models.Project
	if err := s.DB.WithContext(ctx).Where("id = ? AND is_deleted = ?", impl.ProjectID, false).First(&project).Error; err != nil {
		return nil, &NotFoundError{Entity: "project", ID: impl.ProjectID}
	}
	if project.CourseID == nil {
		return nil, &PreconditionNotMetError{Phase: models.PhaseImplement, Missing: "linked course"}
	}
	courseID := *project.CourseID

	rules, err := s.ListRules(ctx, implementationID)
	if err != nil {
		return nil, err
	}
	// Roster snapshot at call time; members added afterwards are not part
	// of this launch.
	roster, err := s.Roster.ListMembers(ctx, project.OrgID)
	if err != nil {
		return nil, err
	}
	existing, err := s.Store.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	enrolled := make(map[uint]bool, len(existing))
	for _, e := range existing {
		enrolled[e.MemberID] = true
	}

	result := &LaunchResult{BatchRef: uuid.NewString()}
	claimed := make(map[uint]bool)
	memberByID := make(map[uint]models.Member, len(roster))
	for _, m := range roster {
		memberByID[m.ID] = m
	}
	type launchNotification struct {
		members []models.Member
		dueDate *time.Time
	}
	var notifications []launchNotification

	for _, rule := range rules {
		targets := ResolveTargets(rule, roster)

		// Claim ordering mirrors the preview even for rules that do not
		// auto-enroll, so attribution stays consistent across both views.
		var eligible []uint
		for _, m := range targets {
			if claimed[m.ID] {
				continue
			}
			claimed[m.ID] = true
			if !enrolled[m.ID] {
				eligible = append(eligible, m.ID)
			}
		}

		if !rule.AutoEnroll {
			continue
		}
		result.RulesAttempted++

		if len(eligible) == 0 {
			result.RulesApplied++
			continue
		}

		created, err := s.Store.BulkCreate(ctx, eligible, courseID, EnrollmentOptions{
			DueDate:  rule.DueDate,
			Priority: rule.Priority,
			BatchRef: result.BatchRef,
		})
		if err != nil {
			result.Failures = append(result.Failures, RuleFailure{RuleID: rule.ID, Error: err.Error()})
			continue
		}
		result.RulesApplied++
		result.Created += len(created)
		var batchMembers []models.Member
		for _, id := range eligible {
			if m, ok := memberByID[id]; ok {
				batchMembers = append(batchMembers, m)
			}
		}
		if len(batchMembers) > 0 {
			notifications = append(notifications, launchNotification{members: batchMembers, dueDate: rule.DueDate})
		}
	}

	if result.Created > 0 {
		nowTime := time.Now()
		err := s.DB.WithContext(ctx).Model(&pipeline.ImplementationRecord{}).
			Where("id = ?", implementationID).
			Updates(map[string]interface{}{
				"enrolled_count":    gorm.Expr("enrolled_count + ?", result.Created),
				"not_started_count": gorm.Expr("not_started_count + ?", result.Created),
				"last_launched_at":  nowTime,
			}).Error
		if err != nil {
			// Enrollments committed but counters did not; surface as a rule
			// failure so the caller knows stats need reconciliation.
			log.Printf("launch %s: stats update failed: %v", result.BatchRef, err)
			result.Failures = append(result.Failures, RuleFailure{RuleID: 0, Error: "stats update failed: " + err.Error()})
		}
	}

	if s.Audit != nil {
		s.Audit.Record(ctx, actor, models.ActionLaunchExecuted, "implementation", implementationID)
	}

	// One notification per committed batch so each carries its rule's due date.
	if s.Notifier != nil && len(notifications) > 0 {
		var course models.Course
		if err := s.DB.WithContext(ctx).First(&course, courseID).Error; err == nil {
			for _, n := range notifications {
				go s.Notifier.NotifyEnrollments(n.members, course, n.dueDate)
			}
		}
	}

	return result, nil
}

// loadResolutionInputs fetches everything a preview needs: ordered rules,
// roster snapshot, owning project and the already-enrolled member set.
func (s *EnrollmentService) loadResolutionInputs(ctx context.Context, implementationID uint) ([]pipeline.EnrollmentRule, []models.Member, *models.Project, map[uint]bool, error) {
	var impl pipeline.ImplementationRecord
	if err := s.DB.WithContext(ctx).Where("id = ? AND is_deleted = ?", implementationID, false).First(&impl).Error; err != nil {
		return nil, nil, nil, nil, &NotFoundError{Entity: "implementation", ID: implementationID}
	}
	var project models.Project
	if err := s.DB.WithContext(ctx).Where("id = ? AND is_deleted = ?", impl.ProjectID, false).First(&project).Error; err != nil {
		return nil, nil, nil, nil, &NotFoundError{Entity: "project", ID: impl.ProjectID}
	}

	rules, err := s.ListRules(ctx, implementationID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	roster, err := s.Roster.ListMembers(ctx, project.OrgID)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	enrolled := make(map[uint]bool)
	if project.CourseID != nil {
		existing, err := s.Store.ListByCourse(ctx, *project.CourseID)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		for _, e := range existing {
			enrolled[e.MemberID] = true
		}
	}

	return rules, roster, &project, enrolled, nil
}

func ruleLabel(rule pipeline.EnrollmentRule) string {
	if rule.TargetName != "" {
		return rule.Type + ":" + rule.TargetName
	}
	return rule.Type
}

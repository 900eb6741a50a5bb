package models

import "gorm.io/gorm"

// Governance-relevant audit actions
const (
	ActionProjectCreated  = "PROJECT_CREATED"
	ActionProjectArchived = "PROJECT_ARCHIVED"
	ActionPhaseStarted    = "PHASE_STARTED"
	ActionPhaseCompleted  = "PHASE_COMPLETED"
	ActionPhaseReopened   = "PHASE_REOPENED"
	ActionRecordCreated   = "RECORD_CREATED"
	ActionRecordUpdated   = "RECORD_UPDATED"
	ActionRuleAdded       = "RULE_ADDED"
	ActionRuleRemoved     = "RULE_REMOVED"
	ActionLaunchExecuted  = "LAUNCH_EXECUTED"
	ActionRosterSynced    = "ROSTER_SYNCED"
)

// AuditLog is an append-only record of a state-changing action. Entries are
// never updated or deleted by application code; the retention sweeper is the
// only writer besides Record.
type AuditLog struct {
	gorm.Model
	OrgID      uint   `json:"org_id" gorm:"index;not null"`
	ActorID    uint   `json:"actor_id" gorm:"index"`
	ActorName  string `json:"actor_name"`
	Action     string `json:"action" gorm:"index;not null"`
	EntityType string `json:"entity_type"`
	EntityID   uint   `json:"entity_id"`
}

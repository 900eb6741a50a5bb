package pipeline

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AnalysisRecord is the analyze-phase record (audience and gap analysis)
type AnalysisRecord struct {
	gorm.Model
	ProjectID uint           `json:"project_id" gorm:"uniqueIndex;not null"`
	Payload   datatypes.JSON `json:"payload"`
	IsDeleted bool           `gorm:"default:false"`
}

// DesignRecord is the design-phase record (outline, objectives)
type DesignRecord struct {
	gorm.Model
	ProjectID uint           `json:"project_id" gorm:"uniqueIndex;not null"`
	Payload   datatypes.JSON `json:"payload"`
	IsDeleted bool           `gorm:"default:false"`
}

// GenerationRecord is the develop-phase record (generated lesson artifacts)
type GenerationRecord struct {
	gorm.Model
	ProjectID uint           `json:"project_id" gorm:"uniqueIndex;not null"`
	Payload   datatypes.JSON `json:"payload"`
	IsDeleted bool           `gorm:"default:false"`
}

// AnalyticsRecord caches the most recent analytics snapshot for a project's
// course. Always recomputable; overwriting it loses nothing.
type AnalyticsRecord struct {
	gorm.Model
	ProjectID   uint           `json:"project_id" gorm:"uniqueIndex;not null"`
	Snapshot    datatypes.JSON `json:"snapshot"`
	RefreshedAt *time.Time     `json:"refreshed_at"`
	IsDeleted   bool           `gorm:"default:false"`
}

// GovernanceRecord is the govern-phase record holding per-project retention
// settings. Retention enforcement happens in the sweeper, not here.
type GovernanceRecord struct {
	gorm.Model
	ProjectID          uint           `json:"project_id" gorm:"uniqueIndex;not null"`
	AuditRetentionDays int            `json:"audit_retention_days" gorm:"default:0"` // 0 falls back to the global default
	Payload            datatypes.JSON `json:"payload"`
	IsDeleted          bool           `gorm:"default:false"`
}

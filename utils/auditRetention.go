package utils

import (
	"fmt"
	"log"
	"time"

	"coursepilot/config"
	"coursepilot/database"
	"coursepilot/models"
	"coursepilot/models/pipeline"

	"github.com/robfig/cron/v3"
)

// SweepExpiredAuditEntries deletes audit entries older than the retention
// window. A project's governance record can override the global default for
// its organization; the shortest configured window wins. The audit service
// itself never deletes - retention lives here, outside the log.
func SweepExpiredAuditEntries() {
	db := database.Database.Db
	defaultDays := config.AppConfig.AuditRetentionDays

	// Per-org overrides from governance records
	type orgRetention struct {
		OrgID uint
		Days  int
	}
	var overrides []orgRetention
	err := db.Model(&pipeline.GovernanceRecord{}).
		Select("projects.org_id as org_id, MIN(governance_records.audit_retention_days) as days").
		Joins("JOIN projects ON projects.id = governance_records.project_id").
		Where("governance_records.audit_retention_days > 0 AND governance_records.is_deleted = ?", false).
		Group("projects.org_id").
		Scan(&overrides).Error
	if err != nil {
		logScheduler("AUDIT-RETENTION", "Error loading governance overrides: "+err.Error())
		return
	}

	overrideByOrg := make(map[uint]int, len(overrides))
	for _, o := range overrides {
		overrideByOrg[o.OrgID] = o.Days
	}

	var orgs []models.Organization
	if err := db.Where("is_deleted = ?", false).Find(&orgs).Error; err != nil {
		logScheduler("AUDIT-RETENTION", "Error fetching organizations: "+err.Error())
		return
	}

	removed := int64(0)
	for _, org := range orgs {
		days := defaultDays
		if d, ok := overrideByOrg[org.ID]; ok && d < days {
			days = d
		}
		if days <= 0 {
			continue
		}
		cutoff := time.Now().AddDate(0, 0, -days)
		res := db.Unscoped().
			Where("org_id = ? AND created_at < ?", org.ID, cutoff).
			Delete(&models.AuditLog{})
		if res.Error != nil {
			logScheduler("AUDIT-RETENTION", "Error sweeping org "+org.Name+": "+res.Error.Error())
			continue
		}
		removed += res.RowsAffected
	}

	logScheduler("AUDIT-RETENTION", fmt.Sprintf("Sweep completed, %d entries removed", removed))
}

// StartAuditRetentionScheduler runs the sweeper daily
func StartAuditRetentionScheduler() *cron.Cron {
	c := cron.New()

	if _, err := c.AddFunc("30 2 * * *", SweepExpiredAuditEntries); err != nil {
		log.Printf("Failed to schedule audit retention sweep: %v", err)
		return c
	}

	c.Start()
	logScheduler("AUDIT-RETENTION", "Scheduler started")
	return c
}

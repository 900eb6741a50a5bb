package utils

import (
	"context"
	"log"
	"time"

	"coursepilot/config"
	"coursepilot/database"
	"coursepilot/models"
	"coursepilot/services"

	"github.com/robfig/cron/v3"
)

// logScheduler logs scheduler events with timestamp
func logScheduler(tag, message string) {
	log.Printf("[%s %s] %s", tag, time.Now().Format(time.RFC3339), message)
}

// refreshAnalyticsCaches recomputes the cached snapshot for every active
// project with a linked course. Each refresh is independent; one failure
// does not stop the sweep.
func refreshAnalyticsCaches(analytics *services.AnalyticsService) {
	db := database.Database.Db

	var projects []models.Project
	if err := db.Where("course_id IS NOT NULL AND is_deleted = ?", false).Find(&projects).Error; err != nil {
		logScheduler("ANALYTICS", "Error fetching projects: "+err.Error())
		return
	}

	for _, project := range projects {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := analytics.RefreshCache(ctx, project.ID); err != nil {
			logScheduler("ANALYTICS", "Refresh failed for project "+project.Name+": "+err.Error())
		}
		cancel()
	}
	logScheduler("ANALYTICS", "Cache refresh sweep completed")
}

// StartAnalyticsScheduler runs the cache refresher on the configured cron
func StartAnalyticsScheduler(analytics *services.AnalyticsService) *cron.Cron {
	c := cron.New()

	spec := config.AppConfig.AnalyticsRefreshCron
	if _, err := c.AddFunc(spec, func() { refreshAnalyticsCaches(analytics) }); err != nil {
		log.Printf("Invalid ANALYTICS_REFRESH_CRON %q: %v", spec, err)
		return c
	}

	c.Start()
	logScheduler("ANALYTICS", "Scheduler started with spec "+spec)
	return c
}

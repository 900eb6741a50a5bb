package models

import "gorm.io/gorm"

// Named permissions checked by middleware.CheckPermissionMiddleware
const (
	PermissionEditProjects  = "EDIT_PROJECTS"
	PermissionLaunchCourses = "LAUNCH_COURSES"
	PermissionViewAudit     = "VIEW_AUDIT"
)

// Permission grants a user a named capability
type Permission struct {
	gorm.Model
	UserID     uint   `json:"user_id" gorm:"index;not null"`
	Permission string `json:"permission" gorm:"index;not null"`
	IsDeleted  bool   `gorm:"default:false"`
}

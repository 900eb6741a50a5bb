package models

import "gorm.io/gorm"

// Course is a catalog entry a project publishes to. Content internals live
// in the authoring services; this subsystem only needs the identity and
// status for enrollment targeting.
type Course struct {
	gorm.Model
	OrgID       uint   `json:"org_id" gorm:"index;not null"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status" gorm:"default:'DRAFT'"` // DRAFT, ACTIVE, INACTIVE
	IsDeleted   bool   `gorm:"default:false"`
}

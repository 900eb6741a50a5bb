package models

import "gorm.io/gorm"

// Organization owns projects, roster members and audit entries
type Organization struct {
	gorm.Model
	Name      string `json:"name"`
	Domain    string `json:"domain"`
	IsDeleted bool   `gorm:"default:false"`
}

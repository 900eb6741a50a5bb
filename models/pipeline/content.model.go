package pipeline

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContentRecord is the ingest-phase record. Uploaded material itself lives
// in external storage; only the opaque payload and the item index are kept.
type ContentRecord struct {
	gorm.Model
	ProjectID uint           `json:"project_id" gorm:"uniqueIndex;not null"`
	Payload   datatypes.JSON `json:"payload"`
	IsDeleted bool           `gorm:"default:false"`
}

// ContentItem is one ingested source (document, slide deck, recording)
type ContentItem struct {
	gorm.Model
	ProjectID  uint   `json:"project_id" gorm:"index;not null"`
	Title      string `json:"title"`
	SourceType string `json:"source_type" gorm:"default:'DOCUMENT'"` // DOCUMENT, SLIDES, VIDEO, URL
	SourceURL  string `json:"source_url"`
	IsDeleted  bool   `gorm:"default:false"`
}

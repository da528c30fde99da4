package types

import (
	"time"

	"github.com/google/uuid"
)

// Report is one extraction result for one uploaded nutrition report image.
// Rows are append-only: re-running the pipeline for the same user adds a new
// row rather than replacing one.
type Report struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User          *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	StorageKey    string    `gorm:"column:storage_key;not null" json:"storage_key"`
	FileURL       string    `gorm:"column:file_url" json:"file_url"`
	ExtractedText string    `gorm:"column:extracted_text" json:"extracted_text"`
	CreatedAt     time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Report) TableName() string {
	return "report"
}

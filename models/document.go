package models

import "time"

// Document is an uploaded file with its extracted text. Rows are written once, after
// extraction succeeded, and never updated.
type Document struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"index;not null" json:"user_id"`
	Filename      string    `gorm:"size:255;not null" json:"filename"`
	MimeType      string    `gorm:"size:50;not null" json:"mime_type"`
	FileSize      int64     `gorm:"not null" json:"file_size"`
	StoragePath   string    `gorm:"size:512;not null" json:"-"` // object storage key or filesystem path
	ExtractedText string    `gorm:"type:longtext;not null" json:"-"`
	UploadedAt    time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
	User          User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

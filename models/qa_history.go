package models

import "time"

// QAHistory is one answered question. The table is append-only.
type QAHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index;not null" json:"-"`
	DocumentID uint      `gorm:"index;not null" json:"document_id"`
	Question   string    `gorm:"type:text;not null" json:"question"`
	Answer     string    `gorm:"type:longtext;not null" json:"answer"`
	TokensUsed *int      `json:"-"`
	LatencyMS  *int64    `gorm:"column:latency_ms" json:"-"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	User       User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Document   Document  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// TableName keeps the table name used by existing deployments.
func (QAHistory) TableName() string {
	return "qa_history"
}

package models

import (
	"time"
)

type Thread struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Tid       string    `gorm:"uniqueIndex;size:8;not null" json:"tid"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	Locked    bool      `gorm:"default:false" json:"locked"` // locked threads refuse comment mutations
	Source    string    `json:"source"`                      // e.g., "feed" for imported threads
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Not database columns, filled per query
	CommentCount int `gorm:"-" json:"comment_count"`
	WatcherCount int `gorm:"-" json:"watcher_count"`
}

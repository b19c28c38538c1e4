package models

import (
	"time"
)

// Watch marks a thread the user opted into background comment-count polling for.
type Watch struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index;uniqueIndex:idx_user_thread" json:"user_id"`
	ThreadID      uint      `gorm:"not null;index;uniqueIndex:idx_user_thread" json:"thread_id"`
	Thread        Thread    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"thread"`
	LastSeenCount int       `gorm:"default:0" json:"last_seen_count"` // comment count at last poll
	CreatedAt     time.Time `json:"created_at"`
}

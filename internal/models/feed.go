package models

import (
	"time"
)

// Feed is an RSS source whose new items are imported as threads.
type Feed struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	URL         string     `gorm:"uniqueIndex;not null" json:"url"`
	Title       string     `gorm:"not null" json:"title"`
	UserID      uint       `gorm:"not null;index" json:"user_id"` // imported threads are attributed to this user
	LastFetchAt *time.Time `json:"last_fetch_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// FeedItem remembers imported entries so a refresh never posts the same
// item twice.
type FeedItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FeedID    uint      `gorm:"not null;index" json:"feed_id"`
	Feed      Feed      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"feed"`
	GUID      string    `gorm:"uniqueIndex;not null" json:"guid"`
	ThreadID  uint      `gorm:"index" json:"thread_id"`
	CreatedAt time.Time `json:"created_at"`
}

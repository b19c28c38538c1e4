package services

import (
	"fmt"
	"log"
	"os"
	"time"

	"qanda/internal/db"
	"qanda/internal/models"
)

// Watcher polls watched threads on a fixed interval and notifies each
// watcher when the comment count grew since their last poll. It reads
// nothing but persisted state; thread pages are never touched directly.
type Watcher struct {
	interval time.Duration
}

var watcher *Watcher

// GetWatcher returns the watcher singleton.
func GetWatcher() *Watcher {
	if watcher == nil {
		interval := 5 * time.Minute
		if v := os.Getenv("WATCH_POLL_INTERVAL"); v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				interval = d
			}
		}
		watcher = &Watcher{interval: interval}
	}
	return watcher
}

// PollOnce runs one polling pass over every watch row.
func (w *Watcher) PollOnce() {
	var watches []models.Watch
	if err := db.DB.Preload("Thread").Find(&watches).Error; err != nil {
		log.Printf("Watcher: failed to load watches: %v", err)
		return
	}

	for _, watch := range watches {
		var count int64
		if err := db.DB.Model(&models.Comment{}).Where("thread_id = ?", watch.ThreadID).Count(&count).Error; err != nil {
			log.Printf("Watcher: failed to count comments of thread %d: %v", watch.ThreadID, err)
			continue
		}

		newComments := int(count) - watch.LastSeenCount
		if newComments <= 0 {
			if int(count) != watch.LastSeenCount {
				// Deletions shrink the count; just move the anchor down.
				db.DB.Model(&models.Watch{}).Where("id = ?", watch.ID).Update("last_seen_count", count)
			}
			continue
		}

		notification := models.Notification{
			UserID: watch.UserID,
			Type:   models.NotificationTypeWatchedDigest,
			Reason: fmt.Sprintf("%d new comment(s) on <a href=\"/t/%s\">%s</a>",
				newComments, watch.Thread.Tid, watch.Thread.Title),
		}
		if err := db.DB.Create(&notification).Error; err != nil {
			log.Printf("Watcher: failed to create notification: %v", err)
			continue
		}
		db.DB.Model(&models.Watch{}).Where("id = ?", watch.ID).Update("last_seen_count", count)
	}
}

// StartScheduledPolling runs PollOnce on the configured interval.
func (w *Watcher) StartScheduledPolling() {
	ticker := time.NewTicker(w.interval)
	go func() {
		for range ticker.C {
			w.PollOnce()
		}
	}()
	log.Printf("Watcher polling every %s", w.interval)
}

package services

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"qanda/internal/db"
	"qanda/internal/models"
	"qanda/internal/utils"

	"github.com/mmcdole/gofeed"
)

// FeedImporter pulls configured RSS sources and posts their new items
// as threads. Imported threads are attributed to the feed's owner and
// tagged with Source "feed".
type FeedImporter struct {
	parser *gofeed.Parser
}

func NewFeedImporter() *FeedImporter {
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			MaxIdleConnsPerHost: 2,
		},
	}

	parser := gofeed.NewParser()
	parser.Client = httpClient

	return &FeedImporter{parser: parser}
}

var feedImporter *FeedImporter

// GetFeedImporter returns the importer singleton.
func GetFeedImporter() *FeedImporter {
	if feedImporter == nil {
		feedImporter = NewFeedImporter()
	}
	return feedImporter
}

// DiscoverFeed fetches a feed URL and returns its metadata without
// saving anything.
func (f *FeedImporter) DiscoverFeed(feedURL string) (*models.Feed, error) {
	feed, err := f.parser.ParseURL(feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	return &models.Feed{
		URL:   feedURL,
		Title: feed.Title,
	}, nil
}

// ImportFeed fetches one source and creates a thread per unseen item.
func (f *FeedImporter) ImportFeed(feed *models.Feed) error {
	parsed, err := f.parser.ParseURL(feed.URL)
	if err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	for _, item := range parsed.Items {
		guid := item.GUID
		if guid == "" {
			guid = item.Link
		}
		if guid == "" {
			continue
		}

		var exists int64
		db.DB.Model(&models.FeedItem{}).Where("guid = ?", guid).Count(&exists)
		if exists > 0 {
			continue
		}

		content := item.Description
		if item.Content != "" {
			content = item.Content
		}
		if item.Link != "" {
			content = fmt.Sprintf("%s\n\n[Read more](%s)", content, item.Link)
		}

		thread := models.Thread{
			Tid:     utils.RandString(8),
			UserID:  feed.UserID,
			Title:   item.Title,
			Content: content,
			Source:  "feed",
		}
		if err := db.DB.Create(&thread).Error; err != nil {
			log.Printf("FeedImporter: failed to create thread for %q: %v", item.Title, err)
			continue
		}

		feedItem := models.FeedItem{
			FeedID:   feed.ID,
			GUID:     guid,
			ThreadID: thread.ID,
		}
		if err := db.DB.Create(&feedItem).Error; err != nil {
			log.Printf("FeedImporter: failed to record feed item %q: %v", guid, err)
		}
	}

	now := time.Now()
	db.DB.Model(&models.Feed{}).Where("id = ?", feed.ID).Update("last_fetch_at", &now)

	return nil
}

// ImportAllFeeds refreshes every configured source.
func (f *FeedImporter) ImportAllFeeds() {
	var feeds []models.Feed
	db.DB.Find(&feeds)

	for _, feed := range feeds {
		if err := f.ImportFeed(&feed); err != nil {
			log.Printf("FeedImporter: failed to refresh %s: %v", feed.Title, err)
		}
	}
}

// CreateOrGetFeed registers a source, returning the existing row when
// the URL is already known. New sources are imported asynchronously.
func (f *FeedImporter) CreateOrGetFeed(feedURL string, userID uint) (*models.Feed, error) {
	var existing models.Feed
	if err := db.DB.Where("url = ?", feedURL).First(&existing).Error; err == nil {
		return &existing, nil
	}

	feed, err := f.DiscoverFeed(feedURL)
	if err != nil {
		return nil, err
	}
	feed.UserID = userID

	if err := db.DB.Create(feed).Error; err != nil {
		return nil, fmt.Errorf("failed to save feed: %w", err)
	}

	go func() {
		if err := f.ImportFeed(feed); err != nil {
			log.Printf("FeedImporter: initial import of %s failed: %v", feed.URL, err)
		}
	}()

	return feed, nil
}

// StartScheduledImport refreshes all sources every 30 minutes.
func (f *FeedImporter) StartScheduledImport() {
	ticker := time.NewTicker(30 * time.Minute)
	go func() {
		log.Println("Starting initial feed import...")
		f.ImportAllFeeds()
		log.Println("Initial feed import done")

		for range ticker.C {
			f.ImportAllFeeds()
		}
	}()
}

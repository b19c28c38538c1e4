package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"qanda/internal/db"
	"qanda/internal/models"
)

func TestFeedListShowsSubscriptions(t *testing.T) {
	setupTestDB(t)
	user := seedUser(t, "alice")
	feed := models.Feed{URL: "https://blog.test.local/feed.xml", Title: "Test Blog", UserID: user.ID}
	if err := db.DB.Create(&feed).Error; err != nil {
		t.Fatalf("seed feed: %v", err)
	}

	h := NewFeedHandler()
	r := newPageRouter(user)
	r.GET("/feeds", h.List)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/feeds", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Test Blog") || !strings.Contains(body, feed.URL) {
		t.Fatalf("subscription missing from list; body %s", body)
	}
}

func TestFeedSubscribeRejectsEmptyURL(t *testing.T) {
	setupTestDB(t)
	user := seedUser(t, "alice")

	h := NewFeedHandler()
	r := newPageRouter(user)
	r.POST("/feeds", h.Subscribe)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/feeds", strings.NewReader("url="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Feed URL must not be empty") {
		t.Fatalf("missing validation message; body %s", w.Body.String())
	}
}

func TestFeedUnsubscribeRemovesFeedAndItems(t *testing.T) {
	setupTestDB(t)
	user := seedUser(t, "alice")
	feed := models.Feed{URL: "https://blog.test.local/feed.xml", Title: "Test Blog", UserID: user.ID}
	if err := db.DB.Create(&feed).Error; err != nil {
		t.Fatalf("seed feed: %v", err)
	}
	db.DB.Create(&models.FeedItem{FeedID: feed.ID, GUID: "guid-1"})

	h := NewFeedHandler()
	r := newPageRouter(user)
	r.POST("/feeds/:id/delete", h.Unsubscribe)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/feeds/"+itoa(feed.ID)+"/delete", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}

	var feeds, items int64
	db.DB.Model(&models.Feed{}).Count(&feeds)
	db.DB.Model(&models.FeedItem{}).Count(&items)
	if feeds != 0 || items != 0 {
		t.Fatalf("feeds = %d items = %d after unsubscribe, want 0/0", feeds, items)
	}
}

func TestFeedUnsubscribeOtherUsersFeed(t *testing.T) {
	setupTestDB(t)
	owner := seedUser(t, "alice")
	other := seedUser(t, "bob")
	feed := models.Feed{URL: "https://blog.test.local/feed.xml", Title: "Test Blog", UserID: owner.ID}
	if err := db.DB.Create(&feed).Error; err != nil {
		t.Fatalf("seed feed: %v", err)
	}

	h := NewFeedHandler()
	r := newPageRouter(other)
	r.POST("/feeds/:id/delete", h.Unsubscribe)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/feeds/"+itoa(feed.ID)+"/delete", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	var feeds int64
	db.DB.Model(&models.Feed{}).Count(&feeds)
	if feeds != 1 {
		t.Fatalf("feed was removed by non-owner")
	}
}

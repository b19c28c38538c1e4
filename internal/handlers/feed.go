package handlers

import (
	"net/http"
	"strings"

	"qanda/internal/db"
	"qanda/internal/middleware"
	"qanda/internal/models"
	"qanda/internal/services"
	"qanda/internal/utils"

	"github.com/gin-gonic/gin"
)

// FeedHandler manages the user's RSS subscriptions; subscribed sources get
// imported as threads by the scheduled importer.
type FeedHandler struct {
	importer *services.FeedImporter
}

func NewFeedHandler() *FeedHandler {
	return &FeedHandler{
		importer: services.GetFeedImporter(),
	}
}

func (h *FeedHandler) renderList(c *gin.Context, code int, user *models.User, errMsg string) {
	var feeds []models.Feed
	db.DB.Where("user_id = ?", user.ID).Order("created_at DESC").Find(&feeds)

	data := gin.H{"Title": "Feeds", "Feeds": feeds}
	if errMsg != "" {
		data["Error"] = errMsg
	}
	Render(c, code, "feed/list.html", data)
}

// List shows the user's subscribed sources.
func (h *FeedHandler) List(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	h.renderList(c, http.StatusOK, user, "")
}

// Subscribe registers a new source and triggers its first import.
func (h *FeedHandler) Subscribe(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	feedURL := strings.TrimSpace(c.PostForm("url"))
	if feedURL == "" {
		h.renderList(c, http.StatusBadRequest, user, "Feed URL must not be empty")
		return
	}

	if _, err := h.importer.CreateOrGetFeed(feedURL, user.ID); err != nil {
		h.renderList(c, http.StatusBadRequest, user, "Could not subscribe: "+err.Error())
		return
	}

	c.Redirect(http.StatusFound, "/feeds")
}

// Unsubscribe removes a source and its imported-item bookkeeping. Threads
// already imported from it stay.
func (h *FeedHandler) Unsubscribe(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	feedID := utils.StringToUint(c.Param("id"))

	var feed models.Feed
	if err := db.DB.First(&feed, feedID).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Feed not found")
		return
	}
	if feed.UserID != user.ID {
		RenderError(c, http.StatusForbidden, "You can only remove your own feeds")
		return
	}

	db.DB.Where("feed_id = ?", feed.ID).Delete(&models.FeedItem{})
	db.DB.Delete(&feed)

	c.Redirect(http.StatusFound, "/feeds")
}

package handlers

import (
	"net/http"

	"qanda/internal/db"
	"qanda/internal/middleware"
	"qanda/internal/models"

	"github.com/gin-gonic/gin"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Profile - public user page /u/:id
func (h *UserHandler) Profile(c *gin.Context) {
	userID := c.Param("id")

	var user models.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		RenderError(c, http.StatusNotFound, "User not found")
		return
	}

	tab := c.DefaultQuery("tab", "threads")

	var threads []models.Thread
	var comments []models.Comment

	if tab == "comments" {
		db.DB.Preload("Thread").
			Where("user_id = ?", user.ID).
			Order("created_at DESC").
			Limit(50).
			Find(&comments)
	} else {
		db.DB.Preload("User").
			Where("user_id = ?", user.ID).
			Order("created_at DESC").
			Limit(50).
			Find(&threads)
		fillThreadCounts(threads)
	}

	Render(c, http.StatusOK, "user/profile.html", gin.H{
		"Title":     user.Username,
		"User":      user,
		"Threads":   threads,
		"Comments":  comments,
		"ActiveTab": tab,
	})
}

func (h *UserHandler) ShowSettings(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	Render(c, http.StatusOK, "user/settings.html", gin.H{"Title": "Settings", "User": user})
}

func (h *UserHandler) UpdateSettings(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	username := c.PostForm("username")
	if username != "" {
		user.Username = username
	}
	if avatar := c.PostForm("avatar"); avatar != "" {
		user.Avatar = avatar
	}
	user.Bio = c.PostForm("bio")

	if err := db.DB.Save(user).Error; err != nil {
		Render(c, http.StatusInternalServerError, "user/settings.html", gin.H{"Title": "Settings", "User": user, "Error": "Failed to save settings"})
		return
	}

	Render(c, http.StatusOK, "user/settings.html", gin.H{"Title": "Settings", "User": user, "Success": "Settings saved"})
}

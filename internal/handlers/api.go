package handlers

import (
	"fmt"
	"log"
	"net/http"
	"sort"
	"time"

	"qanda/internal/commentview"
	"qanda/internal/db"
	"qanda/internal/middleware"
	"qanda/internal/models"
	"qanda/internal/utils"

	"github.com/gin-gonic/gin"
)

// APIHandler serves the JSON surface browser clients drive the comment
// tree with: flat comment fetch, comment create/update/delete, like
// toggle, and user profile lookup. Every failure is one JSON error object,
// the popup surface of the client.
type APIHandler struct{}

func NewAPIHandler() *APIHandler {
	return &APIHandler{}
}

const apiTokenTTL = 24 * time.Hour

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token.
func (h *APIHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid JSON")
		return
	}

	var user models.User
	if err := db.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		apiError(c, http.StatusUnauthorized, "wrong email or password")
		return
	}
	if !utils.CheckPassword(user.Password, req.Password) {
		apiError(c, http.StatusUnauthorized, "wrong email or password")
		return
	}

	token, err := utils.SignUserToken(user.ID, apiTokenTTL)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to issue token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "userId": user.ID})
}

// ListComments returns the flat comment store of one thread, most recent
// first, in the exact shape the tree renderer consumes.
func (h *APIHandler) ListComments(c *gin.Context) {
	threadID := utils.StringToUint(c.Query("threadId"))
	if threadID == 0 {
		apiError(c, http.StatusBadRequest, "threadId is required")
		return
	}
	var thread models.Thread
	if err := db.DB.First(&thread, threadID).Error; err != nil {
		apiError(c, http.StatusNotFound, "thread not found")
		return
	}

	records, err := commentRecords(threadID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to load comments")
		return
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	for i := range records {
		if records[i].Likes == nil {
			records[i].Likes = []int{}
		}
	}
	if records == nil {
		records = []commentview.Record{}
	}
	c.JSON(http.StatusOK, records)
}

type createCommentRequest struct {
	ThreadID        uint   `json:"threadId"`
	ParentCommentID *uint  `json:"parentCommentId"`
	Content         string `json:"content"`
}

func (h *APIHandler) CreateComment(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Content == "" {
		apiError(c, http.StatusBadRequest, "content must not be empty")
		return
	}

	var thread models.Thread
	if err := db.DB.First(&thread, req.ThreadID).Error; err != nil {
		apiError(c, http.StatusNotFound, "thread not found")
		return
	}
	if thread.Locked {
		apiError(c, http.StatusForbidden, "thread is locked")
		return
	}
	if req.ParentCommentID != nil {
		var parent models.Comment
		if err := db.DB.Where("id = ? AND thread_id = ?", *req.ParentCommentID, thread.ID).First(&parent).Error; err != nil {
			apiError(c, http.StatusBadRequest, "parent comment not found")
			return
		}
	}

	comment := models.Comment{
		Cid:      utils.RandString(8),
		ThreadID: thread.ID,
		UserID:   user.ID,
		ParentID: req.ParentCommentID,
		Content:  req.Content,
	}
	if err := db.DB.Create(&comment).Error; err != nil {
		apiError(c, http.StatusInternalServerError, "failed to create comment")
		return
	}

	invalidateThread(&thread)

	record := commentview.Record{
		ID:        int(comment.ID),
		CreatorID: int(comment.UserID),
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
		Likes:     []int{},
	}
	if comment.ParentID != nil {
		p := int(*comment.ParentID)
		record.ParentCommentID = &p
	}
	c.JSON(http.StatusCreated, record)
}

type updateCommentRequest struct {
	ID      uint   `json:"id"`
	Content string `json:"content"`
}

func (h *APIHandler) UpdateComment(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var req updateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Content == "" {
		apiError(c, http.StatusBadRequest, "content must not be empty")
		return
	}

	var comment models.Comment
	if err := db.DB.Preload("Thread").First(&comment, req.ID).Error; err != nil {
		apiError(c, http.StatusNotFound, "comment not found")
		return
	}
	if comment.UserID != user.ID {
		apiError(c, http.StatusForbidden, "not the comment author")
		return
	}
	if comment.Thread.Locked {
		apiError(c, http.StatusForbidden, "thread is locked")
		return
	}

	comment.Content = req.Content
	if err := db.DB.Save(&comment).Error; err != nil {
		apiError(c, http.StatusInternalServerError, "failed to update comment")
		return
	}

	invalidateThread(&comment.Thread)
	c.Status(http.StatusNoContent)
}

// DeleteComment cascades over the comment's rendered subtree exactly like
// the page delete: every descendant is deleted individually, failures are
// reported but do not stop the walk.
func (h *APIHandler) DeleteComment(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	commentID := utils.StringToUint(c.Query("id"))
	if commentID == 0 {
		apiError(c, http.StatusBadRequest, "id is required")
		return
	}

	var comment models.Comment
	if err := db.DB.Preload("Thread").First(&comment, commentID).Error; err != nil {
		apiError(c, http.StatusNotFound, "comment not found")
		return
	}
	if comment.UserID != user.ID {
		apiError(c, http.StatusForbidden, "not the comment author")
		return
	}

	records, err := commentRecords(comment.ThreadID)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to load comments")
		return
	}

	view := commentview.NewView(int(user.ID))
	view.Locked = comment.Thread.Locked
	view.Rebuild(records, time.Now())

	removed, errs := view.CascadeDelete(c.Request.Context(), gormDeleter{}, int(commentID))
	invalidateThread(&comment.Thread)

	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		log.Printf("api cascade delete on thread %d: %v", comment.ThreadID, e)
		messages = append(messages, e.Error())
	}
	c.JSON(http.StatusOK, gin.H{"deleted": removed, "errors": messages})
}

type likeRequest struct {
	ID     uint `json:"id"`
	TurnOn bool `json:"turnon"`
}

// Like sets or clears the caller's membership in a comment's like set.
func (h *APIHandler) Like(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var req likeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "invalid JSON")
		return
	}

	var comment models.Comment
	if err := db.DB.Preload("Thread").First(&comment, req.ID).Error; err != nil {
		apiError(c, http.StatusNotFound, "comment not found")
		return
	}
	if comment.Thread.Locked {
		apiError(c, http.StatusForbidden, "thread is locked")
		return
	}

	if req.TurnOn {
		var existing models.CommentLike
		if err := db.DB.Where("user_id = ? AND comment_id = ?", user.ID, req.ID).First(&existing).Error; err != nil {
			db.DB.Create(&models.CommentLike{UserID: user.ID, CommentID: comment.ID})
		}
	} else {
		db.DB.Where("user_id = ? AND comment_id = ?", user.ID, req.ID).Delete(&models.CommentLike{})
	}

	invalidateThread(&comment.Thread)

	var likes []models.CommentLike
	db.DB.Where("comment_id = ?", req.ID).Order("id ASC").Find(&likes)
	likedBy := make([]int, 0, len(likes))
	for _, l := range likes {
		likedBy = append(likedBy, int(l.UserID))
	}
	c.JSON(http.StatusOK, gin.H{"id": comment.ID, "likes": likedBy})
}

// GetUser returns the public profile used for comment avatars.
func (h *APIHandler) GetUser(c *gin.Context) {
	userID := utils.StringToUint(c.Query("userId"))
	if userID == 0 {
		apiError(c, http.StatusBadRequest, "userId is required")
		return
	}

	var user models.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		apiError(c, http.StatusNotFound, fmt.Sprintf("user %d not found", userID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"avatar":   user.Avatar,
		"bio":      user.Bio,
	})
}

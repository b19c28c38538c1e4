package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"qanda/internal/commentview"
	"qanda/internal/db"
	"qanda/internal/middleware"
	"qanda/internal/models"
	"qanda/internal/services"
	"qanda/internal/utils"

	"github.com/gin-gonic/gin"
)

// Per-thread render generations. Every comment mutation bumps the
// thread's generation; a cached render carrying an older generation is
// discarded instead of being served (or written) over newer state.
var threadGens sync.Map // uint -> *uint64

func threadGen(threadID uint) uint64 {
	g, _ := threadGens.LoadOrStore(threadID, new(uint64))
	return atomic.LoadUint64(g.(*uint64))
}

func bumpThreadGen(threadID uint) uint64 {
	g, _ := threadGens.LoadOrStore(threadID, new(uint64))
	return atomic.AddUint64(g.(*uint64), 1)
}

// commentRecords fetches the flat comment list of one thread in the shape
// the view consumes, likes included.
func commentRecords(threadID uint) ([]commentview.Record, error) {
	var comments []models.Comment
	if err := db.DB.Where("thread_id = ?", threadID).Order("created_at DESC").Find(&comments).Error; err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, nil
	}

	ids := make([]uint, len(comments))
	for i, com := range comments {
		ids[i] = com.ID
	}
	var likes []models.CommentLike
	if err := db.DB.Where("comment_id IN ?", ids).Order("id ASC").Find(&likes).Error; err != nil {
		return nil, err
	}
	likeMap := make(map[uint][]int)
	for _, l := range likes {
		likeMap[l.CommentID] = append(likeMap[l.CommentID], int(l.UserID))
	}

	records := make([]commentview.Record, len(comments))
	for i, com := range comments {
		r := commentview.Record{
			ID:        int(com.ID),
			CreatorID: int(com.UserID),
			Content:   com.Content,
			CreatedAt: com.CreatedAt,
			Likes:     likeMap[com.ID],
		}
		if com.ParentID != nil {
			p := int(*com.ParentID)
			r.ParentCommentID = &p
		}
		records[i] = r
	}
	return records, nil
}

// creatorDirectory resolves the author profile of every rendered node.
// A missing profile is non-fatal: the comment stays rendered and the
// failure is surfaced alongside the page.
func creatorDirectory(nodes []*commentview.Node) (map[int]models.User, []string) {
	idSet := make(map[int]bool)
	var ids []uint
	for _, n := range nodes {
		if !idSet[n.CreatorID] {
			idSet[n.CreatorID] = true
			ids = append(ids, uint(n.CreatorID))
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var users []models.User
	if err := db.DB.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, []string{"Failed to load comment authors"}
	}
	dir := make(map[int]models.User, len(users))
	for _, u := range users {
		dir[int(u.ID)] = u
	}

	var faults []string
	for id := range idSet {
		if _, ok := dir[id]; !ok {
			faults = append(faults, fmt.Sprintf("Failed to load profile of user %d", id))
		}
	}
	return dir, faults
}

// gormDeleter issues the per-comment storage deletes of a cascade.
type gormDeleter struct{}

func (gormDeleter) DeleteComment(_ context.Context, commentID int) error {
	if err := db.DB.Where("comment_id = ?", commentID).Delete(&models.CommentLike{}).Error; err != nil {
		return err
	}
	return db.DB.Delete(&models.Comment{}, commentID).Error
}

func invalidateThread(thread *models.Thread) {
	bumpThreadGen(thread.ID)
	// Only the front page is dropped eagerly; comment counts on later list
	// pages stay cached until their 1 minute TTL expires.
	utils.GetCache().Delete("thread:latest:page:1")
}

type CommentHandler struct {
	mailService *services.MailService
}

func NewCommentHandler() *CommentHandler {
	return &CommentHandler{
		mailService: services.NewMailService(),
	}
}

// Create handles a submitted reply slot in compose-new or reply mode, then
// redirects back to a full re-render of the thread.
func (h *CommentHandler) Create(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	tid := c.Param("tid")

	var thread models.Thread
	if err := db.DB.Where("tid = ?", tid).First(&thread).Error; err != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	if thread.Locked {
		RenderError(c, http.StatusForbidden, "Thread is locked")
		return
	}

	content := c.PostForm("content")
	if content == "" {
		c.Redirect(http.StatusFound, "/t/"+tid)
		return
	}

	var parentID *uint
	if parentStr := c.PostForm("parent_comment_id"); parentStr != "" {
		pID := utils.StringToUint(parentStr)
		var parent models.Comment
		if err := db.DB.Where("id = ? AND thread_id = ?", pID, thread.ID).First(&parent).Error; err != nil {
			RenderError(c, http.StatusBadRequest, "Comment not found")
			return
		}
		parentID = &pID
	}

	comment := models.Comment{
		Cid:      utils.RandString(8),
		ThreadID: thread.ID,
		UserID:   user.ID,
		ParentID: parentID,
		Content:  content,
	}
	if err := db.DB.Create(&comment).Error; err != nil {
		RenderError(c, http.StatusInternalServerError, "Failed to post comment")
		return
	}

	invalidateThread(&thread)
	h.notifyAsync(&thread, &comment, user)

	c.Redirect(http.StatusFound, "/t/"+tid)
}

// Update handles a submitted reply slot in edit mode.
func (h *CommentHandler) Update(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	commentID := utils.StringToUint(c.Param("id"))

	var comment models.Comment
	if err := db.DB.Preload("Thread").First(&comment, commentID).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Comment not found")
		return
	}
	if comment.UserID != user.ID {
		RenderError(c, http.StatusForbidden, "You can only edit your own comments")
		return
	}
	if comment.Thread.Locked {
		RenderError(c, http.StatusForbidden, "Thread is locked")
		return
	}

	content := c.PostForm("content")
	if content == "" {
		c.Redirect(http.StatusFound, "/t/"+comment.Thread.Tid)
		return
	}

	comment.Content = content
	if err := db.DB.Save(&comment).Error; err != nil {
		RenderError(c, http.StatusInternalServerError, "Failed to update comment")
		return
	}

	invalidateThread(&comment.Thread)
	c.Redirect(http.StatusFound, "/t/"+comment.Thread.Tid)
}

// Delete removes a comment and its whole rendered subtree, from storage
// and from the page. Per-member delete failures do not stop the cascade;
// they come back in the response for the error popup.
func (h *CommentHandler) Delete(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	commentID := utils.StringToUint(c.Param("id"))

	var comment models.Comment
	if err := db.DB.Preload("Thread").First(&comment, commentID).Error; err != nil {
		apiError(c, http.StatusNotFound, "comment not found")
		return
	}
	if comment.UserID != user.ID {
		apiError(c, http.StatusForbidden, "you can only delete your own comments")
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
		log.Printf("cascade delete on thread %s: %v", comment.Thread.Tid, e)
		messages = append(messages, msg(e))
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted": removed,
		"errors":  messages,
	})
}

// Like toggles the current user's membership in a comment's like set and
// returns the new count for in-place display.
func (h *CommentHandler) Like(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	commentID := utils.StringToUint(c.Param("id"))

	var comment models.Comment
	if err := db.DB.Preload("Thread").First(&comment, commentID).Error; err != nil {
		apiError(c, http.StatusNotFound, "comment not found")
		return
	}
	if comment.Thread.Locked {
		apiError(c, http.StatusForbidden, "thread is locked")
		return
	}

	var existing models.CommentLike
	err := db.DB.Where("user_id = ? AND comment_id = ?", user.ID, commentID).First(&existing).Error
	if err == nil {
		db.DB.Delete(&existing)
	} else {
		db.DB.Create(&models.CommentLike{UserID: user.ID, CommentID: comment.ID})
	}

	invalidateThread(&comment.Thread)

	var count int64
	db.DB.Model(&models.CommentLike{}).Where("comment_id = ?", commentID).Count(&count)
	c.String(http.StatusOK, fmt.Sprintf("%d", count))
}

// notifyAsync creates the in-app notification (and optional email) for a
// new comment: the parent comment's author for replies, otherwise the
// thread author.
func (h *CommentHandler) notifyAsync(thread *models.Thread, comment *models.Comment, actor *models.User) {
	go func() {
		if comment.ParentID != nil {
			var parent models.Comment
			if err := db.DB.Preload("User").First(&parent, *comment.ParentID).Error; err != nil {
				return
			}
			if parent.UserID == actor.ID {
				return
			}
			notification := models.Notification{
				UserID:  parent.UserID,
				ActorID: &actor.ID,
				Type:    models.NotificationTypeReplyComment,
				Reason: fmt.Sprintf("replied to your comment on <a href=\"/t/%s#comment-%d\">%s</a>",
					thread.Tid, comment.ID, thread.Title),
			}
			db.DB.Create(&notification)
			h.mailService.SendReplyNotification(parent.User.Email, actor.Username, thread.Title, comment.Content)
			return
		}

		if thread.UserID == actor.ID {
			return
		}
		notification := models.Notification{
			UserID:  thread.UserID,
			ActorID: &actor.ID,
			Type:    models.NotificationTypeCommentThread,
			Reason: fmt.Sprintf("commented on your thread <a href=\"/t/%s#comment-%d\">%s</a>",
				thread.Tid, comment.ID, thread.Title),
		}
		db.DB.Create(&notification)
	}()
}

package handlers

import (
	"fmt"
	"html/template"
	"math"
	"net/http"
	"time"

	"qanda/internal/commentview"
	"qanda/internal/db"
	"qanda/internal/middleware"
	"qanda/internal/models"
	"qanda/internal/utils"

	"github.com/gin-gonic/gin"
)

type ThreadHandler struct{}

func NewThreadHandler() *ThreadHandler {
	return &ThreadHandler{}
}

// CommentRow is one rendered comment plus its resolved author, in document
// order, ready for the template.
type CommentRow struct {
	Node        *commentview.Node
	Author      models.User
	HasAuthor   bool
	ContentHTML template.HTML
}

// detailEntry tags cached render data with the generation it was built
// under; see threadGen.
type detailEntry struct {
	gen  uint64
	data gin.H
}

// fillThreadCounts batch-fills comment and watcher counts for a page of
// threads.
func fillThreadCounts(threads []models.Thread) {
	if len(threads) == 0 {
		return
	}

	threadIDs := make([]uint, len(threads))
	for i, t := range threads {
		threadIDs[i] = t.ID
	}

	type countResult struct {
		ThreadID uint
		Count    int
	}
	var comments []countResult
	db.DB.Model(&models.Comment{}).
		Select("thread_id, COUNT(*) as count").
		Where("thread_id IN ?", threadIDs).
		Group("thread_id").
		Scan(&comments)
	var watchers []countResult
	db.DB.Model(&models.Watch{}).
		Select("thread_id, COUNT(*) as count").
		Where("thread_id IN ?", threadIDs).
		Group("thread_id").
		Scan(&watchers)

	commentMap := make(map[uint]int)
	for _, r := range comments {
		commentMap[r.ThreadID] = r.Count
	}
	watcherMap := make(map[uint]int)
	for _, r := range watchers {
		watcherMap[r.ThreadID] = r.Count
	}

	for i := range threads {
		threads[i].CommentCount = commentMap[threads[i].ID]
		threads[i].WatcherCount = watcherMap[threads[i].ID]
	}
}

func pageParam(c *gin.Context) int {
	page := utils.StringToInt(c.Query("page"))
	if page < 1 {
		page = 1
	}
	return page
}

// ListLatest shows the paginated thread list, most recent first.
func (h *ThreadHandler) ListLatest(c *gin.Context) {
	page := pageParam(c)

	cacheKey := fmt.Sprintf("thread:latest:page:%d", page)
	if cachedData := utils.GetCache().Get(cacheKey); cachedData != nil {
		if hData, ok := cachedData.(gin.H); ok {
			Render(c, http.StatusOK, "thread/list.html", hData)
			return
		}
	}

	perPage := 30
	offset := (page - 1) * perPage

	var total int64
	db.DB.Model(&models.Thread{}).Count(&total)
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if totalPages == 0 {
		totalPages = 1
	}

	var threads []models.Thread
	db.DB.Preload("User").
		Order("created_at DESC").
		Limit(perPage).
		Offset(offset).
		Find(&threads)

	fillThreadCounts(threads)

	renderData := gin.H{
		"Threads":     threads,
		"Active":      "latest",
		"Title":       "Latest threads",
		"CurrentPage": page,
		"TotalPages":  totalPages,
	}
	utils.GetCache().Set(cacheKey, renderData, 1*time.Minute)

	Render(c, http.StatusOK, "thread/list.html", renderData)
}

// ListWatched shows the current user's watched threads.
func (h *ThreadHandler) ListWatched(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var watches []models.Watch
	db.DB.Preload("Thread").Preload("Thread.User").
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&watches)

	threads := make([]models.Thread, 0, len(watches))
	for _, w := range watches {
		threads = append(threads, w.Thread)
	}
	fillThreadCounts(threads)

	Render(c, http.StatusOK, "thread/list.html", gin.H{
		"Threads": threads,
		"Active":  "watched",
		"Title":   "Watched threads",
	})
}

func (h *ThreadHandler) ShowCreate(c *gin.Context) {
	Render(c, http.StatusOK, "thread/create.html", gin.H{"Title": "New thread"})
}

func (h *ThreadHandler) Create(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	title := c.PostForm("title")
	content := c.PostForm("content")
	if title == "" {
		Render(c, http.StatusBadRequest, "thread/create.html", gin.H{"Title": "New thread", "Error": "Title must not be empty"})
		return
	}

	thread := models.Thread{
		Tid:     utils.RandString(8),
		UserID:  user.ID,
		Title:   title,
		Content: content,
	}
	if err := db.DB.Create(&thread).Error; err != nil {
		Render(c, http.StatusInternalServerError, "thread/create.html", gin.H{"Title": "New thread", "Error": "Failed to create thread"})
		return
	}

	utils.GetCache().Delete("thread:latest:page:1")
	c.Redirect(http.StatusFound, "/t/"+thread.Tid)
}

// Detail renders one thread with its full comment forest. A thread select
// always clears and refetches the flat comment store, rebuilds the view,
// and places the reply slot from the request's reply/edit parameters.
func (h *ThreadHandler) Detail(c *gin.Context) {
	tid := c.Param("tid")

	viewerID := 0
	if user, exists := c.Get(middleware.CheckUserKey); exists && user != nil {
		viewerID = int(user.(*models.User).ID)
	}

	var thread models.Thread
	if err := db.DB.Preload("User").Where("tid = ?", tid).First(&thread).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Thread not found")
		return
	}

	replyTo := c.Query("reply")
	editID := c.Query("edit")
	compose := c.Query("compose")

	gen := threadGen(thread.ID)
	cacheKey := fmt.Sprintf("thread:detail:%s:v:%d:r:%s:e:%s:c:%s", tid, viewerID, replyTo, editID, compose)
	if cached := utils.GetCache().Get(cacheKey); cached != nil {
		if entry, ok := cached.(detailEntry); ok && entry.gen == gen {
			Render(c, http.StatusOK, "thread/detail.html", entry.data)
			return
		}
	}

	records, err := commentRecords(thread.ID)
	if err != nil {
		RenderError(c, http.StatusInternalServerError, "Failed to load comments")
		return
	}

	view := commentview.NewView(viewerID)
	view.Locked = thread.Locked
	view.Rebuild(records, time.Now())

	// Place the singleton reply slot. Placement failures are surfaced but
	// leave the thread rendered.
	var popupErrors []string
	switch {
	case editID != "":
		if err := view.OpenEdit(utils.StringToInt(editID)); err != nil {
			popupErrors = append(popupErrors, msg(err))
		}
	case replyTo != "":
		if err := view.OpenReply(utils.StringToInt(replyTo)); err != nil {
			popupErrors = append(popupErrors, msg(err))
		}
	case compose != "":
		if err := view.OpenComposer(); err != nil {
			popupErrors = append(popupErrors, msg(err))
		}
	default:
		if !thread.Locked && view.Len() == 0 {
			_ = view.OpenComposer()
		}
	}

	authors, lookupFaults := creatorDirectory(view.Nodes())
	popupErrors = append(popupErrors, lookupFaults...)

	rows := make([]CommentRow, 0, view.Len())
	for _, n := range view.Nodes() {
		author, ok := authors[n.CreatorID]
		rows = append(rows, CommentRow{
			Node:        n,
			Author:      author,
			HasAuthor:   ok,
			ContentHTML: utils.RenderMarkdown(n.Content),
		})
	}

	isWatched := false
	if viewerID > 0 {
		var watch models.Watch
		if err := db.DB.Where("user_id = ? AND thread_id = ?", viewerID, thread.ID).First(&watch).Error; err == nil {
			isWatched = true
		}
	}

	renderData := gin.H{
		"Thread":        thread,
		"ThreadContent": utils.RenderMarkdown(thread.Content),
		"Rows":          rows,
		"Composer":      view.Composer(),
		"CanReply":      view.ShowReplyAffordances(),
		"IsWatched":     isWatched,
		"PopupErrors":   popupErrors,
		"Title":         thread.Title,
	}

	utils.GetCache().Set(cacheKey, detailEntry{gen: gen, data: renderData}, 5*time.Minute)

	Render(c, http.StatusOK, "thread/detail.html", renderData)
}

func (h *ThreadHandler) ShowEdit(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	tid := c.Param("tid")

	var thread models.Thread
	if err := db.DB.Where("tid = ?", tid).First(&thread).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Thread not found")
		return
	}
	if thread.UserID != user.ID {
		RenderError(c, http.StatusForbidden, "You can only edit your own threads")
		return
	}

	Render(c, http.StatusOK, "thread/edit.html", gin.H{"Title": "Edit thread", "Thread": thread})
}

func (h *ThreadHandler) Update(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	tid := c.Param("tid")

	var thread models.Thread
	if err := db.DB.Where("tid = ?", tid).First(&thread).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Thread not found")
		return
	}
	if thread.UserID != user.ID {
		RenderError(c, http.StatusForbidden, "You can only edit your own threads")
		return
	}

	title := c.PostForm("title")
	if title == "" {
		Render(c, http.StatusBadRequest, "thread/edit.html", gin.H{"Title": "Edit thread", "Thread": thread, "Error": "Title must not be empty"})
		return
	}

	thread.Title = title
	thread.Content = c.PostForm("content")
	if err := db.DB.Save(&thread).Error; err != nil {
		Render(c, http.StatusInternalServerError, "thread/edit.html", gin.H{"Title": "Edit thread", "Thread": thread, "Error": "Failed to save thread"})
		return
	}

	invalidateThread(&thread)
	c.Redirect(http.StatusFound, "/t/"+tid)
}

func (h *ThreadHandler) Delete(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	tid := c.Param("tid")

	var thread models.Thread
	if err := db.DB.Where("tid = ?", tid).First(&thread).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	if thread.UserID != user.ID {
		c.Status(http.StatusForbidden)
		return
	}

	var commentIDs []uint
	db.DB.Model(&models.Comment{}).Where("thread_id = ?", thread.ID).Pluck("id", &commentIDs)
	if len(commentIDs) > 0 {
		db.DB.Where("comment_id IN ?", commentIDs).Delete(&models.CommentLike{})
	}
	db.DB.Where("thread_id = ?", thread.ID).Delete(&models.Comment{})
	db.DB.Where("thread_id = ?", thread.ID).Delete(&models.Watch{})
	db.DB.Delete(&thread)

	invalidateThread(&thread)
	c.Redirect(http.StatusFound, "/")
}

// ToggleLock flips the thread's lock flag. A locked thread refuses every
// reply/edit/like action.
func (h *ThreadHandler) ToggleLock(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	tid := c.Param("tid")

	var thread models.Thread
	if err := db.DB.Where("tid = ?", tid).First(&thread).Error; err != nil {
		RenderError(c, http.StatusNotFound, "Thread not found")
		return
	}
	if thread.UserID != user.ID {
		RenderError(c, http.StatusForbidden, "Only the thread author can lock it")
		return
	}

	thread.Locked = !thread.Locked
	db.DB.Save(&thread)

	invalidateThread(&thread)
	c.Redirect(http.StatusFound, "/t/"+tid)
}

// ToggleWatch opts the current user in or out of background polling for
// the thread, returning the new watcher count.
func (h *ThreadHandler) ToggleWatch(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	threadID := utils.StringToUint(c.Param("id"))

	var thread models.Thread
	if err := db.DB.First(&thread, threadID).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	var existing models.Watch
	err := db.DB.Where("user_id = ? AND thread_id = ?", user.ID, threadID).First(&existing).Error
	if err == nil {
		db.DB.Delete(&existing)
	} else {
		var count int64
		db.DB.Model(&models.Comment{}).Where("thread_id = ?", threadID).Count(&count)
		db.DB.Create(&models.Watch{UserID: user.ID, ThreadID: threadID, LastSeenCount: int(count)})
	}

	var watchers int64
	db.DB.Model(&models.Watch{}).Where("thread_id = ?", threadID).Count(&watchers)
	c.String(http.StatusOK, fmt.Sprintf("%d", watchers))
}

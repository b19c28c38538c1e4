package handlers

import (
	"fmt"
	"html/template"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"qanda/internal/commentview"
	"qanda/internal/db"
	"qanda/internal/middleware"
	"qanda/internal/models"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// setupTestDB points the package-global connection at a fresh in-memory
// database. Single connection: each sqlite :memory: connection is its own
// database.
func setupTestDB(t *testing.T) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = gdb.AutoMigrate(
		&models.User{},
		&models.Thread{},
		&models.Comment{},
		&models.CommentLike{},
		&models.Watch{},
		&models.Notification{},
		&models.Feed{},
		&models.FeedItem{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	db.DB = gdb
}

func seedUser(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@test.local", Password: "hash"}
	if err := db.DB.Create(u).Error; err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return u
}

func seedThread(t *testing.T, tid string, author *models.User, locked bool) *models.Thread {
	t.Helper()
	th := &models.Thread{Tid: tid, UserID: author.ID, Title: "Thread " + tid, Content: "body", Locked: locked}
	if err := db.DB.Create(th).Error; err != nil {
		t.Fatalf("seed thread %s: %v", tid, err)
	}
	return th
}

var cidSeq uint64

func seedComment(t *testing.T, thread *models.Thread, author *models.User, parentID *uint, content string, at time.Time) *models.Comment {
	t.Helper()
	c := &models.Comment{
		Cid:       fmt.Sprintf("c%07d", atomic.AddUint64(&cidSeq, 1)),
		ThreadID:  thread.ID,
		UserID:    author.ID,
		ParentID:  parentID,
		Content:   content,
		CreatedAt: at,
	}
	if err := db.DB.Create(c).Error; err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	return c
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }

// withUser stands in for the session/token middleware.
func withUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CheckUserKey, user)
		c.Next()
	}
}

// testTemplates loads the page templates the way the server does, enough
// for the views exercised here.
func testTemplates() multitemplate.Renderer {
	const root = "../../web/templates"

	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"timeAgo": func(t interface{}) string {
			switch v := t.(type) {
			case time.Time:
				return commentview.RelativeAge(time.Now(), v)
			case *time.Time:
				if v == nil {
					return ""
				}
				return commentview.RelativeAge(time.Now(), *v)
			default:
				return ""
			}
		},
		"eq": func(a, b interface{}) bool { return a == b },
		"gt": func(a, b int) bool { return a > b },
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
	}

	r := multitemplate.NewRenderer()
	for _, name := range []string{"thread/detail.html", "feed/list.html", "error.html"} {
		r.AddFromFilesFuncs(name, funcMap, root+"/layouts/base.html", root+"/views/"+name)
	}
	return r
}

func newPageRouter(user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.HTMLRender = testTemplates()
	if user != nil {
		r.Use(withUser(user))
	}
	return r
}

func newJSONRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

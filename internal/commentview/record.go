package commentview

import (
	"time"
)

// IndentUnit is the horizontal offset in pixels applied per indent level
// when a node is rendered. Templates multiply; the integer level itself is
// what the view reasons about.
const IndentUnit = 10

// Record is one comment as fetched for a thread: a flat row whose only tree
// information is the parent link. ParentCommentID is nil for top-level
// comments and must otherwise reference another record in the same list.
type Record struct {
	ID              int       `json:"id"`
	ParentCommentID *int      `json:"parentCommentId"`
	CreatorID       int       `json:"creatorId"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"createdAt"`
	Likes           []int     `json:"likes"`
}

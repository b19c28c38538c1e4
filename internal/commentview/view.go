// Package commentview builds the rendered comment forest of one thread: it
// reconstructs parent/child structure from the flat record list a thread
// fetch returns, keeps the nodes in document order with their indent
// levels, positions the single composer slot, and plans cascading deletes.
package commentview

import (
	"errors"
	"sort"
	"time"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrThreadLocked    = errors.New("thread is locked")
)

// Node is one currently rendered comment. Nodes live in the view's slice
// in document order; the slice order plus IndentLevel is the authoritative
// structure at reply and delete time. A node is never mutated in place
// except for its Hidden flag and its like fields.
type Node struct {
	CommentID       int
	ParentCommentID *int
	CreatorID       int
	IndentLevel     int
	Hidden          bool
	Content         string
	CreatedAt       time.Time
	AgeLabel        string
	LikeCount       int
	LikedByViewer   bool
}

// IndentPx is the node's horizontal offset in pixels.
func (n *Node) IndentPx() int { return n.IndentLevel * IndentUnit }

// LikeLabel is the action label shown next to the like count.
func (n *Node) LikeLabel() string {
	if n.LikedByViewer {
		return "Unlike"
	}
	return "Like"
}

// View is the rendered comment forest of one thread for one viewer.
// All methods assume single-goroutine use; a view belongs to the request
// or loop that built it.
type View struct {
	ViewerID int
	Locked   bool

	nodes    []*Node
	composer Composer
	gen      uint64
	orphans  []int
}

func NewView(viewerID int) *View {
	return &View{ViewerID: viewerID}
}

// Rebuild replaces the whole forest from a fresh flat fetch. Records are
// stably sorted most-recent-root first; children then follow their parent
// in list order at parent indent + 1. Records whose parent chain never
// reaches a root (dangling parent id, or a parent cycle) are skipped and
// reported via Orphans. Returns the new render generation.
func (v *View) Rebuild(records []Record, now time.Time) uint64 {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	v.nodes = v.nodes[:0]
	v.orphans = nil
	v.composer = Composer{}

	visited := make(map[int]bool, len(sorted))
	v.renderChildren(sorted, nil, 0, visited, now)

	for _, r := range sorted {
		if !visited[r.ID] {
			v.orphans = append(v.orphans, r.ID)
		}
	}

	v.gen++
	return v.gen
}

// renderChildren appends every record whose parent matches, recursing into
// each one's own children before moving on. The flat list is rescanned per
// level; no tree is ever materialized. The visited set guards against
// duplicate ids and self-referential records.
func (v *View) renderChildren(records []Record, parent *int, indent int, visited map[int]bool, now time.Time) {
	for _, r := range records {
		if visited[r.ID] || !sameParent(r.ParentCommentID, parent) {
			continue
		}
		visited[r.ID] = true
		v.nodes = append(v.nodes, v.newNode(r, indent, now))
		id := r.ID
		v.renderChildren(records, &id, indent+1, visited, now)
	}
}

func (v *View) newNode(r Record, indent int, now time.Time) *Node {
	return &Node{
		CommentID:       r.ID,
		ParentCommentID: r.ParentCommentID,
		CreatorID:       r.CreatorID,
		IndentLevel:     indent,
		Content:         r.Content,
		CreatedAt:       r.CreatedAt,
		AgeLabel:        RelativeAge(now, r.CreatedAt),
		LikeCount:       len(r.Likes),
		LikedByViewer:   containsID(r.Likes, v.ViewerID),
	}
}

func sameParent(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func containsID(ids []int, id int) bool {
	if id == 0 {
		return false
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Nodes is the forest in document order. Callers must not reorder it.
func (v *View) Nodes() []*Node { return v.nodes }

func (v *View) Len() int { return len(v.nodes) }

// Orphans lists ids skipped during the last Rebuild because their parent
// chain never reached a root.
func (v *View) Orphans() []int { return v.orphans }

// Generation is the current render generation. Asynchronous work started
// against an older generation must discard its result; see Current.
func (v *View) Generation() uint64 { return v.gen }

// Current reports whether work started under gen may still apply.
func (v *View) Current(gen uint64) bool { return v.gen == gen }

// find locates a rendered node by comment id with a linear scan, the same
// way the slot and cascade locate their anchors.
func (v *View) find(commentID int) (*Node, int, bool) {
	for i, n := range v.nodes {
		if n.CommentID == commentID {
			return n, i, true
		}
	}
	return nil, 0, false
}

// SetLikes updates one node's like fields in place after a like toggle,
// without rebuilding the forest.
func (v *View) SetLikes(commentID int, likes []int) bool {
	n, _, ok := v.find(commentID)
	if !ok {
		return false
	}
	n.LikeCount = len(likes)
	n.LikedByViewer = containsID(likes, v.ViewerID)
	return true
}

// ShowReplyAffordances reports whether reply/edit/like actions may be
// offered at all; a locked thread hides them.
func (v *View) ShowReplyAffordances() bool { return !v.Locked }

package commentview

import (
	"context"
	"fmt"
)

// Deleter removes one comment from backing storage.
type Deleter interface {
	DeleteComment(ctx context.Context, commentID int) error
}

// DeleteError records a storage delete that failed mid-cascade. The walk
// does not stop on it; the view and storage may diverge until the next
// full fetch.
type DeleteError struct {
	CommentID int
	Err       error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete comment %d: %v", e.CommentID, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

// subtreeRun returns the half-open index range covering the target and its
// rendered descendants: the maximal contiguous run of following nodes
// whose indent level strictly exceeds the target's.
func (v *View) subtreeRun(commentID int) (int, int, error) {
	_, start, ok := v.find(commentID)
	if !ok {
		return 0, 0, ErrCommentNotFound
	}
	level := v.nodes[start].IndentLevel
	end := start + 1
	for end < len(v.nodes) && v.nodes[end].IndentLevel > level {
		end++
	}
	return start, end, nil
}

// DeletePlan lists comment ids in cascade order: rendered descendants in
// document order, the target itself last.
func (v *View) DeletePlan(commentID int) ([]int, error) {
	start, end, err := v.subtreeRun(commentID)
	if err != nil {
		return nil, err
	}
	plan := make([]int, 0, end-start)
	for i := start + 1; i < end; i++ {
		plan = append(plan, v.nodes[i].CommentID)
	}
	plan = append(plan, v.nodes[start].CommentID)
	return plan, nil
}

// CascadeDelete removes the target and every rendered descendant from the
// view and issues one storage delete per member, descendants first and the
// target last. Individual delete failures are collected, not fatal: the
// walk continues and the nodes still leave the view. Returns the removed
// ids in deletion order plus any per-member failures.
func (v *View) CascadeDelete(ctx context.Context, d Deleter, commentID int) ([]int, []error) {
	start, end, err := v.subtreeRun(commentID)
	if err != nil {
		return nil, []error{err}
	}

	var removed []int
	var errs []error
	remove := func(id int) {
		if err := d.DeleteComment(ctx, id); err != nil {
			errs = append(errs, &DeleteError{CommentID: id, Err: err})
		}
		removed = append(removed, id)
	}
	for i := start + 1; i < end; i++ {
		remove(v.nodes[i].CommentID)
	}
	remove(v.nodes[start].CommentID)

	v.nodes = append(v.nodes[:start], v.nodes[end:]...)
	v.afterDelete()
	return removed, errs
}

// afterDelete applies the post-delete slot rule: an empty unlocked thread
// shows the composer in compose-new state, an empty locked thread shows
// nothing, and a non-empty thread falls back to the main reply affordance
// with the slot closed.
func (v *View) afterDelete() {
	v.restoreHidden()
	if len(v.nodes) == 0 && !v.Locked {
		v.composer = Composer{Mode: ComposerNew}
		return
	}
	v.composer = Composer{}
}

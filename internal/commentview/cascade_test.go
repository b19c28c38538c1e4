package commentview

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type fakeDeleter struct {
	calls  []int
	failOn map[int]bool
}

func (d *fakeDeleter) DeleteComment(_ context.Context, id int) error {
	d.calls = append(d.calls, id)
	if d.failOn[id] {
		return fmt.Errorf("backend refused %d", id)
	}
	return nil
}

// deep builds: 1(0), 2(1), 3(2), 4(1), 5(0)
func deep(t *testing.T) *View {
	t.Helper()
	return buildView(t, 0,
		rec(1, 0, 1, t0.Add(time.Minute)),
		rec(2, 1, 1, t0.Add(2*time.Minute)),
		rec(3, 2, 1, t0.Add(3*time.Minute)),
		rec(4, 1, 1, t0.Add(time.Minute)),
		rec(5, 0, 1, t0),
	)
}

func TestDeletePlanOrder(t *testing.T) {
	v := deep(t)
	plan, err := v.DeletePlan(1)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	// Descendants in document order, target last.
	want := []int{2, 3, 4, 1}
	if len(plan) != len(want) {
		t.Fatalf("expected plan %v, got %v", want, plan)
	}
	for i := range want {
		if plan[i] != want[i] {
			t.Fatalf("expected plan %v, got %v", want, plan)
		}
	}
}

func TestCascadeStopsAtShallowerSibling(t *testing.T) {
	v := deep(t)
	d := &fakeDeleter{}
	removed, errs := v.CascadeDelete(context.Background(), d, 2)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	// Subtree of 2 is exactly {3}: comment 4 sits at the same level as 2
	// and must survive.
	if len(removed) != 2 || removed[0] != 3 || removed[1] != 2 {
		t.Fatalf("expected removal [3 2], got %v", removed)
	}
	left := []int{1, 4, 5}
	if v.Len() != len(left) {
		t.Fatalf("expected %d nodes left, got %d", len(left), v.Len())
	}
	for i, n := range v.Nodes() {
		if n.CommentID != left[i] {
			t.Fatalf("expected remaining %v, got node %d at %d", left, n.CommentID, i)
		}
	}
}

func TestCascadeContinuesPastFailures(t *testing.T) {
	v := deep(t)
	d := &fakeDeleter{failOn: map[int]bool{3: true}}
	removed, errs := v.CascadeDelete(context.Background(), d, 1)

	// The failed member still leaves the view and the walk keeps going.
	if len(removed) != 4 {
		t.Fatalf("expected 4 removals, got %v", removed)
	}
	if len(d.calls) != 4 {
		t.Fatalf("expected 4 backend calls, got %v", d.calls)
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 failure, got %v", errs)
	}
	var de *DeleteError
	if !errors.As(errs[0], &de) || de.CommentID != 3 {
		t.Fatalf("expected DeleteError for comment 3, got %v", errs[0])
	}
	if v.Len() != 1 || v.Nodes()[0].CommentID != 5 {
		t.Fatalf("expected only comment 5 left, got %d nodes", v.Len())
	}
}

func TestCascadeEmptyThreadShowsComposer(t *testing.T) {
	v := buildView(t, 0, rec(1, 0, 1, t0), rec(2, 1, 1, t0.Add(time.Second)))
	if _, errs := v.CascadeDelete(context.Background(), &fakeDeleter{}, 1); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if v.Len() != 0 {
		t.Fatalf("expected empty view, got %d nodes", v.Len())
	}
	if c := v.Composer(); c.Mode != ComposerNew {
		t.Fatalf("empty unlocked thread should offer compose-new, got mode %d", c.Mode)
	}
}

func TestCascadeEmptyLockedThreadHidesComposer(t *testing.T) {
	v := buildView(t, 0, rec(1, 0, 1, t0))
	v.Locked = true
	v.CascadeDelete(context.Background(), &fakeDeleter{}, 1)
	if v.Composer().Visible() {
		t.Fatal("locked empty thread should hide the composer")
	}
}

func TestCascadeUnknownComment(t *testing.T) {
	v := deep(t)
	d := &fakeDeleter{}
	removed, errs := v.CascadeDelete(context.Background(), d, 99)
	if removed != nil || len(d.calls) != 0 {
		t.Fatal("nothing should be deleted for an unknown comment")
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrCommentNotFound) {
		t.Fatalf("expected ErrCommentNotFound, got %v", errs)
	}
}

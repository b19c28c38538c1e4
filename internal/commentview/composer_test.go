package commentview

import (
	"errors"
	"testing"
	"time"
)

func forest(t *testing.T) *View {
	t.Helper()
	return buildView(t, 0,
		rec(1, 0, 1, t0.Add(3*time.Minute)),
		rec(2, 1, 1, t0.Add(4*time.Minute)),
		rec(3, 2, 1, t0.Add(5*time.Minute)),
		rec(4, 0, 1, t0),
	)
	// Document order: 1(0), 2(1), 3(2), 4(0)
}

func TestOpenComposerNew(t *testing.T) {
	v := forest(t)
	if err := v.OpenComposer(); err != nil {
		t.Fatalf("open composer: %v", err)
	}
	c := v.Composer()
	if c.Mode != ComposerNew || c.Index != 0 || c.IndentLevel != 0 || c.ParentCommentID != nil {
		t.Fatalf("unexpected compose-new placement: %+v", c)
	}
}

func TestOpenReplyPlacesSlotAfterTarget(t *testing.T) {
	v := forest(t)
	if err := v.OpenReply(2); err != nil {
		t.Fatalf("open reply: %v", err)
	}
	c := v.Composer()
	if c.Mode != ComposerReply || c.CommentID != 2 {
		t.Fatalf("unexpected mode/target: %+v", c)
	}
	// Comment 2 sits at index 1 with indent 1; slot goes right after it,
	// one level deeper.
	if c.Index != 2 || c.IndentLevel != 2 {
		t.Fatalf("expected index 2 indent 2, got index %d indent %d", c.Index, c.IndentLevel)
	}
	if c.ParentCommentID == nil || *c.ParentCommentID != 2 {
		t.Fatalf("expected parent 2, got %v", c.ParentCommentID)
	}
}

func TestOpenReplyToLastComment(t *testing.T) {
	v := forest(t)
	if err := v.OpenReply(4); err != nil {
		t.Fatalf("open reply: %v", err)
	}
	if c := v.Composer(); c.Index != v.Len() {
		t.Fatalf("slot after last comment should append, got index %d of %d", c.Index, v.Len())
	}
}

func TestOpenEditHidesTarget(t *testing.T) {
	v := forest(t)
	if err := v.OpenEdit(3); err != nil {
		t.Fatalf("open edit: %v", err)
	}
	c := v.Composer()
	if !c.Editing() || c.Index != 2 || c.IndentLevel != 2 || c.Text != "c" {
		t.Fatalf("unexpected edit placement: %+v", c)
	}
	if c.ParentCommentID == nil || *c.ParentCommentID != 2 {
		t.Fatalf("edit slot should inherit parent 2, got %v", c.ParentCommentID)
	}
	if n, _, _ := v.find(3); !n.Hidden {
		t.Fatal("edited comment should be hidden, not removed")
	}

	// Starting an edit elsewhere restores the previous target: at most one
	// comment is ever hidden.
	if err := v.OpenEdit(1); err != nil {
		t.Fatalf("open second edit: %v", err)
	}
	hidden := 0
	for _, n := range v.Nodes() {
		if n.Hidden {
			hidden++
		}
	}
	if hidden != 1 {
		t.Fatalf("expected exactly 1 hidden node, got %d", hidden)
	}
	if n, _, _ := v.find(3); n.Hidden {
		t.Fatal("previous edit target should be visible again")
	}
}

func TestCloseComposerRestoresHidden(t *testing.T) {
	v := forest(t)
	_ = v.OpenEdit(2)
	v.CloseComposer()
	if v.Composer().Visible() {
		t.Fatal("composer should be hidden after close")
	}
	for _, n := range v.Nodes() {
		if n.Hidden {
			t.Fatalf("comment %d still hidden after close", n.CommentID)
		}
	}
}

func TestComposerRefusedWhenLocked(t *testing.T) {
	v := forest(t)
	v.Locked = true
	for name, err := range map[string]error{
		"new":   v.OpenComposer(),
		"reply": v.OpenReply(1),
		"edit":  v.OpenEdit(1),
	} {
		if !errors.Is(err, ErrThreadLocked) {
			t.Errorf("%s on locked thread: expected ErrThreadLocked, got %v", name, err)
		}
	}
	if v.ShowReplyAffordances() {
		t.Fatal("locked thread should hide reply affordances")
	}
}

func TestOpenReplyUnknownComment(t *testing.T) {
	v := forest(t)
	if err := v.OpenReply(42); !errors.Is(err, ErrCommentNotFound) {
		t.Fatalf("expected ErrCommentNotFound, got %v", err)
	}
}

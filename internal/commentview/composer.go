package commentview

type ComposerMode int

const (
	ComposerHidden ComposerMode = iota
	ComposerNew                 // composing a top-level comment
	ComposerReply               // replying to an existing comment
	ComposerEdit                // editing an existing comment
)

// Composer is the single reusable input region. Relocating it is how
// "replying to X" vs "editing Y" is represented; there is never a second
// slot. Index is its document position: the slot renders before
// nodes[Index], or at the end when Index equals the node count.
type Composer struct {
	Mode            ComposerMode
	CommentID       int  // comment replied to or edited; 0 for compose-new
	ParentCommentID *int // logical parent of the submitted comment
	IndentLevel     int
	Index           int
	Text            string
}

func (c Composer) Visible() bool { return c.Mode != ComposerHidden }
func (c Composer) Editing() bool { return c.Mode == ComposerEdit }

// IndentPx is the slot's horizontal offset in pixels.
func (c Composer) IndentPx() int { return c.IndentLevel * IndentUnit }

// Composer returns the slot's current placement.
func (v *View) Composer() Composer { return v.composer }

// OpenComposer places the slot first, at indent 0, for a new top-level
// comment. Any comment hidden by a previous edit becomes visible again.
func (v *View) OpenComposer() error {
	if v.Locked {
		return ErrThreadLocked
	}
	v.restoreHidden()
	v.composer = Composer{Mode: ComposerNew}
	return nil
}

// OpenReply places the slot immediately after the target comment, one
// indent level deeper, with the target as the logical parent.
func (v *View) OpenReply(commentID int) error {
	if v.Locked {
		return ErrThreadLocked
	}
	v.restoreHidden()
	n, idx, ok := v.find(commentID)
	if !ok {
		return ErrCommentNotFound
	}
	parent := commentID
	v.composer = Composer{
		Mode:            ComposerReply,
		CommentID:       commentID,
		ParentCommentID: &parent,
		IndentLevel:     n.IndentLevel + 1,
		Index:           idx + 1,
	}
	return nil
}

// OpenEdit places the slot at the target's own position, inheriting its
// parent and indent, pre-filled with its content. The target is hidden,
// not removed, for the duration of the edit; restoreHidden on the next
// slot action guarantees at most one comment is hidden at a time.
func (v *View) OpenEdit(commentID int) error {
	if v.Locked {
		return ErrThreadLocked
	}
	v.restoreHidden()
	n, idx, ok := v.find(commentID)
	if !ok {
		return ErrCommentNotFound
	}
	n.Hidden = true
	v.composer = Composer{
		Mode:            ComposerEdit,
		CommentID:       commentID,
		ParentCommentID: n.ParentCommentID,
		IndentLevel:     n.IndentLevel,
		Index:           idx,
		Text:            n.Content,
	}
	return nil
}

// CloseComposer hides the slot and restores any hidden comment.
func (v *View) CloseComposer() {
	v.restoreHidden()
	v.composer = Composer{}
}

func (v *View) restoreHidden() {
	for _, n := range v.nodes {
		n.Hidden = false
	}
}

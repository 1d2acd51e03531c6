package views

import (
	"sort"
	"strings"
	"time"

	"github.com/tgienger/taskflow/internal/models"
	"github.com/tgienger/taskflow/internal/optimistic"
)

// CommentThread is the optimistic comment list of one task. At most one
// submission is in flight at a time.
type CommentThread struct {
	TaskID string

	comments *optimistic.Collection[models.Comment]
	pending  *optimistic.Pending[models.Comment]
	draft    string
}

// NewCommentThread creates an empty thread for taskID
func NewCommentThread(taskID string) *CommentThread {
	return &CommentThread{
		TaskID:   taskID,
		comments: optimistic.New(func(c models.Comment) string { return c.ID }),
	}
}

// Load replaces the thread with a server listing, newest first
func (t *CommentThread) Load(cs []models.Comment) {
	sorted := append([]models.Comment(nil), cs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	t.comments.Reset(sorted)
}

// Comments returns the thread, newest first
func (t *CommentThread) Comments() []models.Comment {
	return t.comments.Items()
}

// Submitting reports whether a comment is awaiting the server
func (t *CommentThread) Submitting() bool {
	return t.pending != nil
}

// PendingID is the temp id of the submission in flight, or ""
func (t *CommentThread) PendingID() string {
	if t.pending == nil {
		return ""
	}
	return t.pending.ID
}

// Submit inserts a temp comment at the head. It refuses blank text and a
// second submission while one is in flight. The comment carries the
// trimmed text; the typed text is kept as the draft.
func (t *CommentThread) Submit(typed, author string, now time.Time) (models.Comment, bool) {
	text := strings.TrimSpace(typed)
	if text == "" || t.pending != nil {
		return models.Comment{}, false
	}
	var c models.Comment
	t.pending = t.comments.AddTemp(func(id string) models.Comment {
		c = models.Comment{
			ID:        id,
			TaskID:    t.TaskID,
			Text:      text,
			CreatedBy: author,
			CreatedAt: now,
			IsTemp:    true,
		}
		return c
	}, true)
	t.draft = typed
	return c, true
}

// Succeeded swaps the temp comment for the server record. A nil record
// keeps the local one and clears its temp mark.
func (t *CommentThread) Succeeded(server *models.Comment) {
	p := t.pending
	if p == nil {
		return
	}
	t.pending, t.draft = nil, ""
	if server == nil {
		t.comments.Update(p.ID, func(c *models.Comment) { c.IsTemp = false })
		return
	}
	c := *server
	c.IsTemp = false
	if c.TaskID == "" {
		c.TaskID = t.TaskID
	}
	t.comments.Confirm(p, &c)
}

// Failed removes the temp comment and returns the text to restore
func (t *CommentThread) Failed() string {
	p := t.pending
	if p == nil {
		return ""
	}
	draft := t.draft
	t.pending, t.draft = nil, ""
	t.comments.Rollback(p)
	return draft
}

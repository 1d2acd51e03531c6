package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/taskflow/internal/models"
)

func TestCommentThreadLoadNewestFirst(t *testing.T) {
	th := NewCommentThread("t1")
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	th.Load([]models.Comment{
		{ID: "a", Text: "old", CreatedAt: base},
		{ID: "b", Text: "new", CreatedAt: base.Add(time.Hour)},
	})
	cs := th.Comments()
	require.Len(t, cs, 2)
	assert.Equal(t, "b", cs[0].ID)
}

func TestCommentThreadSubmitSuccess(t *testing.T) {
	th := NewCommentThread("t1")
	th.Load([]models.Comment{{ID: "a", Text: "first"}})

	temp, ok := th.Submit("  hello  ", "Ada", time.Now())
	require.True(t, ok)
	assert.True(t, temp.IsTemp)
	assert.Equal(t, "hello", temp.Text)
	assert.True(t, th.Submitting())

	_, again := th.Submit("second", "Ada", time.Now())
	assert.False(t, again, "one submission in flight at a time")

	th.Succeeded(&models.Comment{ID: "c9", Text: "hello", CreatedBy: "Ada"})
	cs := th.Comments()
	require.Len(t, cs, 2)
	assert.Equal(t, "c9", cs[0].ID)
	assert.False(t, cs[0].IsTemp)
	assert.Equal(t, "t1", cs[0].TaskID)
	assert.False(t, th.Submitting())
}

func TestCommentThreadSubmitFailureRestoresDraft(t *testing.T) {
	th := NewCommentThread("t1")
	th.Load([]models.Comment{{ID: "a"}, {ID: "b"}})

	temp, ok := th.Submit(" rejected text\n", "Ada", time.Now())
	require.True(t, ok)
	assert.Equal(t, "rejected text", temp.Text)
	assert.Equal(t, temp.ID, th.PendingID())
	assert.Len(t, th.Comments(), 3)

	assert.Equal(t, " rejected text\n", th.Failed())
	assert.Empty(t, th.PendingID())
	assert.Len(t, th.Comments(), 2)
	assert.False(t, th.Submitting())
}

func TestCommentThreadBlankIgnored(t *testing.T) {
	th := NewCommentThread("t1")
	_, ok := th.Submit("   ", "Ada", time.Now())
	assert.False(t, ok)
	assert.Empty(t, th.Comments())
	assert.Empty(t, th.Failed())
}

func TestCommentThreadNilServerRecord(t *testing.T) {
	th := NewCommentThread("t1")
	temp, _ := th.Submit("x", "Ada", time.Now())
	th.Succeeded(nil)
	cs := th.Comments()
	require.Len(t, cs, 1)
	assert.Equal(t, temp.ID, cs[0].ID)
	assert.False(t, cs[0].IsTemp)
}

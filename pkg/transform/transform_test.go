package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maguenza/hackernews-ai-project/pkg/hnclient"
)

func TestTransformStory(t *testing.T) {
	raw := &hnclient.Item{
		ID:          8863,
		Type:        "story",
		By:          "dhouston",
		Time:        1175714200,
		Title:       "My YC app: Dropbox - Throw away your USB drive",
		URL:         "http://www.getdropbox.com/u/2/screencast.html",
		Score:       104,
		Descendants: 71,
	}

	rec, err := Transform(raw)
	require.NoError(t, err)
	require.Equal(t, KindStory, rec.Kind())

	story, ok := rec.(Story)
	require.True(t, ok)
	assert.Equal(t, int64(8863), story.ID)
	assert.Equal(t, "dhouston", story.AuthorID)
	assert.Equal(t, 104, story.Score)
	assert.Equal(t, time.Unix(1175714200, 0).UTC(), story.CreatedAt)
	assert.Equal(t, time.UTC, story.CreatedAt.Location())
}

func TestTransformComment(t *testing.T) {
	raw := &hnclient.Item{
		ID:     9224,
		Type:   "comment",
		By:     "norvig",
		Time:   1175714400,
		Text:   "Looks great!",
		Parent: 8863,
	}

	rec, err := Transform(raw)
	require.NoError(t, err)

	c, ok := rec.(Comment)
	require.True(t, ok)
	assert.Equal(t, int64(8863), c.StoryID)
	assert.Nil(t, c.ParentID)
}

func TestTransformRejectReasons(t *testing.T) {
	base := func() *hnclient.Item {
		return &hnclient.Item{
			ID:    1,
			Type:  "story",
			By:    "pg",
			Time:  1160418111,
			Title: "Y Combinator",
		}
	}

	tests := []struct {
		name   string
		mutate func(*hnclient.Item)
		reason string
	}{
		{"poll type", func(i *hnclient.Item) { i.Type = "poll" }, "unsupported_kind"},
		{"pollopt type", func(i *hnclient.Item) { i.Type = "pollopt" }, "unsupported_kind"},
		{"empty type", func(i *hnclient.Item) { i.Type = "" }, "unsupported_kind"},
		{"no title", func(i *hnclient.Item) { i.Title = "" }, "missing_field:title"},
		{"no author", func(i *hnclient.Item) { i.By = "" }, "missing_field:by"},
		{"no time", func(i *hnclient.Item) { i.Time = 0 }, "missing_field:time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := base()
			tt.mutate(raw)
			_, err := Transform(raw)
			var rej *RejectError
			require.ErrorAs(t, err, &rej)
			assert.Equal(t, tt.reason, rej.Reason)

			// The same input always maps to the same reason.
			_, err2 := Transform(raw)
			var rej2 *RejectError
			require.ErrorAs(t, err2, &rej2)
			assert.Equal(t, rej.Reason, rej2.Reason)
		})
	}
}

func TestTransformCommentMissingParent(t *testing.T) {
	raw := &hnclient.Item{
		ID:   2,
		Type: "comment",
		By:   "pg",
		Time: 1160418111,
		Text: "orphaned",
	}
	_, err := Transform(raw)
	var rej *RejectError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, "missing_field:parent", rej.Reason)
}

func TestTransformDeletedStoryKept(t *testing.T) {
	raw := &hnclient.Item{
		ID:      3,
		Type:    "story",
		Time:    1160418111,
		Deleted: true,
	}
	rec, err := Transform(raw)
	require.NoError(t, err)

	story := rec.(Story)
	assert.True(t, story.Deleted)
	assert.Equal(t, "[deleted]", story.AuthorID)
}

func TestTransformUser(t *testing.T) {
	u, err := TransformUser(&hnclient.User{
		ID:      "pg",
		Created: 1160418092,
		Karma:   155111,
		About:   "Bug fixer.",
	})
	require.NoError(t, err)
	assert.Equal(t, "pg", u.Username)
	assert.Equal(t, 155111, u.Karma)
	assert.False(t, u.Placeholder)
}

func TestTransformUserNegativeKarmaClamped(t *testing.T) {
	u, err := TransformUser(&hnclient.User{ID: "troll", Created: 1160418092, Karma: -50})
	require.NoError(t, err)
	assert.Equal(t, 0, u.Karma)
}

func TestPlaceholderUser(t *testing.T) {
	now := time.Now()
	u := PlaceholderUser("dhouston", now)
	assert.True(t, u.Placeholder)
	assert.Equal(t, "dhouston", u.ID)
	assert.Equal(t, now.UTC(), u.CreatedAt)
}

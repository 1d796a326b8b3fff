package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maguenza/hackernews-ai-project/pkg/transform"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testStory(id int64, author, title string, score int) transform.Story {
	return transform.Story{
		ID:        id,
		Title:     title,
		URL:       "https://example.com",
		Score:     score,
		AuthorID:  author,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
}

func testComment(id, parent int64, author, text string) transform.Comment {
	return transform.Comment{
		ID:        id,
		Text:      text,
		AuthorID:  author,
		StoryID:   parent,
		CreatedAt: time.Now().UTC(),
	}
}

func TestStoryUpsertIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	story := testStory(8863, "dhouston", "My YC app: Dropbox - Throw away your USB drive", 104)
	res, err := s.Load(ctx, story)
	require.NoError(t, err)
	assert.Equal(t, LoadInserted, res)

	// Same story again with a fresh score and a mangled title.
	story.Score = 111
	story.Title = "changed title"
	res, err = s.Load(ctx, story)
	require.NoError(t, err)
	assert.Equal(t, LoadUpdated, res)

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["stories"])

	got, err := s.GetStory(ctx, 8863)
	require.NoError(t, err)
	assert.Equal(t, 111, got.Score)
	// Title is immutable after first load.
	assert.Equal(t, "My YC app: Dropbox - Throw away your USB drive", got.Title)
}

func TestPlaceholderAuthorBackfill(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Load(ctx, testStory(1, "dhouston", "Some story", 10))
	require.NoError(t, err)

	names, err := s.ListPlaceholderUsers(ctx, 10)
	require.NoError(t, err)
	assert.Contains(t, names, "dhouston")

	// Backfill the full profile.
	res, err := s.Load(ctx, transform.User{
		ID:        "dhouston",
		Username:  "dhouston",
		CreatedAt: time.Unix(1175713200, 0).UTC(),
		Karma:     4562,
	})
	require.NoError(t, err)
	assert.Equal(t, LoadUpdated, res)

	names, err = s.ListPlaceholderUsers(ctx, 10)
	require.NoError(t, err)
	assert.NotContains(t, names, "dhouston")

	info, err := s.UserInfo(ctx, "dhouston")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, 4562, info.Karma)
	assert.Equal(t, 1, info.StoryCount)
}

func TestPlaceholderUsersIn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Load(ctx, testStory(1, "pending1", "One", 1))
	require.NoError(t, err)
	_, err = s.Load(ctx, testStory(2, "pending2", "Two", 1))
	require.NoError(t, err)
	_, err = s.Load(ctx, transform.User{
		ID:        "settled",
		Username:  "settled",
		CreatedAt: time.Unix(1175713200, 0).UTC(),
		Karma:     7,
	})
	require.NoError(t, err)

	got, err := s.PlaceholderUsersIn(ctx, []string{"pending2", "settled", "pending1", "unknown"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pending1", "pending2"}, got)

	got, err = s.PlaceholderUsersIn(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCommentParentResolution(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Load(ctx, testStory(100, "pg", "Launch thread", 50))
	require.NoError(t, err)

	// Top-level comment: parent is the story, parent_id stays null.
	res, err := s.Load(ctx, testComment(101, 100, "norvig", "congrats"))
	require.NoError(t, err)
	assert.Equal(t, LoadInserted, res)

	top, err := s.GetComment(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, int64(100), top.StoryID)
	assert.Nil(t, top.ParentID)

	// Reply: parent is another comment, story resolved through it.
	_, err = s.Load(ctx, testComment(102, 101, "pg", "thanks"))
	require.NoError(t, err)

	reply, err := s.GetComment(ctx, 102)
	require.NoError(t, err)
	assert.Equal(t, int64(100), reply.StoryID)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, int64(101), *reply.ParentID)
}

func TestCommentParentUnresolved(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Load(context.Background(), testComment(201, 999, "orphan", "early"))
	assert.ErrorIs(t, err, ErrParentUnresolved)
}

func TestCommentParentStoryMismatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Load(ctx, testStory(300, "a", "Story A", 1))
	require.NoError(t, err)
	_, err = s.Load(ctx, testStory(400, "b", "Story B", 1))
	require.NoError(t, err)

	_, err = s.Load(ctx, testComment(301, 300, "c", "on A"))
	require.NoError(t, err)

	// Same comment id re-arrives claiming story B as parent.
	_, err = s.Load(ctx, testComment(301, 400, "c", "on A"))
	assert.ErrorIs(t, err, ErrParentStoryMismatch)
}

func TestCommentReloadRefreshesFlags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Load(ctx, testStory(500, "a", "Story", 1))
	require.NoError(t, err)

	c := testComment(501, 500, "b", "hot take")
	_, err = s.Load(ctx, c)
	require.NoError(t, err)

	c.Dead = true
	res, err := s.Load(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, LoadUpdated, res)

	got, err := s.GetComment(ctx, 501)
	require.NoError(t, err)
	assert.True(t, got.Dead)
}

func TestHighWaterMark(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	hwm, err := s.HighWaterMark(ctx, "ingest")
	require.NoError(t, err)
	assert.Equal(t, int64(0), hwm)

	require.NoError(t, s.SetHighWaterMark(ctx, "ingest", 8863))
	require.NoError(t, s.SetHighWaterMark(ctx, "ingest", 9000))

	hwm, err = s.HighWaterMark(ctx, "ingest")
	require.NoError(t, err)
	assert.Equal(t, int64(9000), hwm)
}

func TestSearchStories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Load(ctx, testStory(1, "a", "Rust rewrite of the Linux kernel", 300))
	require.NoError(t, err)
	_, err = s.Load(ctx, testStory(2, "b", "Why Rust is hard", 50))
	require.NoError(t, err)
	_, err = s.Load(ctx, testStory(3, "c", "Go 1.25 released", 200))
	require.NoError(t, err)

	dead := testStory(4, "d", "Rust spam", 999)
	dead.Dead = true
	_, err = s.Load(ctx, dead)
	require.NoError(t, err)

	got, err := s.SearchStories(ctx, SearchStoriesOpts{Query: "rust"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Ordered by score, dead rows excluded.
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)

	got, err = s.SearchStories(ctx, SearchStoriesOpts{Query: "rust", MinScore: 100})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}

func TestSearchJobs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Load(ctx, transform.Job{
		ID: 10, Title: "Acme (YC W12) is hiring engineers", AuthorID: "acme",
		CreatedAt: time.Now().UTC(), JobType: "full-time", Location: "san francisco",
	})
	require.NoError(t, err)
	_, err = s.Load(ctx, transform.Job{
		ID: 11, Title: "Globex hiring remote Go developers", AuthorID: "globex",
		CreatedAt: time.Now().UTC(), JobType: "remote", Location: "remote",
	})
	require.NoError(t, err)

	got, err := s.SearchJobs(ctx, SearchJobsOpts{Query: "hiring", Location: "san francisco"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(10), got[0].ID)

	got, err = s.SearchJobs(ctx, SearchJobsOpts{JobType: "remote"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(11), got[0].ID)
}

func TestUserInfoUnknown(t *testing.T) {
	s := newTestStore(t)

	info, err := s.UserInfo(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestTrendingTopics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Load(ctx, testStory(1, "a", "Rust for embedded systems", 10))
	require.NoError(t, err)
	_, err = s.Load(ctx, testStory(2, "b", "Rust in production", 20))
	require.NoError(t, err)
	_, err = s.Load(ctx, testStory(3, "c", "Show HN: Kubernetes dashboard", 5))
	require.NoError(t, err)

	topics, err := s.TrendingTopics(ctx, time.Now().UTC().Add(-24*time.Hour), 10)
	require.NoError(t, err)
	require.NotEmpty(t, topics)
	assert.Equal(t, "rust", topics[0].Topic)
	assert.Equal(t, 2, topics[0].StoryCount)
	assert.Equal(t, 30, topics[0].TotalScore)

	// Stopwords never surface as topics.
	for _, tc := range topics {
		assert.NotEqual(t, "hn", tc.Topic)
		assert.NotEqual(t, "show", tc.Topic)
		assert.NotEqual(t, "for", tc.Topic)
	}
}

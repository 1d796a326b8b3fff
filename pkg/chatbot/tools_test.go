package chatbot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maguenza/hackernews-ai-project/internal/store"
	"github.com/maguenza/hackernews-ai-project/pkg/transform"
)

func seededStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	now := time.Now().UTC()

	_, err = s.Load(ctx, transform.Story{
		ID: 1, Title: "Rust in the kernel", Score: 250, AuthorID: "pg", CreatedAt: now.Add(-2 * time.Hour),
	})
	require.NoError(t, err)
	_, err = s.Load(ctx, transform.Story{
		ID: 2, Title: "Ask HN: favorite editor?", Score: 40, AuthorID: "norvig", CreatedAt: now.Add(-time.Hour),
	})
	require.NoError(t, err)
	_, err = s.Load(ctx, transform.Job{
		ID: 3, Title: "Acme is hiring Go engineers", AuthorID: "acme", CreatedAt: now,
		JobType: "remote", Location: "remote",
	})
	require.NoError(t, err)
	_, err = s.Load(ctx, transform.User{
		ID: "pg", Username: "pg", CreatedAt: now.Add(-48 * time.Hour), Karma: 155111,
	})
	require.NoError(t, err)
	return s
}

func findTool(t *testing.T, tools []Tool, name string) Tool {
	t.Helper()
	for _, tool := range tools {
		if tool.Name == name {
			return tool
		}
	}
	t.Fatalf("tool %s not registered", name)
	return Tool{}
}

func TestToolNames(t *testing.T) {
	tools := NewTools(seededStore(t))
	var names []string
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"search_stories", "search_jobs", "get_top_stories", "get_user_info", "get_trending_topics",
	}, names)
}

func TestSearchStoriesTool(t *testing.T) {
	tools := NewTools(seededStore(t))
	tool := findTool(t, tools, "search_stories")

	out, err := tool.Run(context.Background(), map[string]any{"query": "rust"})
	require.NoError(t, err)
	assert.Contains(t, out, "Rust in the kernel")
	assert.Contains(t, out, "Score: 250")

	out, err = tool.Run(context.Background(), map[string]any{"query": "cobol"})
	require.NoError(t, err)
	assert.Contains(t, out, "No stories found")
}

func TestSearchStoriesToolNumericArgs(t *testing.T) {
	tools := NewTools(seededStore(t))
	tool := findTool(t, tools, "search_stories")

	// JSON decoding hands integers over as float64.
	out, err := tool.Run(context.Background(), map[string]any{
		"query":     "rust",
		"min_score": float64(100),
		"limit":     float64(5),
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 stories")
}

func TestSearchJobsTool(t *testing.T) {
	tools := NewTools(seededStore(t))
	tool := findTool(t, tools, "search_jobs")

	out, err := tool.Run(context.Background(), map[string]any{"query": "go", "job_type": "remote"})
	require.NoError(t, err)
	assert.Contains(t, out, "Acme is hiring Go engineers")
	assert.Contains(t, out, "remote")
}

func TestTopStoriesTool(t *testing.T) {
	tools := NewTools(seededStore(t))
	tool := findTool(t, tools, "get_top_stories")

	out, err := tool.Run(context.Background(), map[string]any{"limit": float64(1)})
	require.NoError(t, err)
	assert.Contains(t, out, "1. Rust in the kernel")
	assert.NotContains(t, out, "favorite editor")
}

func TestUserInfoTool(t *testing.T) {
	tools := NewTools(seededStore(t))
	tool := findTool(t, tools, "get_user_info")

	out, err := tool.Run(context.Background(), map[string]any{"username": "pg"})
	require.NoError(t, err)
	assert.Contains(t, out, "Karma: 155111")
	assert.Contains(t, out, "Stories posted: 1")

	out, err = tool.Run(context.Background(), map[string]any{"username": "nobody"})
	require.NoError(t, err)
	assert.Contains(t, out, "not found")

	_, err = tool.Run(context.Background(), map[string]any{})
	assert.Error(t, err)
}

func TestTrendingTopicsTool(t *testing.T) {
	tools := NewTools(seededStore(t))
	tool := findTool(t, tools, "get_trending_topics")

	out, err := tool.Run(context.Background(), map[string]any{"days_back": float64(7)})
	require.NoError(t, err)
	assert.Contains(t, out, "Trending topics")
	assert.Contains(t, out, "rust")
}

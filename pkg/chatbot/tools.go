package chatbot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/maguenza/hackernews-ai-project/internal/store"
)

// ToolSpec describes one tool to the model. Parameters is a JSON Schema
// object.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Tool bridges one model-invocable operation to the query layer.
type Tool struct {
	ToolSpec
	Run func(ctx context.Context, args map[string]any) (string, error)
}

// NewTools builds the toolset over the store's read-only query layer.
func NewTools(st store.Store) []Tool {
	return []Tool{
		searchStoriesTool(st),
		searchJobsTool(st),
		topStoriesTool(st),
		userInfoTool(st),
		trendingTopicsTool(st),
	}
}

func searchStoriesTool(st store.Store) Tool {
	return Tool{
		ToolSpec: ToolSpec{
			Name:        "search_stories",
			Description: "Search for HackerNews stories by keywords in title or content. Use query (string) for search terms, limit (integer) for number of results, min_score (integer) for minimum score, days_back (integer) for time period",
			Parameters: objectSchema(map[string]any{
				"query":     map[string]any{"type": "string", "description": "Search query for story titles and content"},
				"limit":     map[string]any{"type": "integer", "description": "Maximum number of results to return"},
				"min_score": map[string]any{"type": "integer", "description": "Minimum story score"},
				"days_back": map[string]any{"type": "integer", "description": "Number of days back to search"},
			}, "query"),
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			query := argString(args, "query", "")
			stories, err := st.SearchStories(ctx, store.SearchStoriesOpts{
				Query:    query,
				MinScore: argInt(args, "min_score", 0),
				Since:    sinceDays(argInt(args, "days_back", 30)),
				Limit:    argInt(args, "limit", 10),
			})
			if err != nil {
				return "", err
			}
			if len(stories) == 0 {
				return fmt.Sprintf("No stories found matching %q", query), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Found %d stories matching %q:\n\n", len(stories), query)
			for _, s := range stories {
				fmt.Fprintf(&b, "%s\n  Score: %d | Author: %s | Date: %s\n",
					s.Title, s.Score, s.AuthorID, s.CreatedAt.Format("2006-01-02"))
				if s.URL != "" {
					fmt.Fprintf(&b, "  URL: %s\n", s.URL)
				}
				b.WriteString("\n")
			}
			return b.String(), nil
		},
	}
}

func searchJobsTool(st store.Store) Tool {
	return Tool{
		ToolSpec: ToolSpec{
			Name:        "search_jobs",
			Description: "Search for HackerNews job postings by keywords, location, or job type. Use query (string) for search terms, location (string) for location filter, job_type (string: full-time, contract, remote) for job type, limit (integer) for number of results",
			Parameters: objectSchema(map[string]any{
				"query":    map[string]any{"type": "string", "description": "Search query for job titles and descriptions"},
				"location": map[string]any{"type": "string", "description": "Job location filter"},
				"job_type": map[string]any{"type": "string", "description": "Job type: full-time, contract or remote"},
				"limit":    map[string]any{"type": "integer", "description": "Maximum number of results to return"},
			}, "query"),
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			query := argString(args, "query", "")
			jobs, err := st.SearchJobs(ctx, store.SearchJobsOpts{
				Query:    query,
				Location: argString(args, "location", ""),
				JobType:  argString(args, "job_type", ""),
				Limit:    argInt(args, "limit", 10),
			})
			if err != nil {
				return "", err
			}
			if len(jobs) == 0 {
				return fmt.Sprintf("No jobs found matching %q", query), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Found %d jobs matching %q:\n\n", len(jobs), query)
			for _, j := range jobs {
				fmt.Fprintf(&b, "%s\n  Company: %s | Location: %s\n  Type: %s | Posted: %s\n",
					j.Title, orNA(j.Company), orNA(j.Location), orNA(j.JobType),
					j.CreatedAt.Format("2006-01-02"))
				if j.URL != "" {
					fmt.Fprintf(&b, "  URL: %s\n", j.URL)
				}
				b.WriteString("\n")
			}
			return b.String(), nil
		},
	}
}

func topStoriesTool(st store.Store) Tool {
	return Tool{
		ToolSpec: ToolSpec{
			Name:        "get_top_stories",
			Description: "Get the top HackerNews stories by score for a given time period. Use limit (integer) for number of stories and days_back (integer) for time period (e.g., 7 for last week, 30 for last month)",
			Parameters: objectSchema(map[string]any{
				"limit":     map[string]any{"type": "integer", "description": "Number of top stories to return"},
				"days_back": map[string]any{"type": "integer", "description": "Number of days back to consider"},
			}),
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			daysBack := argInt(args, "days_back", 7)
			stories, err := st.TopStories(ctx, sinceDays(daysBack), argInt(args, "limit", 10))
			if err != nil {
				return "", err
			}
			if len(stories) == 0 {
				return fmt.Sprintf("No stories found in the last %d days", daysBack), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Top %d stories in the last %d days:\n\n", len(stories), daysBack)
			for i, s := range stories {
				fmt.Fprintf(&b, "%d. %s\n   Score: %d | Author: %s | Date: %s\n",
					i+1, s.Title, s.Score, s.AuthorID, s.CreatedAt.Format("2006-01-02"))
				if s.URL != "" {
					fmt.Fprintf(&b, "   URL: %s\n", s.URL)
				}
				b.WriteString("\n")
			}
			return b.String(), nil
		},
	}
}

func userInfoTool(st store.Store) Tool {
	return Tool{
		ToolSpec: ToolSpec{
			Name:        "get_user_info",
			Description: "Get information about a HackerNews user including karma and activity. Use username (string) for the HackerNews username",
			Parameters: objectSchema(map[string]any{
				"username": map[string]any{"type": "string", "description": "HackerNews username"},
			}, "username"),
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			username := argString(args, "username", "")
			if username == "" {
				return "", fmt.Errorf("username is required")
			}
			info, err := st.UserInfo(ctx, username)
			if err != nil {
				return "", err
			}
			if info == nil {
				return fmt.Sprintf("User %q not found", username), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "User: %s\n  Karma: %d\n  Member since: %s\n  Stories posted: %d\n  Comments made: %d\n",
				info.Username, info.Karma, info.CreatedAt.Format("2006-01-02"),
				info.StoryCount, info.CommentCount)
			if info.About != "" {
				fmt.Fprintf(&b, "  About: %s\n", info.About)
			}
			return b.String(), nil
		},
	}
}

func trendingTopicsTool(st store.Store) Tool {
	return Tool{
		ToolSpec: ToolSpec{
			Name:        "get_trending_topics",
			Description: "Analyze trending topics from recent HackerNews stories. Use limit (integer) for number of topics and days_back (integer) for time period (e.g., 7 for last week, 30 for last month)",
			Parameters: objectSchema(map[string]any{
				"limit":     map[string]any{"type": "integer", "description": "Number of topics to return"},
				"days_back": map[string]any{"type": "integer", "description": "Number of days back to consider"},
			}),
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			daysBack := argInt(args, "days_back", 7)
			topics, err := st.TrendingTopics(ctx, sinceDays(daysBack), argInt(args, "limit", 10))
			if err != nil {
				return "", err
			}
			if len(topics) == 0 {
				return fmt.Sprintf("No trending topics found in the last %d days", daysBack), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Trending topics in the last %d days:\n\n", daysBack)
			for i, t := range topics {
				fmt.Fprintf(&b, "%d. %s (%d stories, total score %d)\n",
					i+1, t.Topic, t.StoryCount, t.TotalScore)
			}
			return b.String(), nil
		},
	}
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func argString(args map[string]any, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}

func argInt(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64: // JSON numbers decode to float64
		return int(v)
	case int:
		return v
	}
	return def
}

func sinceDays(days int) time.Time {
	if days <= 0 {
		return time.Time{}
	}
	return time.Now().UTC().AddDate(0, 0, -days)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

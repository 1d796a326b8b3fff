package store

import (
	"context"
	"fmt"
	"sort"
	"time"
)

const defaultPageLimit = 10

// SearchStoriesOpts controls story search.
type SearchStoriesOpts struct {
	Query    string
	MinScore int
	Since    time.Time
	Limit    int
}

// SearchJobsOpts controls job search.
type SearchJobsOpts struct {
	Query    string
	Location string
	JobType  string
	Limit    int
}

func (s *SQLiteStore) GetStory(ctx context.Context, id int64) (*Story, error) {
	var st Story
	if err := s.db.GetContext(ctx, &st, "SELECT * FROM stories WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("get story %d: %w", id, err)
	}
	return &st, nil
}

func (s *SQLiteStore) GetComment(ctx context.Context, id int64) (*Comment, error) {
	var c Comment
	if err := s.db.GetContext(ctx, &c, "SELECT * FROM comments WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("get comment %d: %w", id, err)
	}
	return &c, nil
}

func (s *SQLiteStore) GetJob(ctx context.Context, id int64) (*Job, error) {
	var j Job
	if err := s.db.GetContext(ctx, &j, "SELECT * FROM jobs WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("get job %d: %w", id, err)
	}
	return &j, nil
}

// SearchStories finds stories by case-insensitive substring over title and
// body, bounded by score threshold and time window.
func (s *SQLiteStore) SearchStories(ctx context.Context, opts SearchStoriesOpts) ([]Story, error) {
	query := "SELECT * FROM stories WHERE deleted = 0 AND dead = 0"
	var args []any

	if opts.Query != "" {
		query += " AND (title LIKE ? COLLATE NOCASE OR text LIKE ? COLLATE NOCASE)"
		pattern := "%" + opts.Query + "%"
		args = append(args, pattern, pattern)
	}
	if opts.MinScore > 0 {
		query += " AND score >= ?"
		args = append(args, opts.MinScore)
	}
	if !opts.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, opts.Since)
	}

	query += " ORDER BY score DESC LIMIT ?"
	args = append(args, pageLimit(opts.Limit))

	var stories []Story
	if err := s.db.SelectContext(ctx, &stories, query, args...); err != nil {
		return nil, fmt.Errorf("search stories: %w", err)
	}
	return stories, nil
}

// SearchJobs finds job postings by keyword, location and job type.
func (s *SQLiteStore) SearchJobs(ctx context.Context, opts SearchJobsOpts) ([]Job, error) {
	query := "SELECT * FROM jobs WHERE deleted = 0 AND dead = 0"
	var args []any

	if opts.Query != "" {
		query += " AND (title LIKE ? COLLATE NOCASE OR text LIKE ? COLLATE NOCASE)"
		pattern := "%" + opts.Query + "%"
		args = append(args, pattern, pattern)
	}
	if opts.Location != "" {
		query += " AND location LIKE ? COLLATE NOCASE"
		args = append(args, "%"+opts.Location+"%")
	}
	if opts.JobType != "" {
		query += " AND job_type LIKE ? COLLATE NOCASE"
		args = append(args, "%"+opts.JobType+"%")
	}

	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, pageLimit(opts.Limit))

	var jobs []Job
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("search jobs: %w", err)
	}
	return jobs, nil
}

// TopStories returns the highest scoring stories created since the cutoff.
func (s *SQLiteStore) TopStories(ctx context.Context, since time.Time, limit int) ([]Story, error) {
	var stories []Story
	err := s.db.SelectContext(ctx, &stories, `
		SELECT * FROM stories
		WHERE deleted = 0 AND dead = 0 AND created_at >= ?
		ORDER BY score DESC LIMIT ?
	`, since, pageLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("top stories: %w", err)
	}
	return stories, nil
}

// UserInfo returns a profile with activity counts, or nil when unknown.
func (s *SQLiteStore) UserInfo(ctx context.Context, username string) (*UserInfo, error) {
	var u User
	err := s.db.GetContext(ctx, &u, "SELECT * FROM users WHERE username = ?", username)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user %s: %w", username, err)
	}

	info := UserInfo{User: u}
	if err := s.db.GetContext(ctx, &info.StoryCount,
		"SELECT COUNT(*) FROM stories WHERE author_id = ?", u.ID); err != nil {
		return nil, fmt.Errorf("count stories for %s: %w", username, err)
	}
	if err := s.db.GetContext(ctx, &info.CommentCount,
		"SELECT COUNT(*) FROM comments WHERE author_id = ?", u.ID); err != nil {
		return nil, fmt.Errorf("count comments for %s: %w", username, err)
	}
	return &info, nil
}

// TrendingTopics aggregates keyword frequency over recent story titles.
func (s *SQLiteStore) TrendingTopics(ctx context.Context, since time.Time, limit int) ([]TopicCount, error) {
	type row struct {
		Title string `db:"title"`
		Score int    `db:"score"`
	}
	var rows []row
	err := s.db.SelectContext(ctx, &rows, `
		SELECT title, score FROM stories
		WHERE deleted = 0 AND dead = 0 AND created_at >= ?
	`, since)
	if err != nil {
		return nil, fmt.Errorf("trending topics: %w", err)
	}

	counts := make(map[string]*TopicCount)
	for _, r := range rows {
		for _, token := range significantTokens(r.Title) {
			tc, ok := counts[token]
			if !ok {
				tc = &TopicCount{Topic: token}
				counts[token] = tc
			}
			tc.StoryCount++
			tc.TotalScore += r.Score
		}
	}

	topics := make([]TopicCount, 0, len(counts))
	for _, tc := range counts {
		topics = append(topics, *tc)
	}
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].StoryCount != topics[j].StoryCount {
			return topics[i].StoryCount > topics[j].StoryCount
		}
		if topics[i].TotalScore != topics[j].TotalScore {
			return topics[i].TotalScore > topics[j].TotalScore
		}
		return topics[i].Topic < topics[j].Topic
	})

	max := pageLimit(limit)
	if len(topics) > max {
		topics = topics[:max]
	}
	return topics, nil
}

// Counts returns row counts per entity table.
func (s *SQLiteStore) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, table := range []string{"users", "stories", "comments", "jobs"} {
		var n int
		if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func pageLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	return limit
}

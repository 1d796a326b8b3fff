package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/maguenza/hackernews-ai-project/pkg/transform"
)

// User is a stored profile row.
type User struct {
	ID          string    `db:"id" json:"id"`
	Username    string    `db:"username" json:"username"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	Karma       int       `db:"karma" json:"karma"`
	About       string    `db:"about" json:"about"`
	Deleted     bool      `db:"deleted" json:"deleted"`
	Placeholder bool      `db:"placeholder" json:"placeholder"`
}

// Story is a stored submission row.
type Story struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	URL         string    `db:"url" json:"url"`
	Text        string    `db:"text" json:"text"`
	Score       int       `db:"score" json:"score"`
	AuthorID    string    `db:"author_id" json:"author_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	Deleted     bool      `db:"deleted" json:"deleted"`
	Dead        bool      `db:"dead" json:"dead"`
	Descendants int       `db:"descendants" json:"descendants"`
}

// Comment is a stored comment row. ParentID is nil for top-level comments.
type Comment struct {
	ID        int64     `db:"id" json:"id"`
	Text      string    `db:"text" json:"text"`
	AuthorID  string    `db:"author_id" json:"author_id"`
	StoryID   int64     `db:"story_id" json:"story_id"`
	ParentID  *int64    `db:"parent_id" json:"parent_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Deleted   bool      `db:"deleted" json:"deleted"`
	Dead      bool      `db:"dead" json:"dead"`
}

// Job is a stored job posting row.
type Job struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	URL         string    `db:"url" json:"url"`
	Text        string    `db:"text" json:"text"`
	Score       int       `db:"score" json:"score"`
	AuthorID    string    `db:"author_id" json:"author_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	Deleted     bool      `db:"deleted" json:"deleted"`
	Dead        bool      `db:"dead" json:"dead"`
	JobType     string    `db:"job_type" json:"job_type"`
	Location    string    `db:"location" json:"location"`
	Company     string    `db:"company" json:"company"`
	SalaryRange string    `db:"salary_range" json:"salary_range"`
}

// UserInfo is the activity summary returned by the query layer.
type UserInfo struct {
	User
	StoryCount   int `json:"story_count"`
	CommentCount int `json:"comment_count"`
}

// TopicCount is one trending-topics aggregation bucket.
type TopicCount struct {
	Topic      string `json:"topic"`
	StoryCount int    `json:"story_count"`
	TotalScore int    `json:"total_score"`
}

// Store is the persistence interface.
type Store interface {
	// Loader.
	Load(ctx context.Context, rec transform.Record) (LoadResult, error)
	ListPlaceholderUsers(ctx context.Context, limit int) ([]string, error)
	PlaceholderUsersIn(ctx context.Context, names []string) ([]string, error)

	// Pipeline cursor.
	HighWaterMark(ctx context.Context, name string) (int64, error)
	SetHighWaterMark(ctx context.Context, name string, id int64) error

	// Query layer (read-only).
	GetStory(ctx context.Context, id int64) (*Story, error)
	GetComment(ctx context.Context, id int64) (*Comment, error)
	GetJob(ctx context.Context, id int64) (*Job, error)
	SearchStories(ctx context.Context, opts SearchStoriesOpts) ([]Story, error)
	SearchJobs(ctx context.Context, opts SearchJobsOpts) ([]Job, error)
	TopStories(ctx context.Context, since time.Time, limit int) ([]Story, error)
	UserInfo(ctx context.Context, username string) (*UserInfo, error)
	TrendingTopics(ctx context.Context, since time.Time, limit int) ([]TopicCount, error)
	Counts(ctx context.Context) (map[string]int, error)

	Ping(ctx context.Context) error
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// In-memory databases exist per connection; pin the pool to one.
	if strings.Contains(path, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the store is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// HighWaterMark returns the persisted cursor for the named pipeline, 0 when
// no run has completed yet.
func (s *SQLiteStore) HighWaterMark(ctx context.Context, name string) (int64, error) {
	var hwm int64
	err := s.db.GetContext(ctx,
		&hwm, "SELECT high_water_mark FROM pipeline_state WHERE name = ?", name)
	if err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("get high-water-mark %s: %w", name, err)
	}
	return hwm, nil
}

// SetHighWaterMark persists the cursor for the named pipeline.
func (s *SQLiteStore) SetHighWaterMark(ctx context.Context, name string, id int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pipeline_state (name, high_water_mark, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			high_water_mark = excluded.high_water_mark,
			updated_at = excluded.updated_at
	`, name, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set high-water-mark %s: %w", name, err)
	}
	return nil
}

// ListPlaceholderUsers returns usernames awaiting profile backfill.
func (s *SQLiteStore) ListPlaceholderUsers(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	var names []string
	err := s.db.SelectContext(ctx, &names,
		"SELECT username FROM users WHERE placeholder = 1 ORDER BY username LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list placeholder users: %w", err)
	}
	return names, nil
}

// PlaceholderUsersIn filters the given usernames down to those still stored as
// placeholders, in username order.
func (s *SQLiteStore) PlaceholderUsersIn(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		"SELECT username FROM users WHERE placeholder = 1 AND username IN (?) ORDER BY username", names)
	if err != nil {
		return nil, fmt.Errorf("filter placeholder users: %w", err)
	}
	var pending []string
	if err := s.db.SelectContext(ctx, &pending, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("filter placeholder users: %w", err)
	}
	return pending, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

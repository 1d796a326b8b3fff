package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/maguenza/hackernews-ai-project/pkg/transform"
)

// LoadResult reports what an upsert did.
type LoadResult string

const (
	LoadInserted LoadResult = "inserted"
	LoadUpdated  LoadResult = "updated"
	LoadSkipped  LoadResult = "skipped"
)

// ErrParentUnresolved marks a comment whose upstream parent is not loaded yet,
// so its root story cannot be determined. Callers may retry after the parent
// arrives.
var ErrParentUnresolved = errors.New("store: comment parent not loaded")

// ErrParentStoryMismatch marks a comment whose declared parent belongs to a
// different story. Logged as a data-integrity warning and skipped.
var ErrParentStoryMismatch = errors.New("store: comment parent belongs to another story")

// Load upserts one canonical record. Author resolution and the row write run
// in a single transaction; a failure rolls the whole record back. Re-loading
// the same record refreshes mutable fields and never duplicates rows.
func (s *SQLiteStore) Load(ctx context.Context, rec transform.Record) (LoadResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return LoadSkipped, fmt.Errorf("begin load tx: %w", err)
	}
	defer tx.Rollback()

	var res LoadResult
	switch r := rec.(type) {
	case transform.User:
		res, err = upsertUser(ctx, tx, r)
	case transform.Story:
		res, err = upsertStory(ctx, tx, r)
	case transform.Comment:
		res, err = upsertComment(ctx, tx, r)
	case transform.Job:
		res, err = upsertJob(ctx, tx, r)
	default:
		return LoadSkipped, fmt.Errorf("load: unknown record kind %q", rec.Kind())
	}
	if err != nil {
		return LoadSkipped, err
	}

	if err := tx.Commit(); err != nil {
		return LoadSkipped, fmt.Errorf("commit load tx: %w", err)
	}
	return res, nil
}

// ensureAuthor inserts a placeholder user row when the author is not stored
// yet, so dependent rows never violate the foreign key.
func ensureAuthor(ctx context.Context, tx *sqlx.Tx, username string, seenAt time.Time) error {
	ph := transform.PlaceholderUser(username, seenAt)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, username, created_at, karma, about, deleted, placeholder)
		VALUES (?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(id) DO NOTHING
	`, ph.ID, ph.Username, ph.CreatedAt, ph.Karma, ph.About, ph.Deleted)
	if err != nil {
		return fmt.Errorf("ensure author %s: %w", username, err)
	}
	return nil
}

func rowExists(ctx context.Context, tx *sqlx.Tx, table string, id any) (bool, error) {
	var n int
	if err := tx.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table+" WHERE id = ?", id); err != nil {
		return false, err
	}
	return n > 0, nil
}

func upsertUser(ctx context.Context, tx *sqlx.Tx, u transform.User) (LoadResult, error) {
	exists, err := rowExists(ctx, tx, "users", u.ID)
	if err != nil {
		return LoadSkipped, fmt.Errorf("check user %s: %w", u.ID, err)
	}

	// A full profile always clears the placeholder flag (backfill).
	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, username, created_at, karma, about, deleted, placeholder)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at = excluded.created_at,
			karma = excluded.karma,
			about = excluded.about,
			deleted = excluded.deleted,
			placeholder = excluded.placeholder
	`, u.ID, u.Username, u.CreatedAt, u.Karma, u.About, u.Deleted, u.Placeholder)
	if err != nil {
		return LoadSkipped, fmt.Errorf("upsert user %s: %w", u.ID, err)
	}
	if exists {
		return LoadUpdated, nil
	}
	return LoadInserted, nil
}

func upsertStory(ctx context.Context, tx *sqlx.Tx, st transform.Story) (LoadResult, error) {
	if err := ensureAuthor(ctx, tx, st.AuthorID, st.CreatedAt); err != nil {
		return LoadSkipped, err
	}

	exists, err := rowExists(ctx, tx, "stories", st.ID)
	if err != nil {
		return LoadSkipped, fmt.Errorf("check story %d: %w", st.ID, err)
	}

	// Immutable on conflict: title, url, text, author_id, created_at.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO stories (id, title, url, text, score, author_id, created_at, deleted, dead, descendants)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			score = excluded.score,
			descendants = excluded.descendants,
			deleted = excluded.deleted,
			dead = excluded.dead
	`, st.ID, st.Title, st.URL, st.Text, st.Score, st.AuthorID, st.CreatedAt,
		st.Deleted, st.Dead, st.Descendants)
	if err != nil {
		return LoadSkipped, fmt.Errorf("upsert story %d: %w", st.ID, err)
	}
	if exists {
		return LoadUpdated, nil
	}
	return LoadInserted, nil
}

// resolveCommentParent walks the declared upstream parent to the root story.
// The parent may be the story itself (top-level comment) or another comment.
func resolveCommentParent(ctx context.Context, tx *sqlx.Tx, c transform.Comment) (storyID int64, parentID *int64, err error) {
	isStory, err := rowExists(ctx, tx, "stories", c.StoryID)
	if err != nil {
		return 0, nil, fmt.Errorf("resolve comment %d parent: %w", c.ID, err)
	}
	if isStory {
		return c.StoryID, nil, nil
	}

	var parentStory int64
	err = tx.GetContext(ctx, &parentStory,
		"SELECT story_id FROM comments WHERE id = ?", c.StoryID)
	if err != nil {
		if isNoRows(err) {
			return 0, nil, ErrParentUnresolved
		}
		return 0, nil, fmt.Errorf("resolve comment %d parent: %w", c.ID, err)
	}

	parent := c.StoryID
	return parentStory, &parent, nil
}

func upsertComment(ctx context.Context, tx *sqlx.Tx, c transform.Comment) (LoadResult, error) {
	storyID, parentID, err := resolveCommentParent(ctx, tx, c)
	if err != nil {
		return LoadSkipped, err
	}

	exists, err := rowExists(ctx, tx, "comments", c.ID)
	if err != nil {
		return LoadSkipped, fmt.Errorf("check comment %d: %w", c.ID, err)
	}
	if exists {
		// Parent and story are immutable; verify the declared parent still
		// agrees with the stored story before refreshing flags.
		var storedStory int64
		if err := tx.GetContext(ctx, &storedStory,
			"SELECT story_id FROM comments WHERE id = ?", c.ID); err != nil {
			return LoadSkipped, fmt.Errorf("check comment %d story: %w", c.ID, err)
		}
		if storedStory != storyID {
			return LoadSkipped, ErrParentStoryMismatch
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE comments SET deleted = ?, dead = ? WHERE id = ?",
			c.Deleted, c.Dead, c.ID)
		if err != nil {
			return LoadSkipped, fmt.Errorf("update comment %d: %w", c.ID, err)
		}
		return LoadUpdated, nil
	}

	if err := ensureAuthor(ctx, tx, c.AuthorID, c.CreatedAt); err != nil {
		return LoadSkipped, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO comments (id, text, author_id, story_id, parent_id, created_at, deleted, dead)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Text, c.AuthorID, storyID, parentID, c.CreatedAt, c.Deleted, c.Dead)
	if err != nil {
		return LoadSkipped, fmt.Errorf("insert comment %d: %w", c.ID, err)
	}
	return LoadInserted, nil
}

func upsertJob(ctx context.Context, tx *sqlx.Tx, j transform.Job) (LoadResult, error) {
	if err := ensureAuthor(ctx, tx, j.AuthorID, j.CreatedAt); err != nil {
		return LoadSkipped, err
	}

	exists, err := rowExists(ctx, tx, "jobs", j.ID)
	if err != nil {
		return LoadSkipped, fmt.Errorf("check job %d: %w", j.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO jobs (id, title, url, text, score, author_id, created_at, deleted, dead,
			job_type, location, company, salary_range)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			score = excluded.score,
			deleted = excluded.deleted,
			dead = excluded.dead,
			job_type = excluded.job_type,
			location = excluded.location,
			company = excluded.company,
			salary_range = excluded.salary_range
	`, j.ID, j.Title, j.URL, j.Text, j.Score, j.AuthorID, j.CreatedAt, j.Deleted, j.Dead,
		j.JobType, j.Location, j.Company, j.SalaryRange)
	if err != nil {
		return LoadSkipped, fmt.Errorf("upsert job %d: %w", j.ID, err)
	}
	if exists {
		return LoadUpdated, nil
	}
	return LoadInserted, nil
}

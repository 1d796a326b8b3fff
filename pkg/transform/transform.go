// Package transform validates raw upstream items and normalizes them into
// canonical records ready for storage. Everything here is a pure function of
// its input.
package transform

import (
	"time"

	"github.com/maguenza/hackernews-ai-project/pkg/hnclient"
)

// Kind tags a canonical record.
type Kind string

const (
	KindUser    Kind = "user"
	KindStory   Kind = "story"
	KindComment Kind = "comment"
	KindJob     Kind = "job"
)

// Rejection reasons. A given raw record always maps to the same reason.
const (
	ReasonUnsupportedKind = "unsupported_kind"
)

// RejectError marks a raw record that failed validation. The pipeline logs it
// and moves on.
type RejectError struct {
	Reason string
}

func (e *RejectError) Error() string { return "transform: rejected: " + e.Reason }

func reject(reason string) error { return &RejectError{Reason: reason} }

func missingField(name string) error { return reject("missing_field:" + name) }

// Record is the canonical representation of one entity kind.
type Record interface {
	Kind() Kind
}

// User is a canonical profile. ID doubles as the username upstream.
type User struct {
	ID          string
	Username    string
	CreatedAt   time.Time
	Karma       int
	About       string
	Deleted     bool
	Placeholder bool
}

func (User) Kind() Kind { return KindUser }

// Story is a canonical submission.
type Story struct {
	ID          int64
	Title       string
	URL         string
	Text        string
	Score       int
	AuthorID    string
	CreatedAt   time.Time
	Deleted     bool
	Dead        bool
	Descendants int
}

func (Story) Kind() Kind { return KindStory }

// Comment is a canonical comment. ParentID is nil for top-level comments, where
// the upstream parent is the story itself.
type Comment struct {
	ID        int64
	Text      string
	AuthorID  string
	StoryID   int64
	ParentID  *int64
	CreatedAt time.Time
	Deleted   bool
	Dead      bool
}

func (Comment) Kind() Kind { return KindComment }

// Job is a canonical job posting with best-effort attributes parsed from the
// posting text.
type Job struct {
	ID          int64
	Title       string
	URL         string
	Text        string
	Score       int
	AuthorID    string
	CreatedAt   time.Time
	Deleted     bool
	Dead        bool
	JobType     string
	Location    string
	Company     string
	SalaryRange string
}

func (Job) Kind() Kind { return KindJob }

// Transform validates and normalizes one raw item. It returns a canonical
// Record or a *RejectError.
//
// The story id passed for comments is the upstream parent field; the loader
// resolves whether it points at a story or another comment.
func Transform(raw *hnclient.Item) (Record, error) {
	if raw == nil || raw.ID == 0 {
		return nil, missingField("id")
	}

	switch raw.Type {
	case "story":
		return transformStory(raw)
	case "comment":
		return transformComment(raw)
	case "job":
		return transformJob(raw)
	default:
		return nil, reject(ReasonUnsupportedKind)
	}
}

func transformStory(raw *hnclient.Item) (Record, error) {
	// Soft-deleted stories lose their title upstream; keep them, flagged.
	if raw.Title == "" && !raw.Deleted && !raw.Dead {
		return nil, missingField("title")
	}
	if raw.By == "" && !raw.Deleted {
		return nil, missingField("by")
	}
	if raw.Time == 0 {
		return nil, missingField("time")
	}
	return Story{
		ID:          raw.ID,
		Title:       raw.Title,
		URL:         raw.URL,
		Text:        raw.Text,
		Score:       raw.Score,
		AuthorID:    authorOrDeleted(raw),
		CreatedAt:   normalizeTime(raw.Time),
		Deleted:     raw.Deleted,
		Dead:        raw.Dead,
		Descendants: raw.Descendants,
	}, nil
}

func transformComment(raw *hnclient.Item) (Record, error) {
	if raw.Text == "" && !raw.Deleted && !raw.Dead {
		return nil, missingField("text")
	}
	if raw.By == "" && !raw.Deleted {
		return nil, missingField("by")
	}
	if raw.Parent == 0 {
		return nil, missingField("parent")
	}
	if raw.Time == 0 {
		return nil, missingField("time")
	}
	return Comment{
		ID:        raw.ID,
		Text:      raw.Text,
		AuthorID:  authorOrDeleted(raw),
		StoryID:   raw.Parent, // provisional; the loader walks up to the root story
		CreatedAt: normalizeTime(raw.Time),
		Deleted:   raw.Deleted,
		Dead:      raw.Dead,
	}, nil
}

func transformJob(raw *hnclient.Item) (Record, error) {
	if raw.Title == "" && !raw.Deleted && !raw.Dead {
		return nil, missingField("title")
	}
	if raw.By == "" && !raw.Deleted {
		return nil, missingField("by")
	}
	if raw.Time == 0 {
		return nil, missingField("time")
	}

	attrs := ParseJobAttributes(raw.Text)

	return Job{
		ID:          raw.ID,
		Title:       raw.Title,
		URL:         raw.URL,
		Text:        raw.Text,
		Score:       raw.Score,
		AuthorID:    authorOrDeleted(raw),
		CreatedAt:   normalizeTime(raw.Time),
		Deleted:     raw.Deleted,
		Dead:        raw.Dead,
		JobType:     attrs.JobType,
		Location:    attrs.Location,
		Company:     attrs.Company,
		SalaryRange: attrs.SalaryRange,
	}, nil
}

// TransformUser normalizes a raw profile. Karma never goes below zero.
func TransformUser(raw *hnclient.User) (User, error) {
	if raw == nil || raw.ID == "" {
		return User{}, missingField("id")
	}
	if raw.Created == 0 {
		return User{}, missingField("created")
	}
	karma := raw.Karma
	if karma < 0 {
		karma = 0
	}
	return User{
		ID:        raw.ID,
		Username:  raw.ID,
		CreatedAt: normalizeTime(raw.Created),
		Karma:     karma,
		About:     raw.About,
	}, nil
}

// PlaceholderUser builds the minimal row inserted to satisfy an author foreign
// key before the full profile has been fetched.
func PlaceholderUser(username string, seenAt time.Time) User {
	return User{
		ID:          username,
		Username:    username,
		CreatedAt:   seenAt.UTC(),
		Karma:       0,
		Placeholder: true,
	}
}

func authorOrDeleted(raw *hnclient.Item) string {
	if raw.By != "" {
		return raw.By
	}
	return "[deleted]"
}

func normalizeTime(unix int64) time.Time {
	return time.Unix(unix, 0).UTC()
}

package store

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id          TEXT PRIMARY KEY,
    username    TEXT NOT NULL UNIQUE,
    created_at  DATETIME NOT NULL,
    karma       INTEGER NOT NULL DEFAULT 0,
    about       TEXT NOT NULL DEFAULT '',
    deleted     BOOLEAN NOT NULL DEFAULT 0,
    placeholder BOOLEAN NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
CREATE INDEX IF NOT EXISTS idx_users_placeholder ON users(placeholder);

CREATE TABLE IF NOT EXISTS stories (
    id          INTEGER PRIMARY KEY,
    title       TEXT NOT NULL,
    url         TEXT NOT NULL DEFAULT '',
    text        TEXT NOT NULL DEFAULT '',
    score       INTEGER NOT NULL DEFAULT 0,
    author_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    created_at  DATETIME NOT NULL,
    deleted     BOOLEAN NOT NULL DEFAULT 0,
    dead        BOOLEAN NOT NULL DEFAULT 0,
    descendants INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_stories_created_at ON stories(created_at);
CREATE INDEX IF NOT EXISTS idx_stories_score ON stories(score);
CREATE INDEX IF NOT EXISTS idx_stories_author ON stories(author_id);

CREATE TABLE IF NOT EXISTS comments (
    id         INTEGER PRIMARY KEY,
    text       TEXT NOT NULL DEFAULT '',
    author_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    story_id   INTEGER NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
    parent_id  INTEGER REFERENCES comments(id),
    created_at DATETIME NOT NULL,
    deleted    BOOLEAN NOT NULL DEFAULT 0,
    dead       BOOLEAN NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_comments_story ON comments(story_id);
CREATE INDEX IF NOT EXISTS idx_comments_author ON comments(author_id);
CREATE INDEX IF NOT EXISTS idx_comments_created_at ON comments(created_at);

CREATE TABLE IF NOT EXISTS jobs (
    id           INTEGER PRIMARY KEY,
    title        TEXT NOT NULL,
    url          TEXT NOT NULL DEFAULT '',
    text         TEXT NOT NULL DEFAULT '',
    score        INTEGER NOT NULL DEFAULT 0,
    author_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    created_at   DATETIME NOT NULL,
    deleted      BOOLEAN NOT NULL DEFAULT 0,
    dead         BOOLEAN NOT NULL DEFAULT 0,
    job_type     TEXT NOT NULL DEFAULT '',
    location     TEXT NOT NULL DEFAULT '',
    company      TEXT NOT NULL DEFAULT '',
    salary_range TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
CREATE INDEX IF NOT EXISTS idx_jobs_job_type ON jobs(job_type);
CREATE INDEX IF NOT EXISTS idx_jobs_location ON jobs(location);

CREATE TABLE IF NOT EXISTS pipeline_state (
    name            TEXT PRIMARY KEY,
    high_water_mark INTEGER NOT NULL DEFAULT 0,
    updated_at      DATETIME NOT NULL
);
`

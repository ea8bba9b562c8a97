package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// timeLayout keeps posted_at sortable as text.
const timeLayout = "2006-01-02T15:04:05Z"

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries runs the journal queries against a connection or transaction.
type Queries struct {
	db DBTX
}

// New creates Queries over db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns Queries bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Post is one journal entry.
type Post struct {
	ID         int64
	TweetID    string
	ParentID   sql.NullString
	Text       string
	URL        string
	MediaCount int64
	PostedAt   time.Time
}

const postColumns = `id, tweet_id, parent_id, text, url, media_count, posted_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row scanner) (Post, error) {
	var p Post
	var postedAt string
	if err := row.Scan(&p.ID, &p.TweetID, &p.ParentID, &p.Text, &p.URL, &p.MediaCount, &postedAt); err != nil {
		return Post{}, err
	}
	t, err := time.Parse(timeLayout, postedAt)
	if err != nil {
		return Post{}, fmt.Errorf("parse posted_at %q: %w", postedAt, err)
	}
	p.PostedAt = t
	return p, nil
}

// RecordPostParams are the values of a new journal entry.
type RecordPostParams struct {
	TweetID    string
	ParentID   sql.NullString
	Text       string
	URL        string
	MediaCount int64
	PostedAt   time.Time
}

const recordPost = `
INSERT INTO posts (tweet_id, parent_id, text, url, media_count, posted_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + postColumns

// RecordPost inserts a journal entry.
func (q *Queries) RecordPost(ctx context.Context, arg RecordPostParams) (Post, error) {
	row := q.db.QueryRowContext(ctx, recordPost,
		arg.TweetID,
		arg.ParentID,
		arg.Text,
		arg.URL,
		arg.MediaCount,
		arg.PostedAt.UTC().Format(timeLayout),
	)
	return scanPost(row)
}

const lastPostSince = `
SELECT ` + postColumns + ` FROM posts
WHERE posted_at >= ?
ORDER BY posted_at DESC, id DESC
LIMIT 1`

// LastPostSince returns the newest entry posted at or after since.
// It returns sql.ErrNoRows when there is none.
func (q *Queries) LastPostSince(ctx context.Context, since time.Time) (Post, error) {
	row := q.db.QueryRowContext(ctx, lastPostSince, since.UTC().Format(timeLayout))
	return scanPost(row)
}

const listRecentPosts = `
SELECT ` + postColumns + ` FROM posts
ORDER BY posted_at DESC, id DESC
LIMIT ?`

// ListRecentPosts returns up to limit entries, newest first.
func (q *Queries) ListRecentPosts(ctx context.Context, limit int64) ([]Post, error) {
	rows, err := q.db.QueryContext(ctx, listRecentPosts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countPosts = `SELECT COUNT(*) FROM posts`

// CountPosts returns the number of journal entries.
func (q *Queries) CountPosts(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPosts).Scan(&count)
	return count, err
}

const countPostsSince = `SELECT COUNT(*) FROM posts WHERE posted_at >= ?`

// CountPostsSince returns the number of entries posted at or after since.
func (q *Queries) CountPostsSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPostsSince, since.UTC().Format(timeLayout)).Scan(&count)
	return count, err
}

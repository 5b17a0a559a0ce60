package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"blogview/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS session (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	token TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS page_posts (
	post_id INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	category_title TEXT NOT NULL DEFAULT '',
	like_count INTEGER NOT NULL DEFAULT 0,
	liked INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP,
	position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS popular_posts (
	post_id INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	like_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP,
	position INTEGER NOT NULL
);
`

// Store persists the session token and a snapshot of the last rendered
// page and sidebar, so the CLI can fall back to stale content when the
// server is unreachable. Like state itself is never persisted; it is
// rebuilt by hydration on every fresh load.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the SQLite state file at path. The
// caller should Close the store when done.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state file: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadToken returns the saved bearer token, empty when logged out.
func (s *Store) LoadToken() (string, error) {
	var token string
	err := s.db.QueryRow(`SELECT token FROM session WHERE id = 1`).Scan(&token)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

// SaveToken upserts the bearer token.
func (s *Store) SaveToken(token string) error {
	_, err := s.db.Exec(`
		INSERT INTO session (id, token, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at`,
		token, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// DeleteToken forgets the bearer token.
func (s *Store) DeleteToken() error {
	if _, err := s.db.Exec(`DELETE FROM session WHERE id = 1`); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// SnapshotPost is one row of the cached page snapshot: the post plus the
// like state it was last rendered with.
type SnapshotPost struct {
	ID            int64
	Title         string
	Description   string
	CategoryTitle string
	LikeCount     int
	Liked         bool
	CreatedAt     time.Time
}

// SavePageSnapshot replaces the cached page with the given posts, in
// order.
func (s *Store) SavePageSnapshot(ctx context.Context, posts []SnapshotPost) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM page_posts`); err != nil {
		return fmt.Errorf("clear page snapshot: %w", err)
	}

	for i, p := range posts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO page_posts (post_id, title, description, category_title, like_count, liked, created_at, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Title, p.Description, p.CategoryTitle, p.LikeCount, p.Liked, p.CreatedAt, i,
		)
		if err != nil {
			return fmt.Errorf("insert snapshot post %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// LoadPageSnapshot returns the cached page in its saved order.
func (s *Store) LoadPageSnapshot(ctx context.Context) ([]SnapshotPost, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT post_id, title, description, category_title, like_count, liked, created_at
		FROM page_posts
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query page snapshot: %w", err)
	}
	defer rows.Close()

	var posts []SnapshotPost
	for rows.Next() {
		var p SnapshotPost
		var createdAt sql.NullTime
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.CategoryTitle, &p.LikeCount, &p.Liked, &createdAt); err != nil {
			return nil, fmt.Errorf("scan snapshot post: %w", err)
		}
		if createdAt.Valid {
			p.CreatedAt = createdAt.Time
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate page snapshot: %w", err)
	}
	return posts, nil
}

// SavePopularSnapshot replaces the cached sidebar with the given ranked
// items, in order.
func (s *Store) SavePopularSnapshot(ctx context.Context, items []domain.PopularItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM popular_posts`); err != nil {
		return fmt.Errorf("clear popular snapshot: %w", err)
	}

	for i, item := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO popular_posts (post_id, title, like_count, created_at, position)
			VALUES (?, ?, ?, ?, ?)`,
			item.ID, item.Title, item.LikeCount, item.CreatedAt, i,
		)
		if err != nil {
			return fmt.Errorf("insert popular item %d: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// LoadPopularSnapshot returns the cached sidebar in its saved order.
func (s *Store) LoadPopularSnapshot(ctx context.Context) ([]domain.PopularItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT post_id, title, like_count, created_at
		FROM popular_posts
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query popular snapshot: %w", err)
	}
	defer rows.Close()

	var items []domain.PopularItem
	for rows.Next() {
		var item domain.PopularItem
		var createdAt sql.NullTime
		if err := rows.Scan(&item.ID, &item.Title, &item.LikeCount, &createdAt); err != nil {
			return nil, fmt.Errorf("scan popular item: %w", err)
		}
		if createdAt.Valid {
			item.CreatedAt = createdAt.Time
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate popular snapshot: %w", err)
	}
	return items, nil
}

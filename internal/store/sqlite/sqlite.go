package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anmol4210/realworld-api/internal/model"
	"github.com/anmol4210/realworld-api/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrations is an ordered list of SQL migrations.
// Each migration runs exactly once, tracked by schema_version table.
var migrations = []string{
	// Migration 1: Initial schema
	`
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	username TEXT NOT NULL UNIQUE,
	bio TEXT,
	image TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS credentials (
	user_id TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS follows (
	follower_id TEXT NOT NULL,
	following_id TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY(follower_id, following_id),
	FOREIGN KEY(follower_id) REFERENCES users(id),
	FOREIGN KEY(following_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_follows_following ON follows(following_id);

CREATE TABLE IF NOT EXISTS articles (
	id TEXT PRIMARY KEY,
	slug TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	description TEXT,
	body TEXT,
	favorites_count INTEGER NOT NULL DEFAULT 0,
	author_id TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	FOREIGN KEY(author_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_articles_author ON articles(author_id);

CREATE TABLE IF NOT EXISTS tags (
	name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS article_tags (
	article_id TEXT NOT NULL,
	tag_name TEXT NOT NULL,
	PRIMARY KEY(article_id, tag_name),
	FOREIGN KEY(article_id) REFERENCES articles(id),
	FOREIGN KEY(tag_name) REFERENCES tags(name)
);
CREATE INDEX IF NOT EXISTS idx_article_tags_tag ON article_tags(tag_name);

CREATE TABLE IF NOT EXISTS favorites (
	user_id TEXT NOT NULL,
	article_id TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY(user_id, article_id),
	FOREIGN KEY(user_id) REFERENCES users(id),
	FOREIGN KEY(article_id) REFERENCES articles(id)
);
CREATE INDEX IF NOT EXISTS idx_favorites_article ON favorites(article_id);

CREATE TABLE IF NOT EXISTS comments (
	id TEXT PRIMARY KEY,
	article_id TEXT NOT NULL,
	author_id TEXT NOT NULL,
	body TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	FOREIGN KEY(article_id) REFERENCES articles(id),
	FOREIGN KEY(author_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_comments_article ON comments(article_id);

CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id)
);
`,
	// Future migrations go here:
	// Migration 2: `ALTER TABLE ...`,
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return err
	}

	var currentVersion int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	for i := currentVersion; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
	}

	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, email, username, bio, image, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, user.ID, user.Email, user.Username, nullableString(user.Bio), nullableString(user.Image), user.CreatedAt.Unix(), user.UpdatedAt.Unix())
	if err != nil {
		return userUniqueViolation(err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
SELECT id, email, username, bio, image, created_at, updated_at
FROM users
WHERE id = ?
`, id))
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
SELECT id, email, username, bio, image, created_at, updated_at
FROM users
WHERE username = ?
`, username))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
SELECT id, email, username, bio, image, created_at, updated_at
FROM users
WHERE email = ?
`, email))
}

func (s *Store) UpdateUser(ctx context.Context, user *model.User) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE users SET email = ?, username = ?, bio = ?, image = ?, updated_at = ?
WHERE id = ?
`, user.Email, user.Username, nullableString(user.Bio), nullableString(user.Image), user.UpdatedAt.Unix(), user.ID)
	if err != nil {
		return userUniqueViolation(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetCredential(ctx context.Context, userID, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO credentials (user_id, password_hash)
VALUES (?, ?)
ON CONFLICT(user_id) DO UPDATE SET password_hash = excluded.password_hash
`, userID, passwordHash)
	return err
}

func (s *Store) GetCredential(ctx context.Context, userID string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `
SELECT password_hash FROM credentials WHERE user_id = ?
`, userID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	return hash, err
}

func (s *Store) Follow(ctx context.Context, followerID, followingID string) error {
	if followerID == followingID {
		return store.ErrSelfFollow
	}
	_, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO follows (follower_id, following_id, created_at)
VALUES (?, ?, ?)
`, followerID, followingID, time.Now().Unix())
	return err
}

func (s *Store) Unfollow(ctx context.Context, followerID, followingID string) error {
	_, err := s.db.ExecContext(ctx, `
DELETE FROM follows WHERE follower_id = ? AND following_id = ?
`, followerID, followingID)
	return err
}

func (s *Store) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
SELECT 1 FROM follows WHERE follower_id = ? AND following_id = ?
`, followerID, followingID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) CreateArticle(ctx context.Context, article *model.Article, tags []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
INSERT INTO articles (id, slug, title, description, body, favorites_count, author_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?)
`, article.ID, article.Slug, article.Title, article.Description, article.Body, article.AuthorID, article.CreatedAt.Unix(), article.UpdatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			err = store.ErrDuplicateSlug
		}
		return err
	}

	for _, tag := range tags {
		if _, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO tags (name) VALUES (?)`, tag); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `
INSERT OR IGNORE INTO article_tags (article_id, tag_name) VALUES (?, ?)
`, article.ID, tag); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) GetArticleBySlug(ctx context.Context, slug string) (model.Article, error) {
	return scanArticle(s.db.QueryRowContext(ctx, `
SELECT id, slug, title, description, body, favorites_count, author_id, created_at, updated_at
FROM articles
WHERE slug = ?
`, slug))
}

func (s *Store) ListArticles(ctx context.Context, opts store.ArticleListOpts) ([]model.Article, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, slug, title, description, body, favorites_count, author_id, created_at, updated_at
FROM articles
ORDER BY created_at DESC, id
LIMIT ? OFFSET ?
`, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectArticles(rows)
}

func (s *Store) ListArticlesByTag(ctx context.Context, tag string) ([]model.Article, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT a.id, a.slug, a.title, a.description, a.body, a.favorites_count, a.author_id, a.created_at, a.updated_at
FROM articles a
JOIN article_tags t ON t.article_id = a.id
WHERE t.tag_name = ?
ORDER BY a.created_at DESC, a.id
`, tag)
	if err != nil {
		return nil, err
	}
	return collectArticles(rows)
}

func (s *Store) ListArticlesFavoritedBy(ctx context.Context, userID string) ([]model.Article, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT a.id, a.slug, a.title, a.description, a.body, a.favorites_count, a.author_id, a.created_at, a.updated_at
FROM articles a
JOIN favorites f ON f.article_id = a.id
WHERE f.user_id = ?
ORDER BY f.created_at DESC, a.id
`, userID)
	if err != nil {
		return nil, err
	}
	return collectArticles(rows)
}

func (s *Store) UpdateArticle(ctx context.Context, article *model.Article) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE articles SET slug = ?, title = ?, description = ?, body = ?, updated_at = ?
WHERE id = ?
`, article.Slug, article.Title, article.Description, article.Body, article.UpdatedAt.Unix(), article.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateSlug
		}
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteArticle(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{
		`DELETE FROM comments WHERE article_id = ?`,
		`DELETE FROM favorites WHERE article_id = ?`,
		`DELETE FROM article_tags WHERE article_id = ?`,
	} {
		if _, err = tx.ExecContext(ctx, stmt, id); err != nil {
			return err
		}
	}
	var res sql.Result
	res, err = tx.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		err = store.ErrNotFound
		return err
	}
	return tx.Commit()
}

func (s *Store) ListTags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tags = append(tags, name)
	}
	return tags, rows.Err()
}

func (s *Store) ListArticleTags(ctx context.Context, articleID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT tag_name FROM article_tags WHERE article_id = ? ORDER BY tag_name
`, articleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tags = append(tags, name)
	}
	return tags, rows.Err()
}

func (s *Store) CreateComment(ctx context.Context, comment *model.Comment) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO comments (id, article_id, author_id, body, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
`, comment.ID, comment.ArticleID, comment.AuthorID, comment.Body, comment.CreatedAt.Unix(), comment.UpdatedAt.Unix())
	return err
}

func (s *Store) GetComment(ctx context.Context, id string) (model.Comment, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, article_id, author_id, body, created_at, updated_at
FROM comments
WHERE id = ?
`, id)
	var c model.Comment
	var created, updated int64
	if err := row.Scan(&c.ID, &c.ArticleID, &c.AuthorID, &c.Body, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Comment{}, store.ErrNotFound
		}
		return model.Comment{}, err
	}
	c.CreatedAt = time.Unix(created, 0)
	c.UpdatedAt = time.Unix(updated, 0)
	return c, nil
}

func (s *Store) ListCommentsByArticle(ctx context.Context, articleID string) ([]model.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, article_id, author_id, body, created_at, updated_at
FROM comments
WHERE article_id = ?
ORDER BY created_at ASC, id
`, articleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		var created, updated int64
		if err := rows.Scan(&c.ID, &c.ArticleID, &c.AuthorID, &c.Body, &created, &updated); err != nil {
			return nil, err
		}
		c.CreatedAt = time.Unix(created, 0)
		c.UpdatedAt = time.Unix(updated, 0)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) AddFavorite(ctx context.Context, userID, articleID string) error {
	var authorID string
	err := s.db.QueryRowContext(ctx, `SELECT author_id FROM articles WHERE id = ?`, articleID).Scan(&authorID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	if authorID == userID {
		return store.ErrSelfFavorite
	}
	if _, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO favorites (user_id, article_id, created_at)
VALUES (?, ?, ?)
`, userID, articleID, time.Now().Unix()); err != nil {
		return err
	}
	return s.syncFavoritesCount(ctx, articleID)
}

func (s *Store) RemoveFavorite(ctx context.Context, userID, articleID string) error {
	var authorID string
	err := s.db.QueryRowContext(ctx, `SELECT author_id FROM articles WHERE id = ?`, articleID).Scan(&authorID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	if authorID == userID {
		return store.ErrSelfFavorite
	}
	if _, err := s.db.ExecContext(ctx, `
DELETE FROM favorites WHERE user_id = ? AND article_id = ?
`, userID, articleID); err != nil {
		return err
	}
	return s.syncFavoritesCount(ctx, articleID)
}

func (s *Store) IsFavorited(ctx context.Context, userID, articleID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
SELECT 1 FROM favorites WHERE user_id = ? AND article_id = ?
`, userID, articleID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) CountFavorites(ctx context.Context, articleID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM favorites WHERE article_id = ?
`, articleID).Scan(&count)
	return count, err
}

// syncFavoritesCount keeps the persisted counter equal to the live edge set.
// Responses recompute anyway; this only keeps the stored row honest.
func (s *Store) syncFavoritesCount(ctx context.Context, articleID string) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE articles
SET favorites_count = (SELECT COUNT(*) FROM favorites WHERE article_id = ?)
WHERE id = ?
`, articleID, articleID)
	return err
}

func (s *Store) CreateSession(ctx context.Context, session model.Session) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO sessions (id, user_id, created_at, expires_at)
VALUES (?, ?, ?, ?)
`, session.ID, session.UserID, session.CreatedAt.Unix(), session.ExpiresAt.Unix())
	return err
}

func (s *Store) ConsumeSession(ctx context.Context, id string) (model.Session, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, user_id, created_at, expires_at
FROM sessions
WHERE id = ?
`, id)
	var sess model.Session
	var created, expires int64
	if err := row.Scan(&sess.ID, &sess.UserID, &created, &expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Session{}, store.ErrNotFound
		}
		return model.Session{}, err
	}
	sess.CreatedAt = time.Unix(created, 0)
	sess.ExpiresAt = time.Unix(expires, 0)
	_, _ = s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return sess, nil
}

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	var bio, image sql.NullString
	var created, updated int64
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &bio, &image, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, store.ErrNotFound
		}
		return model.User{}, err
	}
	if bio.Valid {
		u.Bio = &bio.String
	}
	if image.Valid {
		u.Image = &image.String
	}
	u.CreatedAt = time.Unix(created, 0)
	u.UpdatedAt = time.Unix(updated, 0)
	return u, nil
}

func scanArticle(scanner interface{ Scan(dest ...any) error }) (model.Article, error) {
	var a model.Article
	var description, body sql.NullString
	var created, updated int64
	if err := scanner.Scan(&a.ID, &a.Slug, &a.Title, &description, &body, &a.FavoritesCount, &a.AuthorID, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Article{}, store.ErrNotFound
		}
		return model.Article{}, err
	}
	a.Description = description.String
	a.Body = body.String
	a.CreatedAt = time.Unix(created, 0)
	a.UpdatedAt = time.Unix(updated, 0)
	return a, nil
}

func collectArticles(rows *sql.Rows) ([]model.Article, error) {
	defer rows.Close()
	var articles []model.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func userUniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "users.email"):
		return store.ErrDuplicateEmail
	case strings.Contains(msg, "users.username"):
		return store.ErrDuplicateUsername
	}
	return err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}

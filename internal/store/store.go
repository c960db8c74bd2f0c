package store

import (
	"context"
	"errors"

	"github.com/anmol4210/realworld-api/internal/model"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrDuplicateSlug     = errors.New("slug already exists")
	ErrSelfFollow        = errors.New("users cannot follow themselves")
	ErrSelfFavorite      = errors.New("authors cannot favorite their own article")
)

// ArticleListOpts pages the unfiltered article listing. The tag and
// favorited-by listings deliberately ignore paging; see ListArticles callers.
type ArticleListOpts struct {
	Limit  int
	Offset int
}

type Store interface {
	UserStore
	CredentialStore
	FollowStore
	ArticleStore
	TagStore
	CommentStore
	FavoriteStore
	SessionStore
	Close() error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
}

// CredentialStore keeps password hashes apart from profile data so profile
// reads can never expose them.
type CredentialStore interface {
	SetCredential(ctx context.Context, userID, passwordHash string) error
	GetCredential(ctx context.Context, userID string) (string, error)
}

// FollowStore is the directed follow edge set. Follow rejects self-follow
// with ErrSelfFollow; re-following is a no-op.
type FollowStore interface {
	Follow(ctx context.Context, followerID, followingID string) error
	Unfollow(ctx context.Context, followerID, followingID string) error
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
}

type ArticleStore interface {
	// CreateArticle inserts the article and its tag links (find-or-create)
	// in one transaction.
	CreateArticle(ctx context.Context, article *model.Article, tags []string) error
	GetArticleBySlug(ctx context.Context, slug string) (model.Article, error)
	ListArticles(ctx context.Context, opts ArticleListOpts) ([]model.Article, error)
	ListArticlesByTag(ctx context.Context, tag string) ([]model.Article, error)
	ListArticlesFavoritedBy(ctx context.Context, userID string) ([]model.Article, error)
	UpdateArticle(ctx context.Context, article *model.Article) error
	DeleteArticle(ctx context.Context, id string) error
}

type TagStore interface {
	ListTags(ctx context.Context) ([]string, error)
	ListArticleTags(ctx context.Context, articleID string) ([]string, error)
}

type CommentStore interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	GetComment(ctx context.Context, id string) (model.Comment, error)
	ListCommentsByArticle(ctx context.Context, articleID string) ([]model.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

// FavoriteStore is the user-article favorite edge set. AddFavorite and
// RemoveFavorite reject the article's own author with ErrSelfFavorite and
// are idempotent otherwise.
// CountFavorites always counts the live edge set; the persisted counter on
// articles is never used for responses.
type FavoriteStore interface {
	AddFavorite(ctx context.Context, userID, articleID string) error
	RemoveFavorite(ctx context.Context, userID, articleID string) error
	IsFavorited(ctx context.Context, userID, articleID string) (bool, error)
	CountFavorites(ctx context.Context, articleID string) (int, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, session model.Session) error
	// ConsumeSession returns the session and deletes it.
	ConsumeSession(ctx context.Context, id string) (model.Session, error)
}

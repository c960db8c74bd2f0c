package view

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/anmol4210/realworld-api/internal/model"
	"github.com/anmol4210/realworld-api/internal/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	st, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return st
}

func seedUser(t *testing.T, st *sqlite.Store, username string) model.User {
	t.Helper()
	now := time.Now()
	user := model.User{
		ID:        uuid.NewString(),
		Email:     username + "@example.com",
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := st.CreateUser(context.Background(), &user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func seedArticle(t *testing.T, st *sqlite.Store, authorID string, tags []string) model.Article {
	t.Helper()
	now := time.Now()
	article := model.Article{
		ID:        uuid.NewString(),
		Slug:      "seeded_" + uuid.NewString()[:5],
		Title:     "Seeded",
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := st.CreateArticle(context.Background(), &article, tags); err != nil {
		t.Fatalf("create article: %v", err)
	}
	return article
}

func TestProfileViewerRelative(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()
	views := NewAssembler(st)

	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")
	if err := st.Follow(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}

	asBob, err := views.Profile(ctx, bob.ID, alice)
	if err != nil {
		t.Fatalf("profile as bob: %v", err)
	}
	if !asBob.Following {
		t.Fatalf("bob follows alice, expected following=true")
	}

	anonymous, err := views.Profile(ctx, "", alice)
	if err != nil {
		t.Fatalf("profile anonymous: %v", err)
	}
	if anonymous.Following {
		t.Fatalf("anonymous viewers never follow anyone")
	}

	asAlice, err := views.Profile(ctx, alice.ID, bob)
	if err != nil {
		t.Fatalf("profile as alice: %v", err)
	}
	if asAlice.Following {
		t.Fatalf("alice does not follow bob")
	}
}

func TestArticleViewCountsLiveFavorites(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()
	views := NewAssembler(st)

	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")
	carol := seedUser(t, st, "carol")
	article := seedArticle(t, st, alice.ID, []string{"go", "testing"})

	if err := st.AddFavorite(ctx, bob.ID, article.ID); err != nil {
		t.Fatalf("favorite: %v", err)
	}
	if err := st.AddFavorite(ctx, carol.ID, article.ID); err != nil {
		t.Fatalf("favorite: %v", err)
	}

	asBob, err := views.Article(ctx, bob.ID, article)
	if err != nil {
		t.Fatalf("article as bob: %v", err)
	}
	if !asBob.Favorited {
		t.Fatalf("bob favorited, expected favorited=true")
	}
	if asBob.FavoritesCount != 2 {
		t.Fatalf("expected 2 favorites, got %d", asBob.FavoritesCount)
	}
	if len(asBob.TagList) != 2 {
		t.Fatalf("expected 2 tags, got %v", asBob.TagList)
	}
	if asBob.Author.Username != "alice" {
		t.Fatalf("unexpected author: %s", asBob.Author.Username)
	}

	anonymous, err := views.Article(ctx, "", article)
	if err != nil {
		t.Fatalf("article anonymous: %v", err)
	}
	if anonymous.Favorited {
		t.Fatalf("anonymous viewers have no favorites")
	}
	if anonymous.FavoritesCount != 2 {
		t.Fatalf("favorites count must not depend on the viewer")
	}

	// The count follows the live edge set, not the stored counter.
	if err := st.RemoveFavorite(ctx, bob.ID, article.ID); err != nil {
		t.Fatalf("unfavorite: %v", err)
	}
	after, err := views.Article(ctx, bob.ID, article)
	if err != nil {
		t.Fatalf("article after unfavorite: %v", err)
	}
	if after.Favorited || after.FavoritesCount != 1 {
		t.Fatalf("expected favorited=false count=1, got %v %d", after.Favorited, after.FavoritesCount)
	}
}

func TestArticleViewEmptyTagList(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()
	views := NewAssembler(st)

	alice := seedUser(t, st, "alice")
	article := seedArticle(t, st, alice.ID, nil)

	got, err := views.Article(ctx, "", article)
	if err != nil {
		t.Fatalf("article: %v", err)
	}
	if got.TagList == nil {
		t.Fatalf("tagList must render as [], not null")
	}
}

func TestCommentsViews(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()
	views := NewAssembler(st)

	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")
	article := seedArticle(t, st, alice.ID, nil)

	now := time.Now()
	comment := model.Comment{
		ID: uuid.NewString(), ArticleID: article.ID, AuthorID: bob.ID,
		Body: "first", CreatedAt: now, UpdatedAt: now,
	}
	if err := st.CreateComment(ctx, &comment); err != nil {
		t.Fatalf("create comment: %v", err)
	}

	comments, err := st.ListCommentsByArticle(ctx, article.ID)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	rendered, err := views.Comments(ctx, alice.ID, comments)
	if err != nil {
		t.Fatalf("render comments: %v", err)
	}
	if len(rendered) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(rendered))
	}
	if rendered[0].Author.Username != "bob" {
		t.Fatalf("unexpected comment author: %s", rendered[0].Author.Username)
	}
}

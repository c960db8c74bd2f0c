package httpapp_test

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/anmol4210/realworld-api/internal/auth"
	"github.com/anmol4210/realworld-api/internal/client"
	"github.com/anmol4210/realworld-api/internal/config"
	httpapp "github.com/anmol4210/realworld-api/internal/http"
	"github.com/anmol4210/realworld-api/internal/store/sqlite"
)

func TestEndToEndServer(t *testing.T) {
	st, err := sqlite.Open("file:e2e_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	cfg := config.Config{
		Addr:       ":0",
		JWTSecret:  "e2e-secret",
		TokenTTL:   time.Hour,
		SessionTTL: time.Minute,
	}
	authSvc := auth.NewService(st, []byte(cfg.JWTSecret), cfg.TokenTTL, cfg.SessionTTL)
	server := httpapp.NewServer(st, authSvc, cfg)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()

	httpServer := &http.Server{Handler: server}
	go func() {
		_ = httpServer.Serve(listener)
	}()
	defer httpServer.Close()

	baseURL := "http://" + listener.Addr().String()

	alice := client.New(baseURL)
	if _, err := alice.Register("alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("register alice: %v", err)
	}
	bob := client.New(baseURL)
	if _, err := bob.Register("bob", "bob@example.com", "password123"); err != nil {
		t.Fatalf("register bob: %v", err)
	}

	// Login redirects through the session cookie; the client ends up with a
	// fresh token from the current-user endpoint.
	alice.Token = ""
	user, err := alice.Login("alice@example.com", "password123")
	if err != nil {
		t.Fatalf("login alice: %v", err)
	}
	if user.Username != "alice" || user.Token == "" {
		t.Fatalf("login returned wrong user: %+v", user)
	}

	article, err := alice.PostArticle("Going End To End", "a full pass", "body text", []string{"go", "testing"})
	if err != nil {
		t.Fatalf("post article: %v", err)
	}
	if !strings.HasPrefix(article.Slug, "going_end_to_end_") {
		t.Fatalf("unexpected slug: %s", article.Slug)
	}

	favored, err := bob.Favorite(article.Slug)
	if err != nil {
		t.Fatalf("favorite: %v", err)
	}
	if !favored.Favorited || favored.FavoritesCount != 1 {
		t.Fatalf("expected favorited with count 1, got %+v", favored)
	}
	if _, err := alice.Favorite(article.Slug); err == nil {
		t.Fatalf("favoriting own article must fail")
	}

	if _, err := bob.Follow("alice"); err != nil {
		t.Fatalf("follow: %v", err)
	}
	profile, err := bob.GetProfile("alice")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if !profile.Following {
		t.Fatalf("expected following=true")
	}

	comment, err := bob.PostComment(article.Slug, "nice one")
	if err != nil {
		t.Fatalf("post comment: %v", err)
	}
	comments, err := bob.ListComments(article.Slug)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 1 || comments[0].Author.Username != "bob" {
		t.Fatalf("unexpected comments: %+v", comments)
	}

	listed, err := bob.ListArticles(url.Values{"favorited": {"bob"}})
	if err != nil {
		t.Fatalf("list favorited: %v", err)
	}
	if len(listed) != 1 || listed[0].Slug != article.Slug {
		t.Fatalf("favorited listing wrong: %+v", listed)
	}

	tags, err := bob.ListTags()
	if err != nil {
		t.Fatalf("list tags: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %v", tags)
	}

	if err := bob.DeleteComment(article.Slug, comment.ID); err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	if err := alice.DeleteArticle(article.Slug); err != nil {
		t.Fatalf("delete article: %v", err)
	}
	if _, err := bob.GetArticle(article.Slug); err == nil {
		t.Fatalf("deleted article must be gone")
	}
}

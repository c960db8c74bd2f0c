package httpapp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anmol4210/realworld-api/internal/auth"
	"github.com/anmol4210/realworld-api/internal/config"
	"github.com/anmol4210/realworld-api/internal/store/sqlite"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	st, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.Config{JWTSecret: "test-secret", TokenTTL: time.Hour, SessionTTL: 5 * time.Minute}
	authSvc := auth.NewService(st, []byte(cfg.JWTSecret), cfg.TokenTTL, cfg.SessionTTL)
	return NewServer(st, authSvc, cfg)
}

func doRequest(t *testing.T, server *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Token", token)
	}
	resp := httptest.NewRecorder()
	server.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("json parse: %v: %s", err, resp.Body.String())
	}
	return payload
}

func registerTestUser(t *testing.T, server *Server, username string) string {
	t.Helper()
	body := fmt.Sprintf(`{"user":{"username":%q,"email":%q,"password":"password123"}}`,
		username, username+"@example.com")
	resp := doRequest(t, server, http.MethodPost, "/api/users", "", body)
	if resp.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", username, resp.Code, resp.Body.String())
	}
	payload := decodeBody(t, resp)
	user := payload["user"].(map[string]any)
	return user["token"].(string)
}

func createTestArticle(t *testing.T, server *Server, token, title string, tags []string) map[string]any {
	t.Helper()
	tagJSON, _ := json.Marshal(tags)
	body := fmt.Sprintf(`{"article":{"title":%q,"description":"desc","body":"body","tagList":%s}}`,
		title, tagJSON)
	resp := doRequest(t, server, http.MethodPost, "/api/articles", token, body)
	if resp.Code != http.StatusOK {
		t.Fatalf("create article: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	return decodeBody(t, resp)["article"].(map[string]any)
}

func TestMakeSlug(t *testing.T) {
	slug := makeSlug("Hello World")
	if !strings.HasPrefix(slug, "hello_world_") {
		t.Fatalf("unexpected slug prefix: %s", slug)
	}
	suffix := strings.TrimPrefix(slug, "hello_world_")
	if len(suffix) != 5 {
		t.Fatalf("expected 5 char suffix, got %q", suffix)
	}
	for _, r := range suffix {
		if !strings.ContainsRune(slugSuffixChars, r) {
			t.Fatalf("suffix contains %q", r)
		}
	}
	if makeSlug("Hello World") == slug {
		t.Fatalf("equal titles must get distinct slugs")
	}
}

func TestMakeSlugSanitizesPunctuation(t *testing.T) {
	cases := map[string]string{
		"Go 1.22 / What's New?": "go_1_22_what_s_new_",
		"Hello, World!":         "hello_world_",
		"  spaced   out  ":      "spaced_out_",
	}
	for title, prefix := range cases {
		slug := makeSlug(title)
		if !strings.HasPrefix(slug, prefix) {
			t.Fatalf("makeSlug(%q) = %q, want prefix %q", title, slug, prefix)
		}
		for _, r := range slug {
			if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '_' &&
				!(r >= 'A' && r <= 'Z') {
				t.Fatalf("makeSlug(%q) = %q contains unsafe %q", title, slug, r)
			}
		}
	}
}

func TestPunctuatedTitleStaysRoutable(t *testing.T) {
	server := newTestServer(t)
	token := registerTestUser(t, server, "alice")

	article := createTestArticle(t, server, token, "Go 1.22 / What's New?", nil)
	slug := article["slug"].(string)
	if strings.ContainsAny(slug, "/?#'") {
		t.Fatalf("slug carries unsafe characters: %s", slug)
	}

	resp := doRequest(t, server, http.MethodGet, "/api/articles/"+slug, "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("article unreachable via its own slug: %d: %s", resp.Code, resp.Body.String())
	}
	got := decodeBody(t, resp)["article"].(map[string]any)
	if got["title"] != "Go 1.22 / What's New?" {
		t.Fatalf("unexpected title: %v", got["title"])
	}
}

func TestRegisterValidation(t *testing.T) {
	server := newTestServer(t)

	resp := doRequest(t, server, http.MethodPost, "/api/users", "",
		`{"user":{"username":"ab","email":"","password":"123"}}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	payload := decodeBody(t, resp)
	errs, ok := payload["errors"].(map[string]any)
	if !ok {
		t.Fatalf("expected errors object, got %s", resp.Body.String())
	}
	for _, field := range []string{"username", "email", "password"} {
		if _, ok := errs[field]; !ok {
			t.Fatalf("expected error on %s", field)
		}
	}
}

func TestRegisterDuplicate(t *testing.T) {
	server := newTestServer(t)
	registerTestUser(t, server, "alice")

	resp := doRequest(t, server, http.MethodPost, "/api/users", "",
		`{"user":{"username":"alice2","email":"alice@example.com","password":"password123"}}`)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", resp.Code)
	}

	resp = doRequest(t, server, http.MethodPost, "/api/users", "",
		`{"user":{"username":"alice","email":"other@example.com","password":"password123"}}`)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate username, got %d", resp.Code)
	}
}

func TestCurrentUserWithToken(t *testing.T) {
	server := newTestServer(t)
	token := registerTestUser(t, server, "alice")

	resp := doRequest(t, server, http.MethodGet, "/api/user", token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	user := decodeBody(t, resp)["user"].(map[string]any)
	if user["username"] != "alice" {
		t.Fatalf("unexpected user: %v", user["username"])
	}
	if user["token"] == "" {
		t.Fatalf("expected fresh token in response")
	}

	resp = doRequest(t, server, http.MethodGet, "/api/user", "garbage", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", resp.Code)
	}
	resp = doRequest(t, server, http.MethodGet, "/api/user", "", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing token, got %d", resp.Code)
	}
}

func TestLoginFlow(t *testing.T) {
	server := newTestServer(t)
	registerTestUser(t, server, "alice")

	resp := doRequest(t, server, http.MethodPost, "/api/users/login", "",
		`{"user":{"email":"alice@example.com","password":"password123"}}`)
	if resp.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", resp.Code, resp.Body.String())
	}
	if loc := resp.Header().Get("Location"); loc != "/api/user" {
		t.Fatalf("expected redirect to /api/user, got %q", loc)
	}

	var cookie *http.Cookie
	for _, c := range resp.Result().Cookies() {
		if c.Name == sessionCookie {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatalf("expected session cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 redeeming session, got %d: %s", rec.Code, rec.Body.String())
	}
	user := decodeBody(t, rec)["user"].(map[string]any)
	if user["email"] != "alice@example.com" {
		t.Fatalf("unexpected email: %v", user["email"])
	}

	// Sessions are single use.
	req = httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on reused session, got %d", rec.Code)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	server := newTestServer(t)
	registerTestUser(t, server, "alice")

	resp := doRequest(t, server, http.MethodPost, "/api/users/login", "",
		`{"user":{"email":"alice@example.com","password":"wrong"}}`)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.Code)
	}
	resp = doRequest(t, server, http.MethodPost, "/api/users/login", "",
		`{"user":{"email":"nobody@example.com","password":"password123"}}`)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown email, got %d", resp.Code)
	}
}

func TestUpdateUser(t *testing.T) {
	server := newTestServer(t)
	token := registerTestUser(t, server, "alice")

	resp := doRequest(t, server, http.MethodPut, "/api/user", token,
		`{"user":{"bio":"gopher","image":"https://example.com/a.png"}}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	user := decodeBody(t, resp)["user"].(map[string]any)
	if user["bio"] != "gopher" {
		t.Fatalf("bio not updated: %v", user["bio"])
	}
	// Fields absent from the patch stay put.
	if user["email"] != "alice@example.com" {
		t.Fatalf("email must be unchanged, got %v", user["email"])
	}

	resp = doRequest(t, server, http.MethodPut, "/api/user", token,
		`{"user":{"password":"123"}}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password, got %d", resp.Code)
	}

	resp = doRequest(t, server, http.MethodPut, "/api/user", "",
		`{"user":{"bio":"x"}}`)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}
}

func TestProfilesAndFollow(t *testing.T) {
	server := newTestServer(t)
	aliceToken := registerTestUser(t, server, "alice")
	registerTestUser(t, server, "bob")

	resp := doRequest(t, server, http.MethodGet, "/api/profiles/bob", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	profile := decodeBody(t, resp)["profile"].(map[string]any)
	if profile["following"] != false {
		t.Fatalf("anonymous viewer must see following=false")
	}

	resp = doRequest(t, server, http.MethodPost, "/api/profiles/bob/follow", aliceToken, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("follow: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	profile = decodeBody(t, resp)["profile"].(map[string]any)
	if profile["following"] != true {
		t.Fatalf("expected following=true after follow")
	}

	resp = doRequest(t, server, http.MethodPost, "/api/profiles/alice/follow", aliceToken, "")
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for self-follow, got %d", resp.Code)
	}

	resp = doRequest(t, server, http.MethodDelete, "/api/profiles/bob/follow", aliceToken, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("unfollow: expected 200, got %d", resp.Code)
	}
	profile = decodeBody(t, resp)["profile"].(map[string]any)
	if profile["following"] != false {
		t.Fatalf("expected following=false after unfollow")
	}

	resp = doRequest(t, server, http.MethodGet, "/api/profiles/nobody", "", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown profile, got %d", resp.Code)
	}
	resp = doRequest(t, server, http.MethodPost, "/api/profiles/bob/follow", "", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}
}

func TestArticleLifecycle(t *testing.T) {
	server := newTestServer(t)
	aliceToken := registerTestUser(t, server, "alice")
	bobToken := registerTestUser(t, server, "bob")

	article := createTestArticle(t, server, aliceToken, "Hello World", []string{"greetings", "demo"})
	slug := article["slug"].(string)
	if !strings.HasPrefix(slug, "hello_world_") {
		t.Fatalf("unexpected slug: %s", slug)
	}
	if article["author"].(map[string]any)["username"] != "alice" {
		t.Fatalf("unexpected author")
	}

	// Bob favorites it; alice cannot favorite her own.
	resp := doRequest(t, server, http.MethodPost, "/api/articles/"+slug+"/favorite", bobToken, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("favorite: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	favored := decodeBody(t, resp)["article"].(map[string]any)
	if favored["favorited"] != true || favored["favoritesCount"].(float64) != 1 {
		t.Fatalf("expected favorited=true count=1, got %v %v", favored["favorited"], favored["favoritesCount"])
	}

	resp = doRequest(t, server, http.MethodPost, "/api/articles/"+slug+"/favorite", aliceToken, "")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 favoriting own article, got %d", resp.Code)
	}
	resp = doRequest(t, server, http.MethodDelete, "/api/articles/"+slug+"/favorite", aliceToken, "")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 unfavoriting own article, got %d", resp.Code)
	}

	// Only the author can edit or delete.
	resp = doRequest(t, server, http.MethodPut, "/api/articles/"+slug, bobToken,
		`{"article":{"body":"hijacked"}}`)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 editing someone else's article, got %d", resp.Code)
	}

	resp = doRequest(t, server, http.MethodPut, "/api/articles/"+slug, aliceToken,
		`{"article":{"title":"Hello Again"}}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	updated := decodeBody(t, resp)["article"].(map[string]any)
	newSlug := updated["slug"].(string)
	if !strings.HasPrefix(newSlug, "hello_again_") {
		t.Fatalf("title change must mint a new slug, got %s", newSlug)
	}
	// The view keeps reflecting live favorite state after the update.
	if updated["favoritesCount"].(float64) != 1 {
		t.Fatalf("update response lost favorites count")
	}

	resp = doRequest(t, server, http.MethodGet, "/api/articles/"+slug, "", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("old slug should 404, got %d", resp.Code)
	}

	resp = doRequest(t, server, http.MethodDelete, "/api/articles/"+newSlug, bobToken, "")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 deleting someone else's article, got %d", resp.Code)
	}
	resp = doRequest(t, server, http.MethodDelete, "/api/articles/"+newSlug, aliceToken, "")
	if resp.Code != http.StatusAccepted {
		t.Fatalf("delete: expected 202, got %d", resp.Code)
	}
	resp = doRequest(t, server, http.MethodGet, "/api/articles/"+newSlug, "", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("deleted article should 404, got %d", resp.Code)
	}
}

func TestListArticlesFilterPrecedence(t *testing.T) {
	server := newTestServer(t)
	aliceToken := registerTestUser(t, server, "alice")
	bobToken := registerTestUser(t, server, "bob")

	tagged := createTestArticle(t, server, aliceToken, "Tagged Piece", []string{"go"})
	createTestArticle(t, server, aliceToken, "Plain Piece", nil)
	bobArticle := createTestArticle(t, server, bobToken, "Bobs Piece", []string{"go"})

	resp := doRequest(t, server, http.MethodPost,
		"/api/articles/"+bobArticle["slug"].(string)+"/favorite", aliceToken, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("favorite: %d", resp.Code)
	}

	// favorited wins over tag when both are present.
	resp = doRequest(t, server, http.MethodGet, "/api/articles?favorited=alice&tag=go", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", resp.Code)
	}
	payload := decodeBody(t, resp)
	articles := payload["articles"].([]any)
	if len(articles) != 1 {
		t.Fatalf("expected alice's 1 favorite, got %d", len(articles))
	}
	if articles[0].(map[string]any)["slug"] != bobArticle["slug"] {
		t.Fatalf("favorited filter returned the wrong article")
	}

	resp = doRequest(t, server, http.MethodGet, "/api/articles?tag=go", "", "")
	articles = decodeBody(t, resp)["articles"].([]any)
	if len(articles) != 2 {
		t.Fatalf("expected 2 go articles, got %d", len(articles))
	}

	// author narrows whatever the primary filter produced.
	resp = doRequest(t, server, http.MethodGet, "/api/articles?tag=go&author=alice", "", "")
	articles = decodeBody(t, resp)["articles"].([]any)
	if len(articles) != 1 || articles[0].(map[string]any)["slug"] != tagged["slug"] {
		t.Fatalf("author post-filter failed: %v", articles)
	}

	resp = doRequest(t, server, http.MethodGet, "/api/articles?limit=2", "", "")
	payload = decodeBody(t, resp)
	if payload["articlesCount"].(float64) != 2 {
		t.Fatalf("expected limit to cap the plain listing")
	}

	resp = doRequest(t, server, http.MethodGet, "/api/articles?favorited=nobody", "", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown favorited user, got %d", resp.Code)
	}

	// Invalid tokens fail even on optional-viewer endpoints.
	resp = doRequest(t, server, http.MethodGet, "/api/articles", "garbage", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token on listing, got %d", resp.Code)
	}
}

func TestComments(t *testing.T) {
	server := newTestServer(t)
	aliceToken := registerTestUser(t, server, "alice")
	bobToken := registerTestUser(t, server, "bob")
	article := createTestArticle(t, server, aliceToken, "Discussable", nil)
	slug := article["slug"].(string)

	resp := doRequest(t, server, http.MethodPost, "/api/articles/"+slug+"/comments", bobToken,
		`{"comment":{"body":""}}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty comment, got %d", resp.Code)
	}

	resp = doRequest(t, server, http.MethodPost, "/api/articles/"+slug+"/comments", bobToken,
		`{"comment":{"body":"first!"}}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("comment: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	comment := decodeBody(t, resp)["comment"].(map[string]any)
	commentID := comment["id"].(string)
	if comment["author"].(map[string]any)["username"] != "bob" {
		t.Fatalf("unexpected comment author")
	}

	resp = doRequest(t, server, http.MethodGet, "/api/articles/"+slug+"/comments", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("list comments: expected 200, got %d", resp.Code)
	}
	comments := decodeBody(t, resp)["comments"].([]any)
	if len(comments) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(comments))
	}

	resp = doRequest(t, server, http.MethodDelete, "/api/articles/"+slug+"/comments/"+commentID, aliceToken, "")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 deleting someone else's comment, got %d", resp.Code)
	}
	resp = doRequest(t, server, http.MethodDelete, "/api/articles/"+slug+"/comments/"+commentID, bobToken, "")
	if resp.Code != http.StatusAccepted {
		t.Fatalf("delete comment: expected 202, got %d", resp.Code)
	}
	resp = doRequest(t, server, http.MethodDelete, "/api/articles/"+slug+"/comments/"+commentID, bobToken, "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing comment, got %d", resp.Code)
	}

	resp = doRequest(t, server, http.MethodGet, "/api/articles/missing_slug/comments", "", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown article, got %d", resp.Code)
	}
}

func TestTags(t *testing.T) {
	server := newTestServer(t)
	token := registerTestUser(t, server, "alice")

	resp := doRequest(t, server, http.MethodGet, "/api/tags", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if decodeBody(t, resp)["tags"] == nil {
		t.Fatalf("tags must render as [], not null")
	}

	createTestArticle(t, server, token, "With Tags", []string{"beta", "alpha"})
	resp = doRequest(t, server, http.MethodGet, "/api/tags", "", "")
	tags := decodeBody(t, resp)["tags"].([]any)
	if len(tags) != 2 || tags[0] != "alpha" {
		t.Fatalf("unexpected tags: %v", tags)
	}
}

func TestUnknownRoutes(t *testing.T) {
	server := newTestServer(t)

	resp := doRequest(t, server, http.MethodGet, "/api/nope", "", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	resp = doRequest(t, server, http.MethodPatch, "/api/articles", "", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unsupported method, got %d", resp.Code)
	}
}

func TestVersionEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp := doRequest(t, server, http.MethodGet, "/api/version", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if _, ok := decodeBody(t, resp)["version"]; !ok {
		t.Fatalf("expected version field")
	}
}

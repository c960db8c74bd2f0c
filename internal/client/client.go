// Package client provides a Go client for the RealWorld API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

// Client is a RealWorld API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string
}

// New creates a new RealWorld client. The cookie jar carries the login
// session cookie through the login redirect.
func New(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}
}

// User is the account payload returned by the user endpoints.
type User struct {
	Token    string  `json:"token"`
	Email    string  `json:"email"`
	Username string  `json:"username"`
	Bio      *string `json:"bio"`
	Image    *string `json:"image"`
}

// Profile is another user's public view.
type Profile struct {
	Username  string  `json:"username"`
	Bio       *string `json:"bio"`
	Image     *string `json:"image"`
	Following bool    `json:"following"`
}

// Article is an article as returned by the API.
type Article struct {
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Body           string    `json:"body"`
	TagList        []string  `json:"tagList"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Favorited      bool      `json:"favorited"`
	FavoritesCount int       `json:"favoritesCount"`
	Author         Profile   `json:"author"`
}

// Comment is a comment as returned by the API.
type Comment struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Author    Profile   `json:"author"`
}

// doRequest performs an HTTP request, attaching the token when set.
func (c *Client) doRequest(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Token", c.Token)
	}
	return c.HTTPClient.Do(req)
}

func apiError(action string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("%s failed (%d): %s", action, resp.StatusCode, string(body))
}

func (c *Client) userFrom(resp *http.Response) (*User, error) {
	var result struct {
		User User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	c.Token = result.User.Token
	return &result.User, nil
}

// Register creates a new account and stores its token on the client.
func (c *Client) Register(username, email, password string) (*User, error) {
	reqBody := map[string]any{"user": map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}}
	resp, err := c.doRequest(http.MethodPost, "/api/users", reqBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, apiError("register", resp)
	}
	return c.userFrom(resp)
}

// Login verifies credentials and stores the returned token on the client.
// The server answers with a redirect to the current-user endpoint; the
// cookie jar carries the session cookie across it.
func (c *Client) Login(email, password string) (*User, error) {
	reqBody := map[string]any{"user": map[string]string{
		"email":    email,
		"password": password,
	}}
	resp, err := c.doRequest(http.MethodPost, "/api/users/login", reqBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("login", resp)
	}
	return c.userFrom(resp)
}

// CurrentUser fetches the authenticated user and refreshes the token.
func (c *Client) CurrentUser() (*User, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/user", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("current user", resp)
	}
	return c.userFrom(resp)
}

// UpdateUser applies a partial update to the authenticated user. Nil
// fields are left unchanged.
func (c *Client) UpdateUser(fields map[string]any) (*User, error) {
	resp, err := c.doRequest(http.MethodPut, "/api/user", map[string]any{"user": fields})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("update user", resp)
	}
	return c.userFrom(resp)
}

// GetProfile fetches a user's public profile.
func (c *Client) GetProfile(username string) (*Profile, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/profiles/"+url.PathEscape(username), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("get profile", resp)
	}
	return profileFrom(resp)
}

// Follow starts following a user.
func (c *Client) Follow(username string) (*Profile, error) {
	return c.setFollow(http.MethodPost, username)
}

// Unfollow stops following a user.
func (c *Client) Unfollow(username string) (*Profile, error) {
	return c.setFollow(http.MethodDelete, username)
}

func (c *Client) setFollow(method, username string) (*Profile, error) {
	resp, err := c.doRequest(method, "/api/profiles/"+url.PathEscape(username)+"/follow", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("follow", resp)
	}
	return profileFrom(resp)
}

func profileFrom(resp *http.Response) (*Profile, error) {
	var result struct {
		Profile Profile `json:"profile"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result.Profile, nil
}

// PostArticle publishes a new article.
func (c *Client) PostArticle(title, description, body string, tags []string) (*Article, error) {
	reqBody := map[string]any{"article": map[string]any{
		"title":       title,
		"description": description,
		"body":        body,
		"tagList":     tags,
	}}
	resp, err := c.doRequest(http.MethodPost, "/api/articles", reqBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("post article", resp)
	}
	return articleFrom(resp)
}

// ListArticles fetches articles matching the given query values
// (tag, author, favorited, limit, offset).
func (c *Client) ListArticles(query url.Values) ([]Article, error) {
	path := "/api/articles"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	resp, err := c.doRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("list articles", resp)
	}

	var result struct {
		Articles []Article `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result.Articles, nil
}

// GetArticle fetches a single article by slug.
func (c *Client) GetArticle(slug string) (*Article, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/articles/"+url.PathEscape(slug), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("get article", resp)
	}
	return articleFrom(resp)
}

// UpdateArticle updates an article you authored. Nil fields are left
// unchanged; a new title also changes the slug.
func (c *Client) UpdateArticle(slug string, fields map[string]any) (*Article, error) {
	resp, err := c.doRequest(http.MethodPut, "/api/articles/"+url.PathEscape(slug), map[string]any{"article": fields})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("update article", resp)
	}
	return articleFrom(resp)
}

// DeleteArticle deletes an article you authored.
func (c *Client) DeleteArticle(slug string) error {
	resp, err := c.doRequest(http.MethodDelete, "/api/articles/"+url.PathEscape(slug), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return apiError("delete article", resp)
	}
	return nil
}

// Favorite marks an article as a favorite.
func (c *Client) Favorite(slug string) (*Article, error) {
	return c.setFavorite(http.MethodPost, slug)
}

// Unfavorite removes an article from favorites.
func (c *Client) Unfavorite(slug string) (*Article, error) {
	return c.setFavorite(http.MethodDelete, slug)
}

func (c *Client) setFavorite(method, slug string) (*Article, error) {
	resp, err := c.doRequest(method, "/api/articles/"+url.PathEscape(slug)+"/favorite", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("favorite", resp)
	}
	return articleFrom(resp)
}

func articleFrom(resp *http.Response) (*Article, error) {
	var result struct {
		Article Article `json:"article"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result.Article, nil
}

// ListComments fetches an article's comments.
func (c *Client) ListComments(slug string) ([]Comment, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/articles/"+url.PathEscape(slug)+"/comments", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("list comments", resp)
	}

	var result struct {
		Comments []Comment `json:"comments"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result.Comments, nil
}

// PostComment adds a comment to an article.
func (c *Client) PostComment(slug, body string) (*Comment, error) {
	reqBody := map[string]any{"comment": map[string]string{"body": body}}
	resp, err := c.doRequest(http.MethodPost, "/api/articles/"+url.PathEscape(slug)+"/comments", reqBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("post comment", resp)
	}

	var result struct {
		Comment Comment `json:"comment"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result.Comment, nil
}

// DeleteComment deletes a comment you authored.
func (c *Client) DeleteComment(slug, id string) error {
	resp, err := c.doRequest(http.MethodDelete, "/api/articles/"+url.PathEscape(slug)+"/comments/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return apiError("delete comment", resp)
	}
	return nil
}

// ListTags fetches every known tag.
func (c *Client) ListTags() ([]string, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/tags", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("list tags", resp)
	}

	var result struct {
		Tags []string `json:"tags"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result.Tags, nil
}

package httpapp

import (
	"crypto/rand"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anmol4210/realworld-api/internal/model"
	"github.com/anmol4210/realworld-api/internal/store"
)

const slugSuffixChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// makeSlug lowercases the title, collapses every run of non-alphanumeric
// characters into a single underscore and appends a random five character
// suffix so equal titles get distinct slugs. The result contains only
// [a-z0-9_], so it always survives path-segment routing.
func makeSlug(title string) string {
	var base []byte
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			base = append(base, byte(r))
		} else if n := len(base); n > 0 && base[n-1] != '_' {
			base = append(base, '_')
		}
	}
	if n := len(base); n > 0 && base[n-1] == '_' {
		base = base[:n-1]
	}
	suffix := make([]byte, 5)
	_, _ = rand.Read(suffix)
	for i, b := range suffix {
		suffix[i] = slugSuffixChars[int(b)%len(slugSuffixChars)]
	}
	return string(base) + "_" + string(suffix)
}

// handleCreateArticle godoc
//
//	@Summary		Create an article
//	@Description	Publish a new article with optional tags
//	@Tags			Articles
//	@Accept			json
//	@Produce		json
//	@Security		TokenAuth
//	@Param			article	body		object{article=object{title=string,description=string,body=string,tagList=[]string}}	true	"Article data"
//	@Success		200		{object}	map[string]any	"Created article"
//	@Failure		400		{object}	map[string]any	"Validation errors"
//	@Failure		401		{object}	map[string]any	"Unauthorized"
//	@Router			/api/articles [post]
func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := s.requireViewer(w, r)
	if !ok {
		return
	}

	var req struct {
		Article struct {
			Title       string   `json:"title"`
			Description string   `json:"description"`
			Body        string   `json:"body"`
			TagList     []string `json:"tagList"`
		} `json:"article"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Article.Title) == "" {
		writeValidationErrors(w, fieldErrors{"title": {"can't be blank"}})
		return
	}

	now := time.Now()
	article := model.Article{
		ID:          uuid.NewString(),
		Slug:        makeSlug(req.Article.Title),
		Title:       req.Article.Title,
		Description: req.Article.Description,
		Body:        req.Article.Body,
		AuthorID:    viewerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateArticle(r.Context(), &article, req.Article.TagList); err != nil {
		s.internalError(w, r, err)
		return
	}

	view, err := s.views.Article(r.Context(), viewerID, article)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"article": view})
}

// handleListArticles godoc
//
//	@Summary		List articles
//	@Description	List articles, optionally filtered by tag, author or favoriting user. Filters are applied in favorited, tag, all order; limit and offset paginate the unfiltered listing.
//	@Tags			Articles
//	@Produce		json
//	@Param			tag			query		string	false	"Tag filter"
//	@Param			author		query		string	false	"Author username filter"
//	@Param			favorited	query		string	false	"Username whose favorites to list"
//	@Param			limit		query		int		false	"Page size"	default(20)
//	@Param			offset		query		int		false	"Page offset"	default(0)
//	@Success		200			{object}	map[string]any	"Articles with count"
//	@Failure		404			{object}	map[string]any	"Favorited user not found"
//	@Router			/api/articles [get]
func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := s.optionalViewer(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	tag := query.Get("tag")
	author := query.Get("author")
	favorited := query.Get("favorited")
	limit := parseIntDefault(query.Get("limit"), 20)
	offset := parseIntDefault(query.Get("offset"), 0)

	var articles []model.Article
	var err error
	switch {
	case favorited != "":
		var user model.User
		user, err = s.store.GetUserByUsername(r.Context(), favorited)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				notFound(w)
				return
			}
			s.internalError(w, r, err)
			return
		}
		articles, err = s.store.ListArticlesFavoritedBy(r.Context(), user.ID)
	case tag != "":
		articles, err = s.store.ListArticlesByTag(r.Context(), tag)
	default:
		articles, err = s.store.ListArticles(r.Context(), store.ArticleListOpts{Limit: limit, Offset: offset})
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	if author != "" {
		articles, err = s.filterByAuthor(r, articles, author)
		if err != nil {
			s.internalError(w, r, err)
			return
		}
	}

	views, err := s.views.Articles(r.Context(), viewerID, articles)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"articles":      views,
		"articlesCount": len(views),
	})
}

// filterByAuthor narrows a fetched listing to one author's articles.
// An unknown author yields an empty listing, not an error.
func (s *Server) filterByAuthor(r *http.Request, articles []model.Article, author string) ([]model.Article, error) {
	user, err := s.store.GetUserByUsername(r.Context(), author)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	filtered := articles[:0]
	for _, article := range articles {
		if article.AuthorID == user.ID {
			filtered = append(filtered, article)
		}
	}
	return filtered, nil
}

// handleGetArticle godoc
//
//	@Summary		Get an article
//	@Description	Get a single article by slug
//	@Tags			Articles
//	@Produce		json
//	@Param			slug	path		string	true	"Article slug"
//	@Success		200		{object}	map[string]any	"Article"
//	@Failure		404		{object}	map[string]any	"Article not found"
//	@Router			/api/articles/{slug} [get]
func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request, slug string) {
	viewerID, ok := s.optionalViewer(w, r)
	if !ok {
		return
	}
	article, err := s.store.GetArticleBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w)
			return
		}
		s.internalError(w, r, err)
		return
	}
	view, err := s.views.Article(r.Context(), viewerID, article)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"article": view})
}

// handleUpdateArticle godoc
//
//	@Summary		Update an article
//	@Description	Update an article's title, description or body. A new title mints a new slug. Author only.
//	@Tags			Articles
//	@Accept			json
//	@Produce		json
//	@Security		TokenAuth
//	@Param			slug	path		string	true	"Article slug"
//	@Param			article	body		object{article=object{title=string,description=string,body=string}}	true	"Fields to update"
//	@Success		200		{object}	map[string]any	"Updated article"
//	@Failure		401		{object}	map[string]any	"Unauthorized"
//	@Failure		403		{object}	map[string]any	"Not the author"
//	@Failure		404		{object}	map[string]any	"Article not found"
//	@Router			/api/articles/{slug} [put]
func (s *Server) handleUpdateArticle(w http.ResponseWriter, r *http.Request, slug string) {
	viewerID, ok := s.requireViewer(w, r)
	if !ok {
		return
	}
	article, err := s.store.GetArticleBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w)
			return
		}
		s.internalError(w, r, err)
		return
	}
	if article.AuthorID != viewerID {
		writeError(w, http.StatusForbidden, errors.New("you can only edit your own articles"))
		return
	}

	var req struct {
		Article model.ArticlePatch `json:"article"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	patch := req.Article
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		writeValidationErrors(w, fieldErrors{"title": {"can't be blank"}})
		return
	}

	if patch.Title != nil && *patch.Title != article.Title {
		article.Title = *patch.Title
		article.Slug = makeSlug(*patch.Title)
	}
	if patch.Description != nil {
		article.Description = *patch.Description
	}
	if patch.Body != nil {
		article.Body = *patch.Body
	}
	article.UpdatedAt = time.Now()

	if err := s.store.UpdateArticle(r.Context(), &article); err != nil {
		s.internalError(w, r, err)
		return
	}

	view, err := s.views.Article(r.Context(), viewerID, article)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"article": view})
}

// handleDeleteArticle godoc
//
//	@Summary		Delete an article
//	@Description	Delete an article along with its comments, favorites and tag links. Author only.
//	@Tags			Articles
//	@Produce		json
//	@Security		TokenAuth
//	@Param			slug	path		string	true	"Article slug"
//	@Success		202		{object}	map[string]string	"Deletion accepted"
//	@Failure		401		{object}	map[string]any		"Unauthorized"
//	@Failure		403		{object}	map[string]any		"Not the author"
//	@Failure		404		{object}	map[string]any		"Article not found"
//	@Router			/api/articles/{slug} [delete]
func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request, slug string) {
	viewerID, ok := s.requireViewer(w, r)
	if !ok {
		return
	}
	article, err := s.store.GetArticleBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w)
			return
		}
		s.internalError(w, r, err)
		return
	}
	if article.AuthorID != viewerID {
		writeError(w, http.StatusForbidden, errors.New("you can only delete your own articles"))
		return
	}

	if err := s.store.DeleteArticle(r.Context(), article.ID); err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "article deleted"})
}

// handleFavorite godoc
//
//	@Summary		Favorite an article
//	@Description	Mark an article as a favorite. Favoriting your own article is rejected. Repeats are no-ops.
//	@Tags			Favorites
//	@Produce		json
//	@Security		TokenAuth
//	@Param			slug	path		string	true	"Article slug"
//	@Success		200		{object}	map[string]any	"Article with updated favorite state"
//	@Failure		401		{object}	map[string]any	"Unauthorized"
//	@Failure		403		{object}	map[string]any	"Cannot favorite your own article"
//	@Failure		404		{object}	map[string]any	"Article not found"
//	@Router			/api/articles/{slug}/favorite [post]
func (s *Server) handleFavorite(w http.ResponseWriter, r *http.Request, slug string) {
	s.setFavorite(w, r, slug, true)
}

// handleUnfavorite godoc
//
//	@Summary		Unfavorite an article
//	@Description	Remove an article from favorites. Authors cannot unfavorite their own article. Repeats are no-ops.
//	@Tags			Favorites
//	@Produce		json
//	@Security		TokenAuth
//	@Param			slug	path		string	true	"Article slug"
//	@Success		200		{object}	map[string]any	"Article with updated favorite state"
//	@Failure		401		{object}	map[string]any	"Unauthorized"
//	@Failure		403		{object}	map[string]any	"Cannot unfavorite your own article"
//	@Failure		404		{object}	map[string]any	"Article not found"
//	@Router			/api/articles/{slug}/favorite [delete]
func (s *Server) handleUnfavorite(w http.ResponseWriter, r *http.Request, slug string) {
	s.setFavorite(w, r, slug, false)
}

func (s *Server) setFavorite(w http.ResponseWriter, r *http.Request, slug string, favorite bool) {
	viewerID, ok := s.requireViewer(w, r)
	if !ok {
		return
	}
	article, err := s.store.GetArticleBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w)
			return
		}
		s.internalError(w, r, err)
		return
	}

	if favorite {
		err = s.store.AddFavorite(r.Context(), viewerID, article.ID)
	} else {
		err = s.store.RemoveFavorite(r.Context(), viewerID, article.ID)
	}
	if err != nil {
		if errors.Is(err, store.ErrSelfFavorite) {
			writeError(w, http.StatusForbidden, errors.New("you cannot favorite your own article"))
			return
		}
		s.internalError(w, r, err)
		return
	}

	view, err := s.views.Article(r.Context(), viewerID, article)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"article": view})
}

// handleListTags godoc
//
//	@Summary		List tags
//	@Description	List every tag ever attached to an article
//	@Tags			Tags
//	@Produce		json
//	@Success		200	{object}	map[string]any	"Tag names"
//	@Router			/api/tags [get]
func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.ListTags(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

package httpapp

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anmol4210/realworld-api/internal/model"
	"github.com/anmol4210/realworld-api/internal/store"
)

// handleListComments godoc
//
//	@Summary		List comments
//	@Description	List an article's comments oldest first
//	@Tags			Comments
//	@Produce		json
//	@Param			slug	path		string	true	"Article slug"
//	@Success		200		{object}	map[string]any	"Comments"
//	@Failure		404		{object}	map[string]any	"Article not found"
//	@Router			/api/articles/{slug}/comments [get]
func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request, slug string) {
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
	comments, err := s.store.ListCommentsByArticle(r.Context(), article.ID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	views, err := s.views.Comments(r.Context(), viewerID, comments)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": views})
}

// handleCreateComment godoc
//
//	@Summary		Post a comment
//	@Description	Add a comment to an article
//	@Tags			Comments
//	@Accept			json
//	@Produce		json
//	@Security		TokenAuth
//	@Param			slug	path		string	true	"Article slug"
//	@Param			comment	body		object{comment=object{body=string}}	true	"Comment data"
//	@Success		200		{object}	map[string]any	"Created comment"
//	@Failure		400		{object}	map[string]any	"Validation errors"
//	@Failure		401		{object}	map[string]any	"Unauthorized"
//	@Failure		404		{object}	map[string]any	"Article not found"
//	@Router			/api/articles/{slug}/comments [post]
func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request, slug string) {
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

	var req struct {
		Comment struct {
			Body string `json:"body"`
		} `json:"comment"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Comment.Body) == "" {
		writeValidationErrors(w, fieldErrors{"body": {"can't be blank"}})
		return
	}

	now := time.Now()
	comment := model.Comment{
		ID:        uuid.NewString(),
		ArticleID: article.ID,
		AuthorID:  viewerID,
		Body:      req.Comment.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateComment(r.Context(), &comment); err != nil {
		s.internalError(w, r, err)
		return
	}

	view, err := s.views.Comment(r.Context(), viewerID, comment)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comment": view})
}

// handleDeleteComment godoc
//
//	@Summary		Delete a comment
//	@Description	Delete your own comment from an article
//	@Tags			Comments
//	@Produce		json
//	@Security		TokenAuth
//	@Param			slug	path		string	true	"Article slug"
//	@Param			id		path		string	true	"Comment id"
//	@Success		202		{object}	map[string]string	"Deletion accepted"
//	@Failure		401		{object}	map[string]any		"Unauthorized"
//	@Failure		403		{object}	map[string]any		"Not the comment author"
//	@Failure		404		{object}	map[string]any		"Article or comment not found"
//	@Router			/api/articles/{slug}/comments/{id} [delete]
func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request, slug, id string) {
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
	comment, err := s.store.GetComment(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w)
			return
		}
		s.internalError(w, r, err)
		return
	}
	if comment.ArticleID != article.ID {
		notFound(w)
		return
	}
	if comment.AuthorID != viewerID {
		writeError(w, http.StatusForbidden, errors.New("you can only delete your own comments"))
		return
	}

	if err := s.store.DeleteComment(r.Context(), comment.ID); err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "comment deleted"})
}

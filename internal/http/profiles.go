package httpapp

import (
	"errors"
	"net/http"

	"github.com/anmol4210/realworld-api/internal/store"
)

// handleGetProfile godoc
//
//	@Summary		Get a profile
//	@Description	Get a user's public profile. The following flag is relative to the viewer.
//	@Tags			Profiles
//	@Produce		json
//	@Param			username	path		string	true	"Username"
//	@Success		200			{object}	map[string]any	"Profile"
//	@Failure		404			{object}	map[string]any	"User not found"
//	@Router			/api/profiles/{username} [get]
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request, username string) {
	viewerID, ok := s.optionalViewer(w, r)
	if !ok {
		return
	}
	user, err := s.store.GetUserByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w)
			return
		}
		s.internalError(w, r, err)
		return
	}
	profile, err := s.views.Profile(r.Context(), viewerID, user)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
}

// handleFollow godoc
//
//	@Summary		Follow a user
//	@Description	Start following a user. Following yourself is rejected.
//	@Tags			Profiles
//	@Produce		json
//	@Security		TokenAuth
//	@Param			username	path		string	true	"Username"
//	@Success		200			{object}	map[string]any	"Profile with following=true"
//	@Failure		401			{object}	map[string]any	"Unauthorized"
//	@Failure		404			{object}	map[string]any	"User not found"
//	@Failure		422			{object}	map[string]any	"Cannot follow yourself"
//	@Router			/api/profiles/{username}/follow [post]
func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request, username string) {
	s.setFollow(w, r, username, true)
}

// handleUnfollow godoc
//
//	@Summary		Unfollow a user
//	@Description	Stop following a user
//	@Tags			Profiles
//	@Produce		json
//	@Security		TokenAuth
//	@Param			username	path		string	true	"Username"
//	@Success		200			{object}	map[string]any	"Profile with following=false"
//	@Failure		401			{object}	map[string]any	"Unauthorized"
//	@Failure		404			{object}	map[string]any	"User not found"
//	@Router			/api/profiles/{username}/follow [delete]
func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request, username string) {
	s.setFollow(w, r, username, false)
}

func (s *Server) setFollow(w http.ResponseWriter, r *http.Request, username string, follow bool) {
	viewerID, ok := s.requireViewer(w, r)
	if !ok {
		return
	}
	target, err := s.store.GetUserByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			notFound(w)
			return
		}
		s.internalError(w, r, err)
		return
	}

	if follow {
		err = s.store.Follow(r.Context(), viewerID, target.ID)
	} else {
		err = s.store.Unfollow(r.Context(), viewerID, target.ID)
	}
	if err != nil {
		if errors.Is(err, store.ErrSelfFollow) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"errors": fieldErrors{"following": {"cannot follow yourself"}},
			})
			return
		}
		s.internalError(w, r, err)
		return
	}

	profile, err := s.views.Profile(r.Context(), viewerID, target)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
}

package httpapp

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/anmol4210/realworld-api/internal/auth"
	"github.com/anmol4210/realworld-api/internal/model"
	"github.com/anmol4210/realworld-api/internal/store"
)

func (s *Server) userResponse(user model.User) (map[string]any, error) {
	token, err := s.auth.MintToken(user.ID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"user": model.UserView{
		Token:    token,
		Email:    user.Email,
		Username: user.Username,
		Bio:      user.Bio,
		Image:    user.Image,
	}}, nil
}

// handleRegister godoc
//
//	@Summary		Register a user
//	@Description	Create a new account and return it with a signed token
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			user	body		object{user=object{username=string,email=string,password=string}}	true	"Registration data"
//	@Success		201		{object}	map[string]any		"User with token"
//	@Failure		400		{object}	map[string]any		"Validation errors"
//	@Failure		409		{object}	map[string]any		"Email or username taken"
//	@Router			/api/users [post]
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
		} `json:"user"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if errs := validateRegistration(req.User.Username, req.User.Email, req.User.Password); !errs.empty() {
		writeValidationErrors(w, errs)
		return
	}

	hash, err := s.auth.HashPassword(req.User.Password)
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	now := time.Now()
	user := model.User{
		ID:        uuid.NewString(),
		Email:     req.User.Email,
		Username:  req.User.Username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateUser(r.Context(), &user); err != nil {
		if status, errs, ok := duplicateUserErrors(err); ok {
			writeJSON(w, status, map[string]any{"errors": errs})
			return
		}
		s.internalError(w, r, err)
		return
	}
	if err := s.store.SetCredential(r.Context(), user.ID, hash); err != nil {
		s.internalError(w, r, err)
		return
	}

	resp, err := s.userResponse(user)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// handleLogin godoc
//
//	@Summary		Log in
//	@Description	Verify email and password, open a one-shot session and redirect to the current-user endpoint
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			user	body		object{user=object{email=string,password=string}}	true	"Credentials"
//	@Success		302		{string}	string			"Redirect to /api/user"
//	@Failure		422		{object}	map[string]any	"Invalid credentials"
//	@Router			/api/users/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		} `json:"user"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	session, err := s.auth.Login(r.Context(), req.User.Email, req.User.Password)
	if err != nil {
		if errors.Is(err, auth.ErrBadCredentials) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"errors": fieldErrors{"email or password": {"is invalid"}},
			})
			return
		}
		s.internalError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/api/user", http.StatusFound)
}

// handleCurrentUser godoc
//
//	@Summary		Get the current user
//	@Description	Resolve the login session cookie or Token header and return the user with a fresh token
//	@Tags			Users
//	@Produce		json
//	@Security		TokenAuth
//	@Success		200	{object}	map[string]any	"User with token"
//	@Failure		401	{object}	map[string]any	"Unauthorized"
//	@Router			/api/user [get]
func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	var user model.User

	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		user, err = s.auth.RedeemSession(r.Context(), cookie.Value)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				writeError(w, http.StatusUnauthorized, errors.New("invalid session"))
				return
			}
			s.internalError(w, r, err)
			return
		}
		// The session is single use. Expire the cookie along with it.
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	} else {
		viewerID, ok := s.requireViewer(w, r)
		if !ok {
			return
		}
		user, err = s.store.GetUser(r.Context(), viewerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, errors.New("invalid token"))
				return
			}
			s.internalError(w, r, err)
			return
		}
	}

	resp, err := s.userResponse(user)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleUpdateUser godoc
//
//	@Summary		Update the current user
//	@Description	Apply a partial update to the authenticated user
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Security		TokenAuth
//	@Param			user	body		object{user=object{email=string,username=string,password=string,bio=string,image=string}}	true	"Fields to update"
//	@Success		200		{object}	map[string]any	"Updated user with token"
//	@Failure		400		{object}	map[string]any	"Validation errors"
//	@Failure		401		{object}	map[string]any	"Unauthorized"
//	@Failure		409		{object}	map[string]any	"Email or username taken"
//	@Router			/api/user [put]
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := s.requireViewer(w, r)
	if !ok {
		return
	}

	var req struct {
		User model.UserPatch `json:"user"`
	}
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	patch := req.User
	if errs := validateUserPatch(patch.Username, patch.Email, patch.Password); !errs.empty() {
		writeValidationErrors(w, errs)
		return
	}

	user, err := s.store.GetUser(r.Context(), viewerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, errors.New("invalid token"))
			return
		}
		s.internalError(w, r, err)
		return
	}

	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.Username != nil {
		user.Username = *patch.Username
	}
	if patch.Bio != nil {
		user.Bio = patch.Bio
	}
	if patch.Image != nil {
		user.Image = patch.Image
	}
	user.UpdatedAt = time.Now()

	if err := s.store.UpdateUser(r.Context(), &user); err != nil {
		if status, errs, ok := duplicateUserErrors(err); ok {
			writeJSON(w, status, map[string]any{"errors": errs})
			return
		}
		s.internalError(w, r, err)
		return
	}

	if patch.Password != nil {
		hash, err := s.auth.HashPassword(*patch.Password)
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		if err := s.store.SetCredential(r.Context(), user.ID, hash); err != nil {
			s.internalError(w, r, err)
			return
		}
	}

	resp, err := s.userResponse(user)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func duplicateUserErrors(err error) (int, fieldErrors, bool) {
	switch {
	case errors.Is(err, store.ErrDuplicateEmail):
		return http.StatusConflict, fieldErrors{"email": {"has already been taken"}}, true
	case errors.Is(err, store.ErrDuplicateUsername):
		return http.StatusConflict, fieldErrors{"username": {"has already been taken"}}, true
	}
	return 0, nil, false
}

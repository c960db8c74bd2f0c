package httpapp

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/anmol4210/realworld-api/internal/auth"
	"github.com/anmol4210/realworld-api/internal/config"
	"github.com/anmol4210/realworld-api/internal/store"
	"github.com/anmol4210/realworld-api/internal/view"

	_ "github.com/anmol4210/realworld-api/docs" // swagger docs

	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

// sessionCookie carries the one-shot login session between the login
// redirect and the current-user endpoint.
const sessionCookie = "realworld_session"

type Server struct {
	store store.Store
	auth  *auth.Service
	views *view.Assembler
	cfg   config.Config
}

func NewServer(st store.Store, authSvc *auth.Service, cfg config.Config) *Server {
	return &Server{
		store: st,
		auth:  authSvc,
		views: view.NewAssembler(st),
		cfg:   cfg,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/swagger/") {
		httpSwagger.WrapHandler.ServeHTTP(w, r)
		return
	}
	if strings.HasPrefix(r.URL.Path, "/api/") {
		s.handleAPI(w, r)
		return
	}
	notFound(w)
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api")
	segments := splitPath(path)

	switch {
	case len(segments) == 1 && segments[0] == "users":
		if r.Method == http.MethodPost {
			s.handleRegister(w, r)
			return
		}
	case len(segments) == 2 && segments[0] == "users" && segments[1] == "login":
		if r.Method == http.MethodPost {
			s.handleLogin(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "user":
		if r.Method == http.MethodGet {
			s.handleCurrentUser(w, r)
			return
		}
		if r.Method == http.MethodPut {
			s.handleUpdateUser(w, r)
			return
		}
	case len(segments) == 2 && segments[0] == "profiles":
		if r.Method == http.MethodGet {
			s.handleGetProfile(w, r, segments[1])
			return
		}
	case len(segments) == 3 && segments[0] == "profiles" && segments[2] == "follow":
		if r.Method == http.MethodPost {
			s.handleFollow(w, r, segments[1])
			return
		}
		if r.Method == http.MethodDelete {
			s.handleUnfollow(w, r, segments[1])
			return
		}
	case len(segments) == 1 && segments[0] == "articles":
		if r.Method == http.MethodGet {
			s.handleListArticles(w, r)
			return
		}
		if r.Method == http.MethodPost {
			s.handleCreateArticle(w, r)
			return
		}
	case len(segments) == 2 && segments[0] == "articles":
		if r.Method == http.MethodGet {
			s.handleGetArticle(w, r, segments[1])
			return
		}
		if r.Method == http.MethodPut {
			s.handleUpdateArticle(w, r, segments[1])
			return
		}
		if r.Method == http.MethodDelete {
			s.handleDeleteArticle(w, r, segments[1])
			return
		}
	case len(segments) == 3 && segments[0] == "articles" && segments[2] == "favorite":
		if r.Method == http.MethodPost {
			s.handleFavorite(w, r, segments[1])
			return
		}
		if r.Method == http.MethodDelete {
			s.handleUnfavorite(w, r, segments[1])
			return
		}
	case len(segments) == 3 && segments[0] == "articles" && segments[2] == "comments":
		if r.Method == http.MethodGet {
			s.handleListComments(w, r, segments[1])
			return
		}
		if r.Method == http.MethodPost {
			s.handleCreateComment(w, r, segments[1])
			return
		}
	case len(segments) == 4 && segments[0] == "articles" && segments[2] == "comments":
		if r.Method == http.MethodDelete {
			s.handleDeleteComment(w, r, segments[1], segments[3])
			return
		}
	case len(segments) == 1 && segments[0] == "tags":
		if r.Method == http.MethodGet {
			s.handleListTags(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "version":
		if r.Method == http.MethodGet {
			s.handleVersion(w, r)
			return
		}
	case len(segments) == 1 && segments[0] == "openapi.json":
		if r.Method == http.MethodGet {
			s.serveOpenAPIJSON(w, r)
			return
		}
	}

	notFound(w)
}

// requireViewer resolves the Token header to a user id or writes a 401.
func (s *Server) requireViewer(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := strings.TrimSpace(r.Header.Get("Token"))
	if token == "" {
		writeError(w, http.StatusUnauthorized, errors.New("missing token"))
		return "", false
	}
	userID, err := s.auth.VerifyToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, errors.New("invalid token"))
		return "", false
	}
	return userID, true
}

// optionalViewer resolves the Token header when present. A missing header
// means anonymous; a present but invalid token is still a 401.
func (s *Server) optionalViewer(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := strings.TrimSpace(r.Header.Get("Token"))
	if token == "" {
		return "", true
	}
	userID, err := s.auth.VerifyToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, errors.New("invalid token"))
		return "", false
	}
	return userID, true
}

// handleVersion godoc
//
//	@Summary		Get build info
//	@Description	Get the server version, commit and build time
//	@Tags			Meta
//	@Produce		json
//	@Success		200	{object}	map[string]any	"Build metadata"
//	@Router			/api/version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version":    s.cfg.Version,
		"commit":     s.cfg.Commit,
		"build_time": s.cfg.BuildTime,
	})
}

func (s *Server) serveOpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write([]byte(doc))
}

// internalError logs the underlying error and writes a generic 500 so store
// internals never leak into responses.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	writeError(w, http.StatusInternalServerError, errors.New("internal server error"))
}

func readJSON(body io.ReadCloser, dest any) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	return dec.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, errors.New("not found"))
}

func parseIntDefault(value string, def int) int {
	if value == "" {
		return def
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return def
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

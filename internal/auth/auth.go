// Package auth implements password login, signed API tokens and the
// short-lived login sessions handed out by the login redirect flow.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/anmol4210/realworld-api/internal/model"
	"github.com/anmol4210/realworld-api/internal/store"
)

var (
	ErrBadCredentials = errors.New("auth: bad credentials")
	ErrInvalidToken   = errors.New("auth: invalid token")
)

// bcryptCost matches the cost the existing password hashes were minted with.
const bcryptCost = 8

type Service struct {
	store      store.Store
	secret     []byte
	tokenTTL   time.Duration
	sessionTTL time.Duration
}

func NewService(st store.Store, secret []byte, tokenTTL, sessionTTL time.Duration) *Service {
	return &Service{
		store:      st,
		secret:     secret,
		tokenTTL:   tokenTTL,
		sessionTTL: sessionTTL,
	}
}

func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// MintToken issues a signed token carrying only the user id.
func (s *Service) MintToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"id":  userID,
		"iat": now.Unix(),
		"exp": now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyToken checks the signature and expiry and returns the user id.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	id, ok := claims["id"].(string)
	if !ok || id == "" {
		return "", ErrInvalidToken
	}
	return id, nil
}

// Login verifies the email and password and opens a one-shot session.
// The session id is handed to the client as a cookie and redeemed exactly
// once by the current-user endpoint.
func (s *Service) Login(ctx context.Context, email, password string) (model.Session, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return model.Session{}, ErrBadCredentials
	}
	if err != nil {
		return model.Session{}, err
	}
	hash, err := s.store.GetCredential(ctx, user.ID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Session{}, ErrBadCredentials
	}
	if err != nil {
		return model.Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return model.Session{}, ErrBadCredentials
	}

	now := time.Now()
	session := model.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return model.Session{}, err
	}
	return session, nil
}

// RedeemSession consumes a session cookie value and returns the user it
// belongs to. A session can be redeemed only once and only before expiry.
func (s *Service) RedeemSession(ctx context.Context, id string) (model.User, error) {
	session, err := s.store.ConsumeSession(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.User{}, ErrInvalidToken
	}
	if err != nil {
		return model.User{}, err
	}
	if time.Now().After(session.ExpiresAt) {
		return model.User{}, ErrInvalidToken
	}
	return s.store.GetUser(ctx, session.UserID)
}

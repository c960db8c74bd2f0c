package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/anmol4210/realworld-api/internal/model"
	"github.com/anmol4210/realworld-api/internal/store/sqlite"
)

func newTestService(t *testing.T) (*Service, *sqlite.Store) {
	t.Helper()
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	st, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return NewService(st, []byte("test-secret"), time.Hour, 5*time.Minute), st
}

func registerUser(t *testing.T, svc *Service, st *sqlite.Store, username, password string) model.User {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	user := model.User{
		ID:        uuid.NewString(),
		Email:     username + "@example.com",
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := st.CreateUser(ctx, &user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	hash, err := svc.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := st.SetCredential(ctx, user.ID, hash); err != nil {
		t.Fatalf("set credential: %v", err)
	}
	return user
}

func TestTokenRoundTrip(t *testing.T) {
	svc, st := newTestService(t)
	defer st.Close()

	token, err := svc.MintToken("user-123")
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	userID, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if userID != "user-123" {
		t.Fatalf("expected user-123, got %s", userID)
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	svc, st := newTestService(t)
	defer st.Close()

	for _, token := range []string{"", "not-a-token", "aaa.bbb.ccc"} {
		if _, err := svc.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", token, err)
		}
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	svc, st := newTestService(t)
	defer st.Close()

	other := NewService(st, []byte("other-secret"), time.Hour, 5*time.Minute)
	token, err := other.MintToken("user-123")
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	if _, err := svc.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, st := newTestService(t)
	defer st.Close()
	ctx := context.Background()

	user := registerUser(t, svc, st, "alice", "password123")

	session, err := svc.Login(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.UserID != user.ID {
		t.Fatalf("session belongs to wrong user")
	}

	if _, err := svc.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials for unknown email, got %v", err)
	}
}

func TestRedeemSessionIsSingleUse(t *testing.T) {
	svc, st := newTestService(t)
	defer st.Close()
	ctx := context.Background()

	user := registerUser(t, svc, st, "alice", "password123")
	session, err := svc.Login(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	got, err := svc.RedeemSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("redeem session: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("redeemed wrong user")
	}

	if _, err := svc.RedeemSession(ctx, session.ID); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken on second redeem, got %v", err)
	}
}

func TestRedeemSessionExpired(t *testing.T) {
	svc, st := newTestService(t)
	defer st.Close()
	ctx := context.Background()

	registerUser(t, svc, st, "alice", "password123")

	short := NewService(st, []byte("test-secret"), time.Hour, -time.Minute)
	session, err := short.Login(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := short.RedeemSession(ctx, session.ID); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired session, got %v", err)
	}
}

package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/codecoach/internal/apperror"
	"github.com/sakif/codecoach/internal/auth"
)

func newTestAuthService(t *testing.T, repo *fakeUserRepo) (*AuthService, *auth.TokenService) {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	ps := auth.NewPasswordServiceWithCost(bcrypt.MinCost)

	return NewAuthService(repo, ts, ps, discardLogger()), ts
}

func TestRegister_ThenLogin(t *testing.T) {
	svc, ts := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()

	reg, err := svc.Register(ctx, "  alice  ", "correct-horse")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if reg.User.Login != "alice" {
		t.Errorf("Login = %q, want %q", reg.User.Login, "alice")
	}
	if reg.User.PasswordHash == "correct-horse" {
		t.Error("password stored in plaintext")
	}

	got, err := svc.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if got.User.ID != reg.User.ID {
		t.Errorf("Login user = %q, want %q", got.User.ID, reg.User.ID)
	}

	sub, err := ts.Validate(got.Token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if sub != reg.User.ID {
		t.Errorf("token subject = %q, want %q", sub, reg.User.ID)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestAuthService(t, newFakeUserRepo())

	tests := []struct {
		name     string
		login    string
		password string
	}{
		{"login too short", "ab", "correct-horse"},
		{"login with spaces", "a b c", "correct-horse"},
		{"password too short", "alice", "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.login, tt.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Register() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegister_DuplicateLogin(t *testing.T) {
	svc, _ := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "correct-horse"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	_, err := svc.Register(ctx, "alice", "another-password")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Register() error = %v, want ErrConflict", err)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, _ := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "correct-horse"); err != nil {
		t.Fatalf("setup: %v", err)
	}

	for _, tc := range []struct{ login, password string }{
		{"alice", "wrong-horse"},
		{"bob", "correct-horse"},
	} {
		_, err := svc.Login(ctx, tc.login, tc.password)
		if !errors.Is(err, apperror.ErrUnauthorized) {
			t.Errorf("Login(%q) error = %v, want ErrUnauthorized", tc.login, err)
		}
	}

	if _, err := svc.Login(ctx, "", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Login(empty) error = %v, want ErrValidation", err)
	}
}

func TestLogin_GitHubAccountHasNoPassword(t *testing.T) {
	svc, _ := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()

	if _, err := svc.LoginOrRegisterGitHub(ctx, &auth.GitHubUser{ID: 1, Login: "octocat"}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, err := svc.Login(ctx, "octocat", "anything-at-all"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("Login() error = %v, want ErrUnauthorized", err)
	}
}

func TestLoginOrRegisterGitHub_NewUser(t *testing.T) {
	svc, ts := newTestAuthService(t, newFakeUserRepo())

	result, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{
		ID:        42,
		Login:     "octocat",
		Email:     "octocat@github.com",
		AvatarURL: "https://avatars.githubusercontent.com/u/42",
	})
	if err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}
	if result.User.ID == "" {
		t.Error("User.ID should be set after upsert")
	}
	if result.User.Login != "octocat" {
		t.Errorf("User.Login = %q, want %q", result.User.Login, "octocat")
	}

	sub, err := ts.Validate(result.Token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if sub != result.User.ID {
		t.Errorf("token subject = %q, want %q", sub, result.User.ID)
	}
}

func TestLoginOrRegisterGitHub_ExistingUserGetsUpdatedProfile(t *testing.T) {
	svc, _ := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()

	first, err := svc.LoginOrRegisterGitHub(ctx, &auth.GitHubUser{ID: 99, Login: "old-login"})
	if err != nil {
		t.Fatalf("first login error: %v", err)
	}
	second, err := svc.LoginOrRegisterGitHub(ctx, &auth.GitHubUser{ID: 99, Login: "new-login"})
	if err != nil {
		t.Fatalf("second login error: %v", err)
	}

	if second.User.ID != first.User.ID {
		t.Errorf("ID changed from %q to %q", first.User.ID, second.User.ID)
	}
	if second.User.Login != "new-login" {
		t.Errorf("User.Login = %q, want %q", second.User.Login, "new-login")
	}
}

func TestLoginOrRegisterGitHub_Errors(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	if _, err := svc.LoginOrRegisterGitHub(context.Background(), nil); err == nil {
		t.Error("expected error for nil GitHub user")
	}

	repo.upsertErr = errors.New("database is on fire")
	if _, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{ID: 1, Login: "user"}); err == nil {
		t.Error("expected repository error to propagate")
	}
}

func TestGetUserByID(t *testing.T) {
	svc, _ := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()

	reg, err := svc.Register(ctx, "findme", "correct-horse")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	user, err := svc.GetUserByID(ctx, reg.User.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if user.Login != "findme" {
		t.Errorf("Login = %q, want %q", user.Login, "findme")
	}

	if _, err := svc.GetUserByID(ctx, ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("GetUserByID(\"\") error = %v, want ErrValidation", err)
	}
	if _, err := svc.GetUserByID(ctx, "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID(missing) error = %v, want ErrNotFound", err)
	}
}

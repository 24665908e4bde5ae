package service

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/tedlabs/identity/internal/dto"
	apperrors "github.com/tedlabs/identity/internal/errors"
	"github.com/tedlabs/identity/internal/model"
	"github.com/tedlabs/identity/internal/repository"
)

func newTestAuthService(t *testing.T, db *gorm.DB) *AuthService {
	t.Helper()

	userRepo := repository.NewUserRepository(db)
	return NewAuthService(
		userRepo,
		newTestTokenService(t, db),
		newTestProvisioningService(t, db),
	)
}

func TestLoginWithEmailAndNickname(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(t, db)
	createTestUser(t, db, "alice@example.com", "alice", "password123")
	ctx := context.Background()

	tests := []struct {
		name       string
		identifier string
	}{
		{"by email", "alice@example.com"},
		{"by nickname", "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair, err := svc.Login(ctx, &dto.LoginRequest{Identifier: tt.identifier, Password: "password123"})
			if err != nil {
				t.Fatalf("login failed: %v", err)
			}
			if pair.AccessToken == "" || pair.RefreshToken == "" {
				t.Error("expected a full token pair")
			}
		})
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(t, db)
	createTestUser(t, db, "bob@example.com", "bob", "password123")
	ctx := context.Background()

	tests := []struct {
		name       string
		identifier string
		password   string
	}{
		{"unknown email", "nobody@example.com", "password123"},
		{"unknown nickname", "nobody", "password123"},
		{"wrong password", "bob@example.com", "wrong-password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, &dto.LoginRequest{Identifier: tt.identifier, Password: tt.password})
			if !errors.Is(err, apperrors.ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestRegisterIssuesTokens(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(t, db)

	req := &dto.RegisterRequest{
		Email:     "carol@example.com",
		Name:      "Carol",
		Nickname:  "carol",
		Password:  "password123",
		Gender:    "FEMALE",
		Birthday:  "1992-03-14",
		Introduce: "hello",
	}
	pair, err := svc.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if pair.AccessToken == "" {
		t.Error("expected registration to return tokens")
	}

	var user model.User
	if err := db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		t.Fatalf("failed to load registered user: %v", err)
	}
	if !user.ProfileCompleted {
		t.Error("expected a registered profile to be complete")
	}
	if user.Password == req.Password {
		t.Error("expected the password to be stored hashed")
	}
}

func TestRegisterDuplicateChecks(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(t, db)
	createTestUser(t, db, "dave@example.com", "dave", "password123")
	ctx := context.Background()

	base := dto.RegisterRequest{
		Name:      "Dave",
		Password:  "password123",
		Gender:    "MALE",
		Birthday:  "1990-01-01",
		Introduce: "hi",
	}

	dupEmail := base
	dupEmail.Email = "dave@example.com"
	dupEmail.Nickname = "newdave"
	if _, err := svc.Register(ctx, &dupEmail); !errors.Is(err, apperrors.ErrEmailExists) {
		t.Errorf("expected ErrEmailExists, got %v", err)
	}

	dupNickname := base
	dupNickname.Email = "other@example.com"
	dupNickname.Nickname = "dave"
	if _, err := svc.Register(ctx, &dupNickname); !errors.Is(err, apperrors.ErrNicknameExists) {
		t.Errorf("expected ErrNicknameExists, got %v", err)
	}
}

func TestSocialLoginEndToEnd(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(t, db)
	ctx := context.Background()

	attrs := map[string]any{
		"sub":   "g-100",
		"email": "erin@example.com",
		"name":  "Erin",
	}

	pair, err := svc.SocialLogin(ctx, "google", attrs)
	if err != nil {
		t.Fatalf("social login failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("expected a full token pair")
	}

	// Repeat login reuses the same user and replaces the refresh token.
	again, err := svc.SocialLogin(ctx, "google", attrs)
	if err != nil {
		t.Fatalf("repeat social login failed: %v", err)
	}
	if again.RefreshToken == pair.RefreshToken {
		t.Error("expected a fresh refresh token on repeat login")
	}

	var userCount int64
	db.Model(&model.User{}).Count(&userCount)
	if userCount != 1 {
		t.Errorf("expected one user after repeat login, got %d", userCount)
	}
}

func TestSocialLoginUnknownProvider(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(t, db)

	if _, err := svc.SocialLogin(context.Background(), "github", map[string]any{}); !errors.Is(err, apperrors.ErrInvalidProvider) {
		t.Errorf("expected ErrInvalidProvider, got %v", err)
	}
}

func TestRefreshAndLogoutFlow(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAuthService(t, db)
	createTestUser(t, db, "fay@example.com", "fay", "password123")
	ctx := context.Background()

	pair, err := svc.Login(ctx, &dto.LoginRequest{Identifier: "fay", Password: "password123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	rotated, err := svc.Refresh(ctx, &dto.TokenRefreshRequest{RefreshToken: pair.RefreshToken})
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	if err := svc.Logout(ctx, rotated.RefreshToken); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	if _, err := svc.Refresh(ctx, &dto.TokenRefreshRequest{RefreshToken: rotated.RefreshToken}); !errors.Is(err, apperrors.ErrInvalidRefreshToken) {
		t.Errorf("expected ErrInvalidRefreshToken after logout, got %v", err)
	}
}

package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	apperrors "github.com/tedlabs/identity/internal/errors"
)

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{"empty", "", true},
		{"too short", "short-secret", true},
		{"exactly 32 bytes", strings.Repeat("a", 32), false},
		{"longer", strings.Repeat("a", 64), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJWTService(tt.secret, time.Minute, time.Hour)
			if tt.wantErr {
				if !errors.Is(err, apperrors.ErrSigningConfig) {
					t.Errorf("expected ErrSigningConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestJWTService(t)

	token, err := svc.GenerateAccessToken(42, "ROLE_USER")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}

	if claims.UserID != 42 {
		t.Errorf("expected user id 42, got %d", claims.UserID)
	}
	if claims.Role != "ROLE_USER" {
		t.Errorf("expected role ROLE_USER, got %q", claims.Role)
	}
	if remaining := time.Until(claims.ExpiresAt); remaining < 29*time.Minute || remaining > 31*time.Minute {
		t.Errorf("expected expiry about 30m out, got %v", remaining)
	}
}

func TestValidateAccessTokenRejectsTampering(t *testing.T) {
	svc := newTestJWTService(t)

	token, err := svc.GenerateAccessToken(1, "ROLE_USER")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"truncated", token[:len(token)-10]},
		{"appended garbage", token + "xx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ValidateAccessToken(tt.token); !errors.Is(err, apperrors.ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestValidateAccessTokenRejectsWrongKey(t *testing.T) {
	svc := newTestJWTService(t)
	other, err := NewJWTService("another-secret-key-that-is-long-enough", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("failed to create jwt service: %v", err)
	}

	token, err := other.GenerateAccessToken(1, "ROLE_USER")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := svc.ValidateAccessToken(token); !errors.Is(err, apperrors.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}

func TestValidateAccessTokenRejectsExpired(t *testing.T) {
	svc, err := NewJWTService(strings.Repeat("k", 32), -time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("failed to create jwt service: %v", err)
	}

	token, err := svc.GenerateAccessToken(1, "ROLE_USER")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := svc.ValidateAccessToken(token); !errors.Is(err, apperrors.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestExtractUserID(t *testing.T) {
	svc := newTestJWTService(t)

	token, err := svc.GenerateAccessToken(7, "ROLE_ADMIN")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	userID, err := svc.ExtractUserID(token)
	if err != nil {
		t.Fatalf("failed to extract user id: %v", err)
	}
	if userID != 7 {
		t.Errorf("expected user id 7, got %d", userID)
	}

	if _, err := svc.ExtractUserID("bogus"); !errors.Is(err, apperrors.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestExtractExpiry(t *testing.T) {
	svc := newTestJWTService(t)

	token, err := svc.GenerateAccessToken(7, "ROLE_USER")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	expiry, err := svc.ExtractExpiry(token)
	if err != nil {
		t.Fatalf("failed to extract expiry: %v", err)
	}
	if remaining := time.Until(expiry); remaining < 29*time.Minute || remaining > 31*time.Minute {
		t.Errorf("expected expiry about 30m out, got %v", remaining)
	}

	if _, err := svc.ExtractExpiry("bogus"); !errors.Is(err, apperrors.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tedlabs/identity/internal/constants"
	apperrors "github.com/tedlabs/identity/internal/errors"
	"github.com/tedlabs/identity/internal/model"
	"github.com/tedlabs/identity/internal/repository"
)

func TestIssueReplacesExistingToken(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestTokenService(t, db)
	user := createTestUser(t, db, "issue@example.com", "issuer", "password123")
	ctx := context.Background()

	var lastRefresh string
	for i := 0; i < 3; i++ {
		pair, err := svc.Issue(ctx, user)
		if err != nil {
			t.Fatalf("issue %d failed: %v", i, err)
		}
		if pair.RefreshToken == lastRefresh {
			t.Fatal("expected a new refresh token on every issuance")
		}
		lastRefresh = pair.RefreshToken
	}

	if count := countRefreshTokens(t, db, user.ID); count != 1 {
		t.Errorf("expected exactly one refresh token row, got %d", count)
	}

	// Only the latest token survives.
	if _, err := svc.Rotate(ctx, lastRefresh); err != nil {
		t.Errorf("latest token should rotate cleanly: %v", err)
	}
}

func TestIssueResponseShape(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestTokenService(t, db)
	user := createTestUser(t, db, "shape@example.com", "shaper", "password123")

	pair, err := svc.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if pair.TokenType != constants.TokenTypeBearer {
		t.Errorf("expected token type Bearer, got %q", pair.TokenType)
	}
	if pair.ExpiresIn != int64((30 * time.Minute).Seconds()) {
		t.Errorf("expected expires_in 1800, got %d", pair.ExpiresIn)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("expected both tokens to be set")
	}
}

func TestRotateConsumesToken(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestTokenService(t, db)
	user := createTestUser(t, db, "rotate@example.com", "rotator", "password123")
	ctx := context.Background()

	pair, err := svc.Issue(ctx, user)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	rotated, err := svc.Rotate(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("rotate failed: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Error("expected rotation to mint a different refresh token")
	}

	// The consumed token must never work again.
	if _, err := svc.Rotate(ctx, pair.RefreshToken); !errors.Is(err, apperrors.ErrInvalidRefreshToken) {
		t.Errorf("expected ErrInvalidRefreshToken for consumed token, got %v", err)
	}

	// The replacement still works.
	if _, err := svc.Rotate(ctx, rotated.RefreshToken); err != nil {
		t.Errorf("replacement token should rotate cleanly: %v", err)
	}

	if count := countRefreshTokens(t, db, user.ID); count != 1 {
		t.Errorf("expected exactly one refresh token row after rotations, got %d", count)
	}
}

func TestRefreshTokenRowPerUserIsSchemaEnforced(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "unique@example.com", "uniquer", "password123")

	first := &model.RefreshToken{UserID: user.ID, Token: "token-a", ExpiresAt: time.Now().Add(time.Hour)}
	if err := db.Create(first).Error; err != nil {
		t.Fatalf("failed to insert first token: %v", err)
	}

	// A second row for the same user violates the unique index, so the
	// invariant holds even for writers that bypass the upsert.
	second := &model.RefreshToken{UserID: user.ID, Token: "token-b", ExpiresAt: time.Now().Add(time.Hour)}
	if err := db.Create(second).Error; !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("expected ErrDuplicatedKey for second row, got %v", err)
	}
}

func TestReplaceForUserUpserts(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRefreshTokenRepository(db)
	user := createTestUser(t, db, "upsert@example.com", "upserter", "password123")
	ctx := context.Background()

	if err := repo.ReplaceForUser(ctx, user.ID, "token-one", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("first replace failed: %v", err)
	}
	if err := repo.ReplaceForUser(ctx, user.ID, "token-two", time.Now().Add(2*time.Hour)); err != nil {
		t.Fatalf("second replace failed: %v", err)
	}

	if count := countRefreshTokens(t, db, user.ID); count != 1 {
		t.Fatalf("expected one row after two replaces, got %d", count)
	}

	row, err := repo.FindByToken(ctx, "token-two")
	if err != nil {
		t.Fatalf("expected the latest token to be stored: %v", err)
	}
	if row.UserID != user.ID {
		t.Errorf("expected row for user %d, got %d", user.ID, row.UserID)
	}
	if _, err := repo.FindByToken(ctx, "token-one"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected the replaced token to be gone, got %v", err)
	}
}

func TestIssueFailsWhenConsumedTokenAlreadySpent(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestTokenService(t, db)
	user := createTestUser(t, db, "spent@example.com", "spender", "password123")
	ctx := context.Background()

	// The consumed token was deleted by a concurrent rotation between the
	// lookup and the transactional delete; claiming zero rows must fail and
	// roll the issuance back.
	if _, err := svc.issue(ctx, user, "already-spent"); !errors.Is(err, apperrors.ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
	if count := countRefreshTokens(t, db, user.ID); count != 0 {
		t.Errorf("expected no token row after rolled-back issuance, got %d", count)
	}
}

func TestRotateUnknownToken(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestTokenService(t, db)

	if _, err := svc.Rotate(context.Background(), "no-such-token"); !errors.Is(err, apperrors.ErrInvalidRefreshToken) {
		t.Errorf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestRotateExpiredTokenDeletesRow(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestTokenService(t, db)
	user := createTestUser(t, db, "expired@example.com", "expirer", "password123")
	ctx := context.Background()

	row := &model.RefreshToken{
		UserID:    user.ID,
		Token:     "expired-token",
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("failed to insert expired token: %v", err)
	}

	if _, err := svc.Rotate(ctx, "expired-token"); !errors.Is(err, apperrors.ErrRefreshTokenExpired) {
		t.Fatalf("expected ErrRefreshTokenExpired, got %v", err)
	}

	// The expired row is cleaned up, so a retry reports it as unknown.
	if count := countRefreshTokens(t, db, user.ID); count != 0 {
		t.Errorf("expected expired row to be deleted, found %d rows", count)
	}
	if _, err := svc.Rotate(ctx, "expired-token"); !errors.Is(err, apperrors.ErrInvalidRefreshToken) {
		t.Errorf("expected ErrInvalidRefreshToken on retry, got %v", err)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestTokenService(t, db)
	user := createTestUser(t, db, "revoke@example.com", "revoker", "password123")
	ctx := context.Background()

	pair, err := svc.Issue(ctx, user)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if err := svc.Revoke(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if err := svc.Revoke(ctx, pair.RefreshToken); err != nil {
		t.Errorf("second revoke should be a no-op, got %v", err)
	}

	if _, err := svc.Rotate(ctx, pair.RefreshToken); !errors.Is(err, apperrors.ErrInvalidRefreshToken) {
		t.Errorf("expected revoked token to be unknown, got %v", err)
	}
}

func TestRevokeAllForUser(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestTokenService(t, db)
	user := createTestUser(t, db, "revokeall@example.com", "revokerall", "password123")
	ctx := context.Background()

	if _, err := svc.Issue(ctx, user); err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if err := svc.RevokeAllForUser(ctx, user.ID); err != nil {
		t.Fatalf("revoke all failed: %v", err)
	}
	if count := countRefreshTokens(t, db, user.ID); count != 0 {
		t.Errorf("expected no refresh tokens, got %d", count)
	}
}

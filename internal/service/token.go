package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tedlabs/identity/internal/constants"
	"github.com/tedlabs/identity/internal/dto"
	apperrors "github.com/tedlabs/identity/internal/errors"
	"github.com/tedlabs/identity/internal/model"
	"github.com/tedlabs/identity/internal/repository"
	ctxutil "github.com/tedlabs/identity/pkg/context"
	"github.com/tedlabs/identity/pkg/logger"
)

// TokenService owns the session lifecycle: it mints access/refresh pairs,
// rotates refresh tokens on use and revokes them on logout. Every refresh
// token write goes through ReplaceForUser inside one transaction, which keeps
// the invariant of at most one live refresh token per user.
type TokenService struct {
	db         *gorm.DB
	jwtService *JWTService
	tokenRepo  *repository.RefreshTokenRepository
	userRepo   *repository.UserRepository
}

func NewTokenService(db *gorm.DB, jwtService *JWTService, tokenRepo *repository.RefreshTokenRepository, userRepo *repository.UserRepository) *TokenService {
	return &TokenService{
		db:         db,
		jwtService: jwtService,
		tokenRepo:  tokenRepo,
		userRepo:   userRepo,
	}
}

// Issue mints a new access/refresh pair for the user, replacing any refresh
// token the user already holds.
func (s *TokenService) Issue(ctx context.Context, user *model.User) (*dto.TokenResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "Issue")
	return s.issue(ctx, user, "")
}

// Rotate exchanges a refresh token for a fresh pair. Refresh tokens are
// single-use: the presented token is consumed even though a new one is minted
// in the same call. Unknown and expired tokens both fail as credential errors;
// an expired row is deleted on detection.
func (s *TokenService) Rotate(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "Rotate")

	row, err := s.tokenRepo.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WarnWithContext(ctx, "Refresh token not found").Log()
			return nil, apperrors.ErrInvalidRefreshToken
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if row.IsExpired() {
		// Lazy cleanup: the expired row is removed so the token string can
		// never match again.
		if _, err := s.tokenRepo.DeleteByToken(ctx, refreshToken); err != nil {
			logger.WarnWithContext(ctx, "Failed to delete expired refresh token").
				Int("user_id", int(row.UserID)).
				Err(err).
				Log()
		}
		logger.InfoWithContext(ctx, "Refresh token expired").
			Int("user_id", int(row.UserID)).
			Log()
		return nil, apperrors.ErrRefreshTokenExpired
	}

	user, err := s.userRepo.GetByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidRefreshToken
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return s.issue(ctx, user, refreshToken)
}

// Revoke deletes the refresh token if it exists. Revoking an absent token is
// not an error.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	ctx = ctxutil.WithOperation(ctx, "service", "Revoke")

	if _, err := s.tokenRepo.DeleteByToken(ctx, refreshToken); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return nil
}

// RevokeAllForUser removes every refresh token the user holds.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID uint) error {
	ctx = ctxutil.WithOperation(ctx, "service", "RevokeAllForUser")

	if err := s.tokenRepo.DeleteAllForUser(ctx, userID); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return nil
}

// issue generates the pair and persists the refresh token. consumed names a
// token being rotated away; the delete must claim exactly one row inside the
// transaction, which makes rotation single-use even when two calls present
// the same token concurrently. The replacement upsert commits in the same
// transaction so no crash leaves the user without a live token.
func (s *TokenService) issue(ctx context.Context, user *model.User, consumed string) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to sign access token").
			Int("user_id", int(user.ID)).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	refreshToken := uuid.NewString()
	expiresAt := time.Now().Add(s.jwtService.RefreshTTL())

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.tokenRepo.WithTx(tx)
		if consumed != "" {
			deleted, err := repo.DeleteByToken(ctx, consumed)
			if err != nil {
				return err
			}
			if deleted == 0 {
				// A concurrent rotation spent the token after our lookup.
				return apperrors.ErrInvalidRefreshToken
			}
		}
		return repo.ReplaceForUser(ctx, user.ID, refreshToken, expiresAt)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidRefreshToken) {
			logger.WarnWithContext(ctx, "Refresh token already consumed").
				Int("user_id", int(user.ID)).
				Log()
			return nil, apperrors.ErrInvalidRefreshToken
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Token pair issued").
		Int("user_id", int(user.ID)).
		Bool("rotated", consumed != "").
		Log()

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    constants.TokenTypeBearer,
		ExpiresIn:    int64(s.jwtService.AccessTTL().Seconds()),
	}, nil
}

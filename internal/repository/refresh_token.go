package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tedlabs/identity/internal/model"
	"github.com/tedlabs/identity/pkg/logger"
)

type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *RefreshTokenRepository) WithTx(tx *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: tx}
}

// ReplaceForUser stores the user's refresh token as a single atomic upsert
// against the unique user_id index. Concurrent issuers serialize on the index
// and the last writer wins, so the one-row-per-user invariant holds under any
// interleaving. This is the only write path for refresh tokens.
func (r *RefreshTokenRepository) ReplaceForUser(ctx context.Context, userID uint, token string, expiresAt time.Time) error {
	row := &model.RefreshToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "expires_at", "created_at"}),
	}).Create(row).Error
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to store refresh token").
			Int("user_id", int(userID)).
			Err(err).
			Log()
		return err
	}

	return nil
}

// FindByToken looks up a refresh token row by its opaque token string.
func (r *RefreshTokenRepository) FindByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var row model.RefreshToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// DeleteByToken removes the row holding the given token, if present, and
// reports how many rows were removed. Callers that need single-use semantics
// check the count; idempotent callers ignore it.
func (r *RefreshTokenRepository) DeleteByToken(ctx context.Context, token string) (int64, error) {
	result := r.db.WithContext(ctx).Where("token = ?", token).Delete(&model.RefreshToken{})
	return result.RowsAffected, result.Error
}

// DeleteAllForUser removes every refresh token the user holds.
func (r *RefreshTokenRepository) DeleteAllForUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.RefreshToken{}).Error
}

// CountForUser reports how many refresh token rows the user holds.
func (r *RefreshTokenRepository) CountForUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.RefreshToken{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

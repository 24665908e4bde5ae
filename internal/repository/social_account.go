package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tedlabs/identity/internal/model"
	"github.com/tedlabs/identity/pkg/logger"
)

type SocialAccountRepository struct {
	db *gorm.DB
}

func NewSocialAccountRepository(db *gorm.DB) *SocialAccountRepository {
	return &SocialAccountRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *SocialAccountRepository) WithTx(tx *gorm.DB) *SocialAccountRepository {
	return &SocialAccountRepository{db: tx}
}

// GetByProviderID finds a social account by its (provider, provider_user_id)
// pair, the account's natural key.
func (r *SocialAccountRepository) GetByProviderID(ctx context.Context, provider model.Provider, providerUserID string) (*model.SocialAccount, error) {
	var account model.SocialAccount
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_user_id = ?", provider, providerUserID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Create inserts a new social account. Callers must treat
// gorm.ErrDuplicatedKey as "someone else created it first" and retry as a
// lookup.
func (r *SocialAccountRepository) Create(ctx context.Context, account *model.SocialAccount) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return err
	}

	logger.InfoWithContext(ctx, "Social account created").
		String("provider", string(account.Provider)).
		String("provider_user_id", account.ProviderUserID).
		Int("social_account_id", int(account.ID)).
		Log()

	return nil
}

// Save persists mutations made through the entity's mutation methods.
func (r *SocialAccountRepository) Save(ctx context.Context, account *model.SocialAccount) error {
	if err := r.db.WithContext(ctx).Save(account).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to save social account").
			Int("social_account_id", int(account.ID)).
			Err(err).
			Log()
		return err
	}
	return nil
}

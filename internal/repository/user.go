package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tedlabs/identity/internal/model"
	"github.com/tedlabs/identity/pkg/logger"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail finds user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByNickname finds user by nickname
func (r *UserRepository) GetByNickname(ctx context.Context, nickname string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("nickname = ?", nickname).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("nickname = ?", nickname).Count(&count).Error
	return count > 0, err
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	start := time.Now()
	result := r.db.WithContext(ctx).Create(user)

	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to create user").
			String("email", user.Email).
			Duration(time.Since(start)).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.InfoWithContext(ctx, "User created").
		String("email", user.Email).
		Int("user_id", int(user.ID)).
		Duration(time.Since(start)).
		Log()

	return nil
}

// Save persists mutations made through the entity's mutation methods.
func (r *UserRepository) Save(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to save user").
			Int("user_id", int(user.ID)).
			Err(err).
			Log()
		return err
	}
	return nil
}

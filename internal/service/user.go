package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tedlabs/identity/internal/dto"
	apperrors "github.com/tedlabs/identity/internal/errors"
	"github.com/tedlabs/identity/internal/model"
	"github.com/tedlabs/identity/internal/repository"
	ctxutil "github.com/tedlabs/identity/pkg/context"
	"github.com/tedlabs/identity/pkg/logger"
)

// UserService serves profile reads and mutations. Reads go through the cache;
// every mutation writes the database and invalidates the cached profile.
type UserService struct {
	userRepo *repository.UserRepository
	cache    *CacheService
}

func NewUserService(userRepo *repository.UserRepository, cache *CacheService) *UserService {
	return &UserService{
		userRepo: userRepo,
		cache:    cache,
	}
}

// GetProfile returns the user's profile, cache first.
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*dto.UserProfileResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "GetProfile")

	if cached := s.cache.GetProfile(ctx, userID); cached != nil {
		return cached, nil
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := toProfileResponse(user)
	s.cache.SetProfile(ctx, userID, profile)
	return profile, nil
}

// CompleteProfile fills in the profile of a provisioned user. The nickname
// must be free unless the user already holds it.
func (s *UserService) CompleteProfile(ctx context.Context, userID uint, req *dto.CompleteProfileRequest) (*dto.UserProfileResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "CompleteProfile")

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Nickname != user.Nickname {
		taken, err := s.userRepo.ExistsByNickname(ctx, req.Nickname)
		if err != nil {
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
		if taken {
			return nil, apperrors.ErrNicknameExists
		}
	}

	birthday, err := time.Parse("2006-01-02", req.Birthday)
	if err != nil {
		return nil, apperrors.ErrInvalidInput
	}

	user.CompleteProfile(req.Name, req.Nickname, model.Gender(req.Gender), birthday, req.Introduce)
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.cache.InvalidateProfile(ctx, userID)

	logger.InfoWithContext(ctx, "Profile completed").
		Int("user_id", int(userID)).
		Log()

	return toProfileResponse(user), nil
}

// UpdateIntroduce updates the bio only.
func (s *UserService) UpdateIntroduce(ctx context.Context, userID uint, req *dto.UpdateIntroduceRequest) (*dto.UserProfileResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "UpdateIntroduce")

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.UpdateIntroduce(req.Introduce)
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.cache.InvalidateProfile(ctx, userID)
	return toProfileResponse(user), nil
}

// UpdatePassword verifies the current password and replaces the hash.
func (s *UserService) UpdatePassword(ctx context.Context, userID uint, req *dto.UpdatePasswordRequest) error {
	ctx = ctxutil.WithOperation(ctx, "service", "UpdatePassword")

	if req.NewPassword != req.ConfirmPassword {
		return apperrors.ErrPasswordMismatch
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if !checkPassword(user.Password, req.CurrentPassword) {
		logger.WarnWithContext(ctx, "Password change rejected, current password incorrect").
			Int("user_id", int(userID)).
			Log()
		return apperrors.ErrIncorrectPassword
	}

	hashed, err := hashPassword(req.NewPassword)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user.UpdatePassword(hashed)
	if err := s.userRepo.Save(ctx, user); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.cache.InvalidateProfile(ctx, userID)

	logger.InfoWithContext(ctx, "Password updated").
		Int("user_id", int(userID)).
		Log()

	return nil
}

func (s *UserService) getUser(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return user, nil
}

func toProfileResponse(user *model.User) *dto.UserProfileResponse {
	return &dto.UserProfileResponse{
		ID:               user.ID,
		Email:            user.Email,
		Name:             user.Name,
		Nickname:         user.Nickname,
		Gender:           string(user.Gender),
		Birthday:         user.Birthday.Format("2006-01-02"),
		Introduce:        user.Introduce,
		ProfileCompleted: user.ProfileCompleted,
		CreatedAt:        user.CreatedAt,
		UpdatedAt:        user.UpdatedAt,
	}
}

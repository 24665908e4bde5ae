package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tedlabs/identity/internal/constants"
	"github.com/tedlabs/identity/internal/dto"
	apperrors "github.com/tedlabs/identity/internal/errors"
	"github.com/tedlabs/identity/internal/model"
	"github.com/tedlabs/identity/internal/repository"
	ctxutil "github.com/tedlabs/identity/pkg/context"
	"github.com/tedlabs/identity/pkg/logger"
)

// AuthService handles credential and social authentication and hands verified
// users to the token lifecycle.
type AuthService struct {
	userRepo     *repository.UserRepository
	tokenService *TokenService
	provisioning *ProvisioningService
}

func NewAuthService(userRepo *repository.UserRepository, tokenService *TokenService, provisioning *ProvisioningService) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		tokenService: tokenService,
		provisioning: provisioning,
	}
}

// Login verifies an email-or-nickname identifier plus password and issues a
// token pair. Unknown identifier and wrong password return the same error.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "Login")

	var (
		user *model.User
		err  error
	)
	if strings.Contains(req.Identifier, "@") {
		user, err = s.userRepo.GetByEmail(ctx, req.Identifier)
	} else {
		user, err = s.userRepo.GetByNickname(ctx, req.Identifier)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WarnWithContext(ctx, "Login failed, unknown identifier").Log()
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if !checkPassword(user.Password, req.Password) {
		logger.WarnWithContext(ctx, "Login failed, password mismatch").
			Int("user_id", int(user.ID)).
			Log()
		return nil, apperrors.ErrInvalidCredentials
	}

	logger.InfoWithContext(ctx, "Login succeeded").
		Int("user_id", int(user.ID)).
		Log()

	return s.tokenService.Issue(ctx, user)
}

// Register creates a credential user with a complete profile and issues a
// token pair, so registration doubles as the first login.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "Register")

	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if exists {
		return nil, apperrors.ErrEmailExists
	}

	exists, err = s.userRepo.ExistsByNickname(ctx, req.Nickname)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if exists {
		return nil, apperrors.ErrNicknameExists
	}

	birthday, err := time.Parse("2006-01-02", req.Birthday)
	if err != nil {
		return nil, apperrors.ErrInvalidInput
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user := &model.User{
		Email:            req.Email,
		Name:             req.Name,
		Nickname:         req.Nickname,
		Password:         hashed,
		Gender:           model.Gender(req.Gender),
		Birthday:         birthday,
		Introduce:        req.Introduce,
		ProfileCompleted: true,
		Role:             constants.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrEmailExists
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return s.tokenService.Issue(ctx, user)
}

// SocialLogin resolves a provider's attribute payload to a local user and
// issues a token pair. Provisioning is idempotent, so this serves both first
// and repeat logins.
func (s *AuthService) SocialLogin(ctx context.Context, providerName string, attrs map[string]any) (*dto.TokenResponse, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "SocialLogin")

	provider, ok := model.ParseProvider(providerName)
	if !ok {
		return nil, apperrors.ErrInvalidProvider
	}

	raw, err := json.Marshal(attrs)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	identity := ExtractIdentity(provider, attrs)

	user, err := s.provisioning.EnsureUser(ctx, provider, identity, datatypes.JSON(raw))
	if err != nil {
		return nil, err
	}

	return s.tokenService.Issue(ctx, user)
}

// Refresh rotates a refresh token into a fresh pair.
func (s *AuthService) Refresh(ctx context.Context, req *dto.TokenRefreshRequest) (*dto.TokenResponse, error) {
	return s.tokenService.Rotate(ctx, req.RefreshToken)
}

// Logout revokes the presented refresh token. Idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokenService.Revoke(ctx, refreshToken)
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func checkPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

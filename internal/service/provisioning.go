package service

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tedlabs/identity/internal/constants"
	apperrors "github.com/tedlabs/identity/internal/errors"
	"github.com/tedlabs/identity/internal/model"
	"github.com/tedlabs/identity/internal/repository"
	ctxutil "github.com/tedlabs/identity/pkg/context"
	"github.com/tedlabs/identity/pkg/logger"
)

// syntheticEmailDomain is appended when a provider does not share an email
// address. The synthesized address is deterministic per (provider, subject),
// so repeated logins resolve to the same local user.
const syntheticEmailDomain = "social.local"

var nicknameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9]`)

// ProvisioningService resolves a provider identity to a local user,
// creating the social account link and the user as needed. EnsureUser is
// idempotent: any number of logins with the same provider identity land on
// the same user.
type ProvisioningService struct {
	db         *gorm.DB
	userRepo   *repository.UserRepository
	socialRepo *repository.SocialAccountRepository
}

func NewProvisioningService(db *gorm.DB, userRepo *repository.UserRepository, socialRepo *repository.SocialAccountRepository) *ProvisioningService {
	return &ProvisioningService{
		db:         db,
		userRepo:   userRepo,
		socialRepo: socialRepo,
	}
}

// EnsureUser returns the local user owning the given provider identity. The
// resolution order is: existing link, link by matching email, new user. The
// raw payload is cached on the social account on every call.
func (s *ProvisioningService) EnsureUser(ctx context.Context, provider model.Provider, identity SocialIdentity, raw datatypes.JSON) (*model.User, error) {
	ctx = ctxutil.WithOperation(ctx, "service", "EnsureUser")

	if identity.ProviderUserID == "" {
		logger.WarnWithContext(ctx, "Provider payload missing subject").
			String("provider", string(provider)).
			Log()
		return nil, apperrors.ErrInvalidInput
	}

	var resolved *model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.ensureUser(ctx, tx, provider, identity, raw)
		if err != nil {
			return err
		}
		resolved = user
		return nil
	})
	if err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return resolved, nil
}

func (s *ProvisioningService) ensureUser(ctx context.Context, tx *gorm.DB, provider model.Provider, identity SocialIdentity, raw datatypes.JSON) (*model.User, error) {
	userRepo := s.userRepo.WithTx(tx)
	socialRepo := s.socialRepo.WithTx(tx)

	account, err := s.findOrCreateAccount(ctx, tx, provider, identity, raw)
	if err != nil {
		return nil, err
	}

	if account.UserID != nil {
		return userRepo.GetByID(ctx, *account.UserID)
	}

	// Whitespace-only provider emails count as absent.
	email := strings.TrimSpace(identity.Email)
	if email == "" {
		email = provider.Name() + "+" + identity.ProviderUserID + "@" + syntheticEmailDomain
	}

	user, err := userRepo.GetByEmail(ctx, email)
	if err == nil {
		account.AssociateUser(user)
		if err := socialRepo.Save(ctx, account); err != nil {
			return nil, err
		}
		logger.InfoWithContext(ctx, "Social account linked to existing user").
			String("provider", string(provider)).
			Int("user_id", int(user.ID)).
			Log()
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user, err = s.createUser(ctx, userRepo, provider, identity, email)
	if err != nil {
		return nil, err
	}

	account.AssociateUser(user)
	if err := socialRepo.Save(ctx, account); err != nil {
		return nil, err
	}

	return user, nil
}

// findOrCreateAccount loads the social account for the identity or creates
// it. A duplicate-key failure on create means a concurrent login inserted the
// row first, so the create retries as a lookup. The cached provider profile is
// refreshed on the existing-row path.
func (s *ProvisioningService) findOrCreateAccount(ctx context.Context, tx *gorm.DB, provider model.Provider, identity SocialIdentity, raw datatypes.JSON) (*model.SocialAccount, error) {
	socialRepo := s.socialRepo.WithTx(tx)

	account, err := socialRepo.GetByProviderID(ctx, provider, identity.ProviderUserID)
	if err == nil {
		account.UpdateProfile(identity.Email, identity.DisplayName, raw)
		if err := socialRepo.Save(ctx, account); err != nil {
			return nil, err
		}
		return account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	account = &model.SocialAccount{
		Provider:       provider,
		ProviderUserID: identity.ProviderUserID,
		Email:          identity.Email,
		DisplayName:    identity.DisplayName,
		RawAttributes:  raw,
	}
	err = s.insertAccount(ctx, tx, account)
	if err == nil {
		return account, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return socialRepo.GetByProviderID(ctx, provider, identity.ProviderUserID)
	}
	return nil, err
}

// insertAccount creates the account inside a savepoint. Postgres aborts a
// transaction after any failed statement, so the unique-violation from a lost
// insert race must be rolled back to the savepoint before the surrounding
// transaction can run the retry lookup.
func (s *ProvisioningService) insertAccount(ctx context.Context, tx *gorm.DB, account *model.SocialAccount) error {
	return tx.Transaction(func(inner *gorm.DB) error {
		return s.socialRepo.WithTx(inner).Create(ctx, account)
	})
}

// createUser provisions a local user for a first-time social login. The
// password is a bcrypt hash of a random value so the account cannot be used
// for password login until the user sets one.
func (s *ProvisioningService) createUser(ctx context.Context, userRepo *repository.UserRepository, provider model.Provider, identity SocialIdentity, email string) (*model.User, error) {
	name := strings.TrimSpace(identity.DisplayName)
	if name == "" {
		if at := strings.Index(email, "@"); at > 0 {
			name = email[:at]
		} else {
			name = provider.Name()
		}
	}

	nickname, err := s.uniqueNickname(ctx, userRepo, provider, name)
	if err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:            email,
		Name:             name,
		Nickname:         nickname,
		Password:         string(hashed),
		Gender:           model.GenderOther,
		Birthday:         time.Now(),
		ProfileCompleted: false,
		Role:             constants.RoleUser,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.InfoWithContext(ctx, "User provisioned from social login").
		String("provider", string(provider)).
		Int("user_id", int(user.ID)).
		Log()

	return user, nil
}

// uniqueNickname derives a nickname from the display name by stripping
// everything outside [a-zA-Z0-9] and lower-casing, falling back to the
// provider name when nothing survives. Collisions get an integer suffix.
func (s *ProvisioningService) uniqueNickname(ctx context.Context, userRepo *repository.UserRepository, provider model.Provider, name string) (string, error) {
	base := strings.ToLower(nicknameSanitizer.ReplaceAllString(name, ""))
	if base == "" {
		base = provider.Name()
	}

	candidate := base
	for suffix := 1; ; suffix++ {
		taken, err := userRepo.ExistsByNickname(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(suffix)
	}
}

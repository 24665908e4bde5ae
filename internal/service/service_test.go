package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tedlabs/identity/internal/constants"
	"github.com/tedlabs/identity/internal/model"
	"github.com/tedlabs/identity/internal/repository"
	"github.com/tedlabs/identity/pkg/redis"
)

// setupTestDB opens an isolated in-memory database per test. TranslateError
// matches the production configuration so duplicate-key handling behaves the
// same way.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&model.User{}, &model.SocialAccount{}, &model.RefreshToken{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()

	svc, err := NewJWTService("test-secret-key-that-is-long-enough-123", 30*time.Minute, 14*24*time.Hour)
	if err != nil {
		t.Fatalf("failed to create jwt service: %v", err)
	}
	return svc
}

func newTestTokenService(t *testing.T, db *gorm.DB) *TokenService {
	t.Helper()

	return NewTokenService(
		db,
		newTestJWTService(t),
		repository.NewRefreshTokenRepository(db),
		repository.NewUserRepository(db),
	)
}

func newDisabledCacheService(t *testing.T) *CacheService {
	t.Helper()

	client, err := redis.NewClient(redis.Config{Enabled: false})
	if err != nil {
		t.Fatalf("failed to create disabled redis client: %v", err)
	}
	return NewCacheService(client)
}

// createTestUser inserts a user with a known password.
func createTestUser(t *testing.T, db *gorm.DB, email, nickname, password string) *model.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &model.User{
		Email:            email,
		Name:             "Test User",
		Nickname:         nickname,
		Password:         string(hashed),
		Gender:           model.GenderOther,
		Birthday:         time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		ProfileCompleted: true,
		Role:             constants.RoleUser,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func countRefreshTokens(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()

	count, err := repository.NewRefreshTokenRepository(db).CountForUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("failed to count refresh tokens: %v", err)
	}
	return count
}

package database

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tedlabs/identity/internal/constants"
	"github.com/tedlabs/identity/internal/model"
)

// DefaultAdmin defines the default admin user credentials
type DefaultAdmin struct {
	Email    string
	Name     string
	Nickname string
	Password string
}

// GetDefaultAdmin returns the default admin user
func GetDefaultAdmin() DefaultAdmin {
	return DefaultAdmin{
		Email:    "admin@identity.local",
		Name:     "Administrator",
		Nickname: "admin",
		Password: "Admin@123", // Change this in production!
	}
}

// Seed creates initial data for the database
func Seed(db *gorm.DB) error {
	return SeedUsers(db)
}

// SeedUsers creates the default admin user if not exists
func SeedUsers(db *gorm.DB) error {
	admin := GetDefaultAdmin()

	var existingUser model.User
	result := db.Where("email = ?", admin.Email).First(&existingUser)

	if result.Error == nil {
		return nil
	}

	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := model.User{
		Email:            admin.Email,
		Name:             admin.Name,
		Nickname:         admin.Nickname,
		Password:         string(hashedPassword),
		Gender:           model.GenderOther,
		Birthday:         time.Now(),
		ProfileCompleted: true,
		Role:             constants.RoleAdmin,
	}

	return db.Create(&user).Error
}

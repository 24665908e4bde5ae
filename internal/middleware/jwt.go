package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tedlabs/identity/internal/constants"
	"github.com/tedlabs/identity/internal/repository"
	"github.com/tedlabs/identity/internal/service"
	"github.com/tedlabs/identity/pkg/logger"
)

type JWTMiddleware struct {
	jwtService *service.JWTService
	userRepo   *repository.UserRepository
}

func NewJWTMiddleware(jwtService *service.JWTService, userRepo *repository.UserRepository) *JWTMiddleware {
	return &JWTMiddleware{
		jwtService: jwtService,
		userRepo:   userRepo,
	}
}

// RequireAuth validates the bearer token and sets user info in the request
// context. The user is loaded so deleted accounts fail even with a valid
// token.
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.GetLogger().Warn("Missing Authorization header",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
			unauthorized(c)
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != constants.TokenTypeBearer {
			logger.GetLogger().Warn("Invalid Authorization header format",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
			unauthorized(c)
			return
		}

		claims, err := m.jwtService.ValidateAccessToken(tokenParts[1])
		if err != nil {
			logger.GetLogger().Warn("Invalid or expired token",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.Error(err))
			unauthorized(c)
			return
		}

		user, err := m.userRepo.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				logger.GetLogger().Error("Failed to load authenticated user",
					zap.Uint("user_id", claims.UserID),
					zap.Error(err))
			}
			unauthorized(c)
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user_role", claims.Role)
		c.Set("user_email", user.Email)

		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"message": "Unauthorized",
	})
	c.Abort()
}

package service

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/tedlabs/identity/internal/errors"
)

// minSecretLength is the minimum signing secret size in bytes. HS256 keys
// shorter than the hash output weaken the signature, so startup refuses them.
const minSecretLength = 32

// AccessTokenClaims is the verified content of an access token.
type AccessTokenClaims struct {
	UserID    uint
	Role      string
	ExpiresAt time.Time
}

// JWTService signs and verifies access tokens. It is a pure function of the
// configured secret, the clock and its input; it never touches storage.
type JWTService struct {
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewJWTService validates the signing configuration once at construction.
// A missing or short secret is fatal at startup, never a per-request error.
func NewJWTService(secret string, accessTTL, refreshTTL time.Duration) (*JWTService, error) {
	if len(secret) < minSecretLength {
		return nil, apperrors.ErrSigningConfig
	}

	return &JWTService{
		secretKey:  []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// GenerateAccessToken creates a signed HS256 token for the user.
// Payload: sub (decimal user id), role, iat, exp = iat + access TTL.
func (s *JWTService) GenerateAccessToken(userID uint, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(userID), 10),
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.accessTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateAccessToken checks signature and expiry and returns the claims.
// Every structural or cryptographic failure maps to ErrInvalidToken; callers
// treat that as "not authenticated", not as a fatal condition.
func (s *JWTService) ValidateAccessToken(tokenString string) (*AccessTokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secretKey, nil
	}, jwt.WithExpirationRequired())

	if err != nil || !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	role, _ := claims["role"].(string)

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}

	return &AccessTokenClaims{
		UserID:    uint(userID),
		Role:      role,
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}

// ExtractUserID returns the subject of a token that passes verification.
func (s *JWTService) ExtractUserID(tokenString string) (uint, error) {
	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// ExtractExpiry returns the expiry of a token that passes verification.
func (s *JWTService) ExtractExpiry(tokenString string) (time.Time, error) {
	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	return claims.ExpiresAt, nil
}

// AccessTTL returns the configured access token lifetime.
func (s *JWTService) AccessTTL() time.Duration {
	return s.accessTTL
}

// RefreshTTL returns the configured refresh token lifetime.
func (s *JWTService) RefreshTTL() time.Duration {
	return s.refreshTTL
}

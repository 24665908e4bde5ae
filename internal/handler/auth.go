package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/tedlabs/identity/internal/constants"
	"github.com/tedlabs/identity/internal/dto"
	apperrors "github.com/tedlabs/identity/internal/errors"
	"github.com/tedlabs/identity/internal/service"
	ctxutil "github.com/tedlabs/identity/pkg/context"
	"github.com/tedlabs/identity/pkg/logger"
)

type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
	// frontendBaseURL, when set, turns social login responses into a
	// redirect with the token pair in the URL fragment.
	frontendBaseURL string
}

func NewAuthHandler(authService *service.AuthService, userService *service.UserService, frontendBaseURL string) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		userService:     userService,
		frontendBaseURL: frontendBaseURL,
	}
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Login")

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid login request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", validationDetails(err)))
		return
	}

	response, err := h.authService.Login(ctx, &req)
	if err != nil {
		logger.WarnWithContext(ctx, "Login failed").
			Err(err).
			Log()
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Authentication failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, response)
}

// Register handles new user registration and issues the first token pair.
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Register")

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid register request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", validationDetails(err)))
		return
	}

	response, err := h.authService.Register(ctx, &req)
	if err != nil {
		logger.WarnWithContext(ctx, "Registration failed").
			String("email", req.Email).
			Err(err).
			Log()
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Registration failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusCreated, response)
}

// SocialLogin resolves a provider attribute payload to a local user and
// issues tokens. With a configured frontend base URL the tokens are delivered
// as a redirect fragment instead of a JSON body.
func (h *AuthHandler) SocialLogin(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "SocialLogin")

	providerName := c.Param("provider")

	var attrs map[string]any
	if err := c.ShouldBindJSON(&attrs); err != nil {
		logger.WarnWithContext(ctx, "Invalid social login payload").
			String("provider", providerName).
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	response, err := h.authService.SocialLogin(ctx, providerName, attrs)
	if err != nil {
		logger.WarnWithContext(ctx, "Social login failed").
			String("provider", providerName).
			Err(err).
			Log()
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Authentication failed", apperrors.GetErrorMessage(err)))
		return
	}

	if h.frontendBaseURL != "" {
		fragment := url.Values{}
		fragment.Set("access_token", response.AccessToken)
		fragment.Set("refresh_token", response.RefreshToken)
		c.Redirect(http.StatusFound, h.frontendBaseURL+"/oauth/callback#"+fragment.Encode())
		return
	}

	c.JSON(http.StatusOK, response)
}

// RefreshToken rotates a refresh token into a fresh pair.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "RefreshToken")

	var req dto.TokenRefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid refresh token request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	response, err := h.authService.Refresh(ctx, &req)
	if err != nil {
		logger.WarnWithContext(ctx, "Token refresh failed").
			Err(err).
			Log()
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Token refresh failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, response)
}

// Logout revokes the presented refresh token.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Logout")

	var req dto.TokenRefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid logout request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	if err := h.authService.Logout(ctx, req.RefreshToken); err != nil {
		logger.ErrorWithContext(ctx, "Logout failed").
			Err(err).
			Log()
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Logout failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Logout successful"))
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "Me")

	userID, ok := authenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse("Unauthorized", nil))
		return
	}

	profile, err := h.userService.GetProfile(ctx, userID)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Failed to load profile", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse("Profile loaded", profile))
}

// authenticatedUserID reads the user id set by the JWT middleware.
func authenticatedUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

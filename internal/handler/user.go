package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tedlabs/identity/internal/constants"
	"github.com/tedlabs/identity/internal/dto"
	apperrors "github.com/tedlabs/identity/internal/errors"
	"github.com/tedlabs/identity/internal/service"
	ctxutil "github.com/tedlabs/identity/pkg/context"
	"github.com/tedlabs/identity/pkg/logger"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// CompleteProfile fills in the profile of a social-provisioned user.
func (h *UserHandler) CompleteProfile(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "CompleteProfile")

	userID, ok := authenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse("Unauthorized", nil))
		return
	}

	var req dto.CompleteProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid profile request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", validationDetails(err)))
		return
	}

	profile, err := h.userService.CompleteProfile(ctx, userID, &req)
	if err != nil {
		logger.WarnWithContext(ctx, "Profile completion failed").
			Int("user_id", int(userID)).
			Err(err).
			Log()
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Profile update failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse("Profile updated", profile))
}

// UpdateIntroduce updates only the bio.
func (h *UserHandler) UpdateIntroduce(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "UpdateIntroduce")

	userID, ok := authenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse("Unauthorized", nil))
		return
	}

	var req dto.UpdateIntroduceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", validationDetails(err)))
		return
	}

	profile, err := h.userService.UpdateIntroduce(ctx, userID, &req)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Profile update failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse("Profile updated", profile))
}

// UpdatePassword verifies the current password and stores the new one.
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, "handler", "UpdatePassword")

	userID, ok := authenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse("Unauthorized", nil))
		return
	}

	var req dto.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", validationDetails(err)))
		return
	}

	if err := h.userService.UpdatePassword(ctx, userID, &req); err != nil {
		logger.WarnWithContext(ctx, "Password update failed").
			Int("user_id", int(userID)).
			Err(err).
			Log()
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse("Password update failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Password updated"))
}

package api

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UpdateSettingsRequest replaces the whole settings object. A zero rest timer
// and an empty unit fall back to the defaults.
type UpdateSettingsRequest struct {
	Theme            domain.ThemeSettings `json:"theme"`
	RestTimerSeconds int                  `json:"restTimerSeconds" binding:"gte=0"`
	WeightUnit       domain.WeightUnit    `json:"weightUnit" binding:"omitempty,oneof=kg lb"`
}

// GetMe godoc
// @Summary Get the authenticated user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 404 {object} gin.H "User not found"
// @Router /me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// GetSettings godoc
// @Summary Get the user's settings
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Settings
// @Router /me/settings [get]
func (h *UserHandler) GetSettings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Settings)
}

// UpdateSettings godoc
// @Summary Replace the user's settings
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param settings body UpdateSettingsRequest true "Settings"
// @Success 200 {object} domain.Settings
// @Failure 400 {object} gin.H "Invalid settings"
// @Router /me/settings [put]
func (h *UserHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	settings, err := h.userService.UpdateSettings(c.Request.Context(), userID, domain.Settings{
		Theme:            req.Theme,
		RestTimerSeconds: req.RestTimerSeconds,
		WeightUnit:       req.WeightUnit,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// GetTheme godoc
// @Summary Get the palette resolved from the user's theme settings
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} theme.Palette
// @Router /me/theme [get]
func (h *UserHandler) GetTheme(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	palette, err := h.userService.ResolveTheme(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, palette)
}

func (h *UserHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidSettings):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		log.Errorf("user handler: %s", err)
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}

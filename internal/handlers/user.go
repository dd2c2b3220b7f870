// internal/handlers/user.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/ustock-backend/internal/i18n"
	"github.com/javajoker/ustock-backend/internal/services"
	"github.com/javajoker/ustock-backend/internal/utils"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GET /users/me
func (h *UserHandler) GetProfile(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err, "user")
		return
	}

	utils.SuccessResponse(c, user)
}

// DELETE /users/me
// Purges the account together with its stock and consumption history.
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteAccount(c.Request.Context(), principal); err != nil {
		respondError(c, err, "user")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyUserDeleted),
	})
}

// POST /families
func (h *UserHandler) CreateFamily(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	var req services.CreateFamilyRequest
	if !bindAndValidate(c, &req) {
		return
	}

	family, err := h.userService.CreateFamily(c.Request.Context(), principal, req.Name)
	if err != nil {
		respondError(c, err, "user")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyFamilyCreated),
		"family":  family,
	})
}

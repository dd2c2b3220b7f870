// internal/middleware/auth.go
package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/ustock-backend/internal/i18n"
	"github.com/javajoker/ustock-backend/internal/models"
	"github.com/javajoker/ustock-backend/internal/services"
	"github.com/javajoker/ustock-backend/internal/utils"
)

// TokenVerifier resolves a bearer token to the principal it was issued for.
// Rejected tokens are reported with services.KindUnauthorized; any other
// error is a server failure.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.Principal, error)
}

func AuthRequired(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		principal, err := verifier.Verify(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			c.Error(err)
			if services.KindOf(err) == services.KindUnauthorized {
				utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthTokenExpired))
			} else {
				logrus.WithError(err).Error("Token verification failed")
				utils.InternalErrorResponse(c, "")
			}
			c.Abort()
			return
		}

		// Set user info in context
		c.Set(utils.ContextKeyPrincipal, *principal)
		c.Set(utils.ContextKeyUserID, principal.UserID.String())
		c.Next()
	}
}

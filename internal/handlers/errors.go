// internal/handlers/errors.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/ustock-backend/internal/i18n"
	"github.com/javajoker/ustock-backend/internal/models"
	"github.com/javajoker/ustock-backend/internal/services"
	"github.com/javajoker/ustock-backend/internal/utils"
)

// respondError writes the response for a service error. resource names the
// i18n prefix used for not-found messages ("stock", "product", ...).
func respondError(c *gin.Context, err error, resource string) {
	lang := utils.GetLangFromContext(c)
	c.Error(err)

	switch services.KindOf(err) {
	case services.KindNotFound:
		utils.NotFoundResponse(c, resource)
	case services.KindInvalidQuantity:
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_QUANTITY",
			i18n.T(lang, i18n.KeyStockInvalidQuantity), services.MessageOf(err))
	case services.KindInvalidInput:
		utils.BadRequestResponse(c, services.MessageOf(err), nil)
	case services.KindConflict:
		utils.ConflictResponse(c, services.MessageOf(err))
	case services.KindUnauthorized:
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidCredentials))
	case services.KindUpstreamUnavailable:
		utils.UpstreamErrorResponse(c)
	case services.KindIntegrityFailure:
		utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyIntegrityFailure))
	default:
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Unhandled service error")
		utils.InternalErrorResponse(c, "")
	}
}

// bindAndValidate decodes the JSON body into req and runs struct validation,
// writing the 400 response itself when either fails.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	lang := utils.GetLangFromContext(c)

	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}

// currentPrincipal returns the caller set by AuthRequired. Routes using it are
// always mounted behind that middleware.
func currentPrincipal(c *gin.Context) (p models.Principal, ok bool) {
	p, ok = utils.GetPrincipalFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
	}
	return p, ok
}

// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/ustock-backend/internal/i18n"
	"github.com/javajoker/ustock-backend/internal/utils"
)

// I18nMiddleware stores the request language. fallback is used when the
// client asks for nothing we support.
func I18nMiddleware(fallback string) gin.HandlerFunc {
	if !i18n.IsSupported(fallback) {
		fallback = i18n.DefaultLang
	}
	return func(c *gin.Context) {
		c.Set(utils.ContextKeyLang, preferredLanguage(c.GetHeader("Accept-Language"), fallback))
		c.Next()
	}
}

// preferredLanguage picks the first supported language of an Accept-Language
// header such as "fr-FR,fr;q=0.9,en;q=0.8".
func preferredLanguage(header, fallback string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.Split(part, ";")[0])
		subtags := strings.FieldsFunc(tag, func(r rune) bool { return r == '-' || r == '_' })
		if len(subtags) == 0 {
			continue
		}
		if base := strings.ToLower(subtags[0]); i18n.IsSupported(base) {
			return base
		}
	}
	return fallback
}

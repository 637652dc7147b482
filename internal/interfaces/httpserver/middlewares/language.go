package middlewares

import (
	"github.com/gin-gonic/gin"

	"jan-server/services/assistant-api/internal/infrastructure/i18n"
)

// Language negotiates the response language from Accept-Language.
func Language(translator *i18n.Translator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tag := translator.Match(c.GetHeader("Accept-Language"))
		c.Request = c.Request.WithContext(i18n.WithLanguage(c.Request.Context(), tag))
		c.Next()
	}
}

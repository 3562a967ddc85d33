package middleware

import (
	"github.com/gin-gonic/gin"

	"linkpulse/internal/i18n"
)

// I18nMiddleware 按 Accept-Language 选择 Localizer 并放入请求 context
func I18nMiddleware(translator *i18n.Translator) gin.HandlerFunc {
	return func(c *gin.Context) {
		localizer := translator.Localizer(c.GetHeader("Accept-Language"))
		c.Request = c.Request.WithContext(i18n.WithLocalizer(c.Request.Context(), localizer))
		c.Next()
	}
}

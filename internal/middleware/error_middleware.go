package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"linkpulse/internal/apperrors"
	"linkpulse/internal/i18n"
	"linkpulse/response"
)

// GlobalErrorMiddleware 全局错误中间件。AppError 按其状态码返回本地化后的消息，
// 其他错误一律返回 500 与通用消息，不暴露内部细节。
func GlobalErrorMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		ctx := c.Request.Context()

		for _, err := range c.Errors {
			var appErr *apperrors.AppError
			if errors.As(err.Err, &appErr) {
				if appErr.Code >= http.StatusInternalServerError {
					logger.Error("Request failed",
						zap.String("path", c.Request.URL.Path),
						zap.String("request_id", c.GetString(RequestIDKey)),
						zap.Error(appErr))
				}
				c.AbortWithStatusJSON(appErr.Code, response.Error(i18n.T(ctx, appErr.Message, nil)))
				return
			}
		}

		// 默认处理未定义的错误
		logger.Error("Unhandled error",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.Error(c.Errors.Last().Err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(i18n.T(ctx, apperrors.ErrInternal.Message, nil)))
	}
}

package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"linkpulse/internal/apperrors"
)

// requestBaseURL 配置了 server.base_url 时优先使用，否则按请求的协议与 Host 拼接
func requestBaseURL(c *gin.Context, configured string) string {
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}

// bindError 校验失败时使用第一个带 msg 标签的字段的消息 id，没有则返回默认参数错误
func bindError(req any, err error) *apperrors.AppError {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		t := reflect.TypeOf(req)
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		for _, e := range validationErrs {
			// 通过反射获取字段的 msg 标签值
			field, ok := t.FieldByName(e.StructField())
			if !ok {
				continue
			}
			if msg := field.Tag.Get("msg"); msg != "" {
				return apperrors.InvalidRequestError(msg).WithCause(err)
			}
		}
	}
	return apperrors.InvalidRequestErrorDefault().WithCause(err)
}

package apperrors

import (
	"net/http"
)

// AppError 自定义错误类型，Message 为 i18n 消息 ID
type AppError struct {
	Code    int
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is 按 Code + Message 匹配，使 errors.Is(err, ErrSlugInUse) 对携带不同 Cause 的副本同样成立
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// WithCause 返回携带底层错误的副本，不修改哨兵错误本身
func (e *AppError) WithCause(cause error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   cause,
	}
}

// 业务错误哨兵
var (
	ErrInvalidURL          = WithCode(http.StatusBadRequest, "error.target_url_invalid")
	ErrInvalidSlug         = WithCode(http.StatusBadRequest, "error.shortcode_invalid")
	ErrSlugInUse           = WithCode(http.StatusConflict, "error.slug_in_use")
	ErrNotFound            = WithCode(http.StatusNotFound, "error.link_not_found")
	ErrIdentifierExhausted = WithCode(http.StatusInternalServerError, "error.identifier_exhausted")
	ErrInternal            = WithCode(http.StatusInternalServerError, "error.internal")

	ErrEmailTaken         = WithCode(http.StatusConflict, "error.email_taken")
	ErrInvalidCredentials = WithCode(http.StatusUnauthorized, "error.invalid_credentials")
	ErrUnauthorized       = WithCode(http.StatusUnauthorized, "error.unauthorized")
	ErrForbidden          = WithCode(http.StatusForbidden, "error.forbidden")
	ErrRateLimited        = WithCode(http.StatusTooManyRequests, "error.rate_limited")
)

// WithCode 创建通用业务错误
func WithCode(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// BusinessError 封装业务逻辑错误（通用）
func BusinessError(code int, message string) *AppError {
	return WithCode(code, message)
}

// InvalidRequestError 封装参数校验错误
func InvalidRequestError(message string) *AppError {
	return WithCode(http.StatusBadRequest, message)
}

// InvalidRequestErrorDefault 默认参数校验错误
func InvalidRequestErrorDefault() *AppError {
	return WithCode(http.StatusBadRequest, "error.invalid_request")
}

// SystemError 封装系统内部错误
func SystemError(cause error) *AppError {
	return ErrInternal.WithCause(cause)
}

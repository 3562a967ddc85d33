package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"linkpulse/internal/service"
)

type RedirectHandler struct {
	redirector *service.Redirector
}

func NewRedirectHandler(redirector *service.Redirector) *RedirectHandler {
	return &RedirectHandler{redirector: redirector}
}

// Redirect GET /:shortId。访问事件异步写入，不等待结果。
func (h *RedirectHandler) Redirect(c *gin.Context) {
	target, err := h.redirector.Resolve(c.Request.Context(), c.Param("shortId"), service.RequestContext{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referrer:  c.Request.Referer(),
		Source:    c.Query("src"),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	// 302 不允许被浏览器缓存，否则后续点击不会经过服务端
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Redirect(http.StatusFound, target)
}

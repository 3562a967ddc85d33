package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"linkpulse/internal/apperrors"
	"linkpulse/internal/dto"
	"linkpulse/internal/i18n"
	"linkpulse/internal/middleware"
	"linkpulse/internal/service"
	"linkpulse/response"
)

type ShortLinkHandler struct {
	shortener *service.Shortener
	links     *service.LinkManager
	rewriter  *service.HTMLRewriter
	baseURL   string
	logger    *zap.Logger
}

func NewShortLinkHandler(shortener *service.Shortener, links *service.LinkManager, rewriter *service.HTMLRewriter, baseURL string, logger *zap.Logger) *ShortLinkHandler {
	return &ShortLinkHandler{
		shortener: shortener,
		links:     links,
		rewriter:  rewriter,
		baseURL:   baseURL,
		logger:    logger,
	}
}

// Create POST /urls。已存在的相同 URL 同样返回 201 与原短码。
func (h *ShortLinkHandler) Create(c *gin.Context) {
	var req dto.ShortenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Request body binding failed",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		_ = c.Error(bindError(&req, err))
		return
	}

	in := service.ShortenInput{OriginalURL: req.URL, CustomSlug: req.CustomSlug}
	if actor, ok := middleware.ActorFrom(c); ok {
		in.CreatorID = &actor.UserID
	}

	link, _, err := h.shortener.Shorten(c.Request.Context(), in)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewShortenResponse(link, requestBaseURL(c, h.baseURL)))
}

// ListMine GET /urls/mine
func (h *ShortLinkHandler) ListMine(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		_ = c.Error(apperrors.ErrUnauthorized)
		return
	}

	var q dto.ListMineQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(bindError(&q, err))
		return
	}

	page, err := h.links.ListMine(c.Request.Context(), actor.UserID, q.Page, q.Size)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response.OK(page, i18n.T(c.Request.Context(), "message.success", nil)))
}

// Delete DELETE /urls/:shortId
func (h *ShortLinkHandler) Delete(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		_ = c.Error(apperrors.ErrUnauthorized)
		return
	}

	if err := h.links.Delete(c.Request.Context(), actor, c.Param("shortId")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response.OK(struct{}{}, i18n.T(c.Request.Context(), "message.link_deleted", nil)))
}

// ProcessHTML POST /urls/process-html
func (h *ShortLinkHandler) ProcessHTML(c *gin.Context) {
	var req dto.ProcessHTMLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(&req, err))
		return
	}

	baseURL := req.BaseURL
	if baseURL == "" {
		baseURL = requestBaseURL(c, h.baseURL)
	}
	in := service.RewriteInput{HTML: req.HTML, BaseURL: baseURL, Source: req.Source}
	if actor, ok := middleware.ActorFrom(c); ok {
		in.CreatorID = &actor.UserID
	}

	out, err := h.rewriter.Rewrite(c.Request.Context(), in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.ProcessHTMLResponse{
		ProcessedHTML:  out.HTML,
		OriginalLinks:  out.OriginalLinks,
		ProcessedLinks: out.ProcessedLinks,
	})
}

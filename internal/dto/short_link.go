package dto

import (
	"time"

	"linkpulse/internal/model"
)

// ShortenRequest POST /urls
type ShortenRequest struct {
	URL        string `json:"url" binding:"required" msg:"error.target_url_required"`
	CustomSlug string `json:"customSlug"`
}

type ShortenResponse struct {
	OriginalURL string    `json:"originalUrl"`
	ShortURL    string    `json:"shortUrl"`
	ShortID     string    `json:"shortId"`
	CustomSlug  *string   `json:"customSlug,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewShortenResponse baseURL 不带末尾斜杠
func NewShortenResponse(link *model.ShortLink, baseURL string) ShortenResponse {
	return ShortenResponse{
		OriginalURL: link.OriginalURL,
		ShortURL:    baseURL + "/" + link.ShortID,
		ShortID:     link.ShortID,
		CustomSlug:  link.CustomSlug,
		CreatedAt:   link.CreatedAt,
	}
}

// ProcessHTMLRequest POST /urls/process-html
type ProcessHTMLRequest struct {
	HTML    string `json:"html" binding:"required" msg:"error.html_required"`
	BaseURL string `json:"baseUrl" binding:"omitempty,url"`
	Source  string `json:"source" binding:"omitempty,oneof=web email"`
}

type ProcessHTMLResponse struct {
	ProcessedHTML  string `json:"processedHtml"`
	OriginalLinks  int    `json:"originalLinks"`
	ProcessedLinks int    `json:"processedLinks"`
}

// ListMineQuery GET /urls/mine
type ListMineQuery struct {
	Page int `form:"page" binding:"omitempty,min=1"`
	Size int `form:"size" binding:"omitempty,min=1,max=100"`
}

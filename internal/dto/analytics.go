package dto

import (
	"time"

	"linkpulse/internal/model"
)

type ClicksByURLResponse struct {
	URLID       string             `json:"urlId"`
	TotalClicks int                `json:"totalClicks"`
	Clicks      []model.ClickEvent `json:"clicks"`
}

type DateRangeResponse struct {
	StartDate   time.Time          `json:"startDate"`
	EndDate     time.Time          `json:"endDate"`
	TotalClicks int                `json:"totalClicks"`
	Clicks      []model.ClickEvent `json:"clicks"`
}

type TopLink struct {
	URL     string `json:"url"`
	ShortID string `json:"shortId"`
	Clicks  int64  `json:"clicks"`
}

type TopLinksResponse struct {
	Limit     int       `json:"limit"`
	TopClicks []TopLink `json:"topClicks"`
}

func NewTopLinks(links []model.ShortLink) []TopLink {
	out := make([]TopLink, 0, len(links))
	for _, l := range links {
		out = append(out, TopLink{URL: l.OriginalURL, ShortID: l.ShortID, Clicks: l.Clicks})
	}
	return out
}

type DailyStatsResponse struct {
	URLID string            `json:"urlId"`
	Days  []model.DailyStat `json:"days"`
}

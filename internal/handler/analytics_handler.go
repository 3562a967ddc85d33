package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"linkpulse/internal/apperrors"
	"linkpulse/internal/dto"
	"linkpulse/internal/model"
	"linkpulse/internal/service"
)

const dateOnly = "2006-01-02"

type AnalyticsHandler struct {
	analytics *service.Analytics
}

func NewAnalyticsHandler(analytics *service.Analytics) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// ByURL GET /analytics/url/:urlId
func (h *AnalyticsHandler) ByURL(c *gin.Context) {
	urlID := c.Param("urlId")
	clicks, err := h.analytics.ClicksByURL(c.Request.Context(), urlID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.ClicksByURLResponse{
		URLID:       urlID,
		TotalClicks: len(clicks),
		Clicks:      nonNil(clicks),
	})
}

// DateRange GET /analytics/date-range?startDate&endDate
func (h *AnalyticsHandler) DateRange(c *gin.Context) {
	rawStart, rawEnd := c.Query("startDate"), c.Query("endDate")
	if rawStart == "" || rawEnd == "" {
		_ = c.Error(apperrors.InvalidRequestError("error.date_range_required"))
		return
	}

	start, err := parseDate(rawStart, false)
	if err != nil {
		_ = c.Error(apperrors.InvalidRequestError("error.date_range_invalid"))
		return
	}
	end, err := parseDate(rawEnd, true)
	if err != nil {
		_ = c.Error(apperrors.InvalidRequestError("error.date_range_invalid"))
		return
	}

	clicks, err := h.analytics.ClicksByDateRange(c.Request.Context(), start, end)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.DateRangeResponse{
		StartDate:   start,
		EndDate:     end,
		TotalClicks: len(clicks),
		Clicks:      nonNil(clicks),
	})
}

// Top GET /analytics/top?limit
func (h *AnalyticsHandler) Top(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	limit = service.NormalizeTopLimit(limit)

	links, err := h.analytics.TopLinks(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.TopLinksResponse{
		Limit:     limit,
		TopClicks: dto.NewTopLinks(links),
	})
}

// Daily GET /analytics/url/:urlId/daily
func (h *AnalyticsHandler) Daily(c *gin.Context) {
	urlID := c.Param("urlId")
	days, err := h.analytics.DailyStats(c.Request.Context(), urlID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.DailyStatsResponse{URLID: urlID, Days: days})
}

func nonNil(clicks []model.ClickEvent) []model.ClickEvent {
	if clicks == nil {
		return []model.ClickEvent{}
	}
	return clicks
}

// parseDate 接受 RFC3339 或 YYYY-MM-DD（UTC）。只有日期的结束时间取当天最后一刻，使区间包含整天。
func parseDate(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, nil
}

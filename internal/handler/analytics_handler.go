package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mgrushin/go-shortlink/internal/service"
)

const defaultActivityWindow = 24 * time.Hour

type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

func (h *AnalyticsHandler) OverallStats(c *gin.Context) {
	ownerID, ok := ownerIDParam(c)
	if !ok {
		return
	}

	stats, err := h.analyticsService.OverallStats(c.Request.Context(), ownerID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// RecentActivity accepts the window as a Go duration string, e.g. "24h".
func (h *AnalyticsHandler) RecentActivity(c *gin.Context) {
	ownerID, ok := ownerIDParam(c)
	if !ok {
		return
	}

	window := defaultActivityWindow
	if raw := c.Query("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "window must be a positive duration, e.g. 24h",
			})
			return
		}
		window = parsed
	}

	activity, err := h.analyticsService.RecentActivity(c.Request.Context(), ownerID, window)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"window": window.String(),
		"since":  activity.Since,
		"count":  activity.Count,
	})
}

func (h *AnalyticsHandler) DailyHistogram(c *gin.Context) {
	ownerID, ok := ownerIDParam(c)
	if !ok {
		return
	}

	days, ok := positiveIntQuery(c, "days", 7)
	if !ok {
		return
	}

	histogram, err := h.analyticsService.DailyHistogram(c.Request.Context(), ownerID, days)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"days":      days,
		"histogram": histogram,
	})
}

func (h *AnalyticsHandler) TopLinks(c *gin.Context) {
	ownerID, ok := ownerIDParam(c)
	if !ok {
		return
	}

	n, ok := positiveIntQuery(c, "n", 10)
	if !ok {
		return
	}

	links, err := h.analyticsService.TopLinks(c.Request.Context(), ownerID, n)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"links": links,
	})
}

func (h *AnalyticsHandler) LinkDetail(c *gin.Context) {
	shortCode := c.Param("shortCode")

	detail, err := h.analyticsService.LinkDetailByCode(c.Request.Context(), shortCode)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

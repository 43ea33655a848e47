package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type AnalyticsHandler struct {
	service *Service
}

func NewAnalyticsHandler(service *Service) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

func requestDate(c *gin.Context) (string, bool) {
	date := c.Param("date")
	if _, err := time.Parse(dateLayout, date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return "", false
	}
	return date, true
}

func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	date, ok := requestDate(c)
	if !ok {
		return
	}
	resp, err := h.service.Analytics(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AnalyticsHandler) GetTrends(c *gin.Context) {
	date, ok := requestDate(c)
	if !ok {
		return
	}
	resp, err := h.service.Trends(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AnalyticsHandler) GetInsights(c *gin.Context) {
	date, ok := requestDate(c)
	if !ok {
		return
	}
	insights, err := h.service.Insights(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "insights": insights})
}

func (h *AnalyticsHandler) GetStatus(c *gin.Context) {
	date, ok := requestDate(c)
	if !ok {
		return
	}
	result, err := h.service.Status(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peochain/peochain-api/services"
	"github.com/peochain/peochain-api/utils"
)

// AnalyticsController serves the key-gated dashboard endpoints plus the
// public view beacon
type AnalyticsController struct {
	service *services.AnalyticsService
}

// NewAnalyticsController creates a new AnalyticsController
func NewAnalyticsController(service *services.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{service: service}
}

// Overview handles GET /api/analytics/overview
func (ac *AnalyticsController) Overview(c *gin.Context) {
	utils.LogInfo("Analytics overview called")

	topN, _ := strconv.Atoi(c.DefaultQuery("top", "10"))
	overview, err := ac.service.GetOverview(c.Request.Context(), topN)
	if err != nil {
		utils.LogError("Failed to compute overview: %v", err)
		utils.InternalServerError(c, "Failed to load analytics overview", nil)
		return
	}

	utils.Success(c, "Analytics overview retrieved", overview)
}

// DailyStats handles GET /api/analytics/daily-stats
func (ac *AnalyticsController) DailyStats(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	for _, bound := range []string{from, to} {
		if bound == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", bound); err != nil {
			utils.BadRequest(c, "Dates must use the YYYY-MM-DD format", nil)
			return
		}
	}

	stats, err := ac.service.GetDailyStats(c.Request.Context(), from, to)
	if err != nil {
		utils.LogError("Failed to load daily stats: %v", err)
		utils.InternalServerError(c, "Failed to load daily stats", nil)
		return
	}

	utils.Success(c, "Daily stats retrieved", stats)
}

// Regions handles GET /api/analytics/regions
func (ac *AnalyticsController) Regions(c *gin.Context) {
	stats, err := ac.service.GetRegionalBreakdown(c.Request.Context())
	if err != nil {
		utils.LogError("Failed to load regional breakdown: %v", err)
		utils.InternalServerError(c, "Failed to load regional breakdown", nil)
		return
	}
	utils.Success(c, "Regional breakdown retrieved", stats)
}

// Channels handles GET /api/analytics/channels
func (ac *AnalyticsController) Channels(c *gin.Context) {
	stats, err := ac.service.GetChannelBreakdown(c.Request.Context())
	if err != nil {
		utils.LogError("Failed to load channel breakdown: %v", err)
		utils.InternalServerError(c, "Failed to load channel breakdown", nil)
		return
	}
	utils.Success(c, "Channel breakdown retrieved", stats)
}

// Entries handles GET /api/analytics/entries
func (ac *AnalyticsController) Entries(c *gin.Context) {
	page, limit := utils.GetPaginationParams(c)

	entries, total, err := ac.service.GetEntries(c.Request.Context(), page, limit)
	if err != nil {
		utils.LogError("Failed to list waitlist entries: %v", err)
		utils.InternalServerError(c, "Failed to list waitlist entries", nil)
		return
	}

	utils.SuccessWithPagination(c, "Waitlist entries retrieved", entries, total, page, limit)
}

// RecordView handles POST /api/analytics/view, the public landing-page
// view beacon
func (ac *AnalyticsController) RecordView(c *gin.Context) {
	if err := ac.service.RecordView(c.Request.Context()); err != nil {
		utils.LogError("Failed to record page view: %v", err)
		utils.InternalServerError(c, "Failed to record view", nil)
		return
	}
	utils.Success(c, "View recorded", nil)
}

// UpsertStatRequest carries marketing-side conversion figures
type UpsertStatRequest struct {
	Country        string  `json:"country"`
	Channel        string  `json:"channel"`
	ConversionRate float64 `json:"conversionRate"`
}

// UpsertRegion handles PUT /api/analytics/regions
func (ac *AnalyticsController) UpsertRegion(c *gin.Context) {
	var req UpsertStatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body", err.Error())
		return
	}

	if err := ac.service.UpsertRegion(c.Request.Context(), req.Country, req.ConversionRate); err != nil {
		var fieldErr *services.FieldError
		if errors.As(err, &fieldErr) {
			utils.BadRequest(c, fieldErr.Message, gin.H{"field": fieldErr.Field})
			return
		}
		utils.LogError("Failed to upsert region: %v", err)
		utils.InternalServerError(c, "Failed to update regional stats", nil)
		return
	}

	utils.Success(c, "Regional stats updated", nil)
}

// UpsertChannel handles PUT /api/analytics/channels
func (ac *AnalyticsController) UpsertChannel(c *gin.Context) {
	var req UpsertStatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request body", err.Error())
		return
	}

	if err := ac.service.UpsertChannel(c.Request.Context(), req.Channel, req.ConversionRate); err != nil {
		var fieldErr *services.FieldError
		if errors.As(err, &fieldErr) {
			utils.BadRequest(c, fieldErr.Message, gin.H{"field": fieldErr.Field})
			return
		}
		utils.LogError("Failed to upsert channel: %v", err)
		utils.InternalServerError(c, "Failed to update channel stats", nil)
		return
	}

	utils.Success(c, "Channel stats updated", nil)
}

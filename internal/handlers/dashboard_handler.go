package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finanzas/internal/period"
	"finanzas/internal/services"
)

// DashboardHandler serves the monthly statistics.
type DashboardHandler struct {
	statsService services.StatsServicer
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(statsService services.StatsServicer) *DashboardHandler {
	return &DashboardHandler{statsService: statsService}
}

// GetDashboard returns the statistics of a month
// @Summary     Dashboard statistics
// @Description Totals, balance, chart series and category breakdown of a month. Without year and month the current month is used.
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Param       year  query int false "Year (requires month)"
// @Param       month query int false "Month 1-12 (requires year)"
// @Success     200 {object} stats.DashboardStats "Dashboard statistics"
// @Failure     400 {object} ErrorResponse "Invalid period"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Store unavailable"
// @Router      /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	p, err := parsePeriodQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var target period.Period
	if p != nil {
		target = *p
	}

	result, err := h.statsService.GetDashboardStats(c.Request.Context(), userID, target)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

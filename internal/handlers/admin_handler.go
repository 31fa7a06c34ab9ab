package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rtsant123/teer-betting-app/internal/services"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes the result-publishing and scheduling surface.
type AdminHandler struct {
	settlementService *services.SettlementService
	schedulerService  *services.SchedulerService
}

func NewAdminHandler(settlementService *services.SettlementService, schedulerService *services.SchedulerService) *AdminHandler {
	return &AdminHandler{settlementService: settlementService, schedulerService: schedulerService}
}

// PublishResult records a round result and settles its bets
func (h *AdminHandler) PublishResult(c *gin.Context) {
	roundID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid round id"})
		return
	}

	var req struct {
		Result *int `json:"result" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.settlementService.PublishResult(uint(roundID), *req.Result, false)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// ReprocessResult corrects the result of a completed round. Settlement is
// append-only: only still-pending bets are settled against the new result.
func (h *AdminHandler) ReprocessResult(c *gin.Context) {
	roundID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid round id"})
		return
	}

	var req struct {
		Result *int `json:"result" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.settlementService.PublishResult(uint(roundID), *req.Result, true)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// WinnerPreview reports who would win at a hypothetical result
func (h *AdminHandler) WinnerPreview(c *gin.Context) {
	roundID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid round id"})
		return
	}

	result, err := strconv.Atoi(c.Query("result"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "result query parameter is required"})
		return
	}

	winners, payout, err := h.settlementService.WinnerPreview(uint(roundID), result)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"round_id":     roundID,
			"result":       result,
			"winners":      winners,
			"total_payout": payout,
		},
	})
}

// ForecastWinnerPreview reports forecast winners for a hypothetical pair
func (h *AdminHandler) ForecastWinnerPreview(c *gin.Context) {
	houseID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid house id"})
		return
	}

	frResult, err1 := strconv.Atoi(c.Query("fr_result"))
	srResult, err2 := strconv.Atoi(c.Query("sr_result"))
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fr_result and sr_result query parameters are required"})
		return
	}

	winners, payout, err := h.settlementService.ForecastWinnerPreview(uint(houseID), frResult, srResult)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"house_id":     houseID,
			"fr_result":    frResult,
			"sr_result":    srResult,
			"winners":      winners,
			"total_payout": payout,
		},
	})
}

// CancelRound cancels a scheduled round and refunds its bets
func (h *AdminHandler) CancelRound(c *gin.Context) {
	roundID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid round id"})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	refunded, err := h.settlementService.CancelRound(uint(roundID), req.Reason)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Round cancelled successfully",
		"data":    gin.H{"refunded_bets": refunded},
	})
}

// DeleteRound removes a round that never took a bet
func (h *AdminHandler) DeleteRound(c *gin.Context) {
	roundID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid round id"})
		return
	}

	if err := h.settlementService.DeleteRound(uint(roundID)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Round deleted successfully",
	})
}

// ScheduleDaily creates rounds for all active houses on a date
// (default today)
func (h *AdminHandler) ScheduleDaily(c *gin.Context) {
	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	outcomes, err := h.schedulerService.ScheduleDailyRounds(date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	total := 0
	for _, outcome := range outcomes {
		total += outcome.RoundsCreated
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"date":           date.Format("2006-01-02"),
			"rounds_created": total,
			"houses":         outcomes,
		},
	})
}

// AutoScheduleHouse schedules a house's rounds over the coming days
func (h *AdminHandler) AutoScheduleHouse(c *gin.Context) {
	houseID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid house id"})
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))

	created, err := h.schedulerService.AutoScheduleHouseRounds(uint(houseID), days)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"house_id":       houseID,
			"days":           days,
			"rounds_created": created,
		},
	})
}

// UpdateHouseSchedule changes a house's draw times or run days
func (h *AdminHandler) UpdateHouseSchedule(c *gin.Context) {
	houseID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid house id"})
		return
	}

	var req services.HouseScheduleUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	house, err := h.schedulerService.UpdateHouseSchedule(uint(houseID), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    house,
	})
}

// ActivateDueRounds moves rounds past their betting deadline to ACTIVE
func (h *AdminHandler) ActivateDueRounds(c *gin.Context) {
	activated, err := h.schedulerService.UpdateRoundStatuses()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"activated": activated},
	})
}

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rtsant123/teer-betting-app/internal/models"
	"github.com/rtsant123/teer-betting-app/internal/services"

	"github.com/gin-gonic/gin"
)

type RoundHandler struct {
	roundService *services.RoundService
}

func NewRoundHandler(roundService *services.RoundService) *RoundHandler {
	return &RoundHandler{roundService: roundService}
}

// GetActiveRoundsByHouse returns the rounds currently open for betting on a
// house, keyed by round type (FR, SR, FORECAST)
func (h *RoundHandler) GetActiveRoundsByHouse(c *gin.Context) {
	houseID, err := strconv.ParseUint(c.Param("house_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid house id"})
		return
	}

	rounds, err := h.roundService.GetActiveRoundsByHouse(uint(houseID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rounds"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rounds,
	})
}

// GetForecastRound returns a house's FR/SR pair for a date (default today)
// and whether forecast betting is open
func (h *RoundHandler) GetForecastRound(c *gin.Context) {
	houseID, err := strconv.ParseUint(c.Param("house_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid house id"})
		return
	}

	date := time.Now().UTC()
	if raw := c.Query("target_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "target_date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	pair, err := h.roundService.GetForecastRounds(uint(houseID), date)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    pair,
	})
}

// GetUpcomingRounds lists upcoming rounds across all houses
func (h *RoundHandler) GetUpcomingRounds(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	rounds, err := h.roundService.GetUpcomingRounds(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rounds"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rounds,
		"count":   len(rounds),
	})
}

// GetResults lists published results, optionally filtered by house
func (h *RoundHandler) GetResults(c *gin.Context) {
	houseID, _ := strconv.ParseUint(c.DefaultQuery("house_id", "0"), 10, 32)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	results, err := h.roundService.GetResults(uint(houseID), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch results"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    results,
		"count":   len(results),
	})
}

// CreateRound creates a round manually (admin only)
func (h *RoundHandler) CreateRound(c *gin.Context) {
	var req models.RoundCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	round, err := h.roundService.CreateRound(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    models.NewRoundResponse(round),
	})
}

// ListRounds is the admin round listing with filters
func (h *RoundHandler) ListRounds(c *gin.Context) {
	houseID, _ := strconv.ParseUint(c.DefaultQuery("house_id", "0"), 10, 32)
	status := models.RoundStatus(c.Query("status"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	rounds, err := h.roundService.ListRounds(uint(houseID), status, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rounds"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rounds,
		"count":   len(rounds),
	})
}

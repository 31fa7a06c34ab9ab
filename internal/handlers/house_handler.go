package handlers

import (
	"net/http"
	"strconv"

	"github.com/rtsant123/teer-betting-app/internal/models"
	"github.com/rtsant123/teer-betting-app/internal/services"

	"github.com/gin-gonic/gin"
)

type HouseHandler struct {
	houseService *services.HouseService
}

func NewHouseHandler(houseService *services.HouseService) *HouseHandler {
	return &HouseHandler{houseService: houseService}
}

// GetHouses lists houses; players see only active ones
func (h *HouseHandler) GetHouses(c *gin.Context) {
	activeOnly := c.DefaultQuery("active_only", "true") == "true"

	houses, err := h.houseService.ListHouses(activeOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch houses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    houses,
		"count":   len(houses),
	})
}

// GetHouse returns a single house
func (h *HouseHandler) GetHouse(c *gin.Context) {
	houseID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid house id"})
		return
	}

	house, err := h.houseService.GetHouse(uint(houseID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    house,
	})
}

// CreateHouse adds a new venue (admin only)
func (h *HouseHandler) CreateHouse(c *gin.Context) {
	var house models.House
	if err := c.ShouldBindJSON(&house); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.houseService.CreateHouse(house)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    created,
	})
}

// UpdateHouse replaces a house's editable fields (admin only)
func (h *HouseHandler) UpdateHouse(c *gin.Context) {
	houseID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid house id"})
		return
	}

	var house models.House
	if err := c.ShouldBindJSON(&house); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.houseService.UpdateHouse(uint(houseID), house)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    updated,
	})
}

// DeleteHouse removes a house with no round history (admin only)
func (h *HouseHandler) DeleteHouse(c *gin.Context) {
	houseID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid house id"})
		return
	}

	if err := h.houseService.DeleteHouse(uint(houseID)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "House deleted successfully",
	})
}

// SetHouseActive toggles whether the house takes bets (admin only)
func (h *HouseHandler) SetHouseActive(c *gin.Context) {
	houseID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid house id"})
		return
	}

	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	house, err := h.houseService.SetHouseActive(uint(houseID), *req.IsActive)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    house,
	})
}
